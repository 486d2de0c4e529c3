/*
 * Copyright 2025 The Collabboard Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/collabboard/collabboard/api/types/events"
	"github.com/collabboard/collabboard/client"
	"github.com/collabboard/collabboard/server/logging"
)

// maxTailPayload is how much of a payload tail prints.
const maxTailPayload = 120

func newTailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tail",
		Short: "Join the session as a silent participant and log every event",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := logging.New("TAIL", logging.NewField("addr", flagRelayAddr))
			cli, err := client.Dial(ctx, flagRelayAddr, client.WithLogger(logger))
			if err != nil {
				return err
			}
			defer func() {
				if err := cli.Close(); err != nil {
					logger.Warnf("close: %v", err)
				}
			}()

			for _, inbound := range events.Inbound() {
				outbound, _ := events.Outbound(inbound)
				cli.Subscribe(outbound, func(payload []byte) {
					logger.Infof("%s %s", outbound, truncate(payload))
				})
			}
			logger.Infof("tailing %s", flagRelayAddr)

			select {
			case <-ctx.Done():
				return nil
			case <-cli.Done():
				return cli.Err()
			}
		},
	}
}

func truncate(payload []byte) string {
	if len(payload) <= maxTailPayload {
		return string(payload)
	}
	return string(payload[:maxTailPayload]) + "..."
}

func init() {
	rootCmd.AddCommand(newTailCmd())
}
