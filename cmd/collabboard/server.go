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
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/collabboard/collabboard/server"
	"github.com/collabboard/collabboard/server/backend/messagebroker"
	"github.com/collabboard/collabboard/server/logging"
)

// Below are the environment variables read when the matching flag is not
// given.
const (
	envRedisAddr = "COLLABBOARD_REDIS_ADDR"
	envLogLevel  = "COLLABBOARD_LOG_LEVEL"
)

var (
	gracefulTimeout = 10 * time.Second
)

var (
	flagConfPath string
	flagLogLevel string

	relayPingInterval     time.Duration
	backendPublishTimeout time.Duration

	redisAddr     string
	redisPassword string
	redisDB       int
	redisChannel  string

	conf = server.NewConfig()
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server [options]",
		Short: "Start Collabboard relay server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf.Relay.PingInterval = relayPingInterval.String()
			conf.Backend.PublishTimeout = backendPublishTimeout.String()

			if !cmd.Flags().Changed("redis-addr") {
				if addr, ok := os.LookupEnv(envRedisAddr); ok {
					redisAddr = addr
				}
			}
			if redisAddr != "" {
				conf.Redis = &messagebroker.RedisConfig{
					Addr:     redisAddr,
					Password: redisPassword,
					DB:       redisDB,
					Channel:  redisChannel,
				}
			}

			if !cmd.Flags().Changed("log-level") {
				if level, ok := os.LookupEnv(envLogLevel); ok {
					flagLogLevel = level
				}
			}

			// If config file is given, command-line arguments will be overwritten.
			if flagConfPath != "" {
				parsed, err := server.NewConfigFromFile(flagConfPath)
				if err != nil {
					return err
				}
				conf = parsed
			}

			if err := logging.SetLogLevel(flagLogLevel); err != nil {
				return err
			}

			c, err := server.New(conf)
			if err != nil {
				return err
			}

			if err := c.Start(); err != nil {
				return err
			}

			if code := handleSignal(c); code != 0 {
				return fmt.Errorf("exit code: %d", code)
			}

			return nil
		},
	}
}

func handleSignal(c *server.Collabboard) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var sig os.Signal
	select {
	case s := <-sigCh:
		sig = s
	case <-c.ShutdownCh():
		// collabboard is already shutdown
		return 0
	}

	graceful := false
	if sig == syscall.SIGINT || sig == syscall.SIGTERM {
		graceful = true
	}

	gracefulCh := make(chan struct{})
	go func() {
		if err := c.Shutdown(graceful); err != nil {
			return
		}
		close(gracefulCh)
	}()

	select {
	case <-sigCh:
		return 1
	case <-time.After(gracefulTimeout):
		return 1
	case <-gracefulCh:
		return 0
	}
}

func init() {
	cmd := newServerCmd()
	cmd.Flags().StringVarP(
		&flagConfPath,
		"config",
		"c",
		"",
		"Config path",
	)
	cmd.Flags().StringVarP(
		&flagLogLevel,
		"log-level",
		"l",
		"info",
		"Log level: debug, info, warn, error, panic, fatal",
	)
	cmd.Flags().IntVar(
		&conf.Relay.Port,
		"relay-port",
		server.DefaultRelayPort,
		"Relay port",
	)
	cmd.Flags().Int64Var(
		&conf.Relay.MaxMessageBytes,
		"relay-max-message-bytes",
		server.DefaultRelayMaxMessageBytes,
		"Maximum size in bytes of a frame the relay will accept.",
	)
	cmd.Flags().StringSliceVar(
		&conf.Relay.AllowedOrigins,
		"relay-allowed-origins",
		nil,
		"Origins allowed to open a channel. Empty or '*' allows any origin.",
	)
	cmd.Flags().DurationVar(
		&relayPingInterval,
		"relay-ping-interval",
		server.DefaultRelayPingInterval,
		"Interval of keepalive pings sent to participants.",
	)
	cmd.Flags().IntVar(
		&conf.Profiling.Port,
		"profiling-port",
		server.DefaultProfilingPort,
		"Profiling port",
	)
	cmd.Flags().BoolVar(
		&conf.Profiling.EnablePprof,
		"enable-pprof",
		false,
		"Enable runtime profiling data via HTTP server.",
	)
	cmd.Flags().DurationVar(
		&backendPublishTimeout,
		"backend-publish-timeout",
		server.DefaultBackendPublishTimeout,
		"How long an event may wait for a slow participant before it is dropped.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.SendBufferSize,
		"backend-send-buffer-size",
		server.DefaultBackendSendBufferSize,
		"Number of events buffered for each participant.",
	)
	cmd.Flags().StringVar(
		&redisAddr,
		"redis-addr",
		"",
		"Redis address used to relay events between nodes. Leave empty to run a single node.",
	)
	cmd.Flags().StringVar(
		&redisPassword,
		"redis-password",
		"",
		"Redis password",
	)
	cmd.Flags().IntVar(
		&redisDB,
		"redis-db",
		0,
		"Redis database number",
	)
	cmd.Flags().StringVar(
		&redisChannel,
		"redis-channel",
		server.DefaultRedisChannel,
		"Redis pub/sub channel shared by the nodes.",
	)

	rootCmd.AddCommand(cmd)
}
