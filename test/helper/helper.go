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

// Package helper provides the fixtures shared by the tests of Collabboard.
package helper

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/collabboard/collabboard/server"
	"github.com/collabboard/collabboard/server/backend"
	"github.com/collabboard/collabboard/server/logging"
	"github.com/collabboard/collabboard/server/relay"
)

// Below are the values of the Collabboard config used in the test.
var (
	RelayMaxMessageBytes = int64(4 * 1024 * 1024)
	RelayPingInterval    = 5 * time.Second

	BackendPublishTimeout = 500 * time.Millisecond
	BackendSendBufferSize = 64

	// QuietPeriod is the typing quiet period used by editors under test.
	QuietPeriod = 100 * time.Millisecond
)

func init() {
	if err := logging.SetLogLevel("warn"); err != nil {
		log.Fatal(err)
	}
}

// TestConfig returns config for creating Collabboard instance. The relay
// binds a free port and the profiling server is disabled.
func TestConfig() *server.Config {
	return &server.Config{
		Relay: &relay.Config{
			Port:            0,
			MaxMessageBytes: RelayMaxMessageBytes,
			PingInterval:    RelayPingInterval.String(),
		},
		Backend: &backend.Config{
			PublishTimeout: BackendPublishTimeout.String(),
			SendBufferSize: BackendSendBufferSize,
		},
	}
}

// TestServer returns a new instance of Collabboard for testing.
func TestServer() *server.Collabboard {
	c, err := server.New(TestConfig())
	if err != nil {
		log.Fatal(err)
	}
	return c
}

// WaitForServerToStart waits for the server to start.
func WaitForServerToStart(addr string) error {
	maxRetries := 10
	initialDelay := 10 * time.Millisecond
	maxDelay := time.Second

	for attempt := 0; attempt < maxRetries; attempt++ {
		delay := min(initialDelay*time.Duration(1<<uint(attempt)), maxDelay)

		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err != nil {
			time.Sleep(delay)
			continue
		}

		if err := conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}

		return nil
	}

	return fmt.Errorf("timeout for server to start: %s", addr)
}
