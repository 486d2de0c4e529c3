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

package relay

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	// ErrInvalidRelayPort occurs when the port in the config is invalid.
	ErrInvalidRelayPort = errors.New("invalid port number for relay server")
	// ErrInvalidMaxMessageBytes occurs when the max message size is not positive.
	ErrInvalidMaxMessageBytes = errors.New("invalid max message bytes for relay server")
	// ErrInvalidPingInterval occurs when the ping interval is invalid.
	ErrInvalidPingInterval = errors.New("invalid ping interval for relay server")
)

// Config is the configuration for creating a Server instance.
type Config struct {
	// Port is the port number for the relay server. 0 picks a free port.
	Port int `yaml:"Port"`

	// MaxMessageBytes is the maximum frame size in bytes the relay will
	// accept from a participant. Snapshots travel as frames, so this bounds
	// the surface size as well.
	MaxMessageBytes int64 `yaml:"MaxMessageBytes"`

	// AllowedOrigins are the origins allowed to open a channel. Every origin
	// is allowed when empty.
	AllowedOrigins []string `yaml:"AllowedOrigins"`

	// PingInterval is how often an idle channel is pinged. A channel that
	// does not answer within two intervals is closed.
	PingInterval string `yaml:"PingInterval"`
}

// Validate validates the port number and the limits.
func (c *Config) Validate() error {
	if c.Port < 0 || 65535 < c.Port {
		return fmt.Errorf("must be between 0 and 65535, given %d: %w", c.Port, ErrInvalidRelayPort)
	}

	if c.MaxMessageBytes < 1 {
		return fmt.Errorf("must be positive, given %d: %w", c.MaxMessageBytes, ErrInvalidMaxMessageBytes)
	}

	interval, err := time.ParseDuration(c.PingInterval)
	if err != nil {
		return fmt.Errorf("%s: %w", c.PingInterval, ErrInvalidPingInterval)
	}
	if interval <= 0 {
		return fmt.Errorf("must be positive, given %s: %w", c.PingInterval, ErrInvalidPingInterval)
	}

	return nil
}

// ParsePingInterval returns the ping interval.
func (c *Config) ParsePingInterval() time.Duration {
	result, err := time.ParseDuration(c.PingInterval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse ping interval: %v\n", err)
		os.Exit(1)
	}

	return result
}

// allowOrigin reports whether a channel may be opened from the given origin.
func (c *Config) allowOrigin(origin string) bool {
	if len(c.AllowedOrigins) == 0 || origin == "" {
		return true
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
