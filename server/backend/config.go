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

package backend

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	// ErrInvalidSendBufferSize occurs when the send buffer size is not positive.
	ErrInvalidSendBufferSize = errors.New("send buffer size must be positive")
)

// Config is the configuration for creating a Backend instance.
type Config struct {
	// PublishTimeout is how long delivery waits on a member whose outbound
	// buffer is full before the member is dropped. Default is "1s".
	PublishTimeout string `yaml:"PublishTimeout"`

	// SendBufferSize is the number of events buffered for each member.
	// Default is 256.
	SendBufferSize int `yaml:"SendBufferSize"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.PublishTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--backend-publish-timeout" flag: %w`,
			c.PublishTimeout,
			err,
		)
	}

	if c.SendBufferSize < 1 {
		return fmt.Errorf(
			`invalid argument "%d" for "--backend-send-buffer-size" flag: %w`,
			c.SendBufferSize,
			ErrInvalidSendBufferSize,
		)
	}

	return nil
}

// ParsePublishTimeout returns the publish timeout.
func (c *Config) ParsePublishTimeout() time.Duration {
	result, err := time.ParseDuration(c.PublishTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse publish timeout: %v\n", err)
		os.Exit(1)
	}

	return result
}
