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

package messagebroker

import (
	"errors"
	"fmt"
	"net"
)

var (
	// ErrEmptyAddress is returned when the address is empty.
	ErrEmptyAddress = errors.New("address cannot be empty")

	// ErrEmptyChannel is returned when the channel is empty.
	ErrEmptyChannel = errors.New("channel cannot be empty")

	// ErrInvalidDB is returned when the database index is negative.
	ErrInvalidDB = errors.New("db must be zero or positive")
)

// DefaultRedisChannel is the channel used when none is configured.
const DefaultRedisChannel = "collabboard"

// RedisConfig is the configuration for creating a Redis message broker.
type RedisConfig struct {
	Addr     string `yaml:"Addr"`
	Password string `yaml:"Password"`
	DB       int    `yaml:"DB"`
	Channel  string `yaml:"Channel"`
}

// Validate validates this config.
func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return ErrEmptyAddress
	}

	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf(`parse address "%s": %w`, c.Addr, err)
	}

	if c.Channel == "" {
		return ErrEmptyChannel
	}

	if c.DB < 0 {
		return fmt.Errorf(`%d: %w`, c.DB, ErrInvalidDB)
	}

	return nil
}
