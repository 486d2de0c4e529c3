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

package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/collabboard/collabboard/server/backend"
	"github.com/collabboard/collabboard/server/backend/messagebroker"
	"github.com/collabboard/collabboard/server/profiling"
	"github.com/collabboard/collabboard/server/relay"
)

// Below are the values of the default values of Collabboard config.
const (
	DefaultRelayPort            = 8080
	DefaultRelayMaxMessageBytes = 8 * 1024 * 1024
	DefaultRelayPingInterval    = 30 * time.Second

	DefaultProfilingPort = 8081

	DefaultBackendPublishTimeout = time.Second
	DefaultBackendSendBufferSize = 256

	DefaultRedisChannel = messagebroker.DefaultRedisChannel
)

// Config is the configuration for creating a Collabboard instance.
type Config struct {
	Relay     *relay.Config              `yaml:"Relay"`
	Profiling *profiling.Config          `yaml:"Profiling"`
	Backend   *backend.Config            `yaml:"Backend"`
	Redis     *messagebroker.RedisConfig `yaml:"Redis"`
}

// NewConfig returns a Config struct that contains reasonable defaults
// for most of the configurations.
func NewConfig() *Config {
	return newConfig(DefaultRelayPort, DefaultProfilingPort)
}

// NewConfigFromFile returns a Config struct for the given conf file.
func NewConfigFromFile(path string) (*Config, error) {
	conf := &Config{}
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()
	return conf, nil
}

// RelayAddr returns the address participants connect to.
func (c *Config) RelayAddr() string {
	return fmt.Sprintf("localhost:%d", c.Relay.Port)
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := c.Relay.Validate(); err != nil {
		return err
	}

	if c.Profiling != nil {
		if err := c.Profiling.Validate(); err != nil {
			return err
		}
	}

	if err := c.Backend.Validate(); err != nil {
		return err
	}

	if c.Redis != nil {
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ensureDefaultValue sets the value of the option to which the default value
// should be applied when the user does not input it.
func (c *Config) ensureDefaultValue() {
	if c.Relay == nil {
		c.Relay = &relay.Config{}
	}
	if c.Relay.Port == 0 {
		c.Relay.Port = DefaultRelayPort
	}
	if c.Relay.MaxMessageBytes == 0 {
		c.Relay.MaxMessageBytes = DefaultRelayMaxMessageBytes
	}
	if c.Relay.PingInterval == "" {
		c.Relay.PingInterval = DefaultRelayPingInterval.String()
	}

	if c.Profiling != nil && c.Profiling.Port == 0 {
		c.Profiling.Port = DefaultProfilingPort
	}

	if c.Backend == nil {
		c.Backend = &backend.Config{}
	}
	if c.Backend.PublishTimeout == "" {
		c.Backend.PublishTimeout = DefaultBackendPublishTimeout.String()
	}
	if c.Backend.SendBufferSize == 0 {
		c.Backend.SendBufferSize = DefaultBackendSendBufferSize
	}

	if c.Redis != nil && c.Redis.Addr != "" {
		if c.Redis.Channel == "" {
			c.Redis.Channel = DefaultRedisChannel
		}
	}
}

func newConfig(port int, profilingPort int) *Config {
	return &Config{
		Relay: &relay.Config{
			Port:            port,
			MaxMessageBytes: DefaultRelayMaxMessageBytes,
			PingInterval:    DefaultRelayPingInterval.String(),
		},
		Profiling: &profiling.Config{
			Port: profilingPort,
		},
		Backend: &backend.Config{
			PublishTimeout: DefaultBackendPublishTimeout.String(),
			SendBufferSize: DefaultBackendSendBufferSize,
		},
	}
}
