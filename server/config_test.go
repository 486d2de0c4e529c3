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

package server_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabboard/collabboard/server"
	"github.com/collabboard/collabboard/server/relay"
)

func TestNewConfigFromFile(t *testing.T) {
	t.Run("fail read config file test", func(t *testing.T) {
		conf := server.NewConfig()
		assert.Equal(t, conf.RelayAddr(), "localhost:"+strconv.Itoa(server.DefaultRelayPort))
		_, err := server.NewConfigFromFile("nowhere.yml")
		assert.Error(t, err)
		assert.Equal(t, conf.Relay.Port, server.DefaultRelayPort)
		assert.Equal(t, conf.Profiling.Port, server.DefaultProfilingPort)
		assert.Nil(t, conf.Redis)
		assert.NoError(t, conf.Validate())
	})

	t.Run("read config file test", func(t *testing.T) {
		conf, err := server.NewConfigFromFile("config.sample.yml")
		assert.NoError(t, err)

		assert.Equal(t, conf.Relay.Port, server.DefaultRelayPort)
		assert.Equal(t, conf.Relay.MaxMessageBytes, int64(server.DefaultRelayMaxMessageBytes))
		assert.Empty(t, conf.Relay.AllowedOrigins)
		assert.False(t, conf.Profiling.EnablePprof)

		publishTimeout, err := time.ParseDuration(conf.Backend.PublishTimeout)
		assert.NoError(t, err)
		assert.Equal(t, publishTimeout, server.DefaultBackendPublishTimeout)
		assert.Equal(t, conf.Backend.SendBufferSize, server.DefaultBackendSendBufferSize)

		assert.Equal(t, "localhost:6379", conf.Redis.Addr)
		assert.Equal(t, server.DefaultRedisChannel, conf.Redis.Channel)
		assert.NoError(t, conf.Validate())
	})

	t.Run("default values of partial config file test", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "partial.yml")
		require.NoError(t, os.WriteFile(path, []byte("Relay:\n  Port: 9090\nRedis:\n  Addr: redis:6379\n"), 0o600))

		conf, err := server.NewConfigFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, conf.Relay.Port)
		assert.Equal(t, server.DefaultRelayPingInterval.String(), conf.Relay.PingInterval)
		assert.Nil(t, conf.Profiling)
		assert.Equal(t, server.DefaultBackendSendBufferSize, conf.Backend.SendBufferSize)
		assert.Equal(t, server.DefaultRedisChannel, conf.Redis.Channel)
		assert.NoError(t, conf.Validate())
	})

	t.Run("invalid config test", func(t *testing.T) {
		conf := server.NewConfig()
		conf.Relay.Port = -1
		assert.ErrorIs(t, conf.Validate(), relay.ErrInvalidRelayPort)
	})
}
