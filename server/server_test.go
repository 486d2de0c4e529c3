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
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabboard/collabboard/server"
	"github.com/collabboard/collabboard/server/backend/messagebroker"
)

func TestServer(t *testing.T) {
	t.Run("start and shutdown test", func(t *testing.T) {
		conf := server.NewConfig()
		conf.Relay.Port = 0
		conf.Profiling = nil

		srv, err := server.New(conf)
		require.NoError(t, err)
		require.NoError(t, srv.Start())
		assert.NotEqual(t, "localhost:0", srv.RelayAddr())

		resp, err := http.Get("http://" + srv.RelayAddr() + "/healthz")
		require.NoError(t, err)
		assert.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 0, srv.Members())

		assert.NoError(t, srv.Shutdown(true))
		<-srv.ShutdownCh()

		// shutting down twice is a no-op
		assert.NoError(t, srv.Shutdown(true))
	})

	t.Run("invalid config test", func(t *testing.T) {
		conf := server.NewConfig()
		conf.Redis = &messagebroker.RedisConfig{Addr: "no-port"}

		_, err := server.New(conf)
		assert.Error(t, err)
	})
}
