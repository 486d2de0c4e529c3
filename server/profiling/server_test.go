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

package profiling_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabboard/collabboard/api/types/events"
	"github.com/collabboard/collabboard/server/profiling"
	"github.com/collabboard/collabboard/server/profiling/prometheus"
)

func TestConfig(t *testing.T) {
	scenarios := []*struct {
		config   *profiling.Config
		expected error
	}{
		{config: &profiling.Config{Port: -1}, expected: profiling.ErrInvalidProfilingPort},
		{config: &profiling.Config{Port: 65536}, expected: profiling.ErrInvalidProfilingPort},
		{config: &profiling.Config{Port: 0}, expected: nil},
		{config: &profiling.Config{Port: 8081}, expected: nil},
	}
	for _, scenario := range scenarios {
		assert.ErrorIs(t, scenario.config.Validate(), scenario.expected, "provided config: %#v", scenario.config)
	}
}

func TestServer(t *testing.T) {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)

	t.Run("serve relay metrics test", func(t *testing.T) {
		metrics.AddRelayConnections()
		metrics.AddRelayEvent(events.TextUpdate, 7)
		metrics.AddRejectedFrame("unknown_event")

		srv := profiling.NewServer(&profiling.Config{}, metrics)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "collabboard_server_version")
		assert.Contains(t, string(body), "collabboard_relay_connections 1")
		assert.Contains(t, string(body), `collabboard_relay_events_total{event="text-update"} 1`)
		assert.Contains(t, string(body), `collabboard_relay_event_payload_bytes_total{event="text-update"} 7`)
		assert.Contains(t, string(body), `collabboard_relay_rejected_frames_total{reason="unknown_event"} 1`)
	})

	t.Run("pprof disabled by default test", func(t *testing.T) {
		srv := profiling.NewServer(&profiling.Config{}, metrics)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		srv = profiling.NewServer(&profiling.Config{EnablePprof: true}, metrics)
		rec = httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("start and shutdown test", func(t *testing.T) {
		srv := profiling.NewServer(&profiling.Config{Port: 0}, metrics)
		assert.Equal(t, "", srv.Addr())
		require.NoError(t, srv.Start())
		assert.NotEmpty(t, srv.Addr())

		resp, err := http.Get("http://" + srv.Addr() + "/metrics")
		require.NoError(t, err)
		assert.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		srv.Shutdown(true)
	})
}
