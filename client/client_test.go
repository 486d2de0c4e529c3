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

package client_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabboard/collabboard/api/types/events"
	"github.com/collabboard/collabboard/client"
	"github.com/collabboard/collabboard/server"
)

func startServer(t *testing.T) *server.Collabboard {
	conf := server.NewConfig()
	conf.Relay.Port = 0
	conf.Profiling = nil

	srv, err := server.New(conf)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		assert.NoError(t, srv.Shutdown(true))
	})

	return srv
}

func dial(t *testing.T, srv *server.Collabboard) *client.Client {
	cli, err := client.Dial(context.Background(), srv.RelayAddr())
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, cli.Close())
	})

	return cli
}

type recorder struct {
	mu       sync.Mutex
	payloads []string
}

func (r *recorder) handle(payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, string(payload))
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.payloads...)
}

func TestClient(t *testing.T) {
	srv := startServer(t)

	waitMembers := func(n int) {
		assert.Eventually(t, func() bool {
			return srv.Members() == n
		}, time.Second, 5*time.Millisecond)
	}

	t.Run("emit and subscribe test", func(t *testing.T) {
		c1 := dial(t, srv)
		c2 := dial(t, srv)
		waitMembers(2)

		rec := &recorder{}
		unsubscribe := c2.Subscribe(events.TextUpdate, rec.handle)

		assert.NoError(t, c1.Emit(events.SendText, "hello"))
		assert.Eventually(t, func() bool {
			return len(rec.get()) == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{`"hello"`}, rec.get())

		// after unsubscribing, the next event reaches only the new handler.
		unsubscribe()
		unsubscribe()
		other := &recorder{}
		c2.Subscribe(events.TextUpdate, other.handle)
		assert.NoError(t, c1.Emit(events.SendText, "world"))
		assert.Eventually(t, func() bool {
			return len(other.get()) == 1
		}, time.Second, 5*time.Millisecond)
		assert.Len(t, rec.get(), 1)

		assert.NoError(t, c1.Close())
		assert.NoError(t, c2.Close())
		waitMembers(0)
	})

	t.Run("emit without payload test", func(t *testing.T) {
		c1 := dial(t, srv)
		c2 := dial(t, srv)
		waitMembers(2)

		rec := &recorder{}
		c2.Subscribe(events.ShowTyping, rec.handle)
		assert.NoError(t, c1.Emit(events.Typing, nil))
		assert.Eventually(t, func() bool {
			return len(rec.get()) == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, "", rec.get()[0])

		assert.NoError(t, c1.Close())
		assert.NoError(t, c2.Close())
		waitMembers(0)
	})

	t.Run("pending events are flushed on close test", func(t *testing.T) {
		c1 := dial(t, srv)
		c2 := dial(t, srv)
		waitMembers(2)

		rec := &recorder{}
		c2.Subscribe(events.DrawLine, rec.handle)
		for i := 0; i < 10; i++ {
			assert.NoError(t, c1.Emit(events.DrawLine, events.Line{
				X0:    float64(i),
				X1:    float64(i + 1),
				Y1:    1,
				Color: "#000000",
				Width: 3,
			}))
		}
		assert.NoError(t, c1.Close())

		assert.Eventually(t, func() bool {
			return len(rec.get()) == 10
		}, time.Second, 5*time.Millisecond)
		assert.NoError(t, c2.Close())
		waitMembers(0)
	})

	t.Run("emit after close test", func(t *testing.T) {
		cli := dial(t, srv)
		assert.NoError(t, cli.Close())
		assert.NoError(t, cli.Close())
		assert.ErrorIs(t, cli.Emit(events.ClearBoard, nil), client.ErrClosed)
		assert.NoError(t, cli.Err())

		select {
		case <-cli.Done():
		default:
			assert.Fail(t, "done is not closed")
		}
		waitMembers(0)
	})

	t.Run("relay shutdown ends the channel test", func(t *testing.T) {
		other := startServer(t)
		cli := dial(t, other)
		assert.Eventually(t, func() bool {
			return other.Members() == 1
		}, time.Second, 5*time.Millisecond)

		assert.NoError(t, other.Shutdown(true))
		select {
		case <-cli.Done():
		case <-time.After(time.Second):
			assert.Fail(t, "channel did not end")
		}
		assert.Error(t, cli.Err())
		assert.ErrorIs(t, cli.Emit(events.Typing, nil), client.ErrClosed)
	})

	t.Run("dial failure test", func(t *testing.T) {
		_, err := client.Dial(context.Background(), "localhost:1", client.WithDialTimeout(100*time.Millisecond))
		assert.Error(t, err)
	})
}
