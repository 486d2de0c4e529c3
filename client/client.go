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

// Package client provides the participant side of a relay channel. A Client
// emits named events to the relay and dispatches the events the relay
// delivers to the handlers subscribed to them.
package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/collabboard/collabboard/api/types/events"
	"github.com/collabboard/collabboard/pkg/errors"
	"github.com/collabboard/collabboard/server/logging"
)

// ErrClosed is returned when emitting on a client whose channel is closed.
var ErrClosed = errors.Unavailable("client closed").WithCode("ErrClosed")

type subscription struct {
	id      uint64
	handler func(payload []byte)
}

// Client is a participant's connection to the relay.
type Client struct {
	conn    *websocket.Conn
	options Options
	logger  logging.Logger

	send    chan []byte
	closing chan struct{}
	done    chan struct{}

	mu       sync.RWMutex
	handlers map[events.Type][]subscription
	nextID   uint64
	err      error

	closeOnce sync.Once
	writer    sync.WaitGroup
}

// Dial opens a relay channel. addr is either a host:port, in which case the
// default channel path is used, or a full ws:// or wss:// URL.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	options := newOptions(opts)

	dialer := websocket.Dialer{
		HandshakeTimeout: options.DialTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, channelURL(addr), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c := &Client{
		conn:     conn,
		options:  options,
		logger:   options.Logger,
		send:     make(chan []byte, options.SendBufferSize),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
		handlers: make(map[events.Type][]subscription),
	}

	c.writer.Add(1)
	go c.writeLoop()
	go c.readLoop()

	return c, nil
}

func channelURL(addr string) string {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	return "ws://" + addr + "/ws"
}

// Emit sends the event with the given payload to the relay. A nil payload
// sends the event without data.
func (c *Client) Emit(event events.Type, payload any) error {
	envelope, err := events.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	frame, err := envelope.Marshal()
	if err != nil {
		return err
	}

	select {
	case <-c.closing:
		return ErrClosed
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.closing:
		return ErrClosed
	case <-c.done:
		return ErrClosed
	}
}

// Subscribe registers the handler for the given event. Handlers run on the
// client's read goroutine in delivery order. The returned function removes
// the handler; calling it more than once is harmless.
func (c *Client) Subscribe(event events.Type, handler func(payload []byte)) (unsubscribe func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.handlers[event] = append(c.handlers[event], subscription{id: id, handler: handler})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		subs := c.handlers[event]
		for i, sub := range subs {
			if sub.id == id {
				c.handlers[event] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(c.handlers[event]) == 0 {
			delete(c.handlers, event)
		}
	}
}

// Done returns a channel that is closed once the relay channel has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the reason the relay channel ended, or nil while it is open
// or after a normal close.
func (c *Client) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.err
}

// Close flushes the pending events, performs the closing handshake and
// releases the connection.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closing)
		c.writer.Wait()

		select {
		case <-c.done:
		case <-time.After(c.options.CloseTimeout):
			c.logger.Debugf("close handshake timed out")
		}
		_ = c.conn.Close()
		<-c.done
	})

	return nil
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !c.isClosing() {
				c.mu.Lock()
				c.err = err
				c.mu.Unlock()
				c.logger.Infof("relay channel ended: %v", err)
			}
			return
		}

		envelope, err := events.ParseEnvelope(frame)
		if err != nil {
			c.logger.Debugf("drop frame: %v", err)
			continue
		}

		c.dispatch(envelope)
	}
}

func (c *Client) dispatch(envelope events.Envelope) {
	c.mu.RLock()
	subs := c.handlers[envelope.Event]
	c.mu.RUnlock()

	if len(subs) == 0 {
		if logging.Enabled(zap.DebugLevel) {
			c.logger.Debugf("no handler for %s", envelope.Event)
		}
		return
	}

	for _, sub := range subs {
		sub.handler(envelope.Data)
	}
}

func (c *Client) writeLoop() {
	defer c.writer.Done()

	for {
		select {
		case frame := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Warnf("write: %v", err)
				_ = c.conn.Close()
				return
			}
		case <-c.closing:
			c.flush()
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.options.CloseTimeout)); err != nil {
				c.logger.Debugf("write close: %v", err)
			}
			return
		case <-c.done:
			return
		}
	}
}

// flush writes the frames emitted before Close.
func (c *Client) flush() {
	for {
		select {
		case frame := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Warnf("write: %v", err)
				return
			}
		default:
			return
		}
	}
}

func (c *Client) isClosing() bool {
	select {
	case <-c.closing:
		return true
	default:
		return false
	}
}
