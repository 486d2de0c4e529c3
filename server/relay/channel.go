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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/collabboard/collabboard/api/types/events"
	cerrors "github.com/collabboard/collabboard/pkg/errors"
	"github.com/collabboard/collabboard/server/backend"
	"github.com/collabboard/collabboard/server/backend/pubsub"
	"github.com/collabboard/collabboard/server/logging"
)

const writeWait = 10 * time.Second

var (
	// ErrFrameTooLarge is returned when a participant sends a frame larger
	// than the configured maximum.
	ErrFrameTooLarge = cerrors.ResourceExhausted("frame exceeds max message bytes").WithCode("ErrFrameTooLarge")
)

// Below are the reasons an inbound frame is not relayed.
const (
	rejectBinary          = "binary_frame"
	rejectInvalidEnvelope = "invalid_envelope"
	rejectUnknownEvent    = "unknown_event"
	rejectBroker          = "broker"
)

// channel is the server side of one participant's connection.
type channel struct {
	conf   *Config
	be     *backend.Backend
	conn   *websocket.Conn
	logger logging.Logger

	sub *pubsub.Subscription
}

func newChannel(conf *Config, be *backend.Backend, conn *websocket.Conn) *channel {
	return &channel{
		conf: conf,
		be:   be,
		conn: conn,
	}
}

// run joins the session and relays events until the participant leaves, the
// channel is dropped or the relay shuts down.
func (c *channel) run(relayCtx context.Context) {
	defer func() {
		_ = c.conn.Close()
	}()

	startedAt := time.Now()
	sub, err := c.be.Join(relayCtx)
	if err != nil {
		c.writeClose(err)
		logging.DefaultLogger().Warnf("join: %v", err)
		return
	}
	c.sub = sub
	c.logger = logging.New("CHAN", logging.NewField("channel", sub.ID()))
	ctx, cancel := context.WithCancel(logging.With(relayCtx, c.logger))
	defer cancel()

	c.logger.Infof("CHAN: %s connected from %s", sub.ID(), c.conn.RemoteAddr())

	pongWait := 2 * c.conf.ParsePingInterval()
	c.conn.SetReadLimit(c.conf.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	readErr := make(chan error, 1)
	go func() {
		readErr <- c.readLoop(ctx, pongWait)
		cancel()
	}()

	cause := c.writeLoop(relayCtx, ctx)
	if cause != nil {
		c.writeClose(cause)
	}
	_ = c.conn.Close()

	if err := <-readErr; cause == nil {
		cause = err
	}

	c.be.Leave(ctx, sub)
	logging.LogChannelClose(c.logger, sub.ID(), time.Since(startedAt), cause)
}

// readLoop relays every frame the participant sends. Frames that cannot be
// relayed are dropped; only a failing connection ends the loop.
func (c *channel) readLoop(ctx context.Context, pongWait time.Duration) error {
	for {
		messageType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				return fmt.Errorf("read: %w", ErrFrameTooLarge)
			}
			return err
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if messageType != websocket.TextMessage {
			c.reject(rejectBinary, "binary frame of %d bytes", len(frame))
			continue
		}

		envelope, err := events.ParseEnvelope(frame)
		if err != nil {
			c.reject(rejectInvalidEnvelope, "%v", err)
			continue
		}

		outbound, ok := events.Outbound(envelope.Event)
		if !ok {
			c.reject(rejectUnknownEvent, "%s: %v", envelope.Event, events.ErrUnknownEvent)
			continue
		}

		event := events.Event{
			Type:      outbound,
			Publisher: c.sub.ID(),
			Data:      envelope.Data,
		}
		if err := c.be.Broadcast(ctx, event); err != nil {
			c.be.Metrics.AddRejectedFrame(rejectBroker)
			c.logger.Warnf("broadcast %s: %v", event.Type, err)
		}
	}
}

// writeLoop is the only writer of data frames. It returns the reason the
// channel must be closed from the server side, or nil when the reader ended
// first.
func (c *channel) writeLoop(relayCtx, ctx context.Context) error {
	ticker := time.NewTicker(c.conf.ParsePingInterval())
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-c.sub.Events():
			if !ok {
				if err := c.sub.Err(); err != nil {
					return err
				}
				return pubsub.ErrSubscriptionClosed
			}

			frame, err := event.Envelope().Marshal()
			if err != nil {
				return cerrors.Internal(err.Error())
			}

			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return fmt.Errorf("write %s: %w", event.Type, err)
			}

			if logging.Enabled(zap.DebugLevel) {
				c.logger.Debugf("CHAN: %s <= %s (%d bytes)", c.sub.ID(), event.Type, event.PayloadLen())
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(
				websocket.PingMessage,
				nil,
				time.Now().Add(writeWait),
			); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		case <-ctx.Done():
			if relayCtx.Err() != nil {
				return backend.ErrServerShutdown
			}
			return nil
		}
	}
}

func (c *channel) reject(reason string, format string, args ...interface{}) {
	c.be.Metrics.AddRejectedFrame(reason)
	if logging.Enabled(zap.DebugLevel) {
		c.logger.Debugf("CHAN: %s drop frame (%s): %s", c.sub.ID(), reason, fmt.Sprintf(format, args...))
	}
}

// writeClose sends a close frame carrying the status of the given error.
// The peer may already be gone, so failures are ignored.
func (c *channel) writeClose(err error) {
	code := cerrors.StatusOf(err).CloseCode()
	msg := websocket.FormatCloseMessage(code, closeText(err))
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// closeText trims the reason to what fits into a close frame.
func closeText(err error) string {
	const maxReason = 123
	if code := cerrors.CodeOf(err); code != "" {
		return code
	}

	text := err.Error()
	if len(text) > maxReason {
		text = text[:maxReason]
	}
	return text
}
