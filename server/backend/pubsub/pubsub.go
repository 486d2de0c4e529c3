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

// Package pubsub provides the membership set of the relay and the
// broadcast-to-others delivery over it.
package pubsub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/collabboard/collabboard/api/types/events"
	"github.com/collabboard/collabboard/pkg/cmap"
	"github.com/collabboard/collabboard/pkg/errors"
	"github.com/collabboard/collabboard/server/logging"
)

// ErrPubSubClosed is returned when subscribing to a PubSub that has been
// closed for shutdown.
var ErrPubSubClosed = errors.Unavailable("pubsub closed").WithCode("ErrPubSubClosed")

// Session is the set of currently-connected channels. It has no identity
// beyond its membership: it begins with the first subscription and ends
// when the last one leaves.
type Session struct {
	startedAt time.Time
	subs      *cmap.Map[string, *Subscription]
}

func newSession() *Session {
	return &Session{
		startedAt: time.Now(),
		subs:      cmap.New[string, *Subscription](),
	}
}

// StartedAt returns the time the first channel of this session connected.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Len returns the number of channels in this session.
func (s *Session) Len() int {
	return s.subs.Len()
}

// Drop describes a subscription that was removed from the session because
// delivering to it failed.
type Drop struct {
	Subscription *Subscription
	Err          error
}

// PubSub is the memory implementation of the relay membership, used for a
// single server process. Cross-process fan-out is layered on top of it by
// the message broker.
type PubSub struct {
	mu      sync.Mutex
	session *Session
	closed  bool

	bufSize        int
	publishTimeout time.Duration
}

// New creates an instance of PubSub. bufSize is the outbound buffer of each
// subscription and publishTimeout how long a full buffer is waited on
// before its channel is dropped.
func New(bufSize int, publishTimeout time.Duration) *PubSub {
	return &PubSub{
		bufSize:        bufSize,
		publishTimeout: publishTimeout,
	}
}

// Subscribe registers a new channel as a session member.
func (m *PubSub) Subscribe(ctx context.Context) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrPubSubClosed
	}

	if m.session == nil {
		m.session = newSession()
		logging.From(ctx).Info("session started")
	}

	sub := NewSubscription(m.bufSize)
	m.session.subs.Set(sub.ID(), sub)

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Subscribe(%s) members: %d`, sub.ID(), m.session.Len())
	}

	return sub, nil
}

// Unsubscribe removes the given channel from the session and closes its
// subscription. It is safe to call more than once.
func (m *PubSub) Unsubscribe(ctx context.Context, sub *Subscription) {
	m.remove(ctx, sub, nil)
}

func (m *PubSub) remove(ctx context.Context, sub *Subscription, cause error) {
	sub.CloseWithError(cause)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return
	}

	m.session.subs.Delete(sub.ID(), func(_ *Subscription, exists bool) bool {
		return exists
	})

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Unsubscribe(%s) members: %d`, sub.ID(), m.session.Len())
	}

	if m.session.Len() == 0 {
		logging.From(ctx).Infof(
			"session ended after %s",
			time.Since(m.session.startedAt).Round(time.Millisecond),
		)
		m.session = nil
	}
}

// Publish delivers the given event to every member except its publisher.
// Members that cannot take the event are removed from the session and
// returned; there is no retry.
func (m *PubSub) Publish(ctx context.Context, event events.Event) (int, []Drop) {
	m.mu.Lock()
	session := m.session
	m.mu.Unlock()

	if session == nil {
		return 0, nil
	}

	delivered := 0
	var drops []Drop
	for _, sub := range session.subs.Values() {
		if sub.ID() == event.Publisher {
			continue
		}

		if err := sub.Publish(event, m.publishTimeout); err != nil {
			drops = append(drops, Drop{Subscription: sub, Err: err})
			continue
		}
		delivered++
	}

	for _, drop := range drops {
		logging.From(ctx).Warnf("drop %s: %v", drop.Subscription, drop.Err)
		m.remove(ctx, drop.Subscription, drop.Err)
	}

	return delivered, drops
}

// Members returns the ids of the channels in the session.
func (m *PubSub) Members() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil
	}

	return m.session.subs.Keys()
}

// Len returns the number of channels in the session.
func (m *PubSub) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return 0
	}

	return m.session.Len()
}

// Active returns whether a session is in progress.
func (m *PubSub) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.session != nil
}

// Close closes every subscription with the given reason and refuses new
// ones.
func (m *PubSub) Close(ctx context.Context, cause error) {
	m.mu.Lock()
	m.closed = true
	session := m.session
	m.mu.Unlock()

	if session == nil {
		return
	}

	for _, sub := range session.subs.Values() {
		m.remove(ctx, sub, cause)
	}
}

// String returns a string representation of this PubSub.
func (m *PubSub) String() string {
	return fmt.Sprintf("PubSub(members=%d)", m.Len())
}
