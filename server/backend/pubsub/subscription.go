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

package pubsub

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/collabboard/collabboard/api/types/events"
	"github.com/collabboard/collabboard/pkg/errors"
)

var (
	// ErrSubscriptionClosed is returned when publishing to a subscription
	// whose channel has already left the session.
	ErrSubscriptionClosed = errors.FailedPrecond("subscription closed").WithCode("ErrSubscriptionClosed")

	// ErrSlowSubscriber is returned when a subscription's buffer stays full
	// for longer than the publish timeout.
	ErrSlowSubscriber = errors.ResourceExhausted("subscriber too slow").WithCode("ErrSlowSubscriber")
)

// Subscription represents one relay channel's membership in the session.
// Events published to it are delivered in publish order through Events.
type Subscription struct {
	id     string
	mu     sync.Mutex
	closed bool
	err    error
	events chan events.Event
}

// NewSubscription creates a new instance of Subscription with the given
// buffer size.
func NewSubscription(bufSize int) *Subscription {
	return &Subscription{
		id:     xid.New().String(),
		events: make(chan events.Event, bufSize),
	}
}

// ID returns the id of this subscription.
func (s *Subscription) ID() string {
	return s.id
}

// Events returns the event channel of this subscription. It is closed when
// the subscription is closed.
func (s *Subscription) Events() <-chan events.Event {
	return s.events
}

// Err returns the reason this subscription was closed, or nil if it is open
// or was closed normally.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Close closes the subscription normally.
func (s *Subscription) Close() {
	s.CloseWithError(nil)
}

// CloseWithError closes the subscription and records why. Only the first
// close takes effect.
func (s *Subscription) CloseWithError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	s.err = err
	close(s.events)
}

// Publish delivers the given event to the subscriber. It waits at most
// timeout for room in the buffer.
func (s *Subscription) Publish(event events.Event, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSubscriptionClosed
	}

	select {
	case s.events <- event:
		return nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s.events <- event:
		return nil
	case <-timer.C:
		return fmt.Errorf("publish %s to %s: %w", event.Type, s.id, ErrSlowSubscriber)
	}
}

// String returns a string representation of this subscription.
func (s *Subscription) String() string {
	return fmt.Sprintf("Subscription(%s)", s.id)
}
