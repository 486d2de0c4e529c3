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

// Package messagebroker fans relay events out between server processes that
// share one session.
package messagebroker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/collabboard/collabboard/api/types/events"
	"github.com/collabboard/collabboard/server/logging"
)

// Message represents an event travelling through the message broker.
type Message struct {
	// Node is the id of the server process the event was received on. It is
	// empty for messages that never leave the process.
	Node      string          `json:"node,omitempty"`
	Publisher string          `json:"publisher"`
	Event     events.Type     `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a Message carrying the given event.
func NewMessage(node string, event events.Event) Message {
	return Message{
		Node:      node,
		Publisher: event.Publisher,
		Event:     event.Type,
		Data:      event.Data,
	}
}

// Marshal marshals the message to JSON.
func (m Message) Marshal() ([]byte, error) {
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	return encoded, nil
}

// ToEvent returns the relay event carried by this message.
func (m Message) ToEvent() events.Event {
	return events.Event{
		Type:      m.Event,
		Publisher: m.Publisher,
		Data:      m.Data,
	}
}

// DeliverFunc hands an event to the membership of this process.
type DeliverFunc func(ctx context.Context, event events.Event)

// Broker is an interface for the message broker.
type Broker interface {
	Start(ctx context.Context) error
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Ensure creates a message broker based on the given configuration.
// If the configuration is nil or invalid, it returns a LocalBroker that
// delivers within this process only.
func Ensure(redisConf *RedisConfig, deliver DeliverFunc) Broker {
	if redisConf == nil {
		return NewLocalBroker(deliver)
	}

	if err := redisConf.Validate(); err != nil {
		logging.DefaultLogger().Warnf("invalid redis configuration: %v", err)
		return NewLocalBroker(deliver)
	}

	logging.DefaultLogger().Infof(
		"connecting to redis: %s, channel: %s",
		redisConf.Addr,
		redisConf.Channel,
	)

	return newRedisBroker(redisConf, deliver)
}
