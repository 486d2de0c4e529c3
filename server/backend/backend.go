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

// Package backend provides the backend of the Collabboard relay. It owns the
// session membership, the message broker that feeds it, and the metrics
// recorded along the way.
package backend

import (
	"context"
	"errors"

	"github.com/collabboard/collabboard/api/types/events"
	cerrors "github.com/collabboard/collabboard/pkg/errors"
	"github.com/collabboard/collabboard/server/backend/messagebroker"
	"github.com/collabboard/collabboard/server/backend/pubsub"
	"github.com/collabboard/collabboard/server/logging"
	"github.com/collabboard/collabboard/server/profiling/prometheus"
)

// ErrServerShutdown is the reason channels are closed with when the server
// shuts down.
var ErrServerShutdown = cerrors.Unavailable("server is shutting down").WithCode(logging.CodeServerShutdown)

// Backend manages Collabboard's backend such as the session membership and
// the message broker.
type Backend struct {
	Config *Config

	// PubSub is the membership of the session on this process.
	PubSub *pubsub.PubSub

	// Metrics is used to expose metrics.
	Metrics *prometheus.Metrics
	// MsgBroker carries relayed events to every process sharing the session.
	MsgBroker messagebroker.Broker
}

// New creates a new instance of Backend.
func New(
	conf *Config,
	redisConf *messagebroker.RedisConfig,
	metrics *prometheus.Metrics,
) (*Backend, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	be := &Backend{
		Config:  conf,
		PubSub:  pubsub.New(conf.SendBufferSize, conf.ParsePublishTimeout()),
		Metrics: metrics,
	}
	be.MsgBroker = messagebroker.Ensure(redisConf, be.deliver)

	brokerInfo := "local"
	if redisConf != nil {
		brokerInfo = redisConf.Addr
	}
	logging.DefaultLogger().Infof("backend created: broker: %s", brokerInfo)

	return be, nil
}

// Start starts the backend.
func (b *Backend) Start(ctx context.Context) error {
	if err := b.MsgBroker.Start(ctx); err != nil {
		return err
	}

	logging.DefaultLogger().Infof("backend started")
	return nil
}

// Shutdown closes all resources of this instance.
func (b *Backend) Shutdown() error {
	var errs []error

	b.PubSub.Close(context.Background(), ErrServerShutdown)

	if err := b.MsgBroker.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logging.DefaultLogger().Infof("backend stopped")
	return nil
}

// Join adds a new channel to the session.
func (b *Backend) Join(ctx context.Context) (*pubsub.Subscription, error) {
	sub, err := b.PubSub.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	b.Metrics.AddRelayConnections()
	b.Metrics.SetRelaySessionActive(true)
	return sub, nil
}

// Leave removes the channel from the session. It must be called once for
// every successful Join, even when the channel was already dropped.
func (b *Backend) Leave(ctx context.Context, sub *pubsub.Subscription) {
	b.PubSub.Unsubscribe(ctx, sub)

	b.Metrics.RemoveRelayConnections()
	b.Metrics.SetRelaySessionActive(b.PubSub.Active())
}

// Broadcast relays the event to every other member of the session,
// wherever they are connected.
func (b *Backend) Broadcast(ctx context.Context, event events.Event) error {
	return b.MsgBroker.Publish(ctx, messagebroker.NewMessage("", event))
}

// deliver hands a relayed event to the members on this process.
func (b *Backend) deliver(ctx context.Context, event events.Event) {
	_, drops := b.PubSub.Publish(ctx, event)
	b.Metrics.AddRelayEvent(event.Type, event.PayloadLen())

	for _, drop := range drops {
		b.Metrics.AddDroppedChannel(cerrors.StatusOf(drop.Err).String())
	}
	if len(drops) > 0 {
		b.Metrics.SetRelaySessionActive(b.PubSub.Active())
	}
}
