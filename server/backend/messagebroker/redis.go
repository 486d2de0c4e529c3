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

package messagebroker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/collabboard/collabboard/server/logging"
)

// RedisBroker shares relay events between server processes over a Redis
// pub/sub channel. Every process, the publishing one included, receives the
// message from Redis and delivers it to its own membership.
type RedisBroker struct {
	node    string
	conf    *RedisConfig
	client  *redis.Client
	deliver DeliverFunc
	logger  logging.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	wg     sync.WaitGroup
}

func newRedisBroker(conf *RedisConfig, deliver DeliverFunc) *RedisBroker {
	node := uuid.New().String()
	return &RedisBroker{
		node: node,
		conf: conf,
		client: redis.NewClient(&redis.Options{
			Addr:     conf.Addr,
			Password: conf.Password,
			DB:       conf.DB,
		}),
		deliver: deliver,
		logger:  logging.New("BROK", logging.NewField("node", node)),
	}
}

// Node returns the id of this process on the broker.
func (b *RedisBroker) Node() string {
	return b.node
}

// Start subscribes to the configured channel and begins delivering the
// messages received on it.
func (b *RedisBroker) Start(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis %s: %w", b.conf.Addr, err)
	}

	sub := b.client.Subscribe(ctx, b.conf.Channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", b.conf.Channel, err)
	}

	b.mu.Lock()
	b.pubsub = sub
	b.mu.Unlock()

	b.wg.Add(1)
	go b.listen(sub.Channel())

	b.logger.Infof("subscribed to redis channel %s", b.conf.Channel)
	return nil
}

// listen delivers messages in the order Redis hands them out; this is what
// keeps the events of a single publisher ordered.
func (b *RedisBroker) listen(ch <-chan *redis.Message) {
	defer b.wg.Done()

	ctx := logging.With(context.Background(), b.logger)
	for raw := range ch {
		var msg Message
		if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
			b.logger.Warnf("drop malformed broker message: %v", err)
			continue
		}

		b.deliver(ctx, msg.ToEvent())
	}
}

// Publish sends the message to every process subscribed to the channel.
func (b *RedisBroker) Publish(ctx context.Context, msg Message) error {
	msg.Node = b.node
	encoded, err := msg.Marshal()
	if err != nil {
		return err
	}

	if err := b.client.Publish(ctx, b.conf.Channel, encoded).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.conf.Channel, err)
	}

	return nil
}

// Close unsubscribes and closes the Redis client.
func (b *RedisBroker) Close() error {
	b.mu.Lock()
	sub := b.pubsub
	b.pubsub = nil
	b.mu.Unlock()

	if sub != nil {
		if err := sub.Close(); err != nil {
			b.logger.Warnf("close redis subscription: %v", err)
		}
		b.wg.Wait()
	}

	if err := b.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}

	return nil
}
