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

package messagebroker_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/collabboard/collabboard/api/types/events"
	"github.com/collabboard/collabboard/server/backend/messagebroker"
)

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		validConf := messagebroker.RedisConfig{
			Addr:    "localhost:6379",
			Channel: "collabboard",
		}
		assert.NoError(t, validConf.Validate())

		conf1 := validConf
		conf1.Addr = ""
		assert.ErrorIs(t, conf1.Validate(), messagebroker.ErrEmptyAddress)

		conf2 := validConf
		conf2.Addr = "localhost"
		assert.Error(t, conf2.Validate())
		assert.Contains(t, conf2.Validate().Error(), conf2.Addr)

		conf3 := validConf
		conf3.Channel = ""
		assert.ErrorIs(t, conf3.Validate(), messagebroker.ErrEmptyChannel)

		conf4 := validConf
		conf4.DB = -1
		assert.ErrorIs(t, conf4.Validate(), messagebroker.ErrInvalidDB)
	})
}

func TestBroker(t *testing.T) {
	ctx := context.Background()
	event := events.Event{
		Type:      events.DrawLine,
		Publisher: "publisher",
		Data:      json.RawMessage(`{"x0":0,"y0":0,"x1":1,"y1":1,"color":"#000000","width":3}`),
	}

	t.Run("local broker delivers synchronously test", func(t *testing.T) {
		var delivered []events.Event
		broker := messagebroker.Ensure(nil, func(_ context.Context, e events.Event) {
			delivered = append(delivered, e)
		})
		assert.IsType(t, &messagebroker.LocalBroker{}, broker)
		assert.NoError(t, broker.Start(ctx))

		assert.NoError(t, broker.Publish(ctx, messagebroker.NewMessage("", event)))
		assert.Equal(t, []events.Event{event}, delivered)
		assert.NoError(t, broker.Close())
	})

	t.Run("invalid redis config falls back to local test", func(t *testing.T) {
		broker := messagebroker.Ensure(&messagebroker.RedisConfig{}, func(context.Context, events.Event) {})
		assert.IsType(t, &messagebroker.LocalBroker{}, broker)
	})

	t.Run("message keeps the event test", func(t *testing.T) {
		encoded, err := messagebroker.NewMessage("node", event).Marshal()
		assert.NoError(t, err)

		var msg messagebroker.Message
		assert.NoError(t, json.Unmarshal(encoded, &msg))
		assert.Equal(t, "node", msg.Node)
		assert.Equal(t, event.Type, msg.ToEvent().Type)
		assert.Equal(t, event.Publisher, msg.ToEvent().Publisher)
		assert.JSONEq(t, string(event.Data), string(msg.ToEvent().Data))
	})
}
