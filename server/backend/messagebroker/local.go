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
)

// LocalBroker delivers every message to the membership of this process as
// soon as it is published. It is used when no cross-node broker is
// configured.
type LocalBroker struct {
	deliver DeliverFunc
}

// NewLocalBroker creates a new instance of LocalBroker.
func NewLocalBroker(deliver DeliverFunc) *LocalBroker {
	return &LocalBroker{deliver: deliver}
}

// Start does nothing.
func (b *LocalBroker) Start(_ context.Context) error {
	return nil
}

// Publish delivers the message before returning.
func (b *LocalBroker) Publish(ctx context.Context, msg Message) error {
	b.deliver(ctx, msg.ToEvent())
	return nil
}

// Close does nothing.
func (b *LocalBroker) Close() error {
	return nil
}
