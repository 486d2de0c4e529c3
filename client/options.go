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

package client

import (
	"time"

	"github.com/collabboard/collabboard/server/logging"
)

// Below are the default values of the client options.
const (
	DefaultSendBufferSize = 64
	DefaultDialTimeout    = 5 * time.Second
	DefaultCloseTimeout   = time.Second
)

// Option configures Options.
type Option func(*Options)

// Options configures how we set up the client.
type Options struct {
	// SendBufferSize is the number of frames buffered before Emit blocks.
	SendBufferSize int

	// DialTimeout bounds the opening handshake.
	DialTimeout time.Duration

	// CloseTimeout bounds how long Close waits for the relay to acknowledge
	// the closing handshake.
	CloseTimeout time.Duration

	// Logger is the Logger of the client.
	Logger logging.Logger
}

// WithSendBufferSize configures the send buffer size of the client.
func WithSendBufferSize(size int) Option {
	return func(o *Options) { o.SendBufferSize = size }
}

// WithDialTimeout configures the handshake timeout of the client.
func WithDialTimeout(timeout time.Duration) Option {
	return func(o *Options) { o.DialTimeout = timeout }
}

// WithCloseTimeout configures the closing handshake timeout of the client.
func WithCloseTimeout(timeout time.Duration) Option {
	return func(o *Options) { o.CloseTimeout = timeout }
}

// WithLogger configures the Logger of the client.
func WithLogger(logger logging.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func newOptions(opts []Option) Options {
	options := Options{
		SendBufferSize: DefaultSendBufferSize,
		DialTimeout:    DefaultDialTimeout,
		CloseTimeout:   DefaultCloseTimeout,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.SendBufferSize < 1 {
		options.SendBufferSize = DefaultSendBufferSize
	}
	if options.Logger == nil {
		options.Logger = logging.DefaultLogger()
	}

	return options
}
