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

// Package text keeps a shared plain-text buffer in sync between the
// participants of a session.
//
// Every local edit retransmits the whole buffer and the last buffer applied
// wins: there is no merge, so concurrent edits may lose characters. Typing
// signals raise a peer-typing flag that clears itself after a quiet period.
package text

import (
	"fmt"
	"sync"
	"time"

	"github.com/collabboard/collabboard/api/types/events"
	"github.com/collabboard/collabboard/pkg/errors"
	"github.com/collabboard/collabboard/server/logging"
)

// DefaultQuietPeriod is how long the peer-typing flag stays raised after the
// last typing signal.
const DefaultQuietPeriod = 2 * time.Second

// ErrClosed is returned when editing through a closed Editor.
var ErrClosed = errors.FailedPrecond("editor closed").WithCode("ErrEditorClosed")

// Conn is the relay channel an Editor emits to and receives from.
type Conn interface {
	Emit(event events.Type, payload any) error
	Subscribe(event events.Type, handler func(payload []byte)) (unsubscribe func())
}

// Option configures an Editor.
type Option func(*options)

type options struct {
	quietPeriod    time.Duration
	logger         logging.Logger
	onChange       func(buffer string)
	onTypingChange func(typing bool)
}

// WithQuietPeriod configures how long the peer-typing flag stays raised.
func WithQuietPeriod(d time.Duration) Option {
	return func(o *options) { o.quietPeriod = d }
}

// WithLogger configures the Logger of the editor.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithOnChange registers an observer called with the buffer after every
// change, local or remote, in the order the changes were applied. Observers
// must not edit through the same Editor.
func WithOnChange(fn func(buffer string)) Option {
	return func(o *options) { o.onChange = fn }
}

// WithOnTypingChange registers an observer called whenever the peer-typing
// flag flips.
func WithOnTypingChange(fn func(typing bool)) Option {
	return func(o *options) { o.onTypingChange = fn }
}

// Editor is one participant's view of the shared text.
type Editor struct {
	conn    Conn
	options options

	// notifyMu orders observer calls the same way as the changes they
	// report. It is taken before mu and never while holding it.
	notifyMu sync.Mutex

	mu         sync.Mutex
	buffer     string
	peerTyping bool
	quietTimer *time.Timer
	typingSeq  uint64
	closed     bool

	unsubscribes []func()
}

// NewEditor creates an Editor over the given channel and subscribes to the
// text events delivered on it.
func NewEditor(conn Conn, opts ...Option) *Editor {
	o := options{
		quietPeriod: DefaultQuietPeriod,
		logger:      logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Editor{
		conn:    conn,
		options: o,
	}
	e.unsubscribes = []func(){
		conn.Subscribe(events.TextUpdate, e.handleTextUpdate),
		conn.Subscribe(events.ShowTyping, func([]byte) { e.OnRemoteTyping() }),
	}

	return e
}

// LocalEdit replaces the buffer with the participant's new value and sends
// it, followed by a typing signal, to the other participants.
func (e *Editor) LocalEdit(newValue string) error {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}

	e.buffer = newValue
	err := e.emit(newValue)
	e.mu.Unlock()

	e.notifyChange(newValue)
	return err
}

func (e *Editor) emit(value string) error {
	if err := e.conn.Emit(events.SendText, value); err != nil {
		return fmt.Errorf("emit %s: %w", events.SendText, err)
	}
	if err := e.conn.Emit(events.Typing, nil); err != nil {
		return fmt.Errorf("emit %s: %w", events.Typing, err)
	}

	return nil
}

// OnRemoteTextUpdate overwrites the buffer with a peer's value.
func (e *Editor) OnRemoteTextUpdate(newValue string) {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.buffer = newValue
	e.mu.Unlock()

	e.notifyChange(newValue)
}

func (e *Editor) handleTextUpdate(payload []byte) {
	value, err := events.DecodeString(payload)
	if err != nil {
		e.options.logger.Warnf("drop %s: %v", events.TextUpdate, err)
		return
	}

	e.OnRemoteTextUpdate(value)
}

// OnRemoteTyping raises the peer-typing flag and restarts the quiet period.
// Repeated signals extend the window rather than stack.
func (e *Editor) OnRemoteTyping() {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	wasTyping := e.peerTyping
	e.peerTyping = true
	e.typingSeq++
	seq := e.typingSeq
	if e.quietTimer != nil {
		e.quietTimer.Stop()
	}
	e.quietTimer = time.AfterFunc(e.options.quietPeriod, func() {
		e.quiet(seq)
	})
	e.mu.Unlock()

	if !wasTyping {
		e.notifyTyping(true)
	}
}

// quiet lowers the flag unless another signal arrived since seq.
func (e *Editor) quiet(seq uint64) {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	if e.closed || seq != e.typingSeq || !e.peerTyping {
		e.mu.Unlock()
		return
	}
	e.peerTyping = false
	e.mu.Unlock()

	e.notifyTyping(false)
}

// Buffer returns the current text.
func (e *Editor) Buffer() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.buffer
}

// PeerTyping returns whether a peer has typed within the quiet period.
func (e *Editor) PeerTyping() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.peerTyping
}

// Close unsubscribes from the channel and stops the quiet timer. The
// channel itself is left open.
func (e *Editor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.quietTimer != nil {
		e.quietTimer.Stop()
	}
	unsubscribes := e.unsubscribes
	e.unsubscribes = nil
	e.mu.Unlock()

	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}
}

func (e *Editor) notifyChange(buffer string) {
	if e.options.onChange != nil {
		e.options.onChange(buffer)
	}
}

func (e *Editor) notifyTyping(typing bool) {
	if e.options.onTypingChange != nil {
		e.options.onTypingChange(typing)
	}
}
