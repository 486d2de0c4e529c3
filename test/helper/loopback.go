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

package helper

import (
	"sync"

	"github.com/collabboard/collabboard/api/types/events"
)

// Loopback is an in-memory relay. Every event a peer emits is delivered,
// under the name the real relay delivers it with, to every other peer before
// Emit returns. It lets synchronization clients be tested without sockets;
// peers must be driven from one goroutine at a time.
type Loopback struct {
	mu    sync.Mutex
	peers []*Peer
}

// NewLoopback creates a new instance of Loopback.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Join adds a new peer.
func (l *Loopback) Join() *Peer {
	l.mu.Lock()
	defer l.mu.Unlock()

	peer := &Peer{
		loopback: l,
		handlers: make(map[events.Type][]peerHandler),
	}
	l.peers = append(l.peers, peer)
	return peer
}

func (l *Loopback) others(p *Peer) []*Peer {
	l.mu.Lock()
	defer l.mu.Unlock()

	var others []*Peer
	for _, peer := range l.peers {
		if peer != p {
			others = append(others, peer)
		}
	}
	return others
}

func (l *Loopback) leave(p *Peer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, peer := range l.peers {
		if peer == p {
			l.peers = append(l.peers[:i], l.peers[i+1:]...)
			return
		}
	}
}

type peerHandler struct {
	id      int
	handler func(payload []byte)
}

// Peer is one participant of a Loopback. It records what it emitted.
type Peer struct {
	loopback *Loopback

	mu       sync.Mutex
	handlers map[events.Type][]peerHandler
	nextID   int
	sent     []events.Envelope
}

// Emit delivers the event to every other peer.
func (p *Peer) Emit(event events.Type, payload any) error {
	envelope, err := events.NewEnvelope(event, payload)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.sent = append(p.sent, envelope)
	p.mu.Unlock()

	outbound, ok := events.Outbound(event)
	if !ok {
		return events.ErrUnknownEvent
	}

	for _, other := range p.loopback.others(p) {
		other.deliver(outbound, envelope.Data)
	}
	return nil
}

// Subscribe registers the handler for the given event.
func (p *Peer) Subscribe(event events.Type, handler func(payload []byte)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := p.nextID
	p.handlers[event] = append(p.handlers[event], peerHandler{id: id, handler: handler})

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		handlers := p.handlers[event]
		for i, h := range handlers {
			if h.id == id {
				p.handlers[event] = append(handlers[:i:i], handlers[i+1:]...)
				return
			}
		}
	}
}

// Deliver hands the event to this peer's handlers as if the relay had
// delivered it.
func (p *Peer) Deliver(event events.Type, payload []byte) {
	p.deliver(event, payload)
}

func (p *Peer) deliver(event events.Type, payload []byte) {
	p.mu.Lock()
	handlers := p.handlers[event]
	p.mu.Unlock()

	for _, h := range handlers {
		h.handler(payload)
	}
}

// Sent returns the envelopes this peer emitted, in order.
func (p *Peer) Sent() []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]events.Envelope(nil), p.sent...)
}

// SentEvents returns the names of the events this peer emitted, in order.
func (p *Peer) SentEvents() []events.Type {
	var types []events.Type
	for _, envelope := range p.Sent() {
		types = append(types, envelope.Event)
	}
	return types
}

// Handlers returns the number of handlers registered for the event.
func (p *Peer) Handlers(event events.Type) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.handlers[event])
}

// Leave removes this peer from the loopback.
func (p *Peer) Leave() {
	p.loopback.leave(p)
}
