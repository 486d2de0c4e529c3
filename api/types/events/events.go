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

// Package events defines the events carried over a relay channel and the
// wire envelope that frames them.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/collabboard/collabboard/pkg/errors"
)

var (
	// ErrInvalidEnvelope is returned when a frame is not a valid envelope.
	ErrInvalidEnvelope = errors.InvalidArgument("invalid envelope").WithCode("ErrInvalidEnvelope")

	// ErrUnknownEvent is returned when the relay does not recognize an event.
	ErrUnknownEvent = errors.InvalidArgument("unknown event").WithCode("ErrUnknownEvent")
)

// Type represents the name of an event.
type Type string

const (
	// DrawLine is an event carrying one freehand segment.
	DrawLine Type = "draw-line"

	// ClearBoard is an event that wipes the surface and the histories.
	ClearBoard Type = "clear-board"

	// RestoreCanvas is an event that replaces the whole surface with a
	// snapshot. It is emitted by undo, redo and image upload.
	RestoreCanvas Type = "restore-canvas"

	// Typing is emitted by a participant on every keystroke.
	Typing Type = "typing"

	// SendText is emitted by a participant with its full text buffer.
	SendText Type = "send-text"

	// ShowTyping is how the relay delivers Typing to the other participants.
	ShowTyping Type = "show-typing"

	// TextUpdate is how the relay delivers SendText to the other participants.
	TextUpdate Type = "text-update"
)

// relayed maps the events the relay accepts to the names it delivers them
// under.
var relayed = map[Type]Type{
	DrawLine:      DrawLine,
	ClearBoard:    ClearBoard,
	RestoreCanvas: RestoreCanvas,
	Typing:        ShowTyping,
	SendText:      TextUpdate,
}

// Inbound returns the event types a participant may emit.
func Inbound() []Type {
	return []Type{DrawLine, ClearBoard, RestoreCanvas, Typing, SendText}
}

// Outbound returns the name under which the relay delivers the given event
// to the other participants, and false if the relay does not recognize it.
func Outbound(t Type) (Type, bool) {
	out, ok := relayed[t]
	return out, ok
}

// Envelope is a single frame on a relay channel.
type Envelope struct {
	Event Type            `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope creates an envelope for the given event. A nil payload is
// encoded as an envelope without data.
func NewEnvelope(t Type, payload any) (Envelope, error) {
	env := Envelope{Event: t}
	if payload == nil {
		return env, nil
	}

	if raw, ok := payload.(json.RawMessage); ok {
		env.Data = raw
		return env, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	env.Data = data
	return env, nil
}

// ParseEnvelope decodes a frame. The payload is kept raw; it is never
// inspected here.
func ParseEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("%s: %w", err.Error(), ErrInvalidEnvelope)
	}

	if env.Event == "" {
		return Envelope{}, fmt.Errorf("missing event name: %w", ErrInvalidEnvelope)
	}

	return env, nil
}

// Marshal encodes this envelope into a frame.
func (e Envelope) Marshal() ([]byte, error) {
	frame, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	return frame, nil
}

// Event is an envelope in flight through the relay, tagged with the
// subscription that published it.
type Event struct {
	// Type is the outbound name of the event.
	Type Type

	// Publisher is the id of the subscription that published the event.
	Publisher string

	// Data is the raw payload, forwarded verbatim.
	Data json.RawMessage
}

// Envelope returns the frame that delivers this event.
func (e Event) Envelope() Envelope {
	return Envelope{Event: e.Type, Data: e.Data}
}

// PayloadLen returns the size of the payload.
func (e Event) PayloadLen() int {
	return len(e.Data)
}
