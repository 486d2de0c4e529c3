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

package events

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/collabboard/collabboard/internal/validation"
	"github.com/collabboard/collabboard/pkg/errors"
)

// ErrInvalidPayload is returned when a payload does not have the shape its
// event requires.
var ErrInvalidPayload = errors.InvalidArgument("invalid payload").WithCode("ErrInvalidPayload")

// Line is the payload of DrawLine: one segment of a freehand stroke.
type Line struct {
	X0    float64 `json:"x0" validate:"finite"`
	Y0    float64 `json:"y0" validate:"finite"`
	X1    float64 `json:"x1" validate:"finite"`
	Y1    float64 `json:"y1" validate:"finite"`
	Color string  `json:"color" validate:"required,rgbhex"`
	Width float64 `json:"width" validate:"finite,gt=0,lte=100"`
}

// Validate validates the given line.
func (l Line) Validate() error {
	if err := validation.ValidateStruct(l); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrInvalidPayload)
	}

	return nil
}

// DecodeLine decodes and validates a DrawLine payload.
func DecodeLine(data []byte) (Line, error) {
	var line Line
	if err := json.Unmarshal(data, &line); err != nil {
		return Line{}, fmt.Errorf("decode line: %s: %w", err.Error(), ErrInvalidPayload)
	}

	if err := line.Validate(); err != nil {
		return Line{}, err
	}

	return line, nil
}

// DecodeString decodes a payload that carries a single JSON string, as
// TextUpdate and RestoreCanvas do.
func DecodeString(data []byte) (string, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return "", fmt.Errorf("decode string: null: %w", ErrInvalidPayload)
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("decode string: %s: %w", err.Error(), ErrInvalidPayload)
	}

	return s, nil
}
