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

package canvas

import (
	"fmt"

	"github.com/collabboard/collabboard/pkg/errors"
)

// ErrUnknownTool is returned when parsing a tool name that is not supported.
var ErrUnknownTool = errors.InvalidArgument("unknown tool").WithCode("ErrUnknownTool")

// Tool is what a pointer gesture draws.
type Tool string

// Below are the tools of a board.
const (
	// ToolPen draws freehand segments and shares each of them as it goes.
	ToolPen Tool = "pen"

	// ToolRect draws a rectangle outline spanned from the anchor.
	ToolRect Tool = "rect"

	// ToolCircle draws a circle outline centered on the anchor.
	ToolCircle Tool = "circle"
)

// ParseTool parses the given tool name.
func ParseTool(name string) (Tool, error) {
	switch t := Tool(name); t {
	case ToolPen, ToolRect, ToolCircle:
		return t, nil
	}

	return "", fmt.Errorf("%s: %w", name, ErrUnknownTool)
}

// IsShape returns whether the tool previews on the overlay and commits on
// pointer up.
func (t Tool) IsShape() bool {
	return t == ToolRect || t == ToolCircle
}

// Point is a position on a surface.
type Point struct {
	X float64
	Y float64
}
