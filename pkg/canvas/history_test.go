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

package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/collabboard/collabboard/pkg/canvas"
)

func TestHistory(t *testing.T) {
	t.Run("undo steps back to the previous action test", func(t *testing.T) {
		h := &canvas.History{}
		h.Push("a")
		h.Push("b")

		s, ok := h.Undo("b")
		assert.True(t, ok)
		assert.Equal(t, canvas.Snapshot("a"), s)
		assert.Equal(t, []canvas.Snapshot{"a"}, h.UndoStack())
		assert.Equal(t, []canvas.Snapshot{"b"}, h.RedoStack())

		s, ok = h.Undo("a")
		assert.True(t, ok)
		assert.True(t, s.IsBlank())
		assert.Equal(t, []canvas.Snapshot{"a", "b"}, h.RedoStack())

		_, ok = h.Undo("")
		assert.False(t, ok)
	})

	t.Run("redo reverses undo test", func(t *testing.T) {
		h := &canvas.History{}
		h.Push("a")
		h.Push("b")
		h.Undo("b")
		h.Undo("a")

		s, ok := h.Redo()
		assert.True(t, ok)
		assert.Equal(t, canvas.Snapshot("a"), s)

		s, ok = h.Redo()
		assert.True(t, ok)
		assert.Equal(t, canvas.Snapshot("b"), s)
		assert.Equal(t, []canvas.Snapshot{"a", "b"}, h.UndoStack())

		_, ok = h.Redo()
		assert.False(t, ok)
	})

	t.Run("push clears redo test", func(t *testing.T) {
		h := &canvas.History{}
		h.Push("a")
		h.Undo("a")
		assert.Equal(t, 1, h.RedoLen())

		h.Push("c")
		assert.Equal(t, 0, h.RedoLen())
		assert.Equal(t, 1, h.UndoLen())

		h.Reset()
		assert.Equal(t, 0, h.UndoLen())
	})
}

func TestTool(t *testing.T) {
	t.Run("parse tool test", func(t *testing.T) {
		for _, name := range []string{"pen", "rect", "circle"} {
			tool, err := canvas.ParseTool(name)
			assert.NoError(t, err)
			assert.Equal(t, canvas.Tool(name), tool)
		}

		_, err := canvas.ParseTool("eraser")
		assert.ErrorIs(t, err, canvas.ErrUnknownTool)

		assert.False(t, canvas.ToolPen.IsShape())
		assert.True(t, canvas.ToolCircle.IsShape())
	})
}
