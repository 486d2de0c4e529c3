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

// History holds the undo and redo stacks of a board. The last element of
// the undo stack is the snapshot after the latest action; the first element
// of the redo stack is the next snapshot to redo.
type History struct {
	undo []Snapshot
	redo []Snapshot
}

// Push records a snapshot taken after a local action and discards anything
// that could have been redone.
func (h *History) Push(s Snapshot) {
	h.undo = append(h.undo, s)
	h.redo = nil
}

// Undo steps back one action. current is the snapshot of the surface before
// stepping back; it becomes the next redo. It returns the snapshot to
// restore, blank when no action remains, and false if there was nothing to
// undo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.undo) == 0 {
		return "", false
	}

	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append([]Snapshot{current}, h.redo...)

	if len(h.undo) == 0 {
		return "", true
	}
	return h.undo[len(h.undo)-1], true
}

// Redo steps forward one action. It returns the snapshot to restore and
// false if there was nothing to redo.
func (h *History) Redo() (Snapshot, bool) {
	if len(h.redo) == 0 {
		return "", false
	}

	s := h.redo[0]
	h.redo = h.redo[1:]
	h.undo = append(h.undo, s)
	return s, true
}

// Reset discards both stacks.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}

// UndoLen returns the number of steps that can be undone.
func (h *History) UndoLen() int {
	return len(h.undo)
}

// RedoLen returns the number of steps that can be redone.
func (h *History) RedoLen() int {
	return len(h.redo)
}

// UndoStack returns a copy of the undo stack, oldest first.
func (h *History) UndoStack() []Snapshot {
	return append([]Snapshot(nil), h.undo...)
}

// RedoStack returns a copy of the redo stack, next redo first.
func (h *History) RedoStack() []Snapshot {
	return append([]Snapshot(nil), h.redo...)
}
