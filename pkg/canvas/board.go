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

// Package canvas keeps a shared drawing surface in sync between the
// participants of a session.
//
// Freehand segments are shared one by one as they are drawn. Shapes are
// previewed locally and only reach the live surface on pointer up. Undo,
// redo and image upload share the whole surface as a snapshot.
//
// Undo and redo histories are local. Peers see the effect of an undo but
// keep their own histories, and a peer undoing later restores its own
// snapshot, which may erase strokes drawn by others since. Remote restores
// decode asynchronously, so segments received while a restore is pending
// may be painted over.
package canvas

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/collabboard/collabboard/api/types/events"
	"github.com/collabboard/collabboard/internal/validation"
	"github.com/collabboard/collabboard/pkg/errors"
	"github.com/collabboard/collabboard/server/logging"
)

// Below are the defaults of a board.
const (
	DefaultColor       = "#000000"
	DefaultStrokeWidth = 3
)

// Below are the bounds of a local stroke width.
const (
	MinStrokeWidth = 1
	MaxStrokeWidth = 10
)

var (
	// ErrClosed is returned when drawing on a closed Board.
	ErrClosed = errors.FailedPrecond("board closed").WithCode("ErrBoardClosed")

	// ErrInvalidColor is returned when a stroke color is not a hex color.
	ErrInvalidColor = errors.InvalidArgument("invalid color").WithCode("ErrInvalidColor")
)

// Conn is the relay channel a Board emits to and receives from.
type Conn interface {
	Emit(event events.Type, payload any) error
	Subscribe(event events.Type, handler func(payload []byte)) (unsubscribe func())
}

// Option configures a Board.
type Option func(*options)

type options struct {
	width  int
	height int
	logger logging.Logger
}

// WithSize configures the dimensions of the surface.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// WithLogger configures the Logger of the board.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Board is one participant's view of the shared surface.
type Board struct {
	conn    Conn
	options options

	mu          sync.Mutex
	surface     *Surface
	history     History
	tool        Tool
	color       string
	strokeWidth float64
	drawing     bool
	start       Point
	closed      bool

	// pending counts decodes that have not been applied yet; idle is
	// signaled when it drops to zero.
	pending int
	idle    *sync.Cond

	unsubscribes []func()
}

// NewBoard creates a Board over the given channel and subscribes to the
// drawing events delivered on it.
func NewBoard(conn Conn, opts ...Option) *Board {
	o := options{
		width:  DefaultWidth,
		height: DefaultHeight,
		logger: logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Board{
		conn:        conn,
		options:     o,
		surface:     NewSurface(o.width, o.height),
		tool:        ToolPen,
		color:       DefaultColor,
		strokeWidth: DefaultStrokeWidth,
	}
	b.idle = sync.NewCond(&b.mu)
	b.unsubscribes = []func(){
		conn.Subscribe(events.DrawLine, b.handleDrawLine),
		conn.Subscribe(events.ClearBoard, func([]byte) { b.OnRemoteClearBoard() }),
		conn.Subscribe(events.RestoreCanvas, b.handleRestoreCanvas),
	}

	return b
}

// SetTool selects the tool of the next gestures.
func (b *Board) SetTool(tool Tool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tool = tool
}

// SetColor sets the stroke color. It must be a hex color such as "#ff0000".
func (b *Board) SetColor(hexColor string) error {
	if err := validation.ValidateValue(hexColor, "required,rgbhex"); err != nil {
		return fmt.Errorf("%q: %s: %w", hexColor, err.Error(), ErrInvalidColor)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.color = hexColor
	return nil
}

// SetStrokeWidth sets the stroke width, clamped to the supported range.
func (b *Board) SetStrokeWidth(width float64) {
	if width < MinStrokeWidth {
		width = MinStrokeWidth
	}
	if width > MaxStrokeWidth {
		width = MaxStrokeWidth
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.strokeWidth = width
}

// Tool returns the selected tool.
func (b *Board) Tool() Tool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.tool
}

// Color returns the stroke color.
func (b *Board) Color() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.color
}

// StrokeWidth returns the stroke width.
func (b *Board) StrokeWidth() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.strokeWidth
}

// Drawing returns whether a gesture is in progress.
func (b *Board) Drawing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.drawing
}

// PointerDown starts a gesture at the given position.
func (b *Board) PointerDown(x, y float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.drawing = true
	b.start = Point{X: x, Y: y}
}

// PointerMove continues the gesture. The pen draws and shares a segment;
// shapes only update their preview.
func (b *Board) PointerMove(x, y float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if !b.drawing {
		return nil
	}

	point := Point{X: x, Y: y}
	if b.tool.IsShape() {
		b.surface.PreviewShape(b.tool, b.start, point, b.color, b.strokeWidth)
		return nil
	}

	from := b.start
	b.surface.DrawLine(from, point, b.color, b.strokeWidth)
	b.start = point

	line := events.Line{
		X0:    from.X,
		Y0:    from.Y,
		X1:    point.X,
		Y1:    point.Y,
		Color: b.color,
		Width: b.strokeWidth,
	}
	if err := b.conn.Emit(events.DrawLine, line); err != nil {
		return fmt.Errorf("emit %s: %w", events.DrawLine, err)
	}
	return nil
}

// PointerUp ends the gesture. A shape is committed to the surface, and the
// result becomes a new undo step.
func (b *Board) PointerUp(x, y float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if !b.drawing {
		return nil
	}
	b.drawing = false

	if b.tool.IsShape() {
		b.surface.CommitShape(b.tool, b.start, Point{X: x, Y: y}, b.color, b.strokeWidth)
	}

	snapshot, err := b.surface.Snapshot()
	if err != nil {
		return err
	}
	b.history.Push(snapshot)
	return nil
}

// PointerLeave abandons the gesture without adding an undo step. Pen
// segments already drawn stay on the surface.
func (b *Board) PointerLeave() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || !b.drawing {
		return
	}
	b.drawing = false
	b.surface.ClearOverlay()
}

// LocalClear wipes the surface and both histories, and tells the other
// participants to do the same.
func (b *Board) LocalClear() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	b.surface.Clear()
	b.history.Reset()

	if err := b.conn.Emit(events.ClearBoard, nil); err != nil {
		return fmt.Errorf("emit %s: %w", events.ClearBoard, err)
	}
	return nil
}

// LocalUndo steps back one local action and shares the resulting surface.
// It does nothing when there is nothing to undo.
func (b *Board) LocalUndo() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.history.UndoLen() == 0 {
		return nil
	}

	current, err := b.surface.Snapshot()
	if err != nil {
		return err
	}
	target, _ := b.history.Undo(current)

	return b.restoreAndEmit(target)
}

// LocalRedo steps forward one undone action and shares the resulting
// surface. It does nothing when there is nothing to redo.
func (b *Board) LocalRedo() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	target, ok := b.history.Redo()
	if !ok {
		return nil
	}

	return b.restoreAndEmit(target)
}

// restoreAndEmit restores the surface to the snapshot, blank for the zero
// Snapshot, and shares the restored surface.
func (b *Board) restoreAndEmit(target Snapshot) error {
	if err := b.restore(target); err != nil {
		return err
	}

	snapshot, err := b.surface.Snapshot()
	if err != nil {
		return err
	}
	if err := b.conn.Emit(events.RestoreCanvas, string(snapshot)); err != nil {
		return fmt.Errorf("emit %s: %w", events.RestoreCanvas, err)
	}
	return nil
}

func (b *Board) restore(s Snapshot) error {
	if s.IsBlank() {
		b.surface.Clear()
		return nil
	}

	img, err := s.Decode()
	if err != nil {
		return err
	}
	b.surface.Restore(img)
	return nil
}

// LocalImageUpload draws the image read from r stretched over the surface
// as a new undo step, and shares the result. The image is read before
// returning but decoded in the background; decode errors are logged. Use
// Wait to block until it is applied.
func (b *Board) LocalImageUpload(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	if !b.schedule() {
		return ErrClosed
	}

	go func() {
		defer b.done()

		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			b.options.logger.Warnf("drop image upload: %v", err)
			return
		}

		if err := b.applyUpload(img); err != nil {
			b.options.logger.Warnf("apply image upload: %v", err)
		}
	}()

	return nil
}

func (b *Board) applyUpload(img image.Image) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	b.surface.DrawScaled(img)
	snapshot, err := b.surface.Snapshot()
	if err != nil {
		return err
	}
	b.history.Push(snapshot)

	if err := b.conn.Emit(events.RestoreCanvas, string(snapshot)); err != nil {
		return fmt.Errorf("emit %s: %w", events.RestoreCanvas, err)
	}
	return nil
}

// schedule registers a pending decode. It returns false if the board is
// closed.
func (b *Board) schedule() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.pending++
	return true
}

// done marks a scheduled decode as applied or dropped.
func (b *Board) done() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending--
	if b.pending == 0 {
		b.idle.Broadcast()
	}
}

// waitIdle blocks until nothing is pending. b.mu must be held.
func (b *Board) waitIdle() {
	for b.pending > 0 {
		b.idle.Wait()
	}
}

// OnRemoteDrawLine paints a peer's segment. Histories are left untouched.
func (b *Board) OnRemoteDrawLine(line events.Line) {
	if err := line.Validate(); err != nil {
		b.options.logger.Warnf("drop %s: %v", events.DrawLine, err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.surface.DrawLine(
		Point{X: line.X0, Y: line.Y0},
		Point{X: line.X1, Y: line.Y1},
		line.Color,
		line.Width,
	)
}

func (b *Board) handleDrawLine(payload []byte) {
	line, err := events.DecodeLine(payload)
	if err != nil {
		b.options.logger.Warnf("drop %s: %v", events.DrawLine, err)
		return
	}

	b.OnRemoteDrawLine(line)
}

// OnRemoteClearBoard wipes the surface and both histories.
func (b *Board) OnRemoteClearBoard() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.surface.Clear()
	b.history.Reset()
}

// OnRemoteRestoreCanvas replaces the surface with a peer's snapshot once it
// is decoded. It does not add an undo step. A snapshot that cannot be
// decoded, including the zero Snapshot, is logged and dropped.
func (b *Board) OnRemoteRestoreCanvas(s Snapshot) {
	if !b.schedule() {
		return
	}

	go func() {
		defer b.done()

		img, err := s.Decode()
		if err != nil {
			b.options.logger.Warnf("drop %s %s: %v", events.RestoreCanvas, s, err)
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()

		if b.closed {
			return
		}
		b.surface.Restore(img)
	}()
}

func (b *Board) handleRestoreCanvas(payload []byte) {
	s, err := events.DecodeString(payload)
	if err != nil {
		b.options.logger.Warnf("drop %s: %v", events.RestoreCanvas, err)
		return
	}

	b.OnRemoteRestoreCanvas(Snapshot(s))
}

// Wait blocks until every pending decode has been applied or dropped.
func (b *Board) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.waitIdle()
}

// ExportCurrentSurface writes the live surface to w as a PNG image.
func (b *Board) ExportCurrentSurface(w io.Writer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.surface.WritePNG(w); err != nil {
		return fmt.Errorf("export surface: %w", err)
	}
	return nil
}

// Snapshot returns the live surface as a snapshot.
func (b *Board) Snapshot() (Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.surface.Snapshot()
}

// Image returns a copy of the live surface.
func (b *Board) Image() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.surface.Image()
}

// Overlay returns a copy of the preview overlay.
func (b *Board) Overlay() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.surface.Overlay()
}

// UndoHistory returns the undo stack, oldest first.
func (b *Board) UndoHistory() []Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.history.UndoStack()
}

// RedoHistory returns the redo stack, next redo first.
func (b *Board) RedoHistory() []Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.history.RedoStack()
}

// Close unsubscribes from the channel and waits for pending decodes. The
// channel itself is left open.
func (b *Board) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	unsubscribes := b.unsubscribes
	b.unsubscribes = nil
	b.mu.Unlock()

	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}
	b.Wait()
}
