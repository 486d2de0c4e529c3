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
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// Below are the default dimensions of a surface.
const (
	DefaultWidth  = 800
	DefaultHeight = 400
)

// background is the color of a blank surface. Keeping every pixel opaque
// makes snapshots round-trip exactly.
var background = color.White

// Surface is the drawable state of a board: the live raster every stroke
// lands on and a transparent overlay for shape previews. Surface is not
// safe for concurrent use.
type Surface struct {
	live       *image.RGBA
	liveCtx    *gg.Context
	overlay    *image.RGBA
	overlayCtx *gg.Context
}

// NewSurface creates a blank surface of the given size.
func NewSurface(width, height int) *Surface {
	live := image.NewRGBA(image.Rect(0, 0, width, height))
	overlay := image.NewRGBA(image.Rect(0, 0, width, height))

	s := &Surface{
		live:       live,
		liveCtx:    gg.NewContextForRGBA(live),
		overlay:    overlay,
		overlayCtx: gg.NewContextForRGBA(overlay),
	}
	s.Clear()
	return s
}

// Width returns the width of the surface.
func (s *Surface) Width() int {
	return s.live.Bounds().Dx()
}

// Height returns the height of the surface.
func (s *Surface) Height() int {
	return s.live.Bounds().Dy()
}

// Clear blanks both the live raster and the overlay.
func (s *Surface) Clear() {
	s.liveCtx.SetColor(background)
	s.liveCtx.Clear()
	s.ClearOverlay()
}

// ClearOverlay removes any preview.
func (s *Surface) ClearOverlay() {
	s.overlayCtx.SetColor(color.Transparent)
	s.overlayCtx.Clear()
}

// DrawLine strokes one segment onto the live raster.
func (s *Surface) DrawLine(from, to Point, hexColor string, width float64) {
	stroke(s.liveCtx, hexColor, width, func(dc *gg.Context) {
		dc.DrawLine(from.X, from.Y, to.X, to.Y)
	})
}

// PreviewShape replaces the overlay with the outline of the shape spanned by
// anchor and point.
func (s *Surface) PreviewShape(tool Tool, anchor, point Point, hexColor string, width float64) {
	s.ClearOverlay()
	drawShape(s.overlayCtx, tool, anchor, point, hexColor, width)
}

// CommitShape strokes the shape spanned by anchor and point onto the live
// raster, with the same geometry as its preview, and clears the overlay.
func (s *Surface) CommitShape(tool Tool, anchor, point Point, hexColor string, width float64) {
	s.ClearOverlay()
	drawShape(s.liveCtx, tool, anchor, point, hexColor, width)
}

// Restore replaces the live raster with the given image, anchored at the
// top-left corner. Whatever the image does not cover is left blank.
func (s *Surface) Restore(img image.Image) {
	s.liveCtx.SetColor(background)
	s.liveCtx.Clear()

	bounds := img.Bounds()
	draw.Draw(s.live, bounds.Sub(bounds.Min).Intersect(s.live.Bounds()), img, bounds.Min, draw.Over)
}

// DrawScaled draws the image stretched over the whole live raster, on top
// of what is already there.
func (s *Surface) DrawScaled(img image.Image) {
	draw.CatmullRom.Scale(s.live, s.live.Bounds(), img, img.Bounds(), draw.Over, nil)
}

// Snapshot encodes the live raster.
func (s *Surface) Snapshot() (Snapshot, error) {
	return EncodeSnapshot(s.live)
}

// WritePNG writes the live raster to w as a PNG image.
func (s *Surface) WritePNG(w io.Writer) error {
	return png.Encode(w, s.live)
}

// Image returns a copy of the live raster.
func (s *Surface) Image() *image.RGBA {
	return cloneRGBA(s.live)
}

// Overlay returns a copy of the preview overlay.
func (s *Surface) Overlay() *image.RGBA {
	return cloneRGBA(s.overlay)
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func drawShape(dc *gg.Context, tool Tool, anchor, point Point, hexColor string, width float64) {
	switch tool {
	case ToolRect:
		// width and height are negative when dragging up or left.
		stroke(dc, hexColor, width, func(dc *gg.Context) {
			dc.DrawRectangle(anchor.X, anchor.Y, point.X-anchor.X, point.Y-anchor.Y)
		})
	case ToolCircle:
		radius := math.Hypot(point.X-anchor.X, point.Y-anchor.Y)
		stroke(dc, hexColor, width, func(dc *gg.Context) {
			dc.DrawCircle(anchor.X, anchor.Y, radius)
		})
	}
}

func stroke(dc *gg.Context, hexColor string, width float64, path func(dc *gg.Context)) {
	dc.SetHexColor(hexColor)
	dc.SetLineWidth(width)
	dc.SetLineCapRound()
	path(dc)
	dc.Stroke()
}
