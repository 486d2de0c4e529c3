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
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabboard/collabboard/pkg/canvas"
)

func TestSnapshot(t *testing.T) {
	t.Run("surface round trip test", func(t *testing.T) {
		surface := canvas.NewSurface(64, 32)
		surface.DrawLine(canvas.Point{X: 2, Y: 2}, canvas.Point{X: 60, Y: 30}, "#ff0000", 3)

		snapshot, err := surface.Snapshot()
		require.NoError(t, err)
		assert.Contains(t, string(snapshot), "data:image/png;base64,")

		img, err := snapshot.Decode()
		require.NoError(t, err)

		restored := canvas.NewSurface(64, 32)
		restored.Restore(img)
		again, err := restored.Snapshot()
		require.NoError(t, err)
		assert.Equal(t, snapshot, again)
	})

	t.Run("other image formats test", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 8, 8))
		for i := range img.Pix {
			img.Pix[i] = 0xff
		}
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, img, nil))

		snapshot := canvas.Snapshot("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
		decoded, err := snapshot.Decode()
		assert.NoError(t, err)
		assert.Equal(t, 8, decoded.Bounds().Dx())
	})

	t.Run("invalid snapshot test", func(t *testing.T) {
		for _, s := range []canvas.Snapshot{
			"",
			"not a data url",
			"data:text/plain;base64,aGVsbG8=",
			"data:image/png;base64,@@@",
			"data:image/png;base64,aGVsbG8=",
		} {
			_, err := s.Decode()
			assert.ErrorIs(t, err, canvas.ErrInvalidSnapshot, string(s))
		}
	})

	t.Run("blank surface is opaque white test", func(t *testing.T) {
		surface := canvas.NewSurface(4, 4)
		assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, surface.Image().RGBAAt(2, 2))
		assert.Equal(t, color.RGBA{}, surface.Overlay().RGBAAt(2, 2))
	})
}
