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
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	// Decoders for restored snapshots and uploaded images.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/collabboard/collabboard/pkg/errors"
)

// ErrInvalidSnapshot is returned when a snapshot cannot be decoded into an
// image.
var ErrInvalidSnapshot = errors.InvalidArgument("invalid snapshot").WithCode("ErrInvalidSnapshot")

const pngDataURLPrefix = "data:image/png;base64,"

// Snapshot is a self-contained encoding of a surface: a data URL carrying a
// PNG image. The zero Snapshot stands for a blank surface.
type Snapshot string

// EncodeSnapshot encodes the given image as a Snapshot.
func EncodeSnapshot(img image.Image) (Snapshot, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	return Snapshot(pngDataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// IsBlank returns whether this is the zero Snapshot, which undo history
// uses for the state before the first action. It carries no image and never
// decodes.
func (s Snapshot) IsBlank() bool {
	return s == ""
}

// Decode decodes the image carried by this snapshot. Any base64 image data
// URL in a format with a registered decoder is accepted.
func (s Snapshot) Decode() (image.Image, error) {
	header, data, ok := strings.Cut(string(s), ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("not an image data URL: %w", ErrInvalidSnapshot)
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %s: %w", err.Error(), ErrInvalidSnapshot)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %s: %w", err.Error(), ErrInvalidSnapshot)
	}

	return img, nil
}

// String returns a shortened form of this snapshot for logging.
func (s Snapshot) String() string {
	const maxLen = 48
	if s.IsBlank() {
		return "Snapshot(blank)"
	}
	if len(s) <= maxLen {
		return fmt.Sprintf("Snapshot(%s)", string(s))
	}
	return fmt.Sprintf("Snapshot(%s...%d bytes)", string(s[:maxLen]), len(s))
}
