// Copyright © 2025 M Varma Group

// This file is part of Qrgate <https://github.com/m-varma-group/qrgate>.

// Qrgate is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License
// as published by the Free Software Foundation,
// either version 3 of the License, or (at your option)
// any later version.

// Qrgate is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with Qrgate.  If not, see <http://www.gnu.org/licenses/>.

// Package qrimg renders QR PNG images for shareable links, with an
// optional label strip below the code.
package qrimg

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

const imageSize = 200

// MaxLabelLength matches the cap enforced by the policy store; longer
// labels are truncated.
const MaxLabelLength = 58

// wrapAt splits the label into a second line. Labels that fit on one
// line get the larger face, wrapped labels the smaller one.
const wrapAt = 30

const lineHeight = 18
const stripPadding = 6

// Render produces a PNG of size 200x200 (plus the label strip when a
// label is given) encoding url with high error correction.
func Render(url string, label string) ([]byte, error) {
	if label == "" {
		return qrcode.Encode(url, qrcode.High, imageSize)
	}

	raw, err := qrcode.Encode(url, qrcode.High, imageSize)
	if err != nil {
		return nil, err
	}

	code, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	runes := []rune(label)
	if len(runes) > MaxLabelLength {
		runes = runes[:MaxLabelLength]
	}

	var lines []string
	var face font.Face
	if len(runes) > wrapAt {
		lines = []string{string(runes[:wrapAt]), string(runes[wrapAt:])}
		face = basicfont.Face7x13
	} else {
		lines = []string{string(runes)}
		face = inconsolata.Regular8x16
	}

	stripHeight := len(lines)*lineHeight + 2*stripPadding
	out := image.NewRGBA(image.Rect(0, 0, imageSize, imageSize+stripHeight))

	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, imageSize, imageSize), code, image.Point{}, draw.Src)

	for i, line := range lines {
		drawer := font.Drawer{
			Dst:  out,
			Src:  image.NewUniform(color.Black),
			Face: face,
		}
		width := drawer.MeasureString(line)
		x := (fixed.I(imageSize) - width) / 2
		if x < 0 {
			x = 0
		}
		drawer.Dot = fixed.Point26_6{
			X: x,
			Y: fixed.I(imageSize + stripPadding + (i+1)*lineHeight - 4),
		}
		drawer.DrawString(line)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
