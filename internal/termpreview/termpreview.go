// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package termpreview renders the panel's 1bpp framebuffer to an ANSI
// terminal for local debugging: it samples a fixed-size pixel buffer down
// to a grid of ansi256 color blocks, the same technique a 1D RGB strip
// preview would use one dimension down.
package termpreview

import (
	"bytes"
	"image/color"
	"io"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/mindwrite/epd/geometry"
)

// outCols and outRows size the downsampled preview grid. The panel is
// roughly 3:1 wide; terminal character cells are roughly 1:2 tall, so a
// wider-than-tall output grid renders close to the panel's real aspect
// ratio.
const (
	outCols = 132
	outRows = 22
)

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
var black = color.NRGBA{R: 0, G: 0, B: 0, A: 255}

// Printer renders framebuffers to a terminal using ANSI 256-color blocks.
type Printer struct {
	w       io.Writer
	palette ansi256.Palette
	buf     bytes.Buffer
}

// New returns a Printer writing to stdout. It does not check whether stdout
// is a terminal and its Render always writes ANSI escapes; call Enabled
// first to avoid corrupting piped/redirected output.
func New() *Printer {
	return &Printer{
		w:       colorable.NewColorableStdout(),
		palette: *ansi256.Default,
	}
}

// Enabled reports whether stdout looks like a terminal worth rendering to.
func Enabled() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Render samples frame (geometry.FrameBytes of 1bpp, MSB-leftmost, 1=white)
// down to an outCols x outRows grid and prints it.
func (p *Printer) Render(frame []byte) error {
	if len(frame) != geometry.FrameBytes {
		return nil
	}

	p.buf.Reset()
	p.buf.WriteString("\033[H\033[2J")

	for row := 0; row < outRows; row++ {
		y := row * geometry.Height / outRows
		for col := 0; col < outCols; col++ {
			x := col * geometry.Width / outCols
			c := white
			if !samplePixel(frame, x, y) {
				c = black
			}
			io.WriteString(&p.buf, p.palette.Block(c))
		}
		p.buf.WriteString("\033[0m\n")
	}

	_, err := p.buf.WriteTo(p.w)
	return err
}

// samplePixel reports whether the pixel at (x, y) is white (bit value 1).
func samplePixel(frame []byte, x, y int) bool {
	byteIdx := y*geometry.BytesPerRow + x/8
	bit := 7 - uint(x%8)
	return frame[byteIdx]&(1<<bit) != 0
}
