// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package frame implements the MWF1 wire format: a resynchronizable,
// CRC-validated framing layer, and the flags/rectangle payload model the
// application loop decodes frames into.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mindwrite/epd/geometry"
)

// Flags are the bits carried in payload[0].
type Flags byte

const (
	// FlagForceFull requests a full (cleared) refresh instead of a partial one.
	FlagForceFull Flags = 1 << 0
	// FlagRect indicates the payload carries a RectHeader followed by
	// rect-sized pixel bytes, rather than a full framebuffer.
	FlagRect Flags = 1 << 1
)

func (f Flags) ForceFull() bool { return f&FlagForceFull != 0 }
func (f Flags) Rect() bool      { return f&FlagRect != 0 }

// RectHeader describes a byte-aligned rectangular update region.
type RectHeader struct {
	X, Y, W, H uint16
}

// Validate checks the alignment and on-panel invariants from the rect
// update wire format. It does not clamp; call Clamp after Validate passes.
func (r RectHeader) Validate() error {
	if r.X%8 != 0 {
		return fmt.Errorf("rect x=%d not byte-aligned", r.X)
	}
	if r.W%8 != 0 {
		return fmt.Errorf("rect w=%d not byte-aligned", r.W)
	}
	if r.W == 0 || r.H == 0 {
		return errors.New("rect w and h must be nonzero")
	}
	if r.X >= geometry.Width {
		return fmt.Errorf("rect x=%d outside panel width %d", r.X, geometry.Width)
	}
	if r.Y >= geometry.Height {
		return fmt.Errorf("rect y=%d outside panel height %d", r.Y, geometry.Height)
	}
	return nil
}

// Clamp shrinks W and H, if necessary, so the rectangle stays on-panel.
func (r RectHeader) Clamp() RectHeader {
	if int(r.X)+int(r.W) > geometry.Width {
		r.W = uint16(geometry.Width - int(r.X))
	}
	if int(r.Y)+int(r.H) > geometry.Height {
		r.H = uint16(geometry.Height - int(r.Y))
	}
	return r
}

// BytesPerRow is the number of packed bytes per row of this rectangle.
func (r RectHeader) BytesPerRow() int { return int(r.W) / 8 }

// PixelBytes is the total number of packed pixel bytes this rectangle holds.
func (r RectHeader) PixelBytes() int { return r.BytesPerRow() * int(r.H) }

// Frame is a decoded, validated payload: the flags, an optional rect header
// (zero value when Flags.Rect() is false) and the pixel bytes.
type Frame struct {
	Flags  Flags
	Rect   RectHeader
	Pixels []byte
}

// Decode validates and decodes a frame payload (the bytes between len and
// crc32 in the wire format). The returned Frame's Pixels slice aliases
// payload; callers must not retain payload afterward without copying if
// they need it to outlive the next parser frame.
func Decode(payload []byte) (Frame, error) {
	if len(payload) < 1 {
		return Frame{}, errors.New("empty payload")
	}
	flags := Flags(payload[0])

	if !flags.Rect() {
		want := 1 + geometry.FrameBytes
		if len(payload) != want {
			return Frame{}, fmt.Errorf("full-frame payload len=%d, want %d", len(payload), want)
		}
		return Frame{Flags: flags, Pixels: payload[1:]}, nil
	}

	if len(payload) < 1+8 {
		return Frame{}, fmt.Errorf("rect payload len=%d too short for header", len(payload))
	}
	rect := RectHeader{
		X: binary.LittleEndian.Uint16(payload[1:3]),
		Y: binary.LittleEndian.Uint16(payload[3:5]),
		W: binary.LittleEndian.Uint16(payload[5:7]),
		H: binary.LittleEndian.Uint16(payload[7:9]),
	}
	if err := rect.Validate(); err != nil {
		return Frame{}, err
	}
	rect = rect.Clamp()

	want := 1 + 8 + rect.PixelBytes()
	if len(payload) != want {
		return Frame{}, fmt.Errorf("rect payload len=%d, want %d for %dx%d rect", len(payload), want, rect.W, rect.H)
	}
	return Frame{Flags: flags, Rect: rect, Pixels: payload[9:]}, nil
}
