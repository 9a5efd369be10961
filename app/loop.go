// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package app binds the frame parser to the panel driver: it decodes
// flags, dispatches to full/partial/window updates, maintains the
// last-displayed framebuffer, and emits acknowledgements.
package app

import (
	"context"
	"log"

	"github.com/mindwrite/epd/frame"
	"github.com/mindwrite/epd/geometry"
	"github.com/mindwrite/epd/internal/hal"
	"github.com/mindwrite/epd/ssd1683"
)

var ackOK = []byte{'O', 'K'}

// Previewer renders a copy of prevFrame somewhere outside the protocol, a
// diagnostic side channel only. It is satisfied by
// internal/termpreview.Printer; Loop never depends on that package's
// concrete type, only this interface.
type Previewer interface {
	Render(frame []byte) error
}

// Loop is the application loop binding the parser to the panel driver. It
// owns prevFrame, the last framebuffer the panel displayed.
type Loop struct {
	parser  *frame.Parser
	dev     *ssd1683.Dev
	serial  hal.Serial
	clock   hal.Clock
	log     *log.Logger
	preview Previewer

	prevFrame [geometry.FrameBytes]byte
}

// NewLoop returns a Loop ready to Run. logger may be nil.
func NewLoop(dev *ssd1683.Dev, serial hal.Serial, clock hal.Clock, logger *log.Logger) *Loop {
	return &Loop{
		parser: frame.NewParser(logger),
		dev:    dev,
		serial: serial,
		clock:  clock,
		log:    logger,
	}
}

// SetPreview attaches an optional terminal/debug renderer; after every
// successful frame Run calls its Render method with prevFrame.
func (l *Loop) SetPreview(p Previewer) { l.preview = p }

func (l *Loop) logf(format string, args ...any) {
	if l.log != nil {
		l.log.Printf(format, args...)
	}
}

// Run initializes the panel, clears it to white, and then services frames
// until ctx is canceled. ctx is checked while waiting for and between
// received bytes, so a partly received frame is abandoned on cancel; once a
// frame has been parsed, its panel update always runs to completion.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.dev.Init(); err != nil {
		return err
	}
	if err := l.dev.ClearToWhite(); err != nil {
		return err
	}
	for i := range l.prevFrame {
		l.prevFrame[i] = 0xFF
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		payload, ok := l.parser.Run(ctx, l.serial, l.clock)
		if !ok {
			return nil
		}

		if err := l.handleFrame(payload); err != nil {
			l.logf("app: dropping frame: %v", err)
			continue
		}
	}
}

// handleFrame decodes, validates, and dispatches a single payload,
// emitting an ACK on success. A non-nil error here means the frame was
// silently dropped with no ACK (validation rejection) or that the driver
// hit a hardware fault (also no ACK, since the update did not complete);
// in both cases the host is expected to retry on its own timeout.
func (l *Loop) handleFrame(payload []byte) error {
	f, err := frame.Decode(payload)
	if err != nil {
		return err
	}

	if f.Flags.Rect() {
		if err := l.handleRect(f); err != nil {
			return err
		}
	} else {
		if err := l.handleFullFrame(f); err != nil {
			return err
		}
	}

	if _, err := l.serial.Write(ackOK); err != nil {
		return err
	}
	if err := l.serial.Flush(); err != nil {
		return err
	}

	if l.preview != nil {
		if err := l.preview.Render(l.prevFrame[:]); err != nil {
			l.logf("app: preview render: %v", err)
		}
	}
	return nil
}

func (l *Loop) handleFullFrame(f frame.Frame) error {
	if f.Flags.ForceFull() {
		if err := l.dev.ClearToWhite(); err != nil {
			return err
		}
		if err := l.dev.ShowFull(f.Pixels); err != nil {
			return err
		}
	} else {
		if err := l.dev.ShowPartialFull(f.Pixels, l.prevFrame[:]); err != nil {
			return err
		}
	}
	copy(l.prevFrame[:], f.Pixels)
	return nil
}

func (l *Loop) handleRect(f frame.Frame) error {
	rect := f.Rect

	if f.Flags.ForceFull() {
		patchRect(l.prevFrame[:], rect, f.Pixels)
		if err := l.dev.ClearToWhite(); err != nil {
			return err
		}
		return l.dev.ShowFull(l.prevFrame[:])
	}

	if err := l.dev.ShowPartialWindow(int(rect.X), int(rect.Y), int(rect.W), int(rect.H), f.Pixels, l.prevFrame[:]); err != nil {
		return err
	}
	patchRect(l.prevFrame[:], rect, f.Pixels)
	return nil
}

// patchRect copies rectBytes (w/8 bytes per row, row-major) into dst at
// (rect.X, rect.Y, rect.W, rect.H).
func patchRect(dst []byte, rect frame.RectHeader, rectBytes []byte) {
	wb := rect.BytesPerRow()
	xb := int(rect.X) / 8
	for row := 0; row < int(rect.H); row++ {
		srcOff := row * wb
		dstOff := (int(rect.Y)+row)*geometry.BytesPerRow + xb
		copy(dst[dstOff:dstOff+wb], rectBytes[srcOff:srcOff+wb])
	}
}
