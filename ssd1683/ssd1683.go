// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ssd1683

import (
	"fmt"

	"github.com/mindwrite/epd/geometry"
	"github.com/mindwrite/epd/internal/hal"
)

// Dev owns the SPI bus session, pin assignments and init state for one
// panel. It is meant to be a process-lifetime singleton: callers must
// serialize their own access, since Dev has no internal locking.
type Dev struct {
	pins  hal.Pins
	spi   hal.SPI
	clock hal.Clock

	busyActiveLevel bool
	initialized     bool
}

// New returns a Dev bound to the given HAL backends. busyActiveLevel is the
// BUSY line level the panel asserts while busy (true for active-high, the
// vendor default).
func New(pins hal.Pins, spi hal.SPI, clock hal.Clock, busyActiveLevel bool) *Dev {
	return &Dev{pins: pins, spi: spi, clock: clock, busyActiveLevel: busyActiveLevel}
}

// Initialized reports whether Init has completed successfully.
func (d *Dev) Initialized() bool { return d.initialized }

// Init resets and configures the panel (software reset, border waveform,
// temperature sensor select). It is a no-op returning nil if already
// initialized.
func (d *Dev) Init() error {
	if d.initialized {
		return nil
	}

	t := &txn{d: d}

	t.rstOut(true)
	t.csOut(true)
	t.dcOut(false)

	t.rstOut(false)
	d.clock.SleepMS(10)
	t.rstOut(true)
	d.clock.SleepMS(10)

	if t.err != nil {
		return fmt.Errorf("ssd1683: reset: %w", t.err)
	}

	t.sendCommand(cmdSoftwareReset)
	if !t.waitIdle(5000) {
		return fmt.Errorf("ssd1683: software reset: panel BUSY timeout")
	}

	t.sendCommand(cmdBorderWaveform)
	t.sendByte(borderWaveformValue)

	t.sendCommand(cmdTempSensor)
	t.sendByte(tempSensorValue)

	if t.err != nil {
		return fmt.Errorf("ssd1683: init: %w", t.err)
	}

	d.initialized = true
	return nil
}

// WaitIdle polls BUSY until idle or timeoutMS elapses. It returns false on
// timeout; this is not an error, the panel may still be mid-update and the
// caller may proceed (vendor behavior).
func (d *Dev) WaitIdle(timeoutMS int) bool {
	t := &txn{d: d}
	return t.waitIdle(timeoutMS)
}

// ShowFull performs a full refresh of the panel from frame. frame must be
// geometry.FrameBytes long. It is a no-op if the driver is not initialized.
func (d *Dev) ShowFull(frame []byte) error {
	if !d.initialized {
		return nil
	}
	if len(frame) != geometry.FrameBytes {
		return fmt.Errorf("ssd1683: frame is %d bytes, want %d", len(frame), geometry.FrameBytes)
	}

	t := &txn{d: d}

	setupAddressing(t, masterHalf, 0x00, 0x31, 0, geometry.Height-1)
	t.waitIdle(5000)
	writeFullScreenRAM(t, masterHalf, 0, geometry.MasterCols-1, frame)

	setupAddressing(t, slaveHalf, slaveHalf.mapX(geometry.SlaveStart), slaveHalf.mapX(geometry.SlaveStart+geometry.SlaveCols-1), 0, geometry.Height-1)
	t.waitIdle(5000)
	writeFullScreenRAM(t, slaveHalf, geometry.SlaveStart, geometry.SlaveStart+geometry.SlaveCols-1, frame)

	triggerUpdate(t, updateWaveformFull, 20000)

	if t.err != nil {
		return fmt.Errorf("ssd1683: show full: %w", t.err)
	}
	return nil
}

// ClearToWhite fills a scratch framebuffer with 0xFF and performs a full
// refresh.
func (d *Dev) ClearToWhite() error {
	white := make([]byte, geometry.FrameBytes)
	for i := range white {
		white[i] = 0xFF
	}
	return d.ShowFull(white)
}

// ShowPartialFull performs a full-screen partial refresh: it delegates to
// ShowPartialWindow over the whole panel.
func (d *Dev) ShowPartialFull(newFrame, oldFrame []byte) error {
	return d.ShowPartialWindow(0, 0, geometry.Width, geometry.Height, newFrame, oldFrame)
}

// ShowPartialWindow performs a windowed partial refresh of the rectangle
// (x, y, w, h). rectNew holds (w/8)*h packed pixel bytes for the rectangle;
// oldFull is the full previously-displayed framebuffer, used for the OLD
// RAM write. x and w must be multiples of 8; w and h must be nonzero; the
// rectangle is clamped to stay on-panel.
func (d *Dev) ShowPartialWindow(x, y, w, h int, rectNew, oldFull []byte) error {
	if !d.initialized {
		return nil
	}
	if x%8 != 0 || w%8 != 0 || w <= 0 || h <= 0 {
		return fmt.Errorf("ssd1683: invalid rect x=%d y=%d w=%d h=%d", x, y, w, h)
	}
	if x >= geometry.Width || y >= geometry.Height {
		return fmt.Errorf("ssd1683: rect origin x=%d y=%d outside panel", x, y)
	}
	if x+w > geometry.Width {
		w = geometry.Width - x
	}
	if y+h > geometry.Height {
		h = geometry.Height - y
	}
	if len(oldFull) != geometry.FrameBytes {
		return fmt.Errorf("ssd1683: old frame is %d bytes, want %d", len(oldFull), geometry.FrameBytes)
	}

	rectXB := x / 8
	rectWB := w / 8
	xEndB := rectXB + rectWB - 1
	yTop := y
	yBottom := y + h - 1

	if want := rectWB * h; len(rectNew) != want {
		return fmt.Errorf("ssd1683: rect payload is %d bytes, want %d", len(rectNew), want)
	}

	t := &txn{d: d}

	if mStart, mEnd, ok := intersect(rectXB, xEndB, 0, geometry.MasterCols-1); ok {
		setupAddressing(t, masterHalf, masterHalf.mapX(mStart), masterHalf.mapX(mEnd), uint16(yTop), uint16(yBottom))
		t.waitIdle(5000)
		writeWindowRAM(t, masterHalf, mStart, mEnd, yTop, yBottom, rectXB, rectWB, rectNew, oldFull)
	}

	if sStart, sEnd, ok := intersect(rectXB, xEndB, geometry.SlaveStart, geometry.SlaveStart+geometry.SlaveCols-1); ok {
		setupAddressing(t, slaveHalf, slaveHalf.mapX(sStart), slaveHalf.mapX(sEnd), uint16(yTop), uint16(yBottom))
		t.waitIdle(5000)
		writeWindowRAM(t, slaveHalf, sStart, sEnd, yTop, yBottom, rectXB, rectWB, rectNew, oldFull)
	}

	triggerUpdate(t, updateWaveformPartial, 20000)

	if t.err != nil {
		return fmt.Errorf("ssd1683: show partial window: %w", t.err)
	}
	return nil
}

// intersect returns the overlap of [aStart, aEnd] and [bStart, bEnd] and
// whether it is nonempty.
func intersect(aStart, aEnd, bStart, bEnd int) (start, end int, ok bool) {
	start = aStart
	if bStart > start {
		start = bStart
	}
	end = aEnd
	if bEnd < end {
		end = bEnd
	}
	return start, end, start <= end
}
