// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package hal defines the external contracts the core consumes: GPIO
// pins, an SPI bus, a monotonic clock/sleep source, and a byte-oriented
// serial transport. Board bring-up, pin multiplexing, and USB enumeration
// are outside the core and live behind these interfaces;
// internal/hal/periphhal and internal/hal/serialhal implement them over
// real peripherals.
package hal

// Pins is the GPIO surface the ssd1683 driver needs: three outputs (chip
// select, data/command, reset) and one input (BUSY).
type Pins interface {
	SetCS(level bool) error
	SetDC(level bool) error
	SetRST(level bool) error
	// ReadBusy reports the raw BUSY line level; polarity interpretation
	// (which level means busy) is the driver's responsibility.
	ReadBusy() (bool, error)
}

// SPI is a blocking, full-duplex-capable write-only bus as the driver uses
// it: command and data bytes are always written, never read back.
type SPI interface {
	Write(b []byte) error
}

// Clock is the time source used for reset delays, BUSY polling intervals,
// and the frame parser's per-phase byte timeouts.
type Clock interface {
	SleepMS(n int)
	MonotonicUS() int64
}

// Serial is the byte-oriented transport the frame parser consumes and the
// application loop writes acknowledgements to: a USB CDC-class virtual
// serial port.
type Serial interface {
	// ReadByteNonblocking returns a byte and true if one was available, or
	// (0, false) if none was ready. It never blocks.
	ReadByteNonblocking() (byte, bool)
	Write(p []byte) (int, error)
	Flush() error
}
