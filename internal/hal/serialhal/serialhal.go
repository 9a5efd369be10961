// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package serialhal implements internal/hal.Serial over a USB CDC virtual
// serial port using go.bug.st/serial.
package serialhal

import (
	"time"

	"go.bug.st/serial"
)

// readTimeout is kept short so ReadByteNonblocking returns promptly when
// no byte is waiting, giving the frame parser's polling loop a chance to
// check its per-phase timeouts and the caller's context.
const readTimeout = 2 * time.Millisecond

// Port adapts a go.bug.st/serial port to hal.Serial.
type Port struct {
	p   serial.Port
	buf [1]byte
}

// Open opens name (e.g. "/dev/ttyGS0" on a USB-gadget device, or a host
// COM port when testing against a real MCU) at baud 8-N-1 and returns a
// Port ready for ReadByteNonblocking.
func Open(name string, baud int) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		p.Close()
		return nil, err
	}
	return &Port{p: p}, nil
}

// Close releases the underlying port.
func (s *Port) Close() error { return s.p.Close() }

// ReadByteNonblocking implements hal.Serial.
func (s *Port) ReadByteNonblocking() (byte, bool) {
	n, err := s.p.Read(s.buf[:])
	if err != nil || n == 0 {
		return 0, false
	}
	return s.buf[0], true
}

// Write implements hal.Serial.
func (s *Port) Write(p []byte) (int, error) { return s.p.Write(p) }

// Flush implements hal.Serial: go.bug.st/serial writes are unbuffered, so
// there is nothing to drain beyond the OS's own TX buffer, which Drain
// waits out.
func (s *Port) Flush() error { return s.p.Drain() }
