// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package app

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/mindwrite/epd/frame"
	"github.com/mindwrite/epd/geometry"
	"github.com/mindwrite/epd/internal/common"
	"github.com/mindwrite/epd/ssd1683"
)

// fakePins is an always-idle, no-op hal.Pins.
type fakePins struct{}

func (fakePins) SetCS(bool) error       { return nil }
func (fakePins) SetDC(bool) error       { return nil }
func (fakePins) SetRST(bool) error      { return nil }
func (fakePins) ReadBusy() (bool, error) { return false, nil }

// fakeSPI counts the bytes written to it and discards them.
type fakeSPI struct {
	writes int
}

func (f *fakeSPI) Write(b []byte) error {
	f.writes += len(b)
	return nil
}

// fakeClock is a monotonically-advancing clock with no real sleeping, so
// tests run instantly regardless of configured timeouts.
type fakeClock struct {
	us int64
}

func (c *fakeClock) SleepMS(n int)     { c.us += int64(n) * 1000 }
func (c *fakeClock) MonotonicUS() int64 { return c.us }

// fakeSerial is an in-memory hal.Serial: Read drains an input queue byte by
// byte, Write appends to an output buffer.
type fakeSerial struct {
	in  []byte
	pos int
	out []byte
}

func (s *fakeSerial) ReadByteNonblocking() (byte, bool) {
	if s.pos >= len(s.in) {
		return 0, false
	}
	b := s.in[s.pos]
	s.pos++
	return b, true
}

func (s *fakeSerial) Write(p []byte) (int, error) {
	s.out = append(s.out, p...)
	return len(p), nil
}

func (s *fakeSerial) Flush() error { return nil }

func encodeFrame(payload []byte) []byte {
	var out []byte
	out = append(out, 'M', 'W', 'F', '1')
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(payload)))
	out = append(out, lenBuf...)
	out = append(out, payload...)
	crcBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(crcBuf, common.CRC32IEEE(payload))
	out = append(out, crcBuf...)
	return out
}

func newTestLoop() (*Loop, *fakeSerial) {
	dev := ssd1683.New(fakePins{}, &fakeSPI{}, &fakeClock{}, true)
	serial := &fakeSerial{}
	return NewLoop(dev, serial, &fakeClock{}, nil), serial
}

func TestLoopFullFrameAcks(t *testing.T) {
	l, serial := newTestLoop()
	if err := l.dev.Init(); err != nil {
		t.Fatalf("Init() = %v", err)
	}

	payload := make([]byte, 1+geometry.FrameBytes)
	payload[0] = byte(frame.FlagForceFull)
	for i := 1; i < len(payload); i++ {
		payload[i] = 0xFF
	}

	if err := l.handleFrame(payload); err != nil {
		t.Fatalf("handleFrame() = %v", err)
	}
	if string(serial.out) != "OK" {
		t.Errorf("serial.out = %q, want %q", serial.out, "OK")
	}
}

func TestLoopRectForceFullPatchesPrevFrameFirst(t *testing.T) {
	l, _ := newTestLoop()
	if err := l.dev.Init(); err != nil {
		t.Fatalf("Init() = %v", err)
	}
	for i := range l.prevFrame {
		l.prevFrame[i] = 0xFF
	}

	rectPayload := make([]byte, 9+1) // flags + 8-byte header + 1 pixel byte (8x1 rect)
	rectPayload[0] = byte(frame.FlagRect | frame.FlagForceFull)
	binary.LittleEndian.PutUint16(rectPayload[1:3], 0)  // x
	binary.LittleEndian.PutUint16(rectPayload[3:5], 0)  // y
	binary.LittleEndian.PutUint16(rectPayload[5:7], 8)  // w
	binary.LittleEndian.PutUint16(rectPayload[7:9], 1)  // h
	rectPayload[9] = 0x00                                // black row

	if err := l.handleFrame(rectPayload); err != nil {
		t.Fatalf("handleFrame() = %v", err)
	}
	if l.prevFrame[0] != 0x00 {
		t.Errorf("prevFrame[0] = 0x%02X, want 0x00 (patched before full redraw)", l.prevFrame[0])
	}
}

func TestLoopRectNonForceFullPatchesAfterWindowUpdate(t *testing.T) {
	l, _ := newTestLoop()
	if err := l.dev.Init(); err != nil {
		t.Fatalf("Init() = %v", err)
	}
	for i := range l.prevFrame {
		l.prevFrame[i] = 0xFF
	}

	rectPayload := make([]byte, 9+1)
	rectPayload[0] = byte(frame.FlagRect)
	binary.LittleEndian.PutUint16(rectPayload[1:3], 8)
	binary.LittleEndian.PutUint16(rectPayload[3:5], 0)
	binary.LittleEndian.PutUint16(rectPayload[5:7], 8)
	binary.LittleEndian.PutUint16(rectPayload[7:9], 1)
	rectPayload[9] = 0x00

	if err := l.handleFrame(rectPayload); err != nil {
		t.Fatalf("handleFrame() = %v", err)
	}
	if l.prevFrame[1] != 0x00 {
		t.Errorf("prevFrame[1] = 0x%02X, want 0x00", l.prevFrame[1])
	}
}

func TestLoopDropsInvalidFrameWithoutAck(t *testing.T) {
	l, serial := newTestLoop()
	if err := l.dev.Init(); err != nil {
		t.Fatalf("Init() = %v", err)
	}

	if err := l.handleFrame([]byte{0x00, 0x01}); err == nil {
		t.Fatal("handleFrame() = nil for a too-short full-frame payload, want error")
	}
	if len(serial.out) != 0 {
		t.Errorf("serial.out = %q, want empty (no ack on drop)", serial.out)
	}
}

func TestLoopRunServicesOneFrameThenStops(t *testing.T) {
	dev := ssd1683.New(fakePins{}, &fakeSPI{}, &fakeClock{}, true)
	serial := &fakeSerial{}
	clock := &fakeClock{}
	l := NewLoop(dev, serial, clock, nil)

	payload := make([]byte, 1+geometry.FrameBytes)
	payload[0] = byte(frame.FlagForceFull)
	serial.in = encodeFrame(payload)

	// After the single queued frame is consumed, ReadByteNonblocking starts
	// returning false forever; a short real deadline stops Run once that
	// frame has been serviced rather than spinning indefinitely.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if string(serial.out) != "OK" {
		t.Errorf("serial.out = %q, want %q", serial.out, "OK")
	}
}
