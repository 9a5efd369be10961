// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package frame

import (
	"context"
	"encoding/binary"
	"log"
	"time"

	"github.com/mindwrite/epd/geometry"
	"github.com/mindwrite/epd/internal/common"
	"github.com/mindwrite/epd/internal/hal"
)

// maxPayloadLen bounds ReadLen's accepted length: a full framebuffer plus
// the one flags byte and the largest rect header, with slack. It sizes the
// parser's fixed buffer so no per-frame allocation is needed.
const maxPayloadLen = geometry.FrameBytes + 9

var magic = [4]byte{'M', 'W', 'F', '1'}

type parserState int

const (
	stateSeekMagic parserState = iota
	stateReadLen
	stateReadPayload
	stateReadCRC
)

const (
	timeoutReadLen     = 2000 * time.Millisecond
	timeoutReadPayload = 8000 * time.Millisecond
	timeoutReadCRC     = 2000 * time.Millisecond
)

// Parser implements the MWF1 frame reader state machine: magic, little-
// endian length, payload, little-endian CRC-32. It owns one fixed-size
// payload buffer (no allocation per frame) and never advances state
// without consuming exactly the bytes a phase requires. On any validation
// failure it returns to SeekMagic without clearing its 4-byte sync window,
// so a misaligned magic candidate can still be found by the window
// sliding one byte at a time.
type Parser struct {
	state parserState

	window    [4]byte
	windowLen int

	lenBuf [4]byte
	lenPos int

	payloadLen int
	payloadPos int
	buf        [maxPayloadLen]byte

	crcBuf [4]byte
	crcPos int

	log *log.Logger
}

// NewParser returns a Parser ready to seek the first magic sequence. logger
// may be nil; when non-nil it receives one line per dropped frame, purely
// as a diagnostic side channel with no bearing on the protocol itself.
func NewParser(logger *log.Logger) *Parser {
	return &Parser{log: logger}
}

func (p *Parser) logf(format string, args ...any) {
	if p.log != nil {
		p.log.Printf(format, args...)
	}
}

// Feed advances the state machine by one byte. It returns (payload, true)
// exactly when a frame has been validated; payload aliases the Parser's
// internal buffer and is only valid until the next call to Feed.
func (p *Parser) Feed(b byte) ([]byte, bool) {
	switch p.state {
	case stateSeekMagic:
		p.feedSeekMagic(b)
	case stateReadLen:
		return nil, p.feedReadLen(b)
	case stateReadPayload:
		p.feedReadPayload(b)
	case stateReadCRC:
		return p.feedReadCRC(b)
	}
	return nil, false
}

func (p *Parser) feedSeekMagic(b byte) {
	if p.windowLen < 4 {
		p.window[p.windowLen] = b
		p.windowLen++
	} else {
		p.window[0], p.window[1], p.window[2], p.window[3] = p.window[1], p.window[2], p.window[3], b
	}
	if p.windowLen == 4 && p.window == magic {
		p.state = stateReadLen
		p.lenPos = 0
	}
}

func (p *Parser) feedReadLen(b byte) bool {
	p.lenBuf[p.lenPos] = b
	p.lenPos++
	if p.lenPos != 4 {
		return false
	}

	length := int(binary.LittleEndian.Uint32(p.lenBuf[:]))
	if length == 0 || length > maxPayloadLen {
		p.logf("frame: rejecting len=%d (max %d)", length, maxPayloadLen)
		p.state = stateSeekMagic
		return false
	}

	p.payloadLen = length
	p.payloadPos = 0
	p.state = stateReadPayload
	return false
}

func (p *Parser) feedReadPayload(b byte) {
	p.buf[p.payloadPos] = b
	p.payloadPos++
	if p.payloadPos == p.payloadLen {
		p.state = stateReadCRC
		p.crcPos = 0
	}
}

func (p *Parser) feedReadCRC(b byte) ([]byte, bool) {
	p.crcBuf[p.crcPos] = b
	p.crcPos++
	if p.crcPos != 4 {
		return nil, false
	}

	crcRx := binary.LittleEndian.Uint32(p.crcBuf[:])
	crcCalc := common.CRC32IEEE(p.buf[:p.payloadLen])

	p.state = stateSeekMagic

	if crcCalc != crcRx {
		p.logf("frame: dropping frame, crc mismatch got=%08x want=%08x", crcRx, crcCalc)
		return nil, false
	}
	return p.buf[:p.payloadLen], true
}

// currentTimeout returns the byte-to-byte timeout for the phase the parser
// is currently waiting in, or 0 when no timeout applies (SeekMagic waits
// indefinitely for resync).
func (p *Parser) currentTimeout() time.Duration {
	switch p.state {
	case stateReadLen:
		return timeoutReadLen
	case stateReadPayload:
		return timeoutReadPayload
	case stateReadCRC:
		return timeoutReadCRC
	default:
		return 0
	}
}

// pollInterval bounds how often Run checks the byte source when nothing is
// available, so it doesn't spin a CPU core at 100%.
const pollInterval = 1 * time.Millisecond

// Run drives the parser from serial until a validated frame is produced, a
// per-phase byte timeout elapses (the parser then resyncs and keeps
// running), or ctx is canceled between bytes. It returns (payload, true) on
// success and (nil, false) if ctx was canceled first.
func (p *Parser) Run(ctx context.Context, serial hal.Serial, clock hal.Clock) ([]byte, bool) {
	const noDeadline = int64(-1)
	deadline := noDeadline
	for {
		if err := ctx.Err(); err != nil {
			return nil, false
		}

		b, ok := serial.ReadByteNonblocking()
		if !ok {
			if deadline != noDeadline && clock.MonotonicUS() > deadline {
				p.logf("frame: byte timeout in state %d, resyncing", p.state)
				p.state = stateSeekMagic
				deadline = noDeadline
			}
			clock.SleepMS(int(pollInterval / time.Millisecond))
			continue
		}

		payload, done := p.Feed(b)
		if done {
			return payload, true
		}

		if timeout := p.currentTimeout(); timeout > 0 {
			deadline = clock.MonotonicUS() + timeout.Microseconds()
		} else {
			deadline = noDeadline
		}
	}
}
