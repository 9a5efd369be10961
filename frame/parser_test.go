// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package frame

import (
	"encoding/binary"
	"testing"

	"github.com/mindwrite/epd/internal/common"
)

// encodeFrame builds a complete MWF1-framed byte stream for payload.
func encodeFrame(payload []byte) []byte {
	var out []byte
	out = append(out, magic[:]...)

	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(payload)))
	out = append(out, lenBuf...)

	out = append(out, payload...)

	crcBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(crcBuf, common.CRC32IEEE(payload))
	out = append(out, crcBuf...)

	return out
}

// feedAll feeds every byte of data into p, returning the payload and ok from
// whichever Feed call first reports a completed frame. If no call completes
// a frame, it returns (nil, false).
func feedAll(p *Parser, data []byte) ([]byte, bool) {
	for _, b := range data {
		if payload, ok := p.Feed(b); ok {
			out := make([]byte, len(payload))
			copy(out, payload)
			return out, true
		}
	}
	return nil, false
}

func TestParserRoundTrip(t *testing.T) {
	payload := []byte{0x01, 0xAA, 0xBB, 0xCC}
	p := NewParser(nil)

	got, ok := feedAll(p, encodeFrame(payload))
	if !ok {
		t.Fatal("feedAll() ok = false, want true")
	}
	if string(got) != string(payload) {
		t.Errorf("got payload %v, want %v", got, payload)
	}
}

func TestParserResyncAfterGarbage(t *testing.T) {
	payload := []byte{0x00, 0x11, 0x22}
	p := NewParser(nil)

	stream := append([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00}, encodeFrame(payload)...)

	got, ok := feedAll(p, stream)
	if !ok {
		t.Fatal("feedAll() ok = false, want true")
	}
	if string(got) != string(payload) {
		t.Errorf("got payload %v, want %v", got, payload)
	}
}

func TestParserRejectsCRCMismatch(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03}
	p := NewParser(nil)

	frameBytes := encodeFrame(payload)
	frameBytes[len(frameBytes)-1] ^= 0xFF // flip a CRC byte

	if _, ok := feedAll(p, frameBytes); ok {
		t.Fatal("feedAll() ok = true for corrupted CRC, want false")
	}
	if p.state != stateSeekMagic {
		t.Errorf("parser state = %v after CRC reject, want stateSeekMagic", p.state)
	}
}

func TestParserRejectsOversizeLen(t *testing.T) {
	p := NewParser(nil)

	var stream []byte
	stream = append(stream, magic[:]...)
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(maxPayloadLen+1))
	stream = append(stream, lenBuf...)

	if _, ok := feedAll(p, stream); ok {
		t.Fatal("feedAll() ok = true for oversize len, want false")
	}
	if p.state != stateSeekMagic {
		t.Errorf("parser state = %v after oversize len reject, want stateSeekMagic", p.state)
	}
}

// TestParserSyncWindowPreservedOnLenReject exercises the sliding window's
// defining property: an invalid LEN drops back to SeekMagic without
// clearing the 4-byte magic window, unlike the original firmware (which
// zeros its magic position on this same reject). The window must hold
// exactly the bytes it held on entry to ReadLen.
func TestParserSyncWindowPreservedOnLenReject(t *testing.T) {
	p := NewParser(nil)

	feedAll(p, magic[:])
	if p.state != stateReadLen {
		t.Fatalf("state = %v after magic, want stateReadLen", p.state)
	}
	windowBefore := p.window

	badLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(badLen, uint32(maxPayloadLen+1))
	feedAll(p, badLen)

	if p.state != stateSeekMagic {
		t.Fatalf("state = %v after len reject, want stateSeekMagic", p.state)
	}
	if p.window != windowBefore || p.windowLen != 4 {
		t.Errorf("window = %v (len %d) after len reject, want unchanged %v (len 4)", p.window, p.windowLen, windowBefore)
	}
}

// TestParserResyncAfterCRCMismatch confirms a frame can still be recovered
// immediately following a dropped, CRC-invalid frame.
func TestParserResyncAfterCRCMismatch(t *testing.T) {
	bad := encodeFrame([]byte{0x01, 0x02})
	bad[len(bad)-1] ^= 0xFF
	good := encodeFrame([]byte{0x09, 0x0A, 0x0B})

	p := NewParser(nil)
	feedAll(p, bad)

	got, ok := feedAll(p, good)
	if !ok {
		t.Fatal("feedAll() ok = false for frame following a CRC reject, want true")
	}
	if string(got) != string([]byte{0x09, 0x0A, 0x0B}) {
		t.Errorf("got payload %v, want {0x09,0x0A,0x0B}", got)
	}
}

func TestParserCurrentTimeout(t *testing.T) {
	p := NewParser(nil)

	if got := p.currentTimeout(); got != 0 {
		t.Errorf("currentTimeout() in SeekMagic = %v, want 0", got)
	}

	feedAll(p, magic[:])
	if got := p.currentTimeout(); got != timeoutReadLen {
		t.Errorf("currentTimeout() in ReadLen = %v, want %v", got, timeoutReadLen)
	}
}
