// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ssd1683

// txn is the low-level SPI command/data primitive set, wrapping the HAL
// pins/bus/clock for one Dev. It short-circuits on the first HAL error, so
// a long chained command sequence reads linearly without an if-err check
// after every call.
type txn struct {
	d   *Dev
	err error
}

func (t *txn) csOut(level bool) {
	if t.err != nil {
		return
	}
	t.err = t.d.pins.SetCS(level)
}

func (t *txn) dcOut(level bool) {
	if t.err != nil {
		return
	}
	t.err = t.d.pins.SetDC(level)
}

func (t *txn) rstOut(level bool) {
	if t.err != nil {
		return
	}
	t.err = t.d.pins.SetRST(level)
}

func (t *txn) spiWrite(b []byte) {
	if t.err != nil {
		return
	}
	t.err = t.d.spi.Write(b)
}

// sendCommand asserts CS, drives DC low, writes the command byte, and
// deasserts CS.
func (t *txn) sendCommand(cmd byte) {
	t.dcOut(false)
	t.csOut(false)
	t.spiWrite([]byte{cmd})
	t.csOut(true)
}

// sendData writes a data byte sequence, batching every byte under a single
// CS assertion rather than toggling CS per byte.
func (t *txn) sendData(data []byte) {
	t.dcOut(true)
	t.csOut(false)
	t.spiWrite(data)
	t.csOut(true)
}

func (t *txn) sendByte(b byte) {
	t.sendData([]byte{b})
}

// waitIdle polls BUSY at the configured active polarity, returning true
// once the panel goes idle or false on timeout. A timeout is not folded
// into t.err: it is a non-fatal, caller-visible boolean, not a HAL fault.
func (t *txn) waitIdle(timeoutMS int) bool {
	if t.err != nil {
		return false
	}
	const pollIntervalMS = 5
	deadline := t.d.clock.MonotonicUS() + int64(timeoutMS)*1000
	for {
		busy, err := t.d.pins.ReadBusy()
		if err != nil {
			t.err = err
			return false
		}
		if busy != t.d.busyActiveLevel {
			return true
		}
		if t.d.clock.MonotonicUS() >= deadline {
			return false
		}
		t.d.clock.SleepMS(pollIntervalMS)
	}
}

var _ controller = (*txn)(nil)
