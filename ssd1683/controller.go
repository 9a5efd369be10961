// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ssd1683

import "github.com/mindwrite/epd/geometry"

// Controller command opcodes, grouped by which half recognizes them. Master
// and slave share one SPI bus; each half only reacts to its own opcodes.
const (
	cmdSoftwareReset byte = 0x12

	cmdMasterEntryMode byte = 0x11
	cmdMasterXWindow   byte = 0x44
	cmdMasterYWindow   byte = 0x45
	cmdMasterXCursor   byte = 0x4E
	cmdMasterYCursor   byte = 0x4F
	cmdMasterNewRAM    byte = 0x24
	cmdMasterOldRAM    byte = 0x26

	cmdSlaveSelect   byte = 0x91
	cmdSlaveXWindow  byte = 0xC4
	cmdSlaveYWindow  byte = 0xC5
	cmdSlaveXCursor  byte = 0xCE
	cmdSlaveYCursor  byte = 0xCF
	cmdSlaveNewRAM   byte = 0xA4
	cmdSlaveOldRAM   byte = 0xA6

	cmdBorderWaveform byte = 0x3C
	cmdTempSensor     byte = 0x18
	cmdUpdateCtrl2    byte = 0x22
	cmdMasterActivate byte = 0x20
)

const (
	dataEntryModeXIncYDec byte = 0x05
	slaveSelectValue      byte = 0x04
	borderWaveformValue   byte = 0x80
	tempSensorValue       byte = 0x80
	updateWaveformFull    byte = 0xF7
	updateWaveformPartial byte = 0xFF
)

// controller is the low-level SPI command/data primitive set every half
// addressing helper is written against. Dev's transaction type (bus.go)
// implements it; tests substitute a recording fake, mirroring the
// teacher's fakeController pattern.
type controller interface {
	sendCommand(cmd byte)
	sendData(data []byte)
	sendByte(b byte)
	waitIdle(timeoutMS int) bool
}

// half is one SSD1683 controller's opcode table and X-addressing mapping.
// Parameterizing master/slave this way avoids duplicating every
// addressing/transmission routine while keeping the slave's reversed X
// mapping an explicit, testable value.
type half struct {
	name string

	// entryModeCmd is 0 for halves that don't carry their own data-entry
	// register (only the master does; the slave's addressing direction is
	// configured by selectCmd/selectValue instead).
	entryModeCmd, entryModeValue byte

	// selectCmd is 0 for halves with no select register (only the slave
	// has one).
	selectCmd, selectValue byte

	xWindowCmd, yWindowCmd byte
	xCursorCmd, yCursorCmd byte
	newRAMCmd, oldRAMCmd   byte

	// mapX converts a global byte-column index into this half's local X
	// register value.
	mapX func(globalByteCol int) byte
}

var masterHalf = half{
	name:           "master",
	entryModeCmd:   cmdMasterEntryMode,
	entryModeValue: dataEntryModeXIncYDec,
	xWindowCmd:     cmdMasterXWindow,
	yWindowCmd:     cmdMasterYWindow,
	xCursorCmd:     cmdMasterXCursor,
	yCursorCmd:     cmdMasterYCursor,
	newRAMCmd:      cmdMasterNewRAM,
	oldRAMCmd:      cmdMasterOldRAM,
	mapX:           func(c int) byte { return byte(c) },
}

var slaveHalf = half{
	name:        "slave",
	selectCmd:   cmdSlaveSelect,
	selectValue: slaveSelectValue,
	xWindowCmd:  cmdSlaveXWindow,
	yWindowCmd:  cmdSlaveYWindow,
	xCursorCmd:  cmdSlaveXCursor,
	yCursorCmd:  cmdSlaveYCursor,
	newRAMCmd:   cmdSlaveNewRAM,
	oldRAMCmd:   cmdSlaveOldRAM,
	mapX: func(c int) byte {
		return byte(0x31 - (c - geometry.SlaveStart))
	},
}

// setupAddressing programs one half's data entry mode (if any), select
// register (if any), X/Y window, and cursor. xStart/xEnd are already in
// this half's local X numbering (the caller applies mapX for the slave).
// yBottom/yTop are raw pixel rows; the controller counts Y down from
// yBottom to yTop.
func setupAddressing(ctrl controller, h half, xStart, xEnd byte, yTop, yBottom uint16) {
	if h.entryModeCmd != 0 {
		ctrl.sendCommand(h.entryModeCmd)
		ctrl.sendByte(h.entryModeValue)
	}
	if h.selectCmd != 0 {
		ctrl.sendCommand(h.selectCmd)
		ctrl.sendByte(h.selectValue)
	}

	ctrl.sendCommand(h.xWindowCmd)
	ctrl.sendData([]byte{xStart, xEnd})

	ctrl.sendCommand(h.yWindowCmd)
	ctrl.sendData([]byte{
		byte(yBottom & 0xFF), byte(yBottom >> 8),
		byte(yTop & 0xFF), byte(yTop >> 8),
	})

	ctrl.sendCommand(h.xCursorCmd)
	ctrl.sendByte(xStart)

	ctrl.sendCommand(h.yCursorCmd)
	ctrl.sendData([]byte{byte(yBottom & 0xFF), byte(yBottom >> 8)})
}

// triggerUpdate issues the update waveform and master activation command,
// then waits for the controller to go idle.
func triggerUpdate(ctrl controller, waveform byte, timeoutMS int) bool {
	ctrl.sendCommand(cmdUpdateCtrl2)
	ctrl.sendByte(waveform)
	ctrl.sendCommand(cmdMasterActivate)
	return ctrl.waitIdle(timeoutMS)
}

// xform is the compile-time byte transform applied to every pixel byte
// written to NEW/OLD RAM. Both knobs default off; they exist to tune for
// panel lots needing reversed bit order or inverted polarity, and must
// apply uniformly everywhere a byte reaches 0x24, 0x26, 0xA4, or 0xA6.
const (
	bitReverse  = false
	invertBytes = false
)

func bitrev8(b byte) byte {
	b = b>>4 | b<<4
	b = (b&0xCC)>>2 | (b&0x33)<<2
	b = (b&0xAA)>>1 | (b&0x55)<<1
	return b
}

func xform(b byte) byte {
	if bitReverse {
		b = bitrev8(b)
	}
	if invertBytes {
		b = ^b
	}
	return b
}

// writeFullScreenRAM writes NEW then OLD RAM for one half's global byte
// column range, for a full-screen refresh: NEW from frame (column-major,
// row decreasing from bottom to top), OLD as zero bytes (a full refresh
// always clears OLD rather than writing the previous framebuffer).
func writeFullScreenRAM(ctrl controller, h half, colStart, colEnd int, frame []byte) {
	cols := colEnd - colStart + 1

	newBuf := make([]byte, 0, cols*geometry.Height)
	for col := colStart; col <= colEnd; col++ {
		for y := geometry.Height - 1; y >= 0; y-- {
			newBuf = append(newBuf, xform(frame[y*geometry.BytesPerRow+col]))
		}
	}
	ctrl.sendCommand(h.newRAMCmd)
	ctrl.sendData(newBuf)

	ctrl.sendCommand(h.oldRAMCmd)
	ctrl.sendData(make([]byte, cols*geometry.Height))
}

// writeWindowRAM writes NEW then OLD RAM for one half's intersected global
// byte column range within a partial-refresh window. rectNew is the
// rectangle's packed pixel bytes (rectWidthBytes columns wide); oldFull is
// the full, previously displayed framebuffer.
func writeWindowRAM(ctrl controller, h half, colStart, colEnd int, yTop, yBottom, rectColStart int, rectWidthBytes int, rectNew, oldFull []byte) {
	cols := colEnd - colStart + 1
	rows := yBottom - yTop + 1

	newBuf := make([]byte, 0, cols*rows)
	for col := colStart; col <= colEnd; col++ {
		localCol := col - rectColStart
		for y := yBottom; y >= yTop; y-- {
			localRow := y - yTop
			newBuf = append(newBuf, xform(rectNew[localRow*rectWidthBytes+localCol]))
		}
	}
	ctrl.sendCommand(h.newRAMCmd)
	ctrl.sendData(newBuf)

	oldBuf := make([]byte, 0, cols*rows)
	for col := colStart; col <= colEnd; col++ {
		for y := yBottom; y >= yTop; y-- {
			oldBuf = append(oldBuf, xform(oldFull[y*geometry.BytesPerRow+col]))
		}
	}
	ctrl.sendCommand(h.oldRAMCmd)
	ctrl.sendData(oldBuf)
}
