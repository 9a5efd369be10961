// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package periphhal implements internal/hal's Pins, SPI and Clock
// interfaces over periph.io/x/conn/v3, for boards where the panel's SPI
// bus and GPIO lines are directly addressable by the host (e.g. a
// Raspberry Pi wired to the GDEY0579T93 panel). Board bring-up itself
// (periph.io/x/host/v3's host.Init, bus/pin registry lookups) is the
// caller's responsibility.
package periphhal

import (
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// MaxSPIHz is the vendor's documented SPI clock ceiling for this panel.
const MaxSPIHz = 20 * physic.MegaHertz

// Device wires gpio.PinOut/PinIn and an spi.Conn into the hal.Pins,
// hal.SPI and hal.Clock interfaces the core consumes.
type Device struct {
	cs, dc, rst gpio.PinOut
	busy        gpio.PinIn
	conn        spi.Conn

	start time.Time
}

// New configures CS/DC/RST as outputs and BUSY as an input, opens the SPI
// connection at hz (capped by the caller to MaxSPIHz), and returns a ready
// Device.
func New(port spi.Port, cs, dc, rst gpio.PinOut, busy gpio.PinIn, hz physic.Frequency) (*Device, error) {
	conn, err := port.Connect(hz, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	if err := cs.Out(gpio.High); err != nil {
		return nil, err
	}
	if err := dc.Out(gpio.Low); err != nil {
		return nil, err
	}
	if err := rst.Out(gpio.High); err != nil {
		return nil, err
	}
	if err := busy.In(gpio.Float, gpio.NoEdge); err != nil {
		return nil, err
	}
	return &Device{cs: cs, dc: dc, rst: rst, busy: busy, conn: conn, start: time.Now()}, nil
}

func level(v bool) gpio.Level {
	if v {
		return gpio.High
	}
	return gpio.Low
}

func (d *Device) SetCS(v bool) error  { return d.cs.Out(level(v)) }
func (d *Device) SetDC(v bool) error  { return d.dc.Out(level(v)) }
func (d *Device) SetRST(v bool) error { return d.rst.Out(level(v)) }

func (d *Device) ReadBusy() (bool, error) {
	return d.busy.Read() == gpio.High, nil
}

func (d *Device) Write(b []byte) error {
	return d.conn.Tx(b, nil)
}

func (d *Device) SleepMS(n int) {
	time.Sleep(time.Duration(n) * time.Millisecond)
}

func (d *Device) MonotonicUS() int64 {
	return time.Since(d.start).Microseconds()
}
