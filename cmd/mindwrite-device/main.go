// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Command mindwrite-device is the firmware-equivalent entry point: it binds
// a physical SSD1683 panel and a USB CDC serial port to the application
// loop, and runs until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/mindwrite/epd/app"
	"github.com/mindwrite/epd/internal/hal/periphhal"
	"github.com/mindwrite/epd/internal/hal/serialhal"
	"github.com/mindwrite/epd/internal/termpreview"
	"github.com/mindwrite/epd/ssd1683"
)

func main() {
	var (
		spiBus    = flag.String("spi", "", "SPI bus name (empty for default)")
		csPin     = flag.String("cs", "GPIO8", "chip select pin name")
		dcPin     = flag.String("dc", "GPIO25", "data/command pin name")
		rstPin    = flag.String("rst", "GPIO17", "reset pin name")
		busyPin   = flag.String("busy", "GPIO24", "BUSY pin name")
		busyHigh  = flag.Bool("busy-active-high", true, "BUSY line is active-high")
		spiHz     = flag.Int("hz", 20000000, "SPI clock frequency in Hz")
		serialDev = flag.String("serial", "/dev/ttyGS0", "USB CDC serial device path")
		baud      = flag.Int("baud", 115200, "serial baud rate")
		preview   = flag.Bool("preview", false, "render frames to the terminal")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "mindwrite-device: ", log.LstdFlags|log.Lmicroseconds)

	if _, err := host.Init(); err != nil {
		logger.Fatalf("periph.io host init: %v", err)
	}

	bus, err := spireg.Open(*spiBus)
	if err != nil {
		logger.Fatalf("open spi bus %q: %v", *spiBus, err)
	}
	defer bus.Close()

	cs := gpioreg.ByName(*csPin)
	dc := gpioreg.ByName(*dcPin)
	rst := gpioreg.ByName(*rstPin)
	busy := gpioreg.ByName(*busyPin)
	if cs == nil || dc == nil || rst == nil || busy == nil {
		logger.Fatalf("one or more GPIO pins not found: cs=%v dc=%v rst=%v busy=%v", cs, dc, rst, busy)
	}

	hz := physic.Frequency(*spiHz) * physic.Hertz
	if hz <= 0 || hz > periphhal.MaxSPIHz {
		hz = periphhal.MaxSPIHz
	}
	device, err := periphhal.New(bus, cs, dc, rst, busy, hz)
	if err != nil {
		logger.Fatalf("init periph HAL: %v", err)
	}

	port, err := serialhal.Open(*serialDev, *baud)
	if err != nil {
		logger.Fatalf("open serial %q: %v", *serialDev, err)
	}
	defer port.Close()

	dev := ssd1683.New(device, device, device, *busyHigh)
	loop := app.NewLoop(dev, port, device, logger)

	if *preview && termpreview.Enabled() {
		loop.SetPreview(termpreview.New())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received %s, shutting down", sig)
		cancel()
	}()

	logger.Printf("starting, spi=%s serial=%s preview=%v", *spiBus, *serialDev, *preview)
	if err := loop.Run(ctx); err != nil {
		logger.Fatalf("loop: %v", err)
	}
	logger.Printf("exiting")
}
