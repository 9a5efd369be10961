// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Command sendframe is a host-side test tool: it renders a demo image with
// github.com/fogleman/gg and github.com/golang/freetype/truetype, packs it
// to the panel's 1bpp layout, frames it in the MWF1 wire format, and sends
// it to a mindwrite-device over a serial port, waiting for its ACK.
package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"image"
	"image/color"
	"log"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"go.bug.st/serial"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/mindwrite/epd/frame"
	"github.com/mindwrite/epd/geometry"
	"github.com/mindwrite/epd/internal/common"
)

func main() {
	var (
		port       = flag.String("port", "/dev/ttyACM0", "serial port the device presents")
		baud       = flag.Int("baud", 115200, "serial baud rate")
		text       = flag.String("text", "Hello from mindwrite", "text to render in the demo frame")
		forceFull  = flag.Bool("force-full", true, "request a full (cleared) refresh")
		ackTimeout = flag.Duration("ack-timeout", 5*time.Second, "how long to wait for the device's ACK")
	)
	flag.Parse()

	logger := log.New(log.Writer(), "sendframe: ", log.LstdFlags)

	img := renderDemoImage(*text)
	pixels := packImage(img)

	flags := frame.Flags(0)
	if *forceFull {
		flags |= frame.FlagForceFull
	}

	payload := make([]byte, 1+len(pixels))
	payload[0] = byte(flags)
	copy(payload[1:], pixels)

	wire := encodeMWF1(payload)

	mode := &serial.Mode{BaudRate: *baud}
	p, err := serial.Open(*port, mode)
	if err != nil {
		logger.Fatalf("open %q: %v", *port, err)
	}
	defer p.Close()

	if err := p.SetReadTimeout(*ackTimeout); err != nil {
		logger.Fatalf("set read timeout: %v", err)
	}

	if _, err := p.Write(wire); err != nil {
		logger.Fatalf("write frame: %v", err)
	}
	logger.Printf("sent %d-byte frame (%d pixel bytes)", len(wire), len(pixels))

	ack := make([]byte, 2)
	n, err := p.Read(ack)
	if err != nil {
		logger.Fatalf("read ack: %v", err)
	}
	if n != 2 || string(ack) != "OK" {
		logger.Fatalf("unexpected ack: %q (%d bytes)", ack[:n], n)
	}
	logger.Printf("device acked")
}

// renderDemoImage draws a title, a border, and a row of circles, the same
// demo shapes periph.io's own (normally commented-out) gg/freetype example
// draws, at the panel's real resolution.
func renderDemoImage(text string) image.Image {
	dc := gg.NewContext(geometry.Width, geometry.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
	face := truetype.NewFace(f, &truetype.Options{Size: 28})
	dc.SetFontFace(face)

	tw, th := dc.MeasureString(text)
	padding := 16.0
	dc.DrawRoundedRectangle(padding, padding, tw+padding*2, th+padding*2, 10)
	dc.Stroke()
	dc.DrawString(text, padding*2, padding*2+th)

	for i := 0; i < 12; i++ {
		dc.DrawCircle(float64(40+32*i), float64(geometry.Height-40), 12)
	}
	dc.Fill()

	return dc.Image()
}

// packImage converts img to the panel's 1bpp layout: MSB-leftmost bits,
// packed row-major, 1 meaning white. Pixels are thresholded on luminance.
func packImage(img image.Image) []byte {
	buf := make([]byte, geometry.FrameBytes)
	bounds := img.Bounds()
	for y := 0; y < geometry.Height; y++ {
		for x := 0; x < geometry.Width; x++ {
			white := true
			if x < bounds.Dx() && y < bounds.Dy() {
				white = isWhite(img.At(bounds.Min.X+x, bounds.Min.Y+y))
			}
			if white {
				buf[y*geometry.BytesPerRow+x/8] |= 1 << uint(7-x%8)
			}
		}
	}
	return buf
}

func isWhite(c color.Color) bool {
	gray := color.GrayModel.Convert(c).(color.Gray)
	return gray.Y >= 128
}

// encodeMWF1 wraps payload in the magic/len/payload/crc32 wire format.
func encodeMWF1(payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("MWF1")

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	buf.Write(lenBuf[:])

	buf.Write(payload)

	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], common.CRC32IEEE(payload))
	buf.Write(crcBuf[:])

	return buf.Bytes()
}
