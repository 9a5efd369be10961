// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package geometry holds the fixed panel dimensions shared by the frame
// transport and the ssd1683 driver. The panel geometry is compile-time
// constant: this firmware core drives exactly one panel model
// (GDEY0579T93, 792x272) split across two SSD1683 controller halves.
package geometry

const (
	// Width is the panel width in pixels.
	Width = 792
	// Height is the panel height in pixels.
	Height = 272
	// BytesPerRow is the number of packed 1bpp bytes per display row.
	BytesPerRow = Width / 8 // 99
	// FrameBytes is the size of one full 1bpp framebuffer.
	FrameBytes = BytesPerRow * Height // 26928

	// MasterCols is the number of byte columns driven by the master half.
	MasterCols = 50
	// SlaveCols is the number of byte columns driven by the slave half.
	SlaveCols = 50
	// SlaveStart is the global byte column index where the slave half
	// begins. Column SlaveStart is the overlap byte shared by both halves.
	SlaveStart = 49
)
