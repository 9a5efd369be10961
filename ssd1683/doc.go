// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package ssd1683 drives a dual-controller SSD1683 e-paper panel
// (GDEY0579T93 glass, 792x272, 1bpp) over SPI.
//
// The panel is split into two cooperating controller halves: a master
// driving the left 400 pixels and a slave driving the right 400 pixels,
// sharing one overlap byte column and addressed through different command
// opcodes (see half in controller.go). Both halves fill their RAM
// column-major with pixel rows decreasing from bottom to top, per the
// vendor's data entry mode.
//
// Datasheet: SSD1683 (Solomon Systech), as used on the Good Display
// GDEY0579T93 5.79" panel.
package ssd1683
