// Copyright 2026 The Mindwrite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package common

import "testing"

func TestCRC32IEEE(t *testing.T) {
	var tests = []struct {
		name   string
		bytes  []byte
		result uint32
	}{
		{name: "empty", bytes: nil, result: 0x00000000},
		{name: "check vector", bytes: []byte("123456789"), result: 0xCBF43926},
		{name: "single byte", bytes: []byte{0x00}, result: 0xD202EF8D},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := CRC32IEEE(test.bytes); got != test.result {
				t.Errorf("CRC32IEEE(%#v) = 0x%08X, want 0x%08X", test.bytes, got, test.result)
			}
		})
	}
}
