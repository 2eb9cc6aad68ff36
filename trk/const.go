// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trk

const (
	NumChannels = 96 // number of channels per link
	NumLinks    = 8  // link IDs are 3 bits wide
	NumSamples  = 15 // ADC samples per hit

	SideCAL  = 0 // CAL side FPGA
	SideHV   = 1 // HV side FPGA
	NumSides = 2

	LinkHeaderSize = linkHeaderWords * wordSize
	HitSize        = hitWords * wordSize

	DefaultMaxHitsPerChannel = 20
)

const (
	wordSize        = 2  // data are laid out in 16-bit words
	linkHeaderWords = 8  // DTC data header packet
	hitWords        = 16 // hit packet + ADC packet

	chanFold     = 128
	chansPerSide = NumChannels / NumSides

	validWeight = 10
)
