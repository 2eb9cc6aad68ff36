// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eformat describes and handles raw tracker events on disk.
//
// A raw event record is laid out as (big endian):
//
//	0xe0 | run u32 | subrun u32 | event u32 | nfrags u16 |
//	nfrags x (0xf4 | size u32 | fragment bytes) |
//	0xa0 | crc16 u16
//
// The CRC-16 checksum covers all the preceding bytes of the record.
package eformat // import "github.com/go-lpc/trkdqm/internal/eformat"

import (
	"github.com/go-lpc/trkdqm/trk"
)

const (
	evHeader  = 0xe0 // event header marker
	frHeader  = 0xf4 // fragment header marker
	evTrailer = 0xa0 // event trailer marker

	maxFrags    = 0xffff
	maxFragSize = 1 << 20
)

// Event is a raw tracker event: the undecoded DTC fragments of one
// event window.
type Event struct {
	ID    trk.EventID
	Frags [][]byte
}

// Size returns the number of fragment bytes held by the event.
func (evt *Event) Size() int {
	n := 0
	for _, frag := range evt.Frags {
		n += len(frag)
	}
	return n
}
