// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trk

import (
	"encoding/binary"
)

// LinkHeader is the DTC data header packet preceding the hits of a link.
type LinkHeader struct {
	ByteCount   uint16
	SubsystemID uint8 // 4 bits
	PacketType  uint8 // 4 bits
	LinkID      uint8 // 3 bits
	Valid       bool
	NumPackets  uint16 // 11 bits
	EventTag    uint64 // 48 bits event window tag
	Status      uint8
	Version     uint8
	DTCID       uint8
	EVBMode     uint8
}

// DecodeLinkHeader decodes a link header from the first LinkHeaderSize
// bytes of p.
func DecodeLinkHeader(p []byte) (LinkHeader, error) {
	var hdr LinkHeader
	if len(p) < LinkHeaderSize {
		return hdr, newError(
			ErrTruncated, -1, -1,
			"trk: link header needs %d bytes (got=%d)", LinkHeaderSize, len(p),
		)
	}

	w1 := u16(p, 1)
	w6 := u16(p, 6)
	w7 := u16(p, 7)

	hdr.ByteCount = u16(p, 0)
	hdr.SubsystemID = uint8(w1 & 0xf)
	hdr.PacketType = uint8(w1>>4) & 0xf
	hdr.LinkID = uint8(w1>>8) & 0x7
	hdr.Valid = w1>>15 != 0
	hdr.NumPackets = u16(p, 2) & 0x7ff
	hdr.EventTag = uint64(u16(p, 3)) | uint64(u16(p, 4))<<16 | uint64(u16(p, 5))<<32
	hdr.Status = uint8(w6)
	hdr.Version = uint8(w6 >> 8)
	hdr.DTCID = uint8(w7)
	hdr.EVBMode = uint8(w7 >> 8)

	return hdr, nil
}

// NumHits returns the number of hits announced by the header.
func (hdr LinkHeader) NumHits() int {
	return int(hdr.NumPackets) / 2
}

// words returns the size, in 16-bit words, of the header and its data packets.
func (hdr LinkHeader) words() int {
	return (int(hdr.NumPackets) + 1) * linkHeaderWords
}

func (hdr LinkHeader) encode(p []byte) {
	w1 := uint16(hdr.SubsystemID&0xf) |
		uint16(hdr.PacketType&0xf)<<4 |
		uint16(hdr.LinkID&0x7)<<8
	if hdr.Valid {
		w1 |= 1 << 15
	}
	putU16(p, 0, hdr.ByteCount)
	putU16(p, 1, w1)
	putU16(p, 2, hdr.NumPackets&0x7ff)
	putU16(p, 3, uint16(hdr.EventTag))
	putU16(p, 4, uint16(hdr.EventTag>>16))
	putU16(p, 5, uint16(hdr.EventTag>>32))
	putU16(p, 6, uint16(hdr.Status)|uint16(hdr.Version)<<8)
	putU16(p, 7, uint16(hdr.DTCID)|uint16(hdr.EVBMode)<<8)
}

// u16 returns the i-th little-endian 16-bit word of p.
func u16(p []byte, i int) uint16 {
	return binary.LittleEndian.Uint16(p[wordSize*i:])
}

func putU16(p []byte, i int, v uint16) {
	binary.LittleEndian.PutUint16(p[wordSize*i:], v)
}
