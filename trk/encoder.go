// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trk

import (
	"io"

	"golang.org/x/xerrors"
)

// LinkBlock is the data of one link inside a fragment.
type LinkBlock struct {
	Header LinkHeader
	Hits   []Hit
}

// Encoder writes DTC fragments to an output stream.
type Encoder struct {
	w      io.Writer
	buf    []byte
	err    error
	offset int
}

// NewEncoder returns a new Encoder that writes to w.
// The link blocks of each fragment start at the given 16-bit word offset.
func NewEncoder(w io.Writer, offset int) *Encoder {
	return &Encoder{
		w:      w,
		offset: offset,
	}
}

// Encode writes one fragment made of the provided link blocks.
//
// The number of data packets of each link header is derived from its
// hits. A zero link byte count is replaced by the size of the block.
// The first word of the fragment holds the fragment size in bytes.
func (enc *Encoder) Encode(blocks ...LinkBlock) error {
	if enc.err != nil {
		return enc.err
	}
	if enc.offset < 1 {
		return xerrors.Errorf("trk: invalid data header offset %d", enc.offset)
	}

	words := enc.offset
	for _, blk := range blocks {
		words += linkHeaderWords + len(blk.Hits)*hitWords
	}
	size := words * wordSize
	if size > 0xffff {
		return xerrors.Errorf("trk: fragment too big (%d bytes)", size)
	}

	enc.reserve(size)
	buf := enc.buf[:size]
	for i := range buf {
		buf[i] = 0
	}
	putU16(buf, 0, uint16(size))

	pos := enc.offset
	for _, blk := range blocks {
		hdr := blk.Header
		hdr.NumPackets = uint16(2 * len(blk.Hits))
		if hdr.NumPackets > 0x7ff {
			return xerrors.Errorf("trk: too many hits for link %d (%d)", hdr.LinkID, len(blk.Hits))
		}
		if hdr.ByteCount == 0 {
			hdr.ByteCount = uint16(hdr.words() * wordSize)
		}
		hdr.encode(at(buf, pos))
		pos += linkHeaderWords
		for i := range blk.Hits {
			blk.Hits[i].encode(at(buf, pos))
			pos += hitWords
		}
	}

	_, enc.err = enc.w.Write(buf)
	if enc.err != nil {
		return xerrors.Errorf("trk: could not write fragment: %w", enc.err)
	}
	return nil
}

func (enc *Encoder) reserve(n int) {
	if cap(enc.buf) < n {
		enc.buf = make([]byte, n)
	}
}
