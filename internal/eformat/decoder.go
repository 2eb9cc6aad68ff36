// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eformat

import (
	"encoding/binary"
	"io"

	"github.com/go-lpc/trkdqm/internal/crc16"
	"golang.org/x/xerrors"
)

// Decoder reads (and validates) raw events from an underlying data source.
// Decoder computes CRC-16 checksums on the fly.
type Decoder struct {
	r   io.Reader
	buf []byte
	err error
	crc crc16.Hash16
}

// NewDecoder creates a decoder that reads and validates data from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, 4),
		crc: crc16.New(nil),
	}
}

// Decode reads the next event record into evt.
// Decode returns io.EOF when no more events are available.
func (dec *Decoder) Decode(evt *Event) error {
	dec.crc.Reset()

	v := dec.readU8()
	if dec.err != nil {
		if dec.err == io.EOF {
			return io.EOF
		}
		return xerrors.Errorf("eformat: could not read event header marker: %w", dec.err)
	}
	if v != evHeader {
		return xerrors.Errorf("eformat: invalid event header marker (got=0x%x)", v)
	}

	evt.ID.Run = dec.readU32()
	evt.ID.SubRun = dec.readU32()
	evt.ID.Event = dec.readU32()
	nfrags := int(dec.readU16())
	if dec.err != nil {
		return xerrors.Errorf("eformat: could not read event header: %w", dec.unexpected())
	}

	evt.Frags = make([][]byte, nfrags)
	for i := range evt.Frags {
		v := dec.readU8()
		if dec.err != nil {
			return xerrors.Errorf(
				"eformat: event %v: could not read fragment %d header marker: %w",
				evt.ID, i, dec.unexpected(),
			)
		}
		if v != frHeader {
			return xerrors.Errorf(
				"eformat: event %v: invalid fragment %d header marker (got=0x%x)",
				evt.ID, i, v,
			)
		}

		size := dec.readU32()
		if dec.err == nil && size > maxFragSize {
			return xerrors.Errorf(
				"eformat: event %v: fragment %d too big (%d bytes)",
				evt.ID, i, size,
			)
		}
		frag := make([]byte, size)
		dec.read(frag)
		if dec.err != nil {
			return xerrors.Errorf(
				"eformat: event %v: could not read fragment %d: %w",
				evt.ID, i, dec.unexpected(),
			)
		}
		evt.Frags[i] = frag
	}

	v = dec.readU8()
	if dec.err != nil {
		return xerrors.Errorf(
			"eformat: event %v: could not read event trailer marker: %w",
			evt.ID, dec.unexpected(),
		)
	}
	if v != evTrailer {
		return xerrors.Errorf("eformat: event %v: invalid event trailer marker (got=0x%x)", evt.ID, v)
	}

	comp := dec.crc.Sum16()
	recv := dec.readU16()
	if dec.err != nil {
		return xerrors.Errorf(
			"eformat: event %v: could not read CRC-16: %w",
			evt.ID, dec.unexpected(),
		)
	}
	if comp != recv {
		return xerrors.Errorf(
			"eformat: event %v: inconsistent CRC: recv=0x%04x comp=0x%04x",
			evt.ID, recv, comp,
		)
	}

	return nil
}

// unexpected converts a premature end of stream into io.ErrUnexpectedEOF.
func (dec *Decoder) unexpected() error {
	if dec.err == io.EOF {
		dec.err = io.ErrUnexpectedEOF
	}
	return dec.err
}

func (dec *Decoder) read(p []byte) {
	if dec.err != nil {
		return
	}
	_, dec.err = io.ReadFull(dec.r, p)
	_, _ = dec.crc.Write(p) // can not fail.
}

func (dec *Decoder) readU8() uint8 {
	dec.read(dec.buf[:1])
	return dec.buf[0]
}

func (dec *Decoder) readU16() uint16 {
	dec.read(dec.buf[:2])
	return binary.BigEndian.Uint16(dec.buf[:2])
}

func (dec *Decoder) readU32() uint32 {
	dec.read(dec.buf[:4])
	return binary.BigEndian.Uint32(dec.buf[:4])
}
