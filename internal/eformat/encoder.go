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

// Encoder writes raw events to an output stream.
// Encoder computes the CRC-16 checksum on the fly and appends it
// at the end of each event record.
type Encoder struct {
	w   io.Writer
	buf []byte
	err error
	crc crc16.Hash16
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, 4),
		crc: crc16.New(nil),
	}
}

// Encode writes the event record to the stream.
func (enc *Encoder) Encode(evt *Event) error {
	if evt == nil {
		return nil
	}
	if len(evt.Frags) > maxFrags {
		return xerrors.Errorf("eformat: too many fragments (%d)", len(evt.Frags))
	}

	enc.crc.Reset()

	enc.writeU8(evHeader)
	if enc.err != nil {
		return xerrors.Errorf("eformat: could not write event header marker: %w", enc.err)
	}
	enc.writeU32(evt.ID.Run)
	enc.writeU32(evt.ID.SubRun)
	enc.writeU32(evt.ID.Event)
	enc.writeU16(uint16(len(evt.Frags)))

	for i, frag := range evt.Frags {
		if len(frag) > maxFragSize {
			return xerrors.Errorf("eformat: fragment %d too big (%d bytes)", i, len(frag))
		}
		enc.writeU8(frHeader)
		enc.writeU32(uint32(len(frag)))
		enc.write(frag)
	}
	enc.writeU8(evTrailer)

	crc := enc.crc.Sum16()
	enc.writeU16(crc)

	if enc.err != nil {
		return xerrors.Errorf("eformat: could not write event %v: %w", evt.ID, enc.err)
	}
	return nil
}

func (enc *Encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.Write(p)
	_, _ = enc.crc.Write(p) // can not fail.
}

func (enc *Encoder) writeU8(v uint8) {
	enc.buf[0] = v
	enc.write(enc.buf[:1])
}

func (enc *Encoder) writeU16(v uint16) {
	binary.BigEndian.PutUint16(enc.buf[:2], v)
	enc.write(enc.buf[:2])
}

func (enc *Encoder) writeU32(v uint32) {
	binary.BigEndian.PutUint32(enc.buf[:4], v)
	enc.write(enc.buf[:4])
}
