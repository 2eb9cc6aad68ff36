// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trk

import (
	"encoding/binary"
)

// Summary is the contribution of one fragment to its event.
type Summary struct {
	NBytes int // declared fragment size
	NHits  int
	Valid  int
}

// Decoder walks DTC fragments, link block after link block, and stores
// the decoded hits into the link and channel records of an event.
type Decoder struct {
	minBytes int
	maxBytes int
	offset   int // data header offset, in 16-bit words
	maxHits  int

	active [NumLinks]bool
	refs   [NumLinks][NumSides]int
}

// NewDecoder creates a fragment decoder from the provided configuration.
func NewDecoder(cfg Config) (*Decoder, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	dec := &Decoder{
		minBytes: cfg.MinFragmentBytes,
		maxBytes: cfg.MaxFragmentBytes,
		offset:   cfg.HeaderOffset,
		maxHits:  cfg.MaxHitsPerChannel,
	}
	for _, id := range cfg.ActiveLinks {
		dec.active[id] = true
		dec.refs[id], _ = cfg.RefChannels(id)
	}
	return dec, nil
}

// Decode decodes a fragment into evt.
//
// Decoding stops at the first error. Links and hits decoded before the
// error are kept in evt and accounted for in the returned summary.
func (dec *Decoder) Decode(evt *Event, frag []byte) (Summary, error) {
	var sum Summary
	if len(frag) < wordSize {
		return sum, newError(
			ErrTruncated, -1, -1,
			"trk: could not read fragment size (len=%d)", len(frag),
		)
	}

	sum.NBytes = int(binary.LittleEndian.Uint16(frag))
	if sum.NBytes < dec.minBytes || sum.NBytes > dec.maxBytes {
		return sum, newError(
			ErrFragmentSize, -1, -1,
			"trk: invalid fragment size %d (min=%d, max=%d)",
			sum.NBytes, dec.minBytes, dec.maxBytes,
		)
	}

	var (
		pos = dec.offset
		end = sum.NBytes / wordSize
	)

	for pos < end {
		hdr, err := DecodeLinkHeader(at(frag, pos))
		if err != nil {
			return sum, newError(
				ErrTruncated, -1, -1,
				"trk: could not decode link header at word %d: %w", pos, err,
			)
		}

		id := int(hdr.LinkID)
		if !dec.active[id] {
			return sum, newError(
				ErrUnknownLink, id, -1,
				"trk: link %d is not active", id,
			)
		}

		lnk := evt.Links[id]
		if lnk == nil {
			lnk = newLink(id, dec.refs[id], dec.maxHits)
			evt.Links[id] = lnk
		}
		lnk.reset()
		lnk.NBytes = int(hdr.ByteCount)
		lnk.NPackets = int(hdr.NumPackets)
		lnk.NHits = hdr.NumHits()
		lnk.Tag = hdr.EventTag
		lnk.Valid = 0
		if hdr.Valid {
			lnk.Valid = 1
		}

		sum.NHits += lnk.NHits
		sum.Valid += validWeight * lnk.Valid

		for i := 0; i < lnk.NHits; i++ {
			hit, err := DecodeHit(at(frag, pos+linkHeaderWords+i*hitWords))
			if err != nil {
				return sum, newError(
					ErrTruncated, id, -1,
					"trk: could not decode hit %d of link %d: %w", i, id, err,
				)
			}

			ich := hit.FoldedChannel()
			if ich >= NumChannels {
				return sum, newError(
					ErrInvalidChannel, id, ich,
					"trk: link %d: invalid channel %d", id, ich,
				)
			}

			ch := &lnk.Channels[ich]
			if len(ch.Hits) >= dec.maxHits {
				return sum, newError(
					ErrTooManyHits, id, ich,
					"trk: link %d: channel %d has more than %d hits", id, ich, dec.maxHits,
				)
			}
			ch.Hits = append(ch.Hits, hit)
		}

		pos += hdr.words()
	}

	return sum, nil
}

// at returns the content of p starting at the given 16-bit word.
func at(p []byte, word int) []byte {
	off := word * wordSize
	if off > len(p) {
		return nil
	}
	return p[off:]
}
