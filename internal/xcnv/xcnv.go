// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv provides tools to convert raw tracker events to/from LCIO.
//
// Each raw event is stored as an LCIO event holding a "TRK" collection
// of generic objects, one data entry per fragment. The first int32 of
// an entry is the fragment size in bytes, followed by the fragment
// bytes packed in little-endian int32 words.
package xcnv // import "github.com/go-lpc/trkdqm/internal/xcnv"

import (
	"encoding/binary"
	"fmt"

	"github.com/go-lpc/trkdqm/internal/eformat"
	"github.com/go-lpc/trkdqm/trk"
	"go-hep.org/x/hep/lcio"
)

const (
	// Collection is the name of the LCIO collection holding fragments.
	Collection = "TRK"

	detector = "TRK"
	i32sz    = 4
)

// ToLCIO converts a raw event to an LCIO event.
func ToLCIO(evt *eformat.Event) lcio.Event {
	raw := &lcio.GenericObject{
		Data: make([]lcio.GenericObjectData, len(evt.Frags)),
	}
	for i, frag := range evt.Frags {
		raw.Data[i].I32s = i32sFrom(frag)
	}

	out := lcio.Event{
		RunNumber:   int32(evt.ID.Run),
		EventNumber: int32(evt.ID.Event),
		Detector:    detector,
		Params: lcio.Params{
			Ints: map[string][]int32{
				"SubRun": {int32(evt.ID.SubRun)},
			},
		},
	}
	out.Add(Collection, raw)
	return out
}

// FromLCIO converts an LCIO event to a raw event.
func FromLCIO(evt *lcio.Event) (eformat.Event, error) {
	out := eformat.Event{
		ID: trk.EventID{
			Run:   uint32(evt.RunNumber),
			Event: uint32(evt.EventNumber),
		},
	}
	if v := evt.Params.Ints["SubRun"]; len(v) == 1 {
		out.ID.SubRun = uint32(v[0])
	}

	if !evt.Has(Collection) {
		return out, fmt.Errorf("xcnv: event %v has no %q collection", out.ID, Collection)
	}
	raw, ok := evt.Get(Collection).(*lcio.GenericObject)
	if !ok {
		return out, fmt.Errorf(
			"xcnv: event %v: invalid %q collection type %T",
			out.ID, Collection, evt.Get(Collection),
		)
	}

	out.Frags = make([][]byte, len(raw.Data))
	for i, data := range raw.Data {
		frag, err := bytesFrom(data.I32s)
		if err != nil {
			return out, fmt.Errorf("xcnv: event %v: fragment %d: %w", out.ID, i, err)
		}
		out.Frags[i] = frag
	}
	return out, nil
}

func i32sFrom(frag []byte) []int32 {
	n := (len(frag) + i32sz - 1) / i32sz
	buf := make([]byte, n*i32sz)
	copy(buf, frag)

	out := make([]int32, n+1)
	out[0] = int32(len(frag))
	for i := 0; i < n; i++ {
		out[i+1] = int32(binary.LittleEndian.Uint32(buf[i*i32sz:]))
	}
	return out
}

func bytesFrom(raw []int32) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing fragment size")
	}
	size := int(raw[0])
	if size < 0 || size > (len(raw)-1)*i32sz {
		return nil, fmt.Errorf("invalid fragment size %d (words=%d)", size, len(raw)-1)
	}

	buf := make([]byte, (len(raw)-1)*i32sz)
	for i, v := range raw[1:] {
		binary.LittleEndian.PutUint32(buf[i*i32sz:], uint32(v))
	}
	return buf[:size], nil
}
