// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pulser generates synthetic tracker events, as recorded when
// all the channels of the active links are fired by a pulse generator.
package pulser // import "github.com/go-lpc/trkdqm/internal/pulser"

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-lpc/trkdqm/internal/eformat"
	"github.com/go-lpc/trkdqm/trk"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	chanFold = 128

	baseline = 64  // ADC baseline
	peak     = 5   // sample holding the pulse maximum
	width    = 1.5 // pulse width, in samples
)

// Generator generates pulser events.
type Generator struct {
	cfg trk.Config
	tm  *trk.Timing
	id  trk.EventID

	// Offsets holds the time offset of each channel with respect to
	// the reference channel of its FPGA, in ns.
	Offsets [trk.NumChannels]float64

	// Channels lists the fired channels, in addition to the reference
	// channels. All the channels are fired when empty.
	Channels []int

	t0     distuv.Uniform // pulse time within the event window, ns
	jitter distuv.Normal  // ns
	amp    distuv.Normal  // pulse amplitude, ADC counts
}

// New creates a generator for the provided configuration.
// The time jitter sigma is given in ns.
func New(cfg trk.Config, run uint32, jitter float64, seed uint64) (*Generator, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("pulser: invalid configuration: %w", err)
	}

	window := cfg.TimeWindow
	if window <= 0 {
		window = 1000
	}

	src := rand.NewSource(seed)
	gen := &Generator{
		cfg:    cfg,
		tm:     trk.NewTiming(cfg),
		id:     trk.EventID{Run: run},
		t0:     distuv.Uniform{Min: 0.1 * window, Max: 0.5 * window, Src: src},
		jitter: distuv.Normal{Mu: 0, Sigma: jitter, Src: src},
		amp:    distuv.Normal{Mu: 400, Sigma: 40, Src: src},
	}
	return gen, nil
}

// SetSubRun sets the subrun of the next events.
func (gen *Generator) SetSubRun(subrun uint32) {
	gen.id.SubRun = subrun
}

// Next returns the next event, holding one fragment per active link.
func (gen *Generator) Next() (eformat.Event, error) {
	gen.id.Event++
	evt := eformat.Event{
		ID:    gen.id,
		Frags: make([][]byte, 0, len(gen.cfg.ActiveLinks)),
	}

	t0 := gen.t0.Rand()
	for _, link := range gen.cfg.ActiveLinks {
		refs, _ := gen.cfg.RefChannels(link)
		blk := trk.LinkBlock{
			Header: trk.LinkHeader{
				LinkID:     uint8(link),
				Valid:      true,
				EventTag:   uint64(gen.id.Event),
				PacketType: 5,
			},
		}

		fired := gen.fired(refs)
		for _, ich := range fired {
			t := t0
			if !isRef(ich, refs) {
				t += gen.Offsets[ich] + gen.jitter.Rand()
			}
			blk.Hits = append(blk.Hits, gen.hit(ich, t))
		}

		o := new(bytes.Buffer)
		err := trk.NewEncoder(o, gen.cfg.HeaderOffset).Encode(blk)
		if err != nil {
			return evt, fmt.Errorf("pulser: could not encode link %d of event %v: %w", link, gen.id, err)
		}
		evt.Frags = append(evt.Frags, o.Bytes())
	}

	return evt, nil
}

func (gen *Generator) fired(refs [trk.NumSides]int) []int {
	var (
		seen [trk.NumChannels]bool
		out  = make([]int, 0, trk.NumChannels)
	)
	for _, ich := range refs {
		if !seen[ich] {
			seen[ich] = true
			out = append(out, ich)
		}
	}
	if len(gen.Channels) == 0 {
		for ich := range seen {
			if !seen[ich] {
				out = append(out, ich)
			}
		}
		return out
	}
	for _, ich := range gen.Channels {
		if ich < 0 || ich >= trk.NumChannels || seen[ich] {
			continue
		}
		seen[ich] = true
		out = append(out, ich)
	}
	return out
}

func (gen *Generator) hit(ich int, t float64) trk.Hit {
	tdc := uint32(math.Round(math.Max(t, 0)/gen.tm.BinNs)) & 0xffffff
	raw := trk.CorrectedTDC(tdc)

	hit := trk.Hit{
		Channel: uint16(ich),
		TDC0:    raw,
		TDC1:    raw,
		TOT0:    8,
		TOT1:    8,
		NumADC:  1,
		PMP:     peak,
	}
	if gen.tm.Sides[ich] == trk.SideHV {
		// the HV FPGA numbers its straws from 128.
		hit.Channel += chanFold
	}

	amp := math.Max(gen.amp.Rand(), 0)
	for i := range hit.ADC {
		x := (float64(i) - peak) / width
		v := baseline + amp*math.Exp(-0.5*x*x)
		hit.ADC[i] = uint16(math.Min(v, 0x3ff))
	}
	return hit
}

func isRef(ich int, refs [trk.NumSides]int) bool {
	return ich == refs[trk.SideCAL] || ich == refs[trk.SideHV]
}
