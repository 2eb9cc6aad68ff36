// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pulser

import (
	"io"
	"math"
	"testing"

	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/trkdqm/trk"
)

func TestGenerator(t *testing.T) {
	cfg := trk.DefaultConfig()
	cfg.ActiveLinks = []int{0, 1}
	cfg.RefChCal = []int{0, 2}
	cfg.RefChHV = []int{48, 50}
	cfg.TimeWindow = 2000

	gen, err := New(cfg, 42, 0, 1234)
	if err != nil {
		t.Fatalf("could not create generator: %+v", err)
	}
	gen.Offsets[10] = 2.5
	gen.Offsets[60] = -1.25

	proc, err := trk.NewProcessor(cfg, log.NewMsgStream("pulser", log.LvlError, io.Discard))
	if err != nil {
		t.Fatalf("could not create processor: %+v", err)
	}

	const nevts = 5
	for i := 0; i < nevts; i++ {
		raw, err := gen.Next()
		if err != nil {
			t.Fatalf("could not generate event %d: %+v", i, err)
		}

		if got, want := raw.ID, (trk.EventID{Run: 42, Event: uint32(i + 1)}); got != want {
			t.Fatalf("invalid event id: got=%v, want=%v", got, want)
		}
		if got, want := len(raw.Frags), 2; got != want {
			t.Fatalf("invalid number of fragments: got=%d, want=%d", got, want)
		}

		evt, err := proc.Process(raw.ID, raw.Frags)
		if err != nil {
			t.Fatalf("could not process event %d: %+v", i, err)
		}
		if evt.Error != trk.ErrNone {
			t.Fatalf("event %d: invalid error: %v", i, evt.Error)
		}
		if got, want := evt.NHits, 2*trk.NumChannels; got != want {
			t.Fatalf("event %d: invalid nhits: got=%d, want=%d", i, got, want)
		}

		for _, id := range cfg.ActiveLinks {
			lnk := evt.Link(id)
			if !lnk.Timed {
				t.Fatalf("event %d: link %d should be timed", i, id)
			}
			if got := math.Abs(lnk.DT0R01); got > 0 {
				t.Fatalf("event %d: link %d: invalid dt0r01: %v", i, id, got)
			}
			for _, tc := range []struct {
				ich  int
				want float64
			}{
				{10, 2.5},
				{20, 0},
				{60, -1.25},
			} {
				ch := lnk.Channels[tc.ich]
				if !ch.Timed {
					t.Fatalf("event %d: link %d: channel %d should be timed", i, id, tc.ich)
				}
				if got := ch.DT0R; math.Abs(got-tc.want) > cfg.TDCBinNs {
					t.Fatalf("event %d: link %d: channel %d: invalid dt0r: got=%v, want=%v", i, id, tc.ich, got, tc.want)
				}
				if got := len(ch.Hits); got != 1 {
					t.Fatalf("event %d: link %d: channel %d: invalid number of hits %d", i, id, tc.ich, got)
				}
				hit := ch.Hits[0]
				if hit.ADC[peak] < hit.ADC[0] {
					t.Fatalf("event %d: link %d: channel %d: invalid waveform %v", i, id, tc.ich, hit.ADC)
				}
			}
			if got, want := lnk.Channels[60].Hits[0].Channel, uint16(60+chanFold); got != want {
				t.Fatalf("invalid raw channel: got=%d, want=%d", got, want)
			}
		}
	}
}

func TestGeneratorChannels(t *testing.T) {
	cfg := trk.DefaultConfig()
	gen, err := New(cfg, 1, 0.1, 1)
	if err != nil {
		t.Fatalf("could not create generator: %+v", err)
	}
	gen.Channels = []int{5, 0, 5, 96}
	gen.SetSubRun(3)

	raw, err := gen.Next()
	if err != nil {
		t.Fatalf("could not generate event: %+v", err)
	}
	if got, want := raw.ID.SubRun, uint32(3); got != want {
		t.Fatalf("invalid subrun: got=%d, want=%d", got, want)
	}

	proc, err := trk.NewProcessor(cfg, log.NewMsgStream("pulser", log.LvlError, io.Discard))
	if err != nil {
		t.Fatalf("could not create processor: %+v", err)
	}
	evt, err := proc.Process(raw.ID, raw.Frags)
	if err != nil {
		t.Fatalf("could not process event: %+v", err)
	}
	// 2 reference channels + channel 5.
	if got, want := evt.NHits, 3; got != want {
		t.Fatalf("invalid nhits: got=%d, want=%d", got, want)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := trk.DefaultConfig()
	cfg.ActiveLinks = nil
	_, err := New(cfg, 1, 0, 1)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if got, want := err.Error(), "pulser: invalid configuration: trk: no active link"; got != want {
		t.Fatalf("invalid error: got=%q, want=%q", got, want)
	}
}

func TestGeneratorNegativeTime(t *testing.T) {
	gen, err := New(trk.DefaultConfig(), 42, 0, 1234)
	if err != nil {
		t.Fatalf("could not create generator: %+v", err)
	}

	for _, v := range []float64{-1e-3, -50, -1e9} {
		hit := gen.hit(10, v)
		if got, want := hit.TDC0, trk.CorrectedTDC(0); got != want {
			t.Fatalf("invalid TDC0 for t=%v: got=%d, want=%d", v, got, want)
		}
		if got, want := hit.TDC1, trk.CorrectedTDC(0); got != want {
			t.Fatalf("invalid TDC1 for t=%v: got=%d, want=%d", v, got, want)
		}
	}
}
