// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dqm

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-lpc/trkdqm/trk"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/hbook/rootcnv"
)

func testEvent() *trk.Event {
	lnk := &trk.Link{
		ID:       0,
		NBytes:   16 + 3*32,
		NPackets: 6,
		NHits:    3,
		Valid:    1,
		Timed:    true,
		DT0R01:   -1.5,
		DT1R01:   2.5,
	}
	lnk.Channels[0].Hits = []trk.Hit{
		{Channel: 0, TDC0: trk.CorrectedTDC(1000), TDC1: trk.CorrectedTDC(2000), TOT0: 3, TOT1: 4, PMP: 5},
		{Channel: 0, TDC0: trk.CorrectedTDC(3000), TDC1: trk.CorrectedTDC(4000)},
	}
	lnk.Channels[10].Hits = []trk.Hit{{Channel: 10, TDC0: trk.CorrectedTDC(1100), TDC1: trk.CorrectedTDC(2100)}}
	lnk.Channels[10].Timed = true
	lnk.Channels[10].DT0R = 1.5
	lnk.Channels[10].DT1R = -0.5
	lnk.Channels[10].DT0RC = 1.5
	lnk.Channels[10].DT1RC = -0.5
	for i := range lnk.Channels[0].Hits[0].ADC {
		lnk.Channels[0].Hits[0].ADC[i] = uint16(10 * i)
	}

	evt := &trk.Event{
		ID:        trk.EventID{Run: 12, Event: 1},
		NBytes:    lnk.NBytes + 16,
		NHits:     3,
		NFrags:    1,
		Valid:     10,
		Fragments: []int{lnk.NBytes + 16},
	}
	evt.Links[0] = lnk
	return evt
}

func TestHistsFill(t *testing.T) {
	cfg := trk.DefaultConfig()
	cfg.TDCBinNs = 1
	cfg.TimeWindow = 100

	h := NewHists(cfg)
	if h.ROCs[0] == nil {
		t.Fatalf("ROC 0 not booked")
	}
	for id := 1; id < trk.NumLinks; id++ {
		if h.ROCs[id] != nil {
			t.Fatalf("ROC %d booked", id)
		}
	}

	evt := testEvent()
	h.Fill(evt)

	for _, tc := range []struct {
		name string
		got  int64
		want int64
	}{
		{"nevents", h.NEvents, 1},
		{"nerrors", h.NErrors, 0},
		{"error", h.Error.Entries(), 1},
		{"valid", h.Valid.Entries(), 1},
		{"nhits", h.NHits.Entries(), 1},
		{"fsize", h.FSize.Entries(), 1},
		{"roc-nhits", h.ROCs[0].NHits.Entries(), 1},
		{"roc-nh-vs-ch", h.ROCs[0].NhVsCh.Entries(), trk.NumChannels},
		{"roc-dt0r-vs-ch", h.ROCs[0].DT0RVsCh.Entries(), 1},
		{"roc-dt0rc-vs-ch-0", h.ROCs[0].DT0RCVsCh[trk.SideCAL].Entries(), 1},
		{"roc-dt0rc-vs-ch-1", h.ROCs[0].DT0RCVsCh[trk.SideHV].Entries(), 0},
		{"roc-dt0r01", h.ROCs[0].DT0R01.Entries(), 1},
		{"ch00-nhits", h.ROCs[0].Channels[0].NHits.Entries(), 1},
		{"ch00-time0", h.ROCs[0].Channels[0].Time[0].Entries(), 2},
		{"ch00-dt0", h.ROCs[0].Channels[0].DT0.Entries(), 1},
		{"ch00-dt0r", h.ROCs[0].Channels[0].DT0R.Entries(), 0},
		{"ch10-dt0r", h.ROCs[0].Channels[10].DT0R.Entries(), 1},
		{"ch10-dt0", h.ROCs[0].Channels[10].DT0.Entries(), 0},
		{"ch00-wf0", h.ROCs[0].Channels[0].WF[0].Entries(), trk.NumSamples},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Fatalf("invalid entries: got=%d, want=%d", tc.got, tc.want)
			}
		})
	}

	ch := h.ROCs[0].Channels[0]
	if got, want := ch.DT0.XMean(), 2.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("invalid dt0: got=%v, want=%v", got, want)
	}
	if got, want := ch.T1[0].XMean(), 100-2000.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("invalid t1: got=%v, want=%v", got, want)
	}

	// waveforms are overwritten by every event.
	h.Fill(evt)
	if got, want := ch.WF[0].Entries(), int64(trk.NumSamples); got != want {
		t.Fatalf("invalid waveform entries: got=%d, want=%d", got, want)
	}
	if got, want := ch.NHits.Entries(), int64(2); got != want {
		t.Fatalf("invalid channel entries: got=%d, want=%d", got, want)
	}
}

func TestHistsFillErrors(t *testing.T) {
	cfg := trk.DefaultConfig()
	h := NewHists(cfg)

	evt := testEvent()
	evt.Error = trk.ErrTooManyHits
	h.Fill(evt)
	h.Fill(testEvent())

	if got, want := h.Error.Entries(), int64(2); got != want {
		t.Fatalf("invalid error entries: got=%d, want=%d", got, want)
	}
	if got, want := h.Valid.Entries(), int64(2); got != want {
		t.Fatalf("invalid valid entries: got=%d, want=%d", got, want)
	}
	if got, want := h.NHits.Entries(), int64(1); got != want {
		t.Fatalf("invalid nhits entries: got=%d, want=%d", got, want)
	}
	if got, want := h.ROCs[0].NHits.Entries(), int64(1); got != want {
		t.Fatalf("invalid ROC nhits entries: got=%d, want=%d", got, want)
	}
	if got, want := h.ErrorFraction(), 0.5; got != want {
		t.Fatalf("invalid error fraction: got=%v, want=%v", got, want)
	}
	if got, want := h.Error.Binning.Bins[int(trk.ErrTooManyHits)].Entries(), int64(1); got != want {
		t.Fatalf("invalid error code entries: got=%d, want=%d", got, want)
	}
}

func TestHistsChannelBooking(t *testing.T) {
	cfg := trk.DefaultConfig()
	h := NewHists(cfg)
	for ich, hch := range h.ROCs[0].Channels {
		if hch != nil {
			t.Fatalf("channel %d booked before any hit", ich)
		}
	}

	h.Fill(testEvent())
	h.Fill(testEvent())

	for _, tc := range []struct {
		ich    int
		booked bool
	}{
		{0, true},
		{1, false},
		{10, true},
		{95, false},
	} {
		t.Run(fmt.Sprintf("ch%02d", tc.ich), func(t *testing.T) {
			hch := h.ROCs[0].Channels[tc.ich]
			if got, want := hch != nil, tc.booked; got != want {
				t.Fatalf("invalid booking: got=%v, want=%v", got, want)
			}
			if hch == nil {
				return
			}
			if got, want := hch.NHits.Entries(), int64(2); got != want {
				t.Fatalf("invalid entries: got=%d, want=%d", got, want)
			}
		})
	}

	// channels without hits are still accounted for in the ROC histograms.
	if got, want := h.ROCs[0].NhVsCh.Entries(), int64(2*trk.NumChannels); got != want {
		t.Fatalf("invalid nh_vs_ch entries: got=%d, want=%d", got, want)
	}
}

func TestHistsUnbookedLink(t *testing.T) {
	cfg := trk.DefaultConfig()
	h := NewHists(cfg)

	evt := testEvent()
	evt.Links[3], evt.Links[0] = evt.Links[0], nil
	h.Fill(evt)

	if h.ROCs[3] == nil {
		t.Fatalf("ROC 3 not booked")
	}
	if got, want := h.ROCs[3].NHits.Entries(), int64(1); got != want {
		t.Fatalf("invalid ROC nhits entries: got=%d, want=%d", got, want)
	}
}

func TestHistsSave(t *testing.T) {
	tmp, err := os.MkdirTemp("", "trk-dqm-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	cfg := trk.DefaultConfig()
	h := NewHists(cfg)
	h.Fill(testEvent())

	fname := filepath.Join(tmp, "hists.root")
	err = h.Save(fname)
	if err != nil {
		t.Fatalf("could not save histograms: %+v", err)
	}

	f, err := groot.Open(fname)
	if err != nil {
		t.Fatalf("could not open ROOT file: %+v", err)
	}
	defer f.Close()

	for _, tc := range []struct {
		path string
		want int64
	}{
		{"trk/nhits", 1},
		{"trk/error", 1},
		{"trk/roc_0/nbytes", 1},
		{"trk/roc_0/dt0r01", 1},
		{"trk/roc_0/ch_00/ch_00_nhits", 1},
		{"trk/roc_0/ch_00/time0", 2},
		{"trk/roc_0/ch_10/dt0r_0", 1},
		{"trk/roc_0/ch_10/h_wf_ch_10_1", 0},
	} {
		t.Run(tc.path, func(t *testing.T) {
			obj, err := riofs.Dir(f).Get(tc.path)
			if err != nil {
				t.Fatalf("could not get %q: %+v", tc.path, err)
			}
			rh, ok := obj.(rhist.H1)
			if !ok {
				t.Fatalf("invalid type %T", obj)
			}
			if got, want := rootcnv.H1D(rh).Entries(), tc.want; got != want {
				t.Fatalf("invalid entries: got=%d, want=%d", got, want)
			}
		})
	}

	_, err = riofs.Dir(f).Get("trk/roc_0/ch_95")
	if err == nil {
		t.Fatalf("channel without hits should not be saved")
	}

	obj, err := riofs.Dir(f).Get("trk/roc_0/nh_vs_ch")
	if err != nil {
		t.Fatalf("could not get 2D histogram: %+v", err)
	}
	if _, ok := obj.(rhist.H2); !ok {
		t.Fatalf("invalid type %T", obj)
	}
}
