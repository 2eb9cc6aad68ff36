// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dqm

import (
	"fmt"

	"github.com/go-lpc/trkdqm/trk"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/hbook"
)

// Hists is the set of monitoring histograms of a run.
type Hists struct {
	bin    float64 // TDC bin, ns
	window float64 // time window, ns
	nwf    int
	sides  [trk.NumChannels]int
	adc    [trk.NumChannels]int

	NEvents int64
	NErrors int64 // number of events with a decoding error

	NHits *hbook.H1D
	NBTot *hbook.H1D
	NFrag *hbook.H1D
	FSize *hbook.H1D
	Error *hbook.H1D
	Valid *hbook.H1D

	ROCs [trk.NumLinks]*ROCHists // booked on first use
}

// ROCHists holds the histograms of one readout link.
type ROCHists struct {
	NBytes   *hbook.H1D
	NPackets *hbook.H1D
	NHits    *hbook.H1D
	Valid    *hbook.H1D

	NhVsCh   *hbook.H2D
	NhVsADC1 *hbook.H2D
	NhVsICh  *hbook.H1D
	NhVsADC  [trk.NumSides]*hbook.H1D

	DT0RVsCh *hbook.H2D
	DT1RVsCh *hbook.H2D
	DT0R01   *hbook.H1D
	DT1R01   *hbook.H1D

	DT0RCVsCh  [trk.NumSides]*hbook.H2D
	DT1RCVsCh  [trk.NumSides]*hbook.H2D
	DT0RCVsADC [trk.NumSides]*hbook.H2D
	DT1RCVsADC [trk.NumSides]*hbook.H2D

	Channels [trk.NumChannels]*ChannelHists // booked on first hit
}

// ChannelHists holds the histograms of one channel.
type ChannelHists struct {
	NHits *hbook.H1D
	Time  [2]*hbook.H1D // hit time of both TDCs, in us
	T0    [2]*hbook.H1D // ns
	T1    [2]*hbook.H1D // time window minus T0, ns
	TOT   [2]*hbook.H1D
	PMP   *hbook.H1D
	DT0   *hbook.H1D // distance between consecutive hits, us
	DT1   *hbook.H1D
	DT2   *hbook.H1D
	DT0R  *hbook.H1D // ns
	DT1R  *hbook.H1D

	WF []*hbook.H1D // waveform of each hit slot, overwritten by every event
}

// NewHists books the run histograms described by cfg.
func NewHists(cfg trk.Config) *Hists {
	h := &Hists{
		bin:    cfg.TDCBinNs,
		window: cfg.TimeWindow,
		nwf:    cfg.MaxHitsPerChannel,

		NHits: newH1D("nhits", "number of hits", 1000, 0, 1000),
		NBTot: newH1D("nbtot", "event size, bytes", 1000, 0, 100000),
		NFrag: newH1D("nfrag", "number of fragments", 100, 0, 100),
		FSize: newH1D("fsize", "fragment size, bytes", 1000, 0, 100000),
		Error: newH1D("error", "error code", 10, 0, 10),
		Valid: newH1D("valid", "valid", 100, 0, 100),
	}
	for i := range h.sides {
		h.sides[i] = cfg.Side(i)
		h.adc[i] = i
		if len(cfg.ADCIndex) == trk.NumChannels {
			h.adc[i] = cfg.ADCIndex[i]
		}
	}
	for _, id := range cfg.ActiveLinks {
		h.ROCs[id] = h.newROC(id)
	}
	return h
}

func (h *Hists) newROC(id int) *ROCHists {
	roc := &ROCHists{
		NBytes:   newH1D("nbytes", "link size, bytes", 10000, 0, 10000),
		NPackets: newH1D("npackets", "number of packets", 1000, 0, 1000),
		NHits:    newH1D("nhits", "number of hits", 300, 0, 300),
		Valid:    newH1D("valid", "valid", 2, 0, 2),

		NhVsCh:   newH2D("nh_vs_ch", "number of hits vs channel", 100, 0, 100, 10, 0, 10),
		NhVsADC1: newH2D("nh_vs_adc1", "number of hits vs ADC index", 100, 0, 100, 10, 0, 10),
		NhVsICh:  newH1D("nh_vs_ich", "number of hits vs channel", 100, 0, 100),

		DT0RVsCh: newH2D("dt0r_vs_ch_0", "T0-T0(ref) vs channel, ns", 100, 0, 100, 500, -25, 25),
		DT1RVsCh: newH2D("dt1r_vs_ch_0", "T1-T1(ref) vs channel, ns", 100, 0, 100, 500, -25, 25),
		DT0R01:   newH1D("dt0r01", "T0(ref CAL)-T0(ref HV), ns", 40000, -20000, 20000),
		DT1R01:   newH1D("dt1r01", "T1(ref CAL)-T1(ref HV), ns", 40000, -20000, 20000),
	}
	for i := 0; i < trk.NumSides; i++ {
		roc.NhVsADC[i] = newH1D(fmt.Sprintf("nh_vs_adc_%d", i), "number of hits vs ADC index", 100, 0, 100)
		roc.DT0RCVsCh[i] = newH2D(fmt.Sprintf("dt0rc_vs_ch_%d", i), "corrected T0-T0(ref) vs channel, ns", 100, 0, 100, 200, -10, 10)
		roc.DT1RCVsCh[i] = newH2D(fmt.Sprintf("dt1rc_vs_ch_%d", i), "corrected T1-T1(ref) vs channel, ns", 100, 0, 100, 200, -10, 10)
		roc.DT0RCVsADC[i] = newH2D(fmt.Sprintf("dt0rc_vs_adc_%d", i), "corrected T0-T0(ref) vs ADC index, ns", 100, 0, 100, 200, -10, 10)
		roc.DT1RCVsADC[i] = newH2D(fmt.Sprintf("dt1rc_vs_adc_%d", i), "corrected T1-T1(ref) vs ADC index, ns", 100, 0, 100, 200, -10, 10)
	}
	return roc
}

func (h *Hists) newChannel(ich int) *ChannelHists {
	ch := &ChannelHists{
		NHits: newH1D(fmt.Sprintf("ch_%02d_nhits", ich), "number of hits", 100, 0, 100),
		PMP:   newH1D("pmp", "pulse maximum position", 100, 0, 10),
		DT0:   newH1D("dt0", "T0(i)-T0(i-1), us", 1000, 0, 50),
		DT1:   newH1D("dt1", "T1(i)-T1(i-1), us", 1000, 0, 50),
		DT2:   newH1D("dt2", "(dt0+dt1)/2, us", 1000, 0, 50),
		DT0R:  newH1D("dt0r_0", "T0-T0(ref), ns", 1000, -10, 10),
		DT1R:  newH1D("dt1r_0", "T1-T1(ref), ns", 1000, -10, 10),
		WF:    make([]*hbook.H1D, h.nwf),
	}
	for i := 0; i < 2; i++ {
		ch.Time[i] = newH1D(fmt.Sprintf("time%d", i), "hit time, us", 1000, 0, 100)
		ch.T0[i] = newH1D(fmt.Sprintf("t0_%d", i), "T0, ns", 1000, -20, 80)
		ch.T1[i] = newH1D(fmt.Sprintf("t1_%d", i), "T1, ns", 1000, -20, 80)
		ch.TOT[i] = newH1D(fmt.Sprintf("tot%d", i), "time over threshold", 100, 0, 100)
	}
	for i := range ch.WF {
		ch.WF[i] = newWaveform(ich, i)
	}
	return ch
}

func newWaveform(ich, slot int) *hbook.H1D {
	return newH1D(fmt.Sprintf("h_wf_ch_%02d_%d", ich, slot), "waveform", 20, 0, 20)
}

// Fill fills the histograms with the content of evt.
// Only the error and valid histograms are filled for events with a
// decoding error.
func (h *Hists) Fill(evt *trk.Event) {
	h.NEvents++
	h.Error.Fill(float64(evt.Error), 1)
	h.Valid.Fill(float64(evt.Valid), 1)
	if evt.Error != trk.ErrNone {
		h.NErrors++
		return
	}

	h.NHits.Fill(float64(evt.NHits), 1)
	h.NBTot.Fill(float64(evt.NBytes), 1)
	h.NFrag.Fill(float64(evt.NFrags), 1)
	for _, n := range evt.Fragments {
		h.FSize.Fill(float64(n), 1)
	}

	for id, lnk := range evt.Links {
		if lnk == nil {
			continue
		}
		roc := h.ROCs[id]
		if roc == nil {
			roc = h.newROC(id)
			h.ROCs[id] = roc
		}
		h.fillROC(roc, lnk)
	}
}

func (h *Hists) fillROC(roc *ROCHists, lnk *trk.Link) {
	roc.NBytes.Fill(float64(lnk.NBytes), 1)
	roc.NPackets.Fill(float64(lnk.NPackets), 1)
	roc.NHits.Fill(float64(lnk.NHits), 1)
	roc.Valid.Fill(float64(lnk.Valid), 1)

	for ich := range lnk.Channels {
		var (
			ch   = &lnk.Channels[ich]
			nh   = float64(len(ch.Hits))
			adc  = float64(h.adc[ich])
			x    = float64(ich)
			side = h.sides[ich]
		)
		roc.NhVsCh.Fill(x, nh, 1)
		roc.NhVsADC1.Fill(adc, nh, 1)
		roc.NhVsICh.Fill(x, nh)
		roc.NhVsADC[0].Fill(x, nh)
		roc.NhVsADC[1].Fill(adc, nh)

		if ch.Timed {
			roc.DT0RVsCh.Fill(x, ch.DT0R, 1)
			roc.DT1RVsCh.Fill(x, ch.DT1R, 1)
			roc.DT0RCVsCh[side].Fill(x, ch.DT0RC, 1)
			roc.DT1RCVsCh[side].Fill(x, ch.DT1RC, 1)
			roc.DT0RCVsADC[side].Fill(adc, ch.DT0RC, 1)
			roc.DT1RCVsADC[side].Fill(adc, ch.DT1RC, 1)
		}

		if len(ch.Hits) == 0 {
			continue
		}
		hch := roc.Channels[ich]
		if hch == nil {
			hch = h.newChannel(ich)
			roc.Channels[ich] = hch
		}
		h.fillChannel(hch, ich, ch)
	}

	if lnk.Timed {
		roc.DT0R01.Fill(lnk.DT0R01, 1)
		roc.DT1R01.Fill(lnk.DT1R01, 1)
	}
}

func (h *Hists) fillChannel(hch *ChannelHists, ich int, ch *trk.Channel) {
	hch.NHits.Fill(float64(len(ch.Hits)), 1)

	var prev [2]float64
	for i := range ch.Hits {
		hit := &ch.Hits[i]
		t := [2]float64{
			float64(hit.CorrTDC0()) * h.bin,
			float64(hit.CorrTDC1()) * h.bin,
		}
		tot := [2]uint8{hit.TOT0, hit.TOT1}
		for k := range t {
			hch.Time[k].Fill(t[k]*1e-3, 1)
			hch.T0[k].Fill(t[k], 1)
			hch.T1[k].Fill(h.window-t[k], 1)
			hch.TOT[k].Fill(float64(tot[k]), 1)
		}
		hch.PMP.Fill(float64(hit.PMP), 1)

		if i > 0 {
			dt0 := (t[0] - prev[0]) * 1e-3
			dt1 := (t[1] - prev[1]) * 1e-3
			hch.DT0.Fill(dt0, 1)
			hch.DT1.Fill(dt1, 1)
			hch.DT2.Fill((dt0+dt1)/2, 1)
		}
		prev = t

		if i < len(hch.WF) {
			wf := newWaveform(ich, i)
			for j, v := range hit.ADC {
				wf.Fill(float64(j), float64(v))
			}
			hch.WF[i] = wf
		}
	}

	if ch.Timed {
		hch.DT0R.Fill(ch.DT0R, 1)
		hch.DT1R.Fill(ch.DT1R, 1)
	}
}

// ErrorFraction returns the fraction of events with a decoding error.
func (h *Hists) ErrorFraction() float64 {
	if h.NEvents == 0 {
		return 0
	}
	return float64(h.NErrors) / float64(h.NEvents)
}

// Save writes all the histograms to the ROOT file fname, under the
// trk, trk/roc_N and trk/roc_N/ch_NN directories.
func (h *Hists) Save(fname string) error {
	f, err := groot.Create(fname)
	if err != nil {
		return fmt.Errorf("dqm: could not create ROOT file %q: %w", fname, err)
	}
	defer f.Close()

	top, err := riofs.Dir(f).Mkdir("trk")
	if err != nil {
		return fmt.Errorf("dqm: could not create trk directory: %w", err)
	}

	err = put(top,
		h.NHits, h.NBTot, h.NFrag, h.FSize, h.Error, h.Valid,
	)
	if err != nil {
		return err
	}

	for id, roc := range h.ROCs {
		if roc == nil {
			continue
		}
		err = roc.save(top, id)
		if err != nil {
			return err
		}
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("dqm: could not close ROOT file %q: %w", fname, err)
	}
	return nil
}

func (roc *ROCHists) save(top riofs.Directory, id int) error {
	dir, err := top.Mkdir(fmt.Sprintf("roc_%d", id))
	if err != nil {
		return fmt.Errorf("dqm: could not create directory for ROC %d: %w", id, err)
	}

	err = put(dir,
		roc.NBytes, roc.NPackets, roc.NHits, roc.Valid,
		roc.NhVsCh, roc.NhVsADC1, roc.NhVsICh,
		roc.DT0RVsCh, roc.DT1RVsCh, roc.DT0R01, roc.DT1R01,
	)
	if err != nil {
		return err
	}
	for i := 0; i < trk.NumSides; i++ {
		err = put(dir,
			roc.NhVsADC[i],
			roc.DT0RCVsCh[i], roc.DT1RCVsCh[i],
			roc.DT0RCVsADC[i], roc.DT1RCVsADC[i],
		)
		if err != nil {
			return err
		}
	}

	for ich, hch := range roc.Channels {
		if hch == nil {
			continue
		}
		sub, err := dir.Mkdir(fmt.Sprintf("ch_%02d", ich))
		if err != nil {
			return fmt.Errorf("dqm: could not create directory for ROC %d, channel %d: %w", id, ich, err)
		}
		err = put(sub,
			hch.NHits, hch.PMP,
			hch.Time[0], hch.Time[1],
			hch.T0[0], hch.T0[1],
			hch.T1[0], hch.T1[1],
			hch.TOT[0], hch.TOT[1],
			hch.DT0, hch.DT1, hch.DT2, hch.DT0R, hch.DT1R,
		)
		if err != nil {
			return err
		}
		for _, wf := range hch.WF {
			err = put(sub, wf)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

type named interface {
	Name() string
}

func put(dir riofs.Directory, hs ...named) error {
	for _, h := range hs {
		var err error
		switch h := h.(type) {
		case *hbook.H1D:
			err = dir.Put(h.Name(), rhist.NewH1DFrom(h))
		case *hbook.H2D:
			err = dir.Put(h.Name(), rhist.NewH2DFrom(h))
		default:
			panic(fmt.Errorf("dqm: invalid histogram type %T", h))
		}
		if err != nil {
			return fmt.Errorf("dqm: could not save histogram %q: %w", h.Name(), err)
		}
	}
	return nil
}

func newH1D(name, title string, n int, xmin, xmax float64) *hbook.H1D {
	h := hbook.NewH1D(n, xmin, xmax)
	h.Annotation()["name"] = name
	h.Annotation()["title"] = title
	return h
}

func newH2D(name, title string, nx int, xmin, xmax float64, ny int, ymin, ymax float64) *hbook.H2D {
	h := hbook.NewH2D(nx, xmin, xmax, ny, ymin, ymax)
	h.Annotation()["name"] = name
	h.Annotation()["title"] = title
	return h
}
