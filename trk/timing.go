// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trk

// Timing computes the time offsets between the channels of a link and
// the reference channels of their FPGA.
type Timing struct {
	BinNs  float64 // TDC bin, in ns
	Period float64 // expected distance between two pulser pulses, in ns

	Offsets [NumChannels]float64 // generator time offsets, in ns
	Sides   [NumChannels]int     // FPGA reading out each channel
}

// NewTiming returns the timing correlator described by cfg.
func NewTiming(cfg Config) *Timing {
	tm := &Timing{
		BinNs:  cfg.TDCBinNs,
		Period: cfg.Period(),
	}
	copy(tm.Offsets[:], cfg.GenOffsets)
	for i := range tm.Sides {
		tm.Sides[i] = cfg.Side(i)
	}
	return tm
}

// Correlate fills the timing offsets of all the channels of lnk,
// using the first hit of each channel.
func (tm *Timing) Correlate(lnk *Link) {
	for i := range lnk.Channels {
		var (
			ch  = &lnk.Channels[i]
			ref = lnk.Ref(tm.Sides[i])
		)
		ch.Timed = false
		if len(ch.Hits) == 0 || len(ref.Hits) == 0 {
			continue
		}

		ch.DT0R = tm.dt(ch.Hits[0].TDC0, ref.Hits[0].TDC0)
		ch.DT1R = tm.dt(ch.Hits[0].TDC1, ref.Hits[0].TDC1)
		ch.DT0RC = tm.wrap(ch.DT0R, i)
		ch.DT1RC = tm.wrap(ch.DT1R, i)
		ch.Timed = true
	}

	var (
		cal = lnk.Ref(SideCAL)
		hv  = lnk.Ref(SideHV)
	)
	lnk.Timed = len(cal.Hits) > 0 && len(hv.Hits) > 0
	if !lnk.Timed {
		return
	}
	lnk.DT0R01 = tm.dt(cal.Hits[0].TDC0, hv.Hits[0].TDC0)
	lnk.DT1R01 = tm.dt(cal.Hits[0].TDC1, hv.Hits[0].TDC1)
}

// dt returns the distance, in ns, between two raw TDC counters.
func (tm *Timing) dt(tdc, ref uint32) float64 {
	n := int64(CorrectedTDC(tdc)) - int64(CorrectedTDC(ref))
	return float64(n) * tm.BinNs
}

// wrap corrects dt for the pulser pulses landing in the neighbouring
// period of the reference channel.
func (tm *Timing) wrap(dt float64, ich int) float64 {
	half := tm.Period / 4
	switch {
	case dt >= half:
		return dt + tm.Offsets[ich] - tm.Period
	case dt < -half:
		return dt + tm.Offsets[ich]
	}
	return dt
}
