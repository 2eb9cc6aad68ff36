// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trk

import (
	"testing"
)

func TestReverseBits(t *testing.T) {
	for _, tc := range []struct {
		v, want uint16
	}{
		{0x000, 0x000},
		{0x001, 0x200},
		{0x200, 0x001},
		{0x3ff, 0x3ff},
		{0x00f, 0x3c0},
		{0x155, 0x2aa},
		{0xfc01, 0x200}, // bits above the 10th are dropped.
	} {
		if got := ReverseBits(tc.v); got != tc.want {
			t.Errorf("reverse(0x%03x): got=0x%03x, want=0x%03x", tc.v, got, tc.want)
		}
	}

	for v := uint16(0); v < 1024; v++ {
		if got := ReverseBits(ReverseBits(v)); got != v {
			t.Fatalf("reverse(reverse(0x%03x)) = 0x%03x", v, got)
		}
	}
}

func TestCorrectedTDC(t *testing.T) {
	for _, tc := range []struct {
		raw, want uint32
	}{
		{0x000000, 0x0000ff},
		{0x0000ff, 0x000000},
		{0x123456, 0x1234a9},
		{0xffffff, 0xffff00},
	} {
		if got := CorrectedTDC(tc.raw); got != tc.want {
			t.Errorf("corr(0x%06x): got=0x%06x, want=0x%06x", tc.raw, got, tc.want)
		}
	}

	for raw := uint32(0); raw <= 0xffffff; raw += 0x101 {
		got := CorrectedTDC(raw)
		if got&0xffff00 != raw&0xffff00 {
			t.Fatalf("corr(0x%06x)=0x%06x: invalid high bits", raw, got)
		}
		if got&0xff != 0xff-raw&0xff {
			t.Fatalf("corr(0x%06x)=0x%06x: invalid low byte", raw, got)
		}
	}
}

func TestHitRoundTrip(t *testing.T) {
	want := Hit{
		Channel: 130,
		TDC0:    0xabcdef,
		TDC1:    0x123456,
		TOT0:    0x7,
		TOT1:    0xa,
		EWM:     0x3,
		Flags:   0x9,
		NumADC:  1,
		PMP:     0x2aa,
	}
	for i := range want.ADC {
		want.ADC[i] = uint16(i*67+13) & 0x3ff
	}

	buf := make([]byte, HitSize)
	want.encode(buf)

	got, err := DecodeHit(buf)
	if err != nil {
		t.Fatalf("could not decode hit: %+v", err)
	}

	if got != want {
		t.Fatalf("invalid round-trip:\ngot= %+v\nwant=%+v", got, want)
	}

	if got, want := got.FoldedChannel(), 2; got != want {
		t.Fatalf("invalid folded channel: got=%d, want=%d", got, want)
	}
}

func TestHitSamples(t *testing.T) {
	buf := make([]byte, HitSize)
	// first sample: raw 0x001, middle sample split as 0x3f<<10 | 0xf,
	// last sample: raw 0x200.
	putU16(buf, 6, 0x001|0x3f<<10)
	putU16(buf, 7, 0xf|0x200<<4)

	hit, err := DecodeHit(buf)
	if err != nil {
		t.Fatalf("could not decode hit: %+v", err)
	}

	for i, want := range []uint16{0x200, 0x3ff, 0x001} {
		if got := hit.ADC[i]; got != want {
			t.Errorf("adc[%d]: got=0x%03x, want=0x%03x", i, got, want)
		}
	}
	for i := 3; i < NumSamples; i++ {
		if got := hit.ADC[i]; got != 0 {
			t.Errorf("adc[%d]: got=0x%03x, want=0", i, got)
		}
	}
}

func TestFoldedChannel(t *testing.T) {
	for _, tc := range []struct {
		raw  uint16
		want int
	}{
		{0, 0},
		{95, 95},
		{96, 96},
		{127, 127},
		{128, 0},
		{223, 95},
		{224, 96},
	} {
		hit := Hit{Channel: tc.raw}
		if got := hit.FoldedChannel(); got != tc.want {
			t.Errorf("fold(%d): got=%d, want=%d", tc.raw, got, tc.want)
		}
	}
}
