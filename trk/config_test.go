// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trk

import (
	"testing"
)

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  func(cfg *Config)
		want string
	}{
		{
			name: "default",
			cfg:  func(cfg *Config) {},
		},
		{
			name: "min-fragment-size",
			cfg:  func(cfg *Config) { cfg.MinFragmentBytes = 1 },
			want: "trk: invalid min fragment size 1 (must be >= 2)",
		},
		{
			name: "fragment-size-bounds",
			cfg:  func(cfg *Config) { cfg.MaxFragmentBytes = 1 },
			want: "trk: invalid fragment size bounds [2, 1]",
		},
		{
			name: "header-offset",
			cfg:  func(cfg *Config) { cfg.HeaderOffset = 0 },
			want: "trk: invalid data header offset 0",
		},
		{
			name: "no-links",
			cfg:  func(cfg *Config) { cfg.ActiveLinks = nil },
			want: "trk: no active link",
		},
		{
			name: "ref-cal",
			cfg:  func(cfg *Config) { cfg.RefChCal = nil },
			want: "trk: invalid number of CAL reference channels (got=0, want=1)",
		},
		{
			name: "ref-hv",
			cfg:  func(cfg *Config) { cfg.RefChHV = []int{1, 2} },
			want: "trk: invalid number of HV reference channels (got=2, want=1)",
		},
		{
			name: "adc-index-size",
			cfg:  func(cfg *Config) { cfg.ADCIndex = []int{1} },
			want: "trk: invalid ADC index map size 1",
		},
		{
			name: "gen-offsets",
			cfg:  func(cfg *Config) { cfg.GenOffsets = []float64{1} },
			want: "trk: invalid number of generator offsets 1",
		},
		{
			name: "period",
			cfg:  func(cfg *Config) { cfg.PulserFrequency = 0 },
			want: "trk: invalid pulser period",
		},
		{
			name: "max-hits",
			cfg:  func(cfg *Config) { cfg.MaxHitsPerChannel = 0 },
			want: "trk: invalid max number of hits per channel 0",
		},
		{
			name: "duplicate-link",
			cfg: func(cfg *Config) {
				cfg.ActiveLinks = []int{1, 1}
				cfg.RefChCal = []int{0, 0}
				cfg.RefChHV = []int{48, 48}
			},
			want: "trk: duplicate active link 1",
		},
		{
			name: "ref-channel",
			cfg:  func(cfg *Config) { cfg.RefChHV = []int{96} },
			want: "trk: invalid reference channel 96 for link 0",
		},
		{
			name: "adc-index-permutation",
			cfg: func(cfg *Config) {
				cfg.ADCIndex = make([]int, NumChannels)
			},
			want: "trk: invalid ADC index 0 for channel 1",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.cfg(&cfg)

			err := cfg.Validate()
			switch {
			case err == nil && tc.want == "":
				// ok
			case err == nil:
				t.Fatalf("expected an error (%s)", tc.want)
			case tc.want == "":
				t.Fatalf("unexpected error: %+v", err)
			default:
				if got, want := err.Error(), tc.want; got != want {
					t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
				}
			}
		})
	}
}

func TestConfigPeriod(t *testing.T) {
	cfg := DefaultConfig()
	if got, want := cfg.Period(), 1e6/60; got != want {
		t.Fatalf("invalid period: got=%v, want=%v", got, want)
	}

	cfg.PulserPeriod = 1000
	if got, want := cfg.Period(), 1000.0; got != want {
		t.Fatalf("invalid period: got=%v, want=%v", got, want)
	}
}

func TestConfigRefChannels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ActiveLinks = []int{2, 5}
	cfg.RefChCal = []int{1, 3}
	cfg.RefChHV = []int{50, 60}

	refs, ok := cfg.RefChannels(5)
	if !ok {
		t.Fatalf("link 5 should be active")
	}
	if got, want := refs, [NumSides]int{3, 60}; got != want {
		t.Fatalf("invalid reference channels: got=%v, want=%v", got, want)
	}

	_, ok = cfg.RefChannels(0)
	if ok {
		t.Fatalf("link 0 should not be active")
	}
}
