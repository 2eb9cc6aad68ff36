// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trk

import (
	"fmt"
)

// Config holds the parameters of the fragment decoding and of the
// timing correlation.
type Config struct {
	DiagLevel     int `yaml:"diagLevel"`
	MinEventBytes int `yaml:"minNBytes"` // event size window for diagnostics
	MaxEventBytes int `yaml:"maxNBytes"`

	MinFragmentBytes int `yaml:"minFragmentSize"`
	MaxFragmentBytes int `yaml:"maxFragmentSize"`
	HeaderOffset     int `yaml:"dataHeaderOffset"` // in 16-bit words

	ActiveLinks []int `yaml:"activeLinks"`
	RefChCal    []int `yaml:"refChCal"` // reference channel of the CAL FPGA, per active link
	RefChHV     []int `yaml:"refChHV"`  // reference channel of the HV FPGA, per active link

	// ADCIndex is the position of each channel in the readout sequence.
	// The first half of the sequence is read out by the CAL FPGA.
	ADCIndex []int `yaml:"adcIndex"`

	GenOffsets      []float64 `yaml:"genOffsets"`      // per channel, ns
	PulserFrequency float64   `yaml:"pulserFrequency"` // kHz
	PulserPeriod    float64   `yaml:"pulserPeriod"`    // ns, derived from the frequency if zero
	TDCBinNs        float64   `yaml:"tdcBinNs"`
	TimeWindow      float64   `yaml:"timeWindow"` // ns

	MaxHitsPerChannel int `yaml:"maxHitsPerChannel"`
}

// DefaultConfig returns the configuration of a single ROC on link 0.
func DefaultConfig() Config {
	return Config{
		MinEventBytes:     0,
		MaxEventBytes:     1 << 20,
		MinFragmentBytes:  wordSize,
		MaxFragmentBytes:  0xffff,
		HeaderOffset:      8,
		ActiveLinks:       []int{0},
		RefChCal:          []int{0},
		RefChHV:           []int{chansPerSide},
		PulserFrequency:   60,
		TDCBinNs:          5. / 256.,
		MaxHitsPerChannel: DefaultMaxHitsPerChannel,
	}
}

// Period returns the expected distance between two pulser pulses, in ns.
func (cfg Config) Period() float64 {
	switch {
	case cfg.PulserPeriod > 0:
		return cfg.PulserPeriod
	case cfg.PulserFrequency > 0:
		return 1e6 / cfg.PulserFrequency
	}
	return 0
}

// Side returns the FPGA reading out channel ich.
func (cfg Config) Side(ich int) int {
	idx := ich
	if len(cfg.ADCIndex) == NumChannels {
		idx = cfg.ADCIndex[ich]
	}
	return idx / chansPerSide
}

// RefChannels returns the reference channels of link id.
func (cfg Config) RefChannels(id int) ([NumSides]int, bool) {
	for i, link := range cfg.ActiveLinks {
		if link == id {
			return [NumSides]int{cfg.RefChCal[i], cfg.RefChHV[i]}, true
		}
	}
	return [NumSides]int{}, false
}

// Validate checks the consistency of the configuration.
func (cfg Config) Validate() error {
	switch {
	case cfg.MinFragmentBytes < wordSize:
		return fmt.Errorf("trk: invalid min fragment size %d (must be >= %d)", cfg.MinFragmentBytes, wordSize)
	case cfg.MaxFragmentBytes < cfg.MinFragmentBytes:
		return fmt.Errorf("trk: invalid fragment size bounds [%d, %d]", cfg.MinFragmentBytes, cfg.MaxFragmentBytes)
	case cfg.HeaderOffset < 1:
		return fmt.Errorf("trk: invalid data header offset %d", cfg.HeaderOffset)
	case len(cfg.ActiveLinks) == 0:
		return fmt.Errorf("trk: no active link")
	case len(cfg.RefChCal) != len(cfg.ActiveLinks):
		return fmt.Errorf("trk: invalid number of CAL reference channels (got=%d, want=%d)", len(cfg.RefChCal), len(cfg.ActiveLinks))
	case len(cfg.RefChHV) != len(cfg.ActiveLinks):
		return fmt.Errorf("trk: invalid number of HV reference channels (got=%d, want=%d)", len(cfg.RefChHV), len(cfg.ActiveLinks))
	case len(cfg.ADCIndex) != 0 && len(cfg.ADCIndex) != NumChannels:
		return fmt.Errorf("trk: invalid ADC index map size %d", len(cfg.ADCIndex))
	case len(cfg.GenOffsets) != 0 && len(cfg.GenOffsets) != NumChannels:
		return fmt.Errorf("trk: invalid number of generator offsets %d", len(cfg.GenOffsets))
	case cfg.Period() <= 0:
		return fmt.Errorf("trk: invalid pulser period")
	case cfg.TDCBinNs <= 0:
		return fmt.Errorf("trk: invalid TDC bin %v", cfg.TDCBinNs)
	case cfg.MaxHitsPerChannel < 1:
		return fmt.Errorf("trk: invalid max number of hits per channel %d", cfg.MaxHitsPerChannel)
	}

	var seen [NumLinks]bool
	for i, link := range cfg.ActiveLinks {
		if link < 0 || link >= NumLinks {
			return fmt.Errorf("trk: invalid active link %d", link)
		}
		if seen[link] {
			return fmt.Errorf("trk: duplicate active link %d", link)
		}
		seen[link] = true
		for _, ich := range []int{cfg.RefChCal[i], cfg.RefChHV[i]} {
			if ich < 0 || ich >= NumChannels {
				return fmt.Errorf("trk: invalid reference channel %d for link %d", ich, link)
			}
		}
	}

	var used [NumChannels]bool
	for ich, idx := range cfg.ADCIndex {
		if idx < 0 || idx >= NumChannels || used[idx] {
			return fmt.Errorf("trk: invalid ADC index %d for channel %d", idx, ich)
		}
		used[idx] = true
	}

	return nil
}
