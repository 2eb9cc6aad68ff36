// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conddb

import (
	"context"
	"fmt"
	"time"

	"github.com/go-lpc/trkdqm/trk"
)

// Calibration holds the timing calibration of a tracker configuration.
type Calibration struct {
	Name string

	PulserFrequency float64 // kHz
	TDCBinNs        float64
	TimeWindow      float64 // ns

	Links    []LinkCalib
	Channels []ChannelCalib
}

// LinkCalib describes the reference channels of an active link.
type LinkCalib struct {
	ID     int
	RefCal int
	RefHV  int
}

// ChannelCalib describes the readout position and generator offset
// of a channel.
type ChannelCalib struct {
	ID        int
	ADCIndex  int
	GenOffset float64 // ns
}

// Calibration retrieves the calibration of the named configuration.
func (db *DB) Calibration(ctx context.Context, name string) (*Calibration, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cal := Calibration{Name: name}
	err := db.scanConfig(ctx, &cal)
	if err != nil {
		return nil, err
	}

	err = db.scanLinks(ctx, &cal)
	if err != nil {
		return nil, err
	}

	err = db.scanChannels(ctx, &cal)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("conddb: context error while retrieving calibration %q: %w", name, err)
	}

	return &cal, nil
}

func (db *DB) scanConfig(ctx context.Context, cal *Calibration) error {
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT pulser_freq, tdc_bin_ns, time_window FROM trk_configs WHERE name=?",
		cal.Name,
	)
	if err != nil {
		return fmt.Errorf("conddb: could not query config %q: %w", cal.Name, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		err = rows.Scan(&cal.PulserFrequency, &cal.TDCBinNs, &cal.TimeWindow)
		if err != nil {
			return fmt.Errorf("conddb: could not scan config %q: %w", cal.Name, err)
		}
		n++
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("conddb: could not scan db for config %q: %w", cal.Name, err)
	}

	if n != 1 {
		return fmt.Errorf("conddb: invalid number of rows for config %q (got=%d, want=1)", cal.Name, n)
	}

	return nil
}

func (db *DB) scanLinks(ctx context.Context, cal *Calibration) error {
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT link, ref_cal, ref_hv FROM trk_links WHERE config=? ORDER BY link",
		cal.Name,
	)
	if err != nil {
		return fmt.Errorf("conddb: could not query links of config %q: %w", cal.Name, err)
	}
	defer rows.Close()

	for i := 0; rows.Next(); i++ {
		var lnk LinkCalib
		err = rows.Scan(&lnk.ID, &lnk.RefCal, &lnk.RefHV)
		if err != nil {
			return fmt.Errorf("conddb: could not scan row %d for links of config %q: %w", i, cal.Name, err)
		}
		cal.Links = append(cal.Links, lnk)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("conddb: could not scan db for links of config %q: %w", cal.Name, err)
	}

	return nil
}

func (db *DB) scanChannels(ctx context.Context, cal *Calibration) error {
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT channel, adc_index, gen_offset FROM trk_channels WHERE config=? ORDER BY channel",
		cal.Name,
	)
	if err != nil {
		return fmt.Errorf("conddb: could not query channels of config %q: %w", cal.Name, err)
	}
	defer rows.Close()

	for i := 0; rows.Next(); i++ {
		var ch ChannelCalib
		err = rows.Scan(&ch.ID, &ch.ADCIndex, &ch.GenOffset)
		if err != nil {
			return fmt.Errorf("conddb: could not scan row %d for channels of config %q: %w", i, cal.Name, err)
		}
		cal.Channels = append(cal.Channels, ch)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("conddb: could not scan db for channels of config %q: %w", cal.Name, err)
	}

	return nil
}

// Apply overrides the reference channels, readout map and generator
// offsets of cfg with the calibration.
// Channels missing from the calibration keep their readout position
// and get a zero offset.
func (cal *Calibration) Apply(cfg *trk.Config) error {
	if len(cal.Links) == 0 {
		return fmt.Errorf("conddb: calibration %q has no link", cal.Name)
	}

	cfg.ActiveLinks = make([]int, len(cal.Links))
	cfg.RefChCal = make([]int, len(cal.Links))
	cfg.RefChHV = make([]int, len(cal.Links))
	for i, lnk := range cal.Links {
		cfg.ActiveLinks[i] = lnk.ID
		cfg.RefChCal[i] = lnk.RefCal
		cfg.RefChHV[i] = lnk.RefHV
	}

	if len(cal.Channels) > 0 {
		cfg.ADCIndex = make([]int, trk.NumChannels)
		cfg.GenOffsets = make([]float64, trk.NumChannels)
		for i := range cfg.ADCIndex {
			cfg.ADCIndex[i] = i
		}
		for _, ch := range cal.Channels {
			if ch.ID < 0 || ch.ID >= trk.NumChannels {
				return fmt.Errorf("conddb: calibration %q: invalid channel %d", cal.Name, ch.ID)
			}
			cfg.ADCIndex[ch.ID] = ch.ADCIndex
			cfg.GenOffsets[ch.ID] = ch.GenOffset
		}
	}

	if cal.PulserFrequency > 0 {
		cfg.PulserFrequency = cal.PulserFrequency
		cfg.PulserPeriod = 0
	}
	if cal.TDCBinNs > 0 {
		cfg.TDCBinNs = cal.TDCBinNs
	}
	if cal.TimeWindow > 0 {
		cfg.TimeWindow = cal.TimeWindow
	}

	err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("conddb: invalid calibration %q: %w", cal.Name, err)
	}
	return nil
}
