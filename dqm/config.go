// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dqm

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/go-lpc/trkdqm/conddb"
	"github.com/go-lpc/trkdqm/trk"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration of a DQM process.
type Config struct {
	Trk trk.Config `yaml:"trk"`

	Calib   string `yaml:"calib"`   // name of the calibration to load from the conditions DB
	Hists   string `yaml:"hists"`   // ROOT file where histograms are saved at the end of a run
	Summary string `yaml:"summary"` // CBOR file of per-event summaries

	Alert AlertConfig `yaml:"alert"`
}

// AlertConfig configures the end-of-run mail alert.
type AlertConfig struct {
	Threshold float64  `yaml:"threshold"` // fraction of events with errors triggering an alert
	MinEvents int      `yaml:"minEvents"` // no alert for runs with fewer events
	Server    string   `yaml:"server"`
	Port      int      `yaml:"port"`
	User      string   `yaml:"user"`
	Password  string   `yaml:"password"`
	To        []string `yaml:"to"`
}

// Enabled returns whether mail alerts can be sent.
func (cfg AlertConfig) Enabled() bool {
	return cfg.Server != "" && cfg.Port != 0 && cfg.User != "" && len(cfg.To) > 0
}

// DefaultConfig returns the default DQM configuration.
func DefaultConfig() Config {
	return Config{
		Trk:   trk.DefaultConfig(),
		Hists: "trk-dqm.root",
		Alert: AlertConfig{
			Threshold: 0.01,
			MinEvents: 100,
			Server:    os.Getenv("MAIL_SERVER"),
			Port:      atoi(os.Getenv("MAIL_PORT")),
			User:      os.Getenv("MAIL_USERNAME"),
			Password:  os.Getenv("MAIL_PASSWORD"),
		},
	}
}

// LoadConfig loads the DQM configuration from the YAML file fname.
// Values missing from the file keep their default value.
func LoadConfig(fname string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(fname)
	if err != nil {
		return cfg, fmt.Errorf("dqm: could not open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	err = dec.Decode(&cfg)
	if err != nil {
		return cfg, fmt.Errorf("dqm: could not decode config file %q: %w", fname, err)
	}

	err = cfg.Trk.Validate()
	if err != nil {
		return cfg, fmt.Errorf("dqm: invalid config file %q: %w", fname, err)
	}

	return cfg, nil
}

// Calibrate updates the tracker configuration with the calibration
// stored in the conditions DB.
// The last tracker configuration is used when cfg.Calib is empty.
func (cfg *Config) Calibrate(ctx context.Context, db *conddb.DB) error {
	name := cfg.Calib
	if name == "" {
		v, err := db.LastConfig(ctx)
		if err != nil {
			return fmt.Errorf("dqm: could not find last tracker config: %w", err)
		}
		name = v
	}

	calib, err := db.Calibration(ctx, name)
	if err != nil {
		return fmt.Errorf("dqm: could not load calibration %q: %w", name, err)
	}

	err = calib.Apply(&cfg.Trk)
	if err != nil {
		return fmt.Errorf("dqm: could not apply calibration %q: %w", name, err)
	}
	cfg.Calib = name

	return nil
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
