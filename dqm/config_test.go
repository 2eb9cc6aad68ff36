// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dqm

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tmp, err := os.MkdirTemp("", "trk-dqm-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	for _, tc := range []struct {
		name string
		yaml string
		err  string
		want func(cfg *Config)
	}{
		{
			name: "defaults",
			yaml: "calib: run-42\n",
			want: func(cfg *Config) {
				cfg.Calib = "run-42"
			},
		},
		{
			name: "full",
			yaml: `
trk:
  diagLevel: 2
  minFragmentSize: 2
  maxFragmentSize: 4096
  dataHeaderOffset: 8
  activeLinks: [0, 3]
  refChCal: [91, 0]
  refChHV: [94, 48]
  pulserFrequency: 31.29
  tdcBinNs: 0.02
  timeWindow: 25000
  maxHitsPerChannel: 20
hists: run.root
summary: run.cbor
alert:
  threshold: 0.5
  minEvents: 10
  server: smtp.example.org
  port: 587
  user: dqm@example.org
  to: [shifter@example.org]
`,
			want: func(cfg *Config) {
				cfg.Trk.DiagLevel = 2
				cfg.Trk.MaxFragmentBytes = 4096
				cfg.Trk.ActiveLinks = []int{0, 3}
				cfg.Trk.RefChCal = []int{91, 0}
				cfg.Trk.RefChHV = []int{94, 48}
				cfg.Trk.PulserFrequency = 31.29
				cfg.Trk.TDCBinNs = 0.02
				cfg.Trk.TimeWindow = 25000
				cfg.Hists = "run.root"
				cfg.Summary = "run.cbor"
				cfg.Alert.Threshold = 0.5
				cfg.Alert.MinEvents = 10
				cfg.Alert.Server = "smtp.example.org"
				cfg.Alert.Port = 587
				cfg.Alert.User = "dqm@example.org"
				cfg.Alert.To = []string{"shifter@example.org"}
			},
		},
		{
			name: "unknown-field",
			yaml: "histos: run.root\n",
			err:  "field histos not found",
		},
		{
			name: "invalid",
			yaml: "trk:\n  activeLinks: [0, 0]\n  refChCal: [0, 0]\n  refChHV: [48, 48]\n",
			err:  "trk: duplicate active link 0",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := filepath.Join(tmp, tc.name+".yaml")
			err := os.WriteFile(fname, []byte(tc.yaml), 0644)
			if err != nil {
				t.Fatalf("could not write config file: %+v", err)
			}

			got, err := LoadConfig(fname)
			switch {
			case err != nil && tc.err != "":
				if !strings.Contains(err.Error(), tc.err) {
					t.Fatalf("invalid error:\ngot= %v\nwant=%v", err, tc.err)
				}
				return
			case err != nil:
				t.Fatalf("could not load config: %+v", err)
			case tc.err != "":
				t.Fatalf("expected an error (%s)", tc.err)
			}

			want := DefaultConfig()
			tc.want(&want)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid config:\ngot= %+v\nwant=%+v", got, want)
			}
		})
	}
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig("not-there.yaml")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if got, want := err.Error(), "dqm: could not open config file: open not-there.yaml: no such file or directory"; got != want {
		t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
	}
}

func TestAlertConfigEnabled(t *testing.T) {
	for _, tc := range []struct {
		cfg  AlertConfig
		want bool
	}{
		{AlertConfig{}, false},
		{AlertConfig{Server: "smtp", Port: 25, User: "dqm"}, false},
		{AlertConfig{Server: "smtp", Port: 25, User: "dqm", To: []string{"a"}}, true},
		{AlertConfig{Server: "smtp", User: "dqm", To: []string{"a"}}, false},
	} {
		if got, want := tc.cfg.Enabled(), tc.want; got != want {
			t.Fatalf("invalid enabled state for %+v: got=%v, want=%v", tc.cfg, got, want)
		}
	}
}
