// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tlog "github.com/go-daq/tdaq/log"
	"github.com/go-lpc/trkdqm/dqm"
	"github.com/go-lpc/trkdqm/internal/eformat"
	"github.com/go-lpc/trkdqm/internal/pulser"
)

func TestRun(t *testing.T) {
	tmp, err := os.MkdirTemp("", "trk-dqm-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	cfg := dqm.DefaultConfig()
	cfg.Trk.TimeWindow = 2000
	cfg.Hists = filepath.Join(tmp, "dqm.root")
	cfg.Summary = filepath.Join(tmp, "dqm.cbor")

	gen, err := pulser.New(cfg.Trk, 42, 0.1, 1234)
	if err != nil {
		t.Fatalf("could not create pulser: %+v", err)
	}

	var fnames []string
	for i, name := range []string{"run-1.raw", "run-2.raw.zst"} {
		fname := filepath.Join(tmp, name)
		w, err := eformat.Create(fname)
		if err != nil {
			t.Fatalf("could not create raw file: %+v", err)
		}
		gen.SetSubRun(uint32(i))
		for j := 0; j < 5; j++ {
			evt, err := gen.Next()
			if err != nil {
				t.Fatalf("could not generate event: %+v", err)
			}
			err = w.Encode(&evt)
			if err != nil {
				t.Fatalf("could not encode event: %+v", err)
			}
		}
		err = w.Close()
		if err != nil {
			t.Fatalf("could not close raw file: %+v", err)
		}
		fnames = append(fnames, fname)
	}

	for _, tc := range []struct {
		nevts int64
		want  int
	}{
		{-1, 10},
		{3, 3},
		{7, 7},
	} {
		msg := tlog.NewMsgStream("trk-dqm", tlog.LvlError, io.Discard)
		err = run(context.Background(), cfg, msg, tc.nevts, fnames)
		if err != nil {
			t.Fatalf("could not run DQM: %+v", err)
		}

		_, err = os.Stat(cfg.Hists)
		if err != nil {
			t.Fatalf("could not stat ROOT file: %+v", err)
		}

		f, err := os.Open(cfg.Summary)
		if err != nil {
			t.Fatalf("could not open summary file: %+v", err)
		}
		r := dqm.NewSummaryReader(f)
		n := 0
		for {
			var sum dqm.Summary
			err := r.Read(&sum)
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("could not read summary: %+v", err)
			}
			if sum.Run != 42 {
				t.Fatalf("invalid run number: %d", sum.Run)
			}
			n++
		}
		f.Close()

		if got, want := n, tc.want; got != want {
			t.Fatalf("invalid number of events (n=%d): got=%d, want=%d", tc.nevts, got, want)
		}
	}
}

func TestRunMissingFile(t *testing.T) {
	cfg := dqm.DefaultConfig()
	cfg.Hists = ""
	msg := tlog.NewMsgStream("trk-dqm", tlog.LvlError, io.Discard)
	err := run(context.Background(), cfg, msg, -1, []string{"not-there.raw"})
	if err == nil {
		t.Fatalf("expected an error")
	}
}

func TestRunSummaryFlushError(t *testing.T) {
	const full = "/dev/full"
	if _, err := os.Stat(full); err != nil {
		t.Skipf("no %s device", full)
	}

	tmp, err := os.MkdirTemp("", "trk-dqm-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	cfg := dqm.DefaultConfig()
	cfg.Hists = ""
	cfg.Summary = full

	gen, err := pulser.New(cfg.Trk, 42, 0.1, 1234)
	if err != nil {
		t.Fatalf("could not create pulser: %+v", err)
	}

	fname := filepath.Join(tmp, "run.raw")
	w, err := eformat.Create(fname)
	if err != nil {
		t.Fatalf("could not create raw file: %+v", err)
	}
	for i := 0; i < 3; i++ {
		evt, err := gen.Next()
		if err != nil {
			t.Fatalf("could not generate event: %+v", err)
		}
		err = w.Encode(&evt)
		if err != nil {
			t.Fatalf("could not encode event: %+v", err)
		}
	}
	err = w.Close()
	if err != nil {
		t.Fatalf("could not close raw file: %+v", err)
	}

	msg := tlog.NewMsgStream("trk-dqm", tlog.LvlError, io.Discard)
	err = run(context.Background(), cfg, msg, -1, []string{fname})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if got, want := err.Error(), "could not flush summary file"; !strings.HasPrefix(got, want) {
		t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
	}
}

func TestMsgLevel(t *testing.T) {
	for _, tc := range []struct {
		lvl  string
		want tlog.Level
	}{
		{"DEBUG", tlog.LvlDebug},
		{"INFO", tlog.LvlInfo},
		{"WARN", tlog.LvlWarning},
		{"ERROR", tlog.LvlError},
		{"", tlog.LvlInfo},
	} {
		if got, want := msgLevel(tc.lvl), tc.want; got != want {
			t.Fatalf("invalid level for %q: got=%v, want=%v", tc.lvl, got, want)
		}
	}
}
