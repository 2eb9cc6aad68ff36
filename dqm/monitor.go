// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dqm monitors the data quality of the tracker readout.
//
// A Monitor decodes raw tracker events, fills the run histograms and
// optionally logs a summary of every event. Server exposes a Monitor
// as a TDAQ process.
package dqm // import "github.com/go-lpc/trkdqm/dqm"

import (
	"fmt"
	"io"

	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/trkdqm/internal/eformat"
	"github.com/go-lpc/trkdqm/trk"
)

// Monitor processes the raw events of a run.
type Monitor struct {
	proc *trk.Processor
	sum  *SummaryWriter

	Hists *Hists
	Run   uint32 // run number of the first processed event
	N     int64  // number of processed events
}

// NewMonitor creates a new monitor for the tracker configuration cfg.
func NewMonitor(cfg trk.Config, msg log.MsgStream) (*Monitor, error) {
	proc, err := trk.NewProcessor(cfg, msg)
	if err != nil {
		return nil, fmt.Errorf("dqm: could not create event processor: %w", err)
	}

	return &Monitor{
		proc:  proc,
		Hists: NewHists(cfg),
	}, nil
}

// WithSummary makes the monitor write the summary of every processed
// event to w.
func (mon *Monitor) WithSummary(w io.Writer) {
	mon.sum = NewSummaryWriter(w)
}

// Process decodes a raw event and fills the histograms.
// Decoding errors are recorded in the returned event and do not
// make Process fail.
func (mon *Monitor) Process(raw *eformat.Event) (*trk.Event, error) {
	evt, err := mon.proc.Process(raw.ID, raw.Frags)
	if err != nil {
		return nil, fmt.Errorf("dqm: could not process event %v: %w", raw.ID, err)
	}

	if mon.N == 0 {
		mon.Run = evt.ID.Run
	}
	mon.N++
	mon.Hists.Fill(evt)

	if mon.sum != nil {
		err = mon.sum.Write(evt)
		if err != nil {
			return evt, err
		}
	}

	return evt, nil
}
