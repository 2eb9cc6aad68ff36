// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trk

import (
	"strings"

	"github.com/go-daq/tdaq/log"
	"golang.org/x/xerrors"
)

// State is the processing state of an event.
type State uint8

const (
	Idle        State = iota // no event
	Walking                  // decoding the fragments of an event
	Aggregating              // correlating the hit times of an event
	Done                     // event handed out
)

func (st State) String() string {
	switch st {
	case Idle:
		return "idle"
	case Walking:
		return "walking"
	case Aggregating:
		return "aggregating"
	case Done:
		return "done"
	}
	return "unknown"
}

// Processor decodes the fragments of events, one event at a time.
//
//	proc.Begin(id)
//	for _, frag := range frags {
//		_ = proc.Walk(frag) // errors are recorded in the event
//	}
//	evt, err := proc.End()
type Processor struct {
	cfg Config
	msg log.MsgStream
	dec *Decoder
	tm  *Timing

	state State
	evt   *Event
}

// NewProcessor creates a new event processor.
func NewProcessor(cfg Config, msg log.MsgStream) (*Processor, error) {
	dec, err := NewDecoder(cfg)
	if err != nil {
		return nil, xerrors.Errorf("trk: could not create fragment decoder: %w", err)
	}

	return &Processor{
		cfg: cfg,
		msg: msg,
		dec: dec,
		tm:  NewTiming(cfg),
	}, nil
}

// State returns the current processing state.
func (proc *Processor) State() State { return proc.state }

// Begin starts the processing of a new event.
func (proc *Processor) Begin(id EventID) error {
	switch proc.state {
	case Idle, Done:
	default:
		return xerrors.Errorf("trk: could not begin event %v in state %v", id, proc.state)
	}
	proc.evt = newEvent(id)
	proc.state = Walking
	return nil
}

// Walk decodes a fragment into the current event.
//
// A decoding error is recorded in the event, and returned.
// The next fragments of the event can still be walked.
func (proc *Processor) Walk(frag []byte) error {
	if proc.state != Walking {
		return xerrors.Errorf("trk: could not walk fragment in state %v", proc.state)
	}

	evt := proc.evt
	sum, err := proc.dec.Decode(evt, frag)
	evt.NFrags++
	evt.NBytes += sum.NBytes
	evt.NHits += sum.NHits
	evt.Valid += sum.Valid
	evt.Fragments = append(evt.Fragments, sum.NBytes)

	if proc.cfg.DiagLevel > 2 {
		o := new(strings.Builder)
		Dump(o, frag, sum.NBytes/wordSize)
		proc.msg.Debugf(
			"event %v: fragment %3d nbytes: %5d fsize: %5d\n%s",
			evt.ID, evt.NFrags-1, sum.NBytes, len(frag), o.String(),
		)
	}

	if err != nil {
		kind := KindOf(err)
		evt.fail(kind)
		proc.msg.Errorf(
			"event %v: ERROR:%d (%v) in fragment %d: %+v",
			evt.ID, kind, kind, evt.NFrags-1, err,
		)
		return err
	}

	return nil
}

// End correlates the hit times of the current event and returns it.
// The returned event is not modified by the processor afterwards.
func (proc *Processor) End() (*Event, error) {
	if proc.state != Walking {
		return nil, xerrors.Errorf("trk: could not end event in state %v", proc.state)
	}

	proc.state = Aggregating
	evt := proc.evt
	for _, lnk := range evt.Links {
		if lnk == nil {
			continue
		}
		proc.tm.Correlate(lnk)
	}

	if proc.cfg.DiagLevel > 1 && proc.cfg.MinEventBytes <= evt.NBytes && evt.NBytes <= proc.cfg.MaxEventBytes {
		proc.msg.Infof(
			"event %v: nfrag: %3d nbytes: %5d nhits: %5d error: %d",
			evt.ID, evt.NFrags, evt.NBytes, evt.NHits, evt.Error,
		)
	}

	proc.evt = nil
	proc.state = Done
	return evt, nil
}

// Process decodes all the fragments of one event.
func (proc *Processor) Process(id EventID, frags [][]byte) (*Event, error) {
	err := proc.Begin(id)
	if err != nil {
		return nil, err
	}
	for _, frag := range frags {
		_ = proc.Walk(frag)
	}
	return proc.End()
}
