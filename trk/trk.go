// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trk decodes tracker DTC fragments and derives raw timing
// diagnostics from the decoded hits.
//
// A Processor walks all the fragments of one event with a Decoder,
// filling a tree of Link and Channel records owned by the Event, and
// then correlates the hit times of each channel with the reference
// channels of its FPGA.
package trk // import "github.com/go-lpc/trkdqm/trk"

import (
	"fmt"
)

// EventID identifies an event.
type EventID struct {
	Run    uint32
	SubRun uint32
	Event  uint32
}

func (id EventID) String() string {
	return fmt.Sprintf("%6d:%8d:%8d", id.Run, id.SubRun, id.Event)
}

// Event holds the decoded content of all the fragments of one event.
type Event struct {
	ID EventID

	NBytes int // total number of bytes, as declared by the fragments
	NHits  int // total number of hits, as declared by the link headers
	NFrags int
	Valid  int       // sum of 10*valid over all link headers
	Error  ErrorKind // first error met while decoding the event

	Fragments []int // declared byte count of each fragment

	Links [NumLinks]*Link
}

func newEvent(id EventID) *Event {
	return &Event{ID: id}
}

// Link returns the record of link id, or nil if that link was not
// seen in this event.
func (evt *Event) Link(id int) *Link {
	if id < 0 || id >= NumLinks {
		return nil
	}
	return evt.Links[id]
}

// fail records kind as the event error, unless an error was already
// recorded.
func (evt *Event) fail(kind ErrorKind) {
	if evt.Error != ErrNone {
		return
	}
	evt.Error = kind
}

// Link holds the data of one readout link (ROC) for one event.
type Link struct {
	ID       int
	NBytes   int
	NPackets int
	NHits    int
	Valid    int
	Tag      uint64 // event window tag

	Channels [NumChannels]Channel
	RefCh    [NumSides]int // reference channel of each FPGA

	Timed  bool    // whether both reference channels have hits
	DT0R01 float64 // T0(ref CAL)-T0(ref HV), ns
	DT1R01 float64 // T1(ref CAL)-T1(ref HV), ns
}

func newLink(id int, refs [NumSides]int, nhits int) *Link {
	lnk := &Link{ID: id, RefCh: refs}
	for i := range lnk.Channels {
		lnk.Channels[i].Hits = make([]Hit, 0, nhits)
	}
	return lnk
}

// Ref returns the reference channel of the given FPGA side.
func (lnk *Link) Ref(side int) *Channel {
	return &lnk.Channels[lnk.RefCh[side]]
}

func (lnk *Link) reset() {
	for i := range lnk.Channels {
		lnk.Channels[i].reset()
	}
	lnk.Timed = false
	lnk.DT0R01 = 0
	lnk.DT1R01 = 0
}

// Channel holds the hits of one channel of a link for one event.
type Channel struct {
	Hits []Hit

	Timed bool    // whether the channel and its reference channel have hits
	DT0R  float64 // T0(ich,0)-T0(ref,0), ns
	DT1R  float64 // T1(ich,0)-T1(ref,0), ns
	DT0RC float64 // DT0R corrected for the generator offset
	DT1RC float64 // DT1R corrected for the generator offset
}

func (ch *Channel) reset() {
	ch.Hits = ch.Hits[:0]
	ch.Timed = false
	ch.DT0R = 0
	ch.DT1R = 0
	ch.DT0RC = 0
	ch.DT1RC = 0
}
