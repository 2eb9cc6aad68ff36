// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dqm

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-lpc/trkdqm/trk"
)

// Summary is the condensed record of one processed event.
type Summary struct {
	Run    uint32 `cbor:"1,keyasint"`
	SubRun uint32 `cbor:"2,keyasint"`
	Event  uint32 `cbor:"3,keyasint"`

	NFrags int    `cbor:"4,keyasint"`
	NBytes int    `cbor:"5,keyasint"`
	NHits  int    `cbor:"6,keyasint"`
	Valid  int    `cbor:"7,keyasint"`
	Error  uint8  `cbor:"8,keyasint"`
	Links  []Link `cbor:"9,keyasint,omitempty"`
}

// Link is the condensed record of one link of an event.
type Link struct {
	ID     int     `cbor:"1,keyasint"`
	NHits  int     `cbor:"2,keyasint"`
	Valid  int     `cbor:"3,keyasint"`
	Timed  bool    `cbor:"4,keyasint"`
	DT0R01 float64 `cbor:"5,keyasint"`
	DT1R01 float64 `cbor:"6,keyasint"`
}

// NewSummary returns the summary of evt.
func NewSummary(evt *trk.Event) Summary {
	sum := Summary{
		Run:    evt.ID.Run,
		SubRun: evt.ID.SubRun,
		Event:  evt.ID.Event,
		NFrags: evt.NFrags,
		NBytes: evt.NBytes,
		NHits:  evt.NHits,
		Valid:  evt.Valid,
		Error:  uint8(evt.Error),
	}
	for _, lnk := range evt.Links {
		if lnk == nil {
			continue
		}
		sum.Links = append(sum.Links, Link{
			ID:     lnk.ID,
			NHits:  lnk.NHits,
			Valid:  lnk.Valid,
			Timed:  lnk.Timed,
			DT0R01: lnk.DT0R01,
			DT1R01: lnk.DT1R01,
		})
	}
	return sum
}

// SummaryWriter writes a stream of CBOR encoded event summaries.
type SummaryWriter struct {
	enc *cbor.Encoder
	n   int
}

// NewSummaryWriter returns a new summary writer that writes to w.
func NewSummaryWriter(w io.Writer) *SummaryWriter {
	return &SummaryWriter{enc: cbor.NewEncoder(w)}
}

// Write writes the summary of evt.
func (w *SummaryWriter) Write(evt *trk.Event) error {
	err := w.enc.Encode(NewSummary(evt))
	if err != nil {
		return fmt.Errorf("dqm: could not encode summary of event %v: %w", evt.ID, err)
	}
	w.n++
	return nil
}

// N returns the number of summaries written so far.
func (w *SummaryWriter) N() int { return w.n }

// SummaryReader reads a stream of CBOR encoded event summaries.
type SummaryReader struct {
	r   *countReader
	dec *cbor.Decoder
}

// NewSummaryReader returns a new summary reader that reads from r.
func NewSummaryReader(r io.Reader) *SummaryReader {
	cr := &countReader{r: r}
	return &SummaryReader{r: cr, dec: cbor.NewDecoder(cr)}
}

// Read reads the next summary.
// Read returns io.EOF when no more summaries are available, and
// io.ErrUnexpectedEOF when the stream ends in the middle of a summary.
func (r *SummaryReader) Read(sum *Summary) error {
	err := r.dec.Decode(sum)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return fmt.Errorf("dqm: could not decode summary: %w", err)
		}
		if r.r.n > int64(r.dec.NumBytesRead()) {
			return fmt.Errorf("dqm: could not decode summary: %w", io.ErrUnexpectedEOF)
		}
		return io.EOF
	}
	return nil
}

// countReader counts the bytes read from r, including the ones
// buffered by the decoder but not yet consumed.
type countReader struct {
	r io.Reader
	n int64
}

func (r *countReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.n += int64(n)
	return n, err
}
