// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-lpc/trkdqm/internal/eformat"
	"go-hep.org/x/hep/lcio"
)

// Reader reads raw events from a raw file or from an LCIO file.
type Reader struct {
	raw  *eformat.Reader
	lcio *lcio.Reader
	n    int
}

// Open opens the named file for reading.
// Files with a ".slcio" extension are read as LCIO files, all the
// other ones as raw files.
func Open(fname string) (*Reader, error) {
	if filepath.Ext(fname) != ".slcio" {
		r, err := eformat.Open(fname)
		if err != nil {
			return nil, err
		}
		return &Reader{raw: r}, nil
	}

	r, err := lcio.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("xcnv: could not open LCIO file: %w", err)
	}
	return &Reader{lcio: r}, nil
}

// Read reads the next event into evt.
// Read returns io.EOF when no more events are available.
func (r *Reader) Read(evt *eformat.Event) error {
	if r.raw != nil {
		return r.raw.Decode(evt)
	}

	if !r.lcio.Next() {
		if err := r.lcio.Err(); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("xcnv: could not read LCIO event %d: %w", r.n, err)
		}
		return io.EOF
	}

	v := r.lcio.Event()
	raw, err := FromLCIO(&v)
	if err != nil {
		return err
	}
	*evt = raw
	r.n++
	return nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.raw != nil {
		return r.raw.Close()
	}
	return r.lcio.Close()
}
