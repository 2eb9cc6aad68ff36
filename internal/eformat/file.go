// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eformat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-lpc/trkdqm/internal/mmap"
	"github.com/klauspost/compress/zstd"
)

// Ext is the extension of zstd compressed raw files.
const Ext = ".zst"

// Reader reads raw events from a file.
type Reader struct {
	*Decoder

	h  *mmap.Handle
	f  *os.File
	zr *zstd.Decoder
}

// Open opens the named raw file for reading.
// Files with a ".zst" extension are decompressed on the fly,
// plain files are memory-mapped.
func Open(fname string) (*Reader, error) {
	if filepath.Ext(fname) != Ext {
		h, err := mmap.Open(fname)
		if err != nil {
			return nil, fmt.Errorf("eformat: could not open raw file: %w", err)
		}
		r := io.NewSectionReader(h, 0, int64(h.Len()))
		return &Reader{Decoder: NewDecoder(r), h: h}, nil
	}

	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("eformat: could not open raw file: %w", err)
	}

	zr, err := zstd.NewReader(bufio.NewReader(f))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("eformat: could not create zstd reader: %w", err)
	}

	return &Reader{Decoder: NewDecoder(zr), f: f, zr: zr}, nil
}

// Close closes the underlying file.
// Close is idempotent.
func (r *Reader) Close() error {
	if r.zr != nil {
		r.zr.Close()
		r.zr = nil
	}
	if r.h != nil {
		h := r.h
		r.h = nil
		err := h.Close()
		if err != nil {
			return fmt.Errorf("eformat: could not close raw file: %w", err)
		}
	}
	if r.f != nil {
		f := r.f
		r.f = nil
		err := f.Close()
		if err != nil {
			return fmt.Errorf("eformat: could not close raw file: %w", err)
		}
	}
	return nil
}

// Writer writes raw events to a file.
type Writer struct {
	*Encoder

	f  *os.File
	bw *bufio.Writer
	zw *zstd.Encoder
}

// Create creates the named raw file.
// Files with a ".zst" extension are compressed with zstd.
func Create(fname string) (*Writer, error) {
	f, err := os.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("eformat: could not create raw file: %w", err)
	}

	w := &Writer{f: f, bw: bufio.NewWriter(f)}
	if filepath.Ext(fname) != Ext {
		w.Encoder = NewEncoder(w.bw)
		return w, nil
	}

	w.zw, err = zstd.NewWriter(w.bw)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("eformat: could not create zstd writer: %w", err)
	}
	w.Encoder = NewEncoder(w.zw)
	return w, nil
}

// Close flushes and closes the underlying file.
// Close is idempotent.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	f := w.f
	w.f = nil
	defer f.Close()

	if w.zw != nil {
		err := w.zw.Close()
		if err != nil {
			return fmt.Errorf("eformat: could not close zstd writer: %w", err)
		}
	}

	err := w.bw.Flush()
	if err != nil {
		return fmt.Errorf("eformat: could not flush raw file: %w", err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("eformat: could not close raw file: %w", err)
	}
	return nil
}
