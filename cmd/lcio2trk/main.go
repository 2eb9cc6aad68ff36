// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command lcio2trk converts an LCIO file to a tracker raw data file.
package main // import "github.com/go-lpc/trkdqm/cmd/lcio2trk"

import (
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/trkdqm/internal/eformat"
	"github.com/go-lpc/trkdqm/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

func main() {
	log.SetPrefix("lcio2trk: ")
	log.SetFlags(0)

	var (
		oname = flag.String("o", "out.raw", "path to output raw file (.zst to compress)")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: lcio2trk [OPTIONS] file.slcio

ex:
 $> lcio2trk -o out.raw ./input.slcio
 $> lcio2trk -o out.raw.zst ./input.slcio

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing input LCIO file")
	}

	if *oname == "" {
		flag.Usage()
		log.Fatalf("invalid output raw file name")
	}

	n, err := numEvents(flag.Arg(0))
	if err != nil {
		log.Fatalf("could not assess number of events: %+v", err)
	}
	log.Printf("input:  %s", flag.Arg(0))
	log.Printf("events: %d", n)

	err = process(*oname, flag.Arg(0), int(n/10))
	if err != nil {
		log.Fatalf("could not convert LCIO file: %+v", err)
	}
}

func numEvents(fname string) (int64, error) {
	r, err := lcio.Open(fname)
	if err != nil {
		return 0, fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer r.Close()

	var n int64
	for r.Next() {
		n++
	}

	err = r.Err()
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("could not assess number of events in %q: %w", fname, err)
	}

	return n, nil
}

func process(oname, fname string, freq int) error {
	r, err := lcio.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	w, err := eformat.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output raw file: %w", err)
	}
	defer w.Close()

	err = xcnv.LCIO2Raw(w.Encoder, r, freq, log.Default())
	if err != nil {
		return fmt.Errorf("could not convert LCIO to raw: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output raw file: %w", err)
	}

	return nil
}
