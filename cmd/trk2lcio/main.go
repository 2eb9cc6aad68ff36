// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command trk2lcio converts a tracker raw data file to an LCIO one.
package main // import "github.com/go-lpc/trkdqm/cmd/trk2lcio"

import (
	"compress/flate"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-lpc/trkdqm/internal/eformat"
	"github.com/go-lpc/trkdqm/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

var (
	msg = log.New(os.Stdout, "trk2lcio: ", 0)
)

func main() {
	var (
		oname = flag.String("o", "out.slcio", "path to output LCIO file")
		compr = flag.Int("lvl", flate.DefaultCompression, "compression level for output LCIO file")
		freq  = flag.Int("freq", 1000, "printout frequency")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: trk2lcio [OPTIONS] file.raw

ex:
 $> trk2lcio -o out.slcio -lvl=9 ./run_000042.raw
 $> trk2lcio -o out.slcio ./run_000042.raw.zst

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		msg.Fatalf("missing input raw file")
	}

	if *oname == "" {
		flag.Usage()
		msg.Fatalf("invalid output LCIO file name")
	}

	err := process(*oname, *compr, *freq, flag.Arg(0))
	if err != nil {
		msg.Fatalf("could not convert raw file: %+v", err)
	}
}

func process(oname string, lvl, freq int, fname string) error {
	r, err := eformat.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open raw file: %w", err)
	}
	defer r.Close()

	w, err := lcio.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()

	w.SetCompressionLevel(lvl)

	err = xcnv.Raw2LCIO(w, r.Decoder, freq, msg)
	if err != nil {
		return fmt.Errorf("could not convert raw to LCIO: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output LCIO file: %w", err)
	}

	return nil
}
