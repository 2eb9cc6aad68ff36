// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command trk-split splits a tracker raw file into n raw files,
// one per subrun.
package main // import "github.com/go-lpc/trkdqm/cmd/trk-split"

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-lpc/trkdqm/internal/eformat"
	"github.com/go-lpc/trkdqm/internal/xcnv"
)

var (
	msg = log.New(os.Stdout, "trk-split: ", 0)
)

func main() {
	xmain(os.Args[1:])
}

func xmain(args []string) {
	var (
		fset = flag.NewFlagSet("trk-split", flag.ExitOnError)

		oname = fset.String("o", "out.raw", "path to output raw file")
	)

	fset.Usage = func() {
		fmt.Printf(`Usage: trk-split [OPTIONS] file.raw

ex:
 $> trk-split -o out.raw ./run_000042.raw
 $> trk-split -o out.raw.zst ./run_000042.slcio

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() != 1 {
		fset.Usage()
		msg.Fatalf("missing input raw file")
	}

	if *oname == "" {
		fset.Usage()
		msg.Fatalf("invalid output raw file")
	}

	for _, arg := range fset.Args() {
		err := process(*oname, arg)
		if err != nil {
			msg.Fatalf("could not split raw file %q: %+v", arg, err)
		}
	}
}

func process(oname, fname string) error {
	r, err := xcnv.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open input file: %w", err)
	}
	defer r.Close()

	out := make(map[uint32]*eformat.Writer)
	defer func() {
		for _, w := range out {
			_ = w.Close()
		}
	}()

loop:
	for {
		var evt eformat.Event
		err := r.Read(&evt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			return fmt.Errorf("could not read event: %w", err)
		}

		w, ok := out[evt.ID.SubRun]
		if !ok {
			oid := outFileFrom(oname, evt.ID.SubRun)
			msg.Printf("creating output file %q...", oid)
			w, err = eformat.Create(oid)
			if err != nil {
				return fmt.Errorf("could not create output file: %w", err)
			}
			out[evt.ID.SubRun] = w
		}

		err = w.Encode(&evt)
		if err != nil {
			return fmt.Errorf("could not encode event %v: %w", evt.ID, err)
		}
	}

	for id, w := range out {
		err := w.Close()
		if err != nil {
			return fmt.Errorf("could not close output file for subrun %d: %w", id, err)
		}
		delete(out, id)
	}

	return nil
}

func outFileFrom(fname string, subrun uint32) string {
	var (
		zst  = strings.HasSuffix(fname, eformat.Ext)
		base = strings.TrimSuffix(fname, eformat.Ext)
		ext  = filepath.Ext(base)
	)
	oname := fmt.Sprintf("%s-%03d%s", strings.TrimSuffix(base, ext), subrun, ext)
	if zst {
		oname += eformat.Ext
	}
	return oname
}
