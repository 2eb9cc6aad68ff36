// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// trk-dump decodes and displays tracker raw or LCIO files.
//
// Usage: trk-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> trk-dump ./testdata/run_000042.raw
//	=== event     42:       0:       1 ===
//	fragments:          2
//	bytes:           6208
//	hits:             192
//	valid:             20
//	error:              0 (none)
//	  link 0: nbytes=  3088 npackets= 192 nhits=  96 valid=1 tag=0x000000000001
//	    ch= 0 tdc0=0x0003c8 tdc1=0x0003c8 tot0= 4 tot1= 4 ewm= 0 pmp=  5 adc=[64 66 ...]
//	[...]
package main // import "github.com/go-lpc/trkdqm/cmd/trk-dump"

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/davecgh/go-spew/spew"
	tlog "github.com/go-daq/tdaq/log"
	"github.com/go-lpc/trkdqm/dqm"
	"github.com/go-lpc/trkdqm/internal/eformat"
	"github.com/go-lpc/trkdqm/internal/xcnv"
	"github.com/go-lpc/trkdqm/trk"
)

func main() {
	log.SetPrefix("trk-dump: ")
	log.SetFlags(0)

	var (
		cfgName = flag.String("cfg", "", "path to YAML configuration file")
		hex     = flag.Bool("x", false, "dump fragments in hexadecimal")
		deep    = flag.Bool("spew", false, "deep dump of decoded events")
		nevts   = flag.Int("n", -1, "number of events to dump (-1: all)")
	)

	flag.Usage = func() {
		fmt.Printf(`trk-dump decodes and displays tracker raw or LCIO files.

Usage: trk-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> trk-dump ./testdata/run_000042.raw
 === event     42:       0:       1 ===
 fragments:          2
 bytes:           6208
 hits:             192
 valid:             20
 error:              0 (none)
   link 0: nbytes=  3088 npackets= 192 nhits=  96 valid=1 tag=0x000000000001
     ch= 0 tdc0=0x0003c8 tdc1=0x0003c8 tot0= 4 tot1= 4 ewm= 0 pmp=  5 adc=[64 66 ...]
 [...]

Options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing path to input file")
	}

	cfg := dumpConfig()
	if *cfgName != "" {
		v, err := dqm.LoadConfig(*cfgName)
		if err != nil {
			log.Fatalf("could not load configuration: %+v", err)
		}
		cfg = v.Trk
	}

	opts := options{hex: *hex, spew: *deep, nevts: *nevts}
	for _, fname := range flag.Args() {
		err := process(os.Stdout, fname, cfg, opts)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

type options struct {
	hex   bool
	spew  bool
	nevts int
}

// dumpConfig activates all the links.
func dumpConfig() trk.Config {
	cfg := trk.DefaultConfig()
	cfg.ActiveLinks = make([]int, trk.NumLinks)
	cfg.RefChCal = make([]int, trk.NumLinks)
	cfg.RefChHV = make([]int, trk.NumLinks)
	for i := range cfg.ActiveLinks {
		cfg.ActiveLinks[i] = i
		cfg.RefChCal[i] = 0
		cfg.RefChHV[i] = trk.NumChannels / 2
	}
	return cfg
}

func process(w io.Writer, fname string, cfg trk.Config, opts options) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	r, err := xcnv.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer r.Close()

	proc, err := trk.NewProcessor(cfg, tlog.NewMsgStream("trk-dump", tlog.LvlWarning, os.Stderr))
	if err != nil {
		return fmt.Errorf("could not create event processor: %w", err)
	}

	for i := 0; opts.nevts < 0 || i < opts.nevts; i++ {
		var raw eformat.Event
		err := r.Read(&raw)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("could not read event: %w", err)
		}

		evt, err := proc.Process(raw.ID, raw.Frags)
		if err != nil {
			return fmt.Errorf("could not process event %v: %w", raw.ID, err)
		}

		dump(wbuf, &raw, evt, opts)
	}

	return nil
}

func dump(w io.Writer, raw *eformat.Event, evt *trk.Event, opts options) {
	fmt.Fprintf(w, "=== event %v ===\n", evt.ID)
	fmt.Fprintf(w, "fragments: % 10d\n", evt.NFrags)
	fmt.Fprintf(w, "bytes:     % 10d\n", evt.NBytes)
	fmt.Fprintf(w, "hits:      % 10d\n", evt.NHits)
	fmt.Fprintf(w, "valid:     % 10d\n", evt.Valid)
	fmt.Fprintf(w, "error:     % 10d (%v)\n", evt.Error, evt.Error)

	if opts.hex {
		for i, frag := range raw.Frags {
			fmt.Fprintf(w, "  fragment %d: %d bytes\n", i, len(frag))
			trk.Dump(w, frag, len(frag)/2)
		}
	}

	if opts.spew {
		spew.Fdump(w, evt)
		return
	}

	for _, lnk := range evt.Links {
		if lnk == nil {
			continue
		}
		fmt.Fprintf(w, "  link %d: nbytes=% 6d npackets=% 4d nhits=% 4d valid=%d tag=0x%012x\n",
			lnk.ID, lnk.NBytes, lnk.NPackets, lnk.NHits, lnk.Valid, lnk.Tag,
		)
		if lnk.Timed {
			fmt.Fprintf(w, "    dt0r01=%+.3f dt1r01=%+.3f\n", lnk.DT0R01, lnk.DT1R01)
		}
		for ich := range lnk.Channels {
			ch := &lnk.Channels[ich]
			for _, hit := range ch.Hits {
				fmt.Fprintf(w, "    ch=%2d tdc0=0x%06x tdc1=0x%06x tot0=%2d tot1=%2d ewm=%2d pmp=%3d adc=%v\n",
					ich, hit.TDC0, hit.TDC1, hit.TOT0, hit.TOT1, hit.EWM, hit.PMP, hit.ADC,
				)
			}
			if ch.Timed {
				fmt.Fprintf(w, "    ch=%2d dt0r=%+.3f dt1r=%+.3f dt0rc=%+.3f dt1rc=%+.3f\n",
					ich, ch.DT0R, ch.DT1R, ch.DT0RC, ch.DT1RC,
				)
			}
		}
	}
}
