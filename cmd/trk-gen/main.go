// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command trk-gen generates a raw file of synthetic tracker pulser events.
package main // import "github.com/go-lpc/trkdqm/cmd/trk-gen"

import (
	"flag"
	"fmt"
	"log"

	"github.com/go-lpc/trkdqm/dqm"
	"github.com/go-lpc/trkdqm/internal/eformat"
	"github.com/go-lpc/trkdqm/internal/pulser"
)

func main() {
	log.SetPrefix("trk-gen: ")
	log.SetFlags(0)

	var (
		oname   = flag.String("o", "out.raw", "path to output raw file (.zst to compress)")
		cfgName = flag.String("cfg", "", "path to YAML configuration file")
		nevts   = flag.Int("n", 1000, "number of events to generate")
		nsub    = flag.Int("subruns", 1, "number of subruns")
		run     = flag.Uint("run", 1, "run number")
		jitter  = flag.Float64("jitter", 0.2, "time jitter (ns)")
		seed    = flag.Uint64("seed", 1234, "seed for the random number generator")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: trk-gen [OPTIONS]

ex:
 $> trk-gen -o run_000042.raw -run 42 -n 10000
 $> trk-gen -o run_000042.raw.zst -cfg dqm.yaml -subruns 4

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	cfg := dqm.DefaultConfig()
	if *cfgName != "" {
		v, err := dqm.LoadConfig(*cfgName)
		if err != nil {
			log.Fatalf("could not load configuration: %+v", err)
		}
		cfg = v
	}

	gen, err := pulser.New(cfg.Trk, uint32(*run), *jitter, *seed)
	if err != nil {
		log.Fatalf("could not create pulser: %+v", err)
	}

	err = process(*oname, gen, *nevts, *nsub)
	if err != nil {
		log.Fatalf("could not generate events: %+v", err)
	}
}

func process(oname string, gen *pulser.Generator, nevts, nsub int) error {
	if nsub < 1 {
		nsub = 1
	}

	w, err := eformat.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer w.Close()

	per := (nevts + nsub - 1) / nsub
	for i := 0; i < nevts; i++ {
		if i%per == 0 {
			gen.SetSubRun(uint32(i / per))
		}
		evt, err := gen.Next()
		if err != nil {
			return fmt.Errorf("could not generate event %d: %w", i, err)
		}
		err = w.Encode(&evt)
		if err != nil {
			return fmt.Errorf("could not encode event %v: %w", evt.ID, err)
		}
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output file: %w", err)
	}
	log.Printf("generated %d events in %q", nevts, oname)

	return nil
}
