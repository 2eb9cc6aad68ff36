// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command trk-sql inspects the tracker calibrations stored in the
// conditions DB.
package main // import "github.com/go-lpc/trkdqm/cmd/trk-sql"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-lpc/trkdqm/conddb"
	"github.com/go-lpc/trkdqm/dqm"
	"gopkg.in/yaml.v3"
)

func main() {
	log.SetPrefix("trk-sql: ")
	log.SetFlags(0)

	var (
		dbname = flag.String("db", "trkdb", "name of the conditions DB")
		cfg    = flag.String("cfg", "", "tracker configuration to inspect (default: last one)")
		run    = flag.Uint("run", 0, "run whose configuration is inspected")
		doYAML = flag.Bool("yaml", false, "print the calibrated DQM configuration as YAML")
	)

	flag.Parse()

	db, err := conddb.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open tracker db: %+v", err)
	}
	defer db.Close()

	err = doQuery(db, *cfg, uint32(*run), *doYAML)
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(db *conddb.DB, name string, run uint32, doYAML bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch {
	case name != "":
	case run != 0:
		v, err := db.RunConfig(ctx, run)
		if err != nil {
			return fmt.Errorf("could not get config of run %d: %w", run, err)
		}
		name = v
	default:
		v, err := db.LastConfig(ctx)
		if err != nil {
			return fmt.Errorf("could not get last tracker config: %w", err)
		}
		name = v
	}
	log.Printf("cfg: %q", name)

	calib, err := db.Calibration(ctx, name)
	if err != nil {
		return fmt.Errorf("could not get calibration %q: %w", name, err)
	}
	log.Printf("pulser:   %v kHz", calib.PulserFrequency)
	log.Printf("tdc-bin:  %v ns", calib.TDCBinNs)
	log.Printf("window:   %v ns", calib.TimeWindow)
	log.Printf("links:    %d", len(calib.Links))
	for _, lnk := range calib.Links {
		log.Printf(">>> link=%d, ref-cal=%02d, ref-hv=%02d", lnk.ID, lnk.RefCal, lnk.RefHV)
	}
	log.Printf("channels: %d", len(calib.Channels))

	if !doYAML {
		return nil
	}

	cfg := dqm.DefaultConfig()
	err = calib.Apply(&cfg.Trk)
	if err != nil {
		return fmt.Errorf("could not apply calibration %q: %w", name, err)
	}
	cfg.Calib = name
	cfg.Alert.Password = ""

	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	enc.SetIndent(2)
	err = enc.Encode(cfg)
	if err != nil {
		return fmt.Errorf("could not encode configuration: %w", err)
	}

	return nil
}
