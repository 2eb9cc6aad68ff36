// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command trk-dqm monitors the data quality of tracker raw or LCIO files.
//
// trk-dqm decodes all the events of the input files, fills the
// monitoring histograms and saves them to a ROOT file.
package main // import "github.com/go-lpc/trkdqm/cmd/trk-dqm"

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tlog "github.com/go-daq/tdaq/log"
	"github.com/go-lpc/trkdqm"
	"github.com/go-lpc/trkdqm/conddb"
	"github.com/go-lpc/trkdqm/dqm"
	"github.com/go-lpc/trkdqm/internal/eformat"
	"github.com/go-lpc/trkdqm/internal/xcnv"
	"github.com/sbinet/pmon"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	log.SetPrefix("trk-dqm: ")
	log.SetFlags(0)

	var (
		cfgName = flag.String("cfg", "", "path to YAML configuration file")
		dbName  = flag.String("db", "", "name of the conditions DB to load the calibration from")
		oname   = flag.String("o", "", "path to output ROOT file (default from configuration)")
		sname   = flag.String("summary", "", "path to output CBOR event summaries")
		lname   = flag.String("log", "", "path to rotated log file")
		nevts   = flag.Int64("n", -1, "number of events to process (-1: all)")
		lvl     = flag.String("lvl", "INFO", "message level (DEBUG|INFO|WARN|ERROR)")
		doMon   = flag.Bool("pmon", false, "enable pmon monitoring")
		monFreq = flag.Duration("pmon-freq", 1*time.Second, "pmon frequency")
		doVers  = flag.Bool("version", false, "print version and exit")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: trk-dqm [OPTIONS] FILE1 [FILE2 [...]]

ex:
 $> trk-dqm -cfg dqm.yaml -o run_000042.root ./run_000042.raw
 $> trk-dqm -db trkdb -summary run.cbor -log trk-dqm.log ./run_000042.raw.zst

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if *doVers {
		v, sum := trkdqm.Version()
		fmt.Printf("trk-dqm %s %s\n", v, sum)
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing input file")
	}

	var out io.Writer = os.Stdout
	if *lname != "" {
		rotator := &lumberjack.Logger{
			Filename:   *lname,
			MaxSize:    100, // MB
			MaxBackups: 5,
			Compress:   true,
		}
		defer rotator.Close()
		out = io.MultiWriter(os.Stdout, rotator)
		log.SetOutput(out)
	}

	if *doMon {
		err := monitor(*lname, *monFreq)
		if err != nil {
			log.Fatalf("could not start pmon: %+v", err)
		}
	}

	cfg := dqm.DefaultConfig()
	if *cfgName != "" {
		v, err := dqm.LoadConfig(*cfgName)
		if err != nil {
			log.Fatalf("could not load configuration: %+v", err)
		}
		cfg = v
	}

	if *dbName != "" {
		err := calibrate(&cfg, *dbName)
		if err != nil {
			log.Fatalf("could not calibrate: %+v", err)
		}
	}

	if *oname != "" {
		cfg.Hists = *oname
	}
	if *sname != "" {
		cfg.Summary = *sname
	}

	msg := tlog.NewMsgStream("trk-dqm", msgLevel(*lvl), out)
	err := run(context.Background(), cfg, msg, *nevts, flag.Args())
	if err != nil {
		log.Fatalf("could not run DQM: %+v", err)
	}
}

func msgLevel(lvl string) tlog.Level {
	switch lvl {
	case "DEBUG":
		return tlog.LvlDebug
	case "WARN":
		return tlog.LvlWarning
	case "ERROR":
		return tlog.LvlError
	}
	return tlog.LvlInfo
}

func calibrate(cfg *dqm.Config, name string) error {
	db, err := conddb.Open(name)
	if err != nil {
		return fmt.Errorf("could not open conditions DB: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = cfg.Calibrate(ctx, db)
	if err != nil {
		return err
	}
	log.Printf("loaded calibration %q", cfg.Calib)
	return nil
}

func monitor(lname string, freq time.Duration) error {
	p, err := pmon.Monitor(os.Getpid())
	if err != nil {
		return fmt.Errorf("could not monitor trk-dqm: %w", err)
	}

	fname := "trk-dqm-pmon.log"
	if lname != "" {
		fname = lname + ".pmon"
	}
	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("could not create pmon log file: %w", err)
	}
	p.W = f
	p.Freq = freq

	go func() {
		defer f.Close()
		err := p.Run()
		if err != nil {
			log.Printf("could not run pmon: %+v", err)
		}
	}()
	return nil
}

// run processes all the events of the input files.
// Events are read and decoded in two concurrent stages.
func run(ctx context.Context, cfg dqm.Config, msg tlog.MsgStream, nevts int64, fnames []string) error {
	mon, err := dqm.NewMonitor(cfg.Trk, msg)
	if err != nil {
		return fmt.Errorf("could not create monitor: %w", err)
	}

	var (
		sumf *os.File
		sumw *bufio.Writer
	)
	if cfg.Summary != "" {
		sumf, err = os.Create(cfg.Summary)
		if err != nil {
			return fmt.Errorf("could not create summary file: %w", err)
		}
		defer sumf.Close()

		sumw = bufio.NewWriter(sumf)
		mon.WithSummary(sumw)
	}

	var (
		grp, gctx = errgroup.WithContext(ctx)
		evts      = make(chan eformat.Event, 128)
		start     = time.Now()
	)

	grp.Go(func() error {
		defer close(evts)
		n := int64(0)
		for _, fname := range fnames {
			err := read(gctx, fname, evts, &n, nevts)
			if err != nil {
				return err
			}
		}
		return nil
	})

	grp.Go(func() error {
		for raw := range evts {
			if mon.N%1000 == 0 {
				msg.Infof("processing event %d...", mon.N)
			}
			_, err := mon.Process(&raw)
			if err != nil {
				return err
			}
		}
		return nil
	})

	err = grp.Wait()
	if err != nil {
		return err
	}

	if sumw != nil {
		err = sumw.Flush()
		if err != nil {
			return fmt.Errorf("could not flush summary file: %w", err)
		}
		err = sumf.Close()
		if err != nil {
			return fmt.Errorf("could not close summary file: %w", err)
		}
	}

	var (
		hists = mon.Hists
		dt    = time.Since(start)
	)
	msg.Infof(
		"run %d: events: %d, errors: %d (%.2f%%) in %v",
		mon.Run, hists.NEvents, hists.NErrors, 100*hists.ErrorFraction(), dt,
	)

	if cfg.Hists != "" {
		err = hists.Save(cfg.Hists)
		if err != nil {
			return fmt.Errorf("could not save histograms: %w", err)
		}
		msg.Infof("histograms saved to %q", cfg.Hists)
	}

	err = dqm.NewAlert(cfg.Alert).Send(mon.Run, hists)
	if err != nil {
		msg.Warnf("could not send alert: %+v", err)
	}

	return nil
}

func read(ctx context.Context, fname string, evts chan<- eformat.Event, n *int64, nevts int64) error {
	r, err := xcnv.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer r.Close()

	for nevts < 0 || *n < nevts {
		var evt eformat.Event
		err := r.Read(&evt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("could not read event from %q: %w", fname, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case evts <- evt:
			*n++
		}
	}
	return nil
}
