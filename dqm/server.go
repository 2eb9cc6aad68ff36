// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dqm

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/trkdqm/conddb"
	"github.com/go-lpc/trkdqm/internal/eformat"
)

// Server is a TDAQ process monitoring the tracker events it receives
// on its /trk input port.
type Server struct {
	mu sync.Mutex

	cfg   Config
	fname string // configuration file
	db    string // conditions DB name, empty to disable calibration

	mon   *Monitor
	alert *Alert

	sumf *os.File
	sumw *bufio.Writer
}

// NewServer creates a new DQM server.
// The configuration is loaded from fname, if not empty, and updated
// with the calibration stored in the db conditions DB, if not empty,
// when the /config command is received.
func NewServer(cfg Config, fname, db string) *Server {
	return &Server{
		cfg:   cfg,
		fname: fname,
		db:    db,
	}
}

// Config returns the current configuration of the server.
func (srv *Server) Config() Config {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.cfg
}

// OnConfig loads the configuration of the server.
// The /config request may carry the name of the configuration file.
func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	srv.mu.Lock()
	defer srv.mu.Unlock()

	fname := srv.fname
	if len(req.Body) > 0 {
		dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
		if v := dec.ReadStr(); v != "" {
			fname = v
		}
	}

	cfg := srv.cfg
	if fname != "" {
		v, err := LoadConfig(fname)
		if err != nil {
			ctx.Msg.Errorf("could not load config %q: %+v", fname, err)
			return fmt.Errorf("could not load config %q: %w", fname, err)
		}
		cfg = v
	}

	if srv.db != "" {
		db, err := conddb.Open(srv.db)
		if err != nil {
			ctx.Msg.Errorf("could not open conditions DB %q: %+v", srv.db, err)
			return fmt.Errorf("could not open conditions DB %q: %w", srv.db, err)
		}
		defer db.Close()

		err = cfg.Calibrate(context.Background(), db)
		if err != nil {
			ctx.Msg.Errorf("could not calibrate: %+v", err)
			return fmt.Errorf("could not calibrate: %w", err)
		}
		ctx.Msg.Infof("loaded calibration %q", cfg.Calib)
	}

	err := cfg.Trk.Validate()
	if err != nil {
		ctx.Msg.Errorf("invalid configuration: %+v", err)
		return fmt.Errorf("invalid configuration: %w", err)
	}

	srv.cfg = cfg
	srv.fname = fname
	return nil
}

// OnInit creates the event monitor.
func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.init(ctx)
}

func (srv *Server) init(ctx tdaq.Context) error {
	mon, err := NewMonitor(srv.cfg.Trk, ctx.Msg)
	if err != nil {
		ctx.Msg.Errorf("could not create monitor: %+v", err)
		return fmt.Errorf("could not create monitor: %w", err)
	}
	srv.mon = mon
	srv.alert = NewAlert(srv.cfg.Alert)
	return nil
}

// OnReset drops all the monitored data.
func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	srv.mu.Lock()
	defer srv.mu.Unlock()

	err := srv.closeSummary()
	if err != nil {
		ctx.Msg.Warnf("could not close summary file: %+v", err)
	}
	return srv.init(ctx)
}

// OnStart starts the monitoring of a new run.
func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	srv.mu.Lock()
	defer srv.mu.Unlock()

	err := srv.closeSummary()
	if err != nil {
		ctx.Msg.Errorf("could not close summary file: %+v", err)
		return fmt.Errorf("could not close summary file: %w", err)
	}

	err = srv.init(ctx)
	if err != nil {
		return err
	}

	if srv.cfg.Summary == "" {
		return nil
	}

	f, err := os.Create(srv.cfg.Summary)
	if err != nil {
		ctx.Msg.Errorf("could not create summary file: %+v", err)
		return fmt.Errorf("could not create summary file: %w", err)
	}
	srv.sumf = f
	srv.sumw = bufio.NewWriter(f)
	srv.mon.WithSummary(srv.sumw)

	return nil
}

// OnStop saves the histograms of the run and sends a mail alert if
// too many events could not be decoded.
func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.mon == nil {
		ctx.Msg.Debugf("received /stop command... (no run)")
		return nil
	}

	var (
		mon   = srv.mon
		hists = mon.Hists
	)
	ctx.Msg.Debugf("received /stop command... -> n=%d", mon.N)
	ctx.Msg.Infof(
		"run %d: events: %d, errors: %d (%.2f%%)",
		mon.Run, hists.NEvents, hists.NErrors, 100*hists.ErrorFraction(),
	)

	err := srv.closeSummary()
	if err != nil {
		ctx.Msg.Errorf("could not close summary file: %+v", err)
		return fmt.Errorf("could not close summary file: %w", err)
	}

	if srv.cfg.Hists != "" && mon.N > 0 {
		fname := RunFile(srv.cfg.Hists, mon.Run)
		err = hists.Save(fname)
		if err != nil {
			ctx.Msg.Errorf("could not save histograms: %+v", err)
			return fmt.Errorf("could not save histograms: %w", err)
		}
		ctx.Msg.Infof("histograms saved to %q", fname)
	}

	err = srv.alert.Send(mon.Run, hists)
	if err != nil {
		ctx.Msg.Warnf("could not send alert: %+v", err)
	}

	return nil
}

// OnQuit releases the resources of the server.
func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	srv.mu.Lock()
	defer srv.mu.Unlock()

	err := srv.closeSummary()
	if err != nil {
		ctx.Msg.Errorf("could not close summary file: %+v", err)
		return fmt.Errorf("could not close summary file: %w", err)
	}
	return nil
}

// OnEvent decodes a raw event record from src and monitors it.
func (srv *Server) OnEvent(ctx tdaq.Context, src tdaq.Frame) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.mon == nil {
		ctx.Msg.Warnf("received event before /init")
		return nil
	}

	var raw eformat.Event
	err := eformat.NewDecoder(bytes.NewReader(src.Body)).Decode(&raw)
	if err != nil {
		ctx.Msg.Errorf("could not decode raw event: %+v", err)
		return fmt.Errorf("could not decode raw event: %w", err)
	}

	_, err = srv.mon.Process(&raw)
	if err != nil {
		ctx.Msg.Errorf("could not process event %v: %+v", raw.ID, err)
		return fmt.Errorf("could not process event %v: %w", raw.ID, err)
	}

	return nil
}

func (srv *Server) closeSummary() error {
	if srv.sumf == nil {
		return nil
	}
	defer func() {
		srv.sumf = nil
		srv.sumw = nil
	}()

	err := srv.sumw.Flush()
	if err != nil {
		_ = srv.sumf.Close()
		return fmt.Errorf("could not flush summary file: %w", err)
	}
	return srv.sumf.Close()
}

// RunFile returns fname, with the run number inserted before its
// extension.
func RunFile(fname string, run uint32) string {
	ext := filepath.Ext(fname)
	return fmt.Sprintf("%s-%06d%s", strings.TrimSuffix(fname, ext), run, ext)
}
