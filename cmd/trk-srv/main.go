// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command trk-srv starts a TDAQ server monitoring the tracker events
// received on its /trk input port.
//
// Usage: trk-srv [TDAQ-OPTIONS] [config.yaml]
//
// The calibration is loaded from the conditions DB named by the
// TRK_CONDDB environment variable, if set.
// Messages are also written to the rotated log file named by the
// TRK_LOG environment variable, if set.
package main // import "github.com/go-lpc/trkdqm/cmd/trk-srv"

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/trkdqm"
	"github.com/go-lpc/trkdqm/dqm"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cmd := flags.New()

	var fname string
	if len(cmd.Args) > 0 {
		fname = cmd.Args[0]
	}

	var out io.Writer = os.Stdout
	if v := os.Getenv("TRK_LOG"); v != "" {
		rotator := &lumberjack.Logger{
			Filename:   v,
			MaxSize:    100, // MB
			MaxBackups: 10,
			Compress:   true,
		}
		defer rotator.Close()
		out = io.MultiWriter(os.Stdout, rotator)
	}

	dev := dqm.NewServer(dqm.DefaultConfig(), fname, os.Getenv("TRK_CONDDB"))

	if v, _ := trkdqm.Version(); v != "" {
		log.Printf("trk-srv %s", v)
	}

	srv := tdaq.New(cmd, out)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.InputHandle("/trk", dev.OnEvent)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}
