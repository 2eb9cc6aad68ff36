// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command trk-pulser starts a TDAQ server publishing synthetic
// tracker pulser events on its /trk output port.
//
// Usage: trk-pulser [TDAQ-OPTIONS] [config.yaml]
package main // import "github.com/go-lpc/trkdqm/cmd/trk-pulser"

import (
	"bytes"
	"context"
	"log"
	"os"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/trkdqm/dqm"
	"github.com/go-lpc/trkdqm/internal/eformat"
	"github.com/go-lpc/trkdqm/internal/pulser"
)

func main() {
	cmd := flags.New()

	dev := device{
		cfg:    dqm.DefaultConfig(),
		seed:   1234,
		jitter: 0.2,
		freq:   100 * time.Millisecond,
	}
	if len(cmd.Args) > 0 {
		dev.fname = cmd.Args[0]
	}

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/trk", dev.output)

	srv.RunHandle(dev.run)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

type device struct {
	fname  string
	cfg    dqm.Config
	seed   uint64
	jitter float64 // ns
	freq   time.Duration

	runNbr uint32
	subrun uint32
	gen    *pulser.Generator

	n    int
	data chan []byte
}

func (dev *device) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	if dev.fname == "" {
		return nil
	}
	cfg, err := dqm.LoadConfig(dev.fname)
	if err != nil {
		ctx.Msg.Errorf("could not load config %q: %+v", dev.fname, err)
		return err
	}
	dev.cfg = cfg
	return nil
}

func (dev *device) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	return dev.reset(ctx)
}

func (dev *device) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	return dev.reset(ctx)
}

func (dev *device) reset(ctx tdaq.Context) error {
	gen, err := pulser.New(dev.cfg.Trk, dev.runNbr, dev.jitter, dev.seed)
	if err != nil {
		ctx.Msg.Errorf("could not create pulser: %+v", err)
		return err
	}
	dev.gen = gen
	dev.data = make(chan []byte, 1024)
	dev.n = 0
	dev.subrun = 0
	return nil
}

func (dev *device) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	dev.gen.SetSubRun(dev.subrun)
	dev.subrun++
	return nil
}

func (dev *device) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	n := dev.n
	ctx.Msg.Debugf("received /stop command... -> n=%d", n)
	return nil
}

func (dev *device) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

func (dev *device) output(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-dev.data:
		dst.Body = data
	}
	return nil
}

func (dev *device) run(ctx tdaq.Context) error {
	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		default:
			raw, err := dev.next()
			if err != nil {
				ctx.Msg.Errorf("could not generate event: %+v", err)
				return err
			}
			select {
			case dev.data <- raw:
				dev.n++
			default:
			}
		}
		time.Sleep(dev.freq)
	}
}

func (dev *device) next() ([]byte, error) {
	evt, err := dev.gen.Next()
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	err = eformat.NewEncoder(buf).Encode(&evt)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
