// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dqm

import (
	"crypto/tls"
	"fmt"

	mail "gopkg.in/gomail.v2"
)

// Alert sends a mail at the end of a run when too many events could
// not be decoded.
type Alert struct {
	cfg  AlertConfig
	send func(msg *mail.Message) error
}

// NewAlert creates a new end-of-run alert.
func NewAlert(cfg AlertConfig) *Alert {
	a := &Alert{cfg: cfg}
	a.send = a.dialAndSend
	return a
}

// Needed returns whether the run monitored by h deserves an alert.
func (a *Alert) Needed(h *Hists) bool {
	if h.NEvents == 0 || h.NEvents < int64(a.cfg.MinEvents) {
		return false
	}
	return h.ErrorFraction() > a.cfg.Threshold
}

// Message creates the alert message for the given run.
func (a *Alert) Message(run uint32, h *Hists) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", a.cfg.User)
	msg.SetHeader("Bcc", a.cfg.To...)
	msg.SetHeader("Subject", fmt.Sprintf("[trk-dqm] run %d: %.2f%% events with errors", run, 100*h.ErrorFraction()))

	body := fmt.Sprintf(
		"run:       %d\nevents:    %d\nerrors:    %d\nthreshold: %g\n\nerror codes:\n",
		run, h.NEvents, h.NErrors, a.cfg.Threshold,
	)
	for i, bin := range h.Error.Binning.Bins {
		n := bin.Entries()
		if n == 0 || i == 0 {
			continue
		}
		body += fmt.Sprintf("  %d: %d\n", i, n)
	}
	msg.SetBody("text/plain", body)
	return msg
}

// Send sends the alert for the given run, if needed.
func (a *Alert) Send(run uint32, h *Hists) error {
	if !a.Needed(h) {
		return nil
	}
	if !a.cfg.Enabled() {
		return fmt.Errorf("dqm: run %d needs an alert but mail is not configured", run)
	}

	err := a.send(a.Message(run, h))
	if err != nil {
		return fmt.Errorf("dqm: could not send mail alert for run %d: %w", run, err)
	}
	return nil
}

func (a *Alert) dialAndSend(msg *mail.Message) error {
	dial := mail.NewDialer(a.cfg.Server, a.cfg.Port, a.cfg.User, a.cfg.Password)
	dial.TLSConfig = &tls.Config{
		InsecureSkipVerify: true,
	}
	return dial.DialAndSend(msg)
}
