// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/trkdqm/internal/eformat"
	"go-hep.org/x/hep/lcio"
)

// LCIO2Raw converts all the LCIO events read from r into raw events.
func LCIO2Raw(enc *eformat.Encoder, r *lcio.Reader, freq int, msg *log.Logger) error {
	if freq <= 0 {
		freq = 100
	}

	i := 0
	for r.Next() {
		if i%freq == 0 {
			msg.Printf("processing evt %d...", i)
		}
		evt := r.Event()
		raw, err := FromLCIO(&evt)
		if err != nil {
			return fmt.Errorf("could not convert LCIO event %d: %w", i, err)
		}

		err = enc.Encode(&raw)
		if err != nil {
			return fmt.Errorf("could not encode raw event %v: %w", raw.ID, err)
		}
		i++
	}

	if err := r.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("could not read LCIO event %d: %w", i, err)
	}

	return nil
}
