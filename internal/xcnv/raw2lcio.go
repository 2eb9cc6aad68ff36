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

// Raw2LCIO converts all the raw events read from dec into LCIO events.
// A run header is written before the first event.
func Raw2LCIO(w *lcio.Writer, dec *eformat.Decoder, freq int, msg *log.Logger) error {
	if freq <= 0 {
		freq = 100
	}

loop:
	for i := 0; ; i++ {
		if i%freq == 0 {
			msg.Printf("processing evt %d...", i)
		}
		var raw eformat.Event
		err := dec.Decode(&raw)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			return fmt.Errorf("could not decode raw event: %w", err)
		}

		if i == 0 {
			err = w.WriteRunHeader(&lcio.RunHeader{
				RunNumber: int32(raw.ID.Run),
				Detector:  detector,
				Descr:     "tracker raw fragments",
				Params: lcio.Params{
					Ints: map[string][]int32{
						"SubRun": {int32(raw.ID.SubRun)},
					},
				},
			})
			if err != nil {
				return fmt.Errorf("could not write run header: %w", err)
			}
		}

		evt := ToLCIO(&raw)
		err = w.WriteEvent(&evt)
		if err != nil {
			return fmt.Errorf("could not write LCIO event %v: %w", raw.ID, err)
		}
	}

	return nil
}
