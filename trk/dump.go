// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trk

import (
	"fmt"
	"io"
)

// Dump writes the first nwords 16-bit words of frag in hexadecimal,
// 8 words per line.
func Dump(w io.Writer, frag []byte, nwords int) {
	if n := len(frag) / wordSize; nwords > n {
		nwords = n
	}

	loc := 0
	for i := 0; i < nwords; i++ {
		if loc == 0 {
			fmt.Fprintf(w, " 0x%08x: ", i*wordSize)
		}
		fmt.Fprintf(w, "0x%04x ", u16(frag, i))
		loc++
		if loc == 8 {
			fmt.Fprintf(w, "\n")
			loc = 0
		}
	}
	if loc != 0 {
		fmt.Fprintf(w, "\n")
	}
}
