// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trkdqm

import (
	"runtime/debug"
	"testing"
)

func TestVersionOf(t *testing.T) {
	const root = "github.com/go-lpc/trkdqm"
	for _, tc := range []struct {
		name string
		info *debug.BuildInfo
		vers string
		sum  string
	}{
		{name: "nil"},
		{
			name: "main",
			info: &debug.BuildInfo{Main: debug.Module{Path: root, Version: "v0.2.0", Sum: "h1:main"}},
			vers: "v0.2.0",
			sum:  "h1:main",
		},
		{
			name: "dep",
			info: &debug.BuildInfo{
				Main: debug.Module{Path: "example.org/daq"},
				Deps: []*debug.Module{
					{Path: "go-hep.org/x/hep", Version: "v0.32.1"},
					{Path: root, Version: "v0.1.0", Sum: "h1:dep"},
				},
			},
			vers: "v0.1.0",
			sum:  "h1:dep",
		},
		{
			name: "replace-path-version",
			info: &debug.BuildInfo{
				Deps: []*debug.Module{{
					Path: root, Version: "v0.1.0",
					Replace: &debug.Module{Path: "example.org/fork", Version: "v0.1.1", Sum: "h1:fork"},
				}},
			},
			vers: "example.org/fork v0.1.1",
			sum:  "h1:fork",
		},
		{
			name: "replace-local",
			info: &debug.BuildInfo{
				Deps: []*debug.Module{{
					Path: root, Version: "v0.1.0",
					Replace: &debug.Module{},
				}},
			},
			vers: "v0.1.0*",
		},
		{
			name: "missing",
			info: &debug.BuildInfo{Main: debug.Module{Path: "example.org/daq"}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			vers, sum := versionOf(tc.info)
			if vers != tc.vers || sum != tc.sum {
				t.Fatalf("invalid version: got=(%q, %q), want=(%q, %q)", vers, sum, tc.vers, tc.sum)
			}
		})
	}
}
