// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trk

import (
	"golang.org/x/xerrors"
)

// ErrorKind classifies fragment decoding errors.
// The numerical values are the error codes reported with each event.
type ErrorKind uint8

const (
	ErrNone           ErrorKind = iota
	ErrInvalidChannel           // folded channel ID out of range
	ErrTooManyHits              // channel hit capacity exceeded
	ErrFragmentSize             // declared fragment size out of bounds
	ErrUnknownLink              // link ID not in the active links
	ErrTruncated                // buffer shorter than a fixed-size block
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "none"
	case ErrInvalidChannel:
		return "invalid-channel"
	case ErrTooManyHits:
		return "too-many-hits"
	case ErrFragmentSize:
		return "fragment-size"
	case ErrUnknownLink:
		return "unknown-link"
	case ErrTruncated:
		return "truncated"
	}
	return "unknown"
}

// Error is a fragment decoding error.
type Error struct {
	Kind    ErrorKind
	Link    int // -1 if not known
	Channel int // -1 if not known
	Err     error
}

func newError(kind ErrorKind, link, ch int, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Link:    link,
		Channel: ch,
		Err:     xerrors.Errorf(format, args...),
	}
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a decoding error.
// KindOf returns ErrNone for nil errors and for errors not produced
// while decoding fragments.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrNone
	}
	var e *Error
	if xerrors.As(err, &e) {
		return e.Kind
	}
	return ErrNone
}
