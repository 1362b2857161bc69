// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"fmt"

	"github.com/pkg/errors"
)

// package errors
var (
	ErrIndexOverflow = errors.New("index out of range")
	ErrNotFound      = errors.New("resource not found")
	ErrClosed        = errors.New("pool is closed")
	ErrWrongType     = errors.New("resource has unexpected type")
)

// errStale reports a load that finished for a slot
// that was cleared while the load was running.
var errStale = errors.New("stale load")

// Error describes a failed pool operation. It matches its Kind
// with errors.Is and unwraps to the loader error, if any.
type Error struct {
	Kind  error
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Cause)
	}
	return e.Msg
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the loader error that caused the failure.
func (e *Error) Unwrap() error {
	return e.Cause
}
