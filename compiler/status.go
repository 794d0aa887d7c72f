// Copyright © 2024 The Declavatar authors

package compiler

import (
	"errors"
	"fmt"

	"github.com/declavatar/declavatar/parser"
	"github.com/declavatar/declavatar/schema"
)

var (
	// ErrInvalidUTF8 is returned when an input is not valid UTF-8.  The
	// State is left unchanged.
	ErrInvalidUTF8 = errors.New("invalid utf-8 input")
	// ErrCompileFailure is returned when a compile produced blocking
	// diagnostics, or when a schema could not be registered.
	ErrCompileFailure = errors.New("compile failed")
	// ErrAlreadyInUse is returned for calls made while a compile is running
	// on the same State.
	ErrAlreadyInUse = errors.New("compiler state already in use")
	// ErrNotCompiled is returned by result accessors unless the last compile
	// succeeded.
	ErrNotCompiled = errors.New("not compiled")
	// ErrInvalidHandle is returned for calls on a destroyed State and for
	// out of range arguments.
	ErrInvalidHandle = errors.New("invalid handle")
)

// Status is the numeric result of an operation at the binding boundary.
// Values are part of the binary interface and must not change.
type Status uint32

const (
	StatusSuccess        Status = 0
	StatusInvalidUTF8    Status = 1
	StatusCompileFailure Status = 2
	StatusAlreadyInUse   Status = 3
	StatusNotCompiled    Status = 4
	StatusInvalidHandle  Status = 128
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusInvalidUTF8:
		return "InvalidUtf8"
	case StatusCompileFailure:
		return "CompileFailure"
	case StatusAlreadyInUse:
		return "AlreadyInUse"
	case StatusNotCompiled:
		return "NotCompiled"
	case StatusInvalidHandle:
		return "InvalidHandle"
	default:
		return fmt.Sprintf("Status(%d)", uint32(s))
	}
}

// StatusOf maps an error returned by a State method to its Status.
// Unrecognized errors map to StatusCompileFailure.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrInvalidUTF8), errors.Is(err, parser.ErrInvalidUTF8):
		return StatusInvalidUTF8
	case errors.Is(err, ErrAlreadyInUse):
		return StatusAlreadyInUse
	case errors.Is(err, ErrNotCompiled):
		return StatusNotCompiled
	case errors.Is(err, ErrInvalidHandle), errors.Is(err, parser.ErrUnknownFormat):
		return StatusInvalidHandle
	case errors.Is(err, ErrCompileFailure), errors.Is(err, schema.ErrInvalidSchema):
		return StatusCompileFailure
	default:
		return StatusCompileFailure
	}
}
