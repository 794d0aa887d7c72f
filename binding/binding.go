// Copyright © 2024 The Declavatar authors

// Package binding exposes compiler states through numeric handles and
// status codes, the shape expected by foreign callers.
//
// Inputs are explicit-length byte spans and must be valid UTF-8; invalid
// input fails with StatusInvalidUTF8 before anything changes.  Buffers
// returned by AvatarJSON, Diagnostic and LookupI18n are borrowed: they stay
// valid until the next call that mutates the same handle and must be copied
// by callers that need them longer.
package binding

import (
	"sync"
	"unicode/utf8"

	"fortio.org/safecast"

	"github.com/declavatar/declavatar/compiler"
	"github.com/declavatar/declavatar/i18n"
	"github.com/declavatar/declavatar/parser"
)

// Handle identifies a compiler state.  The zero handle is never valid.
type Handle uint32

// Status is the result of a binding call.
type Status = compiler.Status

const (
	StatusSuccess        = compiler.StatusSuccess
	StatusInvalidUTF8    = compiler.StatusInvalidUTF8
	StatusCompileFailure = compiler.StatusCompileFailure
	StatusAlreadyInUse   = compiler.StatusAlreadyInUse
	StatusNotCompiled    = compiler.StatusNotCompiled
	StatusInvalidHandle  = compiler.StatusInvalidHandle
)

// Source formats accepted by Compile.
const (
	FormatSexpr  = uint32(parser.FormatSexpr)
	FormatScript = uint32(parser.FormatScript)
)

type instance struct {
	state *compiler.State
	diag  []byte // last buffer returned by Diagnostic
}

var (
	mu        sync.Mutex
	instances = make(map[Handle]*instance)
	next      Handle
	options   []compiler.Option
)

// SetOptions sets the options used for states created afterwards.
func SetOptions(opts ...compiler.Option) {
	mu.Lock()
	defer mu.Unlock()
	options = append([]compiler.Option(nil), opts...)
}

// Create returns a handle to a new idle compiler state.
func Create() Handle {
	mu.Lock()
	defer mu.Unlock()
	next++
	if next == 0 {
		next++
	}
	instances[next] = &instance{state: compiler.New(options...)}
	return next
}

func lookup(h Handle) (*instance, bool) {
	mu.Lock()
	defer mu.Unlock()
	inst, ok := instances[h]
	return inst, ok
}

// Destroy releases the state of h.  Later calls on h fail with
// StatusInvalidHandle.
func Destroy(h Handle) Status {
	inst, ok := lookup(h)
	if !ok {
		return StatusInvalidHandle
	}
	if err := inst.state.Destroy(); err != nil {
		return compiler.StatusOf(err)
	}
	mu.Lock()
	delete(instances, h)
	mu.Unlock()
	return StatusSuccess
}

// Reset returns the state of h to a freshly created one.
func Reset(h Handle) Status {
	return call(h, func(inst *instance) error {
		inst.diag = nil
		return inst.state.Reset()
	})
}

// AddLibraryPath appends a directory searched for included files.
func AddLibraryPath(h Handle, path []byte) Status {
	if !utf8.Valid(path) {
		return statusFor(h, StatusInvalidUTF8)
	}
	return call(h, func(inst *instance) error {
		return inst.state.AddLibraryPath(string(path))
	})
}

// DefineSymbol registers a symbol.
func DefineSymbol(h Handle, name []byte) Status {
	if !utf8.Valid(name) {
		return statusFor(h, StatusInvalidUTF8)
	}
	return call(h, func(inst *instance) error {
		return inst.state.DefineSymbol(string(name))
	})
}

// DefineLocalization registers a localization.
func DefineLocalization(h Handle, key, value []byte) Status {
	if !utf8.Valid(key) || !utf8.Valid(value) {
		return statusFor(h, StatusInvalidUTF8)
	}
	return call(h, func(inst *instance) error {
		return inst.state.DefineLocalization(string(key), string(value))
	})
}

// RegisterSchema registers an attachment schema written in the
// S-expression syntax.
func RegisterSchema(h Handle, src []byte) Status {
	return call(h, func(inst *instance) error {
		return inst.state.RegisterSchema(src)
	})
}

// Compile compiles src written in format, one of FormatSexpr and
// FormatScript.
func Compile(h Handle, src []byte, format uint32) Status {
	f, err := safecast.Conv[int](format)
	if err != nil || !parser.Format(f).Valid() {
		return StatusInvalidHandle
	}
	return call(h, func(inst *instance) error {
		inst.diag = nil
		return inst.state.Compile(src, parser.Format(f))
	})
}

// AvatarJSON returns the compiled avatar as JSON.  The buffer is borrowed.
func AvatarJSON(h Handle) ([]byte, Status) {
	inst, ok := lookup(h)
	if !ok {
		return nil, StatusInvalidHandle
	}
	data, err := inst.state.AvatarJSON()
	return data, compiler.StatusOf(err)
}

// DiagnosticsCount returns the number of diagnostics of the last compile.
func DiagnosticsCount(h Handle) (uint32, Status) {
	inst, ok := lookup(h)
	if !ok {
		return 0, StatusInvalidHandle
	}
	n, err := inst.state.DiagnosticsCount()
	if err != nil {
		return 0, compiler.StatusOf(err)
	}
	count, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0, StatusInvalidHandle
	}
	return count, StatusSuccess
}

// Diagnostic returns the kind and JSON encoding of diagnostic index.  The
// buffer is borrowed and replaced by the next call to Diagnostic on h.
func Diagnostic(h Handle, index uint32) (uint32, []byte, Status) {
	inst, ok := lookup(h)
	if !ok {
		return 0, nil, StatusInvalidHandle
	}
	i, err := safecast.Conv[int](index)
	if err != nil {
		return 0, nil, StatusInvalidHandle
	}
	kind, data, err := inst.state.Diagnostic(i)
	if err != nil {
		return 0, nil, compiler.StatusOf(err)
	}
	k, err := safecast.Conv[uint32](int(kind))
	if err != nil {
		return 0, nil, StatusInvalidHandle
	}
	inst.diag = data
	return k, inst.diag, StatusSuccess
}

// LookupI18n returns the JSON catalog fragment registered for key.  It does
// not depend on any handle.
func LookupI18n(key []byte) ([]byte, Status) {
	if !utf8.Valid(key) {
		return nil, StatusInvalidUTF8
	}
	data, err := i18n.Lookup(string(key))
	if err != nil {
		return nil, StatusInvalidHandle
	}
	return data, StatusSuccess
}

func call(h Handle, fn func(*instance) error) Status {
	inst, ok := lookup(h)
	if !ok {
		return StatusInvalidHandle
	}
	return compiler.StatusOf(fn(inst))
}

// statusFor reports StatusInvalidHandle for an unknown handle and status
// otherwise.
func statusFor(h Handle, status Status) Status {
	if _, ok := lookup(h); !ok {
		return StatusInvalidHandle
	}
	return status
}
