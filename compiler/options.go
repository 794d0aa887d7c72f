// Copyright © 2024 The Declavatar authors

package compiler

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/declavatar/declavatar/parser"
)

// Option configures a State created by New.
type Option func(*State)

// WithLogger sets the logger receiving debug records about registrations
// and compiles.  The default discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(s *State) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracerProvider sets the provider of the tracer used for compile
// spans.  The default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *State) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithIncludeReader replaces the function reading included files.  The
// default reads from the file system.
func WithIncludeReader(fn parser.ReadFunc) Option {
	return func(s *State) {
		s.readFile = fn
	}
}

// WithSourceName sets the file name reported in the positions of
// diagnostics for sources passed to Compile.  The default is "<source>".
func WithSourceName(name string) Option {
	return func(s *State) {
		if name != "" {
			s.sourceName = name
		}
	}
}
