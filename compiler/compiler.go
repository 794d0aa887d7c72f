// Copyright © 2024 The Declavatar authors

// Package compiler holds the compiler state: the registered symbols,
// localizations, attachment schemas and library paths, and the result of
// the last compile.
//
// A State is not safe for concurrent use.  Reentrant calls made while a
// compile is running on the same State, for instance from an include
// reader, fail with ErrAlreadyInUse.  Distinct States are independent.
package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/declavatar/declavatar/analysis"
	"github.com/declavatar/declavatar/avatar"
	"github.com/declavatar/declavatar/diagnostic"
	"github.com/declavatar/declavatar/parser"
	"github.com/declavatar/declavatar/registry"
	"github.com/declavatar/declavatar/schema"
)

const tracerName = "github.com/declavatar/declavatar/compiler"

// Phase is the lifecycle state of a State.
type Phase int

const (
	PhaseIdle      Phase = iota // nothing compiled since creation or reset
	PhaseCompiling              // a compile is running
	PhaseCompiled               // the last compile succeeded
	PhaseFailed                 // the last compile reported blocking diagnostics
	PhaseDestroyed              // Destroy was called
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCompiling:
		return "compiling"
	case PhaseCompiled:
		return "compiled"
	case PhaseFailed:
		return "failed"
	case PhaseDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// State is a compiler instance.
type State struct {
	phase      Phase
	logger     *slog.Logger
	tracer     trace.Tracer
	readFile   parser.ReadFunc
	sourceName string

	libraryPaths  []string
	symbols       *registry.Symbols
	localizations *registry.Localizations
	schemas       *registry.Schemas

	diags    *diagnostic.Collector
	avatar   *avatar.Avatar
	json     []byte
	declared []*analysis.Symbol
}

// New returns an idle State with empty registries.
func New(opts ...Option) *State {
	s := &State{
		logger:     slog.New(slog.DiscardHandler),
		tracer:     otel.GetTracerProvider().Tracer(tracerName),
		sourceName: "<source>",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clear()
	return s
}

func (s *State) clear() {
	s.phase = PhaseIdle
	s.libraryPaths = nil
	s.symbols = registry.NewSymbols()
	s.localizations = registry.NewLocalizations()
	s.schemas = registry.NewSchemas()
	s.diags = &diagnostic.Collector{}
	s.avatar = nil
	s.json = nil
	s.declared = nil
}

// Phase returns the current lifecycle state.
func (s *State) Phase() Phase {
	return s.phase
}

// usable fails for a destroyed State and during a compile.
func (s *State) usable() error {
	switch s.phase {
	case PhaseDestroyed:
		return ErrInvalidHandle
	case PhaseCompiling:
		return ErrAlreadyInUse
	}
	return nil
}

// Destroy releases everything held by s.  Every later call fails with
// ErrInvalidHandle.
func (s *State) Destroy() error {
	if err := s.usable(); err != nil {
		return err
	}
	s.clear()
	s.symbols, s.localizations, s.schemas, s.diags = nil, nil, nil, nil
	s.phase = PhaseDestroyed
	s.logger.Debug("destroyed compiler state")
	return nil
}

// Reset discards the compile result, the registries and the library paths,
// returning s to the state New creates.
func (s *State) Reset() error {
	if err := s.usable(); err != nil {
		return err
	}
	s.clear()
	s.logger.Debug("reset compiler state")
	return nil
}

// AddLibraryPath appends a directory searched for included files.  Paths
// are tried in the order they were added.
func (s *State) AddLibraryPath(path string) error {
	if err := s.usable(); err != nil {
		return err
	}
	if !utf8.ValidString(path) {
		return fmt.Errorf("library path: %w", ErrInvalidUTF8)
	}
	s.libraryPaths = append(s.libraryPaths, path)
	s.logger.Debug("added library path", slog.String("path", path))
	return nil
}

// LibraryPaths returns the library paths in search order.
func (s *State) LibraryPaths() []string {
	return append([]string(nil), s.libraryPaths...)
}

// DefineSymbol registers a symbol for subsequent compiles.  Defining a
// symbol twice has no further effect.
func (s *State) DefineSymbol(name string) error {
	if err := s.usable(); err != nil {
		return err
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("symbol: %w", ErrInvalidUTF8)
	}
	added := s.symbols.Define(name)
	s.logger.Debug("defined symbol", slog.String("name", name), slog.Bool("added", added))
	return nil
}

// DefineLocalization registers the text for key.  A later definition of the
// same key replaces the earlier one.
func (s *State) DefineLocalization(key, value string) error {
	if err := s.usable(); err != nil {
		return err
	}
	if !utf8.ValidString(key) || !utf8.ValidString(value) {
		return fmt.Errorf("localization: %w", ErrInvalidUTF8)
	}
	replaced := s.localizations.Define(key, value)
	s.logger.Debug("defined localization", slog.String("key", key), slog.Bool("replaced", replaced))
	return nil
}

// RegisterSchema parses an attachment schema written in the S-expression
// syntax and registers it under its name.
func (s *State) RegisterSchema(src []byte) error {
	return s.RegisterSchemaFormat(src, parser.FormatSexpr)
}

// RegisterSchemaFormat is RegisterSchema for a schema written in format.
func (s *State) RegisterSchemaFormat(src []byte, format parser.Format) error {
	if err := s.usable(); err != nil {
		return err
	}
	if err := parser.CheckUTF8("<schema>", src); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidUTF8, err)
	}
	sch, err := schema.ParseFormat("<schema>", src, format)
	if err != nil {
		return fmt.Errorf("register schema: %w", err)
	}
	return s.registerSchema(sch)
}

// RegisterSchemaJSON registers an attachment schema in its JSON form.
func (s *State) RegisterSchemaJSON(src []byte) error {
	if err := s.usable(); err != nil {
		return err
	}
	if !utf8.Valid(src) {
		return fmt.Errorf("schema: %w", ErrInvalidUTF8)
	}
	sch, err := schema.ParseJSON(src)
	if err != nil {
		return fmt.Errorf("register schema: %w", err)
	}
	return s.registerSchema(sch)
}

func (s *State) registerSchema(sch *schema.Attachment) error {
	replaced := s.schemas.Register(sch)
	s.logger.Debug("registered schema",
		slog.String("name", sch.Name),
		slog.Int("properties", len(sch.Properties)),
		slog.Bool("replaced", replaced))
	return nil
}

// Symbols returns the registered symbol names in sorted order.
func (s *State) Symbols() []string {
	if s.symbols == nil {
		return nil
	}
	return s.symbols.Names()
}

// Schemas returns the names of the registered schemas in sorted order.
func (s *State) Schemas() []string {
	if s.schemas == nil {
		return nil
	}
	return s.schemas.Names()
}

// Compile compiles src, written in format.  It returns ErrCompileFailure
// when the source produced blocking diagnostics; the diagnostics are
// available in either case.  Invalid UTF-8 fails before anything changes.
func (s *State) Compile(src []byte, format parser.Format) error {
	return s.CompileFile(s.sourceName, src, format)
}

// CompileFile is Compile with file naming the source in diagnostics.
// Relative includes are still resolved against the library paths.
func (s *State) CompileFile(file string, src []byte, format parser.Format) error {
	if err := s.usable(); err != nil {
		return err
	}
	if !format.Valid() {
		return fmt.Errorf("%w: %v", parser.ErrUnknownFormat, format)
	}
	if err := parser.CheckUTF8(file, src); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidUTF8, err)
	}

	s.phase = PhaseCompiling
	defer func() {
		if s.phase == PhaseCompiling {
			s.phase = PhaseFailed
		}
	}()
	s.diags.Reset()
	s.avatar, s.json, s.declared = nil, nil, nil

	id := uuid.NewString()
	ctx, span := s.tracer.Start(context.Background(), "compile",
		trace.WithAttributes(
			attribute.String("declavatar.compile_id", id),
			attribute.String("declavatar.format", format.String()),
			semconv.CodeFilepath(file),
		))
	defer span.End()
	logger := s.logger.With(slog.String("compile_id", id))
	logger.Debug("compile started",
		slog.String("file", file),
		slog.String("format", format.String()),
		slog.Int("bytes", len(src)))

	a := s.run(ctx, file, src, format)

	if a == nil {
		s.phase = PhaseFailed
	} else {
		s.avatar = a
		s.phase = PhaseCompiled
	}
	span.SetAttributes(attribute.Int("declavatar.diagnostics", s.diags.Len()))
	logger.Debug("compile finished",
		slog.String("phase", s.phase.String()),
		slog.Int("diagnostics", s.diags.Len()),
		slog.Int("notices", s.diags.Count(diagnostic.KindSemanticInfo)))

	if s.phase == PhaseFailed {
		span.SetStatus(codes.Error, "blocking diagnostics")
		return fmt.Errorf("%w: %d diagnostics", ErrCompileFailure, s.diags.Len())
	}
	return nil
}

// run parses, analyzes and serializes src.  It returns nil when the
// collector holds a blocking diagnostic afterwards.
func (s *State) run(ctx context.Context, file string, src []byte, format parser.Format) *avatar.Avatar {
	_, span := s.tracer.Start(ctx, "parse")
	p := parser.New(format,
		parser.WithLibraryPaths(s.libraryPaths...),
		parser.WithReadFunc(s.readFile))
	doc, errs, err := p.Parse(file, src)
	span.SetAttributes(attribute.Int("declavatar.syntax_errors", len(errs)))
	span.End()
	if err != nil {
		s.diags.Add(diagnostic.New(diagnostic.KindCompilerError, "compiler.internal", err.Error()))
		return nil
	}
	s.diags.AddSyntaxErrors(errs)

	_, span = s.tracer.Start(ctx, "analyze")
	res := analysis.Analyze(doc, &analysis.Config{
		Symbols:       s.symbols,
		Localizations: s.localizations,
		Schemas:       s.schemas,
		Logger:        s.logger,
	}, s.diags)
	span.SetAttributes(attribute.Int("declavatar.unresolved", len(res.Unresolved)))
	span.End()
	s.declared = res.Symbols
	if res.Avatar == nil {
		return nil
	}

	_, span = s.tracer.Start(ctx, "serialize")
	defer span.End()
	data, err := avatar.Marshal(res.Avatar)
	if err != nil {
		span.RecordError(err)
		s.diags.Add(diagnostic.New(diagnostic.KindCompilerError, "compiler.internal", err.Error()))
		return nil
	}
	s.json = data
	return res.Avatar
}

// AvatarJSON returns the JSON encoding of the compiled avatar.  The buffer
// is owned by s and valid until the next mutating call.
func (s *State) AvatarJSON() ([]byte, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	if s.phase != PhaseCompiled {
		return nil, ErrNotCompiled
	}
	return s.json, nil
}

// Avatar returns the compiled avatar.
func (s *State) Avatar() (*avatar.Avatar, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	if s.phase != PhaseCompiled {
		return nil, ErrNotCompiled
	}
	return s.avatar, nil
}

// Declarations returns the parameters, assets and gates declared by the
// last compiled source, with their reference counts.  They are kept when
// the compile failed after analysis.
func (s *State) Declarations() ([]*analysis.Symbol, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	return s.declared, nil
}

// DiagnosticsCount returns the number of diagnostics of the last compile.
func (s *State) DiagnosticsCount() (int, error) {
	if err := s.usable(); err != nil {
		return 0, err
	}
	return s.diags.Len(), nil
}

// Diagnostic returns the kind and JSON encoding of diagnostic i.  The state
// is checked before i: during a compile every call fails with
// ErrAlreadyInUse, even for an index that would be out of range.  Otherwise
// an out of range index fails with ErrInvalidHandle.
func (s *State) Diagnostic(i int) (diagnostic.Kind, []byte, error) {
	if err := s.usable(); err != nil {
		return 0, nil, err
	}
	d, err := s.diags.At(i)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrInvalidHandle, err)
	}
	data, err := json.Marshal(d)
	if err != nil {
		return 0, nil, err
	}
	return d.Kind, data, nil
}

// Diagnostics returns a copy of the diagnostics of the last compile.
func (s *State) Diagnostics() []diagnostic.Diagnostic {
	if s.diags == nil {
		return nil
	}
	return s.diags.All()
}
