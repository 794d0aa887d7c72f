// Copyright © 2024 The Declavatar authors

// Package compiletest runs fixture documents through the compiler and
// checks the expectations written in their leading comments:
//
//	; define: out_of_unity
//	; localize: menu.hat = Hat
//	; diag: symbol.undefined
//	; avatar: {"name": "Shiori"}
//	(avatar "Shiori" ...)
//
// Script documents use "--" comments.  Every diag directive names the code
// of the next expected diagnostic, in order; a fixture without diag
// directives must compile without diagnostics.  The avatar directive lists
// top-level fields the compiled avatar must have.
package compiletest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declavatar/declavatar/compiler"
	"github.com/declavatar/declavatar/parser"
)

// Fixture holds the expectations of a fixture document.
type Fixture struct {
	Format        parser.Format
	Symbols       []string
	Localizations map[string]string
	Diagnostics   []string
	Avatar        map[string]json.RawMessage
}

// ParseFixture reads the directives at the top of src.  Parsing stops at
// the first line that is neither blank nor a comment.
func ParseFixture(src []byte, format parser.Format) (*Fixture, error) {
	f := &Fixture{Format: format, Localizations: make(map[string]string)}
	prefix := ";"
	if format == parser.FormatScript {
		prefix = "--"
	}
	for i, line := range strings.Split(string(src), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		text, ok := strings.CutPrefix(line, prefix)
		if !ok {
			break
		}
		name, value, ok := strings.Cut(strings.TrimLeft(text, "; "), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(name) {
		case "define":
			f.Symbols = append(f.Symbols, strings.Fields(value)...)
		case "localize":
			key, text, ok := strings.Cut(value, "=")
			if !ok {
				return nil, fmt.Errorf("line %d: localize needs KEY = VALUE", i+1)
			}
			f.Localizations[strings.TrimSpace(key)] = strings.TrimSpace(text)
		case "diag":
			f.Diagnostics = append(f.Diagnostics, value)
		case "avatar":
			if err := json.Unmarshal([]byte(value), &f.Avatar); err != nil {
				return nil, fmt.Errorf("line %d: avatar: %w", i+1, err)
			}
		}
	}
	return f, nil
}

// Runner compiles fixtures.
type Runner struct {
	// Options are applied to every compiler state before the logger
	// option of the runner.
	Options []compiler.Option

	// Setup prepares a state before the directives of a fixture are
	// applied.
	Setup func(*compiler.State) error
}

// NewState returns a state logging to t with the definitions of f.
func (r *Runner) NewState(t testing.TB, f *Fixture) (*compiler.State, error) {
	opts := append(append([]compiler.Option(nil), r.Options...), compiler.WithLogger(NewSlogger(t)))
	state := compiler.New(opts...)
	if r.Setup != nil {
		if err := r.Setup(state); err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}
	}
	for _, sym := range f.Symbols {
		if err := state.DefineSymbol(sym); err != nil {
			return nil, err
		}
	}
	for key, value := range f.Localizations {
		if err := state.DefineLocalization(key, value); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// RunFile compiles the fixture at path and checks its expectations.
func (r *Runner) RunFile(t *testing.T, path string) {
	t.Helper()
	src, err := os.ReadFile(path) //#nosec G304
	require.NoError(t, err, "Unable to read fixture")
	format, ok := parser.FormatOf(path)
	require.True(t, ok, "unknown fixture format: %s", path)
	f, err := ParseFixture(src, format)
	require.NoError(t, err)

	state, err := r.NewState(t, f)
	require.NoError(t, err)
	defer state.Destroy() //nolint:errcheck // test cleanup

	err = state.CompileFile(filepath.Base(path), src, format)
	var codes []string
	for _, d := range state.Diagnostics() {
		codes = append(codes, d.Code)
		t.Logf("%s", d)
	}
	assert.Equal(t, f.Diagnostics, codes, "diagnostics")
	if err != nil {
		assert.ErrorIs(t, err, compiler.ErrCompileFailure)
		assert.Nil(t, f.Avatar, "fixture expects an avatar but the compile failed")
		return
	}
	if f.Avatar == nil {
		return
	}
	data, err := state.AvatarJSON()
	require.NoError(t, err)
	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &got))
	keys := make([]string, 0, len(f.Avatar))
	for k := range f.Avatar {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if assert.Contains(t, got, k) {
			assert.JSONEq(t, string(f.Avatar[k]), string(got[k]), "avatar field %s", k)
		}
	}
}

// RunDir runs every fixture document in dir as a subtest.
func (r *Runner) RunDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := parser.FormatOf(e.Name()); !ok {
			continue
		}
		n++
		path := filepath.Join(dir, e.Name())
		t.Run(e.Name(), func(t *testing.T) {
			r.RunFile(t, path)
		})
	}
	assert.NotZero(t, n, "no fixtures in %s", dir)
}

// BenchmarkCompile returns a benchmark compiling the document at path.
func BenchmarkCompile(path string) func(*testing.B) {
	return func(b *testing.B) {
		src, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			b.Fatalf("Unable to read source file %v: %v", path, err)
		}
		format, ok := parser.FormatOf(path)
		if !ok {
			b.Fatalf("unknown format: %v", path)
		}
		f, err := ParseFixture(src, format)
		if err != nil {
			b.Fatal(err)
		}
		state, err := (&Runner{}).NewState(b, f)
		if err != nil {
			b.Fatal(err)
		}
		b.SetBytes(int64(len(src)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = state.Compile(src, format)
		}
	}
}
