// Copyright © 2024 The Declavatar authors

package compiler

import (
	"context"
	"encoding/json"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/declavatar/declavatar/avatar"
	"github.com/declavatar/declavatar/diagnostic"
	"github.com/declavatar/declavatar/parser"
)

const sexprSource = `version "1.0.0"
(avatar "Shiori"
  (parameters
    (bool "hat_on" :default true :save true)
    (float "ear_angle" :scope local))
  (exports (gate "hat_gate") (guard "hat_gate" "hat_on"))
  (menu
    (toggle (localize "menu.hat") "hat_on")
    (radial "Ears" "ear_angle"))
  (attachments
    (attachment "Blink"
      (property "eyes" (game-object "Body") :speed 2))))
`

const scriptSource = `version "1.0.0"
avatar "Shiori" {
    parameters {
        bool "hat_on" default=true save=true
        float "ear_angle" scope=local
    }
    exports { gate "hat_gate"; guard "hat_gate" "hat_on" }
    menu {
        toggle localize("menu.hat") "hat_on"
        radial "Ears" "ear_angle"
    }
    attachments {
        attachment "Blink" {
            property "eyes" game_object("Body") speed=2
        }
    }
}
`

const blinkSchema = `(attachment-schema "Blink"
  (property "eyes" :required true
    (parameter "target" game-object)
    (keyword "speed" float)))`

func newState(t *testing.T, opts ...Option) *State {
	t.Helper()
	s := New(opts...)
	require.NoError(t, s.RegisterSchema([]byte(blinkSchema)))
	require.NoError(t, s.DefineLocalization("menu.hat", "Hat"))
	return s
}

func TestCompileVersionOnly(t *testing.T) {
	s := New()
	require.NoError(t, s.Compile([]byte(`version "1.0.0"`), parser.FormatSexpr))
	assert.Equal(t, PhaseCompiled, s.Phase())

	data, err := s.AvatarJSON()
	require.NoError(t, err)
	var obj map[string]any
	require.NoError(t, json.Unmarshal(data, &obj))
	assert.Equal(t, "1.0.0", obj["version"])

	n, err := s.DiagnosticsCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCompileRoundTrip(t *testing.T) {
	for _, test := range []struct {
		format parser.Format
		src    string
	}{
		{parser.FormatSexpr, sexprSource},
		{parser.FormatScript, scriptSource},
	} {
		t.Run(test.format.String(), func(t *testing.T) {
			s := newState(t)
			require.NoError(t, s.Compile([]byte(test.src), test.format), s.Diagnostics())

			data, err := s.AvatarJSON()
			require.NoError(t, err)
			decoded, err := avatar.Unmarshal(data)
			require.NoError(t, err)
			compiled, err := s.Avatar()
			require.NoError(t, err)
			assert.Equal(t, compiled, decoded)

			assert.Equal(t, "Shiori", decoded.Name)
			assert.Len(t, decoded.Parameters, 2)
			assert.Len(t, decoded.MenuItems, 2)
			require.Len(t, decoded.Attachments, 1)
			assert.Equal(t, avatar.Float(2), decoded.Attachments[0].Properties[0].Keywords["speed"])
		})
	}
}

func TestDeclarations(t *testing.T) {
	s := newState(t)
	require.NoError(t, s.Compile([]byte(sexprSource), parser.FormatSexpr))

	decls, err := s.Declarations()
	require.NoError(t, err)
	var names []string
	for _, sym := range decls {
		names = append(names, sym.Kind.String()+" "+sym.Name)
	}
	assert.Equal(t, []string{"parameter hat_on", "parameter ear_angle", "gate hat_gate"}, names)
	assert.Equal(t, 2, decls[0].References)
	assert.Equal(t, 1, decls[1].References)

	require.NoError(t, s.Reset())
	decls, err = s.Declarations()
	require.NoError(t, err)
	assert.Empty(t, decls)

	require.NoError(t, s.Destroy())
	_, err = s.Declarations()
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestCompileFormatsAgree(t *testing.T) {
	a := newState(t)
	require.NoError(t, a.Compile([]byte(sexprSource), parser.FormatSexpr))
	b := newState(t)
	require.NoError(t, b.Compile([]byte(scriptSource), parser.FormatScript))

	ja, _ := a.AvatarJSON()
	jb, _ := b.AvatarJSON()
	assert.JSONEq(t, string(ja), string(jb))
}

func TestCompileUndefinedSymbol(t *testing.T) {
	s := New()
	err := s.Compile([]byte(`(avatar "x" (parameters (bool hat)))`), parser.FormatSexpr)
	require.ErrorIs(t, err, ErrCompileFailure)
	assert.Equal(t, StatusCompileFailure, StatusOf(err))
	assert.Equal(t, PhaseFailed, s.Phase())

	n, err := s.DiagnosticsCount()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	kind, data, err := s.Diagnostic(0)
	require.NoError(t, err)
	assert.Equal(t, diagnostic.KindSemanticError, kind)
	var d diagnostic.Diagnostic
	require.NoError(t, json.Unmarshal(data, &d))
	assert.Equal(t, "symbol.undefined", d.Code)
	assert.Equal(t, []string{"hat"}, d.Args)

	_, err = s.AvatarJSON()
	assert.ErrorIs(t, err, ErrNotCompiled)

	require.NoError(t, s.DefineSymbol("hat"))
	require.NoError(t, s.Compile([]byte(`(avatar "x" (parameters (bool hat)))`), parser.FormatSexpr))
}

func TestCompileMissingLocalization(t *testing.T) {
	s := New()
	src := `(avatar "x" (parameters (bool "b")) (menu (toggle (localize "menu.none") "b")))`
	require.NoError(t, s.Compile([]byte(src), parser.FormatSexpr))

	kind, _, err := s.Diagnostic(0)
	require.NoError(t, err)
	assert.Equal(t, diagnostic.KindSemanticInfo, kind)
	a, err := s.Avatar()
	require.NoError(t, err)
	assert.Equal(t, "menu.none", a.MenuItems[0].(*avatar.Toggle).Name)
}

func TestCompileUnknownSchema(t *testing.T) {
	s := New()
	err := s.Compile([]byte(`(avatar "x" (attachments (attachment "Nothing")))`), parser.FormatSexpr)
	require.ErrorIs(t, err, ErrCompileFailure)
	diags := s.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostic.KindSemanticError, diags[0].Kind)
	assert.Equal(t, "attachment.unknown_schema", diags[0].Code)
	assert.Contains(t, diags[0].Message, "Nothing")
}

func TestCompileSyntaxErrors(t *testing.T) {
	s := New()
	err := s.Compile([]byte(`(avatar "x" (menu (toggle) (radial "r")))`), parser.FormatSexpr)
	require.ErrorIs(t, err, ErrCompileFailure)
	diags := s.Diagnostics()
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, diagnostic.KindSyntaxError, d.Kind)
	}
}

func TestInvalidUTF8(t *testing.T) {
	s := newState(t)
	require.NoError(t, s.Compile([]byte(`version "1.0.0"`), parser.FormatSexpr))
	symbols := s.Symbols()
	schemas := s.Schemas()

	bad := "\xff\xfe"
	err := s.Compile([]byte("version \""+bad+"\""), parser.FormatSexpr)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
	assert.ErrorIs(t, err, parser.ErrInvalidUTF8)
	assert.Equal(t, StatusInvalidUTF8, StatusOf(err))
	assert.ErrorIs(t, s.DefineSymbol(bad), ErrInvalidUTF8)
	assert.ErrorIs(t, s.DefineLocalization("k", bad), ErrInvalidUTF8)
	assert.ErrorIs(t, s.DefineLocalization(bad, "v"), ErrInvalidUTF8)
	assert.ErrorIs(t, s.RegisterSchema([]byte(bad)), ErrInvalidUTF8)
	assert.ErrorIs(t, s.AddLibraryPath(bad), ErrInvalidUTF8)

	assert.Equal(t, symbols, s.Symbols())
	assert.Equal(t, schemas, s.Schemas())
	assert.Empty(t, s.LibraryPaths())
	assert.Equal(t, PhaseCompiled, s.Phase())
	_, err = s.AvatarJSON()
	assert.NoError(t, err)
}

func TestRepeatedRegistration(t *testing.T) {
	s := New()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.DefineSymbol("hat"))
		require.NoError(t, s.DefineLocalization("menu.hat", "Hat"))
		require.NoError(t, s.RegisterSchema([]byte(blinkSchema)))
	}
	assert.Equal(t, []string{"hat"}, s.Symbols())
	assert.Equal(t, []string{"Blink"}, s.Schemas())
	assert.Equal(t, 1, s.localizations.Len())
}

func TestRegisterSchemaErrors(t *testing.T) {
	s := New()
	err := s.RegisterSchema([]byte(`(attachment-schema "X" (property))`))
	require.Error(t, err)
	assert.Equal(t, StatusCompileFailure, StatusOf(err))
	assert.Empty(t, s.Schemas())

	require.NoError(t, s.RegisterSchemaFormat([]byte(`attachment_schema "Y" { property "p" { parameter "v" float } }`), parser.FormatScript))
	require.NoError(t, s.RegisterSchemaJSON([]byte(`{"name":"Z","properties":[]}`)))
	assert.Equal(t, []string{"Y", "Z"}, s.Schemas())
}

func TestDiagnosticOutOfRange(t *testing.T) {
	s := New()
	check := func() {
		t.Helper()
		for _, i := range []int{-1, 0, 100} {
			_, _, err := s.Diagnostic(i)
			assert.ErrorIs(t, err, ErrInvalidHandle)
			assert.Equal(t, StatusInvalidHandle, StatusOf(err))
		}
	}
	check()
	require.NoError(t, s.Compile([]byte(`version "1.0.0"`), parser.FormatSexpr))
	check()
	require.Error(t, s.Compile([]byte(`(avatar undefined)`), parser.FormatSexpr))
	_, _, err := s.Diagnostic(1)
	assert.ErrorIs(t, err, ErrInvalidHandle)
	require.NoError(t, s.Reset())
	check()
	require.NoError(t, s.Destroy())
	check()
}

func TestReset(t *testing.T) {
	s := newState(t)
	require.NoError(t, s.DefineSymbol("hat"))
	require.NoError(t, s.AddLibraryPath("lib"))
	require.NoError(t, s.Compile([]byte(sexprSource), parser.FormatSexpr))
	_, err := s.AvatarJSON()
	require.NoError(t, err)

	require.NoError(t, s.Reset())
	assert.Equal(t, PhaseIdle, s.Phase())
	_, err = s.AvatarJSON()
	assert.ErrorIs(t, err, ErrNotCompiled)
	_, err = s.Avatar()
	assert.ErrorIs(t, err, ErrNotCompiled)
	assert.Empty(t, s.Symbols())
	assert.Empty(t, s.Schemas())
	assert.Empty(t, s.LibraryPaths())
	n, err := s.DiagnosticsCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDestroy(t *testing.T) {
	s := New()
	require.NoError(t, s.Destroy())
	assert.Equal(t, PhaseDestroyed, s.Phase())

	assert.ErrorIs(t, s.Destroy(), ErrInvalidHandle)
	assert.ErrorIs(t, s.Reset(), ErrInvalidHandle)
	assert.ErrorIs(t, s.DefineSymbol("a"), ErrInvalidHandle)
	assert.ErrorIs(t, s.DefineLocalization("a", "b"), ErrInvalidHandle)
	assert.ErrorIs(t, s.AddLibraryPath("a"), ErrInvalidHandle)
	assert.ErrorIs(t, s.RegisterSchema([]byte(blinkSchema)), ErrInvalidHandle)
	assert.ErrorIs(t, s.Compile([]byte(`version "1.0.0"`), parser.FormatSexpr), ErrInvalidHandle)
	_, err := s.AvatarJSON()
	assert.ErrorIs(t, err, ErrInvalidHandle)
	_, err = s.DiagnosticsCount()
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestUnknownFormat(t *testing.T) {
	s := New()
	err := s.Compile([]byte(`version "1.0.0"`), parser.Format(9))
	assert.ErrorIs(t, err, parser.ErrUnknownFormat)
	assert.Equal(t, StatusInvalidHandle, StatusOf(err))
	assert.Equal(t, PhaseIdle, s.Phase())
}

func TestIncludes(t *testing.T) {
	files := map[string]string{
		filepath.Join("lib", "params.declisp"): `(bool "hat_on")`,
	}
	read := func(path string) ([]byte, error) {
		if src, ok := files[path]; ok {
			return []byte(src), nil
		}
		return nil, fs.ErrNotExist
	}
	s := New(WithIncludeReader(read))
	require.NoError(t, s.AddLibraryPath("missing"))
	require.NoError(t, s.AddLibraryPath("lib"))
	src := `(avatar "x" (parameters (include "params.declisp")) (menu (toggle "Hat" "hat_on")))`
	require.NoError(t, s.Compile([]byte(src), parser.FormatSexpr), s.Diagnostics())
	a, err := s.Avatar()
	require.NoError(t, err)
	assert.Equal(t, "hat_on", a.Parameters[0].Name)
}

func TestReentrantCompile(t *testing.T) {
	var s *State
	var inner error
	read := func(path string) ([]byte, error) {
		inner = s.DefineSymbol("nested")
		return nil, inner
	}
	s = New(WithIncludeReader(read))
	require.NoError(t, s.AddLibraryPath("lib"))
	err := s.Compile([]byte(`(avatar "x" (parameters (include "p.declisp")))`), parser.FormatSexpr)
	assert.ErrorIs(t, inner, ErrAlreadyInUse)
	assert.ErrorIs(t, err, ErrCompileFailure)
	assert.Equal(t, PhaseFailed, s.Phase())
	assert.Empty(t, s.Symbols())
	assert.Equal(t, "include.read", s.Diagnostics()[0].Code)
}

func TestDiagnosticDuringCompile(t *testing.T) {
	var s *State
	var inner error
	read := func(path string) ([]byte, error) {
		_, _, inner = s.Diagnostic(99)
		return []byte(`(bool "b")`), nil
	}
	s = New(WithIncludeReader(read))
	require.NoError(t, s.AddLibraryPath("lib"))
	require.NoError(t, s.Compile([]byte(`(avatar "x" (parameters (include "p.declisp")))`), parser.FormatSexpr))
	assert.ErrorIs(t, inner, ErrAlreadyInUse)
	assert.NotErrorIs(t, inner, ErrInvalidHandle)

	_, _, err := s.Diagnostic(99)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestCompileSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	t.Cleanup(func() {
		assert.NoError(t, tp.Shutdown(context.Background()), "TracerProvider shutdown")
	})

	s := New(WithTracerProvider(tp), WithSourceName("shiori.declisp"))
	require.NoError(t, s.Compile([]byte(`version "1.0.0"`), parser.FormatSexpr))

	spans := exporter.GetSpans()
	var names []string
	for _, span := range spans {
		names = append(names, span.Name)
	}
	assert.Equal(t, []string{"parse", "analyze", "serialize", "compile"}, names)

	root := spans[3]
	attrs := make(map[string]string)
	for _, kv := range root.Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "sexpr", attrs["declavatar.format"])
	assert.Equal(t, "shiori.declisp", attrs["code.filepath"])
	assert.Len(t, attrs["declavatar.compile_id"], 36)
	assert.Equal(t, "0", attrs["declavatar.diagnostics"])
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "InvalidUtf8", StatusInvalidUTF8.String())
	assert.Equal(t, "Status(7)", Status(7).String())
	assert.Equal(t, StatusSuccess, StatusOf(nil))
	assert.Equal(t, StatusAlreadyInUse, StatusOf(ErrAlreadyInUse))
	assert.Equal(t, StatusNotCompiled, StatusOf(ErrNotCompiled))
}
