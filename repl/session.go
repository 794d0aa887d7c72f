// Copyright © 2024 The Declavatar authors

package repl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/declavatar/declavatar/analysis"
	"github.com/declavatar/declavatar/compiler"
	"github.com/declavatar/declavatar/diagnostic"
	"github.com/declavatar/declavatar/parser"
)

// sourceName names the interactive input in diagnostics.
const sourceName = "<repl>"

// ErrQuit is returned by Session.Feed when the user asks to leave.
var ErrQuit = errors.New("quit")

// Session compiles documents typed one line at a time.  Lines starting
// with a colon are commands; other lines accumulate until every delimiter
// is closed and the buffered document is compiled.
type Session struct {
	state    *compiler.State
	format   parser.Format
	out      io.Writer
	renderer *diagnostic.Renderer
	pending  []string
	last     []byte // source of the last compile, for diagnostic snippets
}

// NewSession returns a session compiling with state.  Diagnostics are
// rendered by r, or by a renderer without color when r is nil.
func NewSession(state *compiler.State, format parser.Format, out io.Writer, r *diagnostic.Renderer) *Session {
	if r == nil {
		r = &diagnostic.Renderer{Color: diagnostic.ColorNever}
	}
	s := &Session{state: state, format: format, out: out}
	rc := *r
	inner := rc.SourceReader
	rc.SourceReader = func(file string) ([]byte, error) {
		if file == sourceName {
			return s.last, nil
		}
		if inner != nil {
			return inner(file)
		}
		return os.ReadFile(file) //#nosec G304
	}
	s.renderer = &rc
	return s
}

// Format returns the syntax expected for documents.
func (s *Session) Format() parser.Format {
	return s.format
}

// Incomplete reports whether lines are buffered awaiting the end of a
// document.
func (s *Session) Incomplete() bool {
	return len(s.pending) > 0
}

// Feed handles one line of input.
func (s *Session) Feed(line string) error {
	trimmed := strings.TrimSpace(line)
	if !s.Incomplete() && strings.HasPrefix(trimmed, ":") {
		return s.command(trimmed[1:])
	}
	if !s.Incomplete() && trimmed == "" {
		return nil
	}
	s.pending = append(s.pending, line)
	src := []byte(strings.Join(s.pending, "\n"))
	if needsMore(src, s.format) {
		return nil
	}
	s.pending = nil
	s.compile(src)
	return nil
}

func (s *Session) compile(src []byte) {
	s.last = src
	err := s.state.CompileFile(sourceName, src, s.format)
	if diags := s.state.Diagnostics(); len(diags) > 0 {
		s.renderer.RenderDiagnostics(s.out, diags) //nolint:errcheck // best-effort REPL output
	}
	switch {
	case errors.Is(err, compiler.ErrCompileFailure):
		fmt.Fprintln(s.out, "compile failed") //nolint:errcheck // best-effort REPL output
	case err != nil:
		fmt.Fprintln(s.out, err) //nolint:errcheck // best-effort REPL output
	default:
		s.summary()
	}
}

func (s *Session) summary() {
	a, err := s.state.Avatar()
	if err != nil {
		fmt.Fprintln(s.out, err) //nolint:errcheck // best-effort REPL output
		return
	}
	if a.Name == "" {
		fmt.Fprintf(s.out, "ok: version %s\n", a.Version) //nolint:errcheck // best-effort REPL output
		return
	}
	fmt.Fprintf(s.out, "ok: avatar %q with %d parameters, %d assets, %d layers, %d menu items, %d attachments\n", //nolint:errcheck // best-effort REPL output
		a.Name, len(a.Parameters), len(a.Assets), len(a.FXController), len(a.MenuItems), len(a.Attachments))
}

const helpText = `Enter a document to compile it.  Commands:
  :define NAME          define a symbol
  :localize KEY VALUE   define a localization
  :schema FILE          register an attachment schema file
  :path DIR             add an include directory
  :format sexpr|script  switch the document syntax
  :json                 print the last compiled avatar
  :symbols              list defined symbols
  :decls                list declarations of the last compile
  :clear                discard buffered input
  :reset                clear every definition and result
  :quit                 leave the session`

func (s *Session) command(line string) error {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	var err error
	switch name {
	case "q", "quit", "exit":
		return ErrQuit
	case "h", "help":
		fmt.Fprintln(s.out, helpText) //nolint:errcheck // best-effort REPL output
	case "define":
		err = s.eachArg(rest, s.state.DefineSymbol)
	case "localize":
		key, value, ok := strings.Cut(rest, " ")
		if !ok || key == "" {
			err = errors.New("usage: :localize KEY VALUE")
			break
		}
		err = s.state.DefineLocalization(key, unquote(strings.TrimSpace(value)))
	case "schema":
		err = s.eachArg(rest, s.registerSchemaFile)
	case "path":
		err = s.eachArg(rest, s.state.AddLibraryPath)
	case "format":
		var f parser.Format
		f, err = parser.ParseFormat(rest)
		if err == nil {
			s.format = f
		}
	case "json":
		err = s.printJSON()
	case "symbols":
		for _, sym := range s.state.Symbols() {
			fmt.Fprintln(s.out, sym) //nolint:errcheck // best-effort REPL output
		}
	case "decls":
		var decls []*analysis.Symbol
		decls, err = s.state.Declarations()
		for _, sym := range decls {
			fmt.Fprintf(s.out, "%s %s (%d references)\n", sym.Kind, sym.Name, sym.References) //nolint:errcheck // best-effort REPL output
		}
	case "clear":
		s.pending = nil
	case "reset":
		s.pending = nil
		err = s.state.Reset()
	default:
		err = fmt.Errorf("unknown command :%s (try :help)", name)
	}
	if err != nil {
		fmt.Fprintln(s.out, "error:", err) //nolint:errcheck // best-effort REPL output
	}
	return nil
}

func (s *Session) eachArg(rest string, fn func(string) error) error {
	args := strings.Fields(rest)
	if len(args) == 0 {
		return errors.New("missing argument")
	}
	for _, arg := range args {
		if err := fn(arg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) registerSchemaFile(path string) error {
	src, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return s.state.RegisterSchemaJSON(src)
	}
	format, ok := parser.FormatOf(path)
	if !ok {
		format = s.format
	}
	return s.state.RegisterSchemaFormat(src, format)
}

func (s *Session) printJSON() error {
	data, err := s.state.AvatarJSON()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = s.out.Write(buf.Bytes())
	return err
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
