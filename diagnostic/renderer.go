// Copyright © 2024 The Declavatar authors

package diagnostic

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const (
	// noteWidth is the column at which long notes are wrapped.
	noteWidth = 72

	tabWidth = 4
)

// Renderer formats reports as annotated source snippets:
//
//	error[symbol.undefined]: undefined symbol hat
//	  --> avatar.declisp:1:33
//	   |
//	 1 |  (avatar "x" (menu (toggle "Hat" hat)))
//	   |                                  ^^^
//	   = note: in avatar x > menu
type Renderer struct {
	// Color controls ANSI color output.
	Color ColorMode

	// Locale selects the language of diagnostic messages.  The default
	// locale is used when empty.
	Locale string

	// SourceReader reads the documents quoted in snippets.  Nil reads
	// files from disk.  Names in angle brackets, like <stdin>, are only
	// passed to a non-nil SourceReader.
	SourceReader func(string) ([]byte, error)
}

// Render writes a single report to w.
func (r *Renderer) Render(w io.Writer, d Report) error {
	return r.RenderAll(w, []Report{d})
}

// RenderDiagnostics renders diags in the renderer's locale.
func (r *Renderer) RenderDiagnostics(w io.Writer, diags []Diagnostic) error {
	reports := make([]Report, len(diags))
	for i, d := range diags {
		reports[i] = d.Report(r.Locale)
	}
	return r.RenderAll(w, reports)
}

// RenderAll writes reports to w separated by blank lines.  Each document
// is read at most once.
func (r *Renderer) RenderAll(w io.Writer, reports []Report) error {
	rc := &renderContext{
		r:       r,
		st:      styleFor(r.Color, w),
		sources: make(map[string][]string),
	}
	for i, d := range reports {
		if i > 0 {
			rc.buf.WriteByte('\n')
		}
		rc.report(d)
	}
	_, err := w.Write(rc.buf.Bytes())
	return err
}

type renderContext struct {
	r       *Renderer
	st      style
	buf     bytes.Buffer
	sources map[string][]string // nil entry: unreadable
}

func (rc *renderContext) write(parts ...string) {
	for _, p := range parts {
		rc.buf.WriteString(p)
	}
}

func (rc *renderContext) report(d Report) {
	st := rc.st
	rc.write(st.forSeverity(d.Severity), d.Severity.String())
	if d.Code != "" {
		rc.write("[", d.Code, "]")
	}
	rc.write(st.reset, ": ", st.code, d.Message, st.reset, "\n")

	for _, span := range d.Spans {
		rc.span(span)
	}
	for _, note := range d.Notes {
		rc.note(note)
	}
}

func (rc *renderContext) span(span Span) {
	st := rc.st
	loc := span.File
	if span.Line > 0 {
		loc += ":" + strconv.Itoa(span.Line)
		if span.Col > 0 {
			loc += ":" + strconv.Itoa(span.Col)
		}
	}
	rc.write("  ", st.gutter, "-->", st.reset, " ", loc, "\n")

	source, ok := rc.line(span.File, span.Line)
	if !ok {
		rc.write("   ", st.gutter, "|", st.reset, "\n")
		return
	}

	num := strconv.Itoa(span.Line)
	pad := strings.Repeat(" ", len(num))
	gutter := func(label string) {
		rc.write(" ", st.gutter, label, " |", st.reset)
	}

	gutter(pad)
	rc.write("\n")
	gutter(num)
	rc.write("  ", expandTabs(source), "\n")

	runes := []rune(source)
	start := max(span.Col, 1) - 1
	start = min(start, len(runes))
	end := span.EndCol
	if end <= 0 {
		end = tokenEnd(runes, start)
	}
	end = min(max(end, start+1), len(runes))

	offset := displayWidth(string(runes[:start]))
	width := max(displayWidth(string(runes[start:end])), 1)
	gutter(pad)
	rc.write("  ", strings.Repeat(" ", offset), st.marker, strings.Repeat("^", width))
	if span.Label != "" {
		rc.write(" ", span.Label)
	}
	rc.write(st.reset, "\n")
}

// note writes a "= note:" line.  Long notes are wrapped and continuation
// lines are aligned with the note text.
func (rc *renderContext) note(note string) {
	const prefix = "   = note: "
	first, rest, _ := strings.Cut(wordwrap.String(note, noteWidth), "\n")
	rc.write("   ", rc.st.forSeverity(SeverityNote), "=", rc.st.reset, " note: ", first, "\n")
	if rest != "" {
		rc.write(indent.String(rest, uint(len(prefix))), "\n")
	}
}

// line returns line n of file, or false when the file cannot be read or is
// shorter.
func (rc *renderContext) line(file string, n int) (string, bool) {
	if n <= 0 || file == "" {
		return "", false
	}
	lines, seen := rc.sources[file]
	if !seen {
		lines = rc.read(file)
		rc.sources[file] = lines
	}
	if n > len(lines) {
		return "", false
	}
	return lines[n-1], true
}

func (rc *renderContext) read(file string) []string {
	reader := rc.r.SourceReader
	if reader == nil {
		if strings.HasPrefix(file, "<") {
			return nil
		}
		reader = os.ReadFile
	}
	data, err := reader(file)
	if err != nil {
		return nil
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.Split(text, "\n")
}

// tokenEnd returns the index after the token starting at start.  A
// delimiter underlines a single rune.
func tokenEnd(runes []rune, start int) int {
	end := start
	for end < len(runes) && !strings.ContainsRune(" \t()[]{},;=", runes[end]) {
		end++
	}
	if end == start {
		return start + 1
	}
	return end
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// displayWidth returns the terminal width of s, counting wide runes as two
// columns and tabs as tabWidth.
func displayWidth(s string) int {
	return runewidth.StringWidth(expandTabs(s))
}
