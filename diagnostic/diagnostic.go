// Copyright © 2024 The Declavatar authors

// Package diagnostic defines the records produced while compiling a
// document, the append-only Collector gathering them and a renderer for
// annotated terminal output.
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/declavatar/declavatar/i18n"
	"github.com/declavatar/declavatar/parser/token"
)

// Kind classifies a diagnostic.  The numeric values are part of the binary
// interface and must not change.
type Kind int

const (
	KindCompilerError Kind = 0
	KindSyntaxError   Kind = 1
	KindSemanticError Kind = 2
	KindSemanticInfo  Kind = 3
)

var kindNames = [...]string{
	KindCompilerError: "CompilerError",
	KindSyntaxError:   "SyntaxError",
	KindSemanticError: "SemanticError",
	KindSemanticInfo:  "SemanticInfo",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Blocking reports whether a diagnostic of kind k makes a compile fail.
func (k Kind) Blocking() bool {
	return k != KindSemanticInfo
}

// Severity returns the severity used when rendering diagnostics of kind k.
func (k Kind) Severity() Severity {
	if k == KindSemanticInfo {
		return SeverityNote
	}
	return SeverityError
}

func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("invalid diagnostic kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown diagnostic kind %q", text)
}

// Position locates a diagnostic in a source document.  Line and Column are
// 1-based; Offset is a byte offset.
type Position struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
}

// PositionOf converts a token location.  It returns nil for a nil location.
func PositionOf(loc *token.Location) *Position {
	if loc == nil {
		return nil
	}
	return &Position{
		File:   loc.File,
		Line:   loc.Line,
		Column: loc.Col,
		Offset: loc.Pos,
	}
}

func (p *Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Diagnostic is a single compiler message.  Code is an i18n message key and
// Args fill its placeholders; Message is the rendering in the default
// locale.  Context lists the enclosing declarations, outermost first.
type Diagnostic struct {
	Kind     Kind      `json:"kind"`
	Code     string    `json:"code"`
	Args     []string  `json:"args"`
	Message  string    `json:"message"`
	Context  []string  `json:"context"`
	Position *Position `json:"position,omitempty"`
}

// New returns a diagnostic with its message rendered in the default locale.
func New(kind Kind, code string, args ...string) Diagnostic {
	args = append([]string{}, args...)
	return Diagnostic{
		Kind:    kind,
		Code:    code,
		Args:    args,
		Message: i18n.Message(code, args...),
		Context: []string{},
	}
}

// FromSyntaxError converts an error reported by a frontend or the
// declaration builder.
func FromSyntaxError(err *token.Error) Diagnostic {
	return New(KindSyntaxError, err.Code, err.Args...).At(err.Source)
}

// At returns a copy of d located at loc.
func (d Diagnostic) At(loc *token.Location) Diagnostic {
	d.Position = PositionOf(loc)
	return d
}

// In returns a copy of d with the context chain ctx.
func (d Diagnostic) In(ctx []string) Diagnostic {
	d.Context = append([]string{}, ctx...)
	return d
}

// Localize renders the message of d in locale.
func (d Diagnostic) Localize(locale string) string {
	return i18n.LocalizedMessage(locale, d.Code, d.Args...)
}

func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Position != nil {
		b.WriteString(d.Position.String())
		b.WriteString(": ")
	}
	b.WriteString(d.Kind.String())
	b.WriteString(": ")
	b.WriteString(d.Message)
	if len(d.Context) > 0 {
		b.WriteString(" (in ")
		b.WriteString(strings.Join(d.Context, " > "))
		b.WriteString(")")
	}
	return b.String()
}

// Report converts d for rendering.  Messages are rendered in locale, or in
// the default locale when locale is empty.
func (d Diagnostic) Report(locale string) Report {
	msg := d.Message
	if locale != "" {
		msg = d.Localize(locale)
	}
	r := Report{
		Severity: d.Kind.Severity(),
		Code:     d.Code,
		Message:  msg,
	}
	if d.Position != nil {
		r.Spans = []Span{{
			File: d.Position.File,
			Line: d.Position.Line,
			Col:  d.Position.Column,
		}}
	}
	if len(d.Context) > 0 {
		r.Notes = append(r.Notes, "in "+strings.Join(d.Context, " > "))
	}
	return r
}
