// Copyright © 2024 The Declavatar authors

package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/declavatar/declavatar/ast"
	"github.com/declavatar/declavatar/parser/rdparser"
	"github.com/declavatar/declavatar/parser/scriptparser"
	"github.com/declavatar/declavatar/parser/token"
)

// Format selects the surface syntax of a source document.
type Format int

// Format values are part of the binary interface and must not change.
const (
	FormatSexpr  Format = 1
	FormatScript Format = 2
)

var (
	// ErrInvalidUTF8 is returned when a source is not valid UTF-8.  The
	// returned error is a *token.LocationError holding the offending
	// position.
	ErrInvalidUTF8 = errors.New("invalid utf-8 sequence")
	// ErrUnknownFormat is returned for a Format other than FormatSexpr and
	// FormatScript.
	ErrUnknownFormat = errors.New("unknown source format")
)

func (f Format) String() string {
	switch f {
	case FormatSexpr:
		return "sexpr"
	case FormatScript:
		return "script"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Valid reports whether f names a supported syntax.
func (f Format) Valid() bool {
	return f == FormatSexpr || f == FormatScript
}

// ParseFormat parses the name of a format as accepted on the command line.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "sexpr", "declisp", "lisp":
		return FormatSexpr, nil
	case "script", "descript":
		return FormatScript, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatOf guesses the format of a file from its extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".declisp", ".lisp":
		return FormatSexpr, true
	case ".descript":
		return FormatScript, true
	}
	return 0, false
}

// CheckUTF8 returns a *token.LocationError wrapping ErrInvalidUTF8 when src
// is not valid UTF-8.
func CheckUTF8(file string, src []byte) error {
	if utf8.Valid(src) {
		return nil
	}
	loc := &token.Location{File: file, Line: 1, Col: 1}
	for len(src[loc.Pos:]) > 0 {
		c, n := utf8.DecodeRune(src[loc.Pos:])
		if c == utf8.RuneError && n <= 1 {
			break
		}
		loc.Pos += n
		loc.Col++
		if c == '\n' {
			loc.Line++
			loc.Col = 1
		}
	}
	return &token.LocationError{Err: ErrInvalidUTF8, Source: loc}
}

// ParseForms parses src into generic forms using the syntax of format.
// The returned error is non-nil only when src cannot be parsed at all.
func ParseForms(file string, src []byte, format Format) ([]ast.Expr, []*token.Error, error) {
	if !format.Valid() {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
	if err := CheckUTF8(file, src); err != nil {
		return nil, nil, err
	}
	var (
		exprs []ast.Expr
		errs  []*token.Error
	)
	switch format {
	case FormatScript:
		exprs, errs = scriptparser.Parse(file, src)
	default:
		exprs, errs = rdparser.Parse(file, src)
	}
	return exprs, errs, nil
}
