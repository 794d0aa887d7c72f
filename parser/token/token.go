// Copyright © 2024 The Declavatar authors

package token

import (
	"fmt"

	"github.com/declavatar/declavatar/i18n"
)

type Token struct {
	Type   Type
	Text   string
	Source *Location
}

type Type uint

// Type constants shared by the S-expression and script lexers.  Some types
// are only produced by one of the two lexers.
const (
	INVALID Type = iota
	ERROR
	EOF

	// Atomic expressions & literals
	SYMBOL
	KEYWORD
	INT
	INT_OCTAL_MACRO
	INT_OCTAL
	INT_HEX_MACRO
	INT_HEX
	FLOAT
	STRING
	STRING_RAW

	COMMENT

	// Operators
	NEGATIVE // arithmetic negation is parsed specially
	EQUAL

	// Delimiters
	PAREN_L
	PAREN_R
	BRACE_L
	BRACE_R
	BLOCK_L
	BLOCK_R
	COMMA
	SEMICOLON
	NEWLINE

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:         "invalid",
		ERROR:           "error",
		EOF:             "EOF",
		SYMBOL:          "symbol",
		KEYWORD:         "keyword",
		INT:             "int",
		INT_OCTAL_MACRO: "#o",
		INT_OCTAL:       "octal",
		INT_HEX_MACRO:   "#x",
		INT_HEX:         "hex",
		FLOAT:           "float",
		STRING:          "string",
		STRING_RAW:      "raw-string",
		COMMENT:         "comment",
		NEGATIVE:        "-",
		EQUAL:           "=",
		PAREN_L:         "(",
		PAREN_R:         ")",
		BRACE_L:         "[",
		BRACE_R:         "]",
		BLOCK_L:         "{",
		BLOCK_R:         "}",
		COMMA:           ",",
		SEMICOLON:       ";",
		NEWLINE:         "newline",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

type Location struct {
	File string // a name representing the source stream
	Path string // a physical location which may differ from File
	Pos  int    // byte offset from the start of the source
	Line int    // line number (starting at 1 when tracked)
	Col  int    // line column number in runes (starting at 1 when tracked)
}

func (loc *Location) String() string {
	switch {
	case loc == nil:
		return "<unknown>"
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}

// Error is a syntax problem found while scanning or parsing.  Code names an
// i18n message and Args fill its placeholders.
type Error struct {
	Code   string
	Args   []string
	Source *Location
}

// Errorf returns an Error for code located at loc.
func Errorf(loc *Location, code string, args ...string) *Error {
	return &Error{Code: code, Args: args, Source: loc}
}

func (err *Error) Message() string {
	return i18n.Message(err.Code, err.Args...)
}

func (err *Error) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Message())
}
