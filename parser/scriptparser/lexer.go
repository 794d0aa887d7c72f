// Copyright © 2024 The Declavatar authors

package scriptparser

import (
	"fmt"
	"unicode"

	"github.com/declavatar/declavatar/parser/token"
)

// Lexer tokenizes script source.  Unlike the S-expression lexer it reports
// line breaks because they terminate statements.
type Lexer struct {
	scanner *token.Scanner
	done    bool
}

func NewLexer(s *token.Scanner) *Lexer {
	return &Lexer{scanner: s}
}

// ReadToken returns the next token.  At the end of input it returns a
// token.EOF token on every call.
func (lex *Lexer) ReadToken() []*token.Token {
	return []*token.Token{lex.read()}
}

func (lex *Lexer) read() *token.Token {
	lex.scanner.AcceptSeqSpace()
	lex.scanner.Ignore()
	if lex.done || lex.scanner.EOF() {
		return lex.scanner.EmitToken(token.EOF)
	}
	if err := lex.scanner.ScanRune(); err != nil {
		lex.done = true
		return lex.emitError(err)
	}
	switch c := lex.scanner.Rune(); c {
	case '\n':
		return lex.scanner.EmitToken(token.NEWLINE)
	case '{':
		return lex.scanner.EmitToken(token.BLOCK_L)
	case '}':
		return lex.scanner.EmitToken(token.BLOCK_R)
	case '(':
		return lex.scanner.EmitToken(token.PAREN_L)
	case ')':
		return lex.scanner.EmitToken(token.PAREN_R)
	case '[':
		return lex.scanner.EmitToken(token.BRACE_L)
	case ']':
		return lex.scanner.EmitToken(token.BRACE_R)
	case ',':
		return lex.scanner.EmitToken(token.COMMA)
	case ';':
		return lex.scanner.EmitToken(token.SEMICOLON)
	case '=':
		return lex.scanner.EmitToken(token.EQUAL)
	case '"':
		return lex.readString()
	case '-':
		if lex.scanner.AcceptRune('-') {
			lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
			return lex.scanner.EmitToken(token.COMMENT)
		}
		if !lex.scanner.AcceptDigit() {
			return lex.errorf("unexpected text starting with %q", c)
		}
		return lex.readNumber()
	default:
		if isDigit(c) {
			return lex.readNumber()
		}
		if isIdentStart(c) {
			lex.scanner.AcceptSeq(isIdent)
			return lex.scanner.EmitToken(token.SYMBOL)
		}
		return lex.errorf("unexpected text starting with %q", c)
	}
}

func (lex *Lexer) readNumber() *token.Token {
	lex.scanner.AcceptSeqDigit()
	typ := token.INT
	if lex.scanner.AcceptRune('.') {
		typ = token.FLOAT
		if lex.scanner.AcceptSeqDigit() == 0 {
			return lex.errorf("invalid floating point literal starting: %v", lex.scanner.Text())
		}
	}
	if lex.scanner.AcceptAny("eE") {
		typ = token.FLOAT
		lex.scanner.AcceptAny("+-")
		if lex.scanner.AcceptSeqDigit() == 0 {
			return lex.errorf("invalid floating point literal starting: %v", lex.scanner.Text())
		}
	}
	if peek, ok := lex.scanner.Peek(); ok && isIdent(peek) {
		return lex.errorf("invalid numeric literal starting: %v", lex.scanner.Text())
	}
	return lex.scanner.EmitToken(typ)
}

func (lex *Lexer) readString() *token.Token {
	if lex.scanner.AcceptRune('"') {
		if !lex.scanner.AcceptRune('"') {
			// This is just an empty string -- not raw.
			return lex.scanner.EmitToken(token.STRING)
		}
		for {
			if _, ok := lex.scanner.AcceptString(`"""`); ok {
				return lex.scanner.EmitToken(token.STRING_RAW)
			}
			if !lex.scanner.Accept(func(c rune) bool { return true }) {
				return lex.errorf("unterminated raw-string literal")
			}
		}
	}
	for {
		switch {
		case lex.scanner.AcceptRune('"'):
			return lex.scanner.EmitToken(token.STRING)
		case lex.scanner.AcceptRune('\\'):
			if !lex.scanner.Accept(func(c rune) bool { return c != '\n' }) {
				return lex.errorf("unterminated string literal")
			}
		case !lex.scanner.Accept(func(c rune) bool { return c != '"' && c != '\n' }):
			return lex.errorf("unterminated string literal")
		}
	}
}

// emitError reports err as a token.ERROR and skips the rest of the broken
// word.
func (lex *Lexer) emitError(err error) *token.Token {
	lex.scanner.AcceptSeq(func(c rune) bool { return isIdent(c) || c == '"' })
	tok := lex.scanner.EmitToken(token.ERROR)
	tok.Text = err.Error()
	return tok
}

func (lex *Lexer) errorf(format string, v ...interface{}) *token.Token {
	return lex.emitError(fmt.Errorf(format, v...))
}

func isIdentStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isIdent(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '-' || c == '.'
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}
