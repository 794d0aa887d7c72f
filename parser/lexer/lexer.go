// Copyright © 2024 The Declavatar authors

// Package lexer tokenizes S-expression source.
package lexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/declavatar/declavatar/parser/token"
)

type LexFn func(*Lexer) []*token.Token

const (
	miscWordRunes   = "0123456789" + miscWordSymbols
	miscWordSymbols = "._+-*/=<>!&~%?$"
)

type Lexer struct {
	scanner *token.Scanner
	lex     LexFn
}

func New(s *token.Scanner) *Lexer {
	lex := &Lexer{
		scanner: s,
		lex:     (*Lexer).readToken,
	}
	return lex
}

// ReadToken returns the next tokens in the stream.  At the end of input it
// returns a token.EOF token on every call.
func (lex *Lexer) ReadToken() []*token.Token {
	return lex.lex(lex)
}

func (lex *Lexer) readToken() []*token.Token {
	lex.skipWhitespace()
	if lex.scanner.EOF() {
		return lex.emit(token.EOF, "")
	}
	if err := lex.scanner.ScanRune(); err != nil {
		lex.lex = (*Lexer).readEOF
		return lex.emitError(err)
	}
	switch lex.scanner.Rune() {
	case '(':
		return lex.emitText(token.PAREN_L)
	case ')':
		return lex.emitText(token.PAREN_R)
	case '[':
		return lex.emitText(token.BRACE_L)
	case ']':
		return lex.emitText(token.BRACE_R)
	case ':':
		if lex.scanner.AcceptSeq(isWord) == 0 {
			return lex.errorf("keyword without a name")
		}
		return lex.emitText(token.KEYWORD)
	case ';':
		lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
		return lex.emitText(token.COMMENT)
	case '#':
		if err := lex.scanner.ScanRune(); err != nil {
			if !lex.scanner.EOF() {
				lex.lex = (*Lexer).readEOF
			}
			return lex.emitError(err)
		}
		switch lex.scanner.Rune() {
		case 'o', 'O':
			tok := lex.emitText(token.INT_OCTAL_MACRO)
			lex.lex = (*Lexer).readOctalLiteral
			return lex.emitMacroChar(tok)
		case 'x', 'X':
			tok := lex.emitText(token.INT_HEX_MACRO)
			lex.lex = (*Lexer).readHexLiteral
			return lex.emitMacroChar(tok)
		default:
			return lex.errorf("invalid dispatch macro character %q", lex.scanner.Rune())
		}
	case '-':
		if !isDigit(lex.peekRune()) {
			return lex.readSymbol()
		}
		return lex.emitText(token.NEGATIVE)
	case '"':
		return lex.readString()
	default:
		if isDigit(lex.scanner.Rune()) {
			return lex.readNumber()
		}
		if isWordStart(lex.scanner.Rune()) {
			return lex.readSymbol()
		}
		return lex.errorf("unexpected text starting with %q", lex.scanner.Rune())
	}
}

func (lex *Lexer) readString() []*token.Token {
	n := 0
	for lex.scanner.Accept(func(c rune) bool { return c != '"' && c != '\n' }) {
		n++
		if lex.scanner.Rune() == '\\' {
			// Wait until parsing to check the escaped character
			if !lex.scanner.Accept(func(c rune) bool { return c != '\n' }) {
				return lex.errorf("unterminated string literal")
			}
		}
	}
	if !lex.scanner.AcceptRune('"') {
		if lex.scanner.EOF() || lex.peekRune() == '\n' {
			return lex.errorf("unterminated string literal")
		}
		return lex.errorf("invalid utf-8 sequence in string literal")
	}
	if n > 0 {
		// This was a normal string
		return lex.emitText(token.STRING)
	}
	if !lex.scanner.AcceptRune('"') {
		// This is just an empty string -- not raw.
		return lex.emitText(token.STRING)
	}
	// This is a raw string
	for {
		_, ok := lex.scanner.AcceptString(`"""`)
		if ok {
			return lex.emitText(token.STRING_RAW)
		}
		if !lex.scanner.Accept(func(c rune) bool { return true }) {
			return lex.errorf("unterminated raw-string literal")
		}
	}
}

// readEOF ends the stream after input that cannot be decoded.
func (lex *Lexer) readEOF() []*token.Token {
	return lex.emit(token.EOF, "")
}

func (lex *Lexer) resetState() {
	lex.lex = (*Lexer).readToken
}

func (lex *Lexer) emitMacroChar(tok []*token.Token) []*token.Token {
	if unicode.IsSpace(lex.peekRune()) {
		lex.resetState()
		return lex.errorf("whitespace following %s", tok[0].Text)
	}
	return tok
}

func (lex *Lexer) emit(typ token.Type, text string) []*token.Token {
	tok := []*token.Token{{
		Type:   typ,
		Text:   text,
		Source: lex.scanner.LocStart(),
	}}
	lex.scanner.Ignore()
	return tok
}

func (lex *Lexer) emitText(typ token.Type) []*token.Token {
	return []*token.Token{lex.scanner.EmitToken(typ)}
}

// emitError reports err as a token.ERROR.  Any text of the broken token
// that can still be scanned on the same line is discarded so that scanning
// resumes at a sensible place.
func (lex *Lexer) emitError(err error) []*token.Token {
	lex.scanner.AcceptSeq(func(c rune) bool { return isWord(c) || c == '"' })
	return lex.emit(token.ERROR, err.Error())
}

func (lex *Lexer) errorf(format string, v ...interface{}) []*token.Token {
	return lex.emitError(fmt.Errorf(format, v...))
}

func (lex *Lexer) readSymbol() []*token.Token {
	lex.scanner.AcceptSeq(isWord)
	return lex.emitText(token.SYMBOL)
}

func (lex *Lexer) readOctalLiteral() []*token.Token {
	lex.resetState()
	n := lex.scanner.AcceptSeq(func(c rune) bool {
		return '0' <= c && c <= '7'
	})
	if n == 0 || isWord(lex.peekRune()) {
		return lex.errorf("invalid octal literal character: %q", lex.peekRune())
	}
	return lex.emitText(token.INT_OCTAL)
}

func (lex *Lexer) readHexLiteral() []*token.Token {
	lex.resetState()
	n := lex.scanner.AcceptSeq(func(c rune) bool {
		return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
	})
	if n == 0 || isWord(lex.peekRune()) {
		return lex.errorf("invalid hexadecimal literal character: %q", lex.peekRune())
	}
	return lex.emitText(token.INT_HEX)
}

func (lex *Lexer) readNumber() []*token.Token {
	lex.scanner.AcceptSeqDigit() // the first digit already scanned
	switch {
	case lex.scanner.AcceptRune('.'):
		return lex.readFloatFraction()
	case lex.scanner.AcceptAny("eE"):
		return lex.readFloatExponent()
	default:
		return lex.emitText(token.INT)
	}
	// the returned string may not actually be a usable number (overflow), but
	// we can find that out at parse time -- not scan time.
}

func (lex *Lexer) readFloatFraction() []*token.Token {
	if lex.scanner.AcceptSeqDigit() == 0 {
		return lex.errorf("invalid floating point literal starting: %v", lex.scanner.Text())
	}
	if lex.scanner.AcceptAny("eE") {
		return lex.readFloatExponent()
	}
	return lex.emitText(token.FLOAT)
}

func (lex *Lexer) readFloatExponent() []*token.Token {
	lex.scanner.AcceptAny("+-") // optional sign
	if lex.scanner.AcceptSeqDigit() == 0 {
		return lex.errorf("invalid floating point literal starting: %v", lex.scanner.Text())
	}
	return lex.emitText(token.FLOAT)
}

func (lex *Lexer) skipWhitespace() {
	if lex.scanner.AcceptSeq(unicode.IsSpace) > 0 {
		lex.scanner.Ignore()
	}
}

func (lex *Lexer) peekRune() rune {
	r, _ := lex.scanner.Peek()
	return r
}

func isWordStart(c rune) bool {
	return unicode.IsLetter(c) || strings.ContainsRune(miscWordSymbols, c)
}

func isWord(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || strings.ContainsRune(miscWordRunes, c)
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}
