// Copyright © 2024 The Declavatar authors

package rdparser

import (
	"github.com/declavatar/declavatar/parser/lexer"
	"github.com/declavatar/declavatar/parser/token"
)

// TokenStream produces tokens in batches.  Once the input is exhausted
// ReadToken keeps returning a batch holding a token.EOF token; it never
// returns an empty batch.  *lexer.Lexer is the usual implementation.
type TokenStream interface {
	ReadToken() []*token.Token
}

// TokenSource buffers a TokenStream and gives the parser one token of
// lookahead.  Token is the last token consumed.
type TokenSource struct {
	stream  TokenStream
	pending []*token.Token
	Token   *token.Token
}

// NewTokenSource returns a TokenSource lexing the S-expression syntax read
// by scanner.
func NewTokenSource(scanner *token.Scanner) *TokenSource {
	return &TokenSource{stream: lexer.New(scanner)}
}

// Peek returns the next token without consuming it.
func (s *TokenSource) Peek() *token.Token {
	for len(s.pending) == 0 {
		s.pending = s.stream.ReadToken()
	}
	return s.pending[0]
}

// AcceptType consumes the next token when it has one of the given types.
func (s *TokenSource) AcceptType(types ...token.Type) bool {
	next := s.Peek().Type
	for _, typ := range types {
		if next == typ {
			s.advance()
			return true
		}
	}
	return false
}

// Scan consumes the next token.  At the end of input Token is set to the
// EOF token and Scan returns false.
func (s *TokenSource) Scan() bool {
	if s.IsEOF() {
		s.Token = s.Peek()
		return false
	}
	s.advance()
	return true
}

func (s *TokenSource) IsEOF() bool {
	return s.Peek().Type == token.EOF
}

func (s *TokenSource) advance() {
	s.Token = s.Peek()
	s.pending = s.pending[1:]
}
