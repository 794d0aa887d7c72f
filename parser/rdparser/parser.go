// Copyright © 2024 The Declavatar authors

// Package rdparser is a recursive descent parser for S-expression source.
// It produces generic ast.Expr forms and keeps going after errors so that
// a single pass reports as many problems as possible.
package rdparser

import (
	"strconv"
	"strings"

	"github.com/declavatar/declavatar/ast"
	"github.com/declavatar/declavatar/parser/token"
)

// Parser is an S-expression parser.
type Parser struct {
	src  *TokenSource
	errs []*token.Error
}

// NewFromSource initializes and returns a Parser that reads tokens from src.
func NewFromSource(src *TokenSource) *Parser {
	return &Parser{
		src: src,
	}
}

// New initializes and returns a new Parser that reads tokens from scanner.
func New(scanner *token.Scanner) *Parser {
	return NewFromSource(NewTokenSource(scanner))
}

// Parse is a convenience function that parses src as a whole program.
func Parse(file string, src []byte) ([]ast.Expr, []*token.Error) {
	return New(token.NewScanner(file, src)).ParseProgram()
}

// ParseProgram parses a series of top-level forms.  At the top level a bare
// symbol starts a form whose arguments are the expressions that begin on the
// same line, so `version "1.0.0"` reads as `(version "1.0.0")`.  Forms that
// contain errors are returned with ast.BadExpr in place of the broken parts.
func (p *Parser) ParseProgram() ([]ast.Expr, []*token.Error) {
	var exprs []ast.Expr
	for {
		p.ignoreComments()
		switch p.PeekType() {
		case token.EOF:
			return exprs, p.errs
		case token.SYMBOL:
			exprs = append(exprs, p.ParseLineForm())
		case token.PAREN_L:
			exprs = append(exprs, p.ParseForm())
		default:
			// Anything else at the top level is skipped so that the
			// following forms still get parsed.
			p.ReadToken()
			p.unexpected()
		}
	}
}

// Errors returns the errors reported so far.
func (p *Parser) Errors() []*token.Error {
	return p.errs
}

// ParseLineForm parses a form written without parentheses.
func (p *Parser) ParseLineForm() ast.Expr {
	p.ReadToken()
	head := &ast.Ident{Name: p.TokenText(), Source: p.Location()}
	call := &ast.CallExpr{Head: head, Source: head.Source}
	line := head.Source.Line
	for {
		peek := p.src.Peek()
		if peek.Source.Line != line {
			return call
		}
		switch peek.Type {
		case token.EOF, token.COMMENT, token.PAREN_R:
			return call
		case token.KEYWORD:
			p.parseKeyword(call)
		default:
			call.Args = append(call.Args, p.ParseExpression())
		}
	}
}

// ParseExpression parses a single expression.  It always consumes at least
// one token.
func (p *Parser) ParseExpression() ast.Expr {
	p.ignoreComments()
	switch p.PeekType() {
	case token.INT:
		return p.ParseLiteralInt()
	case token.INT_OCTAL_MACRO:
		return p.parseLiteralIntBase(token.INT_OCTAL, 8)
	case token.INT_HEX_MACRO:
		return p.parseLiteralIntBase(token.INT_HEX, 16)
	case token.FLOAT:
		return p.ParseLiteralFloat()
	case token.STRING:
		return p.ParseLiteralString()
	case token.STRING_RAW:
		return p.ParseLiteralStringRaw()
	case token.NEGATIVE:
		return p.ParseNegative()
	case token.SYMBOL:
		return p.ParseSymbol()
	case token.PAREN_L:
		return p.ParseForm()
	case token.BRACE_L:
		return p.ParseList()
	case token.ERROR, token.INVALID:
		p.ReadToken()
		return p.scanError()
	case token.EOF:
		p.ReadToken()
		return p.errorf("syntax.unexpected_eof")
	default:
		p.ReadToken()
		return p.unexpected()
	}
}

func (p *Parser) ParseLiteralInt() ast.Expr {
	p.ReadToken()
	x, err := strconv.ParseInt(p.TokenText(), 10, 64)
	if err != nil {
		return p.errorf("syntax.invalid_literal", "integer", p.TokenText())
	}
	return &ast.IntLit{Value: x, Source: p.Location()}
}

func (p *Parser) parseLiteralIntBase(typ token.Type, base int) ast.Expr {
	p.ReadToken()
	start := p.Location()
	if !p.Accept(typ) {
		if p.Accept(token.ERROR, token.INVALID) {
			return p.scanError()
		}
		p.ReadToken()
		return p.unexpected()
	}
	x, err := strconv.ParseInt(p.TokenText(), base, 64)
	if err != nil {
		return p.errorf("syntax.invalid_literal", "integer", p.TokenText())
	}
	return &ast.IntLit{Value: x, Source: start}
}

func (p *Parser) ParseLiteralFloat() ast.Expr {
	p.ReadToken()
	x, err := strconv.ParseFloat(p.TokenText(), 64)
	if err != nil {
		return p.errorf("syntax.invalid_literal", "float", p.TokenText())
	}
	return &ast.FloatLit{Value: x, Source: p.Location()}
}

func (p *Parser) ParseLiteralString() ast.Expr {
	p.ReadToken()
	s, err := strconv.Unquote(p.TokenText())
	if err != nil {
		return p.errorf("syntax.invalid_literal", "string", p.TokenText())
	}
	return &ast.StringLit{Value: s, Source: p.Location()}
}

func (p *Parser) ParseLiteralStringRaw() ast.Expr {
	p.ReadToken()
	text := p.TokenText()
	return &ast.StringLit{Value: text[3 : len(text)-3], Source: p.Location()}
}

// ParseNegative joins a negation sign with the number that follows it.
func (p *Parser) ParseNegative() ast.Expr {
	p.ReadToken()
	neg := p.src.Token
	switch p.PeekType() {
	case token.INT, token.FLOAT:
		p.src.Peek().Source = neg.Source
		p.src.Peek().Text = neg.Text + p.src.Peek().Text
		return p.ParseExpression()
	default:
		return &ast.Ident{Name: neg.Text, Source: neg.Source}
	}
}

// ParseSymbol parses a symbol which may denote one of the constants true,
// false and nil.
func (p *Parser) ParseSymbol() ast.Expr {
	p.ReadToken()
	loc := p.Location()
	switch p.TokenText() {
	case "true":
		return &ast.BoolLit{Value: true, Source: loc}
	case "false":
		return &ast.BoolLit{Value: false, Source: loc}
	case "nil":
		return &ast.NullLit{Source: loc}
	default:
		return &ast.Ident{Name: p.TokenText(), Source: loc}
	}
}

// ParseForm parses a parenthesized form.  The head must be a symbol.
func (p *Parser) ParseForm() ast.Expr {
	p.ReadToken()
	open := p.src.Token
	p.ignoreComments()
	if !p.Accept(token.SYMBOL) {
		if p.Accept(token.PAREN_R) {
			return p.errorAt(open.Source, "syntax.unexpected_token", "()")
		}
		p.ReadToken()
		p.unexpected()
		depth := 1
		if p.TokenType() == token.PAREN_L {
			depth++ // form in head position
		}
		p.skipForm(open, depth)
		return &ast.BadExpr{Source: open.Source}
	}
	call := &ast.CallExpr{
		Head:   &ast.Ident{Name: p.TokenText(), Source: p.Location()},
		Source: open.Source,
	}
	for {
		p.ignoreComments()
		switch p.PeekType() {
		case token.EOF:
			return p.errorAt(open.Source, "syntax.unmatched", open.Text)
		case token.PAREN_R:
			p.ReadToken()
			return call
		case token.KEYWORD:
			p.parseKeyword(call)
		default:
			call.Args = append(call.Args, p.ParseExpression())
		}
	}
}

func (p *Parser) parseKeyword(call *ast.CallExpr) {
	p.ReadToken()
	kw := &ast.KeywordArg{
		Name:   strings.TrimPrefix(p.TokenText(), ":"),
		Source: p.Location(),
	}
	p.ignoreComments()
	switch p.PeekType() {
	case token.EOF, token.PAREN_R, token.KEYWORD:
		p.errorAt(kw.Source, "syntax.keyword_without_value", kw.Name)
		kw.Value = &ast.BadExpr{Source: kw.Source}
	default:
		kw.Value = p.ParseExpression()
	}
	call.Keywords = append(call.Keywords, kw)
}

// ParseList parses a bracketed list of values.
func (p *Parser) ParseList() ast.Expr {
	p.ReadToken()
	open := p.src.Token
	list := &ast.ListExpr{Source: open.Source}
	for {
		p.ignoreComments()
		switch p.PeekType() {
		case token.EOF:
			return p.errorAt(open.Source, "syntax.unmatched", open.Text)
		case token.BRACE_R:
			p.ReadToken()
			return list
		case token.PAREN_R, token.KEYWORD:
			// A stray closer or keyword ends the list so that the enclosing
			// form can recover.
			p.errorAt(open.Source, "syntax.unmatched", open.Text)
			return &ast.BadExpr{Source: open.Source}
		default:
			list.Items = append(list.Items, p.ParseExpression())
		}
	}
}

// skipForm discards tokens up to and including the parenthesis closing open.
// depth is the number of parentheses open when it is called.
func (p *Parser) skipForm(open *token.Token, depth int) {
	for depth > 0 {
		switch p.PeekType() {
		case token.EOF:
			p.errorAt(open.Source, "syntax.unmatched", open.Text)
			return
		case token.PAREN_L:
			depth++
		case token.PAREN_R:
			depth--
		}
		p.ReadToken()
	}
}

func (p *Parser) ignoreComments() {
	for p.Accept(token.COMMENT) {
	}
}

func (p *Parser) ReadToken() *token.Token {
	p.src.Scan()
	return p.src.Token
}

func (p *Parser) TokenText() string {
	return p.src.Token.Text
}

func (p *Parser) TokenType() token.Type {
	return p.src.Token.Type
}

func (p *Parser) Location() *token.Location {
	return p.src.Token.Source
}

func (p *Parser) PeekType() token.Type {
	return p.src.Peek().Type
}

func (p *Parser) PeekLocation() *token.Location {
	return p.src.Peek().Source
}

func (p *Parser) Accept(typ ...token.Type) bool {
	return p.src.AcceptType(typ...)
}

func (p *Parser) errorf(code string, args ...string) ast.Expr {
	return p.errorAt(p.Location(), code, args...)
}

func (p *Parser) errorAt(loc *token.Location, code string, args ...string) ast.Expr {
	p.errs = append(p.errs, token.Errorf(loc, code, args...))
	return &ast.BadExpr{Source: loc}
}

func (p *Parser) scanError() ast.Expr {
	return p.errorf("syntax.scan", p.TokenText())
}

func (p *Parser) unexpected() ast.Expr {
	if p.TokenType() == token.ERROR || p.TokenType() == token.INVALID {
		return p.scanError()
	}
	return p.errorf("syntax.unexpected_token", strconv.Quote(p.TokenText()))
}
