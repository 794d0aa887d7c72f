// Copyright © 2024 The Declavatar authors

// Package scriptparser parses the brace-delimited script syntax.  It produces
// the same generic ast.Expr forms as package rdparser so that both syntaxes
// share a single builder.
//
// A statement is a head name followed by positional arguments, key=value
// keyword arguments and an optional block, terminated by a line break or a
// semicolon:
//
//	toggle localize("menu.hat") "hat_on" value=true
//	submenu "Ears" {
//	    radial "Angle" "ear_angle"
//	}
//
// The statements of a block become trailing positional arguments of the
// enclosing form.  An underscore in a form or keyword name is read as a
// hyphen, so two_axis and two-axis name the same form.
package scriptparser

import (
	"strconv"
	"strings"

	"github.com/declavatar/declavatar/ast"
	"github.com/declavatar/declavatar/parser/token"
)

// Parser is a script syntax parser.
type Parser struct {
	toks []*token.Token
	pos  int
	errs []*token.Error
}

// New initializes and returns a Parser reading the source of scanner.  All
// tokens are read up front because keyword arguments need two tokens of
// lookahead.
func New(scanner *token.Scanner) *Parser {
	lex := NewLexer(scanner)
	p := &Parser{}
	for {
		tok := lex.read()
		if tok.Type == token.COMMENT {
			continue
		}
		p.toks = append(p.toks, tok)
		if tok.Type == token.EOF {
			return p
		}
	}
}

// Parse is a convenience function that parses src as a whole program.
func Parse(file string, src []byte) ([]ast.Expr, []*token.Error) {
	return New(token.NewScanner(file, src)).ParseProgram()
}

// ParseProgram parses all statements of the source.  Statements that contain
// errors are returned with ast.BadExpr in place of the broken parts.
func (p *Parser) ParseProgram() ([]ast.Expr, []*token.Error) {
	exprs := p.parseStatements(false)
	return exprs, p.errs
}

func (p *Parser) parseStatements(inBlock bool) []ast.Expr {
	var stmts []ast.Expr
	for {
		switch p.peek().Type {
		case token.NEWLINE, token.SEMICOLON:
			p.next()
		case token.EOF:
			return stmts
		case token.BLOCK_R:
			if inBlock {
				return stmts
			}
			p.unexpected(p.next())
		case token.SYMBOL:
			stmts = append(stmts, p.parseStatement())
		default:
			p.unexpected(p.next())
			p.skipStatement()
		}
	}
}

func (p *Parser) parseStatement() ast.Expr {
	head := p.next()
	call := &ast.CallExpr{
		Head:   &ast.Ident{Name: normalizeName(head.Text), Source: head.Source},
		Source: head.Source,
	}
	for {
		tok := p.peek()
		switch tok.Type {
		case token.NEWLINE, token.SEMICOLON, token.BLOCK_R, token.EOF:
			return call
		case token.BLOCK_L:
			p.next()
			body := p.parseStatements(true)
			if p.peek().Type != token.BLOCK_R {
				return p.errorAt(tok.Source, "syntax.unmatched", tok.Text)
			}
			p.next()
			call.Args = append(call.Args, body...)
			if !p.atStatementEnd() {
				p.unexpected(p.next())
				p.skipStatement()
			}
			return call
		}
		nerr := len(p.errs)
		if p.atKeyword() {
			call.Keywords = append(call.Keywords, p.parseKeyword(token.NEWLINE))
		} else {
			call.Args = append(call.Args, p.parseValue())
		}
		if len(p.errs) > nerr {
			p.skipStatement()
			return call
		}
	}
}

// parseKeyword parses name=value.  A value may not start with stop.
func (p *Parser) parseKeyword(stop token.Type) *ast.KeywordArg {
	name := p.next()
	p.next() // =
	kw := &ast.KeywordArg{Name: normalizeName(name.Text), Source: name.Source}
	switch p.peek().Type {
	case stop, token.SEMICOLON, token.BLOCK_R, token.EOF, token.COMMA:
		p.errorAt(kw.Source, "syntax.keyword_without_value", kw.Name)
		kw.Value = &ast.BadExpr{Source: kw.Source}
	default:
		kw.Value = p.parseValue()
	}
	return kw
}

// parseValue parses a single value.  Closing tokens are reported but not
// consumed so that the enclosing construct can recover.
func (p *Parser) parseValue() ast.Expr {
	tok := p.peek()
	switch tok.Type {
	case token.STRING:
		p.next()
		s, err := strconv.Unquote(tok.Text)
		if err != nil {
			return p.errorAt(tok.Source, "syntax.invalid_literal", "string", tok.Text)
		}
		return &ast.StringLit{Value: s, Source: tok.Source}
	case token.STRING_RAW:
		p.next()
		return &ast.StringLit{Value: tok.Text[3 : len(tok.Text)-3], Source: tok.Source}
	case token.INT:
		p.next()
		x, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return p.errorAt(tok.Source, "syntax.invalid_literal", "integer", tok.Text)
		}
		return &ast.IntLit{Value: x, Source: tok.Source}
	case token.FLOAT:
		p.next()
		x, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return p.errorAt(tok.Source, "syntax.invalid_literal", "float", tok.Text)
		}
		return &ast.FloatLit{Value: x, Source: tok.Source}
	case token.SYMBOL:
		p.next()
		if p.peek().Type == token.PAREN_L {
			return p.parseCall(tok)
		}
		switch tok.Text {
		case "true":
			return &ast.BoolLit{Value: true, Source: tok.Source}
		case "false":
			return &ast.BoolLit{Value: false, Source: tok.Source}
		case "nil":
			return &ast.NullLit{Source: tok.Source}
		}
		return &ast.Ident{Name: tok.Text, Source: tok.Source}
	case token.BRACE_L:
		return p.parseList()
	case token.ERROR, token.INVALID:
		p.next()
		return p.errorAt(tok.Source, "syntax.scan", tok.Text)
	case token.EOF:
		return p.errorAt(tok.Source, "syntax.unexpected_eof")
	default:
		return p.unexpected(tok)
	}
}

// parseCall parses name(arg, ..., key=value).  Line breaks inside the
// parentheses are insignificant and a trailing comma is allowed.
func (p *Parser) parseCall(head *token.Token) ast.Expr {
	open := p.next()
	call := &ast.CallExpr{
		Head:   &ast.Ident{Name: normalizeName(head.Text), Source: head.Source},
		Source: head.Source,
	}
	p.skipNewlines()
	if p.accept(token.PAREN_R) {
		return call
	}
	for {
		p.skipNewlines()
		nerr := len(p.errs)
		if p.atKeyword() {
			call.Keywords = append(call.Keywords, p.parseKeyword(token.PAREN_R))
		} else {
			call.Args = append(call.Args, p.parseValue())
		}
		if len(p.errs) > nerr {
			return &ast.BadExpr{Source: head.Source}
		}
		p.skipNewlines()
		if p.accept(token.COMMA) {
			p.skipNewlines()
			if p.accept(token.PAREN_R) {
				return call
			}
			continue
		}
		if p.accept(token.PAREN_R) {
			return call
		}
		if p.peek().Type == token.EOF {
			return p.errorAt(open.Source, "syntax.unmatched", open.Text)
		}
		return p.unexpected(p.peek())
	}
}

// parseList parses [a, b, ...].
func (p *Parser) parseList() ast.Expr {
	open := p.next()
	list := &ast.ListExpr{Source: open.Source}
	p.skipNewlines()
	if p.accept(token.BRACE_R) {
		return list
	}
	for {
		p.skipNewlines()
		nerr := len(p.errs)
		list.Items = append(list.Items, p.parseValue())
		if len(p.errs) > nerr {
			return &ast.BadExpr{Source: open.Source}
		}
		p.skipNewlines()
		if p.accept(token.COMMA) {
			p.skipNewlines()
			if p.accept(token.BRACE_R) {
				return list
			}
			continue
		}
		if p.accept(token.BRACE_R) {
			return list
		}
		if p.peek().Type == token.EOF {
			return p.errorAt(open.Source, "syntax.unmatched", open.Text)
		}
		return p.unexpected(p.peek())
	}
}

// skipStatement discards tokens up to the end of the current statement: a
// line break or semicolon outside of any brackets, or the brace closing the
// current block.  The terminator is not consumed.
func (p *Parser) skipStatement() {
	depth := 0
	for {
		switch p.peek().Type {
		case token.EOF:
			return
		case token.NEWLINE, token.SEMICOLON:
			if depth == 0 {
				return
			}
		case token.BLOCK_R:
			if depth == 0 {
				return
			}
			depth--
		case token.PAREN_R, token.BRACE_R:
			if depth > 0 {
				depth--
			}
		case token.BLOCK_L, token.PAREN_L, token.BRACE_L:
			depth++
		}
		p.next()
	}
}

func (p *Parser) atStatementEnd() bool {
	switch p.peek().Type {
	case token.NEWLINE, token.SEMICOLON, token.BLOCK_R, token.EOF:
		return true
	}
	return false
}

func (p *Parser) atKeyword() bool {
	return p.peek().Type == token.SYMBOL && p.peekAt(1).Type == token.EQUAL
}

func (p *Parser) skipNewlines() {
	for p.accept(token.NEWLINE) {
	}
}

func (p *Parser) peek() *token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) *token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

// next consumes and returns a token.  The final token.EOF is never consumed.
func (p *Parser) next() *token.Token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) accept(typ token.Type) bool {
	if p.peek().Type == typ {
		p.next()
		return true
	}
	return false
}

func (p *Parser) errorAt(loc *token.Location, code string, args ...string) ast.Expr {
	p.errs = append(p.errs, token.Errorf(loc, code, args...))
	return &ast.BadExpr{Source: loc}
}

func (p *Parser) unexpected(tok *token.Token) ast.Expr {
	switch tok.Type {
	case token.ERROR, token.INVALID:
		return p.errorAt(tok.Source, "syntax.scan", tok.Text)
	case token.NEWLINE:
		return p.errorAt(tok.Source, "syntax.unexpected_token", `line break`)
	case token.EOF:
		return p.errorAt(tok.Source, "syntax.unexpected_eof")
	}
	return p.errorAt(tok.Source, "syntax.unexpected_token", strconv.Quote(tok.Text))
}

func normalizeName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}
