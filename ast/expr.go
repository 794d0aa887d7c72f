// Copyright © 2024 The Declavatar authors

// Package ast defines the syntax tree shared by the S-expression and script
// frontends.
//
// Parsing happens in two steps.  A frontend first produces generic forms
// (Expr values): literals, identifiers, lists and calls with positional and
// keyword arguments.  The forms are then lowered into declarations (Node
// values) which give each construct of the language its own type.  Both
// interfaces are closed; only this package can add variants.
package ast

import (
	"strconv"
	"strings"

	"github.com/declavatar/declavatar/parser/token"
)

// Expr is a generic form or value expression.
type Expr interface {
	Pos() *token.Location
	String() string
	expr()
}

type StringLit struct {
	Value  string
	Source *token.Location
}

type IntLit struct {
	Value  int64
	Source *token.Location
}

type FloatLit struct {
	Value  float64
	Source *token.Location
}

type BoolLit struct {
	Value  bool
	Source *token.Location
}

type NullLit struct {
	Source *token.Location
}

// Ident is a bare name.  In head position it names a form; in value
// position it references a symbol.
type Ident struct {
	Name   string
	Source *token.Location
}

// ListExpr is a bracketed sequence of values.
type ListExpr struct {
	Items  []Expr
	Source *token.Location
}

// CallExpr is a form: a head name applied to positional and keyword
// arguments.
type CallExpr struct {
	Head     *Ident
	Args     []Expr
	Keywords []*KeywordArg
	Source   *token.Location
}

// BadExpr stands in for an expression that failed to parse.  The error has
// already been reported when a BadExpr is produced.
type BadExpr struct {
	Source *token.Location
}

// KeywordArg is a named argument of a CallExpr.
type KeywordArg struct {
	Name   string
	Value  Expr
	Source *token.Location
}

func (x *StringLit) Pos() *token.Location { return x.Source }
func (x *IntLit) Pos() *token.Location    { return x.Source }
func (x *FloatLit) Pos() *token.Location  { return x.Source }
func (x *BoolLit) Pos() *token.Location   { return x.Source }
func (x *NullLit) Pos() *token.Location   { return x.Source }
func (x *Ident) Pos() *token.Location     { return x.Source }
func (x *ListExpr) Pos() *token.Location  { return x.Source }
func (x *CallExpr) Pos() *token.Location  { return x.Source }
func (x *BadExpr) Pos() *token.Location   { return x.Source }

func (*StringLit) expr() {}
func (*IntLit) expr()    {}
func (*FloatLit) expr()  {}
func (*BoolLit) expr()   {}
func (*NullLit) expr()   {}
func (*Ident) expr()     {}
func (*ListExpr) expr()  {}
func (*CallExpr) expr()  {}
func (*BadExpr) expr()   {}

func (x *StringLit) String() string { return strconv.Quote(x.Value) }
func (x *IntLit) String() string    { return strconv.FormatInt(x.Value, 10) }
func (x *FloatLit) String() string  { return formatFloat(x.Value) }
func (x *BoolLit) String() string   { return strconv.FormatBool(x.Value) }
func (x *NullLit) String() string   { return "nil" }
func (x *Ident) String() string     { return x.Name }
func (x *BadExpr) String() string   { return "<bad>" }

func (x *ListExpr) String() string {
	items := make([]string, len(x.Items))
	for i, item := range x.Items {
		items[i] = item.String()
	}
	return "[" + strings.Join(items, " ") + "]"
}

// String renders the form in S-expression syntax.
func (x *CallExpr) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(x.Head.Name)
	for _, arg := range x.Args {
		b.WriteString(" ")
		b.WriteString(arg.String())
	}
	for _, kw := range x.Keywords {
		b.WriteString(" :")
		b.WriteString(kw.Name)
		b.WriteString(" ")
		b.WriteString(kw.Value.String())
	}
	b.WriteString(")")
	return b.String()
}

// Keyword returns the keyword argument named name, if present.
func (x *CallExpr) Keyword(name string) (*KeywordArg, bool) {
	for _, kw := range x.Keywords {
		if kw.Name == name {
			return kw, true
		}
	}
	return nil, false
}

// formatFloat renders x so that it always reads back as a float.
func formatFloat(x float64) string {
	s := strconv.FormatFloat(x, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEn") {
		return s
	}
	return s + ".0"
}

// TypeName returns a short description of the kind of x used in messages.
func TypeName(x Expr) string {
	switch x := x.(type) {
	case *StringLit:
		return "string"
	case *IntLit:
		return "integer"
	case *FloatLit:
		return "float"
	case *BoolLit:
		return "boolean"
	case *NullLit:
		return "null"
	case *Ident:
		return "symbol"
	case *ListExpr:
		return "list"
	case *CallExpr:
		return "(" + x.Head.Name + ")"
	case *BadExpr:
		return "invalid expression"
	default:
		return "unknown"
	}
}
