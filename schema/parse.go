// Copyright © 2024 The Declavatar authors

package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/declavatar/declavatar/ast"
	"github.com/declavatar/declavatar/parser"
	"github.com/declavatar/declavatar/parser/token"
)

// Parse parses and validates a schema written in S-expression syntax:
//
//	(attachment-schema "PhysBoneExt"
//	  (property "target" :required true
//	    (parameter "object" game-object))
//	  (property "weight"
//	    (parameter "value" float)
//	    (keyword "curve" (list float))))
func Parse(file string, src []byte) (*Attachment, error) {
	return ParseFormat(file, src, parser.FormatSexpr)
}

// ParseFormat is like Parse for a source written in format.  Every problem
// found is reported; the returned error joins them.
func ParseFormat(file string, src []byte, format parser.Format) (*Attachment, error) {
	forms, syntaxErrs, err := parser.ParseForms(file, src, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	if len(syntaxErrs) > 0 {
		errs := make([]error, len(syntaxErrs))
		for i, e := range syntaxErrs {
			errs[i] = located(e.Source, errors.New(e.Message()))
		}
		return nil, errors.Join(errs...)
	}
	if len(forms) != 1 {
		return nil, located(&token.Location{File: file, Pos: -1},
			fmt.Errorf("expected a single attachment-schema form, found %d forms", len(forms)))
	}
	p := &schemaParser{}
	a := p.attachment(forms[0])
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

type schemaParser struct {
	errs []error
}

func located(loc *token.Location, err error) error {
	return &token.LocationError{Err: fmt.Errorf("%w: %w", ErrInvalidSchema, err), Source: loc}
}

func (p *schemaParser) errorf(x ast.Expr, format string, args ...any) {
	p.errs = append(p.errs, located(x.Pos(), fmt.Errorf(format, args...)))
}

// form checks that x is a call of head with at least one leading string
// argument and returns the call and that string.
func (p *schemaParser) form(x ast.Expr, head string) (*ast.CallExpr, string, bool) {
	call, ok := x.(*ast.CallExpr)
	if !ok || normalizeKeyword(call.Head.Name) != head {
		p.errorf(x, "expected (%s ...), found %s", head, x)
		return nil, "", false
	}
	if len(call.Args) == 0 {
		p.errorf(x, "%s needs a name", head)
		return nil, "", false
	}
	name, ok := call.Args[0].(*ast.StringLit)
	if !ok {
		p.errorf(call.Args[0], "%s name must be a string, found %s", head, call.Args[0])
		return nil, "", false
	}
	return call, name.Value, true
}

// flags reads the boolean keywords of call.  Other keywords are errors.
func (p *schemaParser) flags(call *ast.CallExpr, required, deprecated *bool) {
	for _, kw := range call.Keywords {
		var dst *bool
		switch normalizeKeyword(kw.Name) {
		case "required":
			dst = required
		case "deprecated":
			dst = deprecated
		}
		if dst == nil {
			p.errorf(call, "unknown keyword :%s for %s", kw.Name, call.Head.Name)
			continue
		}
		b, ok := kw.Value.(*ast.BoolLit)
		if !ok {
			p.errorf(kw.Value, ":%s must be a boolean, found %s", kw.Name, kw.Value)
			continue
		}
		*dst = b.Value
	}
}

func (p *schemaParser) attachment(x ast.Expr) *Attachment {
	call, name, ok := p.form(x, "attachment-schema")
	if !ok {
		return nil
	}
	for _, kw := range call.Keywords {
		p.errorf(call, "unknown keyword :%s for attachment-schema", kw.Name)
	}
	a := &Attachment{Name: name, Properties: []*Property{}}
	for _, arg := range call.Args[1:] {
		if prop := p.property(arg); prop != nil {
			a.Properties = append(a.Properties, prop)
		}
	}
	return a
}

func (p *schemaParser) property(x ast.Expr) *Property {
	call, name, ok := p.form(x, "property")
	if !ok {
		return nil
	}
	prop := &Property{Name: name, Parameters: []*Parameter{}, Keywords: []*Keyword{}}
	p.flags(call, &prop.Required, &prop.Deprecated)
	for _, arg := range call.Args[1:] {
		switch {
		case isForm(arg, "parameter"):
			c, pname, ok := p.form(arg, "parameter")
			if !ok {
				continue
			}
			if len(c.Args) != 2 || len(c.Keywords) > 0 {
				p.errorf(c, "parameter %q takes a name and a type", pname)
				continue
			}
			if t := p.typ(c.Args[1]); t != nil {
				prop.Parameters = append(prop.Parameters, &Parameter{Name: pname, Type: t})
			}
		case isForm(arg, "keyword"):
			c, kname, ok := p.form(arg, "keyword")
			if !ok {
				continue
			}
			if len(c.Args) != 2 {
				p.errorf(c, "keyword %q takes a name and a type", kname)
				continue
			}
			kw := &Keyword{Name: kname}
			p.flags(c, &kw.Required, &kw.Deprecated)
			if kw.Type = p.typ(c.Args[1]); kw.Type != nil {
				prop.Keywords = append(prop.Keywords, kw)
			}
		default:
			p.errorf(arg, "expected (parameter ...) or (keyword ...), found %s", arg)
		}
	}
	return prop
}

func isForm(x ast.Expr, head string) bool {
	call, ok := x.(*ast.CallExpr)
	return ok && normalizeKeyword(call.Head.Name) == head
}

// typ parses a type expression: a bare kind name or a parameterized form
// such as (list float) or (vector 3).
func (p *schemaParser) typ(x ast.Expr) *Type {
	switch x := x.(type) {
	case *ast.Ident:
		kind, ok := kindByKeyword(x.Name)
		if !ok {
			p.errorf(x, "unknown type %s", x.Name)
			return nil
		}
		switch kind {
		case KindList, KindTuple, KindOneOf, KindMap, KindVector:
			p.errorf(x, "type %s needs arguments", x.Name)
			return nil
		}
		return Simple(kind)
	case *ast.NullLit:
		return Simple(KindNull)
	case *ast.CallExpr:
		kind, ok := kindByKeyword(x.Head.Name)
		if !ok {
			p.errorf(x, "unknown type %s", x.Head.Name)
			return nil
		}
		if len(x.Keywords) > 0 {
			p.errorf(x, "type %s takes no keywords", x.Head.Name)
			return nil
		}
		switch kind {
		case KindVector:
			n, ok := singleInt(x.Args)
			if !ok {
				p.errorf(x, "vector takes a single integer length")
				return nil
			}
			return VectorOf(n)
		case KindList, KindTuple, KindOneOf, KindMap:
			elems := make([]*Type, 0, len(x.Args))
			for _, arg := range x.Args {
				t := p.typ(arg)
				if t == nil {
					return nil
				}
				elems = append(elems, t)
			}
			switch {
			case kind == KindList && len(elems) != 1:
				p.errorf(x, "list takes exactly one element type")
				return nil
			case kind == KindMap && len(elems) != 2:
				p.errorf(x, "map takes a key type and a value type")
				return nil
			}
			return &Type{Kind: kind, Elems: elems}
		}
		p.errorf(x, "type %s takes no arguments", x.Head.Name)
		return nil
	}
	p.errorf(x, "expected a type, found %s", x)
	return nil
}

func singleInt(args []ast.Expr) (int, bool) {
	if len(args) != 1 {
		return 0, false
	}
	lit, ok := args[0].(*ast.IntLit)
	if !ok {
		return 0, false
	}
	return int(lit.Value), true
}

func kindByKeyword(name string) (Kind, bool) {
	name = strings.ToLower(normalizeKeyword(name))
	for k := range kindInfo {
		if kindInfo[k].keyword == name {
			return Kind(k), true
		}
	}
	return 0, false
}
