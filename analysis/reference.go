// Copyright © 2024 The Declavatar authors

package analysis

import (
	"github.com/declavatar/declavatar/ast"
	"github.com/declavatar/declavatar/avatar"
	"github.com/declavatar/declavatar/diagnostic"
	"github.com/declavatar/declavatar/parser/token"
)

// Reference records a use of a registered symbol in value position.
type Reference struct {
	Name   string
	Source *token.Location
}

// UnresolvedRef records an identifier naming no registered symbol.
type UnresolvedRef struct {
	Name   string
	Source *token.Location
}

// value evaluates x.  Identifiers evaluate to their name when the symbol is
// registered and localizations to their text.  Lists are left untyped.  The
// result is false when a diagnostic has been reported for x.
func (a *analyzer) value(x ast.Expr, s *Scope) (avatar.Value, bool) {
	switch x := x.(type) {
	case *ast.StringLit:
		return avatar.String(x.Value), true
	case *ast.IntLit:
		return avatar.Integer(x.Value), true
	case *ast.FloatLit:
		return avatar.Float(x.Value), true
	case *ast.BoolLit:
		return avatar.Boolean(x.Value), true
	case *ast.NullLit:
		return avatar.Null{}, true
	case *ast.Ident:
		return a.resolve(x, s)
	case *ast.ListExpr:
		items := make(avatar.List, 0, len(x.Items))
		ok := true
		for _, item := range x.Items {
			v, itemOK := a.value(item, s)
			if !itemOK {
				ok = false
				continue
			}
			items = append(items, v)
		}
		return items, ok
	case *ast.CallExpr:
		return a.call(x, s)
	}
	return nil, false
}

func (a *analyzer) resolve(id *ast.Ident, s *Scope) (avatar.Value, bool) {
	if !a.cfg.Symbols.Has(id.Name) {
		a.result.Unresolved = append(a.result.Unresolved, &UnresolvedRef{Name: id.Name, Source: id.Source})
		a.errorf(s, id.Source, "symbol.undefined", id.Name)
		return nil, false
	}
	a.result.References = append(a.result.References, &Reference{Name: id.Name, Source: id.Source})
	return avatar.String(id.Name), true
}

// call evaluates a value function.  The builder has already checked the
// function names and their arity.
func (a *analyzer) call(x *ast.CallExpr, s *Scope) (avatar.Value, bool) {
	name := x.Head.Name
	switch name {
	case "localize":
		key, ok := a.str(x.Args[0], s, name)
		if !ok {
			return nil, false
		}
		return avatar.String(a.localize(key, x.Source, s)), true
	case "game-object", "material", "animation-clip":
		path, ok := a.str(x.Args[0], s, name)
		if !ok {
			return nil, false
		}
		switch name {
		case "game-object":
			return avatar.GameObject(path), true
		case "material":
			return avatar.Material(path), true
		}
		return avatar.AnimationClip(path), true
	case "vector2", "vector3", "vector4":
		vec := make(avatar.Vector, 0, len(x.Args))
		ok := true
		for _, arg := range x.Args {
			f, argOK := a.float(arg, s, name)
			ok = ok && argOK
			vec = append(vec, f)
		}
		return vec, ok
	}
	a.errorf(s, x.Source, "value.type_mismatch", name, "value", name)
	return nil, false
}

// localize returns the text registered for key.  A missing localization is
// reported as information and the key itself is used.
func (a *analyzer) localize(key string, loc *token.Location, s *Scope) string {
	text, ok := a.cfg.Localizations.Lookup(key)
	if !ok {
		a.report(diagnostic.KindSemanticInfo, s, loc, "localization.missing", key)
		return key
	}
	return text
}

// str evaluates x as a string.  what names the expected value in messages.
func (a *analyzer) str(x ast.Expr, s *Scope, what string) (string, bool) {
	v, ok := a.value(x, s)
	if !ok {
		return "", false
	}
	str, ok := v.(avatar.String)
	if !ok {
		a.errorf(s, x.Pos(), "value.type_mismatch", what, "string", v.TypeName())
		return "", false
	}
	return string(str), true
}

// float evaluates x as a number.
func (a *analyzer) float(x ast.Expr, s *Scope, what string) (float64, bool) {
	v, ok := a.value(x, s)
	if !ok {
		return 0, false
	}
	switch v := v.(type) {
	case avatar.Float:
		return float64(v), true
	case avatar.Integer:
		return float64(v), true
	}
	a.errorf(s, x.Pos(), "value.type_mismatch", what, "float", v.TypeName())
	return 0, false
}

// optionalStr is like str but returns "" for a nil expression.
func (a *analyzer) optionalStr(x ast.Expr, s *Scope, what string) (string, bool) {
	if x == nil {
		return "", true
	}
	return a.str(x, s, what)
}
