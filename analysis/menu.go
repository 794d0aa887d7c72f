// Copyright © 2024 The Declavatar authors

package analysis

import (
	"github.com/declavatar/declavatar/ast"
	"github.com/declavatar/declavatar/avatar"
)

// menuItems analyzes the controls of a menu or submenu body.  Controls
// failing analysis are left out.
func (a *analyzer) menuItems(nodes []ast.Node, s *Scope) []avatar.MenuItem {
	items := make([]avatar.MenuItem, 0, len(nodes))
	for _, node := range a.active(nodes) {
		var item avatar.MenuItem
		switch decl := node.(type) {
		case *ast.SubMenuDecl:
			item = a.subMenu(decl, s)
		case *ast.BooleanControlDecl:
			item = a.booleanControl(decl, s)
		case *ast.RadialDecl:
			item = a.radial(decl, s)
		case *ast.TwoAxisDecl:
			item = a.twoAxis(decl, s)
		case *ast.FourAxisDecl:
			item = a.fourAxis(decl, s)
		}
		if item != nil {
			items = append(items, item)
		}
	}
	return items
}

func (a *analyzer) subMenu(decl *ast.SubMenuDecl, s *Scope) avatar.MenuItem {
	name, ok := a.str(decl.Name, s, "submenu name")
	if !ok {
		return nil
	}
	return &avatar.SubMenu{
		Name:  name,
		Items: a.menuItems(decl.Body, s.Child(ScopeMenu, "submenu "+quote(name))),
	}
}

func (a *analyzer) booleanControl(decl *ast.BooleanControlDecl, s *Scope) avatar.MenuItem {
	kind := "toggle"
	if decl.Hold {
		kind = "button"
	}
	name, ok := a.str(decl.Name, s, kind+" name")
	if !ok {
		return nil
	}
	s = s.Child(ScopeControl, kind+" "+quote(name))

	param, p := a.controlParameter(decl.Parameter, s)
	if p == nil {
		return nil
	}
	value, ok := a.controlValue(decl.Value, param, p, s)
	if !ok {
		return nil
	}
	if decl.Hold {
		return &avatar.Button{Name: name, Parameter: param, Value: value}
	}
	return &avatar.Toggle{Name: name, Parameter: param, Value: value}
}

// controlValue evaluates the value a boolean control sets.  Without an
// explicit value the control sets true, 1 or 1.0.
func (a *analyzer) controlValue(x ast.Expr, name string, p *avatar.Parameter, s *Scope) (avatar.ParameterValue, bool) {
	if x == nil {
		switch p.ValueType.Kind {
		case avatar.ParameterInt:
			return avatar.IntValue(1), true
		case avatar.ParameterFloat:
			return avatar.FloatValue(1), true
		}
		return avatar.BoolValue(true), true
	}
	return a.parameterValueOf(x, name, p, s)
}

// parameterValueOf evaluates x as a value of the parameter p named name.
func (a *analyzer) parameterValueOf(x ast.Expr, name string, p *avatar.Parameter, s *Scope) (avatar.ParameterValue, bool) {
	v, ok := a.value(x, s)
	if !ok {
		return avatar.ParameterValue{}, false
	}
	typ := paramType(p.ValueType.Kind)
	pv, conv := parameterValue(typ, v)
	switch conv {
	case convOK:
		return pv, true
	case convOutOfRange:
		a.errorf(s, x.Pos(), "parameter.value_out_of_range", name, v.String())
	default:
		a.errorf(s, x.Pos(), "value.type_mismatch", "value of "+name, typ.String(), v.TypeName())
	}
	return avatar.ParameterValue{}, false
}

func paramType(k avatar.ParameterKind) ast.ParamType {
	switch k {
	case avatar.ParameterInt:
		return ast.ParamInt
	case avatar.ParameterFloat:
		return ast.ParamFloat
	}
	return ast.ParamBool
}

func (a *analyzer) radial(decl *ast.RadialDecl, s *Scope) avatar.MenuItem {
	name, ok := a.str(decl.Name, s, "radial name")
	if !ok {
		return nil
	}
	s = s.Child(ScopeControl, "radial "+quote(name))
	param, ok := a.floatParameter(decl.Parameter, s)
	if !ok {
		return nil
	}
	return &avatar.Radial{Name: name, Parameter: param}
}

func (a *analyzer) twoAxis(decl *ast.TwoAxisDecl, s *Scope) avatar.MenuItem {
	name, ok := a.str(decl.Name, s, "two-axis name")
	if !ok {
		return nil
	}
	s = s.Child(ScopeControl, "two-axis "+quote(name))
	h, hOK := a.biAxis(decl.Horizontal, s.Child(ScopeControl, "horizontal"))
	v, vOK := a.biAxis(decl.Vertical, s.Child(ScopeControl, "vertical"))
	if !hOK || !vOK {
		return nil
	}
	return &avatar.TwoAxis{Name: name, Horizontal: h, Vertical: v}
}

func (a *analyzer) fourAxis(decl *ast.FourAxisDecl, s *Scope) avatar.MenuItem {
	name, ok := a.str(decl.Name, s, "four-axis name")
	if !ok {
		return nil
	}
	s = s.Child(ScopeControl, "four-axis "+quote(name))
	item := &avatar.FourAxis{Name: name}
	axes := []struct {
		label string
		decl  *ast.AxisDecl
		out   *avatar.UniAxis
	}{
		{"left", decl.Left, &item.Left},
		{"right", decl.Right, &item.Right},
		{"up", decl.Up, &item.Up},
		{"down", decl.Down, &item.Down},
	}
	ok = true
	for _, axis := range axes {
		uni, axisOK := a.uniAxis(axis.decl, s.Child(ScopeControl, axis.label))
		*axis.out = uni
		ok = ok && axisOK
	}
	if !ok {
		return nil
	}
	return item
}

func (a *analyzer) biAxis(decl *ast.AxisDecl, s *Scope) (avatar.BiAxis, bool) {
	param, ok := a.floatParameter(decl.Parameter, s)
	pos, posOK := a.optionalStr(decl.Positive, s, "axis label")
	neg, negOK := a.optionalStr(decl.Negative, s, "axis label")
	return avatar.BiAxis{Parameter: param, LabelPositive: pos, LabelNegative: neg}, ok && posOK && negOK
}

func (a *analyzer) uniAxis(decl *ast.AxisDecl, s *Scope) (avatar.UniAxis, bool) {
	param, ok := a.floatParameter(decl.Parameter, s)
	label, labelOK := a.optionalStr(decl.Positive, s, "axis label")
	return avatar.UniAxis{Parameter: param, Label: label}, ok && labelOK
}

// controlParameter resolves the parameter a menu control drives.  The
// parameter must be declared and exposed to the menu.
func (a *analyzer) controlParameter(x ast.Expr, s *Scope) (string, *avatar.Parameter) {
	name, ok := a.str(x, s, "parameter name")
	if !ok {
		return "", nil
	}
	p := a.lookupParameter(name, x.Pos(), s)
	if p == nil {
		return "", nil
	}
	if p.Scope.Kind == avatar.ScopeInternal {
		a.errorf(s, x.Pos(), "parameter.scope_requirement", name, "local or synced")
		return "", nil
	}
	return name, p
}

// floatParameter is controlParameter for the float parameters driven by
// radial and axis controls.
func (a *analyzer) floatParameter(x ast.Expr, s *Scope) (string, bool) {
	name, p := a.controlParameter(x, s)
	if p == nil {
		return "", false
	}
	if p.ValueType.Kind != avatar.ParameterFloat {
		a.errorf(s, x.Pos(), "parameter.type_requirement", name, "float")
		return "", false
	}
	return name, true
}
