// Copyright © 2024 The Declavatar authors

package analysis

import (
	"log/slog"
	"strconv"

	"github.com/declavatar/declavatar/ast"
	"github.com/declavatar/declavatar/avatar"
	"github.com/declavatar/declavatar/diagnostic"
	"github.com/declavatar/declavatar/parser/token"
)

// analyzer is the internal state for a single analysis run.
type analyzer struct {
	cfg    *Config
	diags  *diagnostic.Collector
	logger *slog.Logger
	result *Result
	avatar *avatar.Avatar
	table  *table

	versionSeen bool
	avatarSeen  bool
	gates       map[*ast.GateDecl]string // names of gates accepted by the first pass
	layers      map[ast.Node]*layerInfo  // layers accepted by the first pass
	layerByName map[string]*layerInfo
}

func (a *analyzer) report(kind diagnostic.Kind, s *Scope, loc *token.Location, code string, args ...string) {
	a.diags.Add(diagnostic.New(kind, code, args...).At(loc).In(s.Context()))
}

func (a *analyzer) errorf(s *Scope, loc *token.Location, code string, args ...string) {
	a.report(diagnostic.KindSemanticError, s, loc, code, args...)
}

// active returns nodes with conditional declarations replaced by their
// bodies when their condition holds and dropped otherwise.
func (a *analyzer) active(nodes []ast.Node) []ast.Node {
	var out []ast.Node
	for _, node := range nodes {
		cond, ok := node.(*ast.ConditionalDecl)
		if !ok {
			out = append(out, node)
			continue
		}
		if a.holds(cond.Condition) != cond.Negate {
			out = append(out, a.active(cond.Body)...)
		}
	}
	return out
}

func (a *analyzer) holds(cond ast.Condition) bool {
	switch cond := cond.(type) {
	case *ast.Defined:
		return a.cfg.Symbols.Has(cond.Name)
	case *ast.Localized:
		return a.cfg.Localizations.Has(cond.Key)
	}
	return false
}

func (a *analyzer) document(nodes []ast.Node, s *Scope) {
	for _, node := range a.active(nodes) {
		switch node := node.(type) {
		case *ast.VersionDecl:
			a.version(node, s)
		case *ast.AvatarDecl:
			a.avatarDecl(node, s)
		}
	}
}

func (a *analyzer) version(decl *ast.VersionDecl, s *Scope) {
	if a.versionSeen {
		a.errorf(s, decl.Source, "version.duplicate")
		return
	}
	a.versionSeen = true
	lit, ok := decl.Version.(*ast.StringLit)
	if !ok {
		a.errorf(s, decl.Version.Pos(), "version.invalid", decl.Version.String())
		return
	}
	v, err := ParseVersion(lit.Value)
	if err != nil {
		a.errorf(s, lit.Source, "version.invalid", lit.Value)
		return
	}
	a.avatar.Version = v.String()
}

func (a *analyzer) avatarDecl(decl *ast.AvatarDecl, s *Scope) {
	if a.avatarSeen {
		a.errorf(s, decl.Source, "avatar.duplicate")
		return
	}
	a.avatarSeen = true
	name, ok := a.value(decl.Name, s)
	if !ok {
		return
	}
	str, isString := name.(avatar.String)
	if !isString || str == "" {
		a.errorf(s, decl.Name.Pos(), "avatar.invalid_name", decl.Name.String())
		return
	}
	a.avatar.Name = string(str)
	s = s.Child(ScopeAvatar, "avatar "+quote(string(str)))

	body := a.active(decl.Body)
	a.gates = make(map[*ast.GateDecl]string)
	a.layers = make(map[ast.Node]*layerInfo)
	a.layerByName = make(map[string]*layerInfo)

	// First pass: declarations referenced by the rest of the avatar.
	for _, node := range body {
		switch node := node.(type) {
		case *ast.ParametersBlock:
			a.parameters(node, s.Child(ScopeParameters, "parameters"))
		case *ast.AssetsBlock:
			a.assets(node, s.Child(ScopeAssets, "assets"))
		case *ast.ExportsBlock:
			a.declareGates(node, s.Child(ScopeExports, "exports"))
		case *ast.FxControllerBlock:
			a.declareLayers(node, s.Child(ScopeFxController, "fx-controller"))
		}
	}

	// Second pass: declarations referring to the first.
	for _, node := range body {
		switch node := node.(type) {
		case *ast.ExportsBlock:
			a.exports(node, s.Child(ScopeExports, "exports"))
		case *ast.FxControllerBlock:
			a.fxController(node, s.Child(ScopeFxController, "fx-controller"))
		case *ast.MenuBlock:
			ms := s.Child(ScopeMenu, "menu")
			a.avatar.MenuItems = append(a.avatar.MenuItems, a.menuItems(node.Body, ms)...)
		case *ast.AttachmentsBlock:
			a.attachments(node, s)
		}
	}
}

func (a *analyzer) parameters(block *ast.ParametersBlock, s *Scope) {
	for _, node := range a.active(block.Body) {
		decl, ok := node.(*ast.ParameterDecl)
		if !ok {
			continue
		}
		a.parameter(decl, s)
	}
}

func (a *analyzer) parameter(decl *ast.ParameterDecl, s *Scope) {
	name, ok := a.str(decl.Name, s, "parameter name")
	if !ok {
		return
	}
	p := &avatar.Parameter{Name: name, Unique: decl.Unique}

	switch decl.Scope {
	case ast.ScopeInternal:
		if decl.Save {
			a.errorf(s, decl.Source, "parameter.internal_must_transient", name)
			return
		}
		p.Scope = avatar.Scope{Kind: avatar.ScopeInternal}
	case ast.ScopeLocal:
		p.Scope = avatar.Scope{Kind: avatar.ScopeLocal, Save: decl.Save}
	default:
		p.Scope = avatar.Scope{Kind: avatar.ScopeSynced, Save: decl.Save}
	}

	p.ValueType, ok = a.defaultValue(decl, name, s)
	if !ok {
		return
	}
	p.ExplicitDefault = decl.Default != nil

	sym, added := a.table.Define(&Symbol{Name: name, Kind: SymParameter, Source: decl.Source, Parameter: p})
	if !added {
		if *sym.Parameter != *p {
			a.errorf(s, decl.Source, "parameter.incompatible_declaration", name)
		}
		return
	}
	a.avatar.Parameters = append(a.avatar.Parameters, p)
}

func (a *analyzer) defaultValue(decl *ast.ParameterDecl, name string, s *Scope) (avatar.ParameterValue, bool) {
	var zero avatar.ParameterValue
	switch decl.Type {
	case ast.ParamInt:
		zero = avatar.IntValue(0)
	case ast.ParamFloat:
		zero = avatar.FloatValue(0)
	default:
		zero = avatar.BoolValue(false)
	}
	if decl.Default == nil {
		return zero, true
	}
	v, ok := a.value(decl.Default, s)
	if !ok {
		return zero, false
	}
	pv, conv := parameterValue(decl.Type, v)
	switch conv {
	case convOK:
		return pv, true
	case convOutOfRange:
		a.errorf(s, decl.Default.Pos(), "parameter.default_out_of_range", name, v.String())
	default:
		a.errorf(s, decl.Default.Pos(), "parameter.invalid_default", name, v.String(), decl.Type.String())
	}
	return zero, false
}

// conversion is the outcome of converting a value for a parameter.
type conversion int

const (
	convOK conversion = iota
	convWrongType
	convOutOfRange // integer outside 0..255
)

// parameterValue converts v to a value of a parameter of type typ.
func parameterValue(typ ast.ParamType, v avatar.Value) (avatar.ParameterValue, conversion) {
	switch typ {
	case ast.ParamInt:
		i, ok := v.(avatar.Integer)
		if !ok {
			return avatar.ParameterValue{}, convWrongType
		}
		if i < 0 || i > 255 {
			return avatar.ParameterValue{}, convOutOfRange
		}
		return avatar.IntValue(uint8(i)), convOK
	case ast.ParamFloat:
		switch v := v.(type) {
		case avatar.Float:
			return avatar.FloatValue(float64(v)), convOK
		case avatar.Integer:
			return avatar.FloatValue(float64(v)), convOK
		}
	case ast.ParamBool:
		if b, ok := v.(avatar.Boolean); ok {
			return avatar.BoolValue(bool(b)), convOK
		}
	}
	return avatar.ParameterValue{}, convWrongType
}

func (a *analyzer) assets(block *ast.AssetsBlock, s *Scope) {
	for _, node := range a.active(block.Body) {
		decl, ok := node.(*ast.AssetDecl)
		if !ok {
			continue
		}
		key, ok := a.str(decl.Key, s, decl.Kind.String()+" key")
		if !ok {
			continue
		}
		asset := &avatar.Asset{Key: key, Type: avatar.AssetMaterial}
		if decl.Kind == ast.AssetAnimation {
			asset.Type = avatar.AssetAnimation
		}
		sym, added := a.table.Define(&Symbol{Name: key, Kind: SymAsset, Source: decl.Source, Asset: asset})
		if !added {
			if sym.Asset.Type != asset.Type {
				a.errorf(s, decl.Source, "asset.incompatible_declaration", key)
			}
			continue
		}
		a.avatar.Assets = append(a.avatar.Assets, asset)
	}
}

func (a *analyzer) declareGates(block *ast.ExportsBlock, s *Scope) {
	for _, node := range a.active(block.Body) {
		decl, ok := node.(*ast.GateDecl)
		if !ok {
			continue
		}
		name, ok := a.str(decl.Name, s, "gate name")
		if !ok {
			continue
		}
		if _, added := a.table.Define(&Symbol{Name: name, Kind: SymGate, Source: decl.Source}); !added {
			a.errorf(s, decl.Source, "gate.duplicate", name)
			continue
		}
		a.gates[decl] = name
	}
}

func (a *analyzer) exports(block *ast.ExportsBlock, s *Scope) {
	for _, node := range a.active(block.Body) {
		switch decl := node.(type) {
		case *ast.GateDecl:
			name, ok := a.gates[decl]
			if !ok {
				continue
			}
			a.avatar.Exports = append(a.avatar.Exports, &avatar.Gate{Name: name})
		case *ast.GuardDecl:
			if guard := a.guard(decl, s); guard != nil {
				a.avatar.Exports = append(a.avatar.Exports, guard)
			}
		}
	}
}

func (a *analyzer) guard(decl *ast.GuardDecl, s *Scope) *avatar.Guard {
	gate, ok := a.str(decl.Gate, s, "gate name")
	if !ok {
		return nil
	}
	param, ok := a.str(decl.Parameter, s, "parameter name")
	if !ok {
		return nil
	}
	gs := a.table.Lookup(SymGate, gate)
	if gs == nil {
		a.errorf(s, decl.Gate.Pos(), "gate.not_found", gate)
		return nil
	}
	gs.References++
	p := a.lookupParameter(param, decl.Parameter.Pos(), s)
	if p == nil {
		return nil
	}
	if k := p.ValueType.Kind; k != avatar.ParameterBool && k != avatar.ParameterInt {
		a.errorf(s, decl.Parameter.Pos(), "parameter.type_requirement", param, "bool or int")
		return nil
	}
	return &avatar.Guard{Gate: gate, Parameter: param}
}

// lookupParameter returns the declared parameter named name and counts the
// reference.  A missing parameter is reported.
func (a *analyzer) lookupParameter(name string, loc *token.Location, s *Scope) *avatar.Parameter {
	sym := a.table.Lookup(SymParameter, name)
	if sym == nil {
		a.errorf(s, loc, "parameter.not_found", name)
		return nil
	}
	sym.References++
	return sym.Parameter
}

// quote renders a label for context chains.
func quote(s string) string {
	return strconv.Quote(s)
}
