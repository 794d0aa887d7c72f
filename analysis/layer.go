// Copyright © 2024 The Declavatar authors

package analysis

import (
	"strconv"

	"github.com/declavatar/declavatar/ast"
	"github.com/declavatar/declavatar/avatar"
	"github.com/declavatar/declavatar/parser/token"
)

// layerInfo is what the first pass learns about a layer.  Drives in other
// layers refer to it by name.
type layerInfo struct {
	name      string
	kind      ast.LayerKind
	parameter string // "" when the driven-by expression failed

	// group layers only
	options map[string]uint8
	heads   map[*ast.OptionDecl]*avatar.GroupOption
}

func layerKindOf(node ast.Node) (ast.LayerKind, bool) {
	switch node.(type) {
	case *ast.GroupLayerDecl:
		return ast.LayerGroup, true
	case *ast.SwitchLayerDecl:
		return ast.LayerSwitch, true
	case *ast.PuppetLayerDecl:
		return ast.LayerPuppet, true
	case *ast.RawLayerDecl:
		return ast.LayerRaw, true
	}
	return 0, false
}

// declareLayers evaluates the layer names and group options of block.
// Duplicate layers are reported and left out of the second pass.
func (a *analyzer) declareLayers(block *ast.FxControllerBlock, s *Scope) {
	for _, node := range a.active(block.Body) {
		kind, ok := layerKindOf(node)
		if !ok {
			continue
		}
		var nameExpr, drivenBy ast.Expr
		switch decl := node.(type) {
		case *ast.GroupLayerDecl:
			nameExpr, drivenBy = decl.Name, decl.DrivenBy
		case *ast.SwitchLayerDecl:
			nameExpr, drivenBy = decl.Name, decl.DrivenBy
		case *ast.PuppetLayerDecl:
			nameExpr, drivenBy = decl.Name, decl.DrivenBy
		case *ast.RawLayerDecl:
			nameExpr = decl.Name
		}
		name, ok := a.str(nameExpr, s, "layer name")
		if !ok {
			continue
		}
		if _, dup := a.layerByName[name]; dup {
			a.errorf(s, node.Pos(), "layer.duplicate", name)
			continue
		}
		info := &layerInfo{name: name, kind: kind}
		if drivenBy != nil {
			info.parameter, _ = a.str(drivenBy, s, "parameter name")
		}
		if decl, isGroup := node.(*ast.GroupLayerDecl); isGroup {
			a.declareGroupOptions(decl, info, s.Child(ScopeLayer, kind.String()+"-layer "+quote(name)))
		}
		a.layerByName[name] = info
		a.layers[node] = info
	}
}

// declareGroupOptions numbers the options of a group layer.  An option
// without :value takes its position, counting from 1; 0 is the default.
func (a *analyzer) declareGroupOptions(decl *ast.GroupLayerDecl, info *layerInfo, s *Scope) {
	info.options = make(map[string]uint8)
	info.heads = make(map[*ast.OptionDecl]*avatar.GroupOption)
	values := make(map[uint8]string)
	position := 0
	seenDefault := false
	for _, node := range a.active(decl.Body) {
		opt, ok := node.(*ast.OptionDecl)
		if !ok {
			continue
		}
		if opt.Kind == ast.OptionDefault {
			if seenDefault {
				a.errorf(s, opt.Source, "layer.option_duplicate", info.name, "default")
				continue
			}
			seenDefault = true
			info.heads[opt] = &avatar.GroupOption{}
			continue
		}
		position++
		name, ok := a.str(opt.Label, s, "option name")
		if !ok {
			continue
		}
		value, ok := a.optionValue(opt, position, info.name, name, s)
		if !ok {
			continue
		}
		if _, dup := info.options[name]; dup {
			a.errorf(s, opt.Source, "layer.option_duplicate", info.name, name)
			continue
		}
		if prev, dup := values[value]; dup {
			a.errorf(s, opt.Source, "layer.option_value_duplicate", info.name, strconv.Itoa(int(value)), prev)
			continue
		}
		values[value] = name
		info.options[name] = value
		info.heads[opt] = &avatar.GroupOption{Name: name, Value: value}
	}
}

func (a *analyzer) optionValue(opt *ast.OptionDecl, position int, layer, option string, s *Scope) (uint8, bool) {
	x := opt.Value
	if x == nil {
		if position > 255 {
			a.errorf(s, opt.Source, "layer.option_value_out_of_range", layer, option, strconv.Itoa(position))
			return 0, false
		}
		return uint8(position), true
	}
	v, ok := a.value(x, s)
	if !ok {
		return 0, false
	}
	i, isInt := v.(avatar.Integer)
	if !isInt {
		a.errorf(s, x.Pos(), "value.type_mismatch", "value of option "+option, "int", v.TypeName())
		return 0, false
	}
	if i < 1 || i > 255 {
		a.errorf(s, x.Pos(), "layer.option_value_out_of_range", layer, option, v.String())
		return 0, false
	}
	return uint8(i), true
}

// fxController builds the layers declared by the first pass.
func (a *analyzer) fxController(block *ast.FxControllerBlock, s *Scope) {
	for _, node := range a.active(block.Body) {
		info, ok := a.layers[node]
		if !ok {
			continue
		}
		ls := s.Child(ScopeLayer, info.kind.String()+"-layer "+quote(info.name))
		var content avatar.LayerContent
		switch decl := node.(type) {
		case *ast.GroupLayerDecl:
			content = a.groupLayer(decl, info, ls)
		case *ast.SwitchLayerDecl:
			content = a.switchLayer(decl, info, ls)
		case *ast.PuppetLayerDecl:
			content = a.puppetLayer(decl, info, ls)
		case *ast.RawLayerDecl:
			content = a.rawLayer(decl, ls)
		}
		if content == nil {
			continue
		}
		a.avatar.FXController = append(a.avatar.FXController, &avatar.Layer{Name: info.name, Content: content})
	}
}

// layerParameter resolves the parameter driving a layer, which must have
// the given kind.
func (a *analyzer) layerParameter(info *layerInfo, x ast.Expr, kind avatar.ParameterKind, s *Scope) bool {
	if info.parameter == "" {
		return false
	}
	p := a.lookupParameter(info.parameter, x.Pos(), s)
	if p == nil {
		return false
	}
	if p.ValueType.Kind != kind {
		a.errorf(s, x.Pos(), "parameter.type_requirement", info.parameter, paramType(kind).String())
		return false
	}
	return true
}

func (a *analyzer) groupLayer(decl *ast.GroupLayerDecl, info *layerInfo, s *Scope) avatar.LayerContent {
	ok := a.layerParameter(info, decl.DrivenBy, avatar.ParameterInt, s)
	mesh, meshOK := a.optionalStr(decl.DefaultMesh, s, "mesh name")
	ok = ok && meshOK

	layer := &avatar.GroupLayer{
		Parameter: info.parameter,
		Default:   &avatar.GroupOption{Targets: []avatar.Target{}},
		Options:   []*avatar.GroupOption{},
	}
	for _, node := range a.active(decl.Body) {
		opt, isOption := node.(*ast.OptionDecl)
		if !isOption {
			continue
		}
		head, declared := info.heads[opt]
		if !declared {
			ok = false
			continue
		}
		label := "option default"
		if opt.Kind != ast.OptionDefault {
			label = "option " + quote(head.Name)
		}
		targets, targetsOK := a.targets(opt.Body, opt.Kind.Active(), mesh, s.Child(ScopeOption, label))
		if !targetsOK {
			ok = false
			continue
		}
		head.Targets = targets
		if opt.Kind == ast.OptionDefault {
			layer.Default = head
		} else {
			layer.Options = append(layer.Options, head)
		}
	}
	if !ok {
		return nil
	}
	return layer
}

func (a *analyzer) switchLayer(decl *ast.SwitchLayerDecl, info *layerInfo, s *Scope) avatar.LayerContent {
	ok := a.layerParameter(info, decl.DrivenBy, avatar.ParameterBool, s)
	mesh, meshOK := a.optionalStr(decl.DefaultMesh, s, "mesh name")
	ok = ok && meshOK

	layer := &avatar.SwitchLayer{Parameter: info.parameter, Disabled: []avatar.Target{}, Enabled: []avatar.Target{}}
	seen := make(map[ast.OptionKind]bool)
	for _, node := range a.active(decl.Body) {
		opt, isOption := node.(*ast.OptionDecl)
		if !isOption {
			continue
		}
		if seen[opt.Kind] {
			a.errorf(s, opt.Source, "layer.option_duplicate", info.name, opt.Kind.String())
			ok = false
			continue
		}
		seen[opt.Kind] = true
		targets, targetsOK := a.targets(opt.Body, opt.Kind.Active(), mesh, s.Child(ScopeOption, "option "+opt.Kind.String()))
		if !targetsOK {
			ok = false
			continue
		}
		if opt.Kind == ast.OptionEnabled {
			layer.Enabled = targets
		} else {
			layer.Disabled = targets
		}
	}
	if !ok {
		return nil
	}
	return layer
}

func (a *analyzer) puppetLayer(decl *ast.PuppetLayerDecl, info *layerInfo, s *Scope) avatar.LayerContent {
	ok := a.layerParameter(info, decl.DrivenBy, avatar.ParameterFloat, s)
	mesh, meshOK := a.optionalStr(decl.DefaultMesh, s, "mesh name")
	ok = ok && meshOK

	layer := &avatar.PuppetLayer{Parameter: info.parameter, Keyframes: []*avatar.PuppetKeyframe{}}
	for _, node := range a.active(decl.Body) {
		opt, isOption := node.(*ast.OptionDecl)
		if !isOption {
			continue
		}
		position, posOK := a.float(opt.Label, s, "keyframe position")
		if !posOK {
			ok = false
			continue
		}
		if position < 0 || position > 1 {
			a.errorf(s, opt.Label.Pos(), "layer.keyframe_out_of_range", info.name, strconv.FormatFloat(position, 'g', -1, 64))
			ok = false
			continue
		}
		label := "keyframe " + strconv.FormatFloat(position, 'g', -1, 64)
		targets, targetsOK := a.targets(opt.Body, true, mesh, s.Child(ScopeOption, label))
		if !targetsOK {
			ok = false
			continue
		}
		layer.Keyframes = append(layer.Keyframes, &avatar.PuppetKeyframe{Position: position, Targets: targets})
	}
	if !ok {
		return nil
	}
	return layer
}

// targets analyzes the targets of an option.  Targets of an active option
// default to their "on" values: shapes to 1.0 and objects to shown.
func (a *analyzer) targets(nodes []ast.Node, active bool, mesh string, s *Scope) ([]avatar.Target, bool) {
	targets := []avatar.Target{}
	keys := make(map[string]bool)
	ok := true
	for _, node := range a.active(nodes) {
		var target avatar.Target
		switch decl := node.(type) {
		case *ast.ShapeTargetDecl:
			target = a.shapeTarget(decl, active, mesh, s)
		case *ast.ObjectTargetDecl:
			target = a.objectTarget(decl, active, s)
		case *ast.MaterialTargetDecl:
			target = a.materialTarget(decl, mesh, s)
		case *ast.ParameterDriveDecl:
			if drive, driveOK := a.parameterDrive(decl, s); driveOK {
				target = &avatar.DriveTarget{Drive: drive}
			}
		case *ast.LayerDriveDecl:
			if drive, driveOK := a.layerDrive(decl, s); driveOK {
				target = &avatar.DriveTarget{Drive: drive}
			}
		default:
			continue
		}
		if target == nil {
			ok = false
			continue
		}
		key := target.DrivingKey()
		if keys[key] {
			a.errorf(s, node.Pos(), "layer.target_duplicate", key)
			ok = false
			continue
		}
		keys[key] = true
		targets = append(targets, target)
	}
	return targets, ok
}

// targetMesh picks the explicit mesh of a target or the default mesh of its
// layer.
func (a *analyzer) targetMesh(x ast.Expr, mesh, what string, loc *token.Location, s *Scope) (string, bool) {
	explicit, ok := a.optionalStr(x, s, "mesh name")
	if !ok {
		return "", false
	}
	if explicit != "" {
		return explicit, true
	}
	if mesh == "" {
		a.errorf(s, loc, "layer.indeterminate_mesh", what)
		return "", false
	}
	return mesh, true
}

func (a *analyzer) shapeTarget(decl *ast.ShapeTargetDecl, active bool, mesh string, s *Scope) avatar.Target {
	shape, ok := a.str(decl.Shape, s, "shape name")
	if !ok {
		return nil
	}
	mesh, ok = a.targetMesh(decl.Mesh, mesh, shape, decl.Source, s)
	if !ok {
		return nil
	}
	value := 0.0
	if active {
		value = 1.0
	}
	if decl.Value != nil {
		if value, ok = a.float(decl.Value, s, "value of shape "+shape); !ok {
			return nil
		}
	}
	return &avatar.ShapeTarget{Mesh: mesh, Shape: shape, Value: value}
}

func (a *analyzer) objectTarget(decl *ast.ObjectTargetDecl, active bool, s *Scope) avatar.Target {
	object, ok := a.str(decl.Object, s, "object name")
	if !ok {
		return nil
	}
	if decl.Value == nil {
		return &avatar.ObjectTarget{Object: object, Value: active}
	}
	v, ok := a.value(decl.Value, s)
	if !ok {
		return nil
	}
	b, isBool := v.(avatar.Boolean)
	if !isBool {
		a.errorf(s, decl.Value.Pos(), "value.type_mismatch", "value of object "+object, "bool", v.TypeName())
		return nil
	}
	return &avatar.ObjectTarget{Object: object, Value: bool(b)}
}

func (a *analyzer) materialTarget(decl *ast.MaterialTargetDecl, mesh string, s *Scope) avatar.Target {
	v, ok := a.value(decl.Index, s)
	if !ok {
		return nil
	}
	index, isInt := v.(avatar.Integer)
	if !isInt || index < 0 {
		a.errorf(s, decl.Index.Pos(), "value.type_mismatch", "material index", "non-negative int", v.TypeName())
		return nil
	}
	key, ok := a.str(decl.Asset, s, "material key")
	if !ok {
		return nil
	}
	if a.lookupAsset(key, avatar.AssetMaterial, decl.Asset.Pos(), s) == nil {
		return nil
	}
	mesh, ok = a.targetMesh(decl.Mesh, mesh, "material "+strconv.Itoa(int(index)), decl.Source, s)
	if !ok {
		return nil
	}
	return &avatar.MaterialTarget{Mesh: mesh, Index: int(index), Asset: key}
}

// lookupAsset returns the declared asset named key and counts the
// reference.  The asset must have type typ.
func (a *analyzer) lookupAsset(key string, typ avatar.AssetType, loc *token.Location, s *Scope) *avatar.Asset {
	sym := a.table.Lookup(SymAsset, key)
	if sym == nil {
		a.errorf(s, loc, "asset.not_found", key)
		return nil
	}
	sym.References++
	if sym.Asset.Type != typ {
		text, _ := typ.MarshalText()
		a.errorf(s, loc, "asset.type_requirement", key, string(text))
		return nil
	}
	return sym.Asset
}

func (a *analyzer) parameterDrive(decl *ast.ParameterDriveDecl, s *Scope) (avatar.ParameterDrive, bool) {
	name, ok := a.str(decl.Parameter, s, "parameter name")
	if !ok {
		return avatar.ParameterDrive{}, false
	}
	p := a.lookupParameter(name, decl.Parameter.Pos(), s)
	if p == nil {
		return avatar.ParameterDrive{}, false
	}
	kind := p.ValueType.Kind

	switch decl.Op {
	case ast.DriveSet, ast.DriveAdd:
		if decl.Op == ast.DriveAdd && kind == avatar.ParameterBool {
			a.errorf(s, decl.Parameter.Pos(), "parameter.type_requirement", name, "int or float")
			return avatar.ParameterDrive{}, false
		}
		pv, ok := a.parameterValueOf(decl.Value, name, p, s)
		if !ok {
			return avatar.ParameterDrive{}, false
		}
		add := decl.Op == ast.DriveAdd
		d := avatar.ParameterDrive{Parameter: name}
		switch {
		case kind == avatar.ParameterInt && add:
			d.Kind, d.Value = avatar.DriveAddInt, float64(pv.Int)
		case kind == avatar.ParameterInt:
			d.Kind, d.Value = avatar.DriveSetInt, float64(pv.Int)
		case kind == avatar.ParameterFloat && add:
			d.Kind, d.Value = avatar.DriveAddFloat, pv.Float
		case kind == avatar.ParameterFloat:
			d.Kind, d.Value = avatar.DriveSetFloat, pv.Float
		default:
			d.Kind, d.Bool = avatar.DriveSetBool, pv.Bool
		}
		return d, true

	case ast.DriveRandom:
		if kind == avatar.ParameterBool {
			chance, ok := a.float(decl.Value, s, "chance of "+name)
			if !ok {
				return avatar.ParameterDrive{}, false
			}
			if chance < 0 || chance > 1 {
				a.errorf(s, decl.Value.Pos(), "drive.invalid_range", name, strconv.FormatFloat(chance, 'g', -1, 64))
				return avatar.ParameterDrive{}, false
			}
			return avatar.ParameterDrive{Kind: avatar.DriveRandomBool, Parameter: name, Value: chance}, true
		}
		r, ok := a.numberRange(decl.Value, name, kind == avatar.ParameterInt, s)
		if !ok {
			return avatar.ParameterDrive{}, false
		}
		d := avatar.ParameterDrive{Kind: avatar.DriveRandomFloat, Parameter: name, Range: r}
		if kind == avatar.ParameterInt {
			d.Kind = avatar.DriveRandomInt
		}
		return d, true
	}

	// copy-parameter SOURCE DESTINATION [FROM-RANGE TO-RANGE]
	dest, ok := a.str(decl.Value, s, "parameter name")
	if !ok {
		return avatar.ParameterDrive{}, false
	}
	dp := a.lookupParameter(dest, decl.Value.Pos(), s)
	if dp == nil {
		return avatar.ParameterDrive{}, false
	}
	d := avatar.ParameterDrive{Kind: avatar.DriveCopy, Parameter: dest, Source: name}
	if len(decl.Ranges) == 2 {
		from, fromOK := a.numberRange(decl.Ranges[0], name, false, s)
		to, toOK := a.numberRange(decl.Ranges[1], dest, false, s)
		if !fromOK || !toOK {
			return avatar.ParameterDrive{}, false
		}
		d.Kind, d.Range, d.ToRange = avatar.DriveRangedCopy, from, to
	}
	return d, true
}

// numberRange evaluates x as a list of two ascending numbers.  Integer
// ranges must lie in 0..255.
func (a *analyzer) numberRange(x ast.Expr, name string, integer bool, s *Scope) ([2]float64, bool) {
	var r [2]float64
	v, ok := a.value(x, s)
	if !ok {
		return r, false
	}
	list, isList := v.(avatar.List)
	if !isList || len(list) != 2 {
		a.errorf(s, x.Pos(), "value.type_mismatch", "range of "+name, "a list of two numbers", v.TypeName())
		return r, false
	}
	for i, item := range list {
		switch item := item.(type) {
		case avatar.Integer:
			r[i] = float64(item)
		case avatar.Float:
			if integer {
				a.errorf(s, x.Pos(), "value.type_mismatch", "range of "+name, "int", item.TypeName())
				return r, false
			}
			r[i] = float64(item)
		default:
			a.errorf(s, x.Pos(), "value.type_mismatch", "range of "+name, "a list of two numbers", item.TypeName())
			return r, false
		}
	}
	if r[0] > r[1] || (integer && (r[0] < 0 || r[1] > 255)) {
		a.errorf(s, x.Pos(), "drive.invalid_range", name, v.String())
		return r, false
	}
	return r, true
}

// layerDrive sets the parameter of another layer: a group option value, a
// switch state or a puppet position.
func (a *analyzer) layerDrive(decl *ast.LayerDriveDecl, s *Scope) (avatar.ParameterDrive, bool) {
	name, ok := a.str(decl.Layer, s, "layer name")
	if !ok {
		return avatar.ParameterDrive{}, false
	}
	info, found := a.layerByName[name]
	if !found {
		a.errorf(s, decl.Layer.Pos(), "layer.not_found", name)
		return avatar.ParameterDrive{}, false
	}
	if info.kind != decl.Kind {
		a.errorf(s, decl.Layer.Pos(), "layer.kind_requirement", name, decl.Kind.String())
		return avatar.ParameterDrive{}, false
	}
	if info.parameter == "" {
		return avatar.ParameterDrive{}, false
	}

	switch decl.Kind {
	case ast.LayerGroup:
		option, ok := a.str(decl.Value, s, "option name")
		if !ok {
			return avatar.ParameterDrive{}, false
		}
		value, found := info.options[option]
		if !found {
			a.errorf(s, decl.Value.Pos(), "layer.option_not_found", name, option)
			return avatar.ParameterDrive{}, false
		}
		return avatar.ParameterDrive{Kind: avatar.DriveSetInt, Parameter: info.parameter, Value: float64(value)}, true
	case ast.LayerSwitch:
		on := true
		if decl.Value != nil {
			v, ok := a.value(decl.Value, s)
			if !ok {
				return avatar.ParameterDrive{}, false
			}
			b, isBool := v.(avatar.Boolean)
			if !isBool {
				a.errorf(s, decl.Value.Pos(), "value.type_mismatch", "state of "+name, "bool", v.TypeName())
				return avatar.ParameterDrive{}, false
			}
			on = bool(b)
		}
		return avatar.ParameterDrive{Kind: avatar.DriveSetBool, Parameter: info.parameter, Bool: on}, true
	default:
		position := 1.0
		if decl.Value != nil {
			if position, ok = a.float(decl.Value, s, "position of "+name); !ok {
				return avatar.ParameterDrive{}, false
			}
		}
		return avatar.ParameterDrive{Kind: avatar.DriveSetFloat, Parameter: info.parameter, Value: position}, true
	}
}

func (a *analyzer) rawLayer(decl *ast.RawLayerDecl, s *Scope) avatar.LayerContent {
	ok := true
	var states []*ast.StateDecl
	var names []string
	index := make(map[string]int)
	for _, node := range a.active(decl.Body) {
		state, isState := node.(*ast.StateDecl)
		if !isState {
			continue
		}
		name, nameOK := a.str(state.Name, s, "state name")
		if !nameOK {
			ok = false
			continue
		}
		if _, dup := index[name]; dup {
			a.errorf(s, state.Source, "layer.state_duplicate", name)
			ok = false
			continue
		}
		index[name] = len(states)
		states = append(states, state)
		names = append(names, name)
	}

	layer := &avatar.RawLayer{States: []*avatar.RawState{}}
	if decl.Default != nil {
		name, nameOK := a.str(decl.Default, s, "state name")
		i, found := index[name]
		switch {
		case !nameOK:
			ok = false
		case !found:
			a.errorf(s, decl.Default.Pos(), "layer.state_not_found", name)
			ok = false
		default:
			layer.Default = i
		}
	}

	for i, state := range states {
		rs, stateOK := a.rawState(state, names[i], index, s.Child(ScopeState, "state "+quote(names[i])))
		if !stateOK {
			ok = false
			continue
		}
		layer.States = append(layer.States, rs)
	}
	if !ok {
		return nil
	}
	return layer
}

func (a *analyzer) rawState(decl *ast.StateDecl, name string, index map[string]int, s *Scope) (*avatar.RawState, bool) {
	state := &avatar.RawState{Name: name, Transitions: []*avatar.Transition{}}
	ok := true
	clips := 0
	for _, node := range a.active(decl.Body) {
		switch node := node.(type) {
		case *ast.ClipDecl:
			clips++
			if clips > 1 {
				continue
			}
			key, keyOK := a.str(node.Asset, s, "animation key")
			if !keyOK || a.lookupAsset(key, avatar.AssetAnimation, node.Asset.Pos(), s) == nil {
				ok = false
				continue
			}
			state.Clip, state.Speed = key, 1
			if node.Speed != nil {
				speed, speedOK := a.float(node.Speed, s, "clip speed")
				ok = ok && speedOK
				state.Speed = speed
			}
		case *ast.TransitionDecl:
			t, tOK := a.transition(node, index, s)
			if !tOK {
				ok = false
				continue
			}
			state.Transitions = append(state.Transitions, t)
		}
	}
	if clips != 1 {
		a.errorf(s, decl.Source, "layer.state_clip", name, strconv.Itoa(clips))
		ok = false
	}
	return state, ok
}

func (a *analyzer) transition(decl *ast.TransitionDecl, index map[string]int, s *Scope) (*avatar.Transition, bool) {
	target, ok := a.str(decl.Target, s, "state name")
	if !ok {
		return nil, false
	}
	i, found := index[target]
	if !found {
		a.errorf(s, decl.Target.Pos(), "layer.state_not_found", target)
		return nil, false
	}
	t := &avatar.Transition{Target: i, Conditions: []avatar.Condition{}}
	if decl.Duration != nil {
		if t.Duration, ok = a.float(decl.Duration, s, "transition duration"); !ok {
			return nil, false
		}
	}
	for _, node := range a.active(decl.Body) {
		cond, isCond := node.(*ast.TransitionCondition)
		if !isCond {
			continue
		}
		c, condOK := a.condition(cond, s)
		if !condOK {
			ok = false
			continue
		}
		t.Conditions = append(t.Conditions, c)
	}
	return t, ok
}

// condition maps a comparison to the test supported by the parameter type.
// Bool parameters compare by being or not being set, zero tests compare int
// parameters with 0, and only ordering tests accept float parameters.
func (a *analyzer) condition(decl *ast.TransitionCondition, s *Scope) (avatar.Condition, bool) {
	name, ok := a.str(decl.Parameter, s, "parameter name")
	if !ok {
		return avatar.Condition{}, false
	}
	p := a.lookupParameter(name, decl.Parameter.Pos(), s)
	if p == nil {
		return avatar.Condition{}, false
	}
	c := avatar.Condition{Parameter: name}
	kind := p.ValueType.Kind

	switch decl.Op {
	case ast.CompareZero, ast.CompareNonZero:
		zero := decl.Op == ast.CompareZero
		switch kind {
		case avatar.ParameterBool:
			c.Kind = avatar.CondBe
			if zero {
				c.Kind = avatar.CondNot
			}
		case avatar.ParameterInt:
			c.Kind = avatar.CondNeqInt
			if zero {
				c.Kind = avatar.CondEqInt
			}
		default:
			a.errorf(s, decl.Parameter.Pos(), "parameter.type_requirement", name, "bool or int")
			return c, false
		}
		return c, true

	case ast.CompareEq, ast.CompareNe:
		if kind == avatar.ParameterFloat {
			a.errorf(s, decl.Parameter.Pos(), "parameter.type_requirement", name, "bool or int")
			return c, false
		}
		pv, ok := a.parameterValueOf(decl.Value, name, p, s)
		if !ok {
			return c, false
		}
		eq := decl.Op == ast.CompareEq
		if kind == avatar.ParameterBool {
			c.Kind = avatar.CondNot
			if pv.Bool == eq {
				c.Kind = avatar.CondBe
			}
			return c, true
		}
		c.Kind, c.Value = avatar.CondNeqInt, float64(pv.Int)
		if eq {
			c.Kind = avatar.CondEqInt
		}
		return c, true
	}

	// CompareGt, CompareLt
	if kind == avatar.ParameterBool {
		a.errorf(s, decl.Parameter.Pos(), "parameter.type_requirement", name, "int or float")
		return c, false
	}
	pv, ok := a.parameterValueOf(decl.Value, name, p, s)
	if !ok {
		return c, false
	}
	gt := decl.Op == ast.CompareGt
	switch {
	case kind == avatar.ParameterInt && gt:
		c.Kind, c.Value = avatar.CondGtInt, float64(pv.Int)
	case kind == avatar.ParameterInt:
		c.Kind, c.Value = avatar.CondLtInt, float64(pv.Int)
	case gt:
		c.Kind, c.Value = avatar.CondGtFloat, pv.Float
	default:
		c.Kind, c.Value = avatar.CondLtFloat, pv.Float
	}
	return c, true
}
