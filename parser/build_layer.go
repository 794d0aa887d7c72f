// Copyright © 2024 The Declavatar authors

package parser

import (
	"strconv"

	"github.com/declavatar/declavatar/ast"
)

const (
	ctxFxController = "fx-controller"
	ctxGroupLayer   = "group-layer"
	ctxSwitchLayer  = "switch-layer"
	ctxPuppetLayer  = "puppet-layer"
	ctxRawLayer     = "raw-layer"
	ctxOption       = "option"
	ctxState        = "state"
	ctxTransition   = "transition-to"
)

var layerKeywords = []string{"driven-by", "default-mesh"}

// layerHead checks the NAME :driven-by PARAM [:default-mesh MESH] head
// shared by group, switch and puppet layers and lowers the body in ctx.
func (b *builder) layerHead(call *ast.CallExpr, ctx string) (name, drivenBy, mesh ast.Expr, body []ast.Node, ok bool) {
	args, forms, ok := b.check(call, shape{
		min:      1,
		max:      1,
		body:     true,
		keywords: layerKeywords,
		required: layerKeywords[:1],
	})
	if !ok {
		return nil, nil, nil, nil, false
	}
	kw, _ := call.Keyword("driven-by")
	drivenBy = kw.Value
	if kw, found := call.Keyword("default-mesh"); found {
		mesh = kw.Value
	}
	return args[0], drivenBy, mesh, b.lowerBody(ctx, forms), true
}

func lowerGroupLayer(b *builder, call *ast.CallExpr) ast.Node {
	name, drivenBy, mesh, body, ok := b.layerHead(call, ctxGroupLayer)
	if !ok {
		return nil
	}
	return &ast.GroupLayerDecl{Name: name, DrivenBy: drivenBy, DefaultMesh: mesh, Body: body, Source: call.Source}
}

func lowerSwitchLayer(b *builder, call *ast.CallExpr) ast.Node {
	name, drivenBy, mesh, body, ok := b.layerHead(call, ctxSwitchLayer)
	if !ok {
		return nil
	}
	return &ast.SwitchLayerDecl{Name: name, DrivenBy: drivenBy, DefaultMesh: mesh, Body: body, Source: call.Source}
}

func lowerPuppetLayer(b *builder, call *ast.CallExpr) ast.Node {
	name, drivenBy, mesh, body, ok := b.layerHead(call, ctxPuppetLayer)
	if !ok {
		return nil
	}
	return &ast.PuppetLayerDecl{Name: name, DrivenBy: drivenBy, DefaultMesh: mesh, Body: body, Source: call.Source}
}

func lowerRawLayer(b *builder, call *ast.CallExpr) ast.Node {
	args, forms, ok := b.check(call, shape{min: 1, max: 1, body: true, keywords: []string{"default"}})
	if !ok {
		return nil
	}
	decl := &ast.RawLayerDecl{Name: args[0], Source: call.Source}
	if kw, found := call.Keyword("default"); found {
		decl.Default = kw.Value
	}
	decl.Body = b.lowerBody(ctxRawLayer, forms)
	return decl
}

// optionHead checks the leading value of an option and returns it with
// the lowered targets.
func (b *builder) optionHead(call *ast.CallExpr, keywords []string) (ast.Expr, []ast.Node, bool) {
	args, forms, ok := b.check(call, shape{min: 1, max: 1, body: true, keywords: keywords})
	if !ok {
		return nil, nil, false
	}
	return args[0], b.lowerBody(ctxOption, forms), true
}

// optionName returns the name of an option given as a bare symbol, like
// default or enabled, or "".
func optionName(x ast.Expr) string {
	if id, ok := x.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

func lowerGroupOption(b *builder, call *ast.CallExpr) ast.Node {
	head, body, ok := b.optionHead(call, []string{"value"})
	if !ok {
		return nil
	}
	decl := &ast.OptionDecl{Kind: ast.OptionSelection, Label: head, Body: body, Source: call.Source}
	if kw, found := call.Keyword("value"); found {
		decl.Value = kw.Value
	}
	if optionName(head) == "default" {
		if decl.Value != nil {
			b.errorf(call.Source, "syntax.unknown_keyword", "option default", "value")
			return nil
		}
		decl.Kind = ast.OptionDefault
		decl.Label = nil
	}
	return decl
}

func lowerSwitchOption(b *builder, call *ast.CallExpr) ast.Node {
	head, body, ok := b.optionHead(call, nil)
	if !ok {
		return nil
	}
	decl := &ast.OptionDecl{Body: body, Source: call.Source}
	switch optionName(head) {
	case "disabled":
		decl.Kind = ast.OptionDisabled
	case "enabled":
		decl.Kind = ast.OptionEnabled
	default:
		b.errorf(head.Pos(), "syntax.argument_type", "option", "1", "disabled or enabled")
		return nil
	}
	return decl
}

func lowerKeyframe(b *builder, call *ast.CallExpr) ast.Node {
	head, body, ok := b.optionHead(call, nil)
	if !ok {
		return nil
	}
	if _, isIdent := head.(*ast.Ident); isIdent {
		b.errorf(head.Pos(), "syntax.argument_type", "option", "1", "a keyframe position")
		return nil
	}
	return &ast.OptionDecl{Kind: ast.OptionKeyframe, Label: head, Body: body, Source: call.Source}
}

func lowerShapeTarget(b *builder, call *ast.CallExpr) ast.Node {
	args, _, ok := b.check(call, shape{min: 1, max: 1, keywords: []string{"value", "mesh"}})
	if !ok {
		return nil
	}
	decl := &ast.ShapeTargetDecl{Shape: args[0], Source: call.Source}
	if kw, found := call.Keyword("value"); found {
		decl.Value = kw.Value
	}
	if kw, found := call.Keyword("mesh"); found {
		decl.Mesh = kw.Value
	}
	return decl
}

func lowerObjectTarget(b *builder, call *ast.CallExpr) ast.Node {
	args, _, ok := b.check(call, shape{min: 1, max: 1, keywords: []string{"value"}})
	if !ok {
		return nil
	}
	decl := &ast.ObjectTargetDecl{Object: args[0], Source: call.Source}
	if kw, found := call.Keyword("value"); found {
		decl.Value = kw.Value
	}
	return decl
}

func lowerMaterialTarget(b *builder, call *ast.CallExpr) ast.Node {
	args, _, ok := b.check(call, shape{min: 2, max: 2, keywords: []string{"mesh"}})
	if !ok {
		return nil
	}
	decl := &ast.MaterialTargetDecl{Index: args[0], Asset: args[1], Source: call.Source}
	if kw, found := call.Keyword("mesh"); found {
		decl.Mesh = kw.Value
	}
	return decl
}

func lowerParameterDrive(op ast.DriveOp) lowerFunc {
	return func(b *builder, call *ast.CallExpr) ast.Node {
		s := shape{min: 2, max: 2}
		if op == ast.DriveCopy {
			s.max = 4
		}
		args, _, ok := b.check(call, s)
		if !ok {
			return nil
		}
		if len(args) == 3 {
			b.errorf(call.Source, "syntax.arity", call.Head.Name, "2 or 4", strconv.Itoa(len(args)))
			return nil
		}
		return &ast.ParameterDriveDecl{
			Op:        op,
			Parameter: args[0],
			Value:     args[1],
			Ranges:    args[2:],
			Source:    call.Source,
		}
	}
}

func lowerLayerDrive(kind ast.LayerKind) lowerFunc {
	return func(b *builder, call *ast.CallExpr) ast.Node {
		s := shape{min: 1, max: 2}
		if kind == ast.LayerGroup {
			s.min = 2
		}
		args, _, ok := b.check(call, s)
		if !ok {
			return nil
		}
		decl := &ast.LayerDriveDecl{Kind: kind, Layer: args[0], Source: call.Source}
		if len(args) > 1 {
			decl.Value = args[1]
		}
		return decl
	}
}

func lowerState(b *builder, call *ast.CallExpr) ast.Node {
	args, forms, ok := b.check(call, shape{min: 1, max: 1, body: true})
	if !ok {
		return nil
	}
	return &ast.StateDecl{Name: args[0], Body: b.lowerBody(ctxState, forms), Source: call.Source}
}

func lowerClip(b *builder, call *ast.CallExpr) ast.Node {
	args, _, ok := b.check(call, shape{min: 1, max: 1, keywords: []string{"speed"}})
	if !ok {
		return nil
	}
	decl := &ast.ClipDecl{Asset: args[0], Source: call.Source}
	if kw, found := call.Keyword("speed"); found {
		decl.Speed = kw.Value
	}
	return decl
}

func lowerTransition(b *builder, call *ast.CallExpr) ast.Node {
	args, forms, ok := b.check(call, shape{min: 1, max: 1, body: true, keywords: []string{"duration"}})
	if !ok {
		return nil
	}
	decl := &ast.TransitionDecl{Target: args[0], Source: call.Source}
	if kw, found := call.Keyword("duration"); found {
		decl.Duration = kw.Value
	}
	decl.Body = b.lowerBody(ctxTransition, forms)
	return decl
}

func lowerCondition(op ast.CompareOp) lowerFunc {
	return func(b *builder, call *ast.CallExpr) ast.Node {
		n := 2
		if op == ast.CompareZero || op == ast.CompareNonZero {
			n = 1
		}
		args, _, ok := b.check(call, shape{min: n, max: n})
		if !ok {
			return nil
		}
		cond := &ast.TransitionCondition{Op: op, Parameter: args[0], Source: call.Source}
		if n == 2 {
			cond.Value = args[1]
		}
		return cond
	}
}
