// Copyright © 2024 The Declavatar authors

package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"

	"github.com/declavatar/declavatar/ast"
	"github.com/declavatar/declavatar/astutil"
	"github.com/declavatar/declavatar/parser/token"
)

// Block contexts.  The names appear in diagnostics.
const (
	ctxDocument    = "document"
	ctxAvatar      = "avatar"
	ctxParameters  = "parameters"
	ctxAssets      = "assets"
	ctxExports     = "exports"
	ctxMenu        = "menu"
	ctxAttachments = "attachments"
	ctxAttachment  = "attachment"
)

type lowerFunc func(b *builder, call *ast.CallExpr) ast.Node

// lowerers maps a block context to the declaration forms allowed in it.
var lowerers map[string]map[string]lowerFunc

func init() {
	lowerers = map[string]map[string]lowerFunc{
		ctxDocument: {
			"version": lowerVersion,
			"avatar":  lowerAvatar,
		},
		ctxAvatar: {
			"parameters":    lowerBlock(ctxParameters),
			"assets":        lowerBlock(ctxAssets),
			"exports":       lowerBlock(ctxExports),
			"menu":          lowerBlock(ctxMenu),
			"attachments":   lowerAttachments,
			"fx-controller": lowerBlock(ctxFxController),
		},
		ctxParameters: {
			"int":   lowerParameter(ast.ParamInt),
			"float": lowerParameter(ast.ParamFloat),
			"bool":  lowerParameter(ast.ParamBool),
		},
		ctxAssets: {
			"material":  lowerAsset(ast.AssetMaterial),
			"animation": lowerAsset(ast.AssetAnimation),
		},
		ctxExports: {
			"gate":  lowerGate,
			"guard": lowerGuard,
		},
		ctxMenu: {
			"submenu":   lowerSubMenu,
			"button":    lowerBooleanControl(true),
			"toggle":    lowerBooleanControl(false),
			"radial":    lowerRadial,
			"two-axis":  lowerTwoAxis,
			"four-axis": lowerFourAxis,
		},
		ctxAttachments: {
			"attachment": lowerAttachment,
		},
		ctxAttachment: {
			"property": lowerProperty,
		},
		ctxFxController: {
			"group-layer":  lowerGroupLayer,
			"switch-layer": lowerSwitchLayer,
			"puppet-layer": lowerPuppetLayer,
			"raw-layer":    lowerRawLayer,
		},
		ctxGroupLayer:  {"option": lowerGroupOption},
		ctxSwitchLayer: {"option": lowerSwitchOption},
		ctxPuppetLayer: {"option": lowerKeyframe},
		ctxOption: {
			"set-shape":        lowerShapeTarget,
			"set-object":       lowerObjectTarget,
			"set-material":     lowerMaterialTarget,
			"set-parameter":    lowerParameterDrive(ast.DriveSet),
			"add-parameter":    lowerParameterDrive(ast.DriveAdd),
			"random-parameter": lowerParameterDrive(ast.DriveRandom),
			"copy-parameter":   lowerParameterDrive(ast.DriveCopy),
			"drive-group":      lowerLayerDrive(ast.LayerGroup),
			"drive-switch":     lowerLayerDrive(ast.LayerSwitch),
			"drive-puppet":     lowerLayerDrive(ast.LayerPuppet),
		},
		ctxRawLayer: {"state": lowerState},
		ctxState: {
			"clip":          lowerClip,
			"transition-to": lowerTransition,
		},
		ctxTransition: {
			"cond-eq": lowerCondition(ast.CompareEq),
			"cond-ne": lowerCondition(ast.CompareNe),
			"cond-gt": lowerCondition(ast.CompareGt),
			"cond-lt": lowerCondition(ast.CompareLt),
			"cond-ze": lowerCondition(ast.CompareZero),
			"cond-nz": lowerCondition(ast.CompareNonZero),
		},
	}
}

// valueFuncs lists the forms allowed in value position with their minimum
// and maximum number of arguments.
var valueFuncs = map[string][2]int{
	"localize":       {1, 1},
	"game-object":    {1, 1},
	"material":       {1, 1},
	"animation-clip": {1, 1},
	"vector2":        {2, 2},
	"vector3":        {3, 3},
	"vector4":        {4, 4},
	"axis":           {1, 3},
}

var paramScopes = []string{ast.ScopeInternal, ast.ScopeLocal, ast.ScopeSynced}

type builder struct {
	parser *Parser
	errs   []*token.Error
	stack  []string // files being included, outermost first
}

func (b *builder) errorf(loc *token.Location, code string, args ...string) {
	b.errs = append(b.errs, token.Errorf(loc, code, args...))
}

func (b *builder) lowerBody(ctx string, forms []ast.Expr) []ast.Node {
	var nodes []ast.Node
	for _, x := range forms {
		nodes = append(nodes, b.lowerForm(ctx, x)...)
	}
	return nodes
}

// lowerForm lowers a single form found in a block of kind ctx.  Broken forms
// produce no declarations.
func (b *builder) lowerForm(ctx string, x ast.Expr) []ast.Node {
	call, ok := x.(*ast.CallExpr)
	if !ok {
		if _, bad := x.(*ast.BadExpr); !bad {
			b.errorf(x.Pos(), "syntax.unexpected_token", x.String())
		}
		return nil
	}
	switch call.Head.Name {
	case "include":
		return b.include(ctx, call)
	case "when", "unless":
		return b.conditional(ctx, call)
	}
	fn, ok := lowerers[ctx][call.Head.Name]
	if !ok {
		b.errorf(call.Head.Source, "syntax.unknown_form", call.Head.Name, ctx)
		return nil
	}
	if n := fn(b, call); n != nil {
		return []ast.Node{n}
	}
	return nil
}

// shape describes the arguments accepted by a declaration form.
type shape struct {
	min, max    int  // leading positional values; max < 0 means no limit
	body        bool // forms follow the leading values
	keywords    []string
	required    []string
	anyKeywords bool
}

func (s shape) arity() string {
	switch {
	case s.body || s.max < 0:
		return strconv.Itoa(s.min) + "+"
	case s.min == s.max:
		return strconv.Itoa(s.min)
	default:
		return fmt.Sprintf("%d-%d", s.min, s.max)
	}
}

// check validates call against s.  It returns the leading values and the
// body forms.  When ok is false the problems have been reported, or were
// reported by the frontend, and the form must be dropped.
func (b *builder) check(call *ast.CallExpr, s shape) (args, body []ast.Expr, ok bool) {
	n := len(call.Args)
	lead := n
	if s.body {
		lead = min(n, s.max)
	}
	for _, x := range call.Args[:lead] {
		if astutil.ContainsBad(x) {
			return nil, nil, false
		}
	}
	for _, kw := range call.Keywords {
		if astutil.ContainsBad(kw.Value) {
			return nil, nil, false
		}
	}
	name := call.Head.Name
	ok = true
	if n < s.min || (!s.body && s.max >= 0 && n > s.max) {
		b.errorf(call.Source, "syntax.arity", name, s.arity(), strconv.Itoa(n))
		ok = false
	}
	seen := make(map[string]bool)
	for _, kw := range call.Keywords {
		switch {
		case seen[kw.Name]:
			b.errorf(kw.Source, "syntax.duplicate_keyword", name, kw.Name)
			ok = false
		case !s.anyKeywords && !slices.Contains(s.keywords, kw.Name):
			b.errorf(kw.Source, "syntax.unknown_keyword", name, kw.Name)
			ok = false
		}
		seen[kw.Name] = true
	}
	for _, req := range s.required {
		if !seen[req] {
			b.errorf(call.Source, "syntax.missing_keyword", name, req)
			ok = false
		}
	}
	for _, x := range call.Args[:lead] {
		ok = b.checkValue(x) && ok
	}
	for _, kw := range call.Keywords {
		ok = b.checkValue(kw.Value) && ok
	}
	return call.Args[:lead], call.Args[lead:], ok
}

// checkValue reports forms in value position that are not value functions.
func (b *builder) checkValue(x ast.Expr) bool {
	switch x := x.(type) {
	case *ast.ListExpr:
		ok := true
		for _, item := range x.Items {
			ok = b.checkValue(item) && ok
		}
		return ok
	case *ast.CallExpr:
		name := x.Head.Name
		arity, known := valueFuncs[name]
		if !known {
			b.errorf(x.Head.Source, "syntax.unknown_form", name, "value")
			return false
		}
		if n := len(x.Args); n < arity[0] || n > arity[1] {
			s := shape{min: arity[0], max: arity[1]}
			b.errorf(x.Source, "syntax.arity", name, s.arity(), strconv.Itoa(n))
			return false
		}
		ok := true
		for _, kw := range x.Keywords {
			b.errorf(kw.Source, "syntax.unknown_keyword", name, kw.Name)
			ok = false
		}
		for _, arg := range x.Args {
			ok = b.checkValue(arg) && ok
		}
		return ok
	}
	return true
}

func (b *builder) include(ctx string, call *ast.CallExpr) []ast.Node {
	args, _, ok := b.check(call, shape{min: 1, max: 1, keywords: []string{"optional"}})
	if !ok {
		return nil
	}
	path, isString := args[0].(*ast.StringLit)
	if !isString {
		b.errorf(args[0].Pos(), "syntax.argument_type", "include", "1", "string")
		return nil
	}
	optional := false
	if kw, found := call.Keyword("optional"); found {
		v, isBool := kw.Value.(*ast.BoolLit)
		if !isBool {
			b.errorf(kw.Source, "syntax.argument_type", "include", ":optional", "boolean")
			return nil
		}
		optional = v.Value
	}
	full, src, err := b.parser.resolve(path.Value)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !optional {
			b.errorf(call.Source, "include.not_found", path.Value)
		}
		return nil
	case err != nil:
		b.errorf(call.Source, "include.read", path.Value, err.Error())
		return nil
	}
	if slices.Contains(b.stack, full) {
		b.errorf(call.Source, "include.cycle", path.Value)
		return nil
	}
	forms, errs, err := ParseForms(full, src, b.parser.format)
	if err != nil {
		b.errorf(call.Source, "include.read", path.Value, err.Error())
		return nil
	}
	b.errs = append(b.errs, errs...)
	b.stack = append(b.stack, full)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()
	return b.lowerBody(ctx, forms)
}

func (b *builder) conditional(ctx string, call *ast.CallExpr) []ast.Node {
	name := call.Head.Name
	if len(call.Args) == 0 {
		b.errorf(call.Source, "syntax.arity", name, "1+", "0")
		return nil
	}
	for _, kw := range call.Keywords {
		b.errorf(kw.Source, "syntax.unknown_keyword", name, kw.Name)
	}
	if len(call.Keywords) > 0 {
		return nil
	}
	cond, ok := b.condition(name, call.Args[0])
	if !ok {
		return nil
	}
	return []ast.Node{&ast.ConditionalDecl{
		Negate:    name == "unless",
		Condition: cond,
		Body:      b.lowerBody(ctx, call.Args[1:]),
		Source:    call.Source,
	}}
}

func (b *builder) condition(form string, x ast.Expr) (ast.Condition, bool) {
	if astutil.ContainsBad(x) {
		return nil, false
	}
	call, ok := x.(*ast.CallExpr)
	if !ok {
		b.errorf(x.Pos(), "syntax.argument_type", form, "1", "(defined ...) or (localized ...)")
		return nil, false
	}
	head := call.Head.Name
	if head != "defined" && head != "localized" {
		b.errorf(call.Head.Source, "syntax.unknown_form", head, "condition")
		return nil, false
	}
	if len(call.Args) != 1 || len(call.Keywords) > 0 {
		b.errorf(call.Source, "syntax.arity", head, "1", strconv.Itoa(len(call.Args)+len(call.Keywords)))
		return nil, false
	}
	name, ok := literalName(call.Args[0])
	if !ok {
		b.errorf(call.Args[0].Pos(), "syntax.argument_type", head, "1", "name")
		return nil, false
	}
	if head == "localized" {
		return &ast.Localized{Key: name}, true
	}
	return &ast.Defined{Name: name}, true
}

// literalName returns the text of an identifier or string literal.
func literalName(x ast.Expr) (string, bool) {
	switch x := x.(type) {
	case *ast.Ident:
		return x.Name, true
	case *ast.StringLit:
		return x.Value, true
	}
	return "", false
}

func lowerVersion(b *builder, call *ast.CallExpr) ast.Node {
	args, _, ok := b.check(call, shape{min: 1, max: 1})
	if !ok {
		return nil
	}
	return &ast.VersionDecl{Version: args[0], Source: call.Source}
}

func lowerAvatar(b *builder, call *ast.CallExpr) ast.Node {
	args, body, ok := b.check(call, shape{min: 1, max: 1, body: true})
	if !ok {
		return nil
	}
	return &ast.AvatarDecl{
		Name:   args[0],
		Body:   b.lowerBody(ctxAvatar, body),
		Source: call.Source,
	}
}

// lowerBlock returns a lowerFunc for a keyword-less block of kind ctx.
func lowerBlock(ctx string) lowerFunc {
	return func(b *builder, call *ast.CallExpr) ast.Node {
		_, body, ok := b.check(call, shape{body: true})
		if !ok {
			return nil
		}
		nodes := b.lowerBody(ctx, body)
		switch ctx {
		case ctxParameters:
			return &ast.ParametersBlock{Body: nodes, Source: call.Source}
		case ctxAssets:
			return &ast.AssetsBlock{Body: nodes, Source: call.Source}
		case ctxExports:
			return &ast.ExportsBlock{Body: nodes, Source: call.Source}
		case ctxFxController:
			return &ast.FxControllerBlock{Body: nodes, Source: call.Source}
		default:
			return &ast.MenuBlock{Body: nodes, Source: call.Source}
		}
	}
}

func lowerAttachments(b *builder, call *ast.CallExpr) ast.Node {
	_, body, ok := b.check(call, shape{body: true, keywords: []string{"target"}})
	if !ok {
		return nil
	}
	block := &ast.AttachmentsBlock{Source: call.Source}
	if kw, found := call.Keyword("target"); found {
		block.Target = kw.Value
	}
	block.Body = b.lowerBody(ctxAttachments, body)
	return block
}

func lowerParameter(typ ast.ParamType) lowerFunc {
	return func(b *builder, call *ast.CallExpr) ast.Node {
		args, _, ok := b.check(call, shape{
			min:      1,
			max:      1,
			keywords: []string{"default", "scope", "save", "unique"},
		})
		if !ok {
			return nil
		}
		decl := &ast.ParameterDecl{Type: typ, Name: args[0], Source: call.Source}
		for _, kw := range call.Keywords {
			switch kw.Name {
			case "default":
				decl.Default = kw.Value
			case "scope":
				scope, isName := literalName(kw.Value)
				if !isName || !slices.Contains(paramScopes, scope) {
					b.errorf(kw.Value.Pos(), "syntax.invalid_value", ":scope", kw.Value.String())
					ok = false
				}
				decl.Scope = scope
			case "save", "unique":
				v, isBool := kw.Value.(*ast.BoolLit)
				if !isBool {
					b.errorf(kw.Value.Pos(), "syntax.argument_type", call.Head.Name, ":"+kw.Name, "boolean")
					ok = false
					continue
				}
				if kw.Name == "save" {
					decl.Save = v.Value
				} else {
					decl.Unique = v.Value
				}
			}
		}
		if !ok {
			return nil
		}
		return decl
	}
}

func lowerAsset(kind ast.AssetKind) lowerFunc {
	return func(b *builder, call *ast.CallExpr) ast.Node {
		args, _, ok := b.check(call, shape{min: 1, max: 1})
		if !ok {
			return nil
		}
		return &ast.AssetDecl{Kind: kind, Key: args[0], Source: call.Source}
	}
}

func lowerGate(b *builder, call *ast.CallExpr) ast.Node {
	args, _, ok := b.check(call, shape{min: 1, max: 1})
	if !ok {
		return nil
	}
	return &ast.GateDecl{Name: args[0], Source: call.Source}
}

func lowerGuard(b *builder, call *ast.CallExpr) ast.Node {
	args, _, ok := b.check(call, shape{min: 2, max: 2})
	if !ok {
		return nil
	}
	return &ast.GuardDecl{Gate: args[0], Parameter: args[1], Source: call.Source}
}

func lowerSubMenu(b *builder, call *ast.CallExpr) ast.Node {
	args, body, ok := b.check(call, shape{min: 1, max: 1, body: true})
	if !ok {
		return nil
	}
	return &ast.SubMenuDecl{
		Name:   args[0],
		Body:   b.lowerBody(ctxMenu, body),
		Source: call.Source,
	}
}

func lowerBooleanControl(hold bool) lowerFunc {
	return func(b *builder, call *ast.CallExpr) ast.Node {
		args, _, ok := b.check(call, shape{min: 2, max: 2, keywords: []string{"value"}})
		if !ok {
			return nil
		}
		decl := &ast.BooleanControlDecl{
			Hold:      hold,
			Name:      args[0],
			Parameter: args[1],
			Source:    call.Source,
		}
		if kw, found := call.Keyword("value"); found {
			decl.Value = kw.Value
		}
		return decl
	}
}

func lowerRadial(b *builder, call *ast.CallExpr) ast.Node {
	args, _, ok := b.check(call, shape{min: 2, max: 2})
	if !ok {
		return nil
	}
	return &ast.RadialDecl{Name: args[0], Parameter: args[1], Source: call.Source}
}

func lowerTwoAxis(b *builder, call *ast.CallExpr) ast.Node {
	dirs := []string{"horizontal", "vertical"}
	args, _, ok := b.check(call, shape{min: 1, max: 1, keywords: dirs, required: dirs})
	if !ok {
		return nil
	}
	decl := &ast.TwoAxisDecl{Name: args[0], Source: call.Source}
	decl.Horizontal = b.axis(call, "horizontal", 3)
	decl.Vertical = b.axis(call, "vertical", 3)
	if decl.Horizontal == nil || decl.Vertical == nil {
		return nil
	}
	return decl
}

func lowerFourAxis(b *builder, call *ast.CallExpr) ast.Node {
	dirs := []string{"left", "right", "up", "down"}
	args, _, ok := b.check(call, shape{min: 1, max: 1, keywords: dirs, required: dirs})
	if !ok {
		return nil
	}
	decl := &ast.FourAxisDecl{Name: args[0], Source: call.Source}
	decl.Left = b.axis(call, "left", 2)
	decl.Right = b.axis(call, "right", 2)
	decl.Up = b.axis(call, "up", 2)
	decl.Down = b.axis(call, "down", 2)
	if decl.Left == nil || decl.Right == nil || decl.Up == nil || decl.Down == nil {
		return nil
	}
	return decl
}

// axis lowers the (axis PARAM [POSITIVE [NEGATIVE]]) value of keyword dir.
// maxArgs limits the labels an axis of this control may carry.
func (b *builder) axis(call *ast.CallExpr, dir string, maxArgs int) *ast.AxisDecl {
	kw, _ := call.Keyword(dir)
	v, ok := kw.Value.(*ast.CallExpr)
	if !ok || v.Head.Name != "axis" {
		b.errorf(kw.Value.Pos(), "syntax.argument_type", call.Head.Name, ":"+dir, "(axis ...)")
		return nil
	}
	if len(v.Args) > maxArgs {
		s := shape{min: 1, max: maxArgs}
		b.errorf(v.Source, "syntax.arity", "axis", s.arity(), strconv.Itoa(len(v.Args)))
		return nil
	}
	decl := &ast.AxisDecl{Parameter: v.Args[0], Source: v.Source}
	if len(v.Args) > 1 {
		decl.Positive = v.Args[1]
	}
	if len(v.Args) > 2 {
		decl.Negative = v.Args[2]
	}
	return decl
}

func lowerAttachment(b *builder, call *ast.CallExpr) ast.Node {
	args, body, ok := b.check(call, shape{min: 1, max: 1, body: true})
	if !ok {
		return nil
	}
	return &ast.AttachmentDecl{
		Name:   args[0],
		Body:   b.lowerBody(ctxAttachment, body),
		Source: call.Source,
	}
}

func lowerProperty(b *builder, call *ast.CallExpr) ast.Node {
	args, _, ok := b.check(call, shape{min: 1, max: -1, anyKeywords: true})
	if !ok {
		return nil
	}
	return &ast.PropertyDecl{
		Name:     args[0],
		Args:     args[1:],
		Keywords: call.Keywords,
		Source:   call.Source,
	}
}

// FormNames returns the sorted names of every form the builder accepts,
// in S-expression spelling.
func FormNames() []string {
	seen := map[string]bool{
		"include": true, "when": true, "unless": true,
		"defined": true, "localized": true,
	}
	for _, forms := range lowerers {
		for name := range forms {
			seen[name] = true
		}
	}
	for name := range valueFuncs {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
