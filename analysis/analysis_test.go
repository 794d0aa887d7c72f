// Copyright © 2024 The Declavatar authors

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declavatar/declavatar/ast"
	"github.com/declavatar/declavatar/avatar"
	"github.com/declavatar/declavatar/diagnostic"
	"github.com/declavatar/declavatar/parser"
	"github.com/declavatar/declavatar/registry"
	"github.com/declavatar/declavatar/schema"
)

const physBoneSchema = `
(attachment-schema "PhysBoneExt"
  (property "target" :required true
    (parameter "object" game-object))
  (property "weight"
    (parameter "value" float)
    (keyword "curve" (list float))
    (keyword "blend-mode" string))
  (property "legacy" :deprecated true
    (parameter "value" any)))
`

// analyze parses an S-expression document and analyzes it against cfg.
func analyze(t *testing.T, cfg *Config, src string) (*Result, *diagnostic.Collector) {
	t.Helper()
	doc, errs, err := parser.Parse("test.declisp", []byte(src), parser.FormatSexpr)
	require.NoError(t, err)
	require.Empty(t, errs)
	diags := &diagnostic.Collector{}
	return Analyze(doc, cfg, diags), diags
}

// testConfig returns a configuration with the PhysBoneExt schema
// registered.
func testConfig(t *testing.T) *Config {
	t.Helper()
	sch, err := schema.Parse("phys.declisp", []byte(physBoneSchema))
	require.NoError(t, err)
	cfg := &Config{
		Symbols:       registry.NewSymbols(),
		Localizations: registry.NewLocalizations(),
		Schemas:       registry.NewSchemas(),
	}
	cfg.Schemas.Register(sch)
	return cfg
}

func diagCodes(diags *diagnostic.Collector) []string {
	var out []string
	for _, d := range diags.All() {
		out = append(out, d.Code)
	}
	return out
}

func TestAnalyzeAvatar(t *testing.T) {
	cfg := testConfig(t)
	cfg.Localizations.Define("menu.hat", "Hat")
	src := `
version "1.2.0"
(avatar "Shiori"
  (parameters
    (bool "hat_on" :default true :save true)
    (int "outfit" :scope local)
    (float "ear_angle" :default 0.25 :scope local))
  (assets (material "Body/Skin") (animation "Wave"))
  (exports (gate "hat_gate") (guard "hat_gate" "hat_on"))
  (menu
    (toggle (localize "menu.hat") "hat_on")
    (button "Dress" "outfit" :value 3)
    (submenu "Ears"
      (radial "Angle" "ear_angle")
      (two-axis "Pose" :horizontal (axis "ear_angle" "Left" "Right")
                       :vertical (axis "ear_angle"))
      (four-axis "Cross" :left (axis "ear_angle" "L") :right (axis "ear_angle")
                         :up (axis "ear_angle") :down (axis "ear_angle" "D"))))
  (attachments :target "Body"
    (attachment "PhysBoneExt"
      (property "target" (game-object "Armature/Hips"))
      (property "weight" 1 :curve [0.0 1] :blend_mode "add"))))
`
	res, diags := analyze(t, cfg, src)
	require.Zero(t, diags.Len(), diagCodes(diags))
	require.NotNil(t, res.Avatar)

	a := res.Avatar
	assert.Equal(t, "1.2.0", a.Version)
	assert.Equal(t, "Shiori", a.Name)

	require.Len(t, a.Parameters, 3)
	hat := a.Parameters[0]
	assert.Equal(t, avatar.BoolValue(true), hat.ValueType)
	assert.Equal(t, avatar.Scope{Kind: avatar.ScopeSynced, Save: true}, hat.Scope)
	assert.True(t, hat.ExplicitDefault)
	outfit := a.Parameters[1]
	assert.Equal(t, avatar.IntValue(0), outfit.ValueType)
	assert.Equal(t, avatar.Scope{Kind: avatar.ScopeLocal}, outfit.Scope)
	assert.False(t, outfit.ExplicitDefault)

	assert.Equal(t, []*avatar.Asset{
		{Type: avatar.AssetMaterial, Key: "Body/Skin"},
		{Type: avatar.AssetAnimation, Key: "Wave"},
	}, a.Assets)
	assert.Equal(t, []avatar.ExportItem{
		&avatar.Gate{Name: "hat_gate"},
		&avatar.Guard{Gate: "hat_gate", Parameter: "hat_on"},
	}, a.Exports)

	require.Len(t, a.MenuItems, 3)
	assert.Equal(t, &avatar.Toggle{Name: "Hat", Parameter: "hat_on", Value: avatar.BoolValue(true)}, a.MenuItems[0])
	assert.Equal(t, &avatar.Button{Name: "Dress", Parameter: "outfit", Value: avatar.IntValue(3)}, a.MenuItems[1])
	sub, ok := a.MenuItems[2].(*avatar.SubMenu)
	require.True(t, ok)
	assert.Equal(t, "Ears", sub.Name)
	require.Len(t, sub.Items, 3)
	assert.Equal(t, &avatar.Radial{Name: "Angle", Parameter: "ear_angle"}, sub.Items[0])
	assert.Equal(t, &avatar.TwoAxis{
		Name:       "Pose",
		Horizontal: avatar.BiAxis{Parameter: "ear_angle", LabelPositive: "Left", LabelNegative: "Right"},
		Vertical:   avatar.BiAxis{Parameter: "ear_angle"},
	}, sub.Items[1])
	four, ok := sub.Items[2].(*avatar.FourAxis)
	require.True(t, ok)
	assert.Equal(t, avatar.UniAxis{Parameter: "ear_angle", Label: "L"}, four.Left)
	assert.Equal(t, avatar.UniAxis{Parameter: "ear_angle", Label: "D"}, four.Down)

	require.Len(t, a.Attachments, 1)
	att := a.Attachments[0]
	assert.Equal(t, "Body", att.Target)
	assert.Equal(t, "PhysBoneExt", att.Name)
	require.Len(t, att.Properties, 2)
	assert.Equal(t, []avatar.Value{avatar.GameObject("Armature/Hips")}, att.Properties[0].Parameters)
	weight := att.Properties[1]
	assert.Equal(t, []avatar.Value{avatar.Float(1)}, weight.Parameters)
	assert.Equal(t, avatar.List{avatar.Float(0), avatar.Float(1)}, weight.Keywords["curve"])
	assert.Equal(t, avatar.String("add"), weight.Keywords["blend-mode"])

	var names []string
	for _, sym := range res.Symbols {
		names = append(names, sym.Kind.String()+" "+sym.Name)
	}
	assert.Equal(t, []string{
		"parameter hat_on",
		"parameter outfit",
		"parameter ear_angle",
		"asset Body/Skin",
		"asset Wave",
		"gate hat_gate",
	}, names)
	assert.Equal(t, 2, res.Symbols[0].References)
	assert.Equal(t, 7, res.Symbols[2].References)
}

func TestAnalyzeEmptyDocument(t *testing.T) {
	res, diags := analyze(t, nil, "")
	assert.Zero(t, diags.Len())
	require.NotNil(t, res.Avatar)
	assert.Equal(t, "", res.Avatar.Name)
	assert.Empty(t, res.Avatar.Parameters)
}

func TestAnalyzeDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"invalid version", `version "1.0"`, "version.invalid"},
		{"duplicate version", "version \"1.0.0\"\nversion \"1.0.0\"", "version.duplicate"},
		{"duplicate avatar", `(avatar "a") (avatar "b")`, "avatar.duplicate"},
		{"empty name", `(avatar "")`, "avatar.invalid_name"},
		{"numeric name", `(avatar 3)`, "avatar.invalid_name"},
		{"undefined symbol", `(avatar some-name)`, "symbol.undefined"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res, diags := analyze(t, nil, test.src)
			assert.Equal(t, []string{test.code}, diagCodes(diags))
			assert.Nil(t, res.Avatar)
		})
	}
}

func TestAnalyzeParameters(t *testing.T) {
	tests := []struct {
		name  string
		decls string
		codes []string
		count int
	}{
		{"default scope", `(int "a")`, nil, 1},
		{"identical redeclaration", `(int "a" :default 2) (int "a" :default 2)`, nil, 1},
		{"incompatible redeclaration", `(int "a") (float "a")`, []string{"parameter.incompatible_declaration"}, 1},
		{"saved internal", `(bool "a" :scope internal :save true)`, []string{"parameter.internal_must_transient"}, 0},
		{"int out of range", `(int "a" :default 256)`, []string{"parameter.default_out_of_range"}, 0},
		{"negative int", `(int "a" :default -1)`, []string{"parameter.default_out_of_range"}, 0},
		{"bool default for int", `(int "a" :default true)`, []string{"parameter.invalid_default"}, 0},
		{"int default for float", `(float "a" :default 2)`, nil, 1},
		{"float default for int", `(int "a" :default 2.5)`, []string{"parameter.invalid_default"}, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := &Config{}
			res, diags := analyze(t, cfg, `(avatar "x" (parameters `+test.decls+`))`)
			assert.Equal(t, test.codes, diagCodes(diags))
			if test.codes == nil {
				require.NotNil(t, res.Avatar)
				assert.Len(t, res.Avatar.Parameters, test.count)
			}
		})
	}

	res, diags := analyze(t, nil, `(avatar "x" (parameters (int "a") (float "b" :default 2)))`)
	require.Zero(t, diags.Len())
	assert.Equal(t, avatar.Scope{Kind: avatar.ScopeSynced}, res.Avatar.Parameters[0].Scope)
	assert.Equal(t, avatar.FloatValue(2), res.Avatar.Parameters[1].ValueType)
}

func TestAnalyzeAssets(t *testing.T) {
	res, diags := analyze(t, nil, `(avatar "x" (assets (material "m") (material "m") (animation "w")))`)
	require.Zero(t, diags.Len())
	assert.Len(t, res.Avatar.Assets, 2)

	_, diags = analyze(t, nil, `(avatar "x" (assets (material "m") (animation "m")))`)
	assert.Equal(t, []string{"asset.incompatible_declaration"}, diagCodes(diags))
}

func TestAnalyzeExports(t *testing.T) {
	params := `(parameters (bool "b") (int "i") (float "f"))`
	tests := []struct {
		name    string
		exports string
		codes   []string
	}{
		{"guard bool", `(gate "g") (guard "g" "b")`, nil},
		{"guard int", `(gate "g") (guard "g" "i")`, nil},
		{"guard before gate", `(guard "g" "b") (gate "g")`, nil},
		{"guard float", `(gate "g") (guard "g" "f")`, []string{"parameter.type_requirement"}},
		{"unknown gate", `(guard "g" "b")`, []string{"gate.not_found"}},
		{"unknown parameter", `(gate "g") (guard "g" "z")`, []string{"parameter.not_found"}},
		{"duplicate gate", `(gate "g") (gate "g")`, []string{"gate.duplicate"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, diags := analyze(t, nil, `(avatar "x" `+params+` (exports `+test.exports+`))`)
			assert.Equal(t, test.codes, diagCodes(diags))
		})
	}
}

func TestAnalyzeGateNameEvaluatedOnce(t *testing.T) {
	cfg := testConfig(t)
	cfg.Symbols.Define("g")
	res, diags := analyze(t, cfg, `(avatar "A" (exports (gate (localize "gate.k")) (gate g)))`)
	assert.Equal(t, []string{"localization.missing"}, diagCodes(diags))
	require.NotNil(t, res.Avatar)
	assert.Equal(t, []avatar.ExportItem{
		&avatar.Gate{Name: "gate.k"},
		&avatar.Gate{Name: "g"},
	}, res.Avatar.Exports)
	require.Len(t, res.References, 1)
	assert.Equal(t, "g", res.References[0].Name)
}

func TestParameterValue(t *testing.T) {
	tests := []struct {
		typ  ast.ParamType
		in   avatar.Value
		want avatar.ParameterValue
		conv conversion
	}{
		{ast.ParamInt, avatar.Integer(255), avatar.IntValue(255), convOK},
		{ast.ParamInt, avatar.Integer(256), avatar.ParameterValue{}, convOutOfRange},
		{ast.ParamInt, avatar.Integer(-1), avatar.ParameterValue{}, convOutOfRange},
		{ast.ParamInt, avatar.Float(1), avatar.ParameterValue{}, convWrongType},
		{ast.ParamFloat, avatar.Integer(2), avatar.FloatValue(2), convOK},
		{ast.ParamFloat, avatar.String("x"), avatar.ParameterValue{}, convWrongType},
		{ast.ParamBool, avatar.Boolean(true), avatar.BoolValue(true), convOK},
		{ast.ParamBool, avatar.Integer(1), avatar.ParameterValue{}, convWrongType},
	}
	for _, test := range tests {
		got, conv := parameterValue(test.typ, test.in)
		assert.Equal(t, test.conv, conv, "%v %v", test.typ, test.in)
		assert.Equal(t, test.want, got, "%v %v", test.typ, test.in)
	}
}

func TestAnalyzeLayers(t *testing.T) {
	src := `(avatar "x"
  (parameters (int "outfit") (bool "hat_on") (float "ears") (int "mood"))
  (assets (material "Mat/Red") (animation "Idle") (animation "Wave"))
  (fx-controller
    (group-layer "Outfit" :driven-by "outfit" :default-mesh "Body"
      (option default (set-shape "skirt"))
      (option "Casual" (set-shape "skirt") (set-object "Jacket"))
      (option "Formal" :value 5
        (set-material 0 "Mat/Red")
        (set-shape "tie" :value 0.5 :mesh "Neck")))
    (switch-layer "Hat" :driven-by "hat_on"
      (option enabled (set-object "Hat") (drive-group "Outfit" "Formal")))
    (puppet-layer "Ears" :driven-by "ears" :default-mesh "Head"
      (option 0.0 (set-shape "ear_down"))
      (option 1 (set-shape "ear_up" :value 0.8) (random-parameter "mood" [1 3])))
    (raw-layer "Wave" :default "idle"
      (state "wave" (clip "Wave" :speed 2) (transition-to "idle" (cond-nz "hat_on")))
      (state "idle" (clip "Idle")
        (transition-to "wave" :duration 0.25 (cond-eq "outfit" 5) (cond-gt "ears" 0.5))))))`
	res, diags := analyze(t, nil, src)
	require.Zero(t, diags.Len(), "%v", diagCodes(diags))
	require.NotNil(t, res.Avatar)
	layers := res.Avatar.FXController
	require.Len(t, layers, 4)

	assert.Equal(t, &avatar.Layer{Name: "Outfit", Content: &avatar.GroupLayer{
		Parameter: "outfit",
		Default: &avatar.GroupOption{Targets: []avatar.Target{
			&avatar.ShapeTarget{Mesh: "Body", Shape: "skirt", Value: 0},
		}},
		Options: []*avatar.GroupOption{
			{Name: "Casual", Value: 1, Targets: []avatar.Target{
				&avatar.ShapeTarget{Mesh: "Body", Shape: "skirt", Value: 1},
				&avatar.ObjectTarget{Object: "Jacket", Value: true},
			}},
			{Name: "Formal", Value: 5, Targets: []avatar.Target{
				&avatar.MaterialTarget{Mesh: "Body", Index: 0, Asset: "Mat/Red"},
				&avatar.ShapeTarget{Mesh: "Neck", Shape: "tie", Value: 0.5},
			}},
		},
	}}, layers[0])

	assert.Equal(t, &avatar.SwitchLayer{
		Parameter: "hat_on",
		Disabled:  []avatar.Target{},
		Enabled: []avatar.Target{
			&avatar.ObjectTarget{Object: "Hat", Value: true},
			&avatar.DriveTarget{Drive: avatar.ParameterDrive{Kind: avatar.DriveSetInt, Parameter: "outfit", Value: 5}},
		},
	}, layers[1].Content)

	assert.Equal(t, &avatar.PuppetLayer{
		Parameter: "ears",
		Keyframes: []*avatar.PuppetKeyframe{
			{Position: 0, Targets: []avatar.Target{&avatar.ShapeTarget{Mesh: "Head", Shape: "ear_down", Value: 1}}},
			{Position: 1, Targets: []avatar.Target{
				&avatar.ShapeTarget{Mesh: "Head", Shape: "ear_up", Value: 0.8},
				&avatar.DriveTarget{Drive: avatar.ParameterDrive{Kind: avatar.DriveRandomInt, Parameter: "mood", Range: [2]float64{1, 3}}},
			}},
		},
	}, layers[2].Content)

	assert.Equal(t, &avatar.RawLayer{
		Default: 1,
		States: []*avatar.RawState{
			{Name: "wave", Clip: "Wave", Speed: 2, Transitions: []*avatar.Transition{
				{Target: 1, Conditions: []avatar.Condition{{Kind: avatar.CondBe, Parameter: "hat_on"}}},
			}},
			{Name: "idle", Clip: "Idle", Speed: 1, Transitions: []*avatar.Transition{
				{Target: 0, Duration: 0.25, Conditions: []avatar.Condition{
					{Kind: avatar.CondEqInt, Parameter: "outfit", Value: 5},
					{Kind: avatar.CondGtFloat, Parameter: "ears", Value: 0.5},
				}},
			}},
		},
	}, layers[3].Content)

	refs := make(map[string]int)
	for _, sym := range res.Symbols {
		refs[sym.Kind.String()+" "+sym.Name] = sym.References
	}
	assert.Equal(t, 2, refs["parameter outfit"])
	assert.Equal(t, 2, refs["parameter hat_on"])
	assert.Equal(t, 1, refs["asset Mat/Red"])
	assert.Equal(t, 1, refs["asset Wave"])
}

func TestAnalyzeLayerErrors(t *testing.T) {
	decls := `(parameters (int "i") (bool "b") (float "f"))
  (assets (material "m") (animation "a"))`
	tests := []struct {
		name   string
		layers string
		codes  []string
	}{
		{"duplicate layer", `(switch-layer "L" :driven-by "b") (puppet-layer "L" :driven-by "f")`, []string{"layer.duplicate"}},
		{"wrong parameter type", `(group-layer "L" :driven-by "b")`, []string{"parameter.type_requirement"}},
		{"unknown parameter", `(switch-layer "L" :driven-by "z")`, []string{"parameter.not_found"}},
		{"duplicate option", `(group-layer "L" :driven-by "i" (option "a") (option "a"))`, []string{"layer.option_duplicate"}},
		{"duplicate default", `(group-layer "L" :driven-by "i" (option default) (option default))`, []string{"layer.option_duplicate"}},
		{"duplicate option value", `(group-layer "L" :driven-by "i" (option "a") (option "b" :value 1))`, []string{"layer.option_value_duplicate"}},
		{"option value zero", `(group-layer "L" :driven-by "i" (option "a" :value 0))`, []string{"layer.option_value_out_of_range"}},
		{"duplicate switch option", `(switch-layer "L" :driven-by "b" (option enabled) (option enabled))`, []string{"layer.option_duplicate"}},
		{"keyframe out of range", `(puppet-layer "L" :driven-by "f" (option 1.5))`, []string{"layer.keyframe_out_of_range"}},
		{"no mesh", `(switch-layer "L" :driven-by "b" (option enabled (set-shape "s")))`, []string{"layer.indeterminate_mesh"}},
		{"duplicate target", `(switch-layer "L" :driven-by "b" (option enabled (set-object "o") (set-object "o" :value false)))`, []string{"layer.target_duplicate"}},
		{"object value type", `(switch-layer "L" :driven-by "b" (option enabled (set-object "o" :value 1)))`, []string{"value.type_mismatch"}},
		{"unknown material", `(switch-layer "L" :driven-by "b" :default-mesh "M" (option enabled (set-material 0 "x")))`, []string{"asset.not_found"}},
		{"animation as material", `(switch-layer "L" :driven-by "b" :default-mesh "M" (option enabled (set-material 0 "a")))`, []string{"asset.type_requirement"}},
		{"set out of range", `(switch-layer "L" :driven-by "b" (option enabled (set-parameter "i" 300)))`, []string{"parameter.value_out_of_range"}},
		{"add to bool", `(switch-layer "L" :driven-by "b" (option enabled (add-parameter "b" true)))`, []string{"parameter.type_requirement"}},
		{"random descending", `(switch-layer "L" :driven-by "b" (option enabled (random-parameter "i" [3 1])))`, []string{"drive.invalid_range"}},
		{"random chance", `(switch-layer "L" :driven-by "b" (option enabled (random-parameter "b" 2)))`, []string{"drive.invalid_range"}},
		{"unknown layer", `(switch-layer "L" :driven-by "b" (option enabled (drive-group "G" "a")))`, []string{"layer.not_found"}},
		{"layer kind", `(switch-layer "L" :driven-by "b" (option enabled (drive-puppet "L")))`, []string{"layer.kind_requirement"}},
		{
			"unknown option",
			`(group-layer "G" :driven-by "i" (option "a")) (switch-layer "L" :driven-by "b" (option enabled (drive-group "G" "z")))`,
			[]string{"layer.option_not_found"},
		},
		{"unknown state", `(raw-layer "R" (state "s" (clip "a") (transition-to "t")))`, []string{"layer.state_not_found"}},
		{"unknown default state", `(raw-layer "R" :default "t" (state "s" (clip "a")))`, []string{"layer.state_not_found"}},
		{"duplicate state", `(raw-layer "R" (state "s" (clip "a")) (state "s" (clip "a")))`, []string{"layer.state_duplicate"}},
		{"missing clip", `(raw-layer "R" (state "s"))`, []string{"layer.state_clip"}},
		{"material clip", `(raw-layer "R" (state "s" (clip "m")))`, []string{"asset.type_requirement"}},
		{"zero test on float", `(raw-layer "R" (state "s" (clip "a") (transition-to "s" (cond-ze "f"))))`, []string{"parameter.type_requirement"}},
		{"ordering on bool", `(raw-layer "R" (state "s" (clip "a") (transition-to "s" (cond-lt "b" true))))`, []string{"parameter.type_requirement"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res, diags := analyze(t, nil, `(avatar "x" `+decls+` (fx-controller `+test.layers+`))`)
			assert.Equal(t, test.codes, diagCodes(diags))
			assert.Nil(t, res.Avatar)
		})
	}
}

func TestAnalyzeLayerConditions(t *testing.T) {
	src := `(avatar "x"
  (parameters (int "i") (bool "b"))
  (assets (animation "a"))
  (fx-controller
    (raw-layer "R"
      (state "s" (clip "a")
        (transition-to "s"
          (cond-eq "b" false) (cond-ne "b" false) (cond-ze "b")
          (cond-ne "i" 2) (cond-lt "i" 4) (cond-ze "i") (cond-nz "i"))))))`
	res, diags := analyze(t, nil, src)
	require.Zero(t, diags.Len(), "%v", diagCodes(diags))
	raw := res.Avatar.FXController[0].Content.(*avatar.RawLayer)
	assert.Equal(t, []avatar.Condition{
		{Kind: avatar.CondNot, Parameter: "b"},
		{Kind: avatar.CondBe, Parameter: "b"},
		{Kind: avatar.CondNot, Parameter: "b"},
		{Kind: avatar.CondNeqInt, Parameter: "i", Value: 2},
		{Kind: avatar.CondLtInt, Parameter: "i", Value: 4},
		{Kind: avatar.CondEqInt, Parameter: "i"},
		{Kind: avatar.CondNeqInt, Parameter: "i"},
	}, raw.States[0].Transitions[0].Conditions)
}

func TestAnalyzeLayerContext(t *testing.T) {
	_, diags := analyze(t, nil, `(avatar "x" (parameters (bool "b"))
  (fx-controller (switch-layer "Hat" :driven-by "b" (option enabled (set-shape "s")))))`)
	require.Equal(t, 1, diags.Len())
	d, err := diags.At(0)
	require.NoError(t, err)
	assert.Equal(t, []string{`avatar "x"`, "fx-controller", `switch-layer "Hat"`, "option enabled"}, d.Context)
}

func TestAnalyzeMenu(t *testing.T) {
	params := `(parameters
    (bool "b") (int "i") (float "f") (float "hidden" :scope internal))`
	tests := []struct {
		name  string
		menu  string
		codes []string
		item  avatar.MenuItem
	}{
		{"toggle default bool", `(toggle "t" "b")`, nil,
			&avatar.Toggle{Name: "t", Parameter: "b", Value: avatar.BoolValue(true)}},
		{"toggle default int", `(toggle "t" "i")`, nil,
			&avatar.Toggle{Name: "t", Parameter: "i", Value: avatar.IntValue(1)}},
		{"button default float", `(button "t" "f")`, nil,
			&avatar.Button{Name: "t", Parameter: "f", Value: avatar.FloatValue(1)}},
		{"toggle explicit false", `(toggle "t" "b" :value false)`, nil,
			&avatar.Toggle{Name: "t", Parameter: "b", Value: avatar.BoolValue(false)}},
		{"toggle int value for float", `(toggle "t" "f" :value 2)`, nil,
			&avatar.Toggle{Name: "t", Parameter: "f", Value: avatar.FloatValue(2)}},
		{"toggle wrong value", `(toggle "t" "b" :value 1)`, []string{"value.type_mismatch"}, nil},
		{"toggle value out of range", `(toggle "t" "i" :value 300)`, []string{"parameter.value_out_of_range"}, nil},
		{"toggle missing parameter", `(toggle "t" "nope")`, []string{"parameter.not_found"}, nil},
		{"toggle internal parameter", `(toggle "t" "hidden")`, []string{"parameter.scope_requirement"}, nil},
		{"radial bool", `(radial "r" "b")`, []string{"parameter.type_requirement"}, nil},
		{"two-axis int", `(two-axis "p" :horizontal (axis "f") :vertical (axis "i"))`,
			[]string{"parameter.type_requirement"}, nil},
		{"four-axis internal", `(four-axis "p" :left (axis "f") :right (axis "f") :up (axis "hidden") :down (axis "f"))`,
			[]string{"parameter.scope_requirement"}, nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res, diags := analyze(t, nil, `(avatar "x" `+params+` (menu `+test.menu+`))`)
			assert.Equal(t, test.codes, diagCodes(diags))
			if test.item != nil {
				require.NotNil(t, res.Avatar)
				require.Len(t, res.Avatar.MenuItems, 1)
				assert.Equal(t, test.item, res.Avatar.MenuItems[0])
			}
		})
	}
}

func TestAnalyzeMenuContext(t *testing.T) {
	_, diags := analyze(t, nil, `(avatar "x" (menu (submenu "Outer" (toggle "T" "missing"))))`)
	require.Equal(t, 1, diags.Len())
	d, err := diags.At(0)
	require.NoError(t, err)
	assert.Equal(t, []string{`avatar "x"`, `menu`, `submenu "Outer"`, `toggle "T"`}, d.Context)
	require.NotNil(t, d.Position)
	assert.Equal(t, "test.declisp", d.Position.File)
}

func TestAnalyzeConditionals(t *testing.T) {
	cfg := testConfig(t)
	cfg.Symbols.Define("with-hat")
	src := `(avatar "x"
  (parameters
    (when (defined with-hat) (bool "hat"))
    (unless (defined with-hat) (bool "no_hat"))
    (when (localized "menu.label") (bool "labelled"))))`
	res, diags := analyze(t, cfg, src)
	require.Zero(t, diags.Len())
	require.Len(t, res.Avatar.Parameters, 1)
	assert.Equal(t, "hat", res.Avatar.Parameters[0].Name)

	cfg.Localizations.Define("menu.label", "Label")
	res, _ = analyze(t, cfg, src)
	assert.Len(t, res.Avatar.Parameters, 2)
}

func TestAnalyzeSymbols(t *testing.T) {
	cfg := testConfig(t)
	cfg.Symbols.Define("hat")
	res, diags := analyze(t, cfg, `(avatar "x" (parameters (bool hat) (bool hair)))`)
	assert.Equal(t, []string{"symbol.undefined"}, diagCodes(diags))
	require.Len(t, res.References, 1)
	assert.Equal(t, "hat", res.References[0].Name)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, "hair", res.Unresolved[0].Name)
	assert.Nil(t, res.Avatar)
}

func TestAnalyzeLocalization(t *testing.T) {
	cfg := testConfig(t)
	res, diags := analyze(t, cfg, `(avatar "x" (parameters (bool "b")) (menu (toggle (localize "menu.missing") "b")))`)
	assert.Equal(t, []string{"localization.missing"}, diagCodes(diags))
	assert.False(t, diags.Blocking())
	require.NotNil(t, res.Avatar)
	toggle := res.Avatar.MenuItems[0].(*avatar.Toggle)
	assert.Equal(t, "menu.missing", toggle.Name)

	d, _ := diags.At(0)
	assert.Equal(t, diagnostic.KindSemanticInfo, d.Kind)
}

func TestAnalyzeAttachments(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		codes []string
		kept  bool
	}{
		{"required only", `(property "target" (game-object "a"))`, nil, true},
		{"int to float", `(property "target" (game-object "a")) (property "weight" 2)`, nil, true},
		{"missing required", `(property "weight" 1.0)`, []string{"attachment.missing_property"}, false},
		{"unknown property", `(property "target" (game-object "a")) (property "mass" 1.0)`,
			[]string{"attachment.unknown_property"}, true},
		{"duplicate property", `(property "target" (game-object "a")) (property "target" (game-object "b"))`,
			[]string{"attachment.duplicate_property"}, true},
		{"type mismatch", `(property "target" "a")`,
			[]string{"attachment.type_mismatch"}, false},
		{"too many parameters", `(property "target" (game-object "a") (game-object "b"))`,
			[]string{"attachment.length_mismatch"}, true},
		{"unknown keyword", `(property "target" (game-object "a")) (property "weight" 1.0 :mass 1)`,
			[]string{"attachment.unknown_keyword"}, true},
		{"list element mismatch", `(property "target" (game-object "a")) (property "weight" 1.0 :curve [1.0 "x"])`,
			[]string{"attachment.type_mismatch"}, true},
		{"deprecated", `(property "target" (game-object "a")) (property "legacy" [1 "two"])`,
			[]string{"attachment.deprecated_property"}, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			src := `(avatar "x" (attachments (attachment "PhysBoneExt" ` + test.body + `)))`
			res, diags := analyze(t, testConfig(t), src)
			assert.Equal(t, test.codes, diagCodes(diags))
			if !diags.Blocking() {
				require.NotNil(t, res.Avatar)
				assert.Equal(t, test.kept, len(res.Avatar.Attachments) == 1)
			}
		})
	}
}

func TestAnalyzeUnknownSchema(t *testing.T) {
	src := `(avatar "x" (attachments (attachment "Nothing" (property "a" 1))))`
	res, diags := analyze(t, testConfig(t), src)
	assert.Equal(t, []string{"attachment.unknown_schema"}, diagCodes(diags))
	assert.Nil(t, res.Avatar)
}

func TestScopeContext(t *testing.T) {
	doc := NewScope(ScopeDocument, nil, "")
	av := doc.Child(ScopeAvatar, "avatar x")
	menu := av.Child(ScopeMenu, "menu")
	ctl := menu.Child(ScopeControl, `toggle "t"`)

	assert.Equal(t, []string{"avatar x", "menu", `toggle "t"`}, ctl.Context())
	assert.Empty(t, doc.Context())
	assert.Same(t, av, ctl.Enclosing(ScopeAvatar))
	assert.Nil(t, av.Enclosing(ScopeMenu))
	assert.Equal(t, "control", ctl.Kind.String())
}
