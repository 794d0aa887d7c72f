// Copyright © 2024 The Declavatar authors

package avatar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAvatar() *Avatar {
	a := New()
	a.Version = "1.0.0"
	a.Name = "Shiori"
	a.Parameters = append(a.Parameters,
		&Parameter{Name: "hat_on", ValueType: BoolValue(true), Scope: Scope{Kind: ScopeSynced, Save: true}, ExplicitDefault: true},
		&Parameter{Name: "outfit", ValueType: IntValue(2), Scope: Scope{Kind: ScopeLocal}},
		&Parameter{Name: "ear_angle", ValueType: FloatValue(0.25), Scope: Scope{Kind: ScopeInternal}, Unique: true},
	)
	a.Assets = append(a.Assets,
		&Asset{Type: AssetMaterial, Key: "Body/Skin"},
		&Asset{Type: AssetAnimation, Key: "Wave"},
	)
	a.Exports = append(a.Exports,
		&Gate{Name: "hat_gate"},
		&Guard{Gate: "hat_gate", Parameter: "hat_on"},
	)
	a.FXController = append(a.FXController,
		&Layer{Name: "Outfit", Content: &GroupLayer{
			Parameter: "outfit",
			Default: &GroupOption{Targets: []Target{
				&ShapeTarget{Mesh: "Body", Shape: "skirt", Value: 0},
			}},
			Options: []*GroupOption{
				{Name: "Casual", Value: 1, Targets: []Target{
					&ShapeTarget{Mesh: "Body", Shape: "skirt", Value: 1},
					&ObjectTarget{Object: "Jacket", Value: true},
					&MaterialTarget{Mesh: "Body", Index: 0, Asset: "Body/Skin"},
				}},
				{Name: "Empty", Value: 2, Targets: []Target{}},
			},
		}},
		&Layer{Name: "Hat", Content: &SwitchLayer{
			Parameter: "hat_on",
			Disabled:  []Target{},
			Enabled: []Target{
				&ObjectTarget{Object: "Hat", Value: true},
				&DriveTarget{Drive: ParameterDrive{Kind: DriveSetInt, Parameter: "outfit", Value: 2}},
			},
		}},
		&Layer{Name: "Ears", Content: &PuppetLayer{
			Parameter: "ear_angle",
			Keyframes: []*PuppetKeyframe{
				{Position: 0, Targets: []Target{&ShapeTarget{Mesh: "Head", Shape: "ear_down", Value: 1}}},
				{Position: 1, Targets: []Target{
					&DriveTarget{Drive: ParameterDrive{Kind: DriveRangedCopy, Source: "ear_angle", Parameter: "outfit", Range: [2]float64{0, 1}, ToRange: [2]float64{0, 3}}},
				}},
			},
		}},
		&Layer{Name: "Wave", Content: &RawLayer{
			Default: 0,
			States: []*RawState{
				{Name: "idle", Clip: "Wave", Speed: 1, Transitions: []*Transition{
					{Target: 1, Duration: 0.25, Conditions: []Condition{
						{Kind: CondBe, Parameter: "hat_on"},
						{Kind: CondEqInt, Parameter: "outfit", Value: 1},
					}},
				}},
				{Name: "wave", Clip: "Wave", Speed: 2, Transitions: []*Transition{
					{Target: 0, Conditions: []Condition{{Kind: CondLtFloat, Parameter: "ear_angle", Value: 0.5}}},
				}},
			},
		}},
	)
	a.MenuItems = append(a.MenuItems,
		&Toggle{Name: "Hat", Parameter: "hat_on", Value: BoolValue(true)},
		&Button{Name: "Outfit", Parameter: "outfit", Value: IntValue(2)},
		&SubMenu{Name: "Ears", Items: []MenuItem{
			&Radial{Name: "Angle", Parameter: "ear_angle"},
			&TwoAxis{
				Name:       "Pose",
				Horizontal: BiAxis{Parameter: "ear_angle", LabelPositive: "Left", LabelNegative: "Right"},
				Vertical:   BiAxis{Parameter: "ear_angle"},
			},
			&FourAxis{
				Name:  "Look",
				Left:  UniAxis{Parameter: "ear_angle", Label: "L"},
				Right: UniAxis{Parameter: "ear_angle"},
				Up:    UniAxis{Parameter: "ear_angle"},
				Down:  UniAxis{Parameter: "ear_angle"},
			},
			&SubMenu{Name: "Empty", Items: []MenuItem{}},
		}},
	)
	a.Attachments = append(a.Attachments, &Attachment{
		Target: "Body",
		Name:   "PhysBoneExt",
		Properties: []*Property{
			{
				Name:       "target",
				Parameters: []Value{GameObject("Armature/Hips")},
				Keywords:   map[string]Value{},
			},
			{
				Name:       "weight",
				Parameters: []Value{Float(0.5), Integer(3), Null{}},
				Keywords: map[string]Value{
					"curve": List{Float(0), Float(1)},
					"axis":  Vector{1, 0, 0},
					"pair":  Tuple{String("a"), Boolean(false)},
					"clip":  AnimationClip("Wave"),
					"mat":   Material("Skin"),
				},
			},
		},
	})
	return a
}

func TestRoundTrip(t *testing.T) {
	a := sampleAvatar()
	data, err := Marshal(a)
	require.NoError(t, err)

	b, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	again, err := Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestMarshalEmpty(t *testing.T) {
	data, err := Marshal(&Avatar{Version: "1.0.0"})
	require.NoError(t, err)
	assert.Equal(t,
		`{"version":"1.0.0","name":"","parameters":[],"assets":[],"exports":[],"fx_controller":[],"menu_items":[],"attachments":[]}`,
		string(data))

	b, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, New().Parameters, b.Parameters)
	assert.NotNil(t, b.MenuItems)
	assert.NotNil(t, b.FXController)
}

func TestMarshalVariants(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want string
	}{
		{"null", Null{}, `{"type":"Null"}`},
		{"list", List{Integer(1)}, `{"type":"List","content":[{"type":"Integer","content":1}]}`},
		{"nil list", List(nil), `{"type":"List","content":[]}`},
		{"vector", Vector{1, 0.5}, `{"type":"Vector","content":[1,0.5]}`},
		{"game object", GameObject("Hips"), `{"type":"GameObject","content":"Hips"}`},
		{"internal scope", Scope{Kind: ScopeInternal}, `{"type":"Internal"}`},
		{"synced scope", Scope{Kind: ScopeSynced, Save: true}, `{"type":"Synced","save":true}`},
		{"int value", IntValue(3), `{"type":"Int","default":3}`},
		{"gate", &Gate{Name: "g"}, `{"type":"Gate","content":{"name":"g"}}`},
		{"asset", &Asset{Type: AssetAnimation, Key: "Wave"}, `{"asset_type":"Animation","key":"Wave"}`},
		{
			"toggle",
			&Toggle{Name: "Hat", Parameter: "hat_on", Value: BoolValue(true)},
			`{"type":"Toggle","content":{"name":"Hat","parameter":"hat_on","value":{"type":"Bool","default":true}}}`,
		},
		{
			"shape target",
			&ShapeTarget{Mesh: "Body", Shape: "smile", Value: 1},
			`{"type":"Shape","content":{"mesh":"Body","shape":"smile","value":1}}`,
		},
		{"set int", ParameterDrive{Kind: DriveSetInt, Parameter: "outfit", Value: 3}, `{"type":"SetInt","content":["outfit",3]}`},
		{"set bool", ParameterDrive{Kind: DriveSetBool, Parameter: "hat_on"}, `{"type":"SetBool","content":["hat_on",false]}`},
		{"random int", ParameterDrive{Kind: DriveRandomInt, Parameter: "outfit", Range: [2]float64{1, 4}}, `{"type":"RandomInt","content":["outfit",[1,4]]}`},
		{"random bool", ParameterDrive{Kind: DriveRandomBool, Parameter: "hat_on", Value: 0.5}, `{"type":"RandomBool","content":["hat_on",0.5]}`},
		{"copy", ParameterDrive{Kind: DriveCopy, Source: "a", Parameter: "b"}, `{"type":"Copy","content":["a","b"]}`},
		{"be", Condition{Kind: CondBe, Parameter: "hat_on"}, `{"type":"Be","content":"hat_on"}`},
		{"gt float", Condition{Kind: CondGtFloat, Parameter: "x", Value: 0.5}, `{"type":"GtFloat","content":["x",0.5]}`},
		{
			"empty switch",
			&Layer{Name: "s", Content: &SwitchLayer{Parameter: "p"}},
			`{"name":"s","content":{"type":"Switch","content":{"parameter":"p","disabled":[],"enabled":[]}}}`,
		},
		{
			"sorted keywords",
			&Property{Name: "p", Keywords: map[string]Value{"b": Integer(1), "a": Integer(2)}},
			`{"name":"p","parameters":[],"keywords":{"a":{"type":"Integer","content":2},"b":{"type":"Integer","content":1}}}`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := jsonMarshal(test.v)
			require.NoError(t, err)
			assert.Equal(t, test.want, string(data))
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	_, err := UnmarshalValue([]byte(`{"type":"Map","content":[]}`))
	assert.ErrorIs(t, err, ErrUnknownVariant)

	_, err = UnmarshalValue([]byte(`{"content":1}`))
	assert.ErrorIs(t, err, ErrUnknownVariant)

	_, err = Unmarshal([]byte(`{"menu_items":[{"type":"Slider","content":{}}]}`))
	assert.ErrorIs(t, err, ErrUnknownVariant)

	_, err = Unmarshal([]byte(`{"assets":[{"asset_type":"Mesh","key":"x"}]}`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"fx_controller":[{"name":"l","content":{"type":"Blend","content":{}}}]}`))
	assert.ErrorIs(t, err, ErrUnknownVariant)

	_, err = Unmarshal([]byte(`{"fx_controller":[{"name":"l","content":{"type":"Switch","content":{"parameter":"p","enabled":[{"type":"Bone","content":{}}]}}}]}`))
	assert.ErrorIs(t, err, ErrUnknownVariant)

	var d ParameterDrive
	assert.ErrorIs(t, d.UnmarshalJSON([]byte(`{"type":"Multiply","content":["p",2]}`)), ErrUnknownVariant)
	assert.Error(t, d.UnmarshalJSON([]byte(`{"type":"RangedCopy","content":["a","b"]}`)))
}

func TestValueNames(t *testing.T) {
	assert.Equal(t, "game object", GameObject("x").TypeName())
	assert.Equal(t, "animation clip", AnimationClip("x").TypeName())
	assert.Equal(t, `[1 "a" (vector 1 2)]`, List{Integer(1), String("a"), Vector{1, 2}}.String())
	assert.Equal(t, "(true nil)", Tuple{Boolean(true), Null{}}.String())
}
