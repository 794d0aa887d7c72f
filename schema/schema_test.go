// Copyright © 2024 The Declavatar authors

package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declavatar/declavatar/avatar"
	"github.com/declavatar/declavatar/parser"
)

const physBoneSchema = `
(attachment-schema "PhysBoneExt"
  (property "target" :required true
    (parameter "object" game-object))
  (property "weight"
    (parameter "value" float)
    (keyword "curve" (list float))
    (keyword "mode" (one-of string integer) :required true))
  (property "legacy" :deprecated true
    (parameter "value" any)
    (parameter "pair" (tuple boolean (vector 3)))))
`

func TestParse(t *testing.T) {
	a, err := Parse("phys.declisp", []byte(physBoneSchema))
	require.NoError(t, err)
	assert.Equal(t, "PhysBoneExt", a.Name)
	require.Len(t, a.Properties, 3)

	target, ok := a.Property("target")
	require.True(t, ok)
	assert.True(t, target.Required)
	assert.Equal(t, "game-object", target.Parameters[0].Type.String())
	assert.Equal(t, "game object", target.Parameters[0].Type.Name())

	weight, _ := a.Property("weight")
	assert.False(t, weight.Required)
	require.Len(t, weight.Keywords, 2)
	mode, ok := weight.Keyword("mode")
	require.True(t, ok)
	assert.True(t, mode.Required)
	assert.Equal(t, "(one-of string integer)", mode.Type.String())
	_, ok = weight.Keyword("curve")
	assert.True(t, ok)

	legacy, _ := a.Property("legacy")
	assert.True(t, legacy.Deprecated)
	assert.Equal(t, "(tuple boolean (vector 3))", legacy.Parameters[1].Type.String())

	_, ok = a.Property("missing")
	assert.False(t, ok)
}

func TestParseScript(t *testing.T) {
	src := `attachment_schema "Blink" {
    property "eyes" required=true {
        parameter "mesh" game_object
        keyword "blend_shapes" list(string) required=true
    }
}
`
	a, err := ParseFormat("blink.descript", []byte(src), parser.FormatScript)
	require.NoError(t, err)
	eyes, ok := a.Property("eyes")
	require.True(t, ok)
	assert.True(t, eyes.Required)
	assert.Equal(t, KindGameObject, eyes.Parameters[0].Type.Kind)
	kw, ok := eyes.Keyword("blend-shapes")
	require.True(t, ok)
	assert.True(t, kw.Required)
	assert.Equal(t, "(list string)", kw.Type.String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"syntax", `(attachment-schema "A"`, "unmatched"},
		{"empty", ``, "found 0 forms"},
		{"two forms", `(attachment-schema "A") (attachment-schema "B")`, "found 2 forms"},
		{"wrong head", `(schema "A")`, "expected (attachment-schema ...)"},
		{"empty name", `(attachment-schema "")`, "attachment name is empty"},
		{"unknown type", `(attachment-schema "A" (property "p" (parameter "x" quaternion)))`, "unknown type quaternion"},
		{"map", `(attachment-schema "A" (property "p" (parameter "x" (map string float))))`, "map values are not supported"},
		{"vector length", `(attachment-schema "A" (property "p" (parameter "x" (vector 0))))`, "vector length must be positive"},
		{"bare list", `(attachment-schema "A" (property "p" (parameter "x" list)))`, "needs arguments"},
		{"duplicate property", `(attachment-schema "A" (property "p") (property "p"))`, `property "p" is defined more than once`},
		{"duplicate keyword", `(attachment-schema "A" (property "p" (keyword "k_x" any) (keyword "k-x" any)))`, "defined more than once"},
		{"bad flag", `(attachment-schema "A" (property "p" :required 1))`, ":required must be a boolean"},
		{"unknown flag", `(attachment-schema "A" (property "p" :optional true))`, "unknown keyword :optional"},
		{"stray form", `(attachment-schema "A" (property "p" (value "x" any)))`, "expected (parameter ...) or (keyword ...)"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse("schema.declisp", []byte(test.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSchema)
			assert.Contains(t, err.Error(), test.msg)
		})
	}
}

func TestParseInvalidUTF8(t *testing.T) {
	_, err := Parse("schema.declisp", []byte("(attachment-schema \"\xff\")"))
	assert.ErrorIs(t, err, ErrInvalidSchema)
	assert.ErrorIs(t, err, parser.ErrInvalidUTF8)
}

func TestValidateAggregates(t *testing.T) {
	a := &Attachment{
		Name: "A",
		Properties: []*Property{
			{Name: "", Parameters: []*Parameter{{Name: "x", Type: VectorOf(-1)}}},
			{Name: "q", Parameters: []*Parameter{{Name: "y"}}},
		},
	}
	err := a.Validate()
	require.Error(t, err)
	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.Len(t, joined.Unwrap(), 3)
}

func TestJSON(t *testing.T) {
	a, err := Parse("phys.declisp", []byte(physBoneSchema))
	require.NoError(t, err)

	data, err := jsonMarshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"value_type":{"type":"List","content":{"type":"Float"}}`)
	assert.Contains(t, string(data), `{"type":"Vector","content":3}`)

	b, err := ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = ParseJSON([]byte(`{"name":"A","properties":[{"name":"p","parameters":[{"name":"x","value_type":{"type":"Map","content":[{"type":"String"},{"type":"Any"}]}}]}]}`))
	assert.ErrorIs(t, err, ErrInvalidSchema)

	_, err = ParseJSON([]byte(`{"name":"A","properties":[{"name":"p","parameters":[{"name":"x","value_type":{"type":"Quaternion"}}]}]}`))
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		typ  *Type
		in   avatar.Value
		want avatar.Value
		err  error
	}{
		{"exact", Simple(KindString), avatar.String("a"), avatar.String("a"), nil},
		{"int to float", Simple(KindFloat), avatar.Integer(2), avatar.Float(2), nil},
		{"float to int", Simple(KindInteger), avatar.Float(2), nil, &TypeMismatchError{Expected: "integer", Found: "float"}},
		{"any list", Simple(KindAny), avatar.List{avatar.Integer(1), avatar.List{}}, avatar.List{avatar.Integer(1), avatar.List{}}, nil},
		{"typed list", ListOf(Simple(KindFloat)), avatar.List{avatar.Integer(1), avatar.Float(0.5)}, avatar.List{avatar.Float(1), avatar.Float(0.5)}, nil},
		{"list item", ListOf(Simple(KindFloat)), avatar.List{avatar.String("x")}, nil, &TypeMismatchError{Expected: "float", Found: "string"}},
		{
			"tuple",
			TupleOf(Simple(KindBoolean), Simple(KindGameObject)),
			avatar.List{avatar.Boolean(true), avatar.GameObject("Hips")},
			avatar.Tuple{avatar.Boolean(true), avatar.GameObject("Hips")},
			nil,
		},
		{"tuple length", TupleOf(Simple(KindBoolean)), avatar.List{}, nil, &LengthMismatchError{Expected: 1, Found: 0}},
		{"list as scalar", Simple(KindString), avatar.List{}, nil, &TypeMismatchError{Expected: "string", Found: "list"}},
		{"vector", VectorOf(3), avatar.Vector{1, 2, 3}, avatar.Vector{1, 2, 3}, nil},
		{"vector length", VectorOf(2), avatar.Vector{1, 2, 3}, nil, &LengthMismatchError{Expected: 2, Found: 3}},
		{"one-of second", OneOf(Simple(KindString), Simple(KindInteger)), avatar.Integer(4), avatar.Integer(4), nil},
		{"one-of none", OneOf(Simple(KindString), Simple(KindBoolean)), avatar.Null{}, nil, &TypeMismatchError{Expected: "one-of", Found: "null"}},
		{"null", Simple(KindNull), avatar.Null{}, avatar.Null{}, nil},
		{"material", Simple(KindAnimationClip), avatar.Material("m"), nil, &TypeMismatchError{Expected: "animation clip", Found: "material"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Coerce(test.typ, test.in)
			if test.err != nil {
				assert.Equal(t, test.err, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}
