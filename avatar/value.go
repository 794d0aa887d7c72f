// Copyright © 2024 The Declavatar authors

package avatar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is a typed attachment value.
type Value interface {
	// TypeName returns the name used for the value's type in messages.
	TypeName() string
	String() string
	json.Marshaler
	value()
}

type (
	Null          struct{}
	List          []Value
	Tuple         []Value
	Boolean       bool
	Integer       int64
	Float         float64
	String        string
	Vector        []float64
	GameObject    string
	Material      string
	AnimationClip string
)

func (Null) TypeName() string          { return "null" }
func (List) TypeName() string          { return "list" }
func (Tuple) TypeName() string         { return "tuple" }
func (Boolean) TypeName() string       { return "boolean" }
func (Integer) TypeName() string       { return "integer" }
func (Float) TypeName() string         { return "float" }
func (String) TypeName() string        { return "string" }
func (Vector) TypeName() string        { return "vector" }
func (GameObject) TypeName() string    { return "game object" }
func (Material) TypeName() string      { return "material" }
func (AnimationClip) TypeName() string { return "animation clip" }

func (Null) value()          {}
func (List) value()          {}
func (Tuple) value()         {}
func (Boolean) value()       {}
func (Integer) value()       {}
func (Float) value()         {}
func (String) value()        {}
func (Vector) value()        {}
func (GameObject) value()    {}
func (Material) value()      {}
func (AnimationClip) value() {}

func (Null) String() string      { return "nil" }
func (v List) String() string    { return "[" + joinValues(v) + "]" }
func (v Tuple) String() string   { return "(" + joinValues(v) + ")" }
func (v Boolean) String() string { return strconv.FormatBool(bool(v)) }
func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string   { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v String) String() string  { return strconv.Quote(string(v)) }

func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return "(vector " + strings.Join(parts, " ") + ")"
}

func (v GameObject) String() string    { return fmt.Sprintf("(game-object %q)", string(v)) }
func (v Material) String() string      { return fmt.Sprintf("(material %q)", string(v)) }
func (v AnimationClip) String() string { return fmt.Sprintf("(animation-clip %q)", string(v)) }

func joinValues(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}

const (
	tagNull          = "Null"
	tagList          = "List"
	tagTuple         = "Tuple"
	tagBoolean       = "Boolean"
	tagInteger       = "Integer"
	tagFloat         = "Float"
	tagString        = "String"
	tagVector        = "Vector"
	tagGameObject    = "GameObject"
	tagMaterial      = "Material"
	tagAnimationClip = "AnimationClip"
)

func (Null) MarshalJSON() ([]byte, error) { return marshalTagged("type", tagNull, "", nil) }

func (v List) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", tagList, "content", nonNilValues(v))
}

func (v Tuple) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", tagTuple, "content", nonNilValues(v))
}

func (v Boolean) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", tagBoolean, "content", bool(v))
}

func (v Integer) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", tagInteger, "content", int64(v))
}

func (v Float) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", tagFloat, "content", float64(v))
}

func (v String) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", tagString, "content", string(v))
}

func (v Vector) MarshalJSON() ([]byte, error) {
	if v == nil {
		v = Vector{}
	}
	return marshalTagged("type", tagVector, "content", []float64(v))
}

func (v GameObject) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", tagGameObject, "content", string(v))
}

func (v Material) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", tagMaterial, "content", string(v))
}

func (v AnimationClip) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", tagAnimationClip, "content", string(v))
}

func nonNilValues(vs []Value) []Value {
	if vs == nil {
		return []Value{}
	}
	return vs
}

// UnmarshalValue decodes a value written by Value.MarshalJSON.
func UnmarshalValue(data []byte) (Value, error) {
	typ, content, err := unmarshalTagged(data, "type", "content")
	if err != nil {
		return nil, err
	}
	switch typ {
	case tagNull:
		return Null{}, nil
	case tagList, tagTuple:
		var raws []json.RawMessage
		if err := json.Unmarshal(content, &raws); err != nil {
			return nil, fmt.Errorf("%s value: %w", typ, err)
		}
		items := make([]Value, len(raws))
		for i, raw := range raws {
			if items[i], err = UnmarshalValue(raw); err != nil {
				return nil, err
			}
		}
		if typ == tagTuple {
			return Tuple(items), nil
		}
		return List(items), nil
	case tagBoolean:
		var b bool
		err := json.Unmarshal(content, &b)
		return Boolean(b), wrapValueErr(typ, err)
	case tagInteger:
		var i int64
		err := json.Unmarshal(content, &i)
		return Integer(i), wrapValueErr(typ, err)
	case tagFloat:
		var f float64
		err := json.Unmarshal(content, &f)
		return Float(f), wrapValueErr(typ, err)
	case tagVector:
		v := []float64{}
		err := json.Unmarshal(content, &v)
		return Vector(v), wrapValueErr(typ, err)
	case tagString, tagGameObject, tagMaterial, tagAnimationClip:
		var s string
		if err := json.Unmarshal(content, &s); err != nil {
			return nil, wrapValueErr(typ, err)
		}
		switch typ {
		case tagGameObject:
			return GameObject(s), nil
		case tagMaterial:
			return Material(s), nil
		case tagAnimationClip:
			return AnimationClip(s), nil
		}
		return String(s), nil
	}
	return nil, fmt.Errorf("%w: value type %q", ErrUnknownVariant, typ)
}

func wrapValueErr(typ string, err error) error {
	if err != nil {
		return fmt.Errorf("%s value: %w", typ, err)
	}
	return nil
}
