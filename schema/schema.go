// Copyright © 2024 The Declavatar authors

// Package schema describes arbitrary attachments: the properties an
// attachment accepts and the types of their values.
//
// Schemas are written in the same declarative syntax as avatar sources
// (see Parse) or as JSON (see ParseJSON).  Both are validated when parsed,
// so a registered schema is always well formed.
package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSchema is wrapped by every error describing a malformed schema.
var ErrInvalidSchema = errors.New("invalid attachment schema")

// Kind enumerates the value types.
type Kind int

const (
	KindAny Kind = iota
	KindOneOf
	KindList
	KindTuple
	KindMap
	KindNull
	KindBoolean
	KindInteger
	KindFloat
	KindString
	KindVector
	KindGameObject
	KindMaterial
	KindAnimationClip
	numKinds
)

// kindInfo holds the keyword used in schema sources, the name used in
// messages and the JSON tag of each kind.
var kindInfo = [numKinds]struct {
	keyword string
	name    string
	tag     string
}{
	KindAny:           {"any", "any", "Any"},
	KindOneOf:         {"one-of", "one-of", "OneOf"},
	KindList:          {"list", "list", "List"},
	KindTuple:         {"tuple", "tuple", "Tuple"},
	KindMap:           {"map", "map", "Map"},
	KindNull:          {"null", "null", "Null"},
	KindBoolean:       {"boolean", "boolean", "Boolean"},
	KindInteger:       {"integer", "integer", "Integer"},
	KindFloat:         {"float", "float", "Float"},
	KindString:        {"string", "string", "String"},
	KindVector:        {"vector", "vector", "Vector"},
	KindGameObject:    {"game-object", "game object", "GameObject"},
	KindMaterial:      {"material", "material", "Material"},
	KindAnimationClip: {"animation-clip", "animation clip", "AnimationClip"},
}

func (k Kind) valid() bool {
	return k >= 0 && k < numKinds
}

// Keyword returns the name of k in schema sources.
func (k Kind) Keyword() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindInfo[k].keyword
}

func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindInfo[k].name
}

// Type is a value type.  Elems holds the element type of a list, the item
// types of a tuple, the alternatives of a one-of and the key and value types
// of a map.  Len is the length of a vector.
type Type struct {
	Kind  Kind
	Elems []*Type
	Len   int
}

// Simple returns a type without parameters.
func Simple(kind Kind) *Type { return &Type{Kind: kind} }

func ListOf(elem *Type) *Type      { return &Type{Kind: KindList, Elems: []*Type{elem}} }
func TupleOf(items ...*Type) *Type { return &Type{Kind: KindTuple, Elems: items} }
func OneOf(alts ...*Type) *Type    { return &Type{Kind: KindOneOf, Elems: alts} }
func MapOf(key, value *Type) *Type { return &Type{Kind: KindMap, Elems: []*Type{key, value}} }
func VectorOf(n int) *Type         { return &Type{Kind: KindVector, Len: n} }

// Name returns the name of the type used in diagnostics.
func (t *Type) Name() string {
	return t.Kind.String()
}

// String renders t in schema source syntax.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindVector:
		return "(vector " + strconv.Itoa(t.Len) + ")"
	case KindList, KindTuple, KindOneOf, KindMap:
		parts := []string{t.Kind.Keyword()}
		for _, e := range t.Elems {
			parts = append(parts, e.String())
		}
		return "(" + strings.Join(parts, " ") + ")"
	}
	return t.Kind.Keyword()
}

func (t *Type) validate(path string) error {
	if t == nil || !t.Kind.valid() {
		return invalidf("%s: missing or unknown type", path)
	}
	var errs []error
	switch t.Kind {
	case KindMap:
		errs = append(errs, invalidf("%s: map values are not supported", path))
	case KindVector:
		if t.Len <= 0 {
			errs = append(errs, invalidf("%s: vector length must be positive, got %d", path, t.Len))
		}
	case KindList:
		if len(t.Elems) != 1 {
			errs = append(errs, invalidf("%s: list takes exactly one element type", path))
		}
	case KindTuple, KindOneOf:
		if len(t.Elems) == 0 {
			errs = append(errs, invalidf("%s: %s needs at least one type", path, t.Kind.Keyword()))
		}
	}
	for _, e := range t.Elems {
		errs = append(errs, e.validate(path))
	}
	return errors.Join(errs...)
}

// Attachment is the schema of one kind of attachment.
type Attachment struct {
	Name       string      `json:"name"`
	Properties []*Property `json:"properties"`
}

type Property struct {
	Name       string       `json:"name"`
	Required   bool         `json:"required"`
	Deprecated bool         `json:"deprecated,omitempty"`
	Parameters []*Parameter `json:"parameters"`
	Keywords   []*Keyword   `json:"keywords"`
}

// Parameter is a positional value of a property.
type Parameter struct {
	Name string `json:"name"`
	Type *Type  `json:"value_type"`
}

// Keyword is a named value of a property.
type Keyword struct {
	Name       string `json:"name"`
	Required   bool   `json:"required"`
	Deprecated bool   `json:"deprecated,omitempty"`
	Type       *Type  `json:"value_type"`
}

// Property returns the property named name.
func (a *Attachment) Property(name string) (*Property, bool) {
	for _, p := range a.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Keyword returns the keyword named name.  Hyphens and underscores are
// equivalent in keyword names.
func (p *Property) Keyword(name string) (*Keyword, bool) {
	name = normalizeKeyword(name)
	for _, k := range p.Keywords {
		if normalizeKeyword(k.Name) == name {
			return k, true
		}
	}
	return nil, false
}

func normalizeKeyword(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// Validate reports every problem of a, joined into one error.  Each of them
// wraps ErrInvalidSchema.
func (a *Attachment) Validate() error {
	var errs []error
	if a.Name == "" {
		errs = append(errs, invalidf("attachment name is empty"))
	}
	props := make(map[string]bool)
	for i, p := range a.Properties {
		if p == nil {
			errs = append(errs, invalidf("property %d is missing", i))
			continue
		}
		path := fmt.Sprintf("property %q", p.Name)
		switch {
		case p.Name == "":
			errs = append(errs, invalidf("property %d has an empty name", i))
		case props[p.Name]:
			errs = append(errs, invalidf("%s is defined more than once", path))
		}
		props[p.Name] = true
		errs = append(errs, p.validate(path))
	}
	return errors.Join(errs...)
}

func (p *Property) validate(path string) error {
	var errs []error
	names := make(map[string]bool)
	for i, param := range p.Parameters {
		if param == nil {
			errs = append(errs, invalidf("%s: parameter %d is missing", path, i))
			continue
		}
		ppath := fmt.Sprintf("%s parameter %q", path, param.Name)
		switch {
		case param.Name == "":
			errs = append(errs, invalidf("%s: parameter %d has an empty name", path, i))
		case names[param.Name]:
			errs = append(errs, invalidf("%s is defined more than once", ppath))
		}
		names[param.Name] = true
		errs = append(errs, param.Type.validate(ppath))
	}
	keywords := make(map[string]bool)
	for i, kw := range p.Keywords {
		if kw == nil {
			errs = append(errs, invalidf("%s: keyword %d is missing", path, i))
			continue
		}
		kpath := fmt.Sprintf("%s keyword %q", path, kw.Name)
		name := normalizeKeyword(kw.Name)
		switch {
		case kw.Name == "":
			errs = append(errs, invalidf("%s: keyword %d has an empty name", path, i))
		case keywords[name]:
			errs = append(errs, invalidf("%s is defined more than once", kpath))
		}
		keywords[name] = true
		errs = append(errs, kw.Type.validate(kpath))
	}
	return errors.Join(errs...)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidSchema}, args...)...)
}
