// Copyright © 2024 The Declavatar authors

// Package avatar defines the compiled avatar definition and its JSON
// encoding.
//
// The encoding is deterministic: struct fields are emitted in declaration
// order, keyword maps with sorted keys and empty collections as [] or {}.
// Variants are written as {"type": ..., "content": ...} objects and decode
// back to the same Go values.
package avatar

// Avatar is the result of a successful compile.  It is never modified after
// construction.
type Avatar struct {
	Version      string        `json:"version"`
	Name         string        `json:"name"`
	Parameters   []*Parameter  `json:"parameters"`
	Assets       []*Asset      `json:"assets"`
	Exports      []ExportItem  `json:"exports"`
	FXController []*Layer      `json:"fx_controller"`
	MenuItems    []MenuItem    `json:"menu_items"`
	Attachments  []*Attachment `json:"attachments"`
}

// New returns an empty avatar with non-nil collections.
func New() *Avatar {
	return &Avatar{
		Parameters:   []*Parameter{},
		Assets:       []*Asset{},
		Exports:      []ExportItem{},
		FXController: []*Layer{},
		MenuItems:    []MenuItem{},
		Attachments:  []*Attachment{},
	}
}

// Parameter returns the declared parameter named name.
func (a *Avatar) Parameter(name string) (*Parameter, bool) {
	for _, p := range a.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

type ParameterKind int

const (
	ParameterInt ParameterKind = iota
	ParameterFloat
	ParameterBool
)

var parameterKindNames = [...]string{
	ParameterInt:   "int",
	ParameterFloat: "float",
	ParameterBool:  "bool",
}

func (k ParameterKind) String() string {
	if k < 0 || int(k) >= len(parameterKindNames) {
		return "unknown"
	}
	return parameterKindNames[k]
}

// ParameterValue is a typed parameter value.  Only the field matching Kind
// is meaningful.
type ParameterValue struct {
	Kind  ParameterKind
	Int   uint8
	Float float64
	Bool  bool
}

func IntValue(v uint8) ParameterValue     { return ParameterValue{Kind: ParameterInt, Int: v} }
func FloatValue(v float64) ParameterValue { return ParameterValue{Kind: ParameterFloat, Float: v} }
func BoolValue(v bool) ParameterValue     { return ParameterValue{Kind: ParameterBool, Bool: v} }

type ScopeKind int

const (
	ScopeInternal ScopeKind = iota
	ScopeLocal
	ScopeSynced
)

var scopeKindNames = [...]string{
	ScopeInternal: "internal",
	ScopeLocal:    "local",
	ScopeSynced:   "synced",
}

func (k ScopeKind) String() string {
	if k < 0 || int(k) >= len(scopeKindNames) {
		return "unknown"
	}
	return scopeKindNames[k]
}

// Scope tells where a parameter is visible.  Save is always false for
// internal parameters.
type Scope struct {
	Kind ScopeKind
	Save bool
}

type Parameter struct {
	Name            string         `json:"name"`
	ValueType       ParameterValue `json:"value_type"`
	Scope           Scope          `json:"scope"`
	Unique          bool           `json:"unique"`
	ExplicitDefault bool           `json:"explicit_default"`
}

type AssetType int

const (
	AssetMaterial AssetType = iota
	AssetAnimation
)

func (t AssetType) String() string {
	if t == AssetAnimation {
		return "animation"
	}
	return "material"
}

type Asset struct {
	Type AssetType `json:"asset_type"`
	Key  string    `json:"key"`
}

// ExportItem is a Gate or a Guard.
type ExportItem interface {
	exportItem()
}

type Gate struct {
	Name string `json:"name"`
}

type Guard struct {
	Gate      string `json:"gate"`
	Parameter string `json:"parameter"`
}

func (*Gate) exportItem()  {}
func (*Guard) exportItem() {}

// MenuItem is one of SubMenu, Button, Toggle, Radial, TwoAxis or FourAxis.
type MenuItem interface {
	menuItem()
}

type SubMenu struct {
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

type Button struct {
	Name      string         `json:"name"`
	Parameter string         `json:"parameter"`
	Value     ParameterValue `json:"value"`
}

type Toggle struct {
	Name      string         `json:"name"`
	Parameter string         `json:"parameter"`
	Value     ParameterValue `json:"value"`
}

type Radial struct {
	Name      string `json:"name"`
	Parameter string `json:"parameter"`
}

type TwoAxis struct {
	Name       string `json:"name"`
	Horizontal BiAxis `json:"horizontal_axis"`
	Vertical   BiAxis `json:"vertical_axis"`
}

type FourAxis struct {
	Name  string  `json:"name"`
	Left  UniAxis `json:"left_axis"`
	Right UniAxis `json:"right_axis"`
	Up    UniAxis `json:"up_axis"`
	Down  UniAxis `json:"down_axis"`
}

type BiAxis struct {
	Parameter     string `json:"parameter"`
	LabelPositive string `json:"label_positive"`
	LabelNegative string `json:"label_negative"`
}

type UniAxis struct {
	Parameter string `json:"parameter"`
	Label     string `json:"label"`
}

func (*SubMenu) menuItem()  {}
func (*Button) menuItem()   {}
func (*Toggle) menuItem()   {}
func (*Radial) menuItem()   {}
func (*TwoAxis) menuItem()  {}
func (*FourAxis) menuItem() {}

// Attachment is an arbitrary attachment validated against a registered
// schema.  Target is the object path given to the enclosing attachments
// block, or "".
type Attachment struct {
	Target     string      `json:"target"`
	Name       string      `json:"name"`
	Properties []*Property `json:"properties"`
}

type Property struct {
	Name       string           `json:"name"`
	Parameters []Value          `json:"parameters"`
	Keywords   map[string]Value `json:"keywords"`
}
