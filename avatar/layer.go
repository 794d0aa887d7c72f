// Copyright © 2024 The Declavatar authors

package avatar

import "strconv"

// Layer is an animation layer of the FX controller.
type Layer struct {
	Name    string
	Content LayerContent
}

// LayerContent is one of GroupLayer, SwitchLayer, PuppetLayer or RawLayer.
type LayerContent interface {
	layerContent()
}

// GroupLayer applies the option whose value equals its int parameter, and
// the default option otherwise.
type GroupLayer struct {
	Parameter string
	Default   *GroupOption
	Options   []*GroupOption
}

// GroupOption is a group layer option.  The default option has value 0
// and no name.
type GroupOption struct {
	Name    string
	Value   uint8
	Targets []Target
}

type SwitchLayer struct {
	Parameter string
	Disabled  []Target
	Enabled   []Target
}

type PuppetLayer struct {
	Parameter string
	Keyframes []*PuppetKeyframe
}

// PuppetKeyframe holds the targets reached at Position, in 0..1.
type PuppetKeyframe struct {
	Position float64
	Targets  []Target
}

// RawLayer is a state machine.  Default indexes States.
type RawLayer struct {
	Default int
	States  []*RawState
}

type RawState struct {
	Name        string
	Clip        string // animation asset key
	Speed       float64
	Transitions []*Transition
}

// Transition moves to States[Target] when every condition holds.
type Transition struct {
	Target     int
	Duration   float64
	Conditions []Condition
}

func (*GroupLayer) layerContent()  {}
func (*SwitchLayer) layerContent() {}
func (*PuppetLayer) layerContent() {}
func (*RawLayer) layerContent()    {}

// Target is a ShapeTarget, ObjectTarget, MaterialTarget or DriveTarget.
type Target interface {
	// DrivingKey identifies what the target changes.  Two targets of one
	// option never share a key.
	DrivingKey() string
}

type ShapeTarget struct {
	Mesh  string  `json:"mesh"`
	Shape string  `json:"shape"`
	Value float64 `json:"value"`
}

type ObjectTarget struct {
	Object string `json:"object"`
	Value  bool   `json:"value"`
}

type MaterialTarget struct {
	Mesh  string `json:"mesh"`
	Index int    `json:"index"`
	Asset string `json:"asset"`
}

// DriveTarget changes a parameter.
type DriveTarget struct {
	Drive ParameterDrive
}

func (t *ShapeTarget) DrivingKey() string  { return "shape://" + t.Mesh + "/" + t.Shape }
func (t *ObjectTarget) DrivingKey() string { return "object://" + t.Object }
func (t *MaterialTarget) DrivingKey() string {
	return "material://" + t.Mesh + "/" + strconv.Itoa(t.Index)
}
func (t *DriveTarget) DrivingKey() string { return "parameter://" + t.Drive.Parameter }

type DriveKind int

const (
	DriveSetInt DriveKind = iota
	DriveSetFloat
	DriveSetBool
	DriveAddInt
	DriveAddFloat
	DriveRandomInt
	DriveRandomFloat
	DriveRandomBool
	DriveCopy
	DriveRangedCopy
)

var driveKindNames = [...]string{
	DriveSetInt:      "SetInt",
	DriveSetFloat:    "SetFloat",
	DriveSetBool:     "SetBool",
	DriveAddInt:      "AddInt",
	DriveAddFloat:    "AddFloat",
	DriveRandomInt:   "RandomInt",
	DriveRandomFloat: "RandomFloat",
	DriveRandomBool:  "RandomBool",
	DriveCopy:        "Copy",
	DriveRangedCopy:  "RangedCopy",
}

func (k DriveKind) String() string {
	if k < 0 || int(k) >= len(driveKindNames) {
		return "unknown"
	}
	return driveKindNames[k]
}

// ParameterDrive changes Parameter.  The fields used depend on Kind:
//
//	SetInt, SetFloat, AddInt, AddFloat  Value
//	SetBool                             Bool
//	RandomInt, RandomFloat              Range
//	RandomBool                          Value (chance of true)
//	Copy                                Source
//	RangedCopy                          Source, Range, ToRange
type ParameterDrive struct {
	Kind      DriveKind
	Parameter string
	Source    string
	Value     float64
	Bool      bool
	Range     [2]float64
	ToRange   [2]float64
}

type ConditionKind int

const (
	CondBe ConditionKind = iota
	CondNot
	CondEqInt
	CondNeqInt
	CondGtInt
	CondLtInt
	CondGtFloat
	CondLtFloat
)

var conditionKindNames = [...]string{
	CondBe:      "Be",
	CondNot:     "Not",
	CondEqInt:   "EqInt",
	CondNeqInt:  "NeqInt",
	CondGtInt:   "GtInt",
	CondLtInt:   "LtInt",
	CondGtFloat: "GtFloat",
	CondLtFloat: "LtFloat",
}

func (k ConditionKind) String() string {
	if k < 0 || int(k) >= len(conditionKindNames) {
		return "unknown"
	}
	return conditionKindNames[k]
}

// Condition tests a parameter.  Value is unused by CondBe and CondNot.
type Condition struct {
	Kind      ConditionKind
	Parameter string
	Value     float64
}
