// Copyright © 2024 The Declavatar authors

package ast

import "github.com/declavatar/declavatar/parser/token"

// FxControllerBlock holds the animation layers of the avatar.
type FxControllerBlock struct {
	Body   []Node
	Source *token.Location
}

// GroupLayerDecl selects one of its options by the value of an int
// parameter.
type GroupLayerDecl struct {
	Name        Expr
	DrivenBy    Expr
	DefaultMesh Expr // nil when not given
	Body        []Node
	Source      *token.Location
}

// SwitchLayerDecl turns its enabled option on with a bool parameter.
type SwitchLayerDecl struct {
	Name        Expr
	DrivenBy    Expr
	DefaultMesh Expr
	Body        []Node
	Source      *token.Location
}

// PuppetLayerDecl blends keyframes by the value of a float parameter.
type PuppetLayerDecl struct {
	Name        Expr
	DrivenBy    Expr
	DefaultMesh Expr
	Body        []Node
	Source      *token.Location
}

// RawLayerDecl is a state machine of animation clips.
type RawLayerDecl struct {
	Name    Expr
	Default Expr // initial state name; nil means the first state
	Body    []Node
	Source  *token.Location
}

type OptionKind int

const (
	OptionDefault   OptionKind = iota // group layer option used when no other matches
	OptionSelection                   // named group layer option
	OptionDisabled                    // switch layer, parameter off
	OptionEnabled                     // switch layer, parameter on
	OptionKeyframe                    // puppet layer keyframe
)

func (k OptionKind) String() string {
	switch k {
	case OptionDefault:
		return "default"
	case OptionSelection:
		return "selection"
	case OptionDisabled:
		return "disabled"
	case OptionEnabled:
		return "enabled"
	case OptionKeyframe:
		return "keyframe"
	default:
		return "unknown"
	}
}

// Active reports whether targets of the option default to their "on"
// values.
func (k OptionKind) Active() bool {
	return k != OptionDefault && k != OptionDisabled
}

// OptionDecl is an option of a group, switch or puppet layer.  Label is the
// option name of a selection or the position of a keyframe.
type OptionDecl struct {
	Kind   OptionKind
	Label  Expr // nil for default, disabled and enabled
	Value  Expr // :value of a selection, nil when not given
	Body   []Node
	Source *token.Location
}

type ShapeTargetDecl struct {
	Shape  Expr
	Value  Expr // nil when not given
	Mesh   Expr // nil when not given
	Source *token.Location
}

type ObjectTargetDecl struct {
	Object Expr
	Value  Expr
	Source *token.Location
}

type MaterialTargetDecl struct {
	Index  Expr
	Asset  Expr
	Mesh   Expr
	Source *token.Location
}

type DriveOp int

const (
	DriveSet DriveOp = iota
	DriveAdd
	DriveRandom
	DriveCopy
)

func (op DriveOp) String() string {
	switch op {
	case DriveSet:
		return "set-parameter"
	case DriveAdd:
		return "add-parameter"
	case DriveRandom:
		return "random-parameter"
	case DriveCopy:
		return "copy-parameter"
	default:
		return "unknown"
	}
}

// ParameterDriveDecl changes a parameter when its option becomes active.
// For copies Parameter is the source and Value the destination; Ranges
// holds the source and destination ranges when given.
type ParameterDriveDecl struct {
	Op        DriveOp
	Parameter Expr
	Value     Expr
	Ranges    []Expr
	Source    *token.Location
}

type LayerKind int

const (
	LayerGroup LayerKind = iota
	LayerSwitch
	LayerPuppet
	LayerRaw
)

func (k LayerKind) String() string {
	switch k {
	case LayerGroup:
		return "group"
	case LayerSwitch:
		return "switch"
	case LayerPuppet:
		return "puppet"
	case LayerRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// LayerDriveDecl sets the parameter driving another layer: the value of
// a group option, a switch state or a puppet position.
type LayerDriveDecl struct {
	Kind   LayerKind
	Layer  Expr
	Value  Expr // option name for groups; nil when not given
	Source *token.Location
}

type StateDecl struct {
	Name   Expr
	Body   []Node
	Source *token.Location
}

type ClipDecl struct {
	Asset  Expr
	Speed  Expr // nil when not given
	Source *token.Location
}

type TransitionDecl struct {
	Target   Expr
	Duration Expr // nil when not given
	Body     []Node
	Source   *token.Location
}

type CompareOp int

const (
	CompareEq CompareOp = iota
	CompareNe
	CompareGt
	CompareLt
	CompareZero
	CompareNonZero
)

// TransitionCondition is a parameter test of a transition.  Value is nil
// for CompareZero and CompareNonZero.
type TransitionCondition struct {
	Op        CompareOp
	Parameter Expr
	Value     Expr
	Source    *token.Location
}

func (n *FxControllerBlock) Pos() *token.Location   { return n.Source }
func (n *GroupLayerDecl) Pos() *token.Location      { return n.Source }
func (n *SwitchLayerDecl) Pos() *token.Location     { return n.Source }
func (n *PuppetLayerDecl) Pos() *token.Location     { return n.Source }
func (n *RawLayerDecl) Pos() *token.Location        { return n.Source }
func (n *OptionDecl) Pos() *token.Location          { return n.Source }
func (n *ShapeTargetDecl) Pos() *token.Location     { return n.Source }
func (n *ObjectTargetDecl) Pos() *token.Location    { return n.Source }
func (n *MaterialTargetDecl) Pos() *token.Location  { return n.Source }
func (n *ParameterDriveDecl) Pos() *token.Location  { return n.Source }
func (n *LayerDriveDecl) Pos() *token.Location      { return n.Source }
func (n *StateDecl) Pos() *token.Location           { return n.Source }
func (n *ClipDecl) Pos() *token.Location            { return n.Source }
func (n *TransitionDecl) Pos() *token.Location      { return n.Source }
func (n *TransitionCondition) Pos() *token.Location { return n.Source }

func (*FxControllerBlock) node()   {}
func (*GroupLayerDecl) node()      {}
func (*SwitchLayerDecl) node()     {}
func (*PuppetLayerDecl) node()     {}
func (*RawLayerDecl) node()        {}
func (*OptionDecl) node()          {}
func (*ShapeTargetDecl) node()     {}
func (*ObjectTargetDecl) node()    {}
func (*MaterialTargetDecl) node()  {}
func (*ParameterDriveDecl) node()  {}
func (*LayerDriveDecl) node()      {}
func (*StateDecl) node()           {}
func (*ClipDecl) node()            {}
func (*TransitionDecl) node()      {}
func (*TransitionCondition) node() {}
