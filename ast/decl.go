// Copyright © 2024 The Declavatar authors

package ast

import "github.com/declavatar/declavatar/parser/token"

// Node is a declaration.  Values inside declarations stay Expr so that
// symbol references and localization calls are resolved during analysis.
type Node interface {
	Pos() *token.Location
	node()
}

// Document is the root of a parsed source, with includes spliced in.
type Document struct {
	File  string
	Nodes []Node
}

type VersionDecl struct {
	Version Expr
	Source  *token.Location
}

type AvatarDecl struct {
	Name   Expr
	Body   []Node
	Source *token.Location
}

// ConditionalDecl keeps Body only when Condition holds (or does not hold,
// when Negate is set).
type ConditionalDecl struct {
	Negate    bool
	Condition Condition
	Body      []Node
	Source    *token.Location
}

// Condition is the test of a ConditionalDecl.
type Condition interface {
	condition()
}

// Defined holds when a symbol named Name is registered.
type Defined struct {
	Name string
}

// Localized holds when a localization for Key is registered.
type Localized struct {
	Key string
}

func (*Defined) condition()   {}
func (*Localized) condition() {}

type ParametersBlock struct {
	Body   []Node
	Source *token.Location
}

type ParamType int

const (
	ParamInt ParamType = iota
	ParamFloat
	ParamBool
)

func (t ParamType) String() string {
	switch t {
	case ParamInt:
		return "int"
	case ParamFloat:
		return "float"
	case ParamBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Scope names of a parameter.  An empty scope means the default.
const (
	ScopeInternal = "internal"
	ScopeLocal    = "local"
	ScopeSynced   = "synced"
)

type ParameterDecl struct {
	Type    ParamType
	Name    Expr
	Default Expr // nil when not given
	Scope   string
	Save    bool
	Unique  bool
	Source  *token.Location
}

type AssetsBlock struct {
	Body   []Node
	Source *token.Location
}

type AssetKind int

const (
	AssetMaterial AssetKind = iota
	AssetAnimation
)

func (k AssetKind) String() string {
	if k == AssetAnimation {
		return "animation"
	}
	return "material"
}

type AssetDecl struct {
	Kind   AssetKind
	Key    Expr
	Source *token.Location
}

type ExportsBlock struct {
	Body   []Node
	Source *token.Location
}

type GateDecl struct {
	Name   Expr
	Source *token.Location
}

type GuardDecl struct {
	Gate      Expr
	Parameter Expr
	Source    *token.Location
}

type MenuBlock struct {
	Body   []Node
	Source *token.Location
}

type SubMenuDecl struct {
	Name   Expr
	Body   []Node
	Source *token.Location
}

// BooleanControlDecl is a toggle, or a button when Hold is set.
type BooleanControlDecl struct {
	Hold      bool
	Name      Expr
	Parameter Expr
	Value     Expr // nil when not given
	Source    *token.Location
}

type RadialDecl struct {
	Name      Expr
	Parameter Expr
	Source    *token.Location
}

// AxisDecl binds a puppet axis to a parameter.  Negative is only used by
// two-axis controls.
type AxisDecl struct {
	Parameter Expr
	Positive  Expr
	Negative  Expr
	Source    *token.Location
}

type TwoAxisDecl struct {
	Name       Expr
	Horizontal *AxisDecl
	Vertical   *AxisDecl
	Source     *token.Location
}

type FourAxisDecl struct {
	Name   Expr
	Left   *AxisDecl
	Right  *AxisDecl
	Up     *AxisDecl
	Down   *AxisDecl
	Source *token.Location
}

type AttachmentsBlock struct {
	Target Expr // nil when not given
	Body   []Node
	Source *token.Location
}

type AttachmentDecl struct {
	Name   Expr
	Body   []Node
	Source *token.Location
}

type PropertyDecl struct {
	Name     Expr
	Args     []Expr
	Keywords []*KeywordArg
	Source   *token.Location
}

func (n *VersionDecl) Pos() *token.Location        { return n.Source }
func (n *AvatarDecl) Pos() *token.Location         { return n.Source }
func (n *ConditionalDecl) Pos() *token.Location    { return n.Source }
func (n *ParametersBlock) Pos() *token.Location    { return n.Source }
func (n *ParameterDecl) Pos() *token.Location      { return n.Source }
func (n *AssetsBlock) Pos() *token.Location        { return n.Source }
func (n *AssetDecl) Pos() *token.Location          { return n.Source }
func (n *ExportsBlock) Pos() *token.Location       { return n.Source }
func (n *GateDecl) Pos() *token.Location           { return n.Source }
func (n *GuardDecl) Pos() *token.Location          { return n.Source }
func (n *MenuBlock) Pos() *token.Location          { return n.Source }
func (n *SubMenuDecl) Pos() *token.Location        { return n.Source }
func (n *BooleanControlDecl) Pos() *token.Location { return n.Source }
func (n *RadialDecl) Pos() *token.Location         { return n.Source }
func (n *AxisDecl) Pos() *token.Location           { return n.Source }
func (n *TwoAxisDecl) Pos() *token.Location        { return n.Source }
func (n *FourAxisDecl) Pos() *token.Location       { return n.Source }
func (n *AttachmentsBlock) Pos() *token.Location   { return n.Source }
func (n *AttachmentDecl) Pos() *token.Location     { return n.Source }
func (n *PropertyDecl) Pos() *token.Location       { return n.Source }

func (*VersionDecl) node()        {}
func (*AvatarDecl) node()         {}
func (*ConditionalDecl) node()    {}
func (*ParametersBlock) node()    {}
func (*ParameterDecl) node()      {}
func (*AssetsBlock) node()        {}
func (*AssetDecl) node()          {}
func (*ExportsBlock) node()       {}
func (*GateDecl) node()           {}
func (*GuardDecl) node()          {}
func (*MenuBlock) node()          {}
func (*SubMenuDecl) node()        {}
func (*BooleanControlDecl) node() {}
func (*RadialDecl) node()         {}
func (*AxisDecl) node()           {}
func (*TwoAxisDecl) node()        {}
func (*FourAxisDecl) node()       {}
func (*AttachmentsBlock) node()   {}
func (*AttachmentDecl) node()     {}
func (*PropertyDecl) node()       {}
