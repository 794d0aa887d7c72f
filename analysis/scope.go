// Copyright © 2024 The Declavatar authors

package analysis

// ScopeKind classifies the declaration that opened a scope.
type ScopeKind int

const (
	ScopeDocument     ScopeKind = iota // top level of a document
	ScopeAvatar                        // avatar body
	ScopeParameters                    // parameters block
	ScopeAssets                        // assets block
	ScopeExports                       // exports block
	ScopeMenu                          // menu block or submenu
	ScopeControl                       // a single menu control
	ScopeAttachments                   // attachments block
	ScopeAttachment                    // attachment body
	ScopeProperty                      // attachment property
	ScopeFxController                  // fx-controller block
	ScopeLayer                         // a single animation layer
	ScopeOption                        // layer option or keyframe
	ScopeState                         // raw layer state
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeDocument:
		return "document"
	case ScopeAvatar:
		return "avatar"
	case ScopeParameters:
		return "parameters"
	case ScopeAssets:
		return "assets"
	case ScopeExports:
		return "exports"
	case ScopeMenu:
		return "menu"
	case ScopeControl:
		return "control"
	case ScopeAttachments:
		return "attachments"
	case ScopeAttachment:
		return "attachment"
	case ScopeProperty:
		return "property"
	case ScopeFxController:
		return "fx-controller"
	case ScopeLayer:
		return "layer"
	case ScopeOption:
		return "option"
	case ScopeState:
		return "state"
	default:
		return "unknown"
	}
}

// Scope is a node of the declaration nesting.  Label names the declaration
// in diagnostics; an empty label is left out of the context chain.
type Scope struct {
	Kind   ScopeKind
	Label  string
	Parent *Scope
}

// NewScope creates a scope of the given kind nested in parent.
func NewScope(kind ScopeKind, parent *Scope, label string) *Scope {
	return &Scope{Kind: kind, Label: label, Parent: parent}
}

// Child returns a scope nested in s.
func (s *Scope) Child(kind ScopeKind, label string) *Scope {
	return NewScope(kind, s, label)
}

// Context returns the labels from the outermost scope to s.
func (s *Scope) Context() []string {
	var labels []string
	for scope := s; scope != nil; scope = scope.Parent {
		if scope.Label != "" {
			labels = append(labels, scope.Label)
		}
	}
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return labels
}

// Enclosing returns the nearest scope of kind, starting at s.
func (s *Scope) Enclosing(kind ScopeKind) *Scope {
	for scope := s; scope != nil; scope = scope.Parent {
		if scope.Kind == kind {
			return scope
		}
	}
	return nil
}
