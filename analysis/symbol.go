// Copyright © 2024 The Declavatar authors

package analysis

import (
	"github.com/declavatar/declavatar/avatar"
	"github.com/declavatar/declavatar/parser/token"
)

// SymbolKind classifies a declaration made in an avatar.
type SymbolKind int

const (
	SymParameter SymbolKind = iota // parameters block entry
	SymAsset                       // assets block entry
	SymGate                        // exported gate
)

func (k SymbolKind) String() string {
	switch k {
	case SymParameter:
		return "parameter"
	case SymAsset:
		return "asset"
	case SymGate:
		return "gate"
	default:
		return "unknown"
	}
}

// Symbol is a named declaration of the avatar.  References counts the
// menu controls, guards, layers and conditions using it.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	Source     *token.Location
	References int

	Parameter *avatar.Parameter // SymParameter only
	Asset     *avatar.Asset     // SymAsset only
}

// table holds the declarations of one avatar by kind and name, in
// declaration order.
type table struct {
	byKind map[SymbolKind]map[string]*Symbol
	order  []*Symbol
}

func newTable() *table {
	return &table{byKind: make(map[SymbolKind]map[string]*Symbol)}
}

// Define adds sym unless a symbol of the same kind and name exists, in which
// case the existing symbol is returned with false.
func (t *table) Define(sym *Symbol) (*Symbol, bool) {
	names, ok := t.byKind[sym.Kind]
	if !ok {
		names = make(map[string]*Symbol)
		t.byKind[sym.Kind] = names
	}
	if prev, ok := names[sym.Name]; ok {
		return prev, false
	}
	names[sym.Name] = sym
	t.order = append(t.order, sym)
	return sym, true
}

// Lookup returns the symbol of kind named name, or nil.
func (t *table) Lookup(kind SymbolKind, name string) *Symbol {
	return t.byKind[kind][name]
}

// Symbols returns the symbols in declaration order.
func (t *table) Symbols() []*Symbol {
	return append([]*Symbol(nil), t.order...)
}
