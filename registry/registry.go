// Copyright © 2024 The Declavatar authors

// Package registry holds the symbols, localizations and attachment schemas
// registered on a compiler instance.
//
// Names and keys are normalized to Unicode NFC, so differently composed
// spellings of the same text refer to the same entry.  Registries are not
// safe for concurrent use.
package registry

import (
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/declavatar/declavatar/schema"
)

// Normalize returns the NFC form of s.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// Symbols is a set of defined symbol names.
type Symbols struct {
	names map[string]struct{}
}

func NewSymbols() *Symbols {
	return &Symbols{names: make(map[string]struct{})}
}

// Define adds name to the set.  It reports whether name was not yet
// defined.
func (s *Symbols) Define(name string) bool {
	name = Normalize(name)
	if _, ok := s.names[name]; ok {
		return false
	}
	s.names[name] = struct{}{}
	return true
}

func (s *Symbols) Has(name string) bool {
	_, ok := s.names[Normalize(name)]
	return ok
}

func (s *Symbols) Len() int {
	return len(s.names)
}

// Names returns the defined names in sorted order.
func (s *Symbols) Names() []string {
	return sortedKeys(s.names)
}

func (s *Symbols) Clear() {
	clear(s.names)
}

// Localizations maps localization keys to text.
type Localizations struct {
	entries map[string]string
}

func NewLocalizations() *Localizations {
	return &Localizations{entries: make(map[string]string)}
}

// Define sets the text of key.  A later definition replaces an earlier one;
// the result reports whether that happened.
func (l *Localizations) Define(key, value string) (replaced bool) {
	key = Normalize(key)
	_, replaced = l.entries[key]
	l.entries[key] = value
	return replaced
}

func (l *Localizations) Lookup(key string) (string, bool) {
	v, ok := l.entries[Normalize(key)]
	return v, ok
}

func (l *Localizations) Has(key string) bool {
	_, ok := l.Lookup(key)
	return ok
}

func (l *Localizations) Len() int {
	return len(l.entries)
}

// Keys returns the defined keys in sorted order.
func (l *Localizations) Keys() []string {
	return sortedKeys(l.entries)
}

func (l *Localizations) Clear() {
	clear(l.entries)
}

// Schemas holds attachment schemas by name.
type Schemas struct {
	schemas map[string]*schema.Attachment
}

func NewSchemas() *Schemas {
	return &Schemas{schemas: make(map[string]*schema.Attachment)}
}

// Register adds a validated schema.  A schema with the same name is
// replaced; the result reports whether that happened.
func (s *Schemas) Register(a *schema.Attachment) (replaced bool) {
	name := Normalize(a.Name)
	_, replaced = s.schemas[name]
	s.schemas[name] = a
	return replaced
}

func (s *Schemas) Get(name string) (*schema.Attachment, bool) {
	a, ok := s.schemas[Normalize(name)]
	return a, ok
}

func (s *Schemas) Len() int {
	return len(s.schemas)
}

// Names returns the registered schema names in sorted order.
func (s *Schemas) Names() []string {
	return sortedKeys(s.schemas)
}

func (s *Schemas) Clear() {
	clear(s.schemas)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
