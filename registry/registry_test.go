// Copyright © 2024 The Declavatar authors

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/declavatar/declavatar/schema"
)

const (
	composed   = "caf\u00e9"
	decomposed = "cafe\u0301"
)

func TestSymbols(t *testing.T) {
	s := NewSymbols()
	assert.True(t, s.Define("out-of-unity"))
	assert.False(t, s.Define("out-of-unity"))
	assert.True(t, s.Define(composed))
	assert.False(t, s.Define(decomposed))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(decomposed))
	assert.False(t, s.Has("other"))
	assert.Equal(t, []string{composed, "out-of-unity"}, s.Names())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Names())
}

func TestLocalizations(t *testing.T) {
	l := NewLocalizations()
	assert.False(t, l.Define("menu.hat", "Hat"))
	assert.True(t, l.Define("menu.hat", "Cap"))
	assert.False(t, l.Define(decomposed, "coffee"))
	assert.Equal(t, 2, l.Len())

	v, ok := l.Lookup("menu.hat")
	assert.True(t, ok)
	assert.Equal(t, "Cap", v)
	assert.True(t, l.Has(composed))
	_, ok = l.Lookup("menu.missing")
	assert.False(t, ok)
	assert.Equal(t, []string{composed, "menu.hat"}, l.Keys())

	l.Clear()
	assert.False(t, l.Has("menu.hat"))
}

func TestSchemas(t *testing.T) {
	s := NewSchemas()
	first := &schema.Attachment{Name: "PhysBoneExt"}
	second := &schema.Attachment{Name: "PhysBoneExt"}
	assert.False(t, s.Register(first))
	assert.True(t, s.Register(second))
	assert.False(t, s.Register(&schema.Attachment{Name: "Blink"}))
	assert.Equal(t, 2, s.Len())

	got, ok := s.Get("PhysBoneExt")
	assert.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, []string{"Blink", "PhysBoneExt"}, s.Names())

	s.Clear()
	_, ok = s.Get("Blink")
	assert.False(t, ok)
}
