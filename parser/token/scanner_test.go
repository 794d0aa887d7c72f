// Copyright © 2024 The Declavatar authors

package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerEOF(t *testing.T) {
	s := NewScanner("", []byte("xyz"))
	for i := 0; i < 3; i++ {
		require.NoError(t, s.ScanRune())
	}
	assert.True(t, s.EOF())
	assert.Error(t, s.ScanRune())
	_, ok := s.Peek()
	assert.False(t, ok)
	tok := s.EmitToken(SYMBOL)
	assert.Equal(t, "xyz", tok.Text)
}

func TestScannerAcceptSeq(t *testing.T) {
	s := NewScanner("", []byte("xxxxxxxxxx"))
	assert.Equal(t, 10, s.AcceptSeq(func(c rune) bool { return true }))
	s.Ignore()
	assert.False(t, s.Accept(func(c rune) bool { return true }))
	assert.True(t, s.EOF())
}

func TestScannerInvalidUTF8(t *testing.T) {
	s := NewScanner("", []byte{'a', 0xff})
	require.NoError(t, s.ScanRune())
	_, ok := s.Peek()
	assert.False(t, ok)
	assert.Error(t, s.ScanRune())
}

func TestScannerLocations(t *testing.T) {
	s := NewScanner("test", []byte("ab\n  cdéf"))
	s.AcceptSeq(func(c rune) bool { return c != '\n' })
	tok := s.EmitToken(SYMBOL)
	assert.Equal(t, "ab", tok.Text)
	assert.Equal(t, Location{File: "test", Pos: 0, Line: 1, Col: 1}, *tok.Source)

	assert.True(t, s.AcceptRune('\n'))
	assert.Equal(t, 1, s.Loc().Line)
	assert.Equal(t, 2, s.AcceptSeqSpace())
	s.Ignore()

	n, ok := s.AcceptString("cdé")
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	tok = s.EmitToken(SYMBOL)
	assert.Equal(t, Location{File: "test", Pos: 5, Line: 2, Col: 3}, *tok.Source)
	assert.Equal(t, 2, s.Loc().Line)
	assert.Equal(t, 5, s.Loc().Col)

	assert.True(t, s.AcceptAny("fg"))
	assert.Equal(t, 'f', s.Rune())
	assert.True(t, s.EOF())
}

func TestScannerAcceptStringPartial(t *testing.T) {
	s := NewScanner("", []byte(`""x`))
	n, ok := s.AcceptString(`"""`)
	assert.False(t, ok)
	assert.Equal(t, 2, n)
}
