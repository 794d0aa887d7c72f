// Copyright © 2024 The Declavatar authors

package compiletest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declavatar/declavatar/parser"
)

func TestParseFixture(t *testing.T) {
	src := `; plain comment
;; define: a b
; localize: menu.hat = Hat = Cap
; diag: symbol.undefined

; avatar: {"name": "x"}
(avatar x)
; diag: ignored.after.code
`
	f, err := ParseFixture([]byte(src), parser.FormatSexpr)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, f.Symbols)
	assert.Equal(t, map[string]string{"menu.hat": "Hat = Cap"}, f.Localizations)
	assert.Equal(t, []string{"symbol.undefined"}, f.Diagnostics)
	assert.Equal(t, json.RawMessage(`"x"`), f.Avatar["name"])

	f, err = ParseFixture([]byte("-- diag: a.b\navatar \"x\" {}\n"), parser.FormatScript)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.b"}, f.Diagnostics)

	_, err = ParseFixture([]byte("; localize: nope\n"), parser.FormatSexpr)
	assert.ErrorContains(t, err, "line 1")
	_, err = ParseFixture([]byte("; avatar: {\n"), parser.FormatSexpr)
	assert.Error(t, err)
}

type recorder struct {
	testing.TB
	lines []string
}

func (r *recorder) Log(args ...any) {
	for _, a := range args {
		r.lines = append(r.lines, a.(string))
	}
}

func TestLogger(t *testing.T) {
	rec := &recorder{TB: t}
	log := NewLogger(rec)
	_, err := log.Write([]byte("one\ntw"))
	require.NoError(t, err)
	_, err = log.Write([]byte("o\nthree"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, rec.lines)
	log.Flush()
	assert.Equal(t, []string{"one", "two", "three"}, rec.lines)

	NewSlogger(rec).Info("hello", "k", 1)
	assert.True(t, strings.Contains(rec.lines[3], "msg=hello k=1"))
}
