// Copyright © 2024 The Declavatar authors

package repl

import (
	"sort"
	"strings"

	"github.com/declavatar/declavatar/parser"
)

var commands = []string{
	":clear", ":decls", ":define", ":format", ":help", ":json", ":localize",
	":path", ":quit", ":reset", ":schema", ":symbols",
}

// formCompleter implements readline.AutoCompleter with form names,
// session commands and the symbols defined so far.
type formCompleter struct {
	session *Session
}

func (c *formCompleter) Do(line []rune, pos int) ([][]rune, int) {
	// Extract the word being typed (backwards from cursor to a delimiter).
	start := pos
	for start > 0 {
		ch := line[start-1]
		if ch == ' ' || ch == '\t' || ch == '(' || ch == '{' || ch == '\n' {
			break
		}
		start--
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}

	candidates := c.collect(prefix, start == 0)
	if len(candidates) == 0 {
		return nil, 0
	}
	result := make([][]rune, 0, len(candidates))
	for _, name := range candidates {
		result = append(result, []rune(name[len(prefix):]))
	}
	return result, len(prefix)
}

func (c *formCompleter) collect(prefix string, lineStart bool) []string {
	seen := make(map[string]bool)
	var result []string
	add := func(name string) {
		if strings.HasPrefix(name, prefix) && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	if lineStart && strings.HasPrefix(prefix, ":") {
		for _, cmd := range commands {
			add(cmd)
		}
		return result
	}
	script := c.session.Format() == parser.FormatScript
	for _, name := range parser.FormNames() {
		if script {
			name = strings.ReplaceAll(name, "-", "_")
		}
		add(name)
	}
	for _, sym := range c.session.state.Symbols() {
		add(sym)
	}
	sort.Strings(result)
	return result
}
