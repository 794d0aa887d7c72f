// Copyright © 2024 The Declavatar authors

package analysis

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	parsec "github.com/prataprc/goparsec"
)

// ErrInvalidVersion is returned by ParseVersion for malformed versions.
var ErrInvalidVersion = errors.New("invalid semantic version")

// Version is a semantic version.
//
//	version    := core ('-' prerelease)? ('+' build)?
//	core       := number '.' number '.' number
//	number     := /0|[1-9][0-9]*/
//	prerelease := ident ('.' ident)*
//	build      := /[0-9A-Za-z-]+/ ('.' /[0-9A-Za-z-]+/)*
type Version struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	Prerelease []string
	Build      []string
}

func (v *Version) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if len(v.Prerelease) > 0 {
		b.WriteString("-")
		b.WriteString(strings.Join(v.Prerelease, "."))
	}
	if len(v.Build) > 0 {
		b.WriteString("+")
		b.WriteString(strings.Join(v.Build, "."))
	}
	return b.String()
}

const (
	termNumber     = "NUMBER"
	termPrerelease = "PRERELEASE"
	termBuild      = "BUILD"
)

var versionParser = newVersionParser()

func newVersionParser() parsec.Parser {
	number := parsec.Token(`(?:0|[1-9][0-9]*)`, termNumber)
	dot := parsec.Atom(".", "DOT")
	// Alphanumeric identifiers come first so that "0a" is not read as "0".
	ident := parsec.Token(`(?:[0-9]*[A-Za-z-][0-9A-Za-z-]*|0|[1-9][0-9]*)`, termPrerelease)
	build := parsec.Token(`[0-9A-Za-z-]+`, termBuild)

	core := parsec.And(nil, number, dot, number, dot, number)
	prerelease := parsec.And(nil, parsec.Atom("-", "HYPHEN"), parsec.Many(nil, ident, dot))
	metadata := parsec.And(nil, parsec.Atom("+", "PLUS"), parsec.Many(nil, build, dot))
	return parsec.And(nil,
		core,
		parsec.Maybe(nil, prerelease),
		parsec.Maybe(nil, metadata),
		parsec.End(),
	)
}

// ParseVersion parses s as a semantic version.
func ParseVersion(s string) (*Version, error) {
	if s == "" || strings.ContainsFunc(s, unicode.IsSpace) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	root, _ := versionParser(parsec.NewScanner([]byte(s)))
	if root == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	v := &Version{}
	var core []uint64
	for _, term := range terminals(root) {
		switch term.Name {
		case termNumber:
			n, err := strconv.ParseUint(term.Value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrInvalidVersion, s, err)
			}
			core = append(core, n)
		case termPrerelease:
			v.Prerelease = append(v.Prerelease, term.Value)
		case termBuild:
			v.Build = append(v.Build, term.Value)
		}
	}
	if len(core) != 3 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	v.Major, v.Minor, v.Patch = core[0], core[1], core[2]
	return v, nil
}

// terminals flattens a parse tree into its terminal tokens, in order.
func terminals(node parsec.ParsecNode) []*parsec.Terminal {
	switch node := node.(type) {
	case *parsec.Terminal:
		return []*parsec.Terminal{node}
	case []parsec.ParsecNode:
		var terms []*parsec.Terminal
		for _, child := range node {
			terms = append(terms, terminals(child)...)
		}
		return terms
	}
	return nil
}
