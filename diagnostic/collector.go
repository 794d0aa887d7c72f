// Copyright © 2024 The Declavatar authors

package diagnostic

import (
	"errors"

	"github.com/declavatar/declavatar/parser/token"
)

// ErrIndexOutOfRange is returned by Collector.At for an index outside of
// [0, Len()).
var ErrIndexOutOfRange = errors.New("diagnostic index out of range")

// Collector is an append-only list of diagnostics in the order they were
// reported.  The zero value is ready to use.  A Collector is not safe for
// concurrent use.
type Collector struct {
	diags    []Diagnostic
	blocking int
}

// Add appends d.
func (c *Collector) Add(d Diagnostic) {
	if d.Kind.Blocking() {
		c.blocking++
	}
	c.diags = append(c.diags, d)
}

// AddSyntaxErrors appends a SyntaxError for each of errs.
func (c *Collector) AddSyntaxErrors(errs []*token.Error) {
	for _, err := range errs {
		c.Add(FromSyntaxError(err))
	}
}

// Len returns the number of diagnostics collected.
func (c *Collector) Len() int {
	return len(c.diags)
}

// At returns the i-th diagnostic.
func (c *Collector) At(i int) (Diagnostic, error) {
	if i < 0 || i >= len(c.diags) {
		return Diagnostic{}, ErrIndexOutOfRange
	}
	return c.diags[i], nil
}

// All returns a copy of the collected diagnostics.  The result is never nil.
func (c *Collector) All() []Diagnostic {
	return append([]Diagnostic{}, c.diags...)
}

// Blocking reports whether any diagnostic prevents a successful compile.
func (c *Collector) Blocking() bool {
	return c.blocking > 0
}

// Count returns the number of diagnostics of kind k.
func (c *Collector) Count(k Kind) int {
	n := 0
	for _, d := range c.diags {
		if d.Kind == k {
			n++
		}
	}
	return n
}

// Reset discards all diagnostics.
func (c *Collector) Reset() {
	c.diags = nil
	c.blocking = 0
}
