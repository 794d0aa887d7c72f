// Copyright © 2024 The Declavatar authors

package cmd

import (
	"io"
	"os"

	"github.com/declavatar/declavatar/compiler"
)

// Option configures an exported command factory (CompileCommand,
// WatchCommand, SchemaCommand, I18nCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer
	compilerOpts []compiler.Option
}

func newCmdConfig(opts ...Option) *cmdConfig {
	c := &cmdConfig{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithStdin replaces the input read for the "-" argument.
func WithStdin(r io.Reader) Option {
	return func(c *cmdConfig) { c.stdin = r }
}

// WithStdout replaces the writer receiving command output.
func WithStdout(w io.Writer) Option {
	return func(c *cmdConfig) { c.stdout = w }
}

// WithStderr replaces the writer receiving rendered diagnostics and
// progress messages.
func WithStderr(w io.Writer) Option {
	return func(c *cmdConfig) { c.stderr = w }
}

// WithCompilerOptions appends options applied to every compiler state the
// command creates, after the ones derived from configuration.
func WithCompilerOptions(opts ...compiler.Option) Option {
	return func(c *cmdConfig) { c.compilerOpts = append(c.compilerOpts, opts...) }
}
