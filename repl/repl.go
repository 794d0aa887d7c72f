// Copyright © 2024 The Declavatar authors

// Package repl runs an interactive compile session on a terminal.
package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"

	"github.com/declavatar/declavatar/compiler"
	"github.com/declavatar/declavatar/diagnostic"
	"github.com/declavatar/declavatar/parser"
)

type config struct {
	stdin    io.ReadCloser
	stderr   io.WriteCloser
	format   parser.Format
	renderer *diagnostic.Renderer
	history  string
}

func newConfig(opts ...Option) *config {
	config := &config{
		format:  parser.FormatSexpr,
		history: historyPath(),
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output to the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithFormat selects the initial document syntax.
func WithFormat(format parser.Format) Option {
	return func(c *config) {
		c.format = format
	}
}

// WithRenderer sets the renderer used for diagnostics.
func WithRenderer(r *diagnostic.Renderer) Option {
	return func(c *config) {
		c.renderer = r
	}
}

// WithHistoryFile overrides the history file.  An empty path disables
// persistent history.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.history = path
	}
}

// Run reads lines with prompt until end of input or :quit and feeds them
// to a session compiling with state.
func Run(state *compiler.State, prompt string, opts ...Option) error {
	cfg := newConfig(opts...)
	var out io.Writer = os.Stderr
	if cfg.stderr != nil {
		out = cfg.stderr
	}
	session := NewSession(state, cfg.format, out, cfg.renderer)

	ensureHistoryFilePermissions(cfg.history)
	rlCfg := &readline.Config{
		Stdout:            out,
		Stderr:            out,
		Prompt:            prompt,
		HistoryFile:       cfg.history,
		HistorySearchFold: true,
		AutoComplete:      &formCompleter{session: session},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return fmt.Errorf("start readline: %w", err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	cont := strings.Repeat(" ", len(prompt)-2) + ". "
	if len(prompt) < 2 {
		cont = prompt
	}
	for {
		if session.Incomplete() {
			rl.SetPrompt(cont)
		} else {
			rl.SetPrompt(prompt)
		}
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			session.pending = nil
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := session.Feed(line); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			return err
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".declavatar_history")
}

// ensureHistoryFilePermissions creates the history file if needed and
// restricts it to the owner.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600) //#nosec G304
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0o600)
}
