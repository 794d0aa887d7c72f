// Copyright © 2024 The Declavatar authors

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fortio.org/safecast"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/declavatar/declavatar/cache"
	"github.com/declavatar/declavatar/compiler"
	"github.com/declavatar/declavatar/diagnostic"
	"github.com/declavatar/declavatar/parser"
)

// stdinName names a document read from standard input.
const stdinName = "<stdin>"

// exitError ends the process with code after the command has reported
// its results.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// compileFlags are the flags shared by compile and watch.
type compileFlags struct {
	format   string
	out      string
	json     bool
	check    bool
	indent   bool
	excludes []string
}

func (f *compileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "",
		`Document syntax, "sexpr" or "script" (default: from the file extension)`)
	cmd.Flags().StringVarP(&f.out, "out", "o", "",
		"Write each avatar as <name>.json below this directory")
	cmd.Flags().BoolVar(&f.json, "json", false,
		"Write one JSON report per document to stdout")
	cmd.Flags().BoolVar(&f.check, "check", false,
		"Only report diagnostics, do not write avatars")
	cmd.Flags().BoolVar(&f.indent, "indent", false,
		"Indent avatar JSON")
	cmd.Flags().StringArrayVar(&f.excludes, "exclude", nil,
		"Exclude files or directories matching a glob pattern (repeatable)")
	cmd.Flags().IntP("jobs", "j", 0, "Documents compiled in parallel (default: number of CPUs)")
	cmd.Flags().String("cache-dir", "", "Compile cache directory (default: $XDG_CACHE_HOME/declavatar)")
	cmd.Flags().Bool("no-cache", false, "Disable the compile cache")
}

var compileFlagKeys = map[string]string{
	"jobs":      "jobs",
	"cache-dir": "cache-dir",
	"no-cache":  "no-cache",
}

// CompileCommand returns the compile command.
func CompileCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts...)
	flags := &compileFlags{}
	cmd := &cobra.Command{
		Use:   "compile [flags] [files...]",
		Short: "Compile avatar documents to JSON",
		Long: `Compile avatar documents to JSON.

Each document is compiled independently with the configured symbols,
localizations, schemas and library paths.  The directory of a document is
searched for includes before the configured library paths.  A path ending
in "/..." compiles every .declisp and .descript file below that directory.
The argument "-" reads a document from stdin; --format is then required.

A single document is written to stdout unless --out is given.  Diagnostics
are rendered to stderr, or included in the reports written with --json.

Exit codes:
  0  Every document compiled
  1  One or more documents failed to compile
  2  Bad invocation (invalid flags, unreadable files)

Examples:
  declavatar compile avatar.declisp > avatar.json
  declavatar compile -D out_of_unity -I lib avatar.descript
  declavatar compile --check ./...
  declavatar compile -o build -j 4 ./avatars/...
  declavatar compile --json avatar.declisp | jq '.diagnostics[].code'`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, compileFlagKeys)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadSettings()
			if err != nil {
				return err
			}
			paths, err := expandArgs(args, flags.excludes)
			if err != nil {
				return err
			}
			if len(paths) > 1 && flags.out == "" && !flags.check && !flags.json {
				return errors.New("compiling several documents needs --out, --check or --json")
			}
			job, err := newCompileJob(cfg, set, flags)
			if err != nil {
				return err
			}
			defer job.close()
			results, err := job.runAll(cmd.Context(), paths)
			if err != nil {
				return err
			}
			failed, err := job.report(results)
			if err != nil {
				return err
			}
			if failed > 0 {
				return &exitError{code: exitFailed}
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// compileResult is the outcome of compiling one document.
type compileResult struct {
	path        string
	avatarJSON  []byte
	diagnostics []diagnostic.Diagnostic
	failed      bool
	cached      bool
	includes    []string // files read through include forms
}

type compileJob struct {
	cfg    *cmdConfig
	set    *settings
	flags  *compileFlags
	format parser.Format // zero unless --format was given
	cache  *cache.Cache
	tp     *sdktrace.TracerProvider
	opts   []compiler.Option
}

func newCompileJob(cfg *cmdConfig, set *settings, flags *compileFlags) (*compileJob, error) {
	j := &compileJob{cfg: cfg, set: set, flags: flags}
	if flags.format != "" {
		f, err := parser.ParseFormat(flags.format)
		if err != nil {
			return nil, err
		}
		j.format = f
	}
	c, err := set.openCache()
	if err != nil {
		return nil, err
	}
	j.cache = c
	if set.trace {
		tp := newTracerProvider(cfg.stderr)
		j.tp = tp
		j.opts = append(j.opts, compiler.WithTracerProvider(tp))
	}
	return j, nil
}

func (j *compileJob) close() {
	if j.tp != nil {
		_ = j.tp.Shutdown(context.Background())
	}
}

// runAll compiles paths in parallel.  Results are returned in the order of
// paths.  The error reports an unreadable document, not a failed compile.
func (j *compileJob) runAll(ctx context.Context, paths []string) ([]*compileResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]*compileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(j.set.jobs)
	for i, path := range paths {
		g.Go(func() error {
			r, err := j.run(ctx, path)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (j *compileJob) run(ctx context.Context, path string) (*compileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, src, err := j.read(path)
	if err != nil {
		return nil, err
	}
	format := j.format
	if format == 0 {
		f, ok := parser.FormatOf(path)
		if !ok {
			return nil, fmt.Errorf("%s: unknown document format (use --format)", path)
		}
		format = f
	}
	dir := "."
	if path != "-" {
		dir = filepath.Dir(path)
	}

	k := cache.NewKey().
		AddString("file", name).
		AddString("dir", dir).
		AddString("format", format.String()).
		Add("source", src)
	j.set.addTo(k)
	key := k.Sum()
	if r, ok := j.lookup(key, name); ok {
		return r, nil
	}

	rec := &includeRecorder{}
	state, err := j.set.newState(j.cfg, []string{dir},
		append(j.opts, compiler.WithIncludeReader(rec.read))...)
	if err != nil {
		return nil, err
	}
	defer state.Destroy() //nolint:errcheck // the state is not shared

	r := &compileResult{path: name}
	switch err := state.CompileFile(name, src, format); {
	case errors.Is(err, compiler.ErrCompileFailure):
		r.failed = true
	case err != nil:
		return nil, fmt.Errorf("%s: %w", name, err)
	default:
		r.avatarJSON, err = state.AvatarJSON()
		if err != nil {
			return nil, err
		}
	}
	r.diagnostics = state.Diagnostics()
	r.includes = rec.files
	j.store(key, r, format, rec)
	return r, nil
}

func (j *compileJob) read(path string) (string, []byte, error) {
	if path == "-" {
		src, err := io.ReadAll(j.cfg.stdin)
		return stdinName, src, err
	}
	src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return "", nil, err
	}
	return path, src, nil
}

func (j *compileJob) lookup(key cache.Digest, name string) (*compileResult, bool) {
	e, found, err := j.cache.Get(key)
	if err != nil {
		logger.Warn("reading compile cache", slog.String("file", name), slog.Any("error", err))
		return nil, false
	}
	if !found || !e.Fresh(os.ReadFile) {
		return nil, false
	}
	r := &compileResult{
		path:       name,
		avatarJSON: e.AvatarJSON,
		failed:     e.Failed,
		cached:     true,
		includes:   e.Files,
	}
	if err := json.Unmarshal(e.Diagnostics, &r.diagnostics); err != nil {
		return nil, false
	}
	logger.Debug("compile cache hit", slog.String("file", name), slog.String("key", key.String()))
	return r, true
}

func (j *compileJob) store(key cache.Digest, r *compileResult, format parser.Format, rec *includeRecorder) {
	if j.cache == nil {
		return
	}
	diags, err := json.Marshal(r.diagnostics)
	if err != nil {
		return
	}
	f, err := safecast.Conv[uint8](int(format))
	if err != nil {
		return
	}
	e := &cache.Entry{
		Source:      r.path,
		Format:      f,
		Failed:      r.failed,
		AvatarJSON:  r.avatarJSON,
		Diagnostics: diags,
		Files:       rec.files,
		FileHashes:  rec.hashes,
	}
	if err := j.cache.Put(key, e); err != nil {
		logger.Warn("writing compile cache", slog.String("file", r.path), slog.Any("error", err))
	}
}

// report writes results and returns the number of failed documents.
func (j *compileJob) report(results []*compileResult) (int, error) {
	failed := 0
	renderer := j.set.newRenderer()
	for _, r := range results {
		if r.failed {
			failed++
		}
		if j.flags.json {
			rep := &fileReport{File: r.path, Failed: r.failed, Cached: r.cached, Diagnostics: r.diagnostics}
			if j.flags.out == "" && !j.flags.check {
				rep.Avatar = r.avatarJSON
			}
			if err := writeReport(j.cfg.stdout, rep); err != nil {
				return failed, err
			}
		} else if len(r.diagnostics) > 0 {
			if err := renderer.RenderDiagnostics(j.cfg.stderr, r.diagnostics); err != nil {
				return failed, err
			}
		}
		if r.failed || j.flags.check {
			continue
		}
		if err := j.writeAvatar(r); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

func (j *compileJob) writeAvatar(r *compileResult) error {
	data := r.avatarJSON
	if j.flags.indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	if j.flags.out == "" {
		if j.flags.json {
			return nil
		}
		_, err := fmt.Fprintf(j.cfg.stdout, "%s\n", data)
		return err
	}
	dest := outputPath(j.flags.out, r.path)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	logger.Info("writing avatar", slog.String("file", r.path), slog.String("out", dest))
	return os.WriteFile(dest, append(data, '\n'), 0o644) //nolint:gosec // output is not secret
}

// outputPath returns where the avatar of the document at path is written
// below dir.  Relative paths keep their directories.
func outputPath(dir, path string) string {
	if path == stdinName {
		return filepath.Join(dir, "stdin.json")
	}
	rel := filepath.Clean(path)
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(rel)
	}
	return filepath.Join(dir, strings.TrimSuffix(rel, filepath.Ext(rel))+".json")
}

// includeRecorder reads included files and records their content digests.
type includeRecorder struct {
	mu     sync.Mutex
	files  []string
	hashes []cache.Digest
}

func (r *includeRecorder) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // include paths come from the documents being compiled
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.files = append(r.files, path)
	r.hashes = append(r.hashes, cache.Sum(data))
	r.mu.Unlock()
	return data, nil
}

func init() {
	rootCmd.AddCommand(CompileCommand())
}
