// Copyright © 2024 The Declavatar authors

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// settleDelay groups the bursts of events editors produce when saving.
const settleDelay = 100 * time.Millisecond

// WatchCommand returns the watch command.
func WatchCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts...)
	flags := &compileFlags{}
	cmd := &cobra.Command{
		Use:   "watch [flags] files...",
		Short: "Recompile documents whenever they or their includes change",
		Long: `Compile documents like "declavatar compile" and keep running, compiling
them again whenever a document or a file it includes changes.  Results are
reported after every round.  Unchanged documents are served from the
compile cache.  Interrupt to stop.`,
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
			if flags.out == "" {
				flags.check = true
			}
			job, err := newCompileJob(cfg, set, flags)
			if err != nil {
				return err
			}
			defer job.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			w, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer w.Close() //nolint:errcheck // best-effort cleanup
			return watch(ctx, w, job, paths)
		},
	}
	flags.register(cmd)
	return cmd
}

// watcher tracks the directories of every watched file.  Directories are
// watched instead of files because editors often replace a file on save.
type watcher struct {
	fs    *fsnotify.Watcher
	files map[string]bool // absolute paths
	dirs  map[string]bool
}

func (w *watcher) set(paths []string) {
	w.files = make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			logger.Warn("cannot watch directory", slog.String("dir", dir), slog.Any("error", err))
			continue
		}
		w.dirs[dir] = true
	}
}

func (w *watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	return err == nil && w.files[abs]
}

// watch compiles paths, then compiles them again after each relevant
// change until ctx is done.
func watch(ctx context.Context, fs *fsnotify.Watcher, job *compileJob, paths []string) error {
	w := &watcher{fs: fs, dirs: make(map[string]bool)}
	round := func() error {
		results, err := job.runAll(ctx, paths)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(job.cfg.stderr, "error:", err) //nolint:errcheck // best-effort progress output
			w.set(paths)
			return nil
		}
		failed, err := job.report(results)
		if err != nil {
			return err
		}
		watched := append([]string(nil), paths...)
		for _, r := range results {
			watched = append(watched, r.includes...)
		}
		w.set(watched)
		fmt.Fprintf(job.cfg.stderr, "compiled %d documents, %d failed\n", len(results), failed) //nolint:errcheck // best-effort progress output
		return nil
	}
	if err := round(); err != nil {
		return err
	}

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fs.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				logger.Debug("change detected", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
				settle = time.After(settleDelay)
			}
		case err, ok := <-fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", slog.Any("error", err))
		case <-settle:
			settle = nil
			if err := round(); err != nil {
				return err
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(WatchCommand())
}
