// Copyright © 2024 The Declavatar authors

package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch(t *testing.T) {
	resetConfig(t)
	viper.Set("no-cache", true)
	dir := t.TempDir()
	inc := writeFile(t, filepath.Join(dir, "params.declisp"), `(parameters (int "mode"))`)
	path := writeFile(t, filepath.Join(dir, "a.declisp"), `(avatar "a" (include "params.declisp"))`)

	set, err := loadSettings()
	require.NoError(t, err)
	var stderr syncBuffer
	job, err := newCompileJob(newCmdConfig(WithStderr(&stderr)), set, &compileFlags{check: true})
	require.NoError(t, err)
	defer job.close()

	fsw, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer fsw.Close() //nolint:errcheck // test cleanup

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watch(ctx, fsw, job, []string{path}) }()

	rounds := func() int { return strings.Count(stderr.String(), "compiled 1 documents") }
	require.Eventually(t, func() bool { return rounds() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, stderr.String(), "0 failed")

	// Changing an included file triggers a new round.
	writeFile(t, inc, `(parameters (int "mode" :default 300))`)
	require.Eventually(t, func() bool { return rounds() == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, stderr.String(), "1 failed")

	// Unrelated files are ignored.
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	time.Sleep(3 * settleDelay)
	assert.Equal(t, 2, rounds())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
