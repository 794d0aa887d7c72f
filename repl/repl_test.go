// Copyright © 2024 The Declavatar authors

package repl

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/declavatar/declavatar/compiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runReplWithString(t *testing.T, input string) (string, error) {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	go func() {
		defer inW.Close() //nolint:errcheck // test cleanup
		_, _ = io.WriteString(inW, input)
	}()

	errc := make(chan error, 1)
	go func() {
		state := compiler.New()
		errc <- Run(state, "declavatar> ", WithStdin(inR), WithStderr(outW), WithHistoryFile(""))
		inR.Close()  //nolint:errcheck,gosec // test cleanup
		outW.Close() //nolint:errcheck,gosec // test cleanup
	}()

	var output bytes.Buffer
	_, _ = io.Copy(&output, outR)
	outR.Close() //nolint:errcheck,gosec // test cleanup

	return output.String(), <-errc
}

func TestHistoryFileMode(t *testing.T) {
	tests := []struct {
		name     string
		existing []byte // nil: no file yet
	}{
		{name: "new file"},
		{name: "world readable file", existing: []byte("(avatar \"x\")\n")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "history")
			if tc.existing != nil {
				require.NoError(t, os.WriteFile(path, tc.existing, 0o644))
			}
			ensureHistoryFilePermissions(path)

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, string(tc.existing), string(data))
		})
	}

	ensureHistoryFilePermissions("")
}

func TestRun(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Version",
			input:    "version \"1.0.0\"\n",
			expected: "ok: version 1.0.0",
		},
		{
			name:     "Multiline",
			input:    "(avatar \"x\"\n (parameters (int \"mode\")))\n",
			expected: `ok: avatar "x" with 1 parameters`,
		},
		{
			name:     "Error",
			input:    "(avatar fnord)\n",
			expected: "undefined symbol fnord",
		},
		{
			name:     "Quit",
			input:    ":quit\nversion \"1.0.0\"\n",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := runReplWithString(t, tc.input)
			require.NoError(t, err)
			require.Contains(t, got, tc.expected)
			if tc.name == "Quit" {
				assert.NotContains(t, got, "ok:")
			}
		})
	}
}
