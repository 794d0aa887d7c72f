// Copyright © 2024 The Declavatar authors

package diagnostic

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ColorMode selects whether rendered diagnostics carry ANSI colors.
type ColorMode int

const (
	ColorAuto ColorMode = iota // colors on terminals unless NO_COLOR is set
	ColorAlways
	ColorNever
)

var colorModeNames = [...]string{
	ColorAuto:   "auto",
	ColorAlways: "always",
	ColorNever:  "never",
}

func (m ColorMode) String() string {
	if m < 0 || int(m) >= len(colorModeNames) {
		return fmt.Sprintf("ColorMode(%d)", int(m))
	}
	return colorModeNames[m]
}

// ParseColorMode parses "auto", "always" or "never".  The empty string is
// ColorAuto.
func ParseColorMode(s string) (ColorMode, error) {
	if s == "" {
		return ColorAuto, nil
	}
	for m, name := range colorModeNames {
		if name == s {
			return ColorMode(m), nil
		}
	}
	return ColorAuto, fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// style holds the escape sequences of one rendering.  The zero style
// renders plain text.
type style struct {
	severity [3]string // indexed by Severity
	code     string
	gutter   string
	marker   string
	reset    string
}

var ansiStyle = style{
	severity: [3]string{
		SeverityError:   "\033[1;31m",
		SeverityWarning: "\033[1;33m",
		SeverityNote:    "\033[1;36m",
	},
	code:   "\033[1m",
	gutter: "\033[1;34m",
	marker: "\033[1;31m",
	reset:  "\033[0m",
}

// styleFor returns the style for output written to w.
func styleFor(mode ColorMode, w io.Writer) style {
	switch mode {
	case ColorAlways:
		return ansiStyle
	case ColorNever:
		return style{}
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return style{}
	}
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return style{}
	}
	return ansiStyle
}

func (s style) forSeverity(sev Severity) string {
	if sev < 0 || int(sev) >= len(s.severity) {
		return ""
	}
	return s.severity[sev]
}
