// Copyright © 2024 The Declavatar authors

package diagnostic

// Severity indicates how a rendered report is presented.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source code to highlight in a report.
type Span struct {
	File   string // path for reading source; display name if unreadable
	Line   int    // 1-based line number
	Col    int    // 1-based start column
	EndCol int    // 1-based end column (0 = auto-detect from source)
	Label  string // text shown under the underline
}

// Report is a diagnostic prepared for terminal output.
type Report struct {
	Severity Severity
	Code     string // shown after the severity when set
	Message  string
	Spans    []Span
	Notes    []string
}
