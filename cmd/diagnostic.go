// Copyright © 2024 The Declavatar authors

package cmd

import (
	"encoding/json"
	"io"

	"github.com/declavatar/declavatar/diagnostic"
)

func (s *settings) newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: s.color, Locale: s.locale}
}

// fileReport is the JSON record written for each document with --json.
type fileReport struct {
	File        string                  `json:"file"`
	Failed      bool                    `json:"failed"`
	Cached      bool                    `json:"cached,omitempty"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
	Avatar      json.RawMessage         `json:"avatar,omitempty"`
}

func writeReport(w io.Writer, r *fileReport) error {
	if r.Diagnostics == nil {
		r.Diagnostics = []diagnostic.Diagnostic{}
	}
	return json.NewEncoder(w).Encode(r)
}
