// Copyright © 2024 The Declavatar authors

// Package analysis checks declaration trees against the registered symbols,
// localizations and attachment schemas and builds the avatar definition.
//
// Analysis runs in two passes over each avatar, like the checks of a
// linker.  The first pass collects the declared parameters, assets, gates
// and layers.  The second pass resolves the exports, layer targets, menu
// controls and attachments that refer to them.  Problems are reported to a
// diagnostic.Collector and never stop the analysis, so a single run reports
// as many of them as possible.
package analysis

import (
	"log/slog"

	"github.com/declavatar/declavatar/ast"
	"github.com/declavatar/declavatar/avatar"
	"github.com/declavatar/declavatar/diagnostic"
	"github.com/declavatar/declavatar/registry"
)

// Config holds the registries consulted during analysis.
type Config struct {
	Symbols       *registry.Symbols
	Localizations *registry.Localizations
	Schemas       *registry.Schemas

	// Logger receives debug records.  Nil discards them.
	Logger *slog.Logger
}

// Result holds the output of semantic analysis.
type Result struct {
	// Avatar is nil when the collector holds a blocking diagnostic.
	Avatar *avatar.Avatar

	// Symbols lists the parameters, assets and gates declared by the
	// avatar.
	Symbols    []*Symbol
	References []*Reference
	Unresolved []*UnresolvedRef
}

// Analyze checks doc and builds the avatar definition it describes.
// Diagnostics are added to diags, which may already hold syntax errors; the
// avatar is only returned when diags holds no blocking diagnostic
// afterwards.
func Analyze(doc *ast.Document, cfg *Config, diags *diagnostic.Collector) *Result {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Symbols == nil {
		cfg.Symbols = registry.NewSymbols()
	}
	if cfg.Localizations == nil {
		cfg.Localizations = registry.NewLocalizations()
	}
	if cfg.Schemas == nil {
		cfg.Schemas = registry.NewSchemas()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	a := &analyzer{
		cfg:    cfg,
		diags:  diags,
		logger: logger,
		result: &Result{},
		avatar: avatar.New(),
		table:  newTable(),
	}
	a.document(doc.Nodes, NewScope(ScopeDocument, nil, ""))
	a.result.Symbols = a.table.Symbols()

	logger.Debug("analyzed document",
		slog.String("file", doc.File),
		slog.Int("symbols", len(a.result.Symbols)),
		slog.Int("references", len(a.result.References)),
		slog.Int("unresolved", len(a.result.Unresolved)),
		slog.Int("diagnostics", diags.Len()))

	if !diags.Blocking() {
		a.result.Avatar = a.avatar
	}
	return a.result
}
