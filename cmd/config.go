// Copyright © 2024 The Declavatar authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/declavatar/declavatar/cache"
	"github.com/declavatar/declavatar/compiler"
	"github.com/declavatar/declavatar/diagnostic"
	"github.com/declavatar/declavatar/parser"
)

// schemaFile is an attachment schema registered from configuration.
type schemaFile struct {
	path string
	src  []byte
}

// settings are the compile inputs gathered from flags, the config file
// and the environment.
type settings struct {
	color         diagnostic.ColorMode
	locale        string
	symbols       []string
	libraryPaths  []string
	localizations map[string]string
	schemas       []schemaFile
	cacheDir      string
	noCache       bool
	jobs          int
	trace         bool
}

func loadSettings() (*settings, error) {
	s := &settings{
		locale:        viper.GetString("locale"),
		symbols:       viper.GetStringSlice("symbols"),
		libraryPaths:  viper.GetStringSlice("library-paths"),
		localizations: make(map[string]string),
		cacheDir:      viper.GetString("cache-dir"),
		noCache:       viper.GetBool("no-cache"),
		jobs:          viper.GetInt("jobs"),
		trace:         viper.GetBool("trace"),
	}
	if s.jobs <= 0 {
		s.jobs = runtime.NumCPU()
	}
	color, err := diagnostic.ParseColorMode(viper.GetString("color"))
	if err != nil {
		return nil, err
	}
	s.color = color
	for _, path := range viper.GetStringSlice("localization-files") {
		locs, err := loadLocalizationFile(path)
		if err != nil {
			return nil, err
		}
		for k, v := range locs {
			s.localizations[k] = v
		}
	}
	// Entries of the config file win over localization files.
	if raw := viper.Get("localizations"); raw != nil {
		if err := flattenLocalizations(s.localizations, "", normalizeMap(raw)); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	for _, path := range viper.GetStringSlice("schemas") {
		src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
		if err != nil {
			return nil, err
		}
		s.schemas = append(s.schemas, schemaFile{path: path, src: src})
	}
	return s, nil
}

// normalizeMap converts the maps produced by config decoders into
// map[string]any.
func normalizeMap(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[k] = normalizeMap(x)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[fmt.Sprint(k)] = normalizeMap(x)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[k] = x
		}
		return out
	}
	return v
}

// newState returns a compiler state holding every configured definition.
// Directories in extraPaths are searched before the configured library
// paths.
func (s *settings) newState(cfg *cmdConfig, extraPaths []string, opts ...compiler.Option) (*compiler.State, error) {
	opts = append(append([]compiler.Option{compiler.WithLogger(logger)}, cfg.compilerOpts...), opts...)
	state := compiler.New(opts...)
	for _, dir := range append(slices.Clone(extraPaths), s.libraryPaths...) {
		if err := state.AddLibraryPath(dir); err != nil {
			return nil, err
		}
	}
	for _, sym := range s.symbols {
		if err := state.DefineSymbol(sym); err != nil {
			return nil, err
		}
	}
	for _, key := range sortedKeys(s.localizations) {
		if err := state.DefineLocalization(key, s.localizations[key]); err != nil {
			return nil, err
		}
	}
	for _, sch := range s.schemas {
		if err := registerSchemaFile(state, sch.path, sch.src); err != nil {
			return nil, fmt.Errorf("%s: %w", sch.path, err)
		}
	}
	return state, nil
}

func registerSchemaFile(state *compiler.State, path string, src []byte) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return state.RegisterSchemaJSON(src)
	}
	format, ok := parser.FormatOf(path)
	if !ok {
		format = parser.FormatSexpr
	}
	return state.RegisterSchemaFormat(src, format)
}

// addTo feeds every setting that influences a compile result into k.
func (s *settings) addTo(k *cache.KeyBuilder) {
	for _, dir := range s.libraryPaths {
		k.AddString("library-path", dir)
	}
	syms := slices.Clone(s.symbols)
	slices.Sort(syms)
	for _, sym := range syms {
		k.AddString("symbol", sym)
	}
	for _, key := range sortedKeys(s.localizations) {
		k.AddString("localization", key).AddString("value", s.localizations[key])
	}
	for _, sch := range s.schemas {
		k.AddString("schema", sch.path).Add("source", sch.src)
	}
}

// openCache returns the configured cache, or nil when caching is off.
func (s *settings) openCache() (*cache.Cache, error) {
	if s.noCache {
		return nil, nil
	}
	dir := s.cacheDir
	if dir == "" {
		d, err := cache.DefaultDir()
		if err != nil {
			logger.Warn("compile cache disabled", "error", err)
			return nil, nil
		}
		dir = d
	}
	return cache.Open(dir)
}

// bindFlags binds local flags of cmd to config keys.  It runs when cmd
// executes because several commands share keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, flag := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}
