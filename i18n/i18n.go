// Copyright © 2024 The Declavatar authors

// Package i18n holds the process-wide message catalogs used to render
// diagnostics.  Catalogs are embedded in the binary and decoded once, on
// first use.  After initialization they are never written, so concurrent
// readers need no further synchronization.
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLocale is the locale used to render diagnostic messages when the
// caller does not ask for one.
const DefaultLocale = "en-us"

// keyPrefix is the namespace of catalog keys accepted by Lookup.
const keyPrefix = "log."

// ErrUnknownKey is returned by Lookup when no catalog matches the key.
var ErrUnknownKey = errors.New("unknown i18n key")

//go:embed log.*.json
var catalogFS embed.FS

// Catalog is the decoded message table for a single locale.
type Catalog struct {
	Locale   string
	raw      []byte
	messages map[string]string
}

// Message returns the template registered for code.
func (c *Catalog) Message(code string) (string, bool) {
	msg, ok := c.messages[code]
	return msg, ok
}

// Codes returns the sorted message codes in the catalog.
func (c *Catalog) Codes() []string {
	codes := make([]string, 0, len(c.messages))
	for code := range c.messages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

type table struct {
	byLocale map[string]*Catalog
	locales  []string
	tags     []language.Tag
	matcher  language.Matcher
}

var (
	loadOnce sync.Once
	loaded   *table
	loadErr  error
)

func load() (*table, error) {
	loadOnce.Do(func() {
		loaded, loadErr = decodeCatalogs()
	})
	return loaded, loadErr
}

func decodeCatalogs() (*table, error) {
	entries, err := catalogFS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	t := &table{byLocale: make(map[string]*Catalog)}
	for _, ent := range entries {
		name := ent.Name()
		locale := strings.TrimSuffix(strings.TrimPrefix(name, keyPrefix), ".json")
		raw, err := catalogFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		var messages map[string]string
		if err := json.Unmarshal(raw, &messages); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", name, err)
		}
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", name, err)
		}
		t.byLocale[locale] = &Catalog{Locale: locale, raw: raw, messages: messages}
		t.locales = append(t.locales, locale)
		t.tags = append(t.tags, tag)
	}
	t.matcher = language.NewMatcher(t.tags)
	return t, nil
}

// canonicalLocale lower-cases locale and uses '-' as the subtag separator.
func canonicalLocale(locale string) string {
	return strings.ReplaceAll(strings.ToLower(locale), "_", "-")
}

func (t *table) find(locale string) (*Catalog, bool) {
	locale = canonicalLocale(locale)
	if c, ok := t.byLocale[locale]; ok {
		return c, true
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, false
	}
	_, index, conf := t.matcher.Match(tag)
	if conf < language.High {
		return nil, false
	}
	return t.byLocale[t.locales[index]], true
}

// Locales returns the locales with an embedded catalog.
func Locales() []string {
	t, err := load()
	if err != nil {
		return nil
	}
	locales := append([]string(nil), t.locales...)
	sort.Strings(locales)
	return locales
}

// CatalogFor returns the catalog for locale.
func CatalogFor(locale string) (*Catalog, error) {
	t, err := load()
	if err != nil {
		return nil, err
	}
	c, ok := t.find(locale)
	if !ok {
		return nil, fmt.Errorf("%w: locale %q", ErrUnknownKey, locale)
	}
	return c, nil
}

// Lookup returns the JSON catalog identified by key, which has the form
// "log.<locale>" (e.g. "log.en-us", "log.ja_JP").  The returned slice is a
// copy owned by the caller.
func Lookup(key string) ([]byte, error) {
	locale, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	c, err := CatalogFor(locale)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return append([]byte(nil), c.raw...), nil
}

// Message renders code with args in the default locale.  Unknown codes
// render as the code followed by its arguments so that no information is
// lost.
func Message(code string, args ...string) string {
	return LocalizedMessage(DefaultLocale, code, args...)
}

// LocalizedMessage renders code with args in locale, falling back to the
// default locale when locale has no catalog or lacks the code.
func LocalizedMessage(locale, code string, args ...string) string {
	for _, loc := range []string{locale, DefaultLocale} {
		c, err := CatalogFor(loc)
		if err != nil {
			continue
		}
		if tmpl, ok := c.Message(code); ok {
			return Format(tmpl, args)
		}
	}
	if len(args) == 0 {
		return code
	}
	return code + ": " + strings.Join(args, ", ")
}

// Format substitutes the positional placeholders {0}, {1}, ... in tmpl.
// Placeholders without a matching argument are left untouched.
func Format(tmpl string, args []string) string {
	if len(args) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	var b strings.Builder
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		end += open
		i, err := strconv.Atoi(tmpl[open+1 : end])
		b.WriteString(tmpl[:open])
		if err != nil || i < 0 || i >= len(args) {
			b.WriteString(tmpl[open : end+1])
		} else {
			b.WriteString(args[i])
		}
		tmpl = tmpl[end+1:]
	}
}
