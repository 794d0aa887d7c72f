// Copyright © 2024 The Declavatar authors

package cmd

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// loadLocalizationFile reads localizations from a TOML file.  Tables nest
// keys, so
//
//	[menu]
//	hat = "Hat"
//
// defines "menu.hat".  Quoted keys may contain dots themselves.
func loadLocalizationFile(path string) (map[string]string, error) {
	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out := make(map[string]string)
	if err := flattenLocalizations(out, "", raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func flattenLocalizations(out map[string]string, prefix string, v any) error {
	switch v := v.(type) {
	case map[string]any:
		for k, x := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flattenLocalizations(out, key, x); err != nil {
				return err
			}
		}
	case string:
		out[prefix] = v
	default:
		return fmt.Errorf("localization %q: expected a string, found %T", prefix, v)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
