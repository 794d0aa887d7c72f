// Copyright © 2024 The Declavatar authors

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/declavatar/declavatar/parser"
	"github.com/declavatar/declavatar/schema"
)

// SchemaCommand returns the schema command and its subcommands.
func SchemaCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts...)
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect attachment schemas",
		Long: `Inspect attachment schemas.

Schemas describe the properties an attachment accepts.  They are written as
(attachment-schema ...) forms in either document syntax, or as JSON files
with the .json extension.`,
	}

	var format string
	check := &cobra.Command{
		Use:   "check files...",
		Short: "Validate schema files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				a, err := loadSchema(path, format)
				if err != nil {
					failed++
					fmt.Fprintf(cfg.stderr, "%s: %v\n", path, err) //nolint:errcheck // best-effort output
					continue
				}
				fmt.Fprintf(cfg.stdout, "%s: %s, %d properties\n", path, a.Name, len(a.Properties)) //nolint:errcheck // best-effort output
			}
			if failed > 0 {
				return &exitError{code: exitFailed}
			}
			return nil
		},
	}
	check.Flags().StringVar(&format, "format", "", `Schema syntax, "sexpr" or "script" (default: from the file extension)`)

	export := &cobra.Command{
		Use:   "export file",
		Short: "Print a schema as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadSchema(args[0], format)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(a, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cfg.stdout, "%s\n", data)
			return err
		},
	}
	export.Flags().StringVar(&format, "format", "", `Schema syntax, "sexpr" or "script" (default: from the file extension)`)

	cmd.AddCommand(check, export)
	return cmd
}

func loadSchema(path, formatName string) (*schema.Attachment, error) {
	src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return nil, err
	}
	if formatName == "" && strings.EqualFold(filepath.Ext(path), ".json") {
		return schema.ParseJSON(src)
	}
	format, ok := parser.FormatOf(path)
	if formatName != "" {
		format, err = parser.ParseFormat(formatName)
		if err != nil {
			return nil, err
		}
	} else if !ok {
		format = parser.FormatSexpr
	}
	return schema.ParseFormat(path, src, format)
}

func init() {
	rootCmd.AddCommand(SchemaCommand())
}
