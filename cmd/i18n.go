// Copyright © 2024 The Declavatar authors

package cmd

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/declavatar/declavatar/i18n"
)

// messageWidth is the column at which catalog messages are wrapped.
const messageWidth = 64

// I18nCommand returns the i18n command and its subcommands.
func I18nCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts...)
	cmd := &cobra.Command{
		Use:   "i18n",
		Short: "Inspect diagnostic message catalogs",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the locales with a catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, locale := range i18n.Locales() {
				if _, err := fmt.Fprintln(cfg.stdout, locale); err != nil {
					return err
				}
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show [locale]",
		Short: "Print every message of a catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locale := i18n.DefaultLocale
			if len(args) == 1 {
				locale = args[0]
			}
			c, err := i18n.CatalogFor(locale)
			if err != nil {
				return err
			}
			var b strings.Builder
			for _, code := range c.Codes() {
				msg, _ := c.Message(code)
				b.WriteString(code)
				b.WriteByte('\n')
				b.WriteString(indent.String(wordwrap.String(msg, messageWidth), 4))
				b.WriteByte('\n')
			}
			_, err = fmt.Fprint(cfg.stdout, b.String())
			return err
		},
	}

	lookup := &cobra.Command{
		Use:   "lookup key",
		Short: `Print the JSON catalog for a key such as "log.en-us"`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := i18n.Lookup(args[0])
			if err != nil {
				return err
			}
			_, err = cfg.stdout.Write(data)
			return err
		},
	}

	cmd.AddCommand(list, show, lookup)
	return cmd
}

func init() {
	rootCmd.AddCommand(I18nCommand())
}
