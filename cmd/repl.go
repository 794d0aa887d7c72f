// Copyright © 2024 The Declavatar authors

package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/declavatar/declavatar/parser"
	"github.com/declavatar/declavatar/repl"
)

var replFormat string

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive compile session",
	Long: `Start an interactive session compiling documents as they are typed.

Input accumulates until every parenthesis or brace is closed, then the
document is compiled and a summary or the diagnostics are printed.  The
configured symbols, localizations, schemas and library paths are loaded
first.  Lines starting with a colon are commands; :help lists them.  Use
Ctrl-D or :quit to exit.

Example session:
  declavatar> :define out_of_unity
  declavatar> (avatar "Shiori"
          . (parameters (bool "hat_on" :scope synced)))
  ok: avatar "Shiori" with 1 parameters, 0 assets, 0 layers, 0 menu items, 0 attachments
  declavatar> :json
  ...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadSettings()
		if err != nil {
			return err
		}
		format, err := parser.ParseFormat(replFormat)
		if err != nil {
			return err
		}
		state, err := set.newState(newCmdConfig(), nil)
		if err != nil {
			return err
		}
		defer state.Destroy() //nolint:errcheck // the state is not shared
		return repl.Run(state, filepath.Base(os.Args[0])+"> ",
			repl.WithFormat(format),
			repl.WithRenderer(set.newRenderer()))
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringVar(&replFormat, "format", "sexpr", `Document syntax, "sexpr" or "script"`)
}
