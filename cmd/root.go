// Copyright © 2024 The Declavatar authors

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	// logger is replaced by the root command before any subcommand runs.
	logger = slog.New(slog.DiscardHandler)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "declavatar",
	Short: "Declarative avatar configuration compiler",
	Long: `declavatar compiles declarative avatar documents into the JSON consumed by
avatar tooling.  Documents are written either as S-expressions (.declisp) or
in the script syntax (.descript); both describe the same declarations.

Getting started:
  declavatar compile avatar.declisp          Compile a document, print JSON
  declavatar compile -o build ./...          Compile every document below .
  declavatar watch avatar.declisp            Recompile whenever inputs change
  declavatar schema check physbone.declisp   Validate an attachment schema
  declavatar i18n show ja-jp                 List diagnostic messages
  declavatar repl                            Start an interactive session

Compile inputs:
  -D NAME                  Define a symbol for (when (defined NAME) ...)
  -I DIR                   Add a directory searched by (include ...)
  --localization-file F    Load localizations from a TOML file
  --schema F               Register an attachment schema

Every flag can also be set in the config file ($HOME/.declavatar.yaml) or
through DECLAVATAR_* environment variables, e.g. DECLAVATAR_LOG_LEVEL=debug.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(viper.GetString("log-level"))
		if err != nil {
			return err
		}
		logger = l
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", slog.String("path", used))
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "declavatar:", err)
		os.Exit(exitUsage)
	}
}

// Exit codes shared by the commands.
const (
	exitFailed = 1 // a document failed to compile
	exitUsage  = 2 // bad invocation or unreadable input
)

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.declavatar.yaml)")
	flags.String("color", "auto", `Control colored output: "auto", "always", or "never".`)
	flags.String("log-level", "warn", `Log level: "debug", "info", "warn", or "error".`)
	flags.String("locale", "", "Locale of diagnostic messages (default en-us)")
	flags.StringArrayP("define", "D", nil, "Define a symbol (repeatable)")
	flags.StringArrayP("library-path", "I", nil, "Add an include directory (repeatable)")
	flags.StringArray("localization-file", nil, "Load localizations from a TOML file (repeatable)")
	flags.StringArray("schema", nil, "Register an attachment schema file (repeatable)")
	flags.Bool("trace", false, "Log a span for every compile phase")

	for key, flag := range map[string]string{
		"color":              "color",
		"log-level":          "log-level",
		"locale":             "locale",
		"symbols":            "define",
		"library-paths":      "library-path",
		"localization-files": "localization-file",
		"schemas":            "schema",
		"trace":              "trace",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			// Search config in home directory with name ".declavatar" (without extension).
			viper.AddConfigPath(home)
			viper.SetConfigName(".declavatar")
		}
	}

	viper.SetEnvPrefix("declavatar")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintln(os.Stderr, "reading config:", err)
		os.Exit(exitUsage)
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(h), nil
}
