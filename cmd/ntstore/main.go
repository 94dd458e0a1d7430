// Package main provides the ntstore binary entry point.
// ntstore parses line-oriented RDF statement files, loads them into an
// indexed BadgerDB store and serves them over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ntstore"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Line-oriented RDF statement store",
		Long: `ntstore reads documents of RDF statements, one statement per line:

  <http://example.org/alice> <http://xmlns.com/foaf/0.1/knows> _:bob .
  _:bob <http://xmlns.com/foaf/0.1/name> "Bob"@en .

It validates them, loads them into an indexed BadgerDB store, answers
subject/predicate/object pattern lookups and serves the store over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Database directory (overrides storage.path)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		parseCmd(),
		loadCmd(opts),
		countCmd(opts),
		matchCmd(opts),
		loadsCmd(opts),
		serveCmd(opts),
		watchCmd(opts),
	)

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}
