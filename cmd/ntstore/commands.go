package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aleksaelezovic/ntstore/internal/config"
	"github.com/aleksaelezovic/ntstore/internal/loader"
	"github.com/aleksaelezovic/ntstore/internal/metrics"
	"github.com/aleksaelezovic/ntstore/internal/server"
	"github.com/aleksaelezovic/ntstore/internal/store"
	"github.com/aleksaelezovic/ntstore/pkg/ntriples"
	"github.com/aleksaelezovic/ntstore/pkg/rdf"
	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "parse [file...]",
		Short: "Validate statement files and print their statements",
		Long: `Parse reads each file (standard input when none is given or the name is "-")
and prints its statements in canonical form, one per line. The first malformed
statement stops parsing and is reported with its line and column.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}

			out := bufio.NewWriter(cmd.OutOrStdout())
			defer out.Flush()

			total := 0
			for _, path := range args {
				data, err := readInput(cmd, path)
				if err != nil {
					return err
				}

				statements, err := ntriples.Parse(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				total += len(statements)

				if quiet {
					continue
				}
				for _, statement := range statements {
					fmt.Fprintln(out, statement.String())
				}
			}

			if quiet {
				fmt.Fprintf(out, "%d statements\n", total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the number of statements")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func loadCmd(opts *globalOptions) *cobra.Command {
	var (
		mode      string
		workers   int
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "load [glob...]",
		Short: "Load statement files into the store",
		Long: `Load expands doublestar globs such as "data/**/*.nt" and loads every matching
file. Without arguments the configured load.patterns are used, relative to the
working directory. Each run is recorded and can be listed with "ntstore loads".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.override(&config.Config{
				Load: config.LoadConfig{Mode: mode, Workers: workers, BatchSize: batchSize},
			}); err != nil {
				return err
			}

			patterns := args
			if len(patterns) == 0 {
				patterns = opts.config.Load.Patterns
			}
			paths, err := loader.Discover("", patterns)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no files match %s", strings.Join(patterns, ", "))
			}

			tripleStore, err := opts.openStore()
			if err != nil {
				return err
			}
			defer tripleStore.Close()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			l := loader.New(tripleStore, loader.OptionsFromConfig(opts.config.Load), opts.logger, nil)
			record, err := l.LoadFiles(ctx, paths)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d files: %d statements, %d inserted, %d skipped\n",
				len(paths), record.Statements, record.Inserted, record.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Load mode (strict, lenient)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent chunk parsers")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Statements written per transaction")
	return cmd
}

func countCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored statements",
		RunE: func(cmd *cobra.Command, args []string) error {
			tripleStore, err := opts.openStore()
			if err != nil {
				return err
			}
			defer tripleStore.Close()

			count, err := tripleStore.Count()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}
}

func matchCmd(opts *globalOptions) *cobra.Command {
	var (
		subject   string
		predicate string
		object    string
		limit     int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Print the stored statements matching a pattern",
		Long: `Match prints the statements whose terms equal the given ones. Terms are written
as in a document, e.g. --subject '<http://example.org/alice>' or --object '"Bob"@en'.
Omitted terms match anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, err := buildPattern(subject, predicate, object)
			if err != nil {
				return err
			}

			tripleStore, err := opts.openStore()
			if err != nil {
				return err
			}
			defer tripleStore.Close()

			var statements []rdf.Statement
			for statement, err := range tripleStore.All(pattern) {
				if err != nil {
					return err
				}
				statements = append(statements, statement)
				if limit > 0 && len(statements) >= limit {
					break
				}
			}

			if asJSON {
				data, err := server.FormatStatementsJSON(statements)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			_, err = cmd.OutOrStdout().Write(server.FormatStatements(statements))
			return err
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Subject term")
	cmd.Flags().StringVarP(&predicate, "predicate", "p", "", "Predicate term")
	cmd.Flags().StringVarP(&object, "object", "o", "", "Object term")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of statements (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print statements as JSON")
	return cmd
}

func buildPattern(subject, predicate, object string) (store.Pattern, error) {
	var pattern store.Pattern
	if subject != "" {
		term, err := ntriples.ParseSubject([]byte(subject))
		if err != nil {
			return pattern, fmt.Errorf("--subject: %w", err)
		}
		pattern.Subject = term
	}
	if predicate != "" {
		term, err := ntriples.ParsePredicate([]byte(predicate))
		if err != nil {
			return pattern, fmt.Errorf("--predicate: %w", err)
		}
		pattern.Predicate = term
	}
	if object != "" {
		term, err := ntriples.ParseObject([]byte(object))
		if err != nil {
			return pattern, fmt.Errorf("--object: %w", err)
		}
		pattern.Object = term
	}
	return pattern, nil
}

func loadsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "loads",
		Short: "List recorded load runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			tripleStore, err := opts.openStore()
			if err != nil {
				return err
			}
			defer tripleStore.Close()

			records, err := tripleStore.Loads()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tMODE\tFILES\tSTATEMENTS\tINSERTED\tSKIPPED\tERROR")
			for _, record := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					record.ID,
					record.Started.Format(time.RFC3339),
					record.Mode,
					len(record.Sources),
					record.Statements,
					record.Inserted,
					record.Skipped,
					record.Error)
			}
			return w.Flush()
		},
	}
}

func serveCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the store over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.override(&config.Config{Server: config.ServerConfig{Addr: addr}}); err != nil {
				return err
			}

			tripleStore, err := opts.openStore()
			if err != nil {
				return err
			}
			defer tripleStore.Close()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			srv := server.NewServer(tripleStore, opts.config.Server, opts.config.Load, metrics.New(), opts.logger)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func watchCmd(opts *globalOptions) *cobra.Command {
	var (
		mode     string
		patterns []string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Load matching files under a directory and reload them on change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.override(&config.Config{
				Load: config.LoadConfig{Mode: mode, Patterns: patterns, Debounce: debounce},
			}); err != nil {
				return err
			}

			tripleStore, err := opts.openStore()
			if err != nil {
				return err
			}
			defer tripleStore.Close()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			l := loader.New(tripleStore, loader.OptionsFromConfig(opts.config.Load), opts.logger, metrics.New())
			w := loader.NewWatcher(l, args[0], opts.config.Load.Patterns, opts.config.Load.Debounce, opts.logger)
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Load mode (strict, lenient)")
	cmd.Flags().StringSliceVar(&patterns, "pattern", nil, "Doublestar patterns relative to dir (overrides load.patterns)")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Delay before reloading changed files")
	return cmd
}
