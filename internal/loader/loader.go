// Package loader discovers statement files and writes their contents into a
// TripleStore, either strictly (all or nothing per file) or leniently
// (malformed statements are logged and skipped).
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aleksaelezovic/ntstore/internal/config"
	"github.com/aleksaelezovic/ntstore/internal/metrics"
	"github.com/aleksaelezovic/ntstore/internal/store"
	"github.com/aleksaelezovic/ntstore/pkg/ntriples"
	"github.com/aleksaelezovic/ntstore/pkg/rdf"
)

// Options configures a Loader
type Options struct {
	Mode      string
	Workers   int
	BatchSize int
	ChunkSize int
}

// OptionsFromConfig copies the load section of a configuration
func OptionsFromConfig(cfg config.LoadConfig) Options {
	return Options{
		Mode:      cfg.Mode,
		Workers:   cfg.Workers,
		BatchSize: cfg.BatchSize,
		ChunkSize: cfg.ChunkSize,
	}
}

// Result summarises loading one source
type Result struct {
	Statements int
	Inserted   int
	Skipped    int
}

// Loader parses sources and inserts their statements
type Loader struct {
	store   *store.TripleStore
	options Options
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a Loader. A nil logger uses slog.Default(); nil metrics disables them.
func New(tripleStore *store.TripleStore, options Options, logger *slog.Logger, m *metrics.Metrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if options.Mode == "" {
		options.Mode = config.ModeStrict
	}
	if options.Workers < 1 {
		options.Workers = 1
	}
	if options.BatchSize < 1 {
		options.BatchSize = 10000
	}
	if options.ChunkSize < 1 {
		options.ChunkSize = 1 << 20
	}
	return &Loader{
		store:   tripleStore,
		options: options,
		logger:  logger,
		metrics: m,
	}
}

// LoadFiles loads every file and stores a load record describing the run.
// In strict mode it stops at the first file that fails.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) (*store.LoadRecord, error) {
	record := &store.LoadRecord{
		Sources: paths,
		Mode:    l.options.Mode,
		Started: time.Now().UTC(),
	}

	var loadErr error
	for _, path := range paths {
		result, err := l.LoadFile(ctx, path)
		record.Statements += result.Statements
		record.Inserted += result.Inserted
		record.Skipped += result.Skipped
		if err != nil {
			loadErr = err
			break
		}
	}

	record.Finished = time.Now().UTC()
	if loadErr != nil {
		record.Error = loadErr.Error()
	}
	if err := l.store.RecordLoad(record); err != nil {
		return record, errors.Join(loadErr, fmt.Errorf("failed to record load: %w", err))
	}

	l.logger.Info("Load finished",
		"id", record.ID,
		"files", len(paths),
		"statements", record.Statements,
		"inserted", record.Inserted,
		"skipped", record.Skipped,
		"duration", record.Finished.Sub(record.Started))

	return record, loadErr
}

// LoadFile reads and loads a single file
func (l *Loader) LoadFile(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		l.metrics.FileLoaded(false, time.Since(start))
		return Result{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, err := l.Load(ctx, data, path)
	l.metrics.FileLoaded(err == nil, time.Since(start))
	return result, err
}

// Load parses data according to the configured mode and inserts the
// statements. source names the data in logs and errors.
func (l *Loader) Load(ctx context.Context, data []byte, source string) (Result, error) {
	if l.options.Mode == config.ModeLenient {
		return l.loadLenient(ctx, data, source)
	}
	return l.loadStrict(ctx, data, source)
}

func (l *Loader) loadStrict(ctx context.Context, data []byte, source string) (Result, error) {
	statements, err := ParseChunks(ctx, data, l.options.ChunkSize, l.options.Workers)
	if err != nil {
		var perr *ntriples.ParseError
		if errors.As(err, &perr) {
			l.metrics.ParseError(perr.Kind.String())
		}
		return Result{}, fmt.Errorf("%s: %w", source, err)
	}
	l.metrics.StatementsParsed(len(statements))

	inserted, err := l.insert(statements)
	if err != nil {
		return Result{Statements: len(statements), Inserted: inserted}, fmt.Errorf("%s: %w", source, err)
	}

	l.logger.Debug("Loaded file", "source", source, "statements", len(statements), "inserted", inserted)
	return Result{Statements: len(statements), Inserted: inserted}, nil
}

func (l *Loader) loadLenient(ctx context.Context, data []byte, source string) (Result, error) {
	var result Result
	batch := make([]rdf.Statement, 0, l.options.BatchSize)

	flush := func() error {
		inserted, err := l.insert(batch)
		result.Inserted += inserted
		batch = batch[:0]
		return err
	}

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		offset = ntriples.SkipSeparators(data, offset)
		if offset >= len(data) {
			break
		}

		statement, next, err := ntriples.ParseStatement(data, offset)
		if err != nil {
			var perr *ntriples.ParseError
			if !errors.As(err, &perr) {
				return result, fmt.Errorf("%s: %w", source, err)
			}
			result.Skipped++
			l.metrics.ParseError(perr.Kind.String())
			l.logger.Warn("Skipping malformed statement",
				"source", source,
				"kind", perr.Kind.String(),
				"offset", perr.Offset,
				"line", perr.Line,
				"column", perr.Column)
			// A failure can be reported on a later line than the statement began,
			// so resume after the line where it started
			offset = nextLine(data, offset)
			continue
		}

		result.Statements++
		batch = append(batch, statement)
		if len(batch) >= l.options.BatchSize {
			if err := flush(); err != nil {
				return result, fmt.Errorf("%s: %w", source, err)
			}
		}
		offset = next
	}

	if err := flush(); err != nil {
		return result, fmt.Errorf("%s: %w", source, err)
	}
	l.metrics.StatementsParsed(result.Statements)

	l.logger.Debug("Loaded file", "source", source,
		"statements", result.Statements, "inserted", result.Inserted, "skipped", result.Skipped)
	return result, nil
}

// insert writes statements in batches of the configured size
func (l *Loader) insert(statements []rdf.Statement) (int, error) {
	total := 0
	for start := 0; start < len(statements); start += l.options.BatchSize {
		end := min(start+l.options.BatchSize, len(statements))
		inserted, err := l.store.InsertStatements(statements[start:end])
		total += inserted
		l.metrics.StatementsInserted(inserted)
		if err != nil {
			return total, fmt.Errorf("failed to insert statements: %w", err)
		}
	}
	return total, nil
}

// nextLine returns the offset just past the line break at or after offset
func nextLine(data []byte, offset int) int {
	i := bytes.IndexAny(data[offset:], "\n\r")
	if i < 0 {
		return len(data)
	}
	i += offset
	if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
		return i + 2
	}
	return i + 1
}
