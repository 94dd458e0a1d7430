package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aleksaelezovic/ntstore/internal/config"
	"github.com/aleksaelezovic/ntstore/internal/storage"
	"github.com/aleksaelezovic/ntstore/internal/store"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags and what setup derives from them
type globalOptions struct {
	configPath string
	dbPath     string
	logLevel   string

	config *config.Config
	logger *slog.Logger
}

// setup loads the configuration, applies the global flags and installs the logger
func (o *globalOptions) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cfg.Merge(&config.Config{
		Storage: config.StorageConfig{Path: o.dbPath},
		Log:     config.LogConfig{Level: strings.ToLower(o.logLevel)},
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	o.config = cfg
	o.logger = newLogger(cfg.Log, cmd.ErrOrStderr())
	slog.SetDefault(o.logger)
	return nil
}

// override merges command flags into the configuration and validates the result
func (o *globalOptions) override(other *config.Config) error {
	o.config.Merge(other)
	if err := o.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// openStore opens the configured database
func (o *globalOptions) openStore() (*store.TripleStore, error) {
	backend, err := storage.NewBadgerStorage(storage.Options{
		Path:       o.config.Storage.Path,
		SyncWrites: o.config.Storage.SyncWrites,
	})
	if err != nil {
		return nil, err
	}
	o.logger.Debug("Opened store", "path", o.config.Storage.Path)
	return store.NewTripleStore(backend), nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadFromFile(path)
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handlerOptions := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOptions))
	}
	return slog.New(slog.NewTextHandler(w, handlerOptions))
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}
