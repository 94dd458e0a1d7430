// Package server exposes a TripleStore over HTTP: statement ingest and
// lookup, store statistics and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aleksaelezovic/ntstore/internal/config"
	"github.com/aleksaelezovic/ntstore/internal/loader"
	"github.com/aleksaelezovic/ntstore/internal/metrics"
	"github.com/aleksaelezovic/ntstore/internal/store"
)

// Server represents the HTTP statement endpoint
type Server struct {
	store   *store.TripleStore
	strict  *loader.Loader
	lenient *loader.Loader
	metrics *metrics.Metrics
	config  config.ServerConfig
	logger  *slog.Logger
}

// NewServer creates a new HTTP server. Uploads are parsed with the worker
// and chunk settings of load; the mode is chosen per request.
func NewServer(tripleStore *store.TripleStore, cfg config.ServerConfig, load config.LoadConfig, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	strictOptions := loader.OptionsFromConfig(load)
	strictOptions.Mode = config.ModeStrict
	lenientOptions := strictOptions
	lenientOptions.Mode = config.ModeLenient

	return &Server{
		store:   tripleStore,
		strict:  loader.New(tripleStore, strictOptions, logger, m),
		lenient: loader.New(tripleStore, lenientOptions, logger, m),
		metrics: m,
		config:  cfg,
		logger:  logger,
	}
}

// Handler returns the request router
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/statements", s.handleStatements)
	mux.HandleFunc("/stats", s.handleStats)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting statement endpoint", "addr", s.config.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("Statement endpoint stopped")
	return nil
}
