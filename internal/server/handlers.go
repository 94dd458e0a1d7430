package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aleksaelezovic/ntstore/internal/config"
	"github.com/aleksaelezovic/ntstore/internal/loader"
	"github.com/aleksaelezovic/ntstore/internal/store"
	"github.com/aleksaelezovic/ntstore/pkg/ntriples"
	"github.com/aleksaelezovic/ntstore/pkg/rdf"
)

// handleRoot describes the endpoint
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	count, err := s.store.Count()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Count error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, `ntstore statement endpoint

Statements stored: %d

  POST   /statements              insert a document (?mode=lenient skips bad statements)
  DELETE /statements              delete the statements in a document
  GET    /statements              match ?subject= &predicate= &object= (terms in document syntax)
  GET    /stats                   store statistics
  GET    /metrics                 Prometheus metrics
`, count) // #nosec G104 - error writing response is logged elsewhere if needed
}

// handleStatements dispatches on method
func (s *Server) handleStatements(w http.ResponseWriter, r *http.Request) {
	// Enable CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		s.handleMatch(w, r)
	case http.MethodPost:
		s.handleInsert(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Use GET, POST or DELETE")
	}
}

// readBody reads the request body up to the configured limit
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body := r.Body
	if s.config.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		s.writeError(w, http.StatusBadRequest, "Failed to read request body")
		return nil, false
	}
	return data, true
}

// handleInsert parses the body and inserts its statements
func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var l *loader.Loader
	switch mode := r.URL.Query().Get("mode"); mode {
	case "", config.ModeStrict:
		l = s.strict
	case config.ModeLenient:
		l = s.lenient
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown mode %q", mode))
		return
	}

	startTime := time.Now()
	result, err := l.Load(r.Context(), data, "request")
	if err != nil {
		var perr *ntriples.ParseError
		if errors.As(err, &perr) {
			s.writeParseError(w, perr)
			return
		}
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Insert error: %v", err))
		return
	}

	s.logger.Debug("Inserted statements",
		"parsed", result.Statements,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"duration", time.Since(startTime))

	response := InsertResponse{Inserted: result.Inserted}
	if l == s.lenient {
		response.Skipped = &result.Skipped
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleDelete parses the body strictly and deletes its statements
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	statements, err := ntriples.Parse(data)
	if err != nil {
		var perr *ntriples.ParseError
		if errors.As(err, &perr) {
			s.writeParseError(w, perr)
			return
		}
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Parse error: %v", err))
		return
	}

	if err := s.store.DeleteStatements(statements); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Delete error: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, DeleteResponse{Deleted: len(statements)})
}

// handleMatch returns the statements matching the query parameters
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	pattern, err := patternFromQuery(r)
	if err != nil {
		var perr *ntriples.ParseError
		if errors.As(err, &perr) {
			s.writeParseError(w, perr)
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var statements []rdf.Statement
	for statement, err := range s.store.All(pattern) {
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Match error: %v", err))
			return
		}
		statements = append(statements, statement)
	}

	s.writeStatements(w, statements, negotiateFormat(r.Header.Get("Accept")))
}

// handleStats reports the number of stored statements
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Use GET")
		return
	}

	count, err := s.store.Count()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Count error: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, StatsResponse{Statements: count})
}

// patternFromQuery reads subject, predicate and object parameters written in
// document syntax, e.g. subject=<http://example.org/a> or object="x"@en.
func patternFromQuery(r *http.Request) (store.Pattern, error) {
	query := r.URL.Query()
	var pattern store.Pattern

	if v := strings.TrimSpace(query.Get("subject")); v != "" {
		subject, err := ntriples.ParseSubject([]byte(v))
		if err != nil {
			return pattern, err
		}
		pattern.Subject = subject
	}
	if v := strings.TrimSpace(query.Get("predicate")); v != "" {
		predicate, err := ntriples.ParsePredicate([]byte(v))
		if err != nil {
			return pattern, err
		}
		pattern.Predicate = predicate
	}
	if v := strings.TrimSpace(query.Get("object")); v != "" {
		object, err := ntriples.ParseObject([]byte(v))
		if err != nil {
			return pattern, err
		}
		pattern.Object = object
	}
	return pattern, nil
}
