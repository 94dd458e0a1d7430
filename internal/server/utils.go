package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aleksaelezovic/ntstore/pkg/ntriples"
	"github.com/aleksaelezovic/ntstore/pkg/rdf"
)

const (
	formatNTriples = "ntriples"
	formatJSON     = "json"
)

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.logger.Warn("Request failed", "status", statusCode, "error", message)
	s.writeJSON(w, statusCode, ErrorResponse{Error: ErrorBody{Code: statusCode, Message: message}})
}

// writeParseError reports a malformed document with its position
func (s *Server) writeParseError(w http.ResponseWriter, perr *ntriples.ParseError) {
	s.logger.Warn("Rejected malformed document",
		"kind", perr.Kind.String(),
		"offset", perr.Offset,
		"line", perr.Line,
		"column", perr.Column)
	s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: parseErrorBody(http.StatusBadRequest, perr)})
}

// writeJSON writes value as a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value) // #nosec G104 - error writing response is logged elsewhere if needed
}

// negotiateFormat determines the response format based on Accept header
func negotiateFormat(acceptHeader string) string {
	accept := strings.ToLower(acceptHeader)
	if strings.Contains(accept, "application/json") && !strings.Contains(accept, "application/n-triples") {
		return formatJSON
	}
	return formatNTriples
}

// writeStatements writes statements in the requested format
func (s *Server) writeStatements(w http.ResponseWriter, statements []rdf.Statement, format string) {
	if format == formatJSON {
		data, err := FormatStatementsJSON(statements)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Formatting error: %v", err))
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data) // #nosec G104 - error writing response is logged elsewhere if needed
		return
	}

	w.Header().Set("Content-Type", "application/n-triples; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(FormatStatements(statements)) // #nosec G104 - error writing response is logged elsewhere if needed
}
