package server

import (
	"encoding/json"
	"strings"

	"github.com/aleksaelezovic/ntstore/pkg/ntriples"
	"github.com/aleksaelezovic/ntstore/pkg/rdf"
)

// InsertResponse is returned by POST /statements
type InsertResponse struct {
	Inserted int  `json:"inserted"`
	Skipped  *int `json:"skipped,omitempty"`
}

// DeleteResponse is returned by DELETE /statements
type DeleteResponse struct {
	Deleted int `json:"deleted"`
}

// StatsResponse is returned by GET /stats
type StatsResponse struct {
	Statements int64 `json:"statements"`
}

// ErrorResponse wraps an error body
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes a failed request. Parse failures carry their position.
type ErrorBody struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Kind      string `json:"kind,omitempty"`
	Construct string `json:"construct,omitempty"`
	Offset    *int   `json:"offset,omitempty"`
	Line      int    `json:"line,omitempty"`
	Column    int    `json:"column,omitempty"`
}

func parseErrorBody(code int, perr *ntriples.ParseError) ErrorBody {
	offset := perr.Offset
	return ErrorBody{
		Code:      code,
		Message:   perr.Error(),
		Kind:      perr.Kind.String(),
		Construct: perr.Construct,
		Offset:    &offset,
		Line:      perr.Line,
		Column:    perr.Column,
	}
}

// TermValue is the JSON form of a term
type TermValue struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// StatementValue is the JSON form of a statement
type StatementValue struct {
	Subject   TermValue `json:"subject"`
	Predicate TermValue `json:"predicate"`
	Object    TermValue `json:"object"`
}

// termToValue converts an RDF term to its JSON form
func termToValue(term rdf.Term) TermValue {
	switch t := term.(type) {
	case rdf.IRI:
		return TermValue{Type: "uri", Value: string(t)}
	case rdf.BlankNode:
		return TermValue{Type: "bnode", Value: string(t)}
	case rdf.Literal:
		return TermValue{Type: "literal", Value: t.Value, Datatype: t.Datatype, Lang: t.Language}
	default:
		return TermValue{Type: "literal", Value: term.String()}
	}
}

// FormatStatementsJSON renders statements as a JSON array
func FormatStatementsJSON(statements []rdf.Statement) ([]byte, error) {
	values := make([]StatementValue, 0, len(statements))
	for _, statement := range statements {
		values = append(values, StatementValue{
			Subject:   termToValue(statement.Subject),
			Predicate: termToValue(statement.Predicate),
			Object:    termToValue(statement.Object),
		})
	}
	return json.MarshalIndent(values, "", "  ")
}

// FormatStatements renders statements in document syntax, one per line
func FormatStatements(statements []rdf.Statement) []byte {
	var builder strings.Builder
	for _, statement := range statements {
		builder.WriteString(statement.String())
		builder.WriteByte('\n')
	}
	return []byte(builder.String())
}
