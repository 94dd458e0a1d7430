// Package ntriples parses line-oriented RDF statements of the form
//
//	<subject> <predicate> <object> .
//
// Subjects are IRIs or blank nodes, predicates are IRIs, and objects are
// IRIs, blank nodes or literals with an optional language tag or datatype.
// Whitespace and '#' comments may separate terms and statements.
//
// All functions are pure: they read the caller's buffer, never modify it,
// and return values that do not reference it. Distinct buffers (or distinct
// statement-aligned regions of one buffer) can be parsed concurrently.
package ntriples

import (
	"errors"
	"iter"

	"github.com/aleksaelezovic/ntstore/pkg/rdf"
)

// Parse parses every statement in input. It stops at the first malformed
// statement and returns its *ParseError.
func Parse(input []byte) ([]rdf.Statement, error) {
	var statements []rdf.Statement
	for statement, err := range All(input) {
		if err != nil {
			return nil, err
		}
		statements = append(statements, statement)
	}
	return statements, nil
}

// All returns a lazy sequence over the statements in input. A malformed
// statement is yielded once as a non-nil error and ends the sequence.
func All(input []byte) iter.Seq2[rdf.Statement, error] {
	return func(yield func(rdf.Statement, error) bool) {
		p := newParser(input, 0)
		for {
			p.skipSeparators()
			if p.pos >= p.length {
				return
			}

			statement, err := p.parseStatement()
			if err != nil {
				yield(rdf.Statement{}, located(input, err))
				return
			}
			if !yield(statement, nil) {
				return
			}
		}
	}
}

// ParseStatement parses one statement starting at offset, including any
// leading separators, and returns the offset just past its terminator.
// On failure the returned offset is the one passed in.
func ParseStatement(input []byte, offset int) (rdf.Statement, int, error) {
	p := newParser(input, offset)
	statement, err := p.parseStatement()
	if err != nil {
		return rdf.Statement{}, offset, located(input, err)
	}
	return statement, p.pos, nil
}

// ParseSubject parses input holding exactly one subject term.
func ParseSubject(input []byte) (rdf.Subject, error) {
	return parseTerm(input, "subject", (*parser).parseSubject)
}

// ParsePredicate parses input holding exactly one predicate term.
func ParsePredicate(input []byte) (rdf.Predicate, error) {
	return parseTerm(input, "predicate", (*parser).parsePredicate)
}

// ParseObject parses input holding exactly one object term.
func ParseObject(input []byte) (rdf.Object, error) {
	return parseTerm(input, "object", (*parser).parseObject)
}

func parseTerm[T any](input []byte, construct string, parse func(*parser) (T, error)) (T, error) {
	p := newParser(input, 0)
	term, err := parse(p)
	if err == nil && p.pos < p.length {
		err = p.fail(UnrecognizedTerm, construct, p.pos)
	}
	if err != nil {
		var zero T
		return zero, located(input, err)
	}
	return term, nil
}

// SkipSeparators returns the offset of the first byte at or after offset
// that is not whitespace or part of a comment.
func SkipSeparators(input []byte, offset int) int {
	p := newParser(input, offset)
	p.skipSeparators()
	return p.pos
}

func located(input []byte, err error) error {
	var perr *ParseError
	if errors.As(err, &perr) {
		perr.locate(input)
	}
	return err
}
