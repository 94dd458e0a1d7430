package ntriples

import (
	"github.com/aleksaelezovic/ntstore/pkg/rdf"
)

// parseStatement parses: separators? subject separators predicate
// separators object separators? '.'
//
// Terms are committed left to right; the first failure is returned and no
// earlier alternative is retried.
func (p *parser) parseStatement() (rdf.Statement, error) {
	p.skipSeparators()

	subject, err := p.parseSubject()
	if err != nil {
		return rdf.Statement{}, err
	}

	if err := p.requireSeparator("predicate"); err != nil {
		return rdf.Statement{}, err
	}

	predicate, err := p.parsePredicate()
	if err != nil {
		return rdf.Statement{}, err
	}

	if err := p.requireSeparator("object"); err != nil {
		return rdf.Statement{}, err
	}

	object, err := p.parseObject()
	if err != nil {
		return rdf.Statement{}, err
	}

	p.skipSeparators()

	// Expect '.' at end
	if !p.peek('.') {
		return rdf.Statement{}, p.fail(MissingTerminator, "statement", p.pos)
	}
	p.pos++ // skip '.'

	return rdf.NewStatement(subject, predicate, object), nil
}

// requireSeparator consumes the mandatory separator run before the next term.
func (p *parser) requireSeparator(next string) error {
	if p.skipSeparators() {
		return nil
	}
	if p.pos >= p.length {
		return p.fail(UnexpectedEndOfInput, next, p.pos)
	}
	return p.fail(MissingSeparator, next, p.pos)
}
