package ntriples

import (
	"github.com/aleksaelezovic/ntstore/pkg/rdf"
)

// The three term forms start with disjoint bytes ('<', '_', '"'), so the
// first byte picks the alternative and a failure inside it is final.

// parseSubject parses an IRI or a blank node
func (p *parser) parseSubject() (rdf.Subject, error) {
	if p.pos >= p.length {
		return nil, p.fail(UnexpectedEndOfInput, "subject", p.pos)
	}

	switch p.input[p.pos] {
	case '<':
		iri, err := p.parseIRIRef("subject")
		if err != nil {
			return nil, err
		}
		return rdf.IRI(iri), nil
	case '_':
		name, err := p.parseBlankNode("subject")
		if err != nil {
			return nil, err
		}
		return rdf.BlankNode(name), nil
	default:
		return nil, p.fail(UnrecognizedTerm, "subject", p.pos)
	}
}

// parsePredicate parses an IRI; nothing else is allowed in predicate position
func (p *parser) parsePredicate() (rdf.Predicate, error) {
	iri, err := p.parseIRIRef("predicate")
	if err != nil {
		return nil, err
	}
	return rdf.IRI(iri), nil
}

// parseObject parses an IRI, a blank node or a literal
func (p *parser) parseObject() (rdf.Object, error) {
	if p.pos >= p.length {
		return nil, p.fail(UnexpectedEndOfInput, "object", p.pos)
	}

	switch p.input[p.pos] {
	case '<':
		iri, err := p.parseIRIRef("object")
		if err != nil {
			return nil, err
		}
		return rdf.IRI(iri), nil
	case '_':
		name, err := p.parseBlankNode("object")
		if err != nil {
			return nil, err
		}
		return rdf.BlankNode(name), nil
	case '"':
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return lit, nil
	default:
		return nil, p.fail(UnrecognizedTerm, "object", p.pos)
	}
}

// parseLiteral parses a quoted value with an optional language tag or
// datatype. A backslash skips the next byte when looking for the closing
// quote; escapes are kept verbatim in Value.
func (p *parser) parseLiteral() (rdf.Literal, error) {
	start := p.pos
	p.pos++ // skip opening '"'

	valueStart := p.pos
	for p.pos < p.length && p.input[p.pos] != '"' {
		if p.input[p.pos] == '\\' {
			p.pos++
		}
		p.pos++
	}
	if p.pos >= p.length {
		return rdf.Literal{}, p.fail(UnterminatedLiteral, "literal", start)
	}

	lit := rdf.Literal{Value: string(p.input[valueStart:p.pos])}
	p.pos++ // skip closing '"'

	switch {
	case p.peek('@'):
		lang, err := p.parseLanguageTag()
		if err != nil {
			return rdf.Literal{}, err
		}
		lit.Language = lang
		if at, ok := p.suffixFollows('^'); ok {
			return rdf.Literal{}, p.fail(ConflictingLiteralSuffix, "literal", at)
		}
	case p.peek('^'):
		datatype, err := p.parseDatatype()
		if err != nil {
			return rdf.Literal{}, err
		}
		lit.Datatype = datatype
		if at, ok := p.suffixFollows('@'); ok {
			return rdf.Literal{}, p.fail(ConflictingLiteralSuffix, "literal", at)
		}
	}

	return lit, nil
}

// suffixFollows reports whether a second suffix marker comes next, possibly
// after separators, and where. The cursor is left unchanged.
func (p *parser) suffixFollows(marker byte) (int, bool) {
	saved := p.pos
	p.skipSeparators()
	at, found := p.pos, p.peek(marker)
	p.pos = saved
	return at, found
}

// parseLanguageTag parses '@' name ('-' name)*
func (p *parser) parseLanguageTag() (string, error) {
	start := p.pos
	p.pos++ // skip '@'

	tagStart := p.pos
	if !p.skipName() {
		if p.pos >= p.length {
			return "", p.fail(UnexpectedEndOfInput, "language tag", p.pos)
		}
		return "", p.fail(InvalidLanguageTag, "language tag", start)
	}
	for p.pos+1 < p.length && p.input[p.pos] == '-' && isNameChar(p.input[p.pos+1]) {
		p.pos++ // skip '-'
		p.skipName()
	}

	return string(p.input[tagStart:p.pos]), nil
}

// parseDatatype parses "^^" followed by an IRI reference
func (p *parser) parseDatatype() (string, error) {
	start := p.pos
	if p.pos+1 >= p.length {
		p.pos = p.length
		return "", p.fail(UnexpectedEndOfInput, "datatype marker", p.length)
	}
	if p.input[p.pos+1] != '^' {
		return "", p.fail(UnrecognizedTerm, "datatype marker", start)
	}
	p.pos += 2

	return p.parseIRIRef("datatype")
}
