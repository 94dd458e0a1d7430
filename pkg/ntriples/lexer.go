package ntriples

// parser is a cursor over an immutable input buffer. Each grammar rule is a
// method that consumes a prefix starting at pos and leaves pos after it.
type parser struct {
	input  []byte
	pos    int
	length int
}

func newParser(input []byte, offset int) *parser {
	return &parser{
		input:  input,
		pos:    offset,
		length: len(input),
	}
}

func (p *parser) fail(kind ErrorKind, construct string, offset int) error {
	return &ParseError{
		Kind:      kind,
		Construct: construct,
		Offset:    offset,
		atEnd:     p.pos >= p.length,
	}
}

func (p *parser) peek(ch byte) bool {
	return p.pos < p.length && p.input[p.pos] == ch
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isNameChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// lineTerminatorLen returns the length of the line terminator at the start
// of b: CRLF, LF, U+2028 or U+2029. It returns 0 if there is none.
func lineTerminatorLen(b []byte) int {
	switch {
	case len(b) >= 2 && b[0] == '\r' && b[1] == '\n':
		return 2
	case len(b) >= 1 && b[0] == '\n':
		return 1
	case len(b) >= 3 && b[0] == 0xE2 && b[1] == 0x80 && (b[2] == 0xA8 || b[2] == 0xA9):
		return 3
	}
	return 0
}

// skipComment consumes '#' up to and including the line terminator, or to
// the end of input. A lone CR ends the body and is left for the whitespace run.
func (p *parser) skipComment() {
	p.pos++ // skip '#'
	for p.pos < p.length {
		if n := lineTerminatorLen(p.input[p.pos:]); n > 0 {
			p.pos += n
			return
		}
		if p.input[p.pos] == '\r' {
			return
		}
		p.pos++
	}
}

// skipSeparators consumes a run of whitespace and comments and reports
// whether anything was consumed.
func (p *parser) skipSeparators() bool {
	start := p.pos
	for p.pos < p.length {
		ch := p.input[p.pos]
		if isSpace(ch) {
			p.pos++
			continue
		}
		if ch == '#' {
			p.skipComment()
			continue
		}
		break
	}
	return p.pos > start
}

// skipName consumes a maximal run of ASCII letters and digits and reports
// whether it was non-empty.
func (p *parser) skipName() bool {
	start := p.pos
	for p.pos < p.length && isNameChar(p.input[p.pos]) {
		p.pos++
	}
	return p.pos > start
}

// parseIRIRef parses '<' body '>' and returns the body. The body may be
// empty; it ends at the first '>' and may not cross '<' or a line break.
func (p *parser) parseIRIRef(construct string) (string, error) {
	start := p.pos
	if p.pos >= p.length {
		return "", p.fail(UnexpectedEndOfInput, construct, p.pos)
	}
	if p.input[p.pos] != '<' {
		return "", p.fail(UnrecognizedTerm, construct, p.pos)
	}
	p.pos++ // skip '<'

	bodyStart := p.pos
	for p.pos < p.length {
		switch p.input[p.pos] {
		case '>':
			iri := string(p.input[bodyStart:p.pos])
			p.pos++ // skip '>'
			return iri, nil
		case '<', '\n', '\r':
			return "", p.fail(UnterminatedIdentifier, construct, start)
		}
		p.pos++
	}
	return "", p.fail(UnterminatedIdentifier, construct, start)
}

// parseBlankNode parses "_:" name and returns the name.
func (p *parser) parseBlankNode(construct string) (string, error) {
	start := p.pos
	if p.pos+1 >= p.length {
		p.pos = p.length
		return "", p.fail(UnexpectedEndOfInput, construct, p.length)
	}
	if p.input[p.pos] != '_' || p.input[p.pos+1] != ':' {
		return "", p.fail(UnrecognizedTerm, construct, start)
	}
	p.pos += 2

	nameStart := p.pos
	if !p.skipName() {
		return "", p.fail(InvalidBlankNode, construct, start)
	}
	return string(p.input[nameStart:p.pos]), nil
}
