package ntriples

import (
	"errors"
	"testing"

	"github.com/aleksaelezovic/ntstore/pkg/rdf"
)

func TestParseSubject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected rdf.Subject
		wantKind ErrorKind
	}{
		{name: "blank node", input: "_:name4Node", expected: rdf.BlankNode("name4Node")},
		{name: "iri", input: "<http://tv-laufach.de/Mitglieder>", expected: rdf.IRI("http://tv-laufach.de/Mitglieder")},
		{name: "literal not allowed", input: `"x"`, wantKind: UnrecognizedTerm},
		{name: "unterminated iri", input: "<http://a", wantKind: UnterminatedIdentifier},
		{name: "empty", input: "", wantKind: UnexpectedEndOfInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser([]byte(tt.input), 0)
			subject, err := p.parseSubject()
			checkTerm(t, subject, err, tt.expected, tt.wantKind)
		})
	}
}

func TestParsePredicate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected rdf.Predicate
		wantKind ErrorKind
	}{
		{name: "iri", input: "<http://tv-laufach.de/Mitglieder>", expected: rdf.IRI("http://tv-laufach.de/Mitglieder")},
		{name: "blank node rejected", input: "_:p", wantKind: UnrecognizedTerm},
		{name: "literal rejected", input: `"p"`, wantKind: UnrecognizedTerm},
		{name: "empty", input: "", wantKind: UnexpectedEndOfInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser([]byte(tt.input), 0)
			predicate, err := p.parsePredicate()
			checkTerm(t, predicate, err, tt.expected, tt.wantKind)
		})
	}
}

func TestParseObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected rdf.Object
		wantKind ErrorKind
	}{
		{name: "blank node", input: "_:Named", expected: rdf.BlankNode("Named")},
		{name: "iri", input: "<http://tv-laufach.de/Mitglieder>", expected: rdf.IRI("http://tv-laufach.de/Mitglieder")},
		{name: "plain literal", input: `"Hallo Welt"`, expected: rdf.NewLiteral("Hallo Welt")},
		{name: "empty literal", input: `""`, expected: rdf.NewLiteral("")},
		{
			name:     "language literal",
			input:    `"That Seventies Show"@en`,
			expected: rdf.NewLangLiteral("That Seventies Show", "en"),
		},
		{
			name:     "language literal with subtag",
			input:    `"colour"@en-GB`,
			expected: rdf.NewLangLiteral("colour", "en-GB"),
		},
		{
			name:     "typed literal",
			input:    `"That Seventies Show"^^<http://www.w3.org/2001/XMLSchema#string>`,
			expected: rdf.NewTypedLiteral("That Seventies Show", rdf.XSDString),
		},
		{
			name:     "escaped quote stays in value",
			input:    `"say \"hi\""`,
			expected: rdf.NewLiteral(`say \"hi\"`),
		},
		{
			name:     "escaped backslash before closing quote",
			input:    `"dir\\"`,
			expected: rdf.NewLiteral(`dir\\`),
		},
		{name: "unterminated literal", input: `"open`, wantKind: UnterminatedLiteral},
		{name: "escape at end", input: `"open\"`, wantKind: UnterminatedLiteral},
		{name: "language then datatype", input: `"v"@en^^<http://d>`, wantKind: ConflictingLiteralSuffix},
		{name: "datatype then language", input: `"v"^^<http://d>@en`, wantKind: ConflictingLiteralSuffix},
		{name: "language then spaced datatype", input: `"v"@en ^^<http://d>`, wantKind: ConflictingLiteralSuffix},
		{name: "datatype then commented language", input: "\"v\"^^<http://d> # note\n@en", wantKind: ConflictingLiteralSuffix},
		{name: "empty language tag", input: `"v"@ .`, wantKind: InvalidLanguageTag},
		{name: "language tag at end", input: `"v"@`, wantKind: UnexpectedEndOfInput},
		{name: "single caret", input: `"v"^<http://d>`, wantKind: UnrecognizedTerm},
		{name: "datatype without iri", input: `"v"^^_:b`, wantKind: UnrecognizedTerm},
		{name: "unterminated datatype", input: `"v"^^<http://d`, wantKind: UnterminatedIdentifier},
		{name: "bare word", input: "true", wantKind: UnrecognizedTerm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser([]byte(tt.input), 0)
			object, err := p.parseObject()
			checkTerm(t, object, err, tt.expected, tt.wantKind)
		})
	}
}

func TestLiteralRoundTrip(t *testing.T) {
	values := []string{"v", "", "Hallo Welt", "1", "multi\nline", "ünïcödé"}
	for _, v := range values {
		cases := map[string]rdf.Literal{
			`"` + v + `"`:        {Value: v},
			`"` + v + `"@en`:     {Value: v, Language: "en"},
			`"` + v + `"^^<d>`:   {Value: v, Datatype: "d"},
			`"` + v + `"@de-CH1`: {Value: v, Language: "de-CH1"},
		}
		for input, want := range cases {
			p := newParser([]byte(input), 0)
			lit, err := p.parseLiteral()
			if err != nil {
				t.Errorf("%q: unexpected error: %v", input, err)
				continue
			}
			if lit != want {
				t.Errorf("%q: expected %+v, got %+v", input, want, lit)
			}
			if lit.Validate() != nil {
				t.Errorf("%q: literal carries both suffixes", input)
			}
		}
	}
}

func checkTerm[T comparable](t *testing.T, got T, err error, want T, wantKind ErrorKind) {
	t.Helper()
	if wantKind != 0 {
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("expected *ParseError, got %v", err)
		}
		if perr.Kind != wantKind {
			t.Errorf("expected kind %s, got %s (%v)", wantKind, perr.Kind, err)
		}
		return
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}
