package rdf

import (
	"errors"
	"fmt"
)

// TermType represents the type of an RDF term
type TermType byte

const (
	// Core term types
	TermTypeIRI TermType = iota + 1
	TermTypeBlankNode
	TermTypeLiteral

	// Literal subtypes used by the binary encoding
	TermTypeStringLiteral
	TermTypeLangStringLiteral
	TermTypeTypedLiteral
	TermTypeIntegerLiteral
	TermTypeBooleanLiteral
)

func (t TermType) String() string {
	switch t {
	case TermTypeIRI:
		return "iri"
	case TermTypeBlankNode:
		return "blank-node"
	case TermTypeLiteral:
		return "literal"
	case TermTypeStringLiteral:
		return "string-literal"
	case TermTypeLangStringLiteral:
		return "lang-string-literal"
	case TermTypeTypedLiteral:
		return "typed-literal"
	case TermTypeIntegerLiteral:
		return "integer-literal"
	case TermTypeBooleanLiteral:
		return "boolean-literal"
	default:
		return fmt.Sprintf("TermType(%d)", byte(t))
	}
}

// Term represents an RDF term (IRI, blank node, or literal)
type Term interface {
	Type() TermType
	String() string
}

// Subject is a term allowed in subject position: IRI or BlankNode.
type Subject interface {
	Term
	subject()
}

// Predicate is a term allowed in predicate position. Only IRI implements it.
type Predicate interface {
	Term
	predicate()
}

// Object is a term allowed in object position: IRI, BlankNode or Literal.
type Object interface {
	Term
	object()
}

// IRI is an absolute identifier, stored without its angle brackets.
type IRI string

func (i IRI) Type() TermType { return TermTypeIRI }

func (i IRI) String() string {
	return "<" + string(i) + ">"
}

func (IRI) subject()   {}
func (IRI) predicate() {}
func (IRI) object()    {}

// BlankNode is a statement-scoped anonymous node, stored without its "_:" prefix.
type BlankNode string

func (b BlankNode) Type() TermType { return TermTypeBlankNode }

func (b BlankNode) String() string {
	return "_:" + string(b)
}

func (BlankNode) subject() {}
func (BlankNode) object()  {}

// ErrConflictingSuffix is returned by Literal.Validate when both a datatype
// and a language are set.
var ErrConflictingSuffix = errors.New("literal has both a datatype and a language")

// Literal represents an RDF literal. Datatype and Language are empty when
// absent; at most one of them is set.
type Literal struct {
	Value    string
	Datatype string
	Language string
}

func NewLiteral(value string) Literal {
	return Literal{Value: value}
}

func NewLangLiteral(value, language string) Literal {
	return Literal{Value: value, Language: language}
}

func NewTypedLiteral(value, datatype string) Literal {
	return Literal{Value: value, Datatype: datatype}
}

func (l Literal) Type() TermType { return TermTypeLiteral }

// String renders the literal with its suffix. Value is written as-is: it
// holds the raw quoted content, escapes included.
func (l Literal) String() string {
	result := `"` + l.Value + `"`
	if l.Language != "" {
		result += "@" + l.Language
	} else if l.Datatype != "" {
		result += "^^<" + l.Datatype + ">"
	}
	return result
}

// Validate reports whether the literal breaks the one-suffix rule.
func (l Literal) Validate() error {
	if l.Datatype != "" && l.Language != "" {
		return ErrConflictingSuffix
	}
	return nil
}

func (Literal) object() {}

// Statement represents an RDF triple (subject, predicate, object).
// Statements are comparable with ==.
type Statement struct {
	Subject   Subject
	Predicate Predicate
	Object    Object
}

func NewStatement(subject Subject, predicate Predicate, object Object) Statement {
	return Statement{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}
}

func (s Statement) String() string {
	return fmt.Sprintf("%s %s %s .", s.Subject, s.Predicate, s.Object)
}

// Common XSD datatypes
const (
	XSDString  = "http://www.w3.org/2001/XMLSchema#string"
	XSDInteger = "http://www.w3.org/2001/XMLSchema#integer"
	XSDBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
	XSDDouble  = "http://www.w3.org/2001/XMLSchema#double"
)
