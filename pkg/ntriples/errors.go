package ntriples

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a grammar failure.
type ErrorKind uint8

const (
	UnterminatedIdentifier ErrorKind = iota + 1
	InvalidBlankNode
	UnterminatedLiteral
	ConflictingLiteralSuffix
	MissingTerminator
	UnexpectedEndOfInput
	UnrecognizedTerm
	MissingSeparator
	InvalidLanguageTag
)

// Sentinel errors, one per ErrorKind. A *ParseError unwraps to the sentinel
// of its kind, so errors.Is(err, ErrMissingTerminator) works on wrapped errors.
var (
	ErrUnterminatedIdentifier   = errors.New("unterminated identifier")
	ErrInvalidBlankNode         = errors.New("invalid blank node")
	ErrUnterminatedLiteral      = errors.New("unterminated literal")
	ErrConflictingLiteralSuffix = errors.New("literal has both a language tag and a datatype")
	ErrMissingTerminator        = errors.New("missing statement terminator")
	ErrUnexpectedEndOfInput     = errors.New("unexpected end of input")
	ErrUnrecognizedTerm         = errors.New("unrecognized term")
	ErrMissingSeparator         = errors.New("missing separator")
	ErrInvalidLanguageTag       = errors.New("invalid language tag")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case UnterminatedIdentifier:
		return ErrUnterminatedIdentifier
	case InvalidBlankNode:
		return ErrInvalidBlankNode
	case UnterminatedLiteral:
		return ErrUnterminatedLiteral
	case ConflictingLiteralSuffix:
		return ErrConflictingLiteralSuffix
	case MissingTerminator:
		return ErrMissingTerminator
	case UnexpectedEndOfInput:
		return ErrUnexpectedEndOfInput
	case UnrecognizedTerm:
		return ErrUnrecognizedTerm
	case MissingSeparator:
		return ErrMissingSeparator
	case InvalidLanguageTag:
		return ErrInvalidLanguageTag
	default:
		return nil
	}
}

// String returns the kind name, e.g. "UnterminatedIdentifier".
func (k ErrorKind) String() string {
	switch k {
	case UnterminatedIdentifier:
		return "UnterminatedIdentifier"
	case InvalidBlankNode:
		return "InvalidBlankNode"
	case UnterminatedLiteral:
		return "UnterminatedLiteral"
	case ConflictingLiteralSuffix:
		return "ConflictingLiteralSuffix"
	case MissingTerminator:
		return "MissingTerminator"
	case UnexpectedEndOfInput:
		return "UnexpectedEndOfInput"
	case UnrecognizedTerm:
		return "UnrecognizedTerm"
	case MissingSeparator:
		return "MissingSeparator"
	case InvalidLanguageTag:
		return "InvalidLanguageTag"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// ParseError describes where and why a statement failed to parse.
type ParseError struct {
	Kind      ErrorKind
	Construct string // grammar rule being attempted, e.g. "subject" or "datatype"
	Offset    int    // byte offset in the input where matching stopped
	Line      int    // 1-based line of Offset
	Column    int    // 1-based byte column of Offset

	// atEnd is set when the failure was caused by running out of input,
	// so a longer buffer might still parse.
	atEnd bool
}

func (e *ParseError) Error() string {
	var msg strings.Builder
	msg.WriteString("ntriples")
	if e.Line > 0 {
		fmt.Fprintf(&msg, ":%d:%d", e.Line, e.Column)
	}
	fmt.Fprintf(&msg, ": %s", e.Kind.sentinel())
	if e.Construct != "" {
		fmt.Fprintf(&msg, " in %s", e.Construct)
	}
	fmt.Fprintf(&msg, " (offset %d)", e.Offset)
	return msg.String()
}

func (e *ParseError) Unwrap() error {
	return e.Kind.sentinel()
}

// locate fills Line and Column from Offset.
func (e *ParseError) locate(input []byte) {
	line, lineStart := 1, 0
	end := min(e.Offset, len(input))
	for i := 0; i < end; i++ {
		if input[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	e.Line = line
	e.Column = e.Offset - lineStart + 1
}
