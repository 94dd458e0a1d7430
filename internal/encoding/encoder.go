package encoding

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/aleksaelezovic/ntstore/pkg/rdf"
	"github.com/zeebo/xxh3"
)

const (
	// Maximum size for inline strings (16 bytes of UTF-8)
	MaxInlineStringSize = 16

	// Encoded term size (type byte + 16 bytes for 128-bit hash or inline data)
	EncodedTermSize = 17
)

// EncodedTerm represents a term encoded as a type byte followed by up to 16 bytes of data
type EncodedTerm [EncodedTermSize]byte

// TermEncoder handles encoding of RDF terms into fixed-size keys.
//
// Terms that do not fit inline are hashed; the returned string is the
// content that was hashed, so the id2str table is content-addressed and a
// shared hash always maps to the same string.
type TermEncoder struct{}

func NewTermEncoder() *TermEncoder {
	return &TermEncoder{}
}

// Hash128 computes a 128-bit xxhash3 hash of the input string
func (e *TermEncoder) Hash128(s string) [16]byte {
	hash := xxh3.HashString128(s)
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// EncodeTerm encodes an RDF term into a fixed-size byte array
// Returns the encoded term and optionally a string to store in id2str table
func (e *TermEncoder) EncodeTerm(term rdf.Term) (EncodedTerm, *string, error) {
	switch t := term.(type) {
	case rdf.IRI:
		return e.encodeHashed(rdf.TermTypeIRI, string(t))
	case rdf.BlankNode:
		return e.encodeBlankNode(t)
	case rdf.Literal:
		return e.encodeLiteral(t)
	default:
		return EncodedTerm{}, nil, fmt.Errorf("unknown term type: %T", term)
	}
}

func (e *TermEncoder) encodeHashed(termType rdf.TermType, s string) (EncodedTerm, *string, error) {
	var encoded EncodedTerm
	encoded[0] = byte(termType)
	hash := e.Hash128(s)
	copy(encoded[1:], hash[:])
	return encoded, &s, nil
}

func (e *TermEncoder) encodeBlankNode(node rdf.BlankNode) (EncodedTerm, *string, error) {
	// Canonical numeric labels are stored inline
	if num, err := strconv.ParseUint(string(node), 10, 64); err == nil && strconv.FormatUint(num, 10) == string(node) {
		var encoded EncodedTerm
		encoded[0] = byte(rdf.TermTypeBlankNode)
		binary.BigEndian.PutUint64(encoded[1:9], num)
		return encoded, nil, nil
	}

	return e.encodeHashed(rdf.TermTypeBlankNode, string(node))
}

func (e *TermEncoder) encodeLiteral(lit rdf.Literal) (EncodedTerm, *string, error) {
	if err := lit.Validate(); err != nil {
		return EncodedTerm{}, nil, err
	}

	switch {
	case lit.Language != "":
		return e.encodeHashed(rdf.TermTypeLangStringLiteral, lit.Value+"@"+lit.Language)
	case lit.Datatype == "":
		return e.encodeStringLiteral(lit)
	case lit.Datatype == rdf.XSDInteger:
		if encoded, ok := encodeIntegerLiteral(lit); ok {
			return encoded, nil, nil
		}
	case lit.Datatype == rdf.XSDBoolean:
		if encoded, ok := encodeBooleanLiteral(lit); ok {
			return encoded, nil, nil
		}
	}

	return e.encodeHashed(rdf.TermTypeTypedLiteral, joinTyped(lit.Datatype, lit.Value))
}

func (e *TermEncoder) encodeStringLiteral(lit rdf.Literal) (EncodedTerm, *string, error) {
	if len(lit.Value) > MaxInlineStringSize || hasZeroByte(lit.Value) {
		return e.encodeHashed(rdf.TermTypeStringLiteral, lit.Value)
	}

	// Inline small strings, zero padded
	var encoded EncodedTerm
	encoded[0] = byte(rdf.TermTypeStringLiteral)
	copy(encoded[1:], lit.Value)
	return encoded, nil, nil
}

// encodeIntegerLiteral inlines xsd:integer values whose lexical form is canonical,
// so decoding gives back the same text.
func encodeIntegerLiteral(lit rdf.Literal) (EncodedTerm, bool) {
	var encoded EncodedTerm
	value, err := strconv.ParseInt(lit.Value, 10, 64)
	if err != nil || strconv.FormatInt(value, 10) != lit.Value {
		return encoded, false
	}
	encoded[0] = byte(rdf.TermTypeIntegerLiteral)
	binary.BigEndian.PutUint64(encoded[1:9], uint64(value)) // #nosec G115 - intentional bit-pattern conversion for binary encoding
	return encoded, true
}

func encodeBooleanLiteral(lit rdf.Literal) (EncodedTerm, bool) {
	var encoded EncodedTerm
	switch lit.Value {
	case "true":
		encoded[1] = 1
	case "false":
		encoded[1] = 0
	default:
		return encoded, false
	}
	encoded[0] = byte(rdf.TermTypeBooleanLiteral)
	return encoded, true
}

// joinTyped packs a datatype and value as uvarint(len(datatype)) datatype value.
func joinTyped(datatype, value string) string {
	buf := binary.AppendUvarint(nil, uint64(len(datatype)))
	buf = append(buf, datatype...)
	buf = append(buf, value...)
	return string(buf)
}

func hasZeroByte(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return true
		}
	}
	return false
}

// EncodeKey concatenates encoded terms into an index key
// Returns a big-endian byte array for lexicographic sorting
func (e *TermEncoder) EncodeKey(terms ...EncodedTerm) []byte {
	result := make([]byte, 0, len(terms)*EncodedTermSize)
	for _, term := range terms {
		result = append(result, term[:]...)
	}
	return result
}

// GetTermType extracts the type from an encoded term
func GetTermType(encoded EncodedTerm) rdf.TermType {
	return rdf.TermType(encoded[0])
}

// NeedsLookup reports whether decoding the term always requires its id2str entry.
func NeedsLookup(encoded EncodedTerm) bool {
	switch GetTermType(encoded) {
	case rdf.TermTypeIRI, rdf.TermTypeLangStringLiteral, rdf.TermTypeTypedLiteral:
		return true
	default:
		return false
	}
}

// MayNeedLookup reports whether the term is either inline or hashed, in which
// case a missing id2str entry means the inline form.
func MayNeedLookup(encoded EncodedTerm) bool {
	switch GetTermType(encoded) {
	case rdf.TermTypeBlankNode, rdf.TermTypeStringLiteral:
		return true
	default:
		return false
	}
}
