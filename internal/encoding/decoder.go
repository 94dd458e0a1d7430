package encoding

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/aleksaelezovic/ntstore/pkg/rdf"
)

// TermDecoder handles decoding of RDF terms
type TermDecoder struct{}

// NewTermDecoder creates a new term decoder
func NewTermDecoder() *TermDecoder {
	return &TermDecoder{}
}

// DecodeTerm decodes an encoded term back to an rdf.Term
// For terms that require string lookup, stringValue should be provided
func (d *TermDecoder) DecodeTerm(encoded EncodedTerm, stringValue *string) (rdf.Term, error) {
	termType := GetTermType(encoded)

	switch termType {
	case rdf.TermTypeIRI:
		if stringValue == nil {
			return nil, fmt.Errorf("string value required for IRI")
		}
		return rdf.IRI(*stringValue), nil

	case rdf.TermTypeBlankNode:
		if stringValue != nil {
			return rdf.BlankNode(*stringValue), nil
		}
		numericID := binary.BigEndian.Uint64(encoded[1:9])
		return rdf.BlankNode(strconv.FormatUint(numericID, 10)), nil

	case rdf.TermTypeStringLiteral:
		if stringValue != nil {
			return rdf.NewLiteral(*stringValue), nil
		}
		data := encoded[1:]
		if end := bytes.IndexByte(data, 0); end >= 0 {
			data = data[:end]
		}
		return rdf.NewLiteral(string(data)), nil

	case rdf.TermTypeLangStringLiteral:
		if stringValue == nil {
			return nil, fmt.Errorf("string value required for language-tagged literal")
		}
		// Language tags never contain '@', so the last one separates them
		at := strings.LastIndexByte(*stringValue, '@')
		if at < 0 {
			return nil, fmt.Errorf("malformed language-tagged literal %q", *stringValue)
		}
		return rdf.NewLangLiteral((*stringValue)[:at], (*stringValue)[at+1:]), nil

	case rdf.TermTypeTypedLiteral:
		if stringValue == nil {
			return nil, fmt.Errorf("string value required for typed literal")
		}
		datatype, value, err := splitTyped(*stringValue)
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(value, datatype), nil

	case rdf.TermTypeIntegerLiteral:
		value := int64(binary.BigEndian.Uint64(encoded[1:9])) // #nosec G115 - intentional bit-pattern conversion for binary decoding
		return rdf.NewTypedLiteral(strconv.FormatInt(value, 10), rdf.XSDInteger), nil

	case rdf.TermTypeBooleanLiteral:
		return rdf.NewTypedLiteral(strconv.FormatBool(encoded[1] != 0), rdf.XSDBoolean), nil

	default:
		return nil, fmt.Errorf("unknown term type: %d", termType)
	}
}

func splitTyped(s string) (datatype, value string, err error) {
	n, width := binary.Uvarint([]byte(s))
	if width <= 0 || uint64(len(s)-width) < n {
		return "", "", fmt.Errorf("malformed typed literal entry")
	}
	end := width + int(n) // #nosec G115 - bounded by len(s) above
	return s[width:end], s[end:], nil
}
