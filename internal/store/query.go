package store

import (
	"errors"
	"fmt"
	"iter"

	"github.com/aleksaelezovic/ntstore/internal/encoding"
	"github.com/aleksaelezovic/ntstore/internal/storage"
	"github.com/aleksaelezovic/ntstore/pkg/rdf"
)

// Pattern selects statements; a nil position matches any term
type Pattern struct {
	Subject   rdf.Subject
	Predicate rdf.Predicate
	Object    rdf.Object
}

// StatementIterator iterates over statements matching a pattern
type StatementIterator interface {
	Next() bool
	Statement() (rdf.Statement, error)
	Close() error
}

// Positions within a statement
const (
	posSubject = iota
	posPredicate
	posObject
)

// Key orders of the permutation indexes
var (
	orderSPO = [3]int{posSubject, posPredicate, posObject}
	orderPOS = [3]int{posPredicate, posObject, posSubject}
	orderOSP = [3]int{posObject, posSubject, posPredicate}
)

// Match executes a pattern match and returns matching statements
func (s *TripleStore) Match(pattern Pattern) (StatementIterator, error) {
	// Select the best index based on bound positions
	table, order := selectIndex(pattern)

	prefix, err := s.buildScanPrefix(pattern, order)
	if err != nil {
		return nil, err
	}

	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}

	it, err := txn.Scan(table, prefix)
	if err != nil {
		txn.Rollback()
		return nil, err
	}

	return &statementIterator{
		store: s,
		txn:   txn,
		it:    it,
		order: order,
	}, nil
}

// All returns a sequence over the statements matching pattern
func (s *TripleStore) All(pattern Pattern) iter.Seq2[rdf.Statement, error] {
	return func(yield func(rdf.Statement, error) bool) {
		it, err := s.Match(pattern)
		if err != nil {
			yield(rdf.Statement{}, err)
			return
		}
		defer it.Close()

		for it.Next() {
			statement, err := it.Statement()
			if !yield(statement, err) || err != nil {
				return
			}
		}
	}
}

// selectIndex chooses the index whose key order puts every bound position
// into the scan prefix.
func selectIndex(pattern Pattern) (storage.Table, [3]int) {
	sBound := pattern.Subject != nil
	pBound := pattern.Predicate != nil
	oBound := pattern.Object != nil

	switch {
	case sBound && pBound:
		return storage.TableSPO, orderSPO
	case pBound && oBound:
		return storage.TablePOS, orderPOS
	case oBound && sBound:
		return storage.TableOSP, orderOSP
	case pBound:
		return storage.TablePOS, orderPOS
	case oBound:
		return storage.TableOSP, orderOSP
	default:
		// Subject only, or nothing bound
		return storage.TableSPO, orderSPO
	}
}

// buildScanPrefix builds a key prefix from the bound terms in key order
func (s *TripleStore) buildScanPrefix(pattern Pattern, order [3]int) ([]byte, error) {
	positions := [3]rdf.Term{}
	if pattern.Subject != nil {
		positions[posSubject] = pattern.Subject
	}
	if pattern.Predicate != nil {
		positions[posPredicate] = pattern.Predicate
	}
	if pattern.Object != nil {
		positions[posObject] = pattern.Object
	}

	var prefix []byte
	for _, idx := range order {
		term := positions[idx]
		if term == nil {
			// Stop at first unbound position
			break
		}

		encoded, _, err := s.encoder.EncodeTerm(term)
		if err != nil {
			return nil, err
		}
		prefix = append(prefix, encoded[:]...)
	}

	return prefix, nil
}

// statementIterator implements StatementIterator
type statementIterator struct {
	store  *TripleStore
	txn    storage.Transaction
	it     storage.Iterator
	order  [3]int
	closed bool
}

func (si *statementIterator) Next() bool {
	if si.closed {
		return false
	}
	return si.it.Next()
}

func (si *statementIterator) Statement() (rdf.Statement, error) {
	if si.closed {
		return rdf.Statement{}, fmt.Errorf("iterator closed")
	}

	key := si.it.Key()
	if len(key) != len(si.order)*encoding.EncodedTermSize {
		return rdf.Statement{}, fmt.Errorf("invalid key length: %d", len(key))
	}

	// Map key segments back to S, P, O positions
	var positions [3]encoding.EncodedTerm
	for i, idx := range si.order {
		offset := i * encoding.EncodedTermSize
		copy(positions[idx][:], key[offset:offset+encoding.EncodedTermSize])
	}

	subject, err := si.store.decodeTerm(si.txn, positions[posSubject])
	if err != nil {
		return rdf.Statement{}, fmt.Errorf("failed to decode subject: %w", err)
	}
	predicate, err := si.store.decodeTerm(si.txn, positions[posPredicate])
	if err != nil {
		return rdf.Statement{}, fmt.Errorf("failed to decode predicate: %w", err)
	}
	object, err := si.store.decodeTerm(si.txn, positions[posObject])
	if err != nil {
		return rdf.Statement{}, fmt.Errorf("failed to decode object: %w", err)
	}

	var statement rdf.Statement
	var ok bool
	if statement.Subject, ok = subject.(rdf.Subject); !ok {
		return rdf.Statement{}, fmt.Errorf("stored subject has type %s", subject.Type())
	}
	if statement.Predicate, ok = predicate.(rdf.Predicate); !ok {
		return rdf.Statement{}, fmt.Errorf("stored predicate has type %s", predicate.Type())
	}
	if statement.Object, ok = object.(rdf.Object); !ok {
		return rdf.Statement{}, fmt.Errorf("stored object has type %s", object.Type())
	}
	return statement, nil
}

func (si *statementIterator) Close() error {
	if si.closed {
		return nil
	}
	si.closed = true
	si.it.Close()
	return si.txn.Rollback()
}

// decodeTerm decodes an encoded term, looking up its string when needed
func (s *TripleStore) decodeTerm(txn storage.Transaction, encoded encoding.EncodedTerm) (rdf.Term, error) {
	if !encoding.NeedsLookup(encoded) && !encoding.MayNeedLookup(encoded) {
		return s.decoder.DecodeTerm(encoded, nil)
	}

	var stringValue *string
	str, err := txn.Get(storage.TableID2Str, encoded[1:])
	switch {
	case err == nil:
		strVal := string(str)
		stringValue = &strVal
	case errors.Is(err, storage.ErrNotFound):
		if encoding.NeedsLookup(encoded) {
			return nil, fmt.Errorf("missing id2str entry for %s term", encoding.GetTermType(encoded))
		}
	default:
		return nil, err
	}

	return s.decoder.DecodeTerm(encoded, stringValue)
}
