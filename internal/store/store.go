package store

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/aleksaelezovic/ntstore/internal/encoding"
	"github.com/aleksaelezovic/ntstore/internal/storage"
	"github.com/aleksaelezovic/ntstore/pkg/rdf"
)

// TripleStore manages statements under three permutation indexes
type TripleStore struct {
	storage storage.Storage
	encoder *encoding.TermEncoder
	decoder *encoding.TermDecoder
}

// NewTripleStore creates a new triplestore
func NewTripleStore(storage storage.Storage) *TripleStore {
	return &TripleStore{
		storage: storage,
		encoder: encoding.NewTermEncoder(),
		decoder: encoding.NewTermDecoder(),
	}
}

// Close closes the triplestore
func (s *TripleStore) Close() error {
	return s.storage.Close()
}

// encodedStatement holds the encoded terms of one statement and the strings
// that must be present in the id2str table.
type encodedStatement struct {
	subject, predicate, object encoding.EncodedTerm
	strings                    []stringEntry
}

type stringEntry struct {
	key   []byte
	value string
}

func (s *TripleStore) encodeStatement(statement rdf.Statement) (encodedStatement, error) {
	var enc encodedStatement
	if statement.Subject == nil || statement.Predicate == nil || statement.Object == nil {
		return enc, fmt.Errorf("incomplete statement: %v", statement)
	}

	var err error
	var str *string
	if enc.subject, str, err = s.encoder.EncodeTerm(statement.Subject); err != nil {
		return enc, fmt.Errorf("failed to encode subject: %w", err)
	}
	enc.addString(enc.subject, str)

	if enc.predicate, str, err = s.encoder.EncodeTerm(statement.Predicate); err != nil {
		return enc, fmt.Errorf("failed to encode predicate: %w", err)
	}
	enc.addString(enc.predicate, str)

	if enc.object, str, err = s.encoder.EncodeTerm(statement.Object); err != nil {
		return enc, fmt.Errorf("failed to encode object: %w", err)
	}
	enc.addString(enc.object, str)

	return enc, nil
}

func (e *encodedStatement) addString(encoded encoding.EncodedTerm, str *string) {
	if str == nil {
		return
	}
	// The hash portion is the key; the type byte is not part of it
	e.strings = append(e.strings, stringEntry{key: encoded[1:], value: *str})
}

func (s *TripleStore) spoKey(e encodedStatement) []byte {
	return s.encoder.EncodeKey(e.subject, e.predicate, e.object)
}

// InsertStatement inserts a single statement into the store
func (s *TripleStore) InsertStatement(statement rdf.Statement) error {
	_, err := s.InsertStatements([]rdf.Statement{statement})
	return err
}

// InsertStatements inserts statements in as few transactions as possible and
// returns how many of them were not already stored.
func (s *TripleStore) InsertStatements(statements []rdf.Statement) (int, error) {
	encoded := make([]encodedStatement, len(statements))
	for i, statement := range statements {
		enc, err := s.encodeStatement(statement)
		if err != nil {
			return 0, err
		}
		encoded[i] = enc
	}

	inserted := 0
	err := s.writeBatch(len(encoded), func(txn storage.Transaction, i int) error {
		added, err := s.insertInTxn(txn, encoded[i])
		if err != nil {
			return err
		}
		if added {
			inserted++
		}
		return nil
	})
	return inserted, err
}

// writeBatch applies fn to items [0, n) and commits. When a transaction grows
// too big, it is committed and the item is retried in a fresh one.
func (s *TripleStore) writeBatch(n int, fn func(txn storage.Transaction, i int) error) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer func() { txn.Rollback() }()

	for i := 0; i < n; i++ {
		err := fn(txn, i)
		if errors.Is(err, storage.ErrTooBig) {
			if err := txn.Commit(); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}
			next, beginErr := s.storage.Begin(true)
			if beginErr != nil {
				return beginErr
			}
			txn = next
			err = fn(txn, i)
		}
		if err != nil {
			return err
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// insertInTxn writes a statement within an existing transaction and reports
// whether it was new.
func (s *TripleStore) insertInTxn(txn storage.Transaction, e encodedStatement) (bool, error) {
	// OSP is written last, so its presence means the statement is complete
	ospKey := s.encoder.EncodeKey(e.object, e.subject, e.predicate)
	if _, err := txn.Get(storage.TableOSP, ospKey); err == nil {
		return false, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}

	for _, entry := range e.strings {
		if err := storeString(txn, entry); err != nil {
			return false, err
		}
	}

	// Empty value for all index entries
	emptyValue := []byte{}

	if err := txn.Set(storage.TableSPO, s.spoKey(e), emptyValue); err != nil {
		return false, err
	}
	if err := txn.Set(storage.TablePOS, s.encoder.EncodeKey(e.predicate, e.object, e.subject), emptyValue); err != nil {
		return false, err
	}
	if err := txn.Set(storage.TableOSP, ospKey, emptyValue); err != nil {
		return false, err
	}
	return true, nil
}

// storeString stores a string in the id2str table unless it is already there
func storeString(txn storage.Transaction, entry stringEntry) error {
	value := []byte(entry.value)

	existing, err := txn.Get(storage.TableID2Str, entry.key)
	if err == nil && bytes.Equal(existing, value) {
		return nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	return txn.Set(storage.TableID2Str, entry.key, value)
}

// DeleteStatement deletes a statement from the store
func (s *TripleStore) DeleteStatement(statement rdf.Statement) error {
	return s.DeleteStatements([]rdf.Statement{statement})
}

// DeleteStatements deletes statements from the store
func (s *TripleStore) DeleteStatements(statements []rdf.Statement) error {
	encoded := make([]encodedStatement, len(statements))
	for i, statement := range statements {
		enc, err := s.encodeStatement(statement)
		if err != nil {
			return err
		}
		encoded[i] = enc
	}

	return s.writeBatch(len(encoded), func(txn storage.Transaction, i int) error {
		return s.deleteInTxn(txn, encoded[i])
	})
}

// deleteInTxn deletes a statement within an existing transaction
func (s *TripleStore) deleteInTxn(txn storage.Transaction, e encodedStatement) error {
	if err := txn.Delete(storage.TableSPO, s.spoKey(e)); err != nil {
		return err
	}
	if err := txn.Delete(storage.TablePOS, s.encoder.EncodeKey(e.predicate, e.object, e.subject)); err != nil {
		return err
	}
	if err := txn.Delete(storage.TableOSP, s.encoder.EncodeKey(e.object, e.subject, e.predicate)); err != nil {
		return err
	}

	// id2str entries may be shared with other statements and are kept
	return nil
}

// ContainsStatement checks if a statement exists in the store
func (s *TripleStore) ContainsStatement(statement rdf.Statement) (bool, error) {
	enc, err := s.encodeStatement(statement)
	if err != nil {
		return false, err
	}

	txn, err := s.storage.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	_, err = txn.Get(storage.TableSPO, s.spoKey(enc))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// Count returns the number of statements in the store
func (s *TripleStore) Count() (int64, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback()

	it, err := txn.Scan(storage.TableSPO, nil)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	count := int64(0)
	for it.Next() {
		count++
	}

	return count, nil
}

// Sync flushes pending writes to disk
func (s *TripleStore) Sync() error {
	return s.storage.Sync()
}
