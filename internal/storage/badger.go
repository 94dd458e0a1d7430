package storage

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// Options configures a BadgerStorage
type Options struct {
	// Path is the database directory; empty means an in-memory database
	Path string

	// SyncWrites fsyncs every commit
	SyncWrites bool
}

// BadgerStorage implements Storage using BadgerDB
type BadgerStorage struct {
	db *badger.DB
}

// NewBadgerStorage creates a new BadgerDB-backed storage
func NewBadgerStorage(options Options) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(options.Path)
	if options.Path == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithSyncWrites(options.SyncWrites)
	opts.Logger = nil // Disable default logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerStorage{db: db}, nil
}

// Begin starts a new transaction
func (s *BadgerStorage) Begin(writable bool) (Transaction, error) {
	txn := s.db.NewTransaction(writable)
	return &BadgerTransaction{
		txn:      txn,
		writable: writable,
	}, nil
}

// Close closes the storage
func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

// Sync flushes writes to disk
func (s *BadgerStorage) Sync() error {
	return s.db.Sync()
}

// BadgerTransaction implements Transaction using BadgerDB
type BadgerTransaction struct {
	txn      *badger.Txn
	writable bool
}

// Get retrieves a value by key
func (t *BadgerTransaction) Get(table Table, key []byte) ([]byte, error) {
	item, err := t.txn.Get(PrefixKey(table, key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return item.ValueCopy(nil)
}

// Set stores a key-value pair
func (t *BadgerTransaction) Set(table Table, key, value []byte) error {
	if !t.writable {
		return ErrTransactionRO
	}

	return mapTxnErr(t.txn.Set(PrefixKey(table, key), value))
}

// Delete removes a key
func (t *BadgerTransaction) Delete(table Table, key []byte) error {
	if !t.writable {
		return ErrTransactionRO
	}

	return mapTxnErr(t.txn.Delete(PrefixKey(table, key)))
}

// Scan iterates over keys of table that start with prefix
func (t *BadgerTransaction) Scan(table Table, prefix []byte) (Iterator, error) {
	scanPrefix := PrefixKey(table, prefix)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = scanPrefix

	return &BadgerIterator{
		it:          t.txn.NewIterator(opts),
		tablePrefix: TablePrefix(table),
		scanPrefix:  scanPrefix,
	}, nil
}

// Commit commits the transaction
func (t *BadgerTransaction) Commit() error {
	return mapTxnErr(t.txn.Commit())
}

// Rollback rolls back the transaction
func (t *BadgerTransaction) Rollback() error {
	t.txn.Discard()
	return nil
}

func mapTxnErr(err error) error {
	if errors.Is(err, badger.ErrTxnTooBig) {
		return fmt.Errorf("%w: %w", ErrTooBig, err)
	}
	return err
}

// BadgerIterator implements Iterator using BadgerDB
type BadgerIterator struct {
	it          *badger.Iterator
	tablePrefix []byte // stripped from returned keys
	scanPrefix  []byte
	started     bool
	hasValue    bool
}

// Next advances to the next item
func (i *BadgerIterator) Next() bool {
	if !i.started {
		i.it.Seek(i.scanPrefix)
		i.started = true
	} else {
		i.it.Next()
	}

	i.hasValue = i.it.ValidForPrefix(i.scanPrefix)
	return i.hasValue
}

// Key returns the current key (without the table prefix)
func (i *BadgerIterator) Key() []byte {
	if !i.hasValue {
		return nil
	}

	key := i.it.Item().KeyCopy(nil)
	return key[len(i.tablePrefix):]
}

// Value returns the current value
func (i *BadgerIterator) Value() ([]byte, error) {
	if !i.hasValue {
		return nil, ErrNotFound
	}

	return i.it.Item().ValueCopy(nil)
}

// Close closes the iterator
func (i *BadgerIterator) Close() error {
	i.it.Close()
	return nil
}
