package storage

import (
	"errors"
	"testing"
)

func newTestStorage(t *testing.T) *BadgerStorage {
	t.Helper()
	storage, err := NewBadgerStorage(Options{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestSetGetDelete(t *testing.T) {
	storage := newTestStorage(t)

	txn, err := storage.Begin(true)
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}
	if err := txn.Set(TableSPO, []byte("key"), []byte("value")); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	txn, _ = storage.Begin(false)
	value, err := txn.Get(TableSPO, []byte("key"))
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if string(value) != "value" {
		t.Errorf("expected 'value', got %q", value)
	}

	// Tables are namespaced
	if _, err := txn.Get(TablePOS, []byte("key")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from another table, got %v", err)
	}
	txn.Rollback()

	txn, _ = storage.Begin(true)
	if err := txn.Delete(TableSPO, []byte("key")); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	txn, _ = storage.Begin(false)
	defer txn.Rollback()
	if _, err := txn.Get(TableSPO, []byte("key")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestReadOnlyTransaction(t *testing.T) {
	storage := newTestStorage(t)

	txn, _ := storage.Begin(false)
	defer txn.Rollback()

	if err := txn.Set(TableSPO, []byte("k"), nil); !errors.Is(err, ErrTransactionRO) {
		t.Errorf("expected ErrTransactionRO from Set, got %v", err)
	}
	if err := txn.Delete(TableSPO, []byte("k")); !errors.Is(err, ErrTransactionRO) {
		t.Errorf("expected ErrTransactionRO from Delete, got %v", err)
	}
}

func TestScanPrefix(t *testing.T) {
	storage := newTestStorage(t)

	txn, _ := storage.Begin(true)
	for _, key := range []string{"a1", "a2", "b1", "a3"} {
		if err := txn.Set(TableOSP, []byte(key), []byte(key+"-v")); err != nil {
			t.Fatalf("failed to set %s: %v", key, err)
		}
	}
	// Same keys in a neighbouring table must not leak into the scan
	if err := txn.Set(TableLoads, []byte("a9"), nil); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	tests := []struct {
		prefix   []byte
		expected []string
	}{
		{prefix: []byte("a"), expected: []string{"a1", "a2", "a3"}},
		{prefix: []byte("b"), expected: []string{"b1"}},
		{prefix: []byte("c"), expected: nil},
		{prefix: nil, expected: []string{"a1", "a2", "a3", "b1"}},
	}

	for _, tt := range tests {
		txn, _ := storage.Begin(false)
		it, err := txn.Scan(TableOSP, tt.prefix)
		if err != nil {
			t.Fatalf("failed to scan: %v", err)
		}

		var keys []string
		for it.Next() {
			key := string(it.Key())
			value, err := it.Value()
			if err != nil {
				t.Fatalf("failed to read value: %v", err)
			}
			if string(value) != key+"-v" {
				t.Errorf("key %s: unexpected value %q", key, value)
			}
			keys = append(keys, key)
		}
		it.Close()
		txn.Rollback()

		if len(keys) != len(tt.expected) {
			t.Errorf("prefix %q: expected %v, got %v", tt.prefix, tt.expected, keys)
			continue
		}
		for i := range keys {
			if keys[i] != tt.expected[i] {
				t.Errorf("prefix %q: expected %v, got %v", tt.prefix, tt.expected, keys)
				break
			}
		}
	}
}

func TestRollbackDiscardsWrites(t *testing.T) {
	storage := newTestStorage(t)

	txn, _ := storage.Begin(true)
	if err := txn.Set(TableID2Str, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	txn.Rollback()

	txn, _ = storage.Begin(false)
	defer txn.Rollback()
	if _, err := txn.Get(TableID2Str, []byte("k")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after rollback, got %v", err)
	}
}

func TestInMemoryStorage(t *testing.T) {
	storage, err := NewBadgerStorage(Options{})
	if err != nil {
		t.Fatalf("failed to create in-memory storage: %v", err)
	}
	defer storage.Close()

	txn, _ := storage.Begin(true)
	if err := txn.Set(TableSPO, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
}

func TestTableString(t *testing.T) {
	names := map[Table]string{
		TableID2Str: "id2str",
		TableSPO:    "spo",
		TablePOS:    "pos",
		TableOSP:    "osp",
		TableLoads:  "loads",
		TableCount:  "unknown",
	}
	for table, name := range names {
		if table.String() != name {
			t.Errorf("expected %s, got %s", name, table.String())
		}
	}
}
