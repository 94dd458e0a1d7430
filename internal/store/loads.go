package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aleksaelezovic/ntstore/internal/storage"
	"github.com/google/uuid"
)

// LoadRecord describes one bulk load run
type LoadRecord struct {
	ID         string    `json:"id"`
	Sources    []string  `json:"sources"`
	Mode       string    `json:"mode"`
	Statements int       `json:"statements"`
	Inserted   int       `json:"inserted"`
	Skipped    int       `json:"skipped"`
	Started    time.Time `json:"started"`
	Finished   time.Time `json:"finished"`
	Error      string    `json:"error,omitempty"`
}

// RecordLoad stores a load record, assigning it an ID when it has none.
// IDs are time-ordered, so Loads returns records in the order they were created.
func (s *TripleStore) RecordLoad(record *LoadRecord) error {
	if record.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate load id: %w", err)
		}
		record.ID = id.String()
	}

	id, err := uuid.Parse(record.ID)
	if err != nil {
		return fmt.Errorf("invalid load id %q: %w", record.ID, err)
	}

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode load record: %w", err)
	}

	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	if err := txn.Set(storage.TableLoads, id[:], value); err != nil {
		return err
	}
	return txn.Commit()
}

// Loads returns all stored load records
func (s *TripleStore) Loads() ([]LoadRecord, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback()

	it, err := txn.Scan(storage.TableLoads, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var records []LoadRecord
	for it.Next() {
		value, err := it.Value()
		if err != nil {
			return nil, err
		}
		var record LoadRecord
		if err := json.Unmarshal(value, &record); err != nil {
			return nil, fmt.Errorf("failed to decode load record: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}
