package tagdb

import (
	"errors"
	"fmt"
	"sync"

	"github.com/arloliu/go-doorlock/internal/util"
)

// MaxRecords is the maximum number of records a store may hold. The
// protocol announces the record count in a 16-bit field, so a larger store
// could never be uploaded.
const MaxRecords = 0xFFFF

// ErrStoreFull indicates the store already holds MaxRecords records.
var ErrStoreFull = errors.New("tagdb: store full")

// Store is an ordered collection of Records with unique identifiers.
//
// Insertion order is preserved and stable across adds and removes of other
// records. Replacing an existing identifier keeps the record at its
// original position. All reads return snapshots, so a caller may keep
// mutating the store while an upload engine works from an earlier snapshot
// on another goroutine.
type Store struct {
	mu      sync.RWMutex
	records []Record
	index   map[uint32]int // id -> position in records
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		index: make(map[uint32]int),
	}
}

// AddOrReplace validates rec and inserts it. If a record with the same
// identifier exists it is replaced at its current position; otherwise the
// record is appended at the end.
func (s *Store) AddOrReplace(rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if pos, ok := s.index[rec.ID]; ok {
		s.records[pos] = rec

		return nil
	}

	if len(s.records) >= MaxRecords {
		return fmt.Errorf("%w: %d records", ErrStoreFull, len(s.records))
	}

	s.index[rec.ID] = len(s.records)
	s.records = append(s.records, rec)

	return nil
}

// Remove deletes the record with the given identifier, preserving the order
// of the remaining records. It reports whether a record was removed;
// removing an absent identifier is a no-op.
func (s *Store) Remove(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return false
	}

	s.records = append(s.records[:pos], s.records[pos+1:]...)
	delete(s.index, id)

	// Reindex the records shifted left by the removal.
	for i := pos; i < len(s.records); i++ {
		s.index[s.records[i].ID] = i
	}

	return true
}

// Get returns the record with the given identifier, if present.
func (s *Store) Get(id uint32) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return Record{}, false
	}

	return s.records[pos], true
}

// List returns a snapshot of the records in insertion order.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return util.CloneSlice(s.records, 0)
}

// IDs returns a snapshot of the record identifiers in insertion order.
func (s *Store) IDs() []uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint32, len(s.records))
	for i, rec := range s.records {
		ids[i] = rec.ID
	}

	return ids
}

// Count returns the number of records. O(1).
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Clear removes all records.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.index = make(map[uint32]int)
}
