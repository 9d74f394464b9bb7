// Package tagdb provides the in-memory RFID credential store and its
// line-oriented text persistence.
//
// A credential is a (identifier, label) pair. The store preserves insertion
// order, keeps identifiers unique, and is bounded by the protocol's 16-bit
// record count. It is owned by the application; the doorlock client and
// uploader only ever read snapshots of it.
package tagdb

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord indicates a record with a zero identifier or an empty
// label. Such records are rejected before touching the store or the link.
var ErrInvalidRecord = errors.New("tagdb: invalid record")

// Record is a single RFID credential: a non-zero 32-bit tag identifier and
// a non-empty human-readable label. The identifier is the record's unique
// key; zero is reserved by the device and invalid.
type Record struct {
	ID    uint32
	Label string
}

// Validate checks the record invariants.
func (r Record) Validate() error {
	if r.ID == 0 {
		return fmt.Errorf("%w: identifier must be non-zero", ErrInvalidRecord)
	}
	if r.Label == "" {
		return fmt.Errorf("%w: label must not be empty", ErrInvalidRecord)
	}

	return nil
}

// String renders the record in the persisted-file form: zero-padded
// lowercase hex id, comma, label.
func (r Record) String() string {
	return fmt.Sprintf("%08x,%s", r.ID, r.Label)
}
