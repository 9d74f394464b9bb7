package tagdb

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kjk/common/atomicfile"
)

// tagIDHexDigits is the width of the identifier field in the persisted
// file: the zero-padded hex of a 32-bit identifier.
const tagIDHexDigits = 8

// LoadFile reads a persisted record list into a new store.
//
// Each line is "<8-hex-digit-id>,<label>"; only the first comma separates
// the fields, so labels may contain commas. Line endings may be CRLF or LF
// and hex digits may be either case. Loading is best-effort: malformed
// lines, invalid records, and duplicate identifiers are skipped silently,
// with the first occurrence of an identifier winning.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tagdb: open %s: %w", path, err)
	}
	defer f.Close()

	store := NewStore()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		rec, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}

		if _, exists := store.Get(rec.ID); exists {
			continue
		}

		// Only capacity can fail here; a full store skips the rest.
		if err := store.AddOrReplace(rec); err != nil {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tagdb: read %s: %w", path, err)
	}

	return store, nil
}

// parseLine parses one "<hex-id>,<label>" line. ok is false for any line
// that does not yield a valid record.
func parseLine(line string) (Record, bool) {
	line = strings.TrimRight(line, "\r\n")

	idHex, label, found := strings.Cut(line, ",")
	if !found {
		return Record{}, false
	}

	idHex = strings.TrimSpace(idHex)
	if len(idHex) != tagIDHexDigits {
		return Record{}, false
	}

	id, err := strconv.ParseUint(idHex, 16, 32)
	if err != nil {
		return Record{}, false
	}

	rec := Record{ID: uint32(id), Label: label}
	if rec.Validate() != nil {
		return Record{}, false
	}

	return rec, true
}

// SaveFile writes the store's records to path in the persisted format:
// zero-padded lowercase hex id, comma, label, CRLF. The write is atomic;
// a failure leaves any existing file untouched.
func SaveFile(path string, store *Store) error {
	f, err := atomicfile.New(path)
	if err != nil {
		return fmt.Errorf("tagdb: create %s: %w", path, err)
	}
	defer f.RemoveIfNotClosed()

	for _, rec := range store.List() {
		if _, err := f.WriteString(rec.String() + "\r\n"); err != nil {
			return fmt.Errorf("tagdb: write %s: %w", path, err)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("tagdb: commit %s: %w", path, err)
	}

	return nil
}
