package trace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Ledger is the append-only text stream naming each executed unit in
// execution order. It is the index against which value-log segments are
// interpreted: the Nth line corresponds to the events flushed between
// the (N-1)th and Nth flush boundary.
//
// Lines are written straight to the file descriptor, never staged in a
// userspace buffer, so the ledger stays correlatable with the value log
// even if the process dies right after a flush. Taint boundary records
// interleave on the same stream.
type Ledger struct {
	path    string
	file    *os.File
	entries int64
	mu      sync.Mutex
}

// OpenLedger creates (or truncates) the ledger file at path.
func OpenLedger(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("ledger: create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("ledger: open file: %w", err)
	}
	return &Ledger{path: path, file: f}, nil
}

// AppendExecuted records that the named unit is about to execute.
// Exactly one line per execution, strictly ordered.
func (l *Ledger) AppendExecuted(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := fmt.Fprintf(l.file, "%s\n", name); err != nil {
		return fmt.Errorf("ledger: append unit: %w", err)
	}
	l.entries++
	return nil
}

// AppendTaint records a taint boundary crossing on the designated source
// or sink descriptor: the guest buffer address and transfer length, as
// decimal integers, for the downstream taint-tracking stage.
func (l *Ledger) AppendTaint(direction string, addr uint64, length uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := fmt.Fprintf(l.file, "taint,%s,%d,%d\n", direction, addr, length); err != nil {
		return fmt.Errorf("ledger: append taint record: %w", err)
	}
	return nil
}

// Entries returns the number of unit execution lines written so far.
// Taint records do not count.
func (l *Ledger) Entries() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries
}

// Path returns the ledger file path.
func (l *Ledger) Path() string { return l.path }

// Close syncs and closes the underlying file.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("ledger: sync: %w", err)
	}
	return l.file.Close()
}
