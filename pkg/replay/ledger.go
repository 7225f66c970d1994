package replay

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TaintRecord is one parsed taint boundary line from the ledger.
type TaintRecord struct {
	Direction string // "read" or "write"
	Addr      uint64
	Length    uint64
}

// LedgerEntry is one parsed ledger line: either a unit execution or an
// interleaved taint record.
type LedgerEntry struct {
	UnitName string
	Taint    *TaintRecord
}

// ParseLedgerLine parses a single ledger line. Unit names are opaque;
// only the literal "taint,<dir>,<addr>,<len>" form is special.
func ParseLedgerLine(line string) (LedgerEntry, error) {
	if !strings.HasPrefix(line, "taint,") {
		return LedgerEntry{UnitName: line}, nil
	}
	parts := strings.Split(line, ",")
	if len(parts) != 4 {
		return LedgerEntry{}, fmt.Errorf("replay: malformed taint record %q", line)
	}
	if parts[1] != "read" && parts[1] != "write" {
		return LedgerEntry{}, fmt.Errorf("replay: unknown taint direction %q", parts[1])
	}
	addr, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("replay: taint address: %w", err)
	}
	length, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("replay: taint length: %w", err)
	}
	return LedgerEntry{Taint: &TaintRecord{Direction: parts[1], Addr: addr, Length: length}}, nil
}

// ReadLedger parses the whole ledger at path, preserving order.
func ReadLedger(path string) ([]LedgerEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open ledger %s: %w", path, err)
	}
	defer f.Close()

	var entries []LedgerEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		entry, err := ParseLedgerLine(line)
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("replay: scan ledger: %w", err)
	}
	return entries, nil
}
