package unit

import (
	"path/filepath"
	"testing"
)

func TestStorePersistAndLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.db")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	units := []ExecutionUnit{
		{Name: "tb-0", GuestPC: 0x4006a0, GuestLen: 18, CompileSeq: 0},
		{Name: "tb-1", GuestPC: 0x4006c0, GuestLen: 12, CompileSeq: 1},
	}
	if err := store.Persist("session-abc", units); err != nil {
		t.Fatalf("Failed to persist: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	// Reopen, the way an offline reader would.
	store, err = OpenStore(path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer store.Close()

	u, err := store.Lookup("tb-1")
	if err != nil {
		t.Fatalf("Failed to look up tb-1: %v", err)
	}
	if u.GuestPC != 0x4006c0 || u.GuestLen != 12 || u.CompileSeq != 1 {
		t.Errorf("Lookup returned wrong unit: %+v", u)
	}

	if _, err := store.Lookup("missing"); err == nil {
		t.Errorf("Expected error for unknown unit, got none")
	}

	session, err := store.SessionID()
	if err != nil {
		t.Fatalf("Failed to read session id: %v", err)
	}
	if session != "session-abc" {
		t.Errorf("Expected session %q, got %q", "session-abc", session)
	}
}

func TestStoreAllPreservesCompileOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.db")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	// Persist out of order; All must return compile order.
	units := []ExecutionUnit{
		{Name: "tb-2", GuestPC: 0x30, GuestLen: 4, CompileSeq: 2},
		{Name: "tb-0", GuestPC: 0x10, GuestLen: 4, CompileSeq: 0},
		{Name: "tb-1", GuestPC: 0x20, GuestLen: 4, CompileSeq: 1},
	}
	if err := store.Persist("s", units); err != nil {
		t.Fatalf("Failed to persist: %v", err)
	}

	all, err := store.All()
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	for i, u := range all {
		if u.CompileSeq != i {
			t.Errorf("Expected compile seq %d at position %d, got %d", i, i, u.CompileSeq)
		}
	}
}
