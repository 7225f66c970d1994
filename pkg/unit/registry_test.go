package unit

import "testing"

func TestRegistryAssignsCompileOrder(t *testing.T) {
	r := NewRegistry()

	names := []string{"tb-0", "tb-1", "tb-2"}
	for i, name := range names {
		u, err := r.RegisterCompiled(name, uint64(0x400000+i*0x20), 16)
		if err != nil {
			t.Fatalf("Unexpected register error: %v", err)
		}
		if u.CompileSeq != i {
			t.Errorf("Expected compile seq %d for %s, got %d", i, name, u.CompileSeq)
		}
	}

	all := r.All()
	if len(all) != len(names) {
		t.Fatalf("Expected %d units, got %d", len(names), len(all))
	}
	for i, u := range all {
		if u.Name != names[i] {
			t.Errorf("Expected unit %d to be %s, got %s", i, names[i], u.Name)
		}
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	if _, err := r.RegisterCompiled("tb-0", 0x400000, 16); err != nil {
		t.Fatalf("Unexpected register error: %v", err)
	}
	if _, err := r.RegisterCompiled("tb-0", 0x400020, 16); err == nil {
		t.Errorf("Expected error registering duplicate name, got none")
	}
	if r.Len() != 1 {
		t.Errorf("Expected 1 unit after duplicate rejection, got %d", r.Len())
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	if _, err := r.RegisterCompiled("tb-0", 0x4006a0, 18); err != nil {
		t.Fatalf("Unexpected register error: %v", err)
	}

	u, ok := r.Lookup("tb-0")
	if !ok {
		t.Fatalf("Expected to find tb-0")
	}
	if u.GuestPC != 0x4006a0 || u.GuestLen != 18 {
		t.Errorf("Lookup returned wrong unit: %+v", u)
	}

	if _, ok := r.Lookup("missing"); ok {
		t.Errorf("Expected miss for unregistered name")
	}
}

func TestUnitString(t *testing.T) {
	u := ExecutionUnit{Name: "tb-7", GuestPC: 0x4006a0, GuestLen: 18}
	if got := u.String(); got != "tb-7@0x4006a0+18" {
		t.Errorf("Unexpected string form: %q", got)
	}
}
