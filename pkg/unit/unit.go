// Package unit tracks the identity of translated execution units: the
// compiled chunks of guest code whose names appear in the execution
// ledger. Units are created by the host's compilation pass, registered
// here exactly once per compilation, and persisted at teardown so an
// offline reader can resolve ledger names back to guest context.
package unit

import "fmt"

// ExecutionUnit is one translated unit of guest code. It is referenced,
// never mutated, by the tracing core; the same unit may execute many
// times and appears in the ledger once per execution.
type ExecutionUnit struct {
	// Name is the stable identity recorded in the execution ledger.
	Name string
	// GuestPC is the guest program counter the unit was translated from.
	GuestPC uint64
	// GuestLen is the length in bytes of the translated guest code.
	GuestLen uint32
	// CompileSeq is the order in which the compilation pass produced
	// this unit, starting at 0.
	CompileSeq int
}

// String returns a human-readable representation of the unit
func (u ExecutionUnit) String() string {
	return fmt.Sprintf("%s@%#x+%d", u.Name, u.GuestPC, u.GuestLen)
}
