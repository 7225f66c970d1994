package replay

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/ReverseTools/panda/pkg/trace"
	"github.com/ReverseTools/panda/pkg/unit"
)

// resolverCacheSize bounds the unit lookup cache. Ledgers repeat the
// same hot units millions of times (loops), so even a small cache keeps
// the store out of the common path.
const resolverCacheSize = 4096

// ExecutedUnit is one ledger execution resolved against the unit store.
type ExecutedUnit struct {
	// Seq is the execution order index (0-based ledger position,
	// counting unit lines only).
	Seq int
	// Unit is the resolved definition; zero-valued when unknown.
	Unit unit.ExecutionUnit
	// Known reports whether the store had a definition for the name.
	Known bool
}

// Resolver resolves ledger unit names against a persisted unit store,
// caching lookups.
type Resolver struct {
	store *unit.Store
	cache *lru.Cache
}

// NewResolver creates a resolver over the given store.
func NewResolver(store *unit.Store) (*Resolver, error) {
	cache, err := lru.New(resolverCacheSize)
	if err != nil {
		return nil, fmt.Errorf("replay: create lookup cache: %w", err)
	}
	return &Resolver{store: store, cache: cache}, nil
}

// Resolve maps every unit line in the ledger to its stored definition,
// in execution order. Taint records are skipped; unknown names resolve
// with Known=false rather than failing, since a ledger can outlive its
// unit store.
func (r *Resolver) Resolve(entries []LedgerEntry) ([]ExecutedUnit, error) {
	var executed []ExecutedUnit
	for _, entry := range entries {
		if entry.Taint != nil {
			continue
		}
		u, known, err := r.lookup(entry.UnitName)
		if err != nil {
			return executed, err
		}
		executed = append(executed, ExecutedUnit{Seq: len(executed), Unit: u, Known: known})
	}
	return executed, nil
}

func (r *Resolver) lookup(name string) (unit.ExecutionUnit, bool, error) {
	if cached, ok := r.cache.Get(name); ok {
		u, known := cached.(unit.ExecutionUnit), true
		if u.Name == "" {
			known = false
		}
		return u, known, nil
	}
	u, err := r.store.Lookup(name)
	if err != nil {
		// Distinguish "not found" (cacheable miss) from store failure.
		u = unit.ExecutionUnit{}
		r.cache.Add(name, u)
		return u, false, nil
	}
	r.cache.Add(name, u)
	return u, true, nil
}

// Summary aggregates a decoded capture for reporting.
type Summary struct {
	UnitExecutions int
	Events         int
	Faults         int
	TaintReads     int
	TaintWrites    int
	TaintBytes     uint64
	ByKind         map[trace.EntryKind]int
	ByOp           map[trace.LogOp]int
}

// Summarize walks a decoded value log and ledger together and counts
// what the capture contains.
func Summarize(events []trace.Event, entries []LedgerEntry) Summary {
	s := Summary{
		ByKind: make(map[trace.EntryKind]int),
		ByOp:   make(map[trace.LogOp]int),
	}
	for _, ev := range events {
		s.Events++
		s.ByKind[ev.Kind]++
		if ev.Kind == trace.ExceptionEntry {
			s.Faults++
		} else {
			s.ByOp[ev.Op]++
		}
	}
	for _, entry := range entries {
		if entry.Taint != nil {
			switch entry.Taint.Direction {
			case "read":
				s.TaintReads++
			case "write":
				s.TaintWrites++
			}
			s.TaintBytes += entry.Taint.Length
			continue
		}
		s.UnitExecutions++
	}
	return s
}
