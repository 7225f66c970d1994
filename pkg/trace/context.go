package trace

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ReverseTools/panda/pkg/taint"
	"github.com/ReverseTools/panda/pkg/unit"
)

// ContextState tracks where the flush controller is in a unit's lifecycle.
type ContextState int

const (
	// Idle means no unit is executing; the buffer should be empty.
	Idle ContextState = iota
	// Accumulating means a unit is executing and events are being recorded.
	Accumulating
)

// String returns the string representation of the ContextState
func (s ContextState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Accumulating:
		return "Accumulating"
	default:
		return "Unknown"
	}
}

// Stats counts what a capture produced, for teardown reporting and tests.
type Stats struct {
	UnitsExecuted    int64
	Flushes          int64
	DefensiveFlushes int64
	Faults           int64
	BytesFlushed     int64
}

// ContextOptions configures a tracing context.
type ContextOptions struct {
	// ValueLogPath is the binary dynamic value log output file.
	ValueLogPath string
	// LedgerPath is the text unit execution ledger output file.
	LedgerPath string
	// BufferCapacity is the dynamic value buffer size in bytes.
	// Zero means DefaultBufferCapacity.
	BufferCapacity int
	// Compression selects the value log encoding.
	Compression CompressionType
	// Taint configures the path classifier for the syscall boundary.
	Taint taint.ClassifierOptions
}

// Context is the single active logging context: it owns the dynamic
// value buffer, both output streams, the unit registry, and the taint
// boundary, and runs the per-unit flush state machine against the host
// engine's lifecycle callbacks.
//
// One Context serves one traced execution context. The host guarantees
// serialized callback delivery, so the hot path takes no locks. Tracing
// multiple guest contexts concurrently requires one Context each.
type Context struct {
	sessionID string

	buffer   *DynValBuffer
	sink     *ValueLogSink
	ledger   *Ledger
	registry *unit.Registry
	boundary *taint.Boundary

	state  ContextState
	stats  Stats
	closed bool
}

// NewContext opens both output streams and allocates the buffer. The
// returned context is in Idle state, ready for the first unit.
func NewContext(options ContextOptions) (*Context, error) {
	capacity := options.BufferCapacity
	if capacity == 0 {
		capacity = DefaultBufferCapacity
	}

	sink, err := NewValueLogSinkWithOptions(options.ValueLogPath, ValueLogOptions{CompressionType: options.Compression})
	if err != nil {
		return nil, err
	}
	ledger, err := OpenLedger(options.LedgerPath)
	if err != nil {
		sink.Close()
		return nil, err
	}

	taintOpts := options.Taint
	if len(taintOpts.ExcludePrefixes) == 0 && len(taintOpts.NoisyFiles) == 0 {
		taintOpts = taint.DefaultClassifierOptions()
	}

	return &Context{
		sessionID: uuid.NewString(),
		buffer:    NewDynValBuffer(capacity),
		sink:      sink,
		ledger:    ledger,
		registry:  unit.NewRegistry(),
		boundary:  taint.NewBoundary(taint.NewClassifier(taintOpts), ledger),
		state:     Idle,
	}, nil
}

// SessionID returns the capture session identity recorded with the
// persisted unit definitions.
func (c *Context) SessionID() string { return c.sessionID }

// Registry returns the compiled-unit registry the compilation pass
// registers into.
func (c *Context) Registry() *unit.Registry { return c.registry }

// Boundary returns the syscall-correlated taint boundary.
func (c *Context) Boundary() *taint.Boundary { return c.boundary }

// State returns the current controller state.
func (c *Context) State() ContextState { return c.state }

// Stats returns a snapshot of capture counters.
func (c *Context) Stats() Stats { return c.stats }

// LogDynval is the fast entry point instrumented code calls once per
// dynamic event. It is the contract with the compilation pass: O(1),
// no allocation, panics on buffer overflow (crash-loud; see buffer.go).
// Valid only between BeforeUnitExec and the matching boundary hook.
func (c *Context) LogDynval(kind EntryKind, op LogOp, payload uint64) {
	c.buffer.Record(kind, op, payload)
}

// BeforeUnitExec is the "unit about to execute" lifecycle hook. It
// appends the unit's identity to the ledger, then defensively flushes
// any events a skipped completion hook left behind. The defensive flush
// of an empty buffer writes zero bytes and is cheap; losing trace data
// on an unenumerated control-flow edge would not be.
func (c *Context) BeforeUnitExec(u unit.ExecutionUnit) error {
	if err := c.ledger.AppendExecuted(u.Name); err != nil {
		return err
	}
	c.stats.UnitsExecuted++

	if c.buffer.Len() > 0 {
		// Buffer wasn't flushed before, have to flush it now.
		if err := c.flush(); err != nil {
			return err
		}
		c.stats.DefensiveFlushes++
	}
	c.buffer.Reset()
	c.state = Accumulating
	return nil
}

// AfterUnitExec is the "unit finished executing" hook: flush the
// accumulated events to the value log and reset for reuse. next is the
// chained successor when the engine already knows it; the controller
// does not act on it, BeforeUnitExec of the successor re-establishes
// the cycle either way.
func (c *Context) AfterUnitExec(u unit.ExecutionUnit, next *unit.ExecutionUnit) error {
	if err := c.flush(); err != nil {
		return err
	}
	c.buffer.Reset()
	c.state = Idle
	return nil
}

// FaultDiverted is the "exception diverted control" hook, legal at any
// point while accumulating. The sentinel goes into the buffer first so
// the flushed segment is a faithful prefix of what actually executed,
// terminated by the marker.
func (c *Context) FaultDiverted(u unit.ExecutionUnit) error {
	c.buffer.RecordException()
	c.stats.Faults++
	if err := c.flush(); err != nil {
		return err
	}
	c.buffer.Reset()
	c.state = Idle
	return nil
}

// flush moves the buffered byte range to the value log. Every flush
// corresponds to a ledger entry already written by BeforeUnitExec.
func (c *Context) flush() error {
	n, err := c.buffer.Flush(c.sink)
	if err != nil {
		// A failed flush is escalated to fatal by the caller; the
		// tracer has no way to retry a partially written log.
		return err
	}
	if err := c.sink.Flush(); err != nil {
		return fmt.Errorf("trace: flush sink: %w", err)
	}
	c.stats.Flushes++
	c.stats.BytesFlushed += int64(n)
	return nil
}

// Close is the teardown hook: flush any buffered-but-unflushed events,
// persist the compiled unit definitions for offline correlation, and
// close both streams. Close is idempotent.
func (c *Context) Close(unitStorePath string) error {
	if c.closed {
		return nil
	}
	c.closed = true

	if c.buffer.Len() > 0 {
		// Buffer wasn't flushed before, have to flush it now.
		if err := c.flush(); err != nil {
			return err
		}
		c.buffer.Reset()
	}
	c.state = Idle

	if unitStorePath != "" {
		store, err := unit.OpenStore(unitStorePath)
		if err != nil {
			return err
		}
		if err := store.Persist(c.sessionID, c.registry.All()); err != nil {
			store.Close()
			return err
		}
		if err := store.Close(); err != nil {
			return fmt.Errorf("trace: close unit store: %w", err)
		}
	}

	if err := c.sink.Close(); err != nil {
		return err
	}
	return c.ledger.Close()
}
