package trace

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DefaultBufferCapacity is sized for the event volume of one large
// translated unit. Sizing is a static configuration decision: a unit
// that outgrows the buffer is a fatal misconfiguration, not a
// condition the tracer recovers from.
const DefaultBufferCapacity = 1 << 20

// DynValBuffer is the fixed-capacity staging area for encoded events.
// It is allocated once per traced context and reused for every unit:
// flush, reset, accumulate again. It performs no locking — the host
// engine serializes all callbacks for a given context.
type DynValBuffer struct {
	buf    []byte
	cursor int
}

// NewDynValBuffer allocates a buffer with the given capacity in bytes.
// A capacity that cannot hold even one event panics immediately rather
// than failing on the first record.
func NewDynValBuffer(capacity int) *DynValBuffer {
	if capacity < EventSize {
		panic(fmt.Sprintf("trace: buffer capacity %d smaller than one event (%d bytes)", capacity, EventSize))
	}
	return &DynValBuffer{buf: make([]byte, capacity)}
}

// Record appends one fixed-size event. This is the dominant cost center
// of the whole tracer: O(1), no allocation, one bounds check. Overflow
// is fatal — a truncated trace is worse than no trace.
func (b *DynValBuffer) Record(kind EntryKind, op LogOp, payload uint64) {
	if b.cursor+EventSize > len(b.buf) {
		panic(fmt.Sprintf("trace: dynamic value buffer overflow (capacity %d); increase buffer_capacity", len(b.buf)))
	}
	binary.LittleEndian.PutUint32(b.buf[b.cursor:], uint32(kind))
	binary.LittleEndian.PutUint32(b.buf[b.cursor+4:], uint32(op))
	binary.LittleEndian.PutUint64(b.buf[b.cursor+8:], payload)
	b.cursor += EventSize
}

// RecordException appends the sentinel event that marks a fault
// diverting control mid-unit.
func (b *DynValBuffer) RecordException() {
	b.Record(ExceptionEntry, 0, 0)
}

// Len returns the number of buffered bytes.
func (b *DynValBuffer) Len() int { return b.cursor }

// Cap returns the fixed capacity in bytes.
func (b *DynValBuffer) Cap() int { return len(b.buf) }

// Flush writes exactly the buffered bytes to w, verbatim. An empty
// buffer writes nothing. The caller is responsible for Reset afterwards;
// Flush itself never mutates the cursor.
func (b *DynValBuffer) Flush(w io.Writer) (int, error) {
	if b.cursor == 0 {
		return 0, nil
	}
	n, err := w.Write(b.buf[:b.cursor])
	if err != nil {
		return n, fmt.Errorf("trace: flush value buffer: %w", err)
	}
	return n, nil
}

// Reset clears the cursor without deallocating. Bytes from the previous
// unit remain in storage but are unreachable: the next flush covers only
// the region written after the reset.
func (b *DynValBuffer) Reset() { b.cursor = 0 }
