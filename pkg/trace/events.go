package trace

import "encoding/binary"

// EntryKind classifies what kind of dynamic fact a logged event carries.
type EntryKind uint32

const (
	// AddressEntry carries a guest memory or CPU state address.
	AddressEntry EntryKind = iota
	// ValueEntry carries a value observed at runtime.
	ValueEntry
	// BranchEntry carries the taken target of a branch.
	BranchEntry
	// ExceptionEntry marks a fault that diverted control mid-unit.
	ExceptionEntry
)

// LogOp identifies the operation that produced a dynamic value.
type LogOp uint32

const (
	OpLoad LogOp = iota
	OpStore
	OpBranch
	OpSwitch
	OpSelect
)

// EventSize is the fixed width of one encoded event in the value log.
// kind uint32 | op uint32 | payload uint64, little-endian, no padding.
const EventSize = 16

// Event is one decoded record from the value log. The payload is an
// opaque pointer-sized word; its meaning depends on Kind.
type Event struct {
	Kind    EntryKind
	Op      LogOp
	Payload uint64
}

// Encode writes the event into dst, which must be at least EventSize bytes.
func (e Event) Encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], uint32(e.Kind))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(e.Op))
	binary.LittleEndian.PutUint64(dst[8:16], e.Payload)
}

// DecodeEvent reads one event from src, which must be at least EventSize bytes.
func DecodeEvent(src []byte) Event {
	return Event{
		Kind:    EntryKind(binary.LittleEndian.Uint32(src[0:4])),
		Op:      LogOp(binary.LittleEndian.Uint32(src[4:8])),
		Payload: binary.LittleEndian.Uint64(src[8:16]),
	}
}

// String returns the string representation of the EntryKind
func (k EntryKind) String() string {
	switch k {
	case AddressEntry:
		return "Address"
	case ValueEntry:
		return "Value"
	case BranchEntry:
		return "BranchTarget"
	case ExceptionEntry:
		return "Exception"
	default:
		return "Unknown"
	}
}

// String returns the string representation of the LogOp
func (op LogOp) String() string {
	switch op {
	case OpLoad:
		return "Load"
	case OpStore:
		return "Store"
	case OpBranch:
		return "Branch"
	case OpSwitch:
		return "Switch"
	case OpSelect:
		return "Select"
	default:
		return "Unknown"
	}
}
