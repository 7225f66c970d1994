package taint

// Guest syscall numbers (x86-64 numbering) handled by the boundary.
const (
	NRRead   = 0
	NRWrite  = 1
	NROpen   = 2
	NRCreat  = 85
	NROpenat = 257
)

// Guest open(2) access-mode flag bits.
const (
	oRDONLY = 0x0
	oWRONLY = 0x1
	oRDWR   = 0x2
)

// Sink receives the side-channel records the boundary emits. The
// execution ledger implements this, interleaving taint lines with unit
// lines on the same stream.
type Sink interface {
	AppendTaint(direction string, addr uint64, length uint64) error
}

// Boundary tracks at most one taint-source descriptor and one
// taint-sink descriptor for the traced guest program. Opening another
// interesting file replaces the previous designation (last-write-wins).
type Boundary struct {
	classifier *Classifier
	sink       Sink

	// Designated guest file descriptors; -1 means none yet.
	srcFD  int64
	sinkFD int64
}

// NewBoundary creates a boundary emitting records to sink.
func NewBoundary(classifier *Classifier, sink Sink) *Boundary {
	return &Boundary{
		classifier: classifier,
		sink:       sink,
		srcFD:      -1,
		sinkFD:     -1,
	}
}

// FileOpened handles a successful open/openat return. An interesting
// path opened read-only designates the source descriptor; any
// write-mode open designates the sink descriptor.
func (b *Boundary) FileOpened(path string, flags int64, ret int64) {
	if ret <= 0 {
		return
	}
	if !b.classifier.Interesting(path) {
		return
	}
	if flags&(oRDONLY|oWRONLY) == oRDONLY {
		b.srcFD = ret
	}
	if flags&oWRONLY != 0 {
		b.sinkFD = ret
	}
}

// FileCreated handles a successful creat return, which is always a
// write-mode open of a fresh file.
func (b *Boundary) FileCreated(path string, ret int64) {
	if ret <= 0 {
		return
	}
	b.sinkFD = ret
}

// Read handles a read-syscall return. A successful read on the source
// descriptor logs the guest buffer to be tainted.
func (b *Boundary) Read(fd int64, buf uint64, ret int64) error {
	if ret <= 0 || fd != b.srcFD || b.srcFD < 0 {
		return nil
	}
	return b.sink.AppendTaint("read", buf, uint64(ret))
}

// Write handles a write-syscall return. A successful write on the sink
// descriptor logs the guest buffer to be checked for taint.
func (b *Boundary) Write(fd int64, buf uint64, ret int64) error {
	if ret <= 0 || fd != b.sinkFD || b.sinkFD < 0 {
		return nil
	}
	return b.sink.AppendTaint("write", buf, uint64(ret))
}

// SyscallReturn dispatches one completed guest syscall to the boundary.
// num is the guest syscall number, args the raw argument words, path the
// resolved path argument when the syscall has one, ret the return value.
// Unhandled syscalls are ignored.
func (b *Boundary) SyscallReturn(num int64, args []int64, path string, buf uint64, ret int64) error {
	switch num {
	case NRRead:
		if len(args) < 1 {
			return nil
		}
		return b.Read(args[0], buf, ret)
	case NRWrite:
		if len(args) < 1 {
			return nil
		}
		return b.Write(args[0], buf, ret)
	case NROpen:
		if len(args) < 2 {
			return nil
		}
		b.FileOpened(path, args[1], ret)
	case NROpenat:
		if len(args) < 3 {
			return nil
		}
		b.FileOpened(path, args[2], ret)
	case NRCreat:
		b.FileCreated(path, ret)
	}
	return nil
}

// SourceFD returns the currently designated taint-source descriptor,
// or -1 if none has been seen.
func (b *Boundary) SourceFD() int64 { return b.srcFD }

// SinkFD returns the currently designated taint-sink descriptor, or -1.
func (b *Boundary) SinkFD() int64 { return b.sinkFD }
