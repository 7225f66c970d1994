package taint

import (
	"fmt"
	"testing"
)

// recordingSink captures emitted taint records for assertions.
type recordingSink struct {
	records []string
}

func (s *recordingSink) AppendTaint(direction string, addr uint64, length uint64) error {
	s.records = append(s.records, fmt.Sprintf("taint,%s,%d,%d", direction, addr, length))
	return nil
}

func newTestBoundary() (*Boundary, *recordingSink) {
	sink := &recordingSink{}
	return NewBoundary(NewClassifier(DefaultClassifierOptions()), sink), sink
}

func TestReadOnSourceDescriptor(t *testing.T) {
	b, sink := newTestBoundary()

	// Open an interesting file read-only: fd 5 becomes the source.
	b.FileOpened("/home/guest/input.txt", oRDONLY, 5)
	if b.SourceFD() != 5 {
		t.Fatalf("Expected source fd 5, got %d", b.SourceFD())
	}

	// A 128-byte read at 0x7fff0000 emits the canonical record.
	if err := b.Read(5, 0x7fff0000, 128); err != nil {
		t.Fatalf("Unexpected read error: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(sink.records))
	}
	if sink.records[0] != "taint,read,2147418112,128" {
		t.Errorf("Expected canonical taint record, got %q", sink.records[0])
	}
}

func TestWriteOnSinkDescriptor(t *testing.T) {
	b, sink := newTestBoundary()

	b.FileOpened("/home/guest/output.txt", oWRONLY, 6)
	if b.SinkFD() != 6 {
		t.Fatalf("Expected sink fd 6, got %d", b.SinkFD())
	}

	if err := b.Write(6, 0x7fff1000, 64); err != nil {
		t.Fatalf("Unexpected write error: %v", err)
	}
	if len(sink.records) != 1 || sink.records[0] != "taint,write,2147422208,64" {
		t.Errorf("Expected write record, got %v", sink.records)
	}
}

func TestUninterestingFilesIgnored(t *testing.T) {
	b, sink := newTestBoundary()

	b.FileOpened("/etc/ld.so.cache", oRDONLY, 3)
	if b.SourceFD() != -1 {
		t.Errorf("Expected no source designation for excluded path, got fd %d", b.SourceFD())
	}

	// Reads on an undesignated descriptor emit nothing.
	if err := b.Read(3, 0x1000, 16); err != nil {
		t.Fatalf("Unexpected read error: %v", err)
	}
	if len(sink.records) != 0 {
		t.Errorf("Expected no records, got %v", sink.records)
	}
}

func TestLastWriteWins(t *testing.T) {
	b, _ := newTestBoundary()

	b.FileOpened("/home/guest/first.txt", oRDONLY, 4)
	b.FileOpened("/home/guest/second.txt", oRDONLY, 7)
	if b.SourceFD() != 7 {
		t.Errorf("Expected most recent match to win, got fd %d", b.SourceFD())
	}
}

func TestFailedSyscallsIgnored(t *testing.T) {
	b, sink := newTestBoundary()

	// Failed open: no designation.
	b.FileOpened("/home/guest/input.txt", oRDONLY, -2)
	if b.SourceFD() != -1 {
		t.Errorf("Expected no designation for failed open")
	}

	// Failed read on a designated descriptor: no record.
	b.FileOpened("/home/guest/input.txt", oRDONLY, 5)
	if err := b.Read(5, 0x1000, -1); err != nil {
		t.Fatalf("Unexpected read error: %v", err)
	}
	if len(sink.records) != 0 {
		t.Errorf("Expected no records for failed read, got %v", sink.records)
	}
}

func TestCreatDesignatesSink(t *testing.T) {
	b, sink := newTestBoundary()

	b.FileCreated("/home/guest/out.bin", 8)
	if b.SinkFD() != 8 {
		t.Fatalf("Expected sink fd 8, got %d", b.SinkFD())
	}
	if err := b.Write(8, 0x2000, 32); err != nil {
		t.Fatalf("Unexpected write error: %v", err)
	}
	if len(sink.records) != 1 {
		t.Errorf("Expected 1 record, got %d", len(sink.records))
	}
}

func TestSyscallReturnDispatch(t *testing.T) {
	b, sink := newTestBoundary()

	// open(path, O_RDONLY) = 5
	if err := b.SyscallReturn(NROpen, []int64{0, oRDONLY}, "/home/guest/input.txt", 0, 5); err != nil {
		t.Fatalf("Unexpected dispatch error: %v", err)
	}
	// openat(AT_FDCWD, path, O_WRONLY) = 6
	if err := b.SyscallReturn(NROpenat, []int64{-100, 0, oWRONLY}, "/home/guest/output.txt", 0, 6); err != nil {
		t.Fatalf("Unexpected dispatch error: %v", err)
	}
	// read(5, buf, …) = 128
	if err := b.SyscallReturn(NRRead, []int64{5}, "", 0x7fff0000, 128); err != nil {
		t.Fatalf("Unexpected dispatch error: %v", err)
	}
	// write(6, buf, …) = 16
	if err := b.SyscallReturn(NRWrite, []int64{6}, "", 0x7fff2000, 16); err != nil {
		t.Fatalf("Unexpected dispatch error: %v", err)
	}
	// Unhandled syscall numbers are ignored.
	if err := b.SyscallReturn(999, nil, "", 0, 0); err != nil {
		t.Fatalf("Unexpected dispatch error: %v", err)
	}

	if len(sink.records) != 2 {
		t.Fatalf("Expected 2 records, got %d: %v", len(sink.records), sink.records)
	}
	if sink.records[0] != "taint,read,2147418112,128" {
		t.Errorf("Unexpected read record %q", sink.records[0])
	}
	if sink.records[1] != "taint,write,2147426304,16" {
		t.Errorf("Unexpected write record %q", sink.records[1])
	}
}

func TestReadWriteModeOpen(t *testing.T) {
	b, _ := newTestBoundary()

	// O_RDWR has the write bit clear, so it designates the source —
	// mirroring the original access-mode check exactly.
	b.FileOpened("/home/guest/both.txt", oRDWR, 9)
	if b.SourceFD() != 9 {
		t.Errorf("Expected O_RDWR open to designate source, got fd %d", b.SourceFD())
	}
	if b.SinkFD() != -1 {
		t.Errorf("Expected O_RDWR open not to designate sink, got fd %d", b.SinkFD())
	}
}
