// Package replay decodes captured traces: the binary value log, the
// text execution ledger, and the persisted unit definitions. It is the
// companion to pkg/trace — everything the capture side writes, this
// side can scan, step through, and correlate.
package replay

import (
	"fmt"
	"io"
	"os"

	"github.com/ReverseTools/panda/pkg/trace"
)

// EventReader scans fixed-width records from a value log. The log has
// no header and no length prefix; the reader consumes EventSize bytes
// at a time until EOF. Compressed logs are detected by the zstd magic
// and decompressed transparently.
type EventReader struct {
	r   io.Reader
	buf [trace.EventSize]byte
	n   int64
}

// NewEventReader wraps r, sniffing for compression.
func NewEventReader(r io.Reader) (*EventReader, error) {
	dr, err := trace.NewAutoDetectReader(r)
	if err != nil {
		return nil, fmt.Errorf("replay: open value log: %w", err)
	}
	return &EventReader{r: dr}, nil
}

// Next returns the next event, or io.EOF at a clean end of stream.
// A trailing partial record means the log was cut mid-write and is
// reported as an error, not silently dropped.
func (er *EventReader) Next() (trace.Event, error) {
	if _, err := io.ReadFull(er.r, er.buf[:]); err != nil {
		if err == io.EOF {
			return trace.Event{}, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return trace.Event{}, fmt.Errorf("replay: truncated record at offset %d", er.n*trace.EventSize)
		}
		return trace.Event{}, fmt.Errorf("replay: read record: %w", err)
	}
	er.n++
	return trace.DecodeEvent(er.buf[:]), nil
}

// ReadAll drains the stream into a slice.
func (er *EventReader) ReadAll() ([]trace.Event, error) {
	var events []trace.Event
	for {
		ev, err := er.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

// ReadValueLog opens and fully decodes the value log at path.
func ReadValueLog(path string) ([]trace.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open %s: %w", path, err)
	}
	defer f.Close()

	er, err := NewEventReader(f)
	if err != nil {
		return nil, err
	}
	return er.ReadAll()
}
