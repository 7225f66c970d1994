package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// ValueLogSink is the persistent destination for flushed value buffers.
// It owns the output file for the whole capture: opened once at startup,
// closed once at teardown.
type ValueLogSink struct {
	file            *os.File
	writer          io.Writer
	bufWriter       *bufio.Writer
	path            string
	compressionType CompressionType
	bytesWritten    int64
}

// ValueLogOptions contains options for creating a value log sink
type ValueLogOptions struct {
	CompressionType CompressionType
}

// DefaultValueLogOptions returns default options for the value log sink
func DefaultValueLogOptions() ValueLogOptions {
	return ValueLogOptions{CompressionType: NoCompression}
}

// NewValueLogSink creates a sink writing raw records to path.
func NewValueLogSink(path string) (*ValueLogSink, error) {
	return NewValueLogSinkWithOptions(path, DefaultValueLogOptions())
}

// NewValueLogSinkWithOptions creates a sink with the given options.
// The file is truncated: a value log is the record of exactly one capture.
func NewValueLogSinkWithOptions(path string, options ValueLogOptions) (*ValueLogSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("trace: open value log: %w", err)
	}

	bufWriter := bufio.NewWriter(f)
	return &ValueLogSink{
		file:            f,
		writer:          NewCompressedWriter(bufWriter, options.CompressionType),
		bufWriter:       bufWriter,
		path:            path,
		compressionType: options.CompressionType,
	}, nil
}

// Write appends p to the value log. Used as the flush target for the
// dynamic value buffer; p is always the verbatim buffered byte range.
func (s *ValueLogSink) Write(p []byte) (int, error) {
	n, err := s.writer.Write(p)
	s.bytesWritten += int64(n)
	return n, err
}

// Flush pushes buffered bytes down to the OS. Called at unit boundaries
// so an abnormal host termination loses at most the current unit.
func (s *ValueLogSink) Flush() error {
	return s.bufWriter.Flush()
}

// BytesWritten returns the number of uncompressed record bytes accepted.
func (s *ValueLogSink) BytesWritten() int64 { return s.bytesWritten }

// Path returns the output file path.
func (s *ValueLogSink) Path() string { return s.path }

// Close terminates the compression frame if any, flushes, and closes the
// file. A sink cannot be reused after Close.
func (s *ValueLogSink) Close() error {
	if err := CloseCompressedWriter(s.writer, s.compressionType); err != nil {
		return fmt.Errorf("trace: close value log compressor: %w", err)
	}
	if err := s.bufWriter.Flush(); err != nil {
		return fmt.Errorf("trace: flush value log: %w", err)
	}
	return s.file.Close()
}
