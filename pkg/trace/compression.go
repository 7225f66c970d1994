package trace

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
)

// CompressionType defines the compression applied to the value log
type CompressionType int

const (
	// NoCompression writes raw fixed-width records (the default; the
	// on-disk format is then exactly the flushed byte stream)
	NoCompression CompressionType = iota
	// ZstdCompression wraps the record stream in a single zstd frame
	ZstdCompression
)

// zstdMagic is the frame header every zstd stream starts with. The
// decode side uses it to detect compressed value logs without any
// out-of-band signal.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// NewCompressedWriter returns a writer that compresses data before writing
func NewCompressedWriter(w io.Writer, compressionType CompressionType) io.Writer {
	if compressionType == NoCompression {
		return w
	}
	encoder, _ := zstd.NewWriter(w)
	return encoder
}

// NewCompressedReader returns a reader that decompresses data after reading
func NewCompressedReader(r io.Reader, compressionType CompressionType) (io.Reader, error) {
	if compressionType == NoCompression {
		return r, nil
	}
	return zstd.NewReader(r)
}

// NewAutoDetectReader sniffs the zstd magic and returns a reader that
// decompresses transparently when the value log was captured with
// ZstdCompression, and passes raw logs through untouched.
func NewAutoDetectReader(r io.Reader) (io.Reader, error) {
	head := make([]byte, len(zstdMagic))
	n, err := io.ReadFull(r, head)
	if err == io.EOF {
		return bytes.NewReader(nil), nil
	}
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	rest := io.MultiReader(bytes.NewReader(head[:n]), r)
	if n == len(zstdMagic) && bytes.Equal(head, zstdMagic) {
		return zstd.NewReader(rest)
	}
	return rest, nil
}

// CloseCompressedWriter closes the compressed writer if needed
func CloseCompressedWriter(w io.Writer, compressionType CompressionType) error {
	if compressionType == NoCompression {
		return nil
	}
	if zw, ok := w.(*zstd.Encoder); ok {
		return zw.Close()
	}
	return nil
}
