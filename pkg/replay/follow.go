package replay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/ReverseTools/panda/pkg/trace"
)

// Follow tails a value log while a capture is still running, decoding
// records as the tracer flushes them. Only raw (uncompressed) logs can
// be followed: a zstd frame is not decodable until the encoder closes
// it at teardown. Blocks until ctx is cancelled.
func Follow(ctx context.Context, path string, visit func(ev trace.Event)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("replay: open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, 4)
	if n, _ := io.ReadFull(f, head); n == 4 && bytes.Equal(head, []byte{0x28, 0xb5, 0x2f, 0xfd}) {
		return fmt.Errorf("replay: cannot follow a compressed value log")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("replay: rewind: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("replay: create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("replay: watch %s: %w", path, err)
	}

	// pending holds the tail of a record the tracer has not finished
	// writing yet. Flushes are whole-record multiples, so pending only
	// ever straddles an OS-level partial write.
	var pending []byte
	chunk := make([]byte, 64*1024)

	drain := func() error {
		for {
			n, err := f.Read(chunk)
			if n > 0 {
				pending = append(pending, chunk[:n]...)
				for len(pending) >= trace.EventSize {
					visit(trace.DecodeEvent(pending[:trace.EventSize]))
					pending = pending[trace.EventSize:]
				}
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("replay: read log: %w", err)
			}
		}
	}

	// Catch up on whatever was flushed before we started.
	if err := drain(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write != 0 {
				if err := drain(); err != nil {
					return err
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("replay: watcher: %w", err)
		}
	}
}
