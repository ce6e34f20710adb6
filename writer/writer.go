// Package writer implements the Positional Writer: a single output
// file that many segment fetchers write into concurrently, each at
// its own disjoint byte offset, with no locking between them.
//
// This is the one component in the engine built directly on the
// standard library rather than a third-party dependency: os.File's
// WriteAt is already lock-free for non-overlapping offsets and
// pread/pwrite-backed, which is exactly the primitive the job needs;
// no library in the corpus wraps positional file I/O more usefully
// than the stdlib call itself.
package writer

import (
	"fmt"
	"os"
)

// File is a single output file opened for positional writes.
type File struct {
	f *os.File
}

// Create opens path for writing, creating it (and truncating any
// existing contents) if needed.
func Create(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("writer: create %s: %w", path, err)
	}
	return &File{f: f}, nil
}

// WriteAt writes chunk at the given absolute byte offset. Safe for
// concurrent use across disjoint offset ranges.
func (w *File) WriteAt(chunk []byte, offset int64) error {
	if _, err := w.f.WriteAt(chunk, offset); err != nil {
		return fmt.Errorf("writer: write at offset %d: %w", offset, err)
	}
	return nil
}

// Sync flushes the file to stable storage.
func (w *File) Sync() error {
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("writer: sync: %w", err)
	}
	return nil
}

// Close closes the underlying file descriptor.
func (w *File) Close() error {
	return w.f.Close()
}
