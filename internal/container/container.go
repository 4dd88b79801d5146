// Package container defines the Container abstraction: a growable,
// randomly-addressable byte store backing one database. Two
// implementations are provided, file and memory, mirroring the split
// the rest of the engine expects between a real on-disk container and
// an in-memory one used for tests and ephemeral databases.
package container

import (
	"errors"
	"io"
)

// ErrLocked is returned when a file-backed container's sibling lock
// file is already held by another process.
var ErrLocked = errors.New("container: already locked by another process")

// ErrOutOfRange is returned by an in-memory container when a read
// extends past the end of the backing buffer.
var ErrOutOfRange = errors.New("container: read past end of buffer")

// Container is a growable byte store. All methods may be called
// concurrently; callers serialize conflicting access via
// internal/mediator, not via Container itself.
type Container interface {
	io.ReaderAt
	io.WriterAt

	// Len returns the current size of the container in bytes.
	Len() (int64, error)

	// Grow extends the container to at least newLen bytes, zero-filling
	// the new region. Growing to a size smaller than the current length
	// is a no-op.
	Grow(newLen int64) error

	// Sync flushes any buffered writes to stable storage.
	Sync() error

	// Close releases any resources (file handles, locks) held by the
	// container.
	Close() error
}
