// Package memory implements container.Container over an in-memory
// byte slice, for tests and ephemeral (non-persisted) databases.
package memory

import (
	"sync"

	"github.com/J-Cake/fsdb/internal/container"
)

// Container backs a database with a plain, mutex-guarded []byte.
type Container struct {
	mu   sync.Mutex
	data []byte
}

var _ container.Container = (*Container)(nil)

// New returns an empty Container.
func New() *Container {
	return &Container{}
}

func (c *Container) ReadAt(p []byte, off int64) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if off < 0 || off > int64(len(c.data)) {
		return 0, container.ErrOutOfRange
	}
	n := copy(p, c.data[off:])
	if n < len(p) {
		return n, container.ErrOutOfRange
	}
	return n, nil
}

func (c *Container) WriteAt(p []byte, off int64) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	end := off + int64(len(p))
	if end > int64(len(c.data)) {
		grown := make([]byte, end)
		copy(grown, c.data)
		c.data = grown
	}
	copy(c.data[off:end], p)
	return len(p), nil
}

func (c *Container) Len() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.data)), nil
}

func (c *Container) Grow(newLen int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if newLen <= int64(len(c.data)) {
		return nil
	}
	grown := make([]byte, newLen)
	copy(grown, c.data)
	c.data = grown
	return nil
}

func (c *Container) Sync() error  { return nil }
func (c *Container) Close() error { return nil }

// Bytes returns a copy of the full backing buffer, for tests.
func (c *Container) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, len(c.data))
	copy(out, c.data)
	return out
}
