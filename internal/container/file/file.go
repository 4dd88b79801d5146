// Package file implements container.Container over a real OS file,
// guarded by a non-blocking advisory lock on a sibling .lock file —
// the same discipline the teacher's chunk manager uses to keep two
// processes from opening the same store.
package file

import (
	"fmt"
	"os"
	"syscall"

	"github.com/J-Cake/fsdb/internal/container"
)

// Container backs a database with a single *os.File.
type Container struct {
	f        *os.File
	lockFile *os.File
}

var _ container.Container = (*Container)(nil)

// Open opens (creating if necessary) the file at path as a Container,
// taking a non-blocking exclusive lock on path+".lock" so a second
// process cannot open the same store concurrently.
func Open(path string) (*Container, error) {
	lockFile, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		lockFile.Close()
		return nil, fmt.Errorf("lock %s: %w", path, container.ErrLocked)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)
		lockFile.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return &Container{f: f, lockFile: lockFile}, nil
}

func (c *Container) ReadAt(p []byte, off int64) (int, error) {
	return c.f.ReadAt(p, off)
}

func (c *Container) WriteAt(p []byte, off int64) (int, error) {
	return c.f.WriteAt(p, off)
}

func (c *Container) Len() (int64, error) {
	info, err := c.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (c *Container) Grow(newLen int64) error {
	cur, err := c.Len()
	if err != nil {
		return err
	}
	if newLen <= cur {
		return nil
	}
	return c.f.Truncate(newLen)
}

func (c *Container) Sync() error {
	return c.f.Sync()
}

func (c *Container) Close() error {
	err := c.f.Close()
	syscall.Flock(int(c.lockFile.Fd()), syscall.LOCK_UN)
	if lerr := c.lockFile.Close(); err == nil {
		err = lerr
	}
	return err
}

// Path returns the backing file's path, e.g. to pass to internal/watch
// to set up an fsnotify watch on the same file a Container has open.
func (c *Container) Path() string {
	return c.f.Name()
}
