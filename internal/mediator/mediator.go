// Package mediator gatekeeps concurrent access to a container's byte
// ranges. A conflicting range claim never waits: it returns ErrBusy
// immediately.
package mediator

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/J-Cake/fsdb/internal/fsformat"
	"github.com/J-Cake/fsdb/internal/logging"
)

// ErrBusy is returned when a requested range overlaps one already
// held by another in-flight operation.
var ErrBusy = errors.New("mediator: range busy")

type lockKind int

const (
	lockRead lockKind = iota
	lockWrite
)

type heldRange struct {
	rng  fsformat.Array
	kind lockKind
}

// Mediator tracks the set of byte ranges currently held for reading or
// writing, and separately guards access to the backing container.
// These are deliberately two different mutexes: registryMu is held
// only long enough to check and record a range claim; ioMu is taken
// only around the actual container I/O, and is released between
// operations so that Close/Sync can always make progress.
type Mediator struct {
	registryMu sync.Mutex
	held       []heldRange

	ioMu   sync.Mutex
	logger *slog.Logger
}

// New returns a Mediator with an empty lock registry.
func New(logger *slog.Logger) *Mediator {
	logger = logging.Default(logger)
	return &Mediator{logger: logger.With("component", "mediator")}
}

// overlaps reports whether a and b intersect. a.Offset < b.End() &&
// b.Offset < a.End() — this is the corrected predicate; a naive
// translation of the original has a bug that never fires, silently
// disabling all conflict detection.
func overlaps(a, b fsformat.Array) bool {
	return a.Offset < b.End() && b.Offset < a.End()
}

func (m *Mediator) conflicts(rng fsformat.Array, kind lockKind) bool {
	for _, h := range m.held {
		if !overlaps(h.rng, rng) {
			continue
		}
		if kind == lockRead && h.kind == lockRead {
			continue // concurrent reads never conflict
		}
		return true
	}
	return false
}

// Release is returned by TryReadRange/TryWriteRange and must be called
// exactly once to release the claimed range.
type Release func()

func (m *Mediator) acquire(rng fsformat.Array, kind lockKind) (Release, error) {
	m.registryMu.Lock()
	if m.conflicts(rng, kind) {
		m.registryMu.Unlock()
		return nil, ErrBusy
	}
	m.held = append(m.held, heldRange{rng: rng, kind: kind})
	m.registryMu.Unlock()

	return func() {
		m.registryMu.Lock()
		defer m.registryMu.Unlock()
		for i, h := range m.held {
			if h.rng == (heldRange{rng: rng, kind: kind}).rng && h.kind == kind {
				m.held = append(m.held[:i], m.held[i+1:]...)
				break
			}
		}
	}, nil
}

// TryReadRange claims rng for reading. Concurrent reads of
// overlapping ranges are allowed; a claim overlapping an existing
// write claim returns ErrBusy.
func (m *Mediator) TryReadRange(rng fsformat.Array) (Release, error) {
	return m.acquire(rng, lockRead)
}

// TryWriteRange claims rng for writing. Any overlapping existing
// claim, read or write, returns ErrBusy.
func (m *Mediator) TryWriteRange(rng fsformat.Array) (Release, error) {
	return m.acquire(rng, lockWrite)
}

// WithIO runs fn while holding the container I/O mutex. Range claims
// (TryReadRange/TryWriteRange) are orthogonal to this: WithIO is the
// short critical section around the actual read/write syscall, while
// the range registry mediates which logical ranges may be in flight
// at once.
func (m *Mediator) WithIO(fn func() error) error {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	return fn()
}
