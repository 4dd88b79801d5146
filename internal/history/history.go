// Package history records in-memory audit events against a page. The
// on-disk history table stays zero-length, per format — this package
// exists for callers that want an in-process log of what happened to
// a page and, optionally, a replicated copy of it on a Kafka topic
// (see internal/journal/kafka).
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/J-Cake/fsdb/internal/fsformat"
)

// Kind identifies which variant an Entry carries.
type Kind int

const (
	Created Kind = iota
	Modified
	AccessModified
	ChunksModified
	Deleted
)

// Entry is one recorded event against a page, named like a tagged
// union: only the fields relevant to Kind are populated.
type Entry struct {
	ID      uuid.UUID
	Page    string
	Kind    Kind
	At      time.Time
	Start      uint64 // Modified
	Len        uint64 // Modified
	PrevACL    []fsformat.Access
	PrevChunks []fsformat.Array
}

// Log is an append-only, in-memory history for one database. It is
// not persisted; it exists for callers who want an audit trail and,
// optionally, want entries forwarded to internal/journal/kafka.
type Log struct {
	entries []Entry
	sink    func(Entry)
}

// NewLog returns an empty Log. sink, if non-nil, is called
// synchronously with every appended Entry — internal/journal/kafka
// passes a sink that publishes to a topic.
func NewLog(sink func(Entry)) *Log {
	return &Log{sink: sink}
}

// Record appends an entry, stamping it with a fresh UUID.
func (l *Log) Record(e Entry) Entry {
	e.ID = uuid.Must(uuid.NewV7())
	l.entries = append(l.entries, e)
	if l.sink != nil {
		l.sink(e)
	}
	return e
}

// For returns every recorded entry for the named page, in recording
// order.
func (l *Log) For(page string) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Page == page {
			out = append(out, e)
		}
	}
	return out
}

// All returns every recorded entry, in recording order.
func (l *Log) All() []Entry {
	return l.entries
}
