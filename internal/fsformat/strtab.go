package fsformat

import (
	"encoding/binary"
	"errors"
)

// ErrStringTooLarge is returned by Encode when a string's UTF-8 length
// cannot fit in the u16 length prefix.
var ErrStringTooLarge = errors.New("fsformat: string exceeds 65535 bytes")

// StringTable is an ordered, append-only, dedup-on-insert table of
// strings. Intern is the core operation: looking up an existing string
// returns its existing index; looking up a new one appends it.
//
// A fresh table is seeded with index 0 = "/" and index 1 = "*", but
// StringTable itself does not enforce that — Database does the
// seeding, and StringTable must tolerate loading a table with
// different initial contents.
type StringTable struct {
	strings []string
	lookup  map[string]int
}

// NewStringTable returns an empty table.
func NewStringTable() *StringTable {
	return &StringTable{lookup: make(map[string]int)}
}

// Intern returns the index of s, appending it if it is not already
// present. Interning the same string twice returns the same index.
func (t *StringTable) Intern(s string) int {
	if i, ok := t.lookup[s]; ok {
		return i
	}
	i := len(t.strings)
	t.strings = append(t.strings, s)
	t.lookup[s] = i
	return i
}

// Lookup returns the index of s without inserting it.
func (t *StringTable) Lookup(s string) (int, bool) {
	i, ok := t.lookup[s]
	return i, ok
}

// At returns the string at index i.
func (t *StringTable) At(i int) (string, bool) {
	if i < 0 || i >= len(t.strings) {
		return "", false
	}
	return t.strings[i], true
}

// Len returns the number of interned strings.
func (t *StringTable) Len() int {
	return len(t.strings)
}

// All returns the table's strings in table order. The returned slice
// must not be mutated.
func (t *StringTable) All() []string {
	return t.strings
}

// Encode serializes the table as a sequence of records, each a u16
// length prefix followed by the raw UTF-8 bytes, with no inter-record
// alignment.
func (t *StringTable) Encode() ([]byte, error) {
	var buf []byte
	for _, s := range t.strings {
		if len(s) > 0xFFFF {
			return nil, ErrStringTooLarge
		}
		rec := make([]byte, 2+len(s))
		binary.LittleEndian.PutUint16(rec[0:2], uint16(len(s)))
		copy(rec[2:], s)
		buf = append(buf, rec...)
	}
	return buf, nil
}

// DecodeStringTable parses a string table region produced by Encode.
func DecodeStringTable(buf []byte) (*StringTable, error) {
	t := NewStringTable()
	for len(buf) > 0 {
		if len(buf) < 2 {
			return nil, ErrTruncatedRecord
		}
		n := int(binary.LittleEndian.Uint16(buf[0:2]))
		if len(buf) < 2+n {
			return nil, ErrTruncatedRecord
		}
		t.Intern(string(buf[2 : 2+n]))
		buf = buf[2+n:]
	}
	return t, nil
}

// ErrTruncatedRecord is returned when a string-table or inode-table
// region ends in the middle of a record.
var ErrTruncatedRecord = errors.New("fsformat: truncated record")
