package fsformat

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the fixed size, in bytes, of the container header.
const HeaderSize = 80

// Magic identifies an fsdb container.
var Magic = [4]byte{'F', 'S', 'D', 'B'}

// Version is the only format version this package understands.
const Version = uint32(1)

var (
	ErrHeaderTooSmall = errors.New("fsformat: header too small")
	ErrBadMagic       = errors.New("fsformat: bad magic")
	ErrBadVersion     = errors.New("fsformat: unsupported version")
)

// Header is the raw, fixed-size region at the start of every
// container. Layout (little-endian throughout):
//
//	0x00  magic      [4]byte   "FSDB"
//	0x04  version    uint32
//	0x08  reserved   uint64
//	0x10  inode.length    uint64
//	0x18  inode.offset    uint64
//	0x20  string.length   uint64
//	0x28  string.offset   uint64
//	0x30  history.length  uint64
//	0x38  history.offset  uint64
//	0x40  metadata.length uint64
//	0x48  metadata.offset uint64
//
// Each region is stored length-first, offset-second — this field
// order, not the reverse, is the one the format commits to.
type Header struct {
	Version  uint32
	Reserved uint64
	Inode    Array
	String   Array
	History  Array
	Metadata Array
}

// Encode writes h into a freshly allocated HeaderSize-byte slice.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	h.EncodeInto(buf)
	return buf
}

// EncodeInto writes h into buf, which must be at least HeaderSize
// bytes. Returns the number of bytes written.
func (h Header) EncodeInto(buf []byte) int {
	copy(buf[0:4], Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint64(buf[8:16], h.Reserved)
	putArray(buf[0x10:0x20], h.Inode)
	putArray(buf[0x20:0x30], h.String)
	putArray(buf[0x30:0x40], h.History)
	putArray(buf[0x40:0x50], h.Metadata)
	return HeaderSize
}

func putArray(buf []byte, a Array) {
	binary.LittleEndian.PutUint64(buf[0:8], a.Length)
	binary.LittleEndian.PutUint64(buf[8:16], a.Offset)
}

func getArray(buf []byte) Array {
	return Array{
		Length: binary.LittleEndian.Uint64(buf[0:8]),
		Offset: binary.LittleEndian.Uint64(buf[8:16]),
	}
}

// DecodeHeader parses and validates the fixed header region.
// Returns ErrHeaderTooSmall, ErrBadMagic or ErrBadVersion as
// appropriate; callers map these onto the package-level sentinel
// errors (fsdb.ErrBadMagic, fsdb.ErrUnsupportedVersion).
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrHeaderTooSmall
	}
	if [4]byte(buf[0:4]) != Magic {
		return Header{}, ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(buf[4:8])
	if version != Version {
		return Header{}, ErrBadVersion
	}
	return Header{
		Version:  version,
		Reserved: binary.LittleEndian.Uint64(buf[8:16]),
		Inode:    getArray(buf[0x10:0x20]),
		String:   getArray(buf[0x20:0x30]),
		History:  getArray(buf[0x30:0x40]),
		Metadata: getArray(buf[0x40:0x50]),
	}, nil
}
