package fsformat

import (
	"encoding/binary"
)

// PageRecord is the wire-level shape of one inode table entry: a
// page's name (as a string-table index), its ACL, and its chunk list.
// Database.computeLayoutLocked is responsible for mapping a full PageDescriptor
// (which also carries timestamps, tracked only in memory/history) onto
// this record.
type PageRecord struct {
	NameIndex uint64
	ACL       []Access
	Chunks    []Array
}

// aclRunLength is the byte length of the acl_len field plus all ACL
// entries, before padding — the quantity the padding formula rounds.
func aclRunLength(aclLen int) uint64 {
	return 2 + 9*uint64(aclLen)
}

// EncodedLen returns the number of bytes EncodePageRecord will produce.
func (r PageRecord) EncodedLen() int {
	run := aclRunLength(len(r.ACL))
	padding := Round(run, 16) - run
	return 8 + int(run) + int(padding) + 8 + 16*len(r.Chunks)
}

// EncodePageRecord serializes one inode table entry:
//
//	u64 name_index
//	u16 acl_len
//	(u8 perm, u64 principal_index) * acl_len
//	zero padding to round(2+9*acl_len, 16)
//	u64 chunk_count
//	(u64 length, u64 offset) * chunk_count
func EncodePageRecord(r PageRecord) []byte {
	buf := make([]byte, r.EncodedLen())
	off := 0
	binary.LittleEndian.PutUint64(buf[off:off+8], r.NameIndex)
	off += 8

	binary.LittleEndian.PutUint16(buf[off:off+2], uint16(len(r.ACL)))
	off += 2
	for _, a := range r.ACL {
		buf[off] = a.Bits()
		off++
		binary.LittleEndian.PutUint64(buf[off:off+8], a.Principal)
		off += 8
	}

	run := aclRunLength(len(r.ACL))
	padding := int(Round(run, 16) - run)
	off += padding // buf is already zeroed

	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(len(r.Chunks)))
	off += 8
	for _, c := range r.Chunks {
		binary.LittleEndian.PutUint64(buf[off:off+8], c.Length)
		off += 8
		binary.LittleEndian.PutUint64(buf[off:off+8], c.Offset)
		off += 8
	}
	return buf
}

// DecodePageRecord parses one inode table entry from the front of buf,
// returning the record and the number of bytes consumed.
func DecodePageRecord(buf []byte) (PageRecord, int, error) {
	if len(buf) < 10 {
		return PageRecord{}, 0, ErrTruncatedRecord
	}
	off := 0
	nameIndex := binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8

	aclLen := int(binary.LittleEndian.Uint16(buf[off : off+2]))
	off += 2

	if len(buf) < off+aclLen*9 {
		return PageRecord{}, 0, ErrTruncatedRecord
	}
	acl := make([]Access, aclLen)
	for i := 0; i < aclLen; i++ {
		kind := AccessKind(buf[off])
		off++
		principal := binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
		acl[i] = Access{Kind: kind, Principal: principal}
	}

	run := aclRunLength(aclLen)
	padding := int(Round(run, 16) - run)
	off += padding

	if len(buf) < off+8 {
		return PageRecord{}, 0, ErrTruncatedRecord
	}
	chunkCount := int(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8

	if len(buf) < off+chunkCount*16 {
		return PageRecord{}, 0, ErrTruncatedRecord
	}
	chunks := make([]Array, chunkCount)
	for i := 0; i < chunkCount; i++ {
		length := binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
		offset := binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
		chunks[i] = Array{Length: length, Offset: offset}
	}

	return PageRecord{NameIndex: nameIndex, ACL: acl, Chunks: chunks}, off, nil
}

// DecodeInodeTable parses a whole inode table region into records, in
// on-disk order.
func DecodeInodeTable(buf []byte) ([]PageRecord, error) {
	var records []PageRecord
	for len(buf) > 0 {
		r, n, err := DecodePageRecord(buf)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
		buf = buf[n:]
	}
	return records, nil
}

// EncodeInodeTable serializes records in order, concatenated with no
// inter-record padding beyond each record's own internal ACL padding.
func EncodeInodeTable(records []PageRecord) []byte {
	var buf []byte
	for _, r := range records {
		buf = append(buf, EncodePageRecord(r)...)
	}
	return buf
}
