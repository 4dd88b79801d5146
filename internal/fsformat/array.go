// Package fsformat implements the on-disk binary format: the header,
// the string table, the access-control encoding, and the inode table.
// None of it performs I/O scheduling or locking — that is the job of
// the mediator, allocator and Database above it.
package fsformat

// Array addresses a byte range by (Offset, Length). Two Arrays compare
// equal, and order, by Offset alone — Length is not part of identity.
// This matches how the format uses Arrays as slots in a sorted gap
// scan: two ranges starting at the same offset are the same slot even
// if one description of it is stale.
type Array struct {
	Offset uint64
	Length uint64
}

// End returns the first offset past the range.
func (a Array) End() uint64 {
	return a.Offset + a.Length
}

// Less orders Arrays by Offset only.
func (a Array) Less(b Array) bool {
	return a.Offset < b.Offset
}

// Equal compares Arrays by Offset only, matching the format's Eq/Ord
// semantics (two descriptions of the same slot are equal regardless of
// a differing Length).
func (a Array) Equal(b Array) bool {
	return a.Offset == b.Offset
}

// Overlaps reports whether a and b describe intersecting byte ranges.
func (a Array) Overlaps(b Array) bool {
	return a.Offset < b.End() && b.Offset < a.End()
}

// Round rounds x up to the next multiple of n, always advancing by at
// least one n even when x is already a multiple of n. This is
// load-bearing: ACL padding and container growth both rely on it
// never returning x unchanged.
func Round(x, n uint64) uint64 {
	return x + (n - x%n)
}
