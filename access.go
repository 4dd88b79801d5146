package fsdb

import "github.com/J-Cake/fsdb/internal/fsformat"

// AccessKind is a 3-bit permission tag. The five well-known values are
// exported below; any other value is a Custom tag and the bits are
// preserved verbatim — fsdb never rejects a value it doesn't
// recognize, and never enforces what it stores.
type AccessKind = fsformat.AccessKind

const (
	AccessNone             = fsformat.None
	AccessRead             = fsformat.Read
	AccessReadWrite        = fsformat.ReadWrite
	AccessReadExecute      = fsformat.ReadExecute
	AccessReadWriteExecute = fsformat.ReadWriteExecute
)

// Access grants a permission to a named principal. Principal is an
// arbitrary caller-defined string (a user name, a role, "*" for
// everyone) resolved through the database's string table.
type Access struct {
	Kind      AccessKind
	Principal string
}

// Custom builds an Access with a non-standard permission tag. bits is
// stored and round-tripped verbatim, not masked down to 3 bits — the
// format never rejects a value it doesn't recognize.
func Custom(bits uint8, principal string) Access {
	return Access{Kind: fsformat.AccessKind(bits), Principal: principal}
}
