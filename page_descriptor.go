package fsdb

import (
	"time"

	"github.com/J-Cake/fsdb/internal/fsformat"
)

// PageDescriptor is a page's metadata: its name, ACL, timestamps and
// ordered chunk list. Chunks are ordered and never overlap any chunk
// belonging to any other page in the same database.
type PageDescriptor struct {
	Name     string
	ACL      []Access
	Created  time.Time
	Modified time.Time
	Chunks   []fsformat.Array
}
