package fsdb

import (
	"errors"

	"github.com/J-Cake/fsdb/internal/mediator"
)

// Sentinel errors returned (possibly wrapped via fmt.Errorf("...: %w", ...))
// by package fsdb. Callers should compare with errors.Is, never by type
// assertion or string match.
var (
	ErrNotFound           = errors.New("fsdb: not found")
	ErrNotPermitted       = errors.New("fsdb: not permitted")
	ErrBusy               = mediator.ErrBusy // returned by Page on a conflicting range claim
	ErrAlreadyExists      = errors.New("fsdb: already exists")
	ErrBadMagic           = errors.New("fsdb: bad magic")
	ErrUnsupportedVersion = errors.New("fsdb: unsupported version")
	ErrCorrupt            = errors.New("fsdb: corrupt format")
	ErrUnexpectedEOF      = errors.New("fsdb: unexpected end of file")
	ErrStorageFull        = errors.New("fsdb: storage full")
	ErrInvalidSeek        = errors.New("fsdb: invalid seek")
)
