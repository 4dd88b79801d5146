package fsdb

import (
	"context"
	"fmt"
	"io"

	"github.com/J-Cake/fsdb/internal/fsformat"
)

// Page is a logical cursor over a page's concatenated chunks. It
// implements io.ReadWriteSeeker plus Flush. Read and Write never cross
// a chunk boundary — this is an intentional simplification, not a bug:
// callers that need to move more bytes than fit in the current chunk
// must loop.
type Page struct {
	db   *Database
	name string
	pos  int64
}

// Name returns the page's name.
func (p *Page) Name() string { return p.name }

func (p *Page) descriptor() (*PageDescriptor, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	desc, ok := p.db.pages[p.name]
	if !ok {
		return nil, fmt.Errorf("page %q: %w", p.name, ErrNotFound)
	}
	return desc, nil
}

// totalLength returns the sum of all chunk lengths, i.e. the page's
// logical size.
func totalLength(chunks []fsformat.Array) int64 {
	var n int64
	for _, c := range chunks {
		n += int64(c.Length)
	}
	return n
}

// locate finds which chunk contains logical offset pos and the byte
// offset within that chunk. ok is false if pos is at or past the end.
func locate(chunks []fsformat.Array, pos int64) (chunk fsformat.Array, withinChunk int64, ok bool) {
	remaining := pos
	for _, c := range chunks {
		if remaining < int64(c.Length) {
			return c, remaining, true
		}
		remaining -= int64(c.Length)
	}
	return fsformat.Array{}, 0, false
}

// Seek implements io.Seeker. SeekCurrent/SeekEnd with a negative
// result position fails with ErrInvalidSeek.
func (p *Page) Seek(offset int64, whence int) (int64, error) {
	desc, err := p.descriptor()
	if err != nil {
		return 0, err
	}
	length := totalLength(desc.Chunks)

	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = p.pos + offset
	case io.SeekEnd:
		newPos = length + offset
	default:
		return 0, fmt.Errorf("seek: %w", ErrInvalidSeek)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("seek: %w", ErrInvalidSeek)
	}
	p.pos = newPos
	return p.pos, nil
}

// Read implements io.Reader, reading from the current chunk only — it
// never crosses into the next chunk, even if len(buf) would allow it.
func (p *Page) Read(buf []byte) (int, error) {
	desc, err := p.descriptor()
	if err != nil {
		return 0, err
	}

	chunk, within, ok := locate(desc.Chunks, p.pos)
	if !ok {
		return 0, io.EOF
	}

	avail := int64(chunk.Length) - within
	n := int64(len(buf))
	if n > avail {
		n = avail
	}

	release, err := p.db.mediator.TryReadRange(chunk)
	if err != nil {
		return 0, err
	}
	defer release()

	var read int
	err = p.db.mediator.WithIO(func() error {
		var e error
		read, e = p.db.c.ReadAt(buf[:n], int64(chunk.Offset)+within)
		return e
	})
	if err != nil {
		return read, err
	}
	p.pos += int64(read)
	return read, nil
}

// Write implements io.Writer. If the current logical position falls
// within an existing chunk, the write overwrites in place (bounded by
// that chunk's length, like Read). If the position is at or past the
// page's current length, Write allocates a new chunk of exactly
// len(buf) bytes and appends it to the page's chunk list.
func (p *Page) Write(buf []byte) (int, error) {
	desc, err := p.descriptor()
	if err != nil {
		return 0, err
	}

	if chunk, within, ok := locate(desc.Chunks, p.pos); ok {
		avail := int64(chunk.Length) - within
		n := int64(len(buf))
		if n > avail {
			n = avail
		}

		release, err := p.db.mediator.TryWriteRange(chunk)
		if err != nil {
			return 0, err
		}
		defer release()

		var written int
		err = p.db.mediator.WithIO(func() error {
			var e error
			written, e = p.db.c.WriteAt(buf[:n], int64(chunk.Offset)+within)
			return e
		})
		if err != nil {
			return written, err
		}
		p.pos += int64(written)
		return written, nil
	}

	return p.appendChunk(buf)
}

func (p *Page) appendChunk(buf []byte) (int, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()

	if _, ok := p.db.pages[p.name]; !ok {
		return 0, fmt.Errorf("page %q: %w", p.name, ErrNotFound)
	}

	chunk, err := p.db.allocateLocked(context.Background(), p.name, uint64(len(buf)))
	if err != nil {
		return 0, err
	}

	release, err := p.db.mediator.TryWriteRange(chunk)
	if err != nil {
		return 0, err
	}
	defer release()

	var written int
	err = p.db.mediator.WithIO(func() error {
		var e error
		written, e = p.db.c.WriteAt(buf, int64(chunk.Offset))
		return e
	})
	if err != nil {
		return written, err
	}

	p.pos += int64(written)
	return written, nil
}

// Flush persists the database's current state, including this page's
// chunk list, to the backing container.
func (p *Page) Flush() error {
	return p.db.Flush()
}
