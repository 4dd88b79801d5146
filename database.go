package fsdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/J-Cake/fsdb/internal/alloc"
	"github.com/J-Cake/fsdb/internal/container"
	fscontainer "github.com/J-Cake/fsdb/internal/container/memory"
	"github.com/J-Cake/fsdb/internal/fsformat"
	"github.com/J-Cake/fsdb/internal/history"
	"github.com/J-Cake/fsdb/internal/logging"
	"github.com/J-Cake/fsdb/internal/mediator"
	"github.com/J-Cake/fsdb/internal/metacodec"
)

const (
	rootPageName  = "/"
	rootPrincipal = "*"

	// minHeaderGap is the smallest the header+metadata region may be
	// before the inode table, matching the original format's blank()
	// layout (0x80 bytes minimum).
	minHeaderGap = 0x80

	inodeStringPadding = 0x100
	stringHistoryAlign = 0x100
)

// Database is one open fsdb store: a backing Container plus the
// in-memory inode table, string table and metadata that get
// serialized into it on every write.
type Database struct {
	mu sync.Mutex

	c        container.Container
	mediator *mediator.Mediator
	alloc    *alloc.Allocator
	strings  *fsformat.StringTable
	pages    map[string]*PageDescriptor
	order    []string

	metaCodec metacodec.Codec
	metaBytes []byte

	history *history.Log
	logger  *slog.Logger
}

// Option configures a Database at construction time.
type Option func(*Database)

// WithLogger injects a *slog.Logger. If omitted, all logging is
// discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Database) { d.logger = logger }
}

// WithMetadataCodec overrides the default JSON metadata codec.
func WithMetadataCodec(c metacodec.Codec) Option {
	return func(d *Database) { d.metaCodec = c }
}

// WithGrowthLimiter throttles container-growth during allocation.
func WithGrowthLimiter(l *rate.Limiter) Option {
	return func(d *Database) { d.alloc.GrowthLimiter = l }
}

// WithHistorySink records every history.Entry via sink as it happens,
// e.g. to forward it onto internal/journal/kafka.
func WithHistorySink(sink func(history.Entry)) Option {
	return func(d *Database) { d.history = history.NewLog(sink) }
}

func newDatabase(opts []Option) *Database {
	d := &Database{
		alloc:     alloc.New(),
		strings:   fsformat.NewStringTable(),
		pages:     make(map[string]*PageDescriptor),
		metaCodec: metacodec.JSON{},
		history:   history.NewLog(nil),
	}
	for _, o := range opts {
		o(d)
	}
	d.logger = logging.Default(d.logger).With("component", "database")
	d.mediator = mediator.New(d.logger)
	return d
}

// Blank creates a new, empty database backed by an in-memory
// container, seeded with a root page "/" owned by "*" with full
// access, and metadata encoded from meta. Use ChangeBuffer to persist
// it to a real container.
func Blank(meta any, opts ...Option) (*Database, error) {
	d := newDatabase(opts)
	d.c = fscontainer.New()

	d.strings.Intern(rootPageName)
	d.strings.Intern(rootPrincipal)
	d.pages[rootPageName] = &PageDescriptor{
		Name:     rootPageName,
		ACL:      []Access{{Kind: AccessReadWriteExecute, Principal: rootPrincipal}},
		Created:  time.Now(),
		Modified: time.Now(),
	}
	d.order = append(d.order, rootPageName)

	metaBytes, err := d.metaCodec.Encode(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	d.metaBytes = metaBytes

	if err := d.writeHeaderLocked(); err != nil {
		return nil, err
	}
	d.logger.Info("created blank database")
	return d, nil
}

// Open parses an existing container as a database, decoding metadata
// into meta.
func Open(c container.Container, meta any, opts ...Option) (*Database, error) {
	d := newDatabase(opts)
	d.c = c

	length, err := c.Len()
	if err != nil {
		return nil, err
	}
	if length < fsformat.HeaderSize {
		return nil, fmt.Errorf("read header: %w", ErrUnexpectedEOF)
	}

	raw := make([]byte, fsformat.HeaderSize)
	if _, err := c.ReadAt(raw, 0); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	hdr, err := fsformat.DecodeHeader(raw)
	if err != nil {
		switch err {
		case fsformat.ErrBadMagic:
			return nil, ErrBadMagic
		case fsformat.ErrBadVersion:
			return nil, ErrUnsupportedVersion
		default:
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}

	metaBytes := make([]byte, hdr.Metadata.Length)
	if _, err := c.ReadAt(metaBytes, int64(hdr.Metadata.Offset)); err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	d.metaBytes = metaBytes
	if meta != nil {
		if err := d.metaCodec.Decode(metaBytes, meta); err != nil {
			return nil, err
		}
	}

	strBytes := make([]byte, hdr.String.Length)
	if _, err := c.ReadAt(strBytes, int64(hdr.String.Offset)); err != nil {
		return nil, fmt.Errorf("read string table: %w", err)
	}
	strtab, err := fsformat.DecodeStringTable(strBytes)
	if err != nil {
		if errors.Is(err, fsformat.ErrTruncatedRecord) {
			return nil, fmt.Errorf("read string table: %w", ErrUnexpectedEOF)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	d.strings = strtab

	inodeBytes := make([]byte, hdr.Inode.Length)
	if _, err := c.ReadAt(inodeBytes, int64(hdr.Inode.Offset)); err != nil {
		return nil, fmt.Errorf("read inode table: %w", err)
	}
	records, err := fsformat.DecodeInodeTable(inodeBytes)
	if err != nil {
		if errors.Is(err, fsformat.ErrTruncatedRecord) {
			return nil, fmt.Errorf("read inode table: %w", ErrUnexpectedEOF)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	now := time.Now()
	for _, r := range records {
		name, ok := d.strings.At(int(r.NameIndex))
		if !ok {
			return nil, fmt.Errorf("%w: name index %d out of range", ErrCorrupt, r.NameIndex)
		}
		if _, exists := d.pages[name]; exists {
			return nil, fmt.Errorf("%w: duplicate page name %q", ErrCorrupt, name)
		}
		acl := make([]Access, len(r.ACL))
		for i, a := range r.ACL {
			principal, ok := d.strings.At(int(a.Principal))
			if !ok {
				return nil, fmt.Errorf("%w: principal index %d out of range", ErrCorrupt, a.Principal)
			}
			acl[i] = Access{Kind: a.Kind, Principal: principal}
		}
		d.pages[name] = &PageDescriptor{
			Name:     name,
			ACL:      acl,
			Created:  now,
			Modified: now,
			Chunks:   append([]fsformat.Array(nil), r.Chunks...),
		}
		d.order = append(d.order, name)
	}

	d.logger.Info("opened database", "pages", len(d.pages))
	return d, nil
}

// ChangeBuffer copies this database's full current layout onto a new
// backing container (growing it as needed) and makes it the
// database's container going forward, then flushes the header so the
// new container is immediately consistent.
func (d *Database) ChangeBuffer(c container.Container) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	old := d.c
	d.c = c

	for _, name := range d.order {
		p := d.pages[name]
		for _, chunk := range p.Chunks {
			if err := c.Grow(int64(chunk.End())); err != nil {
				d.c = old
				return err
			}
			buf := make([]byte, chunk.Length)
			if old != nil {
				if _, err := old.ReadAt(buf, int64(chunk.Offset)); err != nil {
					d.c = old
					return err
				}
			}
			if _, err := c.WriteAt(buf, int64(chunk.Offset)); err != nil {
				d.c = old
				return err
			}
		}
	}

	if err := d.writeHeaderLocked(); err != nil {
		d.c = old
		return err
	}
	return nil
}

// CreatePage creates a new, empty page named name, owned by owner
// with full access, and returns a handle to it. Returns
// ErrAlreadyExists if name is already taken.
func (d *Database) CreatePage(name, owner string) (*Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.pages[name]; exists {
		return nil, fmt.Errorf("create page %q: %w", name, ErrAlreadyExists)
	}

	now := time.Now()
	desc := &PageDescriptor{
		Name:     name,
		ACL:      []Access{{Kind: AccessReadWriteExecute, Principal: owner}},
		Created:  now,
		Modified: now,
	}
	d.pages[name] = desc
	d.order = append(d.order, name)
	d.history.Record(history.Entry{Page: name, Kind: history.Created, At: now})

	if err := d.writeHeaderLocked(); err != nil {
		delete(d.pages, name)
		d.order = d.order[:len(d.order)-1]
		return nil, err
	}

	return d.openPageLocked(desc), nil
}

// OpenPage returns a handle to an existing page. Returns ErrNotFound
// if name does not exist.
func (d *Database) OpenPage(name string) (*Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	desc, ok := d.pages[name]
	if !ok {
		return nil, fmt.Errorf("open page %q: %w", name, ErrNotFound)
	}
	return d.openPageLocked(desc), nil
}

func (d *Database) openPageLocked(desc *PageDescriptor) *Page {
	return &Page{db: d, name: desc.Name}
}

// History returns every recorded event for the named page.
func (d *Database) History(name string) []history.Entry {
	return d.history.For(name)
}

// PageNames returns every page name currently in the inode table, in
// table order.
func (d *Database) PageNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.order...)
}

// Flush persists the database's current header, inode table and
// string table to the backing container. Page.Flush calls this.
func (d *Database) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeHeaderLocked()
}

// Close releases the backing container.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.c == nil {
		return nil
	}
	return d.c.Close()
}

// layout is the computed placement of the three serialized regions for
// the database's current in-memory state.
type layout struct {
	hdr        fsformat.Header
	inodeBytes []byte
	strBytes   []byte
	dataOffset uint64
}

// computeLayoutLocked re-interns every page name/principal (so the
// string table matches current in-memory state exactly), serializes
// the inode and string tables, and computes where each region and the
// data area start. Must be called with d.mu held.
func (d *Database) computeLayoutLocked() (layout, error) {
	records := make([]fsformat.PageRecord, 0, len(d.order))
	for _, name := range d.order {
		p := d.pages[name]
		nameIdx := d.strings.Intern(p.Name)
		acl := make([]fsformat.Access, len(p.ACL))
		for i, a := range p.ACL {
			acl[i] = fsformat.Access{Kind: a.Kind, Principal: uint64(d.strings.Intern(a.Principal))}
		}
		records = append(records, fsformat.PageRecord{
			NameIndex: uint64(nameIdx),
			ACL:       acl,
			Chunks:    append([]fsformat.Array(nil), p.Chunks...),
		})
	}

	inodeBytes := fsformat.EncodeInodeTable(records)
	strBytes, err := d.strings.Encode()
	if err != nil {
		return layout{}, err
	}

	metadataOffset := uint64(fsformat.HeaderSize)
	metadataEnd := metadataOffset + uint64(len(d.metaBytes))

	inodeOffset := fsformat.Round(max(metadataEnd, minHeaderGap), 0x10)
	inodeEnd := inodeOffset + uint64(len(inodeBytes))

	stringOffset := (inodeEnd + inodeStringPadding) &^ 0xFF
	stringEnd := stringOffset + uint64(len(strBytes))

	historyOffset := fsformat.Round(stringEnd, stringHistoryAlign)

	return layout{
		hdr: fsformat.Header{
			Version:  fsformat.Version,
			Inode:    fsformat.Array{Length: uint64(len(inodeBytes)), Offset: inodeOffset},
			String:   fsformat.Array{Length: uint64(len(strBytes)), Offset: stringOffset},
			History:  fsformat.Array{Length: 0, Offset: historyOffset},
			Metadata: fsformat.Array{Length: uint64(len(d.metaBytes)), Offset: metadataOffset},
		},
		inodeBytes: inodeBytes,
		strBytes:   strBytes,
		dataOffset: maxU64(inodeEnd, stringEnd, metadataEnd),
	}, nil
}

// writeHeaderLocked serializes the string table, inode table and
// metadata, lays them out, writes them to the container, and finally
// writes the fixed header. Must be called with d.mu held.
func (d *Database) writeHeaderLocked() error {
	l, err := d.computeLayoutLocked()
	if err != nil {
		return err
	}

	required := maxU64(l.dataOffset, uint64(fsformat.HeaderSize))

	return d.mediator.WithIO(func() error {
		if err := d.c.Grow(int64(required)); err != nil {
			return fmt.Errorf("grow container: %w", err)
		}
		if _, err := d.c.WriteAt(d.metaBytes, int64(l.hdr.Metadata.Offset)); err != nil {
			return err
		}
		if _, err := d.c.WriteAt(l.inodeBytes, int64(l.hdr.Inode.Offset)); err != nil {
			return err
		}
		if _, err := d.c.WriteAt(l.strBytes, int64(l.hdr.String.Offset)); err != nil {
			return err
		}
		if _, err := d.c.WriteAt(l.hdr.Encode(), 0); err != nil {
			return err
		}
		return d.c.Sync()
	})
}

// dataStartLocked returns the offset of the first byte available for
// chunk allocation: the end of whichever of the inode table, string
// table or metadata region extends furthest. Must be called with d.mu
// held.
func (d *Database) dataStartLocked() uint64 {
	l, err := d.computeLayoutLocked()
	if err != nil {
		return uint64(fsformat.HeaderSize)
	}
	return l.dataOffset
}

func maxU64(vs ...uint64) uint64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// allocateLocked finds space for a new chunk of at least minSpace bytes and
// appends it to the named page's chunk list, persisting the updated
// inode table. Must be called with d.mu held.
func (d *Database) allocateLocked(ctx context.Context, name string, minSpace uint64) (fsformat.Array, error) {
	var all []fsformat.Array
	for _, p := range d.pages {
		all = append(all, p.Chunks...)
	}

	chunk, err := d.alloc.Allocate(ctx, d.c, all, d.dataStartLocked(), minSpace)
	if err != nil {
		return fsformat.Array{}, err
	}

	p := d.pages[name]
	prev := append([]fsformat.Array(nil), p.Chunks...)
	p.Chunks = append(p.Chunks, chunk)
	p.Modified = time.Now()
	d.history.Record(history.Entry{Page: name, Kind: history.ChunksModified, At: p.Modified, PrevChunks: prev})

	if err := d.writeHeaderLocked(); err != nil {
		p.Chunks = prev
		return fsformat.Array{}, err
	}
	return chunk, nil
}
