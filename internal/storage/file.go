package storage

import (
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/tuannm99/novabuf/internal/alias/bx"
	"github.com/tuannm99/novabuf/internal/alias/util"
)

// File is what the buffer manager needs from a paged file.
// Two handles denote the same file iff their IDs are equal.
type File interface {
	ID() uuid.UUID
	Filename() string
	ReadPage(pageID PageID) (*Page, error)
	WritePage(p *Page) error
	AllocatePage() (*Page, error)
	DeletePage(pageID PageID) error
}

var _ File = (*PagedFile)(nil)

const fileMagic uint32 = 0x4e564246 // "NVBF"

// Header page payload offsets (relative to Page.Data()).
const (
	offMagic     = 0
	offNumPages  = 4
	offFirstFree = 8
)

// PagedFile is a page-addressed file stored as segments base, base.1, ...
// Page 0 holds the file header (page count and head of the free list).
// Deleted pages are flagged free and chained through their nextFree field;
// AllocatePage reuses them before growing the file.
type PagedFile struct {
	fs   afero.Fs
	dir  string
	base string
	id   uuid.UUID

	numPages  uint32 // includes the header page
	firstFree PageID
	closed    bool
}

// Create makes a new, empty paged file. It fails if the file already exists.
func Create(fs afero.Fs, dir, name string) (*PagedFile, error) {
	if ok, err := Exists(fs, dir, name); err != nil {
		return nil, err
	} else if ok {
		return nil, errors.Wrapf(ErrFileExists, "create %s", filepath.Join(dir, name))
	}

	f := &PagedFile{
		fs:       fs,
		dir:      dir,
		base:     name,
		id:       uuid.New(),
		numPages: 1,
	}
	if err := f.writeHeader(); err != nil {
		return nil, errors.Wrapf(err, "create %s", f.Filename())
	}
	slog.Debug("storage: created file", "file", f.Filename())
	return f, nil
}

// Open opens an existing paged file and validates its header.
func Open(fs afero.Fs, dir, name string) (*PagedFile, error) {
	f := &PagedFile{
		fs:   fs,
		dir:  dir,
		base: name,
		id:   uuid.New(),
	}
	if err := f.readHeader(); err != nil {
		return nil, errors.Wrapf(err, "open %s", f.Filename())
	}
	return f, nil
}

// OpenOrCreate opens name if it exists and creates it otherwise.
func OpenOrCreate(fs afero.Fs, dir, name string) (*PagedFile, error) {
	ok, err := Exists(fs, dir, name)
	if err != nil {
		return nil, err
	}
	if ok {
		return Open(fs, dir, name)
	}
	return Create(fs, dir, name)
}

// Exists reports whether segment 0 of name is present in dir.
func Exists(fs afero.Fs, dir, name string) (bool, error) {
	return afero.Exists(fs, filepath.Join(dir, SegFileName(name, 0)))
}

// Remove deletes every segment of name.
func Remove(fs afero.Fs, dir, name string) error {
	return RemoveAllSegments(fs, dir, name)
}

func (f *PagedFile) ID() uuid.UUID { return f.id }

func (f *PagedFile) Filename() string { return filepath.Join(f.dir, f.base) }

// NumPages returns the number of page slots past the header, free or not.
func (f *PagedFile) NumPages() uint32 { return f.numPages - 1 }

// ReadPage returns a copy of pageID. Unallocated and deleted pages fail with
// ErrPageNotAllocated.
func (f *PagedFile) ReadPage(pageID PageID) (*Page, error) {
	if err := f.checkAllocated(pageID); err != nil {
		return nil, err
	}
	p := &Page{Buf: make([]byte, PageSize)}
	if err := f.readRaw(pageID, p.Buf); err != nil {
		return nil, errors.Wrapf(err, "read %s page %d", f.Filename(), pageID)
	}
	if !p.IsUsed() || p.PageNumber() != pageID {
		return nil, errors.Wrapf(ErrPageNotAllocated, "%s page %d", f.Filename(), pageID)
	}
	return p, nil
}

// WritePage persists p at the slot named by its own page number.
func (f *PagedFile) WritePage(p *Page) error {
	if p == nil || len(p.Buf) != PageSize {
		return errors.Wrap(ErrInvalidPage, "write page")
	}
	pageID := p.PageNumber()
	if err := f.checkAllocated(pageID); err != nil {
		return err
	}
	if !p.IsUsed() {
		return errors.Wrapf(ErrInvalidPage, "%s page %d is not marked in use", f.Filename(), pageID)
	}
	if err := f.writeRaw(pageID, p.Buf); err != nil {
		return errors.Wrapf(err, "write %s page %d", f.Filename(), pageID)
	}
	return nil
}

// AllocatePage hands out a fresh zeroed page, reusing the free list first.
func (f *PagedFile) AllocatePage() (*Page, error) {
	if f.closed {
		return nil, ErrFileClosed
	}

	var pageID PageID
	if f.firstFree != InvalidPageID {
		pageID = f.firstFree
		old := &Page{Buf: make([]byte, PageSize)}
		if err := f.readRaw(pageID, old.Buf); err != nil {
			return nil, errors.Wrapf(err, "allocate %s: read free page %d", f.Filename(), pageID)
		}
		if !old.IsFree() {
			return nil, errors.Wrapf(ErrBadHeader, "%s free list points at page %d which is not free", f.Filename(), pageID)
		}
		f.firstFree = old.nextFree()
	} else {
		pageID = PageID(f.numPages)
		f.numPages++
	}

	p := NewPage(pageID)
	if err := f.writeRaw(pageID, p.Buf); err != nil {
		return nil, errors.Wrapf(err, "allocate %s page %d", f.Filename(), pageID)
	}
	if err := f.writeHeader(); err != nil {
		return nil, errors.Wrapf(err, "allocate %s page %d", f.Filename(), pageID)
	}
	return p, nil
}

// DeletePage frees pageID and pushes it on the free list.
func (f *PagedFile) DeletePage(pageID PageID) error {
	if err := f.checkAllocated(pageID); err != nil {
		return err
	}
	cur := &Page{Buf: make([]byte, PageSize)}
	if err := f.readRaw(pageID, cur.Buf); err != nil {
		return errors.Wrapf(err, "delete %s page %d", f.Filename(), pageID)
	}
	if !cur.IsUsed() {
		return errors.Wrapf(ErrPageNotAllocated, "delete %s page %d", f.Filename(), pageID)
	}

	freed := &Page{Buf: make([]byte, PageSize)}
	freed.init(pageID)
	freed.setFlags(PageFlagFree)
	freed.setNextFree(f.firstFree)
	if err := f.writeRaw(pageID, freed.Buf); err != nil {
		return errors.Wrapf(err, "delete %s page %d", f.Filename(), pageID)
	}
	f.firstFree = pageID
	if err := f.writeHeader(); err != nil {
		return errors.Wrapf(err, "delete %s page %d", f.Filename(), pageID)
	}
	return nil
}

// PageIDs enumerates the allocated (in use) pages in ascending order.
func (f *PagedFile) PageIDs() ([]PageID, error) {
	if f.closed {
		return nil, ErrFileClosed
	}
	ids := make([]PageID, 0, f.numPages)
	buf := make([]byte, PageSize)
	p := &Page{Buf: buf}
	for id := PageID(1); uint32(id) < f.numPages; id++ {
		if err := f.readRaw(id, buf); err != nil {
			return nil, errors.Wrapf(err, "scan %s page %d", f.Filename(), id)
		}
		if p.IsUsed() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Close persists the header. Further calls on f fail with ErrFileClosed.
func (f *PagedFile) Close() error {
	if f.closed {
		return nil
	}
	err := f.writeHeader()
	f.closed = true
	return err
}

func (f *PagedFile) checkAllocated(pageID PageID) error {
	if f.closed {
		return ErrFileClosed
	}
	if pageID == InvalidPageID || uint32(pageID) >= f.numPages {
		return errors.Wrapf(ErrPageNotAllocated, "%s page %d", f.Filename(), pageID)
	}
	return nil
}

func (f *PagedFile) writeHeader() error {
	hdr := &Page{Buf: make([]byte, PageSize)}
	hdr.init(0)
	hdr.setFlags(PageFlagHeader)
	d := hdr.Data()
	bx.PutU32At(d, offMagic, fileMagic)
	bx.PutU32At(d, offNumPages, f.numPages)
	bx.PutU32At(d, offFirstFree, uint32(f.firstFree))
	return f.writeRaw(0, hdr.Buf)
}

func (f *PagedFile) readHeader() error {
	hdr := &Page{Buf: make([]byte, PageSize)}
	if err := f.readRaw(0, hdr.Buf); err != nil {
		return err
	}
	d := hdr.Data()
	if hdr.flags()&PageFlagHeader == 0 || bx.U32At(d, offMagic) != fileMagic {
		return ErrBadHeader
	}
	f.numPages = bx.U32At(d, offNumPages)
	f.firstFree = PageID(bx.U32At(d, offFirstFree))
	if f.numPages == 0 || uint32(f.firstFree) >= f.numPages {
		return ErrBadHeader
	}
	return nil
}

// readRaw reads exactly one page into dst. Bytes past the end of the segment
// read as zero.
func (f *PagedFile) readRaw(pageID PageID, dst []byte) error {
	segNo, off := locate(pageID)
	sf, err := openSegment(f.fs, f.dir, f.base, segNo)
	if err != nil {
		return err
	}
	defer util.CloseFileFunc(sf)

	n, err := sf.ReadAt(dst, off)
	if err != nil && err != io.EOF {
		return err
	}
	for i := n; i < PageSize; i++ {
		dst[i] = 0
	}
	return nil
}

func (f *PagedFile) writeRaw(pageID PageID, src []byte) error {
	segNo, off := locate(pageID)
	sf, err := openSegment(f.fs, f.dir, f.base, segNo)
	if err != nil {
		return err
	}
	defer util.CloseFileFunc(sf)

	n, err := sf.WriteAt(src, off)
	if err != nil {
		return err
	}
	if n != PageSize {
		return io.ErrShortWrite
	}
	return nil
}
