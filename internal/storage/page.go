package storage

import "github.com/tuannm99/novabuf/internal/alias/bx"

// PageID is a page number within one File. Page 0 of a PagedFile is its
// header; data pages start at 1.
type PageID uint32

// InvalidPageID is never handed out by AllocatePage.
const InvalidPageID PageID = 0

// Header offsets
const (
	offFlags    = 0
	offPageID   = 2
	offNextFree = 6
)

// Page flags
const (
	PageFlagUsed   uint16 = 1 << 0
	PageFlagFree   uint16 = 1 << 1
	PageFlagHeader uint16 = 1 << 2
)

// +------------------+ 0
// | flags   (2)      |
// | pageID  (4)      |
// | nextFree(4)      |
// | reserved(2)      |
// +------------------+ HeaderSize
// |                  |
// |   Data           |
// |                  |
// +------------------+ PageSize (8192)
type Page struct {
	Buf []byte // fixed-size 8KB
}

// NewPage returns a zeroed, in-use page carrying pageID.
func NewPage(pageID PageID) *Page {
	p := &Page{Buf: make([]byte, PageSize)}
	p.init(pageID)
	p.setFlags(PageFlagUsed)
	return p
}

// WrapPage wraps an existing page-sized buffer without touching its bytes.
func WrapPage(buf []byte) (*Page, error) {
	if len(buf) != PageSize {
		return nil, ErrWrongSize
	}
	return &Page{Buf: buf}, nil
}

// ---- low-level header getters/setters ----
func (p *Page) flags() uint16 {
	return bx.U16At(p.Buf, offFlags)
}

func (p *Page) setFlags(v uint16) {
	bx.PutU16At(p.Buf, offFlags, v)
}

func (p *Page) PageNumber() PageID {
	return PageID(bx.U32At(p.Buf, offPageID))
}

func (p *Page) setPageNumber(v PageID) {
	bx.PutU32At(p.Buf, offPageID, uint32(v))
}

func (p *Page) nextFree() PageID {
	return PageID(bx.U32At(p.Buf, offNextFree))
}

func (p *Page) setNextFree(v PageID) {
	bx.PutU32At(p.Buf, offNextFree, uint32(v))
}

func (p *Page) IsUsed() bool { return p.flags()&PageFlagUsed != 0 }

func (p *Page) IsFree() bool { return p.flags()&PageFlagFree != 0 }

func (p *Page) init(pageID PageID) {
	for i := range p.Buf {
		p.Buf[i] = 0
	}
	p.setPageNumber(pageID)
}

// Data is the payload area after the header. Callers may write into it.
func (p *Page) Data() []byte {
	return p.Buf[HeaderSize:]
}

// CopyFrom overwrites p with the bytes of src.
func (p *Page) CopyFrom(src *Page) {
	copy(p.Buf, src.Buf)
}
