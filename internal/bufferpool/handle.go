package bufferpool

import "github.com/tuannm99/novabuf/internal/storage"

// PageHandle is a pinned page that unpins itself once on Release.
//
//	h, err := bm.Pin(file, id)
//	if err != nil { ... }
//	defer h.Release()
type PageHandle struct {
	pool     Pool
	file     storage.File
	pageNo   storage.PageID
	page     *storage.Page
	dirty    bool
	released bool
}

// Pin reads (file, pageNo) and wraps the pin in a handle.
func (bm *BufMgr) Pin(file storage.File, pageNo storage.PageID) (*PageHandle, error) {
	p, err := bm.ReadPage(file, pageNo)
	if err != nil {
		return nil, err
	}
	return &PageHandle{pool: bm, file: file, pageNo: pageNo, page: p}, nil
}

// PinNew allocates a page in file and wraps the pin in a handle.
func (bm *BufMgr) PinNew(file storage.File) (*PageHandle, error) {
	pageNo, p, err := bm.AllocPage(file)
	if err != nil {
		return nil, err
	}
	return &PageHandle{pool: bm, file: file, pageNo: pageNo, page: p}, nil
}

func (h *PageHandle) PageNo() storage.PageID { return h.pageNo }

// Page returns the frame. It must not be used after Release.
func (h *PageHandle) Page() *storage.Page { return h.page }

// MarkDirty makes Release unpin with dirty=true.
func (h *PageHandle) MarkDirty() { h.dirty = true }

// Release unpins the page. Calls after the first are no-ops.
func (h *PageHandle) Release() error {
	if h.released {
		return nil
	}
	h.released = true
	h.page = nil
	return h.pool.UnPinPage(h.file, h.pageNo, h.dirty)
}
