package bufferpool

import "github.com/tuannm99/novabuf/internal/storage"

// Pool is the file-aware surface access methods program against.
type Pool interface {
	ReadPage(file storage.File, pageNo storage.PageID) (*storage.Page, error)
	AllocPage(file storage.File) (storage.PageID, *storage.Page, error)
	UnPinPage(file storage.File, pageNo storage.PageID, dirty bool) error
	FlushFile(file storage.File) error
	DisposePage(file storage.File, pageNo storage.PageID) error
}

// Manager is a Pool bound to a single file.
type Manager interface {
	GetPage(pageNo storage.PageID) (*storage.Page, error)
	NewPage() (storage.PageID, *storage.Page, error)
	Unpin(pageNo storage.PageID, dirty bool) error
	Flush() error
	Dispose(pageNo storage.PageID) error
}

var (
	_ Pool    = (*BufMgr)(nil)
	_ Manager = (*FileView)(nil)
)
