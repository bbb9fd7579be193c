package bufferpool

import "github.com/tuannm99/novabuf/internal/storage"

// FileView binds a Pool to a specific File.
// It implements Manager for callers that work on one file.
type FileView struct {
	pool Pool
	file storage.File
}

func (v *FileView) File() storage.File { return v.file }

func (v *FileView) GetPage(pageNo storage.PageID) (*storage.Page, error) {
	return v.pool.ReadPage(v.file, pageNo)
}

func (v *FileView) NewPage() (storage.PageID, *storage.Page, error) {
	return v.pool.AllocPage(v.file)
}

func (v *FileView) Unpin(pageNo storage.PageID, dirty bool) error {
	return v.pool.UnPinPage(v.file, pageNo, dirty)
}

// Flush writes back and drops every cached page of THIS file only.
func (v *FileView) Flush() error {
	return v.pool.FlushFile(v.file)
}

func (v *FileView) Dispose(pageNo storage.PageID) error {
	return v.pool.DisposePage(v.file, pageNo)
}

// View returns a file-scoped Manager backed by bm.
func (bm *BufMgr) View(file storage.File) *FileView {
	return &FileView{pool: bm, file: file}
}
