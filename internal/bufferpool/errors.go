package bufferpool

import (
	"errors"
	"fmt"

	"github.com/tuannm99/novabuf/internal/storage"
)

var (
	ErrBufferExceeded  = errors.New("bufferpool: no replaceable frame (all pinned)")
	ErrPageNotPinned   = errors.New("bufferpool: page is not pinned")
	ErrPagePinned      = errors.New("bufferpool: page is pinned")
	ErrBadBuffer       = errors.New("bufferpool: bad buffer")
	ErrHashNotFound    = errors.New("bufferpool: page not found in lookup table")
	ErrPoolClosed      = errors.New("bufferpool: pool is closed")
	ErrInvalidPoolSize = errors.New("bufferpool: invalid pool size")
)

// PageError reports a failed operation on one page. Err is one of the
// sentinels above or an error from the File.
type PageError struct {
	Op     string
	File   string
	PageNo storage.PageID
	Frame  FrameID // InvalidFrame when the page had no frame
	Err    error
}

func (e *PageError) Error() string {
	if e.Frame == InvalidFrame {
		return fmt.Sprintf("%s %s page %d: %v", e.Op, e.File, e.PageNo, e.Err)
	}
	return fmt.Sprintf("%s %s page %d (frame %d): %v", e.Op, e.File, e.PageNo, e.Frame, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// BadBufferError reports a descriptor found in a state the invariants forbid.
type BadBufferError struct {
	Frame  FrameID
	Dirty  bool
	Valid  bool
	Refbit bool
}

func (e *BadBufferError) Error() string {
	return fmt.Sprintf("%v: frame %d dirty=%t valid=%t refbit=%t", ErrBadBuffer, e.Frame, e.Dirty, e.Valid, e.Refbit)
}

func (e *BadBufferError) Unwrap() error { return ErrBadBuffer }

func pageErr(op string, file storage.File, pageNo storage.PageID, frame FrameID, err error) error {
	return &PageError{Op: op, File: file.Filename(), PageNo: pageNo, Frame: frame, Err: err}
}
