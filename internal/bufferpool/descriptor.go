package bufferpool

import (
	"fmt"

	"github.com/tuannm99/novabuf/internal/bufhash"
	"github.com/tuannm99/novabuf/internal/storage"
)

// FrameID indexes a frame (and its descriptor) in [0, pool size).
type FrameID int

const InvalidFrame FrameID = -1

// frameDesc is the bookkeeping for one frame.
//
// file and pageNo are meaningful only while valid. A valid descriptor always
// has exactly one lookup table entry pointing back at it.
type frameDesc struct {
	frameNo FrameID
	file    storage.File
	pageNo  storage.PageID
	pinCnt  int
	dirty   bool
	valid   bool
	refbit  bool
	counter int // staleness score, used by PolicyLRU only
}

// set installs (file, pageNo) in the frame, pinned once.
func (d *frameDesc) set(file storage.File, pageNo storage.PageID) {
	d.file = file
	d.pageNo = pageNo
	d.pinCnt = 1
	d.dirty = false
	d.valid = true
	d.refbit = true
	d.counter = 0
}

// clear returns the descriptor to the free state. The caller must drop the
// lookup table entry first.
func (d *frameDesc) clear() {
	d.file = nil
	d.pageNo = 0
	d.pinCnt = 0
	d.dirty = false
	d.valid = false
	d.refbit = false
	d.counter = 0
}

func (d *frameDesc) key() bufhash.Key {
	return keyOf(d.file, d.pageNo)
}

func (d *frameDesc) belongsTo(file storage.File) bool {
	return d.file != nil && d.file.ID() == file.ID()
}

func (d *frameDesc) String() string {
	if d.file == nil {
		return fmt.Sprintf("file:NULL valid:%t pinCnt:%d dirty:%t refbit:%t", d.valid, d.pinCnt, d.dirty, d.refbit)
	}
	return fmt.Sprintf("file:%s pageNo:%d valid:%t pinCnt:%d dirty:%t refbit:%t counter:%d",
		d.file.Filename(), d.pageNo, d.valid, d.pinCnt, d.dirty, d.refbit, d.counter)
}

func keyOf(file storage.File, pageNo storage.PageID) bufhash.Key {
	return bufhash.Key{File: file.ID(), PageID: uint32(pageNo)}
}
