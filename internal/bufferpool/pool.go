package bufferpool

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.uber.org/multierr"

	"github.com/tuannm99/novabuf/internal/bufhash"
	"github.com/tuannm99/novabuf/internal/storage"
)

// BufMgr caches pages of storage.Files in a fixed pool of page-sized frames.
//
// Pages returned by ReadPage and AllocPage are borrowed: the pointer stays
// valid only while the caller holds a pin, and every ReadPage/AllocPage must
// be balanced by one UnPinPage. The mutex serialises public calls; nothing
// inside an operation waits except the File's own I/O.
type BufMgr struct {
	mu sync.Mutex

	numBufs int
	arena   []byte         // numBufs * PageSize, contiguous
	frames  []storage.Page // frames[i].Buf is a window into arena
	descs   []frameDesc
	table   *bufhash.Table // (file, page) -> frame index

	policy Policy
	repl   Replacer
	stats  Stats
	log    *slog.Logger
	closed bool
}

type Option func(*BufMgr)

func WithPolicy(p Policy) Option {
	return func(bm *BufMgr) { bm.policy = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(bm *BufMgr) { bm.log = l }
}

// New builds a pool of size frames. Size must be positive.
func New(size int, opts ...Option) (*BufMgr, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPoolSize, size)
	}

	bm := &BufMgr{
		numBufs: size,
		arena:   make([]byte, size*storage.PageSize),
		frames:  make([]storage.Page, size),
		descs:   make([]frameDesc, size),
		table:   bufhash.New(bufhash.SizeFor(size)),
		policy:  PolicyClock,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(bm)
	}

	for i := 0; i < size; i++ {
		bm.frames[i].Buf = bm.arena[i*storage.PageSize : (i+1)*storage.PageSize]
		bm.descs[i].frameNo = FrameID(i)
	}

	repl, err := newReplacer(bm.policy, bm)
	if err != nil {
		return nil, err
	}
	bm.repl = repl
	return bm, nil
}

func (bm *BufMgr) Size() int { return bm.numBufs }

func (bm *BufMgr) Policy() Policy { return bm.policy }

// ReadPage pins (file, pageNo) and returns its frame, reading it from file on
// a miss.
func (bm *BufMgr) ReadPage(file storage.File, pageNo storage.PageID) (*storage.Page, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil, ErrPoolClosed
	}

	// 1) HIT
	if idx, ok := bm.table.Lookup(keyOf(file, pageNo)); ok {
		frame := FrameID(idx)
		bm.repl.onHit(frame)
		bm.descs[frame].pinCnt++
		bm.repl.onRead()
		bm.stats.Hits++
		return &bm.frames[frame], nil
	}

	// 2) MISS
	frame, err := bm.repl.allocBuf()
	if err != nil {
		return nil, pageErr("read", file, pageNo, InvalidFrame, err)
	}

	p, err := file.ReadPage(pageNo)
	if err != nil {
		// frame stays cleared, nothing was mapped
		return nil, pageErr("read", file, pageNo, frame, err)
	}
	bm.frames[frame].CopyFrom(p)
	bm.stats.DiskReads++

	if err := bm.install(file, pageNo, frame); err != nil {
		return nil, pageErr("read", file, pageNo, frame, err)
	}
	bm.repl.onRead()
	bm.stats.Misses++
	return &bm.frames[frame], nil
}

// AllocPage allocates a new page in file, installs it pinned and returns its
// number and frame.
func (bm *BufMgr) AllocPage(file storage.File) (storage.PageID, *storage.Page, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return storage.InvalidPageID, nil, ErrPoolClosed
	}

	frame, err := bm.repl.allocBuf()
	if err != nil {
		return storage.InvalidPageID, nil, pageErr("alloc", file, storage.InvalidPageID, InvalidFrame, err)
	}

	p, err := file.AllocatePage()
	if err != nil {
		return storage.InvalidPageID, nil, pageErr("alloc", file, storage.InvalidPageID, frame, err)
	}
	bm.frames[frame].CopyFrom(p)
	pageNo := bm.frames[frame].PageNumber()

	if err := bm.install(file, pageNo, frame); err != nil {
		return storage.InvalidPageID, nil, pageErr("alloc", file, pageNo, frame, err)
	}
	bm.stats.Allocs++
	return pageNo, &bm.frames[frame], nil
}

// UnPinPage drops one pin on (file, pageNo). dirty=true marks the frame
// dirty; dirty=false never clears an earlier mark.
func (bm *BufMgr) UnPinPage(file storage.File, pageNo storage.PageID, dirty bool) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return ErrPoolClosed
	}

	idx, ok := bm.table.Lookup(keyOf(file, pageNo))
	if !ok {
		return pageErr("unpin", file, pageNo, InvalidFrame, ErrHashNotFound)
	}
	frame := FrameID(idx)
	d := &bm.descs[frame]
	if d.pinCnt == 0 {
		return pageErr("unpin", file, pageNo, frame, ErrPageNotPinned)
	}

	d.pinCnt--
	if dirty {
		d.dirty = true
	}
	return nil
}

// FlushFile writes back and drops every cached page of file, scanning frames
// in index order. It stops at the first pinned page with ErrPagePinned;
// frames handled before that stay flushed.
func (bm *BufMgr) FlushFile(file storage.File) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return ErrPoolClosed
	}

	for i := range bm.descs {
		frame := FrameID(i)
		d := &bm.descs[i]
		if !d.belongsTo(file) {
			continue
		}
		if d.pinCnt > 0 {
			return pageErr("flush", file, d.pageNo, frame, ErrPagePinned)
		}
		if !d.valid {
			return &BadBufferError{Frame: frame, Dirty: d.dirty, Valid: d.valid, Refbit: d.refbit}
		}
		if d.dirty {
			if err := bm.writeBack(frame); err != nil {
				return err
			}
		}
		if err := bm.dropMapping(frame); err != nil {
			return err
		}
		d.clear()
	}
	bm.log.Debug("bufferpool: flushed file", "file", file.Filename())
	return nil
}

// DisposePage drops (file, pageNo) from the pool if cached and deletes it
// from file. A page that was never cached is not an error.
func (bm *BufMgr) DisposePage(file storage.File, pageNo storage.PageID) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return ErrPoolClosed
	}

	if idx, ok := bm.table.Lookup(keyOf(file, pageNo)); ok {
		frame := FrameID(idx)
		if err := bm.dropMapping(frame); err != nil {
			return err
		}
		bm.descs[frame].clear()
	}

	if err := file.DeletePage(pageNo); err != nil {
		return pageErr("dispose", file, pageNo, InvalidFrame, err)
	}
	bm.stats.Disposes++
	return nil
}

// Close writes back every valid dirty frame, pinned or not, and frees the
// pool. Write failures are collected and returned together; the remaining
// frames are still written. Close is idempotent.
func (bm *BufMgr) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}

	var errs error
	for i := range bm.descs {
		d := &bm.descs[i]
		if !d.valid || !d.dirty {
			continue
		}
		if err := bm.writeBack(FrameID(i)); err != nil {
			bm.log.Warn("bufferpool: write-back on close failed",
				"frame", i, "file", d.file.Filename(), "page", d.pageNo, "err", err)
			errs = multierr.Append(errs, err)
		}
	}

	for i := range bm.descs {
		bm.descs[i].clear()
	}
	bm.table.Reset()
	bm.frames = nil
	bm.arena = nil
	bm.closed = true
	return errs
}

// PrintSelf dumps every descriptor and the number of valid frames.
func (bm *BufMgr) PrintSelf(w io.Writer) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	valid := 0
	for i := range bm.descs {
		fmt.Fprintf(w, "FrameNo:%d %s\n", i, bm.descs[i].String())
		if bm.descs[i].valid {
			valid++
		}
	}
	fmt.Fprintf(w, "Total Number of Valid Frames:%d\n", valid)
}

// ---- internal helpers; callers hold bm.mu ----

// install maps (file, pageNo) to frame and marks the descriptor resident.
func (bm *BufMgr) install(file storage.File, pageNo storage.PageID, frame FrameID) error {
	if err := bm.table.Insert(keyOf(file, pageNo), int(frame)); err != nil {
		return err
	}
	bm.descs[frame].set(file, pageNo)
	return nil
}

// writeBack persists a dirty frame and clears its dirty flag on success.
func (bm *BufMgr) writeBack(frame FrameID) error {
	d := &bm.descs[frame]
	if err := d.file.WritePage(&bm.frames[frame]); err != nil {
		return pageErr("write-back", d.file, d.pageNo, frame, err)
	}
	d.dirty = false
	bm.stats.WriteBacks++
	bm.log.Debug("bufferpool: wrote back frame",
		"frame", int(frame), "file", d.file.Filename(), "page", d.pageNo)
	return nil
}

// evict removes a resident victim's lookup entry. The replacer clears the
// descriptor afterwards.
func (bm *BufMgr) evict(frame FrameID) error {
	d := &bm.descs[frame]
	if err := bm.dropMapping(frame); err != nil {
		return err
	}
	bm.stats.Evictions++
	bm.log.Debug("bufferpool: evicted frame",
		"frame", int(frame), "file", d.file.Filename(), "page", d.pageNo, "policy", bm.policy.String())
	return nil
}

func (bm *BufMgr) dropMapping(frame FrameID) error {
	d := &bm.descs[frame]
	if err := bm.table.Remove(d.key()); err != nil {
		return fmt.Errorf("bufferpool: frame %d: %w", frame, err)
	}
	return nil
}
