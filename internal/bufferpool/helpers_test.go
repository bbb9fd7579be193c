package bufferpool

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novabuf/internal/bufhash"
	"github.com/tuannm99/novabuf/internal/storage"
)

// recordingFile counts every call the pool makes on a File and can inject failures.
type recordingFile struct {
	storage.File

	reads   map[storage.PageID]int
	writes  map[storage.PageID]int
	allocs  int
	deletes []storage.PageID

	readErr  error
	writeErr error
	allocErr error
}

// newRecordingFile creates an in-memory paged file holding pages 1..pages.
// Page i carries "page i" at the start of its data area.
func newRecordingFile(t *testing.T, name string, pages int) *recordingFile {
	t.Helper()

	pf, err := storage.Create(afero.NewMemMapFs(), "/data", name)
	require.NoError(t, err)

	for i := 1; i <= pages; i++ {
		p, err := pf.AllocatePage()
		require.NoError(t, err)
		copy(p.Data(), fmt.Sprintf("page %d", i))
		require.NoError(t, pf.WritePage(p))
	}

	return &recordingFile{
		File:   pf,
		reads:  map[storage.PageID]int{},
		writes: map[storage.PageID]int{},
	}
}

func (f *recordingFile) ReadPage(pageID storage.PageID) (*storage.Page, error) {
	f.reads[pageID]++
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.File.ReadPage(pageID)
}

func (f *recordingFile) WritePage(p *storage.Page) error {
	f.writes[p.PageNumber()]++
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.File.WritePage(p)
}

func (f *recordingFile) AllocatePage() (*storage.Page, error) {
	f.allocs++
	if f.allocErr != nil {
		return nil, f.allocErr
	}
	return f.File.AllocatePage()
}

func (f *recordingFile) DeletePage(pageID storage.PageID) error {
	f.deletes = append(f.deletes, pageID)
	return f.File.DeletePage(pageID)
}

func (f *recordingFile) totalReads() int {
	n := 0
	for _, c := range f.reads {
		n += c
	}
	return n
}

func (f *recordingFile) totalWrites() int {
	n := 0
	for _, c := range f.writes {
		n += c
	}
	return n
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPool(t *testing.T, size int, policy Policy) *BufMgr {
	t.Helper()

	bm, err := New(size, WithPolicy(policy), WithLogger(quietLogger()))
	require.NoError(t, err)
	return bm
}

var policies = []Policy{PolicyClock, PolicyLRU}

// checkInvariants asserts the descriptor/table/frame invariants that must hold
// between public operations.
func checkInvariants(t *testing.T, bm *BufMgr) {
	t.Helper()

	valid := 0
	for i := range bm.descs {
		d := &bm.descs[i]
		require.Equal(t, FrameID(i), d.frameNo, "frame %d identity", i)
		require.GreaterOrEqual(t, d.pinCnt, 0, "frame %d pin count", i)
		if d.pinCnt > 0 {
			require.True(t, d.valid, "pinned frame %d must be valid", i)
		}
		if d.dirty {
			require.True(t, d.valid, "dirty frame %d must be valid", i)
		}
		if !d.valid {
			continue
		}

		valid++
		idx, ok := bm.table.Lookup(d.key())
		require.True(t, ok, "valid frame %d must be mapped", i)
		require.Equal(t, i, idx, "frame %d maps back to itself", i)
		require.Equal(t, d.pageNo, bm.frames[i].PageNumber(), "frame %d holds its page", i)
	}

	require.Equal(t, valid, bm.table.Len(), "one table entry per valid frame")
	bm.table.Range(func(k bufhash.Key, frame int) bool {
		d := &bm.descs[frame]
		require.True(t, d.valid, "table entry %s points at invalid frame %d", k, frame)
		require.Equal(t, k, d.key(), "table entry %s matches frame %d", k, frame)
		return true
	})
}

// frameOf returns the frame caching (file, pageNo), failing the test if absent.
func frameOf(t *testing.T, bm *BufMgr, file storage.File, pageNo storage.PageID) FrameID {
	t.Helper()
	idx, ok := bm.table.Lookup(keyOf(file, pageNo))
	require.True(t, ok, "page %d should be resident", pageNo)
	return FrameID(idx)
}

func isResident(bm *BufMgr, file storage.File, pageNo storage.PageID) bool {
	_, ok := bm.table.Lookup(keyOf(file, pageNo))
	return ok
}

// readAndUnpin loads pageNos in order and unpins each one clean.
func readAndUnpin(t *testing.T, bm *BufMgr, file storage.File, pageNos ...storage.PageID) {
	t.Helper()
	for _, id := range pageNos {
		_, err := bm.ReadPage(file, id)
		require.NoError(t, err)
		require.NoError(t, bm.UnPinPage(file, id, false))
	}
}
