package bufferpool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novabuf/internal/storage"
)

func counters(bm *BufMgr) []int {
	out := make([]int, len(bm.descs))
	for i := range bm.descs {
		out[i] = bm.descs[i].counter
	}
	return out
}

func TestLRUReplacer_LowestFreeFrameFirst(t *testing.T) {
	bm := newTestPool(t, 3, PolicyLRU)
	f := newRecordingFile(t, "F", 5)

	readAndUnpin(t, bm, f, 1, 2, 3)
	require.Equal(t, FrameID(0), frameOf(t, bm, f, 1))
	require.Equal(t, FrameID(1), frameOf(t, bm, f, 2))
	require.Equal(t, FrameID(2), frameOf(t, bm, f, 3))

	// filling free frames never moves the hand
	require.Equal(t, 2, bm.repl.(*lruReplacer).hand.Pos())

	require.NoError(t, bm.DisposePage(f, 1))
	_, err := bm.ReadPage(f, 4)
	require.NoError(t, err)
	require.Equal(t, FrameID(0), frameOf(t, bm, f, 4))
	require.Zero(t, bm.Stats().Evictions)
	checkInvariants(t, bm)
}

func TestLRUReplacer_ReadsAgeResidentFrames(t *testing.T) {
	bm := newTestPool(t, 3, PolicyLRU)
	f := newRecordingFile(t, "F", 5)

	readAndUnpin(t, bm, f, 1, 2, 3)
	require.Equal(t, []int{3, 2, 1}, counters(bm))

	_, err := bm.ReadPage(f, 1)
	require.NoError(t, err)
	require.Equal(t, []int{4, 3, 2}, counters(bm))
	require.True(t, bm.descs[0].refbit)

	require.NoError(t, bm.UnPinPage(f, 1, false))

	// allocation installs at counter zero and does not age the others
	require.NoError(t, bm.DisposePage(f, 3))
	pageNo, _, err := bm.AllocPage(f)
	require.NoError(t, err)
	require.Equal(t, FrameID(2), frameOf(t, bm, f, pageNo))
	require.Equal(t, []int{4, 3, 0}, counters(bm))
	checkInvariants(t, bm)
}

func TestLRUReplacer_EvictsStalestCandidate(t *testing.T) {
	bm := newTestPool(t, 3, PolicyLRU)
	f := newRecordingFile(t, "F", 5)
	readAndUnpin(t, bm, f, 1, 2, 3)

	_, err := bm.ReadPage(f, 4)
	require.NoError(t, err)

	// first revolution clears bits, second finds page 1 with the highest counter
	require.Equal(t, FrameID(0), frameOf(t, bm, f, 4))
	require.False(t, isResident(bm, f, 1))
	require.Equal(t, []int{1, 3, 2}, counters(bm))
	require.Equal(t, 2, bm.repl.(*lruReplacer).hand.Pos())
	require.True(t, bm.descs[0].refbit)
	require.False(t, bm.descs[1].refbit)
	require.False(t, bm.descs[2].refbit)
	checkInvariants(t, bm)
}

func TestLRUReplacer_HitProtectsPage(t *testing.T) {
	bm := newTestPool(t, 3, PolicyLRU)
	f := newRecordingFile(t, "F", 5)
	readAndUnpin(t, bm, f, 1, 2, 3, 4)

	// unlike plain CLOCK, the hit on page 2 buys it another sweep
	readAndUnpin(t, bm, f, 2)
	require.True(t, bm.descs[1].refbit)

	_, err := bm.ReadPage(f, 5)
	require.NoError(t, err)
	require.True(t, isResident(bm, f, 2))
	require.False(t, isResident(bm, f, 3))
	require.Equal(t, FrameID(2), frameOf(t, bm, f, 5))
	checkInvariants(t, bm)
}

func TestLRUReplacer_PicksHighestCounterNotFirstSeen(t *testing.T) {
	bm := newTestPool(t, 3, PolicyLRU)
	f := newRecordingFile(t, "F", 5)
	readAndUnpin(t, bm, f, 1, 2, 3)

	for i := range bm.descs {
		bm.descs[i].refbit = false
	}
	bm.descs[0].counter = 1
	bm.descs[1].counter = 5
	bm.descs[2].counter = 2

	_, err := bm.ReadPage(f, 4)
	require.NoError(t, err)
	require.Equal(t, FrameID(1), frameOf(t, bm, f, 4))
	require.False(t, isResident(bm, f, 2))
	require.True(t, isResident(bm, f, 1))
	require.True(t, isResident(bm, f, 3))
}

func TestLRUReplacer_TiesGoToFirstSeen(t *testing.T) {
	bm := newTestPool(t, 3, PolicyLRU)
	f := newRecordingFile(t, "F", 5)
	readAndUnpin(t, bm, f, 1, 2, 3)

	for i := range bm.descs {
		bm.descs[i].refbit = false
		bm.descs[i].counter = 7
	}

	_, err := bm.ReadPage(f, 4)
	require.NoError(t, err)
	require.Equal(t, FrameID(0), frameOf(t, bm, f, 4))
}

func TestLRUReplacer_WritesBackOnlyTheVictim(t *testing.T) {
	bm := newTestPool(t, 3, PolicyLRU)
	f := newRecordingFile(t, "F", 5)

	for id := storage.PageID(1); id <= 3; id++ {
		_, err := bm.ReadPage(f, id)
		require.NoError(t, err)
		require.NoError(t, bm.UnPinPage(f, id, true))
	}

	_, err := bm.ReadPage(f, 4)
	require.NoError(t, err)

	// page 1 has the highest counter; pages 2 and 3 were candidates but stay dirty
	require.False(t, isResident(bm, f, 1))
	require.Equal(t, map[storage.PageID]int{1: 1}, f.writes)
	require.True(t, bm.descs[frameOf(t, bm, f, 2)].dirty)
	require.True(t, bm.descs[frameOf(t, bm, f, 3)].dirty)
	require.Equal(t, uint64(1), bm.Stats().WriteBacks)
	checkInvariants(t, bm)
}

func TestLRUReplacer_CleanVictimSkipsWriteBack(t *testing.T) {
	bm := newTestPool(t, 3, PolicyLRU)
	f := newRecordingFile(t, "F", 5)

	for id := 1; id <= 3; id++ {
		_, err := bm.ReadPage(f, storage.PageID(id))
		require.NoError(t, err)
		require.NoError(t, bm.UnPinPage(f, storage.PageID(id), id != 2))
	}
	for i := range bm.descs {
		bm.descs[i].refbit = false
	}
	bm.descs[0].counter = 1
	bm.descs[1].counter = 5
	bm.descs[2].counter = 2

	_, err := bm.ReadPage(f, 4)
	require.NoError(t, err)

	require.False(t, isResident(bm, f, 2))
	require.Zero(t, f.totalWrites())
	require.True(t, bm.descs[frameOf(t, bm, f, 1)].dirty)
	require.True(t, bm.descs[frameOf(t, bm, f, 3)].dirty)
	checkInvariants(t, bm)
}

func TestLRUReplacer_SweepsPastPinnedRevolution(t *testing.T) {
	bm := newTestPool(t, 3, PolicyLRU)
	f := newRecordingFile(t, "F", 5)

	_, err := bm.ReadPage(f, 1)
	require.NoError(t, err)
	_, err = bm.ReadPage(f, 2)
	require.NoError(t, err)
	readAndUnpin(t, bm, f, 3)

	_, err = bm.ReadPage(f, 4)
	require.NoError(t, err)
	require.Equal(t, FrameID(2), frameOf(t, bm, f, 4))
	require.True(t, isResident(bm, f, 1))
	require.True(t, isResident(bm, f, 2))
	checkInvariants(t, bm)
}
