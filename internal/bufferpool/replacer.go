package bufferpool

import (
	"fmt"

	"github.com/tuannm99/novabuf/pkg/clockx"
)

// Policy selects the replacement engine of a BufMgr.
type Policy int

const (
	// PolicyClock is plain CLOCK. A read hit does not set the reference
	// bit; only installing a page does, so a resident page gets one sweep
	// of reprieve after it is loaded and behaves FIFO-like afterwards.
	PolicyClock Policy = iota + 1
	// PolicyLRU approximates LRU on top of the clock sweep: hits set the
	// reference bit, every read ages all resident frames, and among the
	// unpinned, unreferenced frames the oldest one is evicted.
	PolicyLRU
)

func (p Policy) String() string {
	switch p {
	case PolicyClock:
		return "clock"
	case PolicyLRU:
		return "lru"
	default:
		return "unknown"
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "clock":
		return PolicyClock, nil
	case "lru":
		return PolicyLRU, nil
	default:
		return 0, fmt.Errorf("bufferpool: unknown replacement policy %q", s)
	}
}

// Replacer picks victim frames. It works directly on the pool's descriptor
// table, lookup table and frames, so it is bound to one BufMgr.
type Replacer interface {
	// allocBuf returns a frame whose descriptor is cleared and whose old
	// lookup entry, if any, is gone. A dirty victim is written back first.
	allocBuf() (FrameID, error)
	// onHit runs when ReadPage finds the page already resident.
	onHit(frame FrameID)
	// onRead runs once at the end of every successful ReadPage.
	onRead()
}

func newReplacer(policy Policy, bm *BufMgr) (Replacer, error) {
	hand := clockx.New(bm.numBufs)
	switch policy {
	case PolicyClock:
		return &clockReplacer{bm: bm, hand: hand}, nil
	case PolicyLRU:
		return &lruReplacer{bm: bm, hand: hand}, nil
	default:
		return nil, fmt.Errorf("bufferpool: unsupported replacement policy %d", policy)
	}
}

func bufferExceeded(bm *BufMgr) error {
	return fmt.Errorf("%w: %d frames, policy %s", ErrBufferExceeded, bm.numBufs, bm.policy)
}
