package bufferpool

import "github.com/tuannm99/novabuf/pkg/clockx"

type lruReplacer struct {
	bm   *BufMgr
	hand *clockx.Hand
}

var _ Replacer = (*lruReplacer)(nil)

// allocBuf hands out the lowest free frame while the pool has one. Once the
// pool is full it sweeps the clock: referenced frames lose their bit, pinned
// frames are skipped, and every unreferenced unpinned frame is a candidate.
// The sweep stops at the end of the first revolution that saw a candidate,
// or after two revolutions; the candidate with the highest counter is
// evicted, ties going to the first one seen. Only the victim is written back.
func (r *lruReplacer) allocBuf() (FrameID, error) {
	bm := r.bm

	filled := 0
	for i := range bm.descs {
		if bm.descs[i].valid {
			filled++
		}
	}
	if filled < bm.numBufs {
		for i := range bm.descs {
			if !bm.descs[i].valid {
				bm.descs[i].clear()
				return FrameID(i), nil
			}
		}
	}

	victim, best := InvalidFrame, -1
	for step, limit := 0, r.hand.SweepLimit(); step < limit; step++ {
		frame := FrameID(r.hand.Advance())
		d := &bm.descs[frame]

		switch {
		case !d.valid:
		case d.refbit:
			d.refbit = false
		case d.pinCnt > 0:
		default:
			if d.counter > best {
				best = d.counter
				victim = frame
			}
		}

		if victim != InvalidFrame && r.hand.EndOfRevolution(step) {
			break
		}
	}

	if victim == InvalidFrame {
		return InvalidFrame, bufferExceeded(bm)
	}
	if bm.descs[victim].dirty {
		if err := bm.writeBack(victim); err != nil {
			return InvalidFrame, err
		}
	}
	if err := bm.evict(victim); err != nil {
		return InvalidFrame, err
	}
	bm.descs[victim].clear()
	return victim, nil
}

func (r *lruReplacer) onHit(frame FrameID) {
	r.bm.descs[frame].refbit = true
}

// onRead ages every resident frame by one step.
func (r *lruReplacer) onRead() {
	for i := range r.bm.descs {
		if r.bm.descs[i].valid {
			r.bm.descs[i].counter++
		}
	}
}
