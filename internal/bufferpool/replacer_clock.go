package bufferpool

import "github.com/tuannm99/novabuf/pkg/clockx"

type clockReplacer struct {
	bm   *BufMgr
	hand *clockx.Hand
}

var _ Replacer = (*clockReplacer)(nil)

// allocBuf sweeps at most two revolutions. A free frame is taken at once;
// a referenced frame loses its bit; a pinned frame is skipped; the first
// unreferenced, unpinned frame is written back if dirty and evicted.
func (r *clockReplacer) allocBuf() (FrameID, error) {
	bm := r.bm
	victim := InvalidFrame

	for n, limit := 0, r.hand.SweepLimit(); n < limit; n++ {
		frame := FrameID(r.hand.Advance())
		d := &bm.descs[frame]

		if !d.valid {
			victim = frame
			break
		}
		if d.refbit {
			d.refbit = false
			continue
		}
		if d.pinCnt > 0 {
			continue
		}

		if d.dirty {
			if err := bm.writeBack(frame); err != nil {
				return InvalidFrame, err
			}
		}
		if err := bm.evict(frame); err != nil {
			return InvalidFrame, err
		}
		victim = frame
		break
	}

	if victim == InvalidFrame {
		return InvalidFrame, bufferExceeded(bm)
	}
	bm.descs[victim].clear()
	return victim, nil
}

// onHit deliberately leaves the reference bit alone.
func (r *clockReplacer) onHit(FrameID) {}

func (r *clockReplacer) onRead() {}
