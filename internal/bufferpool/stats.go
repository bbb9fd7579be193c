package bufferpool

import "fmt"

// Stats counts pool activity since construction.
type Stats struct {
	Hits       uint64 // ReadPage served from a resident frame
	Misses     uint64 // ReadPage that loaded the page
	DiskReads  uint64
	WriteBacks uint64
	Evictions  uint64 // resident pages pushed out by the replacer
	Allocs     uint64
	Disposes   uint64
}

func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (s Stats) String() string {
	return fmt.Sprintf("hits=%d misses=%d hit_ratio=%.2f disk_reads=%d write_backs=%d evictions=%d allocs=%d disposes=%d",
		s.Hits, s.Misses, s.HitRatio(), s.DiskReads, s.WriteBacks, s.Evictions, s.Allocs, s.Disposes)
}

// Stats returns a snapshot of the counters.
func (bm *BufMgr) Stats() Stats {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.stats
}
