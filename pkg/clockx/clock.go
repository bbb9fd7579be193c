package clockx

// Hand is the rotating cursor of a CLOCK sweep over slot IDs [0..capacity).
// A fresh hand rests on the last slot, so the first Advance lands on slot 0.
type Hand struct {
	pos      int
	capacity int
}

func New(capacity int) *Hand {
	if capacity <= 0 {
		capacity = 1
	}
	return &Hand{
		pos:      capacity - 1,
		capacity: capacity,
	}
}

func (h *Hand) Capacity() int { return h.capacity }

// Pos returns the slot the hand currently points at.
func (h *Hand) Pos() int { return h.pos }

// Advance moves the hand one slot forward (wrapping) and returns the new slot.
func (h *Hand) Advance() int {
	h.pos = (h.pos + 1) % h.capacity
	return h.pos
}

// SweepLimit is the step budget of one victim search: two full revolutions.
// The first revolution may only clear reference bits; the second must find
// an unpinned slot if one exists.
func (h *Hand) SweepLimit() int { return 2 * h.capacity }

// EndOfRevolution reports whether step (0-based, counted from the start of a
// sweep) is the last step of a full revolution.
func (h *Hand) EndOfRevolution(step int) bool {
	return (step+1)%h.capacity == 0
}

// Reset puts the hand back to its initial position.
func (h *Hand) Reset() { h.pos = h.capacity - 1 }
