package clockx

// Clock is the hand of a CLOCK (second-chance) sweep over a fixed number of
// slots [0..capacity). It owns no per-slot state: the caller decides at each
// step whether the slot under the hand is taken, and may mutate its own
// per-slot state (ref bits) while deciding.
type Clock struct {
	hand int
	n    int
}

// New returns a clock whose first Advance lands on slot 0.
func New(capacity int) *Clock {
	if capacity <= 0 {
		capacity = 1
	}
	return &Clock{hand: capacity - 1, n: capacity}
}

func (c *Clock) Capacity() int { return c.n }

// Hand returns the slot the hand currently points at.
func (c *Clock) Hand() int { return c.hand }

// Advance moves the hand one slot forward and returns it.
func (c *Clock) Advance() int {
	c.hand = (c.hand + 1) % c.n
	return c.hand
}

// Sweep advances the hand and calls take on each slot until take returns
// true. It gives up after 2*capacity steps: the first pass may only clear
// ref bits, the second must then find any slot that is not held.
func (c *Clock) Sweep(take func(slot int) bool) (slot int, ok bool) {
	for i := 0; i < 2*c.n; i++ {
		idx := c.Advance()
		if take(idx) {
			return idx, true
		}
	}
	return -1, false
}
