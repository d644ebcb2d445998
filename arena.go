package greenthread

// arena owns every live thread record, in stable slots. A slot is recycled
// only after the scheduler loop reclaims the record occupying it.
type arena struct {
	slots []*thread
	free  []int
	live  int
	limit int // max live records, 0 for unlimited
}

// alloc places t in a slot, failing if the limit is reached.
func (x *arena) alloc(t *thread) bool {
	if x.limit > 0 && x.live >= x.limit {
		return false
	}
	if n := len(x.free); n != 0 {
		t.slot = x.free[n-1]
		x.free = x.free[:n-1]
		x.slots[t.slot] = t
	} else {
		t.slot = len(x.slots)
		x.slots = append(x.slots, t)
	}
	x.live++
	return true
}

func (x *arena) release(t *thread) {
	if t.slot < 0 || t.slot >= len(x.slots) || x.slots[t.slot] != t {
		panic(`greenthread: release of unknown thread record`)
	}
	x.slots[t.slot] = nil
	x.free = append(x.free, t.slot)
	t.slot = -1
	x.live--
}

func (x *arena) each(fn func(t *thread)) {
	for _, t := range x.slots {
		if t != nil {
			fn(t)
		}
	}
}
