package draw

// Handle indexes a slot in a Pool.
type Handle uint32

const poolChunk = 64

// Pool is an arena of reusable T values addressed by Handle. Slots are
// allocated in fixed-size chunks, so pointers returned by Obtain stay valid
// while the pool grows. Obtain pops a free slot; Recycle resets the slot
// and pushes it back.
//
// After warmup a steady frame allocates nothing:
//
//	var pool draw.Pool[DrawableShape, *DrawableShape]
//	pool.Warmup(256)
//	h, d := pool.Obtain()
//	// use d...
//	pool.Recycle(h)
//
// Pool is not safe for concurrent use.
type Pool[T any, PT interface {
	*T
	Reset()
}] struct {
	chunks [][]T
	inUse  []bool
	free   []Handle
}

// Obtain returns a free slot, growing the pool when none is left.
func (p *Pool[T, PT]) Obtain() (Handle, PT) {
	var h Handle
	if n := len(p.free); n > 0 {
		h = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		h = p.grow()
	}
	p.inUse[h] = true
	return h, p.At(h)
}

// At returns the value in slot h.
func (p *Pool[T, PT]) At(h Handle) PT {
	return PT(&p.chunks[h/poolChunk][h%poolChunk])
}

// Recycle resets slot h and returns it to the free list. Recycling a free
// slot does nothing.
func (p *Pool[T, PT]) Recycle(h Handle) {
	if int(h) >= len(p.inUse) || !p.inUse[h] {
		return
	}
	p.At(h).Reset()
	p.inUse[h] = false
	p.free = append(p.free, h)
}

// Warmup grows the pool until at least n slots exist.
func (p *Pool[T, PT]) Warmup(n int) {
	for len(p.inUse) < n {
		p.free = append(p.free, p.grow())
	}
}

// Len returns the number of slots in use.
func (p *Pool[T, PT]) Len() int { return len(p.inUse) - len(p.free) }

// Free returns the number of free slots.
func (p *Pool[T, PT]) Free() int { return len(p.free) }

// Cap returns the number of allocated slots.
func (p *Pool[T, PT]) Cap() int { return len(p.inUse) }

func (p *Pool[T, PT]) grow() Handle {
	h := Handle(len(p.inUse))
	if int(h) == len(p.chunks)*poolChunk {
		p.chunks = append(p.chunks, make([]T, poolChunk))
	}
	p.inUse = append(p.inUse, false)
	return h
}
