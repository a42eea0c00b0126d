package ecs

// EntityID is a stable handle: a 32-bit slot index in the lower bits and a
// 32-bit generation in the upper bits. Retiring a slot bumps its generation,
// so handles held past removal stop resolving instead of aliasing a newcomer.
type EntityID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

// EntityPool hands out generational handles and recycles retired slots.
// Slot 0 generation 0 is reserved so the zero EntityID never names a live entity.
// Not safe for concurrent use; the owning registry serializes access.
type EntityPool struct {
	generations []uint32
	freeList    []uint32
	live        int
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		generations: []uint32{1}, // burn the zero handle
		freeList:    make([]uint32, 0, 64),
	}
}

// Create returns a fresh handle, reusing a retired slot when one is free.
func (p *EntityPool) Create() EntityID {
	p.live++
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return NewEntityID(idx, p.generations[idx])
	}
	idx := uint32(len(p.generations))
	p.generations = append(p.generations, 0)
	return NewEntityID(idx, 0)
}

// Alive reports whether id still names the current occupant of its slot.
func (p *EntityPool) Alive(id EntityID) bool {
	idx := id.Index()
	if int(idx) >= len(p.generations) {
		return false
	}
	return p.generations[idx] == id.Generation()
}

// Destroy retires id. Stale or unknown handles are ignored.
func (p *EntityPool) Destroy(id EntityID) bool {
	if id.IsZero() || !p.Alive(id) {
		return false
	}
	idx := id.Index()
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
	p.live--
	return true
}

// Live returns the number of handles created and not yet destroyed.
func (p *EntityPool) Live() int { return p.live }
