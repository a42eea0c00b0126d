package ecs

// World owns the handle pool and the store registry. Removal never happens
// mid-iteration: callers stage handles on a DestroyQueue and Flush them at a
// sync point where no scan is in progress.
// Not safe for concurrent use; the caller provides locking.
type World struct {
	pool     *EntityPool
	registry *Registry
}

func NewWorld() *World {
	return &World{
		pool:     NewEntityPool(),
		registry: NewRegistry(),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// Flush removes every handle staged on q from all stores, retires the
// handles and resets q. A clean queue is left untouched.
// Returns the number of handles retired.
func (w *World) Flush(q *DestroyQueue) int {
	if !q.dirty {
		return 0
	}
	n := 0
	for _, id := range q.ids {
		w.registry.RemoveAll(id)
		if w.pool.Destroy(id) {
			n++
		}
	}
	q.reset()
	return n
}

// DestroyQueue is a pending-removal set with a dirty flag.
// Each handle is staged at most once until the next flush.
type DestroyQueue struct {
	ids    []EntityID
	queued map[EntityID]struct{}
	dirty  bool
}

func NewDestroyQueue() *DestroyQueue {
	return &DestroyQueue{
		ids:    make([]EntityID, 0, 32),
		queued: make(map[EntityID]struct{}, 32),
	}
}

// Push stages id. Returns false if it is already staged.
func (q *DestroyQueue) Push(id EntityID) bool {
	if _, ok := q.queued[id]; ok {
		return false
	}
	q.queued[id] = struct{}{}
	q.ids = append(q.ids, id)
	q.dirty = true
	return true
}

func (q *DestroyQueue) Contains(id EntityID) bool {
	_, ok := q.queued[id]
	return ok
}

func (q *DestroyQueue) Dirty() bool { return q.dirty }
func (q *DestroyQueue) Len() int    { return len(q.ids) }

func (q *DestroyQueue) reset() {
	q.ids = q.ids[:0]
	clear(q.queued)
	q.dirty = false
}
