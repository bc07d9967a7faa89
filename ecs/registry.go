package ecs

import (
	"reflect"

	"github.com/pnkrengine/core/internal/bitvec"
)

// anySet is the type-erased view of a sparseSet that Registry needs
// in order to manage component pools it doesn't know the element
// type of, mirroring ISparseSet from the pool this module is
// distilled from.
type anySet interface {
	remove(Entity) bool
	has(Entity) bool
	clear()
	size() int
	entities() []Entity
}

// Registry owns every component pool and the entity id space. It is
// not safe for concurrent use; callers that mutate it from more than
// one goroutine must serialize access themselves (the render thread
// owns the Registry in this engine's threading model, and other
// threads funnel mutations through a CommandBuffer instead).
type Registry struct {
	pools map[reflect.Type]anySet
	next  Entity
	free  []Entity // LIFO free list, most recently freed reused first
	alive bitvec.V[uint64] // bit i set while entity id i is live
}

// NewRegistry returns an empty Registry ready for use.
func NewRegistry() *Registry {
	return &Registry{
		pools: make(map[reflect.Type]anySet),
		next:  firstEntity,
	}
}

// Create allocates a new Entity, preferring the most recently freed
// id over minting a new one.
func (r *Registry) Create() Entity {
	var e Entity
	if n := len(r.free); n > 0 {
		e = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		e = r.next
		r.next++
	}
	r.growAliveFor(e)
	r.alive.Set(int(e))
	return e
}

// growAliveFor extends the alive bit vector, if needed, so that id
// fits within it.
func (r *Registry) growAliveFor(id Entity) {
	for int(id) >= r.alive.Len() {
		r.alive.Grow(1)
	}
}

// Alive reports whether e was created and has not since been
// destroyed.
func (r *Registry) Alive(e Entity) bool {
	if e == NilEntity || int(e) >= r.alive.Len() {
		return false
	}
	return r.alive.IsSet(int(e))
}

// Destroy removes e from every component pool and recycles its id.
// Destroying an already-dead or nil entity is a no-op.
func (r *Registry) Destroy(e Entity) {
	if e == NilEntity || !r.Alive(e) {
		return
	}
	for _, p := range r.pools {
		p.remove(e)
	}
	r.alive.Unset(int(e))
	r.free = append(r.free, e)
}

// poolFor returns the pool for component type T, creating it on
// first use.
func poolFor[T any](r *Registry) *sparseSet[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if p, ok := r.pools[t]; ok {
		return p.(*sparseSet[T])
	}
	p := newSparseSet[T]()
	r.pools[t] = p
	return p
}

// Emplace attaches (or overwrites) a component of type T to e,
// returning a pointer into the pool's dense array. The pointer is
// invalidated by any subsequent Emplace/Remove of the same type that
// triggers a swap-remove or growth, so callers must not retain it
// across such calls.
func Emplace[T any](r *Registry, e Entity, v T) *T {
	return poolFor[T](r).emplace(e, v)
}

// Get returns a pointer to e's component of type T, or nil if e has
// none. The same retention caveat as Emplace applies.
func Get[T any](r *Registry, e Entity) *T {
	return poolFor[T](r).get(e)
}

// Has reports whether e has a component of type T.
func Has[T any](r *Registry, e Entity) bool {
	return poolFor[T](r).has(e)
}

// Remove detaches e's component of type T, if any, reporting whether
// one was present.
func Remove[T any](r *Registry, e Entity) bool {
	return poolFor[T](r).remove(e)
}

// Count returns the number of entities holding a component of type T.
func Count[T any](r *Registry) int {
	return poolFor[T](r).size()
}

// Entities returns the entities holding a component of type T, in
// the pool's internal (not creation) order. The returned slice
// aliases pool storage and is invalidated by a subsequent mutation
// of that pool.
func Entities[T any](r *Registry) []Entity {
	return poolFor[T](r).entities()
}

// Clear removes every component of type T from every entity that
// has one, without destroying the entities themselves.
func Clear[T any](r *Registry) {
	poolFor[T](r).clear()
}

// Clear empties every component pool, drops every live entity and
// resets the id counter and free list, leaving r equivalent to a
// freshly constructed Registry. Any Entity handles callers still hold
// are no longer valid afterward.
func (r *Registry) Clear() {
	for _, p := range r.pools {
		p.clear()
	}
	r.next = firstEntity
	r.free = nil
	r.alive = bitvec.V[uint64]{}
}
