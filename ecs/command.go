package ecs

// CommandBuffer defers entity creation, destruction and component
// writes so that code running outside the render thread - a batcher
// callback reacting to a finished texture upload, for instance - can
// queue registry mutations without racing the thread that is
// currently iterating a View over the same Registry.
//
// A CommandBuffer is not safe for concurrent use by multiple
// goroutines; give each producer its own buffer and merge them
// with Execute on the registry-owning thread.
type CommandBuffer struct {
	creates  []createCmd
	destroys []Entity
	writes   []func(*Registry)
}

type createCmd struct {
	token    Entity // placeholder handed back to the caller
	resolved Entity // filled in by Execute
}

// placeholder entities are negative-indexed tokens (encoded by
// setting the top bit) so CreateDeferred can hand back a stable
// reference before the real Entity exists; Execute resolves them in
// order and rewrites any queued writes that reference one.
const placeholderBit Entity = 1 << 31

// NewCommandBuffer returns an empty CommandBuffer.
func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{}
}

// CreateDeferred queues creation of a new entity and returns a
// placeholder token. The token is only valid as an argument to this
// same CommandBuffer's EmplaceDeferred/DestroyDeferred calls prior to
// Execute; it is not a real Entity and must never be stored in a
// Registry-backed component.
func (c *CommandBuffer) CreateDeferred() Entity {
	tok := placeholderBit | Entity(len(c.creates))
	c.creates = append(c.creates, createCmd{token: tok})
	return tok
}

// DestroyDeferred queues destruction of e (a real Entity, or a
// placeholder returned earlier by this buffer).
func (c *CommandBuffer) DestroyDeferred(e Entity) {
	c.writes = append(c.writes, func(r *Registry) {
		c.destroys = append(c.destroys, c.resolve(e))
	})
}

// resolve maps a placeholder token to the real Entity created for it
// during this Execute call. It is only meaningful between the point
// creates have been realized and the buffer is cleared.
func (c *CommandBuffer) resolve(e Entity) Entity {
	if e&placeholderBit == 0 {
		return e
	}
	idx := int(e &^ placeholderBit)
	return c.creates[idx].resolved
}

// EmplaceDeferred queues attaching a component of type T to e (a real
// Entity, or a placeholder returned by this buffer) at Execute time.
func EmplaceDeferred[T any](c *CommandBuffer, e Entity, v T) {
	c.writes = append(c.writes, func(r *Registry) {
		Emplace(r, c.resolve(e), v)
	})
}

// Execute applies every queued mutation to r, grouped by kind: creates
// first (so deferred writes can resolve their placeholders), then
// component writes in the order they were queued, then destroys. The buffer is
// left empty afterwards and can be reused.
func (c *CommandBuffer) Execute(r *Registry) {
	for i := range c.creates {
		c.creates[i].resolved = r.Create()
	}
	for _, w := range c.writes {
		w(r)
	}
	for _, e := range c.destroys {
		r.Destroy(e)
	}
	c.creates = c.creates[:0]
	c.destroys = c.destroys[:0]
	c.writes = c.writes[:0]
}
