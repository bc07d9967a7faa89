// Package scenegraph implements the engine's hierarchical transform
// graph on top of the ecs registry: a Relationship component links
// parent/child/sibling entities, and LocalTransform/WorldTransform
// components carry the matrices that UpdateTransforms propagates
// down dirty subtrees.
package scenegraph

import (
	"errors"

	"github.com/pnkrengine/core/ecs"
	"github.com/pnkrengine/core/linear"
)

// ErrCycle is returned by SetParent when reparenting e under parent
// would make e an ancestor of itself.
var ErrCycle = errors.New("scenegraph: reparenting would create a cycle")

// Relationship links an entity to its place in the hierarchy. Root
// entities have Parent == ecs.NilEntity and Level == 0.
type Relationship struct {
	Parent      ecs.Entity
	FirstChild  ecs.Entity
	LastChild   ecs.Entity
	PrevSibling ecs.Entity
	NextSibling ecs.Entity
	Level       int
}

// LocalTransform is an entity's transform relative to its parent
// (or to the world, for a root entity).
type LocalTransform struct {
	M     linear.M4
	Dirty bool
}

// WorldTransform is an entity's transform in world space, valid only
// after a call to Graph.UpdateTransforms that observed no pending
// dirty ancestor.
type WorldTransform struct {
	M linear.M4
}

// Graph is the scene hierarchy built atop an ecs.Registry. The zero
// value is not usable; construct one with New.
type Graph struct {
	reg          *ecs.Registry
	roots        []ecs.Entity
	order        []ecs.Entity // cached topological pre-order, roots first
	dirty        bool         // hierarchyDirty: topo order must be rebuilt
	subtreeDirty map[ecs.Entity]bool
}

// New returns a Graph backed by reg. Multiple Graphs may share a
// Registry as long as callers don't create conflicting Relationship
// component state out of band.
func New(reg *ecs.Registry) *Graph {
	return &Graph{reg: reg, dirty: true}
}

// CreateNode allocates a new entity, attaches a Relationship,
// LocalTransform and WorldTransform component to it, and inserts it
// as a root (Parent == ecs.NilEntity). Call SetParent afterwards to
// reparent it.
func (g *Graph) CreateNode() ecs.Entity {
	e := g.reg.Create()
	var local linear.M4
	local.I()
	ecs.Emplace(g.reg, e, Relationship{})
	ecs.Emplace(g.reg, e, LocalTransform{M: local})
	ecs.Emplace(g.reg, e, WorldTransform{M: local})
	g.insertRoot(e)
	g.setHierarchyDirty()
	return e
}

// DestroyNode removes e and its whole subtree from the graph and the
// registry.
func (g *Graph) DestroyNode(e ecs.Entity) {
	if e == ecs.NilEntity || !g.reg.Alive(e) {
		return
	}
	g.detach(e)
	stack := []ecs.Entity{e}
	for len(stack) > 0 {
		n := len(stack) - 1
		cur := stack[n]
		stack = stack[:n]
		rel := ecs.Get[Relationship](g.reg, cur)
		for c := rel.FirstChild; c != ecs.NilEntity; {
			next := ecs.Get[Relationship](g.reg, c).NextSibling
			stack = append(stack, c)
			c = next
		}
		g.reg.Destroy(cur)
	}
	g.setHierarchyDirty()
}

// Root reports the single root entity of the graph, if the graph
// has exactly one. It returns ecs.NilEntity, false otherwise -
// SceneGraphDOD's singular "root" accessor assumes one scene root,
// but this module tolerates a forest and only satisfies that
// accessor in the common single-root case.
func (g *Graph) Root() (ecs.Entity, bool) {
	if len(g.roots) != 1 {
		return ecs.NilEntity, false
	}
	return g.roots[0], true
}

// Roots returns every root entity (Parent == ecs.NilEntity). The
// returned slice aliases Graph state and must not be retained.
func (g *Graph) Roots() []ecs.Entity { return g.roots }

// HierarchyDirty reports whether the topological order cache needs
// rebuilding before TopoOrder can be trusted.
func (g *Graph) HierarchyDirty() bool { return g.dirty }

func (g *Graph) setHierarchyDirty() { g.dirty = true }

// onHierarchyChanged rebuilds the cached pre-order traversal. It is
// called lazily by TopoOrder.
func (g *Graph) onHierarchyChanged() {
	g.order = g.order[:0]
	var walk func(ecs.Entity)
	walk = func(e ecs.Entity) {
		g.order = append(g.order, e)
		rel := ecs.Get[Relationship](g.reg, e)
		for c := rel.FirstChild; c != ecs.NilEntity; c = ecs.Get[Relationship](g.reg, c).NextSibling {
			walk(c)
		}
	}
	for _, r := range g.roots {
		walk(r)
	}
	g.dirty = false
}

// TopoOrder returns the graph's nodes in pre-order (every node
// appears after its parent), rebuilding the cache first if dirty.
func (g *Graph) TopoOrder() []ecs.Entity {
	if g.dirty {
		g.onHierarchyChanged()
	}
	return g.order
}

// MarkAsChanged flags e's local transform as dirty, so the next
// UpdateTransforms call recomputes its world transform (and that of
// its whole subtree).
func (g *Graph) MarkAsChanged(e ecs.Entity) {
	if l := ecs.Get[LocalTransform](g.reg, e); l != nil {
		l.Dirty = true
	}
}

// SetLocal assigns e's local transform and marks it changed.
func (g *Graph) SetLocal(e ecs.Entity, m linear.M4) {
	l := ecs.Get[LocalTransform](g.reg, e)
	l.M = m
	l.Dirty = true
}

func (g *Graph) insertRoot(e ecs.Entity) {
	g.roots = append(g.roots, e)
}

func (g *Graph) removeRoot(e ecs.Entity) {
	for i, r := range g.roots {
		if r == e {
			g.roots = append(g.roots[:i], g.roots[i+1:]...)
			return
		}
	}
}

// detach unlinks e from its current parent/sibling chain (or from
// the root list) without touching its children.
func (g *Graph) detach(e ecs.Entity) {
	rel := ecs.Get[Relationship](g.reg, e)
	if rel.Parent == ecs.NilEntity {
		g.removeRoot(e)
	} else {
		prel := ecs.Get[Relationship](g.reg, rel.Parent)
		if prel.FirstChild == e {
			prel.FirstChild = rel.NextSibling
		}
		if prel.LastChild == e {
			prel.LastChild = rel.PrevSibling
		}
	}
	if rel.PrevSibling != ecs.NilEntity {
		ecs.Get[Relationship](g.reg, rel.PrevSibling).NextSibling = rel.NextSibling
	}
	if rel.NextSibling != ecs.NilEntity {
		ecs.Get[Relationship](g.reg, rel.NextSibling).PrevSibling = rel.PrevSibling
	}
	rel.Parent = ecs.NilEntity
	rel.PrevSibling = ecs.NilEntity
	rel.NextSibling = ecs.NilEntity
}

// isDescendant reports whether candidate lies within e's subtree
// (including e itself), used by SetParent's cycle check.
func (g *Graph) isDescendant(e, candidate ecs.Entity) bool {
	if e == candidate {
		return true
	}
	rel := ecs.Get[Relationship](g.reg, e)
	for c := rel.FirstChild; c != ecs.NilEntity; c = ecs.Get[Relationship](g.reg, c).NextSibling {
		if g.isDescendant(c, candidate) {
			return true
		}
	}
	return false
}

// SetParent reparents e under parent (ecs.NilEntity to make e a
// root). It refuses a reparenting that would make parent a
// descendant of e, returning ErrCycle in that case.
func (g *Graph) SetParent(e, parent ecs.Entity) error {
	if parent != ecs.NilEntity && g.isDescendant(e, parent) {
		return ErrCycle
	}
	g.detach(e)
	rel := ecs.Get[Relationship](g.reg, e)
	rel.Parent = parent
	if parent == ecs.NilEntity {
		rel.Level = 0
		g.insertRoot(e)
	} else {
		prel := ecs.Get[Relationship](g.reg, parent)
		rel.Level = prel.Level + 1
		rel.PrevSibling = prel.LastChild
		if prel.LastChild != ecs.NilEntity {
			ecs.Get[Relationship](g.reg, prel.LastChild).NextSibling = e
		} else {
			prel.FirstChild = e
		}
		prel.LastChild = e
	}
	g.propagateLevel(e)
	g.MarkAsChanged(e)
	g.setHierarchyDirty()
	return nil
}

func (g *Graph) propagateLevel(e ecs.Entity) {
	rel := ecs.Get[Relationship](g.reg, e)
	for c := rel.FirstChild; c != ecs.NilEntity; c = ecs.Get[Relationship](g.reg, c).NextSibling {
		crel := ecs.Get[Relationship](g.reg, c)
		crel.Level = rel.Level + 1
		g.propagateLevel(c)
	}
}

// UpdateTransforms recomputes WorldTransform for every node whose
// LocalTransform.Dirty is set (or whose ancestor is dirty this
// pass), clearing the Dirty flags it consumes. It walks TopoOrder,
// so a parent is always resolved before its children.
func (g *Graph) UpdateTransforms() {
	order := g.TopoOrder()
	for _, e := range order {
		rel := ecs.Get[Relationship](g.reg, e)
		local := ecs.Get[LocalTransform](g.reg, e)
		world := ecs.Get[WorldTransform](g.reg, e)
		dirty := local.Dirty
		if rel.Parent == ecs.NilEntity {
			if dirty {
				world.M = local.M
				if g.subtreeDirty == nil {
					g.subtreeDirty = make(map[ecs.Entity]bool)
				}
				for c := rel.FirstChild; c != ecs.NilEntity; c = ecs.Get[Relationship](g.reg, c).NextSibling {
					g.subtreeDirty[c] = true
				}
				local.Dirty = false
			}
			continue
		}
		parentDirty := g.subtreeDirty[e]
		if dirty || parentDirty {
			pworld := ecs.Get[WorldTransform](g.reg, rel.Parent)
			world.M.Mul(&pworld.M, &local.M)
			if g.subtreeDirty == nil {
				g.subtreeDirty = make(map[ecs.Entity]bool)
			}
			for c := rel.FirstChild; c != ecs.NilEntity; c = ecs.Get[Relationship](g.reg, c).NextSibling {
				g.subtreeDirty[c] = true
			}
		}
		local.Dirty = false
	}
	g.subtreeDirty = nil
}

// RecalculateGlobalTransformsFull recomputes every WorldTransform
// unconditionally, ignoring Dirty flags. It is used after a bulk
// import or a full-graph structural change where per-node dirty
// tracking would cost more than a flat pass.
func (g *Graph) RecalculateGlobalTransformsFull() {
	for _, e := range g.TopoOrder() {
		rel := ecs.Get[Relationship](g.reg, e)
		local := ecs.Get[LocalTransform](g.reg, e)
		world := ecs.Get[WorldTransform](g.reg, e)
		if rel.Parent == ecs.NilEntity {
			world.M = local.M
		} else {
			pworld := ecs.Get[WorldTransform](g.reg, rel.Parent)
			world.M.Mul(&pworld.M, &local.M)
		}
		local.Dirty = false
	}
}
