// Package ecs implements a data-oriented entity-component registry:
// entities are plain 32-bit handles, components live in dense,
// contiguous-per-type sparse-set pools, and queries iterate the
// smallest matching pool rather than walking every entity.
package ecs

// Entity identifies a row in a Registry. It carries no data of its
// own; all state lives in the component pools it indexes into.
type Entity uint32

// NilEntity is never returned by Registry.Create.
const NilEntity Entity = 0

// firstEntity is the first id handed out by a fresh Registry. Id 0
// is reserved as NilEntity so callers can use the zero value of
// Entity as a sentinel, as scenegraph does for a root node's
// Relationship.Parent.
const firstEntity Entity = 1
