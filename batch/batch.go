// Package batch implements the engine's render batcher (C8):
// classification of drawable primitives into sorting buckets, a
// 64-bit sort key per draw, and a two-pass Collect/Emit that turns
// sorted draws into GPU-ready indirect commands and instance
// transforms, using a per-frame bump allocator so steady-state
// batching never touches the GC heap.
package batch

import (
	"math"
	"sort"

	"github.com/pnkrengine/core/asset"
	"github.com/pnkrengine/core/ecs"
	"github.com/pnkrengine/core/linear"
	"github.com/pnkrengine/core/rhi"
)

// SortingType buckets draws by the pass and blend behavior they need.
// Ordered so ascending SortingType roughly matches draw order
// (opaque passes first, transparency last).
type SortingType uint64

const (
	Opaque SortingType = iota
	OpaqueDoubleSided
	Transmission
	TransmissionDoubleSided
	Transparent

	sortingTypeCount
)

// Key layout: bits [63:60] SortingType, bits [59:32] material index,
// bits [31:0] mesh index (or the ones'-complement of an
// order-preserving float encoding of squared camera distance, for
// Transparent draws, so a plain ascending sort gives back-to-front
// order).
const (
	typeShift     = 60
	materialShift = 32
	materialMask  = (1 << 28) - 1
	lowMask       = (1 << 32) - 1
)

// DrawItem is one classified, sortable draw call, carrying everything
// Emit needs to place it in its layer's output arrays.
type DrawItem struct {
	Key       uint64
	Entity    ecs.Entity
	Primitive *asset.Primitive
	Material  int
	MeshIndex int
	Cmd       rhi.IndirectCmd
}

// Transform is one instance's GPU-visible transform record, indexed
// by an IndirectCmd's FirstInstance.
type Transform struct {
	World             linear.M4
	WorldInvTranspose linear.M4
	VertexBufferAddr  uint64
	MaterialIndex     int32
	MeshIndex         int32
}

// Layer is one SortingType's emitted output: parallel
// indirectCommands/meshIndices/bounds arrays, one entry per draw.
type Layer struct {
	Commands    []rhi.IndirectCmd
	MeshIndices []int
	Bounds      []asset.AABB
}

// Result is C8's full per-frame output: one Layer per SortingType, a
// single shared instance-transform array every layer's commands index
// into via FirstInstance, and whether any collected material is
// volumetric.
type Result struct {
	Layers             [sortingTypeCount]Layer
	Transforms         []Transform
	VolumetricMaterial bool
}

// Classify resolves a material's SortingType. AlphaBlend takes
// priority over a nonzero TransmissionFactor: a blended, transmissive
// surface (stained glass with a fade-out, say) still needs the
// ordering discipline of the Transparent bucket, not Transmission's.
func Classify(m *asset.Material) SortingType {
	switch {
	case m.AlphaMode == asset.AlphaBlend:
		return Transparent
	case m.IsTransmissive():
		if m.DoubleSided {
			return TransmissionDoubleSided
		}
		return Transmission
	default:
		if m.DoubleSided {
			return OpaqueDoubleSided
		}
		return Opaque
	}
}

// isVolumetric reports whether m should set the frame-wide
// volumetricMaterial flag, independent of which bucket it classifies
// into.
func isVolumetric(m *asset.Material) bool {
	return m.ThicknessFactor > 0 || m.IOR != 1
}

// floatToOrderedInt maps f's IEEE-754 bits to a uint32 that sorts in
// the same order as f itself (flip the sign bit for non-negative
// values, flip every bit for negative ones).
func floatToOrderedInt(f float32) uint32 {
	bits := math.Float32bits(f)
	if bits&0x8000_0000 != 0 {
		return ^bits
	}
	return bits | 0x8000_0000
}

// MakeKey builds the 64-bit sort key for a draw. meshIndex is used
// for every bucket except Transparent, where distSq (camera-space
// squared distance) instead drives back-to-front ordering.
func MakeKey(st SortingType, materialIndex, meshIndex int, distSq float32) uint64 {
	key := uint64(st) << typeShift
	key |= uint64(materialIndex&materialMask) << materialShift
	if st == Transparent {
		key |= uint64(^floatToOrderedInt(distSq)) & lowMask
	} else {
		key |= uint64(meshIndex) & lowMask
	}
	return key
}

// frameArena is a bump allocator for one frame's DrawItem storage.
// Reset is called once per frame before batching starts; it never
// shrinks its backing array, so steady-state batching allocates
// nothing after the first few frames.
type frameArena struct {
	items []DrawItem
	len   int
}

func (a *frameArena) reset() { a.len = 0 }

// alloc returns a handle to the next free DrawItem slot, growing the
// backing array if needed.
func (a *frameArena) alloc() *DrawItem {
	if a.len == len(a.items) {
		a.items = append(a.items, DrawItem{})
	}
	it := &a.items[a.len]
	*it = DrawItem{}
	a.len++
	return it
}

// Batcher classifies and sorts draws into per-SortingType buckets
// each frame, and emits the indirect commands and instance transforms
// C9 uploads and draws from.
type Batcher struct {
	arena      frameArena
	buckets    [sortingTypeCount][]DrawItem
	transforms []Transform
	layers     [sortingTypeCount]Layer
}

// NewBatcher returns an empty Batcher.
func NewBatcher() *Batcher { return &Batcher{} }

// Draw is one candidate for inclusion in this frame's batches.
type Draw struct {
	Entity           ecs.Entity
	Primitive        *asset.Primitive
	Material         *asset.Material
	MaterialIdx      int
	MeshIndex        int
	DistSq           float32 // only meaningful for Transparent draws
	World            linear.M4
	VertexBufferAddr uint64
}

// Build runs Collect, Sort and Emit over draws, returning this
// frame's indirect commands, instance transforms and volumetric flag.
// The returned Result aliases Batcher-owned storage and is only valid
// until the next Build call.
func (b *Batcher) Build(draws []Draw) Result {
	b.arena.reset()
	for i := range b.buckets {
		b.buckets[i] = b.buckets[i][:0]
	}
	b.transforms = b.transforms[:0]

	var volumetric bool
	for _, d := range draws {
		st := Classify(d.Material)
		if isVolumetric(d.Material) {
			volumetric = true
		}
		slot := int32(len(b.transforms))
		var worldIT linear.M4
		worldIT.Invert(&d.World)
		worldIT.Transpose(&worldIT)
		b.transforms = append(b.transforms, Transform{
			World:             d.World,
			WorldInvTranspose: worldIT,
			VertexBufferAddr:  d.VertexBufferAddr,
			MaterialIndex:     int32(d.MaterialIdx),
			MeshIndex:         int32(d.MeshIndex),
		})

		item := b.arena.alloc()
		item.Key = MakeKey(st, d.MaterialIdx, d.MeshIndex, d.DistSq)
		item.Entity = d.Entity
		item.Primitive = d.Primitive
		item.Material = d.MaterialIdx
		item.MeshIndex = d.MeshIndex
		item.Cmd = rhi.IndirectCmd{
			IndexCount:    uint32(d.Primitive.IndexCnt),
			InstanceCount: 1,
			FirstIndex:    d.Primitive.FirstIndex(),
			VertexOffset:  d.Primitive.VertexOffset(),
			FirstInstance: uint32(slot),
		}
		b.buckets[st] = append(b.buckets[st], *item)
	}

	for i := range b.buckets {
		bucket := b.buckets[i]
		sort.SliceStable(bucket, func(a, c int) bool { return bucket[a].Key < bucket[c].Key })
	}

	var result Result
	result.Transforms = b.transforms
	result.VolumetricMaterial = volumetric
	for i := range b.buckets {
		bucket := b.buckets[i]
		dst := &b.layers[i]
		dst.Commands = dst.Commands[:0]
		dst.MeshIndices = dst.MeshIndices[:0]
		dst.Bounds = dst.Bounds[:0]
		for _, it := range bucket {
			dst.Commands = append(dst.Commands, it.Cmd)
			dst.MeshIndices = append(dst.MeshIndices, it.MeshIndex)
			dst.Bounds = append(dst.Bounds, it.Primitive.Bounds)
		}
		if len(bucket) > 0 {
			result.Layers[i] = *dst
		}
	}
	return result
}
