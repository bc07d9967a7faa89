package asset

import "github.com/pnkrengine/core/linear"

// Semantic identifies a vertex attribute.
type Semantic int

const (
	Position Semantic = iota
	Normal
	Tangent
	TexCoord0
	TexCoord1
	Color0
	Joints0
	Weights0

	MaxSemantic
)

// Vertex is the engine's unified CPU-side vertex layout. Every
// primitive's vertex data is expanded into this single struct on
// import so the GPU-side vertex buffer never needs more than one
// format, at the cost of storing unused attributes as zero.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Tangent  [4]float32 // w holds the bitangent sign
	TexCoord [2][2]float32
	Color0   [4]float32
	Joints0  [4]uint16
	Weights0 [4]float32
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max [3]float32
}

// Union returns the smallest AABB containing both a and b.
func (a AABB) Union(b AABB) AABB {
	var r AABB
	for i := 0; i < 3; i++ {
		r.Min[i] = min32(a.Min[i], b.Min[i])
		r.Max[i] = max32(a.Max[i], b.Max[i])
	}
	return r
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// Topology mirrors rhi.Topology without importing rhi, so asset has
// no dependency on the graphics device facade; batch/render map
// between the two when recording draw calls.
type Topology int

const (
	TPoint Topology = iota
	TLine
	TLineStrip
	TTriangle
	TTriStrip
)

// span is a byte-addressed range within a unified buffer.
type span struct {
	Start, End int64
}

func (s span) size() int64 { return s.End - s.Start }

// MorphTargetInfo describes one morph target's displacement ranges
// within the unified vertex buffer, supplementing the base Primitive
// with the data a glTF mesh.primitives[].targets entry carries.
type MorphTargetInfo struct {
	PositionDelta span
	NormalDelta   span // zero span if the target has no normal deltas
	TangentDelta  span // zero span if the target has no tangent deltas
	Weight        float32
}

// Primitive is one drawable piece of a Mesh: a vertex range and
// index range within the Database's unified buffers, the topology to
// assemble them with, the Material it's rendered with, its local-
// space bounds, and any morph targets layered on top of its base
// vertex data.
type Primitive struct {
	Vertices  span // byte range in Database.vertexData
	VertexCnt int
	Indices   span // byte range in Database.indexData (uint32 each)
	IndexCnt  int
	Topology  Topology
	Material  int // index into Database.materials, or -1 for the default
	Bounds    AABB
	Morphs    []MorphTargetInfo
}

// VertexOffset returns the primitive's first vertex as an index into
// the unified vertex buffer, for IndirectCmd.VertexOffset.
func (p *Primitive) VertexOffset() int32 {
	return int32(p.Vertices.Start / vertexSize)
}

// FirstIndex returns the primitive's first index as an index into the
// unified (uint32) index buffer, for IndirectCmd.FirstIndex.
func (p *Primitive) FirstIndex() uint32 {
	return uint32(p.Indices.Start / 4)
}

// Mesh groups the primitives that make up one drawable asset.
type Mesh struct {
	Primitives []Primitive
	Bounds     AABB
}

// Joint is one node in a Skin's joint hierarchy. Parent is the index
// of another Joint within the same Skin.Joints slice, or -1 for a
// root joint.
type Joint struct {
	Name       string
	LocalBind  linear.M4
	InverseBind linear.M4
	Parent     int
}

// Skin is blend-weight skinning data: a joint hierarchy plus the
// inverse bind matrices needed to move vertices from bind pose into
// each joint's local space before the node hierarchy's current pose
// is reapplied.
type Skin struct {
	Joints []Joint
}
