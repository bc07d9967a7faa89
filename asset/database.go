package asset

import (
	"math"

	"github.com/pnkrengine/core/gpuqueue"
	"github.com/pnkrengine/core/internal/bitm"
	"github.com/pnkrengine/core/rhi"
)

// unifiedAlign is the byte alignment primitive vertex/index ranges
// are padded to within the unified buffers, matching the teacher's
// mesh buffer allocator's block granularity.
const unifiedAlign = 256

// Database is the engine's asset database (C3): the CPU-side vertex
// and index arrays for every imported mesh, their uploaded GPU
// counterparts, materials, skins, and the textures/samplers meshes
// and materials refer to by index.
//
// A Database owns no GPU resources on construction; call
// UploadUnifiedBuffers after appending geometry to create (or
// replace) the GPU-side vertexBuffer/indexBuffer/boundsBuffer.
type Database struct {
	gpu rhi.GPU
	dq  *gpuqueue.Queue

	// CPU-side unified arrays. Appended to by AppendPrimitiveMeshData,
	// dropped by DropCPUGeometry once uploaded (the GPU is then the
	// sole owner of the data).
	vertexData []byte
	indexData  []byte

	bounds []AABB // one entry per Mesh, mirrors meshes by index

	meshes    []Mesh
	materials []Material
	skins     []Skin
	samplers  []rhi.Sampler

	// systemMeshes holds the built-in primitives (plane, cube, sphere,
	// capsule, torus) addressed by a negative mesh id, built lazily on
	// first reference by ensureSystemMeshes.
	systemMeshes []Mesh

	textures     []textureEntry
	residentBits bitm.Bitm[uint64] // bit i set once textures[i] has its first mip uploaded

	vertexBuffer rhi.Buffer
	indexBuffer  rhi.Buffer
	boundsBuffer rhi.Buffer
	frame        uint64 // current frame index, advanced by caller
}

// textureEntry is one Database-owned texture and its streaming
// state, shared with texstream via the Tex field on TexRef.
type textureEntry struct {
	image    rhi.Image
	resident bool // its first mip (of any level) has been uploaded
}

// New returns an empty Database. dq receives destructors for GPU
// buffers replaced by a later UploadUnifiedBuffers call; it may be
// shared with other subsystems (texstream, batch).
func New(gpu rhi.GPU, dq *gpuqueue.Queue) *Database {
	return &Database{gpu: gpu, dq: dq}
}

// SetFrame records the frame index the caller is currently recording
// commands for; it is attached to any buffer replaced by the next
// UploadUnifiedBuffers call so gpuqueue defers the old buffer's
// destruction past that frame's completion.
func (d *Database) SetFrame(frame uint64) { d.frame = frame }

// AppendPrimitiveMeshData appends vertices and a uint32 index buffer
// to the unified CPU arrays and returns a Primitive referencing the
// newly written ranges. topology, material and bounds are copied
// into the returned Primitive verbatim; bounds should already be
// expressed in the mesh's local space.
func (d *Database) AppendPrimitiveMeshData(verts []Vertex, indices []uint32, topology Topology, material int, bounds AABB) Primitive {
	vStart := d.alignedLen(&d.vertexData, len(verts)*vertexSize, vertexAlign)
	for i := range verts {
		putVertex(d.vertexData[vStart+int64(i)*vertexSize:], &verts[i])
	}
	iStart := d.alignedLen(&d.indexData, len(indices)*4, unifiedAlign)
	for i, idx := range indices {
		putU32(d.indexData[iStart+int64(i)*4:], idx)
	}
	return Primitive{
		Vertices:  span{vStart, vStart + int64(len(verts))*vertexSize},
		VertexCnt: len(verts),
		Indices:   span{iStart, iStart + int64(len(indices))*4},
		IndexCnt:  len(indices),
		Topology:  topology,
		Material:  material,
		Bounds:    bounds,
	}
}

const vertexSize = 3*4 + 3*4 + 4*4 + 2*2*4 + 4*4 + 4*2 + 4*4 // see Vertex field layout

// vertexAlign is the least common multiple of unifiedAlign and
// vertexSize, so every vertex range starts on a unifiedAlign boundary
// that is also a whole number of vertices (Primitive.VertexOffset).
const vertexAlign = 768

// alignedLen grows *buf to hold extra additional bytes, padding the
// current length up to align first, and returns the (aligned) start
// offset the caller should write at.
func (d *Database) alignedLen(buf *[]byte, extra, align int) int64 {
	n := len(*buf)
	pad := (align - n%align) % align
	*buf = append(*buf, make([]byte, pad+extra)...)
	return int64(n + pad)
}

// AddMesh registers a Mesh (already built via AppendPrimitiveMeshData
// for each of its primitives) and returns its index.
func (d *Database) AddMesh(m Mesh) int {
	d.meshes = append(d.meshes, m)
	d.bounds = append(d.bounds, m.Bounds)
	return len(d.meshes) - 1
}

// Mesh returns the Mesh at index i, or the system mesh -i-1 if i is
// negative (the built-in-primitive convention used by C8 Collect). It
// returns nil, rather than panicking, for an out-of-range index in
// either direction so a corrupt or stale MeshRef is dropped silently.
func (d *Database) Mesh(i int) *Mesh {
	if i < 0 {
		return d.systemMesh(i)
	}
	if i >= len(d.meshes) {
		return nil
	}
	return &d.meshes[i]
}

// systemMesh resolves a negative mesh id (-1 - SystemMeshKind) to its
// built-in primitive, building the system mesh set on first use.
func (d *Database) systemMesh(i int) *Mesh {
	kind := SystemMeshKind(-i - 1)
	if kind < 0 || kind >= systemMeshKindCount {
		return nil
	}
	d.ensureSystemMeshes()
	return &d.systemMeshes[kind]
}

// MeshCount returns the number of registered meshes.
func (d *Database) MeshCount() int { return len(d.meshes) }

// AddMaterial registers a Material and returns its index.
func (d *Database) AddMaterial(m Material) (int, error) {
	if err := m.validate(); err != nil {
		return -1, err
	}
	d.materials = append(d.materials, m)
	return len(d.materials) - 1, nil
}

// Material returns the material at index i, or DefaultMaterial (which
// classifies to Opaque) if i is -1 (the "no material" sentinel
// Primitive uses) or otherwise out of range, rather than panicking.
func (d *Database) Material(i int) Material {
	if i < 0 || i >= len(d.materials) {
		return DefaultMaterial()
	}
	return d.materials[i]
}

// AddSkin registers a Skin and returns its index.
func (d *Database) AddSkin(s Skin) int {
	d.skins = append(d.skins, s)
	return len(d.skins) - 1
}

// Skin returns the skin at index i.
func (d *Database) Skin(i int) *Skin { return &d.skins[i] }

// AddTexture registers an image that is not yet resident (no mip
// level has been uploaded) and returns a Texture handle for use in a
// TexRef. It is appended to PendingTextures until texstream reports
// its first copy has landed.
func (d *Database) AddTexture(img rhi.Image) Texture {
	idx := len(d.textures)
	d.textures = append(d.textures, textureEntry{image: img})
	if d.residentBits.Len() <= idx {
		d.residentBits.Grow(1)
	}
	return Texture(idx)
}

// MarkTextureResident marks t resident once its first mip has
// landed. It is idempotent and O(1), backed by a residency bitmap
// rather than a scan over a pending list.
func (d *Database) MarkTextureResident(t Texture) {
	idx := int(t)
	if idx < 0 || idx >= len(d.textures) || d.textures[idx].resident {
		return
	}
	d.textures[idx].resident = true
	d.residentBits.Set(idx)
}

// PendingTextures returns the indices of textures requested but not
// yet uploaded, in ascending order.
func (d *Database) PendingTextures() []int {
	var pending []int
	for i := range d.textures {
		if !d.residentBits.IsSet(i) {
			pending = append(pending, i)
		}
	}
	return pending
}

// Image returns the rhi.Image backing texture t.
func (d *Database) Image(t Texture) rhi.Image {
	if t == InvalidTexture {
		return nil
	}
	return d.textures[t].image
}

// DropCPUGeometry releases the CPU-side vertex/index arrays once
// they have been uploaded to the GPU, since Primitive ranges remain
// valid as offsets into the GPU buffers even after this call.
func (d *Database) DropCPUGeometry() {
	d.vertexData = nil
	d.indexData = nil
}

// UploadUnifiedBuffers (re)creates the GPU vertex/index/bounds
// buffers from the current CPU-side arrays and copies the data in.
// If buffers already existed, the old ones are handed to the
// deferred-destruction queue tagged with the current frame rather
// than destroyed immediately, since in-flight command buffers from
// previous frames may still reference them.
func (d *Database) UploadUnifiedBuffers() error {
	vbuf, err := d.gpu.NewBuffer(int64(len(d.vertexData)), true, rhi.UVertexData|rhi.UCopyDst|rhi.UShaderDeviceAddress)
	if err != nil {
		return err
	}
	copy(vbuf.Bytes(), d.vertexData)

	ibuf, err := d.gpu.NewBuffer(int64(len(d.indexData)), true, rhi.UIndexData|rhi.UCopyDst)
	if err != nil {
		vbuf.Destroy()
		return err
	}
	copy(ibuf.Bytes(), d.indexData)

	boundsSize := int64(len(d.bounds)) * 24 // 6 float32 per AABB
	bbuf, err := d.gpu.NewBuffer(boundsSize, true, rhi.UShaderRead|rhi.UCopyDst)
	if err != nil {
		vbuf.Destroy()
		ibuf.Destroy()
		return err
	}
	bb := bbuf.Bytes()
	for i, a := range d.bounds {
		off := i * 24
		for j := 0; j < 3; j++ {
			putF32(bb[off+j*4:], a.Min[j])
			putF32(bb[off+12+j*4:], a.Max[j])
		}
	}

	if d.vertexBuffer != nil {
		old := d.vertexBuffer
		d.dq.Defer(d.frame, old.Destroy)
	}
	if d.indexBuffer != nil {
		old := d.indexBuffer
		d.dq.Defer(d.frame, old.Destroy)
	}
	if d.boundsBuffer != nil {
		old := d.boundsBuffer
		d.dq.Defer(d.frame, old.Destroy)
	}
	d.vertexBuffer, d.indexBuffer, d.boundsBuffer = vbuf, ibuf, bbuf
	return nil
}

// VertexBuffer, IndexBuffer and BoundsBuffer return the most recently
// uploaded GPU buffers, or nil if UploadUnifiedBuffers hasn't run yet.
func (d *Database) VertexBuffer() rhi.Buffer { return d.vertexBuffer }
func (d *Database) IndexBuffer() rhi.Buffer  { return d.indexBuffer }
func (d *Database) BoundsBuffer() rhi.Buffer { return d.boundsBuffer }

func putVertex(b []byte, v *Vertex) {
	o := 0
	for _, f := range v.Position {
		putF32(b[o:], f)
		o += 4
	}
	for _, f := range v.Normal {
		putF32(b[o:], f)
		o += 4
	}
	for _, f := range v.Tangent {
		putF32(b[o:], f)
		o += 4
	}
	for _, uv := range v.TexCoord {
		for _, f := range uv {
			putF32(b[o:], f)
			o += 4
		}
	}
	for _, f := range v.Color0 {
		putF32(b[o:], f)
		o += 4
	}
	for _, j := range v.Joints0 {
		b[o] = byte(j)
		b[o+1] = byte(j >> 8)
		o += 2
	}
	for _, f := range v.Weights0 {
		putF32(b[o:], f)
		o += 4
	}
}

func putF32(b []byte, f float32) { putU32(b, math.Float32bits(f)) }

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
