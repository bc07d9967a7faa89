package asset

import "math"

// SystemMeshKind identifies one of the engine's built-in primitives.
// A mesh index (such as render.MeshRef's Mesh field) may reference one via the negative mesh id
// -1-kind (see Database.Mesh), so scenes can reference stock geometry
// (a debug cube, a UI plane) without importing an asset for it.
type SystemMeshKind int

const (
	SystemPlane SystemMeshKind = iota
	SystemCube
	SystemSphere
	SystemCapsule
	SystemTorus

	systemMeshKindCount
)

// SystemMeshID returns the mesh id Database.Mesh resolves back to
// kind.
func SystemMeshID(kind SystemMeshKind) int { return -1 - int(kind) }

// ensureSystemMeshes lazily builds the five built-in primitives into
// d.systemMeshes, appending their geometry to the same unified
// vertex/index arrays every imported mesh uses.
func (d *Database) ensureSystemMeshes() {
	if d.systemMeshes != nil {
		return
	}
	d.systemMeshes = make([]Mesh, systemMeshKindCount)
	builders := [systemMeshKindCount]func() ([]Vertex, []uint32){
		SystemPlane:   planeGeometry,
		SystemCube:    cubeGeometry,
		SystemSphere:  func() ([]Vertex, []uint32) { return uvSphereGeometry(1, 32, 16) },
		SystemCapsule: func() ([]Vertex, []uint32) { return capsuleGeometry(0.5, 1, 32, 8) },
		SystemTorus:   func() ([]Vertex, []uint32) { return torusGeometry(1, 0.3, 16, 32) },
	}
	for kind, build := range builders {
		verts, indices := build()
		prim := d.AppendPrimitiveMeshData(verts, indices, TTriangle, -1, boundsOf(verts))
		d.systemMeshes[kind] = Mesh{Primitives: []Primitive{prim}, Bounds: prim.Bounds}
	}
}

// boundsOf computes the local-space AABB of a vertex slice.
func boundsOf(verts []Vertex) AABB {
	if len(verts) == 0 {
		return AABB{}
	}
	b := AABB{Min: verts[0].Position, Max: verts[0].Position}
	for _, v := range verts[1:] {
		for i := 0; i < 3; i++ {
			b.Min[i] = min32(b.Min[i], v.Position[i])
			b.Max[i] = max32(b.Max[i], v.Position[i])
		}
	}
	return b
}

func vtx(pos, normal [3]float32, u, v float32) Vertex {
	return Vertex{
		Position: pos,
		Normal:   normal,
		Tangent:  [4]float32{1, 0, 0, 1},
		TexCoord: [2][2]float32{{u, v}, {u, v}},
		Color0:   [4]float32{1, 1, 1, 1},
		Weights0: [4]float32{1, 0, 0, 0},
	}
}

// planeGeometry returns a 1x1 unit plane on the XZ axis, facing +Y.
func planeGeometry() ([]Vertex, []uint32) {
	n := [3]float32{0, 1, 0}
	verts := []Vertex{
		vtx([3]float32{-0.5, 0, -0.5}, n, 0, 0),
		vtx([3]float32{0.5, 0, -0.5}, n, 1, 0),
		vtx([3]float32{0.5, 0, 0.5}, n, 1, 1),
		vtx([3]float32{-0.5, 0, 0.5}, n, 0, 1),
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return verts, indices
}

// cubeGeometry returns a 1x1x1 unit cube, each face with its own
// normal and UVs (24 vertices, not a shared-vertex 8).
func cubeGeometry() ([]Vertex, []uint32) {
	faces := [6]struct {
		normal                           [3]float32
		a, b, c, d                       [3]float32
	}{
		{[3]float32{0, 0, 1}, [3]float32{-.5, -.5, .5}, [3]float32{.5, -.5, .5}, [3]float32{.5, .5, .5}, [3]float32{-.5, .5, .5}},
		{[3]float32{0, 0, -1}, [3]float32{.5, -.5, -.5}, [3]float32{-.5, -.5, -.5}, [3]float32{-.5, .5, -.5}, [3]float32{.5, .5, -.5}},
		{[3]float32{0, 1, 0}, [3]float32{-.5, .5, .5}, [3]float32{.5, .5, .5}, [3]float32{.5, .5, -.5}, [3]float32{-.5, .5, -.5}},
		{[3]float32{0, -1, 0}, [3]float32{-.5, -.5, -.5}, [3]float32{.5, -.5, -.5}, [3]float32{.5, -.5, .5}, [3]float32{-.5, -.5, .5}},
		{[3]float32{1, 0, 0}, [3]float32{.5, -.5, .5}, [3]float32{.5, -.5, -.5}, [3]float32{.5, .5, -.5}, [3]float32{.5, .5, .5}},
		{[3]float32{-1, 0, 0}, [3]float32{-.5, -.5, -.5}, [3]float32{-.5, -.5, .5}, [3]float32{-.5, .5, .5}, [3]float32{-.5, .5, -.5}},
	}
	var verts []Vertex
	var indices []uint32
	for _, f := range faces {
		base := uint32(len(verts))
		verts = append(verts,
			vtx(f.a, f.normal, 0, 0),
			vtx(f.b, f.normal, 1, 0),
			vtx(f.c, f.normal, 1, 1),
			vtx(f.d, f.normal, 0, 1),
		)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return verts, indices
}

// uvSphereGeometry returns a latitude/longitude sphere of the given
// radius, with segments longitude divisions and rings latitude bands.
func uvSphereGeometry(radius float32, segments, rings int) ([]Vertex, []uint32) {
	var verts []Vertex
	var indices []uint32
	for r := 0; r <= rings; r++ {
		theta := float64(r) * math.Pi / float64(rings)
		sinT, cosT := math.Sincos(theta)
		for s := 0; s <= segments; s++ {
			phi := float64(s) * 2 * math.Pi / float64(segments)
			sinP, cosP := math.Sincos(phi)
			nx, ny, nz := float32(sinT*cosP), float32(cosT), float32(sinT*sinP)
			pos := [3]float32{nx * radius, ny * radius, nz * radius}
			u := float32(s) / float32(segments)
			v := float32(r) / float32(rings)
			verts = append(verts, vtx(pos, [3]float32{nx, ny, nz}, u, v))
		}
	}
	stride := segments + 1
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			i0 := uint32(r*stride + s)
			i1 := i0 + uint32(stride)
			indices = append(indices, i0, i1, i0+1, i0+1, i1, i1+1)
		}
	}
	return verts, indices
}

// capsuleGeometry returns a capsule of the given radius and cylinder
// height (excluding the hemispherical caps), with segments around the
// circumference and capRings latitude bands per hemisphere.
func capsuleGeometry(radius, height float32, segments, capRings int) ([]Vertex, []uint32) {
	var verts []Vertex
	var indices []uint32
	half := height / 2
	stride := segments + 1

	ring := func(y float32, ny float32, scale float32, v float32) {
		for s := 0; s <= segments; s++ {
			phi := float64(s) * 2 * math.Pi / float64(segments)
			sinP, cosP := math.Sincos(phi)
			nx, nz := float32(cosP)*scale, float32(sinP)*scale
			pos := [3]float32{nx * radius, y, nz * radius}
			u := float32(s) / float32(segments)
			verts = append(verts, vtx(pos, [3]float32{nx, ny, nz}, u, v))
		}
	}
	band := func(r0, r1 int) {
		for s := 0; s < segments; s++ {
			i0 := uint32(r0*stride + s)
			i1 := uint32(r1*stride + s)
			indices = append(indices, i0, i1, i0+1, i0+1, i1, i1+1)
		}
	}

	row := 0
	// Top hemisphere, pole to equator.
	for r := 0; r <= capRings; r++ {
		theta := float64(r) * (math.Pi / 2) / float64(capRings)
		sinT, cosT := math.Sincos(theta)
		ring(half+float32(cosT)*radius, float32(cosT), float32(sinT), float32(r)/float32(capRings*2))
		if r > 0 {
			band(row-1, row)
		}
		row++
	}
	// Cylinder.
	ring(half, 0, 1, 0.5)
	band(row-1, row)
	row++
	ring(-half, 0, 1, 0.5)
	band(row-1, row)
	row++
	// Bottom hemisphere, equator to pole.
	for r := 1; r <= capRings; r++ {
		theta := math.Pi/2 + float64(r)*(math.Pi/2)/float64(capRings)
		sinT, cosT := math.Sincos(theta)
		ring(-half+float32(cosT)*radius, float32(cosT), float32(sinT), 0.5+float32(r)/float32(capRings*2))
		band(row-1, row)
		row++
	}
	return verts, indices
}

// torusGeometry returns a torus with the given major (ring) and minor
// (tube) radii, majorSegs divisions around the ring and minorSegs
// divisions around the tube.
func torusGeometry(majorRadius, minorRadius float32, majorSegs, minorSegs int) ([]Vertex, []uint32) {
	var verts []Vertex
	var indices []uint32
	stride := minorSegs + 1
	for i := 0; i <= majorSegs; i++ {
		u := float64(i) * 2 * math.Pi / float64(majorSegs)
		sinU, cosU := math.Sincos(u)
		for j := 0; j <= minorSegs; j++ {
			v := float64(j) * 2 * math.Pi / float64(minorSegs)
			sinV, cosV := math.Sincos(v)
			cx, cz := float32(cosU)*majorRadius, float32(sinU)*majorRadius
			nx, ny, nz := float32(cosV*cosU), float32(sinV), float32(cosV*sinU)
			pos := [3]float32{cx + nx*minorRadius, ny * minorRadius, cz + nz*minorRadius}
			verts = append(verts, vtx(pos, [3]float32{nx, ny, nz}, float32(i)/float32(majorSegs), float32(j)/float32(minorSegs)))
		}
	}
	for i := 0; i < majorSegs; i++ {
		for j := 0; j < minorSegs; j++ {
			i0 := uint32(i*stride + j)
			i1 := i0 + uint32(stride)
			indices = append(indices, i0, i1, i0+1, i0+1, i1, i1+1)
		}
	}
	return verts, indices
}
