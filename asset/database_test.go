package asset

import "testing"

func TestDefaultMaterialValidates(t *testing.T) {
	m := DefaultMaterial()
	if err := m.validate(); err != nil {
		t.Fatalf("DefaultMaterial failed validation: %v", err)
	}
}

func TestMaterialValidateRejectsBadTransmission(t *testing.T) {
	m := DefaultMaterial()
	m.TransmissionFactor = 2
	if err := m.validate(); err == nil {
		t.Fatal("expected validation error for TransmissionFactor > 1")
	}
}

func TestAppendPrimitiveMeshData(t *testing.T) {
	d := New(nil, nil)
	verts := []Vertex{
		{Position: [3]float32{0, 0, 0}},
		{Position: [3]float32{1, 0, 0}},
		{Position: [3]float32{0, 1, 0}},
	}
	idx := []uint32{0, 1, 2}
	prim := d.AppendPrimitiveMeshData(verts, idx, TTriangle, -1, AABB{})
	if prim.VertexCnt != 3 || prim.IndexCnt != 3 {
		t.Fatalf("unexpected counts: %+v", prim)
	}
	if prim.Vertices.size() != int64(3*vertexSize) {
		t.Errorf("vertex span size = %d, want %d", prim.Vertices.size(), 3*vertexSize)
	}
	if prim.Indices.size() != 12 {
		t.Errorf("index span size = %d, want 12", prim.Indices.size())
	}
}

func TestAddMaterialAssignsSequentialIndices(t *testing.T) {
	d := New(nil, nil)
	i0, err := d.AddMaterial(DefaultMaterial())
	if err != nil {
		t.Fatal(err)
	}
	i1, err := d.AddMaterial(DefaultMaterial())
	if err != nil {
		t.Fatal(err)
	}
	if i0 != 0 || i1 != 1 {
		t.Errorf("got indices %d, %d, want 0, 1", i0, i1)
	}
}

func TestAddMaterialRejectsInvalid(t *testing.T) {
	d := New(nil, nil)
	bad := DefaultMaterial()
	bad.AlphaMode = AlphaMode(99)
	if _, err := d.AddMaterial(bad); err == nil {
		t.Fatal("expected error for undefined AlphaMode")
	}
}

func TestMeshOutOfRangeReturnsNil(t *testing.T) {
	d := New(nil, nil)
	d.AddMesh(Mesh{})
	if got := d.Mesh(1); got != nil {
		t.Errorf("Mesh(1) = %v, want nil (only index 0 registered)", got)
	}
	if got := d.Mesh(5); got != nil {
		t.Errorf("Mesh(5) = %v, want nil", got)
	}
}

func TestMeshNegativeResolvesToSystemMesh(t *testing.T) {
	d := New(nil, nil)
	m := d.Mesh(SystemMeshID(SystemCube))
	if m == nil {
		t.Fatal("Mesh(SystemMeshID(SystemCube)) = nil, want the built-in cube")
	}
	if len(m.Primitives) == 0 || m.Primitives[0].IndexCnt == 0 {
		t.Errorf("system cube mesh has no geometry: %+v", m)
	}
}

func TestMeshNegativeOutOfSystemRangeReturnsNil(t *testing.T) {
	d := New(nil, nil)
	if got := d.Mesh(-100); got != nil {
		t.Errorf("Mesh(-100) = %v, want nil", got)
	}
}

func TestMaterialOutOfRangeReturnsDefault(t *testing.T) {
	d := New(nil, nil)
	d.AddMaterial(DefaultMaterial())
	def := DefaultMaterial()
	if got := d.Material(-1); got != def {
		t.Errorf("Material(-1) = %+v, want DefaultMaterial", got)
	}
	if got := d.Material(7); got != def {
		t.Errorf("Material(7) = %+v, want DefaultMaterial", got)
	}
}

func TestPendingTexturesRoundTrip(t *testing.T) {
	d := New(nil, nil)
	tex := d.AddTexture(nil)
	pending := d.PendingTextures()
	if len(pending) != 1 || pending[0] != int(tex) {
		t.Fatalf("PendingTextures = %v, want [%d]", pending, tex)
	}
	d.MarkTextureResident(tex)
	if len(d.PendingTextures()) != 0 {
		t.Error("texture still pending after MarkTextureResident")
	}
}
