package batch

import (
	"testing"

	"github.com/pnkrengine/core/asset"
)

func opaqueMat() *asset.Material {
	m := asset.DefaultMaterial()
	return &m
}

func TestClassifyPriorities(t *testing.T) {
	cases := []struct {
		name string
		mat  func() *asset.Material
		want SortingType
	}{
		{"opaque", func() *asset.Material { return opaqueMat() }, Opaque},
		{"opaque double-sided", func() *asset.Material {
			m := opaqueMat()
			m.DoubleSided = true
			return m
		}, OpaqueDoubleSided},
		{"transmissive", func() *asset.Material {
			m := opaqueMat()
			m.TransmissionFactor = 0.5
			return m
		}, Transmission},
		{"transmissive double-sided", func() *asset.Material {
			m := opaqueMat()
			m.TransmissionFactor = 0.5
			m.DoubleSided = true
			return m
		}, TransmissionDoubleSided},
		{"blend wins over transmission", func() *asset.Material {
			m := opaqueMat()
			m.TransmissionFactor = 0.5
			m.AlphaMode = asset.AlphaBlend
			return m
		}, Transparent},
		{"blend alone", func() *asset.Material {
			m := opaqueMat()
			m.AlphaMode = asset.AlphaBlend
			return m
		}, Transparent},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.mat()); got != c.want {
				t.Errorf("Classify() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestFloatToOrderedIntPreservesOrder(t *testing.T) {
	vals := []float32{-100.0, -1.5, -0.001, 0, 0.001, 1.5, 100.0}
	for i := 1; i < len(vals); i++ {
		a := floatToOrderedInt(vals[i-1])
		b := floatToOrderedInt(vals[i])
		if a >= b {
			t.Errorf("floatToOrderedInt(%v)=%d not < floatToOrderedInt(%v)=%d", vals[i-1], a, vals[i], b)
		}
	}
}

func TestMakeKeyOrdersByTypeThenMaterialThenMesh(t *testing.T) {
	opaque := MakeKey(Opaque, 2, 5, 0)
	opaqueHigherMesh := MakeKey(Opaque, 2, 9, 0)
	transmission := MakeKey(Transmission, 0, 0, 0)

	if !(opaque < opaqueHigherMesh) {
		t.Errorf("within same type/material, higher mesh index should sort later")
	}
	if !(opaque < transmission) {
		t.Errorf("SortingType must dominate the key: opaque should sort before transmission regardless of material/mesh")
	}
}

func TestMakeKeyTransparentSortsBackToFront(t *testing.T) {
	near := MakeKey(Transparent, 0, 0, 4.0)
	far := MakeKey(Transparent, 0, 0, 100.0)
	if !(far < near) {
		t.Errorf("farther transparent draw should sort first (back-to-front): far=%d near=%d", far, near)
	}
}

// primWithIndexCount returns a Primitive distinguishable by its bounds,
// so a test can tell which input Draw an emitted Layer entry came from.
func primWithIndexCount(indexCnt int, tag float32) *asset.Primitive {
	return &asset.Primitive{
		IndexCnt: indexCnt,
		Bounds:   asset.AABB{Min: [3]float32{tag, 0, 0}},
	}
}

func TestBuildGroupsAndSortsPerBucket(t *testing.T) {
	b := NewBatcher()
	opaque := opaqueMat()
	blend := opaqueMat()
	blend.AlphaMode = asset.AlphaBlend

	draws := []Draw{
		{Entity: 1, Primitive: primWithIndexCount(6, 1), Material: opaque, MaterialIdx: 0, MeshIndex: 3},
		{Entity: 2, Primitive: primWithIndexCount(6, 2), Material: opaque, MaterialIdx: 0, MeshIndex: 1},
		{Entity: 3, Primitive: primWithIndexCount(6, 3), Material: blend, MaterialIdx: 1, MeshIndex: 0, DistSq: 10},
		{Entity: 4, Primitive: primWithIndexCount(6, 4), Material: blend, MaterialIdx: 1, MeshIndex: 0, DistSq: 1},
	}
	out := b.Build(draws)

	if len(out.Transforms) != len(draws) {
		t.Fatalf("Transforms len = %d, want %d", len(out.Transforms), len(draws))
	}

	opaqueLayer := out.Layers[Opaque]
	if len(opaqueLayer.Commands) != 2 {
		t.Fatalf("Opaque layer len = %d, want 2", len(opaqueLayer.Commands))
	}
	if opaqueLayer.Bounds[0].Min[0] != 2 || opaqueLayer.Bounds[1].Min[0] != 1 {
		t.Errorf("Opaque layer not sorted by mesh index: %+v", opaqueLayer.Bounds)
	}

	transparentLayer := out.Layers[Transparent]
	if len(transparentLayer.Commands) != 2 {
		t.Fatalf("Transparent layer len = %d, want 2", len(transparentLayer.Commands))
	}
	if transparentLayer.Bounds[0].Min[0] != 3 || transparentLayer.Bounds[1].Min[0] != 4 {
		t.Errorf("Transparent layer not sorted back-to-front: %+v", transparentLayer.Bounds)
	}

	if len(out.Layers[OpaqueDoubleSided].Commands) != 0 {
		t.Errorf("unused layer should be empty, got %v", out.Layers[OpaqueDoubleSided])
	}

	// Every command's FirstInstance must index a transform slot whose
	// material index classifies into that same bucket.
	for _, cmd := range opaqueLayer.Commands {
		xform := out.Transforms[cmd.FirstInstance]
		if xform.MaterialIndex != 0 {
			t.Errorf("FirstInstance %d points at transform with MaterialIndex %d, want 0 (opaque)", cmd.FirstInstance, xform.MaterialIndex)
		}
	}
}

func TestBuildEmptyInputYieldsAllEmptyLayers(t *testing.T) {
	b := NewBatcher()
	out := b.Build(nil)
	if len(out.Transforms) != 0 {
		t.Errorf("Transforms not empty on empty input: %v", out.Transforms)
	}
	for i, layer := range out.Layers {
		if len(layer.Commands) != 0 || len(layer.MeshIndices) != 0 || len(layer.Bounds) != 0 {
			t.Errorf("layer %d not empty on empty input: %+v", i, layer)
		}
	}
}

func TestBuildSetsVolumetricMaterialFlag(t *testing.T) {
	b := NewBatcher()
	plain := opaqueMat()
	plain.IOR = 1 // DefaultMaterial's IOR of 1.5 alone would already count as volumetric
	thick := opaqueMat()
	thick.ThicknessFactor = 0.5

	out := b.Build([]Draw{{Primitive: primWithIndexCount(3, 0), Material: plain}})
	if out.VolumetricMaterial {
		t.Error("VolumetricMaterial set with no volumetric material present")
	}

	out = b.Build([]Draw{{Primitive: primWithIndexCount(3, 0), Material: thick}})
	if !out.VolumetricMaterial {
		t.Error("VolumetricMaterial not set for a ThicknessFactor > 0 material")
	}
	if Classify(thick) != Opaque {
		t.Error("volumetric flag must not change the draw's bucket")
	}
}

func TestBuildIndirectCmdFieldsMatchPrimitive(t *testing.T) {
	b := NewBatcher()
	mat := opaqueMat()
	simple := &asset.Primitive{IndexCnt: 12}
	out := b.Build([]Draw{{Primitive: simple, Material: mat, MeshIndex: 7}})
	cmd := out.Layers[Opaque].Commands[0]
	if cmd.IndexCount != 12 {
		t.Errorf("IndexCount = %d, want 12", cmd.IndexCount)
	}
	if cmd.InstanceCount != 1 {
		t.Errorf("InstanceCount = %d, want 1", cmd.InstanceCount)
	}
	if cmd.FirstInstance != 0 {
		t.Errorf("FirstInstance = %d, want 0 (first transform slot)", cmd.FirstInstance)
	}
	if out.Layers[Opaque].MeshIndices[0] != 7 {
		t.Errorf("MeshIndices[0] = %d, want 7", out.Layers[Opaque].MeshIndices[0])
	}
}
