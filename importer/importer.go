// Package importer defines the engine's intermediate asset
// representation (ImportedModel) and the logic that uploads one into
// a running ecs.Registry/scenegraph.Graph/asset.Database. It does not
// parse any source format itself - a glTF, FBX or other front-end
// produces an ImportedModel and hands it to Upload.
package importer

import (
	"github.com/pnkrengine/core/asset"
	"github.com/pnkrengine/core/ecs"
	"github.com/pnkrengine/core/linear"
	"github.com/pnkrengine/core/loader"
	"github.com/pnkrengine/core/render"
	"github.com/pnkrengine/core/scenegraph"
)

// ImportedTexture is a texture reference awaiting the loader's
// decode/stream pipeline.
type ImportedTexture struct {
	SourcePath string
	IsSRGB     bool
	Priority   loader.Priority
}

// ImportedTextureSlot binds a material channel to a texture and the
// UV set it samples with.
type ImportedTextureSlot struct {
	TextureIndex int // -1 if unused
	UVChannel    int
}

// ImportedPrimitive is one mesh part: a CPU vertex/index buffer pair
// plus the material it uses.
type ImportedPrimitive struct {
	Vertices      []asset.Vertex
	Indices       []uint32
	MaterialIndex int
	Morphs        []asset.MorphTargetInfo
}

// ImportedMesh groups the primitives that make up one drawable asset.
type ImportedMesh struct {
	Name       string
	Primitives []ImportedPrimitive
}

// ImportedMaterial mirrors asset.Material plus the texture slot
// bindings Upload resolves against the model's Textures list.
type ImportedMaterial struct {
	Base asset.Material

	BaseColor            ImportedTextureSlot
	Normal               ImportedTextureSlot
	MetallicRoughness    ImportedTextureSlot
	Occlusion            ImportedTextureSlot
	Emissive             ImportedTextureSlot
	Clearcoat            ImportedTextureSlot
	ClearcoatRoughness   ImportedTextureSlot
	ClearcoatNormal      ImportedTextureSlot
	Specular             ImportedTextureSlot
	SpecularColor        ImportedTextureSlot
	Transmission         ImportedTextureSlot
	SheenColor           ImportedTextureSlot
	SheenRoughness       ImportedTextureSlot
	Anisotropy           ImportedTextureSlot
	Iridescence          ImportedTextureSlot
	IridescenceThickness ImportedTextureSlot
	VolumeThickness      ImportedTextureSlot
}

// ImportedNode is one entry in the model's flat node array; Upload
// turns it into a scenegraph entity and wires Parent/children.
type ImportedNode struct {
	Name           string
	LocalTransform linear.M4
	ParentIndex    int // -1 for a root
	MeshIndex      int // -1 if not a mesh instance
	SkinIndex      int // -1 if not skinned
}

// ImportedModel is the front-end-agnostic result of importing a
// scene file: everything Upload needs to populate a Database and a
// scene graph, and nothing about how it was parsed.
type ImportedModel struct {
	Textures  []ImportedTexture
	Materials []ImportedMaterial
	Meshes    []ImportedMesh
	Nodes     []ImportedNode
	Skins     []asset.Skin
	RootNodes []int
}

// UploadResult maps the ImportedModel's local indices to the indices
// Upload assigned them in the Database, and the scenegraph entities
// created for each node.
type UploadResult struct {
	MeshIndex     []int
	MaterialIndex []int
	SkinIndex     []int
	TextureOf     []asset.Texture
	NodeEntity    []ecs.Entity
}

// Upload appends an ImportedModel's meshes, materials and skins to db
// and instantiates its node hierarchy in graph, returning the index
// mappings needed to later resolve texture streaming requests and
// MeshRef/SkinRef components.
func Upload(m *ImportedModel, reg *ecs.Registry, graph *scenegraph.Graph, db *asset.Database) (UploadResult, error) {
	res := UploadResult{
		MeshIndex:     make([]int, len(m.Meshes)),
		MaterialIndex: make([]int, len(m.Materials)),
		SkinIndex:     make([]int, len(m.Skins)),
		TextureOf:     make([]asset.Texture, len(m.Textures)),
		NodeEntity:    make([]ecs.Entity, len(m.Nodes)),
	}

	for i, t := range m.Textures {
		_ = t // Upload registers no texture in db; every TextureOf entry stays InvalidTexture, so material slots resolve unbound.
		res.TextureOf[i] = asset.InvalidTexture
	}

	for i, im := range m.Materials {
		mat := im.Base
		resolveSlot(&mat.Tex[asset.SlotBaseColor], im.BaseColor, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotNormal], im.Normal, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotMetalRough], im.MetallicRoughness, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotOcclusion], im.Occlusion, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotEmissive], im.Emissive, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotClearcoat], im.Clearcoat, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotClearcoatRough], im.ClearcoatRoughness, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotClearcoatNormal], im.ClearcoatNormal, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotSpecular], im.Specular, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotSpecularColor], im.SpecularColor, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotTransmission], im.Transmission, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotSheenColor], im.SheenColor, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotSheenRough], im.SheenRoughness, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotAnisotropy], im.Anisotropy, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotIridescence], im.Iridescence, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotIridescenceThickness], im.IridescenceThickness, res.TextureOf)
		resolveSlot(&mat.Tex[asset.SlotThickness], im.VolumeThickness, res.TextureOf)

		idx, err := db.AddMaterial(mat)
		if err != nil {
			return res, err
		}
		res.MaterialIndex[i] = idx
	}

	for i, s := range m.Skins {
		res.SkinIndex[i] = db.AddSkin(s)
	}

	for i, im := range m.Meshes {
		mesh := asset.Mesh{Primitives: make([]asset.Primitive, len(im.Primitives))}
		for pi, ip := range im.Primitives {
			matIdx := -1
			if ip.MaterialIndex < len(res.MaterialIndex) {
				matIdx = res.MaterialIndex[ip.MaterialIndex]
			}
			bounds := asset.AABB{}
			for _, v := range ip.Vertices {
				bounds = bounds.Union(asset.AABB{Min: v.Position, Max: v.Position})
			}
			prim := db.AppendPrimitiveMeshData(ip.Vertices, ip.Indices, asset.TTriangle, matIdx, bounds)
			prim.Morphs = ip.Morphs
			mesh.Primitives[pi] = prim
			mesh.Bounds = mesh.Bounds.Union(bounds)
		}
		res.MeshIndex[i] = db.AddMesh(mesh)
	}

	for i := range m.Nodes {
		res.NodeEntity[i] = graph.CreateNode()
	}
	for i, n := range m.Nodes {
		e := res.NodeEntity[i]
		graph.SetLocal(e, n.LocalTransform)
		if n.ParentIndex >= 0 {
			if err := graph.SetParent(e, res.NodeEntity[n.ParentIndex]); err != nil {
				return res, err
			}
		}
		if n.MeshIndex >= 0 {
			ecs.Emplace(reg, e, render.MeshRef{Mesh: res.MeshIndex[n.MeshIndex], Primitive: 0})
		}
		if n.SkinIndex >= 0 {
			ecs.Emplace(reg, e, render.SkinRef{Skin: res.SkinIndex[n.SkinIndex]})
		}
	}

	return res, nil
}

func resolveSlot(dst *asset.TexRef, slot ImportedTextureSlot, textures []asset.Texture) {
	if slot.TextureIndex < 0 || slot.TextureIndex >= len(textures) {
		dst.Tex = asset.InvalidTexture
		return
	}
	dst.Tex = textures[slot.TextureIndex]
	dst.UVSet = slot.UVChannel
}
