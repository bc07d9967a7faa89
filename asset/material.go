package asset

import "errors"

const prefix = "asset: "

func newErr(reason string) error { return errors.New(prefix + reason) }

// TexSlot names a texture binding point within Material. Every slot
// is optional; a TexRef whose Tex is InvalidTexture means the
// slot is unused and its Factor/scalar fields apply uniformly.
type TexSlot int

// The 18 texture slots the PBR material model exposes. Not every
// slot is meaningful for every AlphaMode/model combination, but all
// are always addressable so texstream and batch can treat materials
// uniformly instead of branching on which extensions are active.
const (
	SlotBaseColor TexSlot = iota
	SlotMetalRough
	SlotNormal
	SlotOcclusion
	SlotEmissive
	SlotTransmission
	SlotThickness // volume extension
	SlotClearcoat
	SlotClearcoatRough
	SlotClearcoatNormal
	SlotSheenColor
	SlotSheenRough
	SlotSpecular        // specular-glossiness / KHR_materials_specular
	SlotSpecularColor
	SlotGlossiness // specular-glossiness legacy model
	SlotAnisotropy
	SlotIridescence
	SlotIridescenceThickness

	SlotCount
)

// Texture identifies a texture owned by a Database, by index into
// Database.textures. InvalidTexture marks an unused slot.
type Texture int32

// InvalidTexture marks a TexRef with no bound texture.
const InvalidTexture Texture = -1

// TexRef identifies a single 2D view of a texture, the sampler used
// to read it, and which mesh UV set feeds its texture coordinates.
type TexRef struct {
	Tex     Texture
	View    int
	Sampler int // index into Database.samplers
	UVSet   int
}

// UV sets, matching the mesh vertex semantics TexCoord0/TexCoord1.
const (
	UVSet0 = iota
	UVSet1
)

func (t TexRef) bound() bool { return t.Tex != InvalidTexture }

// AlphaMode controls how a material's alpha channel is interpreted.
type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// Material is the full PBR material model: the metallic-roughness
// base plus every KHR_materials_* extension group the importer may
// have to carry through from a glTF source. Every texture-bearing
// field pairs a TexRef (SlotCount of them, addressed by TexSlot) with
// the scalar/vector factors the corresponding extension defines.
type Material struct {
	Tex [SlotCount]TexRef

	BaseColorFactor [4]float32
	MetalnessFactor float32
	RoughnessFactor float32
	NormalScale     float32
	OcclusionStr    float32
	EmissiveFactor  [3]float32
	EmissiveStrength float32

	AlphaMode   AlphaMode
	AlphaCutoff float32
	DoubleSided bool
	IOR         float32 // KHR_materials_ior, default 1.5

	// KHR_materials_transmission + KHR_materials_volume.
	TransmissionFactor float32
	ThicknessFactor    float32
	AttenuationDist    float32
	AttenuationColor   [3]float32

	// KHR_materials_clearcoat.
	ClearcoatFactor    float32
	ClearcoatRoughness float32

	// KHR_materials_sheen.
	SheenColorFactor [3]float32
	SheenRoughness   float32

	// KHR_materials_specular.
	SpecularFactor      float32
	SpecularColorFactor [3]float32

	// KHR_materials_pbrSpecularGlossiness (legacy, mutually
	// exclusive in practice with metallic-roughness, but both are
	// carried so the importer never has to drop source data).
	DiffuseFactor    [4]float32
	SpecGlossFactor  [3]float32
	GlossinessFactor float32

	// KHR_materials_anisotropy.
	AnisotropyStrength float32
	AnisotropyRotation float32

	// KHR_materials_iridescence.
	IridescenceFactor       float32
	IridescenceIOR          float32
	IridescenceThicknessMin float32
	IridescenceThicknessMax float32
}

// DefaultMaterial returns a Material with every factor at the glTF
// spec's default value and no textures bound.
func DefaultMaterial() Material {
	m := Material{
		BaseColorFactor: [4]float32{1, 1, 1, 1},
		MetalnessFactor: 1,
		RoughnessFactor: 1,
		NormalScale:     1,
		OcclusionStr:    1,
		IOR:             1.5,
		AttenuationDist: float32(1e38), // effectively infinite, no absorption
		AttenuationColor: [3]float32{1, 1, 1},
		SpecularFactor:      1,
		SpecularColorFactor: [3]float32{1, 1, 1},
		DiffuseFactor:       [4]float32{1, 1, 1, 1},
		GlossinessFactor:    1,
		IridescenceIOR:      1.3,
		IridescenceThicknessMax: 100,
	}
	for i := range m.Tex {
		m.Tex[i].Tex = InvalidTexture
	}
	return m
}

// IsTransmissive reports whether the transmission extension is
// active for this material, i.e., light may pass through it.
func (m *Material) IsTransmissive() bool { return m.TransmissionFactor > 0 }

func (m *Material) validate() error {
	for i := range m.Tex {
		if m.Tex[i].bound() && m.Tex[i].UVSet != UVSet0 && m.Tex[i].UVSet != UVSet1 {
			return newErr("undefined UV set constant")
		}
	}
	switch m.AlphaMode {
	case AlphaOpaque, AlphaMask, AlphaBlend:
	default:
		return newErr("undefined alpha mode constant")
	}
	if m.TransmissionFactor < 0 || m.TransmissionFactor > 1 {
		return newErr("TransmissionFactor outside [0.0, 1.0] interval")
	}
	if m.ClearcoatFactor < 0 || m.ClearcoatFactor > 1 {
		return newErr("ClearcoatFactor outside [0.0, 1.0] interval")
	}
	if m.IOR < 1 {
		return newErr("IOR less than 1.0")
	}
	return nil
}
