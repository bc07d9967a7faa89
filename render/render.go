// Package render implements the indirect renderer (C9): the
// per-frame orchestrator that ties the entity registry, scene graph,
// asset database, staging allocator, deferred-destruction queue and
// batcher together into the update -> dispatchSkinning -> draw
// sequence driven by an rhi.FrameOrchestrator.
package render

import (
	"math"

	"github.com/pnkrengine/core/asset"
	"github.com/pnkrengine/core/batch"
	"github.com/pnkrengine/core/ecs"
	"github.com/pnkrengine/core/gpuqueue"
	"github.com/pnkrengine/core/linear"
	"github.com/pnkrengine/core/rhi"
	"github.com/pnkrengine/core/scenegraph"
	"github.com/pnkrengine/core/staging"
)

// MeshRef binds an entity to the mesh and primitive it draws; the
// primitive's own Material index (in asset.Database) decides its
// batch bucket. It is a component: attach it to any entity that also
// carries scenegraph.WorldTransform to make it drawable.
type MeshRef struct {
	Mesh      int
	Primitive int
}

// SkinRef binds an entity to the skin (joint hierarchy) used to
// compute its current joint palette. JointNodes maps each
// asset.Skin joint index to the scenegraph entity driving it.
type SkinRef struct {
	Skin       int
	JointNodes []ecs.Entity
}

// Camera describes the viewpoint used for culling distance and for
// the view-projection matrix handed to the draw callback.
type Camera struct {
	ViewProj linear.M4
	Position linear.V3
}

// Renderer is the per-frame orchestrator. Apart from the device-local
// transform and indirect-command buffers that Draw creates, it owns no
// GPU resources; the rest live in the asset.Database,
// staging.Allocator and gpuqueue.Queue it is constructed with.
type Renderer struct {
	gpu     rhi.GPU
	reg     *ecs.Registry
	graph   *scenegraph.Graph
	db      *asset.Database
	dq      *gpuqueue.Queue
	staging *staging.Allocator
	batcher *batch.Batcher

	frame      uint64
	jointPoses []linear.M4 // scratch, reused across dispatchSkinning calls

	transformsBuf rhi.Buffer // device-local, rebuilt by Draw when a frame needs more room
	indirectBuf   rhi.Buffer
}

// New returns a Renderer wired to the given subsystems. reg and graph
// must share the same underlying ecs.Registry.
func New(gpu rhi.GPU, reg *ecs.Registry, graph *scenegraph.Graph, db *asset.Database, dq *gpuqueue.Queue, sa *staging.Allocator) *Renderer {
	return &Renderer{
		gpu:     gpu,
		reg:     reg,
		graph:   graph,
		db:      db,
		dq:      dq,
		staging: sa,
		batcher: batch.NewBatcher(),
	}
}

// Update advances frame-scoped state: it propagates the scene graph's
// dirty transforms and allocates a new frame index for this frame's
// uploads, handing it to the asset database. Completed GPU work is
// retired separately, by NotifyFrameCompleted.
func (r *Renderer) Update(dt float64) {
	r.graph.UpdateTransforms()
	r.frame = r.staging.NextBatch()
	r.db.SetFrame(r.frame)
}

// NotifyFrameCompleted must be called once the GPU has finished all
// work tagged with frame, typically from the presentation fence
// callback. It retires deferred buffer/image destruction and frees
// any staging ring pages that frame was holding.
func (r *Renderer) NotifyFrameCompleted(frame uint64) {
	r.dq.NotifyCompleted(frame)
	r.staging.NotifyBatchComplete(frame)
}

// dispatchSkinning computes each skinned entity's joint palette
// (world-space inverse-bind-corrected matrices) and uploads it
// through the staging allocator. It must run after Update so that
// scene graph world transforms are current.
func (r *Renderer) dispatchSkinning(cb rhi.CmdBuffer) error {
	skinned := ecs.View2[SkinRef, scenegraph.WorldTransform](r.reg)
	var uploadErr error
	skinned(func(e ecs.Entity, sr *SkinRef, _ *scenegraph.WorldTransform) bool {
		skin := r.db.Skin(sr.Skin)
		n := len(skin.Joints)
		if cap(r.jointPoses) < n {
			r.jointPoses = make([]linear.M4, n)
		}
		poses := r.jointPoses[:n]
		for i, joint := range skin.Joints {
			world := ecs.Get[scenegraph.WorldTransform](r.reg, sr.JointNodes[i])
			if world == nil {
				continue
			}
			poses[i].Mul(&world.M, &joint.InverseBind)
		}
		size := int64(n) * 64
		res, err := r.staging.Reserve(size, r.frame)
		if err != nil {
			uploadErr = err
			return false
		}
		buf := res.Bytes()
		for i := range poses {
			writeM4(buf[i*64:], &poses[i])
		}
		return true
	})
	return uploadErr
}

func writeM4(b []byte, m *linear.M4) {
	k := 0
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			bits := math.Float32bits(m[col][row])
			b[k] = byte(bits)
			b[k+1] = byte(bits >> 8)
			b[k+2] = byte(bits >> 16)
			b[k+3] = byte(bits >> 24)
			k += 4
		}
	}
}

// gatherDraws builds the batch.Draw list for every drawable entity
// currently in the registry (one MeshRef + WorldTransform pair per
// entity, giving one Draw for the primitive its MeshRef names). A MeshRef
// naming a mesh or primitive that no longer exists is dropped
// silently rather than crashing the frame; an out-of-range material
// index resolves to DefaultMaterial (Opaque) the same way.
func (r *Renderer) gatherDraws(cam *Camera) []batch.Draw {
	var vbAddr uint64
	if vb := r.db.VertexBuffer(); vb != nil {
		vbAddr = vb.DeviceAddress()
	}
	var draws []batch.Draw
	view := ecs.View2[MeshRef, scenegraph.WorldTransform](r.reg)
	view(func(e ecs.Entity, mr *MeshRef, wt *scenegraph.WorldTransform) bool {
		mesh := r.db.Mesh(mr.Mesh)
		if mesh == nil || mr.Primitive < 0 || mr.Primitive >= len(mesh.Primitives) {
			return true
		}
		prim := &mesh.Primitives[mr.Primitive]
		mat := r.db.Material(prim.Material)
		dx := wt.M[3][0] - cam.Position[0]
		dy := wt.M[3][1] - cam.Position[1]
		dz := wt.M[3][2] - cam.Position[2]
		draws = append(draws, batch.Draw{
			Entity:           e,
			Primitive:        prim,
			Material:         &mat,
			MaterialIdx:      prim.Material,
			MeshIndex:        mr.Mesh,
			DistSq:           dx*dx + dy*dy + dz*dz,
			World:            wt.M,
			VertexBufferAddr: vbAddr,
		})
		return true
	})
	return draws
}

// transformRecordSize and indirectCmdSize are the GPU-visible byte
// sizes of batch.Transform and rhi.IndirectCmd, matching writeTransform
// and writeIndirectCmd below.
const (
	transformRecordSize = 64 + 64 + 8 + 4 + 4
	indirectCmdSize     = 4 + 4 + 4 + 4 + 4
)

func writeTransform(b []byte, t *batch.Transform) {
	writeM4(b, &t.World)
	writeM4(b[64:], &t.WorldInvTranspose)
	putU64(b[128:], t.VertexBufferAddr)
	putU32(b[136:], uint32(t.MaterialIndex))
	putU32(b[140:], uint32(t.MeshIndex))
}

func writeIndirectCmd(b []byte, c *rhi.IndirectCmd) {
	putU32(b, c.IndexCount)
	putU32(b[4:], c.InstanceCount)
	putU32(b[8:], c.FirstIndex)
	putU32(b[12:], uint32(c.VertexOffset))
	putU32(b[16:], c.FirstInstance)
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putU64(b []byte, v uint64) {
	putU32(b, uint32(v))
	putU32(b[4:], uint32(v>>32))
}

// ensureDeviceBuffer returns old if it already has at least size
// bytes of capacity, otherwise creates a replacement of exactly size
// and defers old's destruction (if any) past the current frame, since
// in-flight command buffers may still reference it.
func (r *Renderer) ensureDeviceBuffer(old rhi.Buffer, size int64, usg rhi.Usage) (rhi.Buffer, error) {
	if old != nil && old.Cap() >= size {
		return old, nil
	}
	buf, err := r.gpu.NewBuffer(size, false, usg|rhi.UCopyDst)
	if err != nil {
		return nil, err
	}
	if old != nil {
		o := old
		r.dq.Defer(r.frame, o.Destroy)
	}
	return buf, nil
}

// Draw performs this frame's full sequence: skinning dispatch,
// batching, uploading the resulting transforms and non-empty indirect
// command layers into per-frame device-local buffers (staged through
// the ring allocator and copied in with CopyBuffer), then recording
// one DrawIndexedIndirect per non-empty layer into cb.
func (r *Renderer) Draw(cb rhi.CmdBuffer, cam *Camera) error {
	if err := r.dispatchSkinning(cb); err != nil {
		return err
	}
	draws := r.gatherDraws(cam)
	result := r.batcher.Build(draws)
	if len(result.Transforms) == 0 {
		return nil
	}

	transformsRes, err := r.staging.Reserve(int64(len(result.Transforms))*transformRecordSize, r.frame)
	if err != nil {
		return err
	}
	tb := transformsRes.Bytes()
	for i := range result.Transforms {
		writeTransform(tb[i*transformRecordSize:], &result.Transforms[i])
	}

	var cmdCount int
	for i := range result.Layers {
		cmdCount += len(result.Layers[i].Commands)
	}
	cmdsRes, err := r.staging.Reserve(int64(cmdCount)*indirectCmdSize, r.frame)
	if err != nil {
		return err
	}
	cmdBytes := cmdsRes.Bytes()
	layerOffsets := make([]int64, len(result.Layers))
	var off int64
	for i := range result.Layers {
		layer := &result.Layers[i]
		layerOffsets[i] = off
		for j := range layer.Commands {
			writeIndirectCmd(cmdBytes[off+int64(j)*indirectCmdSize:], &layer.Commands[j])
		}
		off += int64(len(layer.Commands)) * indirectCmdSize
	}

	r.transformsBuf, err = r.ensureDeviceBuffer(r.transformsBuf, transformsRes.Size(), rhi.UShaderRead)
	if err != nil {
		return err
	}
	r.indirectBuf, err = r.ensureDeviceBuffer(r.indirectBuf, cmdsRes.Size(), rhi.UIndirect)
	if err != nil {
		return err
	}

	cb.BeginBlit(true)
	cb.CopyBuffer(&rhi.BufferCopy{
		From: transformsRes.Buffer(), FromOff: transformsRes.Offset(),
		To: r.transformsBuf, ToOff: 0, Size: transformsRes.Size(),
	})
	cb.CopyBuffer(&rhi.BufferCopy{
		From: cmdsRes.Buffer(), FromOff: cmdsRes.Offset(),
		To: r.indirectBuf, ToOff: 0, Size: cmdsRes.Size(),
	})
	cb.EndBlit()

	for i := range result.Layers {
		n := len(result.Layers[i].Commands)
		if n == 0 {
			continue
		}
		cb.DrawIndexedIndirect(r.indirectBuf, layerOffsets[i], n, indirectCmdSize)
	}
	return nil
}
