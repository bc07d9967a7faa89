package render

import (
	"testing"

	"github.com/pnkrengine/core/asset"
	"github.com/pnkrengine/core/ecs"
	"github.com/pnkrengine/core/gpuqueue"
	"github.com/pnkrengine/core/linear"
	"github.com/pnkrengine/core/scenegraph"
	"github.com/pnkrengine/core/staging"
)

func newTestRenderer(t *testing.T) (*Renderer, *ecs.Registry, *scenegraph.Graph, *asset.Database) {
	t.Helper()
	gpu := fakeGPU{}
	reg := ecs.NewRegistry()
	graph := scenegraph.New(reg)
	dq := &gpuqueue.Queue{}
	db := asset.New(gpu, dq)
	sa, err := staging.New(gpu, 4096, 4096*4)
	if err != nil {
		t.Fatalf("staging.New: %v", err)
	}
	return New(gpu, reg, graph, db, dq, sa), reg, graph, db
}

func identityM4() linear.M4 {
	var m linear.M4
	m.I()
	return m
}

func TestDrawIssuesOneIndirectCallPerNonEmptyBucket(t *testing.T) {
	r, reg, graph, db := newTestRenderer(t)

	verts := []asset.Vertex{{}, {}, {}}
	mesh := asset.Mesh{Primitives: []asset.Primitive{{VertexCnt: 3, IndexCnt: 3, Material: -1}}}
	meshIdx := db.AddMesh(mesh)

	e := graph.CreateNode()
	ecs.Emplace(reg, e, MeshRef{Mesh: meshIdx, Primitive: 0})
	_ = verts

	r.Update(1.0 / 60)

	cb := &fakeCmdBuffer{}
	cam := &Camera{ViewProj: identityM4()}
	if err := r.Draw(cb, cam); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(cb.indirectCalls) != 1 {
		t.Fatalf("indirectCalls = %d, want 1", len(cb.indirectCalls))
	}
	if cb.indirectCalls[0].drawCount != 1 {
		t.Errorf("drawCount = %d, want 1", cb.indirectCalls[0].drawCount)
	}
}

func TestDrawSkipsEmptyBuckets(t *testing.T) {
	r, _, _, _ := newTestRenderer(t)
	r.Update(1.0 / 60)

	cb := &fakeCmdBuffer{}
	cam := &Camera{ViewProj: identityM4()}
	if err := r.Draw(cb, cam); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(cb.indirectCalls) != 0 {
		t.Errorf("indirectCalls = %d, want 0 for an empty scene", len(cb.indirectCalls))
	}
}

func TestDispatchSkinningWritesJointPalette(t *testing.T) {
	r, reg, graph, db := newTestRenderer(t)

	joint := graph.CreateNode()
	ecs.Emplace(reg, joint, scenegraph.WorldTransform{M: identityM4()})

	skinIdx := db.AddSkin(asset.Skin{Joints: []asset.Joint{
		{InverseBind: identityM4()},
	}})

	skinned := graph.CreateNode()
	ecs.Emplace(reg, skinned, scenegraph.WorldTransform{M: identityM4()})
	ecs.Emplace(reg, skinned, SkinRef{Skin: skinIdx, JointNodes: []ecs.Entity{joint}})

	r.Update(1.0 / 60)
	cb := &fakeCmdBuffer{}
	if err := r.dispatchSkinning(cb); err != nil {
		t.Fatalf("dispatchSkinning: %v", err)
	}
	if len(r.jointPoses) != 1 || r.jointPoses[0] != identityM4() {
		t.Errorf("joint palette = %v, want one identity matrix", r.jointPoses)
	}
}

func TestNotifyFrameCompletedRetiresQueues(t *testing.T) {
	r, _, _, _ := newTestRenderer(t)
	frame := r.staging.NextBatch()
	r.dq.Defer(frame, func() {})
	r.NotifyFrameCompleted(frame)
	if r.dq.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0 after NotifyFrameCompleted", r.dq.Pending())
	}
}
