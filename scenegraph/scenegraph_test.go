package scenegraph

import (
	"testing"

	"github.com/pnkrengine/core/ecs"
	"github.com/pnkrengine/core/linear"
)

func translation(x, y, z float32) linear.M4 {
	var m linear.M4
	m.I()
	m[3][0], m[3][1], m[3][2] = x, y, z
	return m
}

func TestCreateNodeIsRoot(t *testing.T) {
	g := New(ecs.NewRegistry())
	n := g.CreateNode()
	root, ok := g.Root()
	if !ok || root != n {
		t.Fatalf("Root() = (%v, %v), want (%v, true)", root, ok, n)
	}
}

func TestSetParentRejectsCycle(t *testing.T) {
	g := New(ecs.NewRegistry())
	a := g.CreateNode()
	b := g.CreateNode()
	if err := g.SetParent(b, a); err != nil {
		t.Fatalf("SetParent(b, a): %v", err)
	}
	if err := g.SetParent(a, b); err != ErrCycle {
		t.Errorf("SetParent(a, b) = %v, want ErrCycle", err)
	}
}

func TestUpdateTransformsPropagatesToChildren(t *testing.T) {
	g := New(ecs.NewRegistry())
	parent := g.CreateNode()
	child := g.CreateNode()
	if err := g.SetParent(child, parent); err != nil {
		t.Fatal(err)
	}
	g.SetLocal(parent, translation(1, 0, 0))
	g.SetLocal(child, translation(0, 2, 0))
	g.UpdateTransforms()

	cw := ecs.Get[WorldTransform](g.reg, child).M
	if cw[3][0] != 1 || cw[3][1] != 2 {
		t.Errorf("child world translation = (%v, %v), want (1, 2)", cw[3][0], cw[3][1])
	}
}

func TestUpdateTransformsRecomputesCleanChildOfDirtyParent(t *testing.T) {
	g := New(ecs.NewRegistry())
	parent := g.CreateNode()
	child := g.CreateNode()
	g.SetParent(child, parent)
	g.UpdateTransforms()

	childLocal := ecs.Get[LocalTransform](g.reg, child)
	childLocal.Dirty = false
	parentLocal := ecs.Get[LocalTransform](g.reg, parent)
	parentLocal.Dirty = false

	g.SetLocal(parent, translation(5, 0, 0))
	g.UpdateTransforms()

	cw := ecs.Get[WorldTransform](g.reg, child).M
	if cw[3][0] != 5 {
		t.Errorf("child did not inherit parent's new transform: got %v, want 5", cw[3][0])
	}
}

func TestDestroyNodeRemovesSubtree(t *testing.T) {
	g := New(ecs.NewRegistry())
	parent := g.CreateNode()
	child := g.CreateNode()
	g.SetParent(child, parent)
	g.DestroyNode(parent)
	if g.reg.Alive(parent) || g.reg.Alive(child) {
		t.Error("DestroyNode left entities alive")
	}
}

func TestTopoOrderParentBeforeChild(t *testing.T) {
	g := New(ecs.NewRegistry())
	parent := g.CreateNode()
	child := g.CreateNode()
	g.SetParent(child, parent)
	order := g.TopoOrder()
	pi, ci := -1, -1
	for i, e := range order {
		if e == parent {
			pi = i
		}
		if e == child {
			ci = i
		}
	}
	if pi < 0 || ci < 0 || pi > ci {
		t.Errorf("topo order = %v, parent must precede child", order)
	}
}
