package ecs

import "testing"

type Position struct{ X, Y float32 }
type Velocity struct{ X, Y float32 }

func TestCreateDestroyRecyclesID(t *testing.T) {
	r := NewRegistry()
	e1 := r.Create()
	e2 := r.Create()
	if e1 == e2 {
		t.Fatalf("Create returned duplicate entity %v", e1)
	}
	r.Destroy(e1)
	if r.Alive(e1) {
		t.Error("entity still alive after Destroy")
	}
	e3 := r.Create()
	if e3 != e1 {
		t.Errorf("Create did not reuse freed id: got %v, want %v", e3, e1)
	}
}

func TestEmplaceGetRemove(t *testing.T) {
	r := NewRegistry()
	e := r.Create()
	Emplace(r, e, Position{1, 2})
	p := Get[Position](r, e)
	if p == nil || p.X != 1 || p.Y != 2 {
		t.Fatalf("Get returned %v", p)
	}
	if !Has[Position](r, e) {
		t.Error("Has returned false after Emplace")
	}
	if !Remove[Position](r, e) {
		t.Error("Remove returned false for present component")
	}
	if Has[Position](r, e) {
		t.Error("Has returned true after Remove")
	}
}

func TestSwapRemovePreservesOthers(t *testing.T) {
	r := NewRegistry()
	es := make([]Entity, 5)
	for i := range es {
		es[i] = r.Create()
		Emplace(r, es[i], Position{float32(i), 0})
	}
	Remove[Position](r, es[2])
	for i, e := range es {
		if i == 2 {
			continue
		}
		p := Get[Position](r, e)
		if p == nil || p.X != float32(i) {
			t.Errorf("entity %d: got %v, want X=%d", i, p, i)
		}
	}
}

func TestDestroyRemovesAllComponents(t *testing.T) {
	r := NewRegistry()
	e := r.Create()
	Emplace(r, e, Position{1, 1})
	Emplace(r, e, Velocity{2, 2})
	r.Destroy(e)
	if Count[Position](r) != 0 || Count[Velocity](r) != 0 {
		t.Error("Destroy did not clear component pools")
	}
}

func TestView2(t *testing.T) {
	r := NewRegistry()
	moving := r.Create()
	Emplace(r, moving, Position{0, 0})
	Emplace(r, moving, Velocity{1, 1})
	still := r.Create()
	Emplace(r, still, Position{5, 5})

	seen := 0
	View2[Position, Velocity](r)(func(e Entity, p *Position, v *Velocity) bool {
		seen++
		if e != moving {
			t.Errorf("View2 yielded unexpected entity %v", e)
		}
		p.X += v.X
		return true
	})
	if seen != 1 {
		t.Errorf("View2 yielded %d entities, want 1", seen)
	}
	if p := Get[Position](r, moving); p.X != 1 {
		t.Errorf("View2 pointer did not allow mutation: X=%v", p.X)
	}
}

func TestRegistryClearResetsEverything(t *testing.T) {
	r := NewRegistry()
	a := r.Create()
	Emplace(r, a, Position{1, 2})
	r.Create()

	r.Clear()

	if Count[Position](r) != 0 {
		t.Error("Clear left a component pool non-empty")
	}
	if r.Alive(a) {
		t.Error("Clear left an old entity alive")
	}
	fresh := r.Create()
	if fresh != firstEntity {
		t.Errorf("Create after Clear = %v, want id counter reset to %v", fresh, firstEntity)
	}
}

func TestCommandBufferDeferredCreate(t *testing.T) {
	r := NewRegistry()
	cb := NewCommandBuffer()
	tok := cb.CreateDeferred()
	EmplaceDeferred(cb, tok, Position{3, 4})
	if Count[Position](r) != 0 {
		t.Fatal("component visible before Execute")
	}
	cb.Execute(r)
	if Count[Position](r) != 1 {
		t.Fatal("component not applied after Execute")
	}
}
