package texstream

import (
	"testing"

	"github.com/pnkrengine/core/rhi"
)

func chain2x2() MipChain {
	return MipChain{
		Format: rhi.RGBA8un,
		Levels: []LevelExtent{
			{Width: 4, Height: 4},
			{Width: 2, Height: 2},
			{Width: 1, Height: 1},
		},
		Layers: 1,
		Faces:  1,
	}
}

func TestLowToHighStreamsCoarsestLevelFirst(t *testing.T) {
	r := NewRequest(chain2x2(), LowToHighRes)
	c, ok := r.PlanNextCopy(1 << 20)
	if !ok {
		t.Fatal("expected a copy")
	}
	if c.Level != 2 {
		t.Errorf("first Copy.Level = %d, want 2 (coarsest)", c.Level)
	}
}

func TestHighToLowStreamsFinestLevelFirst(t *testing.T) {
	r := NewRequest(chain2x2(), HighToLowRes)
	c, ok := r.PlanNextCopy(1 << 20)
	if !ok {
		t.Fatal("expected a copy")
	}
	if c.Level != 0 {
		t.Errorf("first Copy.Level = %d, want 0 (finest)", c.Level)
	}
}

func TestPlanNextCopyRespectsByteBudget(t *testing.T) {
	r := NewRequest(chain2x2(), HighToLowRes)
	// Level 0 is 4x4 RGBA8 = 16 bytes/row; cap the budget to force a
	// row-by-row walk instead of the whole level in one copy.
	c, ok := r.PlanNextCopy(16)
	if !ok {
		t.Fatal("expected a copy")
	}
	if c.RowCount != 1 {
		t.Errorf("RowCount = %d, want 1 under a one-row budget", c.RowCount)
	}
}

func TestRequestCompletesAfterAllLevels(t *testing.T) {
	r := NewRequest(chain2x2(), LowToHighRes)
	count := 0
	for {
		_, ok := r.PlanNextCopy(1 << 20)
		if !ok {
			break
		}
		count++
		if count > 100 {
			t.Fatal("request never completed")
		}
	}
	if !r.Done() {
		t.Error("Done() = false after PlanNextCopy returned ok=false")
	}
	if count != 3 {
		t.Errorf("planned %d copies, want 3 (one per level, budget covers whole level)", count)
	}
}
