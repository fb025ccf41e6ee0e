package gosymdiff_test

import (
	"errors"
	"math"
	"testing"

	"github.com/njchilds90/gosymdiff"
)

// ============================================================
// Arena tests
// ============================================================

func TestArena_NeverHandsOutNil(t *testing.T) {
	a := gosymdiff.NewArena(gosymdiff.WithBlockSize(4))
	for i := 0; i < 20; i++ {
		id, err := a.Alloc()
		if err != nil {
			t.Fatal(err)
		}
		if id == gosymdiff.NilNode {
			t.Fatalf("alloc %d returned the nil node", i)
		}
	}
}

func TestArena_BlocksGrowOnDemand(t *testing.T) {
	a := gosymdiff.NewArena(gosymdiff.WithBlockSize(4))
	if a.Blocks() != 0 || a.Cap() != 0 {
		t.Fatalf("want empty arena, got %d blocks cap %d", a.Blocks(), a.Cap())
	}
	for i := 0; i < 3; i++ {
		a.Alloc()
	}
	// The first block loses slot 0 to the nil node.
	if a.Blocks() != 1 || a.Cap() != 3 {
		t.Errorf("want 1 block cap 3, got %d blocks cap %d", a.Blocks(), a.Cap())
	}
	a.Alloc()
	if a.Blocks() != 2 || a.Cap() != 7 {
		t.Errorf("want 2 blocks cap 7, got %d blocks cap %d", a.Blocks(), a.Cap())
	}
}

func TestArena_ReuseAfterFree(t *testing.T) {
	a := gosymdiff.NewArena(gosymdiff.WithBlockSize(4))
	ids := make([]gosymdiff.NodeID, 10)
	for i := range ids {
		ids[i], _ = a.Alloc()
	}
	blocks := a.Blocks()
	for _, id := range ids {
		a.Free(id)
	}
	if a.Live() != 0 {
		t.Fatalf("want 0 live, got %d", a.Live())
	}
	for range ids {
		if _, err := a.Alloc(); err != nil {
			t.Fatal(err)
		}
	}
	if a.Blocks() != blocks {
		t.Errorf("want %d blocks after reuse, got %d", blocks, a.Blocks())
	}
	if a.Live() != 10 {
		t.Errorf("want 10 live, got %d", a.Live())
	}
}

func TestArena_NodeLimit(t *testing.T) {
	a := gosymdiff.NewArena(gosymdiff.WithNodeLimit(3))
	for i := 0; i < 3; i++ {
		if _, err := a.Alloc(); err != nil {
			t.Fatalf("alloc %d: %v", i, err)
		}
	}
	if _, err := a.Alloc(); !errors.Is(err, gosymdiff.ErrOutOfMemory) {
		t.Errorf("want ErrOutOfMemory, got %v", err)
	}
}

func TestArena_DoubleFreePanics(t *testing.T) {
	a := gosymdiff.NewArena()
	id, _ := a.Alloc()
	a.Free(id)
	defer func() {
		if recover() == nil {
			t.Error("want panic on double free")
		}
	}()
	a.Free(id)
}

func TestArena_FreeNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("want panic when freeing the nil node")
		}
	}()
	gosymdiff.NewArena().Free(gosymdiff.NilNode)
}

func TestArena_ReleaseFreesWholeTree(t *testing.T) {
	arena := gosymdiff.NewArena(gosymdiff.WithBlockSize(8))
	tree, err := gosymdiff.Parse("sin(x)+2*y^3", arena, gosymdiff.NewVarTable(0))
	if err != nil {
		t.Fatal(err)
	}
	if arena.Live() != tree.Size(tree.Root()) {
		t.Errorf("want %d live, got %d", tree.Size(tree.Root()), arena.Live())
	}
	tree.Release()
	if arena.Live() != 0 {
		t.Errorf("want 0 live after release, got %d", arena.Live())
	}
	if !tree.Empty() {
		t.Error("released tree should be empty")
	}
}

// ============================================================
// Variable table tests
// ============================================================

func TestVarTable_IndicesFollowInsertion(t *testing.T) {
	v := gosymdiff.NewVarTable(0)
	for i, name := range []byte("zxy") {
		idx, err := v.Add(name)
		if err != nil || idx != i {
			t.Errorf("Add(%c): want %d, got %d (%v)", name, i, idx, err)
		}
	}
	if idx, _ := v.Add('x'); idx != 1 {
		t.Errorf("re-adding x: want 1, got %d", idx)
	}
	if v.Name(2) != 'y' {
		t.Errorf("want y, got %c", v.Name(2))
	}
	if v.Capacity() != gosymdiff.DefaultMaxVars {
		t.Errorf("want capacity %d, got %d", gosymdiff.DefaultMaxVars, v.Capacity())
	}
}

func TestVarTable_Overflow(t *testing.T) {
	v := gosymdiff.NewVarTable(2)
	v.Add('a')
	v.Add('b')
	if _, err := v.Add('c'); !errors.Is(err, gosymdiff.ErrVariablesOverflow) {
		t.Errorf("want ErrVariablesOverflow, got %v", err)
	}
	if idx, err := v.Add('a'); err != nil || idx != 0 {
		t.Errorf("known name on a full table: want 0, got %d (%v)", idx, err)
	}
}

func TestVarTable_Binding(t *testing.T) {
	v := gosymdiff.NewVarTable(0)
	x, _ := v.Add('x')
	if v.Bound(x) || !math.IsNaN(v.Value(x)) {
		t.Fatal("new variable should be unbound")
	}
	if err := v.Set('x', 2.5); err != nil {
		t.Fatal(err)
	}
	if v.Value(x) != 2.5 {
		t.Errorf("want 2.5, got %g", v.Value(x))
	}
	if err := v.Set('q', 1); !errors.Is(err, gosymdiff.ErrUnknownVariable) {
		t.Errorf("want ErrUnknownVariable, got %v", err)
	}
	if got := v.Bindings(); len(got) != 1 || got["x"] != 2.5 {
		t.Errorf("want map[x:2.5], got %v", got)
	}
	v.Reset()
	if v.Bound(x) || v.Len() != 1 {
		t.Error("Reset should unbind but keep the variable")
	}
}

func TestVarTable_Bind(t *testing.T) {
	v := gosymdiff.NewVarTable(0)
	v.Add('x')
	v.Add('y')
	if err := v.Bind(map[string]float64{"x": 1, "y": 2}); err != nil {
		t.Fatal(err)
	}
	if v.Value(1) != 2 {
		t.Errorf("want y=2, got %g", v.Value(1))
	}
	if err := v.Bind(map[string]float64{"xy": 1}); !errors.Is(err, gosymdiff.ErrUnknownVariable) {
		t.Errorf("want ErrUnknownVariable, got %v", err)
	}
}

func TestVarTable_BindIsAllOrNothing(t *testing.T) {
	for i := 0; i < 20; i++ {
		v := gosymdiff.NewVarTable(0)
		v.Add('x')
		v.Add('y')
		err := v.Bind(map[string]float64{"x": 1, "y": 2, "q": 3, "zz": 4})
		if !errors.Is(err, gosymdiff.ErrUnknownVariable) {
			t.Fatalf("want ErrUnknownVariable, got %v", err)
		}
		if v.Bound(0) || v.Bound(1) {
			t.Fatalf("failed Bind left bindings behind: %v", v.Bindings())
		}
	}
}
