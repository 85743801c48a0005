package vector

import "testing"

func TestNewHasConstant(t *testing.T) {
	v := New()
	if v.Get(Constant) != 1.0 {
		t.Fatalf("New().Get(Constant) = %v, want 1.0", v.Get(Constant))
	}
	if v.Has(Key("missing")) {
		t.Fatalf("Has(missing) = true, want false")
	}
}

func TestDotOverUnionOfKeys(t *testing.T) {
	a := New()
	a.Set(Key("x"), 2)
	b := New()
	b.Set(Key("x"), 3)
	b.Set(Key("y"), 5)
	// Constant contributes 1*1=1, x contributes 2*3=6, y contributes
	// 0*5=0 since a has no y.
	if got := a.Dot(b); got != 7 {
		t.Fatalf("Dot = %v, want 7", got)
	}
}

func TestCloneIndependence(t *testing.T) {
	a := New()
	a.Set(Key("x"), 1)
	b := a.Clone()
	b.Set(Key("x"), 2)
	if a.Get(Key("x")) != 1 {
		t.Fatalf("mutating clone affected original: %v", a.Get(Key("x")))
	}
}

func TestHashStableUnderKeyOrder(t *testing.T) {
	a := New()
	a.Set(Key("b"), 1)
	a.Set(Key("a"), 2)
	b := New()
	b.Set(Key("a"), 2)
	b.Set(Key("b"), 1)
	if a.Hash() != b.Hash() {
		t.Fatalf("Hash differs for vectors built in different key order")
	}
}

func TestKeyHelpersRoundTrip(t *testing.T) {
	k := Feature("alice", "hungry")
	if !k.IsFeature() {
		t.Fatalf("Feature key IsFeature() = false")
	}
	r := Relation("likes", "alice", "bob")
	if !r.IsRelation() {
		t.Fatalf("Relation key IsRelation() = false")
	}
	turnKey := Turn("alice")
	if !turnKey.IsTurn() || turnKey.Agent() != "alice" {
		t.Fatalf("Turn key round-trip failed: IsTurn=%v Agent=%q", turnKey.IsTurn(), turnKey.Agent())
	}
	modelKey := Model("alice")
	if !modelKey.IsModel() || modelKey.Agent() != "alice" {
		t.Fatalf("Model key round-trip failed: IsModel=%v Agent=%q", modelKey.IsModel(), modelKey.Agent())
	}
}

func TestMatrixApplyIdentityForUnsetOutputs(t *testing.T) {
	m := NewMatrix()
	row := New()
	row.Set(Key("x"), 2)
	m.SetRow(Key("y"), row)

	x := New()
	x.Set(Key("x"), 3)
	x.Set(Key("untouched"), 9)

	out := m.Apply(x)
	if out.Get(Key("y")) != 6 {
		t.Fatalf("computed output y = %v, want 6", out.Get(Key("y")))
	}
	if out.Get(Key("untouched")) != 9 {
		t.Fatalf("untouched key changed: %v", out.Get(Key("untouched")))
	}
	if out.Get(Constant) != 1.0 {
		t.Fatalf("Constant not preserved after Apply: %v", out.Get(Constant))
	}
}

func TestMatrixFloorCeil(t *testing.T) {
	m := NewMatrix()
	row := New()
	row.Set(Key("x"), 1)
	m.SetRow(Key("y"), row)
	m.Floor(Key("y"), 0)
	m.Ceil(Key("y"), 10)

	x := New()
	x.Set(Key("x"), -5)
	if got := m.Apply(x).Get(Key("y")); got != 0 {
		t.Fatalf("floor not applied: y = %v, want 0", got)
	}

	x.Set(Key("x"), 50)
	if got := m.Apply(x).Get(Key("y")); got != 10 {
		t.Fatalf("ceil not applied: y = %v, want 10", got)
	}
}

func TestMatrixKeysInExcludesConstant(t *testing.T) {
	m := NewMatrix()
	row := New()
	row.Set(Key("x"), 1)
	m.SetRow(Key("y"), row)
	keysIn := m.KeysIn()
	for _, k := range keysIn {
		if k == Constant {
			t.Fatalf("KeysIn() leaked CONSTANT")
		}
	}
	if len(keysIn) != 1 || keysIn[0] != Key("x") {
		t.Fatalf("KeysIn() = %v, want [x]", keysIn)
	}
}
