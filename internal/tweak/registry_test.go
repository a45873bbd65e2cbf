package tweak

import "testing"

func TestNewRegistryDefaultsToBuiltins(t *testing.T) {
	r := NewRegistry()
	if len(r.ctors) != 3 {
		t.Fatalf("expected 3 default constructors, got %d", len(r.ctors))
	}
}

func TestWithOnlyScopesRegistry(t *testing.T) {
	r := NewRegistry(WithOnly(func() Tweak { return NewExtractVariable() }))
	if len(r.ctors) != 1 {
		t.Fatalf("expected exactly 1 constructor, got %d", len(r.ctors))
	}

	a := buildFuncFixture()
	sel := NewSelection(a, rng(pos(1, 23), pos(1, 28)))

	tweaks := r.PrepareTweaks(sel, nil)
	if len(tweaks) != 1 || tweaks[0].ID() != "ExtractVariable" {
		t.Fatalf("expected only ExtractVariable to be offered, got %#v", tweaks)
	}
}

func TestPrepareTweakUnknownID(t *testing.T) {
	r := NewRegistry()
	a := buildFuncFixture()
	sel := NewSelection(a, rng(pos(1, 23), pos(1, 28)))

	if _, ok := r.PrepareTweak("NoSuchTweak", sel); ok {
		t.Fatal("expected unknown id to report not found")
	}
}

func TestPrepareTweakByID(t *testing.T) {
	r := NewRegistry()
	a := buildFuncFixture()
	sel := NewSelection(a, rng(pos(1, 23), pos(1, 28)))

	tw, ok := r.PrepareTweak("ExtractVariable", sel)
	if !ok || tw == nil {
		t.Fatal("expected ExtractVariable to prepare successfully")
	}
}
