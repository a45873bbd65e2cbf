package capabilities

import "testing"

func TestPrepareRenameOnResolvedSymbol(t *testing.T) {
	fx := buildCrossFileFixture()

	rng, ok := PrepareRename(fx.callAST, []byte("func greet(){ hi() }\n"), fx.store, fx.callPos)
	if !ok {
		t.Fatalf("expected a preparable rename")
	}
	if rng.Start.Line != 0 {
		t.Fatalf("expected the call on line 0, got %+v", rng)
	}
}

func TestPrepareRenameUnresolvedTarget(t *testing.T) {
	fx := buildCrossFileFixture()

	if _, ok := PrepareRename(fx.callAST, nil, fx.store, p(1, 7)); ok {
		t.Fatalf("expected no rename for a node with no resolved target")
	}
}

func TestRenameProducesEditsInBothFiles(t *testing.T) {
	fx := buildCrossFileFixture()

	edit, ok := Rename(fx.callAST, fx.proj, fx.store, fx.callPos, "greetLoudly")
	if !ok {
		t.Fatalf("expected a rename result")
	}
	if len(edit.Changes) != 2 {
		t.Fatalf("expected edits in 2 files, got %d", len(edit.Changes))
	}
	for uri, edits := range edit.Changes {
		if len(edits) != 1 {
			t.Fatalf("expected exactly one edit in %s, got %d", uri, len(edits))
		}
		if edits[0].NewText != "greetLoudly" {
			t.Fatalf("NewText = %q, want %q", edits[0].NewText, "greetLoudly")
		}
	}
}
