package capabilities

import (
	"testing"

	"github.com/spf13/afero"

	"cjls/internal/ast"
	"cjls/internal/cache"
	"cjls/internal/project"
)

// buildCallHierarchyFixture wires a.cj declaring "callee" (symbol 10) and
// b.cj declaring "caller" (symbol 20), which calls callee once.
func buildCallHierarchyFixture() (*ast.ArkAST, *project.Project, *cache.Store) {
	const aPath = "/ws/a.cj"
	const bPath = "/ws/b.cj"

	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, aPath, []byte("func callee(){}\n"), 0o644)
	_ = afero.WriteFile(fs, bPath, []byte("func caller(){ callee() }\n"), 0o644)

	store := cache.NewStore(afero.NewMemMapFs(), "/cache/ast", "/cache/idx")
	proj := project.NewProject("/ws", fs, store)

	aFileID := proj.GetFileID(aPath)
	bFileID := proj.GetFileID(bPath)

	decl := &fakeNode{kind: ast.KindFuncDecl, name: "callee", target: 10, hasTarget: true, rng: r(p(1, 1), p(1, 17))}
	file := &fakeNode{kind: ast.KindFile, rng: r(p(1, 1), p(1, 17)), children: []ast.Node{decl}}
	decl.parent = file
	a := &ast.ArkAST{Path: aPath, File: file}

	_ = store.StoreIndex("pkg", cache.Digest(1), cache.HashedPackage{
		SymbolSlab: []cache.Symbol{
			{ID: 10, Name: "callee", Location: ast.Position{File: aFileID, Line: 1, Column: 6}},
			{ID: 20, Name: "caller", Location: ast.Position{File: bFileID, Line: 1, Column: 6}},
		},
		RefSlab: []cache.RefRecord{{
			Symbol: 10,
			Ref: cache.Ref{
				Location:    ast.Position{File: bFileID, Line: 1, Column: 16},
				Kind:        cache.RefRead,
				ContainerID: 20,
			},
		}},
		RelationSlab: []cache.Relation{{Subject: 20, Object: 10}},
	})

	return a, proj, store
}

func TestFindCallHierarchyRoot(t *testing.T) {
	a, proj, store := buildCallHierarchyFixture()

	item, ok := FindCallHierarchyRoot(a, proj, store, p(1, 7))
	if !ok {
		t.Fatalf("expected a call hierarchy root")
	}
	if item.Name != "callee" {
		t.Fatalf("Name = %q, want %q", item.Name, "callee")
	}
}

func TestFindIncomingCalls(t *testing.T) {
	_, proj, store := buildCallHierarchyFixture()

	in := FindIncomingCalls(proj, store, 10)
	if len(in) != 1 {
		t.Fatalf("expected exactly one incoming call, got %d", len(in))
	}
	if in[0].From.Name != "caller" {
		t.Fatalf("From.Name = %q, want %q", in[0].From.Name, "caller")
	}
}

func TestFindOutgoingCalls(t *testing.T) {
	_, proj, store := buildCallHierarchyFixture()

	out := FindOutgoingCalls(proj, store, 20)
	if len(out) != 1 {
		t.Fatalf("expected exactly one outgoing call, got %d", len(out))
	}
	if out[0].To.Name != "callee" {
		t.Fatalf("To.Name = %q, want %q", out[0].To.Name, "callee")
	}
}
