package capabilities

import (
	"testing"

	"github.com/spf13/afero"

	"cjls/internal/ast"
	"cjls/internal/cache"
)

func TestFindCodeLensesCountsReferences(t *testing.T) {
	decl := &fakeNode{kind: ast.KindFuncDecl, name: "hi", target: 42, hasTarget: true, rng: r(p(1, 1), p(1, 12))}
	file := &fakeNode{kind: ast.KindFile, rng: r(p(1, 1), p(1, 12)), children: []ast.Node{decl}}
	decl.parent = file

	a := &ast.ArkAST{Path: "/a.cj", File: file}
	text := []byte("func hi(){}\n")

	store := cache.NewStore(afero.NewMemMapFs(), "/cache/ast", "/cache/idx")
	_ = store.StoreIndex("pkg", cache.Digest(1), cache.HashedPackage{
		SymbolSlab: []cache.Symbol{{ID: 42, Name: "hi", Kind: cache.SymbolFunction}},
		RefSlab: []cache.RefRecord{
			{Symbol: 42, Ref: cache.Ref{Kind: cache.RefDeclaration}},
			{Symbol: 42, Ref: cache.Ref{Kind: cache.RefRead}},
			{Symbol: 42, Ref: cache.Ref{Kind: cache.RefRead}},
		},
	})

	lenses := FindCodeLenses(a, text, store)
	if len(lenses) != 1 {
		t.Fatalf("expected exactly one lens, got %d", len(lenses))
	}
	if lenses[0].Command.Title != "2 references" {
		t.Fatalf("Title = %q, want %q", lenses[0].Command.Title, "2 references")
	}
}

func TestFindCodeLensesSkipsUnresolvedDecls(t *testing.T) {
	decl := &fakeNode{kind: ast.KindFuncDecl, name: "hi", rng: r(p(1, 1), p(1, 12))}
	file := &fakeNode{kind: ast.KindFile, rng: r(p(1, 1), p(1, 12)), children: []ast.Node{decl}}
	decl.parent = file
	a := &ast.ArkAST{Path: "/a.cj", File: file}

	store := cache.NewStore(afero.NewMemMapFs(), "/cache/ast", "/cache/idx")
	if lenses := FindCodeLenses(a, nil, store); lenses != nil {
		t.Fatalf("expected no lenses for a decl with no resolved target, got %+v", lenses)
	}
}
