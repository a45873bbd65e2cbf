package capabilities

import (
	"testing"

	"github.com/spf13/afero"

	"cjls/internal/ast"
	"cjls/internal/cache"
)

func TestFindOverrideMethodsListsUnimplemented(t *testing.T) {
	existing := &fakeNode{kind: ast.KindFuncDecl, name: "already", rng: r(p(2, 3), p(2, 20))}
	class := &fakeNode{kind: ast.KindClassDecl, name: "Dog", target: 1, hasTarget: true,
		rng: r(p(1, 1), p(3, 1)), children: []ast.Node{existing}}
	file := &fakeNode{kind: ast.KindFile, rng: r(p(1, 1), p(3, 1)), children: []ast.Node{class}}
	existing.parent = class
	class.parent = file
	a := &ast.ArkAST{Path: "/dog.cj", File: file}

	store := cache.NewStore(afero.NewMemMapFs(), "/cache/ast", "/cache/idx")
	_ = store.StoreIndex("pkg", cache.Digest(1), cache.HashedPackage{
		SymbolSlab: []cache.Symbol{
			{ID: 2, Name: "Animal", Kind: cache.SymbolClass, CurModule: "zoo"},
			{ID: 3, Name: "speak", Scope: "Animal", Kind: cache.SymbolFunction, Signature: "func speak(): Unit"},
			{ID: 4, Name: "already", Scope: "Animal", Kind: cache.SymbolFunction},
		},
		RelationSlab: []cache.Relation{{Subject: 1, Predicate: cache.PredicateBaseOf, Object: 2}},
	})

	items := FindOverrideMethods(a, store, p(1, 2))
	if len(items) != 1 {
		t.Fatalf("expected exactly one supertype item, got %d: %+v", len(items), items)
	}
	if items[0].Identifier != "Animal" {
		t.Fatalf("Identifier = %q, want %q", items[0].Identifier, "Animal")
	}
	if len(items[0].Methods) != 1 || items[0].Methods[0].SignatureWithRet != "func speak(): Unit" {
		t.Fatalf("unexpected methods: %+v", items[0].Methods)
	}
}

func TestFindOverrideMethodsNoEnclosingType(t *testing.T) {
	a := &ast.ArkAST{Path: "/empty.cj"}
	store := cache.NewStore(afero.NewMemMapFs(), "/cache/ast", "/cache/idx")
	if items := FindOverrideMethods(a, store, p(1, 1)); items != nil {
		t.Fatalf("expected no items for a file with no AST, got %+v", items)
	}
}
