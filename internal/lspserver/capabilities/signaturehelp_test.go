package capabilities

import (
	"testing"

	"github.com/spf13/afero"

	"cjls/internal/ast"
	"cjls/internal/cache"
)

// buildCallFixture builds the AST for:
//
//	foo(1, 2)
//
// where foo resolves to symbol 7 with signature "func foo(x: Int64, y: Int64): Int64".
func buildCallFixture() (*ast.ArkAST, *cache.Store, ast.Position) {
	arg1 := &fakeNode{kind: ast.KindLiteralExpr, rng: r(p(1, 5), p(1, 6))}
	arg2 := &fakeNode{kind: ast.KindLiteralExpr, rng: r(p(1, 8), p(1, 9))}
	call := &fakeNode{kind: ast.KindCallExpr, name: "foo", target: 7, hasTarget: true,
		rng: r(p(1, 1), p(1, 10)), children: []ast.Node{arg1, arg2}}
	file := &fakeNode{kind: ast.KindFile, rng: r(p(1, 1), p(1, 10)), children: []ast.Node{call}}
	arg1.parent = call
	arg2.parent = call
	call.parent = file

	a := &ast.ArkAST{Path: "/call.cj", File: file}

	store := cache.NewStore(afero.NewMemMapFs(), "/cache/ast", "/cache/idx")
	_ = store.StoreIndex("pkg", cache.Digest(1), cache.HashedPackage{
		SymbolSlab: []cache.Symbol{{
			ID:        7,
			Name:      "foo",
			Kind:      cache.SymbolFunction,
			Signature: "func foo(x: Int64, y: Int64): Int64",
		}},
	})
	return a, store, p(1, 9) // inside the second argument
}

func TestFindSignatureHelpActiveParameter(t *testing.T) {
	a, store, pos := buildCallFixture()

	help, ok := FindSignatureHelp(a, store, pos)
	if !ok {
		t.Fatalf("expected signature help")
	}
	if len(help.Signatures) != 1 {
		t.Fatalf("expected exactly one signature, got %d", len(help.Signatures))
	}
	if len(help.Signatures[0].Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(help.Signatures[0].Parameters))
	}
	if help.ActiveParameter != 1 {
		t.Fatalf("ActiveParameter = %d, want 1", help.ActiveParameter)
	}
}

func TestFindSignatureHelpNoEnclosingCall(t *testing.T) {
	a, store, _ := buildCallFixture()

	if _, ok := FindSignatureHelp(a, store, p(99, 99)); ok {
		t.Fatalf("expected no signature help far outside the file's range")
	}
}

func TestFindSignatureHelpNonFunctionTarget(t *testing.T) {
	a, store, pos := buildCallFixture()
	_ = store.StoreIndex("pkg", cache.Digest(2), cache.HashedPackage{
		SymbolSlab: []cache.Symbol{{ID: 7, Name: "foo", Kind: cache.SymbolClass}},
	})

	if _, ok := FindSignatureHelp(a, store, pos); ok {
		t.Fatalf("expected no signature help when the target isn't a function")
	}
}
