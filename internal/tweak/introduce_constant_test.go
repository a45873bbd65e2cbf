package tweak

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"cjls/internal/ast"
	"cjls/internal/cache"
)

// buildConstRefFixture builds `func f(){ var x = PI }` where PI is a
// RefExpr targeting symbol 7, indexed with modifier.
func buildConstRefFixture(modifier ast.Modifier) (*ast.ArkAST, *cache.Store, ast.Range) {
	ref := &fakeNode{kind: ast.KindRefExpr, name: "PI", target: 7, hasTarget: true, rng: rng(pos(1, 19), pos(1, 21))}
	varDecl := &fakeNode{kind: ast.KindVarDecl, name: "x", target: 1, hasTarget: true, rng: rng(pos(1, 11), pos(1, 21)), children: []ast.Node{ref}}
	block := &fakeNode{kind: ast.KindBlock, rng: rng(pos(1, 9), pos(1, 22)), children: []ast.Node{varDecl}}
	funcDecl := &fakeNode{kind: ast.KindFuncDecl, name: "f", rng: rng(pos(1, 1), pos(1, 23)), children: []ast.Node{block}}
	file := &fakeNode{kind: ast.KindFile, rng: rng(pos(1, 1), pos(1, 23)), children: []ast.Node{funcDecl}}
	ref.parent = varDecl
	varDecl.parent = block
	block.parent = funcDecl
	funcDecl.parent = file

	a := &ast.ArkAST{Path: "/fixture.cj", File: file}
	store := cache.NewStore(afero.NewMemMapFs(), "/cache/ast", "/cache/idx")
	_ = store.StoreIndex("pkg", cache.Digest(1), cache.HashedPackage{
		SymbolSlab: []cache.Symbol{{ID: 7, Name: "PI", Modifier: modifier}},
	})
	return a, store, ref.rng
}

// buildConstCallFixture builds `func f(){ var x = readLine() }` where
// the call targets symbol 9, indexed with modifier.
func buildConstCallFixture(modifier ast.Modifier) (*ast.ArkAST, *cache.Store, ast.Range) {
	call := &fakeNode{kind: ast.KindCallExpr, name: "readLine", target: 9, hasTarget: true, rng: rng(pos(1, 19), pos(1, 29))}
	varDecl := &fakeNode{kind: ast.KindVarDecl, name: "x", target: 1, hasTarget: true, rng: rng(pos(1, 11), pos(1, 29)), children: []ast.Node{call}}
	block := &fakeNode{kind: ast.KindBlock, rng: rng(pos(1, 9), pos(1, 30)), children: []ast.Node{varDecl}}
	funcDecl := &fakeNode{kind: ast.KindFuncDecl, name: "f", rng: rng(pos(1, 1), pos(1, 31)), children: []ast.Node{block}}
	file := &fakeNode{kind: ast.KindFile, rng: rng(pos(1, 1), pos(1, 31)), children: []ast.Node{funcDecl}}
	call.parent = varDecl
	varDecl.parent = block
	block.parent = funcDecl
	funcDecl.parent = file

	a := &ast.ArkAST{Path: "/fixture.cj", File: file}
	store := cache.NewStore(afero.NewMemMapFs(), "/cache/ast", "/cache/idx")
	_ = store.StoreIndex("pkg", cache.Digest(1), cache.HashedPackage{
		SymbolSlab: []cache.Symbol{{ID: 9, Name: "readLine", Modifier: modifier}},
	})
	return a, store, call.rng
}

func TestIntroduceConstantAcceptsRefToGlobalConst(t *testing.T) {
	a, store, r := buildConstRefFixture(ast.ModConst)
	sel := NewSelection(a, r)
	sel.Store = store

	tw := NewIntroduceConstant()
	if !tw.Prepare(sel) {
		t.Fatalf("expected Prepare to succeed for a ref to a global const, error code %q", sel.ExtraOptions["ErrorCode"])
	}
}

func TestIntroduceConstantRejectsRefToNonConst(t *testing.T) {
	a, store, r := buildConstRefFixture(ast.ModNone)
	sel := NewSelection(a, r)
	sel.Store = store

	tw := NewIntroduceConstant()
	if tw.Prepare(sel) {
		t.Fatal("expected a ref to a non-const symbol to be rejected")
	}
	if sel.ExtraOptions["ErrorCode"] != "3" {
		t.Fatalf("expected ErrConstInvalidConstExpr, got %q", sel.ExtraOptions["ErrorCode"])
	}
}

func TestIntroduceConstantRejectsRefWithNoStore(t *testing.T) {
	a, _, r := buildConstRefFixture(ast.ModConst)
	sel := NewSelection(a, r) // Store left nil, as a request with no index attached would leave it

	tw := NewIntroduceConstant()
	if tw.Prepare(sel) {
		t.Fatal("expected an unresolvable ref to be rejected rather than admitted")
	}
}

func TestIntroduceConstantRejectsCallToNonConstFunc(t *testing.T) {
	a, store, r := buildConstCallFixture(ast.ModNone)
	sel := NewSelection(a, r)
	sel.Store = store

	tw := NewIntroduceConstant()
	if tw.Prepare(sel) {
		t.Fatal("expected a call to a non-const function (e.g. readLine()) to be rejected")
	}
}

func TestIntroduceConstantAcceptsCallToConstFunc(t *testing.T) {
	a, store, r := buildConstCallFixture(ast.ModConst)
	sel := NewSelection(a, r)
	sel.Store = store

	tw := NewIntroduceConstant()
	if !tw.Prepare(sel) {
		t.Fatalf("expected a call to a global const function to be accepted, error code %q", sel.ExtraOptions["ErrorCode"])
	}
}

// TestIntroduceConstantLiteral selects the literal `2` and introduces
// it as a global `const constVar = 2`, replacing the selection with
// `constVar`.
func TestIntroduceConstantLiteral(t *testing.T) {
	a := buildFuncFixture()
	sel := NewSelection(a, rng(pos(1, 23), pos(1, 24)))

	tw := NewIntroduceConstant()
	if !tw.Prepare(sel) {
		t.Fatalf("expected Prepare to succeed, error code %q", sel.ExtraOptions["ErrorCode"])
	}

	effect, ok := tw.Apply(sel)
	if !ok {
		t.Fatal("expected Apply to succeed")
	}
	edits := effect.ApplyEdits[a.Path]
	if len(edits) != 2 {
		t.Fatalf("expected 2 edits, got %d", len(edits))
	}
	if !strings.Contains(edits[0].NewText, "const constVar = 2") {
		t.Fatalf("expected declaration to introduce literal 2, got %q", edits[0].NewText)
	}
	if edits[1].NewText != "constVar" {
		t.Fatalf("expected selection replaced with constVar, got %q", edits[1].NewText)
	}
}

func TestIntroduceConstantAcceptsCombinatorExpression(t *testing.T) {
	a := buildFuncFixture()
	// Selects the whole `2 * 3` combinator expression: built entirely
	// from literals, so it is a valid constant expression.
	sel := NewSelection(a, rng(pos(1, 23), pos(1, 28)))

	tw := NewIntroduceConstant()
	if !tw.Prepare(sel) {
		t.Fatalf("expected Prepare to succeed, error code %q", sel.ExtraOptions["ErrorCode"])
	}
}

func TestIntroduceConstantRejectsNonExpression(t *testing.T) {
	a := buildFuncFixture()
	sel := NewSelection(a, rng(pos(1, 9), pos(1, 29)))

	tw := NewIntroduceConstant()
	if tw.Prepare(sel) {
		t.Fatal("expected a block selection to be rejected")
	}
	if sel.ExtraOptions["ErrorCode"] != "2" {
		t.Fatalf("expected ErrConstInvalidExpr, got %q", sel.ExtraOptions["ErrorCode"])
	}
}
