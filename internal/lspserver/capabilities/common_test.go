package capabilities

import (
	"github.com/spf13/afero"

	"cjls/internal/ast"
	"cjls/internal/cache"
	"cjls/internal/project"
)

// fakeNode is a minimal ast.Node for exercising capability handlers
// without a real parser, mirroring internal/tweak's and
// internal/selection's own test fixtures.
type fakeNode struct {
	kind      ast.Kind
	rng       ast.Range
	children  []ast.Node
	parent    ast.Node
	name      string
	macro     bool
	target    ast.SymbolID
	hasTarget bool
}

func (n *fakeNode) Kind() ast.Kind       { return n.kind }
func (n *fakeNode) Range() ast.Range     { return n.rng }
func (n *fakeNode) Children() []ast.Node { return n.children }
func (n *fakeNode) Parent() ast.Node     { return n.parent }
func (n *fakeNode) Name() string         { return n.name }
func (n *fakeNode) IsInMacroCall() bool  { return n.macro }
func (n *fakeNode) Target() (ast.SymbolID, bool) {
	return n.target, n.hasTarget
}

func p(line, col uint32) ast.Position { return ast.Position{Line: line, Column: col} }
func r(b, e ast.Position) ast.Range   { return ast.Range{Begin: b, End: e} }

// buildHoverFixture builds the AST for a one-line file:
//
//	func greet(){ hi() }
//
// where "hi" at columns 15-17 resolves to symbol 42, and returns both
// the ArkAST and a Store that already knows about symbol 42.
func buildHoverFixture() (*ast.ArkAST, *cache.Store) {
	call := &fakeNode{kind: ast.KindCallExpr, name: "hi", target: 42, hasTarget: true, rng: r(p(1, 15), p(1, 19))}
	block := &fakeNode{kind: ast.KindBlock, rng: r(p(1, 13), p(1, 20)), children: []ast.Node{call}}
	funcDecl := &fakeNode{kind: ast.KindFuncDecl, name: "greet", rng: r(p(1, 1), p(1, 21)), children: []ast.Node{block}}
	file := &fakeNode{kind: ast.KindFile, rng: r(p(1, 1), p(1, 21)), children: []ast.Node{funcDecl}}
	call.parent = block
	block.parent = funcDecl
	funcDecl.parent = file

	a := &ast.ArkAST{Path: "/fixture.cj", File: file}

	store := cache.NewStore(afero.NewMemMapFs(), "/cache/ast", "/cache/idx")
	_ = store.StoreIndex("pkg", cache.Digest(1), cache.HashedPackage{
		SymbolSlab: []cache.Symbol{{
			ID:         42,
			Name:       "hi",
			Scope:      "pkg",
			Kind:       cache.SymbolFunction,
			Signature:  "func hi()",
			ReturnType: "Unit",
		}},
	})
	return a, store
}

// crossFileFixture is a two-file workspace used by definition/references/
// rename tests: a.cj declares "hi", b.cj calls it once.
type crossFileFixture struct {
	proj     *project.Project
	store    *cache.Store
	aPath    string
	bPath    string
	callAST  *ast.ArkAST
	callNode ast.Node
	callPos  ast.Position
	symbolID ast.SymbolID
	aFileID  ast.FileID
	bFileID  ast.FileID
}

// buildCrossFileFixture wires a.cj:
//
//	func hi(){}
//
// and b.cj:
//
//	func greet(){ hi() }
//
// with the index already populated: symbol 42 ("hi") declared in a.cj,
// referenced once from the call expression in b.cj.
func buildCrossFileFixture() *crossFileFixture {
	const aPath = "/ws/a.cj"
	const bPath = "/ws/b.cj"
	const aText = "func hi(){}\n"
	const bText = "func greet(){ hi() }\n"

	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, aPath, []byte(aText), 0o644)
	_ = afero.WriteFile(fs, bPath, []byte(bText), 0o644)

	store := cache.NewStore(afero.NewMemMapFs(), "/cache/ast", "/cache/idx")
	proj := project.NewProject("/ws", fs, store)

	aFileID := proj.GetFileID(aPath)
	bFileID := proj.GetFileID(bPath)

	const symID ast.SymbolID = 42

	call := &fakeNode{kind: ast.KindCallExpr, name: "hi", target: symID, hasTarget: true, rng: r(p(1, 15), p(1, 19))}
	block := &fakeNode{kind: ast.KindBlock, rng: r(p(1, 13), p(1, 20)), children: []ast.Node{call}}
	funcDecl := &fakeNode{kind: ast.KindFuncDecl, name: "greet", rng: r(p(1, 1), p(1, 21)), children: []ast.Node{block}}
	file := &fakeNode{kind: ast.KindFile, rng: r(p(1, 1), p(1, 21)), children: []ast.Node{funcDecl}}
	call.parent = block
	block.parent = funcDecl
	funcDecl.parent = file

	bAST := &ast.ArkAST{Path: bPath, File: file}

	_ = store.StoreIndex("pkg", cache.Digest(1), cache.HashedPackage{
		Package: "pkg",
		SymbolSlab: []cache.Symbol{{
			ID:       symID,
			Name:     "hi",
			Scope:    "pkg",
			Kind:     cache.SymbolFunction,
			Location: ast.Position{File: aFileID, Line: 1, Column: 6},
			Declaration: ast.Range{
				Begin: ast.Position{File: aFileID, Line: 1, Column: 1},
				End:   ast.Position{File: aFileID, Line: 1, Column: 12},
			},
			Signature:  "func hi()",
			ReturnType: "Unit",
		}},
		RefSlab: []cache.RefRecord{{
			Symbol: symID,
			Ref: cache.Ref{
				Location: ast.Position{File: bFileID, Line: 1, Column: 15},
				Kind:     cache.RefRead,
			},
		}},
	})

	return &crossFileFixture{
		proj:     proj,
		store:    store,
		aPath:    aPath,
		bPath:    bPath,
		callAST:  bAST,
		callNode: call,
		callPos:  p(1, 16),
		symbolID: symID,
		aFileID:  aFileID,
		bFileID:  bFileID,
	}
}
