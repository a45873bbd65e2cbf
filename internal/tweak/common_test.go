package tweak

import "cjls/internal/ast"

// fakeNode is a minimal ast.Node for exercising tweaks without a real
// parser, mirroring internal/selection's test fixture.
type fakeNode struct {
	kind      ast.Kind
	rng       ast.Range
	children  []ast.Node
	parent    ast.Node
	name      string
	macro     bool
	target    ast.SymbolID
	hasTarget bool
	declType  string
	modifiers ast.Modifier
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

// Type and Modifiers make fakeNode satisfy ast.Decl as well as
// ast.Node, so fixtures can exercise rules that type-switch on it.
func (n *fakeNode) Type() string            { return n.declType }
func (n *fakeNode) Modifiers() ast.Modifier { return n.modifiers }

func pos(line, col uint32) ast.Position { return ast.Position{Line: line, Column: col} }
func rng(b, e ast.Position) ast.Range   { return ast.Range{Begin: b, End: e} }

func tok(text string, begin, end uint32) ast.Token {
	return ast.Token{Text: text, Range: rng(pos(1, begin), pos(1, end))}
}

// buildFuncFixture builds the AST for:
//
//	func f(){ var x = 1 + 2 * 3 }
//
// with one-based columns matching the literal source text above, and
// returns the ArkAST holding the parsed file and its tokens.
func buildFuncFixture() *ast.ArkAST {
	literal1 := &fakeNode{kind: ast.KindLiteralExpr, rng: rng(pos(1, 19), pos(1, 20))}
	literal2 := &fakeNode{kind: ast.KindLiteralExpr, rng: rng(pos(1, 23), pos(1, 24))}
	literal3 := &fakeNode{kind: ast.KindLiteralExpr, rng: rng(pos(1, 27), pos(1, 28))}
	mulExpr := &fakeNode{kind: ast.KindExpr, rng: rng(pos(1, 23), pos(1, 28)), children: []ast.Node{literal2, literal3}}
	addExpr := &fakeNode{kind: ast.KindExpr, rng: rng(pos(1, 19), pos(1, 28)), children: []ast.Node{literal1, mulExpr}}
	varDecl := &fakeNode{
		kind: ast.KindVarDecl, name: "x", target: 1, hasTarget: true,
		rng: rng(pos(1, 11), pos(1, 28)), children: []ast.Node{addExpr},
	}
	block := &fakeNode{kind: ast.KindBlock, rng: rng(pos(1, 9), pos(1, 29)), children: []ast.Node{varDecl}}
	funcDecl := &fakeNode{kind: ast.KindFuncDecl, name: "f", rng: rng(pos(1, 1), pos(1, 30)), children: []ast.Node{block}}
	file := &fakeNode{kind: ast.KindFile, rng: rng(pos(1, 1), pos(1, 30)), children: []ast.Node{funcDecl}}

	funcDecl.parent = file
	block.parent = funcDecl
	varDecl.parent = block
	addExpr.parent = varDecl
	literal1.parent = addExpr
	mulExpr.parent = addExpr
	literal2.parent = mulExpr
	literal3.parent = mulExpr

	return &ast.ArkAST{
		Path: "/fixture.cj",
		File: file,
		Tokens: []ast.Token{
			tok("func", 1, 5), tok("f", 6, 7), tok("(", 7, 8), tok(")", 8, 9),
			tok("{", 9, 10), tok("var", 11, 14), tok("x", 15, 16), tok("=", 17, 18),
			tok("1", 19, 20), tok("+", 21, 22), tok("2", 23, 24), tok("*", 25, 26),
			tok("3", 27, 28), tok("}", 29, 30),
		},
	}
}
