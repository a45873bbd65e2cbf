package tweak

import (
	"cjls/internal/ast"
	"cjls/internal/cache"
	"cjls/internal/selection"
)

// IntroduceConstant error codes, continuing the common enum from 2.
const (
	ErrConstInvalidExpr      = 2
	ErrConstInvalidConstExpr = 3
	ErrConstPartialSelection = 4
)

// IntroduceConstant lifts a compile-time-constant expression into a
// new `const` declaration at the file's global scope and replaces the
// selection with a reference to it.
type IntroduceConstant struct {
	extraOptions map[string]string
}

// NewIntroduceConstant constructs an IntroduceConstant tweak instance.
func NewIntroduceConstant() *IntroduceConstant {
	return &IntroduceConstant{extraOptions: make(map[string]string)}
}

func (t *IntroduceConstant) ID() string    { return "IntroduceConstant" }
func (t *IntroduceConstant) Title() string { return "Introduce expression to constant variable" }
func (t *IntroduceConstant) Kind() string  { return KindRefactor }

// Prepare validates the selection is a Complete expression built only
// from literals and references to things that are themselves
// compile-time constant, transitively.
func (t *IntroduceConstant) Prepare(sel *Selection) bool {
	engine := (&RuleEngine{}).Add(func(sel *Selection) bool {
		root := sel.Tree.Root
		if root.Selected != selection.Complete {
			sel.setError(ErrConstPartialSelection)
			return false
		}
		if !isExprKind(root.AST.Kind()) {
			sel.setError(ErrConstInvalidExpr)
			return false
		}
		if !isConstExpr(root.AST, sel.Store, make(map[ast.Node]bool)) {
			sel.setError(ErrConstInvalidConstExpr)
			return false
		}
		return true
	})
	ok := engine.Check(sel)
	t.extraOptions = sel.ExtraOptions
	return ok
}

// Apply builds `const constVar = <expr>` inserted at the file's global
// insertion site and replaces the selection with `constVar`.
func (t *IntroduceConstant) Apply(sel *Selection) (*Effect, bool) {
	root := sel.Tree.Root.AST
	exprText := sliceText(sel.AST, root.Range())
	if exprText == "" {
		sel.setError(ErrConstInvalidExpr)
		return nil, false
	}

	const varName = "constVar"
	insertAt := globalInsertPoint(sel.AST.File)
	declText := "const " + varName + " = " + exprText + "\n\n"

	edits := []TextEdit{
		{Range: toLSPRange(pointRange(insertAt)), NewText: declText},
		{Range: toLSPRange(root.Range()), NewText: varName},
	}
	return &Effect{
		ApplyEdits: map[string][]TextEdit{sel.AST.Path: edits},
		Format:     true,
	}, true
}

// isConstExpr reports whether n is built entirely from literals,
// references to globally-constant declarations, and calls to global
// const functions whose arguments recursively satisfy the same rule,
// per spec §4.E.3's "references to globally-constant decls ... function
// calls must target global const functions" validity rule. visited
// guards against cyclic resolution (defensive; the real frontend
// guarantees acyclic symbol targets).
//
// store resolves a RefExpr/CallExpr's target to its indexed Symbol so
// its Modifier can be checked for ModConst; a nil target or a target
// store can't find (e.g. an unresolved `readLine()`) is rejected rather
// than admitted, since admitting it would be the false-positive this
// rule exists to prevent.
func isConstExpr(n ast.Node, store *cache.Store, visited map[ast.Node]bool) bool {
	if n == nil || visited[n] {
		return false
	}
	visited[n] = true

	switch n.Kind() {
	case ast.KindLiteralExpr:
		return true
	case ast.KindRefExpr:
		return targetsGlobalConst(n, store)
	case ast.KindAssignExpr, ast.KindJumpExpr, ast.KindReturnExpr, ast.KindLambdaExpr:
		return false
	case ast.KindCallExpr:
		if !targetsGlobalConst(n, store) {
			return false
		}
		for _, c := range n.Children() {
			if !isConstExpr(c, store, visited) {
				return false
			}
		}
		return true
	case ast.KindIfExpr, ast.KindTryExpr, ast.KindMatchExpr,
		ast.KindDoWhileExpr, ast.KindWhileExpr, ast.KindForInExpr,
		ast.KindEnumConstructor, ast.KindExpr, ast.KindInterpolationExpr:
		if len(n.Children()) == 0 {
			return false
		}
		for _, c := range n.Children() {
			if !isConstExpr(c, store, visited) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// targetsGlobalConst reports whether n's resolution target is indexed
// at top level (empty Scope) with the ModConst modifier: a `const`
// global variable for a RefExpr, or a `const func` for a CallExpr.
func targetsGlobalConst(n ast.Node, store *cache.Store) bool {
	if store == nil {
		return false
	}
	id, ok := n.Target()
	if !ok {
		return false
	}
	sym, ok := store.Lookup(id)
	if !ok {
		return false
	}
	return sym.Scope == "" && sym.Modifier.Has(ast.ModConst)
}

// globalInsertPoint is the position just after the last top-level
// declaration in file, mirroring TweakUtils::FindGlobalInsertPos.
func globalInsertPoint(file ast.Node) ast.Position {
	children := file.Children()
	if len(children) == 0 {
		return file.Range().Begin
	}
	return children[len(children)-1].Range().End
}
