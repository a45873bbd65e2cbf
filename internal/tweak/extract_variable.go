package tweak

import (
	"cjls/internal/ast"
	"cjls/internal/selection"
)

// ExtractVariable error codes, continuing the common TweakError enum
// from 2 (TweakRule::TweakError only defines 0 and 1).
const (
	ErrFailGetRootExpr = 2
	ErrFailMatchExpr   = 3
	ErrInvalidExpr     = 4
	ErrInvalidCodeSeg  = 5
)

// ExtractVariable lifts the selected expression into a new variable
// declared just before its enclosing statement, and replaces the
// selection with a reference to it.
type ExtractVariable struct {
	extraOptions map[string]string
}

// NewExtractVariable constructs an ExtractVariable tweak instance.
func NewExtractVariable() *ExtractVariable {
	return &ExtractVariable{extraOptions: make(map[string]string)}
}

func (t *ExtractVariable) ID() string    { return "ExtractVariable" }
func (t *ExtractVariable) Title() string { return "Extract expression to variable" }
func (t *ExtractVariable) Kind() string  { return KindRefactor }

// Prepare validates that the selection's root is a Complete expression
// — not a block, not the interpolation construct itself, not partial.
func (t *ExtractVariable) Prepare(sel *Selection) bool {
	engine := (&RuleEngine{}).Add(func(sel *Selection) bool {
		root := sel.Tree.Root
		if root.AST == nil {
			sel.setError(ErrFailGetRootExpr)
			return false
		}
		if root.Selected != selection.Complete {
			sel.setError(ErrFailMatchExpr)
			return false
		}
		if !isExprKind(root.AST.Kind()) || root.AST.Kind() == ast.KindInterpolationExpr {
			sel.setError(ErrInvalidExpr)
			return false
		}
		return true
	})
	ok := engine.Check(sel)
	t.extraOptions = sel.ExtraOptions
	return ok
}

// Apply builds `<modifier> newVariable = <expr>` inserted at the
// smallest enclosing statement boundary, replacing the selection with
// the new variable's name.
func (t *ExtractVariable) Apply(sel *Selection) (*Effect, bool) {
	root := sel.Tree.Root.AST
	exprText := sliceText(sel.AST, root.Range())
	if exprText == "" {
		sel.setError(ErrInvalidCodeSeg)
		return nil, false
	}

	const varName = "newVariable"
	modifier := varModifier(root)
	insertAt := extractVariableInsertPoint(sel)

	declText := modifier + " " + varName + " = " + exprText + "\n" + indentOf(insertAt.Column)
	edits := []TextEdit{
		{Range: toLSPRange(pointRange(insertAt)), NewText: declText},
		{Range: toLSPRange(root.Range()), NewText: varName},
	}
	return &Effect{
		ApplyEdits: map[string][]TextEdit{sel.AST.Path: edits},
		Format:     true,
	}, true
}

// varModifier reports "const" when the selection sits inside a const
// context (a VarDecl or MemberVarDecl modifier chain carrying
// ModConst), "var" otherwise.
func varModifier(n ast.Node) string {
	for p := n; p != nil; p = p.Parent() {
		if d, ok := p.(ast.Decl); ok && d.Modifiers().Has(ast.ModConst) {
			return "const"
		}
		if p.Kind() == ast.KindFuncDecl || p.Kind() == ast.KindFile {
			break
		}
	}
	return "var"
}

// extractVariableInsertPoint implements TweakUtils::GetInsertRange's
// three cases: do-while condition gets hoisted above the loop,
// interpolation gets hoisted above the outermost interpolation's block,
// and the ordinary case inserts before the statement that contains the
// selection (adjusted to the nearest `{`/`;`/`=>` when that statement
// shares a line with its predecessor).
func extractVariableInsertPoint(sel *Selection) ast.Position {
	start := sel.Tree.Root.AST
	if sel.Tree.OuterInterpExpr != nil {
		start = sel.Tree.OuterInterpExpr
	}

	for n := start; n != nil; n = n.Parent() {
		if p := n.Parent(); p != nil && p.Kind() == ast.KindDoWhileExpr && n.Kind() != ast.KindBlock {
			return p.Range().Begin
		}
	}

	block := enclosingBlock(start)
	if block == nil {
		return start.Range().Begin
	}

	stmt := start
	for stmt.Parent() != nil && stmt.Parent() != block {
		stmt = stmt.Parent()
	}
	insertAt := stmt.Range().Begin
	return adjustForSameLine(sel.AST, block, stmt, insertAt)
}

// adjustForSameLine moves insertAt back to just after the nearest
// `{`, `;`, or `=>` token on the line when stmt's statement shares its
// source line with the statement before it, so the inserted
// declaration doesn't land mid-statement.
func adjustForSameLine(a *ast.ArkAST, block ast.Node, stmt ast.Node, insertAt ast.Position) ast.Position {
	children := block.Children()
	for i, c := range children {
		if c != stmt {
			continue
		}
		if i == 0 {
			return insertAt
		}
		prevEnd := children[i-1].Range().End
		if prevEnd.Line != insertAt.Line {
			return insertAt
		}
		last := insertAt
		found := false
		for _, tok := range a.Tokens {
			if tok.Range.Begin.Line != insertAt.Line {
				continue
			}
			if tok.Range.End.Less(prevEnd) || insertAt.Less(tok.Range.Begin) {
				continue
			}
			if tok.Text == "{" || tok.Text == ";" || tok.Text == "=>" {
				last = tok.Range.End
				found = true
			}
		}
		if found {
			return last
		}
		return insertAt
	}
	return insertAt
}
