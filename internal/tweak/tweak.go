// Package tweak implements the refactoring engine (component E): a
// registry of named refactorings, each validated against a sequence of
// structural rules over a selection.Tree before it is allowed to run,
// and each emitting TextEdit batches when it does.
//
// Grounded on
// original_source/.../capabilities/refactor/{Tweak,TweakRule,
// TweakRegistry}.{h,cpp} for the prepare/apply/rule-engine shape, and
// on tweaks/{ExtractFunction,ExtractVariable,IntroduceConstant}.cpp for
// each concrete tweak's validity rules and edit construction.
package tweak

import (
	"strconv"
	"strings"

	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/ast"
	"cjls/internal/cache"
	"cjls/internal/selection"
)

// Error codes surfaced in a Selection's ExtraOptions["ErrorCode"] when
// prepare fails, numbered to match the common TweakRule::TweakError
// values plus each tweak's own error enum starting at 2.
const (
	ErrTweakFail = 0
	ErrAST       = 1
)

// KindRefactor is every tweak's CodeAction kind — the original's
// CodeAction::REFACTOR_KIND constant.
const KindRefactor = "refactor"

// TextEdit is a single source-file edit, already expressed in LSP wire
// coordinates (0-based line, UTF-16 code unit column).
type TextEdit = lsp.TextEdit

// Selection is the input every tweak's Prepare/Apply consumes: the
// active file's AST, the user's selected range, the selection tree
// built over it, a side channel for prepare() to report why it failed,
// and the symbol index a rule can optionally consult to resolve a
// RefExpr/CallExpr's target (e.g. IntroduceConstant's const-only rule).
// Store is nil in tests that don't need index lookups.
type Selection struct {
	AST          *ast.ArkAST
	Range        ast.Range
	Tree         *selection.Tree
	ExtraOptions map[string]string
	Store        *cache.Store
}

// NewSelection builds a Selection by constructing the selection tree
// for r over a's file.
func NewSelection(a *ast.ArkAST, r ast.Range) *Selection {
	var tree *selection.Tree
	if a != nil && a.File != nil {
		tree, _ = selection.Build(a.File, r.Begin, r.End)
	}
	return &Selection{AST: a, Range: r, Tree: tree, ExtraOptions: make(map[string]string)}
}

func (s *Selection) setError(code int) {
	s.ExtraOptions["ErrorCode"] = strconv.Itoa(code)
}

// Effect is what a successful Apply produces: a set of edits grouped by
// file path, an optional user-facing message in lieu of edits, and
// whether the façade should run its formatter over the result.
type Effect struct {
	ShowMessage string
	HasMessage  bool
	ApplyEdits  map[string][]TextEdit
	Format      bool
}

// MessageEffect builds an Effect that carries no edits, only a message
// — used when a tweak wants to report something to the user without
// changing any file.
func MessageEffect(message string) *Effect {
	return &Effect{ShowMessage: message, HasMessage: true, Format: true}
}

// Tweak is one refactoring action. Prepare must be side-effect free: it
// only validates applicability, recording a numeric reason in
// sel.ExtraOptions["ErrorCode"] when it returns false. Apply computes
// the actual edits.
type Tweak interface {
	ID() string
	Title() string
	Kind() string
	Prepare(sel *Selection) bool
	Apply(sel *Selection) (*Effect, bool)
}

// declKinds are the node kinds that never count as a "selected
// expression" for ExtractVariable/IntroduceConstant's root-expr check.
var declKinds = map[ast.Kind]bool{
	ast.KindFile:          true,
	ast.KindFuncDecl:      true,
	ast.KindClassDecl:     true,
	ast.KindInterfaceDecl: true,
	ast.KindStructDecl:    true,
	ast.KindEnumDecl:      true,
	ast.KindExtendDecl:    true,
	ast.KindVarDecl:       true,
	ast.KindGlobalVarDecl: true,
	ast.KindMemberVarDecl: true,
	ast.KindFuncParam:     true,
	ast.KindBlock:         true,
}

func isExprKind(k ast.Kind) bool {
	return k != ast.KindUnknown && !declKinds[k]
}

// sliceText reconstructs source text for r by joining the tokens it
// fully contains, inserting a space between tokens unless they are
// lexically adjacent. ArkAST carries tokens (not raw source bytes)
// specifically so textual operations like this don't need the full
// grammar.
func sliceText(a *ast.ArkAST, r ast.Range) string {
	var b strings.Builder
	var prev ast.Position
	first := true
	for _, tok := range a.Tokens {
		if !r.Contains(tok.Range) {
			continue
		}
		if !first && !(tok.Range.Begin == prev) {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Text)
		prev = tok.Range.End
		first = false
	}
	return b.String()
}

func toLSPPosition(p ast.Position) lsp.Position {
	return lsp.Position{Line: int(p.Line) - 1, Character: int(p.Column) - 1}
}

func toLSPRange(r ast.Range) lsp.Range {
	return lsp.Range{Start: toLSPPosition(r.Begin), End: toLSPPosition(r.End)}
}

// pointRange is a zero-width range at p, for insertion edits.
func pointRange(p ast.Position) ast.Range { return ast.Range{Begin: p, End: p} }

// enclosingBlock climbs n's ancestor chain (via Node.Parent) to the
// nearest Block, mirroring TweakUtils::GetSatisfiedBlock's search for
// the smallest statement scope containing a position.
func enclosingBlock(n ast.Node) ast.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == ast.KindBlock {
			return p
		}
	}
	return nil
}

// indentOf reports the whitespace column of loc as a string of spaces,
// approximating the original line's indentation from its column number
// since tokens carry no leading-whitespace text of their own.
func indentOf(col uint32) string {
	if col <= 1 {
		return ""
	}
	return strings.Repeat(" ", int(col-1))
}
