package tweak

import (
	"strings"

	"cjls/internal/ast"
	"cjls/internal/selection"
)

// ExtractFunction error codes, matching ExtractFunctionError's numbering.
const (
	ErrFuncInvalidCodeSegment = 2
	ErrFuncPartialSelection   = 3
	ErrFuncMultiReturnValue   = 4
	ErrFuncPartialIfExpr      = 5
	ErrFuncPartialJumpExpr    = 6
	ErrFuncMultiExitPoint     = 7
	ErrFuncGlobalMemberVar    = 8
	ErrFuncMemberVarInit      = 9
	ErrFuncPartialTryExpr     = 10
	ErrFuncPartialMatchExpr   = 11
)

// ExtractFunction lifts the selected statements into a new function
// declared at the enclosing scope's insertion site, replacing the
// selection with a call to it.
type ExtractFunction struct {
	extraOptions map[string]string
}

// NewExtractFunction constructs an ExtractFunction tweak instance.
func NewExtractFunction() *ExtractFunction {
	return &ExtractFunction{extraOptions: make(map[string]string)}
}

func (t *ExtractFunction) ID() string    { return "ExtractFunction" }
func (t *ExtractFunction) Title() string { return "Extract to function" }
func (t *ExtractFunction) Kind() string  { return KindRefactor }

// Prepare runs the five validity rules in order: selection shape,
// return-statement placement, return-value cardinality, branch
// integrity, and break/continue integrity.
func (t *ExtractFunction) Prepare(sel *Selection) bool {
	engine := (&RuleEngine{}).
		Add(extractFunctionSelectionShape).
		Add(extractFunctionReturnStatement).
		Add(extractFunctionReturnValueCardinality).
		Add(extractFunctionBranchIntegrity).
		Add(extractFunctionJumpIntegrity)
	ok := engine.Check(sel)
	t.extraOptions = sel.ExtraOptions
	return ok
}

// extractFunctionSelectionShape rejects selections that are themselves
// a global/member variable declaration, and requires the selection to
// sit inside a function body (extracting a function only makes sense
// from inside one).
func extractFunctionSelectionShape(sel *Selection) bool {
	switch sel.Tree.Root.AST.Kind() {
	case ast.KindGlobalVarDecl, ast.KindMemberVarDecl:
		sel.setError(ErrFuncGlobalMemberVar)
		return false
	}
	if sel.Tree.Scope != selection.ScopeFuncBody {
		sel.setError(ErrFuncPartialSelection)
		return false
	}
	return true
}

// extractFunctionReturnStatement rejects a selection containing more
// than one Complete ReturnExpr (the extracted function would then have
// more than one exit point).
func extractFunctionReturnStatement(sel *Selection) bool {
	seen := false
	ok := true
	selection.Walk(sel.Tree.Root, func(n *selection.Node) selection.WalkAction {
		if n.Selected != selection.Complete || n.AST.Kind() != ast.KindReturnExpr {
			return selection.WalkChildren
		}
		if seen {
			ok = false
			return selection.Stop
		}
		seen = true
		return selection.WalkChildren
	})
	if !ok {
		sel.setError(ErrFuncMultiExitPoint)
	}
	return ok
}

// extractFunctionBranchIntegrity rejects a Partial selection of an
// if/try/match expression — extracting half a branch construct would
// produce code that can't be expressed as a standalone call.
func extractFunctionBranchIntegrity(sel *Selection) bool {
	var code int
	ok := true
	selection.Walk(sel.Tree.Root, func(n *selection.Node) selection.WalkAction {
		if n.Selected != selection.Partial {
			return selection.WalkChildren
		}
		switch n.AST.Kind() {
		case ast.KindIfExpr:
			ok, code = false, ErrFuncPartialIfExpr
		case ast.KindTryExpr:
			ok, code = false, ErrFuncPartialTryExpr
		case ast.KindMatchExpr:
			ok, code = false, ErrFuncPartialMatchExpr
		default:
			return selection.WalkChildren
		}
		return selection.Stop
	})
	if !ok {
		sel.setError(code)
	}
	return ok
}

// extractFunctionJumpIntegrity rejects a break/continue (JumpExpr)
// whose binding loop is not entirely contained in the selection —
// extracting it would leave the loop it jumps out of behind.
func extractFunctionJumpIntegrity(sel *Selection) bool {
	ok := true
	selection.Walk(sel.Tree.Root, func(n *selection.Node) selection.WalkAction {
		if n.AST.Kind() != ast.KindJumpExpr {
			return selection.WalkChildren
		}
		loop := enclosingLoop(n.AST)
		if loop == nil || !sel.Range.Contains(loop.Range()) {
			ok = false
			return selection.Stop
		}
		return selection.WalkChildren
	})
	if !ok {
		sel.setError(ErrFuncPartialJumpExpr)
	}
	return ok
}

// extractFunctionReturnValueCardinality enforces return-value
// cardinality: at most one return-value candidate may exist in total,
// counting both the variables declared inside the selection that are
// live outside it (NeedExtractDecl2ReturnValue) and the non-member,
// non-global variables from outside the selection that an AssignExpr
// inside it writes and that are read after it
// (NeedExtractAssignExpr2ReturnValue). Both candidate sets are computed
// from the enclosing declaration's own selection tree — no symbol-
// reference index is needed, since "live after the selection" reduces
// to "referenced by a node positioned after it in the same top-level
// declaration."
func extractFunctionReturnValueCardinality(sel *Selection) bool {
	root := sel.Tree.Root
	declaredInside := declaredInsideSelection(root)
	after := refTargetsAfter(sel.Tree.TopDecl, sel.Range.End)

	declLive := map[ast.SymbolID]bool{}
	for id := range declaredInside {
		if after[id] {
			declLive[id] = true
		}
	}

	assignLive := map[ast.SymbolID]bool{}
	selection.Walk(root, func(n *selection.Node) selection.WalkAction {
		if n.AST.Kind() != ast.KindAssignExpr {
			return selection.WalkChildren
		}
		children := n.AST.Children()
		if len(children) == 0 || children[0].Kind() != ast.KindRefExpr {
			return selection.WalkChildren
		}
		lhs := children[0]
		id, ok := lhs.Target()
		if !ok || declaredInside[id] || !after[id] {
			return selection.WalkChildren
		}
		if isMemberOrGlobal(sel.AST.File, id) {
			return selection.WalkChildren
		}
		assignLive[id] = true
		return selection.WalkChildren
	})

	if len(declLive)+len(assignLive) > 1 {
		sel.setError(ErrFuncMultiReturnValue)
		return false
	}
	return true
}

// extractReturnValue picks the single return-value candidate (if any)
// by the same two rules extractFunctionReturnValueCardinality
// validated, recomputed here so Apply doesn't depend on Prepare having
// run against the same Selection first.
type extractReturnValue struct {
	id       ast.SymbolID
	name     string
	declared bool // true: NeedExtractDecl2ReturnValue; false: NeedExtractAssignExpr2ReturnValue
}

func findExtractReturnValue(sel *Selection) *extractReturnValue {
	root := sel.Tree.Root
	declaredInside := declaredInsideSelection(root)
	after := refTargetsAfter(sel.Tree.TopDecl, sel.Range.End)

	var found *extractReturnValue
	selection.Walk(root, func(n *selection.Node) selection.WalkAction {
		if found != nil {
			return selection.Stop
		}
		switch n.AST.Kind() {
		case ast.KindVarDecl:
			id, ok := n.AST.Target()
			if ok && declaredInside[id] && after[id] {
				found = &extractReturnValue{id: id, name: n.AST.Name(), declared: true}
				return selection.Stop
			}
		case ast.KindAssignExpr:
			children := n.AST.Children()
			if len(children) == 0 || children[0].Kind() != ast.KindRefExpr {
				return selection.WalkChildren
			}
			lhs := children[0]
			id, ok := lhs.Target()
			if !ok || declaredInside[id] || !after[id] || isMemberOrGlobal(sel.AST.File, id) {
				return selection.WalkChildren
			}
			found = &extractReturnValue{id: id, name: lhs.Name(), declared: false}
			return selection.Stop
		}
		return selection.WalkChildren
	})
	return found
}

// declaredInsideSelection returns the set of symbols declared by a
// VarDecl or FuncParam somewhere inside root.
func declaredInsideSelection(root *selection.Node) map[ast.SymbolID]bool {
	declared := make(map[ast.SymbolID]bool)
	selection.Walk(root, func(n *selection.Node) selection.WalkAction {
		switch n.AST.Kind() {
		case ast.KindVarDecl, ast.KindFuncParam:
			if id, ok := n.AST.Target(); ok {
				declared[id] = true
			}
		}
		return selection.WalkChildren
	})
	return declared
}

// refTargetsAfter walks top's subtree and collects the target of every
// RefExpr positioned strictly after end — the candidate set of symbols
// still "live" once the selected code has been replaced by a call.
func refTargetsAfter(top ast.Node, end ast.Position) map[ast.SymbolID]bool {
	targets := make(map[ast.SymbolID]bool)
	if top == nil {
		return targets
	}
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		if n.Kind() == ast.KindRefExpr && end.Less(n.Range().Begin) {
			if id, ok := n.Target(); ok {
				targets[id] = true
			}
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(top)
	return targets
}

// isMemberOrGlobal reports whether id names a GlobalVarDecl or
// MemberVarDecl anywhere in file, per rule 3's "excluding member and
// global access."
func isMemberOrGlobal(file ast.Node, id ast.SymbolID) bool {
	if file == nil {
		return false
	}
	found := false
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		if found {
			return
		}
		switch n.Kind() {
		case ast.KindGlobalVarDecl, ast.KindMemberVarDecl:
			if declID, ok := n.Target(); ok && declID == id {
				found = true
				return
			}
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(file)
	return found
}

func enclosingLoop(n ast.Node) ast.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case ast.KindWhileExpr, ast.KindDoWhileExpr, ast.KindForInExpr:
			return p
		}
	}
	return nil
}

// extractedParam is one value the extracted function needs from its
// caller, or — when reassigned inside the selection without being the
// chosen return value — a local the function now declares for itself.
type extractedParam struct {
	id         ast.SymbolID
	name       string
	typ        string
	reassigned bool
	readFirst  bool // read-before-first-write: renamed-param exception
}

// Apply builds the extracted function's declaration and its call site.
//
// Param detection is a RefExpr scan: every reference whose resolved
// target is not declared inside the selection becomes a parameter, typed
// from the declaring node's own Type() (or "Any"). The target's
// declaration kind is not checked, so references to globals, members or
// any other resolved declaration become parameters as well.
// Return-value synthesis and reassigned-param handling follow the same
// two return-value rules Prepare validated, recomputed here against the
// selection tree rather than carried across calls.
func (t *ExtractFunction) Apply(sel *Selection) (*Effect, bool) {
	root := sel.Tree.Root.AST
	body := sliceText(sel.AST, root.Range())
	if body == "" {
		sel.setError(ErrFuncInvalidCodeSegment)
		return nil, false
	}

	const name = "extracted"
	declaredInside := declaredInsideSelection(sel.Tree.Root)
	retVal := findExtractReturnValue(sel)

	ids, names := collectExtractedParamIDs(sel.Tree.Root, declaredInside)
	params := make([]extractedParam, len(ids))
	for i, id := range ids {
		reassigned, readFirst := paramAssignmentShape(sel.Tree.Root, id)
		if retVal != nil && retVal.id == id && !retVal.declared {
			// This param is the function's return value: it keeps its
			// slot in the signature rather than becoming a local.
			reassigned = false
		}
		params[i] = extractedParam{
			id:         id,
			name:       names[i],
			typ:        resolveDeclType(sel.AST.File, id),
			reassigned: reassigned,
			readFirst:  readFirst,
		}
	}

	var sig, args, prelude []string
	for _, p := range params {
		switch {
		case !p.reassigned:
			sig = append(sig, p.name+": "+p.typ)
			args = append(args, p.name)
		case p.readFirst:
			renamed := p.name + "Param"
			sig = append(sig, renamed+": "+p.typ)
			args = append(args, p.name)
			prelude = append(prelude, "var "+p.name+" = "+renamed)
		default:
			prelude = append(prelude, "var "+p.name+": "+p.typ)
		}
	}

	bodyText := body
	if len(prelude) > 0 {
		bodyText = strings.Join(prelude, "\n    ") + "\n    " + bodyText
	}

	returnType, callPrefix := "", ""
	if retVal != nil {
		returnType = ": " + resolveDeclType(sel.AST.File, retVal.id)
		bodyText += "\n    return " + retVal.name
		if retVal.declared {
			callPrefix = "var " + retVal.name + " = "
		} else {
			callPrefix = retVal.name + " = "
		}
	}

	funcText := "func " + name + "(" + strings.Join(sig, ", ") + ")" + returnType + " {\n    " + bodyText + "\n}"
	insertAt, sep := extractFunctionInsertPoint(sel)

	insertEdit := TextEdit{Range: toLSPRange(pointRange(insertAt)), NewText: sep + funcText}
	callEdit := TextEdit{
		Range:   toLSPRange(root.Range()),
		NewText: callPrefix + name + "(" + strings.Join(args, ", ") + ")",
	}

	return &Effect{
		ApplyEdits: map[string][]TextEdit{sel.AST.Path: {insertEdit, callEdit}},
		Format:     true,
	}, true
}

// collectExtractedParams returns, in first-use order, the names of
// references inside root that resolve to a declaration not itself
// found inside root — the set of values the extracted function needs
// passed in.
func collectExtractedParams(root *selection.Node) []string {
	_, names := collectExtractedParamIDs(root, declaredInsideSelection(root))
	return names
}

// collectExtractedParamIDs is collectExtractedParams plus each
// reference's resolved target, in the same first-use order.
func collectExtractedParamIDs(root *selection.Node, declaredInside map[ast.SymbolID]bool) ([]ast.SymbolID, []string) {
	seen := make(map[ast.SymbolID]bool)
	var ids []ast.SymbolID
	var names []string
	selection.Walk(root, func(n *selection.Node) selection.WalkAction {
		if n.AST.Kind() != ast.KindRefExpr {
			return selection.WalkChildren
		}
		id, ok := n.AST.Target()
		if !ok || declaredInside[id] || seen[id] {
			return selection.WalkChildren
		}
		seen[id] = true
		ids = append(ids, id)
		names = append(names, n.AST.Name())
		return selection.WalkChildren
	})
	return ids, names
}

// paramAssignmentShape reports whether id is the lhs target of some
// AssignExpr inside root and, if so, whether that assignment is
// compound-assignment-like: its own rhs still refers to id, meaning the
// old value is read before being overwritten (the `x = x + 1` shape
// `x += 1` desugars to) rather than a plain dead overwrite.
func paramAssignmentShape(root *selection.Node, id ast.SymbolID) (reassigned, readFirst bool) {
	selection.Walk(root, func(n *selection.Node) selection.WalkAction {
		if n.AST.Kind() != ast.KindAssignExpr {
			return selection.WalkChildren
		}
		children := n.AST.Children()
		if len(children) == 0 || children[0].Kind() != ast.KindRefExpr {
			return selection.WalkChildren
		}
		lhsID, ok := children[0].Target()
		if !ok || lhsID != id {
			return selection.WalkChildren
		}
		reassigned = true
		if refersTo(children[1:], id) {
			readFirst = true
		}
		return selection.WalkChildren
	})
	return reassigned, readFirst
}

// refersTo reports whether any node in nodes (or their descendants)
// contains a RefExpr targeting id.
func refersTo(nodes []ast.Node, id ast.SymbolID) bool {
	for _, n := range nodes {
		if n.Kind() == ast.KindRefExpr {
			if tid, ok := n.Target(); ok && tid == id {
				return true
			}
		}
		if refersTo(n.Children(), id) {
			return true
		}
	}
	return false
}

// resolveDeclType finds the VarDecl/FuncParam/GlobalVarDecl/MemberVarDecl
// in file that declares id and reports its Decl.Type(), defaulting to
// "Any" when no declaration is found or it doesn't carry type info.
func resolveDeclType(file ast.Node, id ast.SymbolID) string {
	if file == nil {
		return "Any"
	}
	var found ast.Node
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		if found != nil {
			return
		}
		switch n.Kind() {
		case ast.KindVarDecl, ast.KindFuncParam, ast.KindGlobalVarDecl, ast.KindMemberVarDecl:
			if tid, ok := n.Target(); ok && tid == id {
				found = n
				return
			}
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(file)
	if found == nil {
		return "Any"
	}
	if decl, ok := found.(ast.Decl); ok {
		if t := decl.Type(); t != "" {
			return t
		}
	}
	return "Any"
}

// extractFunctionInsertPoint mirrors the original's insertion-site
// choice: just before the closing brace of the enclosing type
// declaration when there is one, otherwise after the file's last
// top-level declaration. Two blank lines separate global insertions,
// one blank separates member insertions.
func extractFunctionInsertPoint(sel *Selection) (ast.Position, string) {
	if top := sel.Tree.TopDecl; top != nil {
		switch top.Kind() {
		case ast.KindClassDecl, ast.KindInterfaceDecl, ast.KindStructDecl, ast.KindEnumDecl, ast.KindExtendDecl:
			// Range().End is one column past the closing brace.
			end := top.Range().End
			if end.Column > 1 {
				end.Column--
			}
			return end, "\n\n"
		}
	}
	return globalInsertPoint(sel.AST.File), "\n\n\n"
}
