// Package selection builds the selection tree (component D): given a
// text range, it locates the smallest top-level declaration containing
// it (or the innermost string-interpolation expression the range falls
// inside) and classifies every node in that subtree as Unselected,
// Partial, or Complete relative to the range (spec §4.D). The tweak
// engine walks the resulting tree to decide what a refactoring applies
// to and whether the selection is in a legal scope.
//
// Grounded on original_source/.../selection/SelectionTree.{h,cpp}; the
// walk-with-skip-children idiom that file uses to avoid a second
// recursive descent is replaced here with plain recursion over
// ast.Node.Children, since Go's Node interface exposes children
// directly and doesn't need a mutable visitor to get the same shape.
package selection

import "cjls/internal/ast"

// Kind classifies how much of a node a selection range covers.
type Kind int

// Selection kinds, spec §4.D.
const (
	Unselected Kind = iota
	Partial
	Complete
)

func (k Kind) String() string {
	switch k {
	case Partial:
		return "Partial"
	case Complete:
		return "Complete"
	default:
		return "Unselected"
	}
}

// Scope names the enclosing context a selection's TargetDecl sits in.
// Refactoring rules reject selections outside these (spec §4.D).
type Scope int

// Scope values.
const (
	ScopeUnknown Scope = iota
	ScopeGlobalVar
	ScopeMemberVar
	ScopeFuncBody
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobalVar:
		return "GLOBAL_VAR"
	case ScopeMemberVar:
		return "MEMBER_VAR"
	case ScopeFuncBody:
		return "FUNC_BODY"
	default:
		return "UNKNOWN"
	}
}

// Node is one element of a Tree: an ast.Node plus its selection
// classification and a pointer back to its parent ast.Node (not its
// *Node parent, matching the original's shape).
type Node struct {
	AST      ast.Node
	Parent   ast.Node
	Children []*Node
	Selected Kind
}

// WalkAction tells Walk how to proceed after visiting a node (spec
// §4.D): a named action value rather than a callback-driven visitor, so
// rules read as a flat switch instead of nested closures.
type WalkAction int

// Walk actions.
const (
	WalkChildren WalkAction = iota
	SkipChildren
	Stop
)

// Tree is the result of Build: the selection subtree rooted at the
// smallest containing declaration, plus the metadata the tweak engine's
// rules consult before deciding whether a refactor applies.
type Tree struct {
	Root            *Node
	Scope           Scope
	TargetDecl      ast.Node
	TopDecl         ast.Node
	OuterInterpExpr ast.Node
}

// Build locates the smallest top-level declaration in file containing
// [begin, end) and constructs a Tree over its subtree. It returns
// ok=false if begin == end (spec's CreateEach contract — an empty
// selection has no tree) or no top-level declaration contains the range.
func Build(file ast.Node, begin, end ast.Position) (*Tree, bool) {
	if begin == end {
		return nil, false
	}

	for _, decl := range file.Children() {
		chain := containingChain(decl, begin, end)
		if chain == nil {
			continue
		}
		t := &Tree{}
		for i, n := range chain {
			t.absorb(n, begin, end, i == 0)
		}
		t.Root = buildNode(chain[len(chain)-1], nil, begin, end)
		return t, true
	}
	return nil, false
}

// containingChain returns the path from node down to the innermost
// descendant that still fully contains [begin, end), or nil if node
// itself doesn't contain the range. Macro-expanded nodes and malformed
// ranges (begin > end) are skipped, matching FindSelectNode.
func containingChain(node ast.Node, begin, end ast.Position) []ast.Node {
	if node == nil {
		return nil
	}
	r := node.Range()
	if end.Less(r.Begin) || r.End.Less(begin) {
		return nil
	}
	if node.IsInMacroCall() {
		return nil
	}
	if r.End.Less(r.Begin) {
		return nil
	}
	if begin.Less(r.Begin) || r.End.Less(end) {
		return nil
	}

	chain := []ast.Node{node}
	for _, c := range node.Children() {
		if deeper := containingChain(c, begin, end); deeper != nil {
			chain = append(chain, deeper...)
			break
		}
	}
	return chain
}

// absorb folds one node of the containment chain into the tree's
// metadata: scope, top declaration and outer interpolation expression
// are each decided by the first (outermost) matching node, mirroring the
// original's "if already set, return" guards.
func (t *Tree) absorb(n ast.Node, begin, end ast.Position, isTopLevel bool) {
	if t.OuterInterpExpr == nil && n.Kind() == ast.KindInterpolationExpr {
		t.OuterInterpExpr = n
	}
	t.matchScope(n, begin, end)
	t.matchTopDecl(n, isTopLevel)
}

func (t *Tree) matchScope(n ast.Node, begin, end ast.Position) {
	if t.Scope != ScopeUnknown {
		return
	}
	switch n.Kind() {
	case ast.KindGlobalVarDecl:
		t.Scope = ScopeGlobalVar
		t.TargetDecl = n
	case ast.KindMemberVarDecl:
		t.Scope = ScopeMemberVar
		t.TargetDecl = n
	case ast.KindFuncDecl:
		body := bodyBlock(n)
		if body == nil {
			return
		}
		br := body.Range()
		if begin.Less(br.Begin) || br.End.Less(end) {
			return
		}
		t.Scope = ScopeFuncBody
		t.TargetDecl = n
	}
}

func bodyBlock(funcDecl ast.Node) ast.Node {
	for _, c := range funcDecl.Children() {
		if c.Kind() == ast.KindBlock {
			return c
		}
	}
	return nil
}

// matchTopDecl records the enclosing top-level declaration. Type/extend
// declarations qualify at any depth in the chain; function and global
// variable declarations only qualify when they are the chain's outermost
// node — the Go equivalent of the original's `TestAttr(GLOBAL)` check,
// since a locally nested FuncDecl carries the same Kind as a top-level
// one and position-in-chain is what distinguishes them here.
func (t *Tree) matchTopDecl(n ast.Node, isTopLevel bool) {
	if t.TopDecl != nil {
		return
	}
	switch n.Kind() {
	case ast.KindInterfaceDecl, ast.KindClassDecl, ast.KindStructDecl, ast.KindEnumDecl, ast.KindExtendDecl:
		t.TopDecl = n
	case ast.KindFuncDecl, ast.KindGlobalVarDecl:
		if isTopLevel {
			t.TopDecl = n
		}
	}
}

// buildNode recursively classifies node and every descendant against
// [begin, end).
func buildNode(node, parent ast.Node, begin, end ast.Position) *Node {
	tn := &Node{AST: node, Parent: parent, Selected: classify(node.Range(), begin, end)}
	for _, c := range node.Children() {
		if r := c.Range(); r.End.Less(r.Begin) {
			continue
		}
		tn.Children = append(tn.Children, buildNode(c, node, begin, end))
	}
	return tn
}

// classify compares a node's own range r against the selection
// [begin, end): Complete means the selection fully covers the node,
// Partial means they overlap but the node sticks out on either side,
// Unselected means they don't overlap at all.
func classify(r ast.Range, begin, end ast.Position) Kind {
	if end.Less(r.Begin) || r.End.Less(begin) {
		return Unselected
	}
	if !r.Begin.Less(begin) && !end.Less(r.End) {
		return Complete
	}
	return Partial
}
