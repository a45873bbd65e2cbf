package tweak

import "cjls/internal/selection"

// Rule is one validity check in a tweak's prepare sequence: it
// inspects sel and reports whether the tweak may proceed, recording an
// error code in sel.ExtraOptions when it rejects.
type Rule func(sel *Selection) bool

// RuleEngine runs a tweak's rule sequence in order, short-circuiting on
// the first rejection after the shared CommonCheck passes.
type RuleEngine struct {
	rules []Rule
}

// Add appends r to the engine's sequence and returns the engine, so
// construction reads as a chain: (&RuleEngine{}).Add(r1).Add(r2).
func (e *RuleEngine) Add(r Rule) *RuleEngine {
	e.rules = append(e.rules, r)
	return e
}

// Check runs CommonCheck followed by every added rule, in order. An
// engine with no rules always passes — a tweak that only needs the
// common shape check adds none.
func (e *RuleEngine) Check(sel *Selection) bool {
	if len(e.rules) == 0 {
		return true
	}
	if !CommonCheck(sel) {
		return false
	}
	for _, r := range e.rules {
		if !r(sel) {
			return false
		}
	}
	return true
}

// CommonCheck is the prefix every tweak's prepare runs: the selection
// must be non-empty, its tree must have a root, every node under that
// root must have resolved to a real AST node, and at least one node
// must be Complete — otherwise nothing in the selection is eligible to
// extract.
func CommonCheck(sel *Selection) bool {
	if sel == nil || sel.AST == nil || sel.AST.File == nil {
		return false
	}
	if sel.Range.Begin == sel.Range.End {
		return false
	}
	if sel.Tree == nil || sel.Tree.Root == nil {
		return false
	}

	valid := true
	containComplete := false
	selection.Walk(sel.Tree.Root, func(n *selection.Node) selection.WalkAction {
		if n.AST == nil {
			valid = false
			return selection.Stop
		}
		if n.Selected == selection.Complete {
			containComplete = true
		}
		return selection.WalkChildren
	})

	ok := valid && containComplete
	if !ok {
		sel.setError(ErrTweakFail)
	}
	return ok
}
