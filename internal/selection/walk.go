package selection

// Walk traverses the subtree rooted at n in pre-order, calling cb on
// each node. cb's return value controls descent: WalkChildren continues
// into n's children, SkipChildren moves on to n's next sibling without
// descending, and Stop halts the whole traversal immediately. Walk
// reports the action that stopped it (Stop) or WalkChildren if the
// traversal ran to completion — mirroring SelectionTree::Walk's
// WalkAction-returning callback instead of a visitor interface.
func Walk(n *Node, cb func(*Node) WalkAction) WalkAction {
	if n == nil {
		return WalkChildren
	}
	switch cb(n) {
	case Stop:
		return Stop
	case SkipChildren:
		return WalkChildren
	}
	for _, c := range n.Children {
		if Walk(c, cb) == Stop {
			return Stop
		}
	}
	return WalkChildren
}

// CommonAncestor returns the deepest node in t that is still an ancestor
// of every selected leaf: starting at Root, it descends while the
// current node has exactly one child and is not itself Unselected. It
// returns nil if Root already is that node (no single-child chain to
// descend) or if the tree is empty.
func CommonAncestor(t *Tree) *Node {
	if t == nil || t.Root == nil {
		return nil
	}
	anc := t.Root
	for len(anc.Children) == 1 && anc.Selected != Unselected {
		anc = anc.Children[0]
	}
	if anc == t.Root {
		return nil
	}
	return anc
}
