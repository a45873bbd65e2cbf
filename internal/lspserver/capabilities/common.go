// Package capabilities implements the per-method feature handlers behind
// cjls's LSP façade: one file per capability, mirroring the split the
// Cangjie language server itself uses (capabilities/hover, .../definition,
// .../rename, ...). Each handler is a small static-style function taking
// the already-parsed ast.ArkAST plus whatever of internal/cache,
// internal/project, or internal/tweak it needs, and returns a wire-ready
// result — no handler touches jsonrpc2 or scheduling, that is
// internal/lspserver's job.
package capabilities

import (
	"strings"

	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/ast"
	"cjls/internal/lspserver/position"
)

// NodeAt returns the smallest node in root's subtree whose range contains
// pos, or nil if pos falls outside root entirely. Ties (an empty-range
// node sharing pos's boundary) favor the most specific descendant found
// last during the walk.
func NodeAt(root ast.Node, pos ast.Position) ast.Node {
	if root == nil {
		return nil
	}
	r := root.Range()
	if pos.Less(r.Begin) || r.End.Less(pos) {
		return nil
	}
	best := root
	for _, c := range root.Children() {
		if n := NodeAt(c, pos); n != nil {
			best = n
		}
	}
	return best
}

// EnclosingDecl climbs from n looking for the nearest ancestor (or n
// itself) whose Kind is a declaration kind, per kinds.
func EnclosingDecl(n ast.Node, kinds map[ast.Kind]bool) ast.Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		if kinds[cur.Kind()] {
			return cur
		}
	}
	return nil
}

var typeDeclKinds = map[ast.Kind]bool{
	ast.KindClassDecl:     true,
	ast.KindInterfaceDecl: true,
	ast.KindStructDecl:    true,
	ast.KindEnumDecl:      true,
	ast.KindExtendDecl:    true,
}

var funcDeclKinds = map[ast.Kind]bool{
	ast.KindFuncDecl: true,
}

// ResolveTarget walks up from n until it finds a node with a resolved
// Target symbol, the way a RefExpr buried inside a larger selected
// expression resolves to the symbol its innermost ref names.
func ResolveTarget(n ast.Node) (ast.SymbolID, bool) {
	for cur := n; cur != nil; cur = cur.Parent() {
		if id, ok := cur.Target(); ok {
			return id, true
		}
	}
	return 0, false
}

// URIFromPath builds a file:// URI the way the façade replies with for
// any location pointing back into the workspace.
func URIFromPath(path string) lsp.DocumentURI {
	if strings.HasPrefix(path, "file://") {
		return lsp.DocumentURI(path)
	}
	return lsp.DocumentURI("file://" + path)
}

// ToRange converts an ast.Range to lsp.Range against text.
func ToRange(text []byte, r ast.Range) lsp.Range {
	return position.ToLSPRange(text, r)
}
