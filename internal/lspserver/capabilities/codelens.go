package capabilities

import (
	"fmt"

	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/ast"
	"cjls/internal/cache"
)

// FindCodeLenses attaches a reference-count lens above every top-level
// declaration, the way CodeLensImpl::GetCodeLens annotates each Decl with
// its usage count as a "N references" command.
func FindCodeLenses(a *ast.ArkAST, text []byte, store *cache.Store) []lsp.CodeLens {
	if a == nil || a.File == nil {
		return nil
	}
	var out []lsp.CodeLens
	for _, n := range a.File.Children() {
		id, ok := n.Target()
		if !ok {
			continue
		}
		refs := store.Refs(id)
		count := 0
		for _, r := range refs {
			if r.Kind != cache.RefDeclaration {
				count++
			}
		}
		out = append(out, lsp.CodeLens{
			Range: ToRange(text, n.Range()),
			Command: &lsp.Command{
				Title:   fmt.Sprintf("%d references", count),
				Command: "cjls.showReferences",
			},
		})
	}
	return out
}
