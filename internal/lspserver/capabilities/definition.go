package capabilities

import (
	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/ast"
	"cjls/internal/cache"
	"cjls/internal/project"
)

// FindDefinition resolves the symbol under pos to its declaration
// location, the way LocateSymbolAtImpl walks the reference graph back to
// a Decl. Cross-package targets are resolved through proj so the reply
// points at the file the declaration actually lives in rather than the
// requesting file.
func FindDefinition(a *ast.ArkAST, proj *project.Project, store *cache.Store, pos ast.Position) ([]lsp.Location, bool) {
	if a == nil || a.File == nil {
		return nil, false
	}
	n := NodeAt(a.File, pos)
	if n == nil {
		return nil, false
	}
	id, ok := ResolveTarget(n)
	if !ok {
		return nil, false
	}
	sym, ok := store.Lookup(id)
	if !ok {
		return nil, false
	}
	declPath, ok := proj.GetPathBySource(sym.Location.File)
	if !ok {
		return nil, false
	}
	declText, _ := proj.GetText(declPath)
	return []lsp.Location{{
		URI:   URIFromPath(declPath),
		Range: ToRange(declText, sym.Declaration),
	}}, true
}
