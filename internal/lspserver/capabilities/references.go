package capabilities

import (
	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/ast"
	"cjls/internal/cache"
	"cjls/internal/project"
)

// FindReferences returns every recorded Ref to the symbol under pos,
// optionally including its own declaration, across every file proj knows
// about — the cross-file fan-out FindLocalRefs/FindGlobalRefs do in the
// original by walking the whole reference graph rather than one file's
// AST.
func FindReferences(a *ast.ArkAST, proj *project.Project, store *cache.Store, pos ast.Position, includeDecl bool) ([]lsp.Location, bool) {
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

	var locs []lsp.Location
	refs := store.Refs(id)
	for _, ref := range refs {
		if ref.Kind == cache.RefDeclaration && !includeDecl {
			continue
		}
		path, ok := proj.GetPathBySource(ref.Location.File)
		if !ok {
			continue
		}
		text, _ := proj.GetText(path)
		locs = append(locs, lsp.Location{
			URI:   URIFromPath(path),
			Range: ToRange(text, ast.Range{Begin: ref.Location, End: ref.Location}),
		})
	}
	if includeDecl {
		if sym, ok := store.Lookup(id); ok {
			if path, ok := proj.GetPathBySource(sym.Location.File); ok {
				text, _ := proj.GetText(path)
				locs = append(locs, lsp.Location{URI: URIFromPath(path), Range: ToRange(text, sym.Declaration)})
			}
		}
	}
	return locs, true
}
