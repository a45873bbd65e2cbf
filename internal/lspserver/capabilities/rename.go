package capabilities

import (
	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/ast"
	"cjls/internal/cache"
	"cjls/internal/project"
)

// PrepareRename reports whether pos sits on a renameable symbol and, if
// so, the range of its current spelling — the same target resolution
// FindReferences uses, just without collecting the edits yet.
func PrepareRename(a *ast.ArkAST, text []byte, store *cache.Store, pos ast.Position) (*lsp.Range, bool) {
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
	if _, ok := store.Lookup(id); !ok {
		return nil, false
	}
	r := ToRange(text, n.Range())
	return &r, true
}

// Rename builds the WorkspaceEdit that renames every reference (and the
// declaration) of the symbol at pos to newName, grouped by file the way
// RenameImpl's DocumentChanges accumulates a per-file EditMap before
// flattening it into the reply.
func Rename(a *ast.ArkAST, proj *project.Project, store *cache.Store, pos ast.Position, newName string) (*lsp.WorkspaceEdit, bool) {
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

	changes := map[string][]lsp.TextEdit{}
	addEdit := func(fileID ast.FileID, rng ast.Range) {
		path, ok := proj.GetPathBySource(fileID)
		if !ok {
			return
		}
		text, _ := proj.GetText(path)
		uri := string(URIFromPath(path))
		changes[uri] = append(changes[uri], lsp.TextEdit{Range: ToRange(text, rng), NewText: newName})
	}

	addEdit(sym.Location.File, sym.Declaration)
	for _, ref := range store.Refs(id) {
		addEdit(ref.Location.File, ast.Range{Begin: ref.Location, End: ref.Location})
	}

	return &lsp.WorkspaceEdit{Changes: changes}, true
}
