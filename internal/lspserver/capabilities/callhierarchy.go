package capabilities

import (
	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/lspserver/wire"

	"cjls/internal/ast"
	"cjls/internal/cache"
	"cjls/internal/project"
)

func callHierarchyItemFor(proj *project.Project, sym cache.Symbol) (wire.CallHierarchyItem, bool) {
	path, ok := proj.GetPathBySource(sym.Location.File)
	if !ok {
		return wire.CallHierarchyItem{}, false
	}
	text, _ := proj.GetText(path)
	return wire.CallHierarchyItem{
		Name:           sym.Name,
		Kind:           12, // SKFunction
		URI:            string(URIFromPath(path)),
		Range:          ToRange(text, sym.Declaration),
		SelectionRange: ToRange(text, sym.Declaration),
	}, true
}

// FindCallHierarchyRoot resolves the callable declaration under pos into
// the root item the client anchors incoming/outgoing navigation on.
func FindCallHierarchyRoot(a *ast.ArkAST, proj *project.Project, store *cache.Store, pos ast.Position) (wire.CallHierarchyItem, bool) {
	if a == nil || a.File == nil {
		return wire.CallHierarchyItem{}, false
	}
	decl := EnclosingDecl(NodeAt(a.File, pos), funcDeclKinds)
	if decl == nil {
		return wire.CallHierarchyItem{}, false
	}
	id, ok := decl.Target()
	if !ok {
		return wire.CallHierarchyItem{}, false
	}
	sym, ok := store.Lookup(id)
	if !ok {
		return wire.CallHierarchyItem{}, false
	}
	return callHierarchyItemFor(proj, sym)
}

// FindIncomingCalls returns, for every non-declaration reference to id,
// the symbol that contains the reference (its ContainerID) as the caller.
// Whether the reference is a call expression is not checked.
func FindIncomingCalls(proj *project.Project, store *cache.Store, id ast.SymbolID) []wire.CallHierarchyIncomingCall {
	var out []wire.CallHierarchyIncomingCall
	for _, ref := range store.Refs(id) {
		if ref.Kind == cache.RefDeclaration {
			continue
		}
		callerSym, ok := store.Lookup(ref.ContainerID)
		if !ok {
			continue
		}
		item, ok := callHierarchyItemFor(proj, callerSym)
		if !ok {
			continue
		}
		path, _ := proj.GetPathBySource(ref.Location.File)
		text, _ := proj.GetText(path)
		out = append(out, wire.CallHierarchyIncomingCall{
			From:       item,
			FromRanges: []lsp.Range{ToRange(text, ast.Range{Begin: ref.Location, End: ref.Location})},
		})
	}
	return out
}

// FindOutgoingCalls returns the object of every relation recorded in
// RelationsFrom(calleeID), the forward counterpart to FindIncomingCalls.
// Relations are not filtered by predicate.
func FindOutgoingCalls(proj *project.Project, store *cache.Store, calleeID ast.SymbolID) []wire.CallHierarchyOutgoingCall {
	var out []wire.CallHierarchyOutgoingCall
	for _, rel := range store.RelationsFrom(calleeID) {
		targetSym, ok := store.Lookup(rel.Object)
		if !ok {
			continue
		}
		item, ok := callHierarchyItemFor(proj, targetSym)
		if !ok {
			continue
		}
		out = append(out, wire.CallHierarchyOutgoingCall{To: item})
	}
	return out
}
