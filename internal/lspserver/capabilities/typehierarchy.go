package capabilities

import (
	"cjls/internal/lspserver/wire"

	"cjls/internal/ast"
	"cjls/internal/cache"
	"cjls/internal/project"
)

var typeHierarchyKindByDeclKind = map[ast.Kind]int{
	ast.KindClassDecl:     5,
	ast.KindInterfaceDecl: 11,
	ast.KindStructDecl:    23,
	ast.KindEnumDecl:      10,
}

func typeHierarchyItemFor(proj *project.Project, sym cache.Symbol, declKind ast.Kind) (wire.TypeHierarchyItem, bool) {
	path, ok := proj.GetPathBySource(sym.Location.File)
	if !ok {
		return wire.TypeHierarchyItem{}, false
	}
	text, _ := proj.GetText(path)
	return wire.TypeHierarchyItem{
		Name:           sym.Name,
		Kind:           typeHierarchyKindByDeclKind[declKind],
		URI:            string(URIFromPath(path)),
		Range:          ToRange(text, sym.Declaration),
		SelectionRange: ToRange(text, sym.Declaration),
	}, true
}

// FindTypeHierarchyRoot resolves the type declaration under pos into the
// hierarchy root item the client anchors super/subtype navigation on.
func FindTypeHierarchyRoot(a *ast.ArkAST, proj *project.Project, store *cache.Store, pos ast.Position) (wire.TypeHierarchyItem, bool) {
	if a == nil || a.File == nil {
		return wire.TypeHierarchyItem{}, false
	}
	decl := EnclosingDecl(NodeAt(a.File, pos), typeDeclKinds)
	if decl == nil {
		return wire.TypeHierarchyItem{}, false
	}
	id, ok := decl.Target()
	if !ok {
		return wire.TypeHierarchyItem{}, false
	}
	sym, ok := store.Lookup(id)
	if !ok {
		return wire.TypeHierarchyItem{}, false
	}
	return typeHierarchyItemFor(proj, sym, decl.Kind())
}

// FindSuperTypes walks the BaseOf/Extend relations from item's symbol
// upward one level, the way TypeHierarchyImpl::FindSuperTypesImpl widens
// one generation at a time rather than eagerly flattening the whole
// chain.
func FindSuperTypes(proj *project.Project, store *cache.Store, id ast.SymbolID) []wire.TypeHierarchyItem {
	var out []wire.TypeHierarchyItem
	for _, rel := range store.RelationsFrom(id) {
		sym, ok := store.Lookup(rel.Object)
		if !ok {
			continue
		}
		if item, ok := typeHierarchyItemFor(proj, sym, ast.KindClassDecl); ok {
			out = append(out, item)
		}
	}
	return out
}

// FindSubTypes is FindSuperTypes run against the reverse edge.
func FindSubTypes(proj *project.Project, store *cache.Store, id ast.SymbolID) []wire.TypeHierarchyItem {
	var out []wire.TypeHierarchyItem
	for _, rel := range store.RelationsTo(id) {
		sym, ok := store.Lookup(rel.Subject)
		if !ok {
			continue
		}
		if item, ok := typeHierarchyItemFor(proj, sym, ast.KindClassDecl); ok {
			out = append(out, item)
		}
	}
	return out
}
