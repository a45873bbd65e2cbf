package capabilities

import (
	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/ast"
	"cjls/internal/cache"
)

var symbolKindByASTKind = map[ast.Kind]lsp.SymbolKind{
	ast.KindClassDecl:     lsp.SKClass,
	ast.KindInterfaceDecl: lsp.SKInterface,
	ast.KindStructDecl:    lsp.SKStruct,
	ast.KindEnumDecl:      lsp.SKEnum,
	ast.KindFuncDecl:      lsp.SKFunction,
	ast.KindGlobalVarDecl: lsp.SKVariable,
	ast.KindMemberVarDecl: lsp.SKField,
	ast.KindExtendDecl:    lsp.SKClass,
}

// FindDocumentSymbols walks a.File collecting one SymbolInformation per
// declaration whose kind DocumentSymbolImpl considers a supported
// outline entry.
func FindDocumentSymbols(a *ast.ArkAST, text []byte) []lsp.SymbolInformation {
	if a == nil || a.File == nil {
		return nil
	}
	var out []lsp.SymbolInformation
	var walk func(n ast.Node, container string)
	walk = func(n ast.Node, container string) {
		if kind, ok := symbolKindByASTKind[n.Kind()]; ok && n.Name() != "" {
			out = append(out, lsp.SymbolInformation{
				Name:          n.Name(),
				Kind:          kind,
				Location:      lsp.Location{Range: ToRange(text, n.Range())},
				ContainerName: container,
			})
			container = n.Name()
		}
		for _, c := range n.Children() {
			walk(c, container)
		}
	}
	walk(a.File, "")
	return out
}

// FindDocumentHighlights returns every ref/decl location of the symbol
// under pos within the same file only, tagged read/write the way the
// client renders occurrence highlighting.
func FindDocumentHighlights(a *ast.ArkAST, text []byte, store *cache.Store, pos ast.Position) []lsp.DocumentHighlight {
	if a == nil || a.File == nil {
		return nil
	}
	n := NodeAt(a.File, pos)
	if n == nil {
		return nil
	}
	id, ok := ResolveTarget(n)
	if !ok {
		return nil
	}
	var out []lsp.DocumentHighlight
	for _, ref := range store.Refs(id) {
		if ref.Location.File != pos.File {
			continue
		}
		kind := lsp.Read
		if ref.Kind == cache.RefWrite {
			kind = lsp.Write
		}
		out = append(out, lsp.DocumentHighlight{
			Range: ToRange(text, ast.Range{Begin: ref.Location, End: ref.Location}),
			Kind:  kind,
		})
	}
	return out
}
