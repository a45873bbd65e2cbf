package capabilities

import (
	"strings"

	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/ast"
	"cjls/internal/cache"
)

var completionKindBySymbolKind = map[cache.SymbolKind]lsp.CompletionItemKind{
	cache.SymbolFunction:  lsp.CIKFunction,
	cache.SymbolClass:     lsp.CIKClass,
	cache.SymbolInterface: lsp.CIKInterface,
	cache.SymbolStruct:    lsp.CIKStruct,
	cache.SymbolEnum:      lsp.CIKEnum,
	cache.SymbolEnumCase:  lsp.CIKEnumMember,
	cache.SymbolVariable:  lsp.CIKVariable,
	cache.SymbolParameter: lsp.CIKVariable,
	cache.SymbolField:     lsp.CIKField,
	cache.SymbolExtend:    lsp.CIKClass,
	cache.SymbolPackage:   lsp.CIKModule,
	cache.SymbolMacro:     lsp.CIKKeyword,
}

// FindImportCompletion offers top-level symbols whose name starts with
// prefix from packages not in imported, one item per symbol labelled with
// the symbol name and detailed with its package. It does not complete
// import paths or list packages/modules inside an import clause.
func FindImportCompletion(store *cache.Store, prefix string, imported map[string]bool) []lsp.CompletionItem {
	cands := store.FindImportSymsOnCompletion(prefix, imported)
	items := make([]lsp.CompletionItem, 0, len(cands))
	for _, c := range cands {
		items = append(items, lsp.CompletionItem{
			Label:      c.Symbol.Name,
			Kind:       completionKindBySymbolKind[c.Symbol.Kind],
			Detail:     c.Package,
			InsertText: c.Symbol.InsertText,
			Data:       c.Hint,
		})
	}
	return items
}

// FindScopeCompletion offers every declared symbol whose name has prefix
// as a completion item, regardless of scope reachability — the fallback
// NormalCompleterByParse runs once KeywordCompleter and the import
// special case are exhausted.
func FindScopeCompletion(a *ast.ArkAST, prefix string) []lsp.CompletionItem {
	if a == nil || a.File == nil {
		return nil
	}
	var items []lsp.CompletionItem
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		if name := n.Name(); name != "" && strings.HasPrefix(name, prefix) {
			items = append(items, lsp.CompletionItem{
				Label:      name,
				Kind:       lsp.CIKVariable,
				InsertText: name,
			})
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(a.File)
	return items
}
