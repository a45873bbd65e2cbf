package capabilities

import (
	"strings"

	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/cache"
	"cjls/internal/project"
)

// FindWorkspaceSymbols answers workspace/symbol by scanning every
// indexed symbol for a name containing query, the cross-project
// counterpart to FindDocumentSymbols: it never parses a file, it only
// ever reads what Component A has already indexed.
func FindWorkspaceSymbols(proj *project.Project, store *cache.Store, query string) []lsp.SymbolInformation {
	q := strings.ToLower(query)
	var out []lsp.SymbolInformation
	for _, sym := range store.AllSymbols() {
		if q != "" && !strings.Contains(strings.ToLower(sym.Name), q) {
			continue
		}
		path, ok := proj.GetPathBySource(sym.Location.File)
		if !ok {
			continue
		}
		text, _ := proj.GetText(path)
		out = append(out, lsp.SymbolInformation{
			Name:          sym.Name,
			Kind:          symbolKindForCache(sym.Kind),
			Location:      lsp.Location{URI: URIFromPath(path), Range: ToRange(text, sym.Declaration)},
			ContainerName: sym.Scope,
		})
	}
	return out
}

func symbolKindForCache(k cache.SymbolKind) lsp.SymbolKind {
	switch k {
	case cache.SymbolFunction:
		return lsp.SKFunction
	case cache.SymbolClass, cache.SymbolExtend:
		return lsp.SKClass
	case cache.SymbolInterface:
		return lsp.SKInterface
	case cache.SymbolStruct:
		return lsp.SKStruct
	case cache.SymbolEnum, cache.SymbolEnumCase:
		return lsp.SKEnum
	case cache.SymbolField:
		return lsp.SKField
	case cache.SymbolPackage:
		return lsp.SKPackage
	default:
		return lsp.SKVariable
	}
}
