package capabilities

import (
	"fmt"

	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/ast"
	"cjls/internal/cache"
)

// FindHover builds the hover card for the symbol at pos: its signature,
// return type, and enclosing scope, the way HoverImpl::FindHover renders
// a Decl's pretty-printed comment and signature.
func FindHover(a *ast.ArkAST, text []byte, store *cache.Store, pos ast.Position) (*lsp.Hover, bool) {
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

	value := sym.Signature
	if value == "" {
		value = sym.Name
	}
	if sym.ReturnType != "" {
		value = fmt.Sprintf("%s: %s", value, sym.ReturnType)
	}
	if sym.Scope != "" {
		value = fmt.Sprintf("%s\n\n%s", value, sym.Scope)
	}
	if sym.IsDeprecated {
		value = "(deprecated) " + value
	}

	rng := ToRange(text, n.Range())
	return &lsp.Hover{
		Contents: []lsp.MarkedString{{Language: "cangjie", Value: value}},
		Range:    &rng,
	}, true
}
