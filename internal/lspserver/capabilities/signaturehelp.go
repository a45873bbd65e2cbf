package capabilities

import (
	"strings"

	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/ast"
	"cjls/internal/cache"
)

// FindSignatureHelp resolves the call expression enclosing pos and
// renders the signature of the function it calls, active-parameter index
// included — SignatureHelpImpl's NormalFuncSignatureHelp/MemberFuncSignatureHelp
// split collapses here into one lookup since cjls's index already
// resolves member calls to a concrete Symbol.
func FindSignatureHelp(a *ast.ArkAST, store *cache.Store, pos ast.Position) (*lsp.SignatureHelp, bool) {
	if a == nil || a.File == nil {
		return nil, false
	}
	call := EnclosingDecl(NodeAt(a.File, pos), map[ast.Kind]bool{ast.KindCallExpr: true})
	if call == nil {
		return nil, false
	}
	id, ok := ResolveTarget(call)
	if !ok {
		return nil, false
	}
	sym, ok := store.Lookup(id)
	if !ok || sym.Kind != cache.SymbolFunction {
		return nil, false
	}

	params := parseParams(sym.Signature)
	active := activeParam(call, pos, len(params))

	sig := lsp.SignatureInformation{
		Label:      sym.Signature,
		Parameters: make([]lsp.ParameterInformation, len(params)),
	}
	for i, p := range params {
		sig.Parameters[i] = lsp.ParameterInformation{Label: p}
	}
	return &lsp.SignatureHelp{
		Signatures:      []lsp.SignatureInformation{sig},
		ActiveSignature: 0,
		ActiveParameter: active,
	}, true
}

// parseParams splits a "name(a: T, b: U): R"-shaped rendered signature
// into its comma-separated parameter labels.
func parseParams(sig string) []string {
	open := strings.IndexByte(sig, '(')
	shut := strings.IndexByte(sig, ')')
	if open < 0 || shut < 0 || shut <= open {
		return nil
	}
	inner := strings.TrimSpace(sig[open+1 : shut])
	if inner == "" {
		return nil
	}
	parts := strings.Split(inner, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// activeParam counts call's child nodes (other than KindUnknown) that end
// before pos, clamped to the last valid parameter index.
func activeParam(call ast.Node, pos ast.Position, n int) int {
	if n == 0 {
		return 0
	}
	idx := 0
	for _, c := range call.Children() {
		if c.Range().End.Less(pos) && c.Kind() != ast.KindUnknown {
			idx++
		}
	}
	if idx >= n {
		idx = n - 1
	}
	return idx
}
