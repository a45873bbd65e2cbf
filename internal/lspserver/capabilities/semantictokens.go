package capabilities

import (
	"cjls/internal/ast"
	"cjls/internal/lspserver/wire"
)

// FindSemanticTokens always returns nil (null over the wire): full
// semantic-token classification needs a type-checked symbol table per
// token, which this index does not build (spec §1 non-goals), and the
// façade's policy (spec §6) is to reply null rather than block on a
// cache that will never exist.
func FindSemanticTokens(a *ast.ArkAST) *wire.SemanticTokens {
	return nil
}
