package capabilities

import (
	"cjls/internal/lspserver/wire"

	"cjls/internal/ast"
)

// FindBreakpointLocations collects the full range of every Block that
// overlaps rng as a breakpoint site, one location per block rather than
// per source line.
func FindBreakpointLocations(a *ast.ArkAST, text []byte, rng ast.Range) []wire.BreakpointLocation {
	if a == nil || a.File == nil {
		return nil
	}
	var out []wire.BreakpointLocation
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		if n.Kind() == ast.KindBlock && rng.Overlaps(n.Range()) {
			out = append(out, wire.BreakpointLocation{Range: ToRange(text, n.Range())})
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(a.File)
	return out
}
