package capabilities

import (
	"testing"

	"cjls/internal/ast"
)

func TestFindBreakpointLocationsOverlappingRange(t *testing.T) {
	a, _ := buildHoverFixture()
	text := []byte("func greet(){ hi() }")

	locs := FindBreakpointLocations(a, text, r(p(1, 1), p(1, 21)))
	if len(locs) != 1 {
		t.Fatalf("expected exactly one block, got %d: %+v", len(locs), locs)
	}
}

func TestFindBreakpointLocationsNoOverlap(t *testing.T) {
	a, _ := buildHoverFixture()
	text := []byte("func greet(){ hi() }")

	locs := FindBreakpointLocations(a, text, r(p(5, 1), p(5, 2)))
	if len(locs) != 0 {
		t.Fatalf("expected no blocks, got %+v", locs)
	}
}

func TestFindBreakpointLocationsNilFile(t *testing.T) {
	a := &ast.ArkAST{Path: "/empty.cj"}
	if locs := FindBreakpointLocations(a, nil, ast.Range{}); locs != nil {
		t.Fatalf("expected nil for a file with no AST, got %+v", locs)
	}
}
