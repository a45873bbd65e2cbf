package capabilities

import (
	"testing"

	"github.com/spf13/afero"

	"cjls/internal/ast"
	"cjls/internal/cache"
)

func TestFindImportCompletionSkipsImportedPackages(t *testing.T) {
	store := cache.NewStore(afero.NewMemMapFs(), "/cache/ast", "/cache/idx")
	_ = store.StoreIndex("pkg.other", cache.Digest(1), cache.HashedPackage{
		Package: "pkg.other",
		SymbolSlab: []cache.Symbol{
			{ID: 1, Name: "Helper", Kind: cache.SymbolFunction, InsertText: "Helper()"},
		},
	})
	_ = store.StoreIndex("pkg.already", cache.Digest(1), cache.HashedPackage{
		Package: "pkg.already",
		SymbolSlab: []cache.Symbol{
			{ID: 2, Name: "HelperToo", Kind: cache.SymbolFunction},
		},
	})

	items := FindImportCompletion(store, "Help", map[string]bool{"pkg.already": true})
	if len(items) != 1 {
		t.Fatalf("expected exactly one candidate, got %d: %+v", len(items), items)
	}
	if items[0].Label != "Helper" {
		t.Fatalf("Label = %q, want %q", items[0].Label, "Helper")
	}
	if items[0].Detail != "pkg.other" {
		t.Fatalf("Detail = %q, want %q", items[0].Detail, "pkg.other")
	}
}

func TestFindImportCompletionNoMatch(t *testing.T) {
	store := cache.NewStore(afero.NewMemMapFs(), "/cache/ast", "/cache/idx")
	_ = store.StoreIndex("pkg.other", cache.Digest(1), cache.HashedPackage{
		Package:    "pkg.other",
		SymbolSlab: []cache.Symbol{{ID: 1, Name: "Helper", Kind: cache.SymbolFunction}},
	})

	if items := FindImportCompletion(store, "zzz", nil); len(items) != 0 {
		t.Fatalf("expected no candidates, got %+v", items)
	}
}

func TestFindScopeCompletionWalksNames(t *testing.T) {
	a, _ := buildHoverFixture()

	items := FindScopeCompletion(a, "h")
	if len(items) != 1 {
		t.Fatalf("expected exactly one match, got %d: %+v", len(items), items)
	}
	if items[0].Label != "hi" {
		t.Fatalf("Label = %q, want %q", items[0].Label, "hi")
	}
}

func TestFindScopeCompletionNilFile(t *testing.T) {
	a := &ast.ArkAST{Path: "/empty.cj"}
	if items := FindScopeCompletion(a, ""); items != nil {
		t.Fatalf("expected no completions for a file with no AST, got %+v", items)
	}
}
