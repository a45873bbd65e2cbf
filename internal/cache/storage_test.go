package cache

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cjls/internal/ast"
)

func newTestStore() *Store {
	return NewStore(afero.NewMemMapFs(), "/cache/astdata", "/cache/index")
}

func TestStoreIndexThenLookup(t *testing.T) {
	s := newTestStore()
	hp := HashedPackage{
		SymbolSlab: []Symbol{{ID: 1, Name: "Foo", Kind: SymbolClass}},
	}
	require.NoError(t, s.StoreIndex("pkg.foo", Digest(1), hp))

	sym, ok := s.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "Foo", sym.Name)

	d, ok := s.IndexDigest("pkg.foo")
	require.True(t, ok)
	assert.Equal(t, Digest(1), d)
	assert.False(t, s.IndexStale("pkg.foo", Digest(1)))
	assert.True(t, s.IndexStale("pkg.foo", Digest(2)))
}

func TestLoadIndexReflectsPersistedShard(t *testing.T) {
	s := newTestStore()
	hp := HashedPackage{SymbolSlab: []Symbol{{ID: 5, Name: "Bar"}}}
	require.NoError(t, s.StoreIndex("pkg.bar", Digest(9), hp))

	reopened := NewStore(s.fs, s.astDir, s.idxDir)
	loaded, ok := reopened.LoadIndex("pkg.bar", Digest(9))
	require.True(t, ok)
	require.Len(t, loaded.SymbolSlab, 1)
	assert.Equal(t, "Bar", loaded.SymbolSlab[0].Name)

	sym, ok := reopened.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, "Bar", sym.Name)
}

func TestLoadIndexMissesOnDigestMismatch(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.StoreIndex("pkg.bar", Digest(9), HashedPackage{}))

	_, ok := s.LoadIndex("pkg.bar", Digest(10))
	assert.False(t, ok)
}

func TestStoreIndexEvictsPreviousContribution(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.StoreIndex("pkg.foo", Digest(1), HashedPackage{
		SymbolSlab: []Symbol{{ID: 1, Name: "Old"}},
	}))
	require.NoError(t, s.StoreIndex("pkg.foo", Digest(2), HashedPackage{
		SymbolSlab: []Symbol{{ID: 2, Name: "New"}},
	}))

	_, ok := s.Lookup(1)
	assert.False(t, ok, "symbol from the superseded digest should be evicted")
	sym, ok := s.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, "New", sym.Name)
}

func TestRefsAndRelations(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.StoreIndex("pkg.foo", Digest(1), HashedPackage{
		SymbolSlab: []Symbol{{ID: 1, Name: "Foo"}},
		RefSlab: []RefRecord{
			{Symbol: 1, Ref: Ref{Location: ast.Position{Line: 3}, Kind: RefRead}},
			{Symbol: 1, Ref: Ref{Location: ast.Position{Line: 9}, Kind: RefWrite}},
		},
		RelationSlab: []Relation{{Subject: 1, Predicate: PredicateBaseOf, Object: 2}},
	}))

	refs := s.Refs(1)
	assert.Len(t, refs, 2)

	fwd := s.RelationsFrom(1)
	require.Len(t, fwd, 1)
	assert.Equal(t, ast.SymbolID(2), fwd[0].Object)

	rev := s.RelationsTo(2)
	require.Len(t, rev, 1)
	assert.Equal(t, ast.SymbolID(1), rev[0].Subject)
}

func TestFindRiddenUpAndDown(t *testing.T) {
	s := newTestStore()
	// Base -> Middle -> Derived (Derived extends Middle extends Base).
	require.NoError(t, s.StoreIndex("pkg.hier", Digest(1), HashedPackage{
		SymbolSlab: []Symbol{
			{ID: 1, Name: "Base"},
			{ID: 2, Name: "Middle"},
			{ID: 3, Name: "Derived"},
		},
		RelationSlab: []Relation{
			{Subject: 2, Predicate: PredicateBaseOf, Object: 1},
			{Subject: 3, Predicate: PredicateBaseOf, Object: 2},
		},
	}))

	up := s.FindRiddenUp(3)
	assert.ElementsMatch(t, []ast.SymbolID{2, 1}, up)

	down := s.FindRiddenDown(1)
	assert.ElementsMatch(t, []ast.SymbolID{2, 3}, down)
}

func TestFindImportSymsOnCompletion(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.StoreIndex("pkg.a", Digest(1), HashedPackage{
		SymbolSlab: []Symbol{
			{ID: 1, Name: "Widget"},
			{ID: 2, Name: "WidgetFactory"},
			{ID: 3, Name: "memberScoped", Scope: "pkg.a.Widget"},
		},
	}))
	require.NoError(t, s.StoreIndex("pkg.b", Digest(1), HashedPackage{
		SymbolSlab: []Symbol{{ID: 4, Name: "Other"}},
	}))

	got := s.FindImportSymsOnCompletion("Widget", map[string]bool{})
	require.Len(t, got, 2)
	assert.Equal(t, "pkg.a", got[0].Package)
	assert.Equal(t, "Widget", got[0].Symbol.Name)
	assert.Equal(t, "WidgetFactory", got[1].Symbol.Name)

	got = s.FindImportSymsOnCompletion("Widget", map[string]bool{"pkg.a": true})
	assert.Empty(t, got)
}

func TestLockPackageSerializesBuilds(t *testing.T) {
	s := newTestStore()
	unlock := s.Lock("pkg.foo")

	done := make(chan struct{})
	go func() {
		defer close(done)
		unlock2 := s.Lock("pkg.foo")
		unlock2()
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("second Lock should not have acquired while first is held")
	default:
	}
	unlock()
	<-done
}
