package cache

import (
	"sort"
	"sync"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/spf13/afero"

	"cjls/internal/ast"
)

const (
	errEncodeShard = "failed to encode shard"
	errDecodeShard = "failed to decode shard"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger a Store reports rebuild and verification
// failures to. Defaults to a no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store is the cross-project symbol index (component A): a content
// addressed on-disk shard store for two directories (AST shards and
// index shards) plus the in-memory symbol/ref/relation/extend slabs
// merged from every package that has been loaded or stored. A package's
// own staleness is a simple digest compare; propagating staleness across
// the dependency DAG is the project model's job (spec §4.B), which calls
// LoadIndex/StoreAST/StoreIndex as it walks the DAG in topological order.
type Store struct {
	fs     afero.Fs
	astDir string
	idxDir string
	log    logging.Logger

	mu           sync.RWMutex
	astDigests   map[string]Digest
	indexDigests map[string]Digest

	idxMu        sync.RWMutex
	symbols      map[ast.SymbolID]Symbol
	symbolsByPkg map[string][]ast.SymbolID
	refs         map[ast.SymbolID][]Ref
	relFwd       map[ast.SymbolID][]Relation // keyed by Subject
	relRev       map[ast.SymbolID][]Relation // keyed by Object
	extends      map[ast.SymbolID][]Extend   // keyed by owner symbol id

	buildMu    sync.Mutex
	buildLocks map[string]*sync.Mutex
}

// NewStore scans astDir and idxDir for existing shards and returns a
// Store ready to serve Lookup/Refs/Relations queries for whatever was
// found (spec §4.A: "on startup, the directories are scanned once into
// an in-memory {pkg -> digest} map"). The in-memory symbol slabs start
// empty; LoadIndex populates them lazily as packages are requested.
func NewStore(fs afero.Fs, astDir, idxDir string, opts ...Option) *Store {
	s := &Store{
		fs:           fs,
		astDir:       astDir,
		idxDir:       idxDir,
		log:          logging.NewNopLogger(),
		astDigests:   scanDir(fs, astDir, astExt),
		indexDigests: scanDir(fs, idxDir, indexExt),
		symbols:      make(map[ast.SymbolID]Symbol),
		symbolsByPkg: make(map[string][]ast.SymbolID),
		refs:         make(map[ast.SymbolID][]Ref),
		relFwd:       make(map[ast.SymbolID][]Relation),
		relRev:       make(map[ast.SymbolID][]Relation),
		extends:      make(map[ast.SymbolID][]Extend),
		buildLocks:   make(map[string]*sync.Mutex),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// lockPackage returns the build mutex for pkg, creating one on first use,
// so concurrent schedulers compiling the same package serialize instead
// of racing on its shard files.
func (s *Store) lockPackage(pkg string) *sync.Mutex {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	m, ok := s.buildLocks[pkg]
	if !ok {
		m = &sync.Mutex{}
		s.buildLocks[pkg] = m
	}
	return m
}

// Lock serializes compilation of pkg across callers and returns the
// unlock function.
func (s *Store) Lock(pkg string) func() {
	m := s.lockPackage(pkg)
	m.Lock()
	return m.Unlock
}

// IndexDigest returns the digest recorded for pkg's index shard, or
// false if no shard has been loaded or stored yet.
func (s *Store) IndexDigest(pkg string) (Digest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.indexDigests[pkg]
	return d, ok
}

// ASTDigest returns the digest recorded for pkg's AST shard.
func (s *Store) ASTDigest(pkg string) (Digest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.astDigests[pkg]
	return d, ok
}

// IndexStale reports whether pkg's on-disk index shard is missing or
// does not match want. It does not consider dependency staleness; the
// project model folds that in (spec §4.B).
func (s *Store) IndexStale(pkg string, want Digest) bool {
	got, ok := s.IndexDigest(pkg)
	return !ok || got != want
}

// ASTStale is the AST-shard equivalent of IndexStale.
func (s *Store) ASTStale(pkg string, want Digest) bool {
	got, ok := s.ASTDigest(pkg)
	return !ok || got != want
}

// LoadAST reads pkg's AST shard if its digest matches want. Payload
// format is opaque to cache; the project model owns AST (de)serialization.
func (s *Store) LoadAST(pkg string, want Digest) ([]byte, bool) {
	if s.ASTStale(pkg, want) {
		return nil, false
	}
	return readShardVerified(s.fs, s.astDir, shardName(pkg, want, astExt))
}

// StoreAST writes pkg's AST shard and records its digest.
func (s *Store) StoreAST(pkg string, digest Digest, payload []byte) error {
	name := shardName(pkg, digest, astExt)
	if err := writeShardAtomic(s.fs, s.astDir, name, sealShard(payload)); err != nil {
		return err
	}
	s.mu.Lock()
	s.astDigests[pkg] = digest
	s.mu.Unlock()
	return nil
}

// LoadIndex reads and decodes pkg's index shard if its digest matches
// want, merging its symbols into the in-memory index on success.
func (s *Store) LoadIndex(pkg string, want Digest) (HashedPackage, bool) {
	if s.IndexStale(pkg, want) {
		return HashedPackage{}, false
	}
	body, ok := readShardVerified(s.fs, s.idxDir, shardName(pkg, want, indexExt))
	if !ok {
		return HashedPackage{}, false
	}
	hp, err := decodeHashedPackage(body)
	if err != nil {
		s.log.Debug("index shard decode failed, treating as absent", "package", pkg, "error", err)
		return HashedPackage{}, false
	}
	s.merge(pkg, hp)
	return hp, true
}

// StoreIndex encodes, seals and writes hp as pkg's index shard, records
// its digest, and merges it into the in-memory index, replacing any
// symbols previously contributed by pkg.
func (s *Store) StoreIndex(pkg string, digest Digest, hp HashedPackage) error {
	hp.Package = pkg
	body := encodeHashedPackage(hp)
	name := shardName(pkg, digest, indexExt)
	if err := writeShardAtomic(s.fs, s.idxDir, name, sealShard(body)); err != nil {
		return errors.Wrap(err, errEncodeShard)
	}
	s.mu.Lock()
	s.indexDigests[pkg] = digest
	s.mu.Unlock()
	s.merge(pkg, hp)
	return nil
}

// merge replaces pkg's contribution to the in-memory slabs with hp's.
func (s *Store) merge(pkg string, hp HashedPackage) {
	s.idxMu.Lock()
	defer s.idxMu.Unlock()

	s.evictLocked(pkg)

	ids := make([]ast.SymbolID, 0, len(hp.SymbolSlab))
	for _, sym := range hp.SymbolSlab {
		s.symbols[sym.ID] = sym
		ids = append(ids, sym.ID)
	}
	s.symbolsByPkg[pkg] = ids

	for _, rr := range hp.RefSlab {
		s.refs[rr.Symbol] = append(s.refs[rr.Symbol], rr.Ref)
	}
	for _, rel := range hp.RelationSlab {
		s.relFwd[rel.Subject] = append(s.relFwd[rel.Subject], rel)
		s.relRev[rel.Object] = append(s.relRev[rel.Object], rel)
	}
	for _, er := range hp.ExtendSlab {
		s.extends[er.Owner] = append(s.extends[er.Owner], er.Extend)
	}
}

// evictLocked removes every slab entry previously contributed by pkg.
// Callers must hold idxMu.
func (s *Store) evictLocked(pkg string) {
	ids, ok := s.symbolsByPkg[pkg]
	if !ok {
		return
	}
	for _, id := range ids {
		delete(s.symbols, id)
		delete(s.refs, id)
		delete(s.extends, id)
		for _, rel := range s.relFwd[id] {
			s.relRev[rel.Object] = removeRelation(s.relRev[rel.Object], rel)
		}
		for _, rel := range s.relRev[id] {
			s.relFwd[rel.Subject] = removeRelation(s.relFwd[rel.Subject], rel)
		}
		delete(s.relFwd, id)
		delete(s.relRev, id)
	}
	delete(s.symbolsByPkg, pkg)
}

func removeRelation(rels []Relation, target Relation) []Relation {
	out := rels[:0]
	for _, r := range rels {
		if r != target {
			out = append(out, r)
		}
	}
	return out
}

// Lookup returns the indexed Symbol for id.
func (s *Store) Lookup(id ast.SymbolID) (Symbol, bool) {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()
	sym, ok := s.symbols[id]
	return sym, ok
}

// MembersOfScope returns every indexed symbol whose Scope equals scope,
// e.g. every member of a class found by its package-qualified name. Used
// by override-method completion to enumerate a supertype's methods
// without needing that supertype's AST loaded.
func (s *Store) MembersOfScope(scope string) []Symbol {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()
	var out []Symbol
	for _, sym := range s.symbols {
		if sym.Scope == scope {
			out = append(out, sym)
		}
	}
	return out
}

// AllSymbols returns every symbol currently indexed, across every
// package merged into the store. Used by workspace/symbol search, which
// has no package to scope its query to ahead of time.
func (s *Store) AllSymbols() []Symbol {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()
	out := make([]Symbol, 0, len(s.symbols))
	for _, sym := range s.symbols {
		out = append(out, sym)
	}
	return out
}

// Refs returns every recorded use site of id.
func (s *Store) Refs(id ast.SymbolID) []Ref {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()
	out := make([]Ref, len(s.refs[id]))
	copy(out, s.refs[id])
	return out
}

// RelationsFrom returns relations with id as subject.
func (s *Store) RelationsFrom(id ast.SymbolID) []Relation {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()
	out := make([]Relation, len(s.relFwd[id]))
	copy(out, s.relFwd[id])
	return out
}

// RelationsTo returns relations with id as object.
func (s *Store) RelationsTo(id ast.SymbolID) []Relation {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()
	out := make([]Relation, len(s.relRev[id]))
	copy(out, s.relRev[id])
	return out
}

// Extends returns the extend declarations augmenting the type id.
func (s *Store) Extends(id ast.SymbolID) []Extend {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()
	out := make([]Extend, len(s.extends[id]))
	copy(out, s.extends[id])
	return out
}

// FindRiddenUp walks PredicateBaseOf edges outward from id and returns
// every ancestor type reachable, breadth-first, deduplicated.
func (s *Store) FindRiddenUp(id ast.SymbolID) []ast.SymbolID {
	return s.walkBaseOf(id, s.RelationsFrom, func(r Relation) ast.SymbolID { return r.Object })
}

// FindRiddenDown walks PredicateBaseOf edges inward to id and returns
// every descendant type reachable, breadth-first, deduplicated.
func (s *Store) FindRiddenDown(id ast.SymbolID) []ast.SymbolID {
	return s.walkBaseOf(id, s.RelationsTo, func(r Relation) ast.SymbolID { return r.Subject })
}

func (s *Store) walkBaseOf(start ast.SymbolID, edges func(ast.SymbolID) []Relation, next func(Relation) ast.SymbolID) []ast.SymbolID {
	seen := map[ast.SymbolID]bool{start: true}
	queue := []ast.SymbolID{start}
	var out []ast.SymbolID
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, rel := range edges(cur) {
			if rel.Predicate != PredicateBaseOf {
				continue
			}
			n := next(rel)
			if seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
			queue = append(queue, n)
		}
	}
	return out
}

// FindImportSymsOnCompletion returns top-level (empty Scope) symbols
// matching prefix from packages not present in imported; symbol
// modifiers and visibility are not checked. Used for cross-package
// auto-import completion (spec §4.A, §6 completion). Results are sorted
// by package then name for deterministic output.
func (s *Store) FindImportSymsOnCompletion(prefix string, imported map[string]bool) []ImportSymCandidate {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()

	var out []ImportSymCandidate
	for pkg, ids := range s.symbolsByPkg {
		if imported[pkg] {
			continue
		}
		for _, id := range ids {
			sym := s.symbols[id]
			if sym.Scope != "" {
				continue // only top-level symbols are importable by name
			}
			if !hasPrefix(sym.Name, prefix) {
				continue
			}
			out = append(out, ImportSymCandidate{
				Package: pkg,
				Symbol:  sym,
				Hint:    "import " + pkg,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Package != out[j].Package {
			return out[i].Package < out[j].Package
		}
		return out[i].Symbol.Name < out[j].Symbol.Name
	})
	return out
}

func hasPrefix(name, prefix string) bool {
	if len(prefix) > len(name) {
		return false
	}
	return name[:len(prefix)] == prefix
}
