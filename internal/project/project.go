package project

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/spf13/afero"

	"cjls/internal/ast"
	"cjls/internal/cache"
	"cjls/internal/cjlserr"
)

const (
	errLoadManifest = "failed to load project manifest"
	errCompile      = "package compile failed"
)

// ChangeKind classifies a workspace file-change notification (spec
// §4.B "File-change semantics").
type ChangeKind int

// Change kinds.
const (
	ChangeModified ChangeKind = iota
	ChangeCreated
	ChangeDeleted
)

// CompileResult is what a Compiler produces for one package: a parsed
// (and, when successful, typechecked) ArkAST per file plus the symbols
// contributed to the cross-project index. Parsing and typechecking
// themselves are out of scope (spec §1); Compiler is the seam a real
// Cangjie frontend implements.
type CompileResult struct {
	Files []*ast.ArkAST
	Index cache.HashedPackage
}

// Compiler produces a CompileResult for a package given its member
// documents in file order. A failed compile still returns whatever
// partial ArkASTs and diagnostics it managed (spec §4.B "Partial-failure
// policy") — Compiler signals total failure only via err, in which case
// Project still stores empty ArkASTs so downstream handlers see the "no
// result" shape rather than panicking on a nil map entry.
type Compiler interface {
	Compile(ctx context.Context, pkg string, docs []ast.Document) (CompileResult, error)
}

// Project is the package DAG and compilation model (component B): it
// keeps the set of ArkASTs consistent with source changes, coordinates
// with the cache store to skip recompiling packages whose shard is
// still fresh, and answers the lookup queries spec §4.B lists
// (GetFileID, GetArkAST, GetPathBySource, IsCurModuleCjoDep,
// GetExtendDecls, CheckPackageModifier, ClearParseCache).
type Project struct {
	root     string
	fs       afero.Fs
	store    *cache.Store
	compiler Compiler
	log      logging.Logger

	docs *ast.Store

	graph *Graph

	mu        sync.RWMutex
	manifest  Manifest
	fileToPkg map[string]string              // source path -> owning package
	pkgFiles  map[string]map[string]struct{} // package -> set of source paths
	byFileID  map[ast.FileID]string          // FileID -> source path
	byPath    map[string]ast.FileID          // source path -> FileID
	parseOnly map[string]*ast.ArkAST         // source path -> parse-only view
	semantic  map[string]*ast.ArkAST         // source path -> semantic view
	nextFile  ast.FileID
}

// Option configures a Project.
type Option func(*Project)

// WithLogger sets the logger compile errors and cache misses are
// reported to.
func WithLogger(l logging.Logger) Option {
	return func(p *Project) { p.log = l }
}

// WithCompiler installs the frontend used to turn source documents into
// ArkASTs and index contributions. Without one, Load succeeds but no
// package compiles: Build logs each package failure and returns nil, and
// BuildFile returns a cjlserr.ParseFailed error.
func WithCompiler(c Compiler) Option {
	return func(p *Project) { p.compiler = c }
}

// NewProject constructs a Project rooted at root, backed by fs for
// source reads and store for shard persistence.
func NewProject(root string, fs afero.Fs, store *cache.Store, opts ...Option) *Project {
	p := &Project{
		root:      root,
		fs:        fs,
		store:     store,
		log:       logging.NewNopLogger(),
		docs:      ast.NewStore(),
		graph:     NewGraph(),
		fileToPkg: make(map[string]string),
		pkgFiles:  make(map[string]map[string]struct{}),
		byFileID:  make(map[ast.FileID]string),
		byPath:    make(map[string]ast.FileID),
		parseOnly: make(map[string]*ast.ArkAST),
		semantic:  make(map[string]*ast.ArkAST),
		nextFile:  1,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Load reads the project manifest and discovers packages by walking the
// manifest's source roots, assigning each file to the package formed by
// its containing directory (Cangjie, like Go, maps one directory to one
// package).
func (p *Project) Load() error {
	m, err := LoadManifest(p.fs, p.root)
	if err != nil {
		return errors.Wrap(err, errLoadManifest)
	}
	p.mu.Lock()
	p.manifest = m
	p.mu.Unlock()

	for _, sourceRoot := range m.SourceRoots() {
		if err := p.discover(filepath.Join(p.root, sourceRoot)); err != nil {
			return err
		}
	}
	return nil
}

// ReloadManifest re-reads cjpm.toml, for a DidSave on the manifest file
// itself (spec §4.B, mirroring the teacher's checkMetaFile special case).
func (p *Project) ReloadManifest() error {
	m, err := LoadManifest(p.fs, p.root)
	if err != nil {
		return errors.Wrap(err, errLoadManifest)
	}
	p.mu.Lock()
	p.manifest = m
	p.mu.Unlock()
	return nil
}

// IsManifestPath reports whether path is this project's cjpm.toml.
func (p *Project) IsManifestPath(path string) bool {
	return path == filepath.Join(p.root, ManifestFile)
}

func (p *Project) discover(dir string) error {
	return afero.Walk(p.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || filepath.Ext(path) != ".cj" {
			return nil
		}
		p.assignToPackage(path)
		return nil
	})
}

func (p *Project) assignToPackage(path string) {
	pkg := packageNameFor(path)
	p.mu.Lock()
	p.fileToPkg[path] = pkg
	if p.pkgFiles[pkg] == nil {
		p.pkgFiles[pkg] = make(map[string]struct{})
	}
	p.pkgFiles[pkg][path] = struct{}{}
	if _, ok := p.byPath[path]; !ok {
		id := p.nextFile
		p.nextFile++
		p.byPath[path] = id
		p.byFileID[id] = path
	}
	p.mu.Unlock()
}

// packageNameFor derives a package name from a source file's containing
// directory: the directory path itself in slash form (e.g. /proj/src/pkg).
func packageNameFor(path string) string {
	dir := filepath.Dir(path)
	dir = filepath.ToSlash(dir)
	return dir
}

// GetFileID returns the stable FileID assigned to path, registering one
// if this is the first time path has been seen.
func (p *Project) GetFileID(path string) ast.FileID {
	p.mu.RLock()
	id, ok := p.byPath[path]
	p.mu.RUnlock()
	if ok {
		return id
	}
	p.assignToPackage(path)
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byPath[path]
}

// GetPathBySource returns the file path the project registered under
// fileID, and false if none matches.
func (p *Project) GetPathBySource(fileID ast.FileID) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	path, ok := p.byFileID[fileID]
	return path, ok
}

// GetArkAST returns the best available AST for path: the semantic view
// if one exists, otherwise the parse-only view. Callers that specifically
// need the parse-only view (completion/signature-help) use
// GetParseOnlyAST instead.
func (p *Project) GetArkAST(path string) (*ast.ArkAST, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if a, ok := p.semantic[path]; ok {
		return a, true
	}
	a, ok := p.parseOnly[path]
	return a, ok
}

// GetParseOnlyAST returns path's parse-only view. Its SemaCache field
// points at the last good semantic AST and must be nil-checked before
// use (spec §4.B).
func (p *Project) GetParseOnlyAST(path string) (*ast.ArkAST, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.parseOnly[path]
	return a, ok
}

// GetText returns the current bytes of path: the open-editor buffer if
// one exists, otherwise whatever is on disk. Feature handlers use it to
// map ast.Position back to UTF-16 LSP positions against the exact text
// the AST was built from.
func (p *Project) GetText(path string) ([]byte, bool) {
	if doc, ok := p.docs.Get(path); ok {
		return doc.Text, true
	}
	b, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return nil, false
	}
	return b, true
}

// IsCurModuleCjoDep reports whether pkgName is a precompiled (.cjo)
// dependency of module rather than a package built from source in this
// project.
func (p *Project) IsCurModuleCjoDep(module, pkgName string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if _, knownSource := p.pkgFiles[pkgName]; knownSource {
		return false
	}
	_, declared := p.manifest.Dependencies[module]
	return declared
}

// GetExtendDecls returns the extend declarations of the type declID,
// delegating to the cache store's Extends index keyed by the type's
// symbol id (the caller resolves decl to a symbol id before calling).
func (p *Project) GetExtendDecls(declID ast.SymbolID) []cache.Extend {
	return p.store.Extends(declID)
}

// CheckPackageModifier reports whether path is assigned to a package of
// this project. It does not read the file's package declaration and does
// not check any modifier.
func (p *Project) CheckPackageModifier(path string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.fileToPkg[path]
	return ok
}

// ClearParseCache drops every retained parse-only and semantic AST,
// forcing the next RunWithAST/RunWithASTCache to rebuild from source.
func (p *Project) ClearParseCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parseOnly = make(map[string]*ast.ArkAST)
	p.semantic = make(map[string]*ast.ArkAST)
}

// OnFileChange applies a workspace change notification (spec §4.B
// "File-change semantics").
func (p *Project) OnFileChange(ctx context.Context, path string, kind ChangeKind) error {
	switch kind {
	case ChangeModified:
		return nil // editor buffer, if open, is authoritative
	case ChangeCreated:
		b, err := afero.ReadFile(p.fs, path)
		if err != nil {
			return errors.Wrap(err, "failed to read created file")
		}
		p.docs.Open(path, 0, b)
		p.assignToPackage(path)
		pkg := p.fileToPkg[path]
		p.graph.MarkStale(pkg)
		return nil
	case ChangeDeleted:
		return p.IncrementForFileDelete(path)
	default:
		return nil
	}
}

// IncrementForFileDelete removes path from its package and marks every
// transitively-dependent package stale (spec §4.B).
func (p *Project) IncrementForFileDelete(path string) error {
	p.mu.Lock()
	pkg, ok := p.fileToPkg[path]
	if ok {
		delete(p.fileToPkg, path)
		delete(p.pkgFiles[pkg], path)
		delete(p.parseOnly, path)
		delete(p.semantic, path)
		empty := len(p.pkgFiles[pkg]) == 0
		if empty {
			delete(p.pkgFiles, pkg)
		}
		if id, known := p.byPath[path]; known {
			delete(p.byFileID, id)
			delete(p.byPath, path)
		}
	}
	p.mu.Unlock()
	p.docs.Close(path)

	if !ok {
		return nil
	}
	if len(p.pkgFiles[pkg]) == 0 {
		p.graph.Remove(pkg)
	}
	p.graph.MarkStale(pkg)
	return nil
}

// Build compiles every stale package in topological order, wave by wave,
// packages within a wave running in parallel (spec §4.B: "independent
// packages may compile in parallel").
func (p *Project) Build(ctx context.Context) error {
	p.syncGraphEdges()

	batches, err := p.graph.CompileBatches()
	if err != nil {
		return cjlserr.New(err, cjlserr.IOFailure)
	}

	for _, wave := range batches {
		var wg sync.WaitGroup
		errs := make([]error, len(wave))
		for i, pkg := range wave {
			wg.Add(1)
			go func(i int, pkg string) {
				defer wg.Done()
				errs[i] = p.buildPackage(ctx, pkg)
			}(i, pkg)
		}
		wg.Wait()
		for _, e := range errs {
			if e != nil {
				p.log.Info("package build failed", "error", e)
			}
		}
	}
	return nil
}

// syncGraphEdges recomputes each package's file list in the graph from
// the file->package assignment table. Dependency edges between packages
// are supplied by the out-of-scope frontend via SetDependencies; until
// then packages are treated as having no dependencies on each other.
func (p *Project) syncGraphEdges() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for pkg, files := range p.pkgFiles {
		fileList := make([]string, 0, len(files))
		for f := range files {
			fileList = append(fileList, f)
		}
		sort.Strings(fileList)
		existing, _ := p.graph.Node(pkg)
		p.graph.Upsert(pkg, fileList, existing.Deps)
	}
}

// SetDependencies records pkg's import edges, supplied by the frontend
// once it has parsed import declarations.
func (p *Project) SetDependencies(pkg string, deps []string) {
	existing, _ := p.graph.Node(pkg)
	p.graph.Upsert(pkg, existing.Files, deps)
}

// buildPackage compiles a single package, honoring cache coordination
// (spec §4.B: ask storage for a fresh shard before recompiling) and the
// per-package build lock.
func (p *Project) buildPackage(ctx context.Context, pkg string) error {
	unlock := p.store.Lock(pkg)
	defer unlock()

	node, ok := p.graph.Node(pkg)
	if !ok {
		return nil
	}

	sources := make([][]byte, 0, len(node.Files))
	docs := make([]ast.Document, 0, len(node.Files))
	for _, f := range node.Files {
		doc, ok := p.docs.Get(f)
		if !ok {
			b, err := afero.ReadFile(p.fs, f)
			if err != nil {
				continue
			}
			doc = ast.Document{Path: f, Version: 0, Text: b}
		}
		sources = append(sources, doc.Text)
		docs = append(docs, doc)
	}

	digest := ComputeDigest(sources, orderedDepDigests(p.graph.DepDigests(pkg)))

	if hp, ok := p.store.LoadIndex(pkg, digest); ok {
		p.graph.SetDigest(pkg, digest)
		p.registerEmptyASTs(pkg, node.Files, hp)
		return nil
	}

	if p.compiler == nil {
		return cjlserr.New(errors.New(errCompile), cjlserr.ParseFailed)
	}

	result, err := p.compiler.Compile(ctx, pkg, docs)
	p.registerCompileResult(pkg, node.Files, result)
	if err != nil {
		return cjlserr.New(errors.Wrap(err, errCompile), cjlserr.ParseFailed)
	}

	if err := p.store.StoreAST(pkg, digest, marshalArkASTs(result.Files)); err != nil {
		p.log.Info("failed to persist ast shard", "package", pkg, "error", err)
	}
	if err := p.store.StoreIndex(pkg, digest, result.Index); err != nil {
		p.log.Info("failed to persist index shard", "package", pkg, "error", err)
	}
	p.graph.SetDigest(pkg, digest)
	return nil
}

// registerCompileResult stores the ArkASTs a fresh compile produced as
// both the new semantic view and a matching parse-only view whose
// SemaCache points back at the semantic AST.
func (p *Project) registerCompileResult(pkg string, files []string, result CompileResult) {
	byPath := make(map[string]*ast.ArkAST, len(result.Files))
	for _, a := range result.Files {
		byPath[a.Path] = a
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range files {
		a, ok := byPath[f]
		if !ok {
			continue
		}
		p.semantic[f] = a
		p.parseOnly[f] = &ast.ArkAST{
			FileID:    a.FileID,
			Path:      a.Path,
			Version:   a.Version,
			Tokens:    a.Tokens,
			SemaCache: a,
			Semantic:  false,
		}
	}
}

// registerEmptyASTs is used when a cache hit means no fresh compile ran:
// callers still need a (possibly stale) ArkAST entry to answer queries,
// so a placeholder with no file/diagnostics is installed per spec's
// "partial failure" shape rather than leaving the map entry absent. If a
// semantic view from a previous compile already exists it's left alone.
func (p *Project) registerEmptyASTs(pkg string, files []string, hp cache.HashedPackage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range files {
		if _, ok := p.semantic[f]; ok {
			continue
		}
		if _, ok := p.parseOnly[f]; ok {
			continue
		}
		p.parseOnly[f] = &ast.ArkAST{Path: f, Semantic: false}
	}
}

// Update applies an editor-buffer edit to the document store and marks
// the owning package stale, satisfying internal/scheduler's Builder
// contract. This is the `ParseInputs` path Update tasks take, distinct
// from OnFileChange's on-disk notifications: editor buffers are
// authoritative over disk contents while open (spec §4.B).
func (p *Project) Update(ctx context.Context, inputs ast.ParseInputs) error {
	if !p.docs.Update(inputs.Path, inputs.Version, inputs.Text) {
		p.docs.Open(inputs.Path, inputs.Version, inputs.Text)
	}
	p.assignToPackage(inputs.Path)

	p.mu.RLock()
	pkg := p.fileToPkg[inputs.Path]
	p.mu.RUnlock()
	p.graph.MarkStale(pkg)
	return nil
}

// BuildFile ensures file's owning package is compiled (synchronously,
// respecting the package's build lock and cache freshness) and returns
// the resulting ArkAST. internal/scheduler calls this from a per-file
// worker to satisfy RunWithAST's "ast is the latest fully-built AST"
// guarantee.
func (p *Project) BuildFile(ctx context.Context, file string) (*ast.ArkAST, error) {
	p.mu.RLock()
	pkg, ok := p.fileToPkg[file]
	p.mu.RUnlock()
	if !ok {
		return nil, cjlserr.New(errors.New("unknown file: "+file), cjlserr.MissingSymbol)
	}

	p.syncGraphEdges()
	if err := p.buildPackage(ctx, pkg); err != nil {
		return nil, err
	}

	a, ok := p.GetArkAST(file)
	if !ok {
		return nil, cjlserr.New(errors.New("no ast produced for "+file), cjlserr.ParseFailed)
	}
	return a, nil
}

// ParseOnlyAST returns file's cheap parse-only view for
// internal/scheduler's RunWithASTCache.
func (p *Project) ParseOnlyAST(file string) (*ast.ArkAST, error) {
	a, ok := p.GetParseOnlyAST(file)
	if !ok {
		return nil, cjlserr.New(errors.New("no parse-only ast for "+file), cjlserr.NoSemanticCache)
	}
	return a, nil
}

// marshalArkASTs is a placeholder AST-shard payload: real serialization
// belongs to the out-of-scope frontend, which knows the concrete Node
// shapes. cjls stores the file list so a later load can at least confirm
// which files contributed to the shard.
func marshalArkASTs(files []*ast.ArkAST) []byte {
	var out []byte
	for _, f := range files {
		out = append(out, []byte(f.Path)...)
		out = append(out, '\n')
	}
	return out
}
