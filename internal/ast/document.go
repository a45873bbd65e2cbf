package ast

import "sync"

// Document is an editor-owned source buffer: a path, a monotonic version
// counter, and its current text. Documents are mutated by editor events
// (spec §3) and by the project's file-watcher handling of created and
// deleted files, which opens (at version 0) or closes the Document.
type Document struct {
	Path    string
	Version int64
	Text    []byte
}

// Store is the single-mutex-guarded table of currently open documents
// (spec §5: "per-file document store is guarded by a single mutex; reads
// copy out contents before releasing").
type Store struct {
	mu   sync.Mutex
	docs map[string]*Document
}

// NewStore constructs an empty document store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*Document)}
}

// Open installs or replaces the document for path with the caller-supplied
// version and text (the project passes version 0 on CREATED file events).
func (s *Store) Open(path string, version int64, text []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = &Document{Path: path, Version: version, Text: text}
}

// Update overwrites the text and version for an already-open document. It
// is a no-op if the document is not open (mirrors spec §4.B: CHANGED
// without a corresponding open is not meaningful).
func (s *Store) Update(path string, version int64, text []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[path]
	if !ok {
		return false
	}
	d.Version = version
	d.Text = text
	return true
}

// Close removes path from the open-document set.
func (s *Store) Close(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
}

// Get returns a copy of the document at path, so callers never hold a
// pointer into state the store's mutex still protects.
func (s *Store) Get(path string) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[path]
	if !ok {
		return Document{}, false
	}
	return *d, true
}

// Version reports the current version of path, or -1 if it is not open.
func (s *Store) Version(path string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[path]
	if !ok {
		return -1
	}
	return d.Version
}

// ParseInputs is the value type passed into scheduler update commands
// (spec §3).
type ParseInputs struct {
	Path         string
	Text         []byte
	Version      int64
	ForceRebuild bool
}

// DiagnosticSeverity mirrors LSP's severity enum without importing the
// wire package here, so ast stays free of any protocol dependency.
type DiagnosticSeverity int

// Severities, numbered to match LSP's DiagnosticSeverity.
const (
	SeverityError DiagnosticSeverity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// Diagnostic is a compiler- or validator-produced finding attached to a
// range within a single file.
type Diagnostic struct {
	Range    Range
	Severity DiagnosticSeverity
	Source   string
	Message  string
	Code     string
}

// ArkAST is the compiler's output for one file (spec §3): its tokens, its
// file-node pointer, a back-pointer to the owning package, a back-pointer
// to the previous good semantic result for completion/signature help, a
// stable file id, and whatever diagnostics compilation produced.
//
// ArkAST is recreated wholesale whenever its package recompiles; nothing
// outside internal/project is expected to mutate one in place.
type ArkAST struct {
	FileID      FileID
	Path        string
	Version     int64
	Tokens      []Token
	File        Node // nil if parsing failed catastrophically
	Package     *PackageInstance
	Diagnostics []Diagnostic

	// SemaCache points at the most recent semantic (type-checked) AST for
	// this file, or nil if one has never been produced. Readers must nil
	// check before dereferencing (spec §4.B).
	SemaCache *ArkAST

	// Semantic is true when this ArkAST itself is the output of a full
	// typecheck, as opposed to a cheap parse-only rebuild.
	Semantic bool
}

// Token is a minimal lexical token; enough for textual operations
// (selection-tree boundary snapping, e.g. `{`/`;`/`=>`) without needing
// the full grammar.
type Token struct {
	Text  string
	Range Range
}

// PackageInstance owns a package's type-checked AST (its files), import
// manager, and symbol searcher context (spec §3).
type PackageInstance struct {
	Name    string
	Files   []*ArkAST
	Imports *ImportManager
	Context *ASTContext
}

// ImportManager resolves import paths declared by a package's files to
// the set of packages it depends on.
type ImportManager struct {
	Imports []string // resolved package names, in declaration order
}

// ASTContext bundles whatever a package's symbol searcher needs beyond
// the index itself; it is intentionally thin, since symbol storage lives
// in internal/cache, not here.
type ASTContext struct {
	PackageName string
}
