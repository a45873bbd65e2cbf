// Package lspserver is the request façade (component F): it owns the
// jsonrpc2 connection, binds each LSP method to the project model, the
// symbol index, the three per-file schedulers, and the tweak registry,
// and is the one place spec §4.F's five-step dispatch (resolve path,
// map position, pick scheduler, post a task, reply) actually happens.
// Generalizes the teacher's xpls/server.Server: an option-constructed,
// mutex-guarded struct wrapping a project model plus a background
// watcher, built the same way but wired to cjls's own dependencies
// instead of Upbound's xpkg metadata.
package lspserver

import (
	"context"
	"sync"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"cjls/internal/ast"
	"cjls/internal/cache"
	"cjls/internal/cjlserr"
	"cjls/internal/lspserver/position"
	"cjls/internal/project"
	"cjls/internal/scheduler"
	"cjls/internal/tweak"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger diagnostics and task failures are reported
// to. Defaults to a no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithTweakRegistry overrides the default tweak registry, mainly for
// tests that want to scope code actions to a single tweak.
func WithTweakRegistry(r *tweak.Registry) Option {
	return func(s *Server) { s.tweaks = r }
}

// Server is cjls's LSP façade: conn is the editor connection, proj and
// store are the project model and symbol index every handler reads
// from, and general/completion/signatureHelp are the three scheduler
// instances spec §4.C requires side by side.
type Server struct {
	mu   sync.RWMutex
	conn *jsonrpc2.Conn
	root string

	proj   *project.Project
	store  *cache.Store
	tweaks *tweak.Registry

	schedGeneral       *scheduler.Scheduler
	schedCompletion    *scheduler.Scheduler
	schedSignatureHelp *scheduler.Scheduler

	watcher *project.WorkspaceWatcher

	log logging.Logger
}

// New constructs a Server wired to proj/store, with its three
// schedulers built against proj as their scheduler.Builder.
func New(proj *project.Project, store *cache.Store, opts ...Option) *Server {
	s := &Server{
		proj:   proj,
		store:  store,
		tweaks: tweak.NewRegistry(),
		log:    logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	s.schedGeneral = scheduler.New(scheduler.General, proj, scheduler.WithLogger(s.log), scheduler.WithDiagnostics(s.publishDiagnostics))
	s.schedCompletion = scheduler.New(scheduler.Completion, proj, scheduler.WithLogger(s.log))
	s.schedSignatureHelp = scheduler.New(scheduler.SignatureHelp, proj, scheduler.WithLogger(s.log))
	return s
}

// Shutdown drains all three schedulers and stops the workspace watcher,
// mirroring the teacher's watchSnapshot goroutine teardown on exit.
func (s *Server) Shutdown() {
	s.schedGeneral.Shutdown()
	s.schedCompletion.Shutdown()
	s.schedSignatureHelp.Shutdown()
	if s.watcher != nil {
		_ = s.watcher.Stop()
	}
}

// Initialize stores the connection and workspace root, loads the
// project, starts its file watcher, and replies with the server's
// capabilities — the same conn-then-snapshot-then-reply shape as
// xpls/server.Server.Initialize, generalized from a crossplane metadata
// snapshot to a compiled package graph.
func (s *Server) Initialize(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params lsp.InitializeParams) error {
	s.mu.Lock()
	s.conn = conn
	s.root = string(params.RootURI)
	s.mu.Unlock()

	if err := s.proj.Load(); err != nil {
		s.log.Info("failed to load project", "error", err)
	}
	if err := s.proj.Build(ctx); err != nil {
		s.log.Info("failed initial build", "error", err)
	}

	watcher, err := project.NewWorkspaceWatcher(s.proj, s.log)
	if err != nil {
		s.log.Info("failed to start workspace watcher", "error", err)
	} else {
		s.watcher = watcher
		go watcher.Run(ctx)
	}

	kind := lsp.TDSKIncremental
	return conn.Reply(ctx, id, lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync:          &lsp.TextDocumentSyncOptionsOrKind{Kind: &kind},
			HoverProvider:             true,
			DefinitionProvider:        true,
			ReferencesProvider:        true,
			DocumentHighlightProvider: true,
			DocumentSymbolProvider:    true,
			WorkspaceSymbolProvider:   true,
			CodeActionProvider:        true,
			CodeLensProvider:          &lsp.CodeLensOptions{},
			RenameProvider:            true,
			CompletionProvider:        &lsp.CompletionOptions{TriggerCharacters: []string{"."}},
			SignatureHelpProvider:     &lsp.SignatureHelpOptions{TriggerCharacters: []string{"(", ","}},
		},
	})
}

// DidOpen opens the document and enqueues a rebuild on the general
// scheduler, so it takes its place in the per-file FIFO queue behind
// whatever hover/definition/etc. tasks are already waiting on this file
// (spec §4.C).
func (s *Server) DidOpen(ctx context.Context, params lsp.DidOpenTextDocumentParams) {
	path := uriToPath(params.TextDocument.URI)
	s.schedGeneral.Update(inputsFromOpen(path, params.TextDocument.Version, params.TextDocument.Text))
}

// DidChange applies an incremental or full edit and enqueues a rebuild,
// coalescing with any update still queued for the file per spec §4.C.
func (s *Server) DidChange(ctx context.Context, params lsp.DidChangeTextDocumentParams) {
	path := uriToPath(params.TextDocument.URI)
	text, _ := s.proj.GetText(path)
	for _, change := range params.ContentChanges {
		text = applyChange(text, change)
	}
	s.schedGeneral.Update(astParseInputs(path, text, int64(params.TextDocument.Version)))
}

// DidSave is a no-op: cjls rebuilds on every change already, so a save
// event carries no information a change event didn't already provide.
func (s *Server) DidSave(ctx context.Context, params lsp.DidSaveTextDocumentParams) {}

// DidChangeWatchedFiles folds externally made file-system changes (not
// routed through an open editor buffer) into the project model, the
// same feed project.WorkspaceWatcher already drives from fsnotify.
func (s *Server) DidChangeWatchedFiles(ctx context.Context, params lsp.DidChangeWatchedFilesParams) {
	for _, change := range params.Changes {
		path := uriToPath(change.URI)
		kind := project.ChangeModified
		switch change.Type {
		case lsp.FileChangeTypeCreated:
			kind = project.ChangeCreated
		case lsp.FileChangeTypeDeleted:
			kind = project.ChangeDeleted
		}
		if err := s.proj.OnFileChange(ctx, path, kind); err != nil {
			s.log.Info("failed to apply watched file change", "path", path, "error", err)
		}
	}
}

// publishDiagnostics is wired as the general scheduler's DiagFunc: it
// runs on the file's worker goroutine immediately after an Update task's
// forced rebuild, and turns the resulting ArkAST's diagnostics (or the
// build error) into a textDocument/publishDiagnostics notification, per
// SPEC_FULL §6's commitment to publish after every successfully
// completed Update task. A build error still clears the file's
// diagnostics rather than leaving stale ones behind, since the caller
// has no way to know whether the old set is still accurate.
func (s *Server) publishDiagnostics(file string, a *ast.ArkAST, err error) {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return
	}

	var diags []lsp.Diagnostic
	if err == nil && a != nil {
		text, _ := s.proj.GetText(file)
		diags = make([]lsp.Diagnostic, 0, len(a.Diagnostics))
		for _, d := range a.Diagnostics {
			diags = append(diags, lsp.Diagnostic{
				Range:    position.ToLSPRange(text, d.Range),
				Severity: lsp.DiagnosticSeverity(d.Severity),
				Source:   d.Source,
				Message:  d.Message,
				Code:     d.Code,
			})
		}
	}

	params := lsp.PublishDiagnosticsParams{URI: pathToURI(file), Diagnostics: diags}
	if notifyErr := conn.Notify(context.Background(), "textDocument/publishDiagnostics", params); notifyErr != nil {
		s.log.Debug("failed to publish diagnostics", "error", notifyErr, "path", file)
	}
}

// Cancel cancels a previously posted cancellable task (completion or
// signature help), per spec §4.C/§7's Cancelled policy: suppress the
// reply, don't error.
func (s *Server) Cancel(reqID string) {
	s.schedCompletion.Cancel(reqID)
	s.schedSignatureHelp.Cancel(reqID)
}

func errToCode(err error) int {
	switch {
	case cjlserrIs(err, cjlserr.MissingSymbol):
		return jsonrpc2.CodeInvalidParams
	case cjlserrIs(err, cjlserr.InvalidSelection):
		return jsonrpc2.CodeInvalidParams
	default:
		return jsonrpc2.CodeInternalError
	}
}
