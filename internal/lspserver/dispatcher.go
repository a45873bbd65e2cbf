package lspserver

import (
	"context"
	"encoding/json"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/google/uuid"
	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"cjls/internal/lspserver/wire"
)

// Dispatcher unmarshals each incoming jsonrpc2.Request and calls the
// matching Server method, generalizing xpls/dispatcher.Dispatcher's
// switch-on-method shape from the teacher's five LSP methods to the
// full surface spec §6 names. Unknown methods are replied to with
// jsonrpc2.CodeMethodNotFound rather than silently dropped, since an
// LSP client (unlike the teacher's narrower caller set) expects every
// request it sends to get a reply.
type Dispatcher struct {
	log logging.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger unmarshal failures are reported to.
func WithLogger(l logging.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// New constructs a Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{log: logging.NewNopLogger()}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Dispatcher) badParams(log logging.Logger, ctx context.Context, conn *jsonrpc2.Conn, r *jsonrpc2.Request, err error) {
	log.Info("failed to unmarshal params", "error", err)
	if r.Notif {
		return
	}
	_ = conn.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()})
}

// Dispatch routes r to the matching Server method. Requests (r.Notif ==
// false) are expected to reply for themselves via conn once their
// scheduled task completes; notifications fire and forget. Every call
// gets its own correlation id so a single request's log lines can be
// picked out of a busy editor session.
func (d *Dispatcher) Dispatch(ctx context.Context, s *Server, conn *jsonrpc2.Conn, r *jsonrpc2.Request) {
	log := d.log.WithValues("reqID", uuid.NewString(), "method", r.Method)

	switch r.Method {
	case "initialize":
		var params lsp.InitializeParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		if err := s.Initialize(ctx, conn, r.ID, params); err != nil {
			log.Info("failed to reply to initialize", "error", err)
		}

	case "textDocument/didOpen":
		var params lsp.DidOpenTextDocumentParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.DidOpen(ctx, params)

	case "textDocument/didChange":
		var params lsp.DidChangeTextDocumentParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.DidChange(ctx, params)

	case "textDocument/didSave":
		var params lsp.DidSaveTextDocumentParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.DidSave(ctx, params)

	case "workspace/didChangeWatchedFiles":
		var params lsp.DidChangeWatchedFilesParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.DidChangeWatchedFiles(ctx, params)

	case "$/cancelRequest":
		var params struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.Cancel(params.ID)

	case "textDocument/hover":
		var params lsp.TextDocumentPositionParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.hover(ctx, conn, r.ID, params)

	case "textDocument/definition":
		var params lsp.TextDocumentPositionParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.definition(ctx, conn, r.ID, params)

	case "textDocument/references":
		var params lsp.ReferenceParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.references(ctx, conn, r.ID, params)

	case "textDocument/documentHighlight":
		var params lsp.TextDocumentPositionParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.documentHighlight(ctx, conn, r.ID, params)

	case "textDocument/documentSymbol":
		var params lsp.DocumentSymbolParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.documentSymbol(ctx, conn, r.ID, params)

	case "textDocument/documentLink":
		s.documentLink(ctx, conn, r.ID)

	case "textDocument/prepareRename":
		var params lsp.TextDocumentPositionParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.prepareRename(ctx, conn, r.ID, params)

	case "textDocument/rename":
		var params lsp.RenameParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.rename(ctx, conn, r.ID, params)

	case "textDocument/completion":
		var params lsp.CompletionParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.completion(ctx, conn, r.ID, params)

	case "textDocument/signatureHelp":
		var params lsp.TextDocumentPositionParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.signatureHelp(ctx, conn, r.ID, params)

	case "textDocument/semanticTokens/full":
		var params wire.SemanticTokensParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.semanticTokens(ctx, conn, r.ID, params)

	case "textDocument/codeAction":
		var params lsp.CodeActionParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.codeAction(ctx, conn, r.ID, params)

	case "textDocument/codeLens":
		var params lsp.CodeLensParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.codeLens(ctx, conn, r.ID, params)

	case "textDocument/breakpointLocations":
		var params wire.BreakpointLocationParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.breakpointLocations(ctx, conn, r.ID, params)

	case "textDocument/overrideMethods":
		var params wire.OverrideMethodsParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.overrideMethods(ctx, conn, r.ID, params)

	case "textDocument/typeHierarchy/prepare":
		var params wire.TypeHierarchyPrepareParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.typeHierarchyPrepare(ctx, conn, r.ID, params)

	case "typeHierarchy/supertypes":
		var params wire.TypeHierarchySupertypesParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.typeHierarchySupertypes(ctx, conn, r.ID, params)

	case "typeHierarchy/subtypes":
		var params wire.TypeHierarchySubtypesParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.typeHierarchySubtypes(ctx, conn, r.ID, params)

	case "textDocument/prepareCallHierarchy":
		var params wire.CallHierarchyPrepareParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.callHierarchyPrepare(ctx, conn, r.ID, params)

	case "callHierarchy/incomingCalls":
		var params wire.CallHierarchyIncomingCallsParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.callHierarchyIncoming(ctx, conn, r.ID, params)

	case "callHierarchy/outgoingCalls":
		var params wire.CallHierarchyOutgoingCallsParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.callHierarchyOutgoing(ctx, conn, r.ID, params)

	case "workspace/symbol":
		var params lsp.WorkspaceSymbolParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			d.badParams(log, ctx, conn, r, err)
			return
		}
		s.workspaceSymbol(ctx, conn, r.ID, params)

	default:
		if !r.Notif {
			_ = conn.ReplyWithError(ctx, r.ID, &jsonrpc2.Error{
				Code:    jsonrpc2.CodeMethodNotFound,
				Message: "method not found: " + r.Method,
			})
		}
	}
}
