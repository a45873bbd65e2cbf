package lspserver

import (
	"context"
	"fmt"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"cjls/internal/ast"
	"cjls/internal/cjlserr"
	"cjls/internal/lspserver/capabilities"
	"cjls/internal/lspserver/position"
	"cjls/internal/lspserver/wire"
)

// resolvePos converts an LSP text-document position into the internal
// ast.Position the capability handlers work in, spec §4.F step 2.
func (s *Server) resolvePos(path string, p lsp.Position) ast.Position {
	fileID := s.proj.GetFileID(path)
	text, _ := s.proj.GetText(path)
	return position.ToInternal(fileID, text, p)
}

func (s *Server) textOf(path string) []byte {
	text, _ := s.proj.GetText(path)
	return text
}

func (s *Server) replyErr(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, err error) {
	_ = conn.ReplyWithError(ctx, id, &jsonrpc2.Error{Code: errToCode(err), Message: err.Error()})
}

// --- hover / definition / references / highlight -------------------------

func (s *Server) hover(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params lsp.TextDocumentPositionParams) {
	path := uriToPath(params.TextDocument.URI)
	pos := s.resolvePos(path, params.Position)
	s.schedGeneral.RunWithAST("hover", path, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // superseded by a newer edit; discard (spec §4.C(i))
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		hover, ok := capabilities.FindHover(a, s.textOf(path), s.store, pos)
		if !ok {
			_ = conn.Reply(ctx, id, nil)
			return
		}
		_ = conn.Reply(ctx, id, hover)
	})
}

func (s *Server) definition(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params lsp.TextDocumentPositionParams) {
	path := uriToPath(params.TextDocument.URI)
	pos := s.resolvePos(path, params.Position)
	s.schedGeneral.RunWithAST("definition", path, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // superseded by a newer edit; discard (spec §4.C(i))
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		locs, ok := capabilities.FindDefinition(a, s.proj, s.store, pos)
		if !ok {
			_ = conn.Reply(ctx, id, []lsp.Location{})
			return
		}
		_ = conn.Reply(ctx, id, locs)
	})
}

func (s *Server) references(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params lsp.ReferenceParams) {
	path := uriToPath(params.TextDocument.URI)
	pos := s.resolvePos(path, params.Position)
	s.schedGeneral.RunWithAST("references", path, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // superseded by a newer edit; discard (spec §4.C(i))
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		locs, _ := capabilities.FindReferences(a, s.proj, s.store, pos, params.Context.IncludeDeclaration)
		_ = conn.Reply(ctx, id, locs)
	})
}

func (s *Server) documentHighlight(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params lsp.TextDocumentPositionParams) {
	path := uriToPath(params.TextDocument.URI)
	pos := s.resolvePos(path, params.Position)
	s.schedGeneral.RunWithAST("documentHighlight", path, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // superseded by a newer edit; discard (spec §4.C(i))
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		_ = conn.Reply(ctx, id, capabilities.FindDocumentHighlights(a, s.textOf(path), s.store, pos))
	})
}

func (s *Server) documentSymbol(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params lsp.DocumentSymbolParams) {
	path := uriToPath(params.TextDocument.URI)
	s.schedGeneral.RunWithAST("documentSymbol", path, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // superseded by a newer edit; discard (spec §4.C(i))
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		_ = conn.Reply(ctx, id, capabilities.FindDocumentSymbols(a, s.textOf(path)))
	})
}

// documentLink always replies with an empty list; cjls advertises no
// link provider (spec §6 policy decision).
func (s *Server) documentLink(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID) {
	_ = conn.Reply(ctx, id, capabilities.FindDocumentLinks())
}

// --- rename ----------------------------------------------------------------

func (s *Server) prepareRename(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params lsp.TextDocumentPositionParams) {
	path := uriToPath(params.TextDocument.URI)
	pos := s.resolvePos(path, params.Position)
	s.schedGeneral.RunWithAST("prepareRename", path, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // superseded by a newer edit; discard (spec §4.C(i))
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		rng, ok := capabilities.PrepareRename(a, s.textOf(path), s.store, pos)
		if !ok {
			s.replyErr(ctx, conn, id, cjlserr.New(fmt.Errorf("no renameable symbol at position"), cjlserr.MissingSymbol))
			return
		}
		_ = conn.Reply(ctx, id, rng)
	})
}

func (s *Server) rename(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params lsp.RenameParams) {
	path := uriToPath(params.TextDocument.URI)
	pos := s.resolvePos(path, params.Position)
	s.schedGeneral.RunWithAST("rename", path, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // superseded by a newer edit; discard (spec §4.C(i))
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		edit, ok := capabilities.Rename(a, s.proj, s.store, pos, params.NewName)
		if !ok {
			s.replyErr(ctx, conn, id, cjlserr.New(fmt.Errorf("no renameable symbol at position"), cjlserr.MissingSymbol))
			return
		}
		_ = conn.Reply(ctx, id, edit)
	})
}

// --- completion / signature help -------------------------------------------

func (s *Server) completion(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params lsp.CompletionParams) {
	path := uriToPath(params.TextDocument.URI)
	reqID := fmt.Sprint(id)
	s.schedCompletion.RunWithASTCancellable("completion", path, reqID, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // Cancelled (spec §7): suppress the reply entirely.
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		items := capabilities.FindScopeCompletion(a, "")
		_ = conn.Reply(ctx, id, lsp.CompletionList{Items: items})
	})
}

func (s *Server) signatureHelp(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params lsp.TextDocumentPositionParams) {
	path := uriToPath(params.TextDocument.URI)
	pos := s.resolvePos(path, params.Position)
	reqID := fmt.Sprint(id)
	s.schedSignatureHelp.RunWithASTCancellable("signatureHelp", path, reqID, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		help, ok := capabilities.FindSignatureHelp(a, s.store, pos)
		if !ok {
			_ = conn.Reply(ctx, id, nil)
			return
		}
		_ = conn.Reply(ctx, id, help)
	})
}

// --- semantic tokens ---------------------------------------------------------

func (s *Server) semanticTokens(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params wire.SemanticTokensParams) {
	path := uriToPath(params.TextDocument.URI)
	s.schedGeneral.RunWithAST("semanticTokens", path, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // superseded by a newer edit; discard (spec §4.C(i))
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		_ = conn.Reply(ctx, id, capabilities.FindSemanticTokens(a))
	})
}

// --- code actions / lenses ----------------------------------------------------

func (s *Server) codeAction(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params lsp.CodeActionParams) {
	path := uriToPath(params.TextDocument.URI)
	begin := s.resolvePos(path, params.Range.Start)
	end := s.resolvePos(path, params.Range.End)
	s.schedGeneral.RunWithAST("codeAction", path, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // superseded by a newer edit; discard (spec §4.C(i))
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		actions, _ := capabilities.FindCodeActions(a, ast.Range{Begin: begin, End: end}, s.tweaks, s.store)
		_ = conn.Reply(ctx, id, actions)
	})
}

func (s *Server) codeLens(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params lsp.CodeLensParams) {
	path := uriToPath(params.TextDocument.URI)
	s.schedGeneral.RunWithAST("codeLens", path, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // superseded by a newer edit; discard (spec §4.C(i))
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		_ = conn.Reply(ctx, id, capabilities.FindCodeLenses(a, s.textOf(path), s.store))
	})
}

func (s *Server) breakpointLocations(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params wire.BreakpointLocationParams) {
	path := uriToPath(params.TextDocument.URI)
	begin := s.resolvePos(path, params.Range.Start)
	end := s.resolvePos(path, params.Range.End)
	s.schedGeneral.RunWithAST("breakpointLocations", path, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // superseded by a newer edit; discard (spec §4.C(i))
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		_ = conn.Reply(ctx, id, capabilities.FindBreakpointLocations(a, s.textOf(path), ast.Range{Begin: begin, End: end}))
	})
}

func (s *Server) overrideMethods(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params wire.OverrideMethodsParams) {
	path := uriToPath(params.TextDocument.URI)
	pos := s.resolvePos(path, params.Position)
	s.schedGeneral.RunWithAST("overrideMethods", path, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // superseded by a newer edit; discard (spec §4.C(i))
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		_ = conn.Reply(ctx, id, capabilities.FindOverrideMethods(a, s.store, pos))
	})
}

// --- type / call hierarchy -----------------------------------------------------

func (s *Server) typeHierarchyPrepare(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params wire.TypeHierarchyPrepareParams) {
	path := uriToPath(params.TextDocument.URI)
	pos := s.resolvePos(path, params.Position)
	s.schedGeneral.RunWithAST("typeHierarchy/prepare", path, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // superseded by a newer edit; discard (spec §4.C(i))
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		item, ok := capabilities.FindTypeHierarchyRoot(a, s.proj, s.store, pos)
		if !ok {
			_ = conn.Reply(ctx, id, nil)
			return
		}
		_ = conn.Reply(ctx, id, []wire.TypeHierarchyItem{item})
	})
}

func (s *Server) typeHierarchySupertypes(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params wire.TypeHierarchySupertypesParams) {
	id2 := s.symbolIDForHierarchyItem(params.Item)
	_ = conn.Reply(ctx, id, capabilities.FindSuperTypes(s.proj, s.store, id2))
}

func (s *Server) typeHierarchySubtypes(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params wire.TypeHierarchySubtypesParams) {
	id2 := s.symbolIDForHierarchyItem(params.Item)
	_ = conn.Reply(ctx, id, capabilities.FindSubTypes(s.proj, s.store, id2))
}

func (s *Server) symbolIDForHierarchyItem(item wire.TypeHierarchyItem) ast.SymbolID {
	path := uriToPath(lsp.DocumentURI(item.URI))
	pos := s.resolvePos(path, item.SelectionRange.Start)
	a, ok := s.proj.GetArkAST(path)
	if !ok || a.File == nil {
		return 0
	}
	n := capabilities.NodeAt(a.File, pos)
	if n == nil {
		return 0
	}
	id, _ := n.Target()
	return id
}

func (s *Server) callHierarchyPrepare(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params wire.CallHierarchyPrepareParams) {
	path := uriToPath(params.TextDocument.URI)
	pos := s.resolvePos(path, params.Position)
	s.schedGeneral.RunWithAST("callHierarchy/prepare", path, func(ctx context.Context, a *ast.ArkAST, err error) {
		if ctx.Err() != nil {
			return // superseded by a newer edit; discard (spec §4.C(i))
		}
		if err != nil {
			s.replyErr(ctx, conn, id, err)
			return
		}
		item, ok := capabilities.FindCallHierarchyRoot(a, s.proj, s.store, pos)
		if !ok {
			_ = conn.Reply(ctx, id, nil)
			return
		}
		_ = conn.Reply(ctx, id, []wire.CallHierarchyItem{item})
	})
}

func (s *Server) callHierarchyIncoming(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params wire.CallHierarchyIncomingCallsParams) {
	symID := s.symbolIDForCallItem(params.Item)
	_ = conn.Reply(ctx, id, capabilities.FindIncomingCalls(s.proj, s.store, symID))
}

func (s *Server) callHierarchyOutgoing(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params wire.CallHierarchyOutgoingCallsParams) {
	symID := s.symbolIDForCallItem(params.Item)
	_ = conn.Reply(ctx, id, capabilities.FindOutgoingCalls(s.proj, s.store, symID))
}

func (s *Server) symbolIDForCallItem(item wire.CallHierarchyItem) ast.SymbolID {
	path := uriToPath(lsp.DocumentURI(item.URI))
	pos := s.resolvePos(path, item.SelectionRange.Start)
	a, ok := s.proj.GetArkAST(path)
	if !ok || a.File == nil {
		return 0
	}
	n := capabilities.NodeAt(a.File, pos)
	if n == nil {
		return 0
	}
	id, _ := n.Target()
	return id
}

// --- workspace symbol ------------------------------------------------------

func (s *Server) workspaceSymbol(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params lsp.WorkspaceSymbolParams) {
	_ = conn.Reply(ctx, id, capabilities.FindWorkspaceSymbols(s.proj, s.store, params.Query))
}
