package wire

import lsp "github.com/sourcegraph/go-lsp"

// The wire types below cover LSP methods added to the protocol after
// sourcegraph/go-lsp stopped tracking it (type hierarchy, call
// hierarchy, semantic tokens, document links, breakpoint locations) plus
// one Cangjie-specific extension (overrideMethods). They follow the same
// field-per-JSON-member shape go-lsp itself uses.

// DocumentLinkParams requests the links within a document. cjls never
// advertises an actual links provider (spec decision, §6), so handling
// this method is only a matter of replying with an empty list.
type DocumentLinkParams struct {
	TextDocument lsp.TextDocumentIdentifier `json:"textDocument"`
}

// DocumentLink is a clickable range in a document pointing at a target
// URI.
type DocumentLink struct {
	Range  lsp.Range `json:"range"`
	Target string    `json:"target,omitempty"`
}

// SemanticTokensParams requests the semantic token stream for a document.
type SemanticTokensParams struct {
	TextDocument lsp.TextDocumentIdentifier `json:"textDocument"`
}

// SemanticTokens is the LSP 3.16 delta-encoded token stream.
type SemanticTokens struct {
	Data []uint32 `json:"data"`
}

// TypeHierarchyItem identifies a class, interface, struct, or enum for
// type-hierarchy navigation.
type TypeHierarchyItem struct {
	Name           string    `json:"name"`
	Kind           int       `json:"kind"`
	URI            string    `json:"uri"`
	Range          lsp.Range `json:"range"`
	SelectionRange lsp.Range `json:"selectionRange"`
}

// TypeHierarchyPrepareParams requests the type-hierarchy root item at a
// position.
type TypeHierarchyPrepareParams struct {
	TextDocument lsp.TextDocumentIdentifier `json:"textDocument"`
	Position     lsp.Position               `json:"position"`
}

// TypeHierarchySupertypesParams/SubtypesParams request one level of the
// hierarchy starting from an item already returned by prepare.
type TypeHierarchySupertypesParams struct {
	Item TypeHierarchyItem `json:"item"`
}

type TypeHierarchySubtypesParams struct {
	Item TypeHierarchyItem `json:"item"`
}

// CallHierarchyItem identifies a callable declaration for call-hierarchy
// navigation.
type CallHierarchyItem struct {
	Name           string    `json:"name"`
	Kind           int       `json:"kind"`
	URI            string    `json:"uri"`
	Range          lsp.Range `json:"range"`
	SelectionRange lsp.Range `json:"selectionRange"`
}

type CallHierarchyPrepareParams struct {
	TextDocument lsp.TextDocumentIdentifier `json:"textDocument"`
	Position     lsp.Position               `json:"position"`
}

type CallHierarchyIncomingCallsParams struct {
	Item CallHierarchyItem `json:"item"`
}

type CallHierarchyOutgoingCallsParams struct {
	Item CallHierarchyItem `json:"item"`
}

type CallHierarchyIncomingCall struct {
	From       CallHierarchyItem `json:"from"`
	FromRanges []lsp.Range       `json:"fromRanges"`
}

type CallHierarchyOutgoingCall struct {
	To         CallHierarchyItem `json:"to"`
	FromRanges []lsp.Range       `json:"fromRanges"`
}

// BreakpointLocationParams requests the statement-level positions a
// debugger can plant a breakpoint at within a range.
type BreakpointLocationParams struct {
	TextDocument lsp.TextDocumentIdentifier `json:"textDocument"`
	Range        lsp.Range                  `json:"range"`
}

type BreakpointLocation struct {
	Range lsp.Range `json:"range"`
}

// OverrideMethodsParams is cjls's cursor-position request for the
// overridable members of the enclosing type's supertypes.
type OverrideMethodsParams struct {
	TextDocument lsp.TextDocumentIdentifier `json:"textDocument"`
	Position     lsp.Position               `json:"position"`
}

// OverrideMethodInfo is one overridable member offered to the editor.
type OverrideMethodInfo struct {
	Deprecated       bool   `json:"deprecated"`
	IsProp           bool   `json:"isProp"`
	SignatureWithRet string `json:"signatureWithRet"`
	InsertText       string `json:"insertText"`
}

// OverrideMethodsItem groups the overridable members inherited from one
// supertype.
type OverrideMethodsItem struct {
	Package    string               `json:"package"`
	Kind       string               `json:"kind"`
	Identifier string               `json:"identifier"`
	Methods    []OverrideMethodInfo `json:"overrideMethodInfos"`
}

// ApplyWorkspaceEditParams is the payload of the client-bound
// workspace/applyEdit request a tweak's effect is delivered through.
type ApplyWorkspaceEditParams struct {
	Label string            `json:"label,omitempty"`
	Edit  lsp.WorkspaceEdit `json:"edit"`
}
