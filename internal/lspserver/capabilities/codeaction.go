package capabilities

import (
	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/ast"
	"cjls/internal/cache"
	"cjls/internal/tweak"
)

// FindCodeActions prepares every registered tweak against the selection
// rng and returns the ones whose Prepare rules pass as CodeActions the
// editor can offer, the way Tweak.cpp's enumerateTweaks filters the
// registry down to the applicable subset for a given cursor/selection.
// store lets tweaks like IntroduceConstant resolve a reference's target
// symbol before accepting it.
func FindCodeActions(a *ast.ArkAST, rng ast.Range, reg *tweak.Registry, store *cache.Store) ([]lsp.CodeAction, []*tweak.Selection) {
	sel := tweak.NewSelection(a, rng)
	sel.Store = store

	tws := reg.PrepareTweaks(sel, nil)
	actions := make([]lsp.CodeAction, 0, len(tws))
	sels := make([]*tweak.Selection, 0, len(tws))
	for _, tw := range tws {
		actions = append(actions, lsp.CodeAction{
			Title: tw.Title(),
			Kind:  lsp.CodeActionKind(tw.Kind()),
		})
		sels = append(sels, sel)
	}
	return actions, sels
}

// ApplyTweak runs tw.Apply against sel and renders the effect as a
// WorkspaceEdit ready for workspace/applyEdit, or a ShowMessage
// notification when the tweak only produced a message.
func ApplyTweak(tw tweak.Tweak, sel *tweak.Selection) (*lsp.WorkspaceEdit, string, bool) {
	effect, ok := tw.Apply(sel)
	if !ok {
		return nil, "", false
	}
	if effect.HasMessage {
		return nil, effect.ShowMessage, true
	}
	changes := make(map[string][]lsp.TextEdit, len(effect.ApplyEdits))
	for path, edits := range effect.ApplyEdits {
		uri := string(URIFromPath(path))
		changes[uri] = append(changes[uri], edits...)
	}
	return &lsp.WorkspaceEdit{Changes: changes}, "", true
}
