package lspserver

import (
	"errors"
	"strings"

	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/ast"
	"cjls/internal/lspserver/position"
)

func cjlserrIs(err error, kind error) bool {
	return errors.Is(err, kind)
}

// uriToPath strips a file:// scheme off an LSP DocumentURI, leaving the
// filesystem path the project model indexes everything by.
func uriToPath(uri lsp.DocumentURI) string {
	return strings.TrimPrefix(string(uri), "file://")
}

// pathToURI is uriToPath's inverse, used to address a file in outbound
// notifications like textDocument/publishDiagnostics.
func pathToURI(path string) lsp.DocumentURI {
	return lsp.DocumentURI("file://" + path)
}

func inputsFromOpen(path string, version int, text string) ast.ParseInputs {
	return ast.ParseInputs{Path: path, Text: []byte(text), Version: int64(version)}
}

func astParseInputs(path string, text []byte, version int64) ast.ParseInputs {
	return ast.ParseInputs{Path: path, Text: text, Version: version}
}

// applyChange applies one TextDocumentContentChangeEvent to text. A nil
// Range means the event carries the document's full new text, same as
// every editor does on a TDSKFull sync; a non-nil Range splices the
// changed span in UTF-16 coordinates.
func applyChange(text []byte, change lsp.TextDocumentContentChangeEvent) []byte {
	if change.Range == nil {
		return []byte(change.Text)
	}
	begin := positionToByteOffset(text, change.Range.Start)
	end := positionToByteOffset(text, change.Range.End)
	if begin > len(text) || end > len(text) || begin > end {
		return []byte(change.Text)
	}
	out := make([]byte, 0, len(text)-(end-begin)+len(change.Text))
	out = append(out, text[:begin]...)
	out = append(out, []byte(change.Text)...)
	out = append(out, text[end:]...)
	return out
}

// positionToByteOffset converts an LSP position directly to a byte
// offset into text, reusing the same line-scan position.ToInternal does
// but collapsing straight to an absolute offset rather than an
// ast.Position.
func positionToByteOffset(text []byte, p lsp.Position) int {
	line := 0
	off := 0
	for off < len(text) && line < p.Line {
		if text[off] == '\n' {
			line++
		}
		off++
	}
	lineStart := off
	lineEnd := len(text)
	for i := lineStart; i < len(text); i++ {
		if text[i] == '\n' {
			lineEnd = i
			break
		}
	}
	return lineStart + position.UTF16ColumnToByte(text[lineStart:lineEnd], p.Character)
}
