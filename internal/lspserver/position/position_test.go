package position

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/ast"
)

func TestToInternalASCII(t *testing.T) {
	text := []byte("line one\nline two\n")
	got := ToInternal(1, text, lsp.Position{Line: 1, Character: 5})
	want := ast.Position{File: 1, Line: 2, Column: 6}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ToInternal() mismatch (-want +got):\n%s", diff)
	}
}

func TestToLSPRoundTripsASCII(t *testing.T) {
	text := []byte("line one\nline two\n")
	p := lsp.Position{Line: 1, Character: 5}
	internal := ToInternal(1, text, p)
	back := ToLSP(text, internal)
	if diff := cmp.Diff(p, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestToInternalMultiByteRune(t *testing.T) {
	// "héllo" - 'é' is 2 UTF-8 bytes, 1 UTF-16 unit. Position after "h"
	// and "é" (2 UTF-16 units) should land on byte offset 3 ('l').
	text := []byte("héllo")
	got := ToInternal(1, text, lsp.Position{Line: 0, Character: 2})
	if got.Column != 4 { // 1-based: 'h'(1) 'é'(2-3) 'l'(4)
		t.Fatalf("Column = %d, want 4", got.Column)
	}
}

func TestToInternalSurrogatePair(t *testing.T) {
	// U+1F600 (grinning face) is 4 UTF-8 bytes and 2 UTF-16 units.
	text := []byte("\U0001F600x")
	got := ToInternal(1, text, lsp.Position{Line: 0, Character: 2})
	if got.Column != 5 { // byte offset 4, 1-based column 5, landing on 'x'
		t.Fatalf("Column = %d, want 5", got.Column)
	}
}

func TestToInternalClampsPastEndOfLine(t *testing.T) {
	text := []byte("abc")
	got := ToInternal(1, text, lsp.Position{Line: 0, Character: 100})
	if got.Column != 4 {
		t.Fatalf("Column = %d, want 4 (clamped to len+1)", got.Column)
	}
}

func TestToInternalLineBeyondText(t *testing.T) {
	text := []byte("abc\n")
	got := ToInternal(1, text, lsp.Position{Line: 5, Character: 0})
	if got.Line != 2 {
		t.Fatalf("Line = %d, want 2 (clamped to line count)", got.Line)
	}
}

func TestUTF16ColumnToByteEmptyLine(t *testing.T) {
	if off := UTF16ColumnToByte(nil, 3); off != 0 {
		t.Fatalf("UTF16ColumnToByte(nil, 3) = %d, want 0", off)
	}
}

func TestToLSPRange(t *testing.T) {
	text := []byte("abcdef")
	r := ast.Range{Begin: ast.Position{Line: 1, Column: 1}, End: ast.Position{Line: 1, Column: 4}}
	got := ToLSPRange(text, r)
	want := lsp.Range{Start: lsp.Position{Line: 0, Character: 0}, End: lsp.Position{Line: 0, Character: 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ToLSPRange() mismatch (-want +got):\n%s", diff)
	}
}
