// Package position converts between LSP's UTF-16 (line, character) wire
// positions and the 1-based UTF-8 byte-column ast.Position the rest of
// cjls works in. No example repo in the corpus ships an LSP column
// mapper (the teacher's own golang/tools/lsp/protocol.ColumnMapper lives
// behind a vendored fork this module does not carry), so this is built
// directly against unicode/utf16 and unicode/utf8, the same pair the
// mapper itself is built on upstream.
package position

import (
	"unicode/utf16"
	"unicode/utf8"

	lsp "github.com/sourcegraph/go-lsp"

	"cjls/internal/ast"
)

// lineOffsets returns the byte offset each line of text begins at, text[0]
// always being offset 0.
func lineOffsets(text []byte) []int {
	offs := []int{0}
	for i, b := range text {
		if b == '\n' {
			offs = append(offs, i+1)
		}
	}
	return offs
}

// ToInternal converts an LSP position (0-based line, UTF-16 code units
// into that line) into an ast.Position (1-based line and column, column
// counted in UTF-8 bytes) against the given document text.
func ToInternal(file ast.FileID, text []byte, p lsp.Position) ast.Position {
	offs := lineOffsets(text)
	line := p.Line
	if line < 0 {
		line = 0
	}
	if line >= len(offs) {
		return ast.Position{File: file, Line: uint32(len(offs)), Column: 1}
	}
	start := offs[line]
	end := len(text)
	if line+1 < len(offs) {
		end = offs[line+1]
	}
	lineBytes := text[start:end]

	col := utf16ToByteOffset(lineBytes, p.Character)
	return ast.Position{File: file, Line: uint32(line + 1), Column: uint32(col + 1)}
}

// ToLSP converts an ast.Position back into an LSP position against the
// given document text.
func ToLSP(text []byte, p ast.Position) lsp.Position {
	offs := lineOffsets(text)
	line := int(p.Line) - 1
	if line < 0 {
		line = 0
	}
	if line >= len(offs) {
		return lsp.Position{Line: len(offs) - 1, Character: 0}
	}
	start := offs[line]
	end := len(text)
	if line+1 < len(offs) {
		end = offs[line+1]
	}
	lineBytes := text[start:end]

	byteCol := int(p.Column) - 1
	if byteCol < 0 {
		byteCol = 0
	}
	if byteCol > len(lineBytes) {
		byteCol = len(lineBytes)
	}
	return lsp.Position{Line: line, Character: byteOffsetToUTF16(lineBytes, byteCol)}
}

// UTF16ColumnToByte walks line in UTF-16 code units, returning the UTF-8
// byte offset of the units-th unit (clamped to len(line)). Exported for
// callers, like incremental DidChange application, that need a raw byte
// offset rather than a full ast.Position.
func UTF16ColumnToByte(line []byte, units int) int {
	return utf16ToByteOffset(line, units)
}

// utf16ToByteOffset walks line in UTF-16 code units, returning the UTF-8
// byte offset of the units-th unit (clamped to len(line)).
func utf16ToByteOffset(line []byte, units int) int {
	if units <= 0 {
		return 0
	}
	byteOff := 0
	unitCount := 0
	for byteOff < len(line) {
		r, size := utf8.DecodeRune(line[byteOff:])
		if unitCount >= units {
			break
		}
		if r1, r2 := utf16.EncodeRune(r); r1 == utf16.ReplacementChar && r2 == utf16.ReplacementChar {
			unitCount++
		} else {
			unitCount += 2
		}
		byteOff += size
		if unitCount >= units {
			break
		}
	}
	return byteOff
}

// byteOffsetToUTF16 counts the UTF-16 code units spanned by line[:byteOff].
func byteOffsetToUTF16(line []byte, byteOff int) int {
	units := 0
	for i := 0; i < byteOff && i < len(line); {
		r, size := utf8.DecodeRune(line[i:])
		if r1, r2 := utf16.EncodeRune(r); r1 == utf16.ReplacementChar && r2 == utf16.ReplacementChar {
			units++
		} else {
			units += 2
		}
		i += size
	}
	return units
}

// ToLSPRange converts an ast.Range to an lsp.Range against text.
func ToLSPRange(text []byte, r ast.Range) lsp.Range {
	return lsp.Range{Start: ToLSP(text, r.Begin), End: ToLSP(text, r.End)}
}
