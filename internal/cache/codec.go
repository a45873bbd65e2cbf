package cache

import (
	"encoding/binary"
	"fmt"

	"cjls/internal/ast"
)

// HashedPackage is the verifier-signed root of an index shard (spec §6):
// the four slabs contributed by a single compiled package.
type HashedPackage struct {
	Package      string
	SymbolSlab   []Symbol
	RefSlab      []RefRecord
	RelationSlab []Relation
	ExtendSlab   []ExtendRecord
}

// RefRecord pairs a Ref with the symbol it belongs to, so the flat
// on-disk slab can be regrouped into `sym -> [refs]` on load (spec §4.A).
type RefRecord struct {
	Symbol ast.SymbolID
	Ref    Ref
}

// ExtendRecord pairs an Extend with the symbol ID of the type it extends
// (distinct from Extend.ID, which is the `extend` declaration's own
// symbol id), so the flat on-disk slab can be regrouped on load.
type ExtendRecord struct {
	Owner  ast.SymbolID
	Extend Extend
}

// encodeHashedPackage serializes p as a length-framed binary record. Each
// slab is a uint32 count followed by fixed-shape records; this is the
// lightest "flatbuffer-style" framing cjls can produce without pulling in
// a full schema compiler for four small, stable record shapes (see
// DESIGN.md).
func encodeHashedPackage(p HashedPackage) []byte {
	var w binWriter
	w.string(p.Package)
	w.uint32(uint32(len(p.SymbolSlab)))
	for _, s := range p.SymbolSlab {
		encodeSymbol(&w, s)
	}
	w.uint32(uint32(len(p.RefSlab)))
	for _, r := range p.RefSlab {
		w.uint64(uint64(r.Symbol))
		encodeRef(&w, r.Ref)
	}
	w.uint32(uint32(len(p.RelationSlab)))
	for _, r := range p.RelationSlab {
		w.uint64(uint64(r.Subject))
		w.uint32(uint32(r.Predicate))
		w.uint64(uint64(r.Object))
	}
	w.uint32(uint32(len(p.ExtendSlab)))
	for _, e := range p.ExtendSlab {
		w.uint64(uint64(e.Owner))
		encodeExtend(&w, e.Extend)
	}
	return w.buf
}

// decodeHashedPackage is the inverse of encodeHashedPackage. A malformed
// payload is treated identically to a verifier failure by the caller
// (readShardVerified already checked the checksum; this only guards
// against truncated/corrupt-but-checksum-matching framing).
func decodeHashedPackage(b []byte) (HashedPackage, error) {
	r := binReader{buf: b}
	var p HashedPackage
	var err error
	if p.Package, err = r.string(); err != nil {
		return p, err
	}
	n, err := r.uint32()
	if err != nil {
		return p, err
	}
	p.SymbolSlab = make([]Symbol, n)
	for i := range p.SymbolSlab {
		if p.SymbolSlab[i], err = decodeSymbol(&r); err != nil {
			return p, err
		}
	}
	if n, err = r.uint32(); err != nil {
		return p, err
	}
	p.RefSlab = make([]RefRecord, n)
	for i := range p.RefSlab {
		sym, err := r.uint64()
		if err != nil {
			return p, err
		}
		ref, err := decodeRef(&r)
		if err != nil {
			return p, err
		}
		p.RefSlab[i] = RefRecord{Symbol: ast.SymbolID(sym), Ref: ref}
	}
	if n, err = r.uint32(); err != nil {
		return p, err
	}
	p.RelationSlab = make([]Relation, n)
	for i := range p.RelationSlab {
		subj, err := r.uint64()
		if err != nil {
			return p, err
		}
		pred, err := r.uint32()
		if err != nil {
			return p, err
		}
		obj, err := r.uint64()
		if err != nil {
			return p, err
		}
		p.RelationSlab[i] = Relation{Subject: ast.SymbolID(subj), Predicate: Predicate(pred), Object: ast.SymbolID(obj)}
	}
	if n, err = r.uint32(); err != nil {
		return p, err
	}
	p.ExtendSlab = make([]ExtendRecord, n)
	for i := range p.ExtendSlab {
		owner, err := r.uint64()
		if err != nil {
			return p, err
		}
		ext, err := decodeExtend(&r)
		if err != nil {
			return p, err
		}
		p.ExtendSlab[i] = ExtendRecord{Owner: ast.SymbolID(owner), Extend: ext}
	}
	return p, nil
}

func encodeSymbol(w *binWriter, s Symbol) {
	w.uint64(uint64(s.ID))
	w.string(s.Name)
	w.string(s.Scope)
	w.uint32(uint32(s.Kind))
	w.position(s.Location)
	w.rang(s.Declaration)
	w.string(s.CurMacroCall)
	w.string(s.Signature)
	w.string(s.ReturnType)
	w.bool(s.IsMemberParam)
	w.uint32(uint32(s.Modifier))
	w.bool(s.IsCjoSym)
	w.bool(s.IsDeprecated)
	w.string(s.InsertText)
	w.string(s.CurModule)
}

func decodeSymbol(r *binReader) (Symbol, error) {
	var s Symbol
	var err error
	var u64 uint64
	var u32 uint32
	var b bool
	if u64, err = r.uint64(); err != nil {
		return s, err
	}
	s.ID = ast.SymbolID(u64)
	if s.Name, err = r.string(); err != nil {
		return s, err
	}
	if s.Scope, err = r.string(); err != nil {
		return s, err
	}
	if u32, err = r.uint32(); err != nil {
		return s, err
	}
	s.Kind = SymbolKind(u32)
	if s.Location, err = r.position(); err != nil {
		return s, err
	}
	if s.Declaration, err = r.rang(); err != nil {
		return s, err
	}
	if s.CurMacroCall, err = r.string(); err != nil {
		return s, err
	}
	if s.Signature, err = r.string(); err != nil {
		return s, err
	}
	if s.ReturnType, err = r.string(); err != nil {
		return s, err
	}
	if b, err = r.bool(); err != nil {
		return s, err
	}
	s.IsMemberParam = b
	if u32, err = r.uint32(); err != nil {
		return s, err
	}
	s.Modifier = ast.Modifier(u32)
	if b, err = r.bool(); err != nil {
		return s, err
	}
	s.IsCjoSym = b
	if b, err = r.bool(); err != nil {
		return s, err
	}
	s.IsDeprecated = b
	if s.InsertText, err = r.string(); err != nil {
		return s, err
	}
	if s.CurModule, err = r.string(); err != nil {
		return s, err
	}
	return s, nil
}

func encodeRef(w *binWriter, rf Ref) {
	w.position(rf.Location)
	w.uint32(uint32(rf.Kind))
	w.uint64(uint64(rf.ContainerID))
	w.bool(rf.IsCjoRef)
}

func decodeRef(r *binReader) (Ref, error) {
	var rf Ref
	var err error
	if rf.Location, err = r.position(); err != nil {
		return rf, err
	}
	u32, err := r.uint32()
	if err != nil {
		return rf, err
	}
	rf.Kind = RefKind(u32)
	u64, err := r.uint64()
	if err != nil {
		return rf, err
	}
	rf.ContainerID = ast.SymbolID(u64)
	if rf.IsCjoRef, err = r.bool(); err != nil {
		return rf, err
	}
	return rf, nil
}

func encodeExtend(w *binWriter, e Extend) {
	w.uint64(uint64(e.ID))
	w.uint32(uint32(e.Modifier))
	w.string(e.InterfaceName)
}

func decodeExtend(r *binReader) (Extend, error) {
	var e Extend
	u64, err := r.uint64()
	if err != nil {
		return e, err
	}
	e.ID = ast.SymbolID(u64)
	u32, err := r.uint32()
	if err != nil {
		return e, err
	}
	e.Modifier = ast.Modifier(u32)
	if e.InterfaceName, err = r.string(); err != nil {
		return e, err
	}
	return e, nil
}

// binWriter is a minimal big-endian, length-prefixed binary encoder.
type binWriter struct{ buf []byte }

func (w *binWriter) uint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *binWriter) uint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *binWriter) bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *binWriter) string(s string) {
	w.uint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *binWriter) position(p ast.Position) {
	w.uint32(uint32(p.File))
	w.uint32(p.Line)
	w.uint32(p.Column)
}

func (w *binWriter) rang(r ast.Range) {
	w.position(r.Begin)
	w.position(r.End)
}

// binReader is the inverse of binWriter; it returns errTruncated on
// truncated input.
type binReader struct {
	buf []byte
	off int
}

var errTruncated = fmt.Errorf("truncated shard payload")

func (r *binReader) need(n int) ([]byte, error) {
	if r.off+n > len(r.buf) {
		return nil, errTruncated
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *binReader) uint32() (uint32, error) {
	b, err := r.need(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *binReader) uint64() (uint64, error) {
	b, err := r.need(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *binReader) bool() (bool, error) {
	b, err := r.need(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (r *binReader) string() (string, error) {
	n, err := r.uint32()
	if err != nil {
		return "", err
	}
	b, err := r.need(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *binReader) position() (ast.Position, error) {
	var p ast.Position
	f, err := r.uint32()
	if err != nil {
		return p, err
	}
	p.File = ast.FileID(f)
	if p.Line, err = r.uint32(); err != nil {
		return p, err
	}
	if p.Column, err = r.uint32(); err != nil {
		return p, err
	}
	return p, nil
}

func (r *binReader) rang() (ast.Range, error) {
	var rg ast.Range
	var err error
	if rg.Begin, err = r.position(); err != nil {
		return rg, err
	}
	if rg.End, err = r.position(); err != nil {
		return rg, err
	}
	return rg, nil
}
