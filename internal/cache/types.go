// Package cache implements the cross-project symbol index (component A):
// a content-addressed, crash-safe on-disk shard store plus the in-memory
// symbol/ref/relation/extend slabs every feature handler queries (spec
// §4.A).
package cache

import "cjls/internal/ast"

// SymbolKind classifies a Symbol for completion-item rendering and
// hierarchy queries.
type SymbolKind int

// Symbol kinds.
const (
	SymbolUnknown SymbolKind = iota
	SymbolFunction
	SymbolClass
	SymbolInterface
	SymbolStruct
	SymbolEnum
	SymbolEnumCase
	SymbolVariable
	SymbolParameter
	SymbolField
	SymbolExtend
	SymbolPackage
	SymbolMacro
)

// Symbol is an indexed declaration (spec §3).
type Symbol struct {
	ID            ast.SymbolID
	Name          string
	Scope         string // enclosing package-qualified scope, e.g. "pkg.Class"
	Kind          SymbolKind
	Location      ast.Position
	Declaration   ast.Range
	CurMacroCall  string
	Signature     string
	ReturnType    string
	IsMemberParam bool
	Modifier      ast.Modifier
	IsCjoSym      bool // declared in a precompiled .cjo dependency, no source available
	IsDeprecated  bool
	InsertText    string
	CurModule     string
}

// RefKind classifies how a Ref uses its symbol.
type RefKind int

// Reference kinds.
const (
	RefRead RefKind = iota
	RefWrite
	RefDeclaration
)

// Ref is one use site of a Symbol (spec §3).
type Ref struct {
	Location    ast.Position
	Kind        RefKind
	ContainerID ast.SymbolID // enclosing declaration, 0 if none
	IsCjoRef    bool
}

// Predicate names the relationship a Relation encodes.
type Predicate int

// Relation predicates (spec §3).
const (
	PredicateBaseOf Predicate = iota // subject's type directly extends/implements object
	PredicateExtend                  // subject is extended by the `extend` declaration object
)

// Relation is a directed (subject, predicate, object) edge between two
// symbols, used for sub/super type and call/type hierarchy queries.
type Relation struct {
	Subject   ast.SymbolID
	Predicate Predicate
	Object    ast.SymbolID
}

// Extend records an `extend` declaration augmenting Symbol ID with
// members, optionally constrained to an interface (spec §3).
type Extend struct {
	ID            ast.SymbolID
	Modifier      ast.Modifier
	InterfaceName string
}

// ImportSymCandidate is one result of FindImportSymsOnCompletion: a
// symbol from a package not yet imported by the requesting file, together
// with a rendering hint for the completion item (spec §4.A).
type ImportSymCandidate struct {
	Package string
	Symbol  Symbol
	Hint    string
}
