package capabilities

import (
	"cjls/internal/lspserver/wire"

	"cjls/internal/ast"
	"cjls/internal/cache"
)

// FindOverrideMethods lists the members of the type enclosing pos's
// supertypes that are not already overridden locally, grouped by
// supertype. FindOverrideMethodsImpl's OverridableFuncAndPropMap walks
// the compiler's own inheritance graph; cjls instead asks the index for
// every symbol scoped to the supertype's qualified name.
func FindOverrideMethods(a *ast.ArkAST, store *cache.Store, pos ast.Position) []wire.OverrideMethodsItem {
	if a == nil || a.File == nil {
		return nil
	}
	decl := EnclosingDecl(NodeAt(a.File, pos), typeDeclKinds)
	if decl == nil {
		return nil
	}
	typeID, ok := decl.Target()
	if !ok {
		return nil
	}

	localNames := map[string]bool{}
	for _, c := range decl.Children() {
		if c.Kind() == ast.KindFuncDecl {
			localNames[c.Name()] = true
		}
	}

	var out []wire.OverrideMethodsItem
	for _, rel := range store.RelationsFrom(typeID) {
		if rel.Predicate != cache.PredicateBaseOf && rel.Predicate != cache.PredicateExtend {
			continue
		}
		superSym, ok := store.Lookup(rel.Object)
		if !ok {
			continue
		}
		scope := superSym.Scope
		if scope == "" {
			scope = superSym.Name
		}
		superQualified := scope
		if superSym.Name != "" {
			superQualified = superSym.Name
			if scope != "" && scope != superSym.Name {
				superQualified = scope + "." + superSym.Name
			}
		}

		item := wire.OverrideMethodsItem{Package: superSym.CurModule, Kind: "class", Identifier: superSym.Name}
		for _, member := range store.MembersOfScope(superQualified) {
			if member.Kind != cache.SymbolFunction || localNames[member.Name] {
				continue
			}
			item.Methods = append(item.Methods, wire.OverrideMethodInfo{
				Deprecated:       member.IsDeprecated,
				SignatureWithRet: member.Signature,
				InsertText:       member.InsertText,
			})
		}
		if len(item.Methods) > 0 {
			out = append(out, item)
		}
	}
	return out
}
