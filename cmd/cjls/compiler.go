package main

import (
	"context"

	"cjls/internal/ast"
	"cjls/internal/cache"
	"cjls/internal/project"
)

// noopCompiler is the seam project.Compiler fills in place of the real
// Cangjie parser/typechecker, which is out of scope for this repo (spec
// §1). It returns one empty, unresolved ArkAST per document so the
// server starts and answers requests with "nothing found" instead of
// failing to boot, until a real frontend is wired in with
// project.WithCompiler.
type noopCompiler struct{}

func (noopCompiler) Compile(ctx context.Context, pkg string, docs []ast.Document) (project.CompileResult, error) {
	files := make([]*ast.ArkAST, len(docs))
	for i, d := range docs {
		files[i] = &ast.ArkAST{Path: d.Path, Version: d.Version}
	}
	return project.CompileResult{
		Files: files,
		Index: cache.HashedPackage{Package: pkg},
	}, nil
}
