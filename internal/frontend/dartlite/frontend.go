package dartlite

import (
	"context"

	"dartbridge/internal/core/ports"
	"dartbridge/internal/engine/ast"
	"dartbridge/internal/engine/graph"
)

// Frontend adapts the parser to the analysis core's parser port.
type Frontend struct{}

var _ ports.Frontend = (*Frontend)(nil)

func New() *Frontend { return &Frontend{} }

func (f *Frontend) Parse(ctx context.Context, file graph.FileIdentity, content []byte) (*ast.CompilationUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Parse(file, content), nil
}
