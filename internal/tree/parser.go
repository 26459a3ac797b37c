package tree

import (
	"context"

	"lintel/internal/source"
)

// Parser produces a Unit from a loaded source file.
// Implementations must be safe for concurrent use.
type Parser interface {
	Parse(ctx context.Context, file *source.File) (*Unit, error)
}
