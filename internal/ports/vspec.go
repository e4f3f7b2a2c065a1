package ports

import (
	"context"

	"vss-tools/internal/types"
)

type VspecSourcePort interface {
	LoadFlat(ctx context.Context, path string, includeDirs []string, treeKind types.TreeKind) ([]types.FlatRecord, error)
}
