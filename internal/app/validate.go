package app

import (
	"context"

	"vss-tools/internal/types"
)

func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	loaded, err := s.Load(ctx, req.Load)
	if err != nil {
		return ValidateResult{}, err
	}
	kinds := map[types.NodeKind]int{}
	nodes := loaded.Root.Nodes()
	for _, node := range nodes {
		kinds[node.Kind]++
	}
	return ValidateResult{
		Root:       loaded.Root.Name,
		NodeCount:  len(nodes),
		Kinds:      kinds,
		Units:      loaded.Registry.UnitKeys(),
		Quantities: loaded.Registry.QuantityKeys(),
	}, nil
}
