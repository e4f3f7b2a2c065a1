package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"vss-tools/internal/core"
	"vss-tools/internal/types"
)

// Inspect loads the tree and describes a single node.
func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	fqn := strings.TrimSpace(req.FQN)
	if fqn == "" {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("node name is required")
	}
	loaded, err := s.Load(ctx, req.Load)
	if err != nil {
		return InspectResult{}, err
	}
	node := loaded.Root.Find(fqn)
	if node == nil && loaded.Types != nil {
		node = loaded.Types.Find(fqn)
	}
	if node == nil {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("node %s not found", fqn))
	}
	depth := req.Depth
	if depth < 1 {
		depth = 1
	}
	var children []string
	collectDescendants(node, depth, &children)
	return InspectResult{
		Entry:    core.FlatEntries(node)[0],
		Sources:  node.Sources,
		Children: children,
		Quantity: unitQuantity(loaded.Registry, node.Unit),
	}, nil
}

func unitQuantity(registry core.Registry, unitKey string) *types.Quantity {
	if unitKey == "" {
		return nil
	}
	unit, ok := registry.Unit(unitKey)
	if !ok || unit.Quantity == "" {
		return nil
	}
	quantity, ok := registry.Quantity(unit.Quantity)
	if !ok {
		return nil
	}
	return &quantity
}

func collectDescendants(node *core.Node, depth int, out *[]string) {
	if depth == 0 {
		return
	}
	for _, child := range node.Children() {
		*out = append(*out, child.FQN())
		collectDescendants(child, depth-1, out)
	}
}
