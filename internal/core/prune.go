package core

import (
	"context"

	"github.com/rs/zerolog/log"
)

// DeleteMarked detaches every node declared with `delete: true` together
// with its subtree. The root itself is never removed.
func DeleteMarked(ctx context.Context, root *Node) int {
	return detachWhere(ctx, root, func(n *Node) bool { return n.Delete }, "deleted")
}

// DropDeprecated detaches every node that carries a deprecation note.
func DropDeprecated(ctx context.Context, root *Node) int {
	return detachWhere(ctx, root, func(n *Node) bool { return n.Deprecation != "" }, "deprecated")
}

func detachWhere(ctx context.Context, root *Node, match func(*Node) bool, reason string) int {
	sizeBefore := root.Size()
	var marked []*Node
	for _, node := range root.Nodes() {
		if node != root && match(node) {
			marked = append(marked, node)
		}
	}
	for _, node := range marked {
		log.Ctx(ctx).Debug().Str("node", node.FQN()).Str("reason", reason).Msg("node removed")
		node.Detach()
	}
	removed := sizeBefore - root.Size()
	if len(marked) > 0 {
		log.Ctx(ctx).Debug().Int("given", len(marked)).Int("removed", removed).Str("reason", reason).Msg("nodes removed")
	}
	return removed
}
