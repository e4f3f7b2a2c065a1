package core

import "vss-tools/internal/types"

// FlatEntries lists every node below root in preorder in the persisted
// flat dump shape.
func FlatEntries(root *Node) []types.FlatEntry {
	nodes := root.Nodes()
	out := make([]types.FlatEntry, 0, len(nodes))
	for _, node := range nodes {
		entry := types.FlatEntry{
			FQN:         node.FQN(),
			Type:        node.Kind,
			Datatype:    node.Datatype.String(),
			Unit:        node.Unit,
			Min:         node.Min,
			Max:         node.Max,
			Allowed:     node.Allowed,
			Default:     node.Default,
			Description: node.Description,
			Comment:     node.Comment,
			Deprecation: node.Deprecation,
			UUID:        node.UUID,
		}
		if len(node.Extended) > 0 {
			entry.Extended = copyAttributes(node.Extended)
		}
		out = append(out, entry)
	}
	return out
}
