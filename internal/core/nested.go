package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"vss-tools/internal/types"
)

// NestedNode is the intermediate, strictly nested form of the flat model.
// Implicit nodes were created for path segments nobody declared.
type NestedNode struct {
	Name         string
	Kind         types.NodeKind
	KindDeclared bool
	Implicit     bool
	Attributes   map[string]any
	Sources      []types.SourceRef
	Children     []*NestedNode
}

func (n *NestedNode) child(name string) *NestedNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type NestedBuilder struct{}

func NewNestedBuilder() NestedBuilder {
	return NestedBuilder{}
}

// Build folds the flat records into a nested model and returns its single
// root. Intermediate path segments become implicit branches.
func (b NestedBuilder) Build(ctx context.Context, records []types.FlatRecord) (*NestedNode, error) {
	if len(records) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("vspec contains no nodes")
	}
	top := &NestedNode{Kind: types.NodeKindBranch}
	for _, record := range records {
		if err := b.insert(ctx, top, record); err != nil {
			return nil, err
		}
	}
	if len(top.Children) != 1 {
		names := make([]string, 0, len(top.Children))
		for _, c := range top.Children {
			names = append(names, c.Name)
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("vspec must have exactly one root, found %d: %s", len(names), strings.Join(names, ", ")))
	}
	root := top.Children[0]
	if root.Kind != types.NodeKindBranch {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: root node must be a branch, got %s", types.FormatSources(root.Sources), root.Kind))
	}
	return root, nil
}

func (b NestedBuilder) insert(ctx context.Context, top *NestedNode, record types.FlatRecord) error {
	segments := strings.Split(record.Name, Separator)
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s: invalid name %q", record.Source, record.Name))
		}
	}

	cur := top
	for i, segment := range segments[:len(segments)-1] {
		next := cur.child(segment)
		if next == nil {
			if cur.Kind == types.NodeKindStruct {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("%s: cannot create implicit branch %s under struct", record.Source, strings.Join(segments[:i+1], Separator)))
			}
			log.Ctx(ctx).Debug().Str("branch", strings.Join(segments[:i+1], Separator)).Msg("implicit branch created")
			next = &NestedNode{
				Name:       segment,
				Kind:       types.NodeKindBranch,
				Implicit:   true,
				Attributes: map[string]any{},
			}
			cur.Children = append(cur.Children, next)
		}
		if !next.Kind.IsContainer() {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s: %s is a %s and cannot have children", record.Source, strings.Join(segments[:i+1], Separator), next.Kind))
		}
		cur = next
	}

	name := segments[len(segments)-1]
	existing := cur.child(name)
	if existing == nil {
		cur.Children = append(cur.Children, &NestedNode{
			Name:         name,
			Kind:         record.Kind,
			KindDeclared: record.TypeDeclared,
			Attributes:   copyAttributes(record.Attributes),
			Sources:      []types.SourceRef{record.Source},
		})
		return nil
	}

	for key, value := range record.Attributes {
		existing.Attributes[key] = copyValue(value)
	}
	if record.TypeDeclared && !existing.KindDeclared {
		if len(existing.Children) > 0 && !record.Kind.IsContainer() {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s: %s has children and cannot be a %s", record.Source, record.Name, record.Kind))
		}
		existing.Kind = record.Kind
		existing.KindDeclared = true
	} else if record.TypeDeclared && existing.Kind != record.Kind {
		log.Ctx(ctx).Debug().
			Str("node", record.Name).
			Str("kept", string(existing.Kind)).
			Str("ignored", string(record.Kind)).
			Msg("type of a redeclared node is not overwritten")
	}
	existing.Implicit = false
	existing.Sources = append(existing.Sources, record.Source)
	return nil
}
