package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

// Renderer turns a nested model into a live node tree, checking every node
// as it is created.
type Renderer struct {
	registry Registry
	opts     Options
}

func NewRenderer(registry Registry, opts Options) Renderer {
	return Renderer{registry: registry, opts: opts}
}

func (r Renderer) Render(ctx context.Context, nested *NestedNode) (*Node, error) {
	var problems []string
	root := r.build(ctx, nested, nil, &problems)
	if len(problems) > 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(strings.Join(problems, "; "))
	}
	log.Ctx(ctx).Debug().
		Str("root", root.Name).
		Int("nodes", root.Size()).
		Bool("partial", r.opts.Partial).
		Msg("tree rendered")
	return root, nil
}

func (r Renderer) build(ctx context.Context, nested *NestedNode, parent *Node, problems *[]string) *Node {
	node, err := NewNode(nested.Name, nested.Kind, nested.Attributes)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: %s", formatNested(parent, nested), errorMessage(err)))
		return nil
	}
	node.KindDeclared = nested.KindDeclared
	node.AddSources(nested.Sources...)
	if parent != nil {
		if err := parent.Attach(node); err != nil {
			*problems = append(*problems, errorMessage(err))
			return nil
		}
	}

	if !r.opts.kindAllowed(node.Kind) {
		*problems = append(*problems, describe(node, fmt.Sprintf("type %s is not allowed in a %s tree", node.Kind, r.opts.treeKind())))
	}
	if !r.opts.Partial && !nested.Implicit && strings.TrimSpace(node.Description) == "" {
		*problems = append(*problems, describe(node, "description is required"))
	}
	for _, problem := range nodeViolations(node, r.registry, r.opts.Partial) {
		*problems = append(*problems, describe(node, problem))
	}
	if unknown := unknownAttributes(node, r.opts); len(unknown) > 0 {
		if r.opts.abortOnUnknownAttribute() {
			*problems = append(*problems, describe(node, fmt.Sprintf("unknown attribute(s): %s", strings.Join(unknown, ", "))))
		} else {
			log.Ctx(ctx).Debug().Str("node", node.FQN()).Strs("attributes", unknown).Msg("extended attributes collected")
		}
	}

	for _, child := range nested.Children {
		r.build(ctx, child, node, problems)
	}
	return node
}

func formatNested(parent *Node, nested *NestedNode) string {
	name := nested.Name
	if parent != nil {
		name = parent.FQN() + Separator + nested.Name
	}
	if len(nested.Sources) == 0 {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, nested.Sources[0])
}
