package core

import (
	"context"
	"fmt"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

// Validator checks a finished tree. Unlike rendering it sees the tree after
// overlays, instance expansion and deletion.
type Validator struct {
	registry Registry
	opts     Options
}

func NewValidator(registry Registry, opts Options) Validator {
	opts.Partial = false
	return Validator{registry: registry, opts: opts}
}

func (v Validator) Validate(ctx context.Context, root *Node) error {
	assert.NotEmpty(ctx, root.Name, "root name must be set")
	var problems []string
	if root.Parent() != nil {
		problems = append(problems, describe(root, "root must not have a parent"))
	}
	if !root.IsBranch() {
		problems = append(problems, describe(root, fmt.Sprintf("root must be a branch, got %s", root.Kind)))
	}
	warnings := 0
	for _, node := range root.Nodes() {
		if !v.opts.kindAllowed(node.Kind) {
			problems = append(problems, describe(node, fmt.Sprintf("type %s is not allowed in a %s tree", node.Kind, v.opts.treeKind())))
		}
		if strings.TrimSpace(node.Description) == "" {
			if len(node.Sources) > 0 || v.opts.Strict {
				problems = append(problems, describe(node, "description is required"))
			} else {
				warnings++
				log.Ctx(ctx).Warn().Str("node", node.FQN()).Msg("implicit branch without description")
			}
		}
		for _, problem := range nodeViolations(node, v.registry, false) {
			problems = append(problems, describe(node, problem))
		}
		if node.Datatype.IsPending() {
			problems = append(problems, describe(node, fmt.Sprintf("unresolved struct reference %q", node.Datatype.Token)))
		}
		for _, violation := range namingViolations(node) {
			if v.opts.abortOnNameStyle() {
				problems = append(problems, describe(node, violation))
				continue
			}
			warnings++
			log.Ctx(ctx).Warn().Str("node", node.FQN()).Str("violation", violation).Msg("naming convention")
		}
	}
	if len(problems) > 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(strings.Join(problems, "; "))
	}
	log.Ctx(ctx).Debug().Str("root", root.Name).Int("warnings", warnings).Msg("tree validated")
	return nil
}
