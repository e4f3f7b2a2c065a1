package core

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"vss-tools/internal/types"
)

// maxInstanceIterations bounds the expansion loop. Every pass clears the
// instances of the nodes it handles and hands strictly fewer entries to the
// branches it creates, so real trees finish in a handful of passes.
const maxInstanceIterations = 256

var rangePattern = regexp.MustCompile(`^(.*)\[(\d+),(\d+)\](.*)$`)

// InstanceExpander rewrites branches that declare `instances` into
// concrete instance branches.
type InstanceExpander struct {
	merger Merger
}

func NewInstanceExpander() InstanceExpander {
	return InstanceExpander{merger: NewMerger()}
}

// Expand runs until no node with instances is left. Each pass rescans the
// whole tree.
func (e InstanceExpander) Expand(ctx context.Context, root *Node) error {
	iterations := 0
	expanded := 0
	for {
		pending := instanceNodes(root)
		if len(pending) == 0 {
			break
		}
		iterations++
		if iterations > maxInstanceIterations {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("instance expansion did not finish after %d iterations", maxInstanceIterations))
		}
		for _, node := range pending {
			// Template children copied and detached by an earlier node of
			// this pass are gone from the tree.
			if node.Root() != root {
				continue
			}
			if err := e.expandNode(ctx, node); err != nil {
				return err
			}
			expanded++
		}
	}
	if iterations > 0 {
		log.Ctx(ctx).Debug().Int("iterations", iterations).Int("nodes", expanded).Msg("instances expanded")
	}
	return nil
}

func instanceNodes(root *Node) []*Node {
	var out []*Node
	for _, node := range root.Nodes() {
		if len(node.Instances) > 0 {
			out = append(out, node)
		}
	}
	return out
}

// instanceLevel is the part of an instances declaration handled by one
// pass: the names created directly under the template node and the
// entries left for the advancing branches.
type instanceLevel struct {
	siblings  []string
	advancing []string
	remaining []any
	prefixes  []string
}

func (l instanceLevel) names() []string {
	return append(append([]string(nil), l.siblings...), l.advancing...)
}

func splitInstances(entries []any) (instanceLevel, error) {
	level := instanceLevel{}
	for i, entry := range entries {
		names, isList, prefixes, err := expandEntry(entry)
		if err != nil {
			return instanceLevel{}, err
		}
		level.prefixes = append(level.prefixes, prefixes...)
		if isList || len(names) > 1 {
			level.advancing = names
			level.remaining = append([]any(nil), entries[i+1:]...)
			return level, nil
		}
		level.siblings = append(level.siblings, names...)
	}
	return level, nil
}

func expandEntry(entry any) ([]string, bool, []string, error) {
	switch v := entry.(type) {
	case string:
		names, prefix, err := ExpandRange(v)
		if err != nil {
			return nil, false, nil, err
		}
		return names, false, prefixList(prefix), nil
	case []any:
		var names, prefixes []string
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false, nil, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("invalid instance entry %v", item))
			}
			expanded, prefix, err := ExpandRange(s)
			if err != nil {
				return nil, false, nil, err
			}
			names = append(names, expanded...)
			prefixes = append(prefixes, prefixList(prefix)...)
		}
		return names, true, prefixes, nil
	default:
		return nil, false, nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid instance entry %v", entry))
	}
}

func prefixList(prefix string) []string {
	if prefix == "" {
		return nil
	}
	return []string{prefix}
}

// ExpandRange unrolls the range syntax `Name[start,end]suffix` into
// Name{start}suffix .. Name{end}suffix. Strings without a range are
// returned as is. The second result is the text before the range.
func ExpandRange(s string) ([]string, string, error) {
	match := rangePattern.FindStringSubmatch(s)
	if match == nil {
		return []string{s}, "", nil
	}
	start, err := strconv.Atoi(match[2])
	if err != nil {
		return nil, "", errbuilder.New().WithCode(errbuilder.CodeInvalidArgument).WithMsg(fmt.Sprintf("invalid range %q", s)).WithCause(err)
	}
	end, err := strconv.Atoi(match[3])
	if err != nil {
		return nil, "", errbuilder.New().WithCode(errbuilder.CodeInvalidArgument).WithMsg(fmt.Sprintf("invalid range %q", s)).WithCause(err)
	}
	if start > end {
		return nil, "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid range %q: start %d is greater than end %d", s, start, end))
	}
	names := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		names = append(names, match[1]+strconv.Itoa(i)+match[4])
	}
	return names, match[1], nil
}

func (e InstanceExpander) expandNode(ctx context.Context, node *Node) error {
	if !node.IsBranch() {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(describe(node, fmt.Sprintf("'instances' is only allowed on branches, not on %s", node.Kind)))
	}
	level, err := splitInstances(node.Instances)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(describe(node, errorMessage(err))).
			WithCause(err)
	}
	names := level.names()
	generated := map[string]struct{}{}
	for _, name := range names {
		generated[name] = struct{}{}
	}

	var template []*Node
	overrides := map[string]*Node{}
	for _, child := range node.Children() {
		switch {
		case !child.Instantiate:
			log.Ctx(ctx).Debug().Str("node", child.FQN()).Msg("kept on instance root (instantiate=false)")
		case isGeneratedName(child.Name, generated):
			child.Detach()
			overrides[child.Name] = child
		case matchesRangePrefix(child.Name, level.prefixes):
			log.Ctx(ctx).Debug().Str("node", child.FQN()).Msg("existing instance branch kept")
		default:
			child.Detach()
			template = append(template, child)
		}
	}

	templateAttrs := node.Attributes()
	delete(templateAttrs, AttrInstances)
	node.RemoveAttribute(AttrInstances)

	advancing := map[string]struct{}{}
	for _, name := range level.advancing {
		advancing[name] = struct{}{}
	}
	for _, name := range names {
		instance, err := NewNode(name, types.NodeKindBranch, templateAttrs)
		if err != nil {
			return err
		}
		instance.IsInstance = true
		instance.AddSources(node.Sources...)
		if _, ok := advancing[name]; ok && len(level.remaining) > 0 {
			if err := instance.SetAttribute(AttrInstances, level.remaining); err != nil {
				return err
			}
		}
		for _, child := range template {
			if err := instance.Attach(child.Clone()); err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(describe(node, errorMessage(err)))
			}
		}
		if err := node.Attach(instance); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(describe(node, fmt.Sprintf("instance %s: %s", name, errorMessage(err))))
		}
		if override, ok := overrides[name]; ok {
			if err := e.merger.mergeNode(ctx, instance, override, &mergeStats{}); err != nil {
				return err
			}
		}
	}
	log.Ctx(ctx).Debug().
		Str("node", node.FQN()).
		Strs("instances", names).
		Int("remaining", len(level.remaining)).
		Msg("instance node expanded")
	return nil
}

func isGeneratedName(name string, generated map[string]struct{}) bool {
	_, ok := generated[name]
	return ok
}

// matchesRangePrefix reports names such as Row5 for a Row[1,4] range:
// explicitly declared instance branches outside the generated range.
func matchesRangePrefix(name string, prefixes []string) bool {
	for _, prefix := range prefixes {
		rest := strings.TrimPrefix(name, prefix)
		if rest == name || rest == "" {
			continue
		}
		if _, err := strconv.Atoi(rest); err == nil {
			return true
		}
	}
	return false
}
