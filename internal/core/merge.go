package core

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"vss-tools/internal/types"
)

// Merger folds an overlay tree into a base tree.
type Merger struct{}

func NewMerger() Merger {
	return Merger{}
}

// Merge applies overlay onto base in place. Attributes present on an
// overlay node overwrite the matching base node; overlay nodes without a
// match are moved into base. The overlay is left without children and the
// UUIDs of base are recomputed for the merged structure.
//
// Merging is last-applied-wins; overlays touching disjoint nodes commute.
func (m Merger) Merge(ctx context.Context, base *Node, overlay *Node) error {
	if base.Name != overlay.Name {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("cannot merge tree %s into tree %s: roots differ", overlay.Name, base.Name))
	}
	stats := mergeStats{}
	if err := m.mergeNode(ctx, base, overlay, &stats); err != nil {
		return err
	}
	log.Ctx(ctx).Debug().
		Str("root", base.Name).
		Int("merged", stats.merged).
		Int("grafted", stats.grafted).
		Msg("trees merged")
	return AssignUUIDs(ctx, base)
}

type mergeStats struct {
	merged  int
	grafted int
}

func (m Merger) mergeNode(ctx context.Context, base *Node, overlay *Node, stats *mergeStats) error {
	if err := checkKindChange(base, overlay); err != nil {
		return err
	}
	if overlay.KindDeclared && base.Kind != overlay.Kind {
		log.Ctx(ctx).Debug().
			Str("node", base.FQN()).
			Str("from", string(base.Kind)).
			Str("to", string(overlay.Kind)).
			Msg("signal type overridden")
		base.Kind = overlay.Kind
	}
	if overlay.KindDeclared {
		base.KindDeclared = true
	}
	if err := base.UpdateAttributes(overlay.attrs); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("merging %s: %s", base.FQN(), errorMessage(err))).
			WithCause(err)
	}
	base.AddSources(overlay.Sources...)
	base.IsInstance = base.IsInstance || overlay.IsInstance
	stats.merged++

	for _, child := range overlay.Children() {
		match := base.Child(child.Name)
		if match == nil {
			child.Detach()
			if err := base.Attach(child); err != nil {
				return err
			}
			stats.grafted += child.Size()
			continue
		}
		if err := m.mergeNode(ctx, match, child, stats); err != nil {
			return err
		}
		child.Detach()
	}
	return nil
}

// checkKindChange rejects merges that would turn a container into a leaf
// or the other way round. Overlay nodes whose type was never declared only
// carry attributes and never change the kind.
func checkKindChange(base *Node, overlay *Node) error {
	if !overlay.KindDeclared || base.Kind == overlay.Kind {
		return nil
	}
	if base.Kind.IsSignal() && overlay.Kind.IsSignal() {
		return nil
	}
	if !base.KindDeclared && base.Kind == types.NodeKindBranch && overlay.Kind.IsContainer() && base.IsLeaf() {
		return nil
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("cannot merge %s: type %s (%s) conflicts with type %s (%s)",
			base.FQN(),
			base.Kind, types.FormatSources(base.Sources),
			overlay.Kind, types.FormatSources(overlay.Sources)))
}
