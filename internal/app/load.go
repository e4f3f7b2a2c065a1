package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"vss-tools/internal/core"
	"vss-tools/internal/shared"
	"vss-tools/internal/types"
)

const (
	defaultUnitsFile      = "units.yaml"
	defaultQuantitiesFile = "quantities.yaml"
)

// Load builds a finished tree: registry, types trees, main tree, overlays,
// instance expansion, deletion, struct references, validation and UUIDs,
// in that order. Nothing is returned unless every step succeeds.
func (s Service) Load(ctx context.Context, req LoadRequest) (LoadResult, error) {
	vspecPath := strings.TrimSpace(req.VspecPath)
	if vspecPath == "" {
		return LoadResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("vspec path is required")
	}
	treeKind := req.TreeKind
	if treeKind == "" {
		treeKind = types.TreeKindSignal
	}
	if treeKind != types.TreeKindSignal && treeKind != types.TreeKindDataType {
		return LoadResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("tree kind must be signal or datatype")
	}

	registry, err := s.loadRegistry(vspecPath, req.UnitFiles, req.QuantityFiles)
	if err != nil {
		return LoadResult{}, err
	}
	opts := core.Options{
		TreeKind:                treeKind,
		Strict:                  req.Strict,
		AbortOnUnknownAttribute: req.AbortOnUnknownAttribute,
		AbortOnNameStyle:        req.AbortOnNameStyle,
		ExtendedAttributes:      shared.CleanList(req.ExtendedAttributes),
	}
	includeDirs := shared.CleanList(req.IncludeDirs)

	var typesRoot *core.Node
	if files := shared.CleanList(req.TypesFiles); len(files) > 0 {
		typesOpts := opts
		typesOpts.TreeKind = types.TreeKindDataType
		typesRoot, err = s.loadTypes(ctx, files, includeDirs, registry, typesOpts)
		if err != nil {
			return LoadResult{}, err
		}
	}

	root, err := s.render(ctx, vspecPath, includeDirs, registry, opts)
	if err != nil {
		return LoadResult{}, err
	}

	merger := core.NewMerger()
	overlayOpts := opts
	overlayOpts.Partial = true
	for _, overlayPath := range shared.CleanList(req.Overlays) {
		overlay, err := s.render(ctx, overlayPath, includeDirs, registry, overlayOpts)
		if err != nil {
			return LoadResult{}, err
		}
		if err := merger.Merge(ctx, root, overlay); err != nil {
			return LoadResult{}, err
		}
		log.Ctx(ctx).Debug().Str("overlay", overlayPath).Msg("overlay applied")
	}

	if req.ExpandInstances {
		if treeKind == types.TreeKindDataType && hasInstances(root) {
			return LoadResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("instances are not supported in a datatype tree")
		}
		if err := core.NewInstanceExpander().Expand(ctx, root); err != nil {
			return LoadResult{}, err
		}
	}

	deleted := core.DeleteMarked(ctx, root)
	if req.DropDeprecated {
		deleted += core.DropDeprecated(ctx, root)
	}
	if err := ctx.Err(); err != nil {
		return LoadResult{}, err
	}

	if err := core.NewStructResolver(typesRoot).Resolve(ctx, root); err != nil {
		return LoadResult{}, err
	}
	if err := core.NewValidator(registry, opts).Validate(ctx, root); err != nil {
		return LoadResult{}, err
	}
	if err := core.AssignUUIDs(ctx, root); err != nil {
		return LoadResult{}, err
	}
	log.Ctx(ctx).Debug().Str("vspec", vspecPath).Int("nodes", root.Size()).Int("deleted", deleted).Msg("tree loaded")
	return LoadResult{
		Root:     root,
		Types:    typesRoot,
		Registry: registry,
		Deleted:  deleted,
	}, nil
}

func (s Service) render(ctx context.Context, path string, includeDirs []string, registry core.Registry, opts core.Options) (*core.Node, error) {
	records, err := s.Vspec.LoadFlat(ctx, path, includeDirs, opts.TreeKind)
	if err != nil {
		return nil, err
	}
	nested, err := core.NewNestedBuilder().Build(ctx, records)
	if err != nil {
		return nil, err
	}
	return core.NewRenderer(registry, opts).Render(ctx, nested)
}

// loadTypes renders every types file, merges them into the first and
// checks the result as a complete datatype tree.
func (s Service) loadTypes(ctx context.Context, files []string, includeDirs []string, registry core.Registry, opts core.Options) (*core.Node, error) {
	var root *core.Node
	merger := core.NewMerger()
	for _, path := range files {
		tree, err := s.render(ctx, path, includeDirs, registry, opts)
		if err != nil {
			return nil, err
		}
		if root == nil {
			root = tree
			continue
		}
		if err := merger.Merge(ctx, root, tree); err != nil {
			return nil, err
		}
	}
	core.DeleteMarked(ctx, root)
	if err := core.NewStructResolver(nil).Resolve(ctx, root); err != nil {
		return nil, err
	}
	if err := core.NewValidator(registry, opts).Validate(ctx, root); err != nil {
		return nil, err
	}
	if err := core.AssignUUIDs(ctx, root); err != nil {
		return nil, err
	}
	return root, nil
}

func (s Service) loadRegistry(vspecPath string, unitFiles []string, quantityFiles []string) (core.Registry, error) {
	unitFiles = defaultFiles(vspecPath, shared.CleanList(unitFiles), defaultUnitsFile)
	quantityFiles = defaultFiles(vspecPath, shared.CleanList(quantityFiles), defaultQuantitiesFile)
	units, err := s.Units.LoadUnits(unitFiles)
	if err != nil {
		return core.Registry{}, err
	}
	quantities, err := s.Units.LoadQuantities(quantityFiles)
	if err != nil {
		return core.Registry{}, err
	}
	return core.NewRegistry(units, quantities)
}

// defaultFiles falls back to name next to the vspec when no files were
// given. A missing default only warns.
func defaultFiles(vspecPath string, given []string, name string) []string {
	if len(given) > 0 {
		return given
	}
	candidate := filepath.Join(filepath.Dir(vspecPath), name)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		log.Debug().Str("file", candidate).Msg("using default file")
		return []string{candidate}
	}
	log.Warn().Str("file", candidate).Msg("default file not found")
	return nil
}

func hasInstances(root *core.Node) bool {
	for _, node := range root.Nodes() {
		if len(node.Instances) > 0 {
			return true
		}
	}
	return false
}
