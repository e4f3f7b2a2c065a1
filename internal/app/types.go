package app

import (
	"vss-tools/internal/core"
	"vss-tools/internal/types"
)

// LoadRequest describes one tree load: the root vspec, the files merged
// into it and how strictly the result is checked.
type LoadRequest struct {
	VspecPath   string
	IncludeDirs []string
	TreeKind    types.TreeKind

	// Overlays are merged onto the main tree in order; the last one wins.
	Overlays []string

	// TypesFiles are data-type trees holding the structs signals may use.
	TypesFiles []string

	// UnitFiles and QuantityFiles default to units.yaml and quantities.yaml
	// next to the vspec when empty.
	UnitFiles     []string
	QuantityFiles []string

	ExpandInstances         bool
	Strict                  bool
	AbortOnUnknownAttribute bool
	AbortOnNameStyle        bool
	ExtendedAttributes      []string
	DropDeprecated          bool
}

type LoadResult struct {
	Root     *core.Node
	Types    *core.Node
	Registry core.Registry
	Deleted  int
}

type ValidateRequest struct {
	Load LoadRequest
}

type ValidateResult struct {
	Root       string
	NodeCount  int
	Kinds      map[types.NodeKind]int
	Units      []string
	Quantities []string
}

type ExportRequest struct {
	Load     LoadRequest
	Output   string
	Format   types.ExportFormat
	TypesOut string
}

type ExportResult struct {
	Output    string
	NodeCount int
	TypesOut  string
}

type InspectRequest struct {
	Load LoadRequest
	FQN  string

	// Depth limits how many levels of descendants are listed; zero means
	// direct children only.
	Depth int
}

type InspectResult struct {
	Entry    types.FlatEntry
	Sources  []types.SourceRef
	Children []string

	// Quantity is set when the node's unit is registered with one.
	Quantity *types.Quantity
}
