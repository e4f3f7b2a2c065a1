package core

import "vss-tools/internal/types"

// Options control how strictly a tree is rendered and validated.
type Options struct {
	TreeKind types.TreeKind

	// Partial relaxes checks that only hold for a complete tree, such as a
	// missing description or datatype. Overlays are rendered partial.
	Partial bool

	// Strict turns every style warning and unknown attribute into an error.
	Strict bool

	AbortOnUnknownAttribute bool
	AbortOnNameStyle        bool

	// ExtendedAttributes lists non-core attribute names that are accepted
	// even when unknown attributes abort the load.
	ExtendedAttributes []string
}

func (o Options) treeKind() types.TreeKind {
	if o.TreeKind == "" {
		return types.TreeKindSignal
	}
	return o.TreeKind
}

func (o Options) abortOnUnknownAttribute() bool {
	return o.Strict || o.AbortOnUnknownAttribute
}

func (o Options) abortOnNameStyle() bool {
	return o.Strict || o.AbortOnNameStyle
}

func (o Options) whitelisted(key string) bool {
	for _, allowed := range o.ExtendedAttributes {
		if allowed == key {
			return true
		}
	}
	return false
}

func (o Options) kindAllowed(kind types.NodeKind) bool {
	for _, allowed := range o.treeKind().AllowedKinds() {
		if allowed == kind {
			return true
		}
	}
	return false
}
