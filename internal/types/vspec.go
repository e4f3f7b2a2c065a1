package types

import (
	"fmt"
	"strings"
)

// SourceRef points at the place a vspec entry was declared.
type SourceRef struct {
	File string
	Line int
}

func (s SourceRef) String() string {
	if s.Line <= 0 {
		return s.File
	}
	return fmt.Sprintf("%s:%d", s.File, s.Line)
}

// FormatSources renders a provenance list the way diagnostics print it,
// for example "base.vspec:12, overlay.vspec:3".
func FormatSources(sources []SourceRef) string {
	parts := make([]string, 0, len(sources))
	for _, source := range sources {
		parts = append(parts, source.String())
	}
	if len(parts) == 0 {
		return "<generated>"
	}
	return strings.Join(parts, ", ")
}

// FlatRecord is one entry of the flat model: a dot-qualified name and the
// attributes declared for it.
//
// Attributes hold the decoded YAML values with the `type` key removed;
// Kind carries the normalized type instead. TypeDeclared is false when the
// entry had no `type` and Kind fell back to branch.
type FlatRecord struct {
	Name         string
	Kind         NodeKind
	TypeDeclared bool
	Attributes   map[string]any
	Source       SourceRef
}
