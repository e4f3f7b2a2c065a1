package types

// FlatEntry is the persisted per-node shape of a flat dump. Exporters can
// reconstruct node identity from FQN plus these fields alone.
type FlatEntry struct {
	FQN         string
	Type        NodeKind
	Datatype    string
	Unit        string
	Min         any
	Max         any
	Allowed     []any
	Default     any
	Description string
	Comment     string
	Deprecation string
	UUID        string
	Extended    map[string]any
}

// FlatDump pairs a flat dump with the file it is written to.
type FlatDump struct {
	Path    string
	Entries []FlatEntry
}
