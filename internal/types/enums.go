package types

import "strings"

type NodeKind string

const (
	NodeKindBranch    NodeKind = "branch"
	NodeKindAttribute NodeKind = "attribute"
	NodeKindSensor    NodeKind = "sensor"
	NodeKindActuator  NodeKind = "actuator"
	NodeKindStruct    NodeKind = "struct"
	NodeKindProperty  NodeKind = "property"
)

// IsSignal reports whether the kind is one of sensor, actuator or attribute.
func (k NodeKind) IsSignal() bool {
	return k == NodeKindSensor || k == NodeKindActuator || k == NodeKindAttribute
}

// IsContainer reports whether nodes of this kind may own children.
func (k NodeKind) IsContainer() bool {
	return k == NodeKindBranch || k == NodeKindStruct
}

func (k NodeKind) String() string {
	return string(k)
}

type TreeKind string

const (
	TreeKindSignal   TreeKind = "signal"
	TreeKindDataType TreeKind = "datatype"
)

var treeKindAllowed = map[TreeKind][]NodeKind{
	TreeKindSignal:   {NodeKindBranch, NodeKindSensor, NodeKindActuator, NodeKindAttribute},
	TreeKindDataType: {NodeKindBranch, NodeKindStruct, NodeKindProperty},
}

// AllowedKinds returns the node kinds a tree of this kind may contain.
func (k TreeKind) AllowedKinds() []NodeKind {
	return treeKindAllowed[k]
}

// ParseNodeKind matches token case-insensitively against the kinds allowed
// in the tree kind and returns the canonical kind.
func (k TreeKind) ParseNodeKind(token string) (NodeKind, bool) {
	normalized := strings.ToLower(strings.TrimSpace(token))
	for _, kind := range treeKindAllowed[k] {
		if string(kind) == normalized {
			return kind, true
		}
	}
	return "", false
}

type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatYAML ExportFormat = "yaml"
	ExportFormatCBOR ExportFormat = "cbor"
)
