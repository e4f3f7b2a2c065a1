package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"vss-tools/internal/types"
)

const Separator = "."

// Attribute keys understood by the node model. Anything else is an
// extended attribute.
const (
	AttrDescription = "description"
	AttrComment     = "comment"
	AttrDatatype    = "datatype"
	AttrUnit        = "unit"
	AttrMin         = "min"
	AttrMax         = "max"
	AttrAllowed     = "allowed"
	AttrDefault     = "default"
	AttrDeprecation = "deprecation"
	AttrInstances   = "instances"
	AttrInstantiate = "instantiate"
	AttrArraySize   = "arraysize"
	AttrDelete      = "delete"
	AttrConstUID    = "constUID"
	AttrFka         = "fka"
	AttrAggregate   = "aggregate"
	AttrPattern     = "pattern"
	AttrUUID        = "uuid"
)

// Node is one element of a vspec tree.
//
// The declared attributes are the source of truth; the typed fields are
// decoded from them on construction and after every attribute update.
// Children are owned by exactly one parent and are only moved through
// Attach and Detach.
type Node struct {
	Name         string
	Kind         types.NodeKind
	KindDeclared bool

	Description string
	Comment     string
	Deprecation string
	Datatype    Datatype
	Unit        string
	Min         any
	Max         any
	Allowed     []any
	Default     any
	Pattern     string
	ArraySize   int
	ConstUID    string
	Fka         []string
	Aggregate   bool
	Instances   []any
	Instantiate bool
	Delete      bool
	IsInstance  bool
	Extended    map[string]any
	Sources     []types.SourceRef
	UUID        string

	attrs    map[string]any
	parent   *Node
	children []*Node
}

func NewNode(name string, kind types.NodeKind, attrs map[string]any) (*Node, error) {
	if strings.TrimSpace(name) == "" || strings.Contains(name, Separator) {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid node name %q", name))
	}
	node := &Node{
		Name:         name,
		Kind:         kind,
		KindDeclared: true,
		attrs:        copyAttributes(attrs),
	}
	if err := node.decode(); err != nil {
		return nil, err
	}
	return node, nil
}

func (n *Node) IsBranch() bool   { return n.Kind == types.NodeKindBranch }
func (n *Node) IsStruct() bool   { return n.Kind == types.NodeKindStruct }
func (n *Node) IsProperty() bool { return n.Kind == types.NodeKindProperty }
func (n *Node) IsSignal() bool   { return n.Kind.IsSignal() }

func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a snapshot of the child list in declaration order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *Node) Child(name string) *Node {
	for _, child := range n.children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

func (n *Node) IsLeaf() bool {
	return len(n.children) == 0
}

func (n *Node) Root() *Node {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// QualifiedName joins the names from the root down to n with sep.
func (n *Node) QualifiedName(sep string) string {
	var names []string
	for cur := n; cur != nil; cur = cur.parent {
		names = append(names, cur.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, sep)
}

func (n *Node) FQN() string {
	return n.QualifiedName(Separator)
}

// Attach makes child the last child of n. The child must be detached, its
// name must be free among n's children and it must not be an ancestor of n.
func (n *Node) Attach(child *Node) error {
	if child.parent != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("cannot attach %s to %s: node is attached to %s", child.Name, n.FQN(), child.parent.FQN()))
	}
	for cur := n; cur != nil; cur = cur.parent {
		if cur == child {
			return errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("cannot attach %s to %s: parent cycle", child.Name, n.FQN()))
		}
	}
	if existing := n.Child(child.Name); existing != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeAlreadyExists).
			WithMsg(fmt.Sprintf("duplicate node %s%s%s", n.FQN(), Separator, child.Name))
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// Detach removes n from its parent. It is a no-op on a root.
func (n *Node) Detach() {
	if n.parent == nil {
		return
	}
	siblings := n.parent.children
	for i, sibling := range siblings {
		if sibling == n {
			n.parent.children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Walk visits n and its descendants in preorder. Children are snapshotted
// before they are visited, so fn may detach the node it is given.
func (n *Node) Walk(fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, child := range n.Children() {
		if err := child.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Nodes returns n and its descendants in preorder.
func (n *Node) Nodes() []*Node {
	var out []*Node
	_ = n.Walk(func(node *Node) error {
		out = append(out, node)
		return nil
	})
	return out
}

func (n *Node) Size() int {
	return len(n.Nodes())
}

// Find looks up a node by FQN below and including n's root.
func (n *Node) Find(fqn string) *Node {
	segments := strings.Split(fqn, Separator)
	cur := n.Root()
	if segments[0] != cur.Name {
		return nil
	}
	for _, segment := range segments[1:] {
		cur = cur.Child(segment)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Clone deep copies the subtree rooted at n. The copy is detached and has
// no UUID.
func (n *Node) Clone() *Node {
	clone := &Node{
		Name:         n.Name,
		Kind:         n.Kind,
		KindDeclared: n.KindDeclared,
		IsInstance:   n.IsInstance,
		Sources:      append([]types.SourceRef(nil), n.Sources...),
		attrs:        copyAttributes(n.attrs),
	}
	// attrs were accepted by decode when n was built, so this cannot fail.
	_ = clone.decode()
	for _, child := range n.children {
		c := child.Clone()
		c.parent = clone
		clone.children = append(clone.children, c)
	}
	return clone
}

// Attributes returns a copy of the declared attributes.
func (n *Node) Attributes() map[string]any {
	return copyAttributes(n.attrs)
}

func (n *Node) Attribute(key string) (any, bool) {
	value, ok := n.attrs[key]
	return value, ok
}

// UpdateAttributes overwrites the given keys and re-decodes the node.
// Keys not present in attrs keep their value.
func (n *Node) UpdateAttributes(attrs map[string]any) error {
	previous := n.attrs
	next := copyAttributes(n.attrs)
	for key, value := range attrs {
		next[key] = copyValue(value)
	}
	n.attrs = next
	if err := n.decode(); err != nil {
		n.attrs = previous
		_ = n.decode()
		return err
	}
	return nil
}

func (n *Node) SetAttribute(key string, value any) error {
	return n.UpdateAttributes(map[string]any{key: value})
}

func (n *Node) RemoveAttribute(key string) {
	if _, ok := n.attrs[key]; !ok {
		return
	}
	delete(n.attrs, key)
	_ = n.decode()
}

// AddSources appends provenance entries that are not recorded yet.
func (n *Node) AddSources(sources ...types.SourceRef) {
	for _, source := range sources {
		known := false
		for _, existing := range n.Sources {
			if existing == source {
				known = true
				break
			}
		}
		if !known {
			n.Sources = append(n.Sources, source)
		}
	}
}

// ExtendedKeys returns the names of extended attributes in sorted order.
func (n *Node) ExtendedKeys() []string {
	keys := make([]string, 0, len(n.Extended))
	for key := range n.Extended {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.FQN(), n.Kind)
}

func (n *Node) decode() error {
	resolved := n.Datatype
	n.Description = ""
	n.Comment = ""
	n.Deprecation = ""
	n.Datatype = Datatype{}
	n.Unit = ""
	n.Min = nil
	n.Max = nil
	n.Allowed = nil
	n.Default = nil
	n.Pattern = ""
	n.ArraySize = 0
	n.ConstUID = ""
	n.Fka = nil
	n.Aggregate = false
	n.Instances = nil
	n.Instantiate = true
	n.Delete = false
	n.Extended = nil

	var problems []string
	for key, value := range n.attrs {
		var err error
		switch key {
		case AttrDescription:
			n.Description, err = stringAttr(key, value)
		case AttrComment:
			n.Comment, err = stringAttr(key, value)
		case AttrDeprecation:
			n.Deprecation, err = stringAttr(key, value)
		case AttrDatatype:
			var token string
			token, err = stringAttr(key, value)
			n.Datatype = ParseDatatype(token)
			if n.Datatype.Token == resolved.Token {
				n.Datatype.Resolved = resolved.Resolved
			}
		case AttrUnit:
			n.Unit, err = stringAttr(key, value)
		case AttrMin:
			n.Min = value
		case AttrMax:
			n.Max = value
		case AttrAllowed:
			list, ok := value.([]any)
			if !ok {
				err = fmt.Errorf("'allowed' must be a list")
			}
			n.Allowed = list
		case AttrDefault:
			n.Default = value
		case AttrPattern:
			n.Pattern, err = stringAttr(key, value)
		case AttrArraySize:
			size, ok := integerValue(value)
			if !ok || !size.IsInt64() || size.Sign() < 0 {
				err = fmt.Errorf("'arraysize' must be a non-negative integer")
			} else {
				n.ArraySize = int(size.Int64())
			}
		case AttrConstUID:
			n.ConstUID, err = stringAttr(key, value)
		case AttrFka:
			n.Fka, err = stringListAttr(key, value)
		case AttrAggregate:
			n.Aggregate, err = boolAttr(key, value)
		case AttrInstances:
			n.Instances, err = instancesAttr(value)
		case AttrInstantiate:
			n.Instantiate, err = boolAttr(key, value)
		case AttrDelete:
			n.Delete, err = boolAttr(key, value)
		case AttrUUID:
			// Author supplied UUIDs are ignored; UUIDs are derived from the FQN.
		default:
			if n.Extended == nil {
				n.Extended = map[string]any{}
			}
			n.Extended[key] = value
		}
		if err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: %s", n.Name, strings.Join(problems, "; ")))
	}
	return nil
}

func stringAttr(key string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("'%s' must be a string", key)
	}
}

func boolAttr(key string, value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("'%s' must be a boolean", key)
	}
	return b, nil
}

func stringListAttr(key string, value any) ([]string, error) {
	if s, ok := value.(string); ok {
		return []string{s}, nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("'%s' must be a list of strings", key)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("'%s' must be a list of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

func instancesAttr(value any) ([]any, error) {
	switch v := value.(type) {
	case string:
		return []any{v}, nil
	case []any:
		for _, entry := range v {
			switch e := entry.(type) {
			case string:
			case []any:
				for _, item := range e {
					if _, ok := item.(string); !ok {
						return nil, fmt.Errorf("'instances' entries must be strings or lists of strings")
					}
				}
			default:
				return nil, fmt.Errorf("'instances' entries must be strings or lists of strings")
			}
		}
		return v, nil
	default:
		return nil, fmt.Errorf("'%v' is not a valid 'instances' content", value)
	}
}

func copyAttributes(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for key, value := range attrs {
		out[key] = copyValue(value)
	}
	return out
}

func copyValue(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = copyValue(item)
		}
		return out
	case map[string]any:
		return copyAttributes(v)
	default:
		return value
	}
}
