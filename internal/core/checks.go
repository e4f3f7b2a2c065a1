package core

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"vss-tools/internal/types"
)

var (
	camelCasePattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
	constUIDPattern  = regexp.MustCompile(`^0x[0-9A-Fa-f]{8}$`)
)

// nodeViolations returns the semantic problems of a single node in the
// context of its parent. Partial skips the checks that only hold once every
// overlay has been applied.
func nodeViolations(n *Node, reg Registry, partial bool) []string {
	var out []string
	out = append(out, parentViolations(n)...)

	if len(n.Instances) > 0 && !n.IsBranch() {
		out = append(out, fmt.Sprintf("'instances' is only allowed on branches, not on %s", n.Kind))
	}
	if len(n.children) > 0 && !n.Kind.IsContainer() {
		out = append(out, fmt.Sprintf("%s cannot have children", n.Kind))
	}
	if n.ConstUID != "" && !constUIDPattern.MatchString(n.ConstUID) {
		out = append(out, fmt.Sprintf("'%s' is not a valid 'constUID'", n.ConstUID))
	}

	if n.Kind.IsContainer() {
		// An untyped overlay entry only carries attributes for the node it
		// lands on; the finished tree is checked again after merging.
		if partial && !n.KindDeclared {
			return out
		}
		if n.Datatype.IsSet() {
			out = append(out, fmt.Sprintf("'datatype' is not allowed on %s", n.Kind))
		}
		if n.Unit != "" {
			out = append(out, fmt.Sprintf("'unit' is not allowed on %s", n.Kind))
		}
		return out
	}

	if !n.Datatype.IsSet() {
		if !partial {
			out = append(out, fmt.Sprintf("%s must have a datatype", n.Kind))
		}
		return out
	}
	if n.Unit != "" {
		if problem := reg.CheckUnit(n.Unit, n.Datatype); problem != "" {
			out = append(out, problem)
		}
	}
	if n.Datatype.IsPrimitive() {
		out = append(out, valueViolations(n)...)
	}
	return out
}

func parentViolations(n *Node) []string {
	parent := n.parent
	switch n.Kind {
	case types.NodeKindProperty:
		if parent == nil || !parent.IsStruct() {
			return []string{"property must be defined under a struct"}
		}
	case types.NodeKindStruct:
		if parent != nil && !parent.Kind.IsContainer() {
			return []string{"struct must be defined under a branch or struct"}
		}
	default:
		if parent != nil && !parent.IsBranch() {
			return []string{fmt.Sprintf("%s must be defined under a branch, parent is %s", n.Kind, parent.Kind)}
		}
	}
	return nil
}

func valueViolations(n *Node) []string {
	var out []string
	dt := n.Datatype

	if n.ArraySize != 0 && !dt.Array {
		out = append(out, fmt.Sprintf("'arraysize' requires an array datatype, got %q", dt.Token))
	}
	if n.Min != nil || n.Max != nil {
		if !dt.IsNumeric() {
			out = append(out, fmt.Sprintf("cannot define min/max for datatype %q", dt.Token))
		} else {
			if n.Min != nil && !dt.AcceptsElement(n.Min) {
				out = append(out, fmt.Sprintf("min '%v' is not a %s", n.Min, dt.Base))
			}
			if n.Max != nil && !dt.AcceptsElement(n.Max) {
				out = append(out, fmt.Sprintf("max '%v' is not a %s", n.Max, dt.Base))
			}
		}
	}
	for _, value := range n.Allowed {
		if !dt.AcceptsElement(value) {
			out = append(out, fmt.Sprintf("allowed value '%v' is not a %s", value, dt.Base))
		}
	}
	if n.Default != nil {
		if !dt.Accepts(n.Default) {
			out = append(out, fmt.Sprintf("default '%v' does not match datatype %q", n.Default, dt.Token))
		} else {
			out = append(out, defaultViolations(n)...)
		}
	}
	if n.Pattern != "" {
		out = append(out, patternViolations(n)...)
	}
	return out
}

func defaultViolations(n *Node) []string {
	var out []string
	values := []any{n.Default}
	if list, ok := n.Default.([]any); ok {
		values = list
	}
	for _, value := range values {
		if len(n.Allowed) > 0 && !containsValue(n.Allowed, value) {
			out = append(out, fmt.Sprintf("default '%v' is not in allowed values", value))
		}
		f, ok := floatValue(value)
		if !ok {
			continue
		}
		if lo, ok := floatValue(n.Min); ok && f < lo {
			out = append(out, fmt.Sprintf("default smaller than min: %v<%v", value, n.Min))
		}
		if hi, ok := floatValue(n.Max); ok && f > hi {
			out = append(out, fmt.Sprintf("default greater than max: %v>%v", value, n.Max))
		}
	}
	return out
}

func patternViolations(n *Node) []string {
	if n.Datatype.Base != "string" {
		return []string{fmt.Sprintf("'pattern' is not allowed for datatype %q", n.Datatype.Token)}
	}
	re, err := regexp.Compile(n.Pattern)
	if err != nil {
		return []string{fmt.Sprintf("invalid pattern %q: %v", n.Pattern, err)}
	}
	var out []string
	check := func(kind string, value any) {
		values := []any{value}
		if list, ok := value.([]any); ok {
			values = list
		}
		for _, v := range values {
			s, _ := v.(string)
			if !re.MatchString(s) {
				out = append(out, fmt.Sprintf("%s value '%v' must match pattern %q", kind, v, n.Pattern))
			}
		}
	}
	if n.Default != nil {
		check("default", n.Default)
	}
	if len(n.Allowed) > 0 {
		check("allowed", n.Allowed)
	}
	return out
}

func containsValue(list []any, value any) bool {
	for _, item := range list {
		if valuesEqual(item, value) {
			return true
		}
	}
	return false
}

func valuesEqual(a any, b any) bool {
	fa, aok := floatValue(a)
	fb, bok := floatValue(b)
	if aok && bok {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// namingViolations reports style problems of a node name. They are
// warnings unless name style checks abort the load.
func namingViolations(n *Node) []string {
	var out []string
	if !n.IsProperty() && !camelCasePattern.MatchString(n.Name) {
		out = append(out, "not CamelCase")
	}
	if n.Datatype.IsPrimitive() && n.Datatype.Token == "boolean" {
		if !strings.HasPrefix(n.Name, "Is") && !strings.HasPrefix(n.Name, "Has") {
			out = append(out, "boolean name does not start with 'Is' or 'Has'")
		}
	}
	return out
}

// unknownAttributes lists extended attributes not covered by the whitelist.
func unknownAttributes(n *Node, opts Options) []string {
	var out []string
	for _, key := range n.ExtendedKeys() {
		if !opts.whitelisted(key) {
			out = append(out, key)
		}
	}
	return out
}

func describe(n *Node, problem string) string {
	if len(n.Sources) == 0 {
		return fmt.Sprintf("%s: %s", n.FQN(), problem)
	}
	return fmt.Sprintf("%s (%s): %s", n.FQN(), types.FormatSources(n.Sources), problem)
}
