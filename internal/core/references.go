package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

// StructResolver binds struct datatype references to struct nodes once the
// tree is complete.
//
// A bare name resolves against the struct children of the nearest ancestor
// branch. A dotted name is a struct FQN looked up in the tree itself and
// then in the types tree. Every failure is collected before the error is
// returned.
type StructResolver struct {
	types *Node
}

func NewStructResolver(typesRoot *Node) StructResolver {
	return StructResolver{types: typesRoot}
}

func (r StructResolver) Resolve(ctx context.Context, root *Node) error {
	var problems []string
	resolved := 0
	for _, node := range root.Nodes() {
		if !node.Datatype.IsStruct() {
			continue
		}
		target, candidate := r.lookup(node)
		if target == nil {
			node.Datatype.Resolved = ""
			problems = append(problems, describe(node, fmt.Sprintf("unresolved struct reference %q: %s is not a struct", node.Datatype.Token, candidate)))
			continue
		}
		if isAncestor(target, node) {
			node.Datatype.Resolved = ""
			problems = append(problems, describe(node, fmt.Sprintf("circular struct reference to %s", target.FQN())))
			continue
		}
		node.Datatype.Resolved = target.FQN()
		resolved++
	}
	if len(problems) > 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(strings.Join(problems, "; "))
	}
	log.Ctx(ctx).Debug().Int("references", resolved).Msg("struct references resolved")
	return nil
}

// lookup returns the referenced struct, or nil together with the FQN that
// was tried.
func (r StructResolver) lookup(node *Node) (*Node, string) {
	name := node.Datatype.Base
	if node.Datatype.IsQualified() {
		if target := findStruct(node.Root(), name); target != nil {
			return target, name
		}
		if r.types != nil {
			if target := findStruct(r.types, name); target != nil {
				return target, name
			}
		}
		return nil, name
	}

	branch := node.parent
	for branch != nil && !branch.IsBranch() {
		branch = branch.parent
	}
	if branch == nil {
		return nil, name
	}
	candidate := branch.FQN() + Separator + name
	if target := branch.Child(name); target != nil && target.IsStruct() {
		return target, candidate
	}
	return nil, candidate
}

func findStruct(root *Node, fqn string) *Node {
	target := root.Find(fqn)
	if target == nil || !target.IsStruct() {
		return nil
	}
	return target
}

func isAncestor(candidate *Node, node *Node) bool {
	for cur := node.parent; cur != nil; cur = cur.parent {
		if cur == candidate {
			return true
		}
	}
	return false
}
