package document

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks the subtree rooted at n in pre-order and stops at the
// first violation. For every folder it rewrites each child's parent and
// document back-references to point at the folder and its document before
// descending, which repairs trees that only have forward edges, such as a
// freshly decoded one. Running it again on a valid tree changes nothing.
func Validate(n *Node) error {
	v := validator{
		seenNodes: map[*Node]struct{}{},
		seenIDs:   map[string]struct{}{},
	}
	return v.walk(n)
}

type validator struct {
	seenNodes map[*Node]struct{}
	seenIDs   map[string]struct{}
}

func (v *validator) walk(n *Node) error {
	if _, ok := v.seenNodes[n]; ok {
		return nodeError(ErrCycle, n)
	}
	v.seenNodes[n] = struct{}{}

	if err := checkFields(n); err != nil {
		return err
	}
	if _, ok := v.seenIDs[n.id]; ok {
		return nodeError(ErrDuplicateID, n)
	}
	v.seenIDs[n.id] = struct{}{}

	if n.kind != KindFolder {
		return nil
	}
	for _, c := range n.children {
		c.parent = n
		c.document = n.document
		if err := v.walk(c); err != nil {
			return err
		}
	}
	return nil
}

// checkInsertable checks a subtree about to join folder into without
// changing it. A child already in into's tree only moves, so it is not
// checked again.
func checkInsertable(child, into *Node) error {
	top := topmost(into)
	if topmost(child) == top {
		return nil
	}
	taken := map[string]struct{}{}
	top.Walk(func(n *Node) bool {
		taken[n.id] = struct{}{}
		return Continue
	})
	v := validator{
		seenNodes: map[*Node]struct{}{},
		seenIDs:   taken,
	}
	return v.check(child)
}

// check is walk without the back-reference repair.
func (v *validator) check(n *Node) error {
	if _, ok := v.seenNodes[n]; ok {
		return nodeError(ErrCycle, n)
	}
	v.seenNodes[n] = struct{}{}

	if err := checkFields(n); err != nil {
		return err
	}
	if _, ok := v.seenIDs[n.id]; ok {
		return nodeError(ErrDuplicateID, n)
	}
	v.seenIDs[n.id] = struct{}{}

	for _, c := range n.children {
		if err := v.check(c); err != nil {
			return err
		}
	}
	return nil
}

func topmost(n *Node) *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// checkFields applies the per-node rules: a known kind and id, a non-empty
// name, no children on requests and no url on folders.
func checkFields(n *Node) error {
	if !n.kind.Valid() {
		return nodeError(ErrUnknownKind, n)
	}
	if err := validation.Validate(n.id, validation.Required); err != nil {
		return nodeError(ErrInvalidID, n)
	}
	if err := validateName(n.name); err != nil {
		return nodeError(ErrEmptyName, n)
	}
	switch n.kind {
	case KindRequest:
		if err := validation.Validate(n.children, validation.Empty); err != nil {
			return nodeError(ErrRequestHasChildren, n)
		}
	case KindFolder:
		if err := validation.Validate(n.url, validation.Empty); err != nil {
			return nodeError(ErrFolderHasURL, n)
		}
	}
	return nil
}

func validateName(name string) error {
	return validation.Validate(name, validation.Required)
}
