// Package document implements the request-tree document model: a tree of
// folder and request nodes, the validator that enforces its invariants,
// the mutation methods that are the only way to change its shape, the
// observer protocol that reports those changes, and undoable inverses for
// every mutation.
//
// The model is single-threaded. Hosts that mutate a document from several
// goroutines must serialize every mutation themselves.
package document

import (
	"slices"
	"strings"
)

// Kind is the immutable kind of a node.
type Kind string

const (
	KindFolder  Kind = "folder"
	KindRequest Kind = "request"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindFolder || k == KindRequest
}

// End is the insertion index meaning "after the last child".
const End = -1

// Node is a folder or a request in a document tree.
//
// children is the owning structure. parent and document are derived
// back-references that the validator and the mutation methods keep in
// agreement with it; nothing else writes them.
type Node struct {
	id       string
	kind     Kind
	name     string
	url      string
	children []*Node

	parent   *Node
	document *Document
	observer Observer
}

// NewNode returns a detached node. It has no parent and no document until
// it is inserted into a tree.
func NewNode(id string, kind Kind, name string) *Node {
	return &Node{id: id, kind: kind, name: name}
}

// ID returns the node's immutable identifier.
func (n *Node) ID() string { return n.id }

// Kind returns whether the node is a folder or a request.
func (n *Node) Kind() Kind { return n.kind }

// Name returns the user-facing name.
func (n *Node) Name() string { return n.name }

// URL returns the request URL; it is always empty for folders.
func (n *Node) URL() string { return n.url }

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool { return n.kind == KindFolder }

// Parent returns the containing folder, or nil for a root or detached node.
func (n *Node) Parent() *Node { return n.parent }

// Document returns the document the node belongs to, or nil if detached.
func (n *Node) Document() *Document { return n.document }

// Observer returns the observer attached to the node, if any.
func (n *Node) Observer() Observer { return n.observer }

// Children returns a copy of the ordered children.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// HasChildren returns whether the node has any children.
func (n *Node) HasChildren() bool { return len(n.children) > 0 }

// Child returns the child at index i, or nil if i is out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Index returns the node's position within its parent, or -1 without one.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	return slices.Index(n.parent.children, n)
}

// IsRoot reports whether the node is the root folder of its document.
func (n *Node) IsRoot() bool {
	return n.document != nil && n.document.root == n
}

// IsAncestorOf reports whether n contains other at any depth.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Path returns the slash-separated names from the topmost ancestor down to
// the node. Slashes inside names are escaped as backslashes.
func (n *Node) Path() string {
	var parts []string
	for c := n; c != nil; c = c.parent {
		parts = append(parts, strings.ReplaceAll(c.name, "/", `\`))
	}
	slices.Reverse(parts)
	return "/" + strings.Join(parts, "/")
}

const (
	// Continue can be returned from Walk functions to keep descending.
	Continue = true

	// Break can be returned from Walk functions to skip the node's subtree.
	Break = false
)

// Walk calls fun on n and its descendants in pre-order. Returning Break
// skips the children of the current node.
func (n *Node) Walk(fun func(*Node) bool) {
	if !fun(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fun)
	}
}

// Attach makes o the observer of node's children, replacing any previous
// one. A nil o detaches the current observer.
func Attach(o Observer, node *Node) {
	node.observer = o
}

// setDocument points the document back-reference of the whole subtree at d.
func (n *Node) setDocument(d *Document) {
	n.Walk(func(c *Node) bool {
		c.document = d
		return Continue
	})
}
