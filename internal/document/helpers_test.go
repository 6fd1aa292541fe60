package document

import (
	"fmt"
	"strconv"
	"strings"
)

func seqIDs() IDGenerator {
	i := 0
	return func() string {
		i++
		return "n" + strconv.Itoa(i)
	}
}

func newTestDocument(opts ...Option) *Document {
	return New(append([]Option{WithIDGenerator(seqIDs())}, opts...)...)
}

// recorder is an Observer that logs every notification as a string.
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) BeginUpdates(f *Node) { r.add("begin %s", f.name) }
func (r *recorder) ChildrenRemoved(f *Node, ix []int) {
	r.add("removed %s %v", f.name, ix)
}
func (r *recorder) ChildrenInserted(f *Node, ix []int) {
	r.add("inserted %s %v", f.name, ix)
}
func (r *recorder) ChildrenUpdated(f *Node, ix []int) {
	r.add("updated %s %v", f.name, ix)
}
func (r *recorder) ChildMoved(f *Node, from, to int) {
	r.add("moved %s %d->%d", f.name, from, to)
}
func (r *recorder) EndUpdates(f *Node) { r.add("end %s", f.name) }

func (r *recorder) reset() { r.events = nil }

// snapshot describes the subtree shape including back-references, so two
// snapshots are equal only if structure and derived edges both match.
func snapshot(n *Node) string {
	var b strings.Builder
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		parent := "-"
		if n.parent != nil {
			parent = n.parent.id
		}
		doc := "-"
		if n.document != nil {
			doc = n.document.root.id
		}
		fmt.Fprintf(&b, "%s%s %s %q url=%q parent=%s doc=%s\n",
			strings.Repeat("  ", depth), n.id, n.kind, n.name, n.url, parent, doc)
		for _, c := range n.children {
			walk(c, depth+1)
		}
	}
	walk(n, 0)
	return b.String()
}

// names returns the child names of a folder in order.
func names(n *Node) []string {
	out := make([]string, len(n.children))
	for i, c := range n.children {
		out[i] = c.name
	}
	return out
}

// buildFolder makes a document whose root holds the given children, each
// described as "folder:Name" or "request:Name".
func buildFolder(d *Document, parent *Node, descs ...string) []*Node {
	out := make([]*Node, len(descs))
	for i, s := range descs {
		kind, name, _ := strings.Cut(s, ":")
		n := NewNode(d.newID(), Kind(kind), name)
		if err := parent.AddChild(n); err != nil {
			panic(err)
		}
		out[i] = n
	}
	d.undo.RemoveAll()
	return out
}
