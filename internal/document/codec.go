package document

import (
	"encoding/json"
	"fmt"
)

// wireNode is the serialized form of a node. Fields are declared in key
// order so the output has sorted keys. Children and URL are pointers so
// decode can tell an absent key from an empty value.
type wireNode struct {
	Children *[]*wireNode `json:"children,omitempty"`
	ID       string       `json:"id"`
	Kind     Kind         `json:"kind"`
	Name     string       `json:"name"`
	URL      *string      `json:"url,omitempty"`
}

type wireDocument struct {
	RootFolder *wireNode `json:"rootFolder"`
}

func toWire(n *Node) *wireNode {
	w := &wireNode{ID: n.id, Kind: n.kind, Name: n.name}
	if n.url != "" {
		url := n.url
		w.URL = &url
	}
	if len(n.children) > 0 {
		children := make([]*wireNode, len(n.children))
		for i, c := range n.children {
			children[i] = toWire(c)
		}
		w.Children = &children
	}
	return w
}

// fromWire rebuilds forward edges only; Validate fills in back-references.
// A children key on a request or a url key on a folder is rejected even
// when empty. Other invalid content is kept as-is so that validation
// reports it.
func fromWire(w *wireNode) (*Node, error) {
	n := &Node{id: w.ID, kind: w.Kind, name: w.Name}
	if w.URL != nil {
		if w.Kind == KindFolder {
			return nil, nodeError(ErrFolderHasURL, n)
		}
		n.url = *w.URL
	}
	if w.Children != nil {
		if w.Kind == KindRequest {
			return nil, nodeError(ErrRequestHasChildren, n)
		}
		children := *w.Children
		n.children = make([]*Node, len(children))
		for i, c := range children {
			if c == nil {
				return nil, nodeError(ErrNilChild, n)
			}
			child, err := fromWire(c)
			if err != nil {
				return nil, err
			}
			n.children[i] = child
		}
	}
	return n, nil
}

// MarshalJSON encodes the subtree rooted at n in the document node format.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(n))
}

// Encode validates the document and returns its canonical form: indented
// JSON with sorted keys, children in sibling order.
func (d *Document) Encode() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return json.MarshalIndent(wireDocument{RootFolder: toWire(d.root)}, "", "  ")
}

// Decode parses an encoded document and validates it before returning.
// Syntax errors are wrapped; invariant violations are returned as
// *NodeError so callers can tell a corrupted document from bad bytes.
func Decode(data []byte, opts ...Option) (*Document, error) {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if w.RootFolder == nil {
		return nil, &NodeError{Err: ErrNoRoot}
	}
	root, err := fromWire(w.RootFolder)
	if err != nil {
		return nil, err
	}
	d := newDocument(opts)
	d.root = root
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
