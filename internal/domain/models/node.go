package models

import "piuma/internal/document"

// Node is a single folder or request as returned by node endpoints.
// Children are not included; fetch the document for the full tree.
type Node struct {
	ID          string        `json:"id"`
	Kind        document.Kind `json:"kind"`
	Name        string        `json:"name"`
	URL         string        `json:"url,omitempty"`
	ParentID    *string       `json:"parent_id"` // NULL = root folder
	Index       int           `json:"index"`
	Path        string        `json:"path"`
	NumChildren int           `json:"num_children"`
}

// NewNode copies the displayed fields of n.
func NewNode(n *document.Node) *Node {
	out := &Node{
		ID:          n.ID(),
		Kind:        n.Kind(),
		Name:        n.Name(),
		URL:         n.URL(),
		Index:       n.Index(),
		Path:        n.Path(),
		NumChildren: n.NumChildren(),
	}
	if p := n.Parent(); p != nil {
		id := p.ID()
		out.ParentID = &id
	}
	return out
}

// ChangeOp names the kind of change journal entry.
type ChangeOp string

const (
	ChangeRemoved  ChangeOp = "removed"
	ChangeInserted ChangeOp = "inserted"
	ChangeUpdated  ChangeOp = "updated"
	ChangeMoved    ChangeOp = "moved"
)

// Change is one observed delta on a folder of an open document. Clients
// poll the journal to update their views incrementally.
type Change struct {
	Seq      uint64   `json:"seq"`
	Batch    uint64   `json:"batch"` // Entries of one mutation share a batch
	FolderID string   `json:"folder_id"`
	Op       ChangeOp `json:"op"`
	Indexes  []int    `json:"indexes,omitempty"`
	From     *int     `json:"from,omitempty"` // Moves only
	To       *int     `json:"to,omitempty"`
}
