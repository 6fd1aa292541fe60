package document

import "slices"

// The methods in this file are the only code that changes the shape or
// content of a tree. Each one checks all of its preconditions before
// touching anything, so a failed call leaves the tree, the observers and
// the undo history exactly as they were. A successful call sends one
// BeginUpdates/EndUpdates bracket per folder it touched and records one
// inverse action on the document's undo manager.

// AddChild inserts child after the last child of n. See InsertChild.
func (n *Node) AddChild(child *Node) error {
	return n.InsertChild(child, End)
}

// InsertChild inserts child into folder n at index, shifting later
// siblings; End appends. If child already has a parent it is moved: it
// leaves its old parent and joins n in one step. When the old parent is n
// itself the move is a reorder, index is the final position and observers
// get a single ChildMoved. A child coming from outside n's tree must be a
// valid subtree whose ids are all unused in that tree, and nodes of another
// document are rejected with ErrForeignNode.
func (n *Node) InsertChild(child *Node, index int) error {
	if n.kind != KindFolder {
		return nodeError(ErrRequestHasChildren, n)
	}
	if child == nil {
		return nodeError(ErrNilChild, n)
	}
	if child == n || child.IsAncestorOf(n) {
		return nodeError(ErrCycle, child)
	}
	if child.IsRoot() {
		return nodeError(ErrRootNode, child)
	}
	if child.document != nil && n.document != nil && child.document != n.document {
		return nodeError(ErrForeignNode, child)
	}
	if err := checkInsertable(child, n); err != nil {
		return err
	}

	old := child.parent
	oldIndex := child.Index()
	size := len(n.children)
	if old == n {
		size--
	}
	if index == End {
		index = size
	}
	if index < 0 || index > size {
		return indexError(n, index, size)
	}
	if old == n && oldIndex == index {
		return nil
	}

	oldDoc := child.document
	if old != nil {
		old.children = slices.Delete(old.children, oldIndex, oldIndex+1)
	}
	n.children = slices.Insert(n.children, index, child)
	child.parent = n
	child.setDocument(n.document)

	var b batch
	if old == n {
		b.moved(n, oldIndex, index)
	} else {
		if old != nil {
			b.removed(old, oldIndex)
		}
		b.inserted(n, index)
	}
	b.close()

	d := n.document
	if d == nil {
		d = oldDoc
	}
	if old == nil {
		d.record(RemoveAt{Parent: n, Index: index}, VerbCreate, child.kind)
	} else {
		d.record(InsertAt{Parent: old, Index: oldIndex, Node: child}, VerbMove, child.kind)
	}
	d.logDebug("node inserted", "id", child.id, "parent_id", n.id, "index", index, "moved", old != nil)
	return nil
}

// Remove detaches n from its parent. The node and its subtree stay intact
// so an undo can put them back.
func (n *Node) Remove() error {
	p := n.parent
	if p == nil {
		return nodeError(ErrNoParent, n)
	}
	index := n.Index()

	p.children = slices.Delete(p.children, index, index+1)
	n.parent = nil
	n.setDocument(nil)

	var b batch
	b.removed(p, index)
	b.close()

	d := p.document
	d.record(InsertAt{Parent: p, Index: index, Node: n}, VerbDelete, n.kind)
	d.logDebug("node removed", "id", n.id, "parent_id", p.id, "index", index)
	return nil
}

// Rename changes the node's name. An empty name is rejected with
// ErrEmptyName. The parent's observers get an update for the node's row;
// renaming a root sends no delta since it has no row.
func (n *Node) Rename(name string) error {
	if err := validateName(name); err != nil {
		return nodeError(ErrEmptyName, n)
	}
	if name == n.name {
		return nil
	}
	old := n.name
	n.name = name
	n.notifyUpdated()
	n.document.record(RenameTo{Node: n, Name: old}, VerbRename, n.kind)
	return nil
}

// SetURL changes the URL of a request. Folders never carry a URL, so any
// non-empty url on a folder fails with ErrFolderHasURL.
func (n *Node) SetURL(url string) error {
	if n.kind == KindFolder && url != "" {
		return nodeError(ErrFolderHasURL, n)
	}
	if url == n.url {
		return nil
	}
	old := n.url
	n.url = url
	n.notifyUpdated()
	n.document.record(SetURLTo{Node: n, URL: old}, VerbEditURL, n.kind)
	return nil
}

// CreateChild appends a new node of the given kind with its default name
// and returns its index, ready for an inline rename.
func (n *Node) CreateChild(kind Kind) (int, error) {
	if !kind.Valid() {
		return -1, nodeError(ErrUnknownKind, n)
	}
	if n.kind != KindFolder {
		return -1, nodeError(ErrRequestHasChildren, n)
	}
	child := n.document.NewNode(kind)
	if err := n.InsertChild(child, End); err != nil {
		return -1, err
	}
	return len(n.children) - 1, nil
}

func (n *Node) notifyUpdated() {
	if n.parent == nil {
		return
	}
	var b batch
	b.updated(n.parent, n.Index())
	b.close()
}
