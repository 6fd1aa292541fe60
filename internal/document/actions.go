package document

import "fmt"

// Action is an inverse operation stored on the undo stack. The concrete
// types below are the only implementations; each is replayed through the
// same mutation methods a user edit goes through.
type Action interface {
	isAction()
}

// InsertAt puts Node back into Parent at Index. It undoes a removal or a
// move away from Parent.
type InsertAt struct {
	Parent *Node
	Index  int
	Node   *Node
}

// RemoveAt removes the child at Index of Parent. It undoes a creation.
type RemoveAt struct {
	Parent *Node
	Index  int
}

// RenameTo restores a previous name.
type RenameTo struct {
	Node *Node
	Name string
}

// SetURLTo restores a previous request URL.
type SetURLTo struct {
	Node *Node
	URL  string
}

func (InsertAt) isAction() {}
func (RemoveAt) isAction() {}
func (RenameTo) isAction() {}
func (SetURLTo) isAction() {}

func (a InsertAt) String() string {
	return fmt.Sprintf("insert %q into %q at %d", a.Node.name, a.Parent.name, a.Index)
}

func (a RemoveAt) String() string {
	return fmt.Sprintf("remove %q[%d]", a.Parent.name, a.Index)
}

func (a RenameTo) String() string {
	return fmt.Sprintf("rename %q to %q", a.Node.name, a.Name)
}

func (a SetURLTo) String() string {
	return fmt.Sprintf("set url of %q to %q", a.Node.name, a.URL)
}

// replay runs one inverse action.
func replay(a Action) error {
	switch a := a.(type) {
	case InsertAt:
		return a.Parent.InsertChild(a.Node, a.Index)
	case RemoveAt:
		child := a.Parent.Child(a.Index)
		if child == nil {
			return indexError(a.Parent, a.Index, a.Parent.NumChildren()-1)
		}
		return child.Remove()
	case RenameTo:
		return a.Node.Rename(a.Name)
	case SetURLTo:
		return a.Node.SetURL(a.URL)
	default:
		return fmt.Errorf("unknown undo action %T", a)
	}
}
