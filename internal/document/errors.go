package document

import (
	"errors"
	"fmt"
	"net/http"

	"piuma/internal/domain"
)

// Structural errors. They are never transient: each one means a caller
// bug or a corrupted persisted document.
var (
	ErrEmptyName          = errors.New("name is empty")
	ErrRequestHasChildren = errors.New("request cannot have children")
	ErrFolderHasURL       = errors.New("folder cannot have a url")
	ErrInvalidIndex       = errors.New("index out of range")
	ErrNoParent           = errors.New("node has no parent")
	ErrCycle              = errors.New("node cannot contain itself")
	ErrDuplicateID        = errors.New("duplicate node id")
	ErrInvalidID          = errors.New("node id is empty")
	ErrUnknownKind        = errors.New("unknown node kind")
	ErrRootNode           = errors.New("root folder cannot be moved")
	ErrNoRoot             = errors.New("document has no root folder")
	ErrRootNotFolder      = errors.New("root node must be a folder")
	ErrNilChild           = errors.New("child is null")
	ErrForeignNode        = errors.New("node belongs to another document")
)

// NodeError reports a structural error together with the node that caused
// it. For ErrInvalidIndex, Index and Len describe the rejected position.
type NodeError struct {
	Err   error
	Node  *Node
	Index int
	Len   int
}

func (e *NodeError) Error() string {
	if e.Node == nil {
		return e.Err.Error()
	}
	if errors.Is(e.Err, ErrInvalidIndex) {
		return fmt.Sprintf("%v: %d not in [0, %d] for %s %q", e.Err, e.Index, e.Len, e.Node.kind, e.Node.name)
	}
	return fmt.Sprintf("%v: %s %q (%s)", e.Err, e.Node.kind, e.Node.name, e.Node.id)
}

func (e *NodeError) Unwrap() error { return e.Err }

// Is matches domain.ErrValidation so callers outside the model can treat
// every structural error as invalid input.
func (e *NodeError) Is(target error) bool { return target == domain.ErrValidation }

// StatusCode implements domain.HTTPError.
func (e *NodeError) StatusCode() int { return http.StatusUnprocessableEntity }

func nodeError(err error, n *Node) *NodeError {
	return &NodeError{Err: err, Node: n}
}

func indexError(n *Node, index, size int) *NodeError {
	return &NodeError{Err: ErrInvalidIndex, Node: n, Index: index, Len: size}
}
