package services

import (
	"context"

	"piuma/internal/document"
	"piuma/internal/domain/models"
)

// WorkspaceService opens stored documents and applies tree edits to them.
// Every edit goes through the document model, so it is validated, observed
// and undoable.
type WorkspaceService interface {
	// CreateDocument creates and stores an empty document
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*models.DocumentState, error)

	// ImportDocument stores an encoded document after validating it
	ImportDocument(ctx context.Context, data []byte) (*models.DocumentState, error)

	// ListDocuments lists stored documents without their data
	ListDocuments(ctx context.Context) ([]models.Document, error)

	// GetDocument opens a document and returns its tree and history
	GetDocument(ctx context.Context, id string) (*models.DocumentState, error)

	// ExportDocument returns the canonical encoded form of an open document
	ExportDocument(ctx context.Context, id string) ([]byte, error)

	// SaveDocument writes an open document back to the store
	SaveDocument(ctx context.Context, id string) (*models.Document, error)

	// DeleteDocument closes and deletes a document
	DeleteDocument(ctx context.Context, id string) error

	// GetNode returns one node of a document
	GetNode(ctx context.Context, docID, nodeID string) (*models.Node, error)

	// CreateNode adds a folder or request to a folder
	CreateNode(ctx context.Context, docID string, req *CreateNodeRequest) (*models.Node, error)

	// UpdateNode renames, moves or edits the URL of a node as one undo step
	UpdateNode(ctx context.Context, docID, nodeID string, req *UpdateNodeRequest) (*models.Node, error)

	// DeleteNode removes a node and its subtree
	DeleteNode(ctx context.Context, docID, nodeID string) error

	// Undo reverts the last undo step of a document
	Undo(ctx context.Context, docID string) (*models.History, error)

	// Redo reapplies the last undone step of a document
	Redo(ctx context.Context, docID string) (*models.History, error)

	// Changes returns journal entries with a sequence number above since
	Changes(ctx context.Context, docID string, since uint64) ([]models.Change, error)

	// Flush saves every open document with unsaved changes
	Flush(ctx context.Context) error
}

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	UserID string  `json:"-"`
	Name   *string `json:"name,omitempty"` // Root folder name, localized default if nil
}

// CreateNodeRequest represents a node creation request
type CreateNodeRequest struct {
	ParentID *string       `json:"parent_id,omitempty"` // Root folder if nil
	Kind     document.Kind `json:"kind"`
	Name     *string       `json:"name,omitempty"` // Default name for the kind if nil
	URL      *string       `json:"url,omitempty"`  // Requests only
	Index    *int          `json:"index,omitempty"`
}

// OptionalURL tracks tri-state semantics for url updates (RFC 7396 PATCH).
// Transport-agnostic; the handler maps it from httputil.OptionalString.
//   - Present=false: field absent from request (don't change)
//   - Present=true, Value=nil: field is null (clear)
//   - Present=true, Value=&"text": field has value
type OptionalURL struct {
	Present bool
	Value   *string
}

// UpdateNodeRequest represents a node update. Only provided fields change;
// all changes are applied as a single undo step.
type UpdateNodeRequest struct {
	Name     *string
	URL      OptionalURL
	ParentID *string // Move to this folder
	Index    *int    // Position in the (new) parent, end if nil
}
