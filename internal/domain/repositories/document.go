package repositories

import (
	"context"

	"piuma/internal/domain/models"
)

// DocumentRepository stores encoded documents. It never looks inside Data;
// decoding and validation belong to the workspace.
type DocumentRepository interface {
	// Create stores a new document. An existing ID is a conflict.
	Create(ctx context.Context, doc *models.Document) error

	// Get retrieves a document with its data
	Get(ctx context.Context, id string) (*models.Document, error)

	// Update replaces the data and name of an existing document
	Update(ctx context.Context, doc *models.Document) error

	// Delete deletes a document
	Delete(ctx context.Context, id string) error

	// List returns metadata of all documents, most recently updated first
	List(ctx context.Context) ([]models.Document, error)
}
