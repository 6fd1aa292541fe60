package services

import (
	"context"

	"piuma/internal/domain/models"
)

// DocumentAuthorizer checks if a user can access a stored document.
// The workspace calls it before opening or listing a document.
type DocumentAuthorizer interface {
	CanAccessDocument(ctx context.Context, userID string, doc *models.Document) error
}
