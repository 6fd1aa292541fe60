package auth

import (
	"context"
	"fmt"

	"piuma/internal/domain"
	"piuma/internal/domain/models"
	"piuma/internal/domain/services"
)

// OwnerBasedAuthorizer implements DocumentAuthorizer using ownership checks.
// A user can access a document they created. Documents created without
// auth have no owner and stay accessible to everyone.
type OwnerBasedAuthorizer struct{}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer() services.DocumentAuthorizer {
	return OwnerBasedAuthorizer{}
}

// CanAccessDocument checks if user owns the document
func (OwnerBasedAuthorizer) CanAccessDocument(ctx context.Context, userID string, doc *models.Document) error {
	if doc.OwnerID == "" || doc.OwnerID == userID {
		return nil
	}
	return fmt.Errorf("access denied to document %s: %w", doc.ID, domain.ErrForbidden)
}
