package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"piuma/internal/domain"
	"piuma/internal/domain/models"
	"piuma/internal/domain/repositories"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, name, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at, updated_at
	`, r.tables.Documents)

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		doc.ID,
		doc.OwnerID,
		doc.Name,
		doc.Data,
		doc.CreatedAt,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document %s already exists", doc.ID),
				ResourceType: "document",
				ResourceID:   doc.ID,
			}
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// Get retrieves a document by ID
func (r *PostgresDocumentRepository) Get(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, name, data, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Documents)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	doc, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.Document])
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidTextError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", id)}
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// Update replaces the data and name of an existing document
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, data = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING created_at, updated_at
	`, r.tables.Documents)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, doc.Name, doc.Data, doc.ID).
		Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidTextError(err) {
			return &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", doc.ID)}
		}
		return fmt.Errorf("update document: %w", err)
	}

	return nil
}

// Delete deletes a document
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)

	tag, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		if IsPgInvalidTextError(err) {
			return &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", id)}
		}
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", id)}
	}

	r.logger.Debug("document deleted", "id", id)
	return nil
}

// List returns metadata of all documents, most recently updated first
func (r *PostgresDocumentRepository) List(ctx context.Context) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, name, created_at, updated_at
		FROM %s
		ORDER BY updated_at DESC
	`, r.tables.Documents)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[models.Document])
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return docs, nil
}
