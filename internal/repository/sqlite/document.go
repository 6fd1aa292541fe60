package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"piuma/internal/domain"
	"piuma/internal/domain/models"
	"piuma/internal/domain/repositories"
)

// DocumentRepository implements repositories.DocumentRepository on SQLite.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

var _ repositories.DocumentRepository = (*DocumentRepository)(nil)

// documentRow stores times as unix nanoseconds so they survive the
// driver without loss.
type documentRow struct {
	ID        string `db:"id"`
	OwnerID   string `db:"owner_id"`
	Name      string `db:"name"`
	Data      []byte `db:"data"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r *documentRow) model() *models.Document {
	return &models.Document{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Data:      r.Data,
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
		UpdatedAt: time.Unix(0, r.UpdatedAt).UTC(),
	}
}

// Create stores a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	query := `
		INSERT INTO documents (id, owner_id, name, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		doc.ID, doc.OwnerID, doc.Name, doc.Data, doc.CreatedAt.UnixNano(), doc.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("document %s already exists", doc.ID),
			ResourceType: "document",
			ResourceID:   doc.ID,
		}
	}
	return nil
}

// Get retrieves a document with its data
func (r *DocumentRepository) Get(ctx context.Context, id string) (*models.Document, error) {
	var row documentRow
	query := `SELECT id, owner_id, name, data, created_at, updated_at FROM documents WHERE id = ?`
	err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", id)}
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return row.model(), nil
}

// Update replaces the data and name of an existing document
func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	doc.UpdatedAt = time.Now().UTC()

	query := `UPDATE documents SET name = ?, data = ?, updated_at = ? WHERE id = ?`
	res, err := executor(ctx, r.db).ExecContext(ctx, query, doc.Name, doc.Data, doc.UpdatedAt.UnixNano(), doc.ID)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", doc.ID)}
	}
	return nil
}

// Delete deletes a document
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", id)}
	}
	return nil
}

// List returns metadata of all documents, most recently updated first
func (r *DocumentRepository) List(ctx context.Context) ([]models.Document, error) {
	var rows []documentRow
	query := `
		SELECT id, owner_id, name, created_at, updated_at
		FROM documents
		ORDER BY updated_at DESC
	`
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]models.Document, len(rows))
	for i := range rows {
		docs[i] = *rows[i].model()
	}
	return docs, nil
}
