// Package file stores documents as .piuma files in a directory, each with a
// JSON sidecar holding its metadata.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"

	"piuma/internal/document"
	"piuma/internal/domain"
	"piuma/internal/domain/models"
	"piuma/internal/domain/repositories"
)

const metaExt = ".json"

// DocumentRepository implements repositories.DocumentRepository on a
// directory.
type DocumentRepository struct {
	dir    string
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewDocumentRepository creates the directory if needed. A leading ~ is
// expanded to the home directory.
func NewDocumentRepository(dir string, logger *slog.Logger) (*DocumentRepository, error) {
	dir, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("expand data dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &DocumentRepository{dir: dir, logger: logger}, nil
}

var _ repositories.DocumentRepository = (*DocumentRepository)(nil)

// Dir returns the directory documents are stored in.
func (r *DocumentRepository) Dir() string { return r.dir }

func (r *DocumentRepository) dataPath(id string) string {
	return filepath.Join(r.dir, id+document.FileExtension)
}

func (r *DocumentRepository) metaPath(id string) string {
	return filepath.Join(r.dir, id+metaExt)
}

// Create stores a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if err := uuid.Validate(doc.ID); err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid document id %q", doc.ID)}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.metaPath(doc.ID)); err == nil {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("document %s already exists", doc.ID),
			ResourceType: "document",
			ResourceID:   doc.ID,
		}
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if err := r.write(doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	r.logger.Debug("document file created", "id", doc.ID, "path", r.dataPath(doc.ID))
	return nil
}

// Get retrieves a document with its data
func (r *DocumentRepository) Get(ctx context.Context, id string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, err := r.readMeta(id)
	if err != nil {
		return nil, err
	}
	doc.Data, err = os.ReadFile(r.dataPath(id))
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", id, err)
	}
	return doc, nil
}

// Update replaces the data and name of an existing document
func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.readMeta(doc.ID)
	if err != nil {
		return err
	}
	doc.CreatedAt = existing.CreatedAt
	doc.OwnerID = existing.OwnerID
	doc.UpdatedAt = time.Now().UTC()
	if err := r.write(doc); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

// Delete deletes a document
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.readMeta(id); err != nil {
		return err
	}
	if err := os.Remove(r.dataPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := os.Remove(r.metaPath(id)); err != nil {
		return fmt.Errorf("delete document metadata: %w", err)
	}
	return nil
}

// List returns metadata of all documents, most recently updated first
func (r *DocumentRepository) List(ctx context.Context) ([]models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := []models.Document{}
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), metaExt)
		if !ok || e.IsDir() {
			continue
		}
		doc, err := r.readMeta(id)
		if err != nil {
			r.logger.Warn("skipping unreadable document metadata", "file", e.Name(), "error", err)
			continue
		}
		docs = append(docs, *doc)
	}
	slices.SortFunc(docs, func(a, b models.Document) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return docs, nil
}

func (r *DocumentRepository) readMeta(id string) (*models.Document, error) {
	if uuid.Validate(id) != nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", id)}
	}
	data, err := os.ReadFile(r.metaPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", id)}
	}
	if err != nil {
		return nil, fmt.Errorf("read document metadata: %w", err)
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document metadata %s: %w", id, err)
	}
	return &doc, nil
}

// write replaces the data file first so that a document with metadata
// always has data.
func (r *DocumentRepository) write(doc *models.Document) error {
	if err := writeAtomic(r.dataPath(doc.ID), doc.Data); err != nil {
		return err
	}
	meta, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(r.metaPath(doc.ID), meta)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
