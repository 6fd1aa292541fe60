package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"piuma/internal/config"
	"piuma/internal/document"
	"piuma/internal/domain"
	"piuma/internal/domain/models"
	"piuma/internal/domain/repositories"
	"piuma/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// WorkspaceConfig holds the document model settings applied to every
// document the workspace opens.
type WorkspaceConfig struct {
	Namer      document.Namer
	UndoLevels int
	Autosave   bool
}

// openDocument is a decoded document kept in memory between requests.
// mu serializes every access to doc, since the model is single-threaded.
type openDocument struct {
	mu      sync.Mutex
	meta    models.Document // Data is always nil
	doc     *document.Document
	journal *journal
	dirty   bool
}

type workspaceService struct {
	repo       repositories.DocumentRepository
	txManager  repositories.TransactionManager
	authorizer services.DocumentAuthorizer
	cfg        WorkspaceConfig
	logger     *slog.Logger

	mu   sync.Mutex
	open map[string]*openDocument
}

// NewWorkspaceService creates a new workspace service
func NewWorkspaceService(
	repo repositories.DocumentRepository,
	txManager repositories.TransactionManager,
	authorizer services.DocumentAuthorizer,
	cfg WorkspaceConfig,
	logger *slog.Logger,
) services.WorkspaceService {
	if cfg.Namer == nil {
		cfg.Namer = document.EnglishNamer{}
	}
	return &workspaceService{
		repo:       repo,
		txManager:  txManager,
		authorizer: authorizer,
		cfg:        cfg,
		logger:     logger,
		open:       make(map[string]*openDocument),
	}
}

func (s *workspaceService) options(id string) []document.Option {
	return []document.Option{
		document.WithNamer(s.cfg.Namer),
		document.WithUndoLevels(s.cfg.UndoLevels),
		document.WithLogger(s.logger.With("document_id", id)),
	}
}

// CreateDocument creates and stores an empty document
func (s *workspaceService) CreateDocument(ctx context.Context, req *services.CreateDocumentRequest) (*models.DocumentState, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.RuneLength(1, config.MaxNodeNameLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	id := uuid.NewString()
	doc := document.New(s.options(id)...)
	if req.Name != nil {
		if err := doc.Root().Rename(*req.Name); err != nil {
			return nil, err
		}
		// A fresh document starts with an empty history
		doc.UndoManager().RemoveAll()
	}
	return s.store(ctx, id, req.UserID, doc)
}

// ImportDocument stores an encoded document after validating it
func (s *workspaceService) ImportDocument(ctx context.Context, data []byte) (*models.DocumentState, error) {
	id := uuid.NewString()
	doc, err := document.Decode(data, s.options(id)...)
	if err != nil {
		var nodeErr *document.NodeError
		if errors.As(err, &nodeErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return s.store(ctx, id, domain.UserIDFrom(ctx), doc)
}

// store persists a new document and keeps it open.
func (s *workspaceService) store(ctx context.Context, id, ownerID string, doc *document.Document) (*models.DocumentState, error) {
	data, err := doc.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	meta := &models.Document{
		ID:      id,
		OwnerID: ownerID,
		Name:    doc.Root().Name(),
		Data:    data,
	}
	if err := s.repo.Create(ctx, meta); err != nil {
		return nil, err
	}
	meta.Data = nil

	od := s.track(meta, doc)
	od.mu.Lock()
	defer od.mu.Unlock()

	s.logger.Info("document created", "id", id, "owner_id", ownerID, "name", meta.Name)
	return s.state(od)
}

// track registers a decoded document as open. When another request opened
// the same document first, that one wins and doc is dropped.
func (s *workspaceService) track(meta *models.Document, doc *document.Document) *openDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	if od, ok := s.open[meta.ID]; ok {
		return od
	}
	od := &openDocument{meta: *meta, doc: doc, journal: &journal{}}
	doc.Listen(od.journal)
	s.open[meta.ID] = od
	return od
}

// acquire returns the open document for id, loading it from the store the
// first time.
func (s *workspaceService) acquire(ctx context.Context, id string) (*openDocument, error) {
	s.mu.Lock()
	od, ok := s.open[id]
	s.mu.Unlock()
	if ok {
		return od, nil
	}

	stored, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanAccessDocument(ctx, domain.UserIDFrom(ctx), stored); err != nil {
		return nil, err
	}
	doc, err := document.Decode(stored.Data, s.options(id)...)
	if err != nil {
		s.logger.Error("stored document is invalid", "id", id, "error", err)
		return nil, fmt.Errorf("open document %s: %w", id, err)
	}
	stored.Data = nil

	s.logger.Debug("document opened", "id", id, "name", stored.Name)
	return s.track(stored, doc), nil
}

// withDocument runs fn with the document locked, after checking access.
func (s *workspaceService) withDocument(ctx context.Context, id string, fn func(od *openDocument) error) error {
	od, err := s.acquire(ctx, id)
	if err != nil {
		return err
	}
	od.mu.Lock()
	defer od.mu.Unlock()

	if err := s.authorizer.CanAccessDocument(ctx, domain.UserIDFrom(ctx), &od.meta); err != nil {
		return err
	}
	return fn(od)
}

// mutate runs fn like withDocument and marks the document dirty when fn
// succeeds. With autosave enabled the document is saved right away; a
// failed autosave is logged and the document stays dirty.
func (s *workspaceService) mutate(ctx context.Context, id string, fn func(od *openDocument) error) error {
	return s.withDocument(ctx, id, func(od *openDocument) error {
		if err := fn(od); err != nil {
			return err
		}
		od.dirty = true
		if s.cfg.Autosave {
			if err := s.save(ctx, od); err != nil {
				s.logger.Warn("autosave failed", "id", id, "error", err)
			}
		}
		return nil
	})
}

// save writes od to the store. Callers hold od.mu.
func (s *workspaceService) save(ctx context.Context, od *openDocument) error {
	data, err := od.doc.Encode()
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	meta := od.meta
	meta.Name = od.doc.Root().Name()
	meta.Data = data
	if err := s.repo.Update(ctx, &meta); err != nil {
		return err
	}
	meta.Data = nil
	od.meta = meta
	od.dirty = false
	return nil
}

// ListDocuments lists stored documents without their data
func (s *workspaceService) ListDocuments(ctx context.Context) ([]models.Document, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	userID := domain.UserIDFrom(ctx)
	visible := make([]models.Document, 0, len(docs))
	for i := range docs {
		if err := s.authorizer.CanAccessDocument(ctx, userID, &docs[i]); err != nil {
			continue
		}
		visible = append(visible, docs[i])
	}
	return visible, nil
}

// GetDocument opens a document and returns its tree and history
func (s *workspaceService) GetDocument(ctx context.Context, id string) (*models.DocumentState, error) {
	var state *models.DocumentState
	err := s.withDocument(ctx, id, func(od *openDocument) error {
		var err error
		state, err = s.state(od)
		return err
	})
	return state, err
}

// ExportDocument returns the canonical encoded form of an open document
func (s *workspaceService) ExportDocument(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.withDocument(ctx, id, func(od *openDocument) error {
		var err error
		data, err = od.doc.Encode()
		return err
	})
	return data, err
}

// SaveDocument writes an open document back to the store
func (s *workspaceService) SaveDocument(ctx context.Context, id string) (*models.Document, error) {
	var meta models.Document
	err := s.withDocument(ctx, id, func(od *openDocument) error {
		if err := s.save(ctx, od); err != nil {
			return err
		}
		meta = od.meta
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("document saved", "id", id)
	return &meta, nil
}

// DeleteDocument closes and deletes a document
func (s *workspaceService) DeleteDocument(ctx context.Context, id string) error {
	err := s.withDocument(ctx, id, func(od *openDocument) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		s.mu.Lock()
		delete(s.open, id)
		s.mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("document deleted", "id", id)
	return nil
}

// GetNode returns one node of a document
func (s *workspaceService) GetNode(ctx context.Context, docID, nodeID string) (*models.Node, error) {
	var out *models.Node
	err := s.withDocument(ctx, docID, func(od *openDocument) error {
		n, err := findNode(od, nodeID)
		if err != nil {
			return err
		}
		out = models.NewNode(n)
		return nil
	})
	return out, err
}

// CreateNode adds a folder or request to a folder
func (s *workspaceService) CreateNode(ctx context.Context, docID string, req *services.CreateNodeRequest) (*models.Node, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Kind, validation.Required, validation.In(document.KindFolder, document.KindRequest)),
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.RuneLength(1, config.MaxNodeNameLength)),
		validation.Field(&req.URL, validation.RuneLength(0, config.MaxURLLength)),
		validation.Field(&req.Index, validation.Min(0)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var out *models.Node
	err := s.mutate(ctx, docID, func(od *openDocument) error {
		parent := od.doc.Root()
		if req.ParentID != nil {
			var err error
			if parent, err = findNode(od, *req.ParentID); err != nil {
				return err
			}
		}

		// Plain creation keeps the default name, ready for an inline rename
		if req.Name == nil && req.URL == nil && req.Index == nil {
			i, err := parent.CreateChild(req.Kind)
			if err != nil {
				return err
			}
			out = models.NewNode(parent.Child(i))
			return nil
		}

		node := od.doc.NewNode(req.Kind)
		if req.Name != nil {
			if err := node.Rename(*req.Name); err != nil {
				return err
			}
		}
		if req.URL != nil {
			if err := node.SetURL(*req.URL); err != nil {
				return err
			}
		}
		index := document.End
		if req.Index != nil {
			index = *req.Index
		}
		if err := parent.InsertChild(node, index); err != nil {
			return err
		}
		out = models.NewNode(node)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("node created", "document_id", docID, "id", out.ID, "kind", out.Kind)
	return out, nil
}

// UpdateNode renames, moves or edits the URL of a node as one undo step.
// Every check that can fail runs before the first change, so a rejected
// update leaves the document untouched.
func (s *workspaceService) UpdateNode(ctx context.Context, docID, nodeID string, req *services.UpdateNodeRequest) (*models.Node, error) {
	if err := (validation.Errors{
		"name":  validation.Validate(req.Name, validation.NilOrNotEmpty, validation.RuneLength(1, config.MaxNodeNameLength)),
		"url":   validation.Validate(req.URL.Value, validation.RuneLength(0, config.MaxURLLength)),
		"index": validation.Validate(req.Index, validation.Min(0)),
	}).Filter(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var out *models.Node
	err := s.mutate(ctx, docID, func(od *openDocument) error {
		node, err := findNode(od, nodeID)
		if err != nil {
			return err
		}

		url := ""
		if req.URL.Value != nil {
			url = *req.URL.Value
		}
		if req.URL.Present && url != "" && node.IsFolder() {
			return &document.NodeError{Err: document.ErrFolderHasURL, Node: node}
		}

		move := req.ParentID != nil || req.Index != nil
		target := node.Parent()
		if move && node.IsRoot() {
			return &document.NodeError{Err: document.ErrRootNode, Node: node}
		}
		if req.ParentID != nil {
			if target, err = findNode(od, *req.ParentID); err != nil {
				return err
			}
		}

		od.doc.BeginGrouping()
		err = func() error {
			if move {
				index := document.End
				if req.Index != nil {
					index = *req.Index
				}
				if err := target.InsertChild(node, index); err != nil {
					return err
				}
			}
			if req.Name != nil {
				if err := node.Rename(*req.Name); err != nil {
					return err
				}
			}
			if req.URL.Present {
				return node.SetURL(url)
			}
			return nil
		}()
		if endErr := od.doc.EndGrouping(); err == nil {
			err = endErr
		}
		if err != nil {
			return err
		}
		out = models.NewNode(node)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteNode removes a node and its subtree
func (s *workspaceService) DeleteNode(ctx context.Context, docID, nodeID string) error {
	return s.mutate(ctx, docID, func(od *openDocument) error {
		node, err := findNode(od, nodeID)
		if err != nil {
			return err
		}
		if node.IsRoot() {
			return &document.NodeError{Err: document.ErrRootNode, Node: node}
		}
		return node.Remove()
	})
}

// Undo reverts the last undo step of a document
func (s *workspaceService) Undo(ctx context.Context, docID string) (*models.History, error) {
	var h models.History
	err := s.mutate(ctx, docID, func(od *openDocument) error {
		if !od.doc.CanUndo() {
			return &domain.ConflictError{Message: "nothing to undo", ResourceType: "document", ResourceID: docID}
		}
		name := od.doc.UndoActionName()
		if err := od.doc.Undo(); err != nil {
			return fmt.Errorf("undo %q: %w", name, err)
		}
		h = history(od.doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Redo reapplies the last undone step of a document
func (s *workspaceService) Redo(ctx context.Context, docID string) (*models.History, error) {
	var h models.History
	err := s.mutate(ctx, docID, func(od *openDocument) error {
		if !od.doc.CanRedo() {
			return &domain.ConflictError{Message: "nothing to redo", ResourceType: "document", ResourceID: docID}
		}
		name := od.doc.RedoActionName()
		if err := od.doc.Redo(); err != nil {
			return fmt.Errorf("redo %q: %w", name, err)
		}
		h = history(od.doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Changes returns journal entries with a sequence number above since
func (s *workspaceService) Changes(ctx context.Context, docID string, since uint64) ([]models.Change, error) {
	var changes []models.Change
	err := s.withDocument(ctx, docID, func(od *openDocument) error {
		var ok bool
		if changes, ok = od.journal.since(since); !ok {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("changes after %d are no longer available, reload the document", since),
				ResourceType: "document",
				ResourceID:   docID,
			}
		}
		return nil
	})
	return changes, err
}

// Flush saves every open document with unsaved changes
func (s *workspaceService) Flush(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.open))
	for id := range s.open {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	slices.Sort(ids)

	return s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			s.mu.Lock()
			od, ok := s.open[id]
			s.mu.Unlock()
			if !ok {
				continue
			}
			if err := s.flushOne(ctx, od); err != nil {
				return fmt.Errorf("flush document %s: %w", id, err)
			}
		}
		return nil
	})
}

func (s *workspaceService) flushOne(ctx context.Context, od *openDocument) error {
	od.mu.Lock()
	defer od.mu.Unlock()
	if !od.dirty {
		return nil
	}
	if err := s.save(ctx, od); err != nil {
		return err
	}
	s.logger.Debug("document flushed", "id", od.meta.ID)
	return nil
}

// state snapshots od for the API. The tree is marshaled here, under the
// document lock, so later mutations cannot race with the response.
func (s *workspaceService) state(od *openDocument) (*models.DocumentState, error) {
	root, err := json.Marshal(od.doc.Root())
	if err != nil {
		return nil, fmt.Errorf("marshal tree: %w", err)
	}
	return &models.DocumentState{
		Document: od.meta,
		Root:     json.RawMessage(root),
		History:  history(od.doc),
		Dirty:    od.dirty,
		Seq:      od.journal.seq,
	}, nil
}

func history(doc *document.Document) models.History {
	return models.History{
		CanUndo:   doc.CanUndo(),
		CanRedo:   doc.CanRedo(),
		UndoName:  doc.UndoActionName(),
		RedoName:  doc.RedoActionName(),
		UndoTitle: doc.UndoMenuItemTitle(),
		RedoTitle: doc.RedoMenuItemTitle(),
	}
}

func findNode(od *openDocument, id string) (*document.Node, error) {
	if n := od.doc.Find(id); n != nil {
		return n, nil
	}
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
}
