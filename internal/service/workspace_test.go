package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piuma/internal/document"
	"piuma/internal/domain"
	"piuma/internal/domain/models"
	"piuma/internal/domain/services"
	"piuma/internal/repository/file"
	authsvc "piuma/internal/service/auth"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	svc  services.WorkspaceService
	repo *file.DocumentRepository
}

func newFixture(t *testing.T, autosave bool) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	repo, err := file.NewDocumentRepository(t.TempDir(), logger)
	require.NoError(t, err)
	svc := NewWorkspaceService(repo, file.NewTransactionManager(), authsvc.NewOwnerBasedAuthorizer(),
		WorkspaceConfig{UndoLevels: 50, Autosave: autosave}, logger)
	return &fixture{svc: svc, repo: repo}
}

// reopen builds a second service over the same store, as after a restart.
func (f *fixture) reopen() services.WorkspaceService {
	logger := slog.New(slog.DiscardHandler)
	return NewWorkspaceService(f.repo, file.NewTransactionManager(), authsvc.NewOwnerBasedAuthorizer(),
		WorkspaceConfig{}, logger)
}

func (f *fixture) create(t *testing.T) string {
	t.Helper()
	state, err := f.svc.CreateDocument(t.Context(), &services.CreateDocumentRequest{})
	require.NoError(t, err)
	return state.ID
}

func rootOf(t *testing.T, state *models.DocumentState) map[string]any {
	t.Helper()
	data, err := json.Marshal(state.Root)
	require.NoError(t, err)
	var root map[string]any
	require.NoError(t, json.Unmarshal(data, &root))
	return root
}

func TestCreateDocument(t *testing.T) {
	f := newFixture(t, true)
	state, err := f.svc.CreateDocument(t.Context(), &services.CreateDocumentRequest{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, "Requests", state.Name)
	assert.Equal(t, "user-1", state.OwnerID)
	assert.False(t, state.History.CanUndo)
	assert.Equal(t, "Undo", state.History.UndoTitle)
	assert.Zero(t, state.Seq)
	assert.False(t, state.Dirty)

	root := rootOf(t, state)
	assert.Equal(t, "folder", root["kind"])
	assert.Equal(t, "Requests", root["name"])

	stored, err := f.repo.Get(t.Context(), state.ID)
	require.NoError(t, err)
	assert.Contains(t, string(stored.Data), `"rootFolder"`)
}

func TestCreateDocumentWithName(t *testing.T) {
	f := newFixture(t, true)
	state, err := f.svc.CreateDocument(t.Context(), &services.CreateDocumentRequest{Name: ptr("Billing API")})
	require.NoError(t, err)
	assert.Equal(t, "Billing API", state.Name)
	assert.False(t, state.History.CanUndo, "naming a new document is not an undo step")

	_, err = f.svc.CreateDocument(t.Context(), &services.CreateDocumentRequest{Name: ptr("")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.CreateDocument(t.Context(), &services.CreateDocumentRequest{Name: ptr(strings.Repeat("x", 256))})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateNode(t *testing.T) {
	f := newFixture(t, true)
	id := f.create(t)
	ctx := t.Context()

	folder, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{Kind: document.KindFolder})
	require.NoError(t, err)
	assert.Equal(t, "New Folder", folder.Name)
	assert.Equal(t, 0, folder.Index)
	assert.Equal(t, "/Requests/New Folder", folder.Path)
	require.NotNil(t, folder.ParentID)

	req, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{
		ParentID: &folder.ID,
		Kind:     document.KindRequest,
		Name:     ptr("Ping"),
		URL:      ptr("https://example.com/ping"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ping", req.Name)
	assert.Equal(t, "https://example.com/ping", req.URL)
	assert.Equal(t, folder.ID, *req.ParentID)

	first, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{
		ParentID: &folder.ID,
		Kind:     document.KindRequest,
		Name:     ptr("Health"),
		Index:    ptr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Index)

	got, err := f.svc.GetNode(ctx, id, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumChildren)

	state, err := f.svc.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Create Request", state.History.UndoName)
	assert.Equal(t, "Undo Create Request", state.History.UndoTitle)
	assert.False(t, state.Dirty, "autosave clears dirty")
}

func TestCreateNodeErrors(t *testing.T) {
	f := newFixture(t, true)
	id := f.create(t)
	ctx := t.Context()

	req, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{Kind: document.KindRequest})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  *services.CreateNodeRequest
		want error
	}{
		{"unknown kind", &services.CreateNodeRequest{Kind: "bookmark"}, domain.ErrValidation},
		{"missing kind", &services.CreateNodeRequest{}, domain.ErrValidation},
		{"empty name", &services.CreateNodeRequest{Kind: document.KindFolder, Name: ptr("")}, domain.ErrValidation},
		{"negative index", &services.CreateNodeRequest{Kind: document.KindFolder, Index: ptr(-1)}, domain.ErrValidation},
		{"index past end", &services.CreateNodeRequest{Kind: document.KindFolder, Index: ptr(5)}, document.ErrInvalidIndex},
		{"folder with url", &services.CreateNodeRequest{Kind: document.KindFolder, URL: ptr("https://x")}, document.ErrFolderHasURL},
		{"request parent", &services.CreateNodeRequest{Kind: document.KindFolder, ParentID: &req.ID}, document.ErrRequestHasChildren},
		{"unknown parent", &services.CreateNodeRequest{Kind: document.KindFolder, ParentID: ptr("nope")}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateNode(ctx, id, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	state, err := f.svc.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Len(t, rootOf(t, state)["children"], 1)
}

func TestUpdateNodeIsOneUndoStep(t *testing.T) {
	f := newFixture(t, true)
	id := f.create(t)
	ctx := t.Context()

	a, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{Kind: document.KindFolder, Name: ptr("A")})
	require.NoError(t, err)
	b, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{Kind: document.KindFolder, Name: ptr("B")})
	require.NoError(t, err)
	r, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{ParentID: &a.ID, Kind: document.KindRequest, Name: ptr("Ping")})
	require.NoError(t, err)

	moved, err := f.svc.UpdateNode(ctx, id, r.ID, &services.UpdateNodeRequest{
		Name:     ptr("Pong"),
		URL:      services.OptionalURL{Present: true, Value: ptr("https://example.com/pong")},
		ParentID: &b.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "/Requests/B/Pong", moved.Path)
	assert.Equal(t, "https://example.com/pong", moved.URL)

	h, err := f.svc.Undo(ctx, id)
	require.NoError(t, err)
	assert.True(t, h.CanRedo)

	back, err := f.svc.GetNode(ctx, id, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "/Requests/A/Ping", back.Path)
	assert.Empty(t, back.URL)

	_, err = f.svc.Redo(ctx, id)
	require.NoError(t, err)
	again, err := f.svc.GetNode(ctx, id, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "/Requests/B/Pong", again.Path)
}

func TestUpdateNodeReorderAndClearURL(t *testing.T) {
	f := newFixture(t, true)
	id := f.create(t)
	ctx := t.Context()

	first, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{Kind: document.KindRequest, Name: ptr("First"), URL: ptr("https://a")})
	require.NoError(t, err)
	_, err = f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{Kind: document.KindRequest, Name: ptr("Second")})
	require.NoError(t, err)

	got, err := f.svc.UpdateNode(ctx, id, first.ID, &services.UpdateNodeRequest{
		Index: ptr(1),
		URL:   services.OptionalURL{Present: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Index)
	assert.Empty(t, got.URL)
}

func TestUpdateNodeErrorsLeaveDocumentUntouched(t *testing.T) {
	f := newFixture(t, true)
	id := f.create(t)
	ctx := t.Context()

	folder, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{Kind: document.KindFolder, Name: ptr("API")})
	require.NoError(t, err)
	child, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{ParentID: &folder.ID, Kind: document.KindFolder, Name: ptr("V1")})
	require.NoError(t, err)

	before, err := f.svc.GetDocument(ctx, id)
	require.NoError(t, err)
	rootID := rootOf(t, before)["id"].(string)

	tests := []struct {
		name   string
		nodeID string
		req    *services.UpdateNodeRequest
		want   error
	}{
		{"url on folder", folder.ID, &services.UpdateNodeRequest{Name: ptr("X"), URL: services.OptionalURL{Present: true, Value: ptr("https://x")}}, document.ErrFolderHasURL},
		{"into own descendant", folder.ID, &services.UpdateNodeRequest{Name: ptr("X"), ParentID: &child.ID}, document.ErrCycle},
		{"move root", rootID, &services.UpdateNodeRequest{Index: ptr(0)}, document.ErrRootNode},
		{"bad index", child.ID, &services.UpdateNodeRequest{Name: ptr("X"), Index: ptr(3)}, document.ErrInvalidIndex},
		{"empty name", child.ID, &services.UpdateNodeRequest{Name: ptr("")}, domain.ErrValidation},
		{"unknown node", "nope", &services.UpdateNodeRequest{Name: ptr("X")}, domain.ErrNotFound},
		{"unknown parent", child.ID, &services.UpdateNodeRequest{ParentID: ptr("nope")}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateNode(ctx, id, tt.nodeID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	after, err := f.svc.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, string(before.Root.(json.RawMessage)), string(after.Root.(json.RawMessage)))
	assert.Equal(t, before.History, after.History)
	assert.Equal(t, before.Seq, after.Seq)
}

func TestRenameRootUpdatesStoredName(t *testing.T) {
	f := newFixture(t, true)
	id := f.create(t)
	state, err := f.svc.GetDocument(t.Context(), id)
	require.NoError(t, err)
	rootID := rootOf(t, state)["id"].(string)

	_, err = f.svc.UpdateNode(t.Context(), id, rootID, &services.UpdateNodeRequest{Name: ptr("Payments")})
	require.NoError(t, err)

	docs, err := f.svc.ListDocuments(t.Context())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Payments", docs[0].Name)
}

func TestDeleteNodeAndUndo(t *testing.T) {
	f := newFixture(t, true)
	id := f.create(t)
	ctx := t.Context()

	folder, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{Kind: document.KindFolder, Name: ptr("API")})
	require.NoError(t, err)
	_, err = f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{ParentID: &folder.ID, Kind: document.KindRequest})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteNode(ctx, id, folder.ID))
	_, err = f.svc.GetNode(ctx, id, folder.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	h, err := f.svc.Undo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Create Request", h.UndoName)
	assert.Equal(t, "Delete Folder", h.RedoName)
	assert.Equal(t, "Redo Delete Folder", h.RedoTitle)

	restored, err := f.svc.GetNode(ctx, id, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.NumChildren)

	state, err := f.svc.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.DeleteNode(ctx, id, rootOf(t, state)["id"].(string)), document.ErrRootNode)
}

func TestUndoRedoWithEmptyStacks(t *testing.T) {
	f := newFixture(t, true)
	id := f.create(t)

	_, err := f.svc.Undo(t.Context(), id)
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.svc.Redo(t.Context(), id)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestChangesJournal(t *testing.T) {
	f := newFixture(t, true)
	id := f.create(t)
	ctx := t.Context()

	a, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{Kind: document.KindFolder, Name: ptr("A")})
	require.NoError(t, err)
	b, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{Kind: document.KindFolder, Name: ptr("B")})
	require.NoError(t, err)

	changes, err := f.svc.Changes(ctx, id, 0)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, models.ChangeInserted, changes[1].Op)
	assert.Equal(t, []int{1}, changes[1].Indexes)
	assert.NotEqual(t, changes[0].Batch, changes[1].Batch)

	_, err = f.svc.UpdateNode(ctx, id, b.ID, &services.UpdateNodeRequest{ParentID: &a.ID})
	require.NoError(t, err)

	changes, err = f.svc.Changes(ctx, id, 2)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, models.ChangeRemoved, changes[0].Op)
	assert.Equal(t, models.ChangeInserted, changes[1].Op)
	assert.Equal(t, a.ID, changes[1].FolderID)
	assert.Equal(t, changes[0].Batch, changes[1].Batch, "a move is one batch")

	_, err = f.svc.UpdateNode(ctx, id, b.ID, &services.UpdateNodeRequest{ParentID: ptr(changes[0].FolderID), Index: ptr(0)})
	require.NoError(t, err)
	changes, err = f.svc.Changes(ctx, id, 4)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	changes, err = f.svc.Changes(ctx, id, 100)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestJournalTrim(t *testing.T) {
	j := &journal{}
	folder := document.New().Root()
	for range journalLimit + 10 {
		j.BeginUpdates(folder)
		j.ChildrenInserted(folder, []int{0})
		j.EndUpdates(folder)
	}
	assert.Len(t, j.entries, journalLimit)

	_, ok := j.since(5)
	assert.False(t, ok)

	changes, ok := j.since(uint64(journalLimit + 5))
	require.True(t, ok)
	assert.Len(t, changes, 5)
	assert.Equal(t, uint64(journalLimit+6), changes[0].Seq)
}

func TestJournalMoveEntry(t *testing.T) {
	j := &journal{}
	folder := document.New().Root()
	j.ChildMoved(folder, 2, 0)
	require.Len(t, j.entries, 1)
	assert.Equal(t, 2, *j.entries[0].From)
	assert.Equal(t, 0, *j.entries[0].To)
}

func TestWithoutAutosave(t *testing.T) {
	f := newFixture(t, false)
	id := f.create(t)
	ctx := t.Context()

	_, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{Kind: document.KindRequest, Name: ptr("Ping")})
	require.NoError(t, err)

	state, err := f.svc.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.True(t, state.Dirty)

	stored, err := f.repo.Get(ctx, id)
	require.NoError(t, err)
	assert.NotContains(t, string(stored.Data), "Ping")

	require.NoError(t, f.svc.Flush(ctx))

	stored, err = f.repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, string(stored.Data), "Ping")

	state, err = f.svc.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.False(t, state.Dirty)
}

func TestSaveAndReopen(t *testing.T) {
	f := newFixture(t, false)
	id := f.create(t)
	ctx := t.Context()

	_, err := f.svc.CreateNode(ctx, id, &services.CreateNodeRequest{Kind: document.KindRequest, Name: ptr("Ping"), URL: ptr("https://example.com")})
	require.NoError(t, err)
	meta, err := f.svc.SaveDocument(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, meta.Data)

	exported, err := f.svc.ExportDocument(ctx, id)
	require.NoError(t, err)

	other := f.reopen()
	state, err := other.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.False(t, state.History.CanUndo, "history is not persisted")

	reexported, err := other.ExportDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(exported), string(reexported))
}

func TestImportDocument(t *testing.T) {
	f := newFixture(t, true)
	data := []byte(`{"rootFolder":{"id":"r","kind":"folder","name":"Imported","children":[
		{"id":"q","kind":"request","name":"Ping","url":"https://example.com"}]}}`)

	state, err := f.svc.ImportDocument(t.Context(), data)
	require.NoError(t, err)
	assert.Equal(t, "Imported", state.Name)

	node, err := f.svc.GetNode(t.Context(), state.ID, "q")
	require.NoError(t, err)
	assert.Equal(t, "/Imported/Ping", node.Path)

	_, err = f.svc.ImportDocument(t.Context(), []byte("{"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.ImportDocument(t.Context(), []byte(`{"rootFolder":{"id":"r","kind":"request","name":"x"}}`))
	assert.ErrorIs(t, err, document.ErrRootNotFolder)
}

func TestDeleteDocument(t *testing.T) {
	f := newFixture(t, true)
	id := f.create(t)

	require.NoError(t, f.svc.DeleteDocument(t.Context(), id))
	_, err := f.svc.GetDocument(t.Context(), id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOwnershipIsEnforced(t *testing.T) {
	f := newFixture(t, true)
	alice := domain.WithUserID(t.Context(), "alice")
	bob := domain.WithUserID(t.Context(), "bob")

	state, err := f.svc.CreateDocument(alice, &services.CreateDocumentRequest{UserID: "alice"})
	require.NoError(t, err)

	_, err = f.svc.GetDocument(bob, state.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Also rejected when opened fresh from the store
	_, err = f.reopen().GetDocument(bob, state.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	docs, err := f.svc.ListDocuments(bob)
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = f.svc.ListDocuments(alice)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestCorruptStoredDocument(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	doc := &models.Document{ID: "6f1c2f7e-6a8e-4b8e-9a55-0c8f7f0a1b2c", Name: "Broken",
		Data: []byte(`{"rootFolder":{"id":"r","kind":"folder","name":""}}`)}
	require.NoError(t, f.repo.Create(ctx, doc))

	_, err := f.svc.GetDocument(ctx, doc.ID)
	var nodeErr *document.NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.ErrorIs(t, err, document.ErrEmptyName)
}
