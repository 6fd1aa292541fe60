// Package repotest holds the behavior every DocumentRepository must share,
// run by each store's tests.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piuma/internal/domain"
	"piuma/internal/domain/models"
	"piuma/internal/domain/repositories"
)

// RunDocumentRepository runs the shared cases against a fresh repository
// from newRepo for each subtest.
func RunDocumentRepository(t *testing.T, newRepo func(t *testing.T) repositories.DocumentRepository) {
	ctx := context.Background()

	newDoc := func(name string) *models.Document {
		return &models.Document{
			ID:      uuid.NewString(),
			OwnerID: "owner-1",
			Name:    name,
			Data:    []byte(`{"rootFolder":{"id":"r","kind":"folder","name":"` + name + `"}}`),
		}
	}

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		doc := newDoc("Requests")
		require.NoError(t, repo.Create(ctx, doc))
		assert.False(t, doc.CreatedAt.IsZero())
		assert.False(t, doc.UpdatedAt.IsZero())

		got, err := repo.Get(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, doc.ID, got.ID)
		assert.Equal(t, "Requests", got.Name)
		assert.Equal(t, "owner-1", got.OwnerID)
		assert.Equal(t, doc.Data, got.Data)
	})

	t.Run("create conflict", func(t *testing.T) {
		repo := newRepo(t)
		doc := newDoc("Requests")
		require.NoError(t, repo.Create(ctx, doc))

		dup := *doc
		err := repo.Create(ctx, &dup)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("get missing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		repo := newRepo(t)
		doc := newDoc("Requests")
		require.NoError(t, repo.Create(ctx, doc))
		created := doc.CreatedAt

		time.Sleep(10 * time.Millisecond)
		upd := &models.Document{ID: doc.ID, Name: "Renamed", Data: []byte(`{"v":2}`)}
		require.NoError(t, repo.Update(ctx, upd))

		got, err := repo.Get(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, []byte(`{"v":2}`), got.Data)
		assert.Equal(t, "owner-1", got.OwnerID, "update keeps the owner")
		assert.WithinDuration(t, created, got.CreatedAt, time.Millisecond)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt))
	})

	t.Run("update missing", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Update(ctx, newDoc("Requests"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		doc := newDoc("Requests")
		require.NoError(t, repo.Create(ctx, doc))
		require.NoError(t, repo.Delete(ctx, doc.ID))

		_, err := repo.Get(ctx, doc.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, doc.ID), domain.ErrNotFound)
	})

	t.Run("list newest first without data", func(t *testing.T) {
		repo := newRepo(t)
		empty, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		first := newDoc("first")
		require.NoError(t, repo.Create(ctx, first))
		time.Sleep(10 * time.Millisecond)
		second := newDoc("second")
		require.NoError(t, repo.Create(ctx, second))

		docs, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "second", docs[0].Name)
		assert.Equal(t, "first", docs[1].Name)
		assert.Nil(t, docs[0].Data)
	})
}
