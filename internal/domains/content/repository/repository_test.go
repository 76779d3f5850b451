package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms-backend/db"
	"cms-backend/internal/domains/content"
	"cms-backend/internal/infrastructure/database/dbtest"
)

func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) content.Repository) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	authorA, authorB := uuid.New(), uuid.New()

	newContent := func(i int, author uuid.UUID, status content.Status) *content.Content {
		return &content.Content{
			ID:        uuid.New(),
			Title:     fmt.Sprintf("Post %02d", i),
			Body:      "body",
			AuthorID:  author,
			Status:    status,
			Slug:      fmt.Sprintf("post-%02d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}

	t.Run("create and find", func(t *testing.T) {
		repo := newRepo(t)
		c := newContent(1, authorA, content.StatusDraft)
		require.NoError(t, repo.Create(ctx, c))

		got, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Title, got.Title)
		assert.Equal(t, content.StatusDraft, got.Status)
		assert.Equal(t, authorA, got.AuthorID)
		assert.Nil(t, got.UpdatedAt)

		bySlug, err := repo.FindBySlug(ctx, "POST-01")
		require.NoError(t, err)
		assert.Equal(t, c.ID, bySlug.ID)

		_, err = repo.FindBySlug(ctx, "missing")
		assert.ErrorIs(t, err, content.ErrContentNotFound)
	})

	t.Run("slug is unique", func(t *testing.T) {
		repo := newRepo(t)
		a := newContent(1, authorA, content.StatusDraft)
		require.NoError(t, repo.Create(ctx, a))

		dup := newContent(2, authorA, content.StatusDraft)
		dup.Slug = a.Slug
		assert.ErrorIs(t, repo.Create(ctx, dup), content.ErrSlugAlreadyExists)

		exists, err := repo.SlugExists(ctx, a.Slug, uuid.Nil)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.SlugExists(ctx, a.Slug, a.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("update", func(t *testing.T) {
		repo := newRepo(t)
		a, b := newContent(1, authorA, content.StatusDraft), newContent(2, authorA, content.StatusDraft)
		require.NoError(t, repo.Create(ctx, a))
		require.NoError(t, repo.Create(ctx, b))

		now := base.Add(time.Hour)
		a.Title = "Changed"
		a.Status = content.StatusPublished
		a.UpdatedAt = &now
		require.NoError(t, repo.Update(ctx, a))

		got, err := repo.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "Changed", got.Title)
		assert.Equal(t, content.StatusPublished, got.Status)
		require.NotNil(t, got.UpdatedAt)
		assert.True(t, now.Equal(*got.UpdatedAt))

		b.Slug = a.Slug
		assert.ErrorIs(t, repo.Update(ctx, b), content.ErrSlugAlreadyExists)

		assert.ErrorIs(t, repo.Update(ctx, newContent(3, authorA, content.StatusDraft)), content.ErrContentNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		c := newContent(1, authorA, content.StatusDraft)
		require.NoError(t, repo.Create(ctx, c))
		require.NoError(t, repo.Delete(ctx, c.ID))
		assert.ErrorIs(t, repo.Delete(ctx, c.ID), content.ErrContentNotFound)
	})

	t.Run("list filters and pages", func(t *testing.T) {
		repo := newRepo(t)
		for i := 1; i <= 25; i++ {
			author, status := authorA, content.StatusPublished
			if i%5 == 0 {
				author, status = authorB, content.StatusDraft
			}
			require.NoError(t, repo.Create(ctx, newContent(i, author, status)))
		}

		items, total, err := repo.List(ctx, content.ListFilter{Offset: 10, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		require.Len(t, items, 10)
		assert.Equal(t, "Post 15", items[0].Title)

		items, total, err = repo.List(ctx, content.ListFilter{AuthorID: authorB, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, items, 5)

		_, total, err = repo.List(ctx, content.ListFilter{Status: content.StatusPublished, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(20), total)

		items, total, err = repo.List(ctx, content.ListFilter{Search: "post-2", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(6), total, "post-20..post-25")
		assert.Len(t, items, 6)
	})
}

func TestMemoryRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) content.Repository {
		return NewMemoryRepository()
	})
}

func TestPostgresRepository_Integration(t *testing.T) {
	pool := dbtest.Start(t, db.ContentsMigrations, "migrations/contents", "contents_schema_migrations")

	runRepositoryContract(t, func(t *testing.T) content.Repository {
		_, err := pool.Exec(context.Background(), `TRUNCATE contents`)
		require.NoError(t, err)
		return NewPostgresRepository(pool)
	})
}
