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
	"cms-backend/internal/domains/user"
	"cms-backend/internal/infrastructure/database/dbtest"
	"cms-backend/pkg/database"
)

// runRepositoryContract chạy cùng một bộ kiểm tra cho mọi implementation
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) user.Repository) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	newUser := func(i int) *user.User {
		return &user.User{
			ID:           uuid.New(),
			Email:        fmt.Sprintf("user%02d@cms.local", i),
			PasswordHash: "hash",
			DisplayName:  fmt.Sprintf("User %02d", i),
			Roles:        []string{"Author"},
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
	}

	t.Run("create and find", func(t *testing.T) {
		repo := newRepo(t)
		u := newUser(1)
		require.NoError(t, repo.Create(ctx, u))

		got, err := repo.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, got.Email)
		assert.Equal(t, u.DisplayName, got.DisplayName)
		assert.Equal(t, []string{"Author"}, got.Roles)
		assert.True(t, u.CreatedAt.Equal(got.CreatedAt))

		byEmail, err := repo.FindByEmail(ctx, "USER01@CMS.LOCAL")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)

		_, err = repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("email is unique case-insensitively", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newUser(1)))

		dup := newUser(2)
		dup.Email = "User01@cms.local"
		assert.ErrorIs(t, repo.Create(ctx, dup), user.ErrEmailAlreadyExists)

		exists, err := repo.ExistsByEmail(ctx, "user01@CMS.local", uuid.Nil)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("update and exclude self", func(t *testing.T) {
		repo := newRepo(t)
		a, b := newUser(1), newUser(2)
		require.NoError(t, repo.Create(ctx, a))
		require.NoError(t, repo.Create(ctx, b))

		exists, err := repo.ExistsByEmail(ctx, a.Email, a.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		a.DisplayName = "Renamed"
		a.Roles = []string{"Admin", "Editor"}
		require.NoError(t, repo.Update(ctx, a))

		got, err := repo.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.DisplayName)
		assert.ElementsMatch(t, []string{"Admin", "Editor"}, got.Roles)

		b.Email = a.Email
		assert.ErrorIs(t, repo.Update(ctx, b), user.ErrEmailAlreadyExists)

		missing := newUser(3)
		assert.ErrorIs(t, repo.Update(ctx, missing), user.ErrUserNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		u := newUser(1)
		require.NoError(t, repo.Create(ctx, u))
		require.NoError(t, repo.Delete(ctx, u.ID))
		assert.ErrorIs(t, repo.Delete(ctx, u.ID), user.ErrUserNotFound)
	})

	t.Run("list pages newest first", func(t *testing.T) {
		repo := newRepo(t)
		for i := 1; i <= 25; i++ {
			require.NoError(t, repo.Create(ctx, newUser(i)))
		}

		items, total, err := repo.List(ctx, user.ListFilter{Offset: 10, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		require.Len(t, items, 10)
		assert.Equal(t, "User 15", items[0].DisplayName)

		items, total, err = repo.List(ctx, user.ListFilter{Offset: 20, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		assert.Len(t, items, 5)

		items, total, err = repo.List(ctx, user.ListFilter{Search: "user 2", Offset: 0, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(6), total, "User 20..25")
		assert.Len(t, items, 6)
	})
}

func TestMemoryRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) user.Repository {
		return NewMemoryRepository()
	})
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	u := &user.User{ID: uuid.New(), Email: "a@cms.local", Roles: []string{"Admin"}}
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	got.Roles[0] = "Hacked"

	again, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin"}, again.Roles)
}

func TestPostgresRepository_Integration(t *testing.T) {
	pool := dbtest.Start(t, db.UsersMigrations, "migrations/users", "users_schema_migrations")

	runRepositoryContract(t, func(t *testing.T) user.Repository {
		_, err := pool.Exec(context.Background(), `TRUNCATE users`)
		require.NoError(t, err)
		return NewPostgresRepository(pool)
	})
}

func TestPostgresRepository_RollbackInUnitOfWork(t *testing.T) {
	pool := dbtest.Start(t, db.UsersMigrations, "migrations/users", "users_schema_migrations")
	ctx := context.Background()
	repo := NewPostgresRepository(pool)
	uow := database.NewPgxUnitOfWork(pool)

	id := uuid.New()
	err := uow.Do(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, &user.User{ID: id, Email: "tx@cms.local", DisplayName: "Tx", CreatedAt: time.Now()}); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	require.Error(t, err)

	_, err = repo.FindByID(ctx, id)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
