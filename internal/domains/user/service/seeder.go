package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cms-backend/internal/domains/user"
	"cms-backend/internal/shared"
	"cms-backend/pkg/cache"
	"cms-backend/pkg/database"
	"cms-backend/pkg/logger"
)

type seedUser struct {
	id          uuid.UUID
	email       string
	displayName string
	roles       []string
}

var defaultSeedUsers = []seedUser{
	{shared.SeedAdminID, "admin@cms.local", "Administrator", []string{"Admin"}},
	{shared.SeedEditorID, "editor@cms.local", "Editor", []string{"Editor"}},
	{shared.SeedWriterID, "writer@cms.local", "Writer", []string{"Writer"}},
	{shared.SeedAuthor2ID, "author2@cms.local", "Author Two", []string{"Author"}},
	{shared.SeedAuthor3ID, "author3@cms.local", "Author Three", []string{"Author"}},
}

// Seeder tạo các tài khoản mặc định. Chạy lại nhiều lần không tạo bản ghi trùng.
type Seeder struct {
	repo     user.Repository
	uow      database.UnitOfWork
	cache    cache.Cache
	password string
	cost     int
}

func NewSeeder(repo user.Repository, uow database.UnitOfWork, c cache.Cache, password string, cost int) *Seeder {
	if c == nil {
		c = cache.Noop{}
	}
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	return &Seeder{repo: repo, uow: uow, cache: c, password: password, cost: cost}
}

// Seed trả về số user đã tạo mới
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(s.password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("hash seed password: %w", err)
	}

	created := 0
	err = s.uow.Do(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		for i, su := range defaultSeedUsers {
			if _, err := s.repo.FindByID(ctx, su.id); err == nil {
				continue
			} else if !errors.Is(err, user.ErrUserNotFound) {
				return err
			}

			taken, err := s.repo.ExistsByEmail(ctx, su.email, uuid.Nil)
			if err != nil {
				return err
			}
			if taken {
				logger.FromContext(ctx).Warn().Str("email", su.email).Msg("[SEED] email already used by another user, skipped")
				continue
			}

			u := &user.User{
				ID:           su.id,
				Email:        su.email,
				PasswordHash: string(hash),
				DisplayName:  su.displayName,
				Roles:        append([]string{}, su.roles...),
				// lệch nhau vài giây để thứ tự list ổn định
				CreatedAt: now.Add(time.Duration(i-len(defaultSeedUsers)) * time.Second),
			}
			if err := s.repo.Create(ctx, u); err != nil {
				return fmt.Errorf("seed %s: %w", su.email, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		if err := s.cache.DeleteByPrefix(ctx, user.CacheKeyPrefix); err != nil {
			logger.FromContext(ctx).Warn().Err(err).Msg("[SEED] cache invalidation failed")
		}
	}
	logger.FromContext(ctx).Info().Int("created", created).Msg("[SEED] users seeded")
	return created, nil
}
