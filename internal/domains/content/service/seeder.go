package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cms-backend/internal/domains/content"
	"cms-backend/internal/shared"
	"cms-backend/internal/shared/utils"
	"cms-backend/pkg/cache"
	"cms-backend/pkg/database"
	"cms-backend/pkg/logger"
)

type seedContent struct {
	id       uuid.UUID
	title    string
	body     string
	authorID uuid.UUID
	status   content.Status
}

var defaultSeedContents = []seedContent{
	{
		uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaa1"),
		"Chào mừng đến với CMS",
		"Bài viết đầu tiên, được tạo tự động khi khởi tạo dữ liệu mẫu.",
		shared.SeedAdminID,
		content.StatusPublished,
	},
	{
		uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaa2"),
		"Ghi chú của biên tập viên",
		"Quy trình duyệt bài: Draft -> Published -> Archived.",
		shared.SeedEditorID,
		content.StatusPublished,
	},
	{
		uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaa3"),
		"Nhật ký người viết",
		"Bản nháp, chưa xuất bản.",
		shared.SeedWriterID,
		content.StatusDraft,
	},
	{
		uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaa4"),
		"Mẹo sử dụng CMS",
		"Dùng slug ngắn gọn, không dấu để URL dễ đọc.",
		shared.SeedAuthor2ID,
		content.StatusPublished,
	},
	{
		uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaa5"),
		"Có gì mới trong Go 1.24",
		"Generic type aliases, Swiss tables cho map và nhiều cải tiến khác.",
		shared.SeedAuthor3ID,
		content.StatusPublished,
	},
}

// Seeder tạo nội dung mẫu gắn với các tài khoản seed của user service.
// Bỏ qua bản ghi đã tồn tại theo id nên chạy lại an toàn.
type Seeder struct {
	repo  content.Repository
	uow   database.UnitOfWork
	cache cache.Cache
}

func NewSeeder(repo content.Repository, uow database.UnitOfWork, c cache.Cache) *Seeder {
	if c == nil {
		c = cache.Noop{}
	}
	return &Seeder{repo: repo, uow: uow, cache: c}
}

// Seed trả về số content đã tạo mới
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	created := 0
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		for i, sc := range defaultSeedContents {
			if _, err := s.repo.FindByID(ctx, sc.id); err == nil {
				continue
			} else if !errors.Is(err, content.ErrContentNotFound) {
				return err
			}

			slug := utils.GenerateSlug(sc.title)
			taken, err := s.repo.SlugExists(ctx, slug, uuid.Nil)
			if err != nil {
				return err
			}
			if taken {
				logger.FromContext(ctx).Warn().Str("slug", slug).Msg("[SEED] slug already used, skipped")
				continue
			}

			c := &content.Content{
				ID:        sc.id,
				Title:     sc.title,
				Body:      sc.body,
				AuthorID:  sc.authorID,
				Status:    sc.status,
				Slug:      slug,
				CreatedAt: now.Add(time.Duration(i-len(defaultSeedContents)) * time.Second),
			}
			if err := s.repo.Create(ctx, c); err != nil {
				return fmt.Errorf("seed %s: %w", slug, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		if err := s.cache.DeleteByPrefix(ctx, content.CacheKeyPrefix); err != nil {
			logger.FromContext(ctx).Warn().Err(err).Msg("[SEED] cache invalidation failed")
		}
	}
	logger.FromContext(ctx).Info().Int("created", created).Msg("[SEED] contents seeded")
	return created, nil
}
