package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cms-backend/internal/domains/content"
	"cms-backend/internal/shared"
	"cms-backend/internal/shared/utils"
	"cms-backend/pkg/database"
	"cms-backend/pkg/logger"
	"cms-backend/pkg/pipeline"
)

const (
	// số suffix tối đa thử cho một base slug: base, base-2, ..., base-50
	maxSlugSuffix = 50
	// số lần chạy lại cả unit of work khi insert đụng unique index vì request song song
	maxWriteAttempts = 3

	DefaultEnrichConcurrency = 8
)

type Option func(*contentService)

func WithClock(now func() time.Time) Option {
	return func(s *contentService) { s.now = now }
}

// WithEnrichConcurrency giới hạn số lời gọi song song sang user service trong một request
func WithEnrichConcurrency(n int) Option {
	return func(s *contentService) {
		if n > 0 {
			s.enrichLimit = n
		}
	}
}

// contentService implement content.Service.
// Query được cache ở dạng chưa enrich; thông tin tác giả gắn thêm sau mỗi lần đọc
// nên kết quả thiếu tác giả (user service lỗi) không bị giữ lại trong cache.
type contentService struct {
	repo        content.Repository
	uow         database.UnitOfWork
	authors     content.AuthorDirectory
	now         func() time.Time
	enrichLimit int

	create    pipeline.Handler[content.CreateContentRequest, *content.ContentDTO]
	update    pipeline.Handler[content.UpdateContentRequest, *content.ContentDTO]
	remove    pipeline.Handler[content.DeleteContentRequest, struct{}]
	get       pipeline.Handler[content.GetContentQuery, *content.ContentDTO]
	getBySlug pipeline.Handler[content.GetContentBySlugQuery, *content.ContentDTO]
	list      pipeline.Handler[content.ListContentsQuery, *shared.Paged[content.ContentDTO]]
}

// NewContentService: authors có thể nil, khi đó không enrich
func NewContentService(repo content.Repository, uow database.UnitOfWork, authors content.AuthorDirectory, p *pipeline.Pipeline, opts ...Option) content.Service {
	s := &contentService{
		repo:        repo,
		uow:         uow,
		authors:     authors,
		now:         time.Now,
		enrichLimit: DefaultEnrichConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.create = pipeline.Command(p, s.handleCreate)
	s.update = pipeline.Command(p, s.handleUpdate)
	s.remove = pipeline.Command(p, s.handleDelete)
	s.get = pipeline.Query(p, s.handleGet)
	s.getBySlug = pipeline.Query(p, s.handleGetBySlug)
	s.list = pipeline.Query(p, s.handleList)
	return s
}

// ========================================
// PUBLIC API
// ========================================

func (s *contentService) Create(ctx context.Context, req content.CreateContentRequest) (*content.ContentDTO, error) {
	dto, err := s.create(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.enrichAfterWrite(ctx, dto), nil
}

func (s *contentService) Update(ctx context.Context, req content.UpdateContentRequest) (*content.ContentDTO, error) {
	dto, err := s.update(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.enrichAfterWrite(ctx, dto), nil
}

func (s *contentService) Delete(ctx context.Context, req content.DeleteContentRequest) error {
	_, err := s.remove(ctx, req)
	return err
}

func (s *contentService) Get(ctx context.Context, req content.GetContentQuery) (*content.ContentDTO, error) {
	dto, err := s.get(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.enrichSingle(ctx, dto)
}

func (s *contentService) GetBySlug(ctx context.Context, req content.GetContentBySlugQuery) (*content.ContentDTO, error) {
	dto, err := s.getBySlug(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.enrichSingle(ctx, dto)
}

func (s *contentService) List(ctx context.Context, req content.ListContentsQuery) (*shared.Paged[content.ContentDTO], error) {
	paged, err := s.list(ctx, req)
	if err != nil {
		return nil, err
	}

	out := *paged
	out.Items = append([]content.ContentDTO(nil), paged.Items...)
	if err := s.enrich(ctx, out.Items); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []content.ContentDTO{}
	}
	return &out, nil
}

// ========================================
// COMMAND HANDLERS
// ========================================

func (s *contentService) handleCreate(ctx context.Context, req content.CreateContentRequest) (*content.ContentDTO, error) {
	status := content.StatusDraft
	if st, ok := content.ParseStatus(req.Status); ok {
		status = st
	}

	base := strings.ToLower(strings.TrimSpace(req.Slug))
	if base == "" {
		base = utils.GenerateSlug(req.Title)
	}

	c := &content.Content{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		AuthorID:  req.AuthorID,
		Status:    status,
		CreatedAt: s.now().UTC(),
	}

	err := s.retryOnSlugConflict(ctx, func(ctx context.Context) error {
		slug, err := s.uniqueSlug(ctx, base, uuid.Nil)
		if err != nil {
			return err
		}
		c.Slug = slug
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("content_id", c.ID.String()).
		Str("slug", c.Slug).
		Msg("content created")
	dto := c.ToDTO()
	return &dto, nil
}

func (s *contentService) handleUpdate(ctx context.Context, req content.UpdateContentRequest) (*content.ContentDTO, error) {
	status, _ := content.ParseStatus(req.Status)
	requested := strings.ToLower(strings.TrimSpace(req.Slug))

	var updated *content.Content
	err := s.retryOnSlugConflict(ctx, func(ctx context.Context) error {
		c, err := s.repo.FindByID(ctx, req.ID)
		if err != nil {
			return err
		}

		c.Title = strings.TrimSpace(req.Title)
		c.Body = req.Body
		c.Status = status
		now := s.now().UTC()
		c.UpdatedAt = &now

		if requested != "" && requested != strings.ToLower(c.Slug) {
			slug, err := s.uniqueSlug(ctx, requested, c.ID)
			if err != nil {
				return err
			}
			c.Slug = slug
		}

		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := updated.ToDTO()
	return &dto, nil
}

func (s *contentService) handleDelete(ctx context.Context, req content.DeleteContentRequest) (struct{}, error) {
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, req.ID)
	})
	if err != nil {
		return struct{}{}, err
	}
	logger.FromContext(ctx).Info().Str("content_id", req.ID.String()).Msg("content deleted")
	return struct{}{}, nil
}

// uniqueSlug trả về base, base-2, base-3... đầu tiên chưa bị content khác dùng
func (s *contentService) uniqueSlug(ctx context.Context, base string, excludeID uuid.UUID) (string, error) {
	for n := 1; n <= maxSlugSuffix; n++ {
		candidate := utils.WithSuffix(base, n)
		taken, err := s.repo.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", content.ErrSlugAlreadyExists
}

// retryOnSlugConflict chạy lại cả unit of work khi unique index ux_contents_slug
// từ chối (request khác vừa lấy cùng slug giữa lúc check và insert).
func (s *contentService) retryOnSlugConflict(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		err = s.uow.Do(ctx, fn)
		if !errors.Is(err, content.ErrSlugAlreadyExists) {
			return err
		}
		logger.FromContext(ctx).Debug().Int("attempt", attempt).Msg("slug taken concurrently, retrying")
	}
	return err
}

// ========================================
// QUERY HANDLERS
// ========================================

func (s *contentService) handleGet(ctx context.Context, q content.GetContentQuery) (*content.ContentDTO, error) {
	c, err := s.repo.FindByID(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	dto := c.ToDTO()
	return &dto, nil
}

func (s *contentService) handleGetBySlug(ctx context.Context, q content.GetContentBySlugQuery) (*content.ContentDTO, error) {
	c, err := s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(q.Slug)))
	if err != nil {
		return nil, err
	}
	dto := c.ToDTO()
	return &dto, nil
}

func (s *contentService) handleList(ctx context.Context, q content.ListContentsQuery) (*shared.Paged[content.ContentDTO], error) {
	n := q.Normalized()

	items, total, err := s.repo.List(ctx, q.Filter())
	if err != nil {
		return nil, err
	}

	dtos := make([]content.ContentDTO, len(items))
	for i := range items {
		dtos[i] = items[i].ToDTO()
	}
	paged := shared.NewPaged(dtos, n.Page, n.PageSize, total)
	return &paged, nil
}

// ========================================
// AUTHOR ENRICHMENT
// ========================================

func (s *contentService) enrichSingle(ctx context.Context, dto *content.ContentDTO) (*content.ContentDTO, error) {
	out := []content.ContentDTO{*dto}
	if err := s.enrich(ctx, out); err != nil {
		return nil, err
	}
	return &out[0], nil
}

// enrichAfterWrite: write đã commit nên lỗi enrich (kể cả client hủy) không làm hỏng kết quả
func (s *contentService) enrichAfterWrite(ctx context.Context, dto *content.ContentDTO) *content.ContentDTO {
	out, err := s.enrichSingle(ctx, dto)
	if err != nil {
		return dto
	}
	return out
}

// enrich gắn tên và email tác giả, gọi song song theo từng author id khác nhau.
// Lỗi từ user service chỉ làm thiếu field tác giả; chỉ có hủy request mới trả lỗi.
func (s *contentService) enrich(ctx context.Context, items []content.ContentDTO) error {
	if s.authors == nil || len(items) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.AuthorID]; ok || it.AuthorID == uuid.Nil {
			continue
		}
		seen[it.AuthorID] = struct{}{}
		ids = append(ids, it.AuthorID)
	}

	var (
		mu     sync.Mutex
		briefs = make(map[uuid.UUID]*shared.UserBrief, len(ids))
		failed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.enrichLimit)
	for _, id := range ids {
		g.Go(func() error {
			brief, err := s.authors.GetUserBrief(gctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				mu.Lock()
				failed++
				mu.Unlock()
				logger.FromContext(ctx).Debug().Err(err).Str("author_id", id.String()).Msg("author lookup failed")
				return nil
			}
			if brief != nil {
				mu.Lock()
				briefs[id] = brief
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("enrich authors: %w", err)
	}

	if failed > 0 {
		logger.FromContext(ctx).Warn().
			Int("failed", failed).
			Int("authors", len(ids)).
			Msg("author enrichment degraded")
	}

	for i := range items {
		if b, ok := briefs[items[i].AuthorID]; ok {
			name, email := b.DisplayName, b.Email
			items[i].AuthorDisplayName = &name
			items[i].AuthorEmail = &email
		}
	}
	return nil
}
