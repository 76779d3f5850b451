package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cms-backend/internal/domains/content"
)

// memoryRepository dùng cho STORE_DRIVER=memory và unit tests.
// Slug so sánh theo lowercase giống citext.
type memoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]content.Content
}

func NewMemoryRepository() content.Repository {
	return &memoryRepository{items: make(map[uuid.UUID]content.Content)}
}

func (r *memoryRepository) Create(ctx context.Context, c *content.Content) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slugTaken(c.Slug, uuid.Nil) {
		return content.ErrSlugAlreadyExists
	}
	r.items[c.ID] = clone(*c)
	return nil
}

func (r *memoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	if !ok {
		return nil, content.ErrContentNotFound
	}
	out := clone(c)
	return &out, nil
}

func (r *memoryRepository) FindBySlug(ctx context.Context, slug string) (*content.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.items {
		if strings.EqualFold(c.Slug, slug) {
			out := clone(c)
			return &out, nil
		}
	}
	return nil, content.ErrContentNotFound
}

func (r *memoryRepository) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slugTaken(slug, excludeID), nil
}

func (r *memoryRepository) Update(ctx context.Context, c *content.Content) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[c.ID]
	if !ok {
		return content.ErrContentNotFound
	}
	if r.slugTaken(c.Slug, c.ID) {
		return content.ErrSlugAlreadyExists
	}
	updated := clone(*c)
	updated.AuthorID = existing.AuthorID
	updated.CreatedAt = existing.CreatedAt
	r.items[c.ID] = updated
	return nil
}

func (r *memoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return content.ErrContentNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepository) List(ctx context.Context, f content.ListFilter) ([]content.Content, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	matched := make([]content.Content, 0, len(r.items))
	for _, c := range r.items {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.AuthorID != uuid.Nil && c.AuthorID != f.AuthorID {
			continue
		}
		if f.Search != "" &&
			!strings.Contains(strings.ToLower(c.Title), f.Search) &&
			!strings.Contains(strings.ToLower(c.Slug), f.Search) {
			continue
		}
		matched = append(matched, clone(c))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []content.Content{}, total, nil
	}
	end := len(matched)
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

// slugTaken phải được gọi khi đang giữ lock
func (r *memoryRepository) slugTaken(slug string, excludeID uuid.UUID) bool {
	for id, c := range r.items {
		if id != excludeID && strings.EqualFold(c.Slug, slug) {
			return true
		}
	}
	return false
}

func clone(c content.Content) content.Content {
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		c.UpdatedAt = &t
	}
	return c
}
