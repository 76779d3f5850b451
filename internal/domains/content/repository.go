package content

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter đã được normalize bởi service
type ListFilter struct {
	Search   string
	Status   Status
	AuthorID uuid.UUID
	Offset   int
	Limit    int
}

// Repository là data access của content (postgres hoặc memory)
type Repository interface {
	// Create. Returns: ErrSlugAlreadyExists khi vi phạm unique slug
	Create(ctx context.Context, c *Content) error

	// Returns: ErrContentNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Content, error)

	// FindBySlug so sánh không phân biệt hoa thường. Returns: ErrContentNotFound
	FindBySlug(ctx context.Context, slug string) (*Content, error)

	// SlugExists bỏ qua content có id = excludeID (uuid.Nil để không loại trừ)
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)

	// Update ghi đè title, body, status, slug, updated_at.
	// Returns: ErrContentNotFound, ErrSlugAlreadyExists
	Update(ctx context.Context, c *Content) error

	// Returns: ErrContentNotFound
	Delete(ctx context.Context, id uuid.UUID) error

	// List sắp xếp created_at DESC
	List(ctx context.Context, f ListFilter) ([]Content, int64, error)
}
