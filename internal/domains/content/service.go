package content

import (
	"context"

	"github.com/google/uuid"

	"cms-backend/internal/shared"
)

// Service là các use case của content domain, đã đi qua pipeline
type Service interface {
	Create(ctx context.Context, req CreateContentRequest) (*ContentDTO, error)
	Update(ctx context.Context, req UpdateContentRequest) (*ContentDTO, error)
	Delete(ctx context.Context, req DeleteContentRequest) error

	Get(ctx context.Context, req GetContentQuery) (*ContentDTO, error)
	GetBySlug(ctx context.Context, req GetContentBySlugQuery) (*ContentDTO, error)
	List(ctx context.Context, req ListContentsQuery) (*shared.Paged[ContentDTO], error)
}

// AuthorDirectory tra cứu thông tin tác giả từ user service.
// Trả về nil, nil khi user không tồn tại.
type AuthorDirectory interface {
	GetUserBrief(ctx context.Context, id uuid.UUID) (*shared.UserBrief, error)
}
