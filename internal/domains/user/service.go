package user

import (
	"context"

	"cms-backend/internal/shared"
)

// Service là các use case của user domain, mỗi method đã đi qua pipeline
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)

	Create(ctx context.Context, req CreateUserRequest) (*UserDTO, error)
	Update(ctx context.Context, req UpdateUserRequest) (*UserDTO, error)
	Delete(ctx context.Context, req DeleteUserRequest) error

	Get(ctx context.Context, req GetUserQuery) (*UserDTO, error)
	GetBrief(ctx context.Context, req GetUserBriefQuery) (*shared.UserBrief, error)
	List(ctx context.Context, req ListUsersQuery) (*shared.Paged[UserDTO], error)
}
