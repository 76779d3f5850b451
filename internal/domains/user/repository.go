package user

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter là tham số đã normalize cho List
type ListFilter struct {
	Search string
	Offset int
	Limit  int
}

// Repository định nghĩa contract cho data access layer.
// Có 2 implementation: postgres (pgx) và memory.
type Repository interface {
	// Create. Returns: ErrEmailAlreadyExists khi vi phạm unique email
	Create(ctx context.Context, u *User) error

	// Returns: ErrUserNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail dùng cho login, so sánh không phân biệt hoa thường.
	// Returns: ErrUserNotFound
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail bỏ qua user có id = excludeID (uuid.Nil để không loại trừ)
	ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)

	// Update ghi đè email, password_hash, display_name, roles.
	// Returns: ErrUserNotFound, ErrEmailAlreadyExists
	Update(ctx context.Context, u *User) error

	// Returns: ErrUserNotFound
	Delete(ctx context.Context, id uuid.UUID) error

	// List sắp xếp theo created_at DESC, trả về items và tổng số bản ghi khớp filter
	List(ctx context.Context, f ListFilter) ([]User, int64, error)
}
