package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"cms-backend/internal/shared"
)

// User là domain entity, ánh xạ 1:1 với bảng users
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"displayName"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasRole so sánh không phân biệt hoa thường
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

func (u *User) ToDTO() UserDTO {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Roles:       roles,
		CreatedAt:   u.CreatedAt,
	}
}

func (u *User) ToBrief() shared.UserBrief {
	return shared.UserBrief{
		ID:          u.ID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
	}
}

// NormalizeRoles bỏ khoảng trắng, role rỗng và role trùng (giữ thứ tự đầu tiên)
func NormalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		k := strings.ToLower(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// NormalizeEmail: email là citext trong DB, lowercase để so sánh ở memory store
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
