package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cms-backend/internal/domains/user"
)

// memoryRepository dùng cho STORE_DRIVER=memory và unit tests.
// Email được so sánh theo lowercase giống citext.
type memoryRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]user.User
}

func NewMemoryRepository() user.Repository {
	return &memoryRepository{users: make(map[uuid.UUID]user.User)}
}

func (r *memoryRepository) Create(ctx context.Context, u *user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(u.Email, uuid.Nil) {
		return user.ErrEmailAlreadyExists
	}
	r.users[u.ID] = clone(*u)
	return nil
}

func (r *memoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	out := clone(u)
	return &out, nil
}

func (r *memoryRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			out := clone(u)
			return &out, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *memoryRepository) ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.emailTaken(email, excludeID), nil
}

func (r *memoryRepository) Update(ctx context.Context, u *user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.ID]
	if !ok {
		return user.ErrUserNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return user.ErrEmailAlreadyExists
	}
	updated := clone(*u)
	updated.CreatedAt = existing.CreatedAt
	r.users[u.ID] = updated
	return nil
}

func (r *memoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return user.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryRepository) List(ctx context.Context, f user.ListFilter) ([]user.User, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	matched := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		if f.Search != "" &&
			!strings.Contains(strings.ToLower(u.Email), f.Search) &&
			!strings.Contains(strings.ToLower(u.DisplayName), f.Search) {
			continue
		}
		matched = append(matched, clone(u))
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
		return []user.User{}, total, nil
	}
	end := len(matched)
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

// emailTaken phải được gọi khi đang giữ lock
func (r *memoryRepository) emailTaken(email string, excludeID uuid.UUID) bool {
	for id, u := range r.users {
		if id != excludeID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func clone(u user.User) user.User {
	u.Roles = append([]string{}, u.Roles...)
	return u
}
