package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cms-backend/internal/domains/user"
	"cms-backend/internal/shared"
	"cms-backend/pkg/database"
	"cms-backend/pkg/jwt"
	"cms-backend/pkg/logger"
	"cms-backend/pkg/pipeline"
)

const DefaultBcryptCost = 12

// TokenIssuer là phần của jwt.Manager mà login cần
type TokenIssuer interface {
	IssueUserToken(userID, email, displayName string, roles []string, ttl time.Duration) (jwt.Issued, error)
}

type Option func(*userService)

// WithBcryptCost: tests dùng bcrypt.MinCost cho nhanh
func WithBcryptCost(cost int) Option {
	return func(s *userService) { s.bcryptCost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(s *userService) { s.now = now }
}

// userService implement user.Service. Mỗi use case là một pipeline.Handler
// đã được bọc validation/cache/invalidation khi khởi tạo.
type userService struct {
	repo       user.Repository
	uow        database.UnitOfWork
	tokens     TokenIssuer
	bcryptCost int
	now        func() time.Time

	// hash giả để login với email không tồn tại tốn thời gian như email đúng
	dummyHash []byte

	login    pipeline.Handler[user.LoginRequest, *user.LoginResponse]
	create   pipeline.Handler[user.CreateUserRequest, *user.UserDTO]
	update   pipeline.Handler[user.UpdateUserRequest, *user.UserDTO]
	remove   pipeline.Handler[user.DeleteUserRequest, struct{}]
	get      pipeline.Handler[user.GetUserQuery, *user.UserDTO]
	getBrief pipeline.Handler[user.GetUserBriefQuery, *shared.UserBrief]
	list     pipeline.Handler[user.ListUsersQuery, *shared.Paged[user.UserDTO]]
}

func NewUserService(repo user.Repository, uow database.UnitOfWork, tokens TokenIssuer, p *pipeline.Pipeline, opts ...Option) (user.Service, error) {
	s := &userService{
		repo:       repo,
		uow:        uow,
		tokens:     tokens,
		bcryptCost: DefaultBcryptCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	s.dummyHash = dummy

	s.login = pipeline.Send(p, s.handleLogin)
	s.create = pipeline.Command(p, s.handleCreate)
	s.update = pipeline.Command(p, s.handleUpdate)
	s.remove = pipeline.Command(p, s.handleDelete)
	s.get = pipeline.Query(p, s.handleGet)
	s.getBrief = pipeline.Query(p, s.handleGetBrief)
	s.list = pipeline.Query(p, s.handleList)
	return s, nil
}

func (s *userService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	return s.login(ctx, req)
}

func (s *userService) Create(ctx context.Context, req user.CreateUserRequest) (*user.UserDTO, error) {
	return s.create(ctx, req)
}

func (s *userService) Update(ctx context.Context, req user.UpdateUserRequest) (*user.UserDTO, error) {
	return s.update(ctx, req)
}

func (s *userService) Delete(ctx context.Context, req user.DeleteUserRequest) error {
	_, err := s.remove(ctx, req)
	return err
}

func (s *userService) Get(ctx context.Context, req user.GetUserQuery) (*user.UserDTO, error) {
	return s.get(ctx, req)
}

func (s *userService) GetBrief(ctx context.Context, req user.GetUserBriefQuery) (*shared.UserBrief, error) {
	return s.getBrief(ctx, req)
}

func (s *userService) List(ctx context.Context, req user.ListUsersQuery) (*shared.Paged[user.UserDTO], error) {
	return s.list(ctx, req)
}

// ========================================
// AUTHENTICATION
// ========================================

func (s *userService) handleLogin(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	u, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			return nil, fmt.Errorf("find user by email: %w", err)
		}
		// vẫn chạy bcrypt để không lộ email nào tồn tại qua thời gian phản hồi
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		return nil, user.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		logger.FromContext(ctx).Info().Str("user_id", u.ID.String()).Msg("login failed: wrong password")
		return nil, user.ErrInvalidCredentials
	}

	issued, err := s.tokens.IssueUserToken(u.ID.String(), u.Email, u.DisplayName, u.Roles, 0)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &user.LoginResponse{
		AccessToken: issued.Token,
		TokenType:   "Bearer",
		ExpiresIn:   issued.ExpiresIn(s.now()),
	}, nil
}

// ========================================
// COMMANDS
// ========================================

func (s *userService) handleCreate(ctx context.Context, req user.CreateUserRequest) (*user.UserDTO, error) {
	email := strings.TrimSpace(req.Email)

	// fast path; unique index ux_users_email mới là đảm bảo thật sự
	exists, err := s.repo.ExistsByEmail(ctx, email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, user.ErrEmailAlreadyExists
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Roles:        user.NormalizeRoles(req.Roles),
		CreatedAt:    s.now().UTC(),
	}

	if err := s.uow.Do(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, u)
	}); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().Str("user_id", u.ID.String()).Msg("user created")
	dto := u.ToDTO()
	return &dto, nil
}

func (s *userService) handleUpdate(ctx context.Context, req user.UpdateUserRequest) (*user.UserDTO, error) {
	var newHash string
	if req.Password.Set {
		h, err := s.hashPassword(req.Password.Value)
		if err != nil {
			return nil, err
		}
		newHash = h
	}

	var updated *user.User
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		u, err := s.repo.FindByID(ctx, req.ID)
		if err != nil {
			return err
		}

		if req.Email.Set {
			email := strings.TrimSpace(req.Email.Value)
			if !strings.EqualFold(email, u.Email) {
				exists, err := s.repo.ExistsByEmail(ctx, email, u.ID)
				if err != nil {
					return err
				}
				if exists {
					return user.ErrEmailAlreadyExists
				}
			}
			u.Email = email
		}
		if req.DisplayName.Set {
			u.DisplayName = strings.TrimSpace(req.DisplayName.Value)
		}
		if req.Roles.Set {
			u.Roles = user.NormalizeRoles(req.Roles.Value)
		}
		if req.Password.Set {
			u.PasswordHash = newHash
		}

		if err := s.repo.Update(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := updated.ToDTO()
	return &dto, nil
}

func (s *userService) handleDelete(ctx context.Context, req user.DeleteUserRequest) (struct{}, error) {
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, req.ID)
	})
	if err != nil {
		return struct{}{}, err
	}
	logger.FromContext(ctx).Info().Str("user_id", req.ID.String()).Msg("user deleted")
	return struct{}{}, nil
}

// ========================================
// QUERIES
// ========================================

func (s *userService) handleGet(ctx context.Context, q user.GetUserQuery) (*user.UserDTO, error) {
	u, err := s.repo.FindByID(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	dto := u.ToDTO()
	return &dto, nil
}

func (s *userService) handleGetBrief(ctx context.Context, q user.GetUserBriefQuery) (*shared.UserBrief, error) {
	u, err := s.repo.FindByID(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	brief := u.ToBrief()
	return &brief, nil
}

func (s *userService) handleList(ctx context.Context, q user.ListUsersQuery) (*shared.Paged[user.UserDTO], error) {
	q = q.Normalized()

	users, total, err := s.repo.List(ctx, user.ListFilter{
		Search: q.Search,
		Offset: shared.Offset(q.Page, q.PageSize),
		Limit:  q.PageSize,
	})
	if err != nil {
		return nil, err
	}

	items := make([]user.UserDTO, len(users))
	for i := range users {
		items[i] = users[i].ToDTO()
	}
	paged := shared.NewPaged(items, q.Page, q.PageSize, total)
	return &paged, nil
}

func (s *userService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
