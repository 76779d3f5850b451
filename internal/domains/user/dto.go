package user

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"cms-backend/internal/shared"
)

const (
	maxEmailLength       = 256
	minPasswordLength    = 6
	maxPasswordBytes     = 72 // giới hạn của bcrypt, tính theo byte
	maxDisplayNameLength = 200
	maxRoles             = 10
	maxRoleLength        = 50
	maxSearchLength      = 200
)

// UserDTO là shape trả ra API, không có password hash
type UserDTO struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Roles       []string  `json:"roles"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ========================================
// AUTH
// ========================================

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// ========================================
// COMMANDS
// ========================================

type CreateUserRequest struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	DisplayName string   `json:"displayName"`
	Roles       []string `json:"roles"`
}

func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			is.EmailFormat.Error("invalid email format"),
			validation.Length(0, maxEmailLength),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.RuneLength(minPasswordLength, 0),
			passwordBytesRule,
		),
		validation.Field(&r.DisplayName,
			validation.Required.Error("display name is required"),
			validation.Length(0, maxDisplayNameLength),
		),
		validation.Field(&r.Roles, rolesRules()...),
	)
}

func (r CreateUserRequest) InvalidatePrefixes() []string {
	return []string{KeyListPrefix}
}

// UpdateUserRequest là partial update: chỉ field được gửi mới thay đổi.
type UpdateUserRequest struct {
	ID          uuid.UUID                 `json:"-"`
	Email       shared.Optional[string]   `json:"email"`
	Password    shared.Optional[string]   `json:"password"`
	DisplayName shared.Optional[string]   `json:"displayName"`
	Roles       shared.Optional[[]string] `json:"roles"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, shared.RequiredUUID),
		validation.Field(&r.Email, shared.IfSet[string](
			validation.Required.Error("email cannot be empty"),
			is.EmailFormat.Error("invalid email format"),
			validation.Length(0, maxEmailLength),
		)),
		validation.Field(&r.Password, shared.IfSet[string](
			validation.Required.Error("password cannot be empty"),
			validation.RuneLength(minPasswordLength, 0),
			passwordBytesRule,
		)),
		validation.Field(&r.DisplayName, shared.IfSet[string](
			validation.Required.Error("display name cannot be empty"),
			validation.Length(0, maxDisplayNameLength),
		)),
		validation.Field(&r.Roles, shared.IfSet[[]string](rolesRules()...)),
	)
}

func (r UpdateUserRequest) InvalidatePrefixes() []string {
	return []string{KeyListPrefix, KeyByID(r.ID), KeyBrief(r.ID)}
}

var passwordBytesRule = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if len(s) > maxPasswordBytes {
		return errors.New("password must be at most 72 bytes")
	}
	return nil
})

type DeleteUserRequest struct {
	ID uuid.UUID `json:"-"`
}

func (r DeleteUserRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.ID, shared.RequiredUUID))
}

func (r DeleteUserRequest) InvalidatePrefixes() []string {
	return []string{KeyListPrefix, KeyByID(r.ID), KeyBrief(r.ID)}
}

func rolesRules() []validation.Rule {
	return []validation.Rule{
		validation.Length(0, maxRoles).Error("at most 10 roles"),
		validation.Each(validation.Required, validation.Length(1, maxRoleLength)),
	}
}

// ========================================
// QUERIES
// ========================================

type GetUserQuery struct {
	ID uuid.UUID
}

func (q GetUserQuery) Validate() error {
	return validation.ValidateStruct(&q, validation.Field(&q.ID, shared.RequiredUUID))
}

func (q GetUserQuery) CacheKey() string        { return KeyByID(q.ID) }
func (q GetUserQuery) CacheTTL() time.Duration { return 0 }

type GetUserBriefQuery struct {
	ID uuid.UUID
}

func (q GetUserBriefQuery) Validate() error {
	return validation.ValidateStruct(&q, validation.Field(&q.ID, shared.RequiredUUID))
}

func (q GetUserBriefQuery) CacheKey() string        { return KeyBrief(q.ID) }
func (q GetUserBriefQuery) CacheTTL() time.Duration { return 5 * time.Minute }

type ListUsersQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Search   string `form:"search"`
}

func (q ListUsersQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Search, validation.Length(0, maxSearchLength)),
	)
}

// Normalized clamp page/pageSize và chuẩn hóa search
func (q ListUsersQuery) Normalized() ListUsersQuery {
	q.Page, q.PageSize = shared.NormalizePage(q.Page, q.PageSize)
	q.Search = shared.NormalizeSearch(q.Search)
	return q
}

func (q ListUsersQuery) CacheKey() string {
	n := q.Normalized()
	return KeyList(n.Page, n.PageSize, n.Search)
}

func (q ListUsersQuery) CacheTTL() time.Duration { return 30 * time.Second }
