package content

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"cms-backend/internal/shared"
	"cms-backend/internal/shared/utils"
)

const (
	maxTitleLength  = 200
	maxSlugLength   = 200
	maxSearchLength = 200
)

// ContentDTO là shape trả ra API. AuthorDisplayName/AuthorEmail lấy từ user
// service và là null khi không lấy được.
type ContentDTO struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	Body              string     `json:"body"`
	AuthorID          uuid.UUID  `json:"authorId"`
	Status            string     `json:"status"`
	Slug              string     `json:"slug"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         *time.Time `json:"updatedAt"`
	AuthorDisplayName *string    `json:"authorDisplayName"`
	AuthorEmail       *string    `json:"authorEmail"`
}

// ========================================
// COMMANDS
// ========================================

type CreateContentRequest struct {
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	AuthorID uuid.UUID `json:"authorId"`
	Slug     string    `json:"slug"`
	Status   string    `json:"status"`
}

func (r CreateContentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.Length(0, maxTitleLength),
		),
		validation.Field(&r.Body, validation.Required.Error("body is required")),
		validation.Field(&r.AuthorID, shared.RequiredUUID),
		validation.Field(&r.Slug, slugRule),
		validation.Field(&r.Status, statusRule),
	)
}

func (r CreateContentRequest) InvalidatePrefixes() []string {
	return []string{KeyListPrefix}
}

// UpdateContentRequest thay toàn bộ title/body/status; slug rỗng nghĩa là giữ nguyên
type UpdateContentRequest struct {
	ID     uuid.UUID `json:"-"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	Status string    `json:"status"`
	Slug   string    `json:"slug"`
}

func (r UpdateContentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, shared.RequiredUUID),
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.Length(0, maxTitleLength),
		),
		validation.Field(&r.Body, validation.Required.Error("body is required")),
		validation.Field(&r.Status, validation.Required.Error("status is required"), statusRule),
		validation.Field(&r.Slug, slugRule),
	)
}

// slug cũ không có trong request nên xóa cả nhóm slug
func (r UpdateContentRequest) InvalidatePrefixes() []string {
	return []string{KeyListPrefix, KeyByID(r.ID), KeySlugPrefix}
}

type DeleteContentRequest struct {
	ID uuid.UUID `json:"-"`
}

func (r DeleteContentRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.ID, shared.RequiredUUID))
}

func (r DeleteContentRequest) InvalidatePrefixes() []string {
	return []string{KeyListPrefix, KeyByID(r.ID), KeySlugPrefix}
}

var slugRule = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if len(s) > maxSlugLength || !utils.IsValidSlug(strings.ToLower(s)) {
		return errors.New("slug must contain only lowercase letters, digits and single dashes")
	}
	return nil
})

var statusRule = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, ok := ParseStatus(s); !ok {
		return errors.New("status must be one of Draft, Published, Archived")
	}
	return nil
})

// ========================================
// QUERIES
// ========================================

type GetContentQuery struct {
	ID uuid.UUID
}

func (q GetContentQuery) Validate() error {
	return validation.ValidateStruct(&q, validation.Field(&q.ID, shared.RequiredUUID))
}

func (q GetContentQuery) CacheKey() string        { return KeyByID(q.ID) }
func (q GetContentQuery) CacheTTL() time.Duration { return 0 }

type GetContentBySlugQuery struct {
	Slug string `json:"slug"`
}

func (q GetContentBySlugQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Slug, validation.Required, validation.Length(0, maxSlugLength)),
	)
}

func (q GetContentBySlugQuery) CacheKey() string        { return KeyBySlug(q.Slug) }
func (q GetContentBySlugQuery) CacheTTL() time.Duration { return 30 * time.Second }

type ListContentsQuery struct {
	Page     int    `form:"page" json:"page"`
	PageSize int    `form:"pageSize" json:"pageSize"`
	Search   string `form:"search" json:"search"`
	Status   string `form:"status" json:"status"`
	AuthorID string `form:"authorId" json:"authorId"`
}

func (q ListContentsQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Search, validation.Length(0, maxSearchLength)),
		validation.Field(&q.Status, statusRule),
		validation.Field(&q.AuthorID, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if s == "" || utils.IsValidUUID(s) {
				return nil
			}
			return errors.New("must be a valid UUID")
		})),
	)
}

// Normalized clamp page/pageSize, chuẩn hóa search và status
func (q ListContentsQuery) Normalized() ListContentsQuery {
	q.Page, q.PageSize = shared.NormalizePage(q.Page, q.PageSize)
	q.Search = shared.NormalizeSearch(q.Search)
	if st, ok := ParseStatus(q.Status); ok {
		q.Status = st.String()
	} else {
		q.Status = ""
	}
	q.AuthorID = strings.ToLower(strings.TrimSpace(q.AuthorID))
	return q
}

// Filter chuyển query đã normalize thành filter cho repository
func (q ListContentsQuery) Filter() ListFilter {
	n := q.Normalized()
	f := ListFilter{
		Search: n.Search,
		Status: Status(n.Status),
		Offset: shared.Offset(n.Page, n.PageSize),
		Limit:  n.PageSize,
	}
	if id, err := uuid.Parse(n.AuthorID); err == nil {
		f.AuthorID = id
	}
	return f
}

func (q ListContentsQuery) CacheKey() string {
	n := q.Normalized()
	f := q.Filter()
	return KeyList(n.Page, n.PageSize, n.Search, f.Status, f.AuthorID)
}

func (q ListContentsQuery) CacheTTL() time.Duration { return 30 * time.Second }
