package content

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status của content
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPublished Status = "Published"
	StatusArchived  Status = "Archived"
)

func AllStatuses() []Status {
	return []Status{StatusDraft, StatusPublished, StatusArchived}
}

// ParseStatus không phân biệt hoa thường: "published" -> StatusPublished
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range AllStatuses() {
		if strings.EqualFold(string(st), s) {
			return st, true
		}
	}
	return "", false
}

func (s Status) String() string {
	return string(s)
}

// Content là domain entity, ánh xạ 1:1 với bảng contents.
// AuthorID chỉ là tham chiếu logic sang user service, không có foreign key.
type Content struct {
	ID        uuid.UUID
	Title     string
	Body      string
	AuthorID  uuid.UUID
	Status    Status
	Slug      string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func (c *Content) ToDTO() ContentDTO {
	return ContentDTO{
		ID:        c.ID,
		Title:     c.Title,
		Body:      c.Body,
		AuthorID:  c.AuthorID,
		Status:    c.Status.String(),
		Slug:      c.Slug,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
