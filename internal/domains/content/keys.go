package content

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	CacheKeyPrefix = "contents:"
	KeyListPrefix  = CacheKeyPrefix + "list:"
	KeySlugPrefix  = CacheKeyPrefix + "slug:"
	keyIDPrefix    = CacheKeyPrefix + "id:"
)

func KeyByID(id uuid.UUID) string {
	return keyIDPrefix + id.String()
}

func KeyBySlug(slug string) string {
	return KeySlugPrefix + strings.ToLower(strings.TrimSpace(slug))
}

// KeyList nhận tham số đã normalize; authorID rỗng khi không lọc
func KeyList(page, pageSize int, search string, status Status, authorID uuid.UUID) string {
	author := ""
	if authorID != uuid.Nil {
		author = authorID.String()
	}
	return fmt.Sprintf("%sp%d:s%d:st%s:a%s:q%s", KeyListPrefix, page, pageSize, status, author, search)
}
