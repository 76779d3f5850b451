package user

import (
	"fmt"

	"github.com/google/uuid"
)

// Cache key scheme. Mọi key đều bắt đầu bằng CacheKeyPrefix để invalidate theo nhóm.
const (
	CacheKeyPrefix = "users:"
	KeyListPrefix  = CacheKeyPrefix + "list:"
	keyIDPrefix    = CacheKeyPrefix + "id:"
	keyBriefPrefix = CacheKeyPrefix + "brief:"
)

func KeyByID(id uuid.UUID) string {
	return keyIDPrefix + id.String()
}

func KeyBrief(id uuid.UUID) string {
	return keyBriefPrefix + id.String()
}

// KeyList nhận tham số đã normalize
func KeyList(page, pageSize int, search string) string {
	return fmt.Sprintf("%sp%d:s%d:q%s", KeyListPrefix, page, pageSize, search)
}
