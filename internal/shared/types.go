package shared

import (
	"math"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage giữ (page-1)*pageSize trong int32 để offset không tràn số
	MaxPage = math.MaxInt32 / MaxPageSize
)

// Paged là envelope chung cho mọi list endpoint
type Paged[T any] struct {
	Items       []T   `json:"items"`
	Page        int   `json:"page"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
	HasPrevious bool  `json:"hasPrevious"`
	HasNext     bool  `json:"hasNext"`
}

// NewPaged tính totalPages/hasPrevious/hasNext từ page đã normalize
func NewPaged[T any](items []T, page, pageSize int, total int64) Paged[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	}
	return Paged[T]{
		Items:       items,
		Page:        page,
		PageSize:    pageSize,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
}

// NormalizePage: page trong [1, MaxPage], pageSize trong [1, MaxPageSize], 0 -> DefaultPageSize
func NormalizePage(page, pageSize int) (int, int) {
	switch {
	case page < 1:
		page = 1
	case page > MaxPage:
		page = MaxPage
	}
	switch {
	case pageSize == 0:
		pageSize = DefaultPageSize
	case pageSize < 1:
		pageSize = 1
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset của page đã normalize
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// NormalizeSearch trim và lowercase search term để cache key ổn định
func NormalizeSearch(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UserBrief là phần tối thiểu của User dùng để enrich content
type UserBrief struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}
