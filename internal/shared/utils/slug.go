package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FallbackSlug dùng khi title không sinh ra ký tự hợp lệ nào
const FallbackSlug = "content"

var (
	validSlug       = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
)

// IsValidSlug kiểm tra slug dạng "abc-123"
func IsValidSlug(s string) bool {
	return validSlug.MatchString(s)
}

// GenerateSlug: "Nguyễn Nhật Ánh!" -> "nguyen-nhat-anh", rỗng -> FallbackSlug
func GenerateSlug(input string) string {
	s := strings.ToLower(RemoveDiacritics(input))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return FallbackSlug
	}
	return s
}

// WithSuffix: ("hello", 1) -> "hello", ("hello", 3) -> "hello-3"
func WithSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// RemoveDiacritics tách dấu (NFD) rồi bỏ combining marks.
// đ/Đ không có dạng decomposed nên map tay.
func RemoveDiacritics(input string) string {
	input = strings.NewReplacer("đ", "d", "Đ", "D").Replace(input)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, input)
	if err != nil {
		return input
	}
	return out
}
