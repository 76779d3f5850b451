package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Go   Concurrency -- Patterns  ", "go-concurrency-patterns"},
		{"Nguyễn Nhật Ánh", "nguyen-nhat-anh"},
		{"Đà Nẵng", "da-nang"},
		{"Crème Brûlée!", "creme-brulee"},
		{"C# & .NET 8", "c-net-8"},
		{"!!!", FallbackSlug},
		{"", FallbackSlug},
		{"日本語", FallbackSlug},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := GenerateSlug(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsValidSlug(got))
		})
	}
}

func TestIsValidSlug(t *testing.T) {
	for _, s := range []string{"a", "abc-123", "a-b-c"} {
		assert.True(t, IsValidSlug(s), s)
	}
	for _, s := range []string{"", "-a", "a-", "a--b", "A", "a_b", "a b"} {
		assert.False(t, IsValidSlug(s), s)
	}
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "post", WithSuffix("post", 1))
	assert.Equal(t, "post-2", WithSuffix("post", 2))
}
