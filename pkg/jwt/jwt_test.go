package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T, now func() time.Time) *Manager {
	t.Helper()
	m, err := NewManager(Options{
		Key:            testKey,
		Issuer:         "cms-users",
		Audience:       "cms-clients",
		AccessTokenTTL: 15 * time.Minute,
		Now:            now,
	})
	require.NoError(t, err)
	return m
}

func TestNewManager_RejectsShortKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"31 bytes", strings.Repeat("k", 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(Options{Key: tt.key, Issuer: "x"})
			assert.ErrorIs(t, err, ErrKeyTooShort)
		})
	}

	_, err := NewManager(Options{Key: strings.Repeat("k", 32), Issuer: "x"})
	assert.NoError(t, err)
}

func TestIssueUserToken_RoundTrip(t *testing.T) {
	m := newTestManager(t, nil)

	issued, err := m.IssueUserToken("user-1", "admin@cms.local", "Admin", []string{"Admin", "Editor"}, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), issued.ExpiresAt, 2*time.Second)

	claims, err := m.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "admin@cms.local", claims.Email)
	assert.Equal(t, "Admin", claims.Name)
	assert.Equal(t, TokenTypeUser, claims.Type)
	assert.True(t, claims.HasRole("Editor"))
	assert.False(t, claims.HasRole("Service"))
	assert.Equal(t, jwt.ClaimStrings{"cms-clients"}, claims.Audience)
}

func TestIssueUserToken_TTLOverride(t *testing.T) {
	m := newTestManager(t, nil)

	issued, err := m.IssueUserToken("user-1", "a@b.c", "A", nil, 2*time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Minute), issued.ExpiresAt, 2*time.Second)
}

func TestIssueServiceToken_ExtraClaims(t *testing.T) {
	m := newTestManager(t, nil)

	issued, err := m.IssueServiceToken("content-service", map[string]any{
		"scope": "s2s:users.read",
		"roles": []string{"Service"},
		"iss":   "someone-else",
	}, 0)
	require.NoError(t, err)

	claims, err := m.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "content-service", claims.Subject)
	assert.Equal(t, "cms-users", claims.Issuer)
	assert.Equal(t, TokenTypeService, claims.Type)
	assert.True(t, claims.HasScope("s2s:users.read"))
	assert.True(t, claims.HasRole("Service"))
}

func TestValidateToken_Rejects(t *testing.T) {
	base := time.Now()
	m := newTestManager(t, func() time.Time { return base })

	issued, err := m.IssueUserToken("user-1", "a@b.c", "A", nil, time.Minute)
	require.NoError(t, err)

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewManager(Options{Key: testKey, Issuer: "other", Audience: "cms-clients"})
		require.NoError(t, err)
		_, err = other.ValidateToken(issued.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other, err := NewManager(Options{Key: testKey, Issuer: "cms-users", Audience: "somebody"})
		require.NoError(t, err)
		_, err = other.ValidateToken(issued.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := NewManager(Options{Key: strings.Repeat("z", 32), Issuer: "cms-users", Audience: "cms-clients"})
		require.NoError(t, err)
		_, err = other.ValidateToken(issued.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered", func(t *testing.T) {
		_, err := m.ValidateToken(issued.Token + "x")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("alg none", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"iss": "cms-users", "aud": "cms-clients", "sub": "x",
			"exp": base.Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.ValidateToken(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestValidateToken_ClockSkew(t *testing.T) {
	issuedAt := time.Now()
	now := issuedAt
	m := newTestManager(t, func() time.Time { return now })

	issued, err := m.IssueUserToken("user-1", "a@b.c", "A", nil, time.Minute)
	require.NoError(t, err)

	// trong leeway 30s sau exp vẫn hợp lệ
	now = issuedAt.Add(time.Minute + 20*time.Second)
	_, err = m.ValidateToken(issued.Token)
	assert.NoError(t, err)

	now = issuedAt.Add(time.Minute + 45*time.Second)
	_, err = m.ValidateToken(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// nbf lệch đồng hồ nhỏ hơn 30s được chấp nhận
	now = issuedAt.Add(-20 * time.Second)
	_, err = m.ValidateToken(issued.Token)
	assert.NoError(t, err)
}
