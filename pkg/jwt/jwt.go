package jwt

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	MinKeyLength     = 32
	DefaultClockSkew = 30 * time.Second

	TokenTypeUser    = "user"
	TokenTypeService = "service"
)

var (
	ErrKeyTooShort    = fmt.Errorf("jwt signing key must be at least %d bytes", MinKeyLength)
	ErrMissingIssuer  = errors.New("jwt issuer is required")
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token subject is required")
)

// reserved claims không cho phép extra claims ghi đè
var reservedClaims = []string{"iss", "aud", "sub", "exp", "nbf", "iat", "jti", "typ"}

// Claims represents JWT claims structure
type Claims struct {
	Email string   `json:"email,omitempty"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
	Scope string   `json:"scope,omitempty"`
	Type  string   `json:"typ,omitempty"` // "user" or "service"
	jwt.RegisteredClaims
}

// HasRole reports whether the token carries any of the given roles.
func (c *Claims) HasRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(c.Roles, r) {
			return true
		}
	}
	return false
}

// HasScope checks the space separated scope claim.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(strings.Fields(c.Scope), scope)
}

// Options cấu hình Manager
type Options struct {
	Key             string
	Issuer          string
	Audience        string
	AccessTokenTTL  time.Duration
	ServiceTokenTTL time.Duration
	ClockSkew       time.Duration
	Now             func() time.Time
}

// Issued là token đã ký kèm thời điểm hết hạn
type Issued struct {
	Token     string
	ExpiresAt time.Time
}

// ExpiresIn trả về số giây còn lại tính từ now
func (i Issued) ExpiresIn(now time.Time) int64 {
	return int64(i.ExpiresAt.Sub(now).Seconds())
}

// Manager handles JWT operations
type Manager struct {
	key    []byte
	opts   Options
	parser *jwt.Parser
}

// NewManager creates new JWT manager.
// Thiếu key hoặc key ngắn hơn 32 bytes là lỗi cấu hình lúc khởi động.
func NewManager(opts Options) (*Manager, error) {
	if len(opts.Key) < MinKeyLength {
		return nil, ErrKeyTooShort
	}
	if opts.Issuer == "" {
		return nil, ErrMissingIssuer
	}
	if opts.AccessTokenTTL <= 0 {
		opts.AccessTokenTTL = time.Hour
	}
	if opts.ServiceTokenTTL <= 0 {
		opts.ServiceTokenTTL = opts.AccessTokenTTL
	}
	if opts.ClockSkew <= 0 {
		opts.ClockSkew = DefaultClockSkew
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(opts.Issuer),
		jwt.WithLeeway(opts.ClockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(opts.Now),
	}
	if opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience))
	}

	return &Manager{
		key:    []byte(opts.Key),
		opts:   opts,
		parser: jwt.NewParser(parserOpts...),
	}, nil
}

func (m *Manager) registered(subject string, ttl time.Duration) (jwt.RegisteredClaims, time.Time) {
	now := m.opts.Now()
	exp := now.Add(ttl)
	rc := jwt.RegisteredClaims{
		Issuer:    m.opts.Issuer,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	if m.opts.Audience != "" {
		rc.Audience = jwt.ClaimStrings{m.opts.Audience}
	}
	return rc, exp
}

// IssueUserToken ký access token cho user. ttl <= 0 dùng AccessTokenTTL.
func (m *Manager) IssueUserToken(userID, email, displayName string, roles []string, ttl time.Duration) (Issued, error) {
	if userID == "" {
		return Issued{}, ErrMissingSubject
	}
	if ttl <= 0 {
		ttl = m.opts.AccessTokenTTL
	}

	rc, exp := m.registered(userID, ttl)
	claims := Claims{
		Email:            email,
		Name:             displayName,
		Roles:            roles,
		Type:             TokenTypeUser,
		RegisteredClaims: rc,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return Issued{}, fmt.Errorf("sign user token: %w", err)
	}
	return Issued{Token: signed, ExpiresAt: exp}, nil
}

// IssueServiceToken ký machine-to-machine token. extra claims (vd "scope",
// "roles") được merge vào payload, không được ghi đè registered claims.
func (m *Manager) IssueServiceToken(subject string, extra map[string]any, ttl time.Duration) (Issued, error) {
	if subject == "" {
		return Issued{}, ErrMissingSubject
	}
	if ttl <= 0 {
		ttl = m.opts.ServiceTokenTTL
	}

	rc, exp := m.registered(subject, ttl)
	claims := jwt.MapClaims{}
	for k, v := range extra {
		if slices.Contains(reservedClaims, k) {
			continue
		}
		claims[k] = v
	}
	claims["iss"] = rc.Issuer
	claims["sub"] = rc.Subject
	claims["exp"] = rc.ExpiresAt
	claims["nbf"] = rc.NotBefore
	claims["iat"] = rc.IssuedAt
	claims["typ"] = TokenTypeService
	if len(rc.Audience) > 0 {
		claims["aud"] = rc.Audience
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return Issued{}, fmt.Errorf("sign service token: %w", err)
	}
	return Issued{Token: signed, ExpiresAt: exp}, nil
}

// ValidateToken validates signature, issuer, audience, exp/nbf (với clock skew) và parse claims
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := m.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
