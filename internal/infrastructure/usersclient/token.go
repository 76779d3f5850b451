package usersclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cms-backend/pkg/jwt"
	"cms-backend/pkg/logger"
)

// DefaultRefreshBefore: làm mới token sớm hơn expiry một phút
const DefaultRefreshBefore = time.Minute

// Token là machine token cùng thời điểm hết hạn
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenSource lấy token mới, không cache
type TokenSource interface {
	FetchToken(ctx context.Context) (Token, error)
}

// TokenProvider trả token còn hạn cho mỗi request sang user service
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// CachedTokenProvider giữ token trong memory, chỉ một refresh chạy tại một thời điểm.
// Các request khác chờ refresh đó xong rồi dùng lại token mới.
type CachedTokenProvider struct {
	source        TokenSource
	refreshBefore time.Duration
	now           func() time.Time

	// sem size 1 thay cho mutex để caller chờ được theo ctx
	sem     chan struct{}
	current Token
}

var _ TokenProvider = (*CachedTokenProvider)(nil)

func NewCachedTokenProvider(source TokenSource, refreshBefore time.Duration) *CachedTokenProvider {
	if refreshBefore <= 0 {
		refreshBefore = DefaultRefreshBefore
	}
	return &CachedTokenProvider{
		source:        source,
		refreshBefore: refreshBefore,
		now:           time.Now,
		sem:           make(chan struct{}, 1),
	}
}

func (p *CachedTokenProvider) Token(ctx context.Context) (string, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-p.sem }()

	if p.current.Value != "" && p.now().Before(p.current.ExpiresAt.Add(-p.refreshBefore)) {
		return p.current.Value, nil
	}

	tok, err := p.source.FetchToken(ctx)
	if err != nil {
		return "", err
	}
	p.current = tok
	logger.FromContext(ctx).Debug().Time("expires_at", tok.ExpiresAt).Msg("[USERS] service token refreshed")
	return tok.Value, nil
}

// Invalidate bỏ token đang cache, lần gọi Token kế tiếp sẽ refresh
func (p *CachedTokenProvider) Invalidate() {
	p.sem <- struct{}{}
	p.current = Token{}
	<-p.sem
}

// ========================================
// LOGIN MODE
// ========================================

// LoginTokenSource đăng nhập user service bằng service account (POST /api/v1/auth/login)
type LoginTokenSource struct {
	baseURL  string
	email    string
	password string
	http     *http.Client
	now      func() time.Time
}

func NewLoginTokenSource(baseURL, email, password string, httpClient *http.Client) *LoginTokenSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &LoginTokenSource{
		baseURL:  strings.TrimRight(baseURL, "/"),
		email:    email,
		password: password,
		http:     httpClient,
		now:      time.Now,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}

func (s *LoginTokenSource) FetchToken(ctx context.Context) (Token, error) {
	body, err := json.Marshal(loginRequest{Email: s.email, Password: s.password})
	if err != nil {
		return Token{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return Token{}, fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return Token{}, &transportError{err: err}
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return Token{}, &StatusError{Op: opLogin, Code: resp.StatusCode}
	}

	var lr loginResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&lr); err != nil {
		return Token{}, fmt.Errorf("decode login response: %w", err)
	}
	if lr.AccessToken == "" || lr.ExpiresIn <= 0 {
		return Token{}, errors.New("login response without token")
	}

	return Token{
		Value:     lr.AccessToken,
		ExpiresAt: s.now().Add(time.Duration(lr.ExpiresIn) * time.Second),
	}, nil
}

// ========================================
// SIGN MODE
// ========================================

// ServiceTokenIssuer là phần của jwt.Manager dùng để ký token local
type ServiceTokenIssuer interface {
	IssueServiceToken(subject string, extra map[string]any, ttl time.Duration) (jwt.Issued, error)
}

// SignedTokenSource tự ký service token bằng key dùng chung với user service
type SignedTokenSource struct {
	issuer  ServiceTokenIssuer
	subject string
	scope   string
	roles   []string
}

func NewSignedTokenSource(issuer ServiceTokenIssuer, subject, scope string, roles ...string) *SignedTokenSource {
	return &SignedTokenSource{issuer: issuer, subject: subject, scope: scope, roles: roles}
}

func (s *SignedTokenSource) FetchToken(context.Context) (Token, error) {
	extra := map[string]any{}
	if s.scope != "" {
		extra["scope"] = s.scope
	}
	if len(s.roles) > 0 {
		extra["roles"] = s.roles
	}

	issued, err := s.issuer.IssueServiceToken(s.subject, extra, 0)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: issued.Token, ExpiresAt: issued.ExpiresAt}, nil
}
