package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cms-backend/internal/shared"
	"cms-backend/pkg/apperror"
	"cms-backend/pkg/logger"
)

const ProblemContentType = "application/problem+json"

// Problem là RFC7807 problem document
type Problem struct {
	Type          string              `json:"type"`
	Title         string              `json:"title"`
	Status        int                 `json:"status"`
	Detail        string              `json:"detail,omitempty"`
	Instance      string              `json:"instance"`
	TraceID       string              `json:"traceId"`
	CorrelationID string              `json:"correlationId"`
	Errors        map[string][]string `json:"errors,omitempty"`
}

var problemTypes = map[int]string{
	http.StatusBadRequest:          "https://tools.ietf.org/html/rfc9110#section-15.5.1",
	http.StatusUnauthorized:        "https://tools.ietf.org/html/rfc9110#section-15.5.2",
	http.StatusForbidden:           "https://tools.ietf.org/html/rfc9110#section-15.5.4",
	http.StatusNotFound:            "https://tools.ietf.org/html/rfc9110#section-15.5.5",
	http.StatusConflict:            "https://tools.ietf.org/html/rfc9110#section-15.5.10",
	http.StatusTooManyRequests:     "https://tools.ietf.org/html/rfc6585#section-4",
	http.StatusInternalServerError: "https://tools.ietf.org/html/rfc9110#section-15.6.1",
	http.StatusServiceUnavailable:  "https://tools.ietf.org/html/rfc9110#section-15.6.4",
}

// StatusFor map error kind -> HTTP status
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindTooManyRequests:
		return http.StatusTooManyRequests
	case apperror.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error là điểm dịch lỗi tập trung: mọi handler đều trả lỗi qua đây.
// Lỗi 500 được log đầy đủ, client chỉ nhận message chung.
func Error(c *gin.Context, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = &apperror.Error{Kind: apperror.KindUnexpected, Err: err}
	}

	status := StatusFor(appErr.Kind)
	detail := appErr.Message
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error().Err(err).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		if appErr.Kind == apperror.KindUnexpected {
			detail = "An unexpected error occurred."
		}
	}

	WriteProblem(c, status, detail, appErr.Fields)
}

// BadRequest cho lỗi bind/parse request body
func BadRequest(c *gin.Context, field, msg string) {
	WriteProblem(c, http.StatusBadRequest, "one or more validation errors occurred", map[string][]string{field: {msg}})
}

// WriteProblem ghi problem document và abort chain
func WriteProblem(c *gin.Context, status int, detail string, fields map[string][]string) {
	p := Problem{
		Type:          problemType(status),
		Title:         http.StatusText(status),
		Status:        status,
		Detail:        detail,
		Instance:      c.Request.URL.Path,
		TraceID:       c.GetString(shared.RequestIDKey),
		CorrelationID: c.GetString(shared.CorrelationIDKey),
		Errors:        fields,
	}
	c.Header("Content-Type", ProblemContentType)
	c.AbortWithStatusJSON(status, p)
}

func problemType(status int) string {
	if t, ok := problemTypes[status]; ok {
		return t
	}
	return "about:blank"
}
