package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		timeout      time.Duration
		wantDeadline bool
	}{
		{"sets deadline", 2 * time.Second, true},
		{"disabled", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				deadline time.Time
				ok       bool
			)
			r := gin.New()
			r.Use(RequestTimeout(tt.timeout))
			r.GET("/x", func(c *gin.Context) {
				deadline, ok = c.Request.Context().Deadline()
				c.Status(http.StatusNoContent)
			})

			start := time.Now()
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tt.wantDeadline, ok)
			if tt.wantDeadline {
				assert.WithinDuration(t, start.Add(tt.timeout), deadline, 500*time.Millisecond)
			}
		})
	}
}
