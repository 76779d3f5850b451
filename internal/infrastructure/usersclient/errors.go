package usersclient

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	opBrief = "brief"
	opLogin = "login"
)

// StatusError là response không thành công từ user service
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("users service %s: unexpected status %d", e.Op, e.Code)
}

// transportError: không nhận được response (connection refused, timeout...)
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "users service transport: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// isTransient quyết định có retry không: lỗi transport, 5xx và 408.
// 401 khi đọc brief cũng retry vì token đã được làm mới.
func isTransient(err error) bool {
	var te *transportError
	if errors.As(err, &te) {
		return true
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code >= http.StatusInternalServerError:
			return true
		case se.Code == http.StatusRequestTimeout:
			return true
		case se.Code == http.StatusUnauthorized && se.Op == opBrief:
			return true
		}
	}
	return false
}
