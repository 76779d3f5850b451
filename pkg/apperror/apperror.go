package apperror

import (
	"errors"
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Kind phân loại lỗi theo cách HTTP layer cần xử lý
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindTooManyRequests
	KindUpstreamUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failed"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindTooManyRequests:
		return "too_many_requests"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "unexpected"
	}
}

// Error is the single error type crossing layer boundaries.
// Domain packages declare sentinels with the constructors below and
// compare them with errors.Is.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func NotFound(msg string) *Error        { return newError(KindNotFound, msg) }
func Conflict(msg string) *Error        { return newError(KindConflict, msg) }
func Unauthorized(msg string) *Error    { return newError(KindUnauthorized, msg) }
func Forbidden(msg string) *Error       { return newError(KindForbidden, msg) }
func TooManyRequests(msg string) *Error { return newError(KindTooManyRequests, msg) }

// Upstream wraps a failed call to a sibling service.
func Upstream(msg string, cause error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Message: msg, Err: cause}
}

// Validation converts an ozzo-validation result into a ValidationFailed error.
// Nested validation.Errors are flattened with dotted field names.
func Validation(err error) *Error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) && existing.Kind == KindValidation {
		return existing
	}

	fields := make(map[string][]string)
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		flatten("", verrs, fields)
	} else {
		// validation.Internal hoặc lỗi không thuộc field nào
		var internal validation.InternalError
		if errors.As(err, &internal) {
			return &Error{Kind: KindUnexpected, Message: "validation rule failed", Err: err}
		}
		fields[""] = []string{err.Error()}
	}

	return &Error{Kind: KindValidation, Message: "one or more validation errors occurred", Fields: fields}
}

// FieldError builds a ValidationFailed error for a single field.
func FieldError(field, msg string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "one or more validation errors occurred",
		Fields:  map[string][]string{field: {msg}},
	}
}

func flatten(prefix string, errs validation.Errors, out map[string][]string) {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		var nested validation.Errors
		if errors.As(errs[k], &nested) {
			flatten(name, nested, out)
			continue
		}
		out[name] = append(out[name], errs[k].Error())
	}
}

// KindOf returns the Kind of the first *Error in the chain, KindUnexpected otherwise.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
