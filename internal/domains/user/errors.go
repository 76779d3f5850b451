package user

import "cms-backend/pkg/apperror"

var (
	// Not Found
	ErrUserNotFound = apperror.NotFound("user not found")

	// Conflict
	ErrEmailAlreadyExists = apperror.Conflict("email already exists")

	// Authentication: không phân biệt email sai hay password sai
	ErrInvalidCredentials = apperror.Unauthorized("invalid email or password")
)
