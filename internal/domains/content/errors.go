package content

import "cms-backend/pkg/apperror"

var (
	ErrContentNotFound = apperror.NotFound("content not found")

	// hết số lần thử suffix mà slug vẫn trùng
	ErrSlugAlreadyExists = apperror.Conflict("slug already exists")
)
