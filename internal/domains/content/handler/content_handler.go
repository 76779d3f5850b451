package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cms-backend/internal/domains/content"
	"cms-backend/internal/shared/middleware"
	"cms-backend/internal/shared/response"
)

// ContentHandler xử lý HTTP requests cho content domain
type ContentHandler struct {
	service content.Service
}

func NewContentHandler(service content.Service) *ContentHandler {
	return &ContentHandler{service: service}
}

// List xử lý GET /contents?page&pageSize&search&status&authorId
func (h *ContentHandler) List(c *gin.Context) {
	var q content.ListContentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "query", "page and pageSize must be integers")
		return
	}

	res, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Get xử lý GET /contents/:id
func (h *ContentHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	res, err := h.service.Get(c.Request.Context(), content.GetContentQuery{ID: id})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// GetBySlug xử lý GET /contents/by-slug/:slug
func (h *ContentHandler) GetBySlug(c *gin.Context) {
	res, err := h.service.GetBySlug(c.Request.Context(), content.GetContentBySlugQuery{Slug: c.Param("slug")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Create xử lý POST /contents.
// Không gửi authorId thì lấy user đang đăng nhập làm tác giả.
func (h *ContentHandler) Create(c *gin.Context) {
	var req content.CreateContentRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.AuthorID == uuid.Nil {
		if claims, ok := middleware.ClaimsFrom(c); ok {
			if sub, err := uuid.Parse(claims.Subject); err == nil {
				req.AuthorID = sub
			}
		}
	}

	res, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "/api/v1/contents/"+res.ID.String(), res)
}

// Update xử lý PUT /contents/:id
func (h *ContentHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req content.UpdateContentRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = id

	res, err := h.service.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Delete xử lý DELETE /contents/:id
func (h *ContentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), content.DeleteContentRequest{ID: id}); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "id", "invalid id format")
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "body", "invalid request body")
		return false
	}
	return true
}
