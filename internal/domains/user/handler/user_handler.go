package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cms-backend/internal/domains/user"
	"cms-backend/internal/shared/response"
)

// UserHandler xử lý HTTP requests cho user domain.
// Stateless, chỉ chứa dependencies.
type UserHandler struct {
	service user.Service
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// ========================================
// AUTHENTICATION
// ========================================

// Login xử lý POST /auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// ========================================
// USERS
// ========================================

// List xử lý GET /users?page&pageSize&search
func (h *UserHandler) List(c *gin.Context) {
	var q user.ListUsersQuery
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

// Get xử lý GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	res, err := h.service.Get(c.Request.Context(), user.GetUserQuery{ID: id})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// GetBrief xử lý GET /users/:id/brief (machine-to-machine)
func (h *UserHandler) GetBrief(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	res, err := h.service.GetBrief(c.Request.Context(), user.GetUserBriefQuery{ID: id})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Create xử lý POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var req user.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "/api/v1/users/"+res.ID.String(), res)
}

// Update xử lý PUT /users/:id, chỉ field có trong body mới thay đổi
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req user.UpdateUserRequest
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

// Delete xử lý DELETE /users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), user.DeleteUserRequest{ID: id}); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ========================================
// HELPERS
// ========================================

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
