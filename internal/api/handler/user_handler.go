package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/service"
	"campus-portal/backend/pkg/response"
)

// UserHandler admin user management.
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// ListUsers GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if !bindQuery(c, &req) {
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// GetUser GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	response.OK(c, user)
}

// AssignRole PUT /api/v1/users/:id/role
func (h *UserHandler) AssignRole(c *gin.Context) {
	var req dto.AssignRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userSvc.AssignRole(c.Request.Context(), c.Param("id"), &req, callerOf(c))
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	response.OK(c, user)
}

// DeleteUser DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userSvc.Delete(c.Request.Context(), c.Param("id"), callerOf(c)); err != nil {
		h.handleUserError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "user not found")
	case errors.Is(err, service.ErrUserSelfRoleChange):
		response.BadRequest(c, 12002, "you cannot change your own role")
	case errors.Is(err, service.ErrUserSelfDelete):
		response.BadRequest(c, 12003, "you cannot delete your own account")
	case errors.Is(err, service.ErrInvalidRole):
		response.BadRequest(c, 12004, "role must be admin, faculty or student")
	default:
		internalError(c, err)
	}
}
