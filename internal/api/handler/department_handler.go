package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/service"
	pkgerrors "campus-portal/backend/pkg/errors"
	"campus-portal/backend/pkg/response"
)

// CatalogHandler departments and the courses they offer.
type CatalogHandler struct {
	deptSvc   service.DepartmentService
	courseSvc service.CourseService
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(deptSvc service.DepartmentService, courseSvc service.CourseService) *CatalogHandler {
	return &CatalogHandler{deptSvc: deptSvc, courseSvc: courseSvc}
}

// ── departments ──

// ListDepartments GET /api/v1/departments
func (h *CatalogHandler) ListDepartments(c *gin.Context) {
	depts, err := h.deptSvc.List(c.Request.Context())
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, gin.H{"list": depts})
}

// GetDepartment GET /api/v1/departments/:id
func (h *CatalogHandler) GetDepartment(c *gin.Context) {
	dept, err := h.deptSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, dept)
}

// CreateDepartment POST /api/v1/departments
func (h *CatalogHandler) CreateDepartment(c *gin.Context) {
	var req dto.CreateDepartmentRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	dept, err := h.deptSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.Created(c, dept)
}

// UpdateDepartment PUT /api/v1/departments/:id
func (h *CatalogHandler) UpdateDepartment(c *gin.Context) {
	var req dto.UpdateDepartmentRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	dept, err := h.deptSvc.Update(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, dept)
}

// DeleteDepartment DELETE /api/v1/departments/:id
func (h *CatalogHandler) DeleteDepartment(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if err := h.deptSvc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── courses ──

// ListCourses GET /api/v1/courses
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	var req dto.CourseListRequest
	if !bindQuery(c, &req) {
		return
	}
	courses, err := h.courseSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, gin.H{"list": courses})
}

// GetCourse GET /api/v1/courses/:id
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.courseSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, course)
}

// CreateCourse POST /api/v1/courses
func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.Created(c, course)
}

// UpdateCourse PUT /api/v1/courses/:id
func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	var req dto.UpdateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, course)
}

// DeleteCourse DELETE /api/v1/courses/:id
func (h *CatalogHandler) DeleteCourse(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if err := h.courseSvc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *CatalogHandler) handleCatalogError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, 18001, "department not found")
	case errors.Is(err, service.ErrDepartmentCodeExists):
		response.Conflict(c, 18002, "department code already exists")
	case errors.Is(err, service.ErrDepartmentHasCourses):
		response.Conflict(c, 18003, "remove the department's courses first")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 18004, "course not found")
	case errors.Is(err, service.ErrCourseCodeExists):
		response.Conflict(c, 18005, "course code already exists in this department")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 18006, pkgerrors.ErrOptimisticLock.Error())
	default:
		internalError(c, err)
	}
}
