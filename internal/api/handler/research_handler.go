package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/service"
	"campus-portal/backend/pkg/response"
)

// fieldDocuments is the multipart file field for research documents; images use fieldImages.
const fieldDocuments = "documents"

// ResearchHandler research submissions.
type ResearchHandler struct {
	researchSvc service.ResearchService
}

// NewResearchHandler creates a ResearchHandler.
func NewResearchHandler(researchSvc service.ResearchService) *ResearchHandler {
	return &ResearchHandler{researchSvc: researchSvc}
}

// Submit POST /api/v1/research
// multipart: payload (JSON draft), documents[], images[].
func (h *ResearchHandler) Submit(c *gin.Context) {
	sub, ok := readSubmission(c)
	if !ok {
		return
	}

	draft, err := dto.DecodeResearchSubmit(sub.payload)
	if err != nil {
		h.handleResearchError(c, err)
		return
	}
	draft.Documents = sub.files(fieldDocuments)
	draft.Images = sub.files(fieldImages)

	result, err := h.researchSvc.Submit(c.Request.Context(), draft, callerOf(c))
	if err != nil {
		h.handleResearchError(c, err)
		return
	}
	response.Created(c, result)
}

// List GET /api/v1/research
func (h *ResearchHandler) List(c *gin.Context) {
	var req dto.ResearchListRequest
	if !bindQuery(c, &req) {
		return
	}

	list, total, err := h.researchSvc.List(c.Request.Context(), &req, callerOf(c))
	if err != nil {
		h.handleResearchError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Mine GET /api/v1/research/mine
func (h *ResearchHandler) Mine(c *gin.Context) {
	var req dto.PaginationRequest
	if !bindQuery(c, &req) {
		return
	}

	list, total, err := h.researchSvc.Mine(c.Request.Context(), &req, callerOf(c))
	if err != nil {
		h.handleResearchError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get GET /api/v1/research/:id
func (h *ResearchHandler) Get(c *gin.Context) {
	item, err := h.researchSvc.Get(c.Request.Context(), c.Param("id"), callerOf(c))
	if err != nil {
		h.handleResearchError(c, err)
		return
	}
	response.OK(c, item)
}

// Review PUT /api/v1/research/:id/review
func (h *ResearchHandler) Review(c *gin.Context) {
	var req dto.ReviewResearchRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.researchSvc.Review(c.Request.Context(), c.Param("id"), &req, callerOf(c))
	if err != nil {
		h.handleResearchError(c, err)
		return
	}
	response.OK(c, item)
}

// Delete DELETE /api/v1/research/:id
func (h *ResearchHandler) Delete(c *gin.Context) {
	if err := h.researchSvc.SoftDelete(c.Request.Context(), c.Param("id"), callerOf(c)); err != nil {
		h.handleResearchError(c, err)
		return
	}
	response.OK(c, nil)
}

// Restore POST /api/v1/research/:id/restore
func (h *ResearchHandler) Restore(c *gin.Context) {
	if err := h.researchSvc.Restore(c.Request.Context(), c.Param("id"), callerOf(c)); err != nil {
		h.handleResearchError(c, err)
		return
	}
	response.OK(c, nil)
}

// Purge DELETE /api/v1/research/:id/purge
func (h *ResearchHandler) Purge(c *gin.Context) {
	if err := h.researchSvc.Purge(c.Request.Context(), c.Param("id"), callerOf(c)); err != nil {
		h.handleResearchError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *ResearchHandler) handleResearchError(c *gin.Context, err error) {
	if handleCommonError(c, err) || handleStorageError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrResearchNotFound):
		response.NotFound(c, 14001, "research submission not found")
	case errors.Is(err, service.ErrNotDeleted):
		response.Conflict(c, 14004, "delete the submission before purging it")
	case errors.Is(err, service.ErrPurgeNotAllowed):
		response.Forbidden(c, 14005, "only super admins may purge submissions")
	default:
		internalError(c, err)
	}
}
