package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/service"
	pkgerrors "campus-portal/backend/pkg/errors"
	"campus-portal/backend/pkg/response"
)

// Multipart file fields of the event endpoints.
const (
	fieldImages    = "images"
	fieldBrochures = "brochures"
)

// EventHandler events calendar.
type EventHandler struct {
	eventSvc service.EventService
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(eventSvc service.EventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

// ListEvents GET /api/v1/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	var req dto.EventListRequest
	if !bindQuery(c, &req) {
		return
	}

	events, total, err := h.eventSvc.List(c.Request.Context(), &req, callerOf(c))
	if err != nil {
		h.handleEventError(c, err)
		return
	}
	response.OKPage(c, events, total, req.GetPage(), req.GetPageSize())
}

// GetEvent GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.eventSvc.Get(c.Request.Context(), c.Param("id"), callerOf(c))
	if err != nil {
		h.handleEventError(c, err)
		return
	}
	response.OK(c, event)
}

// CreateEvent POST /api/v1/events
// multipart: payload (JSON draft), images[], brochures[]; a bare JSON body works without files.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	sub, ok := readSubmission(c)
	if !ok {
		return
	}

	draft, err := dto.DecodeEventCreate(sub.payload)
	if err != nil {
		h.handleEventError(c, err)
		return
	}
	draft.Images = sub.files(fieldImages)
	draft.Brochures = sub.files(fieldBrochures)

	event, err := h.eventSvc.Create(c.Request.Context(), draft, callerOf(c))
	if err != nil {
		h.handleEventError(c, err)
		return
	}
	response.Created(c, event)
}

// UpdateEvent PUT /api/v1/events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	var req dto.UpdateEventRequest
	if !bindJSON(c, &req) {
		return
	}

	event, err := h.eventSvc.Update(c.Request.Context(), c.Param("id"), &req, callerOf(c))
	if err != nil {
		h.handleEventError(c, err)
		return
	}
	response.OK(c, event)
}

// UploadMedia POST /api/v1/events/:id/media
func (h *EventHandler) UploadMedia(c *gin.Context) {
	sub, ok := readFiles(c)
	if !ok {
		return
	}

	media, err := h.eventSvc.UploadMedia(c.Request.Context(), c.Param("id"),
		sub.files(fieldImages), sub.files(fieldBrochures), callerOf(c))
	if err != nil {
		h.handleEventError(c, err)
		return
	}
	response.OK(c, media)
}

// DeleteEvent DELETE /api/v1/events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	if err := h.eventSvc.SoftDelete(c.Request.Context(), c.Param("id"), callerOf(c)); err != nil {
		h.handleEventError(c, err)
		return
	}
	response.OK(c, nil)
}

// RestoreEvent POST /api/v1/events/:id/restore
func (h *EventHandler) RestoreEvent(c *gin.Context) {
	if err := h.eventSvc.Restore(c.Request.Context(), c.Param("id"), callerOf(c)); err != nil {
		h.handleEventError(c, err)
		return
	}
	response.OK(c, nil)
}

// PurgeEvent DELETE /api/v1/events/:id/purge
func (h *EventHandler) PurgeEvent(c *gin.Context) {
	if err := h.eventSvc.Purge(c.Request.Context(), c.Param("id"), callerOf(c)); err != nil {
		h.handleEventError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListDeleted GET /api/v1/events/deleted
func (h *EventHandler) ListDeleted(c *gin.Context) {
	var req dto.PaginationRequest
	if !bindQuery(c, &req) {
		return
	}

	events, total, err := h.eventSvc.ListDeleted(c.Request.Context(), &req)
	if err != nil {
		h.handleEventError(c, err)
		return
	}
	response.OKPage(c, events, total, req.GetPage(), req.GetPageSize())
}

func (h *EventHandler) handleEventError(c *gin.Context, err error) {
	if handleCommonError(c, err) || handleStorageError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 13001, "event not found")
	case errors.Is(err, service.ErrEventDateOrder):
		response.BadRequest(c, 13002, "end date must not be before start date")
	case errors.Is(err, service.ErrNoMediaFiles):
		response.BadRequest(c, 13003, "attach at least one image or brochure")
	case errors.Is(err, service.ErrNotDeleted):
		response.Conflict(c, 13004, "delete the event before purging it")
	case errors.Is(err, service.ErrPurgeNotAllowed):
		response.Forbidden(c, 13005, "only super admins may purge events")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 13006, pkgerrors.ErrOptimisticLock.Error())
	default:
		internalError(c, err)
	}
}
