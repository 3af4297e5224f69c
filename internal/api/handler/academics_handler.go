package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/service"
	"campus-portal/backend/pkg/response"
)

// icsField is the multipart field of an uploaded calendar.
const icsField = "file"

// AcademicsHandler syllabus reviews, attendance and timetables.
type AcademicsHandler struct {
	syllabusSvc   service.SyllabusService
	attendanceSvc service.AttendanceService
	timetableSvc  service.TimetableService
}

// NewAcademicsHandler creates an AcademicsHandler.
func NewAcademicsHandler(syllabusSvc service.SyllabusService, attendanceSvc service.AttendanceService, timetableSvc service.TimetableService) *AcademicsHandler {
	return &AcademicsHandler{syllabusSvc: syllabusSvc, attendanceSvc: attendanceSvc, timetableSvc: timetableSvc}
}

// ── syllabus reviews ──

// SubmitReview POST /api/v1/syllabus-reviews
func (h *AcademicsHandler) SubmitReview(c *gin.Context) {
	var req dto.SubmitSyllabusReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.syllabusSvc.Submit(c.Request.Context(), &req, callerOf(c))
	if err != nil {
		h.handleAcademicsError(c, err)
		return
	}
	response.Created(c, review)
}

// ListReviews GET /api/v1/syllabus-reviews
func (h *AcademicsHandler) ListReviews(c *gin.Context) {
	var req dto.SyllabusReviewFilter
	if !bindQuery(c, &req) {
		return
	}

	reviews, total, err := h.syllabusSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleAcademicsError(c, err)
		return
	}
	response.OKPage(c, reviews, total, req.GetPage(), req.GetPageSize())
}

// ReviewSummary GET /api/v1/syllabus-reviews/summary
func (h *AcademicsHandler) ReviewSummary(c *gin.Context) {
	var req dto.SyllabusReviewFilter
	if !bindQuery(c, &req) {
		return
	}

	summary, err := h.syllabusSvc.Summary(c.Request.Context(), &req)
	if err != nil {
		h.handleAcademicsError(c, err)
		return
	}
	response.OK(c, gin.H{"list": summary})
}

// ExportReviews GET /api/v1/syllabus-reviews/export
func (h *AcademicsHandler) ExportReviews(c *gin.Context) {
	var req dto.SyllabusReviewFilter
	if !bindQuery(c, &req) {
		return
	}

	buf, filename, err := h.syllabusSvc.Export(c.Request.Context(), &req)
	if err != nil {
		h.handleAcademicsError(c, err)
		return
	}
	sendSpreadsheet(c, buf.Bytes(), filename)
}

// ── attendance ──

// RecordAttendance POST /api/v1/attendance
func (h *AcademicsHandler) RecordAttendance(c *gin.Context) {
	var req dto.RecordAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.attendanceSvc.Record(c.Request.Context(), &req, callerOf(c))
	if err != nil {
		h.handleAcademicsError(c, err)
		return
	}
	response.OK(c, result)
}

// ListAttendance GET /api/v1/attendance
func (h *AcademicsHandler) ListAttendance(c *gin.Context) {
	var req dto.AttendanceListRequest
	if !bindQuery(c, &req) {
		return
	}

	records, total, err := h.attendanceSvc.List(c.Request.Context(), &req, callerOf(c))
	if err != nil {
		h.handleAcademicsError(c, err)
		return
	}
	response.OKPage(c, records, total, req.GetPage(), req.GetPageSize())
}

// AttendanceSummary GET /api/v1/attendance/summary
func (h *AcademicsHandler) AttendanceSummary(c *gin.Context) {
	var req dto.AttendanceListRequest
	if !bindQuery(c, &req) {
		return
	}

	summary, err := h.attendanceSvc.Summary(c.Request.Context(), &req, callerOf(c))
	if err != nil {
		h.handleAcademicsError(c, err)
		return
	}
	response.OK(c, gin.H{"list": summary})
}

// ExportAttendance GET /api/v1/attendance/export
func (h *AcademicsHandler) ExportAttendance(c *gin.Context) {
	var req dto.AttendanceListRequest
	if !bindQuery(c, &req) {
		return
	}

	buf, filename, err := h.attendanceSvc.Export(c.Request.Context(), &req)
	if err != nil {
		h.handleAcademicsError(c, err)
		return
	}
	sendSpreadsheet(c, buf.Bytes(), filename)
}

// ── timetables ──

// ImportTimetable POST /api/v1/timetables/import
// Form fields describe the section and term; the calendar is the "file" part or the url field.
func (h *AcademicsHandler) ImportTimetable(c *gin.Context) {
	var req dto.ImportTimetableRequest
	if err := c.ShouldBind(&req); err != nil {
		bindFailed(c, err)
		return
	}

	var calendar io.Reader
	fh, err := c.FormFile(icsField)
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			internalError(c, err)
			return
		}
		defer f.Close()
		calendar = f
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		bindFailed(c, err)
		return
	}

	result, err := h.timetableSvc.ImportICS(c.Request.Context(), calendar, &req)
	if err != nil {
		h.handleAcademicsError(c, err)
		return
	}
	response.OK(c, result)
}

// ListTimetable GET /api/v1/timetables
func (h *AcademicsHandler) ListTimetable(c *gin.Context) {
	var req dto.TimetableListRequest
	if !bindQuery(c, &req) {
		return
	}

	entries, err := h.timetableSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleAcademicsError(c, err)
		return
	}
	response.OK(c, gin.H{"list": entries})
}

func (h *AcademicsHandler) handleAcademicsError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrNoRollNumber):
		response.Forbidden(c, 16001, service.ErrNoRollNumber.Error())
	case errors.Is(err, service.ErrTimetableICSParseFailed):
		response.BadRequest(c, 17001, service.ErrTimetableICSParseFailed.Error())
	case errors.Is(err, service.ErrTimetableICSEmpty):
		response.Error(c, http.StatusUnprocessableEntity, 17002, service.ErrTimetableICSEmpty.Error())
	case errors.Is(err, service.ErrTimetableICSFetchFailed):
		response.Error(c, http.StatusBadGateway, 17003, service.ErrTimetableICSFetchFailed.Error())
	case errors.Is(err, service.ErrTimetableTermOrder):
		response.BadRequest(c, 17004, service.ErrTimetableTermOrder.Error())
	case errors.Is(err, service.ErrTimetableNoSource):
		response.BadRequest(c, 17005, service.ErrTimetableNoSource.Error())
	default:
		internalError(c, err)
	}
}
