package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"campus-portal/backend/internal/api/middleware"
	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/service"
	pkgerrors "campus-portal/backend/pkg/errors"
	"campus-portal/backend/pkg/response"
	"campus-portal/backend/pkg/validation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MustGetUserID returns the authenticated user id. When the auth middleware did not run it
// answers 401 and returns false; callers return immediately in that case.
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.CtxUserID)
	if s == "" {
		response.Unauthorized(c, response.CodeUnauthenticated, "not signed in")
		return "", false
	}
	return s, true
}

// callerOf builds the service caller from what the auth middleware stored. Anonymous requests
// give the zero Caller.
func callerOf(c *gin.Context) service.Caller {
	return service.Caller{
		UserID: c.GetString(middleware.CtxUserID),
		Email:  c.GetString(middleware.CtxEmail),
		Role:   middleware.CurrentRole(c),
	}
}

// bindJSON decodes and validates the body into req, answering 400 with field messages on
// failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		bindFailed(c, err)
		return false
	}
	return true
}

// bindQuery is bindJSON for query parameters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		bindFailed(c, err)
		return false
	}
	return true
}

func bindFailed(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "request body too large")
		return
	}
	response.ValidationFailed(c, validation.Messages(err))
}

// handleCommonError answers the errors every module shares. It returns false when err is
// module specific.
func handleCommonError(c *gin.Context, err error) bool {
	var ve *service.ValidationError
	var fe dto.FieldErrors
	switch {
	case errors.As(err, &ve):
		response.ValidationFailed(c, ve.Fields)
	case errors.As(err, &fe):
		response.ValidationFailed(c, fe)
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, response.CodeForbidden, "operation not permitted")
	case middleware.IsBodyTooLarge(err):
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "request body too large")
	default:
		return false
	}
	return true
}

// internalError records err for the request logger and answers 500.
func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	response.InternalError(c)
}

// sendSpreadsheet writes an xlsx download.
func sendSpreadsheet(c *gin.Context, data []byte, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
