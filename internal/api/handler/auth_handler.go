package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"campus-portal/backend/config"
	"campus-portal/backend/internal/api/middleware"
	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/service"
	"campus-portal/backend/pkg/response"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

// AuthHandler sign-in, registration and session endpoints.
type AuthHandler struct {
	authSvc service.AuthService
	roles   service.RoleResolver
	auth    *config.AuthConfig
	mail    *config.MailConfig
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc service.AuthService, roles service.RoleResolver, auth *config.AuthConfig, mail *config.MailConfig) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, roles: roles, auth: auth, mail: mail}
}

// SignIn POST /api/v1/auth/sign-in
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.SignIn(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.issue(c, result)
	response.OK(c, result)
}

// SignUp POST /api/v1/auth/sign-up
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.SignUp(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, result)
}

// VerifyEmail GET /api/v1/auth/verify?token=
// The mail link lands here, so the answer is a redirect to the website rather than JSON.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.redirectVerify(c, "invalid")
		return
	}

	err := h.authSvc.VerifyEmail(c.Request.Context(), req.Token)
	switch {
	case err == nil:
		h.redirectVerify(c, "")
	case errors.Is(err, service.ErrVerificationExpired):
		h.redirectVerify(c, "expired")
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrUserNotFound):
		h.redirectVerify(c, "invalid")
	default:
		_ = c.Error(err)
		h.redirectVerify(c, "failed")
	}
}

// Refresh POST /api/v1/auth/refresh
// The refresh token comes from the body or, for browsers, the HttpOnly cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	_ = c.ShouldBindJSON(&req)

	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(refreshCookieName)
	}
	if token == "" {
		response.ValidationFailed(c, map[string]string{"refresh_token": "refresh_token is required"})
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), token)
	if err != nil {
		h.clearRefreshCookie(c)
		h.handleAuthError(c, err)
		return
	}

	h.issue(c, result)
	response.OK(c, result)
}

// SignOut POST /api/v1/auth/sign-out
func (h *AuthHandler) SignOut(c *gin.Context) {
	var req dto.RefreshTokenRequest
	_ = c.ShouldBindJSON(&req)

	refresh := req.RefreshToken
	if refresh == "" {
		refresh, _ = c.Cookie(refreshCookieName)
	}

	if err := h.authSvc.SignOut(c.Request.Context(), middleware.CurrentClaims(c), refresh); err != nil {
		internalError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	response.OK(c, nil)
}

// Me GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	me, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, me)
}

// Role GET /api/v1/auth/role
func (h *AuthHandler) Role(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}
	response.OK(c, dto.NewRoleResponse(middleware.CurrentRole(c)))
}

// RefreshRole POST /api/v1/auth/role/refresh
// Drops the cached role so an assignment made elsewhere shows up now.
func (h *AuthHandler) RefreshRole(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	response.OK(c, dto.NewRoleResponse(h.roles.Refresh(c.Request.Context(), userID)))
}

// issue sets the refresh cookie. Browser requests (Origin present) only get the refresh token
// as a cookie; other clients keep it in the body.
func (h *AuthHandler) issue(c *gin.Context, tokens *dto.TokenResponse) {
	if tokens.RefreshToken == "" {
		return
	}
	c.SetSameSite(sameSite(h.auth.Cookie.SameSite))
	c.SetCookie(refreshCookieName, tokens.RefreshToken, int(h.auth.RefreshTokenTTL/time.Second),
		refreshCookiePath, h.auth.Cookie.Domain, h.auth.Cookie.Secure, true)
	if c.GetHeader("Origin") != "" {
		tokens.RefreshToken = ""
	}
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(sameSite(h.auth.Cookie.SameSite))
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, h.auth.Cookie.Domain, h.auth.Cookie.Secure, true)
}

func (h *AuthHandler) redirectVerify(c *gin.Context, problem string) {
	target := h.mail.VerifyRedirect
	if target == "" {
		target = "/"
	}
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	if problem == "" {
		q.Set("verified", "1")
	} else {
		q.Set("verify_error", problem)
	}
	u.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, u.String())
}

func sameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// handleAuthError maps auth module errors.
func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, "email or password is incorrect")
	case errors.Is(err, service.ErrEmailNotVerified):
		response.Forbidden(c, 11002, "verify your email address before signing in")
	case errors.Is(err, service.ErrEmailTaken):
		response.Conflict(c, 11003, "an account with this email already exists")
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(c, 11004, "token is invalid or expired")
	case errors.Is(err, service.ErrTokenRevoked):
		response.Unauthorized(c, 11005, "token has been revoked")
	case errors.Is(err, service.ErrVerificationExpired):
		response.BadRequest(c, 11006, "verification link has expired")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11007, "user not found")
	default:
		internalError(c, err)
	}
}
