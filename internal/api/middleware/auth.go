package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-portal/backend/internal/access"
	"campus-portal/backend/pkg/jwt"
	"campus-portal/backend/pkg/response"
)

// Context keys set by the auth middleware.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
	CtxClaims = "claims"
)

// Blacklist reports revoked token ids.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// RoleSource resolves the caller's role for the current request.
type RoleSource interface {
	Resolve(ctx context.Context, userID string) access.Role
}

// JWTAuth requires a valid access token in Authorization: Bearer <token>. A nil blacklist skips
// the revocation check.
func JWTAuth(jwtMgr *jwt.Manager, blacklist Blacklist, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			unauthenticated(c, "missing or malformed Authorization header")
			return
		}
		if !authenticate(c, jwtMgr, blacklist, logger, raw) {
			return
		}
		c.Next()
	}
}

// OptionalAuth authenticates the caller when a token is present and lets anonymous requests
// through. A token that is present but invalid is still rejected.
func OptionalAuth(jwtMgr *jwt.Manager, blacklist Blacklist, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		if !authenticate(c, jwtMgr, blacklist, logger, raw) {
			return
		}
		c.Next()
	}
}

// ResolveRole looks up the authenticated caller's role and stores it under CtxRole. Anonymous
// requests pass through untouched.
func ResolveRole(roles RoleSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := c.GetString(CtxUserID); uid != "" {
			c.Set(CtxRole, roles.Resolve(c.Request.Context(), uid))
		}
		c.Next()
	}
}

// RequireAccess gates the route on req. Anonymous callers get 401 with a redirect to the sign-in
// page that returns here; signed-in callers without the role get 403 with a redirect home.
func RequireAccess(req access.Requirements) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := access.State{Phase: access.PhaseAnonymous}
		if c.GetString(CtxUserID) != "" {
			state = access.State{Phase: access.PhaseAuthenticated, Role: CurrentRole(c)}
		}

		d := access.Decide(state, req, c.Request.URL.RequestURI())
		switch d.Outcome {
		case access.Render:
			c.Next()
		case access.RedirectToAuth:
			response.ErrorWithData(c, http.StatusUnauthorized, response.CodeUnauthenticated,
				"sign in to continue", response.RedirectData{Redirect: d.Location})
			c.Abort()
		default:
			response.ErrorWithData(c, http.StatusForbidden, response.CodeForbidden,
				"you do not have access to this page", response.RedirectData{Redirect: d.Location})
			c.Abort()
		}
	}
}

// CurrentRole returns the role ResolveRole stored, or access.RoleUnresolved.
func CurrentRole(c *gin.Context) access.Role {
	if v, ok := c.Get(CtxRole); ok {
		if r, ok := v.(access.Role); ok {
			return r
		}
	}
	return access.RoleUnresolved
}

// CurrentClaims returns the parsed access token claims, if any.
func CurrentClaims(c *gin.Context) *jwt.Claims {
	if v, ok := c.Get(CtxClaims); ok {
		if claims, ok := v.(*jwt.Claims); ok {
			return claims
		}
	}
	return nil
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func authenticate(c *gin.Context, jwtMgr *jwt.Manager, blacklist Blacklist, logger *zap.Logger, raw string) bool {
	claims, err := jwtMgr.ParseTokenOfType(raw, jwt.TokenTypeAccess)
	if err != nil {
		unauthenticated(c, "token is invalid or expired")
		return false
	}

	if blacklist != nil && claims.ID != "" {
		revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
		if err != nil {
			// revocation store down: accept the token, it still expires on its own
			logger.Warn("blacklist check failed", zap.Error(err))
		} else if revoked {
			unauthenticated(c, "token has been revoked")
			return false
		}
	}

	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxEmail, claims.Email)
	c.Set(CtxClaims, claims)
	return true
}

func unauthenticated(c *gin.Context, msg string) {
	response.ErrorWithData(c, http.StatusUnauthorized, response.CodeUnauthenticated, msg,
		response.RedirectData{Redirect: access.AuthRedirect(c.Request.URL.RequestURI())})
	c.Abort()
}
