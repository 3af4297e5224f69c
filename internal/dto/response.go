package dto

import "campus-portal/backend/internal/access"

// ── auth responses ──

// TokenResponse token pair.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"` // omitted in cookie mode
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // seconds
	User         UserResponse `json:"user"`
}

// SignUpResponse result of a registration.
type SignUpResponse struct {
	ID                   string `json:"id"`
	Email                string `json:"email"`
	VerificationRequired bool   `json:"verification_required"`
}

// UserResponse public view of a user.
type UserResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FullName      string `json:"full_name,omitempty"`
	Department    string `json:"department,omitempty"`
	RollNumber    string `json:"roll_number,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// RoleResponse the caller's resolved role with its capability flags.
type RoleResponse struct {
	Role     string `json:"role"`
	Resolved bool   `json:"resolved"`
	access.Caps
}

// MeResponse GET /auth/me.
type MeResponse struct {
	User UserResponse `json:"user"`
	RoleResponse
}

// NewRoleResponse builds the role view.
func NewRoleResponse(r access.Role) RoleResponse {
	resp := RoleResponse{Resolved: r.Valid(), Caps: access.Capabilities(r)}
	if r.Valid() {
		resp.Role = string(r)
	}
	return resp
}

// ── pagination ──

// PaginationRequest common paging parameters.
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage page number with default.
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize page size with default.
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset row offset.
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
