package dto

// ── auth ──

// SignInRequest email + password sign-in.
type SignInRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignUpRequest self registration. The account starts unverified and without a role.
type SignUpRequest struct {
	Email      string `json:"email"       binding:"required,email,max=255"`
	Password   string `json:"password"    binding:"required,min=8,max=72"`
	FullName   string `json:"full_name"   binding:"omitempty,max=100"`
	Department string `json:"department"  binding:"omitempty,max=100"`
	RollNumber string `json:"roll_number" binding:"omitempty,max=30"`
}

// RefreshTokenRequest refresh token in the body when cookies are not used.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// VerifyEmailRequest the link target of the verification mail.
type VerifyEmailRequest struct {
	Token string `form:"token" binding:"required"`
}

// AssignRoleRequest PUT /users/:id/role.
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin faculty student"`
}
