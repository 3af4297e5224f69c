package dto

// ── users ──

// UserListRequest GET /users.
type UserListRequest struct {
	PaginationRequest
	Role    string `form:"role"    binding:"omitempty,oneof=admin faculty student none"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// UserDetailResponse admin view of a user.
type UserDetailResponse struct {
	UserResponse
	Role         string `json:"role,omitempty"`
	LastSignInAt string `json:"last_sign_in_at,omitempty"`
	CreatedAt    string `json:"created_at"`
}
