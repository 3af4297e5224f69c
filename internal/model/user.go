package model

import "time"

// User account, table users.
type User struct {
	UserID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email         string     `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	FullName      string     `gorm:"type:varchar(100)"                              json:"full_name"`
	Department    string     `gorm:"type:varchar(100)"                              json:"department,omitempty"`
	RollNumber    *string    `gorm:"type:varchar(30)"                               json:"roll_number,omitempty"`
	PasswordHash  string     `gorm:"type:varchar(255);not null"                     json:"-"`
	EmailVerified bool       `gorm:"not null;default:false"                         json:"email_verified"`
	VerifiedAt    *time.Time `                                                      json:"verified_at,omitempty"`
	LastSignInAt  *time.Time `                                                      json:"last_sign_in_at,omitempty"`
	SoftDeleteModel

	RoleAssignment *UserRole `gorm:"foreignKey:UserID;references:UserID" json:"role_assignment,omitempty"`
}

// TableName table name.
func (User) TableName() string { return "users" }

// UserRole role assignment, table user_roles. One row per user; no row means no role.
type UserRole struct {
	UserID     string  `gorm:"type:uuid;primaryKey"        json:"user_id"`
	Role       string  `gorm:"type:varchar(20);not null"   json:"role"`
	AssignedBy *string `gorm:"type:uuid"                   json:"assigned_by,omitempty"`
	BaseModel
}

// TableName table name.
func (UserRole) TableName() string { return "user_roles" }
