package service

import (
	"errors"

	"gorm.io/gorm"

	"campus-portal/backend/internal/access"
)

// Caller identifies who invokes a service method. The zero value is an anonymous visitor.
type Caller struct {
	UserID string
	Email  string
	Role   access.Role
}

// Anonymous reports whether no user is signed in.
func (c Caller) Anonymous() bool { return c.UserID == "" }

// Staff reports whether the caller is admin or faculty.
func (c Caller) Staff() bool { return access.Passes(c.Role, access.Staff) }

// ValidationError carries per-field messages for a request that is well formed but not
// acceptable.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
