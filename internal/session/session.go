// Package session is the client side of the auth/role gate. A Manager owns the signed-in user
// and role for one client process; a Provider talks to the auth backend.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-portal/backend/internal/access"
)

// Event is an auth state change reported by a Provider.
type Event int

const (
	// EventInitial is delivered once after subscribing, carrying the stored session if any.
	EventInitial Event = iota
	EventSignedIn
	EventSignedOut
	EventTokenRefreshed
)

func (e Event) String() string {
	switch e {
	case EventInitial:
		return "initial"
	case EventSignedIn:
		return "signed_in"
	case EventSignedOut:
		return "signed_out"
	case EventTokenRefreshed:
		return "token_refreshed"
	}
	return "unknown"
}

// User is the identity handle of the signed-in account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a token pair plus its owner.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// SignUpParams registration fields. Only email and password are required.
type SignUpParams struct {
	Email      string
	Password   string
	FullName   string
	Department string
	RollNumber string
}

// Provider is the auth backend. Callbacks registered with OnAuthStateChange may run while the
// provider holds internal locks, so they must never call back into the provider.
type Provider interface {
	// GetSession looks up an existing session.
	GetSession(ctx context.Context) (*Session, error)
	OnAuthStateChange(fn func(Event, *Session)) (unsubscribe func())
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, p SignUpParams) error
	SignOut(ctx context.Context) error
	// LookupRole returns the role assigned to userID. access.RoleUnresolved with a nil error
	// means no assignment.
	LookupRole(ctx context.Context, userID string) (access.Role, error)
}

// ErrNoSession is returned by calls that need a signed-in user.
var ErrNoSession = errors.New("not signed in")

// AuthError is the failure of a sign-in or sign-up. Code and Message come from the server when
// it answered; Err holds the transport error otherwise.
type AuthError struct {
	Op      string
	Status  int
	Code    int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + " failed"
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError is a non-success envelope from the server.
type APIError struct {
	Status  int
	Code    int
	Message string
	Details string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("server answered %d (code %d): %s", e.Status, e.Code, e.Message)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func toAuthError(op string, err error) *AuthError {
	var ae *AuthError
	if errors.As(err, &ae) {
		if ae.Op == "" {
			ae.Op = op
		}
		return ae
	}
	out := &AuthError{Op: op, Err: err}
	var api *APIError
	if errors.As(err, &api) {
		out.Status, out.Code, out.Message = api.Status, api.Code, api.Message
	}
	return out
}
