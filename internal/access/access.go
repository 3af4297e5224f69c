// Package access holds the role gate predicates shared by the HTTP middleware and the client
// session manager. Everything here is a pure function of the caller's role.
package access

import (
	"net/url"
	"strings"
)

// Role is the privilege level of an authenticated user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleFaculty Role = "faculty"
	RoleStudent Role = "student"
	// RoleUnresolved is the role of a user whose lookup has not finished, failed, or found no
	// assignment. It passes no requirement.
	RoleUnresolved Role = ""
)

// Paths the gate redirects to.
const (
	AuthPath = "/auth"
	HomePath = "/"
)

// ParseRole accepts the stored role names, case-insensitively.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r.Valid() {
		return r, true
	}
	return RoleUnresolved, false
}

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return true
	}
	return false
}

func (r Role) String() string {
	if r == RoleUnresolved {
		return "unresolved"
	}
	return string(r)
}

// Caps are the capability flags derived from a role.
type Caps struct {
	IsAdmin          bool `json:"is_admin"`
	IsFaculty        bool `json:"is_faculty"`
	IsAdminOrFaculty bool `json:"is_admin_or_faculty"`
}

// Capabilities derives the flags for r.
func Capabilities(r Role) Caps {
	return Caps{
		IsAdmin:          r == RoleAdmin,
		IsFaculty:        r == RoleFaculty,
		IsAdminOrFaculty: r == RoleAdmin || r == RoleFaculty,
	}
}

// Requirements select which capabilities a gate demands. Every flag that is set must pass;
// an empty value admits any authenticated user.
type Requirements struct {
	RequireAdmin          bool
	RequireFaculty        bool
	RequireAdminOrFaculty bool
}

var (
	AdminOnly     = Requirements{RequireAdmin: true}
	FacultyOnly   = Requirements{RequireFaculty: true}
	Staff         = Requirements{RequireAdminOrFaculty: true}
	Authenticated = Requirements{}
)

// Passes is the AND of each specified requirement against r's capabilities.
func Passes(r Role, req Requirements) bool {
	caps := Capabilities(r)
	if req.RequireAdmin && !caps.IsAdmin {
		return false
	}
	if req.RequireFaculty && !caps.IsFaculty {
		return false
	}
	if req.RequireAdminOrFaculty && !caps.IsAdminOrFaculty {
		return false
	}
	return true
}

// Phase is the coarse state of the caller's session.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseAnonymous
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseAnonymous:
		return "anonymous"
	case PhaseAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// State is what the gate needs to know about the caller.
type State struct {
	Phase Phase
	Role  Role
}

// Outcome of a gate decision.
type Outcome int

const (
	ShowLoading Outcome = iota
	RedirectToAuth
	RedirectToHome
	Render
)

func (o Outcome) String() string {
	switch o {
	case ShowLoading:
		return "loading"
	case RedirectToAuth:
		return "redirect_auth"
	case RedirectToHome:
		return "redirect_home"
	case Render:
		return "render"
	}
	return "unknown"
}

// Decision is an Outcome plus the redirect target when there is one.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Decide runs the route gate. from is the location the caller tried to reach; it is kept in
// the auth redirect so sign-in can return there.
func Decide(state State, req Requirements, from string) Decision {
	switch state.Phase {
	case PhaseLoading:
		return Decision{Outcome: ShowLoading}
	case PhaseAnonymous:
		return Decision{Outcome: RedirectToAuth, Location: AuthRedirect(from)}
	}
	if !Passes(state.Role, req) {
		return Decision{Outcome: RedirectToHome, Location: HomePath}
	}
	return Decision{Outcome: Render}
}

// AuthRedirect builds /auth?from=<from>.
func AuthRedirect(from string) string {
	if from == "" || from == AuthPath {
		return AuthPath
	}
	return AuthPath + "?from=" + url.QueryEscape(from)
}

// Conditional returns content when r passes req and otherwise the fallback, which defaults to
// the zero value of T.
func Conditional[T any](r Role, req Requirements, content T, fallback ...T) T {
	if Passes(r, req) {
		return content
	}
	var zero T
	if len(fallback) > 0 {
		return fallback[0]
	}
	return zero
}
