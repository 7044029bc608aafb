package domain

import "errors"

var (
	// ErrProfileNotFound means the profile API has no record for the subject yet.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileUnavailable wraps every other profile API failure.
	ErrProfileUnavailable = errors.New("profile service unavailable")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// Profile is the backend-owned record associating a subject with a role.
type Profile struct {
	Subject string `json:"sub"`
	Role    Role   `json:"role"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Identity is the authenticated caller, as asserted by the identity provider.
type Identity struct {
	Subject string
	Email   string
	Name    string
	// Token is the raw bearer token, forwarded to the profile API.
	Token string
}

// RoleWrite is a pending remote update of a subject's role.
type RoleWrite struct {
	Subject string
	Token   string
	Role    Role
}
