package domain

import (
	"errors"
	"strings"
)

// Role is the artist/company distinction selected by a dashboard user.
type Role string

const (
	RoleUnset   Role = ""
	RoleArtist  Role = "artist"
	RoleCompany Role = "company"
)

var ErrInvalidRole = errors.New("invalid role")

// ParseRole converts a raw value into a Role. Blank input maps to RoleUnset.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUnset:
		return RoleUnset, nil
	case RoleArtist:
		return RoleArtist, nil
	case RoleCompany:
		return RoleCompany, nil
	}
	return RoleUnset, ErrInvalidRole
}

// IsSet reports whether r is one of the selectable roles.
func (r Role) IsSet() bool {
	return r == RoleArtist || r == RoleCompany
}

func (r Role) String() string {
	if r == RoleUnset {
		return "unset"
	}
	return string(r)
}
