package domain

import "strings"

// RoleSource tells where an effective role came from.
type RoleSource string

const (
	SourceSession RoleSource = "session"
	SourcePath    RoleSource = "path"
	SourceNone    RoleSource = "none"
)

var pathRoles = map[string]Role{
	string(RoleArtist):  RoleArtist,
	string(RoleCompany): RoleCompany,
}

// InferRoleFromPath derives a best-effort role from the first segment of a URL
// path: /artist... is artist, /company... is company, anything else is unset.
func InferRoleFromPath(path string) Role {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "/")
	segment, _, _ := strings.Cut(path, "/")
	return pathRoles[segment]
}
