package domain

// ResolutionState is the lifecycle position of a session's role.
type ResolutionState string

const (
	StateUnresolved ResolutionState = "unresolved"
	StateLoading    ResolutionState = "loading"
	StateResolved   ResolutionState = "resolved"
)

// RoleStatus is the snapshot handed to consumers of the resolved role.
type RoleStatus struct {
	Role    Role            `json:"role"`
	State   ResolutionState `json:"state"`
	Loading bool            `json:"loading"`
}

// InitialStatus is the status of a session before login and after logout.
func InitialStatus() RoleStatus {
	return RoleStatus{Role: RoleUnset, State: StateUnresolved}
}

func LoadingStatus() RoleStatus {
	return RoleStatus{Role: RoleUnset, State: StateLoading, Loading: true}
}

func ResolvedStatus(r Role) RoleStatus {
	return RoleStatus{Role: r, State: StateResolved}
}
