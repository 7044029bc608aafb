package handler

import "github.com/99minutos/dashboard-roles/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// selectRoleRequest carries the chosen role. Case and surrounding spaces are
// ignored, the value is checked by domain.ParseRole.
type selectRoleRequest struct {
	Role string `json:"role" validate:"required" example:"artist"`
}

type roleStatusResponse struct {
	Role    string `json:"role"`
	State   string `json:"state"`
	Loading bool   `json:"loading"`
}

type navigationResponse struct {
	Role   string `json:"role"`
	Source string `json:"source"`
}

func toRoleStatusResponse(s domain.RoleStatus) roleStatusResponse {
	return roleStatusResponse{
		Role:    string(s.Role),
		State:   string(s.State),
		Loading: s.Loading,
	}
}
