package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/dashboard-roles/internal/core/domain"
	"github.com/99minutos/dashboard-roles/internal/core/ports"
)

// SessionHandler exposes role resolution to the dashboard frontend.
type SessionHandler struct {
	service ports.RoleService
}

func NewSessionHandler(service ports.RoleService) *SessionHandler {
	return &SessionHandler{service: service}
}

// Login resolves the caller's role after the identity provider login completes.
//
// @Summary      Resolve role after login
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  roleStatusResponse
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/session [post]
func (h *SessionHandler) Login(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	status, err := h.service.Resolve(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleStatusResponse(status))
}

// GetRole returns the caller's current role and loading flag.
//
// @Summary      Current role
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  roleStatusResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/session/role [get]
func (h *SessionHandler) GetRole(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleStatusResponse(h.service.Status(id.Subject)))
}

// SelectRole stores the role chosen during onboarding.
//
// @Summary      Select role
// @Tags         session
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      selectRoleRequest  true  "Selected role"
// @Success      200   {object}  roleStatusResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/session/role [put]
func (h *SessionHandler) SelectRole(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req selectRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil || !role.IsSet() {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "role must be one of: artist company")
	}

	status, err := h.service.SelectRole(c.Request().Context(), id, role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleStatusResponse(status))
}

// Logout clears the caller's role state.
//
// @Summary      Logout
// @Tags         session
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /v1/session [delete]
func (h *SessionHandler) Logout(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	if err := h.service.Logout(c.Request().Context(), id.Subject); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Navigation returns the role navigation should render for: the session role
// when known, otherwise the role inferred from the path query parameter.
//
// @Summary      Effective navigation role
// @Tags         navigation
// @Produce      json
// @Security     BearerAuth
// @Param        path  query     string  false  "Current dashboard path (e.g. /artist/jobs)"
// @Success      200   {object}  navigationResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/navigation [get]
func (h *SessionHandler) Navigation(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	role, source := h.service.EffectiveRole(id.Subject, c.QueryParam("path"))
	return c.JSON(http.StatusOK, navigationResponse{Role: string(role), Source: string(source)})
}
