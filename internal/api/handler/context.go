package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/dashboard-roles/internal/api/middleware"
	"github.com/99minutos/dashboard-roles/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Auth middleware. A missing
// subject means the middleware did not run; reject with 401.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, _ := c.Get(middleware.IdentityKey).(domain.Identity)
	if id.Subject == "" {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}
