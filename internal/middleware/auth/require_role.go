package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quota_portal/internal/guard"
	"github.com/Skotchmaster/quota_portal/internal/logging"
	"github.com/Skotchmaster/quota_portal/internal/models"
)

// RequireRole gates a route group. An empty role admits any signed-in
// session. Denied navigations get a 303 to the guard's target.
func RequireRole(role models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap, err := SessionFrom(c).Snapshot(c.Request().Context())
			if err != nil {
				logging.FromContext(c.Request().Context()).Error("session_load_failed", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
			}

			d := guard.Decide(snap, role)
			if !d.Allow {
				return c.Redirect(http.StatusSeeOther, d.Redirect)
			}
			return next(c)
		}
	}
}

// RedirectIfAuthenticated sends signed-in visitors of the login and
// register pages to their home view.
func RedirectIfAuthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap, err := SessionFrom(c).Snapshot(c.Request().Context())
		if err == nil && snap.Token != "" {
			return c.Redirect(http.StatusSeeOther, guard.Home(snap.Role))
		}
		return next(c)
	}
}
