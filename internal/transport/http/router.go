package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quota_portal/internal/handlers"
	"github.com/Skotchmaster/quota_portal/internal/middleware/auth"
	"github.com/Skotchmaster/quota_portal/internal/models"
	"github.com/Skotchmaster/quota_portal/internal/session"
	"github.com/Skotchmaster/quota_portal/internal/web"
)

type Deps struct {
	Handler  *handlers.Handler
	Sessions session.Store
	// Ready reports whether the session backend is reachable.
	Ready func() error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.StaticFS("/static", web.Static())

	e.Use(auth.LoadSession(d.Sessions))
	h := d.Handler

	e.GET("/", h.Root)
	e.GET("/login", h.LoginPage, auth.RedirectIfAuthenticated)
	e.POST("/login", h.Login)
	e.GET("/register", h.RegisterPage, auth.RedirectIfAuthenticated)
	e.POST("/register", h.Register)
	e.POST("/logout", h.Logout)

	dashboard := e.Group("/dashboard", auth.RequireRole(models.RoleUser))

	dashboard.GET("", h.Dashboard)
	dashboard.POST("/requests", h.SubmitRequest)
	dashboard.POST("/requests/:id", h.UpdateRequest)
	dashboard.POST("/requests/:id/delete", h.DeleteRequest)

	admin := e.Group("/admin", auth.RequireRole(models.RoleAdmin))

	admin.GET("", h.Admin)
	admin.POST("/quota/:id", h.UpdateQuota)
	admin.POST("/requests/:id/status", h.UpdateStatus)
}
