// Package handlers serves the portal's pages and form posts.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quota_portal/internal/apiclient"
	"github.com/Skotchmaster/quota_portal/internal/audit"
	"github.com/Skotchmaster/quota_portal/internal/flash"
	"github.com/Skotchmaster/quota_portal/internal/guard"
	"github.com/Skotchmaster/quota_portal/internal/logging"
	"github.com/Skotchmaster/quota_portal/internal/middleware/auth"
	"github.com/Skotchmaster/quota_portal/internal/middleware/csrf"
	"github.com/Skotchmaster/quota_portal/internal/session"
	"github.com/Skotchmaster/quota_portal/internal/viewmodel"
)

const (
	msgSessionExpired = "Your session has expired. Please sign in again."
	msgFetchFailed    = "Failed to fetch data. Please try again."
)

type Handler struct {
	API          *apiclient.Client
	Sessions     session.Store
	Audit        audit.Publisher
	CookieSecure bool
}

// client returns the API client bound to the caller's session token.
func (h *Handler) client(c echo.Context) *apiclient.Client {
	return h.API.WithTokens(auth.SessionFrom(c))
}

func logger(c echo.Context) *slog.Logger {
	return logging.FromContext(c.Request().Context())
}

// layout collects the shared page chrome and consumes the pending notice.
func (h *Handler) layout(c echo.Context, title string) (viewmodel.Layout, error) {
	l := viewmodel.Layout{Title: title, CSRFToken: csrf.Token(c)}

	user, err := auth.SessionFrom(c).User(c.Request().Context())
	if err != nil {
		return l, echo.NewHTTPError(http.StatusInternalServerError, "session unavailable").SetInternal(err)
	}
	l.User = user

	if n, ok := flash.ReadAndClear(c.Response(), c.Request(), h.CookieSecure); ok {
		l.Notice = &n
	}
	return l, nil
}

func (h *Handler) redirect(c echo.Context, path string, notice flash.Notice) error {
	flash.Write(c.Response(), notice, h.CookieSecure)
	return c.Redirect(http.StatusSeeOther, path)
}

// expired ends a session the API no longer accepts and forces a new login.
func (h *Handler) expired(c echo.Context) error {
	if err := auth.SessionFrom(c).Clear(c.Request().Context()); err != nil {
		logger(c).Error("session_clear_failed", "error", err)
	}
	c.SetCookie(session.DeleteCookie(h.CookieSecure))
	logger(c).Info("api_token_rejected")
	return h.redirect(c, guard.PathLogin, flash.Error(msgSessionExpired))
}

func (h *Handler) publish(c echo.Context, ev audit.Event) {
	if ev.Actor == "" {
		if u, err := auth.SessionFrom(c).User(c.Request().Context()); err == nil && u != nil {
			ev.Actor = u.Email
		}
	}
	audit.Emit(c.Request().Context(), h.Audit, logger(c), ev)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
