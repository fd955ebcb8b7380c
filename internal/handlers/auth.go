package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quota_portal/internal/apiclient"
	"github.com/Skotchmaster/quota_portal/internal/audit"
	"github.com/Skotchmaster/quota_portal/internal/flash"
	"github.com/Skotchmaster/quota_portal/internal/guard"
	"github.com/Skotchmaster/quota_portal/internal/middleware/auth"
	"github.com/Skotchmaster/quota_portal/internal/models"
	"github.com/Skotchmaster/quota_portal/internal/session"
	"github.com/Skotchmaster/quota_portal/internal/viewmodel"
	"github.com/Skotchmaster/quota_portal/internal/web"
)

func (h *Handler) Root(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, guard.PathLogin)
}

func (h *Handler) LoginPage(c echo.Context) error {
	return h.renderAuth(c, web.PageLogin, viewmodel.AuthPage{})
}

func (h *Handler) RegisterPage(c echo.Context) error {
	return h.renderAuth(c, web.PageRegister, viewmodel.AuthPage{})
}

func (h *Handler) Login(c echo.Context) error {
	in := models.LoginInput{
		Email:    strings.TrimSpace(c.FormValue("email")),
		Password: c.FormValue("password"),
	}

	res, err := h.API.Login(c.Request().Context(), in)
	if err != nil {
		logger(c).Info("login_failed", "email", in.Email, "error", err)
		return h.renderAuth(c, web.PageLogin, viewmodel.AuthPage{
			Email: in.Email,
			Error: apiclient.Message(err, "Login failed"),
		})
	}

	if err := h.startSession(c, res); err != nil {
		return err
	}
	h.publish(c, audit.Event{Type: audit.EventLogin, Actor: res.User.Email, Subject: res.User.ID})
	return c.Redirect(http.StatusSeeOther, guard.Home(res.User.Role))
}

func (h *Handler) Register(c echo.Context) error {
	in := models.RegisterInput{
		Name:     strings.TrimSpace(c.FormValue("name")),
		Email:    strings.TrimSpace(c.FormValue("email")),
		Password: c.FormValue("password"),
		Role:     models.Role(c.FormValue("role")),
	}
	if !in.Role.Valid() {
		in.Role = models.RoleUser
	}

	res, err := h.API.Register(c.Request().Context(), in)
	if err != nil {
		logger(c).Info("register_failed", "email", in.Email, "error", err)
		return h.renderAuth(c, web.PageRegister, viewmodel.AuthPage{
			Name:  in.Name,
			Email: in.Email,
			Role:  in.Role,
			Error: apiclient.Message(err, "Registration failed"),
		})
	}

	if err := h.startSession(c, res); err != nil {
		return err
	}
	h.publish(c, audit.Event{Type: audit.EventRegister, Actor: res.User.Email, Subject: res.User.ID, Detail: string(res.User.Role)})
	return c.Redirect(http.StatusSeeOther, guard.Home(res.User.Role))
}

func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	s := auth.SessionFrom(c)

	var actor string
	if u, err := s.User(ctx); err == nil && u != nil {
		actor = u.Email
	}
	if err := s.Clear(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to sign out").SetInternal(err)
	}
	c.SetCookie(session.DeleteCookie(h.CookieSecure))

	if actor != "" {
		h.publish(c, audit.Event{Type: audit.EventLogout, Actor: actor})
	}
	return h.redirect(c, guard.PathLogin, flash.Success("You have been signed out."))
}

// startSession stores the issued token under a fresh session id. Any
// previous session of this browser is dropped.
func (h *Handler) startSession(c echo.Context, res *models.AuthResponse) error {
	ctx := c.Request().Context()
	if err := auth.SessionFrom(c).Clear(ctx); err != nil {
		logger(c).Warn("session_clear_failed", "error", err)
	}

	s := session.New(h.Sessions, session.NewID())
	if err := s.Set(ctx, res.Token, res.User); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to start session").SetInternal(err)
	}
	c.SetCookie(session.CreateCookie(s.ID(), h.CookieSecure))
	auth.SetSession(c, s)
	return nil
}

func (h *Handler) renderAuth(c echo.Context, page string, data viewmodel.AuthPage) error {
	title := "Sign In"
	if page == web.PageRegister {
		title = "Create Account"
	}
	l, err := h.layout(c, title)
	if err != nil {
		return err
	}
	data.Layout = l
	return c.Render(http.StatusOK, page, data)
}
