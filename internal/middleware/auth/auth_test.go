package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/quota_portal/internal/models"
	"github.com/Skotchmaster/quota_portal/internal/session"
)

func newServer(store session.Store) *echo.Echo {
	e := echo.New()
	e.Use(LoadSession(store))
	e.GET("/login", func(c echo.Context) error { return c.String(http.StatusOK, "login") }, RedirectIfAuthenticated)
	e.GET("/dashboard", func(c echo.Context) error { return c.String(http.StatusOK, "dashboard") }, RequireRole(models.RoleUser))
	e.GET("/admin", func(c echo.Context) error { return c.String(http.StatusOK, "admin") }, RequireRole(models.RoleAdmin))
	e.GET("/any", func(c echo.Context) error { return c.String(http.StatusOK, "any") }, RequireRole(""))
	return e
}

func signIn(t *testing.T, store session.Store, role models.Role) string {
	t.Helper()
	id := session.NewID()
	require.NoError(t, session.New(store, id).Set(context.Background(), "tok", models.User{ID: "u1", Role: role}))
	return id
}

func get(e *echo.Echo, path, sid string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(session.CreateCookie(sid, false))
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireRole(t *testing.T) {
	store := session.NewMemoryStore()
	e := newServer(store)
	userSID := signIn(t, store, models.RoleUser)
	adminSID := signIn(t, store, models.RoleAdmin)

	tests := []struct {
		name     string
		path     string
		sid      string
		code     int
		location string
	}{
		{"anonymous dashboard", "/dashboard", "", http.StatusSeeOther, "/login"},
		{"anonymous admin", "/admin", "", http.StatusSeeOther, "/login"},
		{"unknown session", "/dashboard", "missing", http.StatusSeeOther, "/login"},
		{"user dashboard", "/dashboard", userSID, http.StatusOK, ""},
		{"user admin", "/admin", userSID, http.StatusSeeOther, "/dashboard"},
		{"admin admin", "/admin", adminSID, http.StatusOK, ""},
		{"admin dashboard", "/dashboard", adminSID, http.StatusSeeOther, "/admin"},
		{"any role", "/any", userSID, http.StatusOK, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(e, tc.path, tc.sid)
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.location, rec.Header().Get(echo.HeaderLocation))
		})
	}
}

func TestRedirectIfAuthenticated(t *testing.T) {
	store := session.NewMemoryStore()
	e := newServer(store)

	assert.Equal(t, http.StatusOK, get(e, "/login", "").Code)

	rec := get(e, "/login", signIn(t, store, models.RoleAdmin))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get(echo.HeaderLocation))
}

func TestSessionFrom_Outside(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	s := SessionFrom(c)
	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Token)
	assert.NoError(t, s.Clear(context.Background()))
}
