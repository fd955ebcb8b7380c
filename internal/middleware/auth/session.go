package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quota_portal/internal/session"
)

const ctxSession = "session"

// LoadSession puts the browser's session handle into the echo context. A
// visitor without a session cookie gets an empty handle that reads as
// signed out; no id is minted until login succeeds.
func LoadSession(store session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, _ := session.ReadID(c.Request())
			c.Set(ctxSession, session.New(store, id))
			return next(c)
		}
	}
}

// SessionFrom returns the handle LoadSession stored. Outside the middleware
// it returns an empty signed out session.
func SessionFrom(c echo.Context) *session.Session {
	if s, ok := c.Get(ctxSession).(*session.Session); ok {
		return s
	}
	return session.New(nil, "")
}

// SetSession replaces the handle for the rest of the request, after login
// minted a fresh id.
func SetSession(c echo.Context, s *session.Session) {
	c.Set(ctxSession, s)
}
