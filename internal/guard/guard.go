// Package guard decides whether a session may open a view.
package guard

import "github.com/Skotchmaster/quota_portal/internal/models"

const (
	PathLogin     = "/login"
	PathDashboard = "/dashboard"
	PathAdmin     = "/admin"
)

// Snapshot is the part of a session the guard looks at.
type Snapshot struct {
	Token string
	Role  models.Role
}

// Decision is either Allow or a redirect target.
type Decision struct {
	Allow    bool
	Redirect string
}

func Allow() Decision { return Decision{Allow: true} }

func RedirectTo(path string) Decision { return Decision{Redirect: path} }

// Decide gates a navigation. An empty required role admits any signed-in
// session. It never consults the API: an expired token passes here and
// surfaces on the first API call instead.
func Decide(s Snapshot, required models.Role) Decision {
	if s.Token == "" {
		return RedirectTo(PathLogin)
	}
	if required == "" || s.Role == required {
		return Allow()
	}
	return RedirectTo(Home(s.Role))
}

// Home is the landing page for a role.
func Home(role models.Role) string {
	if role == models.RoleAdmin {
		return PathAdmin
	}
	return PathDashboard
}
