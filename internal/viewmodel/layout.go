// Package viewmodel holds the page state the templates render. Everything
// here is plain data plus the rules that derive labels and enabled states
// from it, so views can be checked without rendering HTML.
package viewmodel

import (
	"time"

	"github.com/Skotchmaster/quota_portal/internal/flash"
	"github.com/Skotchmaster/quota_portal/internal/models"
)

// Layout captures the shared page chrome.
type Layout struct {
	Title     string
	CSRFToken string
	User      *models.User
	Notice    *flash.Notice
}

// AuthPage backs the login and register forms. Password is never echoed.
type AuthPage struct {
	Layout
	Name  string
	Email string
	Role  models.Role
	Error string
}

func (p AuthPage) RoleSelected(r models.Role) bool {
	if p.Role == "" {
		return r == models.RoleUser
	}
	return p.Role == r
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006, 3:04 PM")
}

// StatusClass is the CSS modifier for a status badge.
func StatusClass(s models.Status) string {
	switch s {
	case models.StatusApproved:
		return "approved"
	case models.StatusRejected:
		return "rejected"
	default:
		return "pending"
	}
}
