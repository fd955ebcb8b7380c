package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/quota_portal/internal/models"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		snap     Snapshot
		required models.Role
		want     Decision
	}{
		{name: "no token, user view", snap: Snapshot{}, required: models.RoleUser, want: RedirectTo(PathLogin)},
		{name: "no token, admin view", snap: Snapshot{Role: models.RoleAdmin}, required: models.RoleAdmin, want: RedirectTo(PathLogin)},
		{name: "no token, open view", snap: Snapshot{}, required: "", want: RedirectTo(PathLogin)},
		{name: "token, no role required", snap: Snapshot{Token: "t", Role: models.RoleUser}, required: "", want: Allow()},
		{name: "user on dashboard", snap: Snapshot{Token: "t", Role: models.RoleUser}, required: models.RoleUser, want: Allow()},
		{name: "admin on admin", snap: Snapshot{Token: "t", Role: models.RoleAdmin}, required: models.RoleAdmin, want: Allow()},
		{name: "user on admin", snap: Snapshot{Token: "t", Role: models.RoleUser}, required: models.RoleAdmin, want: RedirectTo(PathDashboard)},
		{name: "admin on dashboard", snap: Snapshot{Token: "t", Role: models.RoleAdmin}, required: models.RoleUser, want: RedirectTo(PathAdmin)},
		{name: "token without profile", snap: Snapshot{Token: "t"}, required: models.RoleAdmin, want: RedirectTo(PathDashboard)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Decide(tt.snap, tt.required))
		})
	}
}

func TestHome(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PathAdmin, Home(models.RoleAdmin))
	assert.Equal(t, PathDashboard, Home(models.RoleUser))
	assert.Equal(t, PathDashboard, Home(""))
}
