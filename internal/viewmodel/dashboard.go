package viewmodel

import (
	"net/url"

	"github.com/Skotchmaster/quota_portal/internal/models"
)

type FormMode int

const (
	ModeCreate FormMode = iota
	ModeEdit
)

// RequestForm is the single request draft of the user dashboard. It is in
// create mode when EditingID is empty and in edit mode otherwise.
type RequestForm struct {
	EditingID   string
	Title       string
	Description string
	Remaining   int
}

func CreateForm(remaining int) RequestForm {
	return RequestForm{Remaining: remaining}
}

// EditForm switches to edit mode for r. Only PENDING requests are editable.
func EditForm(r models.Request, remaining int) (RequestForm, bool) {
	if r.Status != models.StatusPending || r.ID == "" {
		return CreateForm(remaining), false
	}
	return RequestForm{
		EditingID:   r.ID,
		Title:       r.Title,
		Description: r.Description,
		Remaining:   remaining,
	}, true
}

// Cancel drops the draft and returns to an empty create form.
func (f RequestForm) Cancel() RequestForm {
	return CreateForm(f.Remaining)
}

func (f RequestForm) Mode() FormMode {
	if f.EditingID != "" {
		return ModeEdit
	}
	return ModeCreate
}

func (f RequestForm) Editing() bool { return f.Mode() == ModeEdit }

func (f RequestForm) Heading() string {
	if f.Editing() {
		return "Edit Request"
	}
	return "Submit New Request"
}

// SubmitDisabled blocks new requests once the quota is used up. Edits do not
// consume quota and stay enabled.
func (f RequestForm) SubmitDisabled() bool {
	return !f.Editing() && f.Remaining <= 0
}

func (f RequestForm) SubmitLabel() string {
	switch {
	case f.Editing():
		return "Update Request"
	case f.Remaining <= 0:
		return "No Quota Available"
	default:
		return "Submit Request"
	}
}

func (f RequestForm) PendingLabel() string {
	if f.Editing() {
		return "Updating..."
	}
	return "Submitting..."
}

func (f RequestForm) Action() string {
	if f.Editing() {
		return "/dashboard/requests/" + url.PathEscape(f.EditingID)
	}
	return "/dashboard/requests"
}

type RequestRow struct {
	models.Request
	CanEdit     bool
	StatusClass string
	Created     string
}

func RequestRows(reqs []models.Request) []RequestRow {
	rows := make([]RequestRow, 0, len(reqs))
	for _, r := range reqs {
		rows = append(rows, RequestRow{
			Request:     r,
			CanEdit:     r.Status == models.StatusPending,
			StatusClass: StatusClass(r.Status),
			Created:     FormatDate(r.CreatedAt),
		})
	}
	return rows
}

// FindRequest looks a request up by id.
func FindRequest(reqs []models.Request, id string) (models.Request, bool) {
	for _, r := range reqs {
		if r.ID == id {
			return r, true
		}
	}
	return models.Request{}, false
}

type UserDashboard struct {
	Layout
	Quota    models.Quota
	Requests []RequestRow
	Form     RequestForm
	Error    string
}

// DeleteConfirm is the explicit confirmation step before a delete.
type DeleteConfirm struct {
	Layout
	RequestID string
	Title     string
	Prompt    string
}

const DeletePrompt = "Are you sure you want to delete this request? Your quota will be refunded."
