package viewmodel

import (
	"fmt"

	"github.com/Skotchmaster/quota_portal/internal/models"
	"github.com/Skotchmaster/quota_portal/internal/util"
)

type Tab string

const (
	TabUsers    Tab = "users"
	TabRequests Tab = "requests"
	TabReports  Tab = "reports"
)

// ParseTab maps a query value to a tab, defaulting to users.
func ParseTab(s string) Tab {
	switch Tab(s) {
	case TabRequests:
		return TabRequests
	case TabReports:
		return TabReports
	default:
		return TabUsers
	}
}

type TabLink struct {
	Tab    Tab
	Label  string
	Icon   string
	Href   string
	Active bool
	Badge  int
}

// Tabs builds the tab bar. The pending badge sits on the requests tab
// whatever tab is active.
func Tabs(active Tab, pending int) []TabLink {
	links := []TabLink{
		{Tab: TabUsers, Label: "Manage Users", Icon: "fa-users"},
		{Tab: TabRequests, Label: "Requests", Icon: "fa-tasks", Badge: pending},
		{Tab: TabReports, Label: "Usage Reports", Icon: "fa-chart-bar"},
	}
	for i := range links {
		links[i].Href = "/admin?tab=" + string(links[i].Tab)
		links[i].Active = links[i].Tab == active
	}
	return links
}

func PendingCount(reqs []models.Request) int {
	n := 0
	for _, r := range reqs {
		if r.Status == models.StatusPending {
			n++
		}
	}
	return n
}

type StatusAction struct {
	Status models.Status
	Label  string
	Icon   string
	Class  string
}

// ActionsFor lists the controls an admin gets for a request row.
func ActionsFor(s models.Status) []StatusAction {
	out := []StatusAction{}
	for _, to := range s.Transitions() {
		switch to {
		case models.StatusApproved:
			out = append(out, StatusAction{Status: to, Label: "Approve", Icon: "fa-check", Class: "btn-success"})
		case models.StatusRejected:
			out = append(out, StatusAction{Status: to, Label: "Reject", Icon: "fa-times", Class: "btn-danger"})
		case models.StatusPending:
			out = append(out, StatusAction{Status: to, Label: "Reset", Icon: "fa-undo", Class: "btn-secondary"})
		}
	}
	return out
}

type UserRow struct {
	models.User
	Remaining int
}

type AdminRequestRow struct {
	models.Request
	OwnerName   string
	OwnerEmail  string
	Created     string
	StatusClass string
	Actions     []StatusAction
}

func AdminRequestRows(reqs []models.Request) []AdminRequestRow {
	rows := make([]AdminRequestRow, 0, len(reqs))
	for _, r := range reqs {
		row := AdminRequestRow{
			Request:     r,
			OwnerName:   "Unknown",
			Created:     FormatDate(r.CreatedAt),
			StatusClass: StatusClass(r.Status),
			Actions:     ActionsFor(r.Status),
		}
		if r.User != nil {
			if r.User.Name != "" {
				row.OwnerName = r.User.Name
			}
			row.OwnerEmail = r.User.Email
		}
		rows = append(rows, row)
	}
	return rows
}

func UserRows(users []models.User) []UserRow {
	rows := make([]UserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, UserRow{User: u, Remaining: u.Remaining()})
	}
	return rows
}

type ReportCard struct {
	models.Report
	Recent []RequestRow
}

func ReportCards(reports []models.Report) []ReportCard {
	cards := make([]ReportCard, 0, len(reports))
	for _, r := range reports {
		cards = append(cards, ReportCard{Report: r, Recent: RequestRows(r.RecentRequests)})
	}
	return cards
}

type Pager struct {
	Tab   Tab
	Page  int
	Size  int
	Total int
	Pages int
}

func (p Pager) HasPrev() bool { return p.Page > 1 }
func (p Pager) HasNext() bool { return p.Page < p.Pages }
func (p Pager) Show() bool    { return p.Pages > 1 }

func (p Pager) PrevHref() string { return p.href(p.Page - 1) }
func (p Pager) NextHref() string { return p.href(p.Page + 1) }

func (p Pager) href(page int) string {
	return fmt.Sprintf("/admin?tab=%s&page=%d&size=%d", p.Tab, page, p.Size)
}

// Paginate cuts one page out of items. A page past the end shows the
// last page.
func Paginate[T any](items []T, tab Tab, page, size int) ([]T, Pager) {
	_, limit := util.Calculate(1, size)
	total := len(items)
	pages := max((total+limit-1)/limit, 1)
	page = min(max(page, 1), pages)

	from, _ := util.Calculate(page, limit)
	to := min(from+limit, total)
	return items[from:to], Pager{Tab: tab, Page: page, Size: limit, Total: total, Pages: pages}
}

type AdminDashboard struct {
	Layout
	Tab      Tab
	Tabs     []TabLink
	Users    []UserRow
	Requests []AdminRequestRow
	Reports  []ReportCard
	Pager    Pager
	Error    string
}
