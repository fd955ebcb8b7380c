package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/quota_portal/internal/apiclient"
	"github.com/Skotchmaster/quota_portal/internal/audit"
	"github.com/Skotchmaster/quota_portal/internal/flash"
	"github.com/Skotchmaster/quota_portal/internal/models"
	"github.com/Skotchmaster/quota_portal/internal/util"
	"github.com/Skotchmaster/quota_portal/internal/viewmodel"
	"github.com/Skotchmaster/quota_portal/internal/web"
)

// Admin renders the admin dashboard. The active tab's data and the full
// request list for the pending badge are fetched on every load; on the
// requests tab one fetch serves both.
func (h *Handler) Admin(c echo.Context) error {
	tab := viewmodel.ParseTab(c.QueryParam("tab"))
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	api := h.client(c)
	ctx := c.Request().Context()

	var (
		g        errgroup.Group
		all      []models.Request
		badgeErr error
		users    []models.User
		reports  []models.Report
	)
	g.Go(func() error {
		all, badgeErr = api.GetAllRequests(ctx)
		if tab == viewmodel.TabRequests {
			return badgeErr
		}
		return nil
	})
	switch tab {
	case viewmodel.TabUsers:
		g.Go(func() error {
			var err error
			users, err = api.GetAllUsers(ctx)
			return err
		})
	case viewmodel.TabReports:
		g.Go(func() error {
			var err error
			reports, err = api.GetReports(ctx)
			return err
		})
	}
	// badge failures stay local; only the active tab's error fails the page
	tabErr := g.Wait()

	if apiclient.IsUnauthorized(tabErr) || apiclient.IsUnauthorized(badgeErr) {
		return h.expired(c)
	}

	l, err := h.layout(c, "Admin Dashboard")
	if err != nil {
		return err
	}
	vm := viewmodel.AdminDashboard{Layout: l, Tab: tab}

	pending := 0
	if badgeErr != nil {
		logger(c).Warn("pending_count_failed", "error", badgeErr)
	} else {
		pending = viewmodel.PendingCount(all)
	}
	vm.Tabs = viewmodel.Tabs(tab, pending)

	if tabErr != nil {
		logger(c).Error("admin_fetch_failed", "tab", tab, "error", tabErr)
		vm.Error = msgFetchFailed
		return c.Render(http.StatusOK, web.PageAdmin, vm)
	}

	switch tab {
	case viewmodel.TabUsers:
		rows, pager := viewmodel.Paginate(viewmodel.UserRows(users), tab, page, size)
		vm.Users, vm.Pager = rows, pager
	case viewmodel.TabRequests:
		rows, pager := viewmodel.Paginate(viewmodel.AdminRequestRows(all), tab, page, size)
		vm.Requests, vm.Pager = rows, pager
	case viewmodel.TabReports:
		vm.Reports = viewmodel.ReportCards(reports)
	}
	return c.Render(http.StatusOK, web.PageAdmin, vm)
}

// UpdateQuota sets a user's quota limit. Anything but a non-negative
// integer is rejected before the API is called.
func (h *Handler) UpdateQuota(c echo.Context) error {
	id := c.Param("id")
	back := adminTabPath(viewmodel.TabUsers)

	raw := strings.TrimSpace(c.FormValue("quotaLimit"))
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return h.redirect(c, back, flash.Error("Quota limit must be a whole number of 0 or more"))
	}

	res, err := h.client(c).UpdateUserQuota(c.Request().Context(), id, limit)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return h.expired(c)
		}
		logger(c).Info("update_quota_failed", "user_id", id, "error", err)
		return h.redirect(c, back, flash.Error(apiclient.Message(err, "Failed to update quota")))
	}

	h.publish(c, audit.Event{Type: audit.EventQuotaUpdated, Subject: id, Detail: strconv.Itoa(limit)})
	return h.redirect(c, back, flash.Success(res.Message))
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id := c.Param("id")
	back := adminTabPath(viewmodel.TabRequests)

	status := models.Status(strings.ToUpper(strings.TrimSpace(c.FormValue("status"))))
	if !status.Valid() {
		return h.redirect(c, back, flash.Error("Failed to update request status"))
	}

	res, err := h.client(c).UpdateRequestStatus(c.Request().Context(), id, status)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return h.expired(c)
		}
		logger(c).Info("update_status_failed", "request_id", id, "error", err)
		return h.redirect(c, back, flash.Error(apiclient.Message(err, "Failed to update request status")))
	}

	h.publish(c, audit.Event{Type: audit.EventStatusUpdated, Subject: id, Detail: string(status)})
	return h.redirect(c, back, flash.Success(res.Message))
}

func adminTabPath(tab viewmodel.Tab) string {
	return fmt.Sprintf("/admin?tab=%s", tab)
}
