package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/quota_portal/internal/apiclient"
	"github.com/Skotchmaster/quota_portal/internal/audit"
	"github.com/Skotchmaster/quota_portal/internal/flash"
	"github.com/Skotchmaster/quota_portal/internal/guard"
	"github.com/Skotchmaster/quota_portal/internal/models"
	"github.com/Skotchmaster/quota_portal/internal/viewmodel"
	"github.com/Skotchmaster/quota_portal/internal/web"
)

type dashboardData struct {
	quota    models.Quota
	requests []models.Request
}

// loadDashboard fetches quota and request history together. Neither result
// is used unless both calls succeed.
func (h *Handler) loadDashboard(c echo.Context) (dashboardData, error) {
	api := h.client(c)
	g, ctx := errgroup.WithContext(c.Request().Context())

	var (
		quota    *models.Quota
		requests []models.Request
	)
	g.Go(func() error {
		var err error
		quota, err = api.GetMyQuota(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		requests, err = api.GetMyRequests(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return dashboardData{}, err
	}
	return dashboardData{quota: *quota, requests: requests}, nil
}

// Dashboard renders the user's quota, request form and history. ?edit=<id>
// opens the form in edit mode for a PENDING request.
func (h *Handler) Dashboard(c echo.Context) error {
	return h.renderDashboard(c, func(d dashboardData) viewmodel.RequestForm {
		if id := c.QueryParam("edit"); id != "" {
			if r, ok := viewmodel.FindRequest(d.requests, id); ok {
				form, _ := viewmodel.EditForm(r, d.quota.Remaining)
				return form
			}
		}
		return viewmodel.CreateForm(d.quota.Remaining)
	}, "")
}

func (h *Handler) SubmitRequest(c echo.Context) error {
	in := requestInput(c)

	res, err := h.client(c).SubmitRequest(c.Request().Context(), in)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return h.expired(c)
		}
		logger(c).Info("submit_request_failed", "error", err)
		return h.renderDashboard(c, func(d dashboardData) viewmodel.RequestForm {
			f := viewmodel.CreateForm(d.quota.Remaining)
			f.Title, f.Description = in.Title, in.Description
			return f
		}, apiclient.Message(err, "Failed to submit request"))
	}

	h.publish(c, audit.Event{Type: audit.EventRequestCreated, Detail: in.Title})
	return h.redirect(c, guard.PathDashboard, flash.Success(res.Message))
}

func (h *Handler) UpdateRequest(c echo.Context) error {
	id := c.Param("id")
	in := requestInput(c)

	res, err := h.client(c).UpdateMyRequest(c.Request().Context(), id, in)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return h.expired(c)
		}
		logger(c).Info("update_request_failed", "request_id", id, "error", err)
		return h.renderDashboard(c, func(d dashboardData) viewmodel.RequestForm {
			return viewmodel.RequestForm{
				EditingID:   id,
				Title:       in.Title,
				Description: in.Description,
				Remaining:   d.quota.Remaining,
			}
		}, apiclient.Message(err, "Failed to submit request"))
	}

	h.publish(c, audit.Event{Type: audit.EventRequestUpdated, Subject: id})
	return h.redirect(c, guard.PathDashboard, flash.Success(res.Message))
}

// DeleteRequest deletes only with confirm=yes. Without it the confirmation
// page is shown and the API is not called.
func (h *Handler) DeleteRequest(c echo.Context) error {
	id := c.Param("id")

	if c.FormValue("confirm") != "yes" {
		l, err := h.layout(c, "Delete Request")
		if err != nil {
			return err
		}
		return c.Render(http.StatusOK, web.PageDeleteConfirm, viewmodel.DeleteConfirm{
			Layout:    l,
			RequestID: id,
			Title:     c.FormValue("title"),
			Prompt:    viewmodel.DeletePrompt,
		})
	}

	res, err := h.client(c).DeleteMyRequest(c.Request().Context(), id)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return h.expired(c)
		}
		logger(c).Info("delete_request_failed", "request_id", id, "error", err)
		return h.redirect(c, guard.PathDashboard, flash.Error(apiclient.Message(err, "Failed to delete request")))
	}

	h.publish(c, audit.Event{Type: audit.EventRequestDeleted, Subject: id})
	return h.redirect(c, guard.PathDashboard, flash.Success(res.Message))
}

// renderDashboard refetches the page data and renders it with the form
// chosen by formFor. errMsg, when set, is shown above the page.
func (h *Handler) renderDashboard(c echo.Context, formFor func(dashboardData) viewmodel.RequestForm, errMsg string) error {
	d, err := h.loadDashboard(c)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return h.expired(c)
		}
		logger(c).Error("dashboard_fetch_failed", "error", err)
		d = dashboardData{}
		if errMsg == "" {
			errMsg = msgFetchFailed
		}
	}

	l, err := h.layout(c, "Dashboard")
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, web.PageDashboard, viewmodel.UserDashboard{
		Layout:   l,
		Quota:    d.quota,
		Requests: viewmodel.RequestRows(d.requests),
		Form:     formFor(d),
		Error:    errMsg,
	})
}

func requestInput(c echo.Context) models.RequestInput {
	return models.RequestInput{
		Title:       strings.TrimSpace(c.FormValue("title")),
		Description: strings.TrimSpace(c.FormValue("description")),
	}
}
