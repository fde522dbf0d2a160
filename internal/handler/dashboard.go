package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ellarises/ella-rises/internal/repository"
	"github.com/ellarises/ella-rises/internal/session"
)

// DashboardHandler renders the staff KPI page. All aggregates come from
// one concurrent snapshot; the page waits for every number before
// rendering.
type DashboardHandler struct {
	Stats    *repository.StatsRepo
	Sessions session.Store
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(stats *repository.StatsRepo, sessions session.Store) *DashboardHandler {
	return &DashboardHandler{Stats: stats, Sessions: sessions}
}

// Dashboard renders the KPI overview. The dashboard is itself the safe
// landing page, so an aggregate failure renders here with a notice instead
// of redirecting elsewhere.
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	data := pageData(c, h.Sessions, "Dashboard", nil)
	snap, err := h.Stats.Snapshot(c.Request().Context())
	if err != nil {
		data["Flash"] = &session.Flash{Kind: "error", Message: userMessage(err)}
		return c.Render(http.StatusOK, "dashboard", data)
	}
	data["Snapshot"] = snap
	return c.Render(http.StatusOK, "dashboard", data)
}
