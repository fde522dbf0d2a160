package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ellarises/ella-rises/internal/repository"
	"github.com/ellarises/ella-rises/internal/session"
)

// MilestoneHandler serves the milestone definition screens.
type MilestoneHandler struct {
	Milestones *repository.MilestoneRepo
	Sessions   session.Store
}

// NewMilestoneHandler constructs a MilestoneHandler.
func NewMilestoneHandler(milestones *repository.MilestoneRepo, sessions session.Store) *MilestoneHandler {
	return &MilestoneHandler{Milestones: milestones, Sessions: sessions}
}

// List renders the milestone search and listing page.
func (h *MilestoneHandler) List(c echo.Context) error {
	term := c.QueryParam("q")
	milestones, err := h.Milestones.Search(c.Request().Context(), term)
	if err != nil {
		return failTo(c, h.Sessions, err, "/dashboard")
	}
	return c.Render(http.StatusOK, "milestones_list", pageData(c, h.Sessions, "Milestones", echo.Map{
		"Milestones": milestones,
		"Query":      term,
	}))
}

// Detail renders one milestone with the participants who achieved it.
func (h *MilestoneHandler) Detail(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrMilestoneNotFound, "/milestones")
	}
	ctx := c.Request().Context()
	m, err := h.Milestones.GetByID(ctx, id)
	if err != nil {
		return failTo(c, h.Sessions, err, "/milestones")
	}
	holders, err := h.Milestones.ListHolders(ctx, id)
	if err != nil {
		return failTo(c, h.Sessions, err, "/milestones")
	}
	return c.Render(http.StatusOK, "milestone_detail", pageData(c, h.Sessions, m.Title, echo.Map{
		"Milestone": m,
		"Holders":   holders,
	}))
}

// NewForm renders the blank milestone form.
func (h *MilestoneHandler) NewForm(c echo.Context) error {
	return c.Render(http.StatusOK, "milestone_form", pageData(c, h.Sessions, "New milestone", echo.Map{
		"Milestone": &repository.Milestone{},
	}))
}

// Create inserts a new milestone definition.
func (h *MilestoneHandler) Create(c echo.Context) error {
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return flashAndRedirect(c, h.Sessions, "error", "A title is required.", "/milestones/new")
	}
	m := &repository.Milestone{Title: title, Description: strings.TrimSpace(c.FormValue("description"))}
	if err := h.Milestones.Create(c.Request().Context(), m); err != nil {
		return failTo(c, h.Sessions, err, "/milestones/new")
	}
	return flashAndRedirect(c, h.Sessions, "success", "Milestone created.",
		"/milestones/"+strconv.FormatUint(m.ID, 10))
}

// EditForm renders the form pre-filled with the milestone's fields.
func (h *MilestoneHandler) EditForm(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrMilestoneNotFound, "/milestones")
	}
	m, err := h.Milestones.GetByID(c.Request().Context(), id)
	if err != nil {
		return failTo(c, h.Sessions, err, "/milestones")
	}
	return c.Render(http.StatusOK, "milestone_form", pageData(c, h.Sessions, "Edit milestone", echo.Map{
		"Milestone": m,
	}))
}

// Update rewrites a milestone definition.
func (h *MilestoneHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrMilestoneNotFound, "/milestones")
	}
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return flashAndRedirect(c, h.Sessions, "error", "A title is required.",
			"/milestones/"+c.Param("id")+"/edit")
	}
	m := &repository.Milestone{ID: id, Title: title, Description: strings.TrimSpace(c.FormValue("description"))}
	if err := h.Milestones.Update(c.Request().Context(), m); err != nil {
		return failTo(c, h.Sessions, err, "/milestones/"+c.Param("id")+"/edit")
	}
	return flashAndRedirect(c, h.Sessions, "success", "Milestone updated.", "/milestones/"+c.Param("id"))
}

// Delete removes a milestone, assignment links first.
func (h *MilestoneHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrMilestoneNotFound, "/milestones")
	}
	if err := h.Milestones.Delete(c.Request().Context(), id); err != nil {
		return failTo(c, h.Sessions, err, "/milestones/"+c.Param("id"))
	}
	return flashAndRedirect(c, h.Sessions, "success", "Milestone deleted.", "/milestones")
}
