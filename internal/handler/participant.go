package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/ellarises/ella-rises/internal/repository"
	"github.com/ellarises/ella-rises/internal/session"
)

// ParticipantHandler serves the participant screens: search/list, detail
// with milestones and donations, and the privileged mutations.
type ParticipantHandler struct {
	Participants *repository.ParticipantRepo
	Milestones   *repository.MilestoneRepo
	Donations    *repository.DonationRepo
	Sessions     session.Store
}

// NewParticipantHandler constructs a ParticipantHandler.
func NewParticipantHandler(participants *repository.ParticipantRepo, milestones *repository.MilestoneRepo,
	donations *repository.DonationRepo, sessions session.Store) *ParticipantHandler {
	return &ParticipantHandler{
		Participants: participants, Milestones: milestones,
		Donations: donations, Sessions: sessions,
	}
}

type participantForm struct {
	FirstName        string `form:"first_name" validate:"required"`
	LastName         string `form:"last_name" validate:"required"`
	Email            string `form:"email" validate:"omitempty,email"`
	Phone            string `form:"phone"`
	Street           string `form:"street"`
	City             string `form:"city"`
	State            string `form:"state"`
	Zip              string `form:"zip"`
	SchoolOrEmployer string `form:"school_or_employer"`
	FieldOfInterest  string `form:"field_of_interest"`
	Role             string `form:"role" validate:"required,oneof=participant donor"`
}

func (f *participantForm) toEntity(id uint64) *repository.Participant {
	p := &repository.Participant{
		ID:               id,
		FirstName:        strings.TrimSpace(f.FirstName),
		LastName:         strings.TrimSpace(f.LastName),
		Street:           strings.TrimSpace(f.Street),
		City:             strings.TrimSpace(f.City),
		State:            strings.TrimSpace(f.State),
		Zip:              strings.TrimSpace(f.Zip),
		SchoolOrEmployer: strings.TrimSpace(f.SchoolOrEmployer),
		FieldOfInterest:  strings.TrimSpace(f.FieldOfInterest),
		Role:             f.Role,
	}
	if e := strings.TrimSpace(f.Email); e != "" {
		p.Email = &e
	}
	if ph := strings.TrimSpace(f.Phone); ph != "" {
		p.Phone = &ph
	}
	return p
}

// List renders the participant search and listing page.
func (h *ParticipantHandler) List(c echo.Context) error {
	term := c.QueryParam("q")
	participants, err := h.Participants.Search(c.Request().Context(), term)
	if err != nil {
		return failTo(c, h.Sessions, err, "/dashboard")
	}
	return c.Render(http.StatusOK, "participants_list", pageData(c, h.Sessions, "Participants", echo.Map{
		"Participants": participants,
		"Query":        term,
	}))
}

// Detail renders one participant with their milestones and donations. The
// three dependent reads are independent, so they run as a concurrent batch
// and join before rendering.
func (h *ParticipantHandler) Detail(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrParticipantNotFound, "/participants")
	}
	ctx := c.Request().Context()

	p, err := h.Participants.GetByID(ctx, id)
	if err != nil {
		return failTo(c, h.Sessions, err, "/participants")
	}

	var (
		achieved  []*repository.MilestoneAssignment
		donations []*repository.Donation
		all       []*repository.Milestone
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { achieved, err = h.Milestones.ListByParticipant(gctx, id); return })
	g.Go(func() (err error) { donations, err = h.Donations.ListByParticipant(gctx, id); return })
	if isPrivileged(c) {
		g.Go(func() (err error) { all, err = h.Milestones.Search(gctx, ""); return })
	}
	if err := g.Wait(); err != nil {
		return failTo(c, h.Sessions, err, "/participants")
	}

	return c.Render(http.StatusOK, "participant_detail", pageData(c, h.Sessions, p.FullName(), echo.Map{
		"Participant":   p,
		"Milestones":    achieved,
		"Donations":     donations,
		"AllMilestones": all,
	}))
}

// NewForm renders the blank participant form.
func (h *ParticipantHandler) NewForm(c echo.Context) error {
	return c.Render(http.StatusOK, "participant_form", pageData(c, h.Sessions, "New participant", echo.Map{
		"Participant": &repository.Participant{Role: "participant"},
	}))
}

// Create inserts a new participant from the form.
func (h *ParticipantHandler) Create(c echo.Context) error {
	var form participantForm
	if err := c.Bind(&form); err != nil || c.Validate(&form) != nil {
		return flashAndRedirect(c, h.Sessions, "error", "Please fill in the required fields.", "/participants/new")
	}
	p := form.toEntity(0)
	if err := h.Participants.Create(c.Request().Context(), p); err != nil {
		return failTo(c, h.Sessions, err, "/participants/new")
	}
	return flashAndRedirect(c, h.Sessions, "success", "Participant created.",
		"/participants/"+strconv.FormatUint(p.ID, 10))
}

// EditForm renders the form pre-filled with the participant's fields.
func (h *ParticipantHandler) EditForm(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrParticipantNotFound, "/participants")
	}
	p, err := h.Participants.GetByID(c.Request().Context(), id)
	if err != nil {
		return failTo(c, h.Sessions, err, "/participants")
	}
	return c.Render(http.StatusOK, "participant_form", pageData(c, h.Sessions, "Edit participant", echo.Map{
		"Participant": p,
	}))
}

// Update rewrites a participant from the form.
func (h *ParticipantHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrParticipantNotFound, "/participants")
	}
	var form participantForm
	if err := c.Bind(&form); err != nil || c.Validate(&form) != nil {
		return flashAndRedirect(c, h.Sessions, "error", "Please fill in the required fields.",
			"/participants/"+c.Param("id")+"/edit")
	}
	if err := h.Participants.Update(c.Request().Context(), form.toEntity(id)); err != nil {
		return failTo(c, h.Sessions, err, "/participants/"+c.Param("id")+"/edit")
	}
	return flashAndRedirect(c, h.Sessions, "success", "Participant updated.", "/participants/"+c.Param("id"))
}

// Delete removes a participant unless the donation ledger blocks it.
func (h *ParticipantHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrParticipantNotFound, "/participants")
	}
	if err := h.Participants.Delete(c.Request().Context(), id); err != nil {
		return failTo(c, h.Sessions, err, "/participants/"+c.Param("id"))
	}
	return flashAndRedirect(c, h.Sessions, "success", "Participant deleted.", "/participants")
}

// AssignMilestone links a milestone to the participant with an achieved
// date (today when the form omits one).
func (h *ParticipantHandler) AssignMilestone(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrParticipantNotFound, "/participants")
	}
	milestoneID, err := strconv.ParseUint(c.FormValue("milestone_id"), 10, 64)
	if err != nil {
		return flashAndRedirect(c, h.Sessions, "error", "Choose a milestone to assign.",
			"/participants/"+c.Param("id"))
	}
	achievedOn := time.Now().UTC()
	if v := c.FormValue("achieved_on"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			achievedOn = t
		}
	}
	if err := h.Milestones.Assign(c.Request().Context(), id, milestoneID, achievedOn); err != nil {
		return failTo(c, h.Sessions, err, "/participants/"+c.Param("id"))
	}
	return flashAndRedirect(c, h.Sessions, "success", "Milestone assigned.", "/participants/"+c.Param("id"))
}

// UnassignMilestone removes a participant-milestone link.
func (h *ParticipantHandler) UnassignMilestone(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrParticipantNotFound, "/participants")
	}
	milestoneID, err := paramID(c, "milestone_id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrMilestoneNotFound, "/participants/"+c.Param("id"))
	}
	if err := h.Milestones.Unassign(c.Request().Context(), id, milestoneID); err != nil {
		return failTo(c, h.Sessions, err, "/participants/"+c.Param("id"))
	}
	return flashAndRedirect(c, h.Sessions, "success", "Milestone removed.", "/participants/"+c.Param("id"))
}
