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

// EventHandler serves the admin event screens: instance listing, detail
// with registrations, and template/instance mutations.
type EventHandler struct {
	Events        *repository.EventRepo
	Registrations *repository.RegistrationRepo
	Participants  *repository.ParticipantRepo
	Stats         *repository.StatsRepo
	Sessions      session.Store
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *repository.EventRepo, registrations *repository.RegistrationRepo,
	participants *repository.ParticipantRepo, stats *repository.StatsRepo, sessions session.Store) *EventHandler {
	return &EventHandler{
		Events: events, Registrations: registrations,
		Participants: participants, Stats: stats, Sessions: sessions,
	}
}

const datetimeLocal = "2006-01-02T15:04"

// List renders the event instance search and listing page.
func (h *EventHandler) List(c echo.Context) error {
	term := c.QueryParam("q")
	events, err := h.Events.SearchInstances(c.Request().Context(), term)
	if err != nil {
		return failTo(c, h.Sessions, err, "/dashboard")
	}
	return c.Render(http.StatusOK, "events_list", pageData(c, h.Sessions, "Events", echo.Map{
		"Events": events,
		"Query":  term,
	}))
}

// Detail renders one instance with registration counts and the roster.
// The dependent reads run as a concurrent batch.
func (h *EventHandler) Detail(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrEventNotFound, "/events/admin")
	}
	ctx := c.Request().Context()
	e, err := h.Events.GetInstance(ctx, id)
	if err != nil {
		return failTo(c, h.Sessions, err, "/events/admin")
	}

	var (
		registrations        []*repository.Registration
		participants         []*repository.Participant
		registered, attended int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { registrations, err = h.Registrations.ListByInstance(gctx, id); return })
	g.Go(func() (err error) { registered, attended, err = h.Stats.CountsForInstance(gctx, id); return })
	if isPrivileged(c) {
		g.Go(func() (err error) { participants, err = h.Participants.Search(gctx, ""); return })
	}
	if err := g.Wait(); err != nil {
		return failTo(c, h.Sessions, err, "/events/admin")
	}

	return c.Render(http.StatusOK, "event_detail", pageData(c, h.Sessions, e.Name, echo.Map{
		"Event":           e,
		"Registrations":   registrations,
		"AllParticipants": participants,
		"Registered":      registered,
		"Attended":        attended,
	}))
}

// NewForm renders the instance form with the template picker.
func (h *EventHandler) NewForm(c echo.Context) error {
	templates, err := h.Events.ListTemplates(c.Request().Context())
	if err != nil {
		return failTo(c, h.Sessions, err, "/events/admin")
	}
	return c.Render(http.StatusOK, "event_form", pageData(c, h.Sessions, "New event", echo.Map{
		"Event":     &repository.EventInstance{},
		"Templates": templates,
	}))
}

// Create inserts an instance of an existing template, or creates the
// template first when none was picked. An omitted capacity falls back to
// the template default inside the repository.
func (h *EventHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	startsAt, err1 := time.Parse(datetimeLocal, c.FormValue("starts_at"))
	endsAt, err2 := time.Parse(datetimeLocal, c.FormValue("ends_at"))
	if err1 != nil || err2 != nil || !endsAt.After(startsAt) {
		return flashAndRedirect(c, h.Sessions, "error", "Enter a valid start and end time.", "/events/admin/new")
	}

	var templateID uint64
	if v := c.FormValue("template_id"); v != "" {
		var err error
		if templateID, err = strconv.ParseUint(v, 10, 64); err != nil {
			return flashAndRedirect(c, h.Sessions, "error", "Choose a valid template.", "/events/admin/new")
		}
	} else {
		name := strings.TrimSpace(c.FormValue("name"))
		eventType := strings.TrimSpace(c.FormValue("event_type"))
		if name == "" || eventType == "" {
			return flashAndRedirect(c, h.Sessions, "error",
				"Pick a template or name a new one.", "/events/admin/new")
		}
		defCap, _ := strconv.ParseUint(c.FormValue("default_capacity"), 10, 32)
		t := &repository.EventTemplate{
			Name:            name,
			EventType:       eventType,
			Description:     strings.TrimSpace(c.FormValue("description")),
			DefaultCapacity: uint32(defCap),
		}
		if err := h.Events.CreateTemplate(ctx, t); err != nil {
			return failTo(c, h.Sessions, err, "/events/admin/new")
		}
		templateID = t.ID
	}

	capacity, _ := strconv.ParseUint(c.FormValue("capacity"), 10, 32)
	e := &repository.EventInstance{
		TemplateID: templateID,
		StartsAt:   startsAt,
		EndsAt:     endsAt,
		Location:   strings.TrimSpace(c.FormValue("location")),
		Capacity:   uint32(capacity),
	}
	if err := h.Events.CreateInstance(ctx, e); err != nil {
		return failTo(c, h.Sessions, err, "/events/admin/new")
	}
	return flashAndRedirect(c, h.Sessions, "success", "Event created.",
		"/events/admin/"+strconv.FormatUint(e.ID, 10))
}

// EditForm renders the form pre-filled with the instance's fields.
func (h *EventHandler) EditForm(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrEventNotFound, "/events/admin")
	}
	e, err := h.Events.GetInstance(c.Request().Context(), id)
	if err != nil {
		return failTo(c, h.Sessions, err, "/events/admin")
	}
	return c.Render(http.StatusOK, "event_form", pageData(c, h.Sessions, "Edit event", echo.Map{
		"Event": e,
	}))
}

// Update rewrites an instance's schedule, location and capacity.
func (h *EventHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrEventNotFound, "/events/admin")
	}
	startsAt, err1 := time.Parse(datetimeLocal, c.FormValue("starts_at"))
	endsAt, err2 := time.Parse(datetimeLocal, c.FormValue("ends_at"))
	if err1 != nil || err2 != nil || !endsAt.After(startsAt) {
		return flashAndRedirect(c, h.Sessions, "error", "Enter a valid start and end time.",
			"/events/admin/"+c.Param("id")+"/edit")
	}
	capacity, _ := strconv.ParseUint(c.FormValue("capacity"), 10, 32)
	e := &repository.EventInstance{
		ID:       id,
		StartsAt: startsAt,
		EndsAt:   endsAt,
		Location: strings.TrimSpace(c.FormValue("location")),
		Capacity: uint32(capacity),
	}
	if err := h.Events.UpdateInstance(c.Request().Context(), e); err != nil {
		return failTo(c, h.Sessions, err, "/events/admin/"+c.Param("id")+"/edit")
	}
	return flashAndRedirect(c, h.Sessions, "success", "Event updated.", "/events/admin/"+c.Param("id"))
}

// Delete removes an instance; the repository also removes the template
// when this was its last occurrence.
func (h *EventHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrEventNotFound, "/events/admin")
	}
	if err := h.Events.DeleteInstance(c.Request().Context(), id); err != nil {
		return failTo(c, h.Sessions, err, "/events/admin/"+c.Param("id"))
	}
	return flashAndRedirect(c, h.Sessions, "success", "Event deleted.", "/events/admin")
}

// Register adds a participant to the event roster.
func (h *EventHandler) Register(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrEventNotFound, "/events/admin")
	}
	participantID, err := strconv.ParseUint(c.FormValue("participant_id"), 10, 64)
	if err != nil {
		return flashAndRedirect(c, h.Sessions, "error", "Choose a participant to register.",
			"/events/admin/"+c.Param("id"))
	}
	if _, err := h.Registrations.Create(c.Request().Context(), participantID, id); err != nil {
		return failTo(c, h.Sessions, err, "/events/admin/"+c.Param("id"))
	}
	return flashAndRedirect(c, h.Sessions, "success", "Participant registered.", "/events/admin/"+c.Param("id"))
}

// SetAttended toggles the attendance flag on a registration.
func (h *EventHandler) SetAttended(c echo.Context) error {
	regID, err := paramID(c, "reg_id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrRegistrationNotFound, "/events/admin/"+c.Param("id"))
	}
	attended := c.FormValue("attended") == "1"
	if err := h.Registrations.SetAttended(c.Request().Context(), regID, attended); err != nil {
		return failTo(c, h.Sessions, err, "/events/admin/"+c.Param("id"))
	}
	return flashAndRedirect(c, h.Sessions, "success", "Attendance updated.", "/events/admin/"+c.Param("id"))
}

// RemoveRegistration takes a participant off the roster.
func (h *EventHandler) RemoveRegistration(c echo.Context) error {
	regID, err := paramID(c, "reg_id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrRegistrationNotFound, "/events/admin/"+c.Param("id"))
	}
	if err := h.Registrations.Delete(c.Request().Context(), regID); err != nil {
		return failTo(c, h.Sessions, err, "/events/admin/"+c.Param("id"))
	}
	return flashAndRedirect(c, h.Sessions, "success", "Registration removed.", "/events/admin/"+c.Param("id"))
}
