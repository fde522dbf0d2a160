package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/ellarises/ella-rises/internal/queue"
	"github.com/ellarises/ella-rises/internal/repository"
	queue_publisher "github.com/ellarises/ella-rises/internal/service"
	"github.com/ellarises/ella-rises/internal/session"
)

// PublicHandler serves the unauthenticated pages: the landing page with its
// impact snapshot, the informational views and the public donation capture.
type PublicHandler struct {
	Stats        *repository.StatsRepo
	Events       *repository.EventRepo
	Participants *repository.ParticipantRepo
	Donations    *repository.DonationRepo
	Sessions     session.Store
	AMQPURL      string
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(stats *repository.StatsRepo, events *repository.EventRepo,
	participants *repository.ParticipantRepo, donations *repository.DonationRepo,
	sessions session.Store, amqpURL string) *PublicHandler {
	return &PublicHandler{
		Stats: stats, Events: events, Participants: participants,
		Donations: donations, Sessions: sessions, AMQPURL: amqpURL,
	}
}

// Home renders the landing page. The impact snapshot is best-effort: when
// the database is down the page still renders, just without numbers.
func (h *PublicHandler) Home(c echo.Context) error {
	data := pageData(c, h.Sessions, "Welcome", nil)
	if snap, err := h.Stats.Snapshot(c.Request().Context()); err == nil {
		data["Snapshot"] = snap
	} else {
		log.Warn().Err(err).Msg("impact snapshot unavailable")
	}
	return c.Render(http.StatusOK, "home", data)
}

// Programs renders the static programs page.
func (h *PublicHandler) Programs(c echo.Context) error {
	return c.Render(http.StatusOK, "programs", pageData(c, h.Sessions, "Programs", nil))
}

// Impact renders the public impact page from the same snapshot the
// dashboard uses.
func (h *PublicHandler) Impact(c echo.Context) error {
	data := pageData(c, h.Sessions, "Impact", nil)
	if snap, err := h.Stats.Snapshot(c.Request().Context()); err == nil {
		data["Snapshot"] = snap
	} else {
		log.Warn().Err(err).Msg("impact snapshot unavailable")
	}
	return c.Render(http.StatusOK, "impact", data)
}

// PublicEvents lists upcoming event instances for guests.
func (h *PublicHandler) PublicEvents(c echo.Context) error {
	data := pageData(c, h.Sessions, "Events", nil)
	events, err := h.Events.ListUpcomingInstances(c.Request().Context())
	if err != nil {
		log.Warn().Err(err).Msg("public events unavailable")
	}
	data["Events"] = events
	return c.Render(http.StatusOK, "public_events", data)
}

// DonatePage renders the public donation form. A ?thanks=1 query, set by a
// successful capture, shows the confirmation banner.
func (h *PublicHandler) DonatePage(c echo.Context) error {
	data := pageData(c, h.Sessions, "Donate", nil)
	if c.QueryParam("thanks") == "1" {
		data["Flash"] = &session.Flash{Kind: "success", Message: "Thank you for your gift!"}
	}
	return c.Render(http.StatusOK, "donate", data)
}

type publicDonationForm struct {
	Amount    string `form:"amount" validate:"required"`
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
	Email     string `form:"email" validate:"omitempty,email"`
}

// PublicDonate captures a gift from the public form. A supplied email
// finds or creates the donor-of-record in its own transaction, keeping
// participant uniqueness and donation sequencing independently correct;
// without one the gift lands in the anonymous bucket.
func (h *PublicHandler) PublicDonate(c echo.Context) error {
	var form publicDonationForm
	if err := c.Bind(&form); err != nil || c.Validate(&form) != nil {
		return h.donateFailed(c, "Please check the form and try again.")
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(form.Amount), 64)
	if err != nil || amount <= 0 {
		return h.donateFailed(c, "Please enter a positive donation amount.")
	}

	ctx := c.Request().Context()
	participantID := repository.AnonymousParticipantID
	if email := strings.TrimSpace(form.Email); email != "" {
		participantID, err = h.Participants.FindOrCreateByEmail(ctx, form.FirstName, form.LastName, email)
		if err != nil {
			return h.donateFailed(c, "We could not record your gift. Please try again.")
		}
	}

	d := &repository.Donation{
		ParticipantID: participantID,
		Amount:        amount,
		DonatedOn:     time.Now().UTC(),
	}
	if err := h.Donations.Create(ctx, d); err != nil {
		return h.donateFailed(c, "We could not record your gift. Please try again.")
	}

	h.publishDonation(d, true)
	return c.Redirect(http.StatusSeeOther, "/donate?thanks=1")
}

func (h *PublicHandler) donateFailed(c echo.Context, msg string) error {
	data := pageData(c, h.Sessions, "Donate", nil)
	data["Flash"] = &session.Flash{Kind: "error", Message: msg}
	return c.Render(http.StatusBadRequest, "donate", data)
}

// publishDonation emits the donation.received event in the background so a
// slow or absent broker never delays the donor's confirmation.
func (h *PublicHandler) publishDonation(d *repository.Donation, public bool) {
	if h.AMQPURL == "" {
		return
	}
	name := d.DonorName
	if name == "" && d.Anonymous() {
		name = "Anonymous"
	}
	ev := queue.DonationReceivedEvent{
		ParticipantID:  d.ParticipantID,
		DonationNumber: d.DonationNumber,
		DonorName:      name,
		Amount:         d.Amount,
		DonatedOn:      d.DonatedOn.Format("2006-01-02"),
		Public:         public,
		ReceivedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishDonationReceived(ctx, h.AMQPURL, ev)
	}()
}

// Tea is the protocol-compliance checkpoint: always 418 with an empty
// body, regardless of authentication or database state.
func Tea(c echo.Context) error {
	return c.NoContent(http.StatusTeapot)
}

// Health is a simple health-check endpoint for load balancers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
