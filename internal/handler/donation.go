package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ellarises/ella-rises/internal/queue"
	"github.com/ellarises/ella-rises/internal/repository"
	queue_publisher "github.com/ellarises/ella-rises/internal/service"
	"github.com/ellarises/ella-rises/internal/session"
)

// DonationHandler serves the staff-facing donation ledger. Donations are
// addressed by their composite key, with "anonymous" standing in for the
// no-participant scope in URLs.
type DonationHandler struct {
	Donations    *repository.DonationRepo
	Participants *repository.ParticipantRepo
	Sessions     session.Store
	AMQPURL      string
}

// NewDonationHandler constructs a DonationHandler.
func NewDonationHandler(donations *repository.DonationRepo, participants *repository.ParticipantRepo,
	sessions session.Store, amqpURL string) *DonationHandler {
	return &DonationHandler{Donations: donations, Participants: participants, Sessions: sessions, AMQPURL: amqpURL}
}

// List renders the ledger with a donor-name search and the running total of
// the visible rows.
func (h *DonationHandler) List(c echo.Context) error {
	term := c.QueryParam("q")
	donations, err := h.Donations.Search(c.Request().Context(), term)
	if err != nil {
		return failTo(c, h.Sessions, err, "/dashboard")
	}
	var total float64
	for _, d := range donations {
		total += d.Amount
	}
	return c.Render(http.StatusOK, "donations_list", pageData(c, h.Sessions, "Donations", echo.Map{
		"Donations": donations,
		"Total":     total,
		"Query":     term,
	}))
}

// Detail renders one donation.
func (h *DonationHandler) Detail(c echo.Context) error {
	d, err := h.lookup(c)
	if err != nil {
		return failTo(c, h.Sessions, err, "/donations")
	}
	return c.Render(http.StatusOK, "donation_detail", pageData(c, h.Sessions, "Donation", echo.Map{
		"Donation":   d,
		"ScopeToken": scopeToken(d.ParticipantID),
	}))
}

// NewForm renders the blank donation form with the donor picker.
func (h *DonationHandler) NewForm(c echo.Context) error {
	participants, err := h.Participants.Search(c.Request().Context(), "")
	if err != nil {
		return failTo(c, h.Sessions, err, "/donations")
	}
	return c.Render(http.StatusOK, "donation_form", pageData(c, h.Sessions, "Record donation", echo.Map{
		"Participants": participants,
	}))
}

// Create records a staff-entered gift under the selected donor scope and
// emits the received event in the background.
func (h *DonationHandler) Create(c echo.Context) error {
	participantID, err := parseScope(c.FormValue("participant_id"))
	if err != nil {
		return flashAndRedirect(c, h.Sessions, "error", "Choose a donor.", "/donations/new")
	}
	amount, donatedOn, ok := h.parseAmountAndDate(c)
	if !ok {
		return flashAndRedirect(c, h.Sessions, "error",
			"Enter a positive amount and a valid date.", "/donations/new")
	}

	d := &repository.Donation{ParticipantID: participantID, Amount: amount, DonatedOn: donatedOn}
	if err := h.Donations.Create(c.Request().Context(), d); err != nil {
		return failTo(c, h.Sessions, err, "/donations/new")
	}
	h.publishDonation(d)
	return flashAndRedirect(c, h.Sessions, "success", "Donation recorded.",
		"/donations/"+scopeToken(d.ParticipantID)+"/"+strconv.FormatUint(d.DonationNumber, 10))
}

// EditForm renders the form pre-filled with the donation's fields.
func (h *DonationHandler) EditForm(c echo.Context) error {
	d, err := h.lookup(c)
	if err != nil {
		return failTo(c, h.Sessions, err, "/donations")
	}
	participants, err := h.Participants.Search(c.Request().Context(), "")
	if err != nil {
		return failTo(c, h.Sessions, err, "/donations")
	}
	return c.Render(http.StatusOK, "donation_form", pageData(c, h.Sessions, "Edit donation", echo.Map{
		"Donation":     d,
		"ScopeToken":   scopeToken(d.ParticipantID),
		"Participants": participants,
	}))
}

// Update rewrites a donation's amount and date. Picking a different donor
// re-keys the gift under the new scope, which allocates a fresh sequence
// number there; the redirect follows the donation to its new address.
func (h *DonationHandler) Update(c echo.Context) error {
	participantID, err := parseScope(c.Param("participant_id"))
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrDonationNotFound, "/donations")
	}
	donationNumber, err := paramID(c, "donation_number")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrDonationNotFound, "/donations")
	}
	formURL := "/donations/" + c.Param("participant_id") + "/" + c.Param("donation_number")

	newParticipantID, err := parseScope(c.FormValue("participant_id"))
	if err != nil {
		return flashAndRedirect(c, h.Sessions, "error", "Choose a donor.", formURL+"/edit")
	}
	amount, donatedOn, ok := h.parseAmountAndDate(c)
	if !ok {
		return flashAndRedirect(c, h.Sessions, "error",
			"Enter a positive amount and a valid date.", formURL+"/edit")
	}

	ctx := c.Request().Context()
	if newParticipantID != participantID {
		newNumber, err := h.Donations.Move(ctx, participantID, donationNumber, newParticipantID, amount, donatedOn)
		if err != nil {
			return failTo(c, h.Sessions, err, formURL+"/edit")
		}
		return flashAndRedirect(c, h.Sessions, "success", "Donation updated.",
			"/donations/"+scopeToken(newParticipantID)+"/"+strconv.FormatUint(newNumber, 10))
	}
	if err := h.Donations.Update(ctx, participantID, donationNumber, amount, donatedOn); err != nil {
		return failTo(c, h.Sessions, err, formURL+"/edit")
	}
	return flashAndRedirect(c, h.Sessions, "success", "Donation updated.", formURL)
}

// Delete removes one donation.
func (h *DonationHandler) Delete(c echo.Context) error {
	participantID, err := parseScope(c.Param("participant_id"))
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrDonationNotFound, "/donations")
	}
	donationNumber, err := paramID(c, "donation_number")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrDonationNotFound, "/donations")
	}
	if err := h.Donations.Delete(c.Request().Context(), participantID, donationNumber); err != nil {
		return failTo(c, h.Sessions, err,
			"/donations/"+c.Param("participant_id")+"/"+c.Param("donation_number"))
	}
	return flashAndRedirect(c, h.Sessions, "success", "Donation deleted.", "/donations")
}

func (h *DonationHandler) lookup(c echo.Context) (*repository.Donation, error) {
	participantID, err := parseScope(c.Param("participant_id"))
	if err != nil {
		return nil, repository.ErrDonationNotFound
	}
	donationNumber, err := paramID(c, "donation_number")
	if err != nil {
		return nil, repository.ErrDonationNotFound
	}
	return h.Donations.Get(c.Request().Context(), participantID, donationNumber)
}

func (h *DonationHandler) parseAmountAndDate(c echo.Context) (float64, time.Time, bool) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(c.FormValue("amount")), 64)
	if err != nil || amount <= 0 {
		return 0, time.Time{}, false
	}
	donatedOn, err := time.Parse("2006-01-02", c.FormValue("donated_on"))
	if err != nil {
		return 0, time.Time{}, false
	}
	return amount, donatedOn, true
}

func (h *DonationHandler) publishDonation(d *repository.Donation) {
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
		ReceivedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishDonationReceived(ctx, h.AMQPURL, ev)
	}()
}
