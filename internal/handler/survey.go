package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/ellarises/ella-rises/internal/repository"
	"github.com/ellarises/ella-rises/internal/session"
)

// SurveyHandler serves the survey feedback screens.
type SurveyHandler struct {
	Surveys      *repository.SurveyRepo
	Participants *repository.ParticipantRepo
	Events       *repository.EventRepo
	Sessions     session.Store
}

// NewSurveyHandler constructs a SurveyHandler.
func NewSurveyHandler(surveys *repository.SurveyRepo, participants *repository.ParticipantRepo,
	events *repository.EventRepo, sessions session.Store) *SurveyHandler {
	return &SurveyHandler{Surveys: surveys, Participants: participants, Events: events, Sessions: sessions}
}

// questionLabels maps question numbers to their display text. Number 3 is
// reserved and never appears.
var questionLabels = map[uint8]string{
	repository.QuestionSatisfaction: "Satisfaction",
	repository.QuestionUsefulness:   "Usefulness",
	repository.QuestionRecommend:    "Would recommend",
}

// List renders the survey search page. The score columns come from one
// batched responses query over the visible submissions, shaped into a
// per-submission, per-question lookup for the template.
func (h *SurveyHandler) List(c echo.Context) error {
	term := c.QueryParam("q")
	minSatisfaction, _ := strconv.Atoi(c.QueryParam("min_satisfaction"))

	ctx := c.Request().Context()
	submissions, err := h.Surveys.Search(ctx, term, minSatisfaction)
	if err != nil {
		return failTo(c, h.Sessions, err, "/dashboard")
	}

	ids := make([]uint64, len(submissions))
	for i, s := range submissions {
		ids[i] = s.ID
	}
	responses, err := h.Surveys.ResponsesFor(ctx, ids)
	if err != nil {
		return failTo(c, h.Sessions, err, "/dashboard")
	}

	scores := make(map[uint64]map[int]string, len(submissions))
	for _, s := range submissions {
		row := map[int]string{
			repository.QuestionSatisfaction: "—",
			repository.QuestionUsefulness:   "—",
			repository.QuestionRecommend:    "—",
		}
		for _, resp := range responses[s.ID] {
			row[int(resp.QuestionNumber)] = strconv.Itoa(int(resp.Score))
		}
		scores[s.ID] = row
	}

	return c.Render(http.StatusOK, "surveys_list", pageData(c, h.Sessions, "Surveys", echo.Map{
		"Submissions":     submissions,
		"Scores":          scores,
		"Query":           term,
		"MinSatisfaction": minSatisfaction,
		"ScoreOptions":    []int{1, 2, 3, 4, 5},
	}))
}

// Detail renders one submission with its responses and comment.
func (h *SurveyHandler) Detail(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrSurveyNotFound, "/surveys")
	}
	ctx := c.Request().Context()
	s, err := h.Surveys.GetSubmission(ctx, id)
	if err != nil {
		return failTo(c, h.Sessions, err, "/surveys")
	}
	responses, err := h.Surveys.ResponsesFor(ctx, []uint64{id})
	if err != nil {
		return failTo(c, h.Sessions, err, "/surveys")
	}
	comment, err := h.Surveys.Comment(ctx, id)
	if err != nil {
		return failTo(c, h.Sessions, err, "/surveys")
	}
	return c.Render(http.StatusOK, "survey_detail", pageData(c, h.Sessions, "Survey", echo.Map{
		"Submission":     s,
		"Responses":      responses[id],
		"Comment":        comment,
		"QuestionLabels": questionLabels,
	}))
}

// NewForm renders the survey capture form with its participant and event
// pickers, loaded concurrently.
func (h *SurveyHandler) NewForm(c echo.Context) error {
	var (
		participants []*repository.Participant
		events       []*repository.EventInstance
	)
	g, gctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() (err error) { participants, err = h.Participants.Search(gctx, ""); return })
	g.Go(func() (err error) { events, err = h.Events.SearchInstances(gctx, ""); return })
	if err := g.Wait(); err != nil {
		return failTo(c, h.Sessions, err, "/surveys")
	}
	return c.Render(http.StatusOK, "survey_form", pageData(c, h.Sessions, "Record survey", echo.Map{
		"Participants": participants,
		"Events":       events,
	}))
}

// Create stores a submission with its three scores and optional comment.
func (h *SurveyHandler) Create(c echo.Context) error {
	participantID, err1 := strconv.ParseUint(c.FormValue("participant_id"), 10, 64)
	eventInstanceID, err2 := strconv.ParseUint(c.FormValue("event_instance_id"), 10, 64)
	if err1 != nil || err2 != nil {
		return flashAndRedirect(c, h.Sessions, "error", "Choose a participant and an event.", "/surveys/new")
	}

	scores := make(map[uint8]uint8, 3)
	for field, qn := range map[string]uint8{
		"satisfaction": repository.QuestionSatisfaction,
		"usefulness":   repository.QuestionUsefulness,
		"recommend":    repository.QuestionRecommend,
	} {
		v, err := strconv.Atoi(c.FormValue(field))
		if err != nil || v < 1 || v > 5 {
			return flashAndRedirect(c, h.Sessions, "error", "Scores must be between 1 and 5.", "/surveys/new")
		}
		scores[qn] = uint8(v)
	}

	id, err := h.Surveys.Create(c.Request().Context(), participantID, eventInstanceID,
		scores, c.FormValue("comment"))
	if err != nil {
		return failTo(c, h.Sessions, err, "/surveys/new")
	}
	return flashAndRedirect(c, h.Sessions, "success", "Survey recorded.",
		"/surveys/"+strconv.FormatUint(id, 10))
}

// Delete removes a submission and everything hanging off it.
func (h *SurveyHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrSurveyNotFound, "/surveys")
	}
	if err := h.Surveys.Delete(c.Request().Context(), id); err != nil {
		return failTo(c, h.Sessions, err, "/surveys/"+c.Param("id"))
	}
	return flashAndRedirect(c, h.Sessions, "success", "Survey deleted.", "/surveys")
}
