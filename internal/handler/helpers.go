// Package handler contains the HTTP handlers. Handlers validate form
// input, call the repository layer and render templates; repository errors
// are translated here into a one-shot flash notice plus a redirect to the
// nearest safe listing page. Raw error detail never reaches the user.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/ellarises/ella-rises/internal/middleware"
	"github.com/ellarises/ella-rises/internal/repository"
	"github.com/ellarises/ella-rises/internal/session"
)

// FormValidator adapts go-playground/validator to echo's Validator hook.
type FormValidator struct {
	V *validator.Validate
}

// NewFormValidator builds the validator used for form DTOs.
func NewFormValidator() *FormValidator {
	return &FormValidator{V: validator.New()}
}

// Validate implements echo.Validator.
func (fv *FormValidator) Validate(i interface{}) error {
	return fv.V.Struct(i)
}

// anonymousToken is the path segment addressing the anonymous donation
// scope, e.g. /donations/anonymous/3.
const anonymousToken = "anonymous"

// pageData assembles the fields every template expects: title, the current
// identity, whether the viewer may mutate, and the pending flash (popped,
// so it shows exactly once).
func pageData(c echo.Context, store session.Store, title string, extra echo.Map) echo.Map {
	data := echo.Map{
		"Title":      title,
		"Username":   c.Get("username"),
		"Privileged": isPrivileged(c),
	}
	if sid := middleware.SessionID(c); sid != "" && store != nil {
		if f, err := store.PopFlash(c.Request().Context(), sid); err == nil && f != nil {
			data["Flash"] = f
		}
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func isPrivileged(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == repository.RoleManager
}

// flashAndRedirect stores a one-shot notice on the caller's session and
// sends them to the given page. Unauthenticated callers just get the
// redirect; there is no session to hang the notice on.
func flashAndRedirect(c echo.Context, store session.Store, kind, msg, target string) error {
	if sid := middleware.SessionID(c); sid != "" && store != nil {
		if err := store.SetFlash(c.Request().Context(), sid, session.Flash{Kind: kind, Message: msg}); err != nil {
			log.Warn().Err(err).Msg("flash store failed")
		}
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// failTo translates a repository error into a user-facing notice and
// redirects to the safe listing page. Unexpected errors are logged with
// detail but surface as a generic notice.
func failTo(c echo.Context, store session.Store, err error, target string) error {
	return flashAndRedirect(c, store, "error", userMessage(err), target)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return "That value is already in use."
	case errors.Is(err, repository.ErrBlocked):
		return "This record still has donations attached and cannot be deleted."
	case errors.Is(err, repository.ErrParticipantNotFound),
		errors.Is(err, repository.ErrMilestoneNotFound),
		errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrSurveyNotFound),
		errors.Is(err, repository.ErrDonationNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrRegistrationNotFound):
		return "That record could not be found."
	default:
		log.Error().Err(err).Msg("request failed")
		return "Something went wrong. Please try again."
	}
}

// paramID parses a numeric :id path segment.
func paramID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// parseScope resolves the :participant_id segment of a composite donation
// path, where the literal "anonymous" addresses the no-participant bucket.
func parseScope(token string) (uint64, error) {
	if token == anonymousToken {
		return repository.AnonymousParticipantID, nil
	}
	return strconv.ParseUint(token, 10, 64)
}

// scopeToken is the inverse of parseScope, for building redirect URLs.
func scopeToken(participantID uint64) string {
	if participantID == repository.AnonymousParticipantID {
		return anonymousToken
	}
	return strconv.FormatUint(participantID, 10)
}
