package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ellarises/ella-rises/internal/repository"
)

func TestTeaAlwaysBrews418(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/tea", nil)
	rec := httptest.NewRecorder()

	if err := Tea(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Tea: %v", err)
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestParseScope(t *testing.T) {
	id, err := parseScope("anonymous")
	if err != nil || id != repository.AnonymousParticipantID {
		t.Errorf("parseScope(anonymous) = %d, %v", id, err)
	}
	id, err = parseScope("42")
	if err != nil || id != 42 {
		t.Errorf("parseScope(42) = %d, %v", id, err)
	}
	if _, err := parseScope("nope"); err == nil {
		t.Error("parseScope(nope) succeeded, want error")
	}
}

func TestScopeTokenInvertsParseScope(t *testing.T) {
	if got := scopeToken(repository.AnonymousParticipantID); got != "anonymous" {
		t.Errorf("scopeToken(0) = %q, want anonymous", got)
	}
	if got := scopeToken(42); got != "42" {
		t.Errorf("scopeToken(42) = %q, want 42", got)
	}
}

func TestUserMessageMapsSentinels(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{repository.ErrConflict, "That value is already in use."},
		{repository.ErrBlocked, "This record still has donations attached and cannot be deleted."},
		{repository.ErrDonationNotFound, "That record could not be found."},
		{repository.ErrParticipantNotFound, "That record could not be found."},
		{errors.New("mysql gone away"), "Something went wrong. Please try again."},
	}
	for _, tt := range tests {
		if got := userMessage(tt.err); got != tt.want {
			t.Errorf("userMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
