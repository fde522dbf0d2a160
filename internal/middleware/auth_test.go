package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/participants", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestRequireAuthenticatedRedirectsGuests(t *testing.T) {
	c, rec := newTestContext(t)

	if err := RequireAuthenticated(okHandler)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestRequireAuthenticatedPassesSignedInUsers(t *testing.T) {
	c, rec := newTestContext(t)
	c.Set("user_id", uint64(7))
	c.Set("role", "standard")

	if err := RequireAuthenticated(okHandler)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequirePrivilegedBouncesStandardUsers(t *testing.T) {
	c, rec := newTestContext(t)
	c.Set("user_id", uint64(7))
	c.Set("role", "standard")

	if err := RequirePrivileged(okHandler)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}
}

func TestRequirePrivilegedPassesManagers(t *testing.T) {
	c, rec := newTestContext(t)
	c.Set("user_id", uint64(7))
	c.Set("role", "manager")

	if err := RequirePrivileged(okHandler)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequirePrivilegedSendsGuestsToLogin(t *testing.T) {
	c, rec := newTestContext(t)

	if err := RequirePrivileged(okHandler)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}
