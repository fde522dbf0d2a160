package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ellarises/ella-rises/internal/config"
	"github.com/ellarises/ella-rises/internal/middleware"
	"github.com/ellarises/ella-rises/internal/repository"
	"github.com/ellarises/ella-rises/internal/session"
	"github.com/ellarises/ella-rises/internal/utils"
)

// AuthHandler owns session establishment and teardown. Authentication
// itself (hash verification) lives in the user repository; this handler
// only consumes its verdict.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions session.Store
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(cfg config.Config, users *repository.UserRepo, sessions session.Store) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Sessions: sessions}
}

type loginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// LoginForm renders the login page, skipping straight to the dashboard for
// callers who already carry a session.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	if middleware.UserID(c) != 0 {
		return c.Redirect(http.StatusSeeOther, "/dashboard")
	}
	return c.Render(http.StatusOK, "login", pageData(c, h.Sessions, "Log in", nil))
}

// Login verifies credentials, creates the server-side session record and
// hands the browser a signed cookie holding only the opaque session id.
func (h *AuthHandler) Login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil || c.Validate(&form) != nil {
		return h.loginFailed(c, "Username and password are required.")
	}

	u, err := h.Users.Authenticate(c.Request().Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, repository.ErrBadCredentials) {
			return h.loginFailed(c, "Invalid username or password.")
		}
		return h.loginFailed(c, userMessage(err))
	}

	ttl := time.Duration(h.Cfg.SessionTTLHrs) * time.Hour
	sid, err := h.Sessions.Create(c.Request().Context(), session.Record{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	})
	if err != nil {
		return h.loginFailed(c, userMessage(err))
	}
	token, err := utils.NewSessionToken(h.Cfg.SessionSecret, sid, ttl)
	if err != nil {
		return h.loginFailed(c, userMessage(err))
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.Env == "prod",
	})
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *AuthHandler) loginFailed(c echo.Context, msg string) error {
	data := pageData(c, h.Sessions, "Log in", nil)
	data["Flash"] = &session.Flash{Kind: "error", Message: msg}
	return c.Render(http.StatusUnauthorized, "login", data)
}

// Logout drops the server-side session and expires the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	if sid := middleware.SessionID(c); sid != "" {
		_ = h.Sessions.Delete(c.Request().Context(), sid)
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return c.Redirect(http.StatusSeeOther, "/")
}
