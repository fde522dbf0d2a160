package middleware // middleware provides shared request processing for handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ellarises/ella-rises/internal/repository"
	"github.com/ellarises/ella-rises/internal/session"
	"github.com/ellarises/ella-rises/internal/utils"
)

// SessionCookie is the name of the cookie carrying the signed session token.
const SessionCookie = "ella_session"

// Attach resolves the session cookie into a verified identity and stashes
// it in the request context under "user_id", "username", "role" and
// "session_id". A missing, invalid or expired cookie is not an error here;
// the request simply proceeds without an identity and the guards below
// decide what that means per route.
func Attach(store session.Store, secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			sid, err := utils.ParseSessionToken(secret, cookie.Value)
			if err != nil {
				return next(c)
			}
			rec, err := store.Get(c.Request().Context(), sid)
			if err != nil {
				if !errors.Is(err, session.ErrSessionNotFound) {
					c.Logger().Warnf("session load failed: %v", err)
				}
				return next(c)
			}
			c.Set("session_id", sid)
			c.Set("user_id", rec.UserID)
			c.Set("username", rec.Username)
			c.Set("role", rec.Role)
			return next(c)
		}
	}
}

// RequireAuthenticated passes requests that carry a verified identity and
// sends everyone else to the login page.
func RequireAuthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get("user_id").(uint64); !ok {
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		return next(c)
	}
}

// RequirePrivileged implies RequireAuthenticated and additionally demands
// the manager role. Authenticated non-managers are bounced to the dashboard
// rather than shown an error page.
func RequirePrivileged(next echo.HandlerFunc) echo.HandlerFunc {
	return RequireAuthenticated(func(c echo.Context) error {
		if role, _ := c.Get("role").(string); role != repository.RoleManager {
			return c.Redirect(http.StatusSeeOther, "/dashboard")
		}
		return next(c)
	})
}

// SessionID returns the current request's session id, or "" when the
// request is unauthenticated.
func SessionID(c echo.Context) string {
	sid, _ := c.Get("session_id").(string)
	return sid
}

// UserID returns the verified user id, or 0 when absent.
func UserID(c echo.Context) uint64 {
	id, _ := c.Get("user_id").(uint64)
	return id
}
