// Package router maps URLs to handlers and applies the access guards.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ellarises/ella-rises/internal/handler"
	"github.com/ellarises/ella-rises/internal/middleware"
)

// Handlers bundles everything the route table needs. LoginThrottle guards
// only the login POST; a nil throttle means no rate limiting.
type Handlers struct {
	Auth          *handler.AuthHandler
	Public        *handler.PublicHandler
	Dashboard     *handler.DashboardHandler
	Participants  *handler.ParticipantHandler
	Milestones    *handler.MilestoneHandler
	Events        *handler.EventHandler
	Surveys       *handler.SurveyHandler
	Donations     *handler.DonationHandler
	Users         *handler.UserHandler
	LoginThrottle echo.MiddlewareFunc
}

// Register wires the full route table: the public pages, the session
// endpoints, the authenticated read surface and the manager-only mutations.
func Register(e *echo.Echo, h Handlers) {
	// Public pages. These render for guests and degrade gracefully when the
	// database is unavailable.
	e.GET("/", h.Public.Home)
	e.GET("/programs", h.Public.Programs)
	e.GET("/impact", h.Public.Impact)
	e.GET("/events", h.Public.PublicEvents)
	e.GET("/donate", h.Public.DonatePage)
	e.POST("/donations/public", h.Public.PublicDonate)

	e.GET("/tea", handler.Tea)
	e.GET("/healthz", handler.Health)

	e.GET("/login", h.Auth.LoginForm)
	if h.LoginThrottle != nil {
		e.POST("/login", h.Auth.Login, h.LoginThrottle)
	} else {
		e.POST("/login", h.Auth.Login)
	}
	e.POST("/logout", h.Auth.Logout)

	// Read surface: any signed-in user.
	auth := e.Group("", middleware.RequireAuthenticated)
	auth.GET("/dashboard", h.Dashboard.Dashboard)

	auth.GET("/participants", h.Participants.List)
	auth.GET("/participants/:id", h.Participants.Detail)
	auth.GET("/milestones", h.Milestones.List)
	auth.GET("/milestones/:id", h.Milestones.Detail)
	auth.GET("/events/admin", h.Events.List)
	auth.GET("/events/admin/:id", h.Events.Detail)
	auth.GET("/surveys", h.Surveys.List)
	auth.GET("/surveys/:id", h.Surveys.Detail)
	auth.GET("/donations", h.Donations.List)
	auth.GET("/donations/:participant_id/:donation_number", h.Donations.Detail)
	auth.GET("/users", h.Users.List)
	auth.GET("/users/:id", h.Users.Detail)

	// Mutations: manager role only. Echo matches static segments before
	// params, so /donations/new never collides with the composite key route.
	priv := e.Group("", middleware.RequirePrivileged)

	priv.GET("/participants/new", h.Participants.NewForm)
	priv.POST("/participants/new", h.Participants.Create)
	priv.GET("/participants/:id/edit", h.Participants.EditForm)
	priv.POST("/participants/:id", h.Participants.Update)
	priv.POST("/participants/:id/delete", h.Participants.Delete)
	priv.POST("/participants/:id/milestones", h.Participants.AssignMilestone)
	priv.POST("/participants/:id/milestones/:milestone_id/delete", h.Participants.UnassignMilestone)

	priv.GET("/milestones/new", h.Milestones.NewForm)
	priv.POST("/milestones/new", h.Milestones.Create)
	priv.GET("/milestones/:id/edit", h.Milestones.EditForm)
	priv.POST("/milestones/:id", h.Milestones.Update)
	priv.POST("/milestones/:id/delete", h.Milestones.Delete)

	priv.GET("/events/admin/new", h.Events.NewForm)
	priv.POST("/events/admin/new", h.Events.Create)
	priv.GET("/events/admin/:id/edit", h.Events.EditForm)
	priv.POST("/events/admin/:id", h.Events.Update)
	priv.POST("/events/admin/:id/delete", h.Events.Delete)
	priv.POST("/events/admin/:id/registrations", h.Events.Register)
	priv.POST("/events/admin/:id/registrations/:reg_id/attended", h.Events.SetAttended)
	priv.POST("/events/admin/:id/registrations/:reg_id/delete", h.Events.RemoveRegistration)

	priv.GET("/surveys/new", h.Surveys.NewForm)
	priv.POST("/surveys/new", h.Surveys.Create)
	priv.POST("/surveys/:id/delete", h.Surveys.Delete)

	priv.GET("/donations/new", h.Donations.NewForm)
	priv.POST("/donations/new", h.Donations.Create)
	priv.GET("/donations/:participant_id/:donation_number/edit", h.Donations.EditForm)
	priv.POST("/donations/:participant_id/:donation_number", h.Donations.Update)
	priv.POST("/donations/:participant_id/:donation_number/delete", h.Donations.Delete)

	priv.GET("/users/new", h.Users.NewForm)
	priv.POST("/users/new", h.Users.Create)
	priv.GET("/users/:id/edit", h.Users.EditForm)
	priv.POST("/users/:id", h.Users.Update)
	priv.POST("/users/:id/delete", h.Users.Delete)
}
