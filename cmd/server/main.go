package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ellarises/ella-rises/internal/config"
	"github.com/ellarises/ella-rises/internal/database"
	"github.com/ellarises/ella-rises/internal/handler"
	"github.com/ellarises/ella-rises/internal/middleware"
	"github.com/ellarises/ella-rises/internal/repository"
	"github.com/ellarises/ella-rises/internal/router"
	"github.com/ellarises/ella-rises/internal/session"
	"github.com/ellarises/ella-rises/internal/view"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.Env != "prod" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	// The public pages must keep serving even when MySQL is down, so a
	// failed ping is logged rather than fatal. Queries will error until the
	// database comes back; the handlers degrade per page.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBTLS)
	if err != nil {
		log.Error().Err(err).Msg("database unreachable at startup, continuing degraded")
	} else if cfg.DBAutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Error().Err(err).Msg("schema migration failed")
		}
		cancel()
	}

	sessionTTL := time.Duration(cfg.SessionTTLHrs) * time.Hour
	rdb := config.NewRedisClient()
	var sessions session.Store
	if rdb != nil {
		sessions = session.NewRedisStore(rdb, sessionTTL)
	} else {
		log.Warn().Msg("redis unavailable, using in-memory sessions")
		sessions = session.NewMemoryStore(sessionTTL)
	}

	participants := repository.NewParticipantRepo(db)
	milestones := repository.NewMilestoneRepo(db)
	events := repository.NewEventRepo(db)
	donations := repository.NewDonationRepo(db)
	surveys := repository.NewSurveyRepo(db)
	users := repository.NewUserRepo(db)
	registrations := repository.NewRegistrationRepo(db)
	stats := repository.NewStatsRepo(db)

	e := echo.New()
	e.HideBanner = true
	e.Renderer = view.New()
	e.Validator = handler.NewFormValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.Attach(sessions, cfg.SessionSecret))

	router.Register(e, router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, users, sessions),
		Public:        handler.NewPublicHandler(stats, events, participants, donations, sessions, cfg.AMQPURL),
		Dashboard:     handler.NewDashboardHandler(stats, sessions),
		Participants:  handler.NewParticipantHandler(participants, milestones, donations, sessions),
		Milestones:    handler.NewMilestoneHandler(milestones, sessions),
		Events:        handler.NewEventHandler(events, registrations, participants, stats, sessions),
		Surveys:       handler.NewSurveyHandler(surveys, participants, events, sessions),
		Donations:     handler.NewDonationHandler(donations, participants, sessions, cfg.AMQPURL),
		Users:         handler.NewUserHandler(users, sessions, cfg.BcryptCost),
		LoginThrottle: middleware.LoginThrottle(config.LoadLoginThrottleConfig(), rdb),
	})

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
