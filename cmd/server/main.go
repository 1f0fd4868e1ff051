package main

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/traventa/tour-booking-api/internal/config"
	"github.com/traventa/tour-booking-api/internal/database"
	"github.com/traventa/tour-booking-api/internal/handler"
	"github.com/traventa/tour-booking-api/internal/repository"
	"github.com/traventa/tour-booking-api/internal/router"
	"github.com/traventa/tour-booking-api/internal/service"
	"github.com/traventa/tour-booking-api/internal/utils"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; without it cache and rate limiting pass through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tours := repository.NewTourRepo(db)
	reviews := repository.NewReviewRepo(db)
	bookings := repository.NewBookingRepo(db)

	// Review mutations trigger an idempotent recompute of the tour's
	// rating aggregates.
	reviews.OnChange(tours.RecalcRatings)

	tokens := utils.NewTokenService(cfg.JWTSecret, cfg.JWTTTLMin)

	var mail service.Mailer = service.LogMailer{}
	if cfg.AMQPURL != "" {
		mail = service.NewQueueMailer(cfg.AMQPURL)
	}
	checkout := service.NewLocalCheckout(cfg.AppURL)

	e := echo.New()
	e.HideBanner = true

	router.Register(e, router.Deps{
		Cfg:      cfg,
		Tokens:   tokens,
		Users:    users,
		Tours:    tours,
		Reviews:  reviews,
		Bookings: bookings,
		Auth:     handler.NewAuthHandler(cfg, users, tokens, mail),
		UserH:    handler.NewUserHandler(cfg, users),
		TourH:    handler.NewTourHandler(cfg, tours),
		ReviewH:  handler.NewReviewHandler(cfg, reviews),
		BookingH: handler.NewBookingHandler(cfg, bookings, tours, checkout),
		Redis:    rdb,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
