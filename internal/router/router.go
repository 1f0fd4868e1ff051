// Package router wires handlers, middleware and role gates onto the
// versioned API surface. All resources live under /api/v1.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/traventa/tour-booking-api/internal/config"
	"github.com/traventa/tour-booking-api/internal/handler"
	"github.com/traventa/tour-booking-api/internal/middleware"
	"github.com/traventa/tour-booking-api/internal/query"
	"github.com/traventa/tour-booking-api/internal/repository"
	"github.com/traventa/tour-booking-api/internal/utils"
)

// Deps carries everything route registration needs.
type Deps struct {
	Cfg      config.Config
	Tokens   *utils.TokenService
	Users    *repository.UserRepo
	Tours    *repository.TourRepo
	Reviews  *repository.ReviewRepo
	Bookings *repository.BookingRepo

	Auth     *handler.AuthHandler
	UserH    *handler.UserHandler
	TourH    *handler.TourHandler
	ReviewH  *handler.ReviewHandler
	BookingH *handler.BookingHandler

	Redis *redis.Client
}

func (d Deps) pageDefaults() query.Defaults {
	return query.Defaults{Limit: d.Cfg.DefaultPageSize, MaxLimit: d.Cfg.MaxPageSize}
}

// protect is the auth middleware chain shared by all protected groups.
func (d Deps) protect() echo.MiddlewareFunc {
	return middleware.Protect(d.Tokens, d.Users)
}

// Register sets up global middleware, the centralized error handler
// and every route group.
func Register(e *echo.Echo, d Deps) {
	e.HTTPErrorHandler = handler.ErrorHandler(d.Cfg.IsProd())

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), d.Redis))

	e.GET("/healthz", handler.Health)

	registerUsers(e, d)
	registerTours(e, d)
	registerReviews(e, d)
	registerBookings(e, d)
}
