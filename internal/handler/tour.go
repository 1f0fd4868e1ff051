package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/traventa/tour-booking-api/internal/apperr"
	"github.com/traventa/tour-booking-api/internal/config"
	"github.com/traventa/tour-booking-api/internal/repository"
)

// TourHandler serves the tour endpoints that go beyond plain CRUD;
// the factory covers the rest in the router.
type TourHandler struct {
	Cfg   config.Config
	Tours *repository.TourRepo
}

func NewTourHandler(cfg config.Config, tours *repository.TourRepo) *TourHandler {
	return &TourHandler{Cfg: cfg, Tours: tours}
}

// AliasTopCheap rewrites the query string to a canned "top 5 cheap"
// listing before the generic list handler runs.
func AliasTopCheap(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Request().URL.RawQuery = "limit=5&sort=-ratingsAverage,price&fields=name,price,ratingsAverage,summary,difficulty"
		return next(c)
	}
}

// GetBySlug serves the public tour detail page lookup.
func (h *TourHandler) GetBySlug(c echo.Context) error {
	slug := c.Param("slug")
	if slug == "" {
		return apperr.BadRequest("invalid slug")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Tours.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("no tour found with that name")
		}
		return apperr.Internal(err)
	}
	return respond(c, http.StatusOK, "tour", t)
}

// Stats returns rating and price aggregates grouped by difficulty.
func (h *TourHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	stats, err := h.Tours.Stats(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	return respond(c, http.StatusOK, "stats", stats)
}
