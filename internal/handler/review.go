package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/traventa/tour-booking-api/internal/apperr"
	"github.com/traventa/tour-booking-api/internal/config"
	"github.com/traventa/tour-booking-api/internal/middleware"
	"github.com/traventa/tour-booking-api/internal/query"
	"github.com/traventa/tour-booking-api/internal/repository"
)

// ReviewHandler covers the review behavior the factory cannot:
// scoping lists to the parent tour and stamping the author on create.
// Get/Update/Delete come from the factory in the router.
type ReviewHandler struct {
	Cfg     config.Config
	Reviews *repository.ReviewRepo
}

func NewReviewHandler(cfg config.Config, reviews *repository.ReviewRepo) *ReviewHandler {
	return &ReviewHandler{Cfg: cfg, Reviews: reviews}
}

// List serves both /reviews and the nested /tours/:tourId/reviews. On
// the nested route the parent tour is forced into the filter set
// ahead of anything the query string asked for.
func (h *ReviewHandler) List(c echo.Context) error {
	spec := query.Parse(c.QueryParams(), repository.ReviewSchema, query.Defaults{
		Limit:    h.Cfg.DefaultPageSize,
		MaxLimit: h.Cfg.MaxPageSize,
	})
	if tourParam := c.Param("tourId"); tourParam != "" {
		tourID, err := paramID(c, "tourId")
		if err != nil {
			return err
		}
		spec.Filters = append([]query.Filter{{
			Field: "tourId",
			Op:    query.OpEq,
			Value: strconv.FormatUint(tourID, 10),
		}}, spec.Filters...)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, total, err := h.Reviews.List(ctx, spec)
	if err != nil {
		return apperr.Internal(err)
	}
	if len(spec.Fields) > 0 {
		return respondList(c, "reviews", query.ProjectAll(items, spec.Fields), total)
	}
	return respondList(c, "reviews", items, total)
}

// PrepReviewCreate is the factory hook that fills server-derived
// review fields: the tour comes from the nested route (overriding any
// body value) and the author is always the authenticated user.
func PrepReviewCreate(c echo.Context, p *repository.ReviewInput) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("you are not logged in, please log in to get access")
	}
	p.UserID = u.ID

	if c.Param("tourId") != "" {
		tourID, err := paramID(c, "tourId")
		if err != nil {
			return err
		}
		p.TourID = tourID
	}
	if p.TourID == 0 {
		return apperr.BadRequest("review must belong to a tour")
	}
	return nil
}
