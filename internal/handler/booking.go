package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/traventa/tour-booking-api/internal/apperr"
	"github.com/traventa/tour-booking-api/internal/config"
	"github.com/traventa/tour-booking-api/internal/middleware"
	"github.com/traventa/tour-booking-api/internal/repository"
	"github.com/traventa/tour-booking-api/internal/service"
)

// BookingHandler owns the checkout flow and the current user's
// booking list; staff CRUD goes through the factory in the router.
type BookingHandler struct {
	Cfg      config.Config
	Bookings *repository.BookingRepo
	Tours    *repository.TourRepo
	Checkout service.CheckoutProvider
}

func NewBookingHandler(cfg config.Config, bookings *repository.BookingRepo, tours *repository.TourRepo, checkout service.CheckoutProvider) *BookingHandler {
	return &BookingHandler{Cfg: cfg, Bookings: bookings, Tours: tours, Checkout: checkout}
}

// GetCheckoutSession asks the payment provider for a session covering
// one tour and records an unpaid booking under the session id. The
// booking flips to paid when the provider confirms.
func (h *BookingHandler) GetCheckoutSession(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("you are not logged in, please log in to get access")
	}
	tourID, err := paramID(c, "tourId")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tour, err := h.Tours.Get(ctx, tourID)
	if err != nil {
		return repoErr(err, "no tour found with that ID")
	}

	session, err := h.Checkout.CreateSession(ctx, tour, u, h.Cfg.AppURL+"/my-bookings")
	if err != nil {
		return apperr.Internal(err)
	}

	price := tour.Price
	if tour.PriceDiscount != nil {
		price = *tour.PriceDiscount
	}
	if _, err := h.Bookings.Create(ctx, repository.BookingInput{
		TourID:    tour.ID,
		UserID:    u.ID,
		Price:     price,
		Reference: session.ID,
	}); err != nil {
		return repoErr(err, "")
	}

	return respond(c, http.StatusOK, "session", session)
}

// MyBookings lists the calling user's bookings, newest first.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("you are not logged in, please log in to get access")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Bookings.ListByUser(ctx, u.ID)
	if err != nil {
		return apperr.Internal(err)
	}
	return respondList(c, "bookings", items, int64(len(items)))
}

// PrepBookingCreate assigns a reference to staff-created bookings so
// the unique key over references holds without a checkout session.
func PrepBookingCreate(_ echo.Context, p *repository.BookingInput) error {
	if p.Reference == "" {
		p.Reference = uuid.NewString()
	}
	return nil
}
