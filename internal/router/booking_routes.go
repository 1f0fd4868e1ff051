package router

import (
	"github.com/labstack/echo/v4"

	"github.com/traventa/tour-booking-api/internal/handler"
	"github.com/traventa/tour-booking-api/internal/middleware"
	"github.com/traventa/tour-booking-api/internal/model"
	"github.com/traventa/tour-booking-api/internal/repository"
)

// registerBookings wires the checkout flow for any logged-in user and
// the staff-only booking CRUD.
func registerBookings(e *echo.Echo, d Deps) {
	g := e.Group("/api/v1/bookings", d.protect())

	g.GET("/checkout-session/:tourId", d.BookingH.GetCheckoutSession)
	g.GET("/my-bookings", d.BookingH.MyBookings)

	staff := g.Group("", middleware.RequireRole(model.RoleAdmin, model.RoleLeadGuide))
	staff.GET("", handler.ListAll[model.Booking](d.Bookings, repository.BookingSchema, d.pageDefaults(), "bookings"))
	staff.POST("", handler.CreateOne[model.Booking, repository.BookingInput](d.Bookings, "booking", handler.PrepBookingCreate))
	staff.GET("/:id", handler.GetOne[model.Booking](d.Bookings, "booking", "no booking found with that ID"))
	staff.PATCH("/:id", handler.UpdateOne[model.Booking, repository.BookingInput](d.Bookings, "booking", "no booking found with that ID"))
	staff.DELETE("/:id", handler.DeleteOne(d.Bookings, "no booking found with that ID"))
}
