package router

import (
	"github.com/labstack/echo/v4"

	"github.com/traventa/tour-booking-api/internal/config"
	"github.com/traventa/tour-booking-api/internal/handler"
	"github.com/traventa/tour-booking-api/internal/middleware"
	"github.com/traventa/tour-booking-api/internal/model"
	"github.com/traventa/tour-booking-api/internal/repository"
)

// registerTours wires the public browse endpoints (cached), the staff
// mutations and the stats routes.
func registerTours(e *echo.Echo, d Deps) {
	g := e.Group("/api/v1/tours")
	cache := middleware.Cache(config.LoadCacheConfig(), d.Redis)

	list := handler.ListAll[model.Tour](d.Tours, repository.TourSchema, d.pageDefaults(), "tours")

	g.GET("", list, cache)
	g.GET("/top-5-cheap", list, handler.AliasTopCheap, cache)
	g.GET("/stats", d.TourH.Stats, cache)
	g.GET("/slug/:slug", d.TourH.GetBySlug, cache)
	g.GET("/:id", handler.GetOne[model.Tour](d.Tours, "tour", "no tour found with that ID"), cache)

	staff := g.Group("", d.protect(), middleware.RequireRole(model.RoleAdmin, model.RoleLeadGuide))
	staff.POST("", handler.CreateOne[model.Tour, repository.TourInput](d.Tours, "tour", nil))
	staff.PATCH("/:id", handler.UpdateOne[model.Tour, repository.TourInput](d.Tours, "tour", "no tour found with that ID"))
	staff.DELETE("/:id", handler.DeleteOne(d.Tours, "no tour found with that ID"))
}
