package router

import (
	"github.com/labstack/echo/v4"

	"github.com/traventa/tour-booking-api/internal/handler"
	"github.com/traventa/tour-booking-api/internal/middleware"
	"github.com/traventa/tour-booking-api/internal/model"
	"github.com/traventa/tour-booking-api/internal/repository"
)

// registerReviews wires the flat review CRUD and the nested routes
// scoped under a parent tour. Every review route requires a session;
// only regular users write reviews, while moderation (update/delete)
// is shared with admins.
func registerReviews(e *echo.Echo, d Deps) {
	create := handler.CreateOne[model.Review, repository.ReviewInput](d.Reviews, "review", handler.PrepReviewCreate)
	update := handler.UpdateOne[model.Review, repository.ReviewInput](d.Reviews, "review", "no review found with that ID")
	remove := handler.DeleteOne(d.Reviews, "no review found with that ID")

	g := e.Group("/api/v1/reviews", d.protect())
	g.GET("", d.ReviewH.List)
	g.POST("", create, middleware.RequireRole(model.RoleUser))
	g.GET("/:id", handler.GetOne[model.Review](d.Reviews, "review", "no review found with that ID"))
	g.PATCH("/:id", update, middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	g.DELETE("/:id", remove, middleware.RequireRole(model.RoleUser, model.RoleAdmin))

	nested := e.Group("/api/v1/tours/:tourId/reviews", d.protect())
	nested.GET("", d.ReviewH.List)
	nested.POST("", create, middleware.RequireRole(model.RoleUser))
}
