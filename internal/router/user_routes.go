package router

import (
	"github.com/labstack/echo/v4"

	"github.com/traventa/tour-booking-api/internal/handler"
	"github.com/traventa/tour-booking-api/internal/middleware"
	"github.com/traventa/tour-booking-api/internal/model"
	"github.com/traventa/tour-booking-api/internal/repository"
)

// registerUsers wires the credential endpoints, the self-service
// account routes and the admin-only user CRUD.
func registerUsers(e *echo.Echo, d Deps) {
	g := e.Group("/api/v1/users")

	// Open endpoints: account creation and credential recovery.
	g.POST("/signup", d.Auth.Signup)
	g.POST("/login", d.Auth.Login)
	g.GET("/logout", d.Auth.Logout)
	g.POST("/forgotPassword", d.Auth.ForgotPassword)
	g.PATCH("/resetPassword/:token", d.Auth.ResetPassword)

	// Everything below requires a live session.
	auth := g.Group("", d.protect())
	auth.PATCH("/updatePassword", d.Auth.UpdatePassword)
	auth.GET("/me", d.UserH.GetMe)
	auth.PATCH("/updateMe", d.UserH.UpdateMe)
	auth.DELETE("/deleteMe", d.UserH.DeleteMe)

	// Admin-only management of arbitrary accounts. Delete is a soft
	// delete; UserRepo flips the active flag instead of removing rows.
	admin := g.Group("", d.protect(), middleware.RequireRole(model.RoleAdmin))
	admin.GET("", handler.ListAll[model.User](d.Users, repository.UserSchema, d.pageDefaults(), "users"))
	admin.GET("/:id", handler.GetOne[model.User](d.Users, "user", "no user found with that ID"))
	admin.PATCH("/:id", handler.UpdateOne[model.User, repository.UserUpdate](d.Users, "user", "no user found with that ID"))
	admin.DELETE("/:id", handler.DeleteOne(d.Users, "no user found with that ID"))
}
