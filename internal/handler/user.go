package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/traventa/tour-booking-api/internal/apperr"
	"github.com/traventa/tour-booking-api/internal/config"
	"github.com/traventa/tour-booking-api/internal/middleware"
	"github.com/traventa/tour-booking-api/internal/repository"
)

// UserHandler serves the self-service account endpoints. Admin CRUD
// over users is wired straight from the factory in the router.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users}
}

type updateMeReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
	// Bound only to reject password changes on this route.
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// GetMe returns the authenticated user's own record.
func (h *UserHandler) GetMe(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("you are not logged in, please log in to get access")
	}
	return respond(c, http.StatusOK, "user", u)
}

// UpdateMe changes name, email or photo of the calling user. Password
// fields are rejected here; they belong to the updatePassword route
// so the password-changed timestamp is always maintained.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("you are not logged in, please log in to get access")
	}
	var req updateMeReq
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if req.Password != "" || req.PasswordConfirm != "" {
		return apperr.BadRequest("this route is not for password updates, please use /updatePassword")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	fresh, err := h.Users.UpdateProfile(ctx, u.ID, req.Name, req.Email, req.Photo)
	if err != nil {
		return repoErr(err, "no user found with that ID")
	}
	return respond(c, http.StatusOK, "user", fresh)
}

// DeleteMe soft-deletes the calling user's account. The row stays in
// storage with active=0 and vanishes from every read path.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("you are not logged in, please log in to get access")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Delete(ctx, u.ID); err != nil {
		return repoErr(err, "no user found with that ID")
	}
	return c.NoContent(http.StatusNoContent)
}
