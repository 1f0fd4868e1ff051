package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/traventa/tour-booking-api/internal/apperr"
	"github.com/traventa/tour-booking-api/internal/config"
	"github.com/traventa/tour-booking-api/internal/middleware"
	"github.com/traventa/tour-booking-api/internal/model"
	"github.com/traventa/tour-booking-api/internal/repository"
	"github.com/traventa/tour-booking-api/internal/service"
	"github.com/traventa/tour-booking-api/internal/utils"
)

// AuthHandler bundles dependencies for the credential endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *utils.TokenService
	Mail   service.Mailer
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, tokens *utils.TokenService, mail service.Mailer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens, Mail: mail}
}

// ----- DTOs -----

type signupReq struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotReq struct {
	Email string `json:"email"`
}

type newPasswordReq struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type updatePasswordReq struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func validPassword(password, confirm string) error {
	if len(password) < 8 {
		return apperr.BadRequest("password must be at least 8 characters")
	}
	if password != confirm {
		return apperr.BadRequest("passwords do not match")
	}
	return nil
}

// issueSession signs a token for the user, sets it as the session
// cookie and writes the auth envelope. The cookie lifetime is
// configured independently of the token TTL; an expired token inside
// a live cookie still fails verification.
func (h *AuthHandler) issueSession(c echo.Context, u model.User, code int) error {
	token, _, err := h.Tokens.Issue(u.ID)
	if err != nil {
		return apperr.Internal(err)
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Expires:  time.Now().Add(time.Duration(h.Cfg.CookieTTLDays) * 24 * time.Hour),
		HttpOnly: true,
		Secure:   h.Cfg.IsProd(),
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(code, envelope{
		Status: "success",
		Token:  token,
		Data:   map[string]any{"user": u},
	})
}

// Signup creates a user and logs them in immediately. The response
// user never carries password material; the model does not serialize
// it.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" {
		return apperr.BadRequest("please tell us your name")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apperr.BadRequest("please provide a valid email")
	}
	if err := validPassword(req.Password, req.PasswordConfirm); err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperr.Conflict("an account with this email already exists")
		}
		return apperr.Internal(err)
	}

	// Welcome mail is best effort; signup succeeds regardless.
	_ = h.Mail.Send(ctx, service.MailWelcome, u.Email, map[string]string{
		"name": u.Name,
		"url":  h.Cfg.AppURL + "/me",
	})

	return h.issueSession(c, u, http.StatusCreated)
}

// Login checks credentials and issues a fresh session. Unknown email
// and wrong password are indistinguishable to the client.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperr.BadRequest("please provide email and password")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmailWithPassword(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Unauthorized("incorrect email or password")
		}
		return apperr.Internal(err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return apperr.Unauthorized("incorrect email or password")
	}
	u.PasswordHash = ""

	return h.issueSession(c, u, http.StatusOK)
}

// Logout overwrites the session cookie with a short-lived dummy value.
// The bearer token itself stays valid until expiry; logout is a
// cookie-clearing convenience for browser clients.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    "loggedout",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Path:     "/",
	})
	return respondMessage(c, http.StatusOK, "logged out")
}

// ForgotPassword generates a reset token, stores only its hash and
// mails the plaintext inside a one-time URL. When the mail cannot be
// queued the token is cleared again so no orphaned token lingers.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return apperr.BadRequest("please provide your email address")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmailWithPassword(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("there is no user with that email address")
		}
		return apperr.Internal(err)
	}

	reset, err := utils.NewResetToken(time.Duration(h.Cfg.ResetTTLMin) * time.Minute)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := h.Users.SetResetToken(ctx, u.ID, reset.Hash, reset.ExpiresAt); err != nil {
		return apperr.Internal(err)
	}

	resetURL := h.Cfg.AppURL + "/api/v1/users/resetPassword/" + reset.Plain
	if err := h.Mail.Send(ctx, service.MailPasswordReset, u.Email, map[string]string{
		"name": u.Name,
		"url":  resetURL,
	}); err != nil {
		_ = h.Users.ClearResetToken(ctx, u.ID)
		return apperr.Wrap(http.StatusInternalServerError,
			"there was an error sending the email, try again later", err)
	}

	return respondMessage(c, http.StatusOK, "token sent to email")
}

// ResetPassword consumes a reset token presented in the URL. The
// token is valid only if its hash matches the stored one and the
// window has not passed; both failures share one message so the
// endpoint cannot be used to probe for live tokens.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	plain := c.Param("token")
	var req newPasswordReq
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if err := validPassword(req.Password, req.PasswordConfirm); err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByResetTokenHash(ctx, utils.HashResetToken(plain))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.BadRequest("token is invalid or has expired")
		}
		return apperr.Internal(err)
	}
	if u.ResetTokenHash == nil || u.ResetTokenExpiresAt == nil ||
		!utils.MatchResetToken(plain, *u.ResetTokenHash, *u.ResetTokenExpiresAt) {
		return apperr.BadRequest("token is invalid or has expired")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return repoErr(err, "the user belonging to this token no longer exists")
	}
	if err := h.Users.ClearResetToken(ctx, u.ID); err != nil {
		return apperr.Internal(err)
	}

	fresh, err := h.Users.Get(ctx, u.ID)
	if err != nil {
		return apperr.Internal(err)
	}
	return h.issueSession(c, fresh, http.StatusOK)
}

// UpdatePassword lets a logged-in user rotate their password after
// re-proving the current one. A new session is issued because the
// change invalidates every outstanding token.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	cu, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("you are not logged in, please log in to get access")
	}
	var req updatePasswordReq
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if err := validPassword(req.Password, req.PasswordConfirm); err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetWithPassword(ctx, cu.ID)
	if err != nil {
		return repoErr(err, "the user belonging to this token no longer exists")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.PasswordCurrent) {
		return apperr.Unauthorized("your current password is wrong")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return apperr.Internal(err)
	}

	fresh, err := h.Users.Get(ctx, u.ID)
	if err != nil {
		return apperr.Internal(err)
	}
	return h.issueSession(c, fresh, http.StatusOK)
}
