// Package middleware provides the request-processing chain shared by
// protected routes: token extraction and verification, identity
// resolution, role gating, rate limiting and response caching.
package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/traventa/tour-booking-api/internal/apperr"
	"github.com/traventa/tour-booking-api/internal/model"
	"github.com/traventa/tour-booking-api/internal/utils"
)

// userKey is the context key under which the resolved identity is
// stored for downstream handlers.
const userKey = "currentUser"

// CookieName is the session cookie written on login and overwritten
// on logout.
const CookieName = "jwt"

// UserResolver loads a user by id. Inactive (soft-deleted) users must
// come back as not found.
type UserResolver interface {
	Get(ctx context.Context, id uint64) (model.User, error)
}

// CurrentUser returns the identity attached by Protect or
// OptionalAuth, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userKey).(model.User)
	return u, ok
}

// extractToken pulls the raw token from the Authorization header or,
// failing that, the session cookie.
func extractToken(c echo.Context) string {
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if ck, err := c.Cookie(CookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return ""
}

// resolve runs the verification pipeline shared by Protect and
// OptionalAuth: verify signature and expiry, load the subject, reject
// tokens issued before the subject's last password change.
func resolve(c echo.Context, ts *utils.TokenService, users UserResolver, raw string) (model.User, error) {
	claims, err := ts.Verify(raw)
	if err != nil {
		return model.User{}, apperr.Unauthorized("invalid or expired token, please log in again")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := users.Get(ctx, claims.UserID)
	if err != nil {
		return model.User{}, apperr.Unauthorized("the user belonging to this token no longer exists")
	}
	if u.ChangedPasswordAfter(claims.IssuedAt) {
		return model.User{}, apperr.Unauthorized("password was changed recently, please log in again")
	}
	return u, nil
}

// Protect rejects requests without a valid session. On success the
// resolved user is attached to the context for handlers and the role
// gate.
func Protect(ts *utils.TokenService, users UserResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractToken(c)
			if raw == "" {
				return apperr.Unauthorized("you are not logged in, please log in to get access")
			}
			u, err := resolve(c, ts, users, raw)
			if err != nil {
				return err
			}
			c.Set(userKey, u)
			return next(c)
		}
	}
}

// OptionalAuth attaches the identity when a valid session is present
// and continues anonymously on any failure. Used by routes that only
// personalize their output.
func OptionalAuth(ts *utils.TokenService, users UserResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := extractToken(c); raw != "" {
				if u, err := resolve(c, ts, users, raw); err == nil {
					c.Set(userKey, u)
				}
			}
			return next(c)
		}
	}
}
