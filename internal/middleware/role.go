package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/traventa/tour-booking-api/internal/apperr"
	"github.com/traventa/tour-booking-api/internal/model"
)

// RequireRole enforces that the authenticated user holds one of the
// given roles. It must run after Protect; a request that reaches it
// without an identity is rejected as unauthenticated rather than
// forbidden.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return apperr.Unauthorized("you are not logged in, please log in to get access")
			}
			if !allowed[u.Role] {
				return apperr.Forbidden("you do not have permission to perform this action")
			}
			return next(c)
		}
	}
}
