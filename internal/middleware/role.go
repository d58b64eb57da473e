package middleware

import (
	"net/http" // HTTP status codes for responses

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/resort-backend/internal/model" // role names
)

// RequireRole returns a middleware that lets the request through only when
// the user resolved by Authenticate holds one of roles.  It must run after
// Authenticate; without a user in the context it answers 401.  A user with
// any other role gets 403, with a message naming the admin role when that is
// the only one accepted.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	denied := "Access denied"
	if len(roles) == 1 && roles[0] == model.RoleAdmin {
		denied = "Access denied. Admin role required."
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := CurrentUser(c)
			if u == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgNoToken})
			}
			if !allowed[u.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"message": denied})
			}
			// Otherwise call the next handler in the chain
			return next(c)
		}
	}
}
