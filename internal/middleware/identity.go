package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resort-backend/internal/model"
)

const userKey = "user"

func setCurrentUser(c echo.Context, u *model.User) { c.Set(userKey, u) }

// CurrentUser returns the account resolved by Authenticate, or nil on routes
// that are not behind it.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(userKey).(*model.User)
	return u
}

// userID identifies the caller for rate limit keys. Anonymous callers are
// "guest".
func userID(c echo.Context) string {
	if u := CurrentUser(c); u != nil {
		return strconv.FormatUint(u.ID, 10)
	}
	return "guest"
}
