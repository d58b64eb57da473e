package router

import (
	"github.com/labstack/echo/v4"
)

// RegisterUsers mounts account endpoints under /api/users. Register and
// login are public and rate limited; listing users and creating admins
// require the admin role.
func RegisterUsers(e *echo.Echo, d Deps) {
	authenticated, admin, limited := gates(d)
	h := d.Users

	g := e.Group("/api/users")
	g.POST("/register", h.Register, limited)
	g.POST("/login", h.Login, limited)

	g.GET("/profile", h.Profile, authenticated...)
	g.PUT("/profile", h.UpdateProfile, authenticated...)

	g.GET("/all", h.ListAll, admin...)
	g.POST("/admin", h.CreateAdmin, admin...)
}
