package router

import (
	"github.com/labstack/echo/v4"
)

// RegisterEnquiries mounts the enquiry workflow under /api/enquiries. Anyone
// may submit; signed-in users see their own submissions; everything else is
// admin only, including the full listing.
func RegisterEnquiries(e *echo.Echo, d Deps) {
	authenticated, admin, limited := gates(d)
	h := d.Enquiries

	g := e.Group("/api/enquiries")
	g.POST("", h.Create, limited)
	g.GET("/my-enquiries", h.ListOwn, authenticated...)

	g.GET("", h.List, admin...)
	g.GET("/stats", h.Stats, admin...)
	g.GET("/:id", h.Get, admin...)
	g.PUT("/:id/status", h.UpdateStatus, admin...)
	g.DELETE("/:id", h.Delete, admin...)
}
