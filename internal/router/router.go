// Package router builds the echo instance and registers every route.
package router

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/resort-backend/internal/config"
	"github.com/iliyamo/resort-backend/internal/handler"
	"github.com/iliyamo/resort-backend/internal/middleware"
	"github.com/iliyamo/resort-backend/internal/model"
)

// Deps is everything the HTTP surface needs. Redis and DB may be nil: rate
// limiting is then disabled and /health skips the database check.
type Deps struct {
	Users       *handler.UserHandler
	Enquiries   *handler.EnquiryHandler
	Tokens      middleware.TokenVerifier
	Accounts    middleware.UserLookup
	DB          handler.Pinger
	Redis       redis.Scripter
	RateLimit   config.RateLimitConfig
	CORSOrigins []string
	Log         *zap.Logger
}

// New returns an echo instance with the global middleware chain and all
// routes registered.
func New(d Deps) *echo.Echo {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Pre(echomw.RemoveTrailingSlash())

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("1M"))

	RegisterRoutes(e, d.DB)
	RegisterUsers(e, d)
	RegisterEnquiries(e, d)
	return e
}

// RegisterRoutes registers the unauthenticated informational endpoints.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/", handler.Welcome)
	e.GET("/health", handler.Health(db))
}

func gates(d Deps) (authenticated, admin []echo.MiddlewareFunc, limited echo.MiddlewareFunc) {
	auth := middleware.Authenticate(d.Tokens, d.Accounts, d.Log)
	authenticated = []echo.MiddlewareFunc{auth}
	admin = []echo.MiddlewareFunc{auth, middleware.RequireRole(model.RoleAdmin)}
	limited = middleware.RateLimit(d.RateLimit, d.Redis, d.Log)
	return authenticated, admin, limited
}
