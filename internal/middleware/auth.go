package middleware // middleware provides the request gates shared by the route groups

import (
	"context"  // request-scoped context for the account lookup
	"errors"   // errors.Is on repository sentinels
	"net/http" // HTTP status codes for responses
	"strings"  // prefix matching and trimming of the Authorization header

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware
	"go.uber.org/zap"             // structured logging of storage failures

	"github.com/iliyamo/resort-backend/internal/model"      // user record placed in the context
	"github.com/iliyamo/resort-backend/internal/repository" // ErrNotFound for deleted accounts
)

// TokenVerifier resolves a bearer token to the id of the user it was issued
// to.  *utils.TokenIssuer satisfies it.
type TokenVerifier interface {
	Verify(raw string) (uint64, error)
}

// UserLookup loads the account behind a verified token.  It is satisfied by
// *repository.UserRepo and by the in-memory store used in tests.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

const (
	msgNoToken      = "No token, authorization denied"
	msgInvalidToken = "Token is not valid"
	msgDeactivated  = "Account is deactivated"
)

// Authenticate returns an Echo middleware that requires a valid Bearer token
// belonging to an existing, active account.  The token only carries the user
// id; the account itself is loaded on every request, so deactivating or
// deleting a user locks them out even while their token is unexpired.  An
// expired, tampered or foreign token gets the same answer as a token whose
// user no longer exists.  On success the loaded user is stored in the
// context, where handlers and RequireRole read it through CurrentUser.
func Authenticate(tokens TokenVerifier, users UserLookup, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// The header must be "Bearer <token>"; any other scheme counts
			// as no token at all.
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgNoToken})
			}

			// Signature, algorithm and expiry are checked by the verifier.
			id, err := tokens.Verify(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgInvalidToken})
			}

			// Load the account.  A missing row is an invalid token; any
			// other failure is ours and is logged, not shown.
			u, err := users.GetByID(c.Request().Context(), id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgInvalidToken})
				}
				log.Error("load authenticated user", zap.Uint64("user_id", id), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Something went wrong!"})
			}
			if !u.IsActive {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgDeactivated})
			}

			setCurrentUser(c, u)
			return next(c)
		}
	}
}

// bearerToken extracts the token from an Authorization header.  The scheme
// is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(prefix):])
	return raw, raw != ""
}
