package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/resort-backend/internal/middleware"
	"github.com/iliyamo/resort-backend/internal/model"
	"github.com/iliyamo/resort-backend/internal/service"
)

const msgInvalidBody = "Invalid request body"

// UserHandler serves the /api/users endpoints.
type UserHandler struct {
	Users *service.UserService
	Log   *zap.Logger
}

func NewUserHandler(users *service.UserService, log *zap.Logger) *UserHandler {
	if users == nil {
		panic("nil user service passed to NewUserHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &UserHandler{Users: users, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name" form:"name"`
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Phone    string `json:"phone" form:"phone"`
	Password string `json:"password" form:"password"`
}

func (r registerReq) input() service.RegisterInput {
	return service.RegisterInput{Name: r.Name, Username: r.Username, Email: r.Email, Phone: r.Phone, Password: r.Password}
}

type loginReq struct {
	EmailOrUsername string `json:"emailOrUsername" form:"emailOrUsername"`
	Password        string `json:"password" form:"password"`
}

type updateProfileReq struct {
	Name           *string      `json:"name"`
	Email          *string      `json:"email"`
	Phone          *string      `json:"phone"`
	Username       *string      `json:"username"`
	Address        addressField `json:"address"`
	DateOfBirth    *string      `json:"dateOfBirth"`
	ProfilePicture *string      `json:"profilePicture"`
}

// addressField accepts either a structured address or a single line, which
// is stored as the street.
type addressField struct {
	value *model.Address
}

func (a *addressField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		a.value = nil
	case len(b) > 0 && b[0] == '"':
		var line string
		if err := json.Unmarshal(b, &line); err != nil {
			return err
		}
		a.value = model.StreetAddress(strings.TrimSpace(line))
	case len(b) > 0 && b[0] == '{':
		var addr model.Address
		if err := json.Unmarshal(b, &addr); err != nil {
			return err
		}
		a.value = &addr
	default:
		return errors.New("address must be an object or a string")
	}
	return nil
}

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Register: create a regular user and return a token immediately.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Users.Register(ctx, req.input())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user":    res.User,
		"token":   res.Token.Token,
	})
}

// Login: verify credentials and return a fresh token.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Users.Login(ctx, req.EmailOrUsername, req.Password)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"user":    res.User,
		"token":   res.Token.Token,
	})
}

// Profile returns the caller's own record.
func (h *UserHandler) Profile(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.Profile(ctx, middleware.CurrentUser(c).ID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// UpdateProfile applies a partial update to the caller's record.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, middleware.CurrentUser(c).ID, service.ProfileInput{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Username:       req.Username,
		Address:        req.Address.value,
		DateOfBirth:    req.DateOfBirth,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Profile updated successfully",
		"user":    u,
	})
}

// ListAll returns every account. Admin only.
func (h *UserHandler) ListAll(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// CreateAdmin registers another admin account. Admin only.
func (h *UserHandler) CreateAdmin(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.CreateAdmin(ctx, req.input())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Admin user created successfully",
		"user":    u,
	})
}
