package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/resort-backend/internal/middleware"
	"github.com/iliyamo/resort-backend/internal/model"
	"github.com/iliyamo/resort-backend/internal/service"
)

// EnquiryHandler serves the /api/enquiries endpoints.
type EnquiryHandler struct {
	Enquiries *service.EnquiryService
	Log       *zap.Logger
}

func NewEnquiryHandler(enquiries *service.EnquiryService, log *zap.Logger) *EnquiryHandler {
	if enquiries == nil {
		panic("nil enquiry service passed to NewEnquiryHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EnquiryHandler{Enquiries: enquiries, Log: log}
}

type createEnquiryReq struct {
	Name       string `json:"name" form:"name"`
	Email      string `json:"email" form:"email"`
	Phone      string `json:"phone" form:"phone"`
	DateOfPlan string `json:"dateOfPlan" form:"dateOfPlan"`
	Subject    string `json:"subject" form:"subject"`
	Message    string `json:"message" form:"message"`
}

type updateStatusReq struct {
	Status     string  `json:"status"`
	AssignedTo userRef `json:"assignedTo"`
}

// userRef is a user id sent either as a number or as a numeric string.
// Null, 0 and "" mean no change.
type userRef struct {
	id      uint64
	invalid bool
}

func (r *userRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	} else {
		s = string(b)
	}
	if s == "" || s == "0" {
		return nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		r.invalid = true
		return nil
	}
	r.id = id
	return nil
}

func queryInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}

func enquiryID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// Create: public enquiry submission.
func (h *EnquiryHandler) Create(c echo.Context) error {
	var req createEnquiryReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	e, err := h.Enquiries.Create(ctx, service.EnquiryInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		DateOfPlan: req.DateOfPlan,
		Subject:    req.Subject,
		Message:    req.Message,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Enquiry submitted successfully",
		"enquiry": e,
	})
}

// List: every enquiry, filtered and paginated. Admin only.
func (h *EnquiryHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	page, err := h.Enquiries.List(ctx, model.EnquiryFilter{
		Status:  strings.TrimSpace(c.QueryParam("status")),
		Subject: strings.TrimSpace(c.QueryParam("subject")),
		Page:    queryInt(c, "page"),
		Limit:   queryInt(c, "limit"),
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, page)
}

// ListOwn: enquiries submitted with the caller's email.
func (h *EnquiryHandler) ListOwn(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	page, err := h.Enquiries.ListOwn(ctx, middleware.CurrentUser(c), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Get: one enquiry with its assignee. Admin only.
func (h *EnquiryHandler) Get(c echo.Context) error {
	id, ok := enquiryID(c)
	if !ok {
		return badRequest(c, "Invalid enquiry id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	e, err := h.Enquiries.Get(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"enquiry": e})
}

// UpdateStatus: change status and/or assignee. Admin only.
func (h *EnquiryHandler) UpdateStatus(c echo.Context) error {
	id, ok := enquiryID(c)
	if !ok {
		return badRequest(c, "Invalid enquiry id")
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	if req.AssignedTo.invalid {
		return badRequest(c, "Assigned user not found")
	}

	var upd model.EnquiryUpdate
	if s := strings.TrimSpace(req.Status); s != "" {
		upd.Status = &s
	}
	if req.AssignedTo.id != 0 {
		upd.AssignedTo = &req.AssignedTo.id
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	e, err := h.Enquiries.UpdateStatus(ctx, id, upd)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Enquiry status updated successfully",
		"enquiry": e,
	})
}

// Delete: remove an enquiry permanently. Admin only.
func (h *EnquiryHandler) Delete(c echo.Context) error {
	id, ok := enquiryID(c)
	if !ok {
		return badRequest(c, "Invalid enquiry id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Enquiries.Delete(ctx, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Enquiry deleted successfully"})
}

// Stats: dashboard summary. Admin only.
func (h *EnquiryHandler) Stats(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	st, err := h.Enquiries.Stats(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, st)
}
