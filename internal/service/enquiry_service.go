package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/resort-backend/internal/database"
	"github.com/iliyamo/resort-backend/internal/model"
	"github.com/iliyamo/resort-backend/internal/queue"
	"github.com/iliyamo/resort-backend/internal/repository"
	"github.com/iliyamo/resort-backend/internal/validate"
)

// Listing defaults.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	recentEnquiries  = 5
)

// EnquiryStore is the persistence the enquiry workflow needs.
type EnquiryStore interface {
	Create(ctx context.Context, e *model.Enquiry) error
	GetByID(ctx context.Context, id uint64) (*model.Enquiry, error)
	List(ctx context.Context, f model.EnquiryFilter) ([]model.Enquiry, int64, error)
	Recent(ctx context.Context, n int) ([]model.Enquiry, error)
	Update(ctx context.Context, id uint64, upd model.EnquiryUpdate) error
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context, status string) (int64, error)
	CountBySubject(ctx context.Context) ([]model.GroupCount, error)
	CountByStatus(ctx context.Context) ([]model.GroupCount, error)
}

// EventPublisher receives enquiry events. Delivery is best effort.
type EventPublisher interface {
	EnquirySubmitted(ctx context.Context, ev queue.EnquirySubmittedEvent) error
}

type nopPublisher struct{}

func (nopPublisher) EnquirySubmitted(context.Context, queue.EnquirySubmittedEvent) error { return nil }

// EnquiryInput is a guest's enquiry submission.
type EnquiryInput struct {
	Name       string
	Email      string
	Phone      string
	DateOfPlan string
	Subject    string
	Message    string
}

// EnquiryPage is one page of a listing.
type EnquiryPage struct {
	Enquiries   []model.Enquiry `json:"enquiries"`
	TotalPages  int64           `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
	Total       int64           `json:"total"`
}

type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int64  `json:"count"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// EnquiryStats is the admin dashboard summary.
type EnquiryStats struct {
	TotalEnquiries    int64           `json:"totalEnquiries"`
	PendingEnquiries  int64           `json:"pendingEnquiries"`
	ResolvedEnquiries int64           `json:"resolvedEnquiries"`
	EnquiryBySubject  []SubjectCount  `json:"enquiryBySubject"`
	EnquiryByStatus   []StatusCount   `json:"enquiryByStatus"`
	RecentEnquiries   []model.Enquiry `json:"recentEnquiries"`
}

type EnquiryService struct {
	store  EnquiryStore
	events EventPublisher
	log    *zap.Logger
}

// NewEnquiryService wires the workflow. events may be nil, in which case no
// events are sent.
func NewEnquiryService(store EnquiryStore, events EventPublisher, log *zap.Logger) *EnquiryService {
	if events == nil {
		events = nopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EnquiryService{store: store, events: events, log: log}
}

// Create validates and stores a new pending enquiry, then announces it.
func (s *EnquiryService) Create(ctx context.Context, in EnquiryInput) (*model.Enquiry, error) {
	e := model.Enquiry{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:   strings.TrimSpace(in.Phone),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
		Status:  model.StatusPending,
	}
	plan := strings.TrimSpace(in.DateOfPlan)
	if e.Name == "" || e.Email == "" || e.Phone == "" || plan == "" || e.Subject == "" || e.Message == "" {
		return nil, Validation("All fields are required")
	}
	switch {
	case !validate.MaxLen(e.Name, database.MaxNameLen):
		return nil, Validation("Name cannot be longer than 255 characters")
	case !validate.MaxLen(e.Email, database.MaxEmailLen):
		return nil, Validation("Email cannot be longer than 255 characters")
	case !validate.MaxLen(e.Phone, database.MaxEnquiryPhoneLen):
		return nil, Validation("Phone number cannot be longer than 50 characters")
	}
	if !validate.Email(e.Email) {
		return nil, Validation("Please provide a valid email address")
	}
	date, ok := validate.ParseDate(plan)
	if !ok {
		return nil, Validation("Please provide a valid date for your plan")
	}
	e.DateOfPlan = date
	if !model.ValidSubject(e.Subject) {
		return nil, Validation("Subject must be one of: enquiry, membership")
	}

	if err := s.store.Create(ctx, &e); err != nil {
		if errors.Is(err, repository.ErrValueTooLong) {
			return nil, Validation(msgTooLong)
		}
		return nil, Internal("create enquiry", err)
	}
	s.log.Info("enquiry submitted", zap.Uint64("enquiry_id", e.ID), zap.String("subject", e.Subject))

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.events.EnquirySubmitted(pubCtx, queue.NewEnquirySubmitted(&e)); err != nil {
		s.log.Warn("enquiry event not delivered", zap.Uint64("enquiry_id", e.ID), zap.Error(err))
	}
	return &e, nil
}

// List returns a page of enquiries filtered by status and subject.
func (s *EnquiryService) List(ctx context.Context, f model.EnquiryFilter) (*EnquiryPage, error) {
	if f.Status != "" && !model.ValidStatus(f.Status) {
		return nil, Validation("Invalid status value")
	}
	if f.Subject != "" && !model.ValidSubject(f.Subject) {
		return nil, Validation("Subject must be one of: enquiry, membership")
	}
	return s.page(ctx, f)
}

// ListOwn returns a page of the enquiries submitted with the caller's email.
// Other filters are ignored and assignees are reduced to their id.
func (s *EnquiryService) ListOwn(ctx context.Context, caller *model.User, page, limit int) (*EnquiryPage, error) {
	p, err := s.page(ctx, model.EnquiryFilter{Email: strings.ToLower(caller.Email), Page: page, Limit: limit})
	if err != nil {
		return nil, err
	}
	for i := range p.Enquiries {
		if a := p.Enquiries[i].AssignedTo; a != nil {
			p.Enquiries[i].AssignedTo = &model.Assignee{ID: a.ID}
		}
	}
	return p, nil
}

func (s *EnquiryService) page(ctx context.Context, f model.EnquiryFilter) (*EnquiryPage, error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)
	items, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, Internal("list enquiries", err)
	}
	return &EnquiryPage{
		Enquiries:   items,
		TotalPages:  (total + int64(f.Limit) - 1) / int64(f.Limit),
		CurrentPage: f.Page,
		Total:       total,
	}, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	return page, limit
}

// Get returns one enquiry with its assignee.
func (s *EnquiryService) Get(ctx context.Context, id uint64) (*model.Enquiry, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("Enquiry not found")
		}
		return nil, Internal("get enquiry", err)
	}
	return e, nil
}

// UpdateStatus changes the status and/or assignee of an enquiry. Any status
// may follow any other.
func (s *EnquiryService) UpdateStatus(ctx context.Context, id uint64, upd model.EnquiryUpdate) (*model.Enquiry, error) {
	if upd.Status != nil && !model.ValidStatus(*upd.Status) {
		return nil, Validation("Invalid status value")
	}
	if err := s.store.Update(ctx, id, upd); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NotFound("Enquiry not found")
		case errors.Is(err, repository.ErrInvalidReference):
			return nil, Validation("Assigned user not found")
		}
		return nil, Internal("update enquiry", err)
	}
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("enquiry updated", zap.Uint64("enquiry_id", id), zap.String("status", e.Status))
	return e, nil
}

// Delete removes an enquiry permanently.
func (s *EnquiryService) Delete(ctx context.Context, id uint64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("Enquiry not found")
		}
		return Internal("delete enquiry", err)
	}
	s.log.Info("enquiry deleted", zap.Uint64("enquiry_id", id))
	return nil
}

// Stats summarizes all enquiries.
func (s *EnquiryService) Stats(ctx context.Context) (*EnquiryStats, error) {
	var (
		st  EnquiryStats
		err error
	)
	if st.TotalEnquiries, err = s.store.Count(ctx, ""); err != nil {
		return nil, Internal("count enquiries", err)
	}
	if st.PendingEnquiries, err = s.store.Count(ctx, model.StatusPending); err != nil {
		return nil, Internal("count pending enquiries", err)
	}
	if st.ResolvedEnquiries, err = s.store.Count(ctx, model.StatusResolved); err != nil {
		return nil, Internal("count resolved enquiries", err)
	}

	bySubject, err := s.store.CountBySubject(ctx)
	if err != nil {
		return nil, Internal("group by subject", err)
	}
	st.EnquiryBySubject = make([]SubjectCount, 0, len(bySubject))
	for _, g := range bySubject {
		st.EnquiryBySubject = append(st.EnquiryBySubject, SubjectCount{Subject: g.Key, Count: g.Count})
	}

	byStatus, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, Internal("group by status", err)
	}
	st.EnquiryByStatus = make([]StatusCount, 0, len(byStatus))
	for _, g := range byStatus {
		st.EnquiryByStatus = append(st.EnquiryByStatus, StatusCount{Status: g.Key, Count: g.Count})
	}

	if st.RecentEnquiries, err = s.store.Recent(ctx, recentEnquiries); err != nil {
		return nil, Internal("recent enquiries", err)
	}
	for i := range st.RecentEnquiries {
		if a := st.RecentEnquiries[i].AssignedTo; a != nil {
			a.Email = ""
		}
	}
	return &st, nil
}
