package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/resort-backend/internal/model"
	"github.com/iliyamo/resort-backend/internal/repository"
	"github.com/iliyamo/resort-backend/internal/testutil"
)

type enquiryFixture struct {
	svc    *EnquiryService
	store  *testutil.MemEnquiries
	users  *testutil.MemUsers
	events *testutil.RecordingPublisher
}

func newEnquiryFixture(t *testing.T) *enquiryFixture {
	t.Helper()
	users := testutil.NewMemUsers()
	store := testutil.NewMemEnquiries(users)
	events := &testutil.RecordingPublisher{}
	return &enquiryFixture{
		svc:    NewEnquiryService(store, events, nil),
		store:  store,
		users:  users,
		events: events,
	}
}

func enquiryInput() EnquiryInput {
	return EnquiryInput{
		Name:       "Guest",
		Email:      "guest@example.com",
		Phone:      "+44 20 7946 0958",
		DateOfPlan: "2024-12-25",
		Subject:    model.SubjectEnquiry,
		Message:    "Do you have a sea view room?",
	}
}

func (f *enquiryFixture) seed(t *testing.T, email, status string) *model.Enquiry {
	t.Helper()
	in := enquiryInput()
	in.Email = email
	e, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	if status != model.StatusPending {
		e, err = f.svc.UpdateStatus(context.Background(), e.ID, model.EnquiryUpdate{Status: &status})
		require.NoError(t, err)
	}
	return e
}

func TestCreateEnquiry(t *testing.T) {
	f := newEnquiryFixture(t)
	in := enquiryInput()
	in.Email = " Guest@Example.com "

	e, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, e.Status)
	assert.Nil(t, e.AssignedTo)
	assert.Equal(t, "guest@example.com", e.Email)
	assert.Equal(t, time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), e.DateOfPlan)

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, e.ID, events[0].EnquiryID)
	assert.Equal(t, "2024-12-25T00:00:00Z", events[0].DateOfPlan)
}

func TestCreateEnquiryValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EnquiryInput)
		msg    string
	}{
		{"blank message", func(in *EnquiryInput) { in.Message = "   " }, "All fields are required"},
		{"long name", func(in *EnquiryInput) { in.Name = strings.Repeat("n", 256) }, "Name cannot be longer than 255 characters"},
		{"long phone", func(in *EnquiryInput) { in.Phone = strings.Repeat("9", 51) }, "Phone number cannot be longer than 50 characters"},
		{"bad email", func(in *EnquiryInput) { in.Email = "guest@" }, "Please provide a valid email address"},
		{"bad date", func(in *EnquiryInput) { in.DateOfPlan = "not-a-date" }, "Please provide a valid date for your plan"},
		{"bad subject", func(in *EnquiryInput) { in.Subject = "complaint" }, "Subject must be one of: enquiry, membership"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newEnquiryFixture(t)
			in := enquiryInput()
			tc.mutate(&in)
			_, err := f.svc.Create(context.Background(), in)
			requireKind(t, err, KindValidation, tc.msg)
			assert.Empty(t, f.events.Events())
		})
	}
}

// truncatingStore fails every insert the way strict-mode MySQL does for an
// oversized value.
type truncatingStore struct{ *testutil.MemEnquiries }

func (truncatingStore) Create(context.Context, *model.Enquiry) error {
	return fmt.Errorf("insert enquiry: %w", repository.ErrValueTooLong)
}

func TestCreateEnquiryValueTooLongIsValidation(t *testing.T) {
	events := &testutil.RecordingPublisher{}
	svc := NewEnquiryService(truncatingStore{testutil.NewMemEnquiries(nil)}, events, nil)

	in := enquiryInput()
	in.Phone = strings.Repeat("9", 50)
	_, err := svc.Create(context.Background(), in)
	requireKind(t, err, KindValidation, "One or more fields are too long")
	assert.Empty(t, events.Events())
}

func TestCreateEnquirySurvivesPublishFailure(t *testing.T) {
	f := newEnquiryFixture(t)
	f.events.Err = errors.New("broker down")

	e, err := f.svc.Create(context.Background(), enquiryInput())
	require.NoError(t, err)
	assert.NotZero(t, e.ID)
}

func TestListPagination(t *testing.T) {
	f := newEnquiryFixture(t)
	for i := 0; i < 5; i++ {
		f.seed(t, fmt.Sprintf("p%d@example.com", i), model.StatusPending)
	}
	for i := 0; i < 3; i++ {
		f.seed(t, fmt.Sprintf("r%d@example.com", i), model.StatusResolved)
	}

	page, err := f.svc.List(context.Background(), model.EnquiryFilter{Status: model.StatusPending, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Enquiries, 2)
	assert.Equal(t, int64(3), page.TotalPages)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, "p4@example.com", page.Enquiries[0].Email, "newest first")

	last, err := f.svc.List(context.Background(), model.EnquiryFilter{Status: model.StatusPending, Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, last.Enquiries, 1)

	all, err := f.svc.List(context.Background(), model.EnquiryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, all.CurrentPage)
	assert.Len(t, all.Enquiries, 8)
	assert.Equal(t, int64(1), all.TotalPages)

	_, err = f.svc.List(context.Background(), model.EnquiryFilter{Status: "archived"})
	requireKind(t, err, KindValidation, "Invalid status value")
}

func TestNormalizePage(t *testing.T) {
	p, l := normalizePage(0, 0)
	assert.Equal(t, 1, p)
	assert.Equal(t, DefaultPageLimit, l)

	_, l = normalizePage(2, 1000)
	assert.Equal(t, MaxPageLimit, l)
}

func TestListOwnOnlyMatchesCallerEmail(t *testing.T) {
	ctx := context.Background()
	f := newEnquiryFixture(t)

	admin := &model.User{Name: "Admin", Username: "admin", Email: "admin@example.com", Phone: "1111111111", Role: model.RoleAdmin, IsActive: true}
	require.NoError(t, f.users.Create(ctx, admin, "password123"))

	mine := f.seed(t, "a@x.com", model.StatusPending)
	f.seed(t, "a@x.com", model.StatusResolved)
	other := f.seed(t, "b@x.com", model.StatusPending)

	// assigning someone else's enquiry to the caller must not surface it
	caller := &model.User{Name: "A", Username: "aaa", Email: "a@x.com", Phone: "2222222222", Role: model.RoleUser, IsActive: true}
	require.NoError(t, f.users.Create(ctx, caller, "password123"))
	_, err := f.svc.UpdateStatus(ctx, other.ID, model.EnquiryUpdate{AssignedTo: &caller.ID})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, mine.ID, model.EnquiryUpdate{AssignedTo: &admin.ID})
	require.NoError(t, err)

	page, err := f.svc.ListOwn(ctx, caller, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Enquiries, 2)
	for _, e := range page.Enquiries {
		assert.Equal(t, "a@x.com", e.Email)
		if e.AssignedTo != nil {
			assert.Equal(t, admin.ID, e.AssignedTo.ID)
			assert.Empty(t, e.AssignedTo.Name)
			assert.Empty(t, e.AssignedTo.Email)
		}
	}
}

func TestGetEnquiry(t *testing.T) {
	f := newEnquiryFixture(t)
	e := f.seed(t, "guest@example.com", model.StatusPending)

	got, err := f.svc.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	_, err = f.svc.Get(context.Background(), 999)
	requireKind(t, err, KindNotFound, "Enquiry not found")
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newEnquiryFixture(t)
	admin := &model.User{Name: "Admin", Username: "admin", Email: "admin@example.com", Phone: "1111111111", Role: model.RoleAdmin, IsActive: true}
	require.NoError(t, f.users.Create(ctx, admin, "password123"))
	e := f.seed(t, "guest@example.com", model.StatusPending)

	closed := model.StatusClosed
	got, err := f.svc.UpdateStatus(ctx, e.ID, model.EnquiryUpdate{Status: &closed})
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, got.Status)
	assert.Nil(t, got.AssignedTo)

	// any transition is allowed, including back to pending
	pending := model.StatusPending
	got, err = f.svc.UpdateStatus(ctx, e.ID, model.EnquiryUpdate{Status: &pending, AssignedTo: &admin.ID})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, "Admin", got.AssignedTo.Name)
	assert.Equal(t, "admin@example.com", got.AssignedTo.Email)

	bogus := "archived"
	_, err = f.svc.UpdateStatus(ctx, e.ID, model.EnquiryUpdate{Status: &bogus})
	requireKind(t, err, KindValidation, "Invalid status value")

	ghost := uint64(404)
	_, err = f.svc.UpdateStatus(ctx, e.ID, model.EnquiryUpdate{AssignedTo: &ghost})
	requireKind(t, err, KindValidation, "Assigned user not found")

	_, err = f.svc.UpdateStatus(ctx, 999, model.EnquiryUpdate{Status: &closed})
	requireKind(t, err, KindNotFound, "Enquiry not found")
}

func TestDeleteEnquiry(t *testing.T) {
	f := newEnquiryFixture(t)
	e := f.seed(t, "guest@example.com", model.StatusPending)

	require.NoError(t, f.svc.Delete(context.Background(), e.ID))
	_, err := f.svc.Get(context.Background(), e.ID)
	requireKind(t, err, KindNotFound, "Enquiry not found")

	err = f.svc.Delete(context.Background(), e.ID)
	requireKind(t, err, KindNotFound, "Enquiry not found")
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newEnquiryFixture(t)
	admin := &model.User{Name: "Admin", Username: "admin", Email: "admin@example.com", Phone: "1111111111", Role: model.RoleAdmin, IsActive: true}
	require.NoError(t, f.users.Create(ctx, admin, "password123"))

	for i := 0; i < 4; i++ {
		f.seed(t, fmt.Sprintf("p%d@example.com", i), model.StatusPending)
	}
	f.seed(t, "r@example.com", model.StatusResolved)
	in := enquiryInput()
	in.Subject = model.SubjectMembership
	m, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, m.ID, model.EnquiryUpdate{AssignedTo: &admin.ID})
	require.NoError(t, err)

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), st.TotalEnquiries)
	assert.Equal(t, int64(5), st.PendingEnquiries)
	assert.Equal(t, int64(1), st.ResolvedEnquiries)
	assert.Equal(t, []SubjectCount{{Subject: "enquiry", Count: 5}, {Subject: "membership", Count: 1}}, st.EnquiryBySubject)
	assert.Equal(t, []StatusCount{{Status: "pending", Count: 5}, {Status: "resolved", Count: 1}}, st.EnquiryByStatus)

	require.Len(t, st.RecentEnquiries, 5)
	newest := st.RecentEnquiries[0]
	assert.Equal(t, m.ID, newest.ID)
	require.NotNil(t, newest.AssignedTo)
	assert.Equal(t, "Admin", newest.AssignedTo.Name)
	assert.Empty(t, newest.AssignedTo.Email)
}
