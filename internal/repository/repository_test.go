package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/resort-backend/internal/model"
	"github.com/iliyamo/resort-backend/internal/utils"
)

var userCols = []string{"id", "name", "username", "email", "phone", "password_hash", "role", "is_active",
	"address", "date_of_birth", "profile_picture", "created_at", "updated_at"}

var enquiryCols = []string{"id", "name", "email", "phone", "date_of_plan", "subject", "message", "status",
	"assigned_to", "u.name", "u.email", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestUserCreateHashesAndReloads(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db, bcrypt.MinCost)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	var storedHash string
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("Test User", "testuser", "test@example.com", "1234567890", hashCapture{&storedHash}, "user", true, nil, nil, "").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(5, "Test User", "testuser", "test@example.com", "1234567890", "$2a$04$stored", "user", true,
				`{"street":"1 Beach Rd","city":"Goa","state":"","zipCode":"","country":""}`, nil, "", now, now))

	u := &model.User{Name: "Test User", Username: "testuser", Email: "test@example.com", Phone: "1234567890", Role: model.RoleUser, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), u, "password123"))

	assert.Equal(t, uint64(5), u.ID)
	assert.Equal(t, now, u.CreatedAt)
	require.NotNil(t, u.Address)
	assert.Equal(t, "Goa", u.Address.City)
	assert.True(t, utils.VerifyPassword(storedHash, "password123"), "password must be stored hashed")
}

// hashCapture matches any string argument and remembers it.
type hashCapture struct{ dst *string }

func (h hashCapture) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		*h.dst = s
	}
	return ok && s != "password123"
}

func TestUserCreateTranslatesDuplicateKey(t *testing.T) {
	cases := map[string]string{
		"Duplicate entry 'a@x.com' for key 'users.uq_users_email'":    "email",
		"Duplicate entry 'alice' for key 'users.uq_users_username'":   "username",
		"Duplicate entry '1234567890' for key 'users.uq_users_phone'": "phone",
	}
	for msg, field := range cases {
		t.Run(field, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewUserRepo(db, bcrypt.MinCost)
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
				WillReturnError(&mysql.MySQLError{Number: 1062, Message: msg})

			err := repo.Create(context.Background(), &model.User{Role: model.RoleUser}, "password123")
			var dup *DuplicateError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, field, dup.Field)
		})
	}
}

func TestDataTooLongTranslates(t *testing.T) {
	tooLong := &mysql.MySQLError{Number: 1406, Message: "Data too long for column 'phone' at row 1"}

	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enquiries")).WillReturnError(tooLong)
	err := NewEnquiryRepo(db).Create(context.Background(), &model.Enquiry{Name: "Guest", Status: model.StatusPending})
	assert.ErrorIs(t, err, ErrValueTooLong)

	db, mock = newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET name = ? WHERE id = ?")).WillReturnError(tooLong)
	name := strings.Repeat("n", 300)
	err = NewUserRepo(db, bcrypt.MinCost).Update(context.Background(), 1, model.UserPatch{Name: &name})
	assert.ErrorIs(t, err, ErrValueTooLong)
}

func TestUserGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := NewUserRepo(db, bcrypt.MinCost).GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserGetByLoginNormalizes(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = ? OR username = ?")).
		WithArgs("testuser", "testuser").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := NewUserRepo(db, bcrypt.MinCost).GetByLogin(context.Background(), "  TestUser ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserFindConflictExcludesCaller(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE (email = ? OR phone = ?) AND id <> ? ORDER BY id LIMIT 1")).
		WithArgs("a@x.com", "1234567890", uint64(3)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(4, "Other", "other", "a@x.com", "5555555555", "h", "user", true, nil, nil, "", now, now))

	u, err := NewUserRepo(db, bcrypt.MinCost).FindConflict(context.Background(), "a@x.com", "", "1234567890", 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), u.ID)
}

func TestUserFindConflictWithoutValues(t *testing.T) {
	db, _ := newMock(t)
	_, err := NewUserRepo(db, bcrypt.MinCost).FindConflict(context.Background(), "", "", "", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserUpdateOnlyTouchesSuppliedFields(t *testing.T) {
	db, mock := newMock(t)
	name := "New Name"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET name = ? WHERE id = ?")).
		WithArgs("New Name", uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewUserRepo(db, bcrypt.MinCost).Update(context.Background(), 3, model.UserPatch{Name: &name}))
}

func TestUserUpdateMissingUser(t *testing.T) {
	db, mock := newMock(t)
	pic := "https://cdn.example/p.png"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET date_of_birth = ?, profile_picture = ? WHERE id = ?")).
		WithArgs(nil, pic, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewUserRepo(db, bcrypt.MinCost).Update(context.Background(), 3, model.UserPatch{ClearDateOfBirth: true, ProfilePicture: &pic})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnquiryListPaginates(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	plan := time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enquiries e WHERE e.status = ?")).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.status = ? ORDER BY e.created_at DESC, e.id DESC LIMIT ? OFFSET ?")).
		WithArgs("pending", 2, 2).
		WillReturnRows(sqlmock.NewRows(enquiryCols).
			AddRow(3, "Guest", "g@x.com", "5555555555", plan, "enquiry", "Hi", "pending", 1, "Admin", "admin@x.com", now, now).
			AddRow(2, "Guest", "g@x.com", "5555555555", plan, "enquiry", "Hi", "pending", nil, nil, nil, now, now))

	items, total, err := NewEnquiryRepo(db).List(context.Background(), model.EnquiryFilter{Status: "pending", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].AssignedTo)
	assert.Equal(t, "Admin", items[0].AssignedTo.Name)
	assert.Nil(t, items[1].AssignedTo)
}

func TestEnquiryUpdateUnknownAssignee(t *testing.T) {
	db, mock := newMock(t)
	admin := uint64(77)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enquiries SET assigned_to = ? WHERE id = ?")).
		WithArgs(admin, uint64(1)).
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})

	err := NewEnquiryRepo(db).Update(context.Background(), 1, model.EnquiryUpdate{AssignedTo: &admin})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestEnquiryDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enquiries WHERE id = ?")).
		WithArgs(uint64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewEnquiryRepo(db).Delete(context.Background(), 404), ErrNotFound)
}

func TestEnquiryGroupCounts(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY subject")).
		WillReturnRows(sqlmock.NewRows([]string{"subject", "count"}).AddRow("enquiry", 4).AddRow("membership", 1))

	got, err := NewEnquiryRepo(db).CountBySubject(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.GroupCount{{Key: "enquiry", Count: 4}, {Key: "membership", Count: 1}}, got)
}
