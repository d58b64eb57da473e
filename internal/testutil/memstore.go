// Package testutil provides in-memory stores that behave like the MySQL
// repositories, for service, middleware and handler tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/resort-backend/internal/model"
	"github.com/iliyamo/resort-backend/internal/repository"
	"github.com/iliyamo/resort-backend/internal/utils"
)

// MemUsers is an in-memory user store with the same unique constraints as
// the users table.
type MemUsers struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.User
	now    func() time.Time
}

func NewMemUsers() *MemUsers {
	return &MemUsers{rows: map[uint64]model.User{}, now: time.Now}
}

func (m *MemUsers) Create(_ context.Context, u *model.User, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if field := m.conflictLocked(u.Email, u.Username, u.Phone, 0); field != "" {
		return &repository.DuplicateError{Field: field}
	}
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		return err
	}
	m.nextID++
	row := *u
	row.ID = m.nextID
	row.PasswordHash = hash
	row.CreatedAt = m.now().UTC()
	row.UpdatedAt = row.CreatedAt
	m.rows[row.ID] = row
	*u = row
	return nil
}

func (m *MemUsers) conflictLocked(email, username, phone string, exclude uint64) string {
	for _, r := range m.sorted() {
		if r.ID == exclude {
			continue
		}
		switch {
		case email != "" && r.Email == email:
			return "email"
		case username != "" && r.Username == username:
			return "username"
		case phone != "" && r.Phone == phone:
			return "phone"
		}
	}
	return ""
}

func (m *MemUsers) sorted() []model.User {
	out := make([]model.User, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (m *MemUsers) GetByLogin(_ context.Context, identifier string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	for _, r := range m.sorted() {
		if r.Email == identifier || r.Username == identifier {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MemUsers) FindConflict(_ context.Context, email, username, phone string, excludeID uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.sorted() {
		if r.ID == excludeID {
			continue
		}
		if (email != "" && r.Email == email) || (username != "" && r.Username == username) || (phone != "" && r.Phone == phone) {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MemUsers) List(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(), nil
}

func (m *MemUsers) Update(_ context.Context, id uint64, p model.UserPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	var email, username, phone string
	if p.Email != nil {
		email = *p.Email
	}
	if p.Username != nil {
		username = *p.Username
	}
	if p.Phone != nil {
		phone = *p.Phone
	}
	if field := m.conflictLocked(email, username, phone, id); field != "" {
		return &repository.DuplicateError{Field: field}
	}
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Email != nil {
		r.Email = email
	}
	if p.Username != nil {
		r.Username = username
	}
	if p.Phone != nil {
		r.Phone = phone
	}
	if p.Address != nil {
		a := *p.Address
		r.Address = &a
	}
	switch {
	case p.DateOfBirth != nil:
		d := *p.DateOfBirth
		r.DateOfBirth = &d
	case p.ClearDateOfBirth:
		r.DateOfBirth = nil
	}
	if p.ProfilePicture != nil {
		r.ProfilePicture = *p.ProfilePicture
	}
	r.UpdatedAt = m.now().UTC()
	m.rows[id] = r
	return nil
}

func (m *MemUsers) CountByRole(_ context.Context, role string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rows {
		if r.Role == role {
			n++
		}
	}
	return n, nil
}

func (m *MemUsers) SetRole(_ context.Context, id uint64, role string) error {
	return m.mutate(id, func(u *model.User) { u.Role = role })
}

func (m *MemUsers) SetActive(_ context.Context, id uint64, active bool) error {
	return m.mutate(id, func(u *model.User) { u.IsActive = active })
}

// Delete removes a user, as an operator would directly in the database.
func (m *MemUsers) Delete(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
}

func (m *MemUsers) mutate(id uint64, fn func(*model.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&r)
	m.rows[id] = r
	return nil
}

// MemEnquiries is an in-memory enquiry store. Assignees are resolved against
// Users the way the SQL join does.
type MemEnquiries struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Enquiry
	users  *MemUsers
	clock  time.Time
}

func NewMemEnquiries(users *MemUsers) *MemEnquiries {
	return &MemEnquiries{rows: map[uint64]model.Enquiry{}, users: users, clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// tick returns strictly increasing creation times so ordering is stable.
func (m *MemEnquiries) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *MemEnquiries) Create(_ context.Context, e *model.Enquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	row := *e
	row.ID = m.nextID
	if row.Status == "" {
		row.Status = model.StatusPending
	}
	row.AssignedTo = nil
	row.CreatedAt = m.tick()
	row.UpdatedAt = row.CreatedAt
	m.rows[row.ID] = row
	*e = m.resolve(row)
	return nil
}

func (m *MemEnquiries) resolve(e model.Enquiry) model.Enquiry {
	if e.AssignedTo == nil {
		return e
	}
	a := model.Assignee{ID: e.AssignedTo.ID}
	if m.users != nil {
		if u, err := m.users.GetByID(context.Background(), a.ID); err == nil {
			a.Name, a.Email = u.Name, u.Email
		} else {
			// ON DELETE SET NULL
			e.AssignedTo = nil
			return e
		}
	}
	e.AssignedTo = &a
	return e
}

func (m *MemEnquiries) GetByID(_ context.Context, id uint64) (*model.Enquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r = m.resolve(r)
	return &r, nil
}

func (m *MemEnquiries) newestFirst(match func(model.Enquiry) bool) []model.Enquiry {
	out := []model.Enquiry{}
	for _, r := range m.rows {
		if match(r) {
			out = append(out, m.resolve(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *MemEnquiries) List(_ context.Context, f model.EnquiryFilter) ([]model.Enquiry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.newestFirst(func(e model.Enquiry) bool {
		return (f.Status == "" || e.Status == f.Status) &&
			(f.Subject == "" || e.Subject == f.Subject) &&
			(f.Email == "" || e.Email == f.Email)
	})
	total := int64(len(all))
	start := f.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *MemEnquiries) Recent(_ context.Context, n int) ([]model.Enquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.newestFirst(func(model.Enquiry) bool { return true })
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (m *MemEnquiries) Update(_ context.Context, id uint64, upd model.EnquiryUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if upd.AssignedTo != nil {
		if m.users != nil {
			if _, err := m.users.GetByID(context.Background(), *upd.AssignedTo); err != nil {
				return repository.ErrInvalidReference
			}
		}
		r.AssignedTo = &model.Assignee{ID: *upd.AssignedTo}
	}
	if upd.Status != nil {
		r.Status = *upd.Status
	}
	r.UpdatedAt = m.tick()
	m.rows[id] = r
	return nil
}

func (m *MemEnquiries) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *MemEnquiries) Count(_ context.Context, status string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rows {
		if status == "" || r.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *MemEnquiries) CountBySubject(context.Context) ([]model.GroupCount, error) {
	return m.group(func(e model.Enquiry) string { return e.Subject }), nil
}

func (m *MemEnquiries) CountByStatus(context.Context) ([]model.GroupCount, error) {
	return m.group(func(e model.Enquiry) string { return e.Status }), nil
}

func (m *MemEnquiries) group(key func(model.Enquiry) string) []model.GroupCount {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, r := range m.rows {
		counts[key(r)]++
	}
	out := make([]model.GroupCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.GroupCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
