package repository

import (
	"context"       // context-aware queries
	"database/sql"  // pooled MySQL access
	"encoding/json" // address is stored as a JSON document
	"errors"        // sql.ErrNoRows detection
	"fmt"           // error wrapping
	"strings"       // identifier normalization and SQL assembly

	"github.com/iliyamo/resort-backend/internal/model" // User and UserPatch
	"github.com/iliyamo/resort-backend/internal/utils" // bcrypt hashing
)

const userColumns = `id, name, username, email, phone, password_hash, role, is_active,
	address, date_of_birth, profile_picture, created_at, updated_at`

// UserRepo persists user accounts in the `users` table.  Passwords are
// hashed here, on the way into the table, so no caller can store a
// plaintext password.  Email and username are stored lowercased by the
// service layer; lookups here normalize their input the same way.  Unique
// violations on email, username or phone surface as *DuplicateError so the
// service can name the offending field.
type UserRepo struct {
	DB   *sql.DB
	cost int
}

func NewUserRepo(db *sql.DB, bcryptCost int) *UserRepo {
	return &UserRepo{DB: db, cost: bcryptCost}
}

// Create hashes password, inserts u and reloads it so ID and timestamps are
// populated. Unique violations come back as *DuplicateError.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string) error {
	hash, err := utils.HashPassword(password, r.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	addr, err := encodeAddress(u.Address)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (name, username, email, phone, password_hash, role, is_active, address, date_of_birth, profile_picture)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		u.Name, u.Username, u.Email, u.Phone, hash, u.Role, u.IsActive, addr, u.DateOfBirth, u.ProfilePicture)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = *created
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
	return scanUser(row)
}

// GetByLogin fetches the user whose email or username equals the normalized
// identifier.
func (r *UserRepo) GetByLogin(ctx context.Context, identifier string) (*model.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? OR username = ? ORDER BY id LIMIT 1",
		identifier, identifier)
	return scanUser(row)
}

// FindConflict returns a user other than excludeID holding any of the given
// non-empty email, username or phone values, or ErrNotFound when there is
// none. Pass excludeID 0 to consider every user.
func (r *UserRepo) FindConflict(ctx context.Context, email, username, phone string, excludeID uint64) (*model.User, error) {
	var (
		ors  []string
		args []any
	)
	for _, f := range [...]struct{ col, val string }{{"email", email}, {"username", username}, {"phone", phone}} {
		if f.val != "" {
			ors = append(ors, f.col+" = ?")
			args = append(args, f.val)
		}
	}
	if len(ors) == 0 {
		return nil, ErrNotFound
	}
	q := "SELECT " + userColumns + " FROM users WHERE (" + strings.Join(ors, " OR ") + ")"
	if excludeID != 0 {
		q += " AND id <> ?"
		args = append(args, excludeID)
	}
	q += " ORDER BY id LIMIT 1"
	return scanUser(r.DB.QueryRowContext(ctx, q, args...))
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the non-nil fields of p to user id in a single UPDATE.  It
// returns ErrNotFound when the user does not exist, *DuplicateError when a
// new email, username or phone is taken, and ErrValueTooLong when a value
// does not fit its column.  The password hash is never touched.
func (r *UserRepo) Update(ctx context.Context, id uint64, p model.UserPatch) error {
	// Collect "col = ?" fragments alongside their arguments.
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.Username != nil {
		set("username", *p.Username)
	}
	if p.Email != nil {
		set("email", *p.Email)
	}
	if p.Phone != nil {
		set("phone", *p.Phone)
	}
	if p.Address != nil {
		addr, err := encodeAddress(p.Address)
		if err != nil {
			return err
		}
		set("address", addr)
	}
	switch {
	case p.DateOfBirth != nil:
		set("date_of_birth", *p.DateOfBirth)
	case p.ClearDateOfBirth:
		set("date_of_birth", nil)
	}
	if p.ProfilePicture != nil {
		set("profile_picture", *p.ProfilePicture)
	}
	// Nothing to change: still report a missing user.
	if len(sets) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	args = append(args, id)
	return r.exec(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
}

// CountByRole returns how many users hold role.
func (r *UserRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = ?", role).Scan(&n)
	return n, err
}

// SetRole changes the role of user id.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, role string) error {
	return r.exec(ctx, "UPDATE users SET role = ? WHERE id = ?", role, id)
}

// SetActive activates or deactivates user id.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	return r.exec(ctx, "UPDATE users SET is_active = ? WHERE id = ?", active, id)
}

// exec runs a single-row write. The connection is opened with
// clientFoundRows, so zero affected rows means no row matched.
func (r *UserRepo) exec(ctx context.Context, q string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u    model.User
		addr sql.NullString
		dob  sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.IsActive,
		&addr, &dob, &u.ProfilePicture, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if addr.Valid && addr.String != "" {
		u.Address = new(model.Address)
		if err := json.Unmarshal([]byte(addr.String), u.Address); err != nil {
			return nil, fmt.Errorf("decode address of user %d: %w", u.ID, err)
		}
	}
	if dob.Valid {
		t := dob.Time
		u.DateOfBirth = &t
	}
	return &u, nil
}

func encodeAddress(a *model.Address) (any, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode address: %w", err)
	}
	return string(b), nil
}
