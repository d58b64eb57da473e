package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/resort-backend/internal/model"
)

// enquirySelect joins the assignee so every read returns it populated.
const enquirySelect = `SELECT e.id, e.name, e.email, e.phone, e.date_of_plan, e.subject, e.message, e.status,
	e.assigned_to, u.name, u.email, e.created_at, e.updated_at
	FROM enquiries e
	LEFT JOIN users u ON u.id = e.assigned_to`

// EnquiryRepo encapsulates all queries on the enquiries table.
type EnquiryRepo struct {
	db *sql.DB
}

func NewEnquiryRepo(db *sql.DB) *EnquiryRepo {
	return &EnquiryRepo{db: db}
}

// Create inserts e and reloads it so ID, status default and timestamps are
// populated.
func (r *EnquiryRepo) Create(ctx context.Context, e *model.Enquiry) error {
	status := e.Status
	if status == "" {
		status = model.StatusPending
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO enquiries (name, email, phone, date_of_plan, subject, message, status)
		 VALUES (?,?,?,?,?,?,?)`,
		e.Name, e.Email, e.Phone, e.DateOfPlan, e.Subject, e.Message, status)
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
	*e = *created
	return nil
}

// GetByID fetches one enquiry with its assignee. It returns ErrNotFound when
// no row matches.
func (r *EnquiryRepo) GetByID(ctx context.Context, id uint64) (*model.Enquiry, error) {
	return scanEnquiry(r.db.QueryRowContext(ctx, enquirySelect+" WHERE e.id = ?", id))
}

// List returns one page of enquiries matching f, newest first, together
// with the total number of matches.
func (r *EnquiryRepo) List(ctx context.Context, f model.EnquiryFilter) ([]model.Enquiry, int64, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "e.status = ?")
		args = append(args, f.Status)
	}
	if f.Subject != "" {
		where = append(where, "e.subject = ?")
		args = append(args, f.Subject)
	}
	if f.Email != "" {
		where = append(where, "e.email = ?")
		args = append(args, f.Email)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM enquiries e"+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageArgs := append(append([]any{}, args...), f.Limit, f.Offset())
	items, err := r.query(ctx, enquirySelect+cond+" ORDER BY e.created_at DESC, e.id DESC LIMIT ? OFFSET ?", pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Recent returns the n most recently created enquiries.
func (r *EnquiryRepo) Recent(ctx context.Context, n int) ([]model.Enquiry, error) {
	return r.query(ctx, enquirySelect+" ORDER BY e.created_at DESC, e.id DESC LIMIT ?", n)
}

// Update applies the non-nil fields of upd. It returns ErrNotFound when the
// enquiry does not exist and ErrInvalidReference when the assignee does not.
func (r *EnquiryRepo) Update(ctx context.Context, id uint64, upd model.EnquiryUpdate) error {
	var (
		sets []string
		args []any
	)
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *upd.Status)
	}
	if upd.AssignedTo != nil {
		sets = append(sets, "assigned_to = ?")
		args = append(args, *upd.AssignedTo)
	}
	if len(sets) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, "UPDATE enquiries SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an enquiry permanently.
func (r *EnquiryRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM enquiries WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of enquiries, restricted to status when it is
// non-empty.
func (r *EnquiryRepo) Count(ctx context.Context, status string) (int64, error) {
	q, args := "SELECT COUNT(*) FROM enquiries", []any{}
	if status != "" {
		q += " WHERE status = ?"
		args = append(args, status)
	}
	var n int64
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// CountBySubject groups enquiries by subject.
func (r *EnquiryRepo) CountBySubject(ctx context.Context) ([]model.GroupCount, error) {
	return r.groupCount(ctx, "SELECT subject, COUNT(*) FROM enquiries GROUP BY subject ORDER BY subject")
}

// CountByStatus groups enquiries by status.
func (r *EnquiryRepo) CountByStatus(ctx context.Context) ([]model.GroupCount, error) {
	return r.groupCount(ctx, "SELECT status, COUNT(*) FROM enquiries GROUP BY status ORDER BY status")
}

func (r *EnquiryRepo) groupCount(ctx context.Context, q string) ([]model.GroupCount, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.GroupCount{}
	for rows.Next() {
		var g model.GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *EnquiryRepo) query(ctx context.Context, q string, args ...any) ([]model.Enquiry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Enquiry{}
	for rows.Next() {
		e, err := scanEnquiry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanEnquiry(row rowScanner) (*model.Enquiry, error) {
	var (
		e             model.Enquiry
		assignedID    sql.NullInt64
		assigneeName  sql.NullString
		assigneeEmail sql.NullString
	)
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &e.DateOfPlan, &e.Subject, &e.Message, &e.Status,
		&assignedID, &assigneeName, &assigneeEmail, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if assignedID.Valid {
		e.AssignedTo = &model.Assignee{ID: uint64(assignedID.Int64), Name: assigneeName.String, Email: assigneeEmail.String}
	}
	return &e, nil
}
