package model

import "time"

// Enquiry statuses. Admins may move an enquiry between any of them.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// Enquiry subjects.
const (
	SubjectEnquiry    = "enquiry"
	SubjectMembership = "membership"
)

// ValidStatus reports whether s is one of the enquiry statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// ValidSubject reports whether s is one of the enquiry subjects.
func ValidSubject(s string) bool {
	return s == SubjectEnquiry || s == SubjectMembership
}

// Enquiry is a customer enquiry as stored in the `enquiries` table. Email
// identifies the submitter but is not a reference to a user account.
type Enquiry struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	DateOfPlan time.Time `json:"dateOfPlan"`
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	Status     string    `json:"status"`
	AssignedTo *Assignee `json:"assignedTo"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Assignee is the admin handling an enquiry, populated from the users table.
type Assignee struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// EnquiryFilter narrows enquiry listings. Empty fields do not filter.
// Page is 1-indexed.
type EnquiryFilter struct {
	Status  string
	Subject string
	Email   string
	Page    int
	Limit   int
}

// Offset returns the number of rows skipped for the filter's page.
func (f EnquiryFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// EnquiryUpdate carries the admin-updatable fields. Nil leaves the stored
// value untouched.
type EnquiryUpdate struct {
	Status     *string
	AssignedTo *uint64
}

// GroupCount is one bucket of a grouped count.
type GroupCount struct {
	Key   string
	Count int64
}
