// Package queue defines message payloads exchanged over the message broker
// and the publisher that sends them.
package queue

import (
	"time"

	"github.com/iliyamo/resort-backend/internal/model"
)

// EnquirySubmittedQueue is the durable queue enquiry events are routed to.
const EnquirySubmittedQueue = "enquiry.submitted"

// EnquirySubmittedEvent is published after a guest submits an enquiry. It
// carries enough for a notifier to contact the guest or alert staff without
// querying the primary database.
type EnquirySubmittedEvent struct {
	EnquiryID   uint64 `json:"enquiry_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Subject     string `json:"subject"`
	DateOfPlan  string `json:"date_of_plan"`
	SubmittedAt string `json:"submitted_at"`
}

// NewEnquirySubmitted builds the event for a stored enquiry.
func NewEnquirySubmitted(e *model.Enquiry) EnquirySubmittedEvent {
	return EnquirySubmittedEvent{
		EnquiryID:   e.ID,
		Name:        e.Name,
		Email:       e.Email,
		Phone:       e.Phone,
		Subject:     e.Subject,
		DateOfPlan:  e.DateOfPlan.UTC().Format(time.RFC3339),
		SubmittedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
