package testutil

import (
	"context"
	"sync"

	"github.com/iliyamo/resort-backend/internal/queue"
)

// RecordingPublisher keeps every event it is given. When Err is set it
// still records the event and then fails.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []queue.EnquirySubmittedEvent
	Err    error
}

func (p *RecordingPublisher) EnquirySubmitted(_ context.Context, ev queue.EnquirySubmittedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.Err
}

func (p *RecordingPublisher) Events() []queue.EnquirySubmittedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.EnquirySubmittedEvent(nil), p.events...)
}
