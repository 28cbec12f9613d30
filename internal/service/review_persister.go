package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/events"
	"github.com/stellae/stellae-api/internal/review"
	"github.com/stellae/stellae-api/internal/task"
)

// EventReviewPersister implements review.Persister by emitting a task
// request event for each graded review. The write itself happens in a
// background task, so grading never waits on the database; a failed write
// stays visible through the task's stored status and error message.
type EventReviewPersister struct {
	eventEmitter events.EventEmitter
	logger       *slog.Logger
}

// NewEventReviewPersister creates a persister that dispatches review
// updates through the event emitter.
func NewEventReviewPersister(
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) *EventReviewPersister {
	if eventEmitter == nil {
		panic("eventEmitter cannot be nil") // ALLOW-PANIC: constructor enforces non-nil dependency
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &EventReviewPersister{
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "review_persister"),
	}
}

// Ensure EventReviewPersister implements review.Persister
var _ review.Persister = (*EventReviewPersister)(nil)

// PersistReview emits a review persist event for background processing.
// It returns an error only when the dispatch itself fails; the caller is
// free to continue regardless.
func (p *EventReviewPersister) PersistReview(ctx context.Context, update domain.ReviewUpdate) error {
	event, err := events.NewTaskRequestEvent(task.TaskTypeReviewPersist, update)
	if err != nil {
		return fmt.Errorf("failed to create review persist event: %w", err)
	}

	if err := p.eventEmitter.EmitEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to emit review persist event: %w", err)
	}

	p.logger.Debug("review persist event emitted",
		"node_id", update.NodeID,
		"interval_days", update.IntervalDays,
		"event_id", event.ID)
	return nil
}
