package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stellae/stellae-api/internal/domain"
)

// Common errors for review persist tasks
var (
	ErrNilReviewUpdater = errors.New("review updater cannot be nil")
	ErrEmptyTaskNodeID  = errors.New("node ID cannot be empty")
)

// ReviewUpdater defines the interface for persisting a review outcome.
// store.NodeStore satisfies it.
type ReviewUpdater interface {
	UpdateReview(ctx context.Context, update domain.ReviewUpdate) error
}

// reviewPersistPayload represents the serialized data stored in the task
type reviewPersistPayload struct {
	NodeID       uuid.UUID `json:"node_id"`
	IntervalDays int       `json:"interval_days"`
	NextDueAt    time.Time `json:"next_due_at"`
}

// ReviewPersistTask implements the Task interface for writing a graded
// review's new schedule back to the node. Grading never waits on this
// write; a failed task stays visible in the tasks table with its error.
type ReviewPersistTask struct {
	id     uuid.UUID
	update domain.ReviewUpdate
	nodes  ReviewUpdater
	logger *slog.Logger
	status string
}

// NewReviewPersistTask creates a new review persist task
func NewReviewPersistTask(
	update domain.ReviewUpdate,
	nodes ReviewUpdater,
	logger *slog.Logger,
) (*ReviewPersistTask, error) {
	if nodes == nil {
		return nil, ErrNilReviewUpdater
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	if update.NodeID == uuid.Nil {
		return nil, ErrEmptyTaskNodeID
	}

	return &ReviewPersistTask{
		id:     uuid.New(),
		update: update,
		nodes:  nodes,
		logger: logger.With("task_type", TaskTypeReviewPersist, "node_id", update.NodeID),
		status: statusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *ReviewPersistTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *ReviewPersistTask) Type() string {
	return TaskTypeReviewPersist
}

// Payload returns the task data as a byte slice
func (t *ReviewPersistTask) Payload() []byte {
	payload := reviewPersistPayload{
		NodeID:       t.update.NodeID,
		IntervalDays: t.update.IntervalDays,
		NextDueAt:    t.update.NextDueAt,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}

	return data
}

// Status returns the current task status
func (t *ReviewPersistTask) Status() TaskStatus {
	return TaskStatus(t.status)
}

// Execute writes the new review schedule to the node.
func (t *ReviewPersistTask) Execute(ctx context.Context) error {
	t.status = statusProcessing
	t.logger.Info("persisting review outcome",
		"interval_days", t.update.IntervalDays,
		"next_due_at", t.update.NextDueAt)

	if err := t.nodes.UpdateReview(ctx, t.update); err != nil {
		t.status = statusFailed
		t.logger.Error("failed to persist review outcome", "error", err)
		return fmt.Errorf("failed to persist review outcome: %w", err)
	}

	t.status = statusCompleted
	t.logger.Info("review outcome persisted")
	return nil
}
