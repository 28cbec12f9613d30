package task

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task type constants
const (
	// TaskTypeNoteClassification represents the task type for classifying
	// a note into a knowledge node with flashcards
	TaskTypeNoteClassification = "note_classification"

	// TaskTypeReviewPersist represents the task type for persisting the
	// outcome of a graded review
	TaskTypeReviewPersist = "review_persist"
)

// ErrNoExecuteFunc is returned when a task recovered from storage is
// executed before a resolver has bound it to its concrete implementation.
var ErrNoExecuteFunc = errors.New("no execution function defined for recovered task")

// Task represents a unit of background work to be processed
// Version: 1.0
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Payload returns the task data as a byte slice
	Payload() []byte

	// Status returns the current task status
	Status() TaskStatus

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// TaskStore defines the interface for persisting tasks
// Version: 1.0
type TaskStore interface {
	// SaveTask persists a task to the database
	SaveTask(ctx context.Context, task Task) error

	// UpdateTaskStatus updates the status of a task
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// GetPendingTasks retrieves all tasks with "pending" status
	GetPendingTasks(ctx context.Context) ([]Task, error)

	// GetProcessingTasks retrieves tasks with "processing" status
	// If olderThan is non-zero, only returns tasks that have been in this state
	// longer than the specified duration
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) TaskStore
}

// TaskResolver rebuilds an executable task from its stored type and
// payload. The runner uses it to bring tasks recovered from the database
// back to life.
type TaskResolver interface {
	// Resolve returns an executable task for the stored record.
	// Returns an error if the task type is unknown or the payload is
	// malformed.
	Resolve(id uuid.UUID, taskType string, payload []byte) (Task, error)
}

// StoredTask is a task loaded from the database. It carries the persisted
// fields but no execution logic; a TaskResolver turns it into a concrete
// task before it runs.
type StoredTask struct {
	id       uuid.UUID
	taskType string
	payload  []byte
	status   TaskStatus
}

// NewStoredTask creates a StoredTask from persisted fields.
func NewStoredTask(id uuid.UUID, taskType string, payload []byte, status TaskStatus) *StoredTask {
	return &StoredTask{
		id:       id,
		taskType: taskType,
		payload:  payload,
		status:   status,
	}
}

// ID returns the task's unique identifier
func (t *StoredTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *StoredTask) Type() string {
	return t.taskType
}

// Payload returns the task data as a byte slice
func (t *StoredTask) Payload() []byte {
	return t.payload
}

// Status returns the current task status
func (t *StoredTask) Status() TaskStatus {
	return t.status
}

// Execute always fails: a StoredTask must be resolved into a concrete
// task before it can run.
func (t *StoredTask) Execute(ctx context.Context) error {
	return ErrNoExecuteFunc
}
