package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/events"
)

// TaskFactoryEventHandler implements the events.EventHandler interface.
// It turns task request events emitted by the services into concrete tasks
// and submits them to the runner, so services never import this package.
type TaskFactoryEventHandler struct {
	factory *TaskFactory
	runner  *TaskRunner
	logger  *slog.Logger
}

// NewTaskFactoryEventHandler creates a new event handler that uses the
// given factory to create tasks and submits them to the provided runner.
func NewTaskFactoryEventHandler(
	factory *TaskFactory,
	runner *TaskRunner,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "task_factory_event_handler"),
	}
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)

// HandleEvent processes events by creating and submitting tasks.
// It extracts the payload from the event, creates the appropriate task,
// and submits it to the runner for execution.
func (h *TaskFactoryEventHandler) HandleEvent(
	ctx context.Context,
	event *events.TaskRequestEvent,
) error {
	log := h.logger.With("event_id", event.ID, "event_type", event.Type)

	var t Task
	var err error

	switch event.Type {
	case TaskTypeNoteClassification:
		var payload struct {
			NoteID uuid.UUID `json:"note_id"`
		}
		if unmarshalErr := event.UnmarshalPayload(&payload); unmarshalErr != nil {
			log.Error("failed to unmarshal payload", "error", unmarshalErr)
			return fmt.Errorf("failed to unmarshal payload: %w", unmarshalErr)
		}

		t, err = h.factory.CreateClassificationTask(payload.NoteID)

	case TaskTypeReviewPersist:
		var payload reviewPersistPayload
		if unmarshalErr := event.UnmarshalPayload(&payload); unmarshalErr != nil {
			log.Error("failed to unmarshal payload", "error", unmarshalErr)
			return fmt.Errorf("failed to unmarshal payload: %w", unmarshalErr)
		}

		t, err = h.factory.CreateReviewPersistTask(domain.ReviewUpdate{
			NodeID:       payload.NodeID,
			IntervalDays: payload.IntervalDays,
			NextDueAt:    payload.NextDueAt,
		})

	default:
		log.Debug("ignoring event with unsupported type")
		return nil
	}

	if err != nil {
		log.Error("failed to create task", "error", err)
		return fmt.Errorf("failed to create task: %w", err)
	}

	log.Debug("submitting task to runner", "task_id", t.ID())
	if err := h.runner.Submit(ctx, t); err != nil {
		log.Error("failed to submit task", "error", err, "task_id", t.ID())
		return fmt.Errorf("failed to submit task: %w", err)
	}

	log.Info("task created and submitted successfully", "task_id", t.ID())
	return nil
}
