package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/generation"
)

// TaskFactory creates executable tasks and rebuilds them from stored
// records. It implements TaskResolver so the runner can recover work
// across restarts.
type TaskFactory struct {
	noteService NoteService
	classifier  generation.Classifier
	nodeService NodeService
	nodes       ReviewUpdater
	logger      *slog.Logger
}

// NewTaskFactory creates a new factory wired to the services the concrete
// tasks depend on.
func NewTaskFactory(
	noteService NoteService,
	classifier generation.Classifier,
	nodeService NodeService,
	nodes ReviewUpdater,
	logger *slog.Logger,
) *TaskFactory {
	return &TaskFactory{
		noteService: noteService,
		classifier:  classifier,
		nodeService: nodeService,
		nodes:       nodes,
		logger:      logger.With("component", "task_factory"),
	}
}

// Ensure TaskFactory implements TaskResolver
var _ TaskResolver = (*TaskFactory)(nil)

// CreateClassificationTask creates a new NoteClassificationTask for the
// specified note.
func (f *TaskFactory) CreateClassificationTask(noteID uuid.UUID) (Task, error) {
	return NewNoteClassificationTask(
		noteID,
		f.noteService,
		f.classifier,
		f.nodeService,
		f.logger,
	)
}

// CreateReviewPersistTask creates a new ReviewPersistTask for the given
// review update.
func (f *TaskFactory) CreateReviewPersistTask(update domain.ReviewUpdate) (Task, error) {
	return NewReviewPersistTask(update, f.nodes, f.logger)
}

// Resolve implements TaskResolver.Resolve
// It rebuilds an executable task from a stored record's type and payload.
func (f *TaskFactory) Resolve(id uuid.UUID, taskType string, payload []byte) (Task, error) {
	switch taskType {
	case TaskTypeNoteClassification:
		var p noteClassificationPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("failed to parse classification payload: %w", err)
		}

		t, err := f.CreateClassificationTask(p.NoteID)
		if err != nil {
			return nil, err
		}
		ct := t.(*NoteClassificationTask)
		// Rebind to the stored identifier so status updates hit the existing row
		ct.id = id
		return ct, nil

	case TaskTypeReviewPersist:
		var p reviewPersistPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("failed to parse review persist payload: %w", err)
		}

		t, err := f.CreateReviewPersistTask(domain.ReviewUpdate{
			NodeID:       p.NodeID,
			IntervalDays: p.IntervalDays,
			NextDueAt:    p.NextDueAt,
		})
		if err != nil {
			return nil, err
		}
		rt := t.(*ReviewPersistTask)
		rt.id = id
		return rt, nil

	default:
		return nil, fmt.Errorf("unknown task type %q", taskType)
	}
}
