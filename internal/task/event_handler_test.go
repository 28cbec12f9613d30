package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellae/stellae-api/internal/events"
)

// memoryTaskStore keeps saved tasks in a slice, enough to observe what
// Submit persisted.
type memoryTaskStore struct {
	saved []Task
}

func (s *memoryTaskStore) SaveTask(ctx context.Context, task Task) error {
	s.saved = append(s.saved, task)
	return nil
}

func (s *memoryTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	errorMsg string,
) error {
	return nil
}

func (s *memoryTaskStore) GetPendingTasks(ctx context.Context) ([]Task, error) {
	return nil, nil
}

func (s *memoryTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error) {
	return nil, nil
}

func (s *memoryTaskStore) WithTx(tx *sql.Tx) TaskStore {
	return s
}

var _ TaskStore = (*memoryTaskStore)(nil)

func newIdleRunner(store TaskStore) *TaskRunner {
	// Workers are never started; submitted tasks stay in the buffered queue.
	return NewTaskRunner(store, TaskRunnerConfig{QueueSize: 10, WorkerCount: 1}, discardLogger())
}

func TestHandleEvent(t *testing.T) {
	t.Parallel()

	t.Run("classification request becomes a queued task", func(t *testing.T) {
		t.Parallel()

		store := &memoryTaskStore{}
		handler := NewTaskFactoryEventHandler(newTestFactory(), newIdleRunner(store), discardLogger())

		noteID := uuid.New()
		event, err := events.NewTaskRequestEvent(TaskTypeNoteClassification,
			map[string]uuid.UUID{"note_id": noteID})
		require.NoError(t, err)

		require.NoError(t, handler.HandleEvent(context.Background(), event))

		require.Len(t, store.saved, 1)
		saved := store.saved[0]
		assert.Equal(t, TaskTypeNoteClassification, saved.Type())

		var payload noteClassificationPayload
		require.NoError(t, json.Unmarshal(saved.Payload(), &payload))
		assert.Equal(t, noteID, payload.NoteID)
	})

	t.Run("review persist request becomes a queued task", func(t *testing.T) {
		t.Parallel()

		store := &memoryTaskStore{}
		handler := NewTaskFactoryEventHandler(newTestFactory(), newIdleRunner(store), discardLogger())

		nodeID := uuid.New()
		event, err := events.NewTaskRequestEvent(TaskTypeReviewPersist, reviewPersistPayload{
			NodeID:       nodeID,
			IntervalDays: 3,
			NextDueAt:    time.Now().UTC().AddDate(0, 0, 3),
		})
		require.NoError(t, err)

		require.NoError(t, handler.HandleEvent(context.Background(), event))

		require.Len(t, store.saved, 1)
		assert.Equal(t, TaskTypeReviewPersist, store.saved[0].Type())
	})

	t.Run("unsupported event type is ignored", func(t *testing.T) {
		t.Parallel()

		store := &memoryTaskStore{}
		handler := NewTaskFactoryEventHandler(newTestFactory(), newIdleRunner(store), discardLogger())

		event, err := events.NewTaskRequestEvent("mystery_type", struct{}{})
		require.NoError(t, err)

		require.NoError(t, handler.HandleEvent(context.Background(), event))
		assert.Empty(t, store.saved)
	})

	t.Run("malformed payload is an error", func(t *testing.T) {
		t.Parallel()

		store := &memoryTaskStore{}
		handler := NewTaskFactoryEventHandler(newTestFactory(), newIdleRunner(store), discardLogger())

		event := &events.TaskRequestEvent{
			ID:      uuid.New(),
			Type:    TaskTypeNoteClassification,
			Payload: json.RawMessage(`{not json`),
		}

		assert.Error(t, handler.HandleEvent(context.Background(), event))
		assert.Empty(t, store.saved)
	})

	t.Run("empty note ID fails task creation", func(t *testing.T) {
		t.Parallel()

		store := &memoryTaskStore{}
		handler := NewTaskFactoryEventHandler(newTestFactory(), newIdleRunner(store), discardLogger())

		event, err := events.NewTaskRequestEvent(TaskTypeNoteClassification,
			map[string]uuid.UUID{"note_id": uuid.Nil})
		require.NoError(t, err)

		err = handler.HandleEvent(context.Background(), event)
		assert.ErrorIs(t, err, ErrEmptyTaskNoteID)
		assert.Empty(t, store.saved)
	})
}
