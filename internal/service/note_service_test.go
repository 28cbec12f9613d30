package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/events"
	"github.com/stellae/stellae-api/internal/store"
	"github.com/stellae/stellae-api/internal/task"
)

// mockNoteRepo implements NoteRepository.
type mockNoteRepo struct {
	db          *sql.DB
	createFn    func(ctx context.Context, note *domain.Note) error
	getByIDFn   func(ctx context.Context, id uuid.UUID) (*domain.Note, error)
	updateFn    func(ctx context.Context, id uuid.UUID, status domain.NoteStatus) error
	createdNote *domain.Note
}

func (m *mockNoteRepo) Create(ctx context.Context, note *domain.Note) error {
	m.createdNote = note
	if m.createFn != nil {
		return m.createFn(ctx, note)
	}
	return nil
}

func (m *mockNoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockNoteRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NoteStatus) error {
	return m.updateFn(ctx, id, status)
}

func (m *mockNoteRepo) WithTx(tx *sql.Tx) NoteRepository { return m }
func (m *mockNoteRepo) DB() *sql.DB                      { return m.db }

var _ NoteRepository = (*mockNoteRepo)(nil)

// capturingEmitter records emitted events.
type capturingEmitter struct {
	events []*events.TaskRequestEvent
	err    error
}

func (e *capturingEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, event)
	return nil
}

var _ events.EventEmitter = (*capturingEmitter)(nil)

func TestNewNoteService(t *testing.T) {
	t.Parallel()

	t.Run("nil note repo", func(t *testing.T) {
		t.Parallel()

		svc, err := NewNoteService(nil, &capturingEmitter{}, serviceTestLogger())
		assert.Error(t, err)
		assert.Nil(t, svc)
	})

	t.Run("nil event emitter", func(t *testing.T) {
		t.Parallel()

		svc, err := NewNoteService(&mockNoteRepo{}, nil, serviceTestLogger())
		assert.Error(t, err)
		assert.Nil(t, svc)
	})
}

func TestCreateNoteAndEnqueueClassification(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("saves note then emits classification request", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		noteRepo := &mockNoteRepo{db: db}
		emitter := &capturingEmitter{}
		svc, err := NewNoteService(noteRepo, emitter, serviceTestLogger())
		require.NoError(t, err)

		note, err := svc.CreateNoteAndEnqueueClassification(context.Background(), userID, "remember this")
		require.NoError(t, err)

		assert.Equal(t, userID, note.UserID)
		assert.Equal(t, "remember this", note.Text)
		assert.Equal(t, domain.NoteStatusPending, note.Status)
		require.NotNil(t, noteRepo.createdNote)

		require.Len(t, emitter.events, 1)
		event := emitter.events[0]
		assert.Equal(t, task.TaskTypeNoteClassification, event.Type)

		var payload struct {
			NoteID uuid.UUID `json:"note_id"`
		}
		require.NoError(t, event.UnmarshalPayload(&payload))
		assert.Equal(t, note.ID, payload.NoteID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty text is rejected before any write", func(t *testing.T) {
		t.Parallel()

		emitter := &capturingEmitter{}
		svc, err := NewNoteService(&mockNoteRepo{}, emitter, serviceTestLogger())
		require.NoError(t, err)

		note, err := svc.CreateNoteAndEnqueueClassification(context.Background(), userID, "")
		assert.Error(t, err)
		assert.Nil(t, note)
		assert.Empty(t, emitter.events)
	})

	t.Run("insert failure rolls back and emits nothing", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		noteRepo := &mockNoteRepo{
			db: db,
			createFn: func(ctx context.Context, note *domain.Note) error {
				return errors.New("insert failed")
			},
		}
		emitter := &capturingEmitter{}
		svc, err := NewNoteService(noteRepo, emitter, serviceTestLogger())
		require.NoError(t, err)

		note, err := svc.CreateNoteAndEnqueueClassification(context.Background(), userID, "text")
		assert.Error(t, err)
		assert.Nil(t, note)
		assert.Empty(t, emitter.events)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("emit failure surfaces after the note is saved", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		noteRepo := &mockNoteRepo{db: db}
		emitter := &capturingEmitter{err: errors.New("emit failed")}
		svc, err := NewNoteService(noteRepo, emitter, serviceTestLogger())
		require.NoError(t, err)

		note, err := svc.CreateNoteAndEnqueueClassification(context.Background(), userID, "text")
		assert.Error(t, err)
		assert.Nil(t, note)
		assert.NotNil(t, noteRepo.createdNote, "the note commit happened before the emit")
	})
}

func TestNoteServiceGetNote(t *testing.T) {
	t.Parallel()

	noteID := uuid.New()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		noteRepo := &mockNoteRepo{
			getByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
				return &domain.Note{ID: id, Status: domain.NoteStatusCompleted}, nil
			},
		}
		svc, err := NewNoteService(noteRepo, &capturingEmitter{}, serviceTestLogger())
		require.NoError(t, err)

		note, err := svc.GetNote(context.Background(), noteID)
		require.NoError(t, err)
		assert.Equal(t, noteID, note.ID)
	})

	t.Run("not found maps to service sentinel", func(t *testing.T) {
		t.Parallel()

		noteRepo := &mockNoteRepo{
			getByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
				return nil, store.ErrNoteNotFound
			},
		}
		svc, err := NewNoteService(noteRepo, &capturingEmitter{}, serviceTestLogger())
		require.NoError(t, err)

		note, err := svc.GetNote(context.Background(), noteID)
		assert.ErrorIs(t, err, ErrNoteNotFound)
		assert.Nil(t, note)
	})
}

func TestNoteServiceUpdateNoteStatus(t *testing.T) {
	t.Parallel()

	noteID := uuid.New()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var gotStatus domain.NoteStatus
		noteRepo := &mockNoteRepo{
			updateFn: func(ctx context.Context, id uuid.UUID, status domain.NoteStatus) error {
				gotStatus = status
				return nil
			},
		}
		svc, err := NewNoteService(noteRepo, &capturingEmitter{}, serviceTestLogger())
		require.NoError(t, err)

		require.NoError(t, svc.UpdateNoteStatus(context.Background(), noteID, domain.NoteStatusProcessing))
		assert.Equal(t, domain.NoteStatusProcessing, gotStatus)
	})

	t.Run("missing note", func(t *testing.T) {
		t.Parallel()

		noteRepo := &mockNoteRepo{
			updateFn: func(ctx context.Context, id uuid.UUID, status domain.NoteStatus) error {
				return store.ErrNoteNotFound
			},
		}
		svc, err := NewNoteService(noteRepo, &capturingEmitter{}, serviceTestLogger())
		require.NoError(t, err)

		err = svc.UpdateNoteStatus(context.Background(), noteID, domain.NoteStatusFailed)
		assert.ErrorIs(t, err, ErrNoteNotFound)
	})
}
