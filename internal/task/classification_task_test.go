package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/generation"
)

// mockNoteService records status transitions for a single note.
type mockNoteService struct {
	note          *domain.Note
	getErr        error
	updateErr     error
	statusHistory []domain.NoteStatus
}

func (m *mockNoteService) GetNote(ctx context.Context, noteID uuid.UUID) (*domain.Note, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.note, nil
}

func (m *mockNoteService) UpdateNoteStatus(
	ctx context.Context,
	noteID uuid.UUID,
	status domain.NoteStatus,
) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.statusHistory = append(m.statusHistory, status)
	return nil
}

// mockClassifier returns a canned classification or error.
type mockClassifier struct {
	classification *generation.Classification
	err            error
	gotText        string
}

func (m *mockClassifier) Classify(
	ctx context.Context,
	noteText string,
) (*generation.Classification, error) {
	m.gotText = noteText
	if m.err != nil {
		return nil, m.err
	}
	return m.classification, nil
}

// mockNodeService records the classification it was asked to persist.
type mockNodeService struct {
	node    *domain.Node
	err     error
	gotUser uuid.UUID
	gotCls  *generation.Classification
}

func (m *mockNodeService) CreateFromClassification(
	ctx context.Context,
	userID uuid.UUID,
	classification *generation.Classification,
) (*domain.Node, error) {
	m.gotUser = userID
	m.gotCls = classification
	if m.err != nil {
		return nil, m.err
	}
	return m.node, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testNote(userID uuid.UUID) *domain.Note {
	return &domain.Note{
		ID:     uuid.New(),
		UserID: userID,
		Text:   "perro means dog",
		Status: domain.NoteStatusPending,
	}
}

func testClassification() *generation.Classification {
	return &generation.Classification{
		Category: domain.CategoryLanguage,
		Cards: []generation.CardDraft{
			{Front: "perro", Back: "dog"},
		},
	}
}

func TestNewNoteClassificationTaskValidation(t *testing.T) {
	t.Parallel()

	noteService := &mockNoteService{}
	classifier := &mockClassifier{}
	nodeService := &mockNodeService{}
	logger := discardLogger()
	noteID := uuid.New()

	testCases := []struct {
		name        string
		noteID      uuid.UUID
		noteService NoteService
		classifier  generation.Classifier
		nodeService NodeService
		logger      *slog.Logger
		expected    error
	}{
		{"nil note service", noteID, nil, classifier, nodeService, logger, ErrNilNoteService},
		{"nil classifier", noteID, noteService, nil, nodeService, logger, ErrNilClassifier},
		{"nil node service", noteID, noteService, classifier, nil, logger, ErrNilNodeService},
		{"nil logger", noteID, noteService, classifier, nodeService, nil, ErrNilLogger},
		{"empty note ID", uuid.Nil, noteService, classifier, nodeService, logger, ErrEmptyTaskNoteID},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			task, err := NewNoteClassificationTask(
				tc.noteID, tc.noteService, tc.classifier, tc.nodeService, tc.logger)
			assert.ErrorIs(t, err, tc.expected)
			assert.Nil(t, task)
		})
	}
}

func TestNoteClassificationTaskExecute(t *testing.T) {
	t.Parallel()

	t.Run("success walks the note through processing to completed", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		noteService := &mockNoteService{note: testNote(userID)}
		classifier := &mockClassifier{classification: testClassification()}
		nodeService := &mockNodeService{node: &domain.Node{ID: uuid.New(), UserID: userID}}

		task, err := NewNoteClassificationTask(
			noteService.note.ID, noteService, classifier, nodeService, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, TaskStatusPending, task.Status())

		err = task.Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, TaskStatusCompleted, task.Status())
		assert.Equal(t, "perro means dog", classifier.gotText)
		assert.Equal(t, userID, nodeService.gotUser)
		assert.Equal(t, classifier.classification, nodeService.gotCls)
		assert.Equal(t, []domain.NoteStatus{
			domain.NoteStatusProcessing,
			domain.NoteStatusCompleted,
		}, noteService.statusHistory)
	})

	t.Run("missing note fails the task", func(t *testing.T) {
		t.Parallel()

		noteService := &mockNoteService{getErr: errors.New("note not found")}

		task, err := NewNoteClassificationTask(
			uuid.New(), noteService, &mockClassifier{}, &mockNodeService{}, discardLogger())
		require.NoError(t, err)

		err = task.Execute(context.Background())
		assert.Error(t, err)
		assert.Equal(t, TaskStatusFailed, task.Status())
	})

	t.Run("classification failure marks the note failed", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		noteService := &mockNoteService{note: testNote(userID)}
		classifier := &mockClassifier{err: generation.ErrTransientFailure}

		task, err := NewNoteClassificationTask(
			noteService.note.ID, noteService, classifier, &mockNodeService{}, discardLogger())
		require.NoError(t, err)

		err = task.Execute(context.Background())
		assert.ErrorIs(t, err, generation.ErrTransientFailure)
		assert.Equal(t, TaskStatusFailed, task.Status())
		assert.Equal(t, []domain.NoteStatus{
			domain.NoteStatusProcessing,
			domain.NoteStatusFailed,
		}, noteService.statusHistory)
	})

	t.Run("node persistence failure marks the note failed", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		noteService := &mockNoteService{note: testNote(userID)}
		classifier := &mockClassifier{classification: testClassification()}
		nodeService := &mockNodeService{err: errors.New("insert failed")}

		task, err := NewNoteClassificationTask(
			noteService.note.ID, noteService, classifier, nodeService, discardLogger())
		require.NoError(t, err)

		err = task.Execute(context.Background())
		assert.Error(t, err)
		assert.Equal(t, TaskStatusFailed, task.Status())
		assert.Equal(t, []domain.NoteStatus{
			domain.NoteStatusProcessing,
			domain.NoteStatusFailed,
		}, noteService.statusHistory)
	})

	t.Run("cancelled context fails before touching the note", func(t *testing.T) {
		t.Parallel()

		noteService := &mockNoteService{note: testNote(uuid.New())}

		task, err := NewNoteClassificationTask(
			noteService.note.ID, noteService, &mockClassifier{}, &mockNodeService{}, discardLogger())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = task.Execute(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, TaskStatusFailed, task.Status())
		assert.Empty(t, noteService.statusHistory)
	})
}

// mockReviewUpdater records review updates.
type mockReviewUpdater struct {
	updates []domain.ReviewUpdate
	err     error
}

func (m *mockReviewUpdater) UpdateReview(ctx context.Context, update domain.ReviewUpdate) error {
	if m.err != nil {
		return m.err
	}
	m.updates = append(m.updates, update)
	return nil
}

func TestReviewPersistTaskExecute(t *testing.T) {
	t.Parallel()

	update := domain.ReviewUpdate{
		NodeID:       uuid.New(),
		IntervalDays: 5,
		NextDueAt:    time.Now().UTC().AddDate(0, 0, 5),
	}

	t.Run("success writes the update", func(t *testing.T) {
		t.Parallel()

		nodes := &mockReviewUpdater{}
		task, err := NewReviewPersistTask(update, nodes, discardLogger())
		require.NoError(t, err)

		require.NoError(t, task.Execute(context.Background()))
		assert.Equal(t, TaskStatusCompleted, task.Status())
		require.Len(t, nodes.updates, 1)
		assert.Equal(t, update, nodes.updates[0])
	})

	t.Run("store failure fails the task", func(t *testing.T) {
		t.Parallel()

		nodes := &mockReviewUpdater{err: errors.New("write failed")}
		task, err := NewReviewPersistTask(update, nodes, discardLogger())
		require.NoError(t, err)

		assert.Error(t, task.Execute(context.Background()))
		assert.Equal(t, TaskStatusFailed, task.Status())
	})

	t.Run("constructor rejects missing dependencies", func(t *testing.T) {
		t.Parallel()

		_, err := NewReviewPersistTask(update, nil, discardLogger())
		assert.ErrorIs(t, err, ErrNilReviewUpdater)

		_, err = NewReviewPersistTask(domain.ReviewUpdate{}, &mockReviewUpdater{}, discardLogger())
		assert.ErrorIs(t, err, ErrEmptyTaskNodeID)
	})
}
