package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/events"
	"github.com/stellae/stellae-api/internal/store"
	"github.com/stellae/stellae-api/internal/task"
)

// NoteRepository defines the repository interface for the service layer.
// It is aligned with store.NoteStore plus access to the underlying
// connection for transactions.
type NoteRepository interface {
	// Create saves a new note to the store
	Create(ctx context.Context, note *domain.Note) error

	// GetByID retrieves a note by its unique ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)

	// UpdateStatus updates the classification status of an existing note
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NoteStatus) error

	// WithTx returns a new repository instance that uses the provided transaction
	WithTx(tx *sql.Tx) NoteRepository

	// DB returns the underlying database connection
	DB() *sql.DB
}

// NoteService provides note-related operations
type NoteService interface {
	// CreateNoteAndEnqueueClassification creates a new note with pending
	// status and requests its background classification
	CreateNoteAndEnqueueClassification(
		ctx context.Context,
		userID uuid.UUID,
		text string,
	) (*domain.Note, error)

	// GetNote retrieves a note by its ID
	GetNote(ctx context.Context, noteID uuid.UUID) (*domain.Note, error)

	// UpdateNoteStatus updates a note's classification status
	UpdateNoteStatus(ctx context.Context, noteID uuid.UUID, status domain.NoteStatus) error
}

// Common sentinel errors for NoteService
var (
	// ErrNoteNotFound indicates that the note does not exist
	ErrNoteNotFound = errors.New("note not found")
)

// NoteServiceError wraps errors from the note service with context.
type NoteServiceError struct {
	// Operation is the operation that failed (e.g., "create_note", "update_note_status")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for NoteServiceError.
func (e *NoteServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("note service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("note service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *NoteServiceError) Unwrap() error {
	return e.Err
}

// NewNoteServiceError creates a new NoteServiceError.
// It returns known sentinel errors directly without wrapping.
func NewNoteServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrNoteNotFound) || errors.Is(err, store.ErrNoteNotFound) {
		return ErrNoteNotFound
	}

	return &NoteServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// noteServiceImpl implements the NoteService interface
type noteServiceImpl struct {
	noteRepo     NoteRepository
	eventEmitter events.EventEmitter
	logger       *slog.Logger
}

// NewNoteService creates a new NoteService.
// It returns an error if any of the required dependencies are nil.
func NewNoteService(
	noteRepo NoteRepository,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (NoteService, error) {
	if noteRepo == nil {
		return nil, &NoteServiceError{
			Operation: "create_service",
			Message:   "noteRepo cannot be nil",
		}
	}
	if eventEmitter == nil {
		return nil, &NoteServiceError{
			Operation: "create_service",
			Message:   "eventEmitter cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &noteServiceImpl{
		noteRepo:     noteRepo,
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "note_service"),
	}, nil
}

// CreateNoteAndEnqueueClassification creates a new note with pending status
// and emits an event requesting its classification. The note creation runs
// in a transaction; the event is emitted only after the commit.
func (s *noteServiceImpl) CreateNoteAndEnqueueClassification(
	ctx context.Context,
	userID uuid.UUID,
	text string,
) (*domain.Note, error) {
	// 1. Create a new note with pending status
	note, err := domain.NewNote(userID, text)
	if err != nil {
		s.logger.Error("failed to create note object",
			"error", err,
			"user_id", userID)
		return nil, NewNoteServiceError("create_note", "failed to create note object", err)
	}

	// 2. Save the note to the database using a transaction
	err = store.RunInTransaction(ctx, s.noteRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.noteRepo.WithTx(tx)

		if err := txRepo.Create(ctx, note); err != nil {
			s.logger.Error("failed to create note in transaction",
				"error", err,
				"user_id", userID,
				"note_id", note.ID)
			return NewNoteServiceError("create_note", "failed to save note to database", err)
		}
		return nil
	})

	if err != nil {
		// Error is already wrapped in the transaction
		return nil, err
	}

	s.logger.Info("note created successfully with pending status",
		"note_id", note.ID,
		"user_id", userID)

	// 3. Create and emit a classification request event
	payload := struct {
		NoteID uuid.UUID `json:"note_id"`
	}{
		NoteID: note.ID,
	}

	event, err := events.NewTaskRequestEvent(task.TaskTypeNoteClassification, payload)
	if err != nil {
		s.logger.Error("failed to create classification event",
			"error", err,
			"note_id", note.ID,
			"user_id", userID)
		return nil, NewNoteServiceError("create_note", "failed to create event", err)
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit classification event",
			"error", err,
			"note_id", note.ID,
			"user_id", userID,
			"event_id", event.ID)
		return nil, NewNoteServiceError("create_note", "failed to emit event", err)
	}

	s.logger.Info("classification event emitted successfully",
		"note_id", note.ID,
		"user_id", userID,
		"event_id", event.ID)

	return note, nil
}

// GetNote retrieves a note by its ID
func (s *noteServiceImpl) GetNote(ctx context.Context, noteID uuid.UUID) (*domain.Note, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		s.logger.Error("failed to retrieve note",
			"error", err,
			"note_id", noteID)

		if errors.Is(err, store.ErrNoteNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, NewNoteServiceError("get_note", "failed to retrieve note", err)
	}

	s.logger.Debug("retrieved note successfully",
		"note_id", noteID,
		"user_id", note.UserID,
		"status", note.Status)

	return note, nil
}

// UpdateNoteStatus updates a note's classification status.
func (s *noteServiceImpl) UpdateNoteStatus(
	ctx context.Context,
	noteID uuid.UUID,
	status domain.NoteStatus,
) error {
	err := s.noteRepo.UpdateStatus(ctx, noteID, status)
	if err != nil {
		s.logger.Error("failed to update note status",
			"error", err,
			"note_id", noteID,
			"target_status", status)

		if errors.Is(err, store.ErrNoteNotFound) {
			return ErrNoteNotFound
		}
		return NewNoteServiceError(
			"update_note_status",
			fmt.Sprintf("failed to update note status to %s", status),
			err,
		)
	}

	s.logger.Info("note status updated successfully",
		"note_id", noteID,
		"status", status)
	return nil
}
