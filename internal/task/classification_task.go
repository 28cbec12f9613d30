package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/generation"
)

// Status constants used by the concrete tasks
// These match the TaskStatus values defined in task.go
const (
	statusPending    = "pending"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

// Common errors
var (
	ErrNilNoteService  = errors.New("note service cannot be nil")
	ErrNilClassifier   = errors.New("classifier cannot be nil")
	ErrNilNodeService  = errors.New("node service cannot be nil")
	ErrNilLogger       = errors.New("logger cannot be nil")
	ErrEmptyTaskNoteID = errors.New("note ID cannot be empty")
)

// NoteService defines the interface for note service operations
type NoteService interface {
	// GetNote retrieves a note by its ID
	GetNote(ctx context.Context, noteID uuid.UUID) (*domain.Note, error)

	// UpdateNoteStatus updates a note's classification status
	UpdateNoteStatus(ctx context.Context, noteID uuid.UUID, status domain.NoteStatus) error
}

// NodeService defines the interface for turning a classification into a
// persisted node with flashcards
type NodeService interface {
	// CreateFromClassification creates a node and its flashcards in a
	// single transaction
	CreateFromClassification(
		ctx context.Context,
		userID uuid.UUID,
		classification *generation.Classification,
	) (*domain.Node, error)
}

// noteClassificationPayload represents the serialized data stored in the task
type noteClassificationPayload struct {
	NoteID uuid.UUID `json:"note_id"`
}

// NoteClassificationTask implements the Task interface for classifying a
// note into a knowledge node with flashcards
type NoteClassificationTask struct {
	id          uuid.UUID
	noteID      uuid.UUID
	noteService NoteService
	classifier  generation.Classifier
	nodeService NodeService
	logger      *slog.Logger
	status      string // Using string instead of TaskStatus to avoid circular imports
}

// NewNoteClassificationTask creates a new note classification task
func NewNoteClassificationTask(
	noteID uuid.UUID,
	noteService NoteService,
	classifier generation.Classifier,
	nodeService NodeService,
	logger *slog.Logger,
) (*NoteClassificationTask, error) {
	// Validate dependencies
	if noteService == nil {
		return nil, ErrNilNoteService
	}
	if classifier == nil {
		return nil, ErrNilClassifier
	}
	if nodeService == nil {
		return nil, ErrNilNodeService
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	if noteID == uuid.Nil {
		return nil, ErrEmptyTaskNoteID
	}

	return &NoteClassificationTask{
		id:          uuid.New(),
		noteID:      noteID,
		noteService: noteService,
		classifier:  classifier,
		nodeService: nodeService,
		logger:      logger.With("task_type", TaskTypeNoteClassification, "note_id", noteID),
		status:      statusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *NoteClassificationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *NoteClassificationTask) Type() string {
	return TaskTypeNoteClassification
}

// Payload returns the task data as a byte slice
func (t *NoteClassificationTask) Payload() []byte {
	payload := noteClassificationPayload{
		NoteID: t.noteID,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// If marshal fails, return an empty payload with error logged
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}

	return data
}

// Status returns the current task status
// We convert the string to TaskStatus to fulfill the Task interface
func (t *NoteClassificationTask) Status() TaskStatus {
	return TaskStatus(t.status)
}

// Execute runs the note classification task, handling the complete
// lifecycle: fetching the note, marking it processing, classifying the
// text, persisting the resulting node with its flashcards, and recording
// the final note status. It handles errors at each step and ensures
// appropriate status updates.
func (t *NoteClassificationTask) Execute(ctx context.Context) error {
	t.status = statusProcessing
	t.logger.Info("starting note classification task")

	// Check for context cancellation
	if err := ctx.Err(); err != nil {
		t.status = statusFailed
		t.logger.Error("task cancelled by context", "error", err)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	// 1. Retrieve the note
	note, err := t.noteService.GetNote(ctx, t.noteID)
	if err != nil {
		t.status = statusFailed
		t.logger.Error("failed to retrieve note", "error", err)
		return fmt.Errorf("failed to retrieve note: %w", err)
	}

	t.logger.Info("retrieved note", "user_id", note.UserID, "note_status", note.Status)

	// 2. Update note status to processing
	err = t.noteService.UpdateNoteStatus(ctx, t.noteID, domain.NoteStatusProcessing)
	if err != nil {
		t.status = statusFailed
		t.logger.Error("failed to update note status to processing", "error", err)
		return fmt.Errorf("failed to update note status to processing: %w", err)
	}

	// 3. Classify the note text
	t.logger.Info("classifying note text")
	classification, err := t.classifier.Classify(ctx, note.Text)
	if err != nil {
		// Update note status to failed on classification error
		_ = t.noteService.UpdateNoteStatus(ctx, t.noteID, domain.NoteStatusFailed)
		t.status = statusFailed
		t.logger.Error("failed to classify note", "error", err)
		return fmt.Errorf("failed to classify note: %w", err)
	}

	t.logger.Info("note classified",
		"category", string(classification.Category),
		"card_count", len(classification.Cards))

	// 4. Persist the node and its flashcards atomically
	node, err := t.nodeService.CreateFromClassification(ctx, note.UserID, classification)
	if err != nil {
		// Update note status to failed if we couldn't save the node
		_ = t.noteService.UpdateNoteStatus(ctx, t.noteID, domain.NoteStatusFailed)
		t.status = statusFailed
		t.logger.Error("failed to save classified node", "error", err)
		return fmt.Errorf("failed to save classified node: %w", err)
	}

	// 5. Update note status to completed
	err = t.noteService.UpdateNoteStatus(ctx, t.noteID, domain.NoteStatusCompleted)
	if err != nil {
		// Log the error but don't fail the task - the important work is done
		t.logger.Error("failed to update note final status, but node was saved",
			"error", err,
			"node_id", node.ID)
	}

	t.status = statusCompleted
	t.logger.Info("note classification task completed successfully",
		"node_id", node.ID,
		"cards_created", len(classification.Cards))
	return nil
}
