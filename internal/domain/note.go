package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// NoteStatus represents the classification state of a submitted note.
type NoteStatus string

// Possible note status values
const (
	NoteStatusPending    NoteStatus = "pending"
	NoteStatusProcessing NoteStatus = "processing"
	NoteStatusCompleted  NoteStatus = "completed"
	NoteStatusFailed     NoteStatus = "failed"
)

// Common validation errors for Note
var (
	ErrEmptyNoteID       = errors.New("note ID cannot be empty")
	ErrEmptyNoteUserID   = errors.New("note user ID cannot be empty")
	ErrEmptyNoteText     = errors.New("note text cannot be empty")
	ErrInvalidNoteStatus = errors.New("invalid note status")
)

// Note represents raw text submitted by a user for classification.
// It tracks both the original content and the processing state while a
// background task turns the text into a knowledge node with flashcards.
type Note struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Text      string     `json:"text"`
	Status    NoteStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewNote creates a new Note with the given user ID and text.
// It generates a new UUID for the note ID, sets the status to pending,
// and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewNote(userID uuid.UUID, text string) (*Note, error) {
	now := time.Now().UTC()
	note := &Note{
		ID:        uuid.New(),
		UserID:    userID,
		Text:      text,
		Status:    NoteStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := note.Validate(); err != nil {
		return nil, err
	}

	return note, nil
}

// Validate checks if the Note has valid data.
// Returns an error if any field fails validation.
func (n *Note) Validate() error {
	if n.ID == uuid.Nil {
		return ErrEmptyNoteID
	}

	if n.UserID == uuid.Nil {
		return ErrEmptyNoteUserID
	}

	if n.Text == "" {
		return ErrEmptyNoteText
	}

	if !IsValidNoteStatus(n.Status) {
		return ErrInvalidNoteStatus
	}

	return nil
}

// UpdateStatus updates the note's status and updates the UpdatedAt timestamp.
// Returns an error if the new status is invalid.
func (n *Note) UpdateStatus(status NoteStatus) error {
	if !IsValidNoteStatus(status) {
		return ErrInvalidNoteStatus
	}

	n.Status = status
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// IsValidNoteStatus checks if the given status is a valid NoteStatus.
func IsValidNoteStatus(status NoteStatus) bool {
	switch status {
	case NoteStatusPending, NoteStatusProcessing, NoteStatusCompleted, NoteStatusFailed:
		return true
	default:
		return false
	}
}
