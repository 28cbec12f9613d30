package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Flashcard-specific validation errors
var (
	// ErrFlashcardIDEmpty is returned when a flashcard ID is empty or nil.
	ErrFlashcardIDEmpty = errors.New("flashcard ID cannot be empty")

	// ErrFlashcardNodeIDEmpty is returned when a flashcard's node ID is empty or nil.
	ErrFlashcardNodeIDEmpty = errors.New("flashcard node ID cannot be empty")

	// ErrFlashcardUserIDEmpty is returned when a flashcard's user ID is empty or nil.
	ErrFlashcardUserIDEmpty = errors.New("flashcard user ID cannot be empty")

	// ErrFlashcardFrontEmpty is returned when a flashcard's front text is empty.
	ErrFlashcardFrontEmpty = errors.New("flashcard front cannot be empty")

	// ErrFlashcardBackEmpty is returned when a flashcard's back text is empty.
	ErrFlashcardBackEmpty = errors.New("flashcard back cannot be empty")
)

// Flashcard represents one front/back display pair belonging to exactly one
// knowledge node. A flashcard does not exist without its node: deleting the
// node deletes its flashcards, and a flashcard whose node cannot be resolved
// is excluded from every review and display set. The displayed category is
// always resolved through the owning node.
type Flashcard struct {
	ID        uuid.UUID `json:"id"`
	NodeID    uuid.UUID `json:"node_id"`
	UserID    uuid.UUID `json:"user_id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFlashcard creates a new Flashcard owned by the given node.
// It generates a new UUID for the card ID and sets the creation timestamp.
// Returns an error if validation fails.
func NewFlashcard(nodeID, userID uuid.UUID, front, back string) (*Flashcard, error) {
	card := &Flashcard{
		ID:        uuid.New(),
		NodeID:    nodeID,
		UserID:    userID,
		Front:     front,
		Back:      back,
		CreatedAt: time.Now().UTC(),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Flashcard has valid data.
// Returns an error if any field fails validation.
func (f *Flashcard) Validate() error {
	if f.ID == uuid.Nil {
		return ErrFlashcardIDEmpty
	}

	if f.NodeID == uuid.Nil {
		return ErrFlashcardNodeIDEmpty
	}

	if f.UserID == uuid.Nil {
		return ErrFlashcardUserIDEmpty
	}

	if f.Front == "" {
		return ErrFlashcardFrontEmpty
	}

	if f.Back == "" {
		return ErrFlashcardBackEmpty
	}

	return nil
}
