package generation

import (
	"context"

	"github.com/stellae/stellae-api/internal/domain"
)

// CardDraft is one flashcard proposed by the language model, before it is
// bound to a node and persisted.
type CardDraft struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Classification is the structured result of classifying a note: the
// category the material belongs to and the flashcards extracted from it.
type Classification struct {
	Category domain.Category `json:"category"`
	Cards    []CardDraft     `json:"cards"`
}

// Classifier defines the interface for classifying note text into a
// category with flashcards. It serves as a boundary between the application
// core and external AI/LLM services, following the hexagonal architecture
// pattern.
type Classifier interface {
	// Classify analyzes the note text and returns its category together
	// with the flashcards extracted from it.
	//
	// Returns an error if classification fails for any reason (see
	// errors.go for the specific types).
	Classify(ctx context.Context, noteText string) (*Classification, error)
}
