package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/stellae/stellae-api/internal/domain"
)

// FlashcardQuery narrows ListByUser results. A zero value lists everything.
type FlashcardQuery struct {
	// Category restricts results to cards whose owning node has this
	// category; nil means all categories.
	Category *domain.Category

	// Search is matched case-insensitively against card fronts and backs;
	// empty means no text filter.
	Search string
}

// FlashcardStore defines the interface for flashcard persistence.
//
// Every read joins through the owning node: a flashcard whose node is gone
// never appears in any result, and the category attached to each card is
// the node's, not a stored copy.
type FlashcardStore interface {
	// CreateMultiple saves multiple flashcards to the store. Run it within
	// a transaction (store.RunInTransaction + WithTx) when the cards are
	// created together with their node, so either everything lands or
	// nothing does.
	CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error

	// GetByID retrieves a flashcard by its unique ID.
	// Returns ErrFlashcardNotFound if the card does not exist or its node
	// is unresolvable.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error)

	// ListByUser retrieves the user's cards joined with their node's
	// category, newest node first, filtered per the query.
	ListByUser(ctx context.Context, userID uuid.UUID, query FlashcardQuery) ([]domain.ReviewEntry, error)

	// GetDueEntries retrieves the user's cards whose owning node is due at
	// the given time, joined with the node's category and current interval.
	// Order is stable (due time, then card creation) so a rebuilt session
	// sees the same sequence.
	GetDueEntries(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.ReviewEntry, error)

	// WithTx returns a new FlashcardStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) FlashcardStore
}
