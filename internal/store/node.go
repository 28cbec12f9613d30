package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/stellae/stellae-api/internal/domain"
)

// NodeStore defines the interface for knowledge node persistence.
type NodeStore interface {
	// Create saves a new node to the store.
	// Returns validation errors from the domain Node if data is invalid.
	// Returns ErrInvalidEntity if the owning user does not exist.
	Create(ctx context.Context, node *domain.Node) error

	// GetByID retrieves a node by its unique ID.
	// Returns ErrNodeNotFound if the node does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Node, error)

	// UpdateReview persists a new interval and due timestamp for a node,
	// the only mutation the review flow performs.
	// Returns ErrNodeNotFound if the node does not exist.
	UpdateReview(ctx context.Context, update domain.ReviewUpdate) error

	// Delete removes a node and, through it, all of its flashcards.
	// The schema declares ON DELETE CASCADE; if the cascade path fails the
	// implementation falls back to deleting the node's flashcards explicitly
	// and retrying the node delete once.
	// Returns ErrNodeNotFound if the node does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByUser returns the number of nodes the user owns, optionally
	// restricted to one category (nil means all categories).
	CountByUser(ctx context.Context, userID uuid.UUID, category *domain.Category) (int, error)

	// WithTx returns a new NodeStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) NodeStore
}
