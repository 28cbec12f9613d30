package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Category classifies a knowledge node by the kind of material it holds.
type Category string

// Possible category values, assigned by the classification step.
const (
	CategoryCode     Category = "code"
	CategoryLanguage Category = "language"
	CategoryNote     Category = "note"
)

// Node-specific validation errors
var (
	// ErrNodeIDEmpty is returned when a node ID is empty or nil.
	ErrNodeIDEmpty = errors.New("node ID cannot be empty")

	// ErrNodeUserIDEmpty is returned when a node's user ID is empty or nil.
	ErrNodeUserIDEmpty = errors.New("node user ID cannot be empty")

	// ErrInvalidCategory is returned when a node's category is not one of
	// the recognized values.
	ErrInvalidCategory = errors.New("invalid node category")

	// ErrNegativeInterval is returned when a node's interval is below zero.
	ErrNegativeInterval = errors.New("node interval must be greater than or equal to 0")
)

// Node represents one classified fact extracted from a user's note.
// It carries the spaced-repetition schedule for all flashcards that
// belong to it: IntervalDays is the current review interval (0 means the
// node has never been successfully reviewed) and NextDueAt is the point
// in time at which the node becomes eligible for review again.
type Node struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Category     Category  `json:"category"`
	Mastered     bool      `json:"mastered"`
	IntervalDays int       `json:"interval_days"`
	NextDueAt    time.Time `json:"next_due_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewNode creates a new Node for the given user and category.
// The node starts unmastered with a zero interval and is due immediately,
// so freshly classified material enters the next review pass.
// Returns an error if validation fails.
func NewNode(userID uuid.UUID, category Category) (*Node, error) {
	now := time.Now().UTC()
	node := &Node{
		ID:           uuid.New(),
		UserID:       userID,
		Category:     category,
		Mastered:     false,
		IntervalDays: 0,
		NextDueAt:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := node.Validate(); err != nil {
		return nil, err
	}

	return node, nil
}

// Validate checks if the Node has valid data.
// Returns an error if any field fails validation.
func (n *Node) Validate() error {
	if n.ID == uuid.Nil {
		return ErrNodeIDEmpty
	}

	if n.UserID == uuid.Nil {
		return ErrNodeUserIDEmpty
	}

	if !IsValidCategory(n.Category) {
		return ErrInvalidCategory
	}

	if n.IntervalDays < 0 {
		return ErrNegativeInterval
	}

	return nil
}

// IsDue reports whether the node is eligible for review at the given time.
func (n *Node) IsDue(now time.Time) bool {
	return !n.NextDueAt.After(now)
}

// IsValidCategory checks if the given category is one of the recognized values.
func IsValidCategory(category Category) bool {
	switch category {
	case CategoryCode, CategoryLanguage, CategoryNote:
		return true
	default:
		return false
	}
}

// Note: nothing in the review flow ever promotes Mastered to true. The flag
// is persisted and round-tripped but no promotion rule exists yet.
