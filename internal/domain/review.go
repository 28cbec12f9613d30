package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewOutcome represents the user's self-reported recall result for one card.
type ReviewOutcome string

// Possible review outcome values
const (
	ReviewOutcomeRemembered ReviewOutcome = "remembered"
	ReviewOutcomeForgotten  ReviewOutcome = "forgotten"
)

// ErrInvalidReviewOutcome is returned when an outcome is not one of the
// recognized values.
var ErrInvalidReviewOutcome = errors.New("invalid review outcome")

// IsValidReviewOutcome checks if the given outcome is valid.
func IsValidReviewOutcome(outcome ReviewOutcome) bool {
	switch outcome {
	case ReviewOutcomeRemembered, ReviewOutcomeForgotten:
		return true
	default:
		return false
	}
}

// ReviewEntry is a flashcard joined with its owning node's category and
// current interval. It exists only inside an active review session and is
// never persisted; the fetch that produces it excludes any card whose node
// cannot be resolved.
type ReviewEntry struct {
	CardID       uuid.UUID `json:"card_id"`
	NodeID       uuid.UUID `json:"node_id"`
	Front        string    `json:"front"`
	Back         string    `json:"back"`
	Category     Category  `json:"category"`
	IntervalDays int       `json:"interval_days"`
}

// ReviewUpdate carries the scheduler's output for one graded entry: the new
// interval and due timestamp to persist on the owning node.
type ReviewUpdate struct {
	NodeID       uuid.UUID `json:"node_id"`
	IntervalDays int       `json:"interval_days"`
	NextDueAt    time.Time `json:"next_due_at"`
}
