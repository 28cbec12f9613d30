package srs

import (
	"errors"
	"time"

	"github.com/stellae/stellae-api/internal/domain"
)

// Common errors
var (
	ErrNegativeInterval = errors.New("previous interval cannot be negative")
	ErrInvalidOutcome   = errors.New("invalid review outcome")
)

// Service defines the interface for review scheduling operations.
// It is the validating boundary over the pure Schedule function: callers
// that cannot guarantee their inputs go through the Service, callers that
// can (the session state machine, which only ever feeds back intervals the
// scheduler itself produced) may use Schedule directly.
type Service interface {
	// NextReview computes the new interval and due timestamp for a review
	// with the given previous interval and outcome.
	NextReview(previousIntervalDays int, outcome domain.ReviewOutcome, now time.Time) (Result, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct{}

// NewService creates a new scheduling service.
func NewService() Service {
	return &defaultService{}
}

// NextReview implements the Service interface.
func (s *defaultService) NextReview(
	previousIntervalDays int,
	outcome domain.ReviewOutcome,
	now time.Time,
) (Result, error) {
	if previousIntervalDays < 0 {
		return Result{}, ErrNegativeInterval
	}

	if !domain.IsValidReviewOutcome(outcome) {
		return Result{}, ErrInvalidOutcome
	}

	return Schedule(previousIntervalDays, outcome, now), nil
}
