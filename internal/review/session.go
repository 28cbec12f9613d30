// Package review implements the review-session state machine: one pass over
// a pre-fetched snapshot of due cards, one card at a time, with an explicit
// reveal-then-grade interaction. A session is an ordinary value owned by its
// caller; nothing in this package holds global state.
package review

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/domain/srs"
)

// State identifies where a session is in its lifecycle.
type State string

// Session states. Empty and Complete are terminal: the only way out is
// building a fresh session from a new due fetch.
const (
	StateEmpty    State = "empty"
	StateShowing  State = "showing"
	StateComplete State = "complete"
)

// Common errors
var (
	// ErrInvalidTransition is returned for any operation that is not valid
	// in the session's current state, e.g. grading before revealing or
	// revealing in a terminal state. The session signals the violation
	// rather than silently ignoring it, and never advances on one.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrInvalidOutcome is returned when Grade is called with an outcome
	// that is not remembered or forgotten.
	ErrInvalidOutcome = errors.New("invalid review outcome")
)

// Persister dispatches one review update for asynchronous persistence.
// Implementations must not block on the underlying write: the session fires
// the dispatch and transitions regardless of the write's eventual fate, and
// the implementation is responsible for surfacing write failures to the
// surrounding layer (logging, task status) instead of dropping them.
type Persister interface {
	PersistReview(ctx context.Context, update domain.ReviewUpdate) error
}

// Session drives one review pass over a fixed snapshot of due entries.
// The snapshot keeps its arrival order and is never re-fetched, re-sorted,
// or shrunk mid-session; a cursor advances over it as entries are graded.
//
// Session is not safe for concurrent use. Exactly one session exists per
// interacting user; the Manager serializes access for the HTTP layer.
type Session struct {
	entries   []domain.ReviewEntry
	cursor    int
	revealed  bool
	state     State
	persister Persister
	logger    *slog.Logger
}

// NewSession builds a session over the given entries, which must already be
// filtered to "due now" by the fetch. An empty snapshot yields a session in
// StateEmpty; otherwise the session starts at the first entry, unrevealed.
func NewSession(entries []domain.ReviewEntry, persister Persister, logger *slog.Logger) *Session {
	if persister == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("persister cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	state := StateShowing
	if len(entries) == 0 {
		state = StateEmpty
	}

	return &Session{
		entries:   entries,
		cursor:    0,
		revealed:  false,
		state:     state,
		persister: persister,
		logger:    logger.With(slog.String("component", "review_session")),
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	return s.state
}

// Revealed reports whether the current entry's back side is showing.
func (s *Session) Revealed() bool {
	return s.revealed
}

// Progress returns the 0-based cursor position and the snapshot length.
func (s *Session) Progress() (position, total int) {
	return s.cursor, len(s.entries)
}

// Current returns the entry under the cursor.
// Returns ErrInvalidTransition unless the session is in StateShowing.
func (s *Session) Current() (domain.ReviewEntry, error) {
	if s.state != StateShowing {
		return domain.ReviewEntry{}, ErrInvalidTransition
	}
	return s.entries[s.cursor], nil
}

// Reveal shows the back side of the current entry. Revealing an already
// revealed entry is a no-op; revealing in a terminal state returns
// ErrInvalidTransition.
func (s *Session) Reveal() error {
	if s.state != StateShowing {
		return ErrInvalidTransition
	}

	s.revealed = true
	return nil
}

// Grade records the outcome for the current, revealed entry. In order it
// (a) runs the scheduler on the entry's interval, (b) hands the resulting
// update to the persister, where a dispatch failure is logged and does not
// block the transition, and (c) advances the cursor, resetting the reveal
// flag, or moves to StateComplete past the last entry.
//
// Grading before revealing, or in a terminal state, returns
// ErrInvalidTransition without advancing the cursor.
func (s *Session) Grade(ctx context.Context, outcome domain.ReviewOutcome) (srs.Result, error) {
	if s.state != StateShowing || !s.revealed {
		return srs.Result{}, ErrInvalidTransition
	}

	if !domain.IsValidReviewOutcome(outcome) {
		return srs.Result{}, ErrInvalidOutcome
	}

	entry := s.entries[s.cursor]
	result := srs.Schedule(entry.IntervalDays, outcome, time.Now().UTC())

	update := domain.ReviewUpdate{
		NodeID:       entry.NodeID,
		IntervalDays: result.IntervalDays,
		NextDueAt:    result.NextDueAt,
	}

	if err := s.persister.PersistReview(ctx, update); err != nil {
		// The transition does not depend on the write; the dispatch failure
		// is surfaced here and through the persister's own reporting.
		s.logger.Error("failed to dispatch review update",
			slog.String("error", err.Error()),
			slog.String("node_id", entry.NodeID.String()),
			slog.String("outcome", string(outcome)))
	}

	s.revealed = false
	if s.cursor+1 < len(s.entries) {
		s.cursor++
	} else {
		s.state = StateComplete
	}

	return result, nil
}
