package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/domain/srs"
)

// ErrNoSession is returned when a user has no active review session.
var ErrNoSession = errors.New("no active review session")

// DueFetcher retrieves the ordered set of review entries due at the given
// time for one user. Entries whose owning node cannot be resolved are
// excluded by the implementation before they reach a session.
type DueFetcher interface {
	GetDueEntries(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.ReviewEntry, error)
}

// Manager owns at most one Session per user and serializes all access to it.
// It is the explicit holder the HTTP layer threads through; sessions never
// live in package-level state.
type Manager struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*Session
	fetcher   DueFetcher
	persister Persister
	logger    *slog.Logger
}

// NewManager creates a session manager backed by the given due fetch and
// review persister.
func NewManager(fetcher DueFetcher, persister Persister, logger *slog.Logger) *Manager {
	if fetcher == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("fetcher cannot be nil")
	}
	if persister == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("persister cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		sessions:  make(map[uuid.UUID]*Session),
		fetcher:   fetcher,
		persister: persister,
		logger:    logger.With(slog.String("component", "review_manager")),
	}
}

// BuildSession fetches the user's due entries and replaces any existing
// session with a fresh one. Re-building is the only way out of a terminal
// session; an in-progress session is simply discarded, with no cancellation
// of already-dispatched writes.
func (m *Manager) BuildSession(ctx context.Context, userID uuid.UUID) (*Session, error) {
	entries, err := m.fetcher.GetDueEntries(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due entries: %w", err)
	}

	session := NewSession(entries, m.persister, m.logger)

	m.mu.Lock()
	m.sessions[userID] = session
	m.mu.Unlock()

	m.logger.Debug("built review session",
		slog.String("user_id", userID.String()),
		slog.Int("entry_count", len(entries)),
		slog.String("state", string(session.State())))

	return session, nil
}

// Snapshot describes a session's externally visible state: what the UI
// needs to render the current card without being handed the session itself.
type Snapshot struct {
	State    State
	Entry    domain.ReviewEntry // zero value outside StateShowing
	Revealed bool
	Position int
	Total    int
}

// Snapshot returns the current view of the user's session.
// Returns ErrNoSession if the user has not built one.
func (m *Manager) Snapshot(userID uuid.UUID) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[userID]
	if !ok {
		return Snapshot{}, ErrNoSession
	}

	return snapshotOf(session), nil
}

// Reveal flips the current card of the user's session.
func (m *Manager) Reveal(userID uuid.UUID) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[userID]
	if !ok {
		return Snapshot{}, ErrNoSession
	}

	if err := session.Reveal(); err != nil {
		return Snapshot{}, err
	}

	return snapshotOf(session), nil
}

// Grade records the outcome for the current card of the user's session and
// advances it. The returned snapshot reflects the post-transition state.
func (m *Manager) Grade(
	ctx context.Context,
	userID uuid.UUID,
	outcome domain.ReviewOutcome,
) (Snapshot, srs.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[userID]
	if !ok {
		return Snapshot{}, srs.Result{}, ErrNoSession
	}

	result, err := session.Grade(ctx, outcome)
	if err != nil {
		return Snapshot{}, srs.Result{}, err
	}

	return snapshotOf(session), result, nil
}

// EndSession discards the user's session, if any. Leaving review mode before
// completion loses no persisted data: every graded entry was already
// dispatched.
func (m *Manager) EndSession(userID uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}

func snapshotOf(session *Session) Snapshot {
	position, total := session.Progress()
	snap := Snapshot{
		State:    session.State(),
		Revealed: session.Revealed(),
		Position: position,
		Total:    total,
	}

	if entry, err := session.Current(); err == nil {
		snap.Entry = entry
	}

	return snap
}
