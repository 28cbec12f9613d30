package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/platform/logger"
	"github.com/stellae/stellae-api/internal/store"
)

// PostgresFlashcardStore implements the store.FlashcardStore interface
// using a PostgreSQL database as the storage backend.
//
// All reads join flashcards to their owning node so that a card whose node
// has been removed never surfaces, and the category reported for each card
// is always the node's current one.
type PostgresFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlashcardStore creates a new PostgreSQL implementation of the FlashcardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresFlashcardStore(db store.DBTX, logger *slog.Logger) *PostgresFlashcardStore {
	if db == nil {
		panic("db cannot be nil") // ALLOW-PANIC: constructor enforces non-nil dependency
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

// Ensure PostgresFlashcardStore implements store.FlashcardStore interface
var _ store.FlashcardStore = (*PostgresFlashcardStore)(nil)

// CreateMultiple implements store.FlashcardStore.CreateMultiple
// It saves multiple flashcards in a single statement. Callers creating a
// node together with its cards should run both inside a transaction.
// Returns store.ErrInvalidEntity if a referenced node or user does not exist.
func (s *PostgresFlashcardStore) CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(cards) == 0 {
		return nil
	}

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("flashcard validation failed during create",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return err
		}
	}

	query := `
		INSERT INTO flashcards (id, node_id, user_id, front, back, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, card := range cards {
		_, err := s.db.ExecContext(
			ctx,
			query,
			card.ID,
			card.NodeID,
			card.UserID,
			card.Front,
			card.Back,
			card.CreatedAt,
		)
		if err != nil {
			if IsForeignKeyViolation(err) {
				log.Warn("foreign key violation during flashcard creation",
					slog.String("error", err.Error()),
					slog.String("card_id", card.ID.String()),
					slog.String("node_id", card.NodeID.String()))
				return fmt.Errorf("%w: node with ID %s not found",
					store.ErrInvalidEntity, card.NodeID)
			}

			log.Error("failed to create flashcard",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()),
				slog.String("node_id", card.NodeID.String()))
			return err
		}
	}

	log.Info("flashcards created successfully",
		slog.Int("count", len(cards)),
		slog.String("node_id", cards[0].NodeID.String()))
	return nil
}

// GetByID implements store.FlashcardStore.GetByID
// It retrieves a flashcard by its unique ID, joined through its node.
// Returns store.ErrFlashcardNotFound if the card or its node does not exist.
func (s *PostgresFlashcardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving flashcard by ID", slog.String("card_id", id.String()))

	query := `
		SELECT f.id, f.node_id, f.user_id, f.front, f.back, f.created_at
		FROM flashcards f
		INNER JOIN nodes n ON n.id = f.node_id
		WHERE f.id = $1
	`

	var card domain.Flashcard

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&card.ID,
		&card.NodeID,
		&card.UserID,
		&card.Front,
		&card.Back,
		&card.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("flashcard not found", slog.String("card_id", id.String()))
			return nil, store.ErrFlashcardNotFound
		}
		log.Error("failed to get flashcard by ID",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, err
	}

	return &card, nil
}

// ListByUser implements store.FlashcardStore.ListByUser
// It retrieves the user's flashcards joined with their node's category,
// newest node first, optionally narrowed by category and a case-insensitive
// text search over card fronts and backs.
func (s *PostgresFlashcardStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	query store.FlashcardQuery,
) ([]domain.ReviewEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sqlQuery := `
		SELECT f.id, f.node_id, f.front, f.back, n.category, n.interval_days
		FROM flashcards f
		INNER JOIN nodes n ON n.id = f.node_id
		WHERE f.user_id = $1
	`
	args := []interface{}{userID}

	if query.Category != nil {
		args = append(args, *query.Category)
		sqlQuery += fmt.Sprintf(" AND n.category = $%d", len(args))
	}

	if query.Search != "" {
		args = append(args, "%"+query.Search+"%")
		sqlQuery += fmt.Sprintf(" AND (f.front ILIKE $%d OR f.back ILIKE $%d)", len(args), len(args))
	}

	sqlQuery += " ORDER BY n.created_at DESC, f.created_at ASC"

	entries, err := s.queryEntries(ctx, sqlQuery, args...)
	if err != nil {
		log.Error("failed to list flashcards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	log.Debug("listed flashcards",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(entries)))
	return entries, nil
}

// GetDueEntries implements store.FlashcardStore.GetDueEntries
// It retrieves the user's flashcards whose owning node is due at the given
// time. The ordering is deterministic (node due time, then card creation)
// so a session rebuilt from the same state sees the same sequence.
func (s *PostgresFlashcardStore) GetDueEntries(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) ([]domain.ReviewEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT f.id, f.node_id, f.front, f.back, n.category, n.interval_days
		FROM flashcards f
		INNER JOIN nodes n ON n.id = f.node_id
		WHERE f.user_id = $1 AND n.next_due_at <= $2
		ORDER BY n.next_due_at ASC, f.created_at ASC
	`

	entries, err := s.queryEntries(ctx, query, userID, now)
	if err != nil {
		log.Error("failed to get due entries",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	log.Debug("retrieved due entries",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(entries)))
	return entries, nil
}

// queryEntries runs a card/node join query and scans the rows into
// review entries. Returns an empty slice when nothing matches.
func (s *PostgresFlashcardStore) queryEntries(
	ctx context.Context,
	query string,
	args ...interface{},
) ([]domain.ReviewEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := []domain.ReviewEntry{}
	for rows.Next() {
		var entry domain.ReviewEntry
		var category string

		err := rows.Scan(
			&entry.CardID,
			&entry.NodeID,
			&entry.Front,
			&entry.Back,
			&category,
			&entry.IntervalDays,
		)
		if err != nil {
			return nil, err
		}

		entry.Category = domain.Category(category)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// WithTx implements store.FlashcardStore.WithTx
// It returns a new FlashcardStore instance bound to the given transaction.
func (s *PostgresFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return &PostgresFlashcardStore{
		db:     tx,
		logger: s.logger,
	}
}
