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

// PostgresNodeStore implements the store.NodeStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNodeStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNodeStore creates a new PostgreSQL implementation of the NodeStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresNodeStore(db store.DBTX, logger *slog.Logger) *PostgresNodeStore {
	if db == nil {
		panic("db cannot be nil") // ALLOW-PANIC: constructor enforces non-nil dependency
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNodeStore{
		db:     db,
		logger: logger.With(slog.String("component", "node_store")),
	}
}

// Ensure PostgresNodeStore implements store.NodeStore interface
var _ store.NodeStore = (*PostgresNodeStore)(nil)

// Create implements store.NodeStore.Create
// It saves a new node to the database, handling domain validation.
// Returns store.ErrInvalidEntity if the user ID doesn't exist (foreign key violation).
func (s *PostgresNodeStore) Create(ctx context.Context, node *domain.Node) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := node.Validate(); err != nil {
		log.Warn("node validation failed during create",
			slog.String("error", err.Error()),
			slog.String("node_id", node.ID.String()))
		return err
	}

	query := `
		INSERT INTO nodes (id, user_id, category, mastered, interval_days, next_due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		node.ID,
		node.UserID,
		node.Category,
		node.Mastered,
		node.IntervalDays,
		node.NextDueAt,
		node.CreatedAt,
		node.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during node creation",
				slog.String("error", err.Error()),
				slog.String("node_id", node.ID.String()),
				slog.String("user_id", node.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, node.UserID)
		}

		log.Error("failed to create node",
			slog.String("error", err.Error()),
			slog.String("node_id", node.ID.String()),
			slog.String("user_id", node.UserID.String()))
		return err
	}

	log.Info("node created successfully",
		slog.String("node_id", node.ID.String()),
		slog.String("user_id", node.UserID.String()),
		slog.String("category", string(node.Category)))
	return nil
}

// GetByID implements store.NodeStore.GetByID
// It retrieves a node by its unique ID.
// Returns store.ErrNodeNotFound if the node does not exist.
func (s *PostgresNodeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Node, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving node by ID", slog.String("node_id", id.String()))

	query := `
		SELECT id, user_id, category, mastered, interval_days, next_due_at, created_at, updated_at
		FROM nodes
		WHERE id = $1
	`

	var node domain.Node
	var category string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&node.ID,
		&node.UserID,
		&category,
		&node.Mastered,
		&node.IntervalDays,
		&node.NextDueAt,
		&node.CreatedAt,
		&node.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("node not found", slog.String("node_id", id.String()))
			return nil, store.ErrNodeNotFound
		}
		log.Error("failed to get node by ID",
			slog.String("error", err.Error()),
			slog.String("node_id", id.String()))
		return nil, err
	}

	node.Category = domain.Category(category)

	log.Debug("node retrieved successfully",
		slog.String("node_id", id.String()),
		slog.String("category", string(node.Category)))
	return &node, nil
}

// UpdateReview implements store.NodeStore.UpdateReview
// It persists the outcome of a review: the node's new interval and the time
// it next becomes due. No other field changes during the review flow.
// Returns store.ErrNodeNotFound if the node does not exist.
func (s *PostgresNodeStore) UpdateReview(ctx context.Context, update domain.ReviewUpdate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("updating node review schedule",
		slog.String("node_id", update.NodeID.String()),
		slog.Int("interval_days", update.IntervalDays),
		slog.Time("next_due_at", update.NextDueAt))

	if update.IntervalDays < 0 {
		log.Warn("negative interval during review update",
			slog.String("node_id", update.NodeID.String()),
			slog.Int("interval_days", update.IntervalDays))
		return domain.ErrNegativeInterval
	}

	updatedAt := time.Now().UTC()

	query := `
		UPDATE nodes
		SET interval_days = $1, next_due_at = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		update.IntervalDays,
		update.NextDueAt,
		updatedAt,
		update.NodeID,
	)
	if err != nil {
		log.Error("failed to update node review schedule",
			slog.String("error", err.Error()),
			slog.String("node_id", update.NodeID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("node_id", update.NodeID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("node not found for review update",
			slog.String("node_id", update.NodeID.String()))
		return store.ErrNodeNotFound
	}

	log.Info("node review schedule updated",
		slog.String("node_id", update.NodeID.String()),
		slog.Int("interval_days", update.IntervalDays))
	return nil
}

// Delete implements store.NodeStore.Delete
// It removes a node and relies on ON DELETE CASCADE to remove the node's
// flashcards with it. If the cascading delete fails, it falls back to
// deleting the flashcards explicitly and retries the node delete once.
// Returns store.ErrNodeNotFound if the node does not exist.
func (s *PostgresNodeStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("deleting node", slog.String("node_id", id.String()))

	result, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = $1`, id)
	if err != nil {
		log.Warn("cascading node delete failed, retrying with explicit card delete",
			slog.String("error", err.Error()),
			slog.String("node_id", id.String()))

		if _, cardErr := s.db.ExecContext(ctx, `DELETE FROM flashcards WHERE node_id = $1`, id); cardErr != nil {
			log.Error("failed to delete node flashcards during fallback",
				slog.String("error", cardErr.Error()),
				slog.String("node_id", id.String()))
			return cardErr
		}

		result, err = s.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = $1`, id)
		if err != nil {
			log.Error("failed to delete node after fallback",
				slog.String("error", err.Error()),
				slog.String("node_id", id.String()))
			return err
		}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("node_id", id.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("node not found for delete", slog.String("node_id", id.String()))
		return store.ErrNodeNotFound
	}

	log.Info("node deleted successfully", slog.String("node_id", id.String()))
	return nil
}

// CountByUser implements store.NodeStore.CountByUser
// It counts the nodes a user owns, optionally restricted to one category.
func (s *PostgresNodeStore) CountByUser(
	ctx context.Context,
	userID uuid.UUID,
	category *domain.Category,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var count int
	var err error

	if category != nil {
		query := `SELECT COUNT(*) FROM nodes WHERE user_id = $1 AND category = $2`
		err = s.db.QueryRowContext(ctx, query, userID, *category).Scan(&count)
	} else {
		query := `SELECT COUNT(*) FROM nodes WHERE user_id = $1`
		err = s.db.QueryRowContext(ctx, query, userID).Scan(&count)
	}

	if err != nil {
		log.Error("failed to count nodes",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, err
	}

	return count, nil
}

// WithTx implements store.NodeStore.WithTx
// It returns a new NodeStore instance bound to the given transaction.
func (s *PostgresNodeStore) WithTx(tx *sql.Tx) store.NodeStore {
	return &PostgresNodeStore{
		db:     tx,
		logger: s.logger,
	}
}
