package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/generation"
	"github.com/stellae/stellae-api/internal/store"
)

// NodeRepository defines the node repository interface for the service layer.
// It is aligned with store.NodeStore plus access to the underlying
// connection for transactions.
type NodeRepository interface {
	// Create saves a new node to the store
	Create(ctx context.Context, node *domain.Node) error

	// GetByID retrieves a node by its unique ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Node, error)

	// Delete removes a node and its flashcards
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByUser counts a user's nodes, optionally restricted to a category
	CountByUser(ctx context.Context, userID uuid.UUID, category *domain.Category) (int, error)

	// WithTx returns a new repository instance that uses the provided transaction
	WithTx(tx *sql.Tx) NodeRepository

	// DB returns the underlying database connection
	DB() *sql.DB
}

// FlashcardRepository defines the flashcard repository interface for the
// service layer. It is aligned with store.FlashcardStore.
type FlashcardRepository interface {
	// CreateMultiple saves multiple flashcards to the store
	CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error

	// ListByUser retrieves a user's cards with their node's category
	ListByUser(ctx context.Context, userID uuid.UUID, query store.FlashcardQuery) ([]domain.ReviewEntry, error)

	// GetDueEntries retrieves a user's cards whose node is due
	GetDueEntries(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.ReviewEntry, error)

	// WithTx returns a new repository instance that uses the provided transaction
	WithTx(tx *sql.Tx) FlashcardRepository
}

// NodeStats summarizes a user's knowledge nodes per category.
type NodeStats struct {
	Total      int                     `json:"total"`
	ByCategory map[domain.Category]int `json:"by_category"`
}

// NodeService provides knowledge-node operations
type NodeService interface {
	// CreateFromClassification creates a node and its flashcards in a
	// single transaction
	CreateFromClassification(
		ctx context.Context,
		userID uuid.UUID,
		classification *generation.Classification,
	) (*domain.Node, error)

	// GetNode retrieves a node owned by the given user
	GetNode(ctx context.Context, userID, nodeID uuid.UUID) (*domain.Node, error)

	// DeleteNode removes a node owned by the given user, along with its
	// flashcards
	DeleteNode(ctx context.Context, userID, nodeID uuid.UUID) error

	// ListCards retrieves the user's flashcards, optionally filtered by
	// category and free-text search
	ListCards(ctx context.Context, userID uuid.UUID, query store.FlashcardQuery) ([]domain.ReviewEntry, error)

	// GetStats summarizes the user's nodes per category
	GetStats(ctx context.Context, userID uuid.UUID) (NodeStats, error)
}

// Common sentinel errors for NodeService
var (
	// ErrNodeNotFound indicates that the node does not exist
	ErrNodeNotFound = errors.New("node not found")

	// ErrNilClassification indicates a classification result was expected but missing
	ErrNilClassification = errors.New("classification cannot be nil")
)

// NodeServiceError wraps errors from the node service with context.
type NodeServiceError struct {
	// Operation is the operation that failed (e.g., "create_from_classification")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for NodeServiceError.
func (e *NodeServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("node service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("node service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *NodeServiceError) Unwrap() error {
	return e.Err
}

// NewNodeServiceError creates a new NodeServiceError.
// It returns known sentinel errors directly without wrapping.
func NewNodeServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrNodeNotFound) || errors.Is(err, store.ErrNodeNotFound) {
		return ErrNodeNotFound
	}
	if errors.Is(err, ErrNotOwned) {
		return ErrNotOwned
	}

	return &NodeServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// nodeServiceImpl implements the NodeService interface
type nodeServiceImpl struct {
	nodeRepo NodeRepository
	cardRepo FlashcardRepository
	logger   *slog.Logger
}

// NewNodeService creates a new NodeService.
// It returns an error if any of the required dependencies are nil.
func NewNodeService(
	nodeRepo NodeRepository,
	cardRepo FlashcardRepository,
	logger *slog.Logger,
) (NodeService, error) {
	if nodeRepo == nil {
		return nil, &NodeServiceError{
			Operation: "create_service",
			Message:   "nodeRepo cannot be nil",
		}
	}
	if cardRepo == nil {
		return nil, &NodeServiceError{
			Operation: "create_service",
			Message:   "cardRepo cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &nodeServiceImpl{
		nodeRepo: nodeRepo,
		cardRepo: cardRepo,
		logger:   logger.With("component", "node_service"),
	}, nil
}

// CreateFromClassification creates a node for the classified category and
// saves its flashcards, all inside a single transaction so either the node
// and every card land together or nothing does.
func (s *nodeServiceImpl) CreateFromClassification(
	ctx context.Context,
	userID uuid.UUID,
	classification *generation.Classification,
) (*domain.Node, error) {
	if classification == nil {
		return nil, ErrNilClassification
	}

	node, err := domain.NewNode(userID, classification.Category)
	if err != nil {
		s.logger.Error("failed to create node object",
			"error", err,
			"user_id", userID,
			"category", string(classification.Category))
		return nil, NewNodeServiceError("create_from_classification", "failed to create node object", err)
	}

	cards := make([]*domain.Flashcard, 0, len(classification.Cards))
	for _, draft := range classification.Cards {
		card, err := domain.NewFlashcard(node.ID, userID, draft.Front, draft.Back)
		if err != nil {
			s.logger.Error("failed to create flashcard object",
				"error", err,
				"user_id", userID,
				"node_id", node.ID)
			return nil, NewNodeServiceError(
				"create_from_classification",
				"failed to create flashcard object",
				err,
			)
		}
		cards = append(cards, card)
	}

	err = store.RunInTransaction(ctx, s.nodeRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txNodeRepo := s.nodeRepo.WithTx(tx)
		txCardRepo := s.cardRepo.WithTx(tx)

		if err := txNodeRepo.Create(ctx, node); err != nil {
			return NewNodeServiceError("create_from_classification", "failed to save node", err)
		}

		if err := txCardRepo.CreateMultiple(ctx, cards); err != nil {
			return NewNodeServiceError("create_from_classification", "failed to save flashcards", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("node created from classification",
		"node_id", node.ID,
		"user_id", userID,
		"category", string(node.Category),
		"card_count", len(cards))

	return node, nil
}

// GetNode retrieves a node and verifies the requesting user owns it.
func (s *nodeServiceImpl) GetNode(ctx context.Context, userID, nodeID uuid.UUID) (*domain.Node, error) {
	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		if errors.Is(err, store.ErrNodeNotFound) {
			return nil, ErrNodeNotFound
		}
		return nil, NewNodeServiceError("get_node", "failed to retrieve node", err)
	}

	if node.UserID != userID {
		s.logger.Warn("user attempted to access node owned by another user",
			"node_id", nodeID,
			"owner_id", node.UserID,
			"requester_id", userID)
		return nil, ErrNotOwned
	}

	return node, nil
}

// DeleteNode removes a node owned by the user. The node's flashcards go
// with it.
func (s *nodeServiceImpl) DeleteNode(ctx context.Context, userID, nodeID uuid.UUID) error {
	// Ownership check before the destructive operation
	if _, err := s.GetNode(ctx, userID, nodeID); err != nil {
		return err
	}

	if err := s.nodeRepo.Delete(ctx, nodeID); err != nil {
		if errors.Is(err, store.ErrNodeNotFound) {
			return ErrNodeNotFound
		}
		return NewNodeServiceError("delete_node", "failed to delete node", err)
	}

	s.logger.Info("node deleted",
		"node_id", nodeID,
		"user_id", userID)
	return nil
}

// ListCards retrieves the user's flashcards with their node's category.
func (s *nodeServiceImpl) ListCards(
	ctx context.Context,
	userID uuid.UUID,
	query store.FlashcardQuery,
) ([]domain.ReviewEntry, error) {
	entries, err := s.cardRepo.ListByUser(ctx, userID, query)
	if err != nil {
		return nil, NewNodeServiceError("list_cards", "failed to list flashcards", err)
	}

	return entries, nil
}

// GetStats counts the user's nodes overall and per category.
func (s *nodeServiceImpl) GetStats(ctx context.Context, userID uuid.UUID) (NodeStats, error) {
	stats := NodeStats{
		ByCategory: make(map[domain.Category]int),
	}

	total, err := s.nodeRepo.CountByUser(ctx, userID, nil)
	if err != nil {
		return NodeStats{}, NewNodeServiceError("get_stats", "failed to count nodes", err)
	}
	stats.Total = total

	for _, category := range []domain.Category{
		domain.CategoryCode,
		domain.CategoryLanguage,
		domain.CategoryNote,
	} {
		category := category
		count, err := s.nodeRepo.CountByUser(ctx, userID, &category)
		if err != nil {
			return NodeStats{}, NewNodeServiceError("get_stats", "failed to count nodes by category", err)
		}
		stats.ByCategory[category] = count
	}

	return stats, nil
}
