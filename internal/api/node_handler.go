package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/stellae/stellae-api/internal/api/shared"
	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/platform/logger"
	"github.com/stellae/stellae-api/internal/service"
	"github.com/stellae/stellae-api/internal/store"
)

// NodeResponse represents the response data for a knowledge node
type NodeResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Category     string    `json:"category"`
	Mastered     bool      `json:"mastered"`
	IntervalDays int       `json:"interval_days"`
	NextDueAt    time.Time `json:"next_due_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CardListResponse represents the response data for a flashcard listing
type CardListResponse struct {
	Cards []domain.ReviewEntry `json:"cards"`
	Total int                  `json:"total"`
}

// NodeHandler handles node- and flashcard-related HTTP requests
type NodeHandler struct {
	nodeService service.NodeService
	logger      *slog.Logger
}

// NewNodeHandler creates a new NodeHandler
func NewNodeHandler(nodeService service.NodeService, logger *slog.Logger) *NodeHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for NodeHandler")
	}

	return &NodeHandler{
		nodeService: nodeService,
		logger:      logger.With(slog.String("component", "node_handler")),
	}
}

// GetNode handles GET /api/nodes/{id} requests
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	userID, nodeID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	node, err := h.nodeService.GetNode(r.Context(), userID, nodeID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, nodeToResponse(node))
}

// DeleteNode handles DELETE /api/nodes/{id} requests. Deleting a node also
// removes its flashcards.
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, nodeID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.nodeService.DeleteNode(r.Context(), userID, nodeID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("node deleted",
		slog.String("user_id", userID.String()),
		slog.String("node_id", nodeID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListCards handles GET /api/cards requests. The optional "category" and
// "search" query parameters narrow the listing.
func (h *NodeHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var query store.FlashcardQuery
	if raw := r.URL.Query().Get("category"); raw != "" {
		category := domain.Category(raw)
		if !domain.IsValidCategory(category) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid category")
			return
		}
		query.Category = &category
	}
	query.Search = r.URL.Query().Get("search")

	cards, err := h.nodeService.ListCards(r.Context(), userID, query)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list cards")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CardListResponse{
		Cards: cards,
		Total: len(cards),
	})
}

// GetStats handles GET /api/nodes/stats requests
func (h *NodeHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	stats, err := h.nodeService.GetStats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get stats")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// nodeToResponse converts a domain.Node to a NodeResponse
func nodeToResponse(node *domain.Node) NodeResponse {
	return NodeResponse{
		ID:           node.ID.String(),
		UserID:       node.UserID.String(),
		Category:     string(node.Category),
		Mastered:     node.Mastered,
		IntervalDays: node.IntervalDays,
		NextDueAt:    node.NextDueAt,
		CreatedAt:    node.CreatedAt,
		UpdatedAt:    node.UpdatedAt,
	}
}
