package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stellae/stellae-api/internal/api/shared"
	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/platform/logger"
	"github.com/stellae/stellae-api/internal/review"
)

// ReviewCardResponse is the card surface exposed during a review session.
// The back is withheld until the card is revealed.
type ReviewCardResponse struct {
	CardID   string `json:"card_id"`
	NodeID   string `json:"node_id"`
	Category string `json:"category"`
	Front    string `json:"front"`
	Back     string `json:"back,omitempty"`
}

// ReviewSessionResponse represents the state of the user's review session
type ReviewSessionResponse struct {
	State    string              `json:"state"`
	Position int                 `json:"position"`
	Total    int                 `json:"total"`
	Revealed bool                `json:"revealed"`
	Card     *ReviewCardResponse `json:"card,omitempty"`
}

// GradeRequest represents the request body for grading the current card
type GradeRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=remembered forgotten"`
}

// GradeResponse represents the result of grading the current card
type GradeResponse struct {
	IntervalDays int                   `json:"interval_days"`
	NextDueAt    time.Time             `json:"next_due_at"`
	Session      ReviewSessionResponse `json:"session"`
}

// ReviewHandler handles review-session HTTP requests
type ReviewHandler struct {
	manager   *review.Manager
	validator *validator.Validate
	logger    *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(manager *review.Manager, logger *slog.Logger) *ReviewHandler {
	if manager == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("manager cannot be nil for ReviewHandler")
	}

	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}

	return &ReviewHandler{
		manager:   manager,
		validator: validator.New(),
		logger:    logger.With(slog.String("component", "review_handler")),
	}
}

// BuildSession handles POST /api/review/session requests. It snapshots the
// user's due cards into a fresh session, replacing any existing one.
func (h *ReviewHandler) BuildSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	if _, err := h.manager.BuildSession(r.Context(), userID); err != nil {
		HandleAPIError(w, r, err, "Failed to build review session")
		return
	}

	snap, err := h.manager.Snapshot(userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("review session built",
		slog.String("user_id", userID.String()),
		slog.Int("total", snap.Total))
	shared.RespondWithJSON(w, r, http.StatusCreated, snapshotToResponse(snap))
}

// GetSession handles GET /api/review/session requests
func (h *ReviewHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	snap, err := h.manager.Snapshot(userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, snapshotToResponse(snap))
}

// Reveal handles POST /api/review/session/reveal requests. Revealing an
// already revealed card is a no-op.
func (h *ReviewHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	snap, err := h.manager.Reveal(userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, snapshotToResponse(snap))
}

// Grade handles POST /api/review/session/grade requests. The current card
// must be revealed before it can be graded.
func (h *ReviewHandler) Grade(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req GradeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	outcome := domain.ReviewOutcome(req.Outcome)

	snap, result, err := h.manager.Grade(r.Context(), userID, outcome)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("card graded",
		slog.String("user_id", userID.String()),
		slog.String("outcome", string(outcome)),
		slog.Int("interval_days", result.IntervalDays))
	shared.RespondWithJSON(w, r, http.StatusOK, GradeResponse{
		IntervalDays: result.IntervalDays,
		NextDueAt:    result.NextDueAt,
		Session:      snapshotToResponse(snap),
	})
}

// EndSession handles DELETE /api/review/session requests. Ending a session
// loses no graded work: every grade was dispatched when it happened.
func (h *ReviewHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	h.manager.EndSession(userID)

	log.Debug("review session ended", slog.String("user_id", userID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// snapshotToResponse converts a review.Snapshot to a ReviewSessionResponse.
// The card back is included only after the card has been revealed.
func snapshotToResponse(snap review.Snapshot) ReviewSessionResponse {
	resp := ReviewSessionResponse{
		State:    string(snap.State),
		Position: snap.Position,
		Total:    snap.Total,
		Revealed: snap.Revealed,
	}

	if snap.State == review.StateShowing {
		card := &ReviewCardResponse{
			CardID:   snap.Entry.CardID.String(),
			NodeID:   snap.Entry.NodeID.String(),
			Category: string(snap.Entry.Category),
			Front:    snap.Entry.Front,
		}
		if snap.Revealed {
			card.Back = snap.Entry.Back
		}
		resp.Card = card
	}

	return resp
}
