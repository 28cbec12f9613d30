package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stellae/stellae-api/internal/api/shared"
	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/platform/logger"
	"github.com/stellae/stellae-api/internal/service"
)

// CreateNoteRequest represents the request body for capturing a new note
type CreateNoteRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

// NoteResponse represents the response data for a note
type NoteResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteHandler handles note-related HTTP requests
type NoteHandler struct {
	noteService service.NoteService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewNoteHandler creates a new NoteHandler
func NewNoteHandler(noteService service.NoteService, logger *slog.Logger) *NoteHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for NoteHandler")
	}

	return &NoteHandler{
		noteService: noteService,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "note_handler")),
	}
}

// CreateNote handles POST /api/notes requests. The note is stored
// immediately with pending status and classified in the background, so the
// response is 202 Accepted.
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateNoteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	note, err := h.noteService.CreateNoteAndEnqueueClassification(r.Context(), userID, req.Text)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create note")
		return
	}

	log.Debug("note captured",
		slog.String("user_id", userID.String()),
		slog.String("note_id", note.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusAccepted, noteToResponse(note))
}

// GetNote handles GET /api/notes/{id} requests. It reports the note's
// current classification status.
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, noteID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	note, err := h.noteService.GetNote(r.Context(), noteID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	// Notes are private to their owner.
	if note.UserID != userID {
		HandleAPIError(w, r, service.ErrNotOwned, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, noteToResponse(note))
}

// noteToResponse converts a domain.Note to a NoteResponse
func noteToResponse(note *domain.Note) NoteResponse {
	return NoteResponse{
		ID:        note.ID.String(),
		UserID:    note.UserID.String(),
		Text:      note.Text,
		Status:    string(note.Status),
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}
