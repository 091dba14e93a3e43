package handlers

import (
	"net/http"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/middleware"
	"connexa-backend/internal/models"
	"connexa-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// AttendeeHandler handles attendee-related HTTP requests
type AttendeeHandler struct {
	attendeeService *services.AttendeeService
	access          *services.AccessService
}

// NewAttendeeHandler creates a new attendee handler
func NewAttendeeHandler(attendeeService *services.AttendeeService, access *services.AccessService) *AttendeeHandler {
	return &AttendeeHandler{
		attendeeService: attendeeService,
		access:          access,
	}
}

// RegisterAttendeeRequest is the body of POST /events/{id}/attendees
type RegisterAttendeeRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Contact   string `json:"contact"`
}

// List handles GET /api/v1/events/{id}/attendees
func (h *AttendeeHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := chi.URLParam(r, "id")

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		respondError(w, apperrors.CodeUnauthorized, "Missing bearer token", http.StatusUnauthorized)
		return
	}
	if err := h.access.CheckAccess(ctx, identity, eventID, services.LevelDelegate); err != nil {
		respondAppError(w, err)
		return
	}

	attendees, err := h.attendeeService.ListAttendees(ctx, eventID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if attendees == nil {
		attendees = []*models.Attendee{}
	}
	respondData(w, http.StatusOK, map[string]any{"attendees": attendees})
}

// Register handles POST /api/v1/events/{id}/attendees. This endpoint is
// public: anyone can sign up for an event.
func (h *AttendeeHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := chi.URLParam(r, "id")

	var req RegisterAttendeeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, err)
		return
	}

	attendee, err := h.attendeeService.RegisterAttendee(ctx, eventID, services.RegisterAttendeeCommand{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Contact:   req.Contact,
	})
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("event_id", eventID).
		Str("attendee_id", attendee.ID).
		Msg("Attendee registration accepted")

	respondData(w, http.StatusCreated, map[string]any{"attendee": attendee})
}
