package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/middleware"
	"connexa-backend/internal/models"
	"connexa-backend/internal/repository"
	"connexa-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	eventService *services.EventService
	access       *services.AccessService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *services.EventService, access *services.AccessService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		access:       access,
	}
}

// CreateEventRequest is the body of POST /events
type CreateEventRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	EventAt     string  `json:"event_at"`
	HostName    *string `json:"host_name"`
	Location    *string `json:"location"`
}

type eventDetail struct {
	*models.Event
	AttendeesCount int `json:"attendees_count"`
}

// List handles GET /api/v1/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListEvents(r.Context())
	if err != nil {
		respondAppError(w, err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	respondData(w, http.StatusOK, map[string]any{"events": events})
}

// Create handles POST /api/v1/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		respondError(w, apperrors.CodeUnauthorized, "Missing bearer token", http.StatusUnauthorized)
		return
	}

	var req CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, err)
		return
	}
	if req.Title == "" || req.EventAt == "" {
		respondError(w, apperrors.CodeValidation, "title and event_at required", http.StatusBadRequest)
		return
	}
	eventAt, err := time.Parse(time.RFC3339, req.EventAt)
	if err != nil {
		respondError(w, apperrors.CodeValidation, "Invalid event_at datetime", http.StatusBadRequest)
		return
	}

	event, err := h.eventService.CreateEvent(ctx, identity, services.CreateEventCommand{
		Title:       req.Title,
		Description: req.Description,
		EventAt:     eventAt,
		HostName:    req.HostName,
		Location:    req.Location,
	})
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondData(w, http.StatusCreated, map[string]any{"event": event})
}

// Get handles GET /api/v1/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	event, count, err := h.eventService.GetEventDetail(r.Context(), eventID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"event": eventDetail{Event: event, AttendeesCount: count},
	})
}

// Update handles PUT /api/v1/events/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := chi.URLParam(r, "id")

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		respondError(w, apperrors.CodeUnauthorized, "Missing bearer token", http.StatusUnauthorized)
		return
	}
	if err := h.access.CheckAccess(ctx, identity, eventID, services.LevelOwner); err != nil {
		respondAppError(w, err)
		return
	}

	update, err := parseEventUpdate(r)
	if err != nil {
		respondAppError(w, err)
		return
	}

	event, err := h.eventService.UpdateEvent(ctx, eventID, update)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("event_id", eventID).
		Str("user_id", identity.UserID).
		Msg("Event updated")

	respondData(w, http.StatusOK, map[string]any{"event": event})
}

// Delete handles DELETE /api/v1/events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := chi.URLParam(r, "id")

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		respondError(w, apperrors.CodeUnauthorized, "Missing bearer token", http.StatusUnauthorized)
		return
	}
	if err := h.access.CheckAccess(ctx, identity, eventID, services.LevelOwner); err != nil {
		respondAppError(w, err)
		return
	}

	if err := h.eventService.DeleteEvent(ctx, eventID); err != nil {
		respondAppError(w, err)
		return
	}

	respondData(w, http.StatusOK, map[string]any{"deleted": true})
}

// parseEventUpdate turns the raw PUT body into a typed partial update,
// distinguishing absent fields from explicit nulls.
func parseEventUpdate(r *http.Request) (repository.EventUpdate, error) {
	var raw map[string]json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		return repository.EventUpdate{}, err
	}

	var update repository.EventUpdate

	if v, ok := raw["title"]; ok {
		var title string
		if err := json.Unmarshal(v, &title); err == nil {
			if t := strings.TrimSpace(title); t != "" {
				update.Title = &t
			}
		}
	}
	if v, ok := raw["description"]; ok {
		value, err := nullableString(v, "description")
		if err != nil {
			return repository.EventUpdate{}, err
		}
		update.Description = value
		update.HasDescription = true
	}
	if v, ok := raw["event_at"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return repository.EventUpdate{}, apperrors.New(apperrors.CodeValidation, "Invalid event_at datetime")
		}
		eventAt, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return repository.EventUpdate{}, apperrors.New(apperrors.CodeValidation, "Invalid event_at datetime")
		}
		update.EventAt = &eventAt
	}
	if v, ok := raw["host_name"]; ok {
		value, err := nullableString(v, "host_name")
		if err != nil {
			return repository.EventUpdate{}, err
		}
		update.HostName = value
		update.HasHostName = true
	}
	if v, ok := raw["location"]; ok {
		value, err := nullableString(v, "location")
		if err != nil {
			return repository.EventUpdate{}, err
		}
		update.Location = value
		update.HasLocation = true
	}
	if v, ok := raw["image_url"]; ok {
		value, err := nullableString(v, "image_url")
		if err != nil {
			return repository.EventUpdate{}, err
		}
		update.ImageURL = value
		update.HasImageURL = true
	}

	if update.Empty() {
		return repository.EventUpdate{}, apperrors.New(apperrors.CodeValidation, "No valid fields to update")
	}
	return update, nil
}

func nullableString(raw json.RawMessage, field string) (*string, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperrors.Newf(apperrors.CodeValidation, "%s must be string or null", field)
	}
	return &s, nil
}
