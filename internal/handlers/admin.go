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

// AdminHandler handles delegated-admin grant HTTP requests
type AdminHandler struct {
	adminService *services.AdminService
	access       *services.AccessService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *services.AdminService, access *services.AccessService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		access:       access,
	}
}

// GrantRequest is the body of POST /events/{id}/admins
type GrantRequest struct {
	Email string `json:"email"`
}

// List handles GET /api/v1/events/{id}/admins. With ?me=1 it becomes a
// self-permission check available to any authenticated caller; without
// it, listing the grant set requires owner rights.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := chi.URLParam(r, "id")

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		respondError(w, apperrors.CodeUnauthorized, "Missing bearer token", http.StatusUnauthorized)
		return
	}

	if r.URL.Query().Get("me") != "" {
		allowed, err := h.access.CanManage(ctx, identity, eventID)
		if err != nil {
			respondAppError(w, err)
			return
		}
		respondData(w, http.StatusOK, map[string]any{"allowed": allowed})
		return
	}

	grants, err := h.access.ListDelegates(ctx, identity, eventID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if grants == nil {
		grants = []*models.EventAdmin{}
	}
	respondData(w, http.StatusOK, map[string]any{"admins": grants})
}

// Grant handles POST /api/v1/events/{id}/admins
func (h *AdminHandler) Grant(w http.ResponseWriter, r *http.Request) {
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

	var req GrantRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, err)
		return
	}

	grant, err := h.adminService.Grant(ctx, eventID, req.Email)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondData(w, http.StatusCreated, map[string]any{"admin": grant})
}

// Revoke handles DELETE /api/v1/events/{id}/admins?email=
func (h *AdminHandler) Revoke(w http.ResponseWriter, r *http.Request) {
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

	email := r.URL.Query().Get("email")
	if err := h.adminService.Revoke(ctx, eventID, email); err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("event_id", eventID).
		Str("user_id", identity.UserID).
		Msg("Admin grant revoked")

	respondData(w, http.StatusOK, map[string]any{"removed": true})
}
