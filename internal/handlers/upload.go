package handlers

import (
	"net/http"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/middleware"
	"connexa-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// maxUploadBytes caps banner uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// UploadHandler handles banner image uploads
type UploadHandler struct {
	uploadService *services.UploadService
	access        *services.AccessService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService *services.UploadService, access *services.AccessService) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		access:        access,
	}
}

// Upload handles POST /api/v1/uploads/events/{id}. This is the one path
// that can claim ownership of an ownerless event.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := chi.URLParam(r, "id")

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		respondError(w, apperrors.CodeUnauthorized, "Missing bearer token", http.StatusUnauthorized)
		return
	}
	if err := h.access.CheckUploadAccess(ctx, identity, eventID); err != nil {
		respondAppError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, apperrors.CodeValidation, "Invalid multipart body", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, apperrors.CodeValidation, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := h.uploadService.UploadEventImage(ctx, eventID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("event_id", eventID).
		Str("user_id", identity.UserID).
		Str("filename", header.Filename).
		Msg("Banner uploaded")

	respondData(w, http.StatusCreated, map[string]any{"url": url})
}
