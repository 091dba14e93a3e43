package handlers

import (
	"encoding/json"
	"net/http"

	"connexa-backend/internal/apperrors"

	"github.com/rs/zerolog/log"
)

// errorBody is the error half of the response envelope.
type errorBody struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

// envelope is the uniform response shape of the API.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

// respondData sends a success envelope.
func respondData(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// respondError sends an error envelope with an explicit code.
func respondError(w http.ResponseWriter, code apperrors.Code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: &errorBody{Code: code, Message: message}})
}

// respondAppError maps any error onto the envelope. Server-side causes
// of 5xx responses are logged and never sent to the client.
func respondAppError(w http.ResponseWriter, err error) {
	appErr := apperrors.From(err)
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", string(appErr.Code)).Msg("Request failed")
	}
	respondError(w, appErr.Code, appErr.Message, status)
}

// decodeJSON parses the request body into dest.
func decodeJSON(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apperrors.New(apperrors.CodeValidation, "Invalid JSON body")
	}
	return nil
}
