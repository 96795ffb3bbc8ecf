package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xavierca1/leadtrack/internal/usecase"
)

type errorResponse struct {
	Error   string                    `json:"error"`
	Message string                    `json:"message"`
	Fields  []usecase.ValidationError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeError maps usecase error kinds to HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	var (
		de *usecase.DomainError
		ae *usecase.AuthError
		pe *usecase.ProfileError
		se *usecase.StorageError
	)
	switch {
	case errors.As(err, &de):
		status := http.StatusBadRequest
		switch de.Code {
		case usecase.CodeForbidden:
			status = http.StatusForbidden
		case usecase.CodeNotFound:
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{Error: de.Code, Message: de.Message, Fields: de.Fields})
	case errors.As(err, &ae):
		writeErrorResponse(w, http.StatusUnauthorized, "AUTH_ERROR", ae.Message)
	case errors.As(err, &pe):
		writeErrorResponse(w, http.StatusServiceUnavailable, "PROFILE_UNAVAILABLE", "your profile could not be loaded, please sign in again")
	case errors.Is(err, usecase.ErrScopeUnresolved):
		writeErrorResponse(w, http.StatusConflict, "SESSION_NOT_READY", err.Error())
	case errors.As(err, &se):
		writeErrorResponse(w, http.StatusBadGateway, "STORAGE_ERROR", "the lead store is unavailable, please try again")
	default:
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body")
		return false
	}
	return true
}
