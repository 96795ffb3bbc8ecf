package handlers

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
)

// EmailChecker reports whether an email can still be registered.
type EmailChecker interface {
	EmailAvailable(ctx context.Context, email string) (bool, error)
}

type ValidationHandler struct {
	Emails EmailChecker
}

func NewValidationHandler(emails EmailChecker) *ValidationHandler {
	return &ValidationHandler{Emails: emails}
}

// Handle serves POST /register/check, run by the sign-up form before it
// submits.
func (h *ValidationHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		writeErrorResponse(w, http.StatusBadRequest, "MISSING_FIELDS", "email is required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_EMAIL", "email is invalid")
		return
	}

	available, err := h.Emails.EmailAvailable(r.Context(), email)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "DATABASE_ERROR", "could not check the email")
		return
	}
	if !available {
		writeErrorResponse(w, http.StatusConflict, "EMAIL_TAKEN", "an account with this email already exists")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
