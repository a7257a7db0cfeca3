package handler

import (
	"errors"
	"math"
	"net/http"

	"github.com/velora-beauty/velora-server/internal/model"
)

type errorResponse struct {
	Error      string   `json:"error"`
	RetryAfter int      `json:"retryAfter,omitempty"`
	Details    []string `json:"details,omitempty"`
}

// writeError maps internal errors onto the external taxonomy. Every 401
// keeps the same generic wording per cause class so clients cannot
// distinguish unknown email from wrong password, or expired from forged
// tokens. Storage-layer detail never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Validation failed",
			Details: validationErr.Violations,
		})
		return
	}

	var rateErr *model.RateLimitError
	if errors.As(err, &rateErr) {
		retryAfter := int(math.Ceil(rateErr.RetryAfter.Seconds()))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:      "Too many requests, please try again later",
			RetryAfter: retryAfter,
		})
		return
	}

	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid email or password"})
	case errors.Is(err, model.ErrSocialLoginOnly):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "This account uses social login"})
	case errors.Is(err, model.ErrInvalidToken),
		errors.Is(err, model.ErrTokenRevoked),
		errors.Is(err, model.ErrTokenExpired),
		errors.Is(err, model.ErrTokenMismatch):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Session expired, please log in again"})
	case errors.Is(err, model.ErrOTPInvalid):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid or expired code"})
	case errors.Is(err, model.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "Email already in use"})
	case errors.Is(err, model.ErrAccountNotActive):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "Account is not active"})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}
