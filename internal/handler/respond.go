package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/parallax/audit-backend/internal/model"
	"github.com/parallax/audit-backend/internal/validation"
)

// Client-facing messages.
const (
	msgSubmitted         = "Audit request submitted successfully"
	msgSubmittedFallback = "Audit request submitted successfully (saved via local fallback)"
	msgUpdated           = "Audit request updated successfully"
	msgDeleted           = "Audit request deleted successfully"
	msgInvalidJSON       = "Invalid JSON body"
	msgIDRequired        = "Audit request id is required"
	msgNotFound          = "Audit request not found"
	msgRouteNotFound     = "Route not found"
	msgMethodNotAllowed  = "Method not allowed"
	msgInternal          = "An error occurred while processing your request"
	msgTooManyRequests   = "Too many audit requests from this address. Please wait a minute and try again."
)

// envelope is the body of every API response.
type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       any               `json:"data,omitempty"`
	Errors     validation.Errors `json:"errors,omitempty"`
	Pagination *model.Pagination `json:"pagination,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}
