package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/parallax/audit-backend/internal/model"
	"github.com/parallax/audit-backend/internal/repository"
	"github.com/parallax/audit-backend/internal/service"
	"github.com/parallax/audit-backend/internal/validation"
)

const maxBodyBytes = 64 << 10

var errTrailingData = errors.New("unexpected data after JSON body")

// SubmissionNotifier is told about every stored submission. It must not block.
type SubmissionNotifier interface {
	NotifySubmission(rec model.AuditRequest)
}

// AuditHandler serves /api/audit.
type AuditHandler struct {
	auditService service.AuditService
	notifier     SubmissionNotifier
}

// NewAuditHandler creates an AuditHandler. notifier may be nil.
func NewAuditHandler(auditService service.AuditService, notifier SubmissionNotifier) *AuditHandler {
	return &AuditHandler{auditService: auditService, notifier: notifier}
}

// submitResponse is the subset of the record echoed back on creation.
type submitResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

// Submit handles POST /api/audit.
func (h *AuditHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req validation.Submission
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	input, errs := validation.ValidateSubmission(req)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Errors: errs})
		return
	}

	rec, store, err := h.auditService.Submit(r.Context(), input)
	if err != nil {
		slog.Error("audit request submit failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	msg := msgSubmitted
	if store == model.StoreFallback {
		msg = msgSubmittedFallback
	}
	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: msg,
		Data: submitResponse{
			ID:      rec.ID,
			Name:    rec.Name,
			Email:   rec.Email,
			Company: rec.Company,
		},
	})

	if h.notifier != nil {
		h.notifier.NotifySubmission(*rec)
	}
}

// List handles GET /api/audit. With ?id= it behaves like Get.
// Supports query params: page, limit.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("id") != "" {
		h.Get(w, r)
		return
	}

	page := queryInt(r, "page")
	limit := queryInt(r, "limit")

	result, err := h.auditService.List(r.Context(), page, limit)
	if err != nil {
		slog.Error("audit request list failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		Data:       result.Records,
		Pagination: &result.Pagination,
	})
}

// Get handles GET /api/audit/{id} and GET /api/audit?id=.
func (h *AuditHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	rec, err := h.auditService.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "get", id, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: rec})
}

// Update handles PATCH /api/audit/{id}. Only supplied fields change.
func (h *AuditHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	var req validation.Patch
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	patch, errs := validation.ValidatePatch(req)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Errors: errs})
		return
	}

	rec, err := h.auditService.Update(r.Context(), id, patch)
	if err != nil {
		h.writeServiceError(w, "update", id, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgUpdated, Data: rec})
}

// Delete handles DELETE /api/audit/{id} and returns the removed record.
func (h *AuditHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	rec, err := h.auditService.Delete(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "delete", id, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgDeleted, Data: rec})
}

// MethodNotAllowed answers verbs the audit routes do not support.
func (h *AuditHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, msgRouteNotFound)
}

func (h *AuditHandler) writeServiceError(w http.ResponseWriter, op, id string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	slog.Error("audit request "+op+" failed", "id", id, "error", err)
	writeError(w, http.StatusInternalServerError, msgInternal)
}

// queryInt parses a numeric query parameter. Absent, malformed and
// out-of-range values read as 0, which the service replaces by its default.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

// decodeBody decodes exactly one JSON value from the request body.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// requireID reads the id from the path, falling back to ?id=.
func requireID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, msgIDRequired)
		return "", false
	}
	return id, true
}
