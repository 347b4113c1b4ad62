package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/parallax/audit-backend/internal/service"
)

const healthCheckTimeout = 2 * time.Second

type healthResponse struct {
	Status   string `json:"status"`
	Primary  string `json:"primary"`
	Fallback string `json:"fallback"`
}

// HealthHandler reports store availability. The service keeps working on the
// fallback alone, so a missing primary is "degraded", not unhealthy.
type HealthHandler struct {
	auditService service.AuditService
	fallbackPath string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(auditService service.AuditService, fallbackPath string) *HealthHandler {
	return &HealthHandler{auditService: auditService, fallbackPath: fallbackPath}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Primary: "connected", Fallback: h.fallbackPath}
	if !h.auditService.PrimaryHealthy(ctx) {
		resp.Status = "degraded"
		resp.Primary = "unavailable"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
