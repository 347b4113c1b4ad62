package service

import (
	"context"

	"github.com/parallax/audit-backend/internal/model"
)

// Page parameters for listings. Larger limits are clamped to MaxLimit.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// AuditService defines the audit-request operations. Each one prefers the
// primary store and transparently falls back to the local file store.
type AuditService interface {
	// Submit persists a validated submission and reports which store took it.
	Submit(ctx context.Context, req model.NewAuditRequest) (*model.AuditRequest, model.Store, error)

	// List returns one page of records, most recent first. page<1 and
	// limit<1 are replaced by the defaults, limit is capped at MaxLimit and
	// a page past the end is empty.
	List(ctx context.Context, page, limit int) (*model.AuditRequestPage, error)

	// Get returns repository.ErrNotFound when neither store has the id.
	Get(ctx context.Context, id string) (*model.AuditRequest, error)

	// Update returns the merged record, or repository.ErrNotFound.
	Update(ctx context.Context, id string, patch model.AuditRequestPatch) (*model.AuditRequest, error)

	// Delete returns the removed record, or repository.ErrNotFound.
	Delete(ctx context.Context, id string) (*model.AuditRequest, error)

	// PrimaryHealthy reports whether the primary store currently answers.
	PrimaryHealthy(ctx context.Context) bool
}
