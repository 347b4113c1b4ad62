package repository

import (
	"context"
	"fmt"

	"github.com/parallax/audit-backend/internal/model"
)

// AuditRequestRepository is the persistence contract shared by the primary
// database and the local file fallback.
type AuditRequestRepository interface {
	// Create stores req and fills in ID and timestamps.
	Create(ctx context.Context, req *model.AuditRequest) error
	// List returns records ordered by CreatedAt descending.
	List(ctx context.Context, limit, offset int) ([]*model.AuditRequest, error)
	Count(ctx context.Context) (int, error)
	// GetByID returns ErrNotFound when no record has the id.
	GetByID(ctx context.Context, id string) (*model.AuditRequest, error)
	// Update merges patch into the record, refreshes UpdatedAt and returns the new value.
	Update(ctx context.Context, id string, patch model.AuditRequestPatch) (*model.AuditRequest, error)
	// Delete removes the record and returns it.
	Delete(ctx context.Context, id string) (*model.AuditRequest, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// UnavailableAuditRequestRepository stands in for a primary store that is
// not configured or failed to connect at startup. Every call fails with
// ErrUnavailable so callers fall back.
type UnavailableAuditRequestRepository struct {
	cause error
}

// NewUnavailableAuditRequestRepository returns a repository that always fails.
// cause may be nil when the store was simply not configured.
func NewUnavailableAuditRequestRepository(cause error) *UnavailableAuditRequestRepository {
	return &UnavailableAuditRequestRepository{cause: cause}
}

var _ AuditRequestRepository = (*UnavailableAuditRequestRepository)(nil)

func (r *UnavailableAuditRequestRepository) err() error {
	if r.cause == nil {
		return fmt.Errorf("%w: not configured", ErrUnavailable)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, r.cause)
}

func (r *UnavailableAuditRequestRepository) Create(context.Context, *model.AuditRequest) error {
	return r.err()
}

func (r *UnavailableAuditRequestRepository) List(context.Context, int, int) ([]*model.AuditRequest, error) {
	return nil, r.err()
}

func (r *UnavailableAuditRequestRepository) Count(context.Context) (int, error) {
	return 0, r.err()
}

func (r *UnavailableAuditRequestRepository) GetByID(context.Context, string) (*model.AuditRequest, error) {
	return nil, r.err()
}

func (r *UnavailableAuditRequestRepository) Update(context.Context, string, model.AuditRequestPatch) (*model.AuditRequest, error) {
	return nil, r.err()
}

func (r *UnavailableAuditRequestRepository) Delete(context.Context, string) (*model.AuditRequest, error) {
	return nil, r.err()
}

func (r *UnavailableAuditRequestRepository) Ping(context.Context) error {
	return r.err()
}
