package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/parallax/audit-backend/internal/metrics"
	"github.com/parallax/audit-backend/internal/model"
	"github.com/parallax/audit-backend/internal/repository"
)

// auditServiceImpl is the production implementation of AuditService.
type auditServiceImpl struct {
	primary  repository.AuditRequestRepository
	fallback repository.AuditRequestRepository
	timeout  time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures the audit service.
type Option func(*auditServiceImpl)

// WithPrimaryTimeout bounds every primary store call. Zero means no bound.
func WithPrimaryTimeout(d time.Duration) Option {
	return func(s *auditServiceImpl) { s.timeout = d }
}

// WithMetrics records fallbacks and primary latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *auditServiceImpl) { s.metrics = m }
}

// WithClock overrides the time source for new records.
func WithClock(now func() time.Time) Option {
	return func(s *auditServiceImpl) { s.now = now }
}

// NewAuditService creates an AuditService over a primary and a fallback repository.
func NewAuditService(primary, fallback repository.AuditRequestRepository, opts ...Option) AuditService {
	s := &auditServiceImpl{primary: primary, fallback: fallback, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// withFallback runs op against the primary store and, on any error, against
// the fallback store. A primary "not found" also falls through, since records
// written while the primary was down only exist in the fallback.
func withFallback[T any](ctx context.Context, s *auditServiceImpl, name string, op func(context.Context, repository.AuditRequestRepository) (T, error)) (T, model.Store, error) {
	pctx, cancel := ctx, context.CancelFunc(func() {})
	if s.timeout > 0 {
		pctx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	start := time.Now()
	v, err := op(pctx, s.primary)
	cancel()
	s.metrics.ObservePrimary(name, start)
	if err == nil {
		return v, model.StorePrimary, nil
	}

	if errors.Is(err, repository.ErrNotFound) {
		slog.Debug("record not in primary store, checking local fallback", "operation", name)
	} else {
		slog.Warn("primary store failed, using local fallback", "operation", name, "error", err)
		s.metrics.IncrementFallback(name)
	}

	v, err = op(ctx, s.fallback)
	return v, model.StoreFallback, err
}

func (s *auditServiceImpl) Submit(ctx context.Context, req model.NewAuditRequest) (*model.AuditRequest, model.Store, error) {
	now := s.now().UTC()
	base := model.AuditRequest{
		Name:      req.Name,
		Email:     req.Email,
		Company:   req.Company,
		Website:   req.Website,
		Message:   req.Message,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	rec, store, err := withFallback(ctx, s, "create", func(ctx context.Context, repo repository.AuditRequestRepository) (*model.AuditRequest, error) {
		rec := base
		if err := repo.Create(ctx, &rec); err != nil {
			return nil, err
		}
		return &rec, nil
	})
	if err != nil {
		return nil, "", err
	}
	s.metrics.IncrementSubmitted(store)
	return rec, store, nil
}

func (s *auditServiceImpl) List(ctx context.Context, page, limit int) (*model.AuditRequestPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset, inRange := pageOffset(page, limit)

	result, _, err := withFallback(ctx, s, "list", func(ctx context.Context, repo repository.AuditRequestRepository) (*model.AuditRequestPage, error) {
		var records []*model.AuditRequest
		if inRange {
			var err error
			if records, err = repo.List(ctx, limit, offset); err != nil {
				return nil, err
			}
		}
		total, err := repo.Count(ctx)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []*model.AuditRequest{}
		}
		return &model.AuditRequestPage{
			Records:    records,
			Pagination: model.NewPagination(page, limit, total),
		}, nil
	})
	return result, err
}

// pageOffset returns (page-1)*limit, or false when that does not fit in an
// int. No store can hold that many records, so such a page is always empty.
func pageOffset(page, limit int) (int, bool) {
	if page-1 > math.MaxInt/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}

func (s *auditServiceImpl) Get(ctx context.Context, id string) (*model.AuditRequest, error) {
	rec, _, err := withFallback(ctx, s, "get", func(ctx context.Context, repo repository.AuditRequestRepository) (*model.AuditRequest, error) {
		return repo.GetByID(ctx, id)
	})
	return rec, err
}

func (s *auditServiceImpl) Update(ctx context.Context, id string, patch model.AuditRequestPatch) (*model.AuditRequest, error) {
	rec, _, err := withFallback(ctx, s, "update", func(ctx context.Context, repo repository.AuditRequestRepository) (*model.AuditRequest, error) {
		return repo.Update(ctx, id, patch)
	})
	return rec, err
}

func (s *auditServiceImpl) Delete(ctx context.Context, id string) (*model.AuditRequest, error) {
	rec, _, err := withFallback(ctx, s, "delete", func(ctx context.Context, repo repository.AuditRequestRepository) (*model.AuditRequest, error) {
		return repo.Delete(ctx, id)
	})
	return rec, err
}

func (s *auditServiceImpl) PrimaryHealthy(ctx context.Context) bool {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.primary.Ping(ctx) == nil
}
