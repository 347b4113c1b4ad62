package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/parallax/audit-backend/internal/model"
	"github.com/parallax/audit-backend/internal/storage"
)

// FileAuditRequestRepository is the local fallback store: a single JSON array
// of records, most recent first, kept as one storage object.
//
// Every mutation reads the whole array, changes it in memory and writes the
// whole array back. There is no locking, so concurrent writers race and the
// last write wins.
type FileAuditRequestRepository struct {
	store storage.Storage
	key   string
	now   func() time.Time
}

// FileOption configures a FileAuditRequestRepository.
type FileOption func(*FileAuditRequestRepository)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) FileOption {
	return func(r *FileAuditRequestRepository) { r.now = now }
}

// NewFileAuditRequestRepository opens the record list stored under key,
// writing an empty array if nothing is there yet.
func NewFileAuditRequestRepository(ctx context.Context, store storage.Storage, key string, opts ...FileOption) (*FileAuditRequestRepository, error) {
	r := &FileAuditRequestRepository{store: store, key: key, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}

	if _, err := store.Read(ctx, key); err != nil {
		if !errors.Is(err, storage.ErrNotExist) {
			return nil, err
		}
		if err := r.save(ctx, []*model.AuditRequest{}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

var _ AuditRequestRepository = (*FileAuditRequestRepository)(nil)

// Location is where the record list is kept.
func (r *FileAuditRequestRepository) Location() string {
	return r.store.Location(r.key)
}

func (r *FileAuditRequestRepository) load(ctx context.Context) ([]*model.AuditRequest, error) {
	data, err := r.store.Read(ctx, r.key)
	if errors.Is(err, storage.ErrNotExist) {
		return []*model.AuditRequest{}, nil
	}
	if err != nil {
		return nil, err
	}

	var list []*model.AuditRequest
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode fallback records: %w", err)
	}
	return list, nil
}

func (r *FileAuditRequestRepository) save(ctx context.Context, list []*model.AuditRequest) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fallback records: %w", err)
	}
	return r.store.Write(ctx, r.key, data)
}

func indexOf(list []*model.AuditRequest, id string) int {
	for i, rec := range list {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

// Create assigns a millisecond-timestamp id, marks the record pending and
// prepends it to the list.
func (r *FileAuditRequestRepository) Create(ctx context.Context, req *model.AuditRequest) error {
	list, err := r.load(ctx)
	if err != nil {
		return err
	}

	now := r.now().UTC()
	rec := *req
	rec.ID = strconv.FormatInt(now.UnixMilli(), 10)
	rec.Status = model.StatusPending
	rec.CreatedAt = now
	rec.UpdatedAt = now

	list = append([]*model.AuditRequest{&rec}, list...)
	if err := r.save(ctx, list); err != nil {
		return err
	}
	*req = rec
	return nil
}

// List slices the stored order, which is already most recent first.
func (r *FileAuditRequestRepository) List(ctx context.Context, limit, offset int) ([]*model.AuditRequest, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if offset < 0 || limit < 1 || offset >= len(list) {
		return []*model.AuditRequest{}, nil
	}
	end := len(list)
	if limit < len(list)-offset {
		end = offset + limit
	}
	return list[offset:end], nil
}

func (r *FileAuditRequestRepository) Count(ctx context.Context) (int, error) {
	list, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

func (r *FileAuditRequestRepository) GetByID(ctx context.Context, id string) (*model.AuditRequest, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return list[i], nil
}

// Update merges patch over the stored record. UpdatedAt always moves
// strictly forward, even when the clock has not advanced.
func (r *FileAuditRequestRepository) Update(ctx context.Context, id string, patch model.AuditRequestPatch) (*model.AuditRequest, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return nil, ErrNotFound
	}

	rec := list[i]
	patch.Apply(rec)
	now := r.now().UTC()
	if !now.After(rec.UpdatedAt) {
		now = rec.UpdatedAt.Add(time.Millisecond)
	}
	rec.UpdatedAt = now

	if err := r.save(ctx, list); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *FileAuditRequestRepository) Delete(ctx context.Context, id string) (*model.AuditRequest, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return nil, ErrNotFound
	}

	removed := list[i]
	list = append(list[:i], list[i+1:]...)
	if err := r.save(ctx, list); err != nil {
		return nil, err
	}
	return removed, nil
}

// Ping checks that the record list can be read.
func (r *FileAuditRequestRepository) Ping(ctx context.Context) error {
	_, err := r.load(ctx)
	return err
}
