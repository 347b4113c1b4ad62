package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parallax/audit-backend/internal/model"
)

// PgAuditRequestRepository is the PostgreSQL implementation of AuditRequestRepository.
type PgAuditRequestRepository struct {
	pool *pgxpool.Pool
}

// NewPgAuditRequestRepository creates a PgAuditRequestRepository backed by the given pool.
func NewPgAuditRequestRepository(pool *pgxpool.Pool) *PgAuditRequestRepository {
	return &PgAuditRequestRepository{pool: pool}
}

var _ AuditRequestRepository = (*PgAuditRequestRepository)(nil)

const auditRequestCols = `id::text, name, email, company, website, message, status, created_at, updated_at`

func scanAuditRequest(scan func(...any) error) (*model.AuditRequest, error) {
	r := &model.AuditRequest{}
	var status string
	if err := scan(
		&r.ID, &r.Name, &r.Email, &r.Company, &r.Website, &r.Message,
		&status, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	r.Status = model.Status(status)
	return r, nil
}

// notFound maps a missing row to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// validID reports whether id can exist in the UUID primary key column.
// Identifiers minted by the file fallback never can.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Create inserts a row and populates req.ID and timestamps from RETURNING.
func (r *PgAuditRequestRepository) Create(ctx context.Context, req *model.AuditRequest) error {
	status := req.Status
	if status == "" {
		status = model.StatusPending
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO audit_requests (name, email, company, website, message, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()), COALESCE($7, NOW()))
		 RETURNING id::text, status, created_at, updated_at`,
		req.Name, req.Email, req.Company, req.Website, req.Message, string(status), createdAtArg(req),
	).Scan(&req.ID, (*string)(&req.Status), &req.CreatedAt, &req.UpdatedAt)
}

// createdAtArg lets the database default the timestamps when the caller did not set them.
func createdAtArg(req *model.AuditRequest) any {
	if req.CreatedAt.IsZero() {
		return nil
	}
	return req.CreatedAt
}

// List returns a page of rows, most recent first.
func (r *PgAuditRequestRepository) List(ctx context.Context, limit, offset int) ([]*model.AuditRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditRequestCols+`
		 FROM audit_requests
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.AuditRequest
	for rows.Next() {
		rec, err := scanAuditRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func (r *PgAuditRequestRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_requests`).Scan(&n)
	return n, err
}

func (r *PgAuditRequestRepository) GetByID(ctx context.Context, id string) (*model.AuditRequest, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.pool.QueryRow(ctx,
		`SELECT `+auditRequestCols+` FROM audit_requests WHERE id = $1`, id)
	rec, err := scanAuditRequest(row.Scan)
	if err != nil {
		return nil, notFound(err)
	}
	return rec, nil
}

// Update applies the supplied fields and refreshes updated_at, which never
// moves backwards past created_at.
func (r *PgAuditRequestRepository) Update(ctx context.Context, id string, patch model.AuditRequestPatch) (*model.AuditRequest, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	setClauses := []string{}
	args := []any{}
	argIdx := 1

	add := func(col string, v any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, v)
		argIdx++
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Company != nil {
		add("company", *patch.Company)
	}
	if patch.Website != nil {
		add("website", *patch.Website)
	}
	if patch.Message != nil {
		add("message", *patch.Message)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}

	setClauses = append(setClauses, "updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE audit_requests SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, auditRequestCols)

	rec, err := scanAuditRequest(r.pool.QueryRow(ctx, query, args...).Scan)
	if err != nil {
		return nil, notFound(err)
	}
	return rec, nil
}

func (r *PgAuditRequestRepository) Delete(ctx context.Context, id string) (*model.AuditRequest, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.pool.QueryRow(ctx,
		`DELETE FROM audit_requests WHERE id = $1 RETURNING `+auditRequestCols, id)
	rec, err := scanAuditRequest(row.Scan)
	if err != nil {
		return nil, notFound(err)
	}
	return rec, nil
}

func (r *PgAuditRequestRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
