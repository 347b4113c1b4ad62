//go:build integration

package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/parallax/audit-backend/internal/model"
)

func newPgRepo(t *testing.T) *PgAuditRequestRepository {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("audit"),
		tcpostgres.WithUsername("audit"),
		tcpostgres.WithPassword("audit"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_create_audit_requests.up.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return NewPgAuditRequestRepository(pool)
}

func TestPgAuditRequestRepository_RoundTrip(t *testing.T) {
	repo := newPgRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Ping(ctx))

	created := sampleRequest("Ada")
	created.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, created))
	assert.True(t, validID(created.ID))
	assert.Equal(t, model.StatusPending, created.Status)

	newer := sampleRequest("Grace")
	require.NoError(t, repo.Create(ctx, newer))

	list, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Grace", list[0].Name)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@x.com", got.Email)

	status := model.StatusReviewed
	updated, err := repo.Update(ctx, created.ID, model.AuditRequestPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, model.StatusReviewed, updated.Status)
	assert.Equal(t, "Ada", updated.Name)
	assert.True(t, updated.UpdatedAt.After(got.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(got.CreatedAt))

	removed, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, removed.ID)

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPgAuditRequestRepository_ForeignIDsAreNotFound(t *testing.T) {
	repo := newPgRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "1792056600000")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Update(ctx, "1792056600000", model.AuditRequestPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Delete(ctx, "0b6d1d2e-8f6a-4a4e-9f57-3c1b8f0c2a11")
	assert.ErrorIs(t, err, ErrNotFound)
}
