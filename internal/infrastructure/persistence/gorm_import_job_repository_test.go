package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormImportJobRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormImportJobRepository(openSQLite(t).DB)
	job := newJob(t, time.Now().UTC())

	require.NoError(t, repo.Save(ctx, job))

	found, err := repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, found.ID)
	assert.Equal(t, bulk.ModuleCustomers, found.ModuleType)
	assert.Equal(t, job.FilePath, found.FilePath)
	assert.Equal(t, "clientes.csv", found.OriginalFilename)
	assert.Equal(t, bulk.ImportStatusPending, found.Status)
	assert.WithinDuration(t, job.CreatedAt, found.CreatedAt, time.Millisecond)
	assert.Nil(t, found.StartedAt)

	t.Run("save updates in place", func(t *testing.T) {
		require.NoError(t, job.Start(40))
		require.NoError(t, job.Complete())
		require.NoError(t, repo.Save(ctx, job))

		updated, err := repo.FindByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, bulk.ImportStatusCompleted, updated.Status)
		assert.Equal(t, 40, updated.ProcessedRows)
		require.NotNil(t, updated.CompletedAt)
		assert.Equal(t, 100, updated.Progress())

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestGormImportJobRepository_NotFound(t *testing.T) {
	repo := NewGormImportJobRepository(openSQLite(t).DB)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormImportJobRepository_SaveNil(t *testing.T) {
	repo := NewGormImportJobRepository(openSQLite(t).DB)

	assert.ErrorIs(t, repo.Save(context.Background(), nil), shared.ErrInvalidInput)
}

func TestGormImportJobRepository_FindAllNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewGormImportJobRepository(openSQLite(t).DB)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	oldest := newJob(t, base)
	middle := newJob(t, base.Add(time.Minute))
	newest := newJob(t, base.Add(2*time.Minute))
	for _, j := range []*bulk.ImportJob{middle, oldest, newest} {
		require.NoError(t, repo.Save(ctx, j))
	}

	jobs, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, newest.ID, jobs[0].ID)
	assert.Equal(t, middle.ID, jobs[1].ID)
	assert.Equal(t, oldest.ID, jobs[2].ID)
}
