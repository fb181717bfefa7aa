package importapp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/domain/shared"
	"github.com/erp/importer/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockImportJobRepository is a mock implementation of ImportJobRepository
type MockImportJobRepository struct {
	mock.Mock
}

func (m *MockImportJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.ImportJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bulk.ImportJob), args.Error(1)
}

func (m *MockImportJobRepository) FindAll(ctx context.Context) ([]*bulk.ImportJob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bulk.ImportJob), args.Error(1)
}

func (m *MockImportJobRepository) Save(ctx context.Context, job *bulk.ImportJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// blockingRunner holds every job until released
type blockingRunner struct {
	started chan uuid.UUID
	release chan error
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{started: make(chan uuid.UUID, 8), release: make(chan error, 8)}
}

func (r *blockingRunner) Run(ctx context.Context, job *bulk.ImportJob) error {
	r.started <- job.ID
	select {
	case err := <-r.release:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func waitStarted(t *testing.T, r *blockingRunner) uuid.UUID {
	t.Helper()
	select {
	case id := <-r.started:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("runner was not started")
		return uuid.Nil
	}
}

func TestJobService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("job is saved as processing and completes in the background", func(t *testing.T) {
		repo := persistence.NewMemoryImportJobRepository()
		runner := newBlockingRunner()
		service := NewJobService(repo, runner, zap.NewNop())

		job, err := service.Submit(ctx, bulk.ModuleContracts, "uploads/abc.csv", "contratos.csv", 12)
		require.NoError(t, err)
		assert.Equal(t, bulk.ImportStatusProcessing, job.Status)
		assert.Equal(t, 12, job.TotalRows)

		assert.Equal(t, job.ID, waitStarted(t, runner))
		assert.Equal(t, 1, service.Running())

		stored, err := service.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsRunning())

		runner.release <- nil
		service.Wait()

		stored, err = service.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, bulk.ImportStatusCompleted, stored.Status)
		assert.Equal(t, 12, stored.ProcessedRows)
		assert.Equal(t, 0, service.Running())
	})

	t.Run("runner error fails the job", func(t *testing.T) {
		repo := persistence.NewMemoryImportJobRepository()
		service := NewJobService(repo, RunnerFunc(func(context.Context, *bulk.ImportJob) error {
			return errors.New("disk full")
		}), zap.NewNop())

		job, err := service.Submit(ctx, bulk.ModuleCustomers, "uploads/x.csv", "clientes.csv", 3)
		require.NoError(t, err)
		service.Wait()

		stored, err := service.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, bulk.ImportStatusError, stored.Status)
		assert.Equal(t, "disk full", stored.ErrorMessage)
	})

	t.Run("invalid module type", func(t *testing.T) {
		repo := new(MockImportJobRepository)
		service := NewJobService(repo, DelayRunner{}, zap.NewNop())

		_, err := service.Submit(ctx, bulk.ModuleType("fornecedores"), "uploads/x.csv", "x.csv", 1)

		require.Error(t, err)
		repo.AssertNotCalled(t, "Save")
	})

	t.Run("empty file path", func(t *testing.T) {
		repo := new(MockImportJobRepository)
		service := NewJobService(repo, DelayRunner{}, zap.NewNop())

		_, err := service.Submit(ctx, bulk.ModuleCustomers, "", "x.csv", 1)

		require.Error(t, err)
		repo.AssertNotCalled(t, "Save")
	})

	t.Run("save failure is reported and nothing runs", func(t *testing.T) {
		repo := new(MockImportJobRepository)
		repo.On("Save", ctx, mock.AnythingOfType("*bulk.ImportJob")).Return(errors.New("db down"))
		runner := newBlockingRunner()
		service := NewJobService(repo, runner, zap.NewNop())

		_, err := service.Submit(ctx, bulk.ModuleCustomers, "uploads/x.csv", "x.csv", 1)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
		assert.Equal(t, 0, service.Running())
		assert.Empty(t, runner.started)
		repo.AssertExpectations(t)
	})

	t.Run("request context ending does not stop the job", func(t *testing.T) {
		repo := persistence.NewMemoryImportJobRepository()
		runner := newBlockingRunner()
		service := NewJobService(repo, runner, zap.NewNop())

		reqCtx, cancel := context.WithCancel(context.Background())
		job, err := service.Submit(reqCtx, bulk.ModuleCustomers, "uploads/x.csv", "x.csv", 1)
		require.NoError(t, err)
		cancel()

		waitStarted(t, runner)
		runner.release <- nil
		service.Wait()

		stored, err := service.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, bulk.ImportStatusCompleted, stored.Status)
	})
}

func TestJobService_CancelJob(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewMemoryImportJobRepository()
	runner := newBlockingRunner()
	service := NewJobService(repo, runner, zap.NewNop())

	job, err := service.Submit(ctx, bulk.ModuleCustomers, "uploads/x.csv", "x.csv", 1)
	require.NoError(t, err)
	waitStarted(t, runner)

	require.NoError(t, service.CancelJob(ctx, job.ID))
	service.Wait()

	stored, err := service.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, bulk.ImportStatusCancelled, stored.Status)

	assert.ErrorIs(t, service.CancelJob(ctx, job.ID), bulk.ErrJobNotRunning)
	assert.ErrorIs(t, service.CancelJob(ctx, uuid.New()), shared.ErrNotFound)
}

func TestJobService_ListJobs(t *testing.T) {
	ctx := context.Background()
	repo := new(MockImportJobRepository)
	jobs := []*bulk.ImportJob{{ID: uuid.New()}, {ID: uuid.New()}}
	repo.On("FindAll", ctx).Return(jobs, nil)
	service := NewJobService(repo, DelayRunner{}, zap.NewNop())

	got, err := service.ListJobs(ctx)

	require.NoError(t, err)
	assert.Equal(t, jobs, got)
	repo.AssertExpectations(t)
}

func TestJobService_Shutdown(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewMemoryImportJobRepository()
	runner := newBlockingRunner()
	service := NewJobService(repo, runner, zap.NewNop())

	job, err := service.Submit(ctx, bulk.ModuleContracts, "uploads/y.csv", "y.csv", 2)
	require.NoError(t, err)
	waitStarted(t, runner)

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, service.Shutdown(shutdownCtx))

	stored, err := service.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, bulk.ImportStatusCancelled, stored.Status)

	_, err = service.Submit(ctx, bulk.ModuleContracts, "uploads/z.csv", "z.csv", 1)
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestDelayRunner(t *testing.T) {
	job := &bulk.ImportJob{}

	assert.NoError(t, DelayRunner{}.Run(context.Background(), job))
	assert.NoError(t, DelayRunner{Duration: time.Millisecond}.Run(context.Background(), job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, DelayRunner{Duration: time.Hour}.Run(ctx, job), context.Canceled)
}
