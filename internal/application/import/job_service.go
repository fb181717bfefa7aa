package importapp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrShuttingDown is returned when a job is submitted after Shutdown
var ErrShuttingDown = errors.New("import job service is shutting down")

// Runner performs the work of an import job
type Runner interface {
	Run(ctx context.Context, job *bulk.ImportJob) error
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, job *bulk.ImportJob) error

// Run implements Runner
func (f RunnerFunc) Run(ctx context.Context, job *bulk.ImportJob) error {
	return f(ctx, job)
}

// DelayRunner pretends to import by waiting for Duration
type DelayRunner struct {
	Duration time.Duration
}

// Run implements Runner
func (r DelayRunner) Run(ctx context.Context, _ *bulk.ImportJob) error {
	if r.Duration <= 0 {
		return nil
	}
	timer := time.NewTimer(r.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// JobService creates import jobs and runs them in the background
type JobService struct {
	repo   bulk.ImportJobRepository
	runner Runner
	log    *zap.Logger

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
	closed  bool
}

// NewJobService creates a new JobService
func NewJobService(repo bulk.ImportJobRepository, runner Runner, log *zap.Logger) *JobService {
	ctx, stop := context.WithCancel(context.Background())
	return &JobService{
		repo:    repo,
		runner:  runner,
		log:     logger.OrNop(log).Named("import_jobs"),
		baseCtx: ctx,
		stop:    stop,
		cancels: make(map[uuid.UUID]context.CancelFunc),
	}
}

// Submit records a job for a previewed file and starts it. The job keeps
// running after ctx ends.
func (s *JobService) Submit(
	ctx context.Context,
	moduleType bulk.ModuleType,
	filePath, originalFilename string,
	totalRows int,
) (*bulk.ImportJob, error) {
	job, err := bulk.NewImportJob(moduleType, filePath, originalFilename)
	if err != nil {
		return nil, err
	}
	if err := job.Start(totalRows); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrShuttingDown
	}
	if err := s.repo.Save(ctx, job); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to save import job: %w", err)
	}
	runCtx, cancel := context.WithCancel(s.baseCtx)
	s.cancels[job.ID] = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	snapshot := *job
	go s.run(runCtx, &snapshot)

	logger.WithLogger(ctx, s.log).Info("Import job started",
		zap.String("job_id", job.ID.String()),
		zap.String("module_type", string(moduleType)),
		zap.Int("total_rows", totalRows),
	)
	return job, nil
}

func (s *JobService) run(ctx context.Context, job *bulk.ImportJob) {
	defer s.wg.Done()
	defer s.forget(job.ID)

	log := s.log.With(zap.String("job_id", job.ID.String()))
	err := s.runner.Run(ctx, job)

	switch {
	case err == nil:
		_ = job.Complete()
		log.Info("Import job completed", zap.Duration("duration", job.Duration()))
	case errors.Is(err, context.Canceled):
		_ = job.Cancel()
		log.Warn("Import job cancelled")
	default:
		_ = job.Fail(err.Error())
		log.Error("Import job failed", zap.Error(err))
	}

	if err := s.repo.Save(context.Background(), job); err != nil {
		log.Error("Failed to save import job", zap.Error(err))
	}
}

func (s *JobService) forget(id uuid.UUID) {
	s.mu.Lock()
	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}
	s.mu.Unlock()
}

// GetJob retrieves a job by ID
func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*bulk.ImportJob, error) {
	return s.repo.FindByID(ctx, id)
}

// ListJobs returns every job, newest first
func (s *JobService) ListJobs(ctx context.Context) ([]*bulk.ImportJob, error) {
	return s.repo.FindAll(ctx)
}

// CancelJob stops a running job. The job is marked cancelled once its runner
// returns.
func (s *JobService) CancelJob(ctx context.Context, id uuid.UUID) error {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !job.IsRunning() {
		return bulk.ErrJobNotRunning
	}

	s.mu.Lock()
	cancel, ok := s.cancels[id]
	s.mu.Unlock()
	if !ok {
		return bulk.ErrJobNotRunning
	}
	cancel()
	return nil
}

// Running returns the number of jobs still in flight
func (s *JobService) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cancels)
}

// Wait blocks until every running job has finished
func (s *JobService) Wait() {
	s.wg.Wait()
}

// Shutdown refuses new jobs, cancels running ones and waits for them until
// ctx is done
func (s *JobService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
