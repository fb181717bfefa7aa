package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/domain/shared"
	"github.com/google/uuid"
)

// MemoryImportJobRepository keeps import jobs in process memory. Jobs are
// copied on the way in and out so callers never share state.
type MemoryImportJobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]bulk.ImportJob
}

// NewMemoryImportJobRepository creates an empty repository
func NewMemoryImportJobRepository() *MemoryImportJobRepository {
	return &MemoryImportJobRepository{jobs: make(map[uuid.UUID]bulk.ImportJob)}
}

var _ bulk.ImportJobRepository = (*MemoryImportJobRepository)(nil)

// FindByID finds a job by ID
func (r *MemoryImportJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.ImportJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	job, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &job, nil
}

// FindAll returns all jobs, newest first
func (r *MemoryImportJobRepository) FindAll(ctx context.Context) ([]*bulk.ImportJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]*bulk.ImportJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		j := job
		out = append(out, &j)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID.String() < out[k].ID.String()
		}
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return out, nil
}

// Save saves a job (create or update)
func (r *MemoryImportJobRepository) Save(ctx context.Context, job *bulk.ImportJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job == nil {
		return shared.ErrInvalidInput
	}
	r.mu.Lock()
	r.jobs[job.ID] = *job
	r.mu.Unlock()
	return nil
}
