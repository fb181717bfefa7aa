package bulk

import (
	"context"

	"github.com/google/uuid"
)

// ImportJobRepository defines the interface for import job persistence
type ImportJobRepository interface {
	// FindByID finds a job by ID
	FindByID(ctx context.Context, id uuid.UUID) (*ImportJob, error)

	// FindAll returns all jobs, newest first
	FindAll(ctx context.Context) ([]*ImportJob, error)

	// Save saves a job (create or update)
	Save(ctx context.Context, job *ImportJob) error
}
