package persistence

import (
	"context"
	"errors"

	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/domain/shared"
	"github.com/erp/importer/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormImportJobRepository implements bulk.ImportJobRepository using GORM
type GormImportJobRepository struct {
	db *gorm.DB
}

// NewGormImportJobRepository creates a new GormImportJobRepository
func NewGormImportJobRepository(db *gorm.DB) *GormImportJobRepository {
	return &GormImportJobRepository{db: db}
}

var _ bulk.ImportJobRepository = (*GormImportJobRepository)(nil)

// FindByID finds a job by ID
func (r *GormImportJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.ImportJob, error) {
	var model models.ImportJobModel
	if err := r.db.WithContext(ctx).
		Where("id = ?", id.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAll returns all jobs, newest first
func (r *GormImportJobRepository) FindAll(ctx context.Context) ([]*bulk.ImportJob, error) {
	var rows []models.ImportJobModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	jobs := make([]*bulk.ImportJob, 0, len(rows))
	for i := range rows {
		job, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Save saves a job (create or update)
func (r *GormImportJobRepository) Save(ctx context.Context, job *bulk.ImportJob) error {
	if job == nil {
		return shared.ErrInvalidInput
	}
	return r.db.WithContext(ctx).Save(models.ImportJobModelFromDomain(job)).Error
}
