package models

import (
	"time"

	"github.com/erp/importer/internal/domain/bulk"
	"github.com/google/uuid"
)

// ImportJobModel is the persistence model for bulk.ImportJob. Identifiers are
// stored as text so the same table works on sqlite and postgres.
type ImportJobModel struct {
	ID               string     `gorm:"type:varchar(36);primaryKey"`
	ModuleType       string     `gorm:"type:varchar(20);not null;index"`
	FilePath         string     `gorm:"type:varchar(512);not null"`
	OriginalFilename string     `gorm:"type:varchar(255);not null;default:''"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalRows        int        `gorm:"not null;default:0"`
	ProcessedRows    int        `gorm:"not null;default:0"`
	ErrorMessage     string     `gorm:"type:text"`
	CreatedAt        time.Time  `gorm:"not null;index"`
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// TableName returns the table name for GORM
func (ImportJobModel) TableName() string {
	return "import_jobs"
}

// ToDomain converts the persistence model to a domain ImportJob
func (m *ImportJobModel) ToDomain() (*bulk.ImportJob, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	return &bulk.ImportJob{
		ID:               id,
		ModuleType:       bulk.ModuleType(m.ModuleType),
		FilePath:         m.FilePath,
		OriginalFilename: m.OriginalFilename,
		Status:           bulk.ImportStatus(m.Status),
		TotalRows:        m.TotalRows,
		ProcessedRows:    m.ProcessedRows,
		ErrorMessage:     m.ErrorMessage,
		CreatedAt:        m.CreatedAt,
		StartedAt:        m.StartedAt,
		CompletedAt:      m.CompletedAt,
	}, nil
}

// ImportJobModelFromDomain creates a persistence model from a domain ImportJob
func ImportJobModelFromDomain(j *bulk.ImportJob) *ImportJobModel {
	return &ImportJobModel{
		ID:               j.ID.String(),
		ModuleType:       string(j.ModuleType),
		FilePath:         j.FilePath,
		OriginalFilename: j.OriginalFilename,
		Status:           string(j.Status),
		TotalRows:        j.TotalRows,
		ProcessedRows:    j.ProcessedRows,
		ErrorMessage:     j.ErrorMessage,
		CreatedAt:        j.CreatedAt,
		StartedAt:        j.StartedAt,
		CompletedAt:      j.CompletedAt,
	}
}
