package bulk

import (
	"fmt"
	"time"

	"github.com/erp/importer/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrJobNotRunning is returned when acting on a job that already finished
var ErrJobNotRunning = shared.NewDomainError("JOB_NOT_RUNNING", "Import job is not running")

// ImportStatus represents the status of an import job
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusError      ImportStatus = "error"
	ImportStatusCancelled  ImportStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusPending, ImportStatusProcessing, ImportStatusCompleted,
		ImportStatusError, ImportStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusError || s == ImportStatusCancelled
}

// Label returns the display label for the status
func (s ImportStatus) Label() string {
	switch s {
	case ImportStatusPending:
		return "Pendente"
	case ImportStatusProcessing:
		return "Processando"
	case ImportStatusCompleted:
		return "Concluído"
	case ImportStatusError:
		return "Erro"
	case ImportStatusCancelled:
		return "Cancelado"
	}
	return string(s)
}

// ImportJob is the backend's long-running import task for one uploaded file.
// The client only ever sees it through the history pages.
type ImportJob struct {
	ID               uuid.UUID    `json:"id"`
	ModuleType       ModuleType   `json:"module_type"`
	FilePath         string       `json:"file_path"`
	OriginalFilename string       `json:"original_filename"`
	Status           ImportStatus `json:"status"`
	TotalRows        int          `json:"total_rows"`
	ProcessedRows    int          `json:"processed_rows"`
	ErrorMessage     string       `json:"error_message,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	StartedAt        *time.Time   `json:"started_at,omitempty"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
}

// NewImportJob creates a pending job for a previewed file
func NewImportJob(moduleType ModuleType, filePath, originalFilename string) (*ImportJob, error) {
	if !moduleType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MODULE_TYPE", fmt.Sprintf("Invalid module type: %s", moduleType))
	}
	if filePath == "" {
		return nil, shared.NewDomainError("INVALID_FILE_PATH", "File path cannot be empty")
	}

	return &ImportJob{
		ID:               uuid.New(),
		ModuleType:       moduleType,
		FilePath:         filePath,
		OriginalFilename: originalFilename,
		Status:           ImportStatusPending,
		CreatedAt:        time.Now(),
	}, nil
}

// Start marks the job as processing
func (j *ImportJob) Start(totalRows int) error {
	if j.Status != ImportStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start processing from state: %s", j.Status))
	}
	if totalRows < 0 {
		return shared.NewDomainError("INVALID_TOTAL_ROWS", "Total rows cannot be negative")
	}

	j.Status = ImportStatusProcessing
	j.TotalRows = totalRows
	now := time.Now()
	j.StartedAt = &now
	return nil
}

// Complete marks the job as finished with every row processed
func (j *ImportJob) Complete() error {
	if j.Status != ImportStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete from state: %s", j.Status))
	}

	j.Status = ImportStatusCompleted
	j.ProcessedRows = j.TotalRows
	now := time.Now()
	j.CompletedAt = &now
	return nil
}

// Fail marks the job as failed
func (j *ImportJob) Fail(message string) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail from terminal state: %s", j.Status))
	}

	j.Status = ImportStatusError
	j.ErrorMessage = message
	now := time.Now()
	j.CompletedAt = &now
	return nil
}

// Cancel marks the job as cancelled
func (j *ImportJob) Cancel() error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel from terminal state: %s", j.Status))
	}

	j.Status = ImportStatusCancelled
	now := time.Now()
	j.CompletedAt = &now
	return nil
}

// Progress returns processed rows as a percentage (0-100)
func (j *ImportJob) Progress() int {
	if j.TotalRows == 0 {
		if j.Status == ImportStatusCompleted {
			return 100
		}
		return 0
	}
	return j.ProcessedRows * 100 / j.TotalRows
}

// IsRunning reports whether the job has not reached a terminal state
func (j *ImportJob) IsRunning() bool {
	return !j.Status.IsTerminal()
}

// Duration returns how long the job has been (or was) processing
func (j *ImportJob) Duration() time.Duration {
	if j.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	return end.Sub(*j.StartedAt)
}
