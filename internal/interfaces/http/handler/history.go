package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	importapp "github.com/erp/importer/internal/application/import"
	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/domain/shared"
	"github.com/erp/importer/internal/infrastructure/format"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HistoryHandler serves the import history pages. Running jobs carry the
// status-processing and progress-bar-animated classes.
type HistoryHandler struct {
	BaseHandler
	jobs        *importapp.JobService
	formatter   *format.Formatter
	pages       *Pages
	historyPath string
}

// NewHistoryHandler creates a new HistoryHandler. historyPath is the list
// page; detail pages live under it.
func NewHistoryHandler(jobs *importapp.JobService, f *format.Formatter, pages *Pages, historyPath string) *HistoryHandler {
	if !strings.HasSuffix(historyPath, "/") {
		historyPath += "/"
	}
	return &HistoryHandler{
		jobs:        jobs,
		formatter:   f,
		pages:       pages,
		historyPath: historyPath,
	}
}

type jobView struct {
	ID          string
	Module      bulk.ModuleType
	File        string
	TotalRows   int
	Status      string
	StatusClass string
	Running     bool
	Progress    int
	Created     string
	Finished    string
	Error       string
	URL         string
	CancelURL   string
}

type historyPage struct {
	Title string
	Jobs  []jobView
}

func (p historyPage) pageTitle() string { return p.Title }

type detailPage struct {
	Title string
	Job   jobView
}

func (p detailPage) pageTitle() string { return p.Title }

func statusClass(s bulk.ImportStatus) string {
	switch s {
	case bulk.ImportStatusCompleted:
		return "bg-success"
	case bulk.ImportStatusError:
		return "bg-danger"
	case bulk.ImportStatusCancelled:
		return "bg-secondary"
	}
	return "bg-info"
}

func (h *HistoryHandler) view(job *bulk.ImportJob) jobView {
	url := h.historyPath + job.ID.String() + "/"
	v := jobView{
		ID:          job.ID.String(),
		Module:      job.ModuleType,
		File:        job.OriginalFilename,
		TotalRows:   job.TotalRows,
		Status:      job.Status.Label(),
		StatusClass: statusClass(job.Status),
		Running:     job.IsRunning(),
		Progress:    job.Progress(),
		Created:     h.formatter.DateTime(job.CreatedAt.Format(time.RFC3339Nano)),
		Finished:    format.Placeholder,
		Error:       job.ErrorMessage,
		URL:         url,
		CancelURL:   url + "cancelar/",
	}
	if v.File == "" {
		v.File = job.FilePath
	}
	if job.CompletedAt != nil {
		v.Finished = h.formatter.DateTime(job.CompletedAt.Format(time.RFC3339Nano))
	}
	return v
}

// List renders every job, newest first
func (h *HistoryHandler) List(c *gin.Context) {
	jobs, err := h.jobs.ListJobs(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := historyPage{Title: "Histórico de importações", Jobs: make([]jobView, 0, len(jobs))}
	for _, job := range jobs {
		page.Jobs = append(page.Jobs, h.view(job))
	}
	h.pages.Render(c, http.StatusOK, "history", page)
}

// Detail renders one job
func (h *HistoryHandler) Detail(c *gin.Context) {
	job, ok := h.find(c)
	if !ok {
		return
	}
	h.pages.Render(c, http.StatusOK, "detail", detailPage{
		Title: "Importação " + job.ID.String()[:8],
		Job:   h.view(job),
	})
}

// Cancel stops a running job and returns to its page
func (h *HistoryHandler) Cancel(c *gin.Context) {
	job, ok := h.find(c)
	if !ok {
		return
	}
	err := h.jobs.CancelJob(c.Request.Context(), job.ID)
	if err != nil && !errors.Is(err, bulk.ErrJobNotRunning) {
		h.HandleError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, h.historyPath+job.ID.String()+"/")
}

func (h *HistoryHandler) find(c *gin.Context) (*bulk.ImportJob, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.pages.NotFound(c, "Importação não encontrada.")
		return nil, false
	}
	job, err := h.jobs.GetJob(c.Request.Context(), id)
	if errors.Is(err, shared.ErrNotFound) {
		h.pages.NotFound(c, "Importação não encontrada.")
		return nil, false
	}
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return job, true
}
