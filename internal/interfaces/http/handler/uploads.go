package handler

import (
	"sync"
	"time"

	"github.com/erp/importer/internal/domain/bulk"
)

// Upload is a previewed spreadsheet waiting for confirmation
type Upload struct {
	Handle       string
	ModuleType   bulk.ModuleType
	OriginalName string
	TotalRows    int
	UploadedAt   time.Time
}

// UploadRegistry remembers previewed uploads by handle
type UploadRegistry struct {
	mu      sync.RWMutex
	uploads map[string]Upload
}

// NewUploadRegistry creates an empty registry
func NewUploadRegistry() *UploadRegistry {
	return &UploadRegistry{uploads: make(map[string]Upload)}
}

// Put records u
func (r *UploadRegistry) Put(u Upload) {
	r.mu.Lock()
	r.uploads[u.Handle] = u
	r.mu.Unlock()
}

// Get looks up an upload by handle
func (r *UploadRegistry) Get(handle string) (Upload, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.uploads[handle]
	return u, ok
}

// Len returns the number of recorded uploads
func (r *UploadRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.uploads)
}
