// Package storage keeps uploaded spreadsheets until their import is confirmed.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/erp/importer/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidHandle is returned for handles this storage never issued
	ErrInvalidHandle = errors.New("invalid file handle")

	// ErrFileNotFound is returned when a handle has no stored file
	ErrFileNotFound = errors.New("stored file not found")

	// ErrFileTooLarge is returned when an upload exceeds the size limit
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
)

// Extensions kept on stored files; anything else is stored as .csv
var allowedExtensions = map[string]bool{".csv": true, ".txt": true}

// StoredFile describes an uploaded file
type StoredFile struct {
	// Handle is the opaque name the client sends back on confirmation
	Handle       string
	OriginalName string
	Size         int64
	StoredAt     time.Time
}

// LocalFileStorage stores uploads as files under one directory, named by a
// random handle
type LocalFileStorage struct {
	dir     string
	maxSize int64
	logger  *zap.Logger
}

// Option is a functional option for configuring LocalFileStorage
type Option func(*LocalFileStorage)

// WithLogger sets a custom logger
func WithLogger(l *zap.Logger) Option {
	return func(s *LocalFileStorage) {
		s.logger = l
	}
}

// WithMaxSize limits stored files to n bytes. Zero means no limit.
func WithMaxSize(n int64) Option {
	return func(s *LocalFileStorage) {
		s.maxSize = n
	}
}

// NewLocalFileStorage creates the directory if needed
func NewLocalFileStorage(dir string, opts ...Option) (*LocalFileStorage, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	s := &LocalFileStorage{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrNop(s.logger)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return s, nil
}

// Dir returns the storage directory
func (s *LocalFileStorage) Dir() string {
	return s.dir
}

// Save writes r under a new handle
func (s *LocalFileStorage) Save(ctx context.Context, originalName string, r io.Reader) (*StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		ext = ".csv"
	}
	handle := uuid.NewString() + ext

	f, err := os.OpenFile(filepath.Join(s.dir, handle), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to create stored file: %w", err)
	}

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(f, src)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && s.maxSize > 0 && n > s.maxSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, handle))
		if errors.Is(err, ErrFileTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	s.logger.Debug("Stored upload",
		zap.String("handle", handle),
		zap.String("original_name", originalName),
		zap.Int64("size", n),
	)
	return &StoredFile{
		Handle:       handle,
		OriginalName: filepath.Base(originalName),
		Size:         n,
		StoredAt:     time.Now(),
	}, nil
}

// path maps a handle to its file, rejecting anything Save could not have
// produced
func (s *LocalFileStorage) path(handle string) (string, error) {
	ext := filepath.Ext(handle)
	if !allowedExtensions[ext] {
		return "", ErrInvalidHandle
	}
	if _, err := uuid.Parse(strings.TrimSuffix(handle, ext)); err != nil {
		return "", ErrInvalidHandle
	}
	return filepath.Join(s.dir, handle), nil
}

// Open returns the stored file for reading
func (s *LocalFileStorage) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(handle)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	return f, nil
}

// Exists reports whether handle names a stored file
func (s *LocalFileStorage) Exists(ctx context.Context, handle string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := s.path(handle)
	if err != nil {
		return false, nil
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes a stored file. Deleting a missing file is not an error.
func (s *LocalFileStorage) Delete(ctx context.Context, handle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete stored file: %w", err)
	}
	return nil
}
