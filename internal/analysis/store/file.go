package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/kidooo/analysis-service/internal/analysis/domain"
)

// FileStore persists the job collection as a single JSON array on disk.
// All writes go through one mutex, so concurrent pipeline workers updating
// different jobs never clobber each other. Each write lands in a temp file
// in the same directory and is renamed over the old one, so readers never
// observe a partial write.
type FileStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFileStore creates a file-backed store at path, creating the parent
// directory if needed. A missing file loads as an empty collection.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{path: path, logger: logger}, nil
}

// Load reads the full job collection.
func (s *FileStore) Load(_ context.Context) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns one job by id, or domain.ErrJobNotFound.
func (s *FileStore) Get(_ context.Context, id int) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		if jobs[i].ID == id {
			return &jobs[i], nil
		}
	}
	return nil, domain.ErrJobNotFound
}

// Create assigns the next id and appends the job, durably.
func (s *FileStore) Create(_ context.Context, job *domain.Job) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.load()
	if err != nil {
		return nil, err
	}

	job.ID = NextID(jobs)
	jobs = append(jobs, *job)
	if err := s.save(jobs); err != nil {
		return nil, err
	}
	return job, nil
}

// Update applies mutate to the job with the given id and persists the
// whole collection before returning.
func (s *FileStore) Update(_ context.Context, id int, mutate func(*domain.Job) error) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.load()
	if err != nil {
		return nil, err
	}

	for i := range jobs {
		if jobs[i].ID != id {
			continue
		}
		if err := mutate(&jobs[i]); err != nil {
			return nil, err
		}
		if err := s.save(jobs); err != nil {
			return nil, err
		}
		updated := jobs[i]
		return &updated, nil
	}
	return nil, domain.ErrJobNotFound
}

func (s *FileStore) load() ([]domain.Job, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Job{}, nil
		}
		return nil, fmt.Errorf("failed to read job store: %w", err)
	}

	var jobs []domain.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse job store: %w", err)
	}
	return jobs, nil
}

func (s *FileStore) save(jobs []domain.Job) error {
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode job store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".jobs-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write job store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync job store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp store file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace job store: %w", err)
	}
	return nil
}
