// Package screening stores questionnaire results keyed by child id. The
// pipeline consumes them as optional prompt context; their absence is never
// an error.
package screening

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Result is one completed questionnaire for one child. Answers map question
// id to the yes/no response.
type Result struct {
	ChildID     string       `json:"childId"`
	Answers     map[int]bool `json:"answers,omitempty"`
	Score       int          `json:"score"`
	RiskLevel   string       `json:"riskLevel"`
	CompletedAt string       `json:"completedAt,omitempty"`
}

// Store persists screening results as a single JSON object keyed by child
// id, with the same single-writer discipline as the job store.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a screening store at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Get returns the result for a child, or nil when none is stored.
func (s *Store) Get(_ context.Context, childID string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.load()
	if err != nil {
		return nil, err
	}
	result, ok := results[childID]
	if !ok {
		return nil, nil
	}
	return &result, nil
}

// Save stores or replaces the result for its child id.
func (s *Store) Save(_ context.Context, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.load()
	if err != nil {
		return err
	}
	results[result.ChildID] = result
	return s.save(results)
}

func (s *Store) load() (map[string]Result, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Result{}, nil
		}
		return nil, fmt.Errorf("failed to read screening store: %w", err)
	}

	results := map[string]Result{}
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse screening store: %w", err)
	}
	return results, nil
}

func (s *Store) save(results map[string]Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode screening store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".screenings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp screening file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write screening store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync screening store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp screening file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace screening store: %w", err)
	}
	return nil
}
