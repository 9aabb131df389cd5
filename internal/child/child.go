// Package child stores child profiles used for subject correlation on
// submitted jobs.
package child

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Profile is one child known to the system.
type Profile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
}

// Store persists child profiles as a JSON array.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a child profile store at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{path: path}, nil
}

// List returns all profiles.
func (s *Store) List(_ context.Context) ([]Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Add stores a profile, assigning an id when the caller supplied none.
func (s *Store) Add(_ context.Context, profile Profile) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.load()
	if err != nil {
		return nil, err
	}

	if profile.ID == "" {
		profile.ID = "child_" + uuid.New().String()
	}
	profiles = append(profiles, profile)
	if err := s.save(profiles); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *Store) load() ([]Profile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Profile{}, nil
		}
		return nil, fmt.Errorf("failed to read child store: %w", err)
	}

	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse child store: %w", err)
	}
	return profiles, nil
}

func (s *Store) save(profiles []Profile) error {
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode child store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".children-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp child file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write child store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync child store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp child file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace child store: %w", err)
	}
	return nil
}
