package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotFound means no profile with that name exists.
	ErrNotFound = errors.New("profile not found")

	// ErrExists means a profile with that name already exists.
	ErrExists = errors.New("profile already exists")

	// ErrInvalidName means the name is empty after filesystem sanitizing.
	ErrInvalidName = errors.New("invalid profile name")
)

// Store is a directory of JSON profile files.
type Store struct {
	dir string
}

// NewStore opens (and creates if needed) the profile directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create profiles directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) (string, error) {
	safe := sanitizeName(name)
	if safe == "" {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, safe+".json"), nil
}

// Create writes a new profile. The profile's Name is forced to name and
// created/updated timestamps are set.
func (s *Store) Create(name string, p Profile) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}

	now := time.Now().UTC()
	p.Name = name
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.write(path, p)
}

// Load reads a profile by name.
func (s *Store) Load(name string) (*Profile, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304 - path built from a sanitized name inside the store dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read profile %q: %w", name, err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", name, err)
	}
	if p.Name == "" {
		p.Name = name
	}
	return &p, nil
}

// Save overwrites an existing profile, preserving its creation time.
func (s *Store) Save(name string, p Profile) error {
	existing, err := s.Load(name)
	if err != nil {
		return err
	}
	path, err := s.path(name)
	if err != nil {
		return err
	}

	p.Name = name
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	return s.write(path, p)
}

// Delete removes a profile.
func (s *Store) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("delete profile %q: %w", name, err)
	}
	return nil
}

// Rename moves a profile to a new name.
func (s *Store) Rename(oldName, newName string) error {
	p, err := s.Load(oldName)
	if err != nil {
		return err
	}
	newPath, err := s.path(newName)
	if err != nil {
		return err
	}
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, newName)
	}

	p.Name = newName
	p.UpdatedAt = time.Now().UTC()
	if err := s.write(newPath, *p); err != nil {
		return err
	}
	oldPath, err := s.path(oldName)
	if err != nil {
		return err
	}
	return os.Remove(oldPath)
}

// Duplicate copies a profile under a new name.
func (s *Store) Duplicate(sourceName, newName string) error {
	p, err := s.Load(sourceName)
	if err != nil {
		return err
	}
	return s.Create(newName, *p)
}

// List returns all profile names, sorted lexicographically.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), ".json")
		// Prefer the stored display name; fall back to the file stem for
		// unreadable files rather than dropping them silently.
		if p, err := s.Load(base); err == nil && p.Name != "" {
			names = append(names, p.Name)
		} else {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Export writes a profile to an arbitrary path outside the store.
func (s *Store) Export(name, destPath string) error {
	p, err := s.Load(name)
	if err != nil {
		return err
	}
	return s.write(destPath, *p)
}

// Import reads a profile file from outside the store. An empty name uses the
// name stored in the file, falling back to the file stem.
func (s *Store) Import(srcPath, name string) error {
	data, err := os.ReadFile(srcPath) //nolint:gosec // G304 - user-chosen import path
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parse import file: %w", err)
	}

	if name == "" {
		name = p.Name
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(srcPath), ".json")
	}
	return s.Create(name, p)
}

func (s *Store) write(path string, p Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}
