package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSlot keeps each key in its own JSON file under dir
type FileSlot struct {
	dir string
}

// NewFileSlot creates the slot directory if needed
func NewFileSlot(dir string) (*FileSlot, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("slot directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create slot directory: %w", err)
	}
	return &FileSlot{dir: dir}, nil
}

func (s *FileSlot) path(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmptyKey
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid slot key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get reads the file for key; a missing file means the key is absent
func (s *FileSlot) Get(key string) ([]byte, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read slot file: %w", err)
	}
	return data, true, nil
}

// Set atomically writes the file for key (temp file → rename)
func (s *FileSlot) Set(key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	// Write to temp file
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, value, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Sync to disk
	file, err := os.OpenFile(tempPath, os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open temp file for sync: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	file.Close()

	// Atomic rename
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (s *FileSlot) Remove(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove slot file: %w", err)
	}
	return nil
}
