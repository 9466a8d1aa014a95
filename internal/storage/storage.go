package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SnapshotStore keeps uploaded snapshots on disk while they are being
// processed. Files are named by UUID so concurrent uploads never collide.
type SnapshotStore struct {
	basePath string
}

func NewSnapshotStore(basePath string) (*SnapshotStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &SnapshotStore{basePath: basePath}, nil
}

// Save writes the snapshot and returns the stored filename.
func (s *SnapshotStore) Save(r io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".jpg"
	}

	filename := uuid.New().String() + ext
	fullPath := filepath.Join(s.basePath, filename)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filename, nil
}

// Read returns the contents of a stored snapshot.
func (s *SnapshotStore) Read(name string) ([]byte, error) {
	fullPath, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Remove deletes a stored snapshot. Missing files are not an error; cleanup
// runs on paths that may already be gone.
func (s *SnapshotStore) Remove(name string) error {
	fullPath, err := s.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *SnapshotStore) resolve(name string) (string, error) {
	cleanName := filepath.Clean(name)
	if strings.Contains(cleanName, "..") || filepath.IsAbs(cleanName) {
		return "", fmt.Errorf("invalid path")
	}
	return filepath.Join(s.basePath, cleanName), nil
}
