// Package storage persists uploaded files (product images, supplier
// documents) and hands back the public URL to store in the database.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Storage writes blobs and returns public URLs.
type Storage interface {
	// Save writes data under a fresh name with the given extension
	// (".jpg", ".pdf") and returns the public URL.
	Save(data []byte, ext string) (string, error)
	// Read returns the raw bytes behind a URL previously issued by Save.
	Read(url string) ([]byte, error)
}

// DiskStorage keeps files in a local uploads folder, served as static
// files by the router. Filenames are UUIDs so uploads can never collide or
// overwrite each other.
type DiskStorage struct {
	Dir     string // local directory, e.g. "./uploads"
	BaseURL string // public prefix, e.g. "http://localhost:8080"
}

// NewDiskStorage creates the uploads directory if needed.
func NewDiskStorage(dir, baseURL string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DiskStorage{Dir: dir, BaseURL: baseURL}, nil
}

func (s *DiskStorage) Save(data []byte, ext string) (string, error) {
	name := uuid.New().String() + ext
	path := filepath.Join(s.Dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return fmt.Sprintf("%s/uploads/%s", s.BaseURL, name), nil
}

func (s *DiskStorage) Read(url string) ([]byte, error) {
	// Only the filename part matters; the prefix may differ between
	// environments (BASE_URL changes, the files do not move).
	name := filepath.Base(url)
	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}
