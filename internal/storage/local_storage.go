package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage stores uploads on the local filesystem under dir, served by the
// router under publicPath.
type LocalStorage struct {
	dir        string
	publicPath string
}

func NewLocalStorage(dir, publicPath string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &LocalStorage{
		dir:        dir,
		publicPath: strings.TrimSuffix(publicPath, "/"),
	}, nil
}

func (s *LocalStorage) Save(filename string, data []byte, contentType string) error {
	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write upload file %s: %w", filename, err)
	}
	return nil
}

func (s *LocalStorage) Delete(filename string) error {
	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete upload file %s: %w", filename, err)
	}
	return nil
}

func (s *LocalStorage) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list upload directory: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Name: entry.Name(), ModTime: info.ModTime()})
	}
	return files, nil
}

func (s *LocalStorage) URL(requestBase, filename string) string {
	return fmt.Sprintf("%s%s/%s", strings.TrimSuffix(requestBase, "/"), s.publicPath, filename)
}
