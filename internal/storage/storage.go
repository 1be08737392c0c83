package storage

import "time"

// FileInfo describes one stored upload.
type FileInfo struct {
	Name    string
	ModTime time.Time
}

// Storage is the durable home of processed upload files. Implementations must
// tolerate Delete on a missing file (the sweep and best-effort cleanup paths
// both race against each other).
type Storage interface {
	// Save writes data under filename, overwriting any existing file.
	Save(filename string, data []byte, contentType string) error
	// Delete removes filename. Deleting a missing file is not an error.
	Delete(filename string) error
	// List returns every stored file with its modification time.
	List() ([]FileInfo, error)
	// URL returns the public address of filename. requestBase is the
	// scheme://host prefix of the current request; backends with their own
	// public hostname ignore it.
	URL(requestBase, filename string) string
}
