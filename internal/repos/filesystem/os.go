package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// OSFileSystem is the shared.FileSystem used outside tests: path resolution for
// repository roots and durable writes for the tracking store.
type OSFileSystem struct{}

func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (OSFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

func (OSFileSystem) EvalSymlinks(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}

func (OSFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}

func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data and flushes it to disk before returning, so a following
// Rename never publishes a partially written file.
func (OSFileSystem) WriteFile(path string, data []byte, permissions fs.FileMode) error {
	file, openError := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, permissions)
	if openError != nil {
		return openError
	}
	_, writeError := file.Write(data)
	if writeError == nil {
		writeError = file.Sync()
	}
	return errors.Join(writeError, file.Close())
}

func (OSFileSystem) Rename(oldPath string, newPath string) error {
	return os.Rename(oldPath, newPath)
}
