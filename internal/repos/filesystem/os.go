package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const temporaryFilePatternConstant = ".manifold-*"

// OSFileSystem implements shared.FileSystem on the local disk.
type OSFileSystem struct{}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Abs returns the absolute form of path with symbolic links resolved when the path exists,
// so a workspace reached through a link is reported under its real location.
func (OSFileSystem) Abs(path string) (string, error) {
	absolutePath, absoluteError := filepath.Abs(path)
	if absoluteError != nil {
		return "", absoluteError
	}
	resolvedPath, resolveError := filepath.EvalSymlinks(absolutePath)
	if resolveError != nil {
		if errors.Is(resolveError, fs.ErrNotExist) {
			return absolutePath, nil
		}
		return "", resolveError
	}
	return resolvedPath, nil
}

// MkdirAll ensures a directory hierarchy exists with the provided permissions.
func (OSFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}

// Chmod changes the permission bits of a path.
func (OSFileSystem) Chmod(path string, permissions fs.FileMode) error {
	return os.Chmod(path, permissions)
}

// ReadFile reads file contents.
func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to a temporary file in the destination directory and renames it over
// path. An existing read-only destination is therefore replaced rather than rejected.
func (OSFileSystem) WriteFile(path string, data []byte, permissions fs.FileMode) (writeError error) {
	temporaryFile, createError := os.CreateTemp(filepath.Dir(path), temporaryFilePatternConstant)
	if createError != nil {
		return createError
	}
	temporaryPath := temporaryFile.Name()
	defer func() {
		if writeError != nil {
			_ = os.Remove(temporaryPath)
		}
	}()

	if _, writeError = temporaryFile.Write(data); writeError != nil {
		_ = temporaryFile.Close()
		return writeError
	}
	if writeError = temporaryFile.Close(); writeError != nil {
		return writeError
	}
	if writeError = os.Chmod(temporaryPath, permissions); writeError != nil {
		return writeError
	}
	return os.Rename(temporaryPath, path)
}
