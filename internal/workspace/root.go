package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/temirov/manifold/internal/repos/shared"
)

// FindRoot returns the closest directory, starting at startDirectory and walking up,
// that holds the hidden workspace directory.
func FindRoot(fileSystem shared.FileSystem, startDirectory string) (string, error) {
	if fileSystem == nil {
		return "", ErrFileSystemNotConfigured
	}
	absoluteStart, absoluteError := fileSystem.Abs(startDirectory)
	if absoluteError != nil {
		return "", absoluteError
	}

	candidate := absoluteStart
	for {
		fileInfo, statError := fileSystem.Stat(filepath.Join(candidate, HiddenDirectoryNameConstant))
		switch {
		case statError == nil && fileInfo.IsDir():
			return candidate, nil
		case statError != nil && !errors.Is(statError, fs.ErrNotExist):
			return "", statError
		}

		parent := filepath.Dir(candidate)
		if parent == candidate {
			return "", ConfigurationError{Message: fmt.Sprintf(workspaceNotFoundTemplateConstant, absoluteStart)}
		}
		candidate = parent
	}
}
