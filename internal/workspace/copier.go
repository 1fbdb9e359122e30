package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/temirov/manifold/internal/manifest"
)

const (
	fileCopierDescriptionConstant   = "Copying files"
	copyDisplayTemplateConstant     = "%s -> %s"
	writableFilePermissionsConstant = fs.FileMode(0o644)
	readOnlyFilePermissionsConstant = fs.FileMode(0o444)
)

type fileCopier struct {
	workspace *Workspace
}

func (task fileCopier) Description() string {
	return fileCopierDescriptionConstant
}

func (task fileCopier) DisplayItem(directive manifest.CopyDirective) string {
	return fmt.Sprintf(copyDisplayTemplateConstant, directive.Source, directive.Destination)
}

// Process overwrites the destination with the source bytes and leaves it read-only.
func (task fileCopier) Process(executionContext context.Context, directive manifest.CopyDirective) error {
	fileSystem := task.workspace.dependencies.FileSystem
	sourcePath := task.workspace.RepositoryPath(directive.Source)
	destinationPath := task.workspace.RepositoryPath(directive.Destination)

	copyFailure := func(cause error) error {
		return CopyError{Source: directive.Source, Destination: directive.Destination, Cause: cause}
	}

	contents, readError := fileSystem.ReadFile(sourcePath)
	if readError != nil {
		return copyFailure(readError)
	}

	if _, statError := fileSystem.Stat(destinationPath); statError == nil {
		if chmodError := fileSystem.Chmod(destinationPath, writableFilePermissionsConstant); chmodError != nil {
			return copyFailure(chmodError)
		}
	} else if !errors.Is(statError, fs.ErrNotExist) {
		return copyFailure(statError)
	}

	if mkdirError := fileSystem.MkdirAll(filepath.Dir(destinationPath), directoryPermissionsConstant); mkdirError != nil {
		return copyFailure(mkdirError)
	}
	if writeError := fileSystem.WriteFile(destinationPath, contents, writableFilePermissionsConstant); writeError != nil {
		return copyFailure(writeError)
	}
	if chmodError := fileSystem.Chmod(destinationPath, readOnlyFilePermissionsConstant); chmodError != nil {
		return copyFailure(chmodError)
	}
	return nil
}
