package workspace

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/temirov/manifold/internal/manifest"
	"github.com/temirov/manifold/internal/repos/shared"
)

const (
	clonerDescriptionConstant = "Cloning missing repos"
)

type cloner struct {
	workspace *Workspace
}

func (task cloner) Description() string {
	return clonerDescriptionConstant
}

func (task cloner) DisplayItem(repository manifest.Repository) string {
	return repository.Source
}

// Process clones the repository at its declared branch or tag, then resets to a fixed revision when pinned.
func (task cloner) Process(executionContext context.Context, repository manifest.Repository) error {
	repositoryPath := task.workspace.RepositoryPath(repository.Source)
	parentDirectory, destinationName := filepath.Split(repositoryPath)
	if mkdirError := task.workspace.dependencies.FileSystem.MkdirAll(parentDirectory, directoryPermissionsConstant); mkdirError != nil {
		return CloneError{Source: repository.Source, Cause: mkdirError}
	}

	cloneReference := repository.Tag
	if len(cloneReference) == 0 {
		cloneReference = repository.Branch
	}

	cloneError := task.workspace.dependencies.GitManager.Clone(executionContext, shared.CloneOptions{
		RemoteURL:       repository.URL,
		Reference:       cloneReference,
		Shallow:         task.workspace.configuration.Shallow,
		ParentDirectory: filepath.Clean(parentDirectory),
		DestinationName: destinationName,
	})
	if cloneError != nil {
		return CloneError{Source: repository.Source, Cause: cloneError}
	}

	resolvedReference, pinned := ResolveReference(repository)
	if !pinned || resolvedReference == cloneReference {
		return nil
	}
	if resetError := task.workspace.dependencies.GitManager.ResetHard(executionContext, repositoryPath, resolvedReference); resetError != nil {
		return ResetError{
			Source:  repository.Source,
			Message: fmt.Sprintf(resetToReferenceFailedTemplateConstant, resolvedReference),
			Cause:   resetError,
		}
	}
	return nil
}
